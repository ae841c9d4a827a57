package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/reglet-dev/asmbridge/errors"
	"github.com/reglet-dev/asmbridge/host"
)

// Outcome summarizes one executed job.
type Outcome struct {
	Name   string              `yaml:"name"`
	Format string              `yaml:"format,omitempty"`
	Output string              `yaml:"output,omitempty"`
	Status string              `yaml:"status"`
	Bytes  int                 `yaml:"bytes,omitempty"`
	Error  *errors.ErrorDetail `yaml:"error,omitempty"`
}

// OK reports whether the job produced its rendering.
func (o Outcome) OK() bool {
	return o.Error == nil
}

// Runner executes manifests through a Client.
type Runner struct {
	client *host.Client
	logger *zap.Logger
}

// NewRunner creates a Runner. A nil logger disables logging.
func NewRunner(client *host.Client, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{client: client, logger: logger}
}

// Run executes every job in order. A failing job does not stop the
// others; the returned error is non-nil only when the context ends.
func (r *Runner) Run(ctx context.Context, m *Manifest) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(m.Jobs))
	for _, j := range m.Jobs {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		o := r.runJob(ctx, m, j)
		if o.OK() {
			r.logger.Info("job finished", zap.String("job", o.Name), zap.String("output", o.Output), zap.Int("bytes", o.Bytes))
		} else {
			r.logger.Warn("job failed", zap.String("job", o.Name), zap.String("type", o.Error.Type))
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

func (r *Runner) runJob(ctx context.Context, m *Manifest, j Job) Outcome {
	o := Outcome{Name: j.Name, Output: m.OutputPath(j), Status: "failure"}

	f, err := m.FormatOf(j)
	if err != nil {
		o.Error = errors.ToErrorDetail(err)
		return o
	}
	o.Format = f.String()

	src, err := os.ReadFile(m.SourcePath(j))
	if err != nil {
		o.Error = errors.ToErrorDetail(fmt.Errorf("failed to read source: %w", err))
		return o
	}

	res, err := r.client.Assemble(ctx, f, src)
	if err != nil {
		o.Error = errors.ToErrorDetail(err)
		return o
	}
	o.Status = res.Status.String()
	if !res.OK() {
		o.Error = errors.ToErrorDetail(&errors.AssemblyError{Report: res.Text})
		return o
	}
	o.Bytes = len(res.Text)

	if o.Output != "" {
		if err := os.MkdirAll(filepath.Dir(o.Output), 0o755); err != nil {
			o.Error = errors.ToErrorDetail(fmt.Errorf("failed to create output directory: %w", err))
			return o
		}
		if err := os.WriteFile(o.Output, []byte(res.Text), 0o644); err != nil {
			o.Error = errors.ToErrorDetail(fmt.Errorf("failed to write output: %w", err))
			return o
		}
	}
	return o
}
