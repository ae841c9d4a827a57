// Command asmbridge assembles source files through the assembler guest,
// either in-process or loaded from a WASM module.
package main

import (
	"context"
	stdErrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/reglet-dev/asmbridge/errors"
	"github.com/reglet-dev/asmbridge/format"
	"github.com/reglet-dev/asmbridge/host"
	"github.com/reglet-dev/asmbridge/internal/asm"
	"github.com/reglet-dev/asmbridge/internal/diagn"
	"github.com/reglet-dev/asmbridge/internal/job"
	"github.com/reglet-dev/asmbridge/internal/prompt"
	"github.com/reglet-dev/asmbridge/internal/version"
	"github.com/reglet-dev/asmbridge/internal/vfs"
)

type cliFlags struct {
	format      string
	output      string
	wasmFile    string
	interactive bool
	tree        bool
	verbose     bool
	jobFile     string
	schema      bool
	version     bool
	formats     bool
}

func main() {
	var f cliFlags
	flag.StringVar(&f.format, "f", format.HexDump.String(), "Output format name or code (see -formats)")
	flag.StringVar(&f.output, "o", "", "Write output to file instead of stdout")
	flag.StringVar(&f.wasmFile, "wasm", "", "Run the assembler from this WASM module instead of in-process")
	flag.BoolVar(&f.interactive, "i", false, "Choose the output format interactively")
	flag.BoolVar(&f.tree, "tree", false, "Print the parsed statement tree to stderr")
	flag.BoolVar(&f.verbose, "v", false, "Verbose logging")
	flag.StringVar(&f.jobFile, "job", "", "Run the jobs in a YAML manifest")
	flag.BoolVar(&f.schema, "schema", false, "Print the JSON schema of job manifests and exit")
	flag.BoolVar(&f.version, "version", false, "Print the version and exit")
	flag.BoolVar(&f.formats, "formats", false, "List output formats and exit")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: asmbridge [-f format] [-o out] [-wasm module.wasm] [-i] [-tree] [-v] file.asm")
		fmt.Fprintln(os.Stderr, "       asmbridge -job jobs.yaml")
		fmt.Fprintln(os.Stderr, "       asmbridge -schema | -version | -formats")
		flag.PrintDefaults()
	}
	flag.Parse()

	os.Exit(run(context.Background(), f, flag.Args()))
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// run returns the process exit status: 0 on success, 1 when assembly
// or a job failed, 2 on usage and I/O errors.
func run(ctx context.Context, f cliFlags, args []string) int {
	logger := newLogger(f.verbose)
	defer func() { _ = logger.Sync() }()

	switch {
	case f.schema:
		data, err := job.Schema()
		if err != nil {
			return fail(err)
		}
		fmt.Println(string(data))
		return 0
	case f.formats:
		printFormats(os.Stdout)
		return 0
	}

	guest, closeGuest, err := openGuest(ctx, f.wasmFile, logger)
	if err != nil {
		return fail(err)
	}
	defer closeGuest()
	client := host.NewClient(guest, host.WithLogger(logger))

	switch {
	case f.version:
		v, err := client.Version(ctx)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("asmbridge %s (guest %s)\n", version.String(), v)
		return 0
	case f.jobFile != "":
		return runJobs(ctx, client, f.jobFile, logger)
	}

	if len(args) != 1 {
		flag.Usage()
		return 2
	}
	return assembleFile(ctx, client, f, args[0])
}

func openGuest(ctx context.Context, wasmFile string, logger *zap.Logger) (host.Guest, func(), error) {
	if wasmFile == "" {
		return host.NewLocalGuest(host.WithLogger(logger)), func() {}, nil
	}

	wasm, err := os.ReadFile(wasmFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read module: %w", err)
	}
	exec, err := host.NewExecutor(ctx, host.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	inst, err := exec.Load(ctx, wasm)
	if err != nil {
		_ = exec.Close(ctx)
		return nil, nil, err
	}
	return inst, func() {
		_ = inst.Close(ctx)
		_ = exec.Close(ctx)
	}, nil
}

func assembleFile(ctx context.Context, client *host.Client, f cliFlags, path string) int {
	src, err := readSource(path)
	if err != nil {
		return fail(err)
	}

	fmtCode, err := format.Parse(f.format)
	if err != nil {
		return fail(err)
	}
	if f.interactive {
		fmtCode, err = prompt.NewFormatPrompter(os.Stdin, os.Stderr).SelectFormat(fmtCode)
		if err != nil {
			return fail(err)
		}
	}

	if f.tree {
		printTree(os.Stderr, path, src)
	}

	res, err := client.Assemble(ctx, fmtCode, src)
	if err != nil {
		return fail(err)
	}
	if !res.OK() {
		return fail(&errors.AssemblyError{Report: res.Text})
	}

	if f.output == "" {
		_, _ = io.WriteString(os.Stdout, res.Text)
		return 0
	}
	if err := os.WriteFile(f.output, []byte(res.Text), 0o644); err != nil {
		return fail(fmt.Errorf("write output: %w", err))
	}
	return 0
}

func readSource(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return src, nil
}

// printTree lays out the source natively, resolving #include against the
// source's directory, and draws the statements.
func printTree(w io.Writer, path string, src []byte) {
	fs := vfs.NewDir(filepath.Dir(path))
	name := filepath.Base(path)
	fs.Add(name, src)

	state := asm.NewState()
	report := diagn.NewReport()
	if err := state.ProcessFile(report, fs, name); err != nil {
		_ = report.PrintAll(w, fs)
		return
	}
	fmt.Fprintln(w, state.StatementTree())
}

func runJobs(ctx context.Context, client *host.Client, path string, logger *zap.Logger) int {
	m, err := job.Load(path)
	if err != nil {
		return fail(err)
	}
	outcomes, err := job.NewRunner(client, logger).Run(ctx, m)
	if err != nil {
		return fail(err)
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(outcomes); err != nil {
		return fail(err)
	}
	_ = enc.Close()

	for _, o := range outcomes {
		if !o.OK() {
			return 1
		}
	}
	return 0
}

func printFormats(w io.Writer) {
	st := newStyles(w)
	for _, f := range format.All() {
		fmt.Fprintf(w, "%s  %s\n", st.code.Render(fmt.Sprint(uint32(f))), st.name.Render(f.String()))
	}
}

// fail prints err and returns the exit status for it.
func fail(err error) int {
	st := newStyles(os.Stderr)

	var asmErr *errors.AssemblyError
	if stdErrors.As(err, &asmErr) {
		fmt.Fprintln(os.Stderr, st.failure.Render("assembly failed"))
		fmt.Fprint(os.Stderr, asmErr.Report)
		return 1
	}

	detail := errors.ToErrorDetail(err)
	msg := strings.TrimSpace(detail.Message)
	fmt.Fprintf(os.Stderr, "%s %s\n", st.failure.Render("error:"), msg)
	if stdErrors.Is(err, prompt.ErrInterrupted) {
		return 130
	}
	return 2
}
