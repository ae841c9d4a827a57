package host

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reglet-dev/asmbridge/errors"
	"github.com/reglet-dev/asmbridge/format"
	"github.com/reglet-dev/asmbridge/internal/abi"
	"github.com/reglet-dev/asmbridge/pipeline"
)

// Client speaks the buffer protocol with a Guest. Every handle it
// obtains is destroyed before the call returns, also on error paths.
type Client struct {
	guest Guest
	opts  options
}

// NewClient wraps g.
func NewClient(g Guest, opts ...Option) *Client {
	return &Client{guest: g, opts: buildOptions(opts)}
}

// Stage copies data into a new guest buffer. The caller owns the handle.
func (c *Client) Stage(ctx context.Context, data []byte) (uint32, error) {
	if len(data) > c.opts.maxRequestSize {
		return 0, &errors.MemoryError{Requested: len(data), Limit: c.opts.maxRequestSize}
	}

	h, err := c.guest.CreateBuffer(ctx, uint32(len(data)))
	if err != nil {
		return 0, err
	}
	if err := c.write(ctx, h, data); err != nil {
		c.release(ctx, h)
		return 0, err
	}
	return h, nil
}

func (c *Client) write(ctx context.Context, h uint32, data []byte) error {
	if bulk, ok := c.guest.(BulkGuest); ok {
		return bulk.WriteBuffer(ctx, h, data)
	}
	for i, b := range data {
		if err := c.guest.SetByte(ctx, h, uint32(i), b); err != nil {
			return err
		}
	}
	return nil
}

// Collect reads the contents of h and destroys it.
func (c *Client) Collect(ctx context.Context, h uint32) ([]byte, error) {
	data, err := c.read(ctx, h)
	if err != nil {
		c.release(ctx, h)
		return nil, err
	}
	if err := c.guest.DestroyBuffer(ctx, h); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) read(ctx context.Context, h uint32) ([]byte, error) {
	if bulk, ok := c.guest.(BulkGuest); ok {
		return bulk.ReadBuffer(ctx, h)
	}
	n, err := c.guest.BufferLength(ctx, h)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	for i := range out {
		if out[i], err = c.guest.GetByte(ctx, h, uint32(i)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// release destroys h, logging a failure instead of returning it.
func (c *Client) release(ctx context.Context, h uint32) {
	if err := c.guest.DestroyBuffer(ctx, h); err != nil {
		c.opts.logger.Warn("failed to release guest buffer", zap.Uint32("handle", h), zap.Error(err))
	}
}

// Assemble assembles src and returns the rendering or, with
// StatusFailure, the diagnostic report.
func (c *Client) Assemble(ctx context.Context, f format.Format, src []byte) (pipeline.Result, error) {
	if !f.Valid() {
		return pipeline.Result{}, &errors.FormatError{Value: f.String()}
	}

	in, err := c.Stage(ctx, src)
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("stage source: %w", err)
	}
	defer c.release(ctx, in)

	packed, err := c.guest.AssembleTagged(ctx, uint32(f), in)
	if err != nil {
		return pipeline.Result{}, err
	}
	status, out := abi.UnpackResult(packed)

	text, err := c.Collect(ctx, uint32(out))
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("collect result: %w", err)
	}

	res := pipeline.Result{Status: pipeline.Status(status), Text: string(text)}
	c.opts.logger.Debug("assembled",
		zap.Stringer("format", f),
		zap.Int("source_bytes", len(src)),
		zap.Stringer("status", res.Status),
		zap.Int("text_bytes", len(res.Text)))
	return res, nil
}

// AssembleText uses the untagged assemble export: the text is either
// the rendering or a diagnostic report and the two cannot be told apart.
func (c *Client) AssembleText(ctx context.Context, f format.Format, src []byte) (string, error) {
	if !f.Valid() {
		return "", &errors.FormatError{Value: f.String()}
	}

	in, err := c.Stage(ctx, src)
	if err != nil {
		return "", fmt.Errorf("stage source: %w", err)
	}
	defer c.release(ctx, in)

	out, err := c.guest.Assemble(ctx, uint32(f), in)
	if err != nil {
		return "", err
	}
	text, err := c.Collect(ctx, out)
	if err != nil {
		return "", fmt.Errorf("collect result: %w", err)
	}
	return string(text), nil
}

// Version returns the guest's build version.
func (c *Client) Version(ctx context.Context) (string, error) {
	h, err := c.guest.Version(ctx)
	if err != nil {
		return "", err
	}
	v, err := c.Collect(ctx, h)
	if err != nil {
		return "", fmt.Errorf("collect version: %w", err)
	}
	return string(v), nil
}
