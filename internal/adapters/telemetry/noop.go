package telemetry

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/ports"
)

// NoOpTracer is a ports.Tracer that records nothing.
// Vertex output goes to the writer it was created with, or is discarded.
type NoOpTracer struct {
	out io.Writer
}

// NewNoOpTracer creates a NoOpTracer writing vertex output to out.
func NewNoOpTracer(out io.Writer) *NoOpTracer {
	if out == nil {
		out = io.Discard
	}
	return &NoOpTracer{out: out}
}

// Vertex returns a vertex that only forwards output.
func (t *NoOpTracer) Vertex(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	v := &noopVertex{out: t.out}
	return ports.ContextWithVertex(ctx, v), v
}

// Close does nothing.
func (t *NoOpTracer) Close() error { return nil }

type noopVertex struct {
	out io.Writer
}

func (v *noopVertex) Stdout() io.Writer { return v.out }
func (v *noopVertex) Stderr() io.Writer { return v.out }
func (v *noopVertex) Cached()           {}
func (v *noopVertex) Done(error)        {}
