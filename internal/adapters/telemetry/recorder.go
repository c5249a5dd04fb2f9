// Package telemetry records component and job progress on a progrock tape.
package telemetry

import (
	"context"
	"io"
	"strconv"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/kiln/internal/core/ports"
)

// Recorder implements ports.Tracer using progrock.
type Recorder struct {
	w    progrock.Writer
	rec  *progrock.Recorder
	echo io.Writer
	seq  atomic.Uint64
}

// New creates a Recorder on a fresh tape, echoing vertex output to echo.
// A nil echo keeps output on the tape only.
func New(echo io.Writer) *Recorder {
	return NewRecorder(progrock.NewTape(), echo)
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w progrock.Writer, echo io.Writer) *Recorder {
	return &Recorder{
		w:    w,
		rec:  progrock.NewRecorder(w),
		echo: echo,
	}
}

// Vertex starts a new vertex and returns a context carrying it.
// Names may repeat across a build; every call gets its own digest.
func (r *Recorder) Vertex(ctx context.Context, name string) (context.Context, ports.Vertex) {
	n := r.seq.Add(1)
	d := digest.FromString(strconv.FormatUint(n, 10) + ":" + name)

	v := &Vertex{vertex: r.rec.Vertex(d, name), echo: r.echo}
	return ports.ContextWithVertex(ctx, v), v
}

// Close flushes and closes the tape.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Vertex implements ports.Vertex wrapping *progrock.VertexRecorder.
type Vertex struct {
	vertex *progrock.VertexRecorder
	echo   io.Writer
}

// Stdout returns a writer capturing standard output of the work.
func (v *Vertex) Stdout() io.Writer {
	return v.tee(v.vertex.Stdout())
}

// Stderr returns a writer capturing error output of the work.
func (v *Vertex) Stderr() io.Writer {
	return v.tee(v.vertex.Stderr())
}

// Cached marks the vertex as up to date.
func (v *Vertex) Cached() {
	v.vertex.Cached()
}

// Done completes the vertex.
func (v *Vertex) Done(err error) {
	v.vertex.Done(err)
}

func (v *Vertex) tee(w io.Writer) io.Writer {
	if v.echo == nil {
		return w
	}
	return io.MultiWriter(w, v.echo)
}
