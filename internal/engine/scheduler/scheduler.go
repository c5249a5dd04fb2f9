// Package scheduler runs independent build jobs on a bounded pool of goroutines.
package scheduler

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// JobFunc executes a single build job.
type JobFunc func(ctx context.Context, job domain.BuildJob) domain.JobResult

// Options configure a Scheduler.
type Options struct {
	// Workers bounds the number of jobs running at the same time.
	Workers int
	// FailFast abandons queued jobs and rejects submissions after the first failure.
	FailFast bool
}

// Scheduler executes submitted jobs concurrently.
//
// A single dispatcher goroutine owns the queue and the result accumulator;
// Submit, job completions and Collect all reach it through channels.
type Scheduler struct {
	ctx  context.Context
	run  JobFunc
	opts Options

	submitCh  chan submitRequest
	resultsCh chan completion
	collectCh chan struct{}
	done      chan struct{}

	collectOnce sync.Once
	report      Report
}

type submitRequest struct {
	job   domain.BuildJob
	reply chan error
}

type completion struct {
	seq    int
	result domain.JobResult
}

type queuedJob struct {
	seq int
	job domain.BuildJob
}

// New starts a Scheduler. Jobs receive ctx; cancelling it stops the
// scheduler the same way a fail-fast failure does.
func New(ctx context.Context, run JobFunc, opts Options) (*Scheduler, error) {
	if opts.Workers < 1 {
		return nil, zerr.With(domain.ErrInvalidWorkerCount, "workers", opts.Workers)
	}

	s := &Scheduler{
		ctx:       ctx,
		run:       run,
		opts:      opts,
		submitCh:  make(chan submitRequest),
		resultsCh: make(chan completion, opts.Workers),
		collectCh: make(chan struct{}),
		done:      make(chan struct{}),
	}
	go s.dispatch()
	return s, nil
}

// Submit enqueues a job and returns without waiting for it to run.
//
// Submitting an output that was already accepted is a no-op. Submit fails with
// ErrSchedulerStopped once a fail-fast failure was observed, the context was
// cancelled, or Collect was called.
func (s *Scheduler) Submit(job domain.BuildJob) error {
	req := submitRequest{job: job, reply: make(chan error, 1)}
	select {
	case s.submitCh <- req:
		return <-req.reply
	case <-s.done:
		return zerr.With(domain.ErrSchedulerStopped, "output", job.Output)
	}
}

// Collect blocks until every accepted job completed or was abandoned and
// returns the report. Calling it again returns the same report.
func (s *Scheduler) Collect() Report {
	s.collectOnce.Do(func() {
		close(s.collectCh)
	})
	<-s.done
	return s.report
}

// Run creates a Scheduler, hands it to fn and collects it on every exit path,
// including a panic in fn. No job outlives the call.
func Run(ctx context.Context, run JobFunc, opts Options, fn func(*Scheduler) error) (report Report, err error) {
	s, err := New(ctx, run, opts)
	if err != nil {
		return Report{}, err
	}
	defer func() {
		report = s.Collect()
	}()
	return report, fn(s)
}

type dispatchState struct {
	s *Scheduler

	seq        int
	accepted   map[string]struct{}
	queue      []queuedJob
	active     int
	stopped    bool
	collecting bool

	results   map[int]domain.JobResult
	abandoned []domain.BuildJob
}

func (s *Scheduler) dispatch() {
	defer close(s.done)

	state := &dispatchState{
		s:        s,
		accepted: make(map[string]struct{}),
		results:  make(map[int]domain.JobResult),
	}

	collectCh := s.collectCh
	ctxDone := s.ctx.Done()

	for {
		state.schedule()
		if state.collecting && state.active == 0 && len(state.queue) == 0 {
			break
		}

		select {
		case req := <-s.submitCh:
			req.reply <- state.accept(req.job)
		case res := <-s.resultsCh:
			state.handleResult(res)
		case <-collectCh:
			state.collecting = true
			collectCh = nil
		case <-ctxDone:
			state.stop()
			ctxDone = nil
		}
	}

	s.report = state.buildReport()
}

func (state *dispatchState) accept(job domain.BuildJob) error {
	if state.stopped || state.collecting {
		return zerr.With(domain.ErrSchedulerStopped, "output", job.Output)
	}
	if job.Output != "" {
		if _, dup := state.accepted[job.Output]; dup {
			return nil
		}
		state.accepted[job.Output] = struct{}{}
	}
	state.queue = append(state.queue, queuedJob{seq: state.seq, job: job})
	state.seq++
	return nil
}

func (state *dispatchState) schedule() {
	if !state.stopped && state.s.ctx.Err() != nil {
		state.stop()
	}
	for len(state.queue) > 0 && state.active < state.s.opts.Workers && !state.stopped {
		next := state.queue[0]
		state.queue = state.queue[1:]
		state.active++
		go state.s.execute(next)
	}
}

func (state *dispatchState) handleResult(res completion) {
	state.active--
	state.results[res.seq] = res.result
	if res.result.Status == domain.JobFailed && state.s.opts.FailFast {
		state.stop()
	}
}

// stop abandons every queued job and rejects further submissions.
func (state *dispatchState) stop() {
	state.stopped = true
	for _, q := range state.queue {
		state.abandoned = append(state.abandoned, q.job)
	}
	state.queue = nil
}

func (state *dispatchState) buildReport() Report {
	seqs := make([]int, 0, len(state.results))
	for seq := range state.results {
		seqs = append(seqs, seq)
	}
	slices.Sort(seqs)

	report := Report{
		Results:   make([]domain.JobResult, 0, len(seqs)),
		Abandoned: state.abandoned,
		OK:        len(state.abandoned) == 0,
	}
	for _, seq := range seqs {
		res := state.results[seq]
		if !res.Status.OK() {
			report.OK = false
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func (s *Scheduler) execute(q queuedJob) {
	s.resultsCh <- completion{seq: q.seq, result: s.runJob(q.job)}
}

func (s *Scheduler) runJob(job domain.BuildJob) (res domain.JobResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = domain.JobResult{
				Status: domain.JobFailed,
				Err:    zerr.With(domain.ErrJobFailure, "panic", fmt.Sprint(r)),
			}
		}
		res = normalize(job, res, time.Since(start))
	}()
	return s.run(s.ctx, job)
}

// normalize fills in the identity and duration and makes every failure carry
// ErrJobFailure with the job's output.
func normalize(job domain.BuildJob, res domain.JobResult, elapsed time.Duration) domain.JobResult {
	res.Output = job.Output
	if res.Duration == 0 {
		res.Duration = elapsed
	}
	if res.Status == "" {
		res.Status = domain.JobSucceeded
		if res.Err != nil {
			res.Status = domain.JobFailed
		}
	}
	if res.Status != domain.JobFailed {
		res.Err = nil
		return res
	}

	cause := res.Err
	if cause == nil {
		cause = domain.ErrJobFailure
	} else {
		cause = zerr.Wrap(cause, domain.ErrJobFailure.Error())
	}
	res.Err = zerr.With(cause, "output", job.Output)
	return res
}
