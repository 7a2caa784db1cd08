package orchestrator

import (
	"context"
	"time"

	"hls-session/internal/playlist"
)

// appendQueueSize bounds the jobs waiting on one session.
const appendQueueSize = 64

// DefaultWorkerIdleTimeout is how long a session worker waits for a new job
// before it exits.
const DefaultWorkerIdleTimeout = time.Minute

// sessionJob is one mutation of a session: an append, or a restore when
// restore is set.
type sessionJob struct {
	ctx       context.Context
	sessionID string
	source    string
	opts      AppendOptions
	restore   *playlist.Session
	done      chan jobResult // buffered, receives exactly one result
}

type jobResult struct {
	segment playlist.MediaSegment
	err     error
}

// sessionWorker owns the mutations of one session. Jobs run one at a time in
// submission order. pending counts jobs handed out by workerFor that have not
// finished yet and is guarded by Service.mu.
type sessionWorker struct {
	id      string
	jobs    chan *sessionJob
	exited  chan struct{}
	pending int
}

// workerFor returns the worker of session id, starting one if needed, and
// reserves it for one job. The caller must pass the job to submit.
func (s *Service) workerFor(id string) (*sessionWorker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrServiceClosed
	}
	w, ok := s.workers[id]
	if !ok {
		w = &sessionWorker{
			id:     id,
			jobs:   make(chan *sessionJob, appendQueueSize),
			exited: make(chan struct{}),
		}
		s.workers[id] = w
		s.wg.Add(1)
		go s.runWorker(w)
	}
	w.pending++
	return w, nil
}

func (s *Service) runWorker(w *sessionWorker) {
	defer s.wg.Done()
	defer close(w.exited)

	idle := time.NewTimer(s.idleTimeout)
	defer idle.Stop()
	for {
		select {
		case job := <-w.jobs:
			job.done <- s.run(job)
			s.finishJob(w)
			idle.Reset(s.idleTimeout)
		case <-idle.C:
			if s.retireIfIdle(w) {
				return
			}
			idle.Reset(s.idleTimeout)
		case <-s.quit:
			// Fail whatever is still queued so no caller blocks forever.
			for {
				select {
				case job := <-w.jobs:
					job.done <- jobResult{err: ErrServiceClosed}
				default:
					return
				}
			}
		}
	}
}

func (s *Service) run(job *sessionJob) jobResult {
	if job.restore != nil {
		return jobResult{err: s.restore(job)}
	}
	seg, err := s.process(job)
	return jobResult{segment: seg, err: err}
}

func (s *Service) finishJob(w *sessionWorker) {
	s.mu.Lock()
	w.pending--
	s.mu.Unlock()
}

// retireIfIdle unregisters w when no job is reserved on it. A later workerFor
// starts a fresh worker for the session.
func (s *Service) retireIfIdle(w *sessionWorker) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.pending > 0 {
		return false
	}
	if s.workers[w.id] == w {
		delete(s.workers, w.id)
	}
	return true
}

// submit queues job on w and waits for its result. A job that is still queued
// when ctx ends is failed by the worker before any side effect.
func (s *Service) submit(ctx context.Context, w *sessionWorker, job *sessionJob) (playlist.MediaSegment, error) {
	select {
	case w.jobs <- job:
	case <-ctx.Done():
		s.finishJob(w)
		return playlist.MediaSegment{}, ctx.Err()
	case <-s.quit:
		s.finishJob(w)
		return playlist.MediaSegment{}, ErrServiceClosed
	}

	select {
	case r := <-job.done:
		return r.segment, r.err
	case <-w.exited:
		select {
		case r := <-job.done:
			return r.segment, r.err
		default:
			return playlist.MediaSegment{}, ErrServiceClosed
		}
	}
}

func (s *Service) workerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}
