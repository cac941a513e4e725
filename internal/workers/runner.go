package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron"
	"github.com/rs/zerolog/log"
)

type Job func(ctx context.Context) error

// Runner schedules jobs on cron specs. A job still running when its next
// tick fires is skipped for that tick.
type Runner struct {
	ctx     context.Context
	cron    *cron.Cron
	mu      sync.Mutex
	running map[string]bool
}

func NewRunner(ctx context.Context) *Runner {
	return &Runner{
		ctx:     ctx,
		cron:    cron.New(),
		running: make(map[string]bool),
	}
}

func (r *Runner) Add(spec, name string, job Job) error {
	return r.cron.AddFunc(spec, func() { r.Run(name, job) })
}

// ErrJobRunning is returned by RunOnce when the named job is mid-run.
var ErrJobRunning = errors.New("job already running")

// Run executes job once under name, unless it is already running.
func (r *Runner) Run(name string, job Job) bool {
	return !errors.Is(r.RunOnce(name, job), ErrJobRunning)
}

// RunOnce executes job under name and returns its error, or ErrJobRunning
// without calling job when a previous run has not finished.
func (r *Runner) RunOnce(name string, job Job) error {
	r.mu.Lock()
	if r.running[name] {
		r.mu.Unlock()
		log.Warn().Str("job", name).Msg("Previous run still in progress, skipping")
		return ErrJobRunning
	}
	r.running[name] = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.running, name)
		r.mu.Unlock()
	}()

	start := time.Now()
	if err := job(r.ctx); err != nil {
		log.Error().Err(err).Str("job", name).Dur("duration", time.Since(start)).Msg("Job failed")
		return err
	}
	log.Info().Str("job", name).Dur("duration", time.Since(start)).Msg("Job completed")
	return nil
}

func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts scheduling. robfig/cron does not wait for in-flight jobs.
func (r *Runner) Stop() {
	r.cron.Stop()
}
