package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AttributionReloader re-reads static attribution files.
type AttributionReloader interface {
	Reload() int
}

// BreakerReporter exposes upstream circuit breaker states by source.
type BreakerReporter interface {
	BreakerStates() map[string]string
}

type Scheduler struct {
	cron         *cron.Cron
	attributions AttributionReloader
	breakers     BreakerReporter
	logger       *zap.Logger

	reloadSpec string
	reportSpec string

	mu      sync.Mutex
	running bool
	entries map[string]cron.EntryID
	lastRun map[string]time.Time
}

func NewScheduler(attributions AttributionReloader, breakers BreakerReporter, reloadSpec, reportSpec string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(logger))),
			cron.WithChain(cron.Recover(cron.PrintfLogger(zap.NewStdLog(logger)))),
		),
		attributions: attributions,
		breakers:     breakers,
		logger:       logger,
		reloadSpec:   reloadSpec,
		reportSpec:   reportSpec,
		entries:      make(map[string]cron.EntryID),
		lastRun:      make(map[string]time.Time),
	}
}

// Start registers the jobs and starts the cron runner. An invalid schedule
// is returned as an error and nothing is started.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"attribution_reload", s.reloadSpec, s.reloadAttributions},
		{"breaker_report", s.reportSpec, s.reportBreakers},
	}

	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, exists := s.entries[job.name]; exists {
			continue
		}
		id, err := s.cron.AddFunc(job.spec, job.run)
		if err != nil {
			s.logger.Error("Invalid schedule",
				zap.String("job", job.name),
				zap.String("spec", job.spec),
				zap.Error(err))
			return err
		}
		s.entries[job.name] = id
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started",
		zap.String("attribution_reload", s.reloadSpec),
		zap.String("breaker_report", s.reportSpec))

	return nil
}

func (s *Scheduler) reloadAttributions() {
	startTime := time.Now()
	entries := s.attributions.Reload()
	s.markRun("attribution_reload")

	s.logger.Info("Attributions reloaded",
		zap.Int("entries", entries),
		zap.Duration("duration", time.Since(startTime)))
}

func (s *Scheduler) reportBreakers() {
	states := s.breakers.BreakerStates()
	s.markRun("breaker_report")

	for source, state := range states {
		if state == "closed" {
			s.logger.Debug("Circuit breaker state", zap.String("source", source), zap.String("state", state))
			continue
		}
		s.logger.Warn("Circuit breaker not closed", zap.String("source", source), zap.String("state", state))
	}
}

func (s *Scheduler) markRun(job string) {
	s.mu.Lock()
	s.lastRun[job] = time.Now()
	s.mu.Unlock()
}

// Stop halts the runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// ForceRun triggers both jobs immediately on the calling goroutine.
func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering scheduled jobs")
	s.reloadAttributions()
	s.reportBreakers()
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make(map[string]interface{}, len(s.entries))
	for name, id := range s.entries {
		entry := s.cron.Entry(id)
		jobs[name] = map[string]interface{}{
			"next_run": entry.Next,
			"last_run": s.lastRun[name],
		}
	}

	return map[string]interface{}{
		"running": s.running,
		"jobs":    jobs,
	}
}
