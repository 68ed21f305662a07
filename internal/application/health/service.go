package health

import (
	"context"
	"sort"
	"time"

	corehealth "3tcapital/ms_emision_dian/internal/core/health"
)

const checkTimeout = 2 * time.Second

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Check pings one backing service.
type Check func(ctx context.Context) error

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	startedAt time.Time
	checks    map[string]Check
}

// NewService builds the service. checks maps a dependency name to its ping.
func NewService(meta Metadata, checks map[string]Check) *Service {
	return &Service{
		meta:      meta,
		startedAt: time.Now().UTC(),
		checks:    checks,
	}
}

// Status returns the current availability snapshot. A failed dependency
// degrades the service without taking it down.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dep := corehealth.Dependency{Name: name, Status: corehealth.StatusUp}
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		if err := s.checks[name](checkCtx); err != nil {
			dep.Status = corehealth.StatusDown
			dep.Error = err.Error()
			status.Status = corehealth.StatusDegraded
		}
		cancel()
		status.Dependencies = append(status.Dependencies, dep)
	}
	return status
}
