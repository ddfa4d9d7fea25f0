package workload

import (
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tiny-systems/charmd/api/v1alpha1"
)

// Supervisor controls the managed service process. Implementations must be
// synchronous, the dispatch loop blocks on them and the host runtime's
// timeout is the only watchdog.
type Supervisor interface {
	// EnsureRunning starts the service if it is not running
	EnsureRunning(ctx context.Context) error
	// Restart stops and starts the service, applying new configuration
	Restart(ctx context.Context) error
	// Reload asks the service to re-read its configuration without a full
	// restart, falling back to a restart when the service cannot reload
	Reload(ctx context.Context) error
	// Stop stops the service
	Stop(ctx context.Context) error
	// State reports the last observed workload state
	State() v1alpha1.WorkloadState
}

// SystemdSupervisor drives the workload through systemctl. Snap installed
// services expose systemd units as snap.<name>.<name>, plain services by
// their own name.
type SystemdSupervisor struct {
	log     zerolog.Logger
	service string

	mu    sync.Mutex
	state v1alpha1.WorkloadState
}

func NewSystemd(log zerolog.Logger, service string) *SystemdSupervisor {
	return &SystemdSupervisor{log: log, service: service, state: v1alpha1.WorkloadUnknown}
}

func (s *SystemdSupervisor) EnsureRunning(ctx context.Context) error {
	if s.isActive(ctx) {
		s.setState(v1alpha1.WorkloadRunning)
		return nil
	}
	s.log.Info().Str("service", s.service).Msg("starting service")
	s.setState(v1alpha1.WorkloadStarting)
	if err := s.run(ctx, "start"); err != nil {
		s.setState(v1alpha1.WorkloadStopped)
		return err
	}
	s.setState(v1alpha1.WorkloadRunning)
	return nil
}

func (s *SystemdSupervisor) Restart(ctx context.Context) error {
	s.log.Info().Str("service", s.service).Msg("restarting service")
	s.setState(v1alpha1.WorkloadStarting)
	if err := s.run(ctx, "restart"); err != nil {
		s.setState(v1alpha1.WorkloadStopped)
		return err
	}
	s.setState(v1alpha1.WorkloadRunning)
	return nil
}

func (s *SystemdSupervisor) Reload(ctx context.Context) error {
	s.log.Info().Str("service", s.service).Msg("reloading service")
	if err := s.run(ctx, "reload-or-restart"); err != nil {
		s.setState(v1alpha1.WorkloadStopped)
		return err
	}
	s.setState(v1alpha1.WorkloadRunning)
	return nil
}

func (s *SystemdSupervisor) Stop(ctx context.Context) error {
	s.log.Info().Str("service", s.service).Msg("stopping service")
	if err := s.run(ctx, "stop"); err != nil {
		return err
	}
	s.setState(v1alpha1.WorkloadStopped)
	return nil
}

func (s *SystemdSupervisor) State() v1alpha1.WorkloadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SystemdSupervisor) setState(st v1alpha1.WorkloadState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *SystemdSupervisor) isActive(ctx context.Context) bool {
	out, err := exec.CommandContext(ctx, "systemctl", "is-active", s.service).Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "active"
}

func (s *SystemdSupervisor) run(ctx context.Context, verb string) error {
	out, err := exec.CommandContext(ctx, "systemctl", verb, s.service).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "systemctl %s %s: %s", verb, s.service, strings.TrimSpace(string(out)))
	}
	return nil
}
