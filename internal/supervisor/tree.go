package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is the process supervisor. Live-channel housekeeping, messaging and
// the API run under separate branches so a crash loop in one does not
// restart the others.
type Tree struct {
	root      *suture.Supervisor
	live      *suture.Supervisor
	messaging *suture.Supervisor
	api       *suture.Supervisor
}

func NewTree(log zerolog.Logger, config TreeConfig) *Tree {
	defaults := DefaultTreeConfig()
	if config.FailureThreshold == 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = defaults.FailureDecay
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = defaults.FailureBackoff
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	rootSpec := suture.Spec{
		EventHook:        EventHook(log.With().Str("component", "supervisor").Logger()),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	childSpec := rootSpec
	childSpec.EventHook = nil

	root := suture.New("bus-tracker", rootSpec)
	live := suture.New("live", childSpec)
	messaging := suture.New("messaging", childSpec)
	api := suture.New("api", childSpec)

	root.Add(live)
	root.Add(messaging)
	root.Add(api)

	return &Tree{root: root, live: live, messaging: messaging, api: api}
}

func (t *Tree) AddLiveService(svc suture.Service) suture.ServiceToken {
	return t.live.Add(svc)
}

func (t *Tree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.messaging.Add(svc)
}

func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// EventHook reports supervisor events through zerolog.
func EventHook(log zerolog.Logger) suture.EventHook {
	return func(e suture.Event) {
		switch ev := e.(type) {
		case suture.EventServicePanic:
			log.Error().
				Str("supervisor", ev.SupervisorName).
				Str("service", ev.ServiceName).
				Str("panic", ev.PanicMsg).
				Str("stacktrace", ev.Stacktrace).
				Bool("restarting", ev.Restarting).
				Msg("service panicked")
		case suture.EventServiceTerminate:
			log.Warn().
				Str("supervisor", ev.SupervisorName).
				Str("service", ev.ServiceName).
				Str("error", fmt.Sprint(ev.Err)).
				Float64("failures", ev.CurrentFailures).
				Bool("restarting", ev.Restarting).
				Msg("service terminated")
		case suture.EventBackoff:
			log.Warn().Str("supervisor", ev.SupervisorName).Msg("supervisor backing off")
		case suture.EventResume:
			log.Info().Str("supervisor", ev.SupervisorName).Msg("supervisor resumed")
		case suture.EventStopTimeout:
			log.Error().
				Str("supervisor", ev.SupervisorName).
				Str("service", ev.ServiceName).
				Msg("service did not stop in time")
		default:
			log.Info().Msg(e.String())
		}
	}
}
