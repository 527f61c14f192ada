package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeDispatcher runs the polling job dispatcher.
	ServiceModeDispatcher ServiceMode = "dispatcher"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeDispatcher,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeDispatcher:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, dispatcher)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// DispatcherConfig contains polling dispatcher configuration.
//
// The dispatcher runs as a single worker: jobs execute one at a time against
// the terminal application, which tolerates only one automation session per
// credential set. Run exactly one dispatcher instance per database.
type DispatcherConfig struct {
	// PollInterval is the delay between idle polls of the job store.
	PollInterval time.Duration `env:"DISPATCHER_POLL_INTERVAL" envDefault:"3s"`

	// ErrorBackoff is the delay after a poll cycle that failed at the
	// storage layer, kept longer than PollInterval to ride out outages.
	ErrorBackoff time.Duration `env:"DISPATCHER_ERROR_BACKOFF" envDefault:"5s"`
}

// Sanitize applies guardrails to dispatcher configuration values.
func (d *DispatcherConfig) Sanitize() {
	if d.PollInterval < 500*time.Millisecond {
		d.PollInterval = 500 * time.Millisecond
	}
	if d.ErrorBackoff < d.PollInterval {
		d.ErrorBackoff = d.PollInterval
	}
}
