package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ncdist/rw-automator/config"
	"github.com/ncdist/rw-automator/internal/adapters/dispatcher"
	"github.com/ncdist/rw-automator/internal/data"
	"github.com/ncdist/rw-automator/internal/observability/statsd"
	"github.com/ncdist/rw-automator/internal/service"
	"github.com/ncdist/rw-automator/internal/session"
	"github.com/ncdist/rw-automator/internal/transcript"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs          *service.JobService
	Runner        *service.RunnerService
	Dispatcher    *dispatcher.Runner
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	DB     *sql.DB
	Logger *slog.Logger
}

// BuildServices constructs the service container from configuration and the
// database handle. The dispatcher is only wired when its service mode is
// enabled; an HTTP-only process never holds terminal credentials.
func BuildServices(deps ServiceDeps) (ServiceContainer, error) {
	if deps.Config == nil {
		return ServiceContainer{}, errors.New("app config is required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database connection is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	obs := buildObservability(logger, deps.Config.Observability)
	store := data.NewJobRepo(deps.DB, data.RepoConfig{})

	jobs, err := service.NewJobService(service.JobServiceOptions{
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build job service: %w", err)
	}

	container := ServiceContainer{
		Jobs:          jobs,
		Observability: obs,
	}

	if !deps.Config.IsDispatcherEnabled() {
		return container, nil
	}

	runner, err := buildRunnerService(deps.Config, store, logger, obs.MetricsSink)
	if err != nil {
		return ServiceContainer{}, err
	}
	container.Runner = runner

	disp, err := dispatcher.NewRunner(dispatcher.RunnerOptions{
		Store:        store,
		Runner:       runner,
		PollInterval: deps.Config.Dispatcher.PollInterval,
		ErrorBackoff: deps.Config.Dispatcher.ErrorBackoff,
		Logger:       logger,
		Metrics:      obs.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build dispatcher: %w", err)
	}
	container.Dispatcher = disp

	return container, nil
}

// BuildEngine constructs the terminal session engine from configuration.
func BuildEngine(cfg config.RealWorldConfig, logger *slog.Logger) *session.Engine {
	return session.NewEngine(session.Config{
		Host:             cfg.Host,
		Port:             cfg.Port,
		Username:         cfg.Username,
		Password:         cfg.Password,
		EmployeeNumber:   cfg.EmployeeNumber,
		EmployeePassword: cfg.EmployeePassword,
		Logger:           logger,
	})
}

func buildRunnerService(
	cfg *config.AppConfig,
	store *data.JobRepo,
	logger *slog.Logger,
	metrics *statsd.Client,
) (*service.RunnerService, error) {
	engine := BuildEngine(cfg.RealWorld, logger)

	runner, err := service.NewRunnerService(service.RunnerOptions{
		Engine:      engine,
		Store:       store,
		Transcripts: transcript.NewStore(cfg.Transcript.Dir),
		Logger:      logger,
		Metrics:     metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("build runner service: %w", err)
	}
	return runner, nil
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "rw_automator",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// ServiceOrchestrationConfig groups everything RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts all enabled services and manages their
// lifecycle. It blocks until SIGINT/SIGTERM arrives or a service fails, then
// stops everything and drains the HTTP server gracefully.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	if cfg.Config.IsHTTPServerEnabled() {
		server := NewHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
		group.Go(func() error {
			logger.Info("starting HTTP server", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			<-groupCtx.Done()
			return ShutdownHTTPServer(ShutdownConfig{
				Server:  server,
				Timeout: cfg.Config.HTTP.ShutdownTimeout,
				Logger:  logger,
			})
		})
	}

	if cfg.Config.IsDispatcherEnabled() {
		if cfg.Services.Dispatcher == nil {
			return errors.New("dispatcher enabled but not built")
		}
		group.Go(func() error {
			return cfg.Services.Dispatcher.Run(groupCtx)
		})
	}

	err := group.Wait()

	if sink := cfg.Services.Observability.MetricsSink; sink != nil {
		if closeErr := sink.Close(); closeErr != nil {
			logger.Warn("statsd close failed", "error", closeErr)
		}
	}

	return err
}
