package bootstrap

import (
	"context"
	"fmt"

	"github.com/goliatone/go-homepage/commands"
	"github.com/goliatone/go-homepage/internal/di"
	"github.com/goliatone/go-homepage/internal/logging"
	"github.com/goliatone/go-homepage/internal/runtimeconfig"
	"github.com/goliatone/go-homepage/pkg/interfaces"
)

// Options captures configuration for CLI bootstraps.
type Options struct {
	// ConfigFile is an explicit homepage.yaml path; empty searches ConfigPaths.
	ConfigFile  string
	ConfigPaths []string
	// Override adjusts the loaded configuration before services are built.
	Override       func(*runtimeconfig.Config)
	LoggerProvider interfaces.LoggerProvider
	// Dispatcher receives the site handlers; nil subscribes them to go-command.
	Dispatcher commands.CommandDispatcher
	DI         []di.Option
}

// Module wraps the container, the registered handlers and a CLI logger.
type Module struct {
	Config       runtimeconfig.Config
	ConfigFile   string
	Container    *di.Container
	Registration *commands.RegistrationResult
	Logger       interfaces.Logger
}

// BuildModule loads configuration and wires every service.
func BuildModule(ctx context.Context, opts Options) (*Module, error) {
	loaded, err := runtimeconfig.Load(runtimeconfig.LoadOptions{
		File:  opts.ConfigFile,
		Paths: opts.ConfigPaths,
	})
	if err != nil {
		return nil, err
	}
	cfg := loaded.Config
	if opts.Override != nil {
		opts.Override(&cfg)
	}

	diOpts := append([]di.Option(nil), opts.DI...)
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}

	container, err := di.NewContainer(ctx, cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise container: %w", err)
	}

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = commands.NewGoCommandDispatcher(0)
	}
	registration, err := commands.RegisterContainerCommands(container, commands.RegistrationOptions{
		Dispatcher: dispatcher,
	})
	if err != nil {
		registration.Close()
		_ = container.Close()
		return nil, fmt.Errorf("register commands: %w", err)
	}

	logger := logging.ModuleLogger(container.LoggerProvider(), "homepage.cli")
	if loaded.File != "" {
		logger.Debug("cli.config.loaded", "file", loaded.File)
	}

	return &Module{
		Config:       cfg,
		ConfigFile:   loaded.File,
		Container:    container,
		Registration: registration,
		Logger:       logger,
	}, nil
}

// Close unsubscribes the handlers and releases the index database.
func (m *Module) Close() error {
	if m == nil {
		return nil
	}
	m.Registration.Close()
	if m.Container != nil {
		return m.Container.Close()
	}
	return nil
}
