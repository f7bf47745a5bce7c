package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"github.com/forgeloop/toolwright/pkg/bus"
	"github.com/forgeloop/toolwright/pkg/channels"
	"github.com/forgeloop/toolwright/pkg/classify"
	"github.com/forgeloop/toolwright/pkg/config"
	"github.com/forgeloop/toolwright/pkg/conversation"
	"github.com/forgeloop/toolwright/pkg/generator"
	"github.com/forgeloop/toolwright/pkg/logging"
	"github.com/forgeloop/toolwright/pkg/memory"
	"github.com/forgeloop/toolwright/pkg/orchestrator"
	"github.com/forgeloop/toolwright/pkg/registry"
	"github.com/forgeloop/toolwright/pkg/scheduler"
	"github.com/forgeloop/toolwright/pkg/store"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const appName = "toolwright"

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func printVersion() {
	fmt.Printf("%s %s\n", appName, formatVersion())
	if buildTime != "" {
		fmt.Printf("  Build: %s\n", buildTime)
	}
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	fmt.Printf("  Go: %s\n", goVer)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".toolwright", "config.json")
	}
	return filepath.Join(home, ".toolwright", "config.json")
}

// app wires every component once per process. Close releases the store and
// flushes the logger.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	docs      store.Store
	memories  *memory.Store
	contexts  *conversation.Manager
	publisher *registry.Publisher
	service   *orchestrator.Service
}

func newApp(configPath string, debug bool) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	storePath := cfg.StorePath()
	if err := os.MkdirAll(filepath.Dir(storePath), 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	docs, err := store.NewSQLiteStore(storePath)
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}

	memories := memory.NewStore(docs, log)
	contexts := conversation.NewManager(memories, log)
	publisher := registry.NewPublisher(docs, log)

	gen, err := generator.New(cfg.Orchestrator.ArtifactAuthor, log)
	if err != nil {
		docs.Close()
		return nil, err
	}
	machine, err := orchestrator.NewMachine(
		gen, publisher, orchestrator.LoopbackRouter{},
		memories, contexts, docs,
		cfg.Orchestrator.MaxSimilarTools, log,
	)
	if err != nil {
		docs.Close()
		return nil, err
	}
	service := orchestrator.NewService(contexts, classify.NewHeuristic(), machine, log)

	return &app{
		cfg:       cfg,
		log:       log,
		docs:      docs,
		memories:  memories,
		contexts:  contexts,
		publisher: publisher,
		service:   service,
	}, nil
}

func (a *app) Close() {
	a.contexts.Close()
	if err := a.docs.Close(); err != nil {
		a.log.Warn("closing document store", zap.Error(err))
	}
	_ = a.log.Sync()
}

func (a *app) startScheduler(ctx context.Context) error {
	if !a.cfg.Scheduler.Enabled {
		return nil
	}
	sched, err := scheduler.New(a.cfg.Scheduler, a.contexts, a.publisher, a.log)
	if err != nil {
		return err
	}
	go sched.Run(ctx)
	return nil
}

func runGateway(ctx context.Context, a *app) error {
	msgBus := bus.NewMessageBus()
	defer msgBus.Close()

	manager, err := channels.NewManager(a.cfg, msgBus, a.log)
	if err != nil {
		return fmt.Errorf("init channels: %w", err)
	}
	if err := manager.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	defer func() {
		if err := manager.StopAll(context.Background()); err != nil {
			a.log.Warn("stopping channels", zap.Error(err))
		}
	}()

	if err := a.startScheduler(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	loop := orchestrator.NewLoop(msgBus, a.service, a.log)
	a.log.Info("gateway running",
		zap.Strings("channels", manager.EnabledChannels()),
		zap.String("version", formatVersion()))
	return loop.Run(ctx)
}

func main() {
	if err := executeCLI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
