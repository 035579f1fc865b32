package watch

import (
	"context"
	"os"

	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	"github.com/stratastor/lifeline/config"
	"github.com/stratastor/lifeline/internal/agent"
	"github.com/stratastor/lifeline/pkg/lifecycle"
	"github.com/stratastor/logger"
)

var detached bool

func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Start monitoring the application server",
		Run:   runWatch,
	}

	cmd.Flags().BoolVarP(&detached, "detach", "d", false, "Run as a daemon")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) {
	lcfg := config.NewLoggerConfig(config.GetConfig())
	log, err := logger.NewTag(lcfg, "watch")
	if err != nil {
		panic(err)
	}

	rc := config.GetConfig()
	if err := config.EnsureDirectories(); err != nil {
		log.Error("Failed to prepare directories", "error", err)
		os.Exit(1)
	}

	pidFile := config.GetPIDFilePath()
	// Check for existing instance before proceeding
	if err := lifecycle.EnsureSingleInstance(pidFile); err != nil {
		log.Error("Failed to start", "error", err)
		os.Exit(1)
	}

	if detached {
		args := []string{"lifeline", "watch"}
		if path := config.GetLoadedConfigPath(); path != "" {
			args = append(args, "--config", path)
		}

		ctx := &daemon.Context{
			PidFileName: pidFile,
			PidFilePerm: 0644,
			LogFileName: rc.Logs.Path,
			LogFilePerm: 0640,
			WorkDir:     "/",
			Umask:       027,
			Args:        args,
		}

		d, err := ctx.Reborn()
		if err != nil {
			log.Error("Failed to start daemon", "error", err)
			os.Exit(1)
		}

		if d != nil {
			log.Info("Lifeline is running as a daemon", "pid", d.Pid)
			return
		}
		defer ctx.Release()
	}

	if err := startAgent(rc, log); err != nil {
		os.Exit(1)
	}
}

func startAgent(cfg *config.Config, log logger.Logger) error {
	a, err := agent.New(cfg)
	if err != nil {
		log.Error("Failed to build agent", "error", err)
		return err
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Register the context canceller
	lifecycle.RegisterContextCanceller(cancel)

	lifecycle.RegisterShutdownHook(func() {
		log.Info("Shutting down lifeline...")
	})

	// SIGHUP probes right away instead of waiting for the next interval
	lifecycle.RegisterReloadHook(func() {
		if err := a.Check(ctx); err != nil {
			log.Warn("Probe on SIGHUP failed", "error", err)
		}
	})

	// Start handling lifecycle signals (e.g., SIGTERM, SIGHUP)
	go lifecycle.HandleSignals(ctx)

	log.Info("Starting lifeline", "port", cfg.Server.Port, "origin", cfg.Monitor.Origin)
	if err := a.Run(ctx); err != nil {
		log.Error("Lifeline stopped with error", "error", err)
		return err
	}
	return nil
}
