package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/linuxdo-automation/pkg/browser"
	"github.com/linuxdo-automation/pkg/config"
	"github.com/linuxdo-automation/pkg/forum"
	"github.com/linuxdo-automation/pkg/logger"
	"github.com/linuxdo-automation/pkg/runner"
	"github.com/linuxdo-automation/pkg/stealth"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config (defaults to $CONFIG_PATH)")
	flag.Parse()

	os.Exit(run(*configPath))
}

func run(configPath string) int {
	browser.ResetDisplayEnv()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputFile: cfg.Logging.OutputFile,
	}); err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		return 1
	}
	defer logger.Default().Close()

	mainLog := logger.WithComponent("main")

	if len(cfg.Accounts) == 0 {
		mainLog.Error("No accounts configured, set USERNAME_1 and PASSWORD_1")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := func(ctx context.Context, cred config.Credential) (runner.Session, error) {
		s, err := forum.Launch(ctx, cfg, cred, os.Stdout)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	mainLog.Info("Processing %d account(s)", len(cfg.Accounts))

	timing := stealth.NewTimingController(&cfg.Stealth.Timing)
	summary := runner.New(factory, timing).Run(ctx, cfg.Accounts)

	if summary.Succeeded > 0 {
		mainLog.Success("Processed %d/%d accounts", summary.Succeeded, summary.Total)
	} else {
		mainLog.Error("No account completed (%d/%d)", summary.Succeeded, summary.Total)
	}

	return summary.ExitCode()
}
