package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/arcsolve/internal/config"
	"github.com/JaimeStill/arcsolve/internal/infrastructure"
)

// app carries state shared by every subcommand. Infrastructure is built
// lazily after flags have adjusted the loaded configuration.
type app struct {
	configPath string
	cfg        *config.Config
	infra      *infrastructure.Infrastructure

	out io.Writer
	in  io.Reader
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "arcsolve",
		Short:         "Solve ARC puzzles with a solve, critique, correct LLM loop",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFile(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", config.BaseConfigFile, "path to the base config file")

	root.AddCommand(
		newEvaluateCmd(a),
		newSolveCmd(a),
		newFinetuneCmd(a),
		newJobStatusCmd(a),
	)

	return root
}

// start builds and starts the infrastructure, waiting for startup hooks.
func (a *app) start() error {
	if a.infra != nil {
		return nil
	}

	infra, err := infrastructure.New(a.cfg)
	if err != nil {
		return err
	}
	if err := infra.Start(); err != nil {
		return err
	}
	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		return err
	}

	a.infra = infra
	return nil
}

func (a *app) close() error {
	if a.infra == nil {
		return nil
	}
	timeout := a.cfg.ShutdownTimeoutDuration()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return a.infra.Lifecycle.Shutdown(timeout)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
