package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath string
		reset      bool
	)

	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Load demo users, appointments and medical records",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, reset)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_FILE"), "path to config file")
	cmd.Flags().BoolVar(&reset, "reset", false, "delete existing demo data first (keeps the bootstrap administrator)")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}
