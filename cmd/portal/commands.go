package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aurcc/bonafide-portal/internal/apiclient"
	"github.com/aurcc/bonafide-portal/internal/app/migrations"
	"github.com/aurcc/bonafide-portal/internal/app/services"
	"github.com/aurcc/bonafide-portal/internal/bootstrap"
	"github.com/aurcc/bonafide-portal/internal/db"
	"github.com/aurcc/bonafide-portal/internal/pkg/helpers"
	"github.com/aurcc/bonafide-portal/internal/pkg/logger"
	"github.com/aurcc/bonafide-portal/internal/server"
)

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "portal",
		Short:         "Hostel bonafide certificate portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", bootstrap.DefaultConfigPath, "path to the YAML config file")

	root.AddCommand(
		newServeCommand(&configPath),
		newMigrateCommand(&configPath),
		newVerifyCommand(&configPath),
	)
	return root
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.NewServer(*configPath)
			if err != nil {
				return err
			}
			if err := srv.Run(); err != nil {
				return err
			}
			logger.Info().Msg("Application finished gracefully.")
			return nil
		},
	}
}

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the postgres session table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			database, err := db.NewPostgresDB(ctx, cfg, lgr)
			if err != nil {
				return err
			}
			defer database.Close()

			applied, err := migrations.NewMigrator(database.Pool, lgr).Migrate(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", applied)
			return nil
		},
	}
}

func newVerifyCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <code>",
		Short: "Look up a certificate by its verification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := bootstrap.LoadConfigAndSetupLogger(*configPath)
			if err != nil {
				return err
			}
			api := apiclient.New(apiclient.Options{
				BaseURL: cfg.API.BaseURL,
				Timeout: helpers.ParseDuration(cfg.API.Timeout, 30*time.Second),
			})
			certificates := services.NewCertificateService(api, logger.Component("certificate"))

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			result, err := certificates.Verify(ctx, args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if !result.Valid {
				return fmt.Errorf("certificate %s is not valid", args[0])
			}
			return nil
		},
	}
}
