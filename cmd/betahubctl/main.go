package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"betahub/internal/config"
	"betahub/internal/database"
	"betahub/internal/logging"
	"betahub/internal/model"
	"betahub/internal/repository"
	"betahub/internal/service"
)

var (
	debugFlag bool
	logger    *logrus.Logger
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "betahubctl",
		Short:         "Operator tooling for the betahub API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "info"
			if debugFlag {
				level = "debug"
			}
			logger = logging.NewWithWriter(cmd.ErrOrStderr(), level, "text")
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newAdminTokenCmd(), newSchemaCmd(), newAddAppCmd())
	return rootCmd
}

func newAdminTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "admin-token",
		Short: "Generate an admin token and the digest to store as ADMIN_TOKEN_HASH",
		Long: `Generate a random 128-bit admin token.
The plaintext token is printed once; keep it secret and use it with POST /api/admin/login.
Only the SHA-256 digest belongs in the server configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, digest, err := service.GenerateAdminToken()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Admin token (shown once): %s\n", token)
			fmt.Fprintf(out, "ADMIN_TOKEN_HASH=%s\n", digest)
			return nil
		},
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the tables and indexes the API needs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.CreateSchema(ctx, db); err != nil {
				return err
			}
			logger.Info("Database schema ready")
			return nil
		},
	}
}

func newAddAppCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add-app [app-id] [developer-email] [name]",
		Short:   "Register an app so developer listings can find it",
		Example: "add-app app1 dev@example.com \"My App\"",
		Args:    cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := &model.App{
				AppID:          strings.TrimSpace(args[0]),
				DeveloperEmail: strings.TrimSpace(args[1]),
			}
			if len(args) > 2 {
				app.Name = args[2]
			}
			if app.AppID == "" || app.DeveloperEmail == "" {
				return fmt.Errorf("app-id and developer-email must not be empty")
			}

			ctx := cmd.Context()
			db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.NewAppRepository(db).Upsert(ctx, app); err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{"app": app.AppID, "developer": app.DeveloperEmail}).Info("App registered")
			return nil
		},
	}
}

func connect(ctx context.Context) (*sqlx.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return database.Connect(ctx, cfg)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
