package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/cmd/cli/commands"
	"github.com/jakechorley/residency-scheduler/internal/config"
	"github.com/jakechorley/residency-scheduler/pkg/clients/gmailclient"
	"github.com/jakechorley/residency-scheduler/pkg/clients/scheduleclient"
	"github.com/jakechorley/residency-scheduler/pkg/core/access"
	"github.com/jakechorley/residency-scheduler/pkg/notify"
	"github.com/jakechorley/residency-scheduler/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Residency Scheduler CLI - Check compliance, swap weeks and resolve violations",
		Long:  `A CLI tool for checking assignments against the compliance rules, swapping faculty weeks, and resolving schedule violations.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")

	// Add all commands
	rootCmd.AddCommand(commands.CheckAssignmentCmd(app))
	rootCmd.AddCommand(commands.ValidateSwapCmd(app))
	rootCmd.AddCommand(commands.ExecuteSwapCmd(app))
	rootCmd.AddCommand(commands.RollbackSwapCmd(app))
	rootCmd.AddCommand(commands.ListSwapsCmd(app))
	rootCmd.AddCommand(commands.ListViolationsCmd(app))
	rootCmd.AddCommand(commands.ResolveViolationsCmd(app))
	rootCmd.AddCommand(commands.RetryResolutionCmd(app))
	rootCmd.AddCommand(commands.PublishViolationsCmd(app))
	rootCmd.AddCommand(commands.ReassignAssignmentCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.IssueTokenCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, the schedule client and notifications
func initApp() error {
	var err error
	app.Env = env
	app.Ctx = context.Background()

	// Initialize logger
	app.Logger, err = logging.InitLogger(env, logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	// Identify the caller from the API token. The service verifies the signature.
	if app.Cfg.APIToken != "" {
		app.Identity, err = access.IdentityFromToken(app.Cfg.APIToken)
		if err != nil {
			return fmt.Errorf("failed to read api token: %w", err)
		}
		app.Logger.Debug("Identity loaded",
			zap.String("user_id", app.Identity.UserID),
			zap.Stringer("tier", app.Identity.Tier))
	} else {
		app.Logger.Warn("No apiToken configured, schedule service calls will be unauthenticated")
	}

	// Initialize schedule client
	app.Logger.Info("Initializing schedule client", zap.String("base_url", app.Cfg.APIBaseURL))
	if app.Cfg.APIToken != "" {
		app.Client = scheduleclient.New(app.Ctx, app.Cfg.APIBaseURL, app.Cfg.APIToken, app.Logger)
	} else {
		app.Client = scheduleclient.NewWithHTTPClient(app.Cfg.APIBaseURL, &http.Client{Timeout: 30 * time.Second}, app.Logger)
	}

	// Initialize notifications
	app.Notifier, err = initNotifier()
	if err != nil {
		return err
	}

	return nil
}

// initNotifier logs every notification and emails warnings when a recipient is configured
func initNotifier() (notify.Notifier, error) {
	notifiers := notify.Multi{notify.NewLogNotifier(app.Logger)}

	recipient := app.Cfg.Notifications.GmailRecipient
	if recipient == "" {
		return notifiers, nil
	}

	oauthCfg, token, err := app.GoogleAuth()
	if err != nil {
		return nil, err
	}

	app.Logger.Info("Initializing gmail client")
	gmailClient, err := gmailclient.NewClient(app.Ctx, oauthCfg, token, app.Cfg.Notifications.GmailSender)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}
	app.Logger.Debug("Gmail client initialized successfully", zap.String("recipient", recipient))

	return append(notifiers, notify.NewEmailNotifier(gmailClient, recipient)), nil
}
