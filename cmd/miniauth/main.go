package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/brizzai/miniauth/internal/auth"
	"github.com/brizzai/miniauth/internal/auth/providers"
	"github.com/brizzai/miniauth/internal/auth/session"
	"github.com/brizzai/miniauth/internal/config"
	"github.com/brizzai/miniauth/internal/logger"
	"github.com/brizzai/miniauth/internal/metrics"
	"github.com/brizzai/miniauth/internal/requester"
	"github.com/brizzai/miniauth/internal/server"
	"github.com/brizzai/miniauth/internal/store"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "miniauth",
	Short: "Mini-program login and session token service",
	Long: `miniauth exchanges one-time login codes with an identity provider (WeChat,
GitHub or Google), keeps one local user per provider subject and issues signed
session tokens.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the login HTTP server",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets redacted",
	RunE:  runConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
	rootCmd.AddCommand(serveCmd, configCmd)
}

// newApp wires every module of the login service
func newApp(cfg *config.Config, populate ...any) *fx.App {
	return fx.New(
		fx.WithLogger(logger.FxLogger),
		config.Module(cfg),
		requester.Module,
		providers.Module,
		store.Module,
		metrics.Module,
		fx.Provide(func(m *metrics.Metrics) session.Observer { return m }),
		session.Module,
		auth.Module,
		server.Module,
		fx.Populate(populate...),
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info(config.GetVersionInfo())

	var srv *server.Server
	app := newApp(cfg, &srv)
	if err := app.Err(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	serveErr := srv.Start(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		logger.Error("Failed to stop cleanly", zap.Error(err))
	}

	return serveErr
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	if err := session.ValidateConfig(&cfg.Provider, &cfg.Token); err != nil {
		pterm.Warning.Println(err)
	}
	pterm.Println(string(out))
	return nil
}
