package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"afterglow/internal/app"
	"afterglow/internal/config"
	"afterglow/internal/publish"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the application defaults.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates an AfterglowApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "publish", "thumbnails").
func newApp(ctx context.Context, cmd *cobra.Command, operation string, emitter publish.Emitter) (*app.AfterglowApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	opts := app.Options{
		Operation:  operation,
		Passphrase: promptPassphrase("Credentials passphrase: "),
		Emitter:    emitter,
		LogLevel:   slog.LevelInfo,
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		opts.LogEcho = os.Stderr
		opts.LogLevel = slog.LevelDebug
	}

	a, err := app.NewAfterglowApp(ctx, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:           "afterglow",
	Short:         "Publish local photo galleries to S3 and CloudFront",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [WORKSPACE]",
	Short: "Initialize configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		workspace := "."
		if len(args) > 0 {
			workspace = args[0]
		}
		workspace, err = filepath.Abs(workspace)
		if err != nil {
			return fmt.Errorf("resolving workspace: %w", err)
		}

		cfg := config.NewConfig(workspace, defaults["base_dir"])
		cfg.Remote.Bucket, _ = cmd.Flags().GetString("bucket")
		cfg.Remote.Prefix, _ = cmd.Flags().GetString("prefix")
		if region, _ := cmd.Flags().GetString("region"); region != "" {
			cfg.Remote.Region = region
		}
		cfg.CDN.DistributionID, _ = cmd.Flags().GetString("distribution")

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Workspace: %s\n", workspace)
		fmt.Printf("Base Dir:  %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Workspace:     %s\n", cfg.Workspace)
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Remote:        %s\n", cfg.Remote.Type)
		switch cfg.Remote.Type {
		case "s3":
			fmt.Printf("Bucket:        %s\n", cfg.BucketName())
			fmt.Printf("Region:        %s\n", cfg.Region())
		case "filesystem":
			fmt.Printf("FS Root:       %s\n", cfg.Remote.FSRoot)
		}
		fmt.Printf("Prefix:        %q\n", publish.NormalizeRoot(cfg.Remote.Prefix))
		fmt.Printf("Distribution:  %s\n", cfg.DistributionID())
		fmt.Printf("Credentials:   %s\n", cfg.Credentials.Type)
		fmt.Printf("History:       %s\n", cfg.History.Type)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Echo debug logs to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("bucket", "", "S3 bucket name or ARN")
	configInitCmd.Flags().String("prefix", "", "Remote root prefix")
	configInitCmd.Flags().String("region", "", "AWS region (default "+config.DefaultRegion+")")
	configInitCmd.Flags().String("distribution", "", "CloudFront distribution id or ARN")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(credentialsCmd)
	rootCmd.AddCommand(thumbnailsCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(historyCmd)
}
