package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/boxsync/pkg/boxsync/config"
	"github.com/jamesainslie/boxsync/pkg/boxsync/logging"
	"github.com/jamesainslie/boxsync/pkg/boxsync/manifest"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "boxsync",
		Short: "Keep project directories in sync with their template boxes",
		Long: `Boxsync tracks directories created from template boxes and keeps them
in sync with the registry. It detects local and remote changes, classifies
their risk, and resolves conflicts according to your policy.

Examples:
  boxsync status ~/projects/api     # Show sync state for a box directory
  boxsync sync ~/projects/api       # Plan and apply updates from the registry
  boxsync sync -i ~/projects/api    # Decide each conflict interactively
  boxsync diff ~/projects/api       # Show content differences
  boxsync validate ~/projects/api   # Check manifest integrity
  boxsync recover ~/projects/api    # Recover a corrupted manifest`,
		SilenceUsage: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/boxsync/config.yaml)")
	rootCmd.PersistentFlags().String("registry", "", "registry base URL")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "exclude patterns (can be specified multiple times)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("registry.url", rootCmd.PersistentFlags().Lookup("registry"))
	_ = viper.BindPFlag("sync.exclude", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "boxsync"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "boxsync"))
		}
	}

	viper.SetEnvPrefix("BOXSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("registry.url", config.DefaultRegistryURL)
	viper.SetDefault("resolve.auto_resolve_level", config.DefaultAutoResolveLevel)
	viper.SetDefault("sync.exclude", config.DefaultExclusions)
	viper.SetDefault("sync.max_days_without_sync", config.DefaultMaxDaysWithoutSync)

	_ = viper.ReadInConfig()

	initLogging()
}

// initLogging wires the global logger from configuration. Logging setup
// failures are reported but never fatal.
func initLogging() {
	level := viper.GetString("logging.level")
	if level == "" {
		level = "info"
	}
	if getVerbose() {
		level = "debug"
	}

	err := logging.Init(logging.Config{
		Level: level,
		Path:  viper.GetString("logging.path"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
}

// Execute runs the root command.
func Execute() error {
	defer logging.Close()
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// manifestHint maps a manifest error category to a next step for the
// user. Corruption has its own recover hint at each call site.
func manifestHint(err error) string {
	switch {
	case manifest.IsPermission(err):
		return "Check ownership and permissions on the .boxsync directory."
	case manifest.IsValidation(err):
		return "The manifest failed schema validation; fix the named field or re-sync."
	case manifest.IsIO(err):
		return "A file operation failed; check free disk space and retry."
	}
	return ""
}

// boxDir resolves the positional directory argument, defaulting to the
// working directory.
func boxDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", dir, err)
	}
	return abs, nil
}
