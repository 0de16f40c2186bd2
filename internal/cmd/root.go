package cmd

import (
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/graphgate/graphgate/internal/config"
	"github.com/graphgate/graphgate/internal/observability"
)

const serviceName = "graphgate"

var (
	cfgFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Outbound Microsoft Graph request gateway",
	Long: `graphgate mediates every outbound Microsoft Graph call a service
identity makes: one token cache, per-category rate limits, bounded
concurrency, retry with backoff, and per-endpoint call statistics.

Use the subcommands to perform specific operations.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Disable global telemetry early to prevent config loading from emitting
	// metrics to stdout. Server mode will initialize proper telemetry later.
	disabledConfig := &telemetry.Config{Enabled: false}
	if sys, err := telemetry.NewSystem(disabledConfig); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	cobra.OnInitialize(initCLI)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; env vars with GRAPHGATE_ prefix also apply)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initCLI prepares the CLI logger before any command runs. Config itself is
// loaded per command via loadConfig so each RunE sees validation errors.
func initCLI() {
	observability.InitCLILogger(serviceName, verbose)
}

// loadConfig loads and validates configuration for a command invocation.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}
