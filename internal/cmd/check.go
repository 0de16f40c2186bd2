package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/graphgate/graphgate/internal/app"
	errwrap "github.com/graphgate/graphgate/internal/errors"
	"github.com/graphgate/graphgate/internal/observability"
)

var checkUser string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify end-to-end Graph connectivity",
	Long: `Run one mediated profile fetch through the full pipeline: credential
manager, rate limiter, concurrency gate, retries. A clean exit means
configuration, credentials, and connectivity all work.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkUser, "user", "", "user principal name or ID to fetch")
	_ = checkCmd.MarkFlagRequired("user")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration load failed")
	}

	application := app.New(cfg, observability.CLILogger)

	observability.CLILogger.Debug("Fetching user profile",
		zap.String("user", checkUser),
		zap.Bool("mock_backend", cfg.Graph.Mock))

	profile, err := application.Graph.UserProfile(cmd.Context(), checkUser)
	if err != nil {
		return err
	}

	var pretty map[string]any
	if err := json.Unmarshal(profile, &pretty); err != nil {
		return fmt.Errorf("unexpected profile payload: %w", err)
	}
	rendered, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(rendered))
	fmt.Println("Pipeline check passed.")
	return nil
}
