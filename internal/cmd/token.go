package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graphgate/graphgate/internal/app"
	errwrap "github.com/graphgate/graphgate/internal/errors"
	"github.com/graphgate/graphgate/internal/observability"
)

var tokenClear bool

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Acquire a service credential (or clear the cache)",
	Long: `Acquire an application token through the credential manager, exactly as
the pipeline would. Useful for verifying the Azure app registration.

With --clear the cached token is discarded so the next call fetches fresh.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration load failed")
		}

		application := app.New(cfg, observability.CLILogger)

		if tokenClear {
			application.Auth.ClearCache()
			fmt.Println("Token cache cleared.")
			return nil
		}

		token, err := application.Auth.Token(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Token acquired (%d chars): %s\n", len(token), maskToken(token))
		return nil
	},
}

// maskToken keeps enough of the token to correlate against Azure logs
// without printing a usable credential.
func maskToken(token string) string {
	if len(token) <= 16 {
		return token
	}
	return token[:8] + "..." + token[len(token)-4:]
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().BoolVar(&tokenClear, "clear", false, "clear the cached token instead of acquiring one")
}
