package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphgate/graphgate/internal/output"
)

var (
	statsHost   string
	statsPort   int
	statsOutput string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show call statistics from a running gateway",
	Long: `Fetch the /stats snapshot from a running gateway instance and render
per-endpoint aggregates plus rate limiter fill levels.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(statsOutput)
		if err != nil {
			return err
		}

		url := fmt.Sprintf("http://%s:%d/stats", statsHost, statsPort)
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("gateway unreachable at %s: %w", url, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(body))
		}

		var snapshot output.StatsSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
			return fmt.Errorf("malformed stats payload: %w", err)
		}

		rendered, err := output.FormatStats(format, &snapshot)
		if err != nil {
			return err
		}

		fmt.Println(rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsHost, "host", "localhost", "gateway host")
	statsCmd.Flags().IntVarP(&statsPort, "port", "p", 8080, "gateway port")
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", "table", "output format: table, json")
}
