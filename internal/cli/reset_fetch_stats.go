// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "lettre.app/internal/cli"

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"lettre.app/internal/api"
	"lettre.app/internal/config"
)

var resetFetchStatsCmd = cobra.Command{
	Use:   "reset-fetch-stats [endpoint]",
	Short: "Reset the fetch queue counters of a running daemon",
	Args:  cobra.MaximumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := ""
		if len(args) > 0 {
			endpoint = args[0]
		}
		return resetFetchStats(endpoint)
	},
}

func resetFetchStats(endpoint string) error {
	if endpoint == "" {
		endpoint = "http://" + config.Opts.ListenAddr()
	}
	endpoint += api.PathPrefix + "/queue/reset-stats"

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Post(endpoint, "", nil)
	if err != nil {
		return fmt.Errorf(`reset fetch stats: %w`, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf(`reset fetch stats failed with status code %d`,
			resp.StatusCode)
	}
	fmt.Println("Fetch queue counters reset.")
	return nil
}
