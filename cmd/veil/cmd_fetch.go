package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var fetchMode string

func init() {
	fetchCmd.Flags().StringVar(&fetchMode, "mode", "", "Privacy mode for this fetch (default: stored preference)")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch and sanitize a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var res struct {
			FinalURL            string `json:"final_url"`
			StatusCode          int    `json:"status_code"`
			ContentType         string `json:"content_type"`
			Body                string `json:"body"`
			StrippedHeaderCount int    `json:"stripped_header_count"`
			StrippedCookieCount int    `json:"stripped_cookie_count"`
			ScriptsRemoved      bool   `json:"scripts_removed"`
			RequiresScripts     bool   `json:"requires_scripts"`
		}
		err = client.post(cmd.Context(), "/fetch", map[string]any{
			"url":  args[0],
			"mode": fetchMode,
		}, &res)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "%s %d (%s)\n", res.FinalURL, res.StatusCode, res.ContentType)
		fmt.Fprintf(os.Stderr, "stripped: %d headers, %d cookies", res.StrippedHeaderCount, res.StrippedCookieCount)
		if res.ScriptsRemoved {
			fmt.Fprint(os.Stderr, ", scripts removed")
		}
		fmt.Fprintln(os.Stderr)
		if res.RequiresScripts {
			fmt.Fprintln(os.Stderr, "note: this page appears to require scripts to function")
		}
		fmt.Print(res.Body)
		return nil
	},
}
