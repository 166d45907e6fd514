package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchMode   string
	searchEngine string
	searchPage   string
)

func init() {
	searchCmd.Flags().StringVar(&searchMode, "mode", "", "Privacy mode for this query (default: stored preference)")
	searchCmd.Flags().StringVar(&searchEngine, "engine", "", "Search backend: duckduckgo or searxng (default: stored preference)")
	searchCmd.Flags().StringVar(&searchPage, "page", "", "Page token from a previous result set")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the web through the privacy pipeline",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var res struct {
			Backend  string `json:"backend"`
			Results  []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
			} `json:"results"`
			NextPage string `json:"next_page"`
		}
		err = client.post(cmd.Context(), "/search", map[string]string{
			"query":      strings.Join(args, " "),
			"mode":       searchMode,
			"engine":     searchEngine,
			"page_token": searchPage,
		}, &res)
		if err != nil {
			return err
		}

		if len(res.Results) == 0 {
			fmt.Println("No results.")
			return nil
		}
		for i, r := range res.Results {
			fmt.Printf("%2d. %s\n    %s\n", i+1, r.Title, r.URL)
			if r.Snippet != "" {
				fmt.Printf("    %s\n", r.Snippet)
			}
		}
		if res.NextPage != "" {
			fmt.Fprintf(os.Stderr, "\nNext page: veil search --page %s %s\n", res.NextPage, strings.Join(args, " "))
		}
		return nil
	},
}
