package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "veil",
	Short: "Veil — local privacy enforcement for browsing and search",
	Long: `Veil sits between a local client and the web. Every page fetch and
search query passes through a privacy mode that decides the network
path, the identity presented to sites, and what survives of the
response. Nothing a site sends is stored beyond the request.`,
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
