package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jcadam/veil/pkg/api"
	"github.com/jcadam/veil/pkg/config"
	"github.com/jcadam/veil/pkg/debug"
	"github.com/jcadam/veil/pkg/fetch"
	"github.com/jcadam/veil/pkg/prefs"
	"github.com/jcadam/veil/pkg/privacy"
	"github.com/jcadam/veil/pkg/search"
	"github.com/jcadam/veil/pkg/service"
)

var serveDebug bool

func init() {
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Log transport activity (hosts and status codes only)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Veil daemon",
	Long: `Runs the daemon in the foreground, bound to loopback only.
Send SIGINT or SIGTERM to stop; session cookies are dropped on exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		veilDir, err := config.VeilDir()
		if err != nil {
			return err
		}
		cfg, err := config.Load(veilDir)
		if err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}

		log := newLogger(cfg.Logging.Level, serveDebug)

		router := privacy.NewRouter(cfg.Tor.SocksAddr)
		fetcher := fetch.New(router)
		if serveDebug {
			fetcher.SetTrace(debug.NewLogger(os.Stderr))
		}

		var engines []string
		if cfg.Search.SearxNGEngines != "" {
			for _, e := range strings.Split(cfg.Search.SearxNGEngines, ",") {
				engines = append(engines, strings.TrimSpace(e))
			}
		}
		backends := map[search.Backend]search.Searcher{
			search.BackendDuckDuckGo: search.NewDuckDuckGo(fetcher, cfg.Search.DuckDuckGoURL),
			search.BackendSearxNG:    search.NewSearxNG(fetcher, cfg.Search.SearxNGURL, engines),
		}

		store := prefs.NewStore(veilDir)
		svc := service.New(fetcher, backends, store, log)
		srv := api.NewServer(cfg.Listen, svc, store, log)

		log.Info().Str("veil_dir", veilDir).Msg("daemon starting")
		return srv.Serve(cmd.Context())
	},
}

func newLogger(level string, debugFlag bool) zerolog.Logger {
	lvl := zerolog.InfoLevel
	switch level {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}
	if debugFlag {
		lvl = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().Timestamp().Logger()
}
