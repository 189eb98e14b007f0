package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/navstack-dev/navstack/internal/config"
	"github.com/navstack-dev/navstack/pkg/backstack"
	"github.com/navstack-dev/navstack/pkg/browser"
	"github.com/navstack-dev/navstack/pkg/fragment"
	"github.com/navstack-dev/navstack/pkg/history"
	"github.com/navstack-dev/navstack/pkg/middleware"
)

func serveCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the demo server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", config.ConfigFileName, "configuration file")
	return cmd
}

// screen is the demo's destination type: a name plus fragment parameters.
type screen struct {
	Name   string
	Params fragment.Params
}

func saveScreen(s screen) (string, bool) {
	return fragment.Encode(s.Name, s.Params), true
}

func restoreScreen(frag string) (screen, error) {
	name, err := fragment.DecodeName(frag)
	if err != nil {
		return screen{}, err
	}
	return screen{Name: name, Params: fragment.DecodeParams(frag)}, nil
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	var metrics *history.Metrics
	if cfg.Metrics {
		metrics = history.NewMetrics()
	}

	bridgeServer := browser.NewBridgeServer(func(b *browser.Bridge) {
		bindSynchronizer(ctx, cfg, b, logger, metrics)
	}, logger)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.OpenTelemetry())
	if cfg.Metrics {
		r.Use(middleware.Prometheus())
	}
	r.Get("/", serveDemoPage)
	r.Get("/ws", bridgeServer.HandleWebSocket)
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	logger.Info("demo server listening", "addr", cfg.Addr, "strategy", cfg.Strategy)

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// bindSynchronizer attaches a fresh back stack and synchronizer to one
// bridge connection. Each connection is its own browser history, so each
// gets its own guard.
func bindSynchronizer(ctx context.Context, cfg config.Config, b *browser.Bridge, logger *slog.Logger, metrics *history.Metrics) {
	select {
	case <-b.Ready():
	case <-ctx.Done():
		return
	}

	logger = logger.With("bridge_id", b.ID())
	guard := &history.Guard{}

	switch cfg.Strategy {
	case config.StrategyHierarchical:
		stack := backstack.NewStack[screen]()
		stack.Push(screen{Name: "home"})
		journal := backstack.NewJournal()

		syncer := history.NewHierarchical(history.HierarchicalConfig{
			CurrentFragment: func() (string, bool) {
				s, ok := stack.Current()
				if !ok {
					return "", false
				}
				return fragment.Encode(s.Name, s.Params), true
			},
			Journal: journal,
			OnBack: func() {
				stack.Pop()
				journal.Rewind()
			},
			Port:    b,
			Logger:  logger,
			Guard:   guard,
			Metrics: metrics,
		})
		if err := syncer.Run(ctx); err != nil && err != context.Canceled {
			logger.Warn("synchronizer stopped", "error", err)
		}

	default:
		stack := backstack.NewStack[screen]()

		syncer := history.NewChronological(history.ChronologicalConfig[screen]{
			Stack:   stack,
			Save:    saveScreen,
			Restore: restoreScreen,
			Port:    b,
			Logger:  logger,
			Guard:   guard,
			Metrics: metrics,
		})
		if err := syncer.Run(ctx); err != nil && err != context.Canceled {
			logger.Warn("synchronizer stopped", "error", err)
		}
	}
}

func serveDemoPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(demoPage))
}

const demoPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>navstack demo</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 40px auto; }
nav a { margin-right: 12px; }
</style>
</head>
<body>
<h1>navstack demo</h1>
<p>Navigate with the links, then use the browser Back/Forward buttons.
The server-side back stack stays in sync with the session history.</p>
<nav>
<a href="#home">home</a>
<a href="#profile?id=42">profile</a>
<a href="#settings?advanced">settings</a>
</nav>
<p>Current fragment: <code id="frag"></code></p>
<script>
window.addEventListener('hashchange', function() {
    document.getElementById('frag').textContent = location.hash;
});
document.getElementById('frag').textContent = location.hash;
</script>
` + browser.BridgeClientScript + `
</body>
</html>
`
