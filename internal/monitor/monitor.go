// Package monitor assembles the client, poller and consumers and runs them
// until the context is cancelled.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/clambin/go-common/slackbot"
	"github.com/clambin/sinum-monitor/internal/bot"
	"github.com/clambin/sinum-monitor/internal/collector"
	"github.com/clambin/sinum-monitor/internal/health"
	"github.com/clambin/sinum-monitor/internal/overrides"
	"github.com/clambin/sinum-monitor/internal/poller"
	"github.com/clambin/sinum-monitor/internal/sinumtools"
	"github.com/clambin/sinum-monitor/pkg/sinum"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func Run(ctx context.Context, cfg *viper.Viper, version string, registry *prometheus.Registry, logger *slog.Logger) error {
	callMetrics := sinumtools.NewSinumCallMetrics("sinum", "monitor", prometheus.Labels{"application": "sinum"})
	registry.MustRegister(callMetrics)

	client := sinumtools.NewInstrumentedClient(sinum.Config{
		Host:       cfg.GetString("sinum.host"),
		Username:   cfg.GetString("sinum.username"),
		Password:   cfg.GetString("sinum.password"),
		AuthScheme: sinum.AuthScheme(cfg.GetString("sinum.authscheme")),
		Timeout:    cfg.GetDuration("sinum.timeout"),
	}, callMetrics, logger.With(slog.String("component", "sinum")))
	defer client.Shutdown()

	o, err := overrides.MaybeLoad(filepath.Join(filepath.Dir(cfg.ConfigFileUsed()), "rooms.yaml"))
	if err != nil {
		return err
	}

	p := poller.New(client, cfg.GetDuration("poller.interval"), o, logger.With(slog.String("component", "poller")))
	coll := &collector.Collector{Poller: p, Logger: logger.With(slog.String("component", "collector"))}
	registry.MustRegister(coll)
	h := health.New(p, logger.With(slog.String("component", "health")))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Run(gCtx) })
	g.Go(func() error { return coll.Run(gCtx) })
	g.Go(func() error { return h.Run(gCtx) })

	if token := cfg.GetString("bot.token"); token != "" {
		sb := slackbot.New(token,
			slackbot.WithName("sinum "+version),
			slackbot.WithLogger(logger.With(slog.String("component", "slackbot"))),
		)
		b := bot.New(sb, p, logger.With(slog.String("component", "bot")))
		g.Go(func() error { return sb.Run(gCtx) })
		g.Go(func() error { return b.Run(gCtx) })
	}

	g.Go(func() error {
		return runServer(gCtx, cfg.GetString("exporter.addr"), promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	})
	g.Go(func() error {
		r := http.NewServeMux()
		r.Handle("/health", h)
		return runServer(gCtx, cfg.GetString("health.addr"), r)
	})

	return g.Wait()
}

func runServer(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{Addr: addr, Handler: handler}
	errCh := make(chan error)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	case <-ctx.Done():
		_ = server.Shutdown(context.Background())
		<-errCh
		return nil
	}
}
