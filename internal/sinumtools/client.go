// Package sinumtools constructs controller clients with an instrumented
// transport, so every call to the controller shows up in the exporter's own
// metrics.
package sinumtools

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/clambin/go-common/http/metrics"
	"github.com/clambin/go-common/http/roundtripper"
	"github.com/clambin/sinum-monitor/pkg/sinum"
	"github.com/prometheus/client_golang/prometheus"
)

func NewInstrumentedClient(cfg sinum.Config, requestMetrics metrics.RequestMetrics, logger *slog.Logger) *sinum.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: getInstrumentedRoundTripper(http.DefaultTransport, requestMetrics),
	}
	return sinum.New(cfg, httpClient, logger)
}

func getInstrumentedRoundTripper(rt http.RoundTripper, requestMetrics metrics.RequestMetrics) http.RoundTripper {
	return roundtripper.New(
		roundtripper.WithRequestMetrics(requestMetrics),
		roundtripper.WithRoundTripper(rt),
	)
}

func NewSinumCallMetrics(namespace, subsystem string, labels prometheus.Labels) metrics.RequestMetrics {
	return metrics.NewRequestMetrics(metrics.Options{
		Namespace:   namespace,
		Subsystem:   subsystem,
		ConstLabels: labels,
		LabelValues: func(request *http.Request, statusCode int) (string, string, string) {
			// the query string (device class) is not a label; the path is
			// enough to tell the endpoints apart.
			return request.Method, request.URL.Path, strconv.Itoa(statusCode)
		},
	})
}
