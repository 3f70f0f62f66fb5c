// Package metrics exposes prometheus collectors for the command queue and
// confirmable window operations. A nil *Collectors is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/winsync/internal/logging"
)

const namespace = "winsync"

// Collectors groups every metric the engine records
type Collectors struct {
	QueueDepth      prometheus.Gauge
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	Confirmations   *prometheus.CounterVec
	ConfirmLatency  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Commands waiting in the window command queue.",
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "commands_total",
			Help:      "Commands executed, by command name and result.",
		}, []string{"command", "result"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "command_duration_seconds",
			Help:      "Time from dequeue to completion of a command.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1},
		}, []string{"command"}),
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "window",
			Name:      "confirmations_total",
			Help:      "Confirmable window operations, by edge and status.",
		}, []string{"edge", "status"}),
		ConfirmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "window",
			Name:      "confirm_latency_seconds",
			Help:      "Time between issuing a native call and observing its edge event.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"edge"}),
	}

	reg.MustRegister(c.QueueDepth, c.Commands, c.CommandDuration, c.Confirmations, c.ConfirmLatency)
	return c
}

// SetQueueDepth records the current queue length
func (c *Collectors) SetQueueDepth(n int) {
	if c == nil {
		return
	}
	c.QueueDepth.Set(float64(n))
}

// ObserveCommand records a finished command
func (c *Collectors) ObserveCommand(name string, err error, d time.Duration) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Commands.WithLabelValues(name, result).Inc()
	c.CommandDuration.WithLabelValues(name).Observe(d.Seconds())
}

// ObserveConfirm records a confirmable operation outcome
func (c *Collectors) ObserveConfirm(edge, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.Confirmations.WithLabelValues(edge, status).Inc()
	if status == "ok" {
		c.ConfirmLatency.WithLabelValues(edge).Observe(d.Seconds())
	}
}

// Serve exposes reg on addr at /metrics until ctx is done
func Serve(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logging.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
