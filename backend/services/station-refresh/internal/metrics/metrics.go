package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives refresh pipeline measurements.
type Recorder interface {
	ObserveRun(outcome string, duration time.Duration)
	ObserveNetwork(result string)
	AddStationsWritten(n int)
	ObserveFetch(duration time.Duration)
}

// Prometheus records into its own registry so several instances can coexist.
type Prometheus struct {
	registry        *prometheus.Registry
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	networksTotal   *prometheus.CounterVec
	stationsWritten prometheus.Counter
	fetchDuration   prometheus.Histogram
}

// NewPrometheus registers the refresh collectors plus the Go runtime collectors.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "station_refresh_runs_total",
			Help: "Refresh cycles by outcome",
		}, []string{"outcome"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "station_refresh_run_duration_seconds",
			Help:    "Wall time of a refresh cycle",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		networksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "station_refresh_networks_total",
			Help: "Networks processed by result",
		}, []string{"result"}),
		stationsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "station_refresh_stations_written_total",
			Help: "Station rows upserted",
		}),
		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "station_refresh_fetch_duration_seconds",
			Help:    "Upstream network fetch latency",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (p *Prometheus) ObserveRun(outcome string, duration time.Duration) {
	p.runsTotal.WithLabelValues(outcome).Inc()
	p.runDuration.Observe(duration.Seconds())
}

func (p *Prometheus) ObserveNetwork(result string) {
	p.networksTotal.WithLabelValues(result).Inc()
}

func (p *Prometheus) AddStationsWritten(n int) {
	if n > 0 {
		p.stationsWritten.Add(float64(n))
	}
}

func (p *Prometheus) ObserveFetch(duration time.Duration) {
	p.fetchDuration.Observe(duration.Seconds())
}

// Handler exposes the registry for scraping.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry is exposed for tests.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Noop discards everything.
type Noop struct{}

func (Noop) ObserveRun(string, time.Duration) {}
func (Noop) ObserveNetwork(string)            {}
func (Noop) AddStationsWritten(int)           {}
func (Noop) ObserveFetch(time.Duration)       {}
