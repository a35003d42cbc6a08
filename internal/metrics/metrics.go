// Package metrics exposes Prometheus collectors for uploads and generation.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voenix"

// Result label values.
const (
	ResultSuccess     = "success"
	ResultRejected    = "rejected"
	ResultRateLimited = "rate_limited"
	ResultFailed      = "failed"
)

// Recorder holds the service collectors. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	registry *prometheus.Registry

	uploads            *prometheus.CounterVec
	generations        *prometheus.CounterVec
	generatedImages    prometheus.Counter
	rateLimited        prometheus.Counter
	generationDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r, err := NewWithRegisterer(reg)
	if err != nil {
		panic(err)
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r.registry = reg
	return r
}

// NewWithRegisterer registers the collectors on reg. Collectors already
// registered under the same name are reused.
func NewWithRegisterer(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploaded originals by outcome.",
		}, []string{"result"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generation requests by outcome.",
		}, []string{"result"}),
		generatedImages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generated_images_total",
			Help:      "Generated images persisted.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_rate_limited_total",
			Help:      "Generation requests rejected by the per-user rate limit.",
		}),
		generationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent in the image generation strategy.",
			Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"strategy"}),
	}

	var err error
	if r.uploads, err = register(reg, r.uploads); err != nil {
		return nil, err
	}
	if r.generations, err = register(reg, r.generations); err != nil {
		return nil, err
	}
	if r.generatedImages, err = register(reg, r.generatedImages); err != nil {
		return nil, err
	}
	if r.rateLimited, err = register(reg, r.rateLimited); err != nil {
		return nil, err
	}
	if r.generationDuration, err = register(reg, r.generationDuration); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Handler serves the registry in the Prometheus exposition format. Recorders
// built with NewWithRegisterer fall back to the default gatherer.
func (r *Recorder) Handler() http.Handler {
	if r == nil || r.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) Upload(result string) {
	if r == nil {
		return
	}
	r.uploads.WithLabelValues(result).Inc()
}

func (r *Recorder) Generation(result string) {
	if r == nil {
		return
	}
	r.generations.WithLabelValues(result).Inc()
	if result == ResultRateLimited {
		r.rateLimited.Inc()
	}
}

func (r *Recorder) GeneratedImages(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.generatedImages.Add(float64(n))
}

func (r *Recorder) ObserveGeneration(strategy string, d time.Duration) {
	if r == nil {
		return
	}
	r.generationDuration.WithLabelValues(strategy).Observe(d.Seconds())
}
