// Package metrics exposes feed and render activity as Prometheus metrics.
// Metrics implements both feed.Observer and render.Observer.
package metrics

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rileyhilliard/fv/internal/decode"
	"github.com/rileyhilliard/fv/internal/feed"
	"github.com/rileyhilliard/fv/internal/render"
	"github.com/rileyhilliard/fv/internal/sample"
)

const namespace = "fv"

var (
	_ feed.Observer   = (*Metrics)(nil)
	_ render.Observer = (*Metrics)(nil)
)

// Metrics holds the collectors on a private registry, so tests and multiple
// servers in one process don't collide on the default one.
type Metrics struct {
	registry *prometheus.Registry
	labels   []string

	messagesTotal    prometheus.Counter
	payloadBytes     prometheus.Histogram
	samplesTotal     prometheus.Counter
	decodeErrorTotal *prometheus.CounterVec
	lastSeq          prometheus.Gauge
	lastValue        *prometheus.GaugeVec
	ticksTotal       *prometheus.CounterVec
	renderErrorTotal prometheus.Counter
	renderSeconds    prometheus.Histogram
	renderBatch      prometheus.Histogram
}

// New builds and registers the collectors. labels name the value columns
// and become the "series" label of fv_last_value.
func New(labels []string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		labels:   labels,
		messagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total messages received from the broker",
		}),
		payloadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payload_bytes",
			Help:      "Size of received payloads",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 6),
		}),
		samplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_appended_total",
			Help:      "Total samples appended to the buffer",
		}),
		decodeErrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Total messages dropped because they could not be decoded",
		}, []string{"reason"}),
		lastSeq: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sequence",
			Help:      "Sequence number of the newest sample",
		}),
		lastValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_value",
			Help:      "Most recent decoded value per series",
		}, []string{"series"}),
		ticksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_ticks_total",
			Help:      "Render loop ticks by outcome",
		}, []string{"outcome"}),
		renderErrorTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Total failed draws",
		}),
		renderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_seconds",
			Help:      "Time spent in draws",
			Buckets:   prometheus.DefBuckets,
		}),
		renderBatch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_batch_samples",
			Help:      "Samples handed to the renderer per draw",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.messagesTotal,
		m.payloadBytes,
		m.samplesTotal,
		m.decodeErrorTotal,
		m.lastSeq,
		m.lastValue,
		m.ticksTotal,
		m.renderErrorTotal,
		m.renderSeconds,
		m.renderBatch,
	)
	return m
}

// WatchBuffer exports the buffer's length and eviction count, read at scrape time.
func (m *Metrics) WatchBuffer(buf *sample.Buffer) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_samples",
			Help:      "Samples currently retained in the buffer",
		}, func() float64 { return float64(buf.Len()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_evicted_total",
			Help:      "Samples evicted from a bounded buffer",
		}, func() float64 { return float64(buf.Evicted()) }),
	)
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) MessageReceived(_ string, size int) {
	m.messagesTotal.Inc()
	m.payloadBytes.Observe(float64(size))
}

func (m *Metrics) SampleAppended(s sample.Sample) {
	m.samplesTotal.Inc()
	m.lastSeq.Set(float64(s.Seq))
	for i, v := range s.Values {
		m.lastValue.WithLabelValues(m.seriesLabel(i)).Set(v)
	}
}

func (m *Metrics) DecodeFailed(err *decode.Error) {
	m.decodeErrorTotal.WithLabelValues(Reason(err)).Inc()
}

func (m *Metrics) TickCompleted(state render.State, batch int, elapsed time.Duration, err error) {
	m.ticksTotal.WithLabelValues(state.String()).Inc()
	if state != render.StateDraw {
		return
	}
	m.renderSeconds.Observe(elapsed.Seconds())
	m.renderBatch.Observe(float64(batch))
	if err != nil {
		m.renderErrorTotal.Inc()
	}
}

func (m *Metrics) seriesLabel(i int) string {
	if i < len(m.labels) {
		return m.labels[i]
	}
	return "value"
}

// Reason maps a decode failure onto a short label value.
func Reason(err error) string {
	switch {
	case stderrors.Is(err, decode.ErrMissingField):
		return "missing_field"
	case stderrors.Is(err, decode.ErrNotNumeric):
		return "not_numeric"
	default:
		return "malformed"
	}
}
