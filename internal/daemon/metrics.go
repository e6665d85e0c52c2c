package daemon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	denied   prometheus.Counter
	uploads  prometheus.Counter
	loads    *prometheus.CounterVec
	rows     prometheus.Gauge
}

// newMetrics builds a private registry per service so several services
// can coexist in one process.
func newMetrics() *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cdash_http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		denied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cdash_access_denied_total",
			Help: "Requests rejected by the access key gate.",
		}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cdash_uploads_total",
			Help: "Exports stored through the upload endpoint.",
		}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cdash_source_loads_total",
			Help: "Export loads by result.",
		}, []string{"result"}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cdash_rows_loaded",
			Help: "Rows in the active dataset.",
		}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.denied, m.uploads, m.loads, m.rows,
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
