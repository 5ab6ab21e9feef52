package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mogaika/scenegraph/gpu"
)

const namespace = "scenegraph"

// Metrics counts mirror traffic to external buffers. It uses its own
// registry so several instances can live in one process.
type Metrics struct {
	Registry     *prometheus.Registry
	Allocations  prometheus.Counter
	Uploads      prometheus.Counter
	UploadBytes  prometheus.Counter
	UploadErrors prometheus.Counter
	Edits        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Allocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Buffers allocated for compound mirrors.",
		}),
		Uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Mirror uploads to bound buffers.",
		}),
		UploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes written by mirror uploads.",
		}),
		UploadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_errors_total",
			Help:      "Failed mirror uploads.",
		}),
		Edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "component_edits_total",
			Help:      "Component edits applied through the viewer, by node.",
		}, []string{"node"}),
	}
	m.Registry.MustRegister(m.Allocations, m.Uploads, m.UploadBytes, m.UploadErrors, m.Edits)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Backend wraps b so that every allocation it hands out is counted.
func (m *Metrics) Backend(b gpu.Backend) gpu.Backend {
	return &backend{Backend: b, m: m}
}

func (m *Metrics) Allocation(a gpu.Allocation) gpu.Allocation {
	return &allocation{Allocation: a, m: m}
}

type backend struct {
	gpu.Backend
	m *Metrics
}

func (b *backend) Allocate(size int) (gpu.Allocation, error) {
	a, err := b.Backend.Allocate(size)
	if err != nil {
		return nil, err
	}
	b.m.Allocations.Inc()
	return b.m.Allocation(a), nil
}

type allocation struct {
	gpu.Allocation
	m *Metrics
}

func (a *allocation) Set(data []byte, offset int) error {
	if err := a.Allocation.Set(data, offset); err != nil {
		a.m.UploadErrors.Inc()
		return err
	}
	a.m.Uploads.Inc()
	a.m.UploadBytes.Add(float64(len(data)))
	return nil
}
