package portal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GuardRedirects *prometheus.CounterVec
	Pages          *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		GuardRedirects: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carelink_portal_guard_redirects_total",
			Help: "Requests sent to sign-in by the role guard.",
		}, []string{"reason"}),
		Pages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carelink_portal_pages_total",
			Help: "Rendered pages by language.",
		}, []string{"lang"}),
	}
}

func (m *Metrics) redirect(reason string) {
	if m != nil {
		m.GuardRedirects.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) page(lang string) {
	if m != nil {
		m.Pages.WithLabelValues(lang).Inc()
	}
}
