package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civicyouth/portal/internal/domain"
	"github.com/civicyouth/portal/internal/service"
)

type PortalMetrics struct {
	reg     *prometheus.Registry
	handler http.Handler

	loginAttempts *prometheus.CounterVec
	loginLockouts prometheus.Counter
	loginSuccess  prometheus.Counter
	loginFailure  prometheus.Counter
	loginErrors   prometheus.Counter
}

// New returns a private registry with the Go and process collectors plus the
// login counters.
func New() *PortalMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &PortalMetrics{
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_login_attempts_total",
			Help: "Login attempts by limiter decision",
		}, []string{"result"}),
		loginLockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_login_lockouts_total",
			Help: "Windows in which an identifier used up its attempts",
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_login_success_total",
			Help: "Successful logins",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_login_failure_total",
			Help: "Logins rejected for bad credentials",
		}),
		loginErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portal_login_errors_total",
			Help: "Logins that failed on an internal error",
		}),
	}
	reg.MustRegister(
		m.loginAttempts,
		m.loginLockouts,
		m.loginSuccess,
		m.loginFailure,
		m.loginErrors,
	)

	// pre-create both label values so they scrape as 0
	m.loginAttempts.WithLabelValues("allowed")
	m.loginAttempts.WithLabelValues("denied")

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	m.reg = reg
	return m
}

func (m *PortalMetrics) Handler() http.Handler {
	return m.handler
}

// TrackIdentifiers exposes fn as the portal_login_tracked_identifiers gauge.
// Call it once at startup.
func (m *PortalMetrics) TrackIdentifiers(fn func() int) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "portal_login_tracked_identifiers",
		Help: "Identifiers currently held by the login limiter",
	}, func() float64 { return float64(fn()) }))
}

func (m *PortalMetrics) IncLockout() {
	m.loginLockouts.Inc()
}

// ObserveLogin classifies the error returned by a login attempt. Only bad
// credentials count as failures; store or hashing errors go to
// portal_login_errors_total.
func (m *PortalMetrics) ObserveLogin(err error) {
	switch {
	case err == nil:
		m.loginAttempts.WithLabelValues("allowed").Inc()
		m.loginSuccess.Inc()
	case errors.Is(err, domain.ErrTooManyAttempts):
		m.loginAttempts.WithLabelValues("denied").Inc()
	case errors.Is(err, service.ErrInvalidCreds):
		m.loginAttempts.WithLabelValues("allowed").Inc()
		m.loginFailure.Inc()
	default:
		m.loginAttempts.WithLabelValues("allowed").Inc()
		m.loginErrors.Inc()
	}
}
