package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Requests    *prometheus.CounterVec
	LatencyMS   *prometheus.HistogramVec
	Orders      *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	SideEffects *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not panic.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusmart",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "campusmart",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusmart",
			Name:      "orders_placed_total",
			Help:      "Orders accepted or rejected at placement.",
		}, []string{"result"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusmart",
			Name:      "order_transitions_total",
			Help:      "Applied order status transitions.",
		}, []string{"to", "actor"}),
		SideEffects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusmart",
			Name:      "side_effect_failures_total",
			Help:      "Failed notifications, events and invoice renders.",
		}, []string{"op"}),
		gatherer: reg,
	}
	reg.MustRegister(m.Requests, m.LatencyMS, m.Orders, m.Transitions, m.SideEffects)
	return m
}

// Middleware labels by route pattern, not raw path, to keep cardinality bounded.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" && r.Path != "/" {
			route = r.Path
		}
		m.Requests.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Microseconds()) / 1000)
		return err
	}
}

func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}

// The recorders below accept a nil receiver so services can run without metrics.

func (m *Metrics) OrderPlaced(ok bool) {
	if m == nil {
		return
	}
	result := "accepted"
	if !ok {
		result = "rejected"
	}
	m.Orders.WithLabelValues(result).Inc()
}

func (m *Metrics) Transition(to, actor string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(to, actor).Inc()
}

func (m *Metrics) SideEffectFailed(op string) {
	if m == nil {
		return
	}
	m.SideEffects.WithLabelValues(op).Inc()
}
