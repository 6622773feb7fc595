package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics records settlement, refund, and rewards activity.
type CommerceMetrics struct {
	settlementDuration *prometheus.HistogramVec
	ordersSettled      *prometheus.CounterVec
	settlementFailures *prometheus.CounterVec
	refundsIssued      prometheus.Counter
	pointsAwarded      prometheus.Counter
	pointsRedeemed     prometheus.Counter
}

// NewCommerceMetrics registers the commerce metrics on the provided registerer.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	settlementDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_duration_seconds",
		Help:    "Duration of order settlement in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})
	ordersSettled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_settled_total",
		Help: "Orders settled successfully.",
	}, []string{"channel"})
	settlementFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_failures_total",
		Help: "Settlement attempts that failed.",
	}, []string{"reason"})
	refundsIssued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "refunds_issued_total",
		Help: "Refunds issued against settled orders.",
	})
	pointsAwarded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reward_points_awarded_total",
		Help: "Reward points awarded across purchases.",
	})
	pointsRedeemed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reward_points_redeemed_total",
		Help: "Reward points converted into store credit.",
	})
	reg.MustRegister(settlementDuration, ordersSettled, settlementFailures, refundsIssued, pointsAwarded, pointsRedeemed)
	return &CommerceMetrics{
		settlementDuration: settlementDuration,
		ordersSettled:      ordersSettled,
		settlementFailures: settlementFailures,
		refundsIssued:      refundsIssued,
		pointsAwarded:      pointsAwarded,
		pointsRedeemed:     pointsRedeemed,
	}
}

// ObserveSettlement records duration for a settlement attempt on the channel.
func (c *CommerceMetrics) ObserveSettlement(channel string, duration time.Duration) {
	if c == nil || c.settlementDuration == nil {
		return
	}
	c.settlementDuration.WithLabelValues(normalizeLabel(channel)).Observe(duration.Seconds())
}

// IncOrderSettled increments the settled counter for the channel.
func (c *CommerceMetrics) IncOrderSettled(channel string) {
	if c == nil || c.ordersSettled == nil {
		return
	}
	c.ordersSettled.WithLabelValues(normalizeLabel(channel)).Inc()
}

// IncSettlementFailure increments the failure counter for the reason.
func (c *CommerceMetrics) IncSettlementFailure(reason string) {
	if c == nil || c.settlementFailures == nil {
		return
	}
	c.settlementFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncRefundIssued increments the refund counter.
func (c *CommerceMetrics) IncRefundIssued() {
	if c == nil || c.refundsIssued == nil {
		return
	}
	c.refundsIssued.Inc()
}

// AddPointsAwarded adds awarded reward points.
func (c *CommerceMetrics) AddPointsAwarded(points int) {
	if c == nil || c.pointsAwarded == nil || points <= 0 {
		return
	}
	c.pointsAwarded.Add(float64(points))
}

// AddPointsRedeemed adds redeemed reward points.
func (c *CommerceMetrics) AddPointsRedeemed(points int) {
	if c == nil || c.pointsRedeemed == nil || points <= 0 {
		return
	}
	c.pointsRedeemed.Add(float64(points))
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
