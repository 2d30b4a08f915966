package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	reservationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_operations_total",
			Help: "Total reservation operations by outcome",
		},
		[]string{"operation", "status"},
	)

	bookingConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_conflicts_total",
			Help: "Booking attempts rejected because the slot was taken",
		},
		[]string{"court_id"},
	)

	slotLocksHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "court_slot_locks_held",
			Help: "Court slot locks currently held",
		},
	)

	bookingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booking_request_duration_seconds",
			Help:    "Duration of booking engine operations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation"},
	)
)

type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		m.collectLockMetrics(ctx)
		cancel()
	}
}

func (m *Monitor) collectLockMetrics(ctx context.Context) {
	keys, err := m.redis.Keys(ctx, "lock:court:*").Result()
	if err != nil {
		return
	}
	slotLocksHeld.Set(float64(len(keys)))
}

// TrackOperation records the outcome of a reservation operation.
func (m *Monitor) TrackOperation(operation, status string) {
	reservationOps.WithLabelValues(operation, status).Inc()
}

// TrackConflict records a booking rejected due to a slot conflict.
func (m *Monitor) TrackConflict(courtID string) {
	bookingConflicts.WithLabelValues(courtID).Inc()
}

// TrackDuration records how long a booking engine operation took.
func (m *Monitor) TrackDuration(operation string, d time.Duration) {
	bookingDuration.WithLabelValues(operation).Observe(d.Seconds())
}
