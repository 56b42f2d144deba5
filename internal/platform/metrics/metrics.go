package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BookingTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_booking_transitions_total",
		Help: "Total number of committed booking transitions.",
	},
		[]string{"action", "to"},
	)

	BookingRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_booking_rejections_total",
		Help: "Total number of booking operations rejected before mutation.",
	},
		[]string{"operation", "kind"},
	)

	OverlapConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_overlap_conflicts_total",
		Help: "Total number of overlap conflicts detected, per operation.",
	},
		[]string{"operation"},
	)

	ExtendOverlapsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rental_extend_overlaps_total",
		Help: "Total number of extensions committed over another active booking.",
	})

	SweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_sweep_runs_total",
		Help: "Total number of sweep runs, per sweep and mode.",
	},
		[]string{"sweep", "mode"},
	)

	SweepExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rental_sweep_expired_total",
		Help: "Total number of bookings expired by the sweeper.",
	})

	SweepErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rental_sweep_errors_total",
		Help: "Total number of per-booking sweep failures.",
	})

	ListenerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rental_listener_failures_total",
		Help: "Total number of lifecycle listener failures.",
	},
		[]string{"listener", "event"},
	)

	AvailabilityFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rental_availability_fallbacks_total",
		Help: "Total number of availability checks answered from the flag alone after a lookup error.",
	})
)

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
