// Package metrics provides Prometheus collectors for the reconstruction pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Element filter metrics.
	TetrasEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshrecon_tetras_evaluated_total",
			Help: "Total number of tetrahedra evaluated by the element filter",
		},
	)

	TetrasRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshrecon_tetras_rejected_total",
			Help: "Total number of tetrahedra discarded by the element filter",
		},
		[]string{"reason"},
	)

	TetrasSliver = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshrecon_tetras_sliver_total",
			Help: "Tetrahedra whose gamma quality exceeds the advisory sliver threshold",
		},
	)

	// Boundary extraction metrics.
	BoundaryFaces = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshrecon_boundary_faces_total",
			Help: "Total number of boundary faces extracted",
		},
	)

	NonManifoldFaces = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshrecon_nonmanifold_faces_total",
			Help: "Faces shared by more than two retained tetrahedra",
		},
	)

	UnifyFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshrecon_unify_normals_failures_total",
			Help: "Meshes whose normals could not be fully unified",
		},
	)

	// Multi-entity merge metrics.
	EntitiesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshrecon_entities_skipped_total",
			Help: "Entities skipped during merge because they had no nodes",
		},
	)

	// Engine metrics.
	EngineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshrecon_engine_errors_total",
			Help: "Total number of failed engine operations",
		},
		[]string{"op"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meshrecon_operation_duration_seconds",
			Help:    "Duration of reconstruction operations",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"operation", "status"},
	)
)

// ObserveOperation records the duration of an operation since start.
func ObserveOperation(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	OperationDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// WriteFile writes all metrics gathered by the default registry to path
// in the Prometheus text format.
func WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
