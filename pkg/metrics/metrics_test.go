package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.matchOutcomes.WithLabelValues("registered", "none").Inc()

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_match_outcomes_total")
			})
		})

		Convey("When registering twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		So(GetRegistry(), ShouldNotBeNil)

		Convey("When recording match outcomes", func() {
			before := testutil.ToFloat64(globalManager.matchOutcomes.WithLabelValues("rejected", "NOT_ELIGIBLE"))
			RecordMatchOutcome("rejected", "NOT_ELIGIBLE")
			RecordMatchOutcome("registered", "")

			Convey("Then counters move by reason", func() {
				So(testutil.ToFloat64(globalManager.matchOutcomes.WithLabelValues("rejected", "NOT_ELIGIBLE")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.matchOutcomes.WithLabelValues("registered", "none")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording queue activity", func() {
			UpdateQueueCapacity(8)
			UpdateQueueSize(3)
			before := testutil.ToFloat64(globalManager.queueEnqueueErrors.WithLabelValues("queue_full"))
			RecordQueueEnqueueError("queue_full")

			Convey("Then gauges hold the latest values", func() {
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 8)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.queueEnqueueErrors.WithLabelValues("queue_full")), ShouldEqual, before+1)
			})
		})

		Convey("When recording every other helper", func() {
			So(func() {
				RecordEligibilityEvaluation(true)
				RecordEligibilityEvaluation(false)
				UpdateActiveRegistrations(2)
				RecordNotificationEnqueued("assignment")
				RecordNotificationDelivered("assignment")
				RecordNotificationFailure("deliver")
				RecordNATSPublish("ok")
				RecordQueueEnqueue()
				RecordQueueDequeue()
				UpdateWorkerActiveCount(4)
				UpdateWorkerMessagesPerSecond(1.5)
				RecordWorkerProcessingLatency(3 * time.Millisecond)
				RecordStoreLatency("memory", "register", time.Millisecond)
				RecordHTTPRequest("/api/match", "POST", "200")
				RecordHTTPRequestDuration("/api/match", "POST", "200", 0.01)
				RecordErrorByComponent("app", "store_error")
				RecordErrorByEndpoint("/api/match", "POST", "validation")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(50 * time.Microsecond)
			}, ShouldNotPanic)
			So(testutil.ToFloat64(globalManager.activeRegistrations), ShouldEqual, 2)
		})
	})
}
