package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 1}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then every collector is registered on it", func() {
				So(manager, ShouldNotBeNil)
				manager.requests.WithLabelValues(EndpointRoster, OutcomeSuccess).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_requests_total"], ShouldBeTrue)
				So(names["test_unit_players_total"], ShouldBeTrue)
			})
		})

		Convey("When creating two managers on the same registry", func() {
			registry := prometheus.NewRegistry()
			_ = NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording remote calls", func() {
			before := testutil.ToFloat64(globalManager.requests.WithLabelValues(EndpointProfile, OutcomeTerminal))
			RecordRequest(EndpointProfile, OutcomeTerminal, 0.2)
			RecordRequest(EndpointProfile, OutcomeTerminal, 0.3)

			Convey("Then the counter advances per call", func() {
				after := testutil.ToFloat64(globalManager.requests.WithLabelValues(EndpointProfile, OutcomeTerminal))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When updating gauges", func() {
			UpdatePlayersTotal(42)
			UpdateRetryQueueSize(3)
			UpdateGuildsLoaded(7)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.playersTotal), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.retryQueueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.guildsLoaded), ShouldEqual, 7)
			})
		})

		Convey("When recording a snapshot write", func() {
			RecordSnapshotWrite(0.01, 2048, 1700000000)

			Convey("Then size and timestamp are exported", func() {
				So(testutil.ToFloat64(globalManager.snapshotBytes), ShouldEqual, 2048)
				So(testutil.ToFloat64(globalManager.snapshotLastSuccess), ShouldEqual, 1700000000)
			})
		})

		Convey("Then the registry gathers without error", func() {
			_, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
		})
	})
}
