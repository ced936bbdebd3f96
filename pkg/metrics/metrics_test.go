package metrics

import (
	"errors"
	"sync"
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
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.cacheRequests.WithLabelValues("hit").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_cache_requests_total")
			})
		})

		Convey("When empty options are passed", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "rosterlens")
				So(manager.subsystem, ShouldEqual, "engine")
				So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global recorders", t, func() {
		Convey("When cache results are recorded", func() {
			before := testutil.ToFloat64(globalManager.cacheRequests.WithLabelValues("hit"))
			RecordCacheHit()
			RecordCacheMiss()

			Convey("Then the hit counter advances by one", func() {
				So(testutil.ToFloat64(globalManager.cacheRequests.WithLabelValues("hit")), ShouldEqual, before+1)
			})
		})

		Convey("When a failed refresh is recorded", func() {
			before := testutil.ToFloat64(globalManager.refreshErrors)
			RecordRefresh(12, errors.New("boom"))
			RecordRefresh(3, nil)

			Convey("Then only one error is counted", func() {
				So(testutil.ToFloat64(globalManager.refreshErrors), ShouldEqual, before+1)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateTierCount("RB", "dynasty", 9)
			UpdateRefreshQueueSize(4)
			RecordFeedFetch("sleeper", 40, 212)

			Convey("Then they hold the latest value", func() {
				So(testutil.ToFloat64(globalManager.tierCount.WithLabelValues("RB", "dynasty")), ShouldEqual, 9)
				So(testutil.ToFloat64(globalManager.refreshQueueSize), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.feedRecords.WithLabelValues("sleeper")), ShouldEqual, 212)
			})
		})

		Convey("When recorders are exercised", func() {
			So(func() {
				RecordFeedError("fantasypros")
				RecordSnapshot("built")
				RecordSnapshotBuildDuration(20)
				RecordSectionDegraded("efficiency")
				RecordIdentityDrop("sleeper")
				RecordOwnershipConflict()
				UpdateRefreshWorkers(2)
				RecordHTTPRequest("/snapshot", "GET", "200")
				RecordHTTPRequestDuration("/snapshot", "GET", "200", 1.5)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.ownershipConflicts)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				RecordOwnershipConflict()
			}()
		}
		wg.Wait()
		So(testutil.ToFloat64(globalManager.ownershipConflicts), ShouldEqual, before+20)
	})
}
