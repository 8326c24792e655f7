package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			metricPrefixOpt := WithMetricPrefix("test-prefix")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)
			refreshIntervalOpt := WithRefreshInterval(5 * time.Second)
			customLabelsOpt := WithCustomLabels(map[string]string{"env": "test"})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(metricPrefixOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
				So(refreshIntervalOpt, ShouldNotBeNil)
				So(customLabelsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithMetricPrefix("test-prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test", "version": "1.0"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording pipeline metrics", func() {
			Convey("Then it should record processed wallets", func() {
				So(func() {
					RecordWalletProcessed()
					RecordWalletProcessed()
					RecordWalletProcessed()
				}, ShouldNotPanic)
			})

			Convey("And it should record failed wallets", func() {
				So(func() {
					RecordWalletFailed()
					RecordWalletFailed()
				}, ShouldNotPanic)
			})

			Convey("And it should observe wallet run durations", func() {
				So(func() {
					ObserveWalletRunDuration(100.0)
					ObserveWalletRunDuration(150.0)
					ObserveWalletRunDuration(200.0)
				}, ShouldNotPanic)
			})

			Convey("And it should record loader errors", func() {
				So(func() {
					RecordLoaderError("lifetime")
					RecordLoaderError("windowed")
					RecordLoaderError("snapshots")
				}, ShouldNotPanic)
			})

			Convey("And it should record skipped challenges", func() {
				So(func() {
					RecordChallengeSkipped()
					RecordChallengeSkipped()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording batch metrics", func() {
			Convey("Then it should record batch runs and skips", func() {
				So(func() {
					RecordBatchRun("incremental")
					RecordBatchRun("daily")
					RecordSchedulerSkip("incremental")
					ObserveBatchRunDuration("daily", 5000.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording classification metrics", func() {
			Convey("Then it should record tier classifications", func() {
				So(func() {
					RecordTierClass("COMMON")
					RecordTierClass("RARE")
					RecordTierClass("MYTHIC")
				}, ShouldNotPanic)
			})

			Convey("And it should record Founder's Marks", func() {
				So(func() {
					RecordFoundersMark()
					RecordFoundersMark()
				}, ShouldNotPanic)
			})

			Convey("And it should record season computations", func() {
				So(func() {
					RecordSeasonComputation()
				}, ShouldNotPanic)
			})

			Convey("And it should record leaderboard runs", func() {
				So(func() {
					RecordLeaderboardRun("COMPLETE")
					RecordLeaderboardRun("FAILED")
				}, ShouldNotPanic)
			})
		})

		Convey("When recording operational metrics", func() {
			Convey("Then it should update tracked wallets", func() {
				So(func() {
					UpdateTrackedWallets(1000)
					UpdateTrackedWallets(0)
				}, ShouldNotPanic)
			})

			Convey("And it should update the in-flight gauge", func() {
				So(func() {
					UpdateRunInFlight(true)
					UpdateRunInFlight(false)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP metrics", func() {
			Convey("Then it should record HTTP requests", func() {
				So(func() {
					RecordHTTPRequest("/healthz", "GET", "200")
					RecordHTTPRequest("/etl/trigger", "POST", "202")
					RecordHTTPRequest("/leaderboards/weekly_hunters", "GET", "200")
				}, ShouldNotPanic)
			})

			Convey("And it should record HTTP request duration", func() {
				So(func() {
					RecordHTTPRequestDuration("/healthz", "GET", "200", 5.0)
					RecordHTTPRequestDuration("/etl/trigger", "POST", "202", 10.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording system metrics", func() {
			Convey("Then it should update memory and goroutine gauges", func() {
				So(func() {
					UpdateSystemMemoryUsage(1024 * 1024 * 100)
					UpdateSystemGoroutineCount(100)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsEdgeCases(t *testing.T) {
	Convey("Given metrics edge cases", t, func() {
		Convey("When recording metrics with edge values", func() {
			Convey("And using zero values", func() {
				So(func() {
					UpdateTrackedWallets(0)
					ObserveWalletRunDuration(0.0)
					RecordHTTPRequestDuration("/test", "GET", "200", 0.0)
				}, ShouldNotPanic)
			})

			Convey("And using very large values", func() {
				So(func() {
					UpdateTrackedWallets(10000000)
					ObserveWalletRunDuration(10000.0)
					ObserveBatchRunDuration("daily", 3600000.0)
				}, ShouldNotPanic)
			})

			Convey("And using empty strings", func() {
				So(func() {
					RecordHTTPRequest("", "", "200")
					RecordLoaderError("")
					RecordTierClass("")
					RecordLeaderboardRun("")
				}, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics concurrency", t, func() {
		Convey("When recording metrics concurrently", func() {
			done := make(chan bool, 10)

			for i := 0; i < 10; i++ {
				go func(id int) {
					for j := 0; j < 100; j++ {
						RecordWalletProcessed()
						UpdateTrackedWallets(1000 + j)
						ObserveWalletRunDuration(float64(j))
						RecordHTTPRequest("/test", "GET", "200")
					}
					done <- true
				}(i)
			}

			for i := 0; i < 10; i++ {
				<-done
			}

			Convey("Then it should handle concurrent access without panics", func() {
				So(true, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsOptionsValidation(t *testing.T) {
	Convey("Given metrics options validation", t, func() {
		Convey("When creating with empty namespace", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithNamespace(""), WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with nil histogram buckets", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with zero refresh interval", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRefreshInterval(0), WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}
