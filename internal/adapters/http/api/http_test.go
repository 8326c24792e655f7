package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/questforge/internal/adapters/http/api"
	"github.com/okian/questforge/internal/app/etl"
	"github.com/okian/questforge/internal/app/leaderboard"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockReader struct {
	view    leaderboard.View
	viewErr error
	rank    leaderboard.Entry
	rankErr error
}

func (m *mockReader) View(ctx context.Context, key string) (leaderboard.View, error) {
	if m.viewErr != nil {
		return leaderboard.View{}, m.viewErr
	}
	return m.view, nil
}

func (m *mockReader) MyRank(ctx context.Context, key, clusterKey string) (leaderboard.Entry, error) {
	if m.rankErr != nil {
		return leaderboard.Entry{}, m.rankErr
	}
	return m.rank, nil
}

type mockRunner struct {
	result      etl.BatchResult
	err         error
	incremental int
	daily       int
}

func (m *mockRunner) RunIncremental(ctx context.Context) (etl.BatchResult, error) {
	m.incremental++
	return m.result, m.err
}

func (m *mockRunner) RunDailySnapshot(ctx context.Context) (etl.BatchResult, error) {
	m.daily++
	return m.result, m.err
}

type mockStats struct{}

func (m *mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"tracked_wallets": 3}
}

func newTestServer(reader *mockReader, runner *mockRunner) *http.ServeMux {
	srv := api.NewServer(reader, runner, &mockStats{})
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	return mux
}

func TestLeaderboardEndpoint(t *testing.T) {
	Convey("Given a leaderboard endpoint", t, func() {
		reader := &mockReader{
			view: leaderboard.View{
				Key:         "weekly_hunters",
				Name:        "Weekly Hunters",
				TimeWindow:  "WEEKLY",
				RunID:       "run-1",
				GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
				Entries: []leaderboard.Entry{
					{Rank: 1, ClusterKey: "c1", Score: 42, Flags: []string{"boss_slayer"}},
				},
			},
		}
		mux := newTestServer(reader, &mockRunner{})

		Convey("When requesting an existing leaderboard", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/weekly_hunters", nil)
			mux.ServeHTTP(rec, req)

			Convey("Then it should return the view", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var got leaderboard.View
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(got.Key, ShouldEqual, "weekly_hunters")
				So(got.Entries, ShouldHaveLength, 1)
				So(got.Entries[0].Flags, ShouldResemble, []string{"boss_slayer"})
			})
		})

		Convey("When the leaderboard key is unknown", func() {
			reader.viewErr = leaderboard.ErrUnknownLeaderboard
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/nope", nil)
			mux.ServeHTTP(rec, req)

			Convey("Then it should return 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the reader fails", func() {
			reader.viewErr = errors.New("boom")
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/weekly_hunters", nil)
			mux.ServeHTTP(rec, req)

			Convey("Then it should return 500", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When using the wrong method", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/leaderboards/weekly_hunters", nil)
			mux.ServeHTTP(rec, req)

			Convey("Then it should return 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestRankEndpoint(t *testing.T) {
	Convey("Given a my-rank endpoint", t, func() {
		reader := &mockReader{
			rank: leaderboard.Entry{Rank: 7, ClusterKey: "c9", Score: 13, Flags: []string{}},
		}
		mux := newTestServer(reader, &mockRunner{})

		Convey("When requesting a ranked cluster", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/weekly_hunters/rank/c9", nil)
			mux.ServeHTTP(rec, req)

			Convey("Then it should return the entry", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var got leaderboard.Entry
				So(json.Unmarshal(rec.Body.Bytes(), &got), ShouldBeNil)
				So(got.Rank, ShouldEqual, 7)
				So(got.ClusterKey, ShouldEqual, "c9")
			})
		})

		Convey("When no complete run exists", func() {
			reader.rankErr = leaderboard.ErrNoCompleteRun
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/weekly_hunters/rank/c9", nil)
			mux.ServeHTTP(rec, req)

			Convey("Then it should return 404", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the path is malformed", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/leaderboards/weekly_hunters/rank/", nil)
			mux.ServeHTTP(rec, req)

			Convey("Then it should not route to rank", func() {
				So(rec.Code, ShouldNotEqual, http.StatusOK)
			})
		})
	})
}

func TestTriggerEndpoint(t *testing.T) {
	Convey("Given an ETL trigger endpoint", t, func() {
		Convey("When triggering an incremental run", func() {
			runner := &mockRunner{result: etl.BatchResult{Processed: 5, Failed: 1}}
			mux := newTestServer(&mockReader{}, runner)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/etl/trigger", strings.NewReader(`{"mode":"incremental"}`))
			mux.ServeHTTP(rec, req)

			Convey("Then it should run and report counts", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(runner.incremental, ShouldEqual, 1)
				So(runner.daily, ShouldEqual, 0)
				So(rec.Body.String(), ShouldContainSubstring, `"processed":5`)
				So(rec.Body.String(), ShouldContainSubstring, `"failed":1`)
			})
		})

		Convey("When triggering a full run", func() {
			runner := &mockRunner{}
			mux := newTestServer(&mockReader{}, runner)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/etl/trigger", strings.NewReader(`{"mode":"full"}`))
			mux.ServeHTTP(rec, req)

			Convey("Then it should route to the daily snapshot run", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(runner.daily, ShouldEqual, 1)
			})
		})

		Convey("When a run is already in flight", func() {
			runner := &mockRunner{result: etl.BatchResult{Skipped: true}}
			mux := newTestServer(&mockReader{}, runner)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/etl/trigger", strings.NewReader(`{"mode":"incremental"}`))
			mux.ServeHTTP(rec, req)

			Convey("Then it should return 409", func() {
				So(rec.Code, ShouldEqual, http.StatusConflict)
				So(rec.Body.String(), ShouldContainSubstring, "in flight")
			})
		})

		Convey("When the mode is unknown", func() {
			mux := newTestServer(&mockReader{}, &mockRunner{})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/etl/trigger", strings.NewReader(`{"mode":"sideways"}`))
			mux.ServeHTTP(rec, req)

			Convey("Then it should return 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is not JSON", func() {
			mux := newTestServer(&mockReader{}, &mockRunner{})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/etl/trigger", strings.NewReader(`nope`))
			mux.ServeHTTP(rec, req)

			Convey("Then it should return 400", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestHealthAndStatsEndpoints(t *testing.T) {
	Convey("Given the operational endpoints", t, func() {
		mux := newTestServer(&mockReader{}, &mockRunner{})

		Convey("When requesting /healthz", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			mux.ServeHTTP(rec, req)

			Convey("Then it should report ok", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "ok")
			})
		})

		Convey("When requesting /stats", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			mux.ServeHTTP(rec, req)

			Convey("Then it should return the stats map", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "tracked_wallets")
			})
		})

		Convey("When requesting /metrics", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			mux.ServeHTTP(rec, req)

			Convey("Then it should serve the Prometheus registry", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}
