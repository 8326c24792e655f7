package gamesim

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/questforge/internal/domain/model"
)

func TestSnapshotGeneration(t *testing.T) {
	convey.Convey("Given the snapshot generator", t, func() {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		convey.Convey("When generating for a wallet", func() {
			snap := generateSnapshot("0xabc123", now)

			convey.Convey("Then the snapshot should be internally consistent", func() {
				convey.So(snap.WalletAddress, convey.ShouldEqual, "0xabc123")
				convey.So(snap.ExtractedAt, convey.ShouldResemble, now)
				convey.So(len(snap.Heroes), convey.ShouldBeGreaterThan, 0)
				convey.So(snap.Quests.StaminaSpent30d, convey.ShouldBeLessThanOrEqualTo, snap.Quests.StaminaBudget30d)
				convey.So(snap.Balances.NetWorthUSD, convey.ShouldBeGreaterThanOrEqualTo, snap.GardenLPValueUSD())
			})

			convey.Convey("Then every hero should have an id and a valid rarity", func() {
				for _, h := range snap.Heroes {
					convey.So(h.ID, convey.ShouldNotBeEmpty)
					convey.So(h.Rarity, convey.ShouldBeBetweenOrEqual, model.RarityCommon, model.RarityMythic)
					convey.So(h.Level, convey.ShouldBeGreaterThan, 0)
				}
			})
		})

		convey.Convey("When mapping wallets to archetypes", func() {
			convey.Convey("Then the mapping should be stable", func() {
				convey.So(archetypeFor("0xdeadbeef"), convey.ShouldEqual, archetypeFor("0xdeadbeef"))
				convey.So(archetypeFor("0xdeadbeef"), convey.ShouldBeLessThan, archetypeCount)
			})
		})
	})
}

func TestSimulatorServer(t *testing.T) {
	convey.Convey("Given a simulator server", t, func() {
		ctx := context.Background()
		srv := NewServer()
		mux := http.NewServeMux()
		srv.Register(ctx, mux)

		convey.Convey("When fetching a wallet snapshot", func() {
			req := httptest.NewRequest("GET", "/v1/wallets/0xfeed/snapshot", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then it should return a decodable snapshot", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldEqual, "application/json")

				var snap model.Snapshot
				err := json.Unmarshal(w.Body.Bytes(), &snap)
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap.WalletAddress, convey.ShouldEqual, "0xfeed")
			})
		})

		convey.Convey("When fetching the same wallet twice", func() {
			first := httptest.NewRecorder()
			mux.ServeHTTP(first, httptest.NewRequest("GET", "/v1/wallets/0xbeef/snapshot", http.NoBody))
			second := httptest.NewRecorder()
			mux.ServeHTTP(second, httptest.NewRequest("GET", "/v1/wallets/0xbeef/snapshot", http.NoBody))

			convey.Convey("Then the roster should be stable across fetches", func() {
				var a, b model.Snapshot
				convey.So(json.Unmarshal(first.Body.Bytes(), &a), convey.ShouldBeNil)
				convey.So(json.Unmarshal(second.Body.Bytes(), &b), convey.ShouldBeNil)
				convey.So(len(b.Heroes), convey.ShouldEqual, len(a.Heroes))
				convey.So(b.Quests.CompletedTotal, convey.ShouldEqual, a.Quests.CompletedTotal)
			})
		})

		convey.Convey("When the path is malformed", func() {
			req := httptest.NewRequest("GET", "/v1/wallets/0xfeed/other", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then it should return not found", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
			})
		})

		convey.Convey("When using a non-GET method", func() {
			req := httptest.NewRequest("POST", "/v1/wallets/0xfeed/snapshot", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then it should return method not allowed", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}
