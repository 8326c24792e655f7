package gamesource_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/questforge/internal/adapters/gamesource"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClientFetch(t *testing.T) {
	Convey("Given a snapshot client", t, func() {
		ctx := context.Background()

		Convey("When the upstream returns a snapshot", func(c C) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				c.So(r.URL.Path, ShouldEqual, "/v1/wallets/0xabc/snapshot")
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{
					"wallet_address": "0xabc",
					"heroes": [{"id": "h1", "rarity": 4, "level": 12}],
					"quests": {"completed_total": 40},
					"account_age_days": 200
				}`))
			}))
			defer srv.Close()

			client := gamesource.NewClient(srv.URL)
			snap, err := client.Fetch(ctx, "0xabc")

			Convey("Then it should decode the snapshot", func() {
				So(err, ShouldBeNil)
				So(snap, ShouldNotBeNil)
				So(snap.WalletAddress, ShouldEqual, "0xabc")
				So(snap.Heroes, ShouldHaveLength, 1)
				So(snap.Quests.CompletedTotal, ShouldEqual, 40)
				So(snap.AccountAgeDays, ShouldEqual, 200)
			})
		})

		Convey("When the upstream omits the wallet address", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			}))
			defer srv.Close()

			client := gamesource.NewClient(srv.URL)
			snap, err := client.Fetch(ctx, "0xdef")

			Convey("Then it should backfill it from the request", func() {
				So(err, ShouldBeNil)
				So(snap.WalletAddress, ShouldEqual, "0xdef")
			})
		})

		Convey("When the wallet is unknown upstream", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer srv.Close()

			client := gamesource.NewClient(srv.URL)
			snap, err := client.Fetch(ctx, "0xmissing")

			Convey("Then it should return the sentinel", func() {
				So(snap, ShouldBeNil)
				So(errors.Is(err, gamesource.ErrWalletUnknown), ShouldBeTrue)
			})
		})

		Convey("When the upstream fails", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer srv.Close()

			client := gamesource.NewClient(srv.URL)
			snap, err := client.Fetch(ctx, "0xabc")

			Convey("Then it should wrap the upstream error", func() {
				So(snap, ShouldBeNil)
				So(errors.Is(err, gamesource.ErrUpstream), ShouldBeTrue)
			})
		})

		Convey("When the body is not JSON", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			}))
			defer srv.Close()

			client := gamesource.NewClient(srv.URL)
			_, err := client.Fetch(ctx, "0xabc")

			Convey("Then it should return a decode error", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
