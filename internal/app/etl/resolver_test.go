package etl

import (
	"context"
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/questforge/internal/adapters/repository"
)

type failingLinks struct {
	repository.LinkageStore
}

func (failingLinks) ClusterForWallet(ctx context.Context, wallet string) (repository.Linkage, bool, error) {
	return repository.Linkage{}, false, errors.New("linkage table down")
}

func TestResolve(t *testing.T) {
	convey.Convey("Given the default resolution chain", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		store.SeedLinkage(repository.Linkage{
			WalletAddress: "0xlinked", UserID: "u1", ClusterKey: "c1", PlayerID: "p1",
		})
		store.SeedLegacySignup(repository.Linkage{
			WalletAddress: "0xlegacy", UserID: "u2", ClusterKey: "c2", PlayerID: "p2",
		})
		// Present in both tables; the direct linkage must win.
		store.SeedLinkage(repository.Linkage{
			WalletAddress: "0xboth", UserID: "direct", ClusterKey: "c3", PlayerID: "p3",
		})
		store.SeedLegacySignup(repository.Linkage{
			WalletAddress: "0xboth", UserID: "legacy", ClusterKey: "c9", PlayerID: "p9",
		})
		resolver := NewResolver(store, nil)

		convey.Convey("When resolving a directly linked wallet", func() {
			wc, err := resolver.Resolve(ctx, "0xlinked")

			convey.Convey("Then the triple should come from the linkage table", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(wc.UserID, convey.ShouldEqual, "u1")
				convey.So(wc.ClusterKey, convey.ShouldEqual, "c1")
				convey.So(wc.PlayerID, convey.ShouldEqual, "p1")
			})
		})

		convey.Convey("When only the legacy table knows the wallet", func() {
			wc, err := resolver.Resolve(ctx, "0xlegacy")

			convey.Convey("Then the fallback should resolve it", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(wc.ClusterKey, convey.ShouldEqual, "c2")
			})
		})

		convey.Convey("When both tables know the wallet", func() {
			wc, err := resolver.Resolve(ctx, "0xboth")

			convey.Convey("Then the first strategy should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(wc.UserID, convey.ShouldEqual, "direct")
				convey.So(wc.ClusterKey, convey.ShouldEqual, "c3")
			})
		})

		convey.Convey("When no table knows the wallet", func() {
			wc, err := resolver.Resolve(ctx, "0xunknown")

			convey.Convey("Then an empty context should be returned, not an error", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(wc.WalletAddress, convey.ShouldEqual, "0xunknown")
				convey.So(wc.HasIdentity(), convey.ShouldBeFalse)
				convey.So(wc.HasCluster(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a strategy fails", func() {
			broken := NewResolver(failingLinks{LinkageStore: store}, nil)
			_, err := broken.Resolve(ctx, "0xlinked")

			convey.Convey("Then the error should name the strategy", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "wallet_linkage")
			})
		})
	})
}
