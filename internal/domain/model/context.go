package model

// WalletContext is the identity triple resolved for one wallet address at the
// start of a pipeline run. It is rebuilt fresh every run and never persisted.
type WalletContext struct {
	WalletAddress string
	UserID        string
	ClusterKey    string
	PlayerID      string
}

// HasIdentity reports whether any identity was resolved for the wallet.
func (c WalletContext) HasIdentity() bool {
	return c.UserID != "" || c.PlayerID != ""
}

// HasCluster reports whether the wallet resolved to a cluster. Cluster-scoped
// loaders must no-op when this is false.
func (c WalletContext) HasCluster() bool {
	return c.ClusterKey != ""
}
