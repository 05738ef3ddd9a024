package model

// BalanceError is the marker recorded instead of a numeric balance when a lookup fails
const BalanceError = "Error"

// WalletBalance is one entry of a balance batch
type WalletBalance struct {
	WalletID string `json:"walletId"`
	SOL      string `json:"sol"` // decimal SOL or BalanceError
	Error    string `json:"error,omitempty"`
}

// OK reports whether the balance lookup succeeded.
func (b WalletBalance) OK() bool {
	return b.Error == ""
}

// BalancesResponse represents response for GET /wallets/balances
type BalancesResponse struct {
	Balances  map[string]WalletBalance `json:"balances"`
	TotalSOL  string                   `json:"totalSol"`
	Rate      string                   `json:"solUsdRate,omitempty"`
	TotalUSD  string                   `json:"totalUsd,omitempty"`
	UpdatedAt string                   `json:"updatedAt,omitempty"`
}
