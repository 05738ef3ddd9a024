package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Action is the trade action sent to the trade builder
type Action string

const (
	ActionCreate Action = "create"
	ActionBuy    Action = "buy"
	ActionSell   Action = "sell"
)

// PoolAuto lets the trade builder pick a pool; it is never sent upstream.
const PoolAuto = "auto"

// Amount is a trade amount: SOL for buy/create, percent of holdings for sell.
// It marshals as a JSON number or as the string "N%".
type Amount struct {
	Value   decimal.Decimal
	Percent bool
}

// SOL returns a SOL-denominated amount.
func SOL(v decimal.Decimal) Amount {
	return Amount{Value: v}
}

// Percent returns a percentage amount.
func Percent(v decimal.Decimal) Amount {
	return Amount{Value: v, Percent: true}
}

func (a Amount) String() string {
	if a.Percent {
		return a.Value.String() + "%"
	}
	return a.Value.String()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Percent {
		return json.Marshal(a.String())
	}
	return []byte(a.Value.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		percent := strings.HasSuffix(s, "%")
		v, err := decimal.NewFromString(strings.TrimSuffix(s, "%"))
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", s, err)
		}
		*a = Amount{Value: v, Percent: percent}
		return nil
	}
	v, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	*a = Amount{Value: v}
	return nil
}

// TokenMetadata is attached to create requests
type TokenMetadata struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	URI    string `json:"uri"`
}

// TradeArgs is the body the trade builder expects, one per transaction
type TradeArgs struct {
	PublicKey        string         `json:"publicKey"`
	Action           Action         `json:"action"`
	Mint             string         `json:"mint"`
	DenominatedInSol string         `json:"denominatedInSol"`
	Amount           Amount         `json:"amount"`
	Slippage         int            `json:"slippage"`
	PriorityFee      float64        `json:"priorityFee"`
	Pool             string         `json:"pool,omitempty"`
	TokenMetadata    *TokenMetadata `json:"tokenMetadata,omitempty"`
}

// TokenInfo is the metadata uploaded for a new token
type TokenInfo struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Twitter     string `json:"twitter"`
	Telegram    string `json:"telegram"`
	Website     string `json:"website"`
}

// Image is an uploaded token image
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UploadResult is the metadata service answer after relay normalisation
type UploadResult struct {
	URI      string `json:"uri"`
	Metadata struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"metadata"`
}

// TradeParams are the execution parameters shared by every leg of a flow
type TradeParams struct {
	Slippage    int             `json:"slippage"`
	PriorityFee decimal.Decimal `json:"priorityFee"`
	Pool        string          `json:"pool"`
}

// TradeRequest represents request for POST /trade
type TradeRequest struct {
	Action         Action   `json:"action" binding:"required"`
	Mint           string   `json:"mint" binding:"required"`
	WalletIDs      []string `json:"walletIds" binding:"required"`
	AmountSOL      string   `json:"amount"`         // buy
	SellPercentage string   `json:"sellPercentage"` // sell
}

// LaunchRequest carries the form fields of POST /launch (multipart)
type LaunchRequest struct {
	CreatorWalletID string
	Token           TokenInfo
	AmountSOL       string
	Image           Image
	Quick           bool
}

// BundleBuyer is one buyer leg of a bundle launch
type BundleBuyer struct {
	WalletID  string `json:"walletId"`
	AmountSOL string `json:"amount"`
}

// BundleRequest carries the form fields of POST /bundle (multipart, buyers as JSON)
type BundleRequest struct {
	CreatorWalletID string
	Token           TokenInfo
	AmountSOL       string
	Buyers          []BundleBuyer
	Image           Image
}

// FlowResponse wraps the outcomes of a flow
type FlowResponse struct {
	Success  bool      `json:"success"`
	Mint     string    `json:"mint,omitempty"`
	BundleID string    `json:"bundleId,omitempty"`
	Outcomes []Outcome `json:"outcomes"`
}
