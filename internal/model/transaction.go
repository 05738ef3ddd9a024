package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is a journaled flow outcome
type Record struct {
	ID         int64     `json:"id"`
	Action     string    `json:"action"`
	WalletID   string    `json:"walletId"`
	WalletName string    `json:"walletName"`
	Mint       string    `json:"mint"`
	Amount     string    `json:"amount"`
	Signature  string    `json:"signature"`
	Status     Status    `json:"status"`
	Stage      Stage     `json:"stage,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RecordFromOutcome flattens an outcome into a journal record.
func RecordFromOutcome(o Outcome, at time.Time) Record {
	r := Record{
		Action:     o.Action,
		WalletID:   o.WalletID,
		WalletName: o.WalletName,
		Mint:       o.Mint,
		Amount:     o.Amount,
		Signature:  o.Signature(),
		Status:     o.Status,
		CreatedAt:  at.UTC(),
	}
	if o.Error != nil {
		r.Stage = o.Error.Stage
		r.Error = o.Error.Message
	}
	return r
}

// HistoryResponse represents response for GET /history
type HistoryResponse struct {
	Total   int      `json:"total"`
	Records []Record `json:"records"`
}

// HistoryRequest represents request parameters for GET /history
type HistoryRequest struct {
	Action    *string    `form:"action"`
	Status    *Status    `form:"status"`
	WalletID  *string    `form:"walletId"`
	Mint      *string    `form:"mint"`
	From      *time.Time `form:"from"`
	To        *time.Time `form:"to"`
	MinAmount *string    `form:"minAmount"`
	MaxAmount *string    `form:"maxAmount"`
	Limit     int        `form:"limit"`
}

const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 1000
)

// Validate validates HistoryRequest filter parameters.
func (r *HistoryRequest) Validate() error {
	if r.Action != nil {
		switch *r.Action {
		case string(ActionCreate), string(ActionBuy), string(ActionSell):
		default:
			return fmt.Errorf("action must be create, buy or sell")
		}
	}
	if r.Status != nil && *r.Status != StatusSuccess && *r.Status != StatusError {
		return fmt.Errorf("status must be success or error")
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return fmt.Errorf("to date must be after or equal to from date")
	}
	minAmount, maxAmount, err := r.AmountBounds()
	if err != nil {
		return err
	}
	if minAmount != nil && maxAmount != nil && minAmount.GreaterThan(*maxAmount) {
		return fmt.Errorf("minAmount must be less than or equal to maxAmount")
	}
	if r.Limit < 0 || r.Limit > MaxHistoryLimit {
		return fmt.Errorf("limit must be between 0 and %d", MaxHistoryLimit)
	}
	return nil
}

// AmountBounds parses the optional amount filters. A nil bound is open.
func (r *HistoryRequest) AmountBounds() (minAmount, maxAmount *decimal.Decimal, err error) {
	if minAmount, err = parseBound("minAmount", r.MinAmount); err != nil {
		return nil, nil, err
	}
	if maxAmount, err = parseBound("maxAmount", r.MaxAmount); err != nil {
		return nil, nil, err
	}
	return minAmount, maxAmount, nil
}

func parseBound(name string, raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q is not a number", name, *raw)
	}
	return &v, nil
}
