package solana

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlexZinkM/pump-desk/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// Trade runs a buy or sell for every wallet in req, in order.
// Wallet failures are reported as outcomes and do not stop the loop.
func (s *Service) Trade(ctx context.Context, req model.TradeRequest, params model.TradeParams) (*model.FlowResponse, error) {
	label := tradeLabel(req.Action)

	mint, amount, err := validateTrade(req)
	if err != nil {
		return nil, s.reject(label, err)
	}

	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	s.logger.Info("Starting trade",
		zap.String("action", string(req.Action)),
		zap.String("mint", mint),
		zap.Int("wallets", len(req.WalletIDs)))

	resp := &model.FlowResponse{Mint: mint}
	for _, id := range req.WalletIDs {
		o := s.tradeOne(ctx, id, req.Action, mint, amount, params)
		s.recorder.Outcome(ctx, label, o)
		resp.Outcomes = append(resp.Outcomes, o)
	}
	resp.Success = allOK(resp.Outcomes)
	return resp, nil
}

func tradeLabel(action model.Action) string {
	return fmt.Sprintf("Trade Action (%s)", action)
}

func validateTrade(req model.TradeRequest) (string, model.Amount, error) {
	mint, err := validateMint(req.Mint)
	if err != nil {
		return "", model.Amount{}, err
	}
	if len(req.WalletIDs) == 0 {
		return "", model.Amount{}, invalid("Please select at least one wallet")
	}

	switch req.Action {
	case model.ActionBuy:
		amount, err := buyAmount(req.AmountSOL)
		return mint, amount, err
	case model.ActionSell:
		amount, err := sellAmount(req.SellPercentage)
		return mint, amount, err
	default:
		return "", model.Amount{}, invalid(fmt.Sprintf("unsupported trade action %q", req.Action))
	}
}

func validateMint(mint string) (string, error) {
	mint = strings.TrimSpace(mint)
	if mint == "" {
		return "", invalid("Please enter a token mint address")
	}
	if _, err := solana.PublicKeyFromBase58(mint); err != nil {
		return "", invalid(fmt.Sprintf("invalid mint address %q", mint))
	}
	return mint, nil
}

// buyAmount parses a SOL amount, which must be positive
func buyAmount(raw string) (model.Amount, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !v.IsPositive() {
		return model.Amount{}, invalid("Please enter a valid buy amount")
	}
	return model.SOL(v), nil
}

// sellAmount parses a percentage in (0, 100]
func sellAmount(raw string) (model.Amount, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !v.IsPositive() || v.GreaterThan(hundred) {
		return model.Amount{}, invalid("Please enter a valid sell percentage (0-100)")
	}
	return model.Percent(v), nil
}

// tradeOne runs one wallet's leg: build, sign, broadcast, confirm
func (s *Service) tradeOne(ctx context.Context, walletID string, action model.Action, mint string, amount model.Amount, params model.TradeParams) model.Outcome {
	o := model.Outcome{
		Action:   string(action),
		WalletID: walletID,
		Mint:     mint,
		Amount:   amount.String(),
	}

	w, err := s.wallets.Get(walletID)
	if err != nil {
		return o.Failed(model.StageValidation, fmt.Errorf("wallet %s: %w", walletID, err))
	}
	defer clear(w.PrivateKey)
	o.WalletName = w.Name

	raw, err := s.builder.BuildTransaction(ctx, tradeArgs(w.PublicKey, action, mint, amount, params))
	if err != nil {
		return o.Failed(model.StageBuild, err)
	}

	sig, stage, err := s.signAndSend(ctx, raw, solana.PrivateKey(w.PrivateKey))
	if err != nil {
		if sig != "" {
			o.Signatures = []string{sig}
		}
		return o.Failed(stage, err)
	}

	s.logger.Info("Trade confirmed",
		zap.String("wallet", w.Name),
		zap.String("action", string(action)),
		zap.String("signature", sig))
	return o.Succeeded(sig)
}
