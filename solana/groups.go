package solana

import (
	"context"
	"fmt"
	"slices"

	"github.com/AlexZinkM/pump-desk/internal/model"
	"github.com/AlexZinkM/pump-desk/internal/settings"

	"go.uber.org/zap"
)

// GroupAction selects what a group trade does
type GroupAction string

const (
	GroupBuy  GroupAction = "buy"
	GroupSell GroupAction = "sell"
	GroupDump GroupAction = "dump"
)

// GroupTrade trades mint from the wallets of g. Buy and sell use the group's
// active wallets with their own amounts; dump sells 100% from every wallet.
// A wallet with an invalid amount gets a validation outcome and is skipped.
func (s *Service) GroupTrade(ctx context.Context, g settings.Group, kind GroupAction, mint string, params model.TradeParams) (*model.FlowResponse, error) {
	label := fmt.Sprintf("Group %s (%s)", kind, g.Name)

	mint, err := validateMint(mint)
	if err != nil {
		return nil, s.reject(label, err)
	}

	var members []settings.GroupWallet
	switch kind {
	case GroupBuy, GroupSell:
		for _, w := range g.Wallets {
			if slices.Contains(g.ActiveWalletIDs, w.WalletID) {
				members = append(members, w)
			}
		}
	case GroupDump:
		members = g.Wallets
	default:
		return nil, s.reject(label, invalid(fmt.Sprintf("unsupported group action %q", kind)))
	}
	if len(members) == 0 {
		return nil, s.reject(label, invalid(fmt.Sprintf("No wallets selected in %s", g.Name)))
	}

	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	s.logger.Info("Starting group trade",
		zap.String("group", g.Name),
		zap.String("action", string(kind)),
		zap.String("mint", mint),
		zap.Int("wallets", len(members)))

	legLabel := fmt.Sprintf("Trade Action (%s %s)", g.Name, kind)

	resp := &model.FlowResponse{Mint: mint}
	for _, m := range members {
		action, amount, err := groupLeg(kind, m)
		var o model.Outcome
		if err != nil {
			o = model.Outcome{Action: string(action), WalletID: m.WalletID, Mint: mint}.Failed(model.StageValidation, err)
			if w, gerr := s.wallets.Get(m.WalletID); gerr == nil {
				o.WalletName = w.Name
				clear(w.PrivateKey)
			}
		} else {
			o = s.tradeOne(ctx, m.WalletID, action, mint, amount, params)
		}
		s.recorder.Outcome(ctx, legLabel, o)
		resp.Outcomes = append(resp.Outcomes, o)
	}
	resp.Success = allOK(resp.Outcomes)
	return resp, nil
}

func groupLeg(kind GroupAction, m settings.GroupWallet) (model.Action, model.Amount, error) {
	switch kind {
	case GroupBuy:
		amount, err := buyAmount(m.BuyAmountSOL)
		return model.ActionBuy, amount, err
	case GroupSell:
		amount, err := sellAmount(m.SellPercentage)
		return model.ActionSell, amount, err
	default:
		return model.ActionSell, model.Percent(hundred), nil
	}
}
