package solana

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlexZinkM/pump-desk/internal/activity"
	"github.com/AlexZinkM/pump-desk/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Launch creates a token with a fresh mint keypair and an initial buy by the creator
func (s *Service) Launch(ctx context.Context, req model.LaunchRequest, params model.TradeParams) (*model.FlowResponse, error) {
	if req.Quick && strings.TrimSpace(req.Token.Symbol) == "" {
		req.Token.Symbol = req.Token.Name
	}

	req.CreatorWalletID = strings.TrimSpace(req.CreatorWalletID)
	amount, err := validateLaunch(req.CreatorWalletID, req.Token, req.Image, req.AmountSOL)
	if err != nil {
		return nil, s.reject(activity.ActionTokenLaunch, err)
	}

	creator, err := s.wallets.Get(req.CreatorWalletID)
	if err != nil {
		return nil, s.reject(activity.ActionTokenLaunch, fmt.Errorf("creator wallet %s: %w", req.CreatorWalletID, err))
	}
	defer clear(creator.PrivateKey)

	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	mint := s.newMint()
	mintAddress := mint.PublicKey().String()

	s.logger.Info("Launching token",
		zap.String("name", req.Token.Name),
		zap.String("symbol", req.Token.Symbol),
		zap.String("mint", mintAddress))

	o := model.Outcome{
		Action:     string(model.ActionCreate),
		WalletID:   creator.ID,
		WalletName: creator.Name,
		Mint:       mintAddress,
		Amount:     amount.String(),
	}
	o = s.launchOne(ctx, o, req.Token, req.Image, mint, creator, amount, params)
	s.recorder.Outcome(ctx, activity.ActionTokenLaunch, o)

	return &model.FlowResponse{
		Success:  o.OK(),
		Mint:     mintAddress,
		Outcomes: []model.Outcome{o},
	}, nil
}

func (s *Service) launchOne(ctx context.Context, o model.Outcome, token model.TokenInfo, image model.Image, mint solana.PrivateKey, creator model.Wallet, amount model.Amount, params model.TradeParams) model.Outcome {
	uploaded, err := s.builder.UploadMetadata(ctx, token, image)
	if err != nil {
		return o.Failed(model.StageUpload, err)
	}

	args := tradeArgs(creator.PublicKey, model.ActionCreate, o.Mint, amount, params)
	args.TokenMetadata = &model.TokenMetadata{
		Name:   token.Name,
		Symbol: token.Symbol,
		URI:    uploaded.URI,
	}

	raw, err := s.builder.BuildTransaction(ctx, args)
	if err != nil {
		return o.Failed(model.StageBuild, err)
	}

	sig, stage, err := s.signAndSend(ctx, raw, mint, solana.PrivateKey(creator.PrivateKey))
	if err != nil {
		if sig != "" {
			o.Signatures = []string{sig}
		}
		return o.Failed(stage, err)
	}

	s.logger.Info("Token launched", zap.String("mint", o.Mint), zap.String("signature", sig))
	return o.Succeeded(sig)
}

func validateLaunch(creatorID string, token model.TokenInfo, image model.Image, rawAmount string) (model.Amount, error) {
	if strings.TrimSpace(creatorID) == "" {
		return model.Amount{}, invalid("Please select a creator wallet")
	}
	if strings.TrimSpace(token.Name) == "" {
		return model.Amount{}, invalid("Please enter a token name")
	}
	if strings.TrimSpace(token.Symbol) == "" {
		return model.Amount{}, invalid("Please enter a token symbol")
	}
	if len(image.Data) == 0 {
		return model.Amount{}, invalid("Please select a token image")
	}

	v, err := decimal.NewFromString(strings.TrimSpace(rawAmount))
	if err != nil || v.IsNegative() {
		return model.Amount{}, invalid(fmt.Sprintf("invalid initial buy amount %q", rawAmount))
	}
	return model.SOL(v), nil
}
