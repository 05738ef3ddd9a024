package solana

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/AlexZinkM/pump-desk/internal/activity"
	"github.com/AlexZinkM/pump-desk/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// MaxBundleBuyers is the number of buy legs allowed next to the create leg
	MaxBundleBuyers = 4

	// mintSigner tags the fresh mint keypair among a leg's signers
	mintSigner = "mint"

	bundleBuyLabel = "Bundle Buy"
)

// buyer legs pay a tenth of the configured priority fee
var bundleBuyFeeFactor = decimal.NewFromFloat(0.1)

// bundleLeg is one transaction of a bundle with the ids of the keys that must sign it
type bundleLeg struct {
	args    model.TradeArgs
	signers []string
	outcome model.Outcome
	label   string
}

// Bundle launches a token and buys it from up to MaxBundleBuyers wallets in one bundle
func (s *Service) Bundle(ctx context.Context, req model.BundleRequest, params model.TradeParams) (*model.FlowResponse, error) {
	req.CreatorWalletID = strings.TrimSpace(req.CreatorWalletID)
	req.Buyers = slices.Clone(req.Buyers)
	creatorAmount, err := validateLaunch(req.CreatorWalletID, req.Token, req.Image, req.AmountSOL)
	if err != nil {
		return nil, s.reject(activity.ActionBundleLaunch, err)
	}
	buyAmounts, err := validateBuyers(req.CreatorWalletID, req.Buyers)
	if err != nil {
		return nil, s.reject(activity.ActionBundleLaunch, err)
	}

	keys := make(map[string]solana.PrivateKey, len(req.Buyers)+2)
	defer func() {
		for _, k := range keys {
			clear(k)
		}
	}()

	wallets := make(map[string]model.Wallet, len(req.Buyers)+1)
	for _, id := range append([]string{req.CreatorWalletID}, buyerIDs(req.Buyers)...) {
		w, err := s.wallets.Get(id)
		if err != nil {
			return nil, s.reject(activity.ActionBundleLaunch, fmt.Errorf("bundle wallet %s: %w", id, err))
		}
		wallets[id] = w
		keys[id] = solana.PrivateKey(w.PrivateKey)
	}

	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	mint := s.newMint()
	keys[mintSigner] = mint
	mintAddress := mint.PublicKey().String()

	s.logger.Info("Launching bundle",
		zap.String("name", req.Token.Name),
		zap.String("mint", mintAddress),
		zap.Int("buyers", len(req.Buyers)))

	creator := wallets[req.CreatorWalletID]
	legs := []*bundleLeg{{
		args:    tradeArgs(creator.PublicKey, model.ActionCreate, mintAddress, creatorAmount, params),
		signers: []string{mintSigner, creator.ID},
		label:   activity.ActionBundleLaunch,
		outcome: model.Outcome{
			Action:     string(model.ActionCreate),
			WalletID:   creator.ID,
			WalletName: creator.Name,
			Mint:       mintAddress,
			Amount:     creatorAmount.String(),
		},
	}}

	buyParams := params
	buyParams.PriorityFee = params.PriorityFee.Mul(bundleBuyFeeFactor)
	for i, b := range req.Buyers {
		w := wallets[b.WalletID]
		legs = append(legs, &bundleLeg{
			args:    tradeArgs(w.PublicKey, model.ActionBuy, mintAddress, buyAmounts[i], buyParams),
			signers: []string{w.ID},
			label:   bundleBuyLabel,
			outcome: model.Outcome{
				Action:     string(model.ActionBuy),
				WalletID:   w.ID,
				WalletName: w.Name,
				Mint:       mintAddress,
				Amount:     buyAmounts[i].String(),
			},
		})
	}

	bundleID, stage, err := s.runBundle(ctx, legs, keys, req.Token, req.Image)
	resp := &model.FlowResponse{Mint: mintAddress, BundleID: bundleID}
	for _, leg := range legs {
		o := leg.outcome
		if err != nil {
			o.Signatures = nil
			o = o.Failed(stage, err)
		}
		s.recorder.Outcome(ctx, leg.label, o)
		resp.Outcomes = append(resp.Outcomes, o)
	}
	resp.Success = err == nil
	return resp, nil
}

// runBundle uploads metadata, builds, signs and relays every leg.
// Signatures are stored in each leg's outcome on success.
func (s *Service) runBundle(ctx context.Context, legs []*bundleLeg, keys map[string]solana.PrivateKey, token model.TokenInfo, image model.Image) (string, model.Stage, error) {
	uploaded, err := s.builder.UploadMetadata(ctx, token, image)
	if err != nil {
		return "", model.StageUpload, err
	}
	legs[0].args.TokenMetadata = &model.TokenMetadata{
		Name:   token.Name,
		Symbol: token.Symbol,
		URI:    uploaded.URI,
	}

	args := make([]model.TradeArgs, len(legs))
	for i, leg := range legs {
		args[i] = leg.args
	}
	encoded, err := s.builder.BuildBundle(ctx, args)
	if err != nil {
		return "", model.StageBuild, err
	}
	if len(encoded) != len(legs) {
		return "", model.StageBuild, fmt.Errorf("expected %d transactions, got %d", len(legs), len(encoded))
	}

	signed := make([]string, len(legs))
	for i, leg := range legs {
		tx, err := signLeg(encoded[i], leg.signers, keys)
		if err != nil {
			return "", model.StageSign, fmt.Errorf("leg %d: %w", i, err)
		}
		raw, err := tx.MarshalBinary()
		if err != nil {
			return "", model.StageSign, fmt.Errorf("leg %d: failed to encode transaction: %w", i, err)
		}
		signed[i] = base58.Encode(raw)
		leg.outcome = leg.outcome.Succeeded(tx.Signatures[0].String())
	}

	bundleID, err := s.builder.SendBundle(ctx, signed)
	if err != nil {
		return "", model.StageRelay, err
	}

	s.logger.Info("Bundle sent", zap.String("bundleId", bundleID), zap.Int("transactions", len(signed)))
	return bundleID, "", nil
}

// signLeg decodes a base58 transaction and signs it with exactly the tagged keys.
// Every tagged signer must be required by the transaction.
func signLeg(encoded string, signers []string, keys map[string]solana.PrivateKey) (*solana.Transaction, error) {
	raw, err := base58.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base58 transaction: %w", err)
	}
	tx, err := decodeTransaction(raw)
	if err != nil {
		return nil, err
	}

	legKeys := make([]solana.PrivateKey, 0, len(signers))
	for _, id := range signers {
		key, ok := keys[id]
		if !ok {
			return nil, fmt.Errorf("no key for signer %s", id)
		}
		legKeys = append(legKeys, key)
	}
	if err := signTransaction(tx, legKeys...); err != nil {
		return nil, err
	}
	return tx, nil
}

func validateBuyers(creatorID string, buyers []model.BundleBuyer) ([]model.Amount, error) {
	if len(buyers) > MaxBundleBuyers {
		return nil, invalid(fmt.Sprintf("A bundle takes at most %d buyer wallets", MaxBundleBuyers))
	}

	seen := map[string]bool{creatorID: true}
	amounts := make([]model.Amount, len(buyers))
	for i, b := range buyers {
		id := strings.TrimSpace(b.WalletID)
		buyers[i].WalletID = id
		if id == "" {
			return nil, invalid(fmt.Sprintf("Buyer %d has no wallet", i+1))
		}
		if seen[id] {
			return nil, invalid(fmt.Sprintf("Wallet %s appears more than once in the bundle", id))
		}
		seen[id] = true

		amount, err := buyAmount(b.AmountSOL)
		if err != nil {
			return nil, invalid(fmt.Sprintf("Buyer %d: %s", i+1, err))
		}
		amounts[i] = amount
	}
	return amounts, nil
}

func buyerIDs(buyers []model.BundleBuyer) []string {
	ids := make([]string, len(buyers))
	for i, b := range buyers {
		ids[i] = b.WalletID
	}
	return ids
}
