package solana

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AlexZinkM/pump-desk/internal/client"
	"github.com/AlexZinkM/pump-desk/internal/model"
	"github.com/AlexZinkM/pump-desk/internal/settings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// unsignedTx returns a wire transaction requiring payer and, for create, mint as signers.
// Signature slots are zeroed like the trade builder returns them.
func unsignedTx(t *testing.T, payer solana.PublicKey, mint *solana.PublicKey) []byte {
	t.Helper()
	var ix solana.Instruction
	if mint != nil {
		ix = system.NewCreateAccountInstruction(1, 82, solana.TokenProgramID, payer, *mint).Build()
	} else {
		ix = system.NewTransferInstruction(1, payer, solana.NewWallet().PublicKey()).Build()
	}
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, solana.Hash{}, solana.TransactionPayer(payer))
	require.NoError(t, err)
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func verifySigned(tx *solana.Transaction) error {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return err
	}
	n := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) != n {
		return errors.New("signature count mismatch")
	}
	for i, signer := range tx.Message.AccountKeys[:n] {
		if !tx.Signatures[i].Verify(signer, msg) {
			return errors.New("bad signature for " + signer.String())
		}
	}
	return nil
}

type fakeBuilder struct {
	t         *testing.T
	uploads   []model.TokenInfo
	builds    []model.TradeArgs
	bundles   [][]model.TradeArgs
	sent      [][]string
	failFor   map[string]error
	legPayer  map[int]solana.PublicKey
	uploadErr error
}

func (b *fakeBuilder) UploadMetadata(_ context.Context, token model.TokenInfo, _ model.Image) (*model.UploadResult, error) {
	b.uploads = append(b.uploads, token)
	if b.uploadErr != nil {
		return nil, b.uploadErr
	}
	return &model.UploadResult{URI: "https://ipfs.io/ipfs/meta"}, nil
}

func (b *fakeBuilder) txFor(args model.TradeArgs, payer solana.PublicKey) []byte {
	if args.Action == model.ActionCreate {
		mint := solana.MustPublicKeyFromBase58(args.Mint)
		return unsignedTx(b.t, payer, &mint)
	}
	return unsignedTx(b.t, payer, nil)
}

func (b *fakeBuilder) BuildTransaction(_ context.Context, args model.TradeArgs) ([]byte, error) {
	b.builds = append(b.builds, args)
	if err := b.failFor[args.PublicKey]; err != nil {
		return nil, err
	}
	return b.txFor(args, solana.MustPublicKeyFromBase58(args.PublicKey)), nil
}

func (b *fakeBuilder) BuildBundle(_ context.Context, args []model.TradeArgs) ([]string, error) {
	b.bundles = append(b.bundles, args)
	out := make([]string, len(args))
	for i, a := range args {
		payer := solana.MustPublicKeyFromBase58(a.PublicKey)
		if p, ok := b.legPayer[i]; ok {
			payer = p
		}
		out[i] = base58.Encode(b.txFor(a, payer))
	}
	return out, nil
}

func (b *fakeBuilder) SendBundle(_ context.Context, encoded []string) (string, error) {
	b.sent = append(b.sent, encoded)
	return "bundle-1", nil
}

type fakeChain struct {
	sent       []*solana.Transaction
	confirmErr error
}

func (c *fakeChain) SendTransaction(_ context.Context, tx *solana.Transaction) (string, error) {
	if err := verifySigned(tx); err != nil {
		return "", err
	}
	c.sent = append(c.sent, tx)
	return tx.Signatures[0].String(), nil
}

func (c *fakeChain) ConfirmTransaction(context.Context, string, time.Duration) error {
	return c.confirmErr
}

var errNoWallet = errors.New("wallet not found")

type fakeWallets map[string]model.Wallet

func (f fakeWallets) Get(id string) (model.Wallet, error) {
	w, ok := f[id]
	if !ok {
		return model.Wallet{}, errNoWallet
	}
	w.PrivateKey = append([]byte(nil), w.PrivateKey...)
	return w, nil
}

func (f fakeWallets) add(id, name string) model.Wallet {
	key := solana.NewWallet().PrivateKey
	w := model.Wallet{ID: id, Name: name, PublicKey: key.PublicKey().String(), PrivateKey: []byte(key)}
	f[id] = w
	return w
}

type recorded struct {
	label   string
	outcome model.Outcome
}

type fakeRecorder struct {
	outcomes []recorded
	rejected []string
}

func (r *fakeRecorder) Outcome(_ context.Context, label string, o model.Outcome) {
	r.outcomes = append(r.outcomes, recorded{label, o})
}

func (r *fakeRecorder) Rejected(label string, _ error) {
	r.rejected = append(r.rejected, label)
}

type fixture struct {
	svc      *Service
	builder  *fakeBuilder
	chain    *fakeChain
	wallets  fakeWallets
	recorder *fakeRecorder
	mint     solana.PrivateKey
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		builder:  &fakeBuilder{t: t, failFor: map[string]error{}, legPayer: map[int]solana.PublicKey{}},
		chain:    &fakeChain{},
		wallets:  fakeWallets{},
		recorder: &fakeRecorder{},
		mint:     solana.NewWallet().PrivateKey,
	}
	f.svc = NewService(f.builder, f.chain, f.wallets, f.recorder, zap.NewNop(), time.Second)
	f.svc.newMint = func() solana.PrivateKey { return append(solana.PrivateKey(nil), f.mint...) }
	return f
}

var (
	testMint   = solana.NewWallet().PublicKey().String()
	testParams = model.TradeParams{Slippage: 10, PriorityFee: decimal.RequireFromString("0.001"), Pool: model.PoolAuto}
)

func TestTradeEmptyMintMakesNoNetworkCalls(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wallets := fakeWallets{}
	wallets.add("w1", "Wallet 1")
	recorder := &fakeRecorder{}
	svc := NewService(
		client.NewProxyClient(srv.URL, time.Second),
		client.NewSolanaClient(srv.URL, "confirmed"),
		wallets, recorder, zap.NewNop(), time.Second)

	for _, mint := range []string{"", "   "} {
		_, err := svc.Trade(context.Background(), model.TradeRequest{
			Action: model.ActionBuy, Mint: mint, WalletIDs: []string{"w1"}, AmountSOL: "0.1",
		}, testParams)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	}
	assert.Zero(t, hits.Load())
	assert.Len(t, recorder.rejected, 2)
}

func TestTradeValidation(t *testing.T) {
	f := newFixture(t)
	f.wallets.add("w1", "Wallet 1")

	cases := []model.TradeRequest{
		{Action: model.ActionBuy, Mint: testMint, AmountSOL: "0.1"},
		{Action: model.ActionBuy, Mint: "not-a-key", WalletIDs: []string{"w1"}, AmountSOL: "0.1"},
		{Action: model.ActionBuy, Mint: testMint, WalletIDs: []string{"w1"}, AmountSOL: "0"},
		{Action: model.ActionBuy, Mint: testMint, WalletIDs: []string{"w1"}, AmountSOL: "abc"},
		{Action: model.ActionSell, Mint: testMint, WalletIDs: []string{"w1"}, SellPercentage: "0"},
		{Action: model.ActionSell, Mint: testMint, WalletIDs: []string{"w1"}, SellPercentage: "101"},
		{Action: "swap", Mint: testMint, WalletIDs: []string{"w1"}},
	}
	for _, req := range cases {
		_, err := f.svc.Trade(context.Background(), req, testParams)
		assert.True(t, IsValidationError(err), "request %+v", req)
	}
	assert.Empty(t, f.builder.builds)
}

func TestTradeBuySignsAndBroadcastsEveryWallet(t *testing.T) {
	f := newFixture(t)
	w1 := f.wallets.add("w1", "Wallet 1")
	w2 := f.wallets.add("w2", "Wallet 2")

	resp, err := f.svc.Trade(context.Background(), model.TradeRequest{
		Action: model.ActionBuy, Mint: testMint, WalletIDs: []string{"w1", "w2"}, AmountSOL: "0.5",
	}, testParams)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.Outcomes, 2)

	require.Len(t, f.builder.builds, 2)
	assert.Equal(t, w1.PublicKey, f.builder.builds[0].PublicKey)
	assert.Equal(t, w2.PublicKey, f.builder.builds[1].PublicKey)
	assert.Equal(t, "0.5", f.builder.builds[0].Amount.String())
	assert.Empty(t, f.builder.builds[0].Pool)
	assert.Equal(t, 0.001, f.builder.builds[0].PriorityFee)

	require.Len(t, f.chain.sent, 2)
	for i, o := range resp.Outcomes {
		assert.Equal(t, model.StatusSuccess, o.Status)
		assert.Equal(t, f.chain.sent[i].Signatures[0].String(), o.Signature())
	}
	require.Len(t, f.recorder.outcomes, 2)
	assert.Equal(t, "Trade Action (buy)", f.recorder.outcomes[0].label)
}

func TestTradeContinuesAfterWalletFailure(t *testing.T) {
	f := newFixture(t)
	bad := f.wallets.add("bad", "Bad")
	f.wallets.add("good", "Good")
	f.builder.failFor[bad.PublicKey] = &client.UpstreamError{Status: 400, Message: "PumpPortal API error: 400"}

	resp, err := f.svc.Trade(context.Background(), model.TradeRequest{
		Action: model.ActionSell, Mint: testMint, WalletIDs: []string{"missing", "bad", "good"}, SellPercentage: "100",
	}, model.TradeParams{Slippage: 5, PriorityFee: decimal.Zero, Pool: "pump"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.Len(t, resp.Outcomes, 3)

	assert.Equal(t, model.StageValidation, resp.Outcomes[0].Error.Stage)
	assert.Equal(t, model.StageBuild, resp.Outcomes[1].Error.Stage)
	assert.Contains(t, resp.Outcomes[1].Error.Message, "PumpPortal API error: 400")
	assert.True(t, resp.Outcomes[2].OK())
	assert.Equal(t, "100%", resp.Outcomes[2].Amount)
	assert.Equal(t, "pump", f.builder.builds[1].Pool)
	assert.Len(t, f.recorder.outcomes, 3)
}

func TestTradeConfirmFailureKeepsSignature(t *testing.T) {
	f := newFixture(t)
	f.wallets.add("w1", "Wallet 1")
	f.chain.confirmErr = client.ErrConfirmTimeout

	resp, err := f.svc.Trade(context.Background(), model.TradeRequest{
		Action: model.ActionBuy, Mint: testMint, WalletIDs: []string{"w1"}, AmountSOL: "1",
	}, testParams)
	require.NoError(t, err)
	o := resp.Outcomes[0]
	assert.Equal(t, model.StageConfirm, o.Error.Stage)
	assert.NotEmpty(t, o.Signature())
}

func TestFlowLockRejectsConcurrentFlow(t *testing.T) {
	f := newFixture(t)
	f.wallets.add("w1", "Wallet 1")

	f.svc.flowMu.Lock()
	_, err := f.svc.Trade(context.Background(), model.TradeRequest{
		Action: model.ActionBuy, Mint: testMint, WalletIDs: []string{"w1"}, AmountSOL: "1",
	}, testParams)
	assert.ErrorIs(t, err, ErrBusy)
	f.svc.flowMu.Unlock()

	_, err = f.svc.Trade(context.Background(), model.TradeRequest{
		Action: model.ActionBuy, Mint: testMint, WalletIDs: []string{"w1"}, AmountSOL: "1",
	}, testParams)
	assert.NoError(t, err)
}

func launchRequest(creator string) model.LaunchRequest {
	return model.LaunchRequest{
		CreatorWalletID: creator,
		Token:           model.TokenInfo{Name: "Desk Token", Symbol: "DESK", Description: "test"},
		AmountSOL:       "0.2",
		Image:           model.Image{Filename: "logo.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	}
}

func TestLaunchSignsWithMintAndCreator(t *testing.T) {
	f := newFixture(t)
	creator := f.wallets.add("c", "Creator")

	resp, err := f.svc.Launch(context.Background(), launchRequest("c"), testParams)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, f.mint.PublicKey().String(), resp.Mint)

	require.Len(t, f.builder.builds, 1)
	args := f.builder.builds[0]
	assert.Equal(t, model.ActionCreate, args.Action)
	assert.Equal(t, creator.PublicKey, args.PublicKey)
	require.NotNil(t, args.TokenMetadata)
	assert.Equal(t, "https://ipfs.io/ipfs/meta", args.TokenMetadata.URI)
	assert.Equal(t, "DESK", args.TokenMetadata.Symbol)

	require.Len(t, f.chain.sent, 1)
	signers, err := requiredSigners(f.chain.sent[0])
	require.NoError(t, err)
	assert.Len(t, signers, 2)
	assert.Equal(t, "Token Launch", f.recorder.outcomes[0].label)
}

func TestQuickLaunchDefaultsSymbolToName(t *testing.T) {
	f := newFixture(t)
	f.wallets.add("c", "Creator")

	req := launchRequest("c")
	req.Token.Symbol = ""
	req.Quick = true
	_, err := f.svc.Launch(context.Background(), req, testParams)
	require.NoError(t, err)
	assert.Equal(t, "Desk Token", f.builder.uploads[0].Symbol)
}

func TestLaunchValidation(t *testing.T) {
	f := newFixture(t)
	f.wallets.add("c", "Creator")

	noImage := launchRequest("c")
	noImage.Image.Data = nil
	noSymbol := launchRequest("c")
	noSymbol.Token.Symbol = ""

	for _, req := range []model.LaunchRequest{launchRequest(""), noImage, noSymbol} {
		_, err := f.svc.Launch(context.Background(), req, testParams)
		assert.True(t, IsValidationError(err))
	}
	assert.Empty(t, f.builder.uploads)

	_, err := f.svc.Launch(context.Background(), launchRequest("unknown"), testParams)
	assert.ErrorIs(t, err, errNoWallet)
	assert.False(t, IsValidationError(err))
}

func TestLaunchUploadFailure(t *testing.T) {
	f := newFixture(t)
	f.wallets.add("c", "Creator")
	f.builder.uploadErr = errors.New("Pump.fun API error: 500")

	resp, err := f.svc.Launch(context.Background(), launchRequest("c"), testParams)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, model.StageUpload, resp.Outcomes[0].Error.Stage)
	assert.Empty(t, f.builder.builds)
}

func bundleRequest(buyers ...string) model.BundleRequest {
	req := model.BundleRequest{
		CreatorWalletID: "c",
		Token:           model.TokenInfo{Name: "Bundle Token", Symbol: "BNDL"},
		AmountSOL:       "0.5",
		Image:           model.Image{Filename: "logo.png", Data: []byte{1, 2, 3}},
	}
	for _, id := range buyers {
		req.Buyers = append(req.Buyers, model.BundleBuyer{WalletID: id, AmountSOL: "0.25"})
	}
	return req
}

func TestBundleSignsEveryLegAndSendsOnce(t *testing.T) {
	f := newFixture(t)
	f.wallets.add("c", "Creator")
	f.wallets.add("b1", "Buyer 1")
	f.wallets.add("b2", "Buyer 2")

	resp, err := f.svc.Bundle(context.Background(), bundleRequest("b1", "b2"), testParams)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "bundle-1", resp.BundleID)
	require.Len(t, resp.Outcomes, 3)

	require.Len(t, f.builder.bundles, 1)
	legs := f.builder.bundles[0]
	assert.Equal(t, model.ActionCreate, legs[0].Action)
	require.NotNil(t, legs[0].TokenMetadata)
	assert.Equal(t, 0.001, legs[0].PriorityFee)
	assert.Equal(t, model.ActionBuy, legs[1].Action)
	assert.InDelta(t, 0.0001, legs[1].PriorityFee, 1e-12)

	require.Len(t, f.builder.sent, 1)
	require.Len(t, f.builder.sent[0], 3)
	for i, encoded := range f.builder.sent[0] {
		raw, err := base58.Decode(encoded)
		require.NoError(t, err)
		tx, err := decodeTransaction(raw)
		require.NoError(t, err)
		require.NoError(t, verifySigned(tx), "leg %d", i)
		assert.Equal(t, tx.Signatures[0].String(), resp.Outcomes[i].Signature())
	}
	assert.Empty(t, f.chain.sent)
}

func TestBundleRejectsLegWithoutTaggedSigner(t *testing.T) {
	f := newFixture(t)
	f.wallets.add("c", "Creator")
	f.wallets.add("b1", "Buyer 1")
	f.builder.legPayer[1] = solana.NewWallet().PublicKey()

	resp, err := f.svc.Bundle(context.Background(), bundleRequest("b1"), testParams)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	for _, o := range resp.Outcomes {
		assert.Equal(t, model.StageSign, o.Error.Stage)
	}
	assert.Contains(t, resp.Outcomes[0].Error.Message, "leg 1")
	assert.Empty(t, f.builder.sent)
}

func TestBundleValidation(t *testing.T) {
	f := newFixture(t)
	f.wallets.add("c", "Creator")
	for _, id := range []string{"b1", "b2", "b3", "b4", "b5"} {
		f.wallets.add(id, id)
	}

	cases := []model.BundleRequest{
		bundleRequest("b1", "b2", "b3", "b4", "b5"),
		bundleRequest("b1", "b1"),
		bundleRequest("c"),
		bundleRequest(" b1", "b1 "),
	}
	zero := bundleRequest("b1")
	zero.Buyers[0].AmountSOL = "0"
	cases = append(cases, zero)

	for _, req := range cases {
		_, err := f.svc.Bundle(context.Background(), req, testParams)
		assert.True(t, IsValidationError(err))
	}
	assert.Empty(t, f.builder.uploads)

	_, err := f.svc.Bundle(context.Background(), bundleRequest("nobody"), testParams)
	assert.ErrorIs(t, err, errNoWallet)
	assert.False(t, IsValidationError(err))
}

func TestBundleTrimsWalletIDs(t *testing.T) {
	f := newFixture(t)
	f.wallets.add("c", "Creator")
	f.wallets.add("b1", "Buyer 1")

	req := bundleRequest(" b1 ")
	req.CreatorWalletID = "c "
	resp, err := f.svc.Bundle(context.Background(), req, testParams)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Len(t, resp.Outcomes, 2)
	assert.Equal(t, "c", resp.Outcomes[0].WalletID)
	assert.Equal(t, "b1", resp.Outcomes[1].WalletID)
	assert.Equal(t, " b1 ", req.Buyers[0].WalletID)
}

func testGroup() settings.Group {
	return settings.Group{
		ID:   "bundle-0",
		Name: "Bundle 1",
		Wallets: []settings.GroupWallet{
			{WalletID: "g1", BuyAmountSOL: "0.1", SellPercentage: "50"},
			{WalletID: "g2", BuyAmountSOL: "", SellPercentage: "150"},
			{WalletID: "g3", BuyAmountSOL: "0.3", SellPercentage: "25"},
		},
		ActiveWalletIDs: []string{"g1", "g2"},
	}
}

func TestGroupBuyUsesActiveWallets(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"g1", "g2", "g3"} {
		f.wallets.add(id, id)
	}

	resp, err := f.svc.GroupTrade(context.Background(), testGroup(), GroupBuy, testMint, testParams)
	require.NoError(t, err)
	require.Len(t, resp.Outcomes, 2)
	assert.True(t, resp.Outcomes[0].OK())
	assert.Equal(t, "0.1", resp.Outcomes[0].Amount)
	assert.Equal(t, model.StageValidation, resp.Outcomes[1].Error.Stage)
	assert.Equal(t, "g2", resp.Outcomes[1].WalletName)
	assert.Len(t, f.builder.builds, 1)
}

func TestGroupDumpSellsEverythingFromAllWallets(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"g1", "g2", "g3"} {
		f.wallets.add(id, id)
	}

	resp, err := f.svc.GroupTrade(context.Background(), testGroup(), GroupDump, testMint, testParams)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, f.builder.builds, 3)
	for _, args := range f.builder.builds {
		assert.Equal(t, model.ActionSell, args.Action)
		assert.Equal(t, "100%", args.Amount.String())
	}
}

func TestGroupTradeValidation(t *testing.T) {
	f := newFixture(t)
	g := testGroup()

	_, err := f.svc.GroupTrade(context.Background(), g, GroupSell, "", testParams)
	assert.True(t, IsValidationError(err))

	g.ActiveWalletIDs = nil
	_, err = f.svc.GroupTrade(context.Background(), g, GroupBuy, testMint, testParams)
	assert.True(t, IsValidationError(err))
}

func TestSignTransactionFillsOwnSlotOnly(t *testing.T) {
	creator := solana.NewWallet().PrivateKey
	mint := solana.NewWallet().PrivateKey
	mintPub := mint.PublicKey()

	tx, err := decodeTransaction(unsignedTx(t, creator.PublicKey(), &mintPub))
	require.NoError(t, err)

	require.NoError(t, signTransaction(tx, mint))
	require.Len(t, tx.Signatures, 2)
	assert.Equal(t, solana.Signature{}, tx.Signatures[0])
	assert.NotEqual(t, solana.Signature{}, tx.Signatures[1])

	err = signTransaction(tx, solana.NewWallet().PrivateKey)
	assert.ErrorContains(t, err, "not a required signer")

	require.NoError(t, signTransaction(tx, creator))
	assert.NoError(t, verifySigned(tx))
}
