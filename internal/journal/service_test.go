package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/AlexZinkM/pump-desk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestJournal(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(context.Background(), zap.NewNop(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T, s *Service) time.Time {
	t.Helper()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	records := []model.Record{
		{Action: "buy", WalletID: "w1", Mint: "M1", Amount: "0.5", Signature: "sig1", Status: model.StatusSuccess, CreatedAt: base},
		{Action: "sell", WalletID: "w1", Mint: "M1", Amount: "50%", Signature: "sig2", Status: model.StatusSuccess, CreatedAt: base.Add(time.Minute)},
		{Action: "buy", WalletID: "w2", Mint: "M2", Amount: "2", Status: model.StatusError, Stage: model.StageBuild, Error: "PumpPortal API error: 400", CreatedAt: base.Add(2 * time.Minute)},
		{Action: "create", WalletID: "w2", Mint: "M3", Amount: "1", Signature: "sig4", Status: model.StatusSuccess, CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, r := range records {
		_, err := s.Record(context.Background(), r)
		require.NoError(t, err)
	}
	return base
}

func TestQueryAllNewestFirst(t *testing.T) {
	s := setupTestJournal(t)
	seed(t, s)

	resp, err := s.Query(context.Background(), &model.HistoryRequest{})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Total)
	require.Len(t, resp.Records, 4)
	assert.Equal(t, "create", resp.Records[0].Action)
	assert.Equal(t, "sig1", resp.Records[3].Signature)
	assert.Equal(t, model.StageBuild, resp.Records[1].Stage)
}

func TestQueryFilters(t *testing.T) {
	s := setupTestJournal(t)
	base := seed(t, s)
	ctx := context.Background()

	status := model.StatusError
	resp, err := s.Query(ctx, &model.HistoryRequest{Status: &status})
	require.NoError(t, err)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "w2", resp.Records[0].WalletID)

	resp, err = s.Query(ctx, &model.HistoryRequest{WalletID: strPtr("w1"), Action: strPtr("buy")})
	require.NoError(t, err)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "sig1", resp.Records[0].Signature)

	from := base.Add(90 * time.Second)
	resp, err = s.Query(ctx, &model.HistoryRequest{From: &from})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)

	resp, err = s.Query(ctx, &model.HistoryRequest{MinAmount: strPtr("0.6"), MaxAmount: strPtr("2")})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total) // "50%" never matches amount bounds

	resp, err = s.Query(ctx, &model.HistoryRequest{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Total)
	assert.Len(t, resp.Records, 1)
}

func TestRecordFileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := NewService(context.Background(), zap.NewNop(), path)
	require.NoError(t, err)

	id, err := s.Record(context.Background(), model.RecordFromOutcome(model.Outcome{
		Action: "buy", WalletID: "w", Amount: "0.1",
	}.Succeeded("sigX"), time.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	s.Close()

	s, err = NewService(context.Background(), zap.NewNop(), path)
	require.NoError(t, err)
	defer s.Close()
	resp, err := s.Query(context.Background(), &model.HistoryRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "sigX", resp.Records[0].Signature)
}

func TestHistoryRequestValidate(t *testing.T) {
	bad := model.Status("pending")
	assert.Error(t, (&model.HistoryRequest{Status: &bad}).Validate())
	assert.Error(t, (&model.HistoryRequest{Action: strPtr("transfer")}).Validate())
	assert.Error(t, (&model.HistoryRequest{MinAmount: strPtr("2"), MaxAmount: strPtr("1")}).Validate())
	assert.Error(t, (&model.HistoryRequest{Limit: model.MaxHistoryLimit + 1}).Validate())

	from := time.Now()
	to := from.Add(-time.Hour)
	assert.Error(t, (&model.HistoryRequest{From: &from, To: &to}).Validate())
	assert.Error(t, (&model.HistoryRequest{Action: strPtr("bundle")}).Validate())
	assert.NoError(t, (&model.HistoryRequest{Action: strPtr("sell")}).Validate())

	assert.Error(t, (&model.HistoryRequest{MinAmount: strPtr("abc")}).Validate())
	assert.Error(t, (&model.HistoryRequest{MaxAmount: strPtr("1.2.3")}).Validate())
	assert.NoError(t, (&model.HistoryRequest{MinAmount: strPtr("19"), MaxAmount: strPtr("18446744074")}).Validate())
	assert.NoError(t, (&model.HistoryRequest{MinAmount: strPtr("0.1"), MaxAmount: strPtr("0.10")}).Validate())
}
