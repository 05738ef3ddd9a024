// Package journal stores flow outcomes in SQLite for the history view.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/AlexZinkM/pump-desk/internal/model"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const memoryPath = ":memory:"

type Service struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewService(ctx context.Context, logger *zap.Logger, dbPath string) (*Service, error) {
	logger.Info("Opening SQLite journal", zap.String("file", dbPath))

	dsn := dbPath + "?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000"
	if dbPath == memoryPath {
		dsn = memoryPath
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	if dbPath == memoryPath {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(30 * time.Second)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	s := &Service{db: db, logger: logger}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	logger.Info("Journal initialized successfully")
	return s, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("Failed to close journal", zap.Error(err))
	}
}

func (s *Service) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		wallet_id TEXT NOT NULL DEFAULT '',
		wallet_name TEXT NOT NULL DEFAULT '',
		mint TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL DEFAULT '',
		signature TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		stage TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);
	CREATE INDEX IF NOT EXISTS idx_records_wallet ON records(wallet_id);
	CREATE INDEX IF NOT EXISTS idx_records_mint ON records(mint);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const queryInsertRecord = `
	INSERT INTO records (action, wallet_id, wallet_name, mint, amount, signature, status, stage, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Record stores r and returns its id
func (s *Service) Record(ctx context.Context, r model.Record) (int64, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, queryInsertRecord,
		r.Action, r.WalletID, r.WalletName, r.Mint, r.Amount, r.Signature,
		string(r.Status), string(r.Stage), r.Error, r.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert record: %w", err)
	}
	return res.LastInsertId()
}

// Query returns records matching req, newest first. Amount bounds only match
// SOL-denominated amounts.
func (s *Service) Query(ctx context.Context, req *model.HistoryRequest) (*model.HistoryResponse, error) {
	var (
		where []string
		args  []any
	)
	if req.Action != nil {
		where = append(where, "action = ?")
		args = append(args, *req.Action)
	}
	if req.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*req.Status))
	}
	if req.WalletID != nil {
		where = append(where, "wallet_id = ?")
		args = append(args, *req.WalletID)
	}
	if req.Mint != nil {
		where = append(where, "mint = ?")
		args = append(args, *req.Mint)
	}
	if req.From != nil {
		where = append(where, "created_at >= ?")
		args = append(args, req.From.UTC())
	}
	if req.To != nil {
		where = append(where, "created_at <= ?")
		args = append(args, req.To.UTC())
	}

	query := `SELECT id, action, wallet_id, wallet_name, mint, amount, signature, status, stage, error, created_at FROM records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	minAmount, maxAmount, err := req.AmountBounds()
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit == 0 {
		limit = model.DefaultHistoryLimit
	}

	resp := &model.HistoryResponse{Records: []model.Record{}}
	for rows.Next() {
		var (
			r      model.Record
			status string
			stage  string
		)
		if err := rows.Scan(&r.ID, &r.Action, &r.WalletID, &r.WalletName, &r.Mint, &r.Amount,
			&r.Signature, &status, &stage, &r.Error, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Status = model.Status(status)
		r.Stage = model.Stage(stage)

		if !inBounds(r.Amount, minAmount, maxAmount) {
			continue
		}

		resp.Total++
		if len(resp.Records) < limit {
			resp.Records = append(resp.Records, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return resp, nil
}

func inBounds(amount string, minAmount, maxAmount *decimal.Decimal) bool {
	if minAmount == nil && maxAmount == nil {
		return true
	}
	v, err := decimal.NewFromString(amount)
	if err != nil {
		return false
	}
	if minAmount != nil && v.LessThan(*minAmount) {
		return false
	}
	if maxAmount != nil && v.GreaterThan(*maxAmount) {
		return false
	}
	return true
}
