// Package solana runs the desk's flows: trade, launch, bundle launch and
// group trades. Transactions are built by the trade service, signed here with
// held keys and broadcast over RPC or as a bundle.
package solana

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AlexZinkM/pump-desk/internal/model"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Builder talks to the relay
type Builder interface {
	UploadMetadata(ctx context.Context, token model.TokenInfo, image model.Image) (*model.UploadResult, error)
	BuildTransaction(ctx context.Context, args model.TradeArgs) ([]byte, error)
	BuildBundle(ctx context.Context, args []model.TradeArgs) ([]string, error)
	SendBundle(ctx context.Context, encoded []string) (string, error)
}

// Chain broadcasts and confirms transactions
type Chain interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (string, error)
	ConfirmTransaction(ctx context.Context, signature string, timeout time.Duration) error
}

// Wallets resolves wallet ids to keypairs
type Wallets interface {
	Get(id string) (model.Wallet, error)
}

// OutcomeRecorder receives every outcome and every rejected request
type OutcomeRecorder interface {
	Outcome(ctx context.Context, label string, o model.Outcome)
	Rejected(label string, err error)
}

// ErrBusy is returned when another flow is still running
var ErrBusy = errors.New("another operation is in progress")

// ValidationError is returned for requests rejected before any network call
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError checks if error is ValidationError
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

// Service runs one flow at a time
type Service struct {
	builder        Builder
	chain          Chain
	wallets        Wallets
	recorder       OutcomeRecorder
	logger         *zap.Logger
	confirmTimeout time.Duration
	newMint        func() solana.PrivateKey

	flowMu sync.Mutex
}

// NewService creates the flow service
func NewService(builder Builder, chain Chain, wallets Wallets, recorder OutcomeRecorder, logger *zap.Logger, confirmTimeout time.Duration) *Service {
	return &Service{
		builder:        builder,
		chain:          chain,
		wallets:        wallets,
		recorder:       recorder,
		logger:         logger,
		confirmTimeout: confirmTimeout,
		newMint: func() solana.PrivateKey {
			return solana.NewWallet().PrivateKey
		},
	}
}

// acquire takes the flow lock without waiting
func (s *Service) acquire() error {
	if !s.flowMu.TryLock() {
		return ErrBusy
	}
	return nil
}

func (s *Service) release() {
	s.flowMu.Unlock()
}

// reject records a validation failure and returns it
func (s *Service) reject(label string, err error) error {
	s.recorder.Rejected(label, err)
	return err
}

func allOK(outcomes []model.Outcome) bool {
	if len(outcomes) == 0 {
		return false
	}
	for _, o := range outcomes {
		if !o.OK() {
			return false
		}
	}
	return true
}
