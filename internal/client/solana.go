package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const defaultPollInterval = time.Second

// TransactionFailedError is returned when a broadcast transaction lands with an error
type TransactionFailedError struct {
	Signature string
	Reason    string
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.Signature, e.Reason)
}

// IsTransactionFailedError checks if error is TransactionFailedError
func IsTransactionFailedError(err error) bool {
	var target *TransactionFailedError
	return errors.As(err, &target)
}

// ErrConfirmTimeout is returned when a signature is not confirmed in time
var ErrConfirmTimeout = errors.New("transaction confirmation timed out")

// SolanaClient is a client for working with Solana RPC
type SolanaClient struct {
	rpcClient    *rpc.Client
	rpcURL       string
	commitment   rpc.CommitmentType
	pollInterval time.Duration
}

// NewSolanaClient creates a new Solana client for the given RPC endpoint.
// commitment is "processed", "confirmed" or "finalized"; anything else means confirmed.
func NewSolanaClient(rpcURL, commitment string) *SolanaClient {
	c := rpc.CommitmentType(commitment)
	switch c {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		c = rpc.CommitmentConfirmed
	}
	return &SolanaClient{
		rpcClient:    rpc.New(rpcURL),
		rpcURL:       rpcURL,
		commitment:   c,
		pollInterval: defaultPollInterval,
	}
}

// GetBalance gets SOL balance in lamports for address
func (c *SolanaClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("invalid Solana address: %w", err)
	}

	balance, err := c.rpcClient.GetBalance(ctx, owner, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get SOL balance: %w", err)
	}
	return balance.Value, nil
}

// SendTransaction broadcasts a fully signed transaction and returns its signature
func (c *SolanaClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (string, error) {
	sig, err := c.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false, // Transaction validation before node
			PreflightCommitment: c.commitment,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig.String(), nil
}

// ConfirmTransaction polls the signature status until it reaches the client's
// commitment, fails on chain, or timeout elapses.
func (c *SolanaClient) ConfirmTransaction(ctx context.Context, signature string, timeout time.Duration) error {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		done, err := c.checkStatus(ctx, sig)
		if err != nil || done {
			return err
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrConfirmTimeout
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *SolanaClient) checkStatus(ctx context.Context, sig solana.Signature) (bool, error) {
	out, err := c.rpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get signature status: %w", err)
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return false, nil
	}

	status := out.Value[0]
	if status.Err != nil {
		return false, &TransactionFailedError{Signature: sig.String(), Reason: fmt.Sprintf("%v", status.Err)}
	}
	return reached(status.ConfirmationStatus, c.commitment), nil
}

// reached reports whether got is at least as final as want
func reached(got rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	rank := func(s string) int {
		switch s {
		case "processed":
			return 1
		case "confirmed":
			return 2
		case "finalized":
			return 3
		}
		return 0
	}
	return rank(string(got)) > 0 && rank(string(got)) >= rank(string(want))
}
