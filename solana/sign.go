package solana

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/pump-desk/internal/model"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

func decodeTransaction(raw []byte) (*solana.Transaction, error) {
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	return tx, nil
}

// requiredSigners returns the accounts whose signatures the message requires, in slot order
func requiredSigners(tx *solana.Transaction) ([]solana.PublicKey, error) {
	n := int(tx.Message.Header.NumRequiredSignatures)
	if n == 0 || n > len(tx.Message.AccountKeys) {
		return nil, fmt.Errorf("transaction declares %d signers for %d accounts", n, len(tx.Message.AccountKeys))
	}
	return tx.Message.AccountKeys[:n], nil
}

// signTransaction writes each key's signature into the slot of its account.
// Every key must be a required signer; slots of other signers are left as they are.
func signTransaction(tx *solana.Transaction, keys ...solana.PrivateKey) error {
	signers, err := requiredSigners(tx)
	if err != nil {
		return err
	}

	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	if len(tx.Signatures) < len(signers) {
		padded := make([]solana.Signature, len(signers))
		copy(padded, tx.Signatures)
		tx.Signatures = padded
	}

	for _, key := range keys {
		pub := key.PublicKey()
		slot := -1
		for i, signer := range signers {
			if signer.Equals(pub) {
				slot = i
				break
			}
		}
		if slot < 0 {
			return fmt.Errorf("%s is not a required signer of this transaction", pub)
		}

		sig, err := key.Sign(msg)
		if err != nil {
			return fmt.Errorf("failed to sign with %s: %w", pub, err)
		}
		tx.Signatures[slot] = sig
	}
	return nil
}

// signAndSend decodes raw, signs it with keys, broadcasts and waits for confirmation.
// On failure it returns the stage that failed; the signature is set once broadcast succeeded.
func (s *Service) signAndSend(ctx context.Context, raw []byte, keys ...solana.PrivateKey) (string, model.Stage, error) {
	tx, err := decodeTransaction(raw)
	if err != nil {
		return "", model.StageSign, err
	}
	if err := signTransaction(tx, keys...); err != nil {
		return "", model.StageSign, err
	}

	sig, err := s.chain.SendTransaction(ctx, tx)
	if err != nil {
		return "", model.StageBroadcast, err
	}

	if err := s.chain.ConfirmTransaction(ctx, sig, s.confirmTimeout); err != nil {
		return sig, model.StageConfirm, err
	}
	return sig, "", nil
}

// tradeArgs builds the trade service body; the auto pool is left out
func tradeArgs(publicKey string, action model.Action, mint string, amount model.Amount, params model.TradeParams) model.TradeArgs {
	args := model.TradeArgs{
		PublicKey:        publicKey,
		Action:           action,
		Mint:             mint,
		DenominatedInSol: "true",
		Amount:           amount,
		Slippage:         params.Slippage,
		PriorityFee:      params.PriorityFee.InexactFloat64(),
		Pool:             params.Pool,
	}
	if args.Pool == model.PoolAuto {
		args.Pool = ""
	}
	return args
}
