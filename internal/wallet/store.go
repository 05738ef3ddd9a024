// Package wallet holds the desk's wallets in memory and persists every change
// through the encrypted keystore.
package wallet

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AlexZinkM/pump-desk/internal/model"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// Persister stores the full wallet list
type Persister interface {
	Save(data *model.KeystoreData) error
}

// ErrNotFound is returned for unknown wallet ids
var ErrNotFound = errors.New("wallet not found")

// DuplicateWalletError is returned when the public key is already present
type DuplicateWalletError struct {
	PublicKey string
}

func (e *DuplicateWalletError) Error() string {
	return fmt.Sprintf("wallet %s already exists", e.PublicKey)
}

// IsDuplicateWalletError checks if error is DuplicateWalletError
func IsDuplicateWalletError(err error) bool {
	var target *DuplicateWalletError
	return errors.As(err, &target)
}

// ValidationError is returned for bad user input
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

// Store is the in-memory wallet list. Mutations are persisted before they
// become visible; a failed persist leaves the list unchanged.
type Store struct {
	mu        sync.RWMutex
	wallets   []model.Wallet
	persister Persister
	now       func() time.Time
}

// NewStore creates a store over wallets loaded from the keystore
func NewStore(persister Persister, wallets []model.Wallet) *Store {
	list := make([]model.Wallet, len(wallets))
	copy(list, wallets)
	return &Store{
		wallets:   list,
		persister: persister,
		now:       time.Now,
	}
}

// List returns all wallets without private keys, in insertion order
func (s *Store) List() []model.WalletView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.WalletView, 0, len(s.wallets))
	for _, w := range s.wallets {
		out = append(out, w.View())
	}
	return out
}

// Len returns the number of wallets
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wallets)
}

// Get returns a copy of the wallet, private key included.
// Caller should clear the returned PrivateKey after use.
func (s *Store) Get(id string) (model.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Wallet{}, ErrNotFound
	}
	w := s.wallets[i]
	w.PrivateKey = append([]byte(nil), w.PrivateKey...)
	return w, nil
}

// Export returns the wallet keypair in base58 form
func (s *Store) Export(id string) (model.ExportResponse, error) {
	w, err := s.Get(id)
	if err != nil {
		return model.ExportResponse{}, err
	}
	defer clear(w.PrivateKey)

	return model.ExportResponse{
		PublicKey:  w.PublicKey,
		PrivateKey: base58.Encode(w.PrivateKey),
	}, nil
}

// Generate creates a new random keypair. An empty name becomes "Wallet N".
func (s *Store) Generate(name string) (model.WalletView, error) {
	kp := solana.NewWallet()
	defer clear(kp.PrivateKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Wallet %d", len(s.wallets)+1)
	}

	w := s.newWallet(name, kp.PrivateKey)
	if err := s.commit(append(s.snapshot(), w)); err != nil {
		return model.WalletView{}, err
	}
	return w.View(), nil
}

// Import adds a wallet from a base58 secret key. An empty name becomes
// "Imported Wallet N". A key already present is rejected and nothing is stored.
func (s *Store) Import(name, secret string) (model.WalletView, error) {
	key, err := DecodePrivateKey(secret)
	if err != nil {
		return model.WalletView{}, err
	}
	defer clear(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	pub := key.PublicKey().String()
	if s.indexOfPublicKey(pub) >= 0 {
		return model.WalletView{}, &DuplicateWalletError{PublicKey: pub}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Imported Wallet %d", len(s.wallets)+1)
	}

	w := s.newWallet(name, key)
	if err := s.commit(append(s.snapshot(), w)); err != nil {
		return model.WalletView{}, err
	}
	return w.View(), nil
}

// ImportBatch imports newline separated "Name,PrivateKey" records. Blank lines
// are skipped; every other line gets a result. Successful records are appended
// in input order and persisted once.
func (s *Store) ImportBatch(text string) (model.ImportBatchResponse, error) {
	if strings.TrimSpace(text) == "" {
		return model.ImportBatchResponse{}, &ValidationError{Message: "please enter wallet data"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshot()
	resp := model.ImportBatchResponse{Results: []model.ImportResult{}}

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		res := model.ImportResult{Line: i + 1}
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			res.Name = fmt.Sprintf("Line %d", i+1)
			res.Message = "invalid format, use: Wallet Name,Private Key"
			resp.Results = append(resp.Results, res)
			continue
		}

		res.Name = strings.TrimSpace(parts[0])
		secret := strings.TrimSpace(parts[1])
		if res.Name == "" || secret == "" {
			res.Message = "wallet name or private key cannot be empty"
			resp.Results = append(resp.Results, res)
			continue
		}

		key, err := DecodePrivateKey(secret)
		if err != nil {
			res.Message = fmt.Sprintf("invalid private key for %q", res.Name)
			resp.Results = append(resp.Results, res)
			continue
		}

		pub := key.PublicKey().String()
		res.PublicKey = pub
		if indexOfPublicKey(next, pub) >= 0 {
			clear(key)
			res.Message = fmt.Sprintf("wallet %q (or its public key) already exists", res.Name)
			resp.Results = append(resp.Results, res)
			continue
		}

		next = append(next, s.newWallet(res.Name, key))
		clear(key)
		res.Success = true
		res.Message = fmt.Sprintf("wallet %q imported", res.Name)
		resp.Results = append(resp.Results, res)
	}

	for _, r := range resp.Results {
		if r.Success {
			resp.Imported++
		} else {
			resp.Failed++
		}
	}

	if resp.Imported > 0 {
		if err := s.commit(next); err != nil {
			return model.ImportBatchResponse{}, err
		}
	}
	return resp, nil
}

// Rename sets a new name. Empty or whitespace-only names are rejected.
func (s *Store) Rename(id, name string) (model.WalletView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.WalletView{}, &ValidationError{Message: "wallet name cannot be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.WalletView{}, ErrNotFound
	}

	next := s.snapshot()
	next[i].Name = name
	if err := s.commit(next); err != nil {
		return model.WalletView{}, err
	}
	return next[i].View(), nil
}

// Delete removes exactly the wallet with id
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}

	next := make([]model.Wallet, 0, len(s.wallets)-1)
	next = append(next, s.wallets[:i]...)
	next = append(next, s.wallets[i+1:]...)
	if err := s.commit(next); err != nil {
		return err
	}
	return nil
}

// DecodePrivateKey decodes a base58 64-byte ed25519 secret key and checks
// that its public half matches the seed.
func DecodePrivateKey(secret string) (solana.PrivateKey, error) {
	raw, err := base58.Decode(strings.TrimSpace(secret))
	if err != nil {
		return nil, &ValidationError{Message: "invalid private key: not base58"}
	}
	if len(raw) != ed25519.PrivateKeySize {
		clear(raw)
		return nil, &ValidationError{Message: fmt.Sprintf("invalid private key length: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))}
	}

	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	defer clear(derived)
	if !derived.Equal(ed25519.PrivateKey(raw)) {
		clear(raw)
		return nil, &ValidationError{Message: "invalid private key: public key does not match seed"}
	}
	return solana.PrivateKey(raw), nil
}

func (s *Store) newWallet(name string, key solana.PrivateKey) model.Wallet {
	return model.Wallet{
		ID:         uuid.NewString(),
		Name:       name,
		PublicKey:  key.PublicKey().String(),
		PrivateKey: append([]byte(nil), key...),
		CreatedAt:  s.now().UTC().Format(time.RFC3339),
	}
}

// commit persists next and, on success, makes it the current list. Callers hold s.mu.
func (s *Store) commit(next []model.Wallet) error {
	if err := s.persister.Save(&model.KeystoreData{Wallets: next}); err != nil {
		return fmt.Errorf("failed to persist wallets: %w", err)
	}
	s.wallets = next
	return nil
}

// snapshot returns a shallow copy of the list. Callers hold s.mu.
func (s *Store) snapshot() []model.Wallet {
	next := make([]model.Wallet, len(s.wallets), len(s.wallets)+1)
	copy(next, s.wallets)
	return next
}

func (s *Store) indexOf(id string) int {
	for i := range s.wallets {
		if s.wallets[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) indexOfPublicKey(pub string) int {
	return indexOfPublicKey(s.wallets, pub)
}

func indexOfPublicKey(list []model.Wallet, pub string) int {
	for i := range list {
		if list[i].PublicKey == pub {
			return i
		}
	}
	return -1
}
