package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"sync"

	"github.com/AlexZinkM/pump-desk/internal/model"

	"golang.org/x/crypto/scrypt"
)

const (
	// N=2^18 (~256MB RAM, 0.5-2s per derivation). The key is derived once per
	// Open, so saves after a mutation stay cheap.
	scryptN      = 1 << 18
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12

	keystoreVersion = 1
	networkSolana   = "solana"
)

// DefaultKDFParams are the scrypt parameters new keystores are sealed with
var DefaultKDFParams = model.KDFParams{N: scryptN, R: scryptR, P: scryptP}

// ErrInvalidPassword is returned when the keystore cannot be opened with the given password
var ErrInvalidPassword = errors.New("invalid password")

// FileExistsError is an error when file already exists and is not empty
type FileExistsError struct {
	Message string
}

func (e *FileExistsError) Error() string {
	return e.Message
}

// IsFileExistsError checks if error is FileExistsError
func IsFileExistsError(err error) bool {
	var target *FileExistsError
	return errors.As(err, &target)
}

// Keystore is an open encrypted wallet file. The derived key is kept for the
// lifetime of the Keystore; every Save seals with a fresh nonce.
type Keystore struct {
	mu     sync.Mutex
	path   string
	params model.KDFParams
	salt   []byte
	aead   cipher.AEAD
}

// Path returns the keystore file path
func (k *Keystore) Path() string {
	return k.path
}

func deriveAEAD(password, salt []byte, params model.KDFParams) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, params.N, params.R, params.P, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

// Rekey re-encrypts the keystore at filePath under newPassword with a fresh salt.
// Both passwords must be []byte for security (caller should zero them after use)
func Rekey(filePath string, oldPassword, newPassword []byte, params model.KDFParams) (int, error) {
	_, data, err := Open(filePath, oldPassword)
	if err != nil {
		return 0, err
	}
	defer wipe(data)

	ks, err := newKeystore(filePath, newPassword, params)
	if err != nil {
		return 0, err
	}
	if err := ks.Save(data); err != nil {
		return 0, err
	}
	return len(data.Wallets), nil
}

func wipe(data *model.KeystoreData) {
	for i := range data.Wallets {
		clear(data.Wallets[i].PrivateKey)
	}
}
