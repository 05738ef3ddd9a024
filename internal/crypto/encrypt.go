package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/AlexZinkM/pump-desk/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Create writes a new, empty keystore to filePath.
// password must be []byte for security (caller should zero it after use)
func Create(filePath string, password []byte, params model.KDFParams) (*Keystore, error) {
	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return nil, &FileExistsError{Message: "file is not empty"}
	}

	ks, err := newKeystore(filePath, password, params)
	if err != nil {
		return nil, err
	}
	if err := ks.Save(&model.KeystoreData{Wallets: []model.Wallet{}}); err != nil {
		return nil, err
	}
	return ks, nil
}

func newKeystore(filePath string, password []byte, params model.KDFParams) (*Keystore, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	aead, err := deriveAEAD(password, salt, params)
	if err != nil {
		return nil, err
	}

	return &Keystore{
		path:   filePath,
		params: params,
		salt:   salt,
		aead:   aead,
	}, nil
}

// Save seals data with a fresh nonce and replaces the keystore file.
func (k *Keystore) Save(data *model.KeystoreData) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	plaintext, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet data: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	ciphertext := k.aead.Seal(nil, nonce, plaintext, nil)

	file := model.KeystoreFile{
		Network:    networkSolana,
		Version:    keystoreVersion,
		KDF:        k.params,
		Salt:       base64.StdEncoding.EncodeToString(k.salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}

	fileData, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keystore file: %w", err)
	}

	// UTF-8 BOM for proper display in Windows
	return writeFileAtomic(k.path, append(append([]byte{}, utf8BOM...), fileData...))
}

// writeFileAtomic writes to a temp file in the same directory and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}
