package crypto

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/AlexZinkM/pump-desk/internal/model"
)

// Open reads and decrypts the keystore at filePath. The returned Keystore
// reuses the derived key for later saves.
// password must be []byte for security (caller should zero it after use)
func Open(filePath string, password []byte) (*Keystore, *model.KeystoreData, error) {
	file, err := ReadFile(filePath)
	if err != nil {
		return nil, nil, err
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(file.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(file.CipherText)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	params := file.KDF
	if params.N == 0 {
		params = DefaultKDFParams
	}

	aead, err := deriveAEAD(password, salt, params)
	if err != nil {
		return nil, nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, nil, fmt.Errorf("invalid nonce length %d", len(nonce))
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, nil, ErrInvalidPassword
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	var data model.KeystoreData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal wallet data: %w", err)
	}
	if data.Wallets == nil {
		data.Wallets = []model.Wallet{}
	}

	ks := &Keystore{
		path:   filePath,
		params: params,
		salt:   salt,
		aead:   aead,
	}
	return ks, &data, nil
}

// ReadFile reads the keystore envelope without decrypting it.
func ReadFile(filePath string) (*model.KeystoreFile, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("file does not exist")
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if fileInfo.Size() == 0 {
		return nil, errors.New("file is empty")
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	fileData = bytes.TrimPrefix(fileData, utf8BOM)

	var file model.KeystoreFile
	if err := json.Unmarshal(fileData, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal keystore file: %w", err)
	}
	return &file, nil
}

// Exists reports whether filePath holds a non-empty file.
func Exists(filePath string) bool {
	fileInfo, err := os.Stat(filePath)
	return err == nil && fileInfo.Size() > 0
}
