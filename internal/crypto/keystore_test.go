package crypto

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/AlexZinkM/pump-desk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastKDF = model.KDFParams{N: 1 << 10, R: 8, P: 1}

func sampleData() *model.KeystoreData {
	return &model.KeystoreData{Wallets: []model.Wallet{
		{ID: "a", Name: "Wallet 1", PublicKey: "pk1", PrivateKey: bytes.Repeat([]byte{1}, 64), CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: "b", Name: "Wallet 2", PublicKey: "pk2", PrivateKey: bytes.Repeat([]byte{2}, 64), CreatedAt: "2024-01-02T00:00:00Z"},
	}}
}

func TestCreateOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.cwt")

	ks, err := Create(path, []byte("secret"), fastKDF)
	require.NoError(t, err)
	require.NoError(t, ks.Save(sampleData()))

	_, data, err := Open(path, []byte("secret"))
	require.NoError(t, err)
	require.Len(t, data.Wallets, 2)
	assert.Equal(t, "Wallet 2", data.Wallets[1].Name)
	assert.Equal(t, bytes.Repeat([]byte{2}, 64), data.Wallets[1].PrivateKey)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, utf8BOM))
	assert.NotContains(t, string(raw), "Wallet 1")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCreateRefusesNonEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.cwt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))

	_, err := Create(path, []byte("secret"), fastKDF)
	assert.True(t, IsFileExistsError(err))
}

func TestOpenWrongPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.cwt")
	_, err := Create(path, []byte("secret"), fastKDF)
	require.NoError(t, err)

	_, _, err = Open(path, []byte("wrong"))
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestSaveUsesFreshNonce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.cwt")
	ks, err := Create(path, []byte("secret"), fastKDF)
	require.NoError(t, err)

	first, err := ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, ks.Save(&model.KeystoreData{}))
	second, err := ReadFile(path)
	require.NoError(t, err)

	assert.NotEqual(t, first.Nonce, second.Nonce)
	assert.Equal(t, first.Salt, second.Salt)
	assert.Equal(t, fastKDF, second.KDF)
	assert.Equal(t, "solana", second.Network)
}

func TestReopenedKeystoreSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.cwt")
	_, err := Create(path, []byte("secret"), fastKDF)
	require.NoError(t, err)

	ks, data, err := Open(path, []byte("secret"))
	require.NoError(t, err)
	assert.Empty(t, data.Wallets)

	require.NoError(t, ks.Save(sampleData()))
	_, data, err = Open(path, []byte("secret"))
	require.NoError(t, err)
	assert.Len(t, data.Wallets, 2)
}

func TestRekey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.cwt")
	ks, err := Create(path, []byte("old"), fastKDF)
	require.NoError(t, err)
	require.NoError(t, ks.Save(sampleData()))

	n, err := Rekey(path, []byte("old"), []byte("new"), fastKDF)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, _, err = Open(path, []byte("old"))
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, data, err := Open(path, []byte("new"))
	require.NoError(t, err)
	assert.Equal(t, "pk1", data.Wallets[0].PublicKey)
}

func TestOpenMissingOrEmpty(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Open(filepath.Join(dir, "missing.cwt"), []byte("x"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.cwt")
	require.NoError(t, os.WriteFile(empty, nil, 0600))
	_, _, err = Open(empty, []byte("x"))
	assert.Error(t, err)
	assert.False(t, Exists(empty))
}
