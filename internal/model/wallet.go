package model

// KeystoreFile represents the encrypted wallet file structure
type KeystoreFile struct {
	Network    string    `json:"network"`
	Version    int       `json:"version"`
	KDF        KDFParams `json:"kdf"`
	Salt       string    `json:"salt"`
	Nonce      string    `json:"nonce"`
	CipherText string    `json:"cipherText"`
}

// KDFParams are the scrypt cost parameters a keystore was sealed with
type KDFParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

// KeystoreData represents decrypted keystore contents
type KeystoreData struct {
	Wallets []Wallet `json:"wallets"`
}

// Wallet is a named keypair held by the desk
type Wallet struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PublicKey  string `json:"publicKey"`
	PrivateKey []byte `json:"privateKey"` // full 64-byte ed25519 key (stored as base64 in JSON)
	CreatedAt  string `json:"createdAt"`
}

// View returns the wallet without its private key.
func (w Wallet) View() WalletView {
	return WalletView{
		ID:        w.ID,
		Name:      w.Name,
		PublicKey: w.PublicKey,
		CreatedAt: w.CreatedAt,
	}
}

// WalletView is the public part of a wallet returned by list endpoints
type WalletView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PublicKey string `json:"publicKey"`
	CreatedAt string `json:"createdAt"`
}

// GenerateRequest represents request for POST /wallets
type GenerateRequest struct {
	Name string `json:"name"`
}

// GenerateResponse represents response for POST /wallets
type GenerateResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Wallet  WalletView `json:"wallet"`
	QR      string     `json:"qr,omitempty"` // base64 PNG of the address
}

// ImportRequest represents request for POST /wallets/import
type ImportRequest struct {
	Name       string `json:"name"`
	PrivateKey string `json:"privateKey" binding:"required"` // base58
}

// ImportBatchRequest represents request for POST /wallets/import-batch.
// Text holds one "Name,PrivateKey" record per line.
type ImportBatchRequest struct {
	Text string `json:"text" binding:"required"`
}

// ImportResult is the per-record result of a batch import
type ImportResult struct {
	Line      int    `json:"line"`
	Name      string `json:"name"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	PublicKey string `json:"publicKey,omitempty"`
}

// ImportBatchResponse represents response for POST /wallets/import-batch
type ImportBatchResponse struct {
	Imported int            `json:"imported"`
	Failed   int            `json:"failed"`
	Results  []ImportResult `json:"results"`
}

// RenameRequest represents request for PATCH /wallets/{id}
type RenameRequest struct {
	Name string `json:"name" binding:"required"`
}

// ExportResponse represents response for GET /wallets/{id}/export
type ExportResponse struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"` // base58
}
