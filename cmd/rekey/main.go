// Re-encrypts the wallet keystore under a new password with a fresh salt and nonce.
// Usage: WALLET_FILE_PATH=wallets.cwt go run ./cmd/rekey
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/AlexZinkM/pump-desk/internal/config"
	"github.com/AlexZinkM/pump-desk/internal/crypto"
)

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	path := config.GetWalletFilePath()

	oldPassword, err := config.ReadPassword("Current password: ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer clear(oldPassword)

	newPassword, err := config.ReadPassword("New password: ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer clear(newPassword)

	confirm, err := config.ReadPassword("Repeat new password: ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	same := bytes.Equal(newPassword, confirm)
	clear(confirm)
	if !same {
		fmt.Fprintln(os.Stderr, "passwords do not match")
		os.Exit(1)
	}

	n, err := crypto.Rekey(path, oldPassword, newPassword, crypto.DefaultKDFParams)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rekey failed:", err)
		os.Exit(1)
	}
	fmt.Printf("Re-encrypted %d wallets in %s\n", n, path)
}
