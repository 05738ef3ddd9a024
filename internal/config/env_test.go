package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaults(t *testing.T) {
	t.Setenv("WALLET_FILE_PATH", "test.cwt")

	require.NoError(t, Init())
	c := Get()

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "3000", c.ProxyPort)
	assert.Equal(t, "test.cwt", GetWalletFilePath())
	assert.Equal(t, "https://pumpportal.fun/api/trade-local", c.TradeUpstreamURL)
	assert.Equal(t, 10*time.Second, c.BalanceRefresh)
	assert.Equal(t, []string{"http://localhost:5173"}, c.AllowedOrigins)
}

func TestInitOriginsList(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,https://b.test")
	t.Setenv("BALANCE_REFRESH", "30s")

	require.NoError(t, Init())
	assert.Equal(t, []string{"http://a.test", "https://b.test"}, Get().AllowedOrigins)
	assert.Equal(t, 30*time.Second, Get().BalanceRefresh)
}

func TestWalletPasswordCopy(t *testing.T) {
	SetWalletPassword([]byte("secret"))

	out, err := GetWalletPasswordBytes()
	require.NoError(t, err)
	assert.Equal(t, "secret", string(out))

	clear(out)
	again, err := GetWalletPasswordBytes()
	require.NoError(t, err)
	assert.Equal(t, "secret", string(again), "clearing a returned copy must not touch the stored password")
}
