// Package settings persists the desk's user settings as YAML.
package settings

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"

	"github.com/AlexZinkM/pump-desk/internal/model"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const defaultGroupCount = 4

// Pools accepted by the trade builder
var Pools = []string{"pump", "raydium", "pump-amm", "launchlab", "raydium-cpmm", "bonk", model.PoolAuto}

// TradeForm is the last state of the basic trade form
type TradeForm struct {
	Mint           string `yaml:"mint" json:"mint"`
	Amount         string `yaml:"amount" json:"amount"`
	SellPercentage string `yaml:"sellPercentage" json:"sellPercentage"`
}

// GroupWallet is a wallet assigned to a trade group with its own amounts
type GroupWallet struct {
	WalletID       string `yaml:"walletId" json:"walletId"`
	BuyAmountSOL   string `yaml:"buyAmountSol" json:"buyAmountSol"`
	SellPercentage string `yaml:"sellPercentage" json:"sellPercentage"`
}

// Group is a named set of wallets traded together
type Group struct {
	ID              string        `yaml:"id" json:"id"`
	Name            string        `yaml:"name" json:"name"`
	Wallets         []GroupWallet `yaml:"wallets" json:"wallets"`
	ActiveWalletIDs []string      `yaml:"activeWalletIds" json:"activeWalletIds"`
}

// Settings is the flat settings object; last write wins
type Settings struct {
	ActiveTab          string    `yaml:"activeTab" json:"activeTab"`
	ActiveTradeViewTab string    `yaml:"activeTradeViewTab" json:"activeTradeViewTab"`
	ActiveWindow       string    `yaml:"activeWindow" json:"activeWindow"`
	LastCreatedMint    string    `yaml:"lastCreatedMint" json:"lastCreatedMint"`
	PriorityFee        string    `yaml:"priorityFee" json:"priorityFee"`
	Slippage           int       `yaml:"slippage" json:"slippage"`
	Pool               string    `yaml:"pool" json:"pool"`
	TradeForm          TradeForm `yaml:"tradeForm" json:"tradeForm"`
	TradeWalletIDs     []string  `yaml:"tradeWalletIds" json:"tradeWalletIds"`
	AdvancedTradeMint  string    `yaml:"advancedTradeMint" json:"advancedTradeMint"`
	Groups             []Group   `yaml:"groups" json:"groups"`
}

// Default returns the settings used when nothing was saved yet
func Default() Settings {
	groups := make([]Group, defaultGroupCount)
	for i := range groups {
		groups[i] = Group{
			ID:              fmt.Sprintf("bundle-%d", i),
			Name:            fmt.Sprintf("Bundle %d", i+1),
			Wallets:         []GroupWallet{},
			ActiveWalletIDs: []string{},
		}
	}
	return Settings{
		ActiveTab:          "tokenLaunch",
		ActiveTradeViewTab: "basic",
		ActiveWindow:       "main",
		PriorityFee:        "0.0005",
		Slippage:           10,
		Pool:               "pump",
		TradeForm:          TradeForm{Amount: "1", SellPercentage: "100"},
		TradeWalletIDs:     []string{},
		Groups:             groups,
	}
}

// Validate checks the trade parameters
func (s Settings) Validate() error {
	fee, err := decimal.NewFromString(s.PriorityFee)
	if err != nil {
		return fmt.Errorf("priorityFee must be a number: %w", err)
	}
	if fee.IsNegative() {
		return errors.New("priorityFee must not be negative")
	}
	if s.Slippage < 0 || s.Slippage > 100 {
		return errors.New("slippage must be between 0 and 100")
	}
	valid := false
	for _, p := range Pools {
		if s.Pool == p {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown pool %q", s.Pool)
	}
	seen := make(map[string]bool, len(s.Groups))
	for _, g := range s.Groups {
		if g.ID == "" || seen[g.ID] {
			return fmt.Errorf("group ids must be unique and non-empty")
		}
		seen[g.ID] = true
	}
	return nil
}

// TradeParams returns the execution parameters for flows
func (s Settings) TradeParams() (model.TradeParams, error) {
	if err := s.Validate(); err != nil {
		return model.TradeParams{}, err
	}
	return model.TradeParams{
		Slippage:    s.Slippage,
		PriorityFee: decimal.RequireFromString(s.PriorityFee),
		Pool:        s.Pool,
	}, nil
}

// Group returns the group with id
func (s Settings) Group(id string) (Group, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// Load reads settings from path. A missing file yields Default(); keys absent
// from the file keep their default values.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}

// Save writes settings to path
func Save(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

// Manager holds the current settings and saves every change
type Manager struct {
	mu      sync.RWMutex
	path    string
	current Settings
}

// NewManager loads settings from path
func NewManager(path string) (*Manager, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Manager{path: path, current: s}, nil
}

// Get returns a copy of the current settings
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.current)
}

// Replace validates and stores s
func (m *Manager) Replace(s Settings) error {
	return m.Update(func(cur *Settings) error {
		*cur = s
		return nil
	})
}

// Update applies fn to a copy of the settings, then validates and saves it.
// The in-memory settings change only if saving succeeds.
func (m *Manager) Update(fn func(*Settings) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := clone(m.current)
	if err := fn(&next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if err := Save(m.path, next); err != nil {
		return err
	}
	m.current = next
	return nil
}

func clone(s Settings) Settings {
	out := s
	out.TradeWalletIDs = append([]string(nil), s.TradeWalletIDs...)
	out.Groups = make([]Group, len(s.Groups))
	for i, g := range s.Groups {
		g.Wallets = append([]GroupWallet(nil), g.Wallets...)
		g.ActiveWalletIDs = append([]string(nil), g.ActiveWalletIDs...)
		out.Groups[i] = g
	}
	return out
}

// Fill kinds for Randomize
const (
	FillBuy  = "buy"
	FillSell = "sell"
)

// Randomize sets every wallet's buy amount (3 decimals) or sell percentage
// (whole number, at most 100) to a random value in [min, max].
func (g *Group) Randomize(kind string, min, max decimal.Decimal, rnd *rand.Rand) error {
	if min.IsNegative() || max.IsNegative() {
		return errors.New("min and max must be positive numbers")
	}
	if min.GreaterThan(max) {
		return errors.New("min value cannot be greater than max value")
	}
	if kind == FillSell && max.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("sell percentage cannot exceed 100")
	}
	if kind != FillBuy && kind != FillSell {
		return fmt.Errorf("unknown fill kind %q", kind)
	}

	span := max.Sub(min)
	for i := range g.Wallets {
		v := min.Add(span.Mul(decimal.NewFromFloat(rnd.Float64())))
		if kind == FillBuy {
			v = v.Round(3)
		} else {
			v = v.Floor()
		}
		if v.LessThan(min) {
			v = min
		}
		if v.GreaterThan(max) {
			v = max
		}
		if kind == FillBuy {
			g.Wallets[i].BuyAmountSOL = v.String()
		} else {
			g.Wallets[i].SellPercentage = v.String()
		}
	}
	return nil
}
