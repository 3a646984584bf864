// Package portfolio keeps the user's holdings list, which backs the
// "portfolio" analysis context and the portfolio-only alert filter.
package portfolio

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"StockSentinel/internal/config"
	"StockSentinel/internal/model"
)

// ContextName is the analysis context backed by the holdings.
const ContextName = "portfolio"

// Manager guards the portfolio and persists every change.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
	logger   *zap.Logger
}

// NewManager loads the portfolio from filePath. When the file is new and
// seed is non-empty the seed symbols become the initial holdings.
func NewManager(filePath string, seed []string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	m := &Manager{state: state, filePath: filePath, logger: logger.Named("portfolio")}
	if len(state.Symbols) == 0 && len(seed) > 0 {
		if err := m.commit(dedupe(seed)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Symbols returns a copy of the holdings in insertion order. A nil Manager
// holds nothing.
func (m *Manager) Symbols() []string {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.state.Symbols...)
}

// Contains reports whether symbol is held.
func (m *Manager) Contains(symbol string) bool {
	if m == nil {
		return false
	}
	symbol = model.NormalizeSymbol(symbol)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.state.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// Add appends symbols that are not yet held and returns the ones added.
func (m *Manager) Add(symbols ...string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	held := make(map[string]bool, len(m.state.Symbols))
	for _, s := range m.state.Symbols {
		held[s] = true
	}
	var added []string
	for _, s := range symbols {
		s = model.NormalizeSymbol(s)
		if s == "" || held[s] {
			continue
		}
		held[s] = true
		added = append(added, s)
	}
	if len(added) == 0 {
		return nil, nil
	}
	next := append(append(make([]string, 0, len(m.state.Symbols)+len(added)), m.state.Symbols...), added...)
	if err := m.commit(next); err != nil {
		return nil, err
	}
	m.logger.Info("symbols added", zap.Strings("symbols", added))
	return added, nil
}

// Remove drops symbols and returns the ones that were held.
func (m *Manager) Remove(symbols ...string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	drop := map[string]bool{}
	for _, s := range symbols {
		drop[model.NormalizeSymbol(s)] = true
	}
	kept := m.state.Symbols[:0:0]
	var removed []string
	for _, s := range m.state.Symbols {
		if drop[s] {
			removed = append(removed, s)
			continue
		}
		kept = append(kept, s)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if err := m.commit(kept); err != nil {
		return nil, err
	}
	m.logger.Info("symbols removed", zap.Strings("symbols", removed))
	return removed, nil
}

// Replace overwrites the holdings, e.g. from a portfolio file.
func (m *Manager) Replace(symbols []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commit(dedupe(symbols))
}

// commit persists symbols as the new holdings and swaps them in only once
// the write succeeded. Callers hold mu.
func (m *Manager) commit(symbols []string) error {
	next := &State{Symbols: symbols}
	if err := SaveState(m.filePath, next); err != nil {
		return fmt.Errorf("save portfolio: %w", err)
	}
	m.state = next
	return nil
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		s = model.NormalizeSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// ContextRequest builds the request for a named context. The portfolio
// context uses the held symbols when any are held.
func (m *Manager) ContextRequest(cfg *config.Config, name, period string, topN int) (model.AnalyzeRequest, error) {
	req, err := cfg.ContextRequest(name, period, topN)
	if err != nil {
		return req, err
	}
	if m != nil && strings.EqualFold(name, ContextName) {
		if held := m.Symbols(); len(held) > 0 {
			req.Symbols = held
		}
	}
	return req, nil
}
