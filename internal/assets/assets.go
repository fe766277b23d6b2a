// Package assets holds the registry of supported symbols.
package assets

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"wallet_portfolio/internal/address"
	"wallet_portfolio/internal/domain"
)

//go:embed assets.yaml
var defaultAssets []byte

type file struct {
	Assets []domain.Asset `yaml:"assets"`
}

// Registry is an ordered, read-only set of assets
type Registry struct {
	order  []string
	assets map[string]domain.Asset
}

// Default returns the embedded registry
func Default() *Registry {
	r, err := Parse(defaultAssets)
	if err != nil {
		panic(fmt.Sprintf("embedded assets.yaml: %v", err))
	}
	return r
}

// Load reads a registry from path, or the embedded one when path is empty
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read assets file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML registry
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode assets: %w", err)
	}
	if len(f.Assets) == 0 {
		return nil, fmt.Errorf("no assets defined")
	}

	r := &Registry{assets: make(map[string]domain.Asset, len(f.Assets))}
	for _, a := range f.Assets {
		a.Symbol = strings.ToUpper(strings.TrimSpace(a.Symbol))
		if a.Symbol == "" {
			return nil, fmt.Errorf("asset without symbol")
		}
		if _, dup := r.assets[a.Symbol]; dup {
			return nil, fmt.Errorf("duplicate asset %s", a.Symbol)
		}
		if a.Family != domain.FamilyEVM && a.Family != domain.FamilyBitcoin {
			return nil, fmt.Errorf("asset %s: unknown family %q", a.Symbol, a.Family)
		}
		switch a.Source {
		case domain.SourceNative, domain.SourceEsplora:
		case domain.SourceERC20:
			contract, err := address.Normalize(a.Contract, domain.FamilyEVM)
			if err != nil {
				return nil, fmt.Errorf("asset %s contract: %w", a.Symbol, err)
			}
			a.Contract = contract
		default:
			return nil, fmt.Errorf("asset %s: unknown source %q", a.Symbol, a.Source)
		}
		if a.Decimals < 0 || a.DisplayDecimals < 0 {
			return nil, fmt.Errorf("asset %s: negative decimals", a.Symbol)
		}
		r.order = append(r.order, a.Symbol)
		r.assets[a.Symbol] = a
	}
	return r, nil
}

// Get looks an asset up by symbol, case-insensitively
func (r *Registry) Get(symbol string) (domain.Asset, error) {
	a, ok := r.assets[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return domain.Asset{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedAsset, symbol)
	}
	return a, nil
}

// Symbols returns every symbol in registry order
func (r *Registry) Symbols() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Resolve validates a requested symbol list. An empty list means every
// asset. Unknown symbols fail with ErrUnsupportedAsset, repeats with
// ErrInvalidFormat.
func (r *Registry) Resolve(symbols []string) ([]domain.Asset, error) {
	if len(symbols) == 0 {
		symbols = r.order
	}
	seen := make(map[string]bool, len(symbols))
	out := make([]domain.Asset, 0, len(symbols))
	for _, s := range symbols {
		a, err := r.Get(s)
		if err != nil {
			return nil, err
		}
		if seen[a.Symbol] {
			return nil, fmt.Errorf("%w: duplicate asset %s", domain.ErrInvalidFormat, a.Symbol)
		}
		seen[a.Symbol] = true
		out = append(out, a)
	}
	return out, nil
}

// ParseList splits a comma separated symbol list, dropping blanks
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}
