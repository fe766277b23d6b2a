package domain

// Family groups assets by address format
type Family string

const (
	FamilyEVM     Family = "evm"     // 0x-prefixed hex addresses
	FamilyBitcoin Family = "bitcoin" // base58 / bech32 addresses
)

// Balance sources
const (
	SourceNative  = "native"  // Chain native coin (eth_getBalance)
	SourceERC20   = "erc20"   // ERC-20 balanceOf
	SourceEsplora = "esplora" // External bitcoin balance service
)

// Asset describes one supported symbol
type Asset struct {
	Symbol          string `yaml:"symbol" json:"symbol"`                     // Ticker, e.g. ETH
	Name            string `yaml:"name" json:"name"`                         // Human name
	Family          Family `yaml:"family" json:"family"`                     // Address family
	Source          string `yaml:"source" json:"source"`                     // Balance source kind
	Contract        string `yaml:"contract,omitempty" json:"contract"`       // ERC-20 contract address
	Decimals        int32  `yaml:"decimals" json:"decimals"`                 // Chain base-unit exponent
	DisplayDecimals int32  `yaml:"display_decimals" json:"display_decimals"` // Fractional digits shown to users
	PriceID         string `yaml:"price_id" json:"price_id"`                 // Market-data identifier
}
