// Package catalog defines the static, immutable game content: upgrades, skins
// and level thresholds.
// This package is PURE and must NOT import any infrastructure packages.
package catalog

// Category groups upgrades on the mine screen.
type Category string

const (
	CategoryTech   Category = "Tech"
	CategoryArt    Category = "Art"
	CategoryEvents Category = "Events"
	CategoryCrypto Category = "Crypto"
)

// Upgrade is a repeatable purchase that raises profit per hour.
type Upgrade struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	BasePrice   float64  `json:"base_price"`
	BaseProfit  float64  `json:"base_profit"` // per hour, first purchase
}

// Theme is the visual data of a skin; the engine never reads it.
type Theme struct {
	Colors [2]string `json:"colors"` // Gradient start/end
	Symbol string    `json:"symbol"`
}

// Skin is a one-time cosmetic unlock.
type Skin struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Theme Theme   `json:"theme"`
}

// Level is one row of the threshold table.
type Level struct {
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold"`
}

// DefaultSkinID is unlocked and equipped for every new player.
const DefaultSkinID = "furcoin"

// Upgrades lists every upgrade in display order.
var Upgrades = []Upgrade{
	{ID: "gpu_rig", Name: "GPU Farm", Description: "Basic mining setup", Category: CategoryTech, BasePrice: 500, BaseProfit: 50},
	{ID: "asic_miner", Name: "ASIC Miner", Description: "Professional hardware", Category: CategoryTech, BasePrice: 2000, BaseProfit: 250},
	{ID: "quantum_pc", Name: "Quantum PC", Description: "Next generation compute", Category: CategoryTech, BasePrice: 15000, BaseProfit: 1200},

	{ID: "nft_collection", Name: "NFT Collection", Description: "Pixel-art pictures", Category: CategoryArt, BasePrice: 1000, BaseProfit: 100},
	{ID: "digital_gallery", Name: "Digital Gallery", Description: "VR exhibition", Category: CategoryArt, BasePrice: 5000, BaseProfit: 600},

	{ID: "ama_session", Name: "AMA Session", Description: "Talk to the community", Category: CategoryEvents, BasePrice: 750, BaseProfit: 80},
	{ID: "hackathon", Name: "Hackathon", Description: "Developer competition", Category: CategoryEvents, BasePrice: 3000, BaseProfit: 400},

	{ID: "staking", Name: "Staking V1", Description: "Passive income", Category: CategoryCrypto, BasePrice: 1500, BaseProfit: 180},
	{ID: "dex_listing", Name: "DEX Listing", Description: "Liquidity pool", Category: CategoryCrypto, BasePrice: 10000, BaseProfit: 950},
	{ID: "cex_listing", Name: "CEX Listing", Description: "Major exchange", Category: CategoryCrypto, BasePrice: 50000, BaseProfit: 4000},
}

// Skins lists every skin in display order. The first one is the default.
var Skins = []Skin{
	{ID: DefaultSkinID, Name: "FurCoin", Price: 0, Theme: Theme{Colors: [2]string{"#facc15", "#ca8a04"}, Symbol: "FC"}},
	{ID: "ton", Name: "TON", Price: 10000, Theme: Theme{Colors: [2]string{"#0098EA", "#006296"}, Symbol: "💎"}},
	{ID: "btc", Name: "Bitcoin", Price: 50000, Theme: Theme{Colors: [2]string{"#F7931A", "#B56000"}, Symbol: "₿"}},
	{ID: "eth", Name: "Ethereum", Price: 100000, Theme: Theme{Colors: [2]string{"#627EEA", "#3C4D8F"}, Symbol: "Ξ"}},
	{ID: "not", Name: "Notcoin", Price: 200000, Theme: Theme{Colors: [2]string{"#000000", "#333333"}, Symbol: "NOT"}},
}

// Levels is ordered ascending by threshold; the first threshold must be 0.
var Levels = []Level{
	{Name: "Hamster", Threshold: 0},
	{Name: "Rookie", Threshold: 5000},
	{Name: "Trader", Threshold: 25000},
	{Name: "Whale", Threshold: 100000},
	{Name: "Satoshi", Threshold: 1000000},
}

var (
	upgradeIndex = indexUpgrades(Upgrades)
	skinIndex    = indexSkins(Skins)
)

func indexUpgrades(list []Upgrade) map[string]Upgrade {
	m := make(map[string]Upgrade, len(list))
	for _, u := range list {
		m[u.ID] = u
	}
	return m
}

func indexSkins(list []Skin) map[string]Skin {
	m := make(map[string]Skin, len(list))
	for _, s := range list {
		m[s.ID] = s
	}
	return m
}

// GetUpgrade returns the definition for an upgrade id.
func GetUpgrade(id string) (Upgrade, bool) {
	u, ok := upgradeIndex[id]
	return u, ok
}

// GetSkin returns the definition for a skin id.
func GetSkin(id string) (Skin, bool) {
	s, ok := skinIndex[id]
	return s, ok
}

// LevelName returns the display name of a level index, clamped to the table.
func LevelName(level int) string {
	if level < 0 {
		level = 0
	}
	if level >= len(Levels) {
		level = len(Levels) - 1
	}
	return Levels[level].Name
}
