package engine

import (
	"github.com/MRamiBalles/furcoin-clicker/internal/domain/catalog"
	"github.com/MRamiBalles/furcoin-clicker/internal/domain/player"
	"github.com/MRamiBalles/furcoin-clicker/internal/domain/rules"
)

// View is the player plus the fields a client derives for display.
type View struct {
	Player        *player.State `json:"player"`
	LevelName     string        `json:"level_name"`
	LevelProgress float64       `json:"level_progress"` // percent to the next level
	Rank          int           `json:"rank,omitempty"` // 0 while unregistered
}

func newView(st *player.State, rank int) View {
	return View{
		Player:        st.Clone(),
		LevelName:     catalog.LevelName(st.Level),
		LevelProgress: rules.LevelProgress(st.Balance, st.Level, catalog.Levels),
		Rank:          rank,
	}
}

// UpgradeOffer is an upgrade with the player's count and next price.
type UpgradeOffer struct {
	catalog.Upgrade
	Count          int     `json:"count"`
	NextCost       float64 `json:"next_cost"`
	NextProfitGain float64 `json:"next_profit_gain"`
	Affordable     bool    `json:"affordable"`
}

// SkinOffer is a skin with its ownership state.
type SkinOffer struct {
	catalog.Skin
	Unlocked bool `json:"unlocked"`
	Active   bool `json:"active"`
}

// CatalogView lists everything the player can buy.
type CatalogView struct {
	Upgrades []UpgradeOffer  `json:"upgrades"`
	Skins    []SkinOffer     `json:"skins"`
	Levels   []catalog.Level `json:"levels"`
}

func newCatalogView(st *player.State) CatalogView {
	cv := CatalogView{
		Upgrades: make([]UpgradeOffer, 0, len(catalog.Upgrades)),
		Skins:    make([]SkinOffer, 0, len(catalog.Skins)),
		Levels:   append([]catalog.Level(nil), catalog.Levels...),
	}
	for _, up := range catalog.Upgrades {
		count := st.UpgradeCount(up.ID)
		cost := rules.UpgradeCost(up.BasePrice, count)
		cv.Upgrades = append(cv.Upgrades, UpgradeOffer{
			Upgrade:        up,
			Count:          count,
			NextCost:       cost,
			NextProfitGain: rules.NextProfitGain(up.BaseProfit, count),
			Affordable:     st.Balance >= cost,
		})
	}
	for _, skin := range catalog.Skins {
		cv.Skins = append(cv.Skins, SkinOffer{
			Skin:     skin,
			Unlocked: st.HasSkin(skin.ID),
			Active:   st.ActiveSkin == skin.ID,
		})
	}
	return cv
}
