package model

// CharacterSheet is the JSON document stored per character. Every mutation
// endpoint rewrites one slice of it and logs the old/new pair to the
// character's history chain.
type CharacterSheet struct {
	GeneralInformation GeneralInformation                `json:"generalInformation"`
	Attributes         map[string]Attribute              `json:"attributes"`
	BaseValues         map[string]BaseValue              `json:"baseValues"`
	Skills             map[string]map[string]Skill       `json:"skills"`
	CombatValues       map[string]map[string]CombatValue `json:"combatValues"`
	CalculationPoints  CalculationPoints                 `json:"calculationPoints"`
	SpecialAbilities   []string                          `json:"specialAbilities"`
	LevelUpProgress    map[string]EffectProgress         `json:"levelUpProgress"`
}

type GeneralInformation struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// Attribute tracks one of the eight core attributes. Current holds the
// trained value, Mod temporary or equipment modifiers; TotalCost is the
// cumulative attribute points spent on increases.
type Attribute struct {
	Start     int `json:"start"`
	Current   int `json:"current"`
	Mod       int `json:"mod"`
	TotalCost int `json:"totalCost"`
}

// Value is the effective attribute value used by base-value formulas.
func (a Attribute) Value() int { return a.Current + a.Mod }

// BaseValue is a derived or manually tracked statistic. For formula-derived
// base values Current is rewritten whenever an attribute changes; for manual
// ones it only moves through the base-value endpoint and level-up effects.
type BaseValue struct {
	Start   int `json:"start"`
	Current int `json:"current"`
	Mod     int `json:"mod"`
}

type Skill struct {
	Activated      bool   `json:"activated"`
	Start          int    `json:"start"`
	Current        int    `json:"current"`
	Mod            int    `json:"mod"`
	TotalCost      int    `json:"totalCost"`
	CostCategory   int    `json:"costCategory"`
	LearningMethod string `json:"learningMethod"`
}

type CombatValue struct {
	AvailablePoints int `json:"availablePoints"`
	AttackValue     int `json:"attackValue"`
	ParadeValue     int `json:"paradeValue"`
}

// Points is one spendable pool. Gains raise Available and Total together;
// spending only lowers Available. Start is the creation-time grant.
type Points struct {
	Start     int `json:"start"`
	Available int `json:"available"`
	Total     int `json:"total"`
}

type CalculationPoints struct {
	AdventurePoints Points `json:"adventurePoints"`
	AttributePoints Points `json:"attributePoints"`
}

// EffectProgress tracks how often a level-up effect was taken. A missing
// map entry means the effect was never selected.
type EffectProgress struct {
	SelectionCount   int `json:"selectionCount"`
	FirstChosenLevel int `json:"firstChosenLevel"`
	LastChosenLevel  int `json:"lastChosenLevel"`
}
