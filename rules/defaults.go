package rules

import "github.com/morwengames/chronicle/model"

// AttributeCostCategory is the fixed cost category for attribute
// increases; attributes are paid from attribute points, skills from
// adventure points.
const AttributeCostCategory = Cat2

// MinLevel is the lowest character level.
const MinLevel = 1

// Skill categories.
const (
	SkillBody      = "body"
	SkillSocial    = "social"
	SkillNature    = "nature"
	SkillKnowledge = "knowledge"
	SkillHandcraft = "handcraft"
)

// Combat value groups.
const (
	CombatMelee  = "melee"
	CombatRanged = "ranged"
)

type skillDef struct {
	name      string
	category  string
	costCat   CostCategory
	activated bool
	start     int
}

var defaultSkills = []skillDef{
	{"athletics", SkillBody, Cat2, true, 8},
	{"climbing", SkillBody, Cat1, true, 6},
	{"sneaking", SkillBody, Cat2, false, 0},
	{"swimming", SkillBody, Cat1, false, 0},
	{"persuasion", SkillSocial, Cat2, true, 6},
	{"intimidation", SkillSocial, Cat2, false, 0},
	{"etiquette", SkillSocial, Cat1, false, 0},
	{"tracking", SkillNature, Cat2, false, 0},
	{"herbalism", SkillNature, Cat2, false, 0},
	{"orientation", SkillNature, Cat1, true, 4},
	{"arcaneLore", SkillKnowledge, Cat3, false, 0},
	{"history", SkillKnowledge, Cat2, false, 0},
	{"appraisal", SkillKnowledge, Cat2, true, 4},
	{"smithing", SkillHandcraft, Cat3, false, 0},
	{"leatherworking", SkillHandcraft, Cat2, false, 0},
	{"cooking", SkillHandcraft, Cat1, true, 4},
}

var defaultCombatValues = map[string][]string{
	CombatMelee:  {"swords", "axes", "polearms", "unarmed"},
	CombatRanged: {"bows", "crossbows", "thrown"},
}

// Creation-time point grants.
const (
	StartAdventurePoints = 100
	StartAttributePoints = 20
	StartAttributeValue  = 10
)

// NewCharacterSheet builds a fresh level-1 sheet with default attributes,
// the standard skill and combat value lists, derived base values and the
// creation point grants.
func NewCharacterSheet(name string) *model.CharacterSheet {
	doc := &model.CharacterSheet{
		GeneralInformation: model.GeneralInformation{Name: name, Level: MinLevel},
		Attributes:         make(map[string]model.Attribute, len(AttributeNames)),
		BaseValues:         make(map[string]model.BaseValue),
		Skills:             make(map[string]map[string]model.Skill),
		CombatValues:       make(map[string]map[string]model.CombatValue),
		SpecialAbilities:   []string{},
		LevelUpProgress:    make(map[string]model.EffectProgress),
		CalculationPoints: model.CalculationPoints{
			AdventurePoints: model.Points{
				Start: StartAdventurePoints, Available: StartAdventurePoints, Total: StartAdventurePoints,
			},
			AttributePoints: model.Points{
				Start: StartAttributePoints, Available: StartAttributePoints, Total: StartAttributePoints,
			},
		},
	}

	for _, n := range AttributeNames {
		doc.Attributes[n] = model.Attribute{Start: StartAttributeValue, Current: StartAttributeValue}
	}

	for _, s := range defaultSkills {
		if doc.Skills[s.category] == nil {
			doc.Skills[s.category] = make(map[string]model.Skill)
		}
		doc.Skills[s.category][s.name] = model.Skill{
			Activated:      s.activated,
			Start:          s.start,
			Current:        s.start,
			CostCategory:   int(s.costCat),
			LearningMethod: string(LearnNormal),
		}
	}

	for group, names := range defaultCombatValues {
		doc.CombatValues[group] = make(map[string]model.CombatValue, len(names))
		for _, n := range names {
			doc.CombatValues[group][n] = model.CombatValue{}
		}
	}

	// Manual base values start at zero except luck points.
	for _, n := range []string{BaseArmorLevel, BaseLuckPoints, BaseBonusActions, BaseLegendaryActions} {
		doc.BaseValues[n] = model.BaseValue{}
	}
	doc.BaseValues[BaseLuckPoints] = model.BaseValue{Start: 3, Current: 3}

	ApplyDerivedBaseValues(doc)
	for n, bv := range doc.BaseValues {
		if IsDerivedBaseValue(n) {
			bv.Start = bv.Current
			doc.BaseValues[n] = bv
		}
	}
	return doc
}

// ApplyDerivedBaseValues recomputes every formula-derived base value in
// doc from its attributes and writes formula+mod into Current, returning
// the names whose Current changed.
func ApplyDerivedBaseValues(doc *model.CharacterSheet) []string {
	derived := DeriveBaseValues(doc.Attributes)
	var changed []string
	for name, value := range derived {
		bv := doc.BaseValues[name]
		next := value + bv.Mod
		if bv.Current != next {
			bv.Current = next
			doc.BaseValues[name] = bv
			changed = append(changed, name)
		} else if _, ok := doc.BaseValues[name]; !ok {
			doc.BaseValues[name] = bv
		}
	}
	return changed
}
