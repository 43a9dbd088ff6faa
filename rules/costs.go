// Package rules holds the pure progression math: increase costs, skill
// activation costs and attribute-derived base values. Nothing in here
// touches storage or validates ownership; callers resolve enums from user
// input first and reject unknown keys before doing any math.
package rules

// CostCategory is a tier (0..4) determining how many points an increase
// costs. Category 0 is always free.
type CostCategory int

const (
	Cat0 CostCategory = iota
	Cat1
	Cat2
	Cat3
	Cat4

	CategoryMin = Cat0
	CategoryMax = Cat4
)

var costCategories = map[string]CostCategory{
	"CAT_0": Cat0,
	"CAT_1": Cat1,
	"CAT_2": Cat2,
	"CAT_3": Cat3,
	"CAT_4": Cat4,
}

// ParseCostCategory looks up a cost category by its string key. The bool
// is false for unknown keys.
func ParseCostCategory(s string) (CostCategory, bool) {
	c, ok := costCategories[s]
	return c, ok
}

// Valid reports whether c is inside the closed category range.
func (c CostCategory) Valid() bool {
	return c >= CategoryMin && c <= CategoryMax
}

func (c CostCategory) String() string {
	switch c {
	case Cat0:
		return "CAT_0"
	case Cat1:
		return "CAT_1"
	case Cat2:
		return "CAT_2"
	case Cat3:
		return "CAT_3"
	case Cat4:
		return "CAT_4"
	}
	return "CAT_?"
}

// increaseThresholds are the value bands of the cost matrix. A current
// value v falls into the first band whose threshold is strictly greater
// than v; the last band is open-ended.
var increaseThresholds = []int{50, 75}

// increaseCosts is the cost matrix, indexed [category][band]. Costs are
// non-decreasing in both the value band and the category.
var increaseCosts = [][]int{
	{0, 0, 0},
	{1, 1, 2},
	{1, 2, 3},
	{2, 3, 4},
	{3, 4, 5},
}

// activationCosts is the one-off cost of activating a skill, per category.
var activationCosts = []int{0, 1, 2, 3, 4}

func band(value int) int {
	for i, th := range increaseThresholds {
		if value < th {
			return i
		}
	}
	return len(increaseThresholds)
}

// IncreaseCost returns the point cost of raising a skill or attribute from
// value to value+1 under the given category. Out-of-range categories clamp.
func IncreaseCost(value int, category CostCategory) int {
	return increaseCosts[clampCategory(category)][band(value)]
}

// IncreaseCostTotal sums IncreaseCost over steps consecutive increases
// starting at from. A non-positive step count costs nothing.
func IncreaseCostTotal(from, steps int, category CostCategory) int {
	total := 0
	for i := 0; i < steps; i++ {
		total += IncreaseCost(from+i, category)
	}
	return total
}

// ActivationCost returns the one-off cost of activating a skill in the
// given category, independent of the skill's value.
func ActivationCost(category CostCategory) int {
	return activationCosts[clampCategory(category)]
}

func clampCategory(c CostCategory) CostCategory {
	if c < CategoryMin {
		return CategoryMin
	}
	if c > CategoryMax {
		return CategoryMax
	}
	return c
}
