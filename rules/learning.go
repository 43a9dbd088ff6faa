package rules

// LearningMethod shifts the effective cost category of a skill increase.
type LearningMethod string

const (
	LearnFree      LearningMethod = "FREE"
	LearnLowPriced LearningMethod = "LOW_PRICED"
	LearnNormal    LearningMethod = "NORMAL"
	LearnExpensive LearningMethod = "EXPENSIVE"
)

var learningMethods = map[string]LearningMethod{
	string(LearnFree):      LearnFree,
	string(LearnLowPriced): LearnLowPriced,
	string(LearnNormal):    LearnNormal,
	string(LearnExpensive): LearnExpensive,
}

// ParseLearningMethod looks up a learning method by its string key. The
// bool is false for unknown keys.
func ParseLearningMethod(s string) (LearningMethod, bool) {
	m, ok := learningMethods[s]
	return m, ok
}

var learningOffsets = map[LearningMethod]int{
	LearnLowPriced: -1,
	LearnNormal:    0,
	LearnExpensive: 1,
}

// AdjustCostCategory applies a learning method to a skill's default cost
// category. FREE forces category 0 regardless of the default; every other
// method offsets the default and clamps into the valid range.
func AdjustCostCategory(defaultCategory CostCategory, method LearningMethod) CostCategory {
	if method == LearnFree {
		return Cat0
	}
	return clampCategory(defaultCategory + CostCategory(learningOffsets[method]))
}
