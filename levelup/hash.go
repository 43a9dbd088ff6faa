package levelup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/morwengames/chronicle/model"
)

// OptionsHash fingerprints the state a level-up offer was computed from:
// character identity, current level and the full progress map in a stable
// key order. Two computations over the same state always agree, and any
// progress or level mutation between offer and commit changes the hash.
// No transient offer fields, timestamps or salts enter the input.
func OptionsHash(characterID string, level int, progress map[string]model.EffectProgress) string {
	keys := make([]string, 0, len(progress))
	for k := range progress {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d", characterID, level)
	for _, k := range keys {
		p := progress[k]
		fmt.Fprintf(&b, "|%s:%d:%d:%d", k, p.SelectionCount, p.FirstChosenLevel, p.LastChosenLevel)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
