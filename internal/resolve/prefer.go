package resolve

import "strings"

// PlaceholderPrefix marks an unresolved resource-string reference that is
// not real text, e.g. "ms-resource:AppStoreName".
const PlaceholderPrefix = "ms-resource:"

// Preferred script range: CJK Unified Ideographs.
const (
	preferredScriptLo rune = 0x4E00
	preferredScriptHi rune = 0x9FFF
)

// IsPlaceholder reports whether name is an unresolved resource reference.
func IsPlaceholder(name string) bool {
	return strings.HasPrefix(name, PlaceholderPrefix)
}

// ContainsPreferredScript reports whether any rune of s is a CJK Unified Ideograph.
func ContainsPreferredScript(s string) bool {
	for _, r := range s {
		if r >= preferredScriptLo && r <= preferredScriptHi {
			return true
		}
	}
	return false
}

// PreferName picks a display name from a primary candidate and an optional
// secondary (publisher/locale) string.
//
// A placeholder primary is replaced by rawID; a placeholder secondary is
// ignored. Then:
//
//	primary CJK, secondary CJK  -> secondary
//	primary CJK                 -> primary
//	secondary CJK               -> "primary (secondary)"
//	neither                     -> primary
func PreferName(primary, secondary, rawID string) string {
	if IsPlaceholder(primary) {
		primary = rawID
	}
	if IsPlaceholder(secondary) {
		secondary = ""
	}

	primaryCJK := ContainsPreferredScript(primary)
	secondaryCJK := secondary != "" && ContainsPreferredScript(secondary)

	switch {
	case primaryCJK && secondaryCJK:
		return secondary
	case primaryCJK:
		return primary
	case secondaryCJK:
		return primary + " (" + secondary + ")"
	default:
		return primary
	}
}
