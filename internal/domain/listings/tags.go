package listings

import "strings"

// ListingState is the lifecycle state of a listing.
type ListingState string

const (
	StateDraft           ListingState = "draft"
	StatePendingApproval ListingState = "pendingApproval"
	StatePublished       ListingState = "published"
	StateClosed          ListingState = "closed"
)

// ParseState maps a stored state tag to the enumeration. Unknown tags report false.
func ParseState(raw string) (ListingState, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "draft":
		return StateDraft, true
	case "pendingapproval", "pending_approval", "pending-approval":
		return StatePendingApproval, true
	case "published":
		return StatePublished, true
	case "closed":
		return StateClosed, true
	default:
		return "", false
	}
}

// Valid reports whether s is one of the known states.
func (s ListingState) Valid() bool {
	switch s {
	case StateDraft, StatePendingApproval, StatePublished, StateClosed:
		return true
	}
	return false
}

// PricingOption is the billing model of a listing.
type PricingOption string

const (
	PricingPerUnit    PricingOption = "unit"
	PricingPerHour    PricingOption = "hourly"
	PricingPerPackage PricingOption = "package"
)

// ParsePricingOption maps a stored pricing tag; unrecognised tags fall back to PricingPerUnit.
func ParsePricingOption(raw string) PricingOption {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "hourly", "hour", "per_hour":
		return PricingPerHour
	case "package", "per_package":
		return PricingPerPackage
	default:
		return PricingPerUnit
	}
}

// Difficulty tags a program's level.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ParseDifficulty returns an empty Difficulty for unknown tags.
func ParseDifficulty(raw string) Difficulty {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(raw))); d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return d
	default:
		return ""
	}
}

// Teaching location option keys.
const (
	TeachingOnsite = "onsite"
	TeachingOnline = "online"
)

// NormalizeTeachingLocations keeps known keys once, in input order.
func NormalizeTeachingLocations(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, value := range raw {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != TeachingOnsite && value != TeachingOnline {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
