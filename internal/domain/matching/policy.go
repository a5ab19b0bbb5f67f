package matching

import (
	"fmt"
	"strings"
)

// Policy decides whether an overlap count is enough for a required skill count.
type Policy string

const (
	// StrictMajority requires more than half of the required skills.
	StrictMajority Policy = "strict_majority"
	// AtLeastHalf accepts exactly half of the required skills.
	AtLeastHalf Policy = "at_least_half"
)

// DefaultPolicy is used when no policy is configured.
const DefaultPolicy = StrictMajority

// ParsePolicy maps a configured name to a Policy. Empty means DefaultPolicy.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return DefaultPolicy, nil
	case StrictMajority:
		return StrictMajority, nil
	case AtLeastHalf:
		return AtLeastHalf, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Satisfied applies the policy. A zero required count is always satisfied.
func (p Policy) Satisfied(overlap, required int) bool {
	if required <= 0 {
		return true
	}
	switch p {
	case AtLeastHalf:
		return overlap*2 >= required
	default:
		return overlap*2 > required
	}
}
