package masking

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RoundRule decides which self-calibration rounds get a clean mask built for
// them. It is a tagged variant: all rounds, every round at or above a
// threshold, or an explicit set of rounds. The zero value matches no round.
type RoundRule struct {
	kind      roundRuleKind
	threshold int
	rounds    map[int]struct{}
}

type roundRuleKind int

const (
	roundRuleNone roundRuleKind = iota
	roundRuleAll
	roundRuleThreshold
	roundRuleSet
)

// AllRounds matches every self-calibration round.
func AllRounds() RoundRule {
	return RoundRule{kind: roundRuleAll}
}

// FromRound matches every round at or above n.
func FromRound(n int) RoundRule {
	return RoundRule{kind: roundRuleThreshold, threshold: n}
}

// Rounds matches exactly the listed rounds.
func Rounds(ns ...int) RoundRule {
	set := make(map[int]struct{}, len(ns))
	for _, n := range ns {
		set[n] = struct{}{}
	}
	return RoundRule{kind: roundRuleSet, rounds: set}
}

// ParseRoundRule reads a rule from its textual form: "all" (any case), a
// single integer meaning from-that-round-on, or a comma separated list of
// rounds.
func ParseRoundRule(text string) (RoundRule, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return RoundRule{}, nil
	}
	if strings.EqualFold(text, "all") {
		return AllRounds(), nil
	}
	if !strings.Contains(text, ",") {
		n, err := strconv.Atoi(text)
		if err != nil {
			return RoundRule{}, fmt.Errorf("%w: invalid mask round rule %q", ErrBadConfig, text)
		}
		return FromRound(n), nil
	}
	var ns []int
	for _, part := range strings.Split(text, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return RoundRule{}, fmt.Errorf("%w: invalid mask round rule %q", ErrBadConfig, text)
		}
		ns = append(ns, n)
	}
	return Rounds(ns...), nil
}

// String formats the rule in the form ParseRoundRule accepts.
func (r RoundRule) String() string {
	switch r.kind {
	case roundRuleAll:
		return "all"
	case roundRuleThreshold:
		return strconv.Itoa(r.threshold)
	case roundRuleSet:
		ns := make([]int, 0, len(r.rounds))
		for n := range r.rounds {
			ns = append(ns, n)
		}
		sort.Ints(ns)
		parts := make([]string, len(ns))
		for i, n := range ns {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, ",")
	}
	return ""
}

// AppliesToRound evaluates whether the given self-calibration round should
// have a clean mask constructed. The allow flag is a global gate that must
// be true for the rule itself to be considered.
func AppliesToRound(currentRound int, rule RoundRule, allow bool) bool {
	if !allow {
		return false
	}
	switch rule.kind {
	case roundRuleAll:
		return true
	case roundRuleThreshold:
		return currentRound >= rule.threshold
	case roundRuleSet:
		_, ok := rule.rounds[currentRound]
		return ok
	}
	return false
}
