// Package redzone - Data-driven red-zone rule matching for regulatory codes.
package redzone

import (
	"encoding/json"
	"fmt"

	"customs-cost/core/types"
)

// ConditionKind identifies how a condition matches a code.
type ConditionKind string

const (
	// CondPrefix compares the first Length digits against Value.
	CondPrefix ConditionKind = "prefix"

	// CondRange checks the first Length digits against [Start, End]
	// inclusive, compared as strings.
	CondRange ConditionKind = "range"

	// CondExact compares the full 10-digit code against Value.
	CondExact ConditionKind = "exact"
)

// Condition is one matchable predicate of a rule. Exactly one of Value or
// Start/End is set depending on Kind.
type Condition struct {
	Kind   ConditionKind
	Length int
	Value  string
	Start  string
	End    string
}

// Matches reports whether a normalized 10-digit code satisfies the condition.
func (c Condition) Matches(code string) bool {
	switch c.Kind {
	case CondPrefix:
		if c.Length <= 0 || c.Length > len(code) {
			return false
		}
		return code[:c.Length] == c.Value
	case CondRange:
		if c.Length <= 0 || c.Length > len(code) {
			return false
		}
		prefix := code[:c.Length]
		return c.Start <= prefix && prefix <= c.End
	case CondExact:
		return code == c.Value
	}
	return false
}

// Rule is one ordered entry of the red-zone table. A rule matches when ANY
// of its conditions matches; the first matching rule wins.
type Rule struct {
	ID         string
	Decision   types.ZoneDecision
	Conditions []Condition
	Reason     string
}

// Matches reports whether any condition of the rule matches the code.
func (r Rule) Matches(code string) bool {
	for _, c := range r.Conditions {
		if c.Matches(code) {
			return true
		}
	}
	return false
}

// conditionJSON is the wire form of a condition: "value" is either a string
// (prefix/exact) or a two-element [start, end] array (range).
type conditionJSON struct {
	Type   ConditionKind   `json:"type"`
	Length int             `json:"length,omitempty"`
	Value  json.RawMessage `json:"value"`
}

type ruleJSON struct {
	ID         string          `json:"id"`
	Decision   string          `json:"decision"`
	Conditions []conditionJSON `json:"conditions"`
	Reason     string          `json:"reason"`
}

type tableJSON struct {
	Version string     `json:"version"`
	Rules   []ruleJSON `json:"rules"`
}

// parseRules decodes and validates a rule table document.
func parseRules(data []byte) ([]Rule, error) {
	var doc tableJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode rule table: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("rule table contains no rules")
	}

	rules := make([]Rule, 0, len(doc.Rules))
	for i, rj := range doc.Rules {
		decision := types.ZoneDecision(rj.Decision)
		if decision != types.ZoneBlock && decision != types.ZoneRisk {
			return nil, fmt.Errorf("rule %d (%s): invalid decision %q", i, rj.ID, rj.Decision)
		}
		if len(rj.Conditions) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no conditions", i, rj.ID)
		}

		conditions := make([]Condition, 0, len(rj.Conditions))
		for j, cj := range rj.Conditions {
			cond, err := parseCondition(cj)
			if err != nil {
				return nil, fmt.Errorf("rule %d (%s) condition %d: %w", i, rj.ID, j, err)
			}
			conditions = append(conditions, cond)
		}

		rules = append(rules, Rule{
			ID:         rj.ID,
			Decision:   decision,
			Conditions: conditions,
			Reason:     rj.Reason,
		})
	}
	return rules, nil
}

func parseCondition(cj conditionJSON) (Condition, error) {
	switch cj.Type {
	case CondPrefix, CondExact:
		var value string
		if err := json.Unmarshal(cj.Value, &value); err != nil {
			return Condition{}, fmt.Errorf("value must be a string: %w", err)
		}
		length := cj.Length
		if cj.Type == CondExact {
			length = codeLength
		}
		if cj.Type == CondPrefix && (length <= 0 || length > codeLength) {
			return Condition{}, fmt.Errorf("prefix length %d out of range", length)
		}
		return Condition{Kind: cj.Type, Length: length, Value: value}, nil
	case CondRange:
		var bounds [2]string
		if err := json.Unmarshal(cj.Value, &bounds); err != nil {
			return Condition{}, fmt.Errorf("value must be a [start, end] pair: %w", err)
		}
		if cj.Length <= 0 || cj.Length > codeLength {
			return Condition{}, fmt.Errorf("range length %d out of range", cj.Length)
		}
		if bounds[0] > bounds[1] {
			return Condition{}, fmt.Errorf("range start %q exceeds end %q", bounds[0], bounds[1])
		}
		return Condition{Kind: CondRange, Length: cj.Length, Start: bounds[0], End: bounds[1]}, nil
	default:
		return Condition{}, fmt.Errorf("unknown condition type %q", cj.Type)
	}
}
