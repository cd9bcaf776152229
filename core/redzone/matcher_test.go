package redzone

import (
	"strings"
	"testing"

	"customs-cost/core/types"
)

func newMatcher(t *testing.T) *Matcher {
	t.Helper()
	m, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"3304990000", "3304990000"},
		{"33 04 99 000 0", "3304990000"},
		{"33.04.99.000.0", "3304990000"},
		{"33-04-99-000-0", "3304990000"},
		{"33", "3300000000"},
		{"3304", "3304000000"},
		{"330499", "3304990000"},
		{"330499000012345", "3304990000"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClassifyCosmeticsBlocked(t *testing.T) {
	m := newMatcher(t)

	decision, reason := m.Classify("3304990000")
	if decision != types.ZoneBlock {
		t.Fatalf("decision = %s, want BLOCK", decision)
	}
	if reason == "" {
		t.Fatal("expected non-empty reason for blocked code")
	}
	if !strings.Contains(strings.ToLower(reason), "cosmetic") {
		t.Errorf("reason %q does not mention cosmetics", reason)
	}
}

func TestClassifyAllowedCode(t *testing.T) {
	m := newMatcher(t)

	decision, reason := m.Classify("8501010000")
	if decision != types.ZoneAllow {
		t.Fatalf("decision = %s, want ALLOW", decision)
	}
	if reason != "" {
		t.Errorf("expected empty reason for allowed code, got %q", reason)
	}
}

func TestClassifyRangeCondition(t *testing.T) {
	m := newMatcher(t)

	for _, code := range []string{"0101010000", "1201010000", "2401010000"} {
		if decision, _ := m.Classify(code); decision != types.ZoneBlock {
			t.Errorf("Classify(%s) = %s, want BLOCK (food range)", code, decision)
		}
	}
}

func TestClassifyPrefixCondition(t *testing.T) {
	m := newMatcher(t)

	for _, code := range []string{"3001010000", "3009999999", "9018010000", "9301010000", "8507010000", "8806010000"} {
		if decision, _ := m.Classify(code); decision != types.ZoneBlock {
			t.Errorf("Classify(%s) = %s, want BLOCK", code, decision)
		}
	}
}

func TestClassifyRiskCategory(t *testing.T) {
	m := newMatcher(t)

	for _, code := range []string{"8471010000", "8517010000"} {
		decision, reason := m.Classify(code)
		if decision != types.ZoneRisk {
			t.Errorf("Classify(%s) = %s, want RISK", code, decision)
		}
		if reason == "" {
			t.Errorf("Classify(%s): expected non-empty reason", code)
		}
	}
}

func TestClassifyNormalizesBeforeMatching(t *testing.T) {
	m := newMatcher(t)

	if decision, _ := m.Classify("33 04 99 000 0"); decision != types.ZoneBlock {
		t.Errorf("spaced code not normalized before matching")
	}
	if decision, _ := m.Classify("33.04.99.000.0"); decision != types.ZoneBlock {
		t.Errorf("dotted code not normalized before matching")
	}
}

func TestExactConditionMatching(t *testing.T) {
	table := `{
		"rules": [
			{
				"id": "one-code",
				"decision": "RISK",
				"conditions": [{"type": "exact", "value": "6401010000"}],
				"reason": "single code under review"
			}
		]
	}`
	m, err := NewFromJSON([]byte(table))
	if err != nil {
		t.Fatalf("NewFromJSON: %v", err)
	}

	if decision, _ := m.Classify("6401010000"); decision != types.ZoneRisk {
		t.Error("exact condition did not match its code")
	}
	if decision, _ := m.Classify("6401010001"); decision != types.ZoneAllow {
		t.Error("exact condition matched a different code")
	}
}

func TestMalformedTableIsConfigurationError(t *testing.T) {
	cases := []string{
		`not json`,
		`{"rules": []}`,
		`{"rules": [{"id": "x", "decision": "MAYBE", "conditions": [{"type": "prefix", "length": 2, "value": "33"}]}]}`,
		`{"rules": [{"id": "x", "decision": "BLOCK", "conditions": []}]}`,
		`{"rules": [{"id": "x", "decision": "BLOCK", "conditions": [{"type": "range", "length": 2, "value": ["24", "01"]}]}]}`,
	}
	for i, table := range cases {
		if _, err := NewFromJSON([]byte(table)); err == nil {
			t.Errorf("case %d: expected error for malformed table", i)
		}
	}
}

func TestFirstMatchingRuleWins(t *testing.T) {
	m := newMatcher(t)

	// 2203 matches both the alcohol range and the food range; the alcohol
	// rule is earlier in file order and must supply the reason.
	_, reason := m.Classify("2203010000")
	if !strings.Contains(strings.ToLower(reason), "alcohol") {
		t.Errorf("expected alcohol rule to win, got reason %q", reason)
	}
}
