package redzone

import (
	_ "embed"
	"os"
	"strings"

	"go.uber.org/zap"

	"customs-cost/core/types"
	"customs-cost/internal/errors"
	"customs-cost/internal/logging"
)

// codeLength is the fixed length of a normalized regulatory code.
const codeLength = 10

//go:embed rules.json
var embeddedRules []byte

// Matcher evaluates regulatory codes against the ordered red-zone rule
// table. The table is loaded once and immutable for the process lifetime,
// so a Matcher is safe for concurrent use.
type Matcher struct {
	rules []Rule
	log   *zap.Logger
}

// New creates a matcher from the embedded default rule table.
func New() (*Matcher, error) {
	return NewFromJSON(embeddedRules)
}

// NewFromFile creates a matcher from a rule table file. A malformed file is
// a configuration error; callers treat it as fatal at startup.
func NewFromFile(path string) (*Matcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Config("read red-zone rule table", err)
	}
	return NewFromJSON(data)
}

// NewFromJSON creates a matcher from rule table bytes.
func NewFromJSON(data []byte) (*Matcher, error) {
	rules, err := parseRules(data)
	if err != nil {
		return nil, errors.Config("parse red-zone rule table", err)
	}

	m := &Matcher{rules: rules, log: logging.Named("redzone")}
	m.log.Info("rule table loaded", zap.Int("rules", len(rules)))
	return m, nil
}

// Normalize reduces any code spelling to the canonical 10-digit form:
// non-digits stripped, truncated to 10 digits, right-padded with zeros.
func Normalize(code string) string {
	var b strings.Builder
	b.Grow(codeLength)
	for _, r := range code {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == codeLength {
				break
			}
		}
	}
	normalized := b.String()
	if len(normalized) < codeLength {
		normalized += strings.Repeat("0", codeLength-len(normalized))
	}
	return normalized
}

// Classify matches a regulatory code against the rule table in file order.
// The first matching rule's decision and reason are returned; no match
// means the code is allowed.
func (m *Matcher) Classify(code string) (types.ZoneDecision, string) {
	normalized := Normalize(code)

	for _, rule := range m.rules {
		if rule.Matches(normalized) {
			m.log.Info("red-zone rule matched",
				zap.String("code", normalized),
				zap.String("rule", rule.ID),
				zap.String("decision", string(rule.Decision)))
			return rule.Decision, rule.Reason
		}
	}

	return types.ZoneAllow, ""
}

// RuleCount returns the number of loaded rules.
func (m *Matcher) RuleCount() int {
	return len(m.rules)
}
