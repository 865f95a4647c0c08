// Package conventional parses conventional commit summaries of the form
// "<kind>[!]: <description>".
package conventional

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
)

const separator = ": "

// kinds maps accepted kind tokens to kinds. Matching is case-sensitive.
var kinds = map[string]domain.Kind{
	"fix":         domain.KindFix,
	"feat":        domain.KindFeature,
	"feature":     domain.KindFeature,
	"perf":        domain.KindPerformance,
	"performance": domain.KindPerformance,
	"refactor":    domain.KindRefactor,
	"docs":        domain.KindDocs,
	"test":        domain.KindTest,
	"chore":       domain.KindChore,
	"build":       domain.KindBuild,
}

// Policy toggles the checks layered on top of the core grammar.
type Policy struct {
	// RejectWhitespace fails descriptions with surrounding whitespace.
	RejectWhitespace bool

	// RejectSentence fails descriptions ending with a period.
	RejectSentence bool

	// RequireLowercase fails descriptions whose first word is capitalized,
	// unless the word is an all-caps acronym like README.
	RequireLowercase bool
}

// StrictPolicy enables every check.
func StrictPolicy() Policy {
	return Policy{
		RejectWhitespace: true,
		RejectSentence:   true,
		RequireLowercase: true,
	}
}

// Parser parses commit summaries into changes.
type Parser struct {
	policy Policy
}

// NewParser creates a Parser applying the given policy.
func NewParser(policy Policy) *Parser {
	return &Parser{policy: policy}
}

// Parse parses summary with no policy checks.
func Parse(summary string) (domain.Change, error) {
	return NewParser(Policy{}).Parse(summary)
}

// Parse parses a single summary line.
func (p *Parser) Parse(summary string) (domain.Change, error) {
	token, description, ok := strings.Cut(summary, separator)
	if !ok {
		return domain.Change{}, fmt.Errorf("%w: missing %q in %q", domain.ErrMalformedFormat, separator, summary)
	}
	if strings.HasSuffix(token, " ") {
		return domain.Change{}, fmt.Errorf("%w: space before colon in %q", domain.ErrMalformedFormat, summary)
	}
	if strings.HasPrefix(description, " ") {
		return domain.Change{}, fmt.Errorf("%w: more than one space after colon in %q", domain.ErrMalformedFormat, summary)
	}
	if strings.TrimSpace(description) == "" {
		return domain.Change{}, fmt.Errorf("%w: empty description in %q", domain.ErrMalformedFormat, summary)
	}

	token, breaking := strings.CutSuffix(token, "!")
	kind, ok := kinds[token]
	if !ok {
		return domain.Change{}, fmt.Errorf("%w: %q", domain.ErrUnknownKind, token)
	}

	if err := p.check(description); err != nil {
		return domain.Change{}, err
	}

	return domain.Change{
		Kind:        kind,
		Description: strings.TrimSpace(description),
		Breaking:    breaking,
	}, nil
}

func (p *Parser) check(description string) error {
	if p.policy.RejectWhitespace && description != strings.TrimSpace(description) {
		return fmt.Errorf("%w: %q", domain.ErrWhitespace, description)
	}
	if p.policy.RejectSentence && strings.HasSuffix(strings.TrimSpace(description), ".") {
		return fmt.Errorf("%w: %q", domain.ErrSentence, description)
	}
	if p.policy.RequireLowercase && !lowercaseOrAcronym(description) {
		return fmt.Errorf("%w: %q", domain.ErrCasing, description)
	}
	return nil
}

// lowercaseOrAcronym reports whether the first word is not capitalized,
// or consists only of upper-case letters and non-letters.
func lowercaseOrAcronym(description string) bool {
	fields := strings.Fields(description)
	if len(fields) == 0 {
		return true
	}
	word := []rune(fields[0])
	if !unicode.IsUpper(word[0]) {
		return true
	}
	for _, r := range word {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}
