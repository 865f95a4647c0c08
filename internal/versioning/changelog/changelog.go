// Package changelog renders a changeset as a Markdown changelog.
package changelog

import (
	"strings"

	"github.com/MyCarrier-DevOps/relbump/internal/domain"
	"github.com/MyCarrier-DevOps/relbump/internal/versioning/changeset"
)

// Category groups changelog entries. Categories render in declaration order.
type Category int

// Changelog categories.
const (
	Breaking Category = iota
	Features
	Bugfixes
	Performance
	Refactorings
)

var titles = [...]string{
	"Breaking changes",
	"Features",
	"Bugfixes",
	"Performance improvements",
	"Refactorings",
}

// Title returns the section heading of the category.
func (c Category) Title() string {
	return titles[c]
}

// Classify returns the category of a change, or false if the change does
// not appear in the changelog.
func Classify(change domain.Change) (Category, bool) {
	if change.Breaking {
		return Breaking, true
	}
	switch change.Kind {
	case domain.KindFeature:
		return Features, true
	case domain.KindFix:
		return Bugfixes, true
	case domain.KindPerformance:
		return Performance, true
	case domain.KindRefactor:
		return Refactorings, true
	default:
		return 0, false
	}
}

// Section is a rendered category with its entries in changeset order.
type Section struct {
	Category Category
	Items    []string
}

// Changelog is the categorized view of a changeset.
type Changelog struct {
	sections []Section
}

// New groups the revisions of cs into sections.
func New(cs *changeset.Changeset) *Changelog {
	var buckets [len(titles)][]string
	for _, rev := range cs.Revisions() {
		category, ok := Classify(rev.Change)
		if !ok {
			continue
		}
		buckets[category] = append(buckets[category], item(cs, rev))
	}

	c := &Changelog{}
	for category, items := range buckets {
		if len(items) > 0 {
			c.sections = append(c.sections, Section{Category: Category(category), Items: items})
		}
	}
	return c
}

// Sections returns the non-empty sections in render order.
func (c *Changelog) Sections() []Section {
	return c.sections
}

// IsEmpty reports whether nothing would be rendered.
func (c *Changelog) IsEmpty() bool {
	return len(c.sections) == 0
}

// String renders the changelog. An empty changelog renders as "".
func (c *Changelog) String() string {
	var b strings.Builder
	for i, section := range c.sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## ")
		b.WriteString(section.Category.Title())
		b.WriteString("\n\n")
		for _, it := range section.Items {
			b.WriteString("- ")
			b.WriteString(it)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// item renders "<short id> __scope__, __scope__ – <description>".
func item(cs *changeset.Changeset, rev domain.Revision) string {
	var b strings.Builder
	b.WriteString(rev.ShortID())

	var names []string
	for _, idx := range rev.Scopes {
		if name := cs.Scopes().Scope(idx).Name; name != "" {
			names = append(names, "__"+name+"__")
		}
	}
	if len(names) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(names, ", "))
	}

	b.WriteString(" – ")
	b.WriteString(rev.Change.Description)
	return b.String()
}

// Render renders the changelog of cs.
func Render(cs *changeset.Changeset) string {
	return New(cs).String()
}
