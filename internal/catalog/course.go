package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Voice is one recorded rendition of a unit's target text.
type Voice struct {
	Name       string
	AudioID    string
	DurationMS int64
	SourceURL  string
}

// Prompt is the known-language half of a unit.
type Prompt struct {
	Text       string
	AudioID    string
	DurationMS int64
	SourceURL  string
}

// Target carries the target-language text and its two voice renditions.
type Target struct {
	Text   string
	Voices [2]Voice
}

// Unit is one vocabulary unit of a course.
type Unit struct {
	ID     string
	Thread int
	Known  Prompt
	Target Target
}

// PhraseLength returns the word count of the target text. Spike
// normalization uses it to give longer phrases more latitude.
func (u Unit) PhraseLength() int {
	return len(strings.Fields(u.Target.Text))
}

// Course is a validated course bundle.
type Course struct {
	ID             string
	Name           string
	KnownLanguage  language.Tag
	TargetLanguage language.Tag
	MediaDir       string
	Units          []Unit

	unitsByID map[string]*Unit
}

// Unit returns the unit with the given id.
func (c *Course) Unit(id string) (*Unit, bool) {
	u, ok := c.unitsByID[id]
	return u, ok
}

// Threads returns the distinct thread ids in ascending order.
func (c *Course) Threads() []int {
	seen := make(map[int]struct{})
	for _, u := range c.Units {
		seen[u.Thread] = struct{}{}
	}
	threads := make([]int, 0, len(seen))
	for t := range seen {
		threads = append(threads, t)
	}
	sort.Ints(threads)
	return threads
}

// DisplayName returns the course name title-cased for the known language.
func (c *Course) DisplayName() string {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = c.ID
	}
	return cases.Title(c.KnownLanguage).String(name)
}

// LanguagePair renders the known/target pair, e.g. "en-US -> es-ES".
func (c *Course) LanguagePair() string {
	return c.KnownLanguage.String() + " -> " + c.TargetLanguage.String()
}
