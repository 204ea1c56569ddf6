// Package catalog holds the static lifestyle questionnaire: the ordered
// sections, the scored questions with their options, and the vocabulary of
// medical conditions a respondent may report.
//
// The catalog is built once at startup from an embedded YAML document and is
// read-only afterwards. It is passed by pointer to the assessment state
// machine and the scoring engine; nothing here is package-level mutable state.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

// ErrIntegrity is returned when a catalog document is internally inconsistent.
// It is fatal at startup.
var ErrIntegrity = errors.New("catalog integrity")

// ErrNotFound is returned for lookups of ids or sections the catalog lacks.
var ErrNotFound = errors.New("not found in catalog")

// --- Language ---

// Lang selects the text variant shown to the respondent.
type Lang string

const (
	LangEN Lang = "en"
	LangAR Lang = "ar"
)

// ParseLang resolves a raw language tag. Anything other than "ar" is English.
func ParseLang(s string) Lang {
	if Lang(s) == LangAR {
		return LangAR
	}
	return LangEN
}

// ValidLang reports whether s is exactly one of the supported tags.
func ValidLang(s string) bool {
	return Lang(s) == LangEN || Lang(s) == LangAR
}

// Text is a bilingual string.
type Text struct {
	EN string `yaml:"en" json:"en"`
	AR string `yaml:"ar" json:"ar"`
}

// In returns the variant for lang, falling back to English when the Arabic
// text is empty.
func (t Text) In(lang Lang) string {
	if lang == LangAR && t.AR != "" {
		return t.AR
	}
	return t.EN
}

// --- Section enum ---

// Section tags a part of the questionnaire.
type Section string

const (
	SectionPersonal Section = "personal"
	SectionDiet     Section = "diet"
	SectionActivity Section = "activity"
	SectionHealth   Section = "health"
	SectionMedical  Section = "medical"
)

// sectionOrder is the only walk order the state machine supports.
var sectionOrder = []Section{
	SectionPersonal,
	SectionDiet,
	SectionActivity,
	SectionHealth,
	SectionMedical,
}

// scored is the set of sections made of discrete answers.
var scored = map[Section]bool{
	SectionDiet:     true,
	SectionActivity: true,
	SectionHealth:   true,
}

// IsScored reports whether the section is answered through catalog questions.
func (s Section) IsScored() bool { return scored[s] }

// --- Core data structures ---

// Option is one selectable answer. Value is the points it is worth.
type Option struct {
	Value int  `yaml:"value" json:"value"`
	Text  Text `yaml:",inline" json:"text"`
}

// Question is a scored item.
type Question struct {
	ID      string   `yaml:"id" json:"id"`
	Section Section  `yaml:"section" json:"section"`
	Text    Text     `yaml:"text" json:"text"`
	Options []Option `yaml:"options" json:"options"`
}

// HasOption reports whether value is one of the question's option values.
func (q Question) HasOption(value int) bool {
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// MaxValue returns the highest option value.
func (q Question) MaxValue() int {
	max := 0
	for i, o := range q.Options {
		if i == 0 || o.Value > max {
			max = o.Value
		}
	}
	return max
}

// Condition is a medical condition tag.
type Condition struct {
	ID   string `yaml:"id" json:"id"`
	Name Text   `yaml:",inline" json:"name"`
}

// SectionInfo describes one section in walk order.
type SectionInfo struct {
	ID    Section `yaml:"id" json:"id"`
	Title Text    `yaml:"title" json:"title"`
}

// document is the YAML shape.
type document struct {
	Sections   []SectionInfo `yaml:"sections"`
	Questions  []Question    `yaml:"questions"`
	Conditions []Condition   `yaml:"conditions"`
}

// Catalog is the immutable questionnaire. Use the accessor methods; they
// return copies so callers cannot mutate shared state.
type Catalog struct {
	sections   []SectionInfo
	questions  []Question
	conditions []Condition

	byID      map[string]int
	bySection map[Section][]int
	condByID  map[string]int
}

// Load parses the bundled catalog.
func Load() (*Catalog, error) {
	return Parse(embedded)
}

// MustLoad is Load for package initialisation and tests. It panics on a
// broken embedded document.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFile parses a catalog document from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and checks a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}

	c := &Catalog{
		sections:   doc.Sections,
		questions:  doc.Questions,
		conditions: doc.Conditions,
		byID:       make(map[string]int, len(doc.Questions)),
		bySection:  make(map[Section][]int),
		condByID:   make(map[string]int, len(doc.Conditions)),
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) index() error {
	if len(c.sections) != len(sectionOrder) {
		return fmt.Errorf("%w: want %d sections, got %d", ErrIntegrity, len(sectionOrder), len(c.sections))
	}
	for i, s := range c.sections {
		if s.ID != sectionOrder[i] {
			return fmt.Errorf("%w: section %d is %q, want %q", ErrIntegrity, i, s.ID, sectionOrder[i])
		}
	}

	for i, q := range c.questions {
		if q.ID == "" {
			return fmt.Errorf("%w: question %d has no id", ErrIntegrity, i)
		}
		if _, dup := c.byID[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", ErrIntegrity, q.ID)
		}
		if !q.Section.IsScored() {
			return fmt.Errorf("%w: question %q in non-question section %q", ErrIntegrity, q.ID, q.Section)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %q has no options", ErrIntegrity, q.ID)
		}
		seen := make(map[int]bool, len(q.Options))
		for _, o := range q.Options {
			if seen[o.Value] {
				return fmt.Errorf("%w: question %q repeats option value %d", ErrIntegrity, q.ID, o.Value)
			}
			seen[o.Value] = true
		}
		c.byID[q.ID] = i
		c.bySection[q.Section] = append(c.bySection[q.Section], i)
	}

	for _, s := range sectionOrder {
		if s.IsScored() && len(c.bySection[s]) == 0 {
			return fmt.Errorf("%w: section %q has no questions", ErrIntegrity, s)
		}
	}

	for i, cond := range c.conditions {
		if cond.ID == "" {
			return fmt.Errorf("%w: condition %d has no id", ErrIntegrity, i)
		}
		if _, dup := c.condByID[cond.ID]; dup {
			return fmt.Errorf("%w: duplicate condition %q", ErrIntegrity, cond.ID)
		}
		c.condByID[cond.ID] = i
	}
	return nil
}

// --- Accessors ---

// Sections returns the sections in walk order.
func (c *Catalog) Sections() []SectionInfo {
	out := make([]SectionInfo, len(c.sections))
	copy(out, c.sections)
	return out
}

// SectionAt returns the section at walk index i.
func (c *Catalog) SectionAt(i int) (SectionInfo, bool) {
	if i < 0 || i >= len(c.sections) {
		return SectionInfo{}, false
	}
	return c.sections[i], true
}

// Questions returns the questions of a section in declaration order.
// Personal and medical sections collect fields rather than answers, so they
// return ErrNotFound like any unknown tag.
func (c *Catalog) Questions(section Section) ([]Question, error) {
	idx, ok := c.bySection[section]
	if !ok {
		return nil, fmt.Errorf("section %q: %w", section, ErrNotFound)
	}
	out := make([]Question, 0, len(idx))
	for _, i := range idx {
		out = append(out, cloneQuestion(c.questions[i]))
	}
	return out, nil
}

// QuestionIDs returns the ids of a section's questions, nil for sections
// without questions.
func (c *Catalog) QuestionIDs(section Section) []string {
	idx := c.bySection[section]
	if len(idx) == 0 {
		return nil
	}
	ids := make([]string, len(idx))
	for n, i := range idx {
		ids[n] = c.questions[i].ID
	}
	return ids
}

// Question looks up a question by id.
func (c *Catalog) Question(id string) (Question, error) {
	i, ok := c.byID[id]
	if !ok {
		return Question{}, fmt.Errorf("question %q: %w", id, ErrNotFound)
	}
	return cloneQuestion(c.questions[i]), nil
}

// Option looks up the option of question id carrying value.
func (c *Catalog) Option(id string, value int) (Option, error) {
	i, ok := c.byID[id]
	if !ok {
		return Option{}, fmt.Errorf("question %q: %w", id, ErrNotFound)
	}
	for _, o := range c.questions[i].Options {
		if o.Value == value {
			return o, nil
		}
	}
	return Option{}, fmt.Errorf("question %q option %d: %w", id, value, ErrNotFound)
}

// Conditions returns the condition vocabulary in display order.
func (c *Catalog) Conditions() []Condition {
	out := make([]Condition, len(c.conditions))
	copy(out, c.conditions)
	return out
}

// HasCondition reports whether tag is in the vocabulary.
func (c *Catalog) HasCondition(tag string) bool {
	_, ok := c.condByID[tag]
	return ok
}

// Condition looks up a condition by tag.
func (c *Catalog) Condition(tag string) (Condition, error) {
	i, ok := c.condByID[tag]
	if !ok {
		return Condition{}, fmt.Errorf("condition %q: %w", tag, ErrNotFound)
	}
	return c.conditions[i], nil
}

// MaxScore returns the highest reachable score for a section.
func (c *Catalog) MaxScore(section Section) int {
	total := 0
	for _, i := range c.bySection[section] {
		total += c.questions[i].MaxValue()
	}
	return total
}

func cloneQuestion(q Question) Question {
	q.Options = append([]Option(nil), q.Options...)
	return q
}
