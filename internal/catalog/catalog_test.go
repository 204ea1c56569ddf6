package catalog

import (
	"errors"
	"strings"
	"testing"
)

// --- Helper ---

const minimalSections = `
sections:
  - { id: personal, title: { en: P, ar: P } }
  - { id: diet, title: { en: D, ar: D } }
  - { id: activity, title: { en: A, ar: A } }
  - { id: health, title: { en: H, ar: H } }
  - { id: medical, title: { en: M, ar: M } }
`

func minimalDoc(questions, conditions string) []byte {
	return []byte(minimalSections + "questions:\n" + questions + "conditions:\n" + conditions)
}

const threeQuestions = `
  - { id: d1, section: diet, text: { en: d }, options: [ { value: 0, en: a }, { value: 3, en: b } ] }
  - { id: a1, section: activity, text: { en: a }, options: [ { value: 1, en: a } ] }
  - { id: h1, section: health, text: { en: h }, options: [ { value: 2, en: a } ] }
`

// --- Load ---

func TestLoad_BundledCatalog(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	tests := []struct {
		section Section
		want    int
	}{
		{SectionDiet, 6},
		{SectionActivity, 3},
		{SectionHealth, 4},
	}
	for _, tt := range tests {
		qs, err := c.Questions(tt.section)
		if err != nil {
			t.Fatalf("Questions(%s) error: %v", tt.section, err)
		}
		if len(qs) != tt.want {
			t.Errorf("Questions(%s) = %d questions, want %d", tt.section, len(qs), tt.want)
		}
	}

	if got := len(c.Sections()); got != 5 {
		t.Errorf("Sections() = %d, want 5", got)
	}
	if got := len(c.Conditions()); got != 6 {
		t.Errorf("Conditions() = %d, want 6", got)
	}
}

func TestLoad_DeclarationOrder(t *testing.T) {
	c := MustLoad()
	got := strings.Join(c.QuestionIDs(SectionDiet), ",")
	want := "diet-1,diet-2,diet-3,diet-4,diet-5,diet-6"
	if got != want {
		t.Errorf("QuestionIDs(diet) = %q, want %q", got, want)
	}
}

func TestLoad_NonContiguousOptionValues(t *testing.T) {
	c := MustLoad()
	q, err := c.Question("diet-5")
	if err != nil {
		t.Fatalf("Question(diet-5) error: %v", err)
	}
	var values []int
	for _, o := range q.Options {
		values = append(values, o.Value)
	}
	if len(values) != 3 || values[0] != 0 || values[1] != 1 || values[2] != 3 {
		t.Errorf("diet-5 option values = %v, want [0 1 3]", values)
	}
	if q.HasOption(2) {
		t.Error("diet-5 should not accept value 2")
	}
	if !q.HasOption(3) {
		t.Error("diet-5 should accept value 3")
	}
}

func TestLoad_BilingualText(t *testing.T) {
	c := MustLoad()
	q, _ := c.Question("health-2")
	if q.Text.In(LangEN) != "Do you smoke?" {
		t.Errorf("EN text = %q", q.Text.In(LangEN))
	}
	if q.Text.In(LangAR) == q.Text.In(LangEN) {
		t.Error("AR text should differ from EN text")
	}
}

func TestMaxScore(t *testing.T) {
	c := MustLoad()
	tests := []struct {
		section Section
		want    int
	}{
		{SectionDiet, 18},
		{SectionActivity, 9},
		{SectionHealth, 12},
		{SectionPersonal, 0},
	}
	for _, tt := range tests {
		if got := c.MaxScore(tt.section); got != tt.want {
			t.Errorf("MaxScore(%s) = %d, want %d", tt.section, got, tt.want)
		}
	}
}

// --- Questions ---

func TestQuestions_FieldSectionsAreNotFound(t *testing.T) {
	c := MustLoad()
	for _, s := range []Section{SectionPersonal, SectionMedical, Section("bogus")} {
		_, err := c.Questions(s)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Questions(%s) error = %v, want ErrNotFound", s, err)
		}
	}
}

func TestQuestions_ReturnsCopy(t *testing.T) {
	c := MustLoad()
	qs, _ := c.Questions(SectionDiet)
	qs[0].Options[0].Value = 99
	qs[0].ID = "mutated"

	again, _ := c.Questions(SectionDiet)
	if again[0].ID != "diet-1" || again[0].Options[0].Value != 0 {
		t.Error("mutating a returned slice changed the catalog")
	}
}

func TestQuestion_Unknown(t *testing.T) {
	c := MustLoad()
	if _, err := c.Question("diet-99"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Question(diet-99) error = %v, want ErrNotFound", err)
	}
}

func TestOption(t *testing.T) {
	c := MustLoad()
	o, err := c.Option("health-1", 2)
	if err != nil {
		t.Fatalf("Option(health-1, 2) error: %v", err)
	}
	if o.Text.EN != "6–8 hours" {
		t.Errorf("Option text = %q, want %q", o.Text.EN, "6–8 hours")
	}
	if _, err := c.Option("health-1", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Option(health-1, 1) error = %v, want ErrNotFound", err)
	}
}

// --- Conditions ---

func TestHasCondition(t *testing.T) {
	c := MustLoad()
	for _, tag := range []string{"diabetes", "hypertension", "obesity", "heart", "respiratory", "other"} {
		if !c.HasCondition(tag) {
			t.Errorf("HasCondition(%q) = false, want true", tag)
		}
	}
	if c.HasCondition("asthma") {
		t.Error("HasCondition(asthma) = true, want false")
	}
}

// --- Parse integrity ---

func TestParse_Minimal(t *testing.T) {
	c, err := Parse(minimalDoc(threeQuestions, "  - { id: diabetes, en: Diabetes }\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := c.MaxScore(SectionDiet); got != 3 {
		t.Errorf("MaxScore(diet) = %d, want 3", got)
	}
}

func TestParse_IntegrityFailures(t *testing.T) {
	tests := []struct {
		name string
		doc  []byte
	}{
		{
			name: "duplicate question id",
			doc: minimalDoc(threeQuestions+
				"  - { id: d1, section: diet, text: { en: x }, options: [ { value: 0, en: a } ] }\n", ""),
		},
		{
			name: "question without options",
			doc: minimalDoc(threeQuestions+
				"  - { id: d2, section: diet, text: { en: x }, options: [] }\n", ""),
		},
		{
			name: "duplicate option value",
			doc: minimalDoc(threeQuestions+
				"  - { id: d2, section: diet, text: { en: x }, options: [ { value: 1, en: a }, { value: 1, en: b } ] }\n", ""),
		},
		{
			name: "question in personal section",
			doc: minimalDoc(threeQuestions+
				"  - { id: p1, section: personal, text: { en: x }, options: [ { value: 1, en: a } ] }\n", ""),
		},
		{
			name: "empty scored section",
			doc: minimalDoc(
				"  - { id: d1, section: diet, text: { en: d }, options: [ { value: 0, en: a } ] }\n", ""),
		},
		{
			name: "duplicate condition",
			doc:  minimalDoc(threeQuestions, "  - { id: heart, en: H }\n  - { id: heart, en: H }\n"),
		},
		{
			name: "wrong section order",
			doc: []byte(strings.Replace(string(minimalDoc(threeQuestions, "")),
				"- { id: diet, title: { en: D, ar: D } }\n  - { id: activity, title: { en: A, ar: A } }",
				"- { id: activity, title: { en: A, ar: A } }\n  - { id: diet, title: { en: D, ar: D } }", 1)),
		},
		{
			name: "not yaml",
			doc:  []byte("sections: [unclosed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			if !errors.Is(err, ErrIntegrity) {
				t.Errorf("Parse() error = %v, want ErrIntegrity", err)
			}
		})
	}
}

// --- Lang ---

func TestParseLang(t *testing.T) {
	tests := []struct {
		in   string
		want Lang
	}{
		{"en", LangEN},
		{"ar", LangAR},
		{"", LangEN},
		{"fr", LangEN},
		{"AR", LangEN},
	}
	for _, tt := range tests {
		if got := ParseLang(tt.in); got != tt.want {
			t.Errorf("ParseLang(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestText_InFallsBackToEnglish(t *testing.T) {
	txt := Text{EN: "hello"}
	if got := txt.In(LangAR); got != "hello" {
		t.Errorf("In(ar) = %q, want fallback %q", got, "hello")
	}
}
