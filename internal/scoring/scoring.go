// Package scoring turns a finalized answer set into category scores, a risk
// tier and rule-based recommendations.
//
// Everything here is a pure function of its inputs. An Engine holds only the
// membership lists it derived from the catalog at construction and is safe
// for concurrent use.
package scoring

import (
	"github.com/HendryAvila/lifetest/internal/assessment"
	"github.com/HendryAvila/lifetest/internal/catalog"
)

// Scores holds the per-category sums. Total is always Diet+Activity+Health.
type Scores struct {
	Diet     int `json:"diet"`
	Activity int `json:"activity"`
	Health   int `json:"health"`
	Total    int `json:"total"`
}

// Consistent reports whether Total equals the sum of the categories.
func (s Scores) Consistent() bool {
	return s.Total == s.Diet+s.Activity+s.Health
}

// Engine scores answer sets against a fixed partition of question ids.
type Engine struct {
	diet     map[string]bool
	activity map[string]bool
	health   map[string]bool
}

// NewEngine builds the membership lists from the catalog's scored sections.
// The medical section contributes nothing.
func NewEngine(cat *catalog.Catalog) *Engine {
	return &Engine{
		diet:     members(cat.QuestionIDs(catalog.SectionDiet)),
		activity: members(cat.QuestionIDs(catalog.SectionActivity)),
		health:   members(cat.QuestionIDs(catalog.SectionHealth)),
	}
}

func members(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// Score sums answer values per category. Answers for ids outside the three
// lists are ignored; a missing answer simply contributes nothing.
func (e *Engine) Score(answers []assessment.Answer) Scores {
	var s Scores
	for _, a := range answers {
		switch {
		case e.diet[a.QuestionID]:
			s.Diet += a.Value
		case e.activity[a.QuestionID]:
			s.Activity += a.Value
		case e.health[a.QuestionID]:
			s.Health += a.Value
		}
	}
	s.Total = s.Diet + s.Activity + s.Health
	return s
}

// ScoreMap is Score for answers keyed by question id.
func (e *Engine) ScoreMap(answers map[string]int) Scores {
	list := make([]assessment.Answer, 0, len(answers))
	for id, v := range answers {
		list = append(list, assessment.Answer{QuestionID: id, Value: v})
	}
	return e.Score(list)
}
