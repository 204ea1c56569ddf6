package assessment

import (
	"fmt"

	"github.com/HendryAvila/lifetest/internal/catalog"
)

// Snapshot is the serializable form of a session, used to persist drafts
// between stateless requests.
type Snapshot struct {
	Index     int            `json:"index"`
	Lang      catalog.Lang   `json:"lang"`
	Personal  PersonalInfo   `json:"personal_info"`
	Answers   []Answer       `json:"answers"`
	Medical   MedicalHistory `json:"medical_history"`
	Submitted bool           `json:"submitted"`
}

// Snapshot captures the session.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Index:     s.index,
		Lang:      s.lang,
		Personal:  s.personal,
		Answers:   s.Answers(),
		Medical:   s.medical.clone(),
		Submitted: s.result != nil,
	}
}

// Restore rebuilds a session from a snapshot, checking every stored value
// against cat. Every section before the snapshot's index must satisfy its
// gate; a submitted snapshot must satisfy all of them.
func Restore(cat *catalog.Catalog, snap Snapshot) (*Session, error) {
	total := len(cat.Sections())
	if snap.Index < 0 || snap.Index >= total {
		return nil, fmt.Errorf("%w: section index %d out of range", ErrInvalidValue, snap.Index)
	}
	if snap.Lang != "" && !catalog.ValidLang(string(snap.Lang)) {
		return nil, fmt.Errorf("%w: language %q", ErrInvalidValue, snap.Lang)
	}
	if err := snap.Personal.Validate(); err != nil {
		return nil, err
	}

	s := New(cat, snap.Lang)
	s.index = snap.Index
	s.personal = snap.Personal

	seen := make(map[string]bool, len(snap.Answers))
	for _, a := range snap.Answers {
		q, err := cat.Question(a.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownQuestion, a.QuestionID)
		}
		if !q.HasOption(a.Value) {
			return nil, fmt.Errorf("%w: %d for %q", ErrInvalidOption, a.Value, a.QuestionID)
		}
		if seen[a.QuestionID] {
			return nil, fmt.Errorf("%w: duplicate answer for %q", ErrInvalidValue, a.QuestionID)
		}
		seen[a.QuestionID] = true
		s.answers = append(s.answers, a)
	}

	conds, err := s.normalizeConditions(snap.Medical.Conditions)
	if err != nil {
		return nil, err
	}
	if err := ValidateYesNo(snap.Medical.FamilyHistory); err != nil {
		return nil, err
	}
	if err := ValidateYesNo(snap.Medical.Medications); err != nil {
		return nil, err
	}
	s.medical = snap.Medical.clone()
	s.medical.Conditions = conds

	passed := snap.Index
	if snap.Submitted {
		if snap.Index != total-1 {
			return nil, fmt.Errorf("%w: submitted snapshot not on the last section", ErrInvalidValue)
		}
		passed = total
	}
	for i := 0; i < passed; i++ {
		if missing := s.missingAt(i); len(missing) > 0 {
			info, _ := cat.SectionAt(i)
			return nil, &GateError{Section: info.ID, Missing: missing}
		}
	}
	if snap.Submitted {
		res := s.finalize()
		s.result = &res
	}
	return s, nil
}
