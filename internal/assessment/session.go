package assessment

import (
	"fmt"

	"github.com/HendryAvila/lifetest/internal/catalog"
)

// --- State variants ---

// State is the tagged view of where a session stands. The concrete types are
// PersonalState, QuestionState, MedicalState and SubmittedState.
type State interface {
	isState()
}

// PersonalState is section 0.
type PersonalState struct {
	Info PersonalInfo
}

// QuestionState is one of the scored sections.
type QuestionState struct {
	Section   catalog.Section
	Questions []catalog.Question
	// Answers holds the values chosen so far for this section's questions.
	Answers map[string]int
}

// MedicalState is the last section.
type MedicalState struct {
	History    MedicalHistory
	Conditions []catalog.Condition
}

// SubmittedState is terminal.
type SubmittedState struct {
	Result Result
}

func (PersonalState) isState()  {}
func (QuestionState) isState()  {}
func (MedicalState) isState()   {}
func (SubmittedState) isState() {}

// --- Session ---

// Session is one respondent's walk through the catalog.
type Session struct {
	cat      *catalog.Catalog
	lang     catalog.Lang
	index    int
	personal PersonalInfo
	answers  []Answer
	medical  MedicalHistory
	result   *Result
}

// New starts a session at the personal information section.
func New(cat *catalog.Catalog, lang catalog.Lang) *Session {
	return &Session{cat: cat, lang: catalog.ParseLang(string(lang))}
}

// Lang returns the session language.
func (s *Session) Lang() catalog.Lang { return s.lang }

// SetLang switches the display language. Allowed until submission.
func (s *Session) SetLang(lang catalog.Lang) error {
	if s.result != nil {
		return ErrSubmitted
	}
	s.lang = catalog.ParseLang(string(lang))
	return nil
}

// Catalog returns the catalog the session walks.
func (s *Session) Catalog() *catalog.Catalog { return s.cat }

// Index is the current section position, 0-based.
func (s *Session) Index() int { return s.index }

// Total is the number of sections.
func (s *Session) Total() int { return len(s.cat.Sections()) }

// Section describes the current section. After submission it stays on the
// last section.
func (s *Session) Section() catalog.SectionInfo {
	info, _ := s.cat.SectionAt(s.index)
	return info
}

// Submitted reports whether the session reached its terminal state.
func (s *Session) Submitted() bool { return s.result != nil }

// Result returns the finalized result once submitted.
func (s *Session) Result() (Result, bool) {
	if s.result == nil {
		return Result{}, false
	}
	return s.result.clone(), true
}

// Personal returns the personal information entered so far.
func (s *Session) Personal() PersonalInfo { return s.personal }

// Medical returns the medical history entered so far.
func (s *Session) Medical() MedicalHistory { return s.medical.clone() }

// Answers returns every recorded answer in the order first given.
func (s *Session) Answers() []Answer { return append([]Answer(nil), s.answers...) }

// AnswerValue returns the recorded value for a question.
func (s *Session) AnswerValue(questionID string) (int, bool) {
	for _, a := range s.answers {
		if a.QuestionID == questionID {
			return a.Value, true
		}
	}
	return 0, false
}

// State returns the tagged variant for the current position.
func (s *Session) State() State {
	if s.result != nil {
		return SubmittedState{Result: s.result.clone()}
	}
	sec := s.Section().ID
	switch {
	case sec == catalog.SectionPersonal:
		return PersonalState{Info: s.personal}
	case sec == catalog.SectionMedical:
		return MedicalState{History: s.medical.clone(), Conditions: s.cat.Conditions()}
	default:
		qs, _ := s.cat.Questions(sec)
		answered := make(map[string]int, len(qs))
		for _, q := range qs {
			if v, ok := s.AnswerValue(q.ID); ok {
				answered[q.ID] = v
			}
		}
		return QuestionState{Section: sec, Questions: qs, Answers: answered}
	}
}

// --- Mutations ---

func (s *Session) requireSection(want catalog.Section) error {
	if s.result != nil {
		return ErrSubmitted
	}
	if got := s.Section().ID; got != want {
		return fmt.Errorf("%w: in %q, need %q", ErrWrongSection, got, want)
	}
	return nil
}

// Answer records value for a question of the current section. A second
// answer to the same question replaces the first in place.
func (s *Session) Answer(questionID string, value int) error {
	if s.result != nil {
		return ErrSubmitted
	}
	sec := s.Section().ID
	if !sec.IsScored() {
		return fmt.Errorf("%w: %q has no questions", ErrWrongSection, sec)
	}
	q, err := s.cat.Question(questionID)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownQuestion, questionID)
	}
	if q.Section != sec {
		return fmt.Errorf("%w: question %q belongs to %q, current section is %q",
			ErrWrongSection, questionID, q.Section, sec)
	}
	if !q.HasOption(value) {
		return fmt.Errorf("%w: %d for %q", ErrInvalidOption, value, questionID)
	}

	for i := range s.answers {
		if s.answers[i].QuestionID == questionID {
			s.answers[i].Value = value
			return nil
		}
	}
	s.answers = append(s.answers, Answer{QuestionID: questionID, Value: value})
	return nil
}

// SetPersonal replaces the personal information.
func (s *Session) SetPersonal(info PersonalInfo) error {
	if err := s.requireSection(catalog.SectionPersonal); err != nil {
		return err
	}
	if err := info.Validate(); err != nil {
		return err
	}
	s.personal = info
	return nil
}

// SetField updates one personal information field by name.
func (s *Session) SetField(field, value string) error {
	if err := s.requireSection(catalog.SectionPersonal); err != nil {
		return err
	}
	p := s.personal
	switch field {
	case FieldName:
		p.Name = value
	case FieldMobileNumber:
		p.MobileNumber = value
	case FieldAge:
		p.Age = value
	case FieldGender:
		p.Gender = Gender(value)
	case FieldHeight:
		p.Height = value
	case FieldWeight:
		p.Weight = value
	case FieldMaritalStatus:
		p.MaritalStatus = MaritalStatus(value)
	default:
		return fmt.Errorf("%w: unknown personal field %q", ErrInvalidValue, field)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.personal = p
	return nil
}

// SetMedical replaces the medical history. Condition tags must come from the
// catalog vocabulary; repeats are collapsed keeping first position.
func (s *Session) SetMedical(m MedicalHistory) error {
	if err := s.requireSection(catalog.SectionMedical); err != nil {
		return err
	}
	conds, err := s.normalizeConditions(m.Conditions)
	if err != nil {
		return err
	}
	if err := ValidateYesNo(m.FamilyHistory); err != nil {
		return err
	}
	if err := ValidateYesNo(m.Medications); err != nil {
		return err
	}
	m.Conditions = conds
	s.medical = m
	return nil
}

// ToggleCondition adds tag if absent, removes it if present.
func (s *Session) ToggleCondition(tag string) error {
	if err := s.requireSection(catalog.SectionMedical); err != nil {
		return err
	}
	if !s.cat.HasCondition(tag) {
		return fmt.Errorf("%w: %q", ErrUnknownCondition, tag)
	}
	for i, c := range s.medical.Conditions {
		if c == tag {
			s.medical.Conditions = append(s.medical.Conditions[:i:i], s.medical.Conditions[i+1:]...)
			return nil
		}
	}
	s.medical.Conditions = append(s.medical.Conditions, tag)
	return nil
}

// SetFamilyHistory records the family history answer.
func (s *Session) SetFamilyHistory(v YesNo) error {
	if err := s.requireSection(catalog.SectionMedical); err != nil {
		return err
	}
	if err := ValidateYesNo(v); err != nil {
		return err
	}
	s.medical.FamilyHistory = v
	return nil
}

// SetMedications records whether the respondent takes medication.
func (s *Session) SetMedications(v YesNo) error {
	if err := s.requireSection(catalog.SectionMedical); err != nil {
		return err
	}
	if err := ValidateYesNo(v); err != nil {
		return err
	}
	s.medical.Medications = v
	return nil
}

// SetMedicationsDetails records the free-text medication list.
func (s *Session) SetMedicationsDetails(details string) error {
	if err := s.requireSection(catalog.SectionMedical); err != nil {
		return err
	}
	s.medical.MedicationsDetails = details
	return nil
}

func (s *Session) normalizeConditions(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if !s.cat.HasCondition(t) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCondition, t)
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

// --- Gate ---

// missingAt lists what section i still needs.
func (s *Session) missingAt(i int) []string {
	info, ok := s.cat.SectionAt(i)
	if !ok {
		return nil
	}
	switch info.ID {
	case catalog.SectionPersonal:
		return s.personal.missing()
	case catalog.SectionMedical:
		return s.medical.missing()
	default:
		var out []string
		for _, id := range s.cat.QuestionIDs(info.ID) {
			if _, ok := s.AnswerValue(id); !ok {
				out = append(out, id)
			}
		}
		return out
	}
}

// Missing lists what the current section still needs, in form order.
// It is empty after submission.
func (s *Session) Missing() []string {
	if s.result != nil {
		return nil
	}
	return s.missingAt(s.index)
}

// CanProceed reports whether the current section's gate is open.
func (s *Session) CanProceed() bool {
	return s.result == nil && len(s.Missing()) == 0
}

// --- Transitions ---

// Advance moves to the next section. From the last section it finalizes the
// session and returns the Result. A closed gate returns a *GateError and
// leaves the session unchanged.
func (s *Session) Advance() (*Result, error) {
	if s.result != nil {
		return nil, ErrSubmitted
	}
	if missing := s.Missing(); len(missing) > 0 {
		return nil, &GateError{Section: s.Section().ID, Missing: missing}
	}
	if s.index < s.Total()-1 {
		s.index++
		return nil, nil
	}

	res := s.finalize()
	s.result = &res
	out := res.clone()
	return &out, nil
}

// finalize orders the answers by catalog section and declaration so the
// result does not depend on the path the respondent took.
func (s *Session) finalize() Result {
	ordered := make([]Answer, 0, len(s.answers))
	for _, sec := range s.cat.Sections() {
		for _, id := range s.cat.QuestionIDs(sec.ID) {
			if v, ok := s.AnswerValue(id); ok {
				ordered = append(ordered, Answer{QuestionID: id, Value: v})
			}
		}
	}
	return Result{
		Personal: s.personal,
		Answers:  ordered,
		Medical:  s.medical.clone(),
		Lang:     s.lang,
	}
}

// Retreat moves back one section. At the first section it reports exit and
// leaves the session where it is; the caller decides what leaving means.
func (s *Session) Retreat() (exit bool, err error) {
	if s.result != nil {
		return false, ErrSubmitted
	}
	if s.index == 0 {
		return true, nil
	}
	s.index--
	return false, nil
}
