package assessment

import (
	"errors"
	"reflect"
	"testing"

	"github.com/HendryAvila/lifetest/internal/catalog"
)

// --- Helpers ---

var testCatalog = catalog.MustLoad()

func validPersonal() PersonalInfo {
	return PersonalInfo{
		Name:         "Sara",
		MobileNumber: "0500000000",
		Age:          "34",
		Gender:       GenderFemale,
		Height:       "165",
		Weight:       "60",
	}
}

// answerSection answers every question of the current section with its first
// option value.
func answerSection(t *testing.T, s *Session) {
	t.Helper()
	st, ok := s.State().(QuestionState)
	if !ok {
		t.Fatalf("State() = %T, want QuestionState", s.State())
	}
	for _, q := range st.Questions {
		if err := s.Answer(q.ID, q.Options[0].Value); err != nil {
			t.Fatalf("Answer(%s) error: %v", q.ID, err)
		}
	}
}

func mustAdvance(t *testing.T, s *Session) *Result {
	t.Helper()
	res, err := s.Advance()
	if err != nil {
		t.Fatalf("Advance() at section %d error: %v", s.Index(), err)
	}
	return res
}

// sessionAtMedical returns a session whose first four sections are complete.
func sessionAtMedical(t *testing.T) *Session {
	t.Helper()
	s := New(testCatalog, catalog.LangEN)
	if err := s.SetPersonal(validPersonal()); err != nil {
		t.Fatalf("SetPersonal error: %v", err)
	}
	mustAdvance(t, s)
	for i := 0; i < 3; i++ {
		answerSection(t, s)
		mustAdvance(t, s)
	}
	if _, ok := s.State().(MedicalState); !ok {
		t.Fatalf("State() = %T, want MedicalState", s.State())
	}
	return s
}

// --- New ---

func TestNew_StartsAtPersonal(t *testing.T) {
	s := New(testCatalog, catalog.LangAR)
	if s.Index() != 0 {
		t.Errorf("Index() = %d, want 0", s.Index())
	}
	if _, ok := s.State().(PersonalState); !ok {
		t.Errorf("State() = %T, want PersonalState", s.State())
	}
	if s.Lang() != catalog.LangAR {
		t.Errorf("Lang() = %q, want ar", s.Lang())
	}
	if s.Total() != 5 {
		t.Errorf("Total() = %d, want 5", s.Total())
	}
}

func TestNew_UnknownLangFallsBackToEnglish(t *testing.T) {
	s := New(testCatalog, catalog.Lang("fr"))
	if s.Lang() != catalog.LangEN {
		t.Errorf("Lang() = %q, want en", s.Lang())
	}
}

// --- Personal gate ---

func TestAdvance_PersonalGateClosed(t *testing.T) {
	s := New(testCatalog, catalog.LangEN)
	p := validPersonal()
	p.MobileNumber = ""
	p.Weight = "  "
	if err := s.SetPersonal(p); err != nil {
		t.Fatalf("SetPersonal error: %v", err)
	}

	res, err := s.Advance()
	if res != nil {
		t.Error("Advance() returned a result on a closed gate")
	}
	var gate *GateError
	if !errors.As(err, &gate) {
		t.Fatalf("Advance() error = %v, want *GateError", err)
	}
	if !errors.Is(err, ErrGateClosed) {
		t.Error("GateError should match ErrGateClosed")
	}
	want := []string{FieldMobileNumber, FieldWeight}
	if !reflect.DeepEqual(gate.Missing, want) {
		t.Errorf("Missing = %v, want %v", gate.Missing, want)
	}
	if s.Index() != 0 {
		t.Errorf("Index() = %d after failed advance, want 0", s.Index())
	}
}

func TestCanProceed_MaritalStatusOptional(t *testing.T) {
	s := New(testCatalog, catalog.LangEN)
	_ = s.SetPersonal(validPersonal())
	if !s.CanProceed() {
		t.Errorf("CanProceed() = false, missing %v", s.Missing())
	}
}

func TestSetPersonal_RejectsBadEnum(t *testing.T) {
	s := New(testCatalog, catalog.LangEN)
	p := validPersonal()
	p.Gender = "other"
	if err := s.SetPersonal(p); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("SetPersonal error = %v, want ErrInvalidValue", err)
	}
	p = validPersonal()
	p.MaritalStatus = "divorced"
	if err := s.SetPersonal(p); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("SetPersonal error = %v, want ErrInvalidValue", err)
	}
}

func TestSetField(t *testing.T) {
	s := New(testCatalog, catalog.LangEN)
	for _, f := range []struct{ field, value string }{
		{FieldName, "Ali"}, {FieldMobileNumber, "1"}, {FieldAge, "40"},
		{FieldGender, "male"}, {FieldHeight, "180"}, {FieldWeight, "81"},
		{FieldMaritalStatus, "married"},
	} {
		if err := s.SetField(f.field, f.value); err != nil {
			t.Fatalf("SetField(%s) error: %v", f.field, err)
		}
	}
	if !s.CanProceed() {
		t.Errorf("CanProceed() = false, missing %v", s.Missing())
	}
	if err := s.SetField("shoe_size", "44"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("SetField(unknown) error = %v, want ErrInvalidValue", err)
	}
	if err := s.SetField(FieldGender, "x"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("SetField(gender, x) error = %v, want ErrInvalidValue", err)
	}
	if s.Personal().Gender != GenderMale {
		t.Error("rejected SetField should not change the stored value")
	}
}

// --- Answer ---

func TestAnswer_WrongSection(t *testing.T) {
	s := New(testCatalog, catalog.LangEN)
	if err := s.Answer("diet-1", 0); !errors.Is(err, ErrWrongSection) {
		t.Errorf("Answer in personal section error = %v, want ErrWrongSection", err)
	}

	_ = s.SetPersonal(validPersonal())
	mustAdvance(t, s)
	if err := s.Answer("activity-1", 0); !errors.Is(err, ErrWrongSection) {
		t.Errorf("Answer(activity-1) in diet error = %v, want ErrWrongSection", err)
	}
}

func TestAnswer_UnknownQuestionAndOption(t *testing.T) {
	s := New(testCatalog, catalog.LangEN)
	_ = s.SetPersonal(validPersonal())
	mustAdvance(t, s)

	if err := s.Answer("diet-9", 0); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("Answer(diet-9) error = %v, want ErrUnknownQuestion", err)
	}
	if err := s.Answer("diet-5", 2); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("Answer(diet-5, 2) error = %v, want ErrInvalidOption", err)
	}
	if len(s.Answers()) != 0 {
		t.Errorf("rejected answers were recorded: %v", s.Answers())
	}
}

func TestAnswer_LastWriteWins(t *testing.T) {
	s := New(testCatalog, catalog.LangEN)
	_ = s.SetPersonal(validPersonal())
	mustAdvance(t, s)

	_ = s.Answer("diet-1", 1)
	_ = s.Answer("diet-2", 1)
	_ = s.Answer("diet-1", 3)

	got := s.Answers()
	want := []Answer{{"diet-1", 3}, {"diet-2", 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Answers() = %v, want %v", got, want)
	}
}

func TestQuestionState_CarriesSectionAnswers(t *testing.T) {
	s := New(testCatalog, catalog.LangEN)
	_ = s.SetPersonal(validPersonal())
	mustAdvance(t, s)
	_ = s.Answer("diet-4", 2)

	st := s.State().(QuestionState)
	if st.Section != catalog.SectionDiet {
		t.Errorf("Section = %q, want diet", st.Section)
	}
	if len(st.Questions) != 6 {
		t.Errorf("Questions = %d, want 6", len(st.Questions))
	}
	if v, ok := st.Answers["diet-4"]; !ok || v != 2 {
		t.Errorf("Answers[diet-4] = %d, %v; want 2, true", v, ok)
	}
}

// --- Question gate ---

func TestAdvance_QuestionGateListsUnanswered(t *testing.T) {
	s := New(testCatalog, catalog.LangEN)
	_ = s.SetPersonal(validPersonal())
	mustAdvance(t, s)
	for _, id := range []string{"diet-1", "diet-2", "diet-4", "diet-6"} {
		_ = s.Answer(id, 0)
	}

	_, err := s.Advance()
	var gate *GateError
	if !errors.As(err, &gate) {
		t.Fatalf("Advance() error = %v, want *GateError", err)
	}
	if gate.Section != catalog.SectionDiet {
		t.Errorf("Section = %q, want diet", gate.Section)
	}
	want := []string{"diet-3", "diet-5"}
	if !reflect.DeepEqual(gate.Missing, want) {
		t.Errorf("Missing = %v, want %v", gate.Missing, want)
	}
}

// --- Medical ---

func TestMedical_GateIgnoresMedicationDetails(t *testing.T) {
	s := sessionAtMedical(t)
	if got := s.Missing(); !reflect.DeepEqual(got, []string{"family_history", "medications"}) {
		t.Errorf("Missing() = %v", got)
	}
	_ = s.SetFamilyHistory(No)
	_ = s.SetMedications(Yes)
	if !s.CanProceed() {
		t.Errorf("CanProceed() = false with empty medication details, missing %v", s.Missing())
	}
}

func TestToggleCondition(t *testing.T) {
	s := sessionAtMedical(t)
	for _, tag := range []string{"heart", "diabetes", "obesity", "heart"} {
		if err := s.ToggleCondition(tag); err != nil {
			t.Fatalf("ToggleCondition(%s) error: %v", tag, err)
		}
	}
	want := []string{"diabetes", "obesity"}
	if got := s.Medical().Conditions; !reflect.DeepEqual(got, want) {
		t.Errorf("Conditions = %v, want %v", got, want)
	}
	if err := s.ToggleCondition("asthma"); !errors.Is(err, ErrUnknownCondition) {
		t.Errorf("ToggleCondition(asthma) error = %v, want ErrUnknownCondition", err)
	}
}

func TestSetMedical(t *testing.T) {
	s := sessionAtMedical(t)
	err := s.SetMedical(MedicalHistory{
		Conditions:    []string{"heart", "heart", "hypertension"},
		FamilyHistory: Yes,
		Medications:   No,
	})
	if err != nil {
		t.Fatalf("SetMedical error: %v", err)
	}
	if got := s.Medical().Conditions; !reflect.DeepEqual(got, []string{"heart", "hypertension"}) {
		t.Errorf("Conditions = %v", got)
	}
	if err := s.SetMedical(MedicalHistory{Conditions: []string{"flu"}}); !errors.Is(err, ErrUnknownCondition) {
		t.Errorf("SetMedical(flu) error = %v, want ErrUnknownCondition", err)
	}
	if err := s.SetMedical(MedicalHistory{FamilyHistory: "maybe"}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("SetMedical(maybe) error = %v, want ErrInvalidValue", err)
	}
}

func TestMedical_WrongSection(t *testing.T) {
	s := New(testCatalog, catalog.LangEN)
	if err := s.ToggleCondition("heart"); !errors.Is(err, ErrWrongSection) {
		t.Errorf("ToggleCondition in personal error = %v, want ErrWrongSection", err)
	}
	if err := s.SetFamilyHistory(Yes); !errors.Is(err, ErrWrongSection) {
		t.Errorf("SetFamilyHistory in personal error = %v, want ErrWrongSection", err)
	}
}

// --- Finalization ---

func TestAdvance_Finalizes(t *testing.T) {
	s := sessionAtMedical(t)
	_ = s.ToggleCondition("diabetes")
	_ = s.SetFamilyHistory(Yes)
	_ = s.SetMedications(No)

	res := mustAdvance(t, s)
	if res == nil {
		t.Fatal("Advance() from last section returned nil result")
	}
	if len(res.Answers) != 13 {
		t.Errorf("Answers = %d, want 13", len(res.Answers))
	}
	if res.Answers[0].QuestionID != "diet-1" || res.Answers[12].QuestionID != "health-4" {
		t.Errorf("answers not in catalog order: first %s last %s",
			res.Answers[0].QuestionID, res.Answers[12].QuestionID)
	}
	if !s.Submitted() {
		t.Error("Submitted() = false after finalization")
	}
	if _, ok := s.State().(SubmittedState); !ok {
		t.Errorf("State() = %T, want SubmittedState", s.State())
	}

	// The returned result is a copy.
	res.Medical.Conditions[0] = "heart"
	again, _ := s.Result()
	if again.Medical.Conditions[0] != "diabetes" {
		t.Error("mutating the returned result changed the session")
	}
}

func TestSubmitted_RejectsEverything(t *testing.T) {
	s := sessionAtMedical(t)
	_ = s.SetFamilyHistory(No)
	_ = s.SetMedications(No)
	mustAdvance(t, s)

	if _, err := s.Advance(); !errors.Is(err, ErrSubmitted) {
		t.Errorf("Advance error = %v, want ErrSubmitted", err)
	}
	if _, err := s.Retreat(); !errors.Is(err, ErrSubmitted) {
		t.Errorf("Retreat error = %v, want ErrSubmitted", err)
	}
	if err := s.Answer("diet-1", 0); !errors.Is(err, ErrSubmitted) {
		t.Errorf("Answer error = %v, want ErrSubmitted", err)
	}
	if err := s.ToggleCondition("heart"); !errors.Is(err, ErrSubmitted) {
		t.Errorf("ToggleCondition error = %v, want ErrSubmitted", err)
	}
	if s.CanProceed() {
		t.Error("CanProceed() = true after submission")
	}
}

// --- Retreat ---

func TestRetreat(t *testing.T) {
	s := New(testCatalog, catalog.LangEN)
	exit, err := s.Retreat()
	if err != nil || !exit {
		t.Errorf("Retreat() at 0 = %v, %v; want true, nil", exit, err)
	}
	if s.Index() != 0 {
		t.Errorf("Index() = %d after exit, want 0", s.Index())
	}

	_ = s.SetPersonal(validPersonal())
	mustAdvance(t, s)
	_ = s.Answer("diet-1", 2)

	exit, err = s.Retreat()
	if err != nil || exit {
		t.Errorf("Retreat() at 1 = %v, %v; want false, nil", exit, err)
	}
	if _, ok := s.State().(PersonalState); !ok {
		t.Errorf("State() = %T, want PersonalState", s.State())
	}
	if v, ok := s.AnswerValue("diet-1"); !ok || v != 2 {
		t.Error("Retreat should keep answers already given")
	}
}

// --- Gate flips when an answer is removed ---

func TestRestore_GateFlipsWhenAnswerRemoved(t *testing.T) {
	s := New(testCatalog, catalog.LangEN)
	_ = s.SetPersonal(validPersonal())
	mustAdvance(t, s)
	answerSection(t, s)
	if !s.CanProceed() {
		t.Fatal("gate should be open with every diet question answered")
	}

	snap := s.Snapshot()
	snap.Answers = snap.Answers[1:]
	restored, err := Restore(testCatalog, snap)
	if err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	if restored.CanProceed() {
		t.Error("gate should close once an answer is removed")
	}
	if got := restored.Missing(); !reflect.DeepEqual(got, []string{"diet-1"}) {
		t.Errorf("Missing() = %v, want [diet-1]", got)
	}
}
