// Package assessment walks a respondent through the lifestyle questionnaire.
//
// A Session moves over the catalog sections in order: personal information,
// the three scored sections, then medical history. Every forward move is
// guarded by a completion gate; advancing past the last section finalizes the
// session into an immutable Result that scoring can consume.
//
// The package does no I/O. A Session belongs to one caller at a time.
package assessment

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/HendryAvila/lifetest/internal/catalog"
)

// --- Errors ---

var (
	// ErrGateClosed is the root of every *GateError.
	ErrGateClosed = errors.New("section incomplete")

	ErrWrongSection     = errors.New("operation not allowed in the current section")
	ErrUnknownQuestion  = errors.New("unknown question")
	ErrInvalidOption    = errors.New("value is not an option of the question")
	ErrUnknownCondition = errors.New("unknown medical condition")
	ErrInvalidValue     = errors.New("invalid value")
	ErrSubmitted        = errors.New("assessment already submitted")
)

// GateError lists what keeps the current section from being completed.
type GateError struct {
	Section catalog.Section
	Missing []string
}

func (e *GateError) Error() string {
	return fmt.Sprintf("section %q incomplete: missing %s", e.Section, strings.Join(e.Missing, ", "))
}

// Unwrap lets errors.Is match ErrGateClosed.
func (e *GateError) Unwrap() error { return ErrGateClosed }

// --- Gender enum ---

// Gender as collected on the personal information form.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

var validGenders = map[Gender]bool{
	GenderMale:   true,
	GenderFemale: true,
}

// ValidateGender accepts the empty value so a form can be filled gradually.
func ValidateGender(g Gender) error {
	if g != "" && !validGenders[g] {
		return fmt.Errorf("%w: gender %q must be one of: male, female", ErrInvalidValue, g)
	}
	return nil
}

// --- Marital status enum ---

// MaritalStatus is optional.
type MaritalStatus string

const (
	MaritalSingle  MaritalStatus = "single"
	MaritalMarried MaritalStatus = "married"
)

var validMarital = map[MaritalStatus]bool{
	MaritalSingle:  true,
	MaritalMarried: true,
}

// ValidateMaritalStatus accepts the empty value.
func ValidateMaritalStatus(m MaritalStatus) error {
	if m != "" && !validMarital[m] {
		return fmt.Errorf("%w: marital status %q must be one of: single, married", ErrInvalidValue, m)
	}
	return nil
}

// --- Yes/no enum ---

// YesNo is a tri-state answer: empty means not answered yet.
type YesNo string

const (
	Yes YesNo = "yes"
	No  YesNo = "no"
)

// ValidateYesNo accepts the empty value.
func ValidateYesNo(v YesNo) error {
	if v != "" && v != Yes && v != No {
		return fmt.Errorf("%w: %q must be yes or no", ErrInvalidValue, v)
	}
	return nil
}

// --- Personal information ---

// Personal information field names, as reported by Missing and accepted by
// Session.SetField.
const (
	FieldName          = "name"
	FieldMobileNumber  = "mobile_number"
	FieldAge           = "age"
	FieldGender        = "gender"
	FieldHeight        = "height"
	FieldWeight        = "weight"
	FieldMaritalStatus = "marital_status"
)

// PersonalFields lists the personal fields in form order.
var PersonalFields = []string{
	FieldName, FieldMobileNumber, FieldAge, FieldGender,
	FieldHeight, FieldWeight, FieldMaritalStatus,
}

// PersonalInfo is stored as entered. Height is centimetres, weight kilograms.
type PersonalInfo struct {
	Name          string        `json:"name"`
	MobileNumber  string        `json:"mobile_number"`
	Age           string        `json:"age"`
	Gender        Gender        `json:"gender"`
	Height        string        `json:"height"`
	Weight        string        `json:"weight"`
	MaritalStatus MaritalStatus `json:"marital_status"`
}

// Validate checks the enum fields. Presence is the gate's concern.
func (p PersonalInfo) Validate() error {
	if err := ValidateGender(p.Gender); err != nil {
		return err
	}
	return ValidateMaritalStatus(p.MaritalStatus)
}

// missing returns the required fields that are blank. Marital status is
// optional.
func (p PersonalInfo) missing() []string {
	var out []string
	check := func(field, v string) {
		if strings.TrimSpace(v) == "" {
			out = append(out, field)
		}
	}
	check(FieldName, p.Name)
	check(FieldMobileNumber, p.MobileNumber)
	check(FieldAge, p.Age)
	check(FieldGender, string(p.Gender))
	check(FieldHeight, p.Height)
	check(FieldWeight, p.Weight)
	return out
}

// Get returns a field by name.
func (p PersonalInfo) Get(field string) (string, bool) {
	switch field {
	case FieldName:
		return p.Name, true
	case FieldMobileNumber:
		return p.MobileNumber, true
	case FieldAge:
		return p.Age, true
	case FieldGender:
		return string(p.Gender), true
	case FieldHeight:
		return p.Height, true
	case FieldWeight:
		return p.Weight, true
	case FieldMaritalStatus:
		return string(p.MaritalStatus), true
	}
	return "", false
}

// BMI is the body mass index for this person, see BMI.
func (p PersonalInfo) BMI() string { return BMI(p.Height, p.Weight) }

// BMI computes weight / (height in metres)² from raw form values and formats
// it with one decimal. It returns "" when either value is missing, not a
// number or not positive.
func BMI(heightCM, weightKG string) string {
	h, err := strconv.ParseFloat(strings.TrimSpace(heightCM), 64)
	if err != nil || !(h > 0) || math.IsInf(h, 0) {
		return ""
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(weightKG), 64)
	if err != nil || !(w > 0) || math.IsInf(w, 0) {
		return ""
	}
	m := h / 100
	return strconv.FormatFloat(w/(m*m), 'f', 1, 64)
}

// --- Medical history ---

// MedicalHistory is the last section of the questionnaire.
type MedicalHistory struct {
	Conditions         []string `json:"conditions"`
	FamilyHistory      YesNo    `json:"family_history"`
	Medications        YesNo    `json:"medications"`
	MedicationsDetails string   `json:"medications_details"`
}

// Has reports whether tag was selected.
func (m MedicalHistory) Has(tag string) bool {
	for _, c := range m.Conditions {
		if c == tag {
			return true
		}
	}
	return false
}

// missing returns the unanswered required questions. Medication details are
// free text and never required.
func (m MedicalHistory) missing() []string {
	var out []string
	if m.FamilyHistory == "" {
		out = append(out, "family_history")
	}
	if m.Medications == "" {
		out = append(out, "medications")
	}
	return out
}

func (m MedicalHistory) clone() MedicalHistory {
	m.Conditions = append([]string(nil), m.Conditions...)
	return m
}

// --- Answers and result ---

// Answer is one selected option value.
type Answer struct {
	QuestionID string `json:"question_id"`
	Value      int    `json:"value"`
}

// Result is a finalized questionnaire. It is handed out by value and never
// changes after finalization.
type Result struct {
	Personal PersonalInfo   `json:"personal_info"`
	Answers  []Answer       `json:"answers"`
	Medical  MedicalHistory `json:"medical_history"`
	Lang     catalog.Lang   `json:"lang"`
}

// AnswerMap indexes the answers by question id.
func (r Result) AnswerMap() map[string]int {
	m := make(map[string]int, len(r.Answers))
	for _, a := range r.Answers {
		m[a.QuestionID] = a.Value
	}
	return m
}

func (r Result) clone() Result {
	r.Answers = append([]Answer(nil), r.Answers...)
	r.Medical = r.Medical.clone()
	return r
}
