// Package report turns a finalized assessment into the record handed to the
// collaborators outside the core: persistence, rendering, bulk export and the
// transport code used to share a result without a server.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HendryAvila/lifetest/internal/assessment"
	"github.com/HendryAvila/lifetest/internal/catalog"
	"github.com/HendryAvila/lifetest/internal/scoring"
)

var (
	// ErrNotFound is returned by repositories for unknown ids.
	ErrNotFound = errors.New("report not found")

	// ErrUnavailable wraps storage failures. Retrying is the caller's call.
	ErrUnavailable = errors.New("report storage unavailable")
)

// Record is the finalized, storable shape of one assessment. Scores and the
// category are derived at build time and stored alongside the raw answers.
type Record struct {
	ID        string                    `json:"id,omitempty"`
	Personal  assessment.PersonalInfo   `json:"personal_info"`
	Answers   map[string]int            `json:"answers"`
	Medical   assessment.MedicalHistory `json:"medical_history"`
	Scores    scoring.Scores            `json:"scores"`
	Level     scoring.Level             `json:"level"`
	Category  string                    `json:"category"`
	Lang      catalog.Lang              `json:"lang"`
	Timestamp string                    `json:"timestamp"`
}

// Time parses the record timestamp.
func (r Record) Time() (time.Time, error) {
	return time.Parse(time.RFC3339, r.Timestamp)
}

// Validate checks that the derived fields agree with each other.
func (r Record) Validate() error {
	if !catalog.ValidLang(string(r.Lang)) {
		return fmt.Errorf("language %q not supported", r.Lang)
	}
	if r.Scores.Diet < 0 || r.Scores.Activity < 0 || r.Scores.Health < 0 {
		return fmt.Errorf("negative category score in %+v", r.Scores)
	}
	if !r.Scores.Consistent() {
		return fmt.Errorf("total %d is not the sum of the category scores", r.Scores.Total)
	}
	if err := scoring.ValidateLevel(r.Level); err != nil {
		return err
	}
	cat := scoring.Classify(r.Scores.Total)
	if cat.Level != r.Level {
		return fmt.Errorf("level %q does not match total %d", r.Level, r.Scores.Total)
	}
	if r.Category != cat.Name.In(r.Lang) {
		return fmt.Errorf("category %q does not match level %q", r.Category, r.Level)
	}
	if _, err := r.Time(); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if err := r.Personal.Validate(); err != nil {
		return err
	}
	for _, v := range []assessment.YesNo{r.Medical.FamilyHistory, r.Medical.Medications} {
		if err := assessment.ValidateYesNo(v); err != nil {
			return err
		}
	}
	return nil
}

// Verify checks a record that came from outside against the catalog it
// claims to be scored with: every answer is an option of its question, the
// scores are what those answers add up to and every condition is known.
// It also runs Validate.
func Verify(r Record, cat *catalog.Catalog, engine *scoring.Engine) error {
	for id, v := range r.Answers {
		if _, err := cat.Option(id, v); err != nil {
			return fmt.Errorf("answer %s=%d: %w", id, v, err)
		}
	}
	if got := engine.ScoreMap(r.Answers); got != r.Scores {
		return fmt.Errorf("scores %+v do not match the answers (%+v)", r.Scores, got)
	}
	for _, tag := range r.Medical.Conditions {
		if !cat.HasCondition(tag) {
			return fmt.Errorf("unknown condition %q", tag)
		}
	}
	return r.Validate()
}

// Build scores and classifies a result and stamps it with now in UTC.
// The result itself is not modified.
func Build(res assessment.Result, engine *scoring.Engine, now time.Time) Record {
	scores := engine.Score(res.Answers)
	cat := scoring.Classify(scores.Total)
	lang := catalog.ParseLang(string(res.Lang))

	return Record{
		Personal:  res.Personal,
		Answers:   res.AnswerMap(),
		Medical:   res.Medical,
		Scores:    scores,
		Level:     cat.Level,
		Category:  cat.Name.In(lang),
		Lang:      lang,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

// Evaluation is everything a renderer needs beyond the record itself.
type Evaluation struct {
	Scores          scoring.Scores          `json:"scores"`
	Category        scoring.Category        `json:"category"`
	Recommendations scoring.Recommendations `json:"recommendations"`
	BMI             string                  `json:"bmi"`
	QRCode          string                  `json:"qr_code"`
}

// Evaluate derives the recommendations and display values for a record.
// Nothing is written back onto the record.
func Evaluate(r Record) Evaluation {
	return Evaluation{
		Scores:          r.Scores,
		Category:        scoring.Classify(r.Scores.Total),
		Recommendations: scoring.Recommend(r.Scores, r.Medical, r.Lang),
		BMI:             r.Personal.BMI(),
		QRCode:          QRCodePath(r.Level, r.Lang),
	}
}

// QRCodePath is the static image that links to the advice page for a tier.
func QRCodePath(level scoring.Level, lang catalog.Lang) string {
	return fmt.Sprintf("/qr-codes/%s-%s.jpg", level, catalog.ParseLang(string(lang)))
}

// NewID returns a fresh record id.
func NewID() string { return uuid.NewString() }

// Repository persists records. Implementations assign an id on Save when
// the record has none, and map storage errors to ErrUnavailable.
type Repository interface {
	Save(ctx context.Context, r *Record) (string, error)
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
	Close() error
}

// Publish saves r through repo and returns its transport code. The id
// assigned by the repository is set on r before encoding.
func Publish(ctx context.Context, repo Repository, r *Record) (string, error) {
	id, err := repo.Save(ctx, r)
	if err != nil {
		return "", err
	}
	r.ID = id
	return Encode(*r)
}
