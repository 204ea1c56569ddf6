// Package tools implements the MCP tool handlers that drive a lifestyle
// assessment.
//
// MCP calls carry no session, so every tool works on a draft: a persisted
// snapshot of an assessment.Session addressed by draft_id. A handler loads
// the draft, applies one operation through the state machine and saves it
// back.
//
// Each tool is a struct with its dependencies injected through the
// constructor, a Definition() returning the mcp.Tool schema and a Handle()
// processing the call. Misuse is reported as a tool error result, never as a
// protocol error.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/lifetest/internal/assessment"
	"github.com/HendryAvila/lifetest/internal/catalog"
)

// DraftStore persists in-progress sessions.
type DraftStore interface {
	CreateDraft(ctx context.Context, snap assessment.Snapshot) (string, error)
	SaveDraft(ctx context.Context, id string, snap assessment.Snapshot) error
	LoadDraft(ctx context.Context, id string) (assessment.Snapshot, error)
	DeleteDraft(ctx context.Context, id string) error
}

// Drafts restores and saves sessions against one catalog.
type Drafts struct {
	store DraftStore
	cat   *catalog.Catalog
}

// NewDrafts creates a Drafts over store.
func NewDrafts(store DraftStore, cat *catalog.Catalog) *Drafts {
	return &Drafts{store: store, cat: cat}
}

// Create starts a session and stores it.
func (d *Drafts) Create(ctx context.Context, lang catalog.Lang) (string, *assessment.Session, error) {
	s := assessment.New(d.cat, lang)
	id, err := d.store.CreateDraft(ctx, s.Snapshot())
	if err != nil {
		return "", nil, err
	}
	return id, s, nil
}

// Load restores the session stored under id.
func (d *Drafts) Load(ctx context.Context, id string) (*assessment.Session, error) {
	snap, err := d.store.LoadDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	s, err := assessment.Restore(d.cat, snap)
	if err != nil {
		return nil, fmt.Errorf("draft %q is corrupt: %w", id, err)
	}
	return s, nil
}

// Save writes the session back under id.
func (d *Drafts) Save(ctx context.Context, id string, s *assessment.Session) error {
	return d.store.SaveDraft(ctx, id, s.Snapshot())
}

// Delete drops the draft.
func (d *Drafts) Delete(ctx context.Context, id string) error {
	return d.store.DeleteDraft(ctx, id)
}

// loadDraft reads the draft_id argument and restores its session. On failure
// it returns the tool error to send back.
func (d *Drafts) loadDraft(ctx context.Context, req mcp.CallToolRequest) (string, *assessment.Session, *mcp.CallToolResult) {
	id := strings.TrimSpace(req.GetString("draft_id", ""))
	if id == "" {
		return "", nil, mcp.NewToolResultError("'draft_id' is required. Start an assessment with `assessment_start` first.")
	}
	s, err := d.Load(ctx, id)
	if err != nil {
		return "", nil, mcp.NewToolResultError(fmt.Sprintf("Cannot load draft %q: %v", id, err))
	}
	return id, s, nil
}

// draftIDParam is the common draft_id argument.
func draftIDParam() mcp.ToolOption {
	return mcp.WithString("draft_id",
		mcp.Required(),
		mcp.Description("Draft ID returned by assessment_start"),
	)
}

// gateMessage turns a closed gate into something the assistant can act on.
func gateMessage(err error) string {
	var gate *assessment.GateError
	if errors.As(err, &gate) {
		return fmt.Sprintf("Section %q is incomplete. Still needed: %s", gate.Section, strings.Join(gate.Missing, ", "))
	}
	return err.Error()
}

// describe renders the current section of s as Markdown, in the session
// language.
func describe(s *assessment.Session) string {
	lang := s.Lang()
	sec := s.Section()

	var b strings.Builder
	fmt.Fprintf(&b, "## Section %d of %d: %s\n\n", s.Index()+1, s.Total(), sec.Title.In(lang))

	switch st := s.State().(type) {
	case assessment.PersonalState:
		b.WriteString("| Field | Value |\n|-------|-------|\n")
		for _, f := range assessment.PersonalFields {
			v, _ := st.Info.Get(f)
			fmt.Fprintf(&b, "| %s | %s |\n", f, orDash(v))
		}
		if bmi := st.Info.BMI(); bmi != "" {
			fmt.Fprintf(&b, "\n**BMI:** %s\n", bmi)
		}
		b.WriteString("\nSet fields with `assessment_personal`. gender: male|female, marital_status: single|married (optional).\n")

	case assessment.QuestionState:
		for _, q := range st.Questions {
			fmt.Fprintf(&b, "### `%s` %s\n\n", q.ID, q.Text.In(lang))
			chosen, answered := st.Answers[q.ID]
			for _, o := range q.Options {
				mark := "[ ]"
				if answered && chosen == o.Value {
					mark = "[x]"
				}
				fmt.Fprintf(&b, "- %s `%d` %s\n", mark, o.Value, o.Text.In(lang))
			}
			b.WriteString("\n")
		}
		b.WriteString("Answer with `assessment_answer` (question_id, value).\n")

	case assessment.MedicalState:
		b.WriteString("**Conditions:**\n\n")
		for _, c := range st.Conditions {
			mark := "[ ]"
			if st.History.Has(c.ID) {
				mark = "[x]"
			}
			fmt.Fprintf(&b, "- %s `%s` %s\n", mark, c.ID, c.Name.In(lang))
		}
		fmt.Fprintf(&b, "\n**Family history:** %s\n", orDash(string(st.History.FamilyHistory)))
		fmt.Fprintf(&b, "**Medications:** %s\n", orDash(string(st.History.Medications)))
		if st.History.MedicationsDetails != "" {
			fmt.Fprintf(&b, "**Medication details:** %s\n", st.History.MedicationsDetails)
		}
		b.WriteString("\nSet with `assessment_medical`. family_history and medications: yes|no.\n")

	case assessment.SubmittedState:
		b.WriteString("Assessment submitted.\n")
		return b.String()
	}

	if missing := s.Missing(); len(missing) > 0 {
		fmt.Fprintf(&b, "\n**Missing:** %s\n", strings.Join(missing, ", "))
	} else {
		b.WriteString("\nSection complete. Call `assessment_next` to continue.\n")
	}
	return b.String()
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "—"
	}
	return v
}
