package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/lifetest/internal/assessment"
)

// MedicalTool handles the assessment_medical MCP tool.
type MedicalTool struct {
	drafts *Drafts
}

// NewMedicalTool creates a MedicalTool.
func NewMedicalTool(drafts *Drafts) *MedicalTool {
	return &MedicalTool{drafts: drafts}
}

// Definition returns the MCP tool definition for registration.
func (t *MedicalTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_medical",
		mcp.WithDescription(
			"Set the medical history while the draft is on the last section. "+
				"Only the arguments given are changed. family_history and medications "+
				"are required to finish; conditions may be empty.",
		),
		draftIDParam(),
		mcp.WithString("conditions",
			mcp.Description("Comma-separated condition IDs replacing the current selection "+
				"(diabetes, hypertension, obesity, heart, respiratory, other). Empty string clears it."),
		),
		mcp.WithString("family_history",
			mcp.Description("Family history of chronic disease"),
			mcp.Enum(string(assessment.Yes), string(assessment.No)),
		),
		mcp.WithString("medications",
			mcp.Description("Currently taking medications"),
			mcp.Enum(string(assessment.Yes), string(assessment.No)),
		),
		mcp.WithString("medications_details",
			mcp.Description("Which medications, when medications is yes"),
		),
	)
}

// Handle processes the assessment_medical tool call.
func (t *MedicalTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, s, errResult := t.drafts.loadDraft(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	args := req.GetArguments()
	m := s.Medical()
	changed := false
	if v, ok := args["conditions"].(string); ok {
		m.Conditions = splitList(v)
		changed = true
	}
	if v, ok := args["family_history"].(string); ok {
		m.FamilyHistory = assessment.YesNo(strings.ToLower(strings.TrimSpace(v)))
		changed = true
	}
	if v, ok := args["medications"].(string); ok {
		m.Medications = assessment.YesNo(strings.ToLower(strings.TrimSpace(v)))
		changed = true
	}
	if v, ok := args["medications_details"].(string); ok {
		m.MedicationsDetails = strings.TrimSpace(v)
		changed = true
	}
	if !changed {
		return mcp.NewToolResultError("Nothing to set. Give conditions, family_history, medications or medications_details."), nil
	}

	if err := s.SetMedical(m); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot set medical history: %v", err)), nil
	}
	if err := t.drafts.Save(ctx, id, s); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot save draft: %v", err)), nil
	}
	return mcp.NewToolResultText("Medical history updated.\n\n" + describe(s)), nil
}

// splitList parses "a, b,,c" into [a b c].
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
