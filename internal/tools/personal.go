package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/lifetest/internal/assessment"
)

// PersonalTool handles the assessment_personal MCP tool.
type PersonalTool struct {
	drafts *Drafts
}

// NewPersonalTool creates a PersonalTool.
func NewPersonalTool(drafts *Drafts) *PersonalTool {
	return &PersonalTool{drafts: drafts}
}

// Definition returns the MCP tool definition for registration.
func (t *PersonalTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_personal",
		mcp.WithDescription(
			"Set personal information fields while the draft is on the personal section. "+
				"Only the fields given are changed. Name, mobile number, age, gender, height "+
				"and weight are required to continue; marital status is optional.",
		),
		draftIDParam(),
		mcp.WithString(assessment.FieldName, mcp.Description("Full name")),
		mcp.WithString(assessment.FieldMobileNumber, mcp.Description("Mobile number")),
		mcp.WithString(assessment.FieldAge, mcp.Description("Age in years")),
		mcp.WithString(assessment.FieldGender,
			mcp.Description("Gender"),
			mcp.Enum(string(assessment.GenderMale), string(assessment.GenderFemale)),
		),
		mcp.WithString(assessment.FieldHeight, mcp.Description("Height in centimetres")),
		mcp.WithString(assessment.FieldWeight, mcp.Description("Weight in kilograms")),
		mcp.WithString(assessment.FieldMaritalStatus,
			mcp.Description("Marital status"),
			mcp.Enum(string(assessment.MaritalSingle), string(assessment.MaritalMarried)),
		),
	)
}

// Handle processes the assessment_personal tool call. Either every given
// field is applied or none is.
func (t *PersonalTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, s, errResult := t.drafts.loadDraft(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	args := req.GetArguments()
	changed := 0
	for _, field := range assessment.PersonalFields {
		v, ok := stringArg(args, field)
		if !ok {
			continue
		}
		if err := s.SetField(field, v); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Cannot set %s: %v", field, err)), nil
		}
		changed++
	}
	if changed == 0 {
		return mcp.NewToolResultError("No personal fields given. Accepted: " + strings.Join(assessment.PersonalFields, ", ")), nil
	}

	if err := t.drafts.Save(ctx, id, s); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot save draft: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated %d field(s).\n\n%s", changed, describe(s))), nil
}

// stringArg reads a string argument, accepting JSON numbers as well since
// hosts often send age, height and weight unquoted.
func stringArg(args map[string]any, key string) (string, bool) {
	switch v := args[key].(type) {
	case string:
		return strings.TrimSpace(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}
