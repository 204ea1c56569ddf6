package tools

import (
	"context"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
)

// AnswerTool handles the assessment_answer MCP tool.
type AnswerTool struct {
	drafts *Drafts
}

// NewAnswerTool creates an AnswerTool.
func NewAnswerTool(drafts *Drafts) *AnswerTool {
	return &AnswerTool{drafts: drafts}
}

// Definition returns the MCP tool definition for registration.
func (t *AnswerTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_answer",
		mcp.WithDescription(
			"Answer one question of the current diet, activity or health section. "+
				"The value must be one of the option values listed by assessment_status. "+
				"Answering again replaces the previous answer.",
		),
		draftIDParam(),
		mcp.WithString("question_id",
			mcp.Required(),
			mcp.Description("Question ID, e.g. diet-1"),
		),
		mcp.WithNumber("value",
			mcp.Required(),
			mcp.Description("Selected option value"),
		),
	)
}

// Handle processes the assessment_answer tool call.
func (t *AnswerTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, s, errResult := t.drafts.loadDraft(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	questionID := req.GetString("question_id", "")
	if questionID == "" {
		return mcp.NewToolResultError("'question_id' is required"), nil
	}
	if _, ok := req.GetArguments()["value"].(float64); !ok {
		return mcp.NewToolResultError("'value' is required and must be a number"), nil
	}
	v := req.GetFloat("value", 0)
	if v != math.Trunc(v) {
		return mcp.NewToolResultError(fmt.Sprintf("'value' must be a whole number, got %v", v)), nil
	}

	if err := s.Answer(questionID, int(v)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot record answer: %v", err)), nil
	}
	if err := t.drafts.Save(ctx, id, s); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot save draft: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Recorded `%s` = %d.\n\n%s", questionID, int(v), describe(s))), nil
}
