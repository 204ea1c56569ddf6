package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusTool handles the assessment_status MCP tool.
type StatusTool struct {
	drafts *Drafts
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(drafts *Drafts) *StatusTool {
	return &StatusTool{drafts: drafts}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_status",
		mcp.WithDescription(
			"Show the current section of an assessment draft: its questions or fields, "+
				"what has been answered and what is still missing.",
		),
		draftIDParam(),
	)
}

// Handle processes the assessment_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, s, errResult := t.drafts.loadDraft(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("# Assessment `%s`\n\n%s", id, describe(s))), nil
}
