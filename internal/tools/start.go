package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/HendryAvila/lifetest/internal/catalog"
)

// StartTool handles the assessment_start MCP tool.
type StartTool struct {
	drafts *Drafts
	log    zerolog.Logger
}

// NewStartTool creates a StartTool.
func NewStartTool(drafts *Drafts, log zerolog.Logger) *StartTool {
	return &StartTool{drafts: drafts, log: log}
}

// Definition returns the MCP tool definition for registration.
func (t *StartTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_start",
		mcp.WithDescription(
			"Start a new lifestyle assessment. Returns a draft_id that every other "+
				"assessment_* tool needs, and the first section (personal information).",
		),
		mcp.WithString("lang",
			mcp.Description("Display language for questions and results. Default: en"),
			mcp.Enum(string(catalog.LangEN), string(catalog.LangAR)),
		),
	)
}

// Handle processes the assessment_start tool call.
func (t *StartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lang := catalog.ParseLang(req.GetString("lang", ""))

	id, s, err := t.drafts.Create(ctx, lang)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot start assessment: %v", err)), nil
	}
	t.log.Info().Str("draft", id).Str("lang", string(lang)).Msg("assessment started")

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Lifestyle Assessment Started\n\n**Draft ID:** `%s`\n\n%s", id, describe(s),
	)), nil
}
