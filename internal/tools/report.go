package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/lifetest/internal/catalog"
	"github.com/HendryAvila/lifetest/internal/report"
	"github.com/HendryAvila/lifetest/internal/scoring"
	"github.com/HendryAvila/lifetest/internal/templates"
)

// ReportGetTool handles the report_get MCP tool.
type ReportGetTool struct {
	repo     report.Repository
	cat      *catalog.Catalog
	renderer *templates.Renderer
}

// NewReportGetTool creates a ReportGetTool.
func NewReportGetTool(repo report.Repository, cat *catalog.Catalog, renderer *templates.Renderer) *ReportGetTool {
	return &ReportGetTool{repo: repo, cat: cat, renderer: renderer}
}

// Definition returns the MCP tool definition for registration.
func (t *ReportGetTool) Definition() mcp.Tool {
	return mcp.NewTool("report_get",
		mcp.WithDescription("Show a saved assessment report by its report ID."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Report ID returned when the assessment was submitted"),
		),
	)
}

// Handle processes the report_get tool call.
func (t *ReportGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	rec, err := t.repo.Get(ctx, id)
	if errors.Is(err, report.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("Report %q not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot load report: %v", err)), nil
	}

	md, err := t.renderer.Markdown(templates.NewReportData(*rec, t.cat))
	if err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	return mcp.NewToolResultText(md), nil
}

// ReportDecodeTool handles the report_decode MCP tool.
type ReportDecodeTool struct {
	cat      *catalog.Catalog
	engine   *scoring.Engine
	renderer *templates.Renderer
}

// NewReportDecodeTool creates a ReportDecodeTool.
func NewReportDecodeTool(cat *catalog.Catalog, engine *scoring.Engine, renderer *templates.Renderer) *ReportDecodeTool {
	return &ReportDecodeTool{cat: cat, engine: engine, renderer: renderer}
}

// Definition returns the MCP tool definition for registration.
func (t *ReportDecodeTool) Definition() mcp.Tool {
	return mcp.NewTool("report_decode",
		mcp.WithDescription(
			"Render a report from a shared transport code (the v1.… string returned "+
				"on submission). Works offline; nothing is looked up.",
		),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Transport code"),
		),
	)
}

// Handle processes the report_decode tool call.
func (t *ReportDecodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, err := report.DecodeVerified(req.GetString("code", ""), t.cat, t.engine)
	if err != nil {
		return mcp.NewToolResultError("Result unavailable: the code is damaged or incomplete."), nil
	}
	md, err := t.renderer.Markdown(templates.NewReportData(rec, t.cat))
	if err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	return mcp.NewToolResultText(md), nil
}
