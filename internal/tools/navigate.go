package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/HendryAvila/lifetest/internal/catalog"
	"github.com/HendryAvila/lifetest/internal/report"
	"github.com/HendryAvila/lifetest/internal/scoring"
	"github.com/HendryAvila/lifetest/internal/templates"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// NextTool handles the assessment_next MCP tool.
// Advancing past the medical section finalizes the assessment: the record is
// scored, saved, rendered and the draft is dropped.
type NextTool struct {
	drafts   *Drafts
	cat      *catalog.Catalog
	engine   *scoring.Engine
	repo     report.Repository
	renderer *templates.Renderer
	log      zerolog.Logger
}

// NewNextTool creates a NextTool.
func NewNextTool(
	drafts *Drafts,
	cat *catalog.Catalog,
	engine *scoring.Engine,
	repo report.Repository,
	renderer *templates.Renderer,
	log zerolog.Logger,
) *NextTool {
	return &NextTool{drafts: drafts, cat: cat, engine: engine, repo: repo, renderer: renderer, log: log}
}

// Definition returns the MCP tool definition for registration.
func (t *NextTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_next",
		mcp.WithDescription(
			"Move to the next section once the current one is complete. On the last "+
				"section this submits the assessment and returns the scored report, "+
				"its report ID and a shareable transport code.",
		),
		draftIDParam(),
	)
}

// Handle processes the assessment_next tool call.
func (t *NextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, s, errResult := t.drafts.loadDraft(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	res, err := s.Advance()
	if err != nil {
		return mcp.NewToolResultError(gateMessage(err)), nil
	}
	if res == nil {
		if err := t.drafts.Save(ctx, id, s); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Cannot save draft: %v", err)), nil
		}
		t.log.Debug().Str("draft", id).Str("section", string(s.Section().ID)).Msg("section advanced")
		return mcp.NewToolResultText(describe(s)), nil
	}

	rec := report.Build(*res, t.engine, timeNow())
	code, err := report.Publish(ctx, t.repo, &rec)
	if err != nil {
		// The draft stays on the last section so the call can be retried.
		t.log.Error().Err(err).Str("draft", id).Msg("saving report failed")
		return mcp.NewToolResultError(fmt.Sprintf("Assessment complete but the report could not be saved: %v", err)), nil
	}
	if err := t.drafts.Delete(ctx, id); err != nil {
		t.log.Warn().Err(err).Str("draft", id).Msg("deleting finished draft")
	}
	t.log.Info().
		Str("draft", id).
		Str("report_id", rec.ID).
		Str("level", string(rec.Level)).
		Int("total", rec.Scores.Total).
		Msg("assessment submitted")

	md, err := t.renderer.Markdown(templates.NewReportData(rec, t.cat))
	if err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"%s\n---\n\n**Report ID:** `%s`\n\n**Transport code:** `%s`\n", md, rec.ID, code,
	)), nil
}

// BackTool handles the assessment_back MCP tool.
type BackTool struct {
	drafts *Drafts
}

// NewBackTool creates a BackTool.
func NewBackTool(drafts *Drafts) *BackTool {
	return &BackTool{drafts: drafts}
}

// Definition returns the MCP tool definition for registration.
func (t *BackTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_back",
		mcp.WithDescription(
			"Go back one section. Answers are kept. On the first section this reports "+
				"that going back would leave the assessment; the draft is not discarded.",
		),
		draftIDParam(),
	)
}

// Handle processes the assessment_back tool call.
func (t *BackTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, s, errResult := t.drafts.loadDraft(ctx, req)
	if errResult != nil {
		return errResult, nil
	}

	exit, err := s.Retreat()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot go back: %v", err)), nil
	}
	if exit {
		return mcp.NewToolResultText(
			"Already on the first section. Going back leaves the assessment; " +
				"the draft is kept and can be resumed with `assessment_status`.\n\n" + describe(s),
		), nil
	}
	if err := t.drafts.Save(ctx, id, s); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Cannot save draft: %v", err)), nil
	}
	return mcp.NewToolResultText(describe(s)), nil
}
