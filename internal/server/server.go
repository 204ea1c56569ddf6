// Package server wires the MCP components and creates the server instance.
//
// This is the MCP composition root: it takes the shared dependencies from
// app.App and injects them into the tools, prompts and resources. No
// business logic lives here, only wiring.
package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/lifetest/internal/app"
	"github.com/HendryAvila/lifetest/internal/prompts"
	"github.com/HendryAvila/lifetest/internal/resources"
	"github.com/HendryAvila/lifetest/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts and
// resources registered. The caller owns a and closes it on shutdown.
func New(a *app.App) *server.MCPServer {
	s := server.NewMCPServer(
		"lifetest",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	s.AddTools(assessmentTools(a)...)

	// --- Prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	// --- Resources ---

	resourceHandler := resources.NewHandler(a.Catalog, a.Reports)
	s.AddResource(resourceHandler.CatalogResource(), resourceHandler.HandleCatalog)
	s.AddResource(resourceHandler.SummaryResource(), resourceHandler.HandleSummary)

	return s
}

// assessmentTools builds every tool handler over the shared dependencies.
func assessmentTools(a *app.App) []server.ServerTool {
	log := a.Log.With().Str("component", "mcp").Logger()
	drafts := tools.NewDrafts(a.Drafts, a.Catalog)

	startTool := tools.NewStartTool(drafts, log)
	statusTool := tools.NewStatusTool(drafts)
	personalTool := tools.NewPersonalTool(drafts)
	answerTool := tools.NewAnswerTool(drafts)
	medicalTool := tools.NewMedicalTool(drafts)
	nextTool := tools.NewNextTool(drafts, a.Catalog, a.Engine, a.Reports, a.Renderer, log)
	backTool := tools.NewBackTool(drafts)

	getTool := tools.NewReportGetTool(a.Reports, a.Catalog, a.Renderer)
	decodeTool := tools.NewReportDecodeTool(a.Catalog, a.Engine, a.Renderer)

	return []server.ServerTool{
		{Tool: startTool.Definition(), Handler: startTool.Handle},
		{Tool: statusTool.Definition(), Handler: statusTool.Handle},
		{Tool: personalTool.Definition(), Handler: personalTool.Handle},
		{Tool: answerTool.Definition(), Handler: answerTool.Handle},
		{Tool: medicalTool.Definition(), Handler: medicalTool.Handle},
		{Tool: nextTool.Definition(), Handler: nextTool.Handle},
		{Tool: backTool.Definition(), Handler: backTool.Handle},
		{Tool: getTool.Definition(), Handler: getTool.Handle},
		{Tool: decodeTool.Definition(), Handler: decodeTool.Handle},
	}
}

// serverInstructions tells the host how to drive an assessment.
func serverInstructions() string {
	return `You have access to lifetest, a lifestyle assessment server.

## HOW AN ASSESSMENT WORKS

The questionnaire has five sections, always in this order:
1. Personal information (name, mobile number, age, gender, height, weight; marital status optional)
2. Diet (6 questions)
3. Physical activity (3 questions)
4. General health (4 questions)
5. Medical history (conditions, family history, medications)

Each section must be complete before assessment_next moves on. Submitting the
last section scores the answers, classifies the lifestyle as healthy, moderate
or unhealthy, and returns tailored recommendations.

## RULES

- Start with assessment_start and pass the draft_id to every other assessment_* tool.
- Ask the user; never choose answers on their behalf.
- Show the options of each question exactly as assessment_status lists them and
  send the option value, not the label.
- If assessment_next reports missing items, ask the user for exactly those.
- The recommendations are general lifestyle advice, not a diagnosis. Say so
  when presenting them.
- A transport code (v1.…) can be rendered again later with report_decode.

The lifetest://catalog resource lists every question and option.`
}
