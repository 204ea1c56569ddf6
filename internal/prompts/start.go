// Package prompts implements MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/lifetest/internal/catalog"
)

// StartPrompt handles the lifetest-start MCP prompt.
// It guides the AI through one assessment, section by section.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("lifetest-start",
		mcp.WithPromptDescription(
			"Take the lifestyle assessment. The assistant asks the questions one section "+
				"at a time and shows your scores, tier and recommendations at the end.",
		),
		mcp.WithArgument("lang",
			mcp.ArgumentDescription("Language: 'en' (English) or 'ar' (Arabic). Default: en"),
		),
	)
}

// Handle processes the lifetest-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	lang := catalog.LangEN
	if args := req.Params.Arguments; args != nil {
		lang = catalog.ParseLang(args["lang"])
	}

	language := "English"
	if lang == catalog.LangAR {
		language = "Arabic"
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Lifestyle assessment (%s)", lang),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to take the lifestyle assessment in %s.\n\n"+
						"Please:\n"+
						"1. Run `assessment_start` with lang='%s' and keep the draft_id\n"+
						"2. Ask me for my personal information and save it with `assessment_personal`\n"+
						"3. For the diet, activity and health sections, ask each question with its options "+
						"and record my choice with `assessment_answer`\n"+
						"4. Ask about my medical conditions, family history and medications, "+
						"then save them with `assessment_medical`\n"+
						"5. Call `assessment_next` whenever a section is complete; if it lists missing items, ask me for them\n"+
						"6. After the last section, show me the report and the transport code\n\n"+
						"Don't invent answers for me. If I want to change something, use `assessment_back`.",
					language, lang,
				)),
			},
		},
	}, nil
}
