package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestStartPrompt_Handle(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]string
		wantLang string
		wantText string
	}{
		{"default english", nil, "lang='en'", "in English"},
		{"arabic", map[string]string{"lang": "ar"}, "lang='ar'", "in Arabic"},
		{"unknown falls back", map[string]string{"lang": "fr"}, "lang='en'", "in English"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.GetPromptRequest{}
			req.Params.Arguments = tt.args

			result, err := NewStartPrompt().Handle(context.Background(), req)
			if err != nil {
				t.Fatalf("Handle failed: %v", err)
			}
			if len(result.Messages) != 1 {
				t.Fatalf("messages = %d, want 1", len(result.Messages))
			}
			tc, ok := result.Messages[0].Content.(mcp.TextContent)
			if !ok {
				t.Fatalf("content type = %T, want TextContent", result.Messages[0].Content)
			}
			if !strings.Contains(tc.Text, tt.wantLang) || !strings.Contains(tc.Text, tt.wantText) {
				t.Errorf("prompt text = %q", tc.Text)
			}
			if !strings.Contains(tc.Text, "assessment_start") {
				t.Error("prompt should name assessment_start")
			}
		})
	}
}

func TestStartPrompt_Definition(t *testing.T) {
	def := NewStartPrompt().Definition()
	if def.Name != "lifetest-start" {
		t.Errorf("Name = %q, want lifetest-start", def.Name)
	}
}
