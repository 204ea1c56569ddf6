package server

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/HendryAvila/lifetest/internal/app"
	"github.com/HendryAvila/lifetest/internal/config"
)

func TestNew_RegistersEverything(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	a, err := app.New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	defer a.Close()

	if New(a) == nil {
		t.Fatal("New returned nil")
	}

	names := make(map[string]bool)
	for _, st := range assessmentTools(a) {
		if st.Handler == nil {
			t.Errorf("tool %q has no handler", st.Tool.Name)
		}
		names[st.Tool.Name] = true
	}
	for _, name := range []string{
		"assessment_start", "assessment_status", "assessment_personal",
		"assessment_answer", "assessment_medical", "assessment_next",
		"assessment_back", "report_get", "report_decode",
	} {
		if !names[name] {
			t.Errorf("tool %q not registered", name)
		}
	}
	if len(names) != 9 {
		t.Errorf("registered %d tools, want 9", len(names))
	}
}

func TestServerInstructions(t *testing.T) {
	if got := serverInstructions(); len(got) == 0 {
		t.Error("instructions should not be empty")
	}
}
