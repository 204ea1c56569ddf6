// Package resources implements MCP resource handlers.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (lifetest://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/lifetest/internal/catalog"
	"github.com/HendryAvila/lifetest/internal/report"
	"github.com/HendryAvila/lifetest/internal/scoring"
)

const (
	CatalogURI = "lifetest://catalog"
	SummaryURI = "lifetest://reports/summary"
)

// levelCounter is implemented by stores that can count without loading
// every record.
type levelCounter interface {
	CountByLevel(ctx context.Context) (map[string]int, error)
}

// Handler serves the lifetest resources.
type Handler struct {
	cat  *catalog.Catalog
	repo report.Repository
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(cat *catalog.Catalog, repo report.Repository) *Handler {
	return &Handler{cat: cat, repo: repo}
}

// CatalogResource returns the MCP resource definition for the questionnaire.
func (h *Handler) CatalogResource() mcp.Resource {
	return mcp.NewResource(
		CatalogURI,
		"Lifestyle Questionnaire",
		mcp.WithResourceDescription("Sections, questions with option values, medical conditions and maximum scores"),
		mcp.WithMIMEType("application/json"),
	)
}

// SummaryResource returns the MCP resource definition for saved-report counts.
func (h *Handler) SummaryResource() mcp.Resource {
	return mcp.NewResource(
		SummaryURI,
		"Assessment Summary",
		mcp.WithResourceDescription("Number of saved assessments per lifestyle tier"),
		mcp.WithMIMEType("application/json"),
	)
}

type sectionView struct {
	catalog.SectionInfo
	MaxScore  int                `json:"max_score,omitempty"`
	Questions []catalog.Question `json:"questions,omitempty"`
}

type catalogView struct {
	Sections   []sectionView       `json:"sections"`
	Conditions []catalog.Condition `json:"conditions"`
	MaxTotal   int                 `json:"max_total"`
	Cutoffs    map[string]int      `json:"cutoffs"`
}

// CatalogView is the JSON shape of the catalog resource. It is shared with
// the HTTP API.
func CatalogView(cat *catalog.Catalog) any {
	v := catalogView{
		Conditions: cat.Conditions(),
		Cutoffs: map[string]int{
			string(scoring.LevelHealthy):  scoring.HealthyMin,
			string(scoring.LevelModerate): scoring.ModerateMin,
		},
	}
	for _, sec := range cat.Sections() {
		sv := sectionView{SectionInfo: sec}
		if sec.ID.IsScored() {
			sv.MaxScore = cat.MaxScore(sec.ID)
			sv.Questions, _ = cat.Questions(sec.ID)
			v.MaxTotal += sv.MaxScore
		}
		v.Sections = append(v.Sections, sv)
	}
	return v
}

// HandleCatalog returns the catalog as JSON.
func (h *Handler) HandleCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, CatalogView(h.cat))
}

// HandleSummary returns the saved-report counts per level.
func (h *Handler) HandleSummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	counts, err := CountByLevel(ctx, h.repo)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return jsonResource(req.Params.URI, map[string]any{"total": total, "by_level": counts})
}

// CountByLevel counts saved records per level, every level present.
func CountByLevel(ctx context.Context, repo report.Repository) (map[string]int, error) {
	counts := map[string]int{
		string(scoring.LevelUnhealthy): 0,
		string(scoring.LevelModerate):  0,
		string(scoring.LevelHealthy):   0,
	}
	if lc, ok := repo.(levelCounter); ok {
		got, err := lc.CountByLevel(ctx)
		if err != nil {
			return nil, err
		}
		for k, n := range got {
			counts[k] = n
		}
		return counts, nil
	}
	records, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		counts[string(r.Level)]++
	}
	return counts, nil
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
