// Package templates renders finalized assessment reports.
//
// Reports are produced as Markdown from an embedded text/template and can be
// turned into a printable HTML page. The renderer only lays out data; every
// number and tip comes from the report and scoring packages.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/HendryAvila/lifetest/internal/assessment"
	"github.com/HendryAvila/lifetest/internal/catalog"
	"github.com/HendryAvila/lifetest/internal/report"
)

//go:embed files/*.tmpl
var files embed.FS

// Name identifies an embedded template.
type Name string

const (
	Report Name = "report.md.tmpl"
)

// Renderer executes the embedded templates. Safe for concurrent use.
type Renderer struct {
	md   *texttemplate.Template
	page *template.Template
	conv goldmark.Markdown
}

// NewRenderer parses every embedded template.
func NewRenderer() (*Renderer, error) {
	md, err := texttemplate.ParseFS(files, "files/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	page, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &Renderer{
		md:   md,
		page: page,
		conv: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}, nil
}

// Render executes a named template with data.
func (r *Renderer) Render(name Name, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.md.ExecuteTemplate(&buf, string(name), data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

// Markdown renders the report view.
func (r *Renderer) Markdown(v ReportData) (string, error) {
	return r.Render(Report, v)
}

// HTML renders the report as a standalone printable page. Raw HTML in user
// fields is dropped by the Markdown converter.
func (r *Renderer) HTML(v ReportData) (string, error) {
	md, err := r.Markdown(v)
	if err != nil {
		return "", err
	}
	var body bytes.Buffer
	if err := r.conv.Convert([]byte(md), &body); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}

	var out bytes.Buffer
	err = r.page.Execute(&out, struct {
		Lang  string
		Dir   string
		Title string
		Body  template.HTML
	}{
		Lang:  string(v.Lang),
		Dir:   v.Dir,
		Title: v.Title,
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return out.String(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="{{.Lang}}" dir="{{.Dir}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; line-height: 1.5; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: .25rem .75rem; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`

// ─── View model ──────────────────────────────────────────────────────────────

// Labels are the fixed headings in one language.
type Labels struct {
	ReportID     string
	Date         string
	PersonalInfo string
	Name         string
	Mobile       string
	Age          string
	Gender       string
	Marital      string
	Height       string
	Weight       string
	BMI          string
	Scores       string
	Category     string
	Score        string
	Total        string
	QRCode       string
}

// ScoreLine is one scored section.
type ScoreLine struct {
	Title string
	Score int
	Max   int
}

// TipGroup is one recommendation list.
type TipGroup struct {
	Title string
	Tips  []string
}

// ReportData is the localized view of a report.
type ReportData struct {
	ID    string
	Title string
	Lang  catalog.Lang
	Dir   string
	Date  string

	Labels   Labels
	Personal assessment.PersonalInfo
	BMI      string
	Gender   string
	Marital  string

	Sections []ScoreLine
	Total    int
	TotalMax int

	CategoryName        string
	CategoryDescription string
	Recommendations     []TipGroup
	QRCode              string
}

var labels = map[catalog.Lang]Labels{
	catalog.LangEN: {
		ReportID: "Report ID", Date: "Date",
		PersonalInfo: "Personal Information", Name: "Name", Mobile: "Mobile Number",
		Age: "Age", Gender: "Gender", Marital: "Marital Status",
		Height: "Height (cm)", Weight: "Weight (kg)", BMI: "BMI",
		Scores: "Your Scores", Category: "Category", Score: "Score", Total: "Total",
		QRCode: "Scan for more advice",
	},
	catalog.LangAR: {
		ReportID: "رقم التقرير", Date: "التاريخ",
		PersonalInfo: "المعلومات الشخصية", Name: "الاسم", Mobile: "رقم الجوال",
		Age: "العمر", Gender: "الجنس", Marital: "الحالة الاجتماعية",
		Height: "الطول (سم)", Weight: "الوزن (كجم)", BMI: "مؤشر كتلة الجسم",
		Scores: "نتائجك", Category: "الفئة", Score: "النتيجة", Total: "المجموع",
		QRCode: "امسح للمزيد من النصائح",
	},
}

var titles = catalog.Text{EN: "Lifestyle Assessment Report", AR: "تقرير تقييم نمط الحياة"}

var enumText = map[string]catalog.Text{
	"male":    {EN: "Male", AR: "ذكر"},
	"female":  {EN: "Female", AR: "أنثى"},
	"single":  {EN: "Single", AR: "أعزب"},
	"married": {EN: "Married", AR: "متزوج"},
}

var medicalTitle = catalog.Text{EN: "Medical Recommendations", AR: "توصيات طبية"}

func enum(v string, lang catalog.Lang) string {
	if t, ok := enumText[v]; ok {
		return t.In(lang)
	}
	return v
}

// NewReportData localizes a record for rendering.
func NewReportData(rec report.Record, cat *catalog.Catalog) ReportData {
	lang := catalog.ParseLang(string(rec.Lang))
	ev := report.Evaluate(rec)

	dir := "ltr"
	if lang == catalog.LangAR {
		dir = "rtl"
	}
	date := rec.Timestamp
	if t, err := rec.Time(); err == nil {
		date = t.Format("2006-01-02 15:04 MST")
	}

	v := ReportData{
		ID:                  rec.ID,
		Title:               titles.In(lang),
		Lang:                lang,
		Dir:                 dir,
		Date:                date,
		Labels:              labels[lang],
		Personal:            rec.Personal,
		BMI:                 ev.BMI,
		Gender:              enum(string(rec.Personal.Gender), lang),
		Marital:             enum(string(rec.Personal.MaritalStatus), lang),
		Total:               rec.Scores.Total,
		CategoryName:        ev.Category.Name.In(lang),
		CategoryDescription: ev.Category.Description.In(lang),
		QRCode:              ev.QRCode,
	}

	byCat := map[catalog.Section]int{
		catalog.SectionDiet:     rec.Scores.Diet,
		catalog.SectionActivity: rec.Scores.Activity,
		catalog.SectionHealth:   rec.Scores.Health,
	}
	tips := map[catalog.Section][]string{
		catalog.SectionDiet:     ev.Recommendations.Diet,
		catalog.SectionActivity: ev.Recommendations.Activity,
		catalog.SectionHealth:   ev.Recommendations.Health,
	}
	for _, sec := range cat.Sections() {
		if !sec.ID.IsScored() {
			continue
		}
		max := cat.MaxScore(sec.ID)
		v.Sections = append(v.Sections, ScoreLine{Title: sec.Title.In(lang), Score: byCat[sec.ID], Max: max})
		v.TotalMax += max
		v.Recommendations = append(v.Recommendations, TipGroup{Title: sec.Title.In(lang), Tips: tips[sec.ID]})
	}
	if len(ev.Recommendations.Medical) > 0 {
		v.Recommendations = append(v.Recommendations, TipGroup{Title: medicalTitle.In(lang), Tips: ev.Recommendations.Medical})
	}
	return v
}

// Summary is a short plain-text result for chat replies.
func Summary(v ReportData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", v.Title)
	for _, s := range v.Sections {
		fmt.Fprintf(&b, "%s: %d/%d\n", s.Title, s.Score, s.Max)
	}
	fmt.Fprintf(&b, "%s: %d/%d\n\n%s\n%s\n", v.Labels.Total, v.Total, v.TotalMax, v.CategoryName, v.CategoryDescription)
	for _, g := range v.Recommendations {
		fmt.Fprintf(&b, "\n%s\n", g.Title)
		for _, tip := range g.Tips {
			fmt.Fprintf(&b, "• %s\n", tip)
		}
	}
	return b.String()
}
