package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/lifetest/internal/app"
	"github.com/HendryAvila/lifetest/internal/assessment"
	"github.com/HendryAvila/lifetest/internal/catalog"
	"github.com/HendryAvila/lifetest/internal/report"
	"github.com/HendryAvila/lifetest/internal/templates"
)

var (
	errBack = errors.New("back")
	errQuit = errors.New("assessment abandoned")
)

// LineReader reads user input a line at a time.
type LineReader interface {
	ReadString(delim byte) (string, error)
}

func newTakeCommand(g *globals) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take the assessment in the terminal",
		Long: `Walk through the questionnaire in the terminal. At any prompt type :b to
go back one section or :q to quit. Press Enter to keep a value already
given. The finished report is printed and saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := g.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			if lang == "" {
				lang = a.Config.DefaultLang
			}
			w := &wizard{
				app: a,
				in:  bufio.NewReader(cmd.InOrStdin()),
				out: cmd.OutOrStdout(),
			}
			return w.run(cmd.Context(), catalog.ParseLang(lang))
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Language (en|ar)")
	return cmd
}

// wizard walks one session on a line-based terminal.
type wizard struct {
	app *app.App
	in  LineReader
	out io.Writer
	s   *assessment.Session
}

var (
	heading = color.New(color.Bold, color.FgCyan)
	faint   = color.New(color.Faint)
	warn    = color.New(color.FgYellow)
	success = color.New(color.FgGreen, color.Bold)
)

func (w *wizard) run(ctx context.Context, lang catalog.Lang) error {
	w.s = assessment.New(w.app.Catalog, lang)
	faint.Fprintln(w.out, "Type :b to go back a section, :q to quit.")

	for {
		sec := w.s.Section()
		heading.Fprintf(w.out, "\n[%d/%d] %s\n", w.s.Index()+1, w.s.Total(), sec.Title.In(lang))

		var err error
		switch sec.ID {
		case catalog.SectionPersonal:
			err = w.personal()
		case catalog.SectionMedical:
			err = w.medical()
		default:
			err = w.questions(sec.ID)
		}
		switch {
		case errors.Is(err, errBack):
			exit, rerr := w.s.Retreat()
			if rerr != nil {
				return rerr
			}
			if exit {
				warn.Fprintln(w.out, "Already on the first section.")
			}
			continue
		case err != nil:
			return err
		}

		res, err := w.s.Advance()
		var gate *assessment.GateError
		if errors.As(err, &gate) {
			warn.Fprintf(w.out, "Still needed: %s\n", strings.Join(gate.Missing, ", "))
			continue
		}
		if err != nil {
			return err
		}
		if res != nil {
			return w.finish(ctx, *res)
		}
	}
}

func (w *wizard) finish(ctx context.Context, res assessment.Result) error {
	rec := report.Build(res, w.app.Engine, timeNow())
	md, err := w.app.Renderer.Markdown(templates.NewReportData(rec, w.app.Catalog))
	if err != nil {
		return err
	}
	fmt.Fprintln(w.out)
	fmt.Fprint(w.out, md)

	code, err := report.Publish(ctx, w.app.Reports, &rec)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	w.app.Log.Info().Str("report_id", rec.ID).Str("level", string(rec.Level)).Msg("assessment submitted")
	success.Fprintf(w.out, "\nSaved as %s\n", rec.ID)
	fmt.Fprintf(w.out, "Share code: %s\n", code)
	return nil
}

// ask prints prompt and returns the trimmed answer. An empty answer keeps
// current.
func (w *wizard) ask(prompt, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(w.out, "%s %s: ", prompt, faint.Sprintf("[%s]", current))
	} else {
		fmt.Fprintf(w.out, "%s: ", prompt)
	}
	line, err := w.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", errQuit
		}
		return "", err
	}
	line = strings.TrimSpace(line)
	switch line {
	case ":b":
		return "", errBack
	case ":q":
		return "", errQuit
	case "":
		return current, nil
	}
	return line, nil
}

// choose lists labels numbered from 1 and returns the chosen index. -1 keeps
// the current choice.
func (w *wizard) choose(prompt string, labels []string, current int) (int, error) {
	fmt.Fprintln(w.out, prompt)
	for i, l := range labels {
		mark := " "
		if i == current {
			mark = "*"
		}
		fmt.Fprintf(w.out, " %s %d) %s\n", mark, i+1, l)
	}
	for {
		def := ""
		if current >= 0 {
			def = strconv.Itoa(current + 1)
		}
		ans, err := w.ask(">", def)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(ans)
		if err == nil && n >= 1 && n <= len(labels) {
			return n - 1, nil
		}
		warn.Fprintf(w.out, "Enter a number from 1 to %d.\n", len(labels))
	}
}

var fieldLabels = map[string]string{
	assessment.FieldName:          "Name",
	assessment.FieldMobileNumber:  "Mobile number",
	assessment.FieldAge:           "Age",
	assessment.FieldHeight:        "Height (cm)",
	assessment.FieldWeight:        "Weight (kg)",
	assessment.FieldMaritalStatus: "Marital status",
	assessment.FieldGender:        "Gender",
}

var enumChoices = map[string][]string{
	assessment.FieldGender:        {string(assessment.GenderMale), string(assessment.GenderFemale)},
	assessment.FieldMaritalStatus: {"", string(assessment.MaritalSingle), string(assessment.MaritalMarried)},
}

func (w *wizard) personal() error {
	for _, f := range assessment.PersonalFields {
		cur, _ := w.s.Personal().Get(f)
		if values, ok := enumChoices[f]; ok {
			labels := make([]string, len(values))
			at := -1
			for i, v := range values {
				labels[i] = v
				if v == "" {
					labels[i] = "(skip)"
				}
				if v == cur {
					at = i
				}
			}
			i, err := w.choose(fieldLabels[f], labels, at)
			if err != nil {
				return err
			}
			if err := w.s.SetField(f, values[i]); err != nil {
				return err
			}
			continue
		}
		for {
			v, err := w.ask(fieldLabels[f], cur)
			if err != nil {
				return err
			}
			if v != "" {
				if err := w.s.SetField(f, v); err != nil {
					return err
				}
				break
			}
			warn.Fprintln(w.out, "This field is required.")
		}
	}
	if bmi := w.s.Personal().BMI(); bmi != "" {
		faint.Fprintf(w.out, "BMI: %s\n", bmi)
	}
	return nil
}

func (w *wizard) questions(sec catalog.Section) error {
	lang := w.s.Lang()
	qs, err := w.app.Catalog.Questions(sec)
	if err != nil {
		return err
	}
	for _, q := range qs {
		labels := make([]string, len(q.Options))
		at := -1
		cur, answered := w.s.AnswerValue(q.ID)
		for i, o := range q.Options {
			labels[i] = o.Text.In(lang)
			if answered && o.Value == cur {
				at = i
			}
		}
		i, err := w.choose(q.Text.In(lang), labels, at)
		if err != nil {
			return err
		}
		if err := w.s.Answer(q.ID, q.Options[i].Value); err != nil {
			return err
		}
	}
	return nil
}

func (w *wizard) medical() error {
	lang := w.s.Lang()
	conds := w.app.Catalog.Conditions()

	fmt.Fprintln(w.out, "Conditions (comma-separated numbers, 0 for none):")
	var current []string
	for i, c := range conds {
		mark := " "
		if w.s.Medical().Has(c.ID) {
			mark = "*"
			current = append(current, strconv.Itoa(i+1))
		}
		fmt.Fprintf(w.out, " %s %d) %s\n", mark, i+1, c.Name.In(lang))
	}
	for {
		ans, err := w.ask(">", strings.Join(current, ","))
		if err != nil {
			return err
		}
		tags, ok := parseSelection(ans, conds)
		if !ok {
			warn.Fprintf(w.out, "Enter numbers from 1 to %d separated by commas, or 0.\n", len(conds))
			continue
		}
		m := w.s.Medical()
		m.Conditions = tags
		if err := w.s.SetMedical(m); err != nil {
			return err
		}
		break
	}

	yesNo := []string{string(assessment.Yes), string(assessment.No)}
	pick := func(prompt string, cur assessment.YesNo) (assessment.YesNo, error) {
		at := -1
		for i, v := range yesNo {
			if string(cur) == v {
				at = i
			}
		}
		i, err := w.choose(prompt, yesNo, at)
		if err != nil {
			return "", err
		}
		return assessment.YesNo(yesNo[i]), nil
	}

	fh, err := pick("Family history of chronic disease?", w.s.Medical().FamilyHistory)
	if err != nil {
		return err
	}
	if err := w.s.SetFamilyHistory(fh); err != nil {
		return err
	}
	meds, err := pick("Taking any medication?", w.s.Medical().Medications)
	if err != nil {
		return err
	}
	if err := w.s.SetMedications(meds); err != nil {
		return err
	}
	if meds == assessment.Yes {
		details, err := w.ask("Which medications", w.s.Medical().MedicationsDetails)
		if err != nil {
			return err
		}
		return w.s.SetMedicationsDetails(details)
	}
	return nil
}

// parseSelection maps "1,3" to condition tags. "0" and "" select nothing.
func parseSelection(ans string, conds []catalog.Condition) ([]string, bool) {
	ans = strings.TrimSpace(ans)
	if ans == "" || ans == "0" {
		return []string{}, true
	}
	var tags []string
	for _, part := range strings.Split(ans, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 || n > len(conds) {
			return nil, false
		}
		tags = append(tags, conds[n-1].ID)
	}
	return tags, true
}
