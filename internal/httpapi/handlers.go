package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HendryAvila/lifetest/internal/assessment"
	"github.com/HendryAvila/lifetest/internal/catalog"
	"github.com/HendryAvila/lifetest/internal/export"
	"github.com/HendryAvila/lifetest/internal/report"
	"github.com/HendryAvila/lifetest/internal/resources"
	"github.com/HendryAvila/lifetest/internal/templates"
)

// Submission is a whole questionnaire in one request.
type Submission struct {
	Lang     catalog.Lang              `json:"lang"`
	Personal assessment.PersonalInfo   `json:"personal_info"`
	Answers  map[string]int            `json:"answers"`
	Medical  assessment.MedicalHistory `json:"medical_history"`
}

// reportView is a record with everything derived from it.
type reportView struct {
	Record     report.Record     `json:"record"`
	Evaluation report.Evaluation `json:"evaluation"`
}

type submitted struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	reportView
}

// gateFailure is the data of a 422 caused by an incomplete section.
type gateFailure struct {
	Section catalog.Section `json:"section"`
	Missing []string        `json:"missing"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) catalog(c *gin.Context) {
	success(c, resources.CatalogView(s.app.Catalog))
}

// walk replays a submission through a fresh session, section by section.
func (s *Server) walk(sub Submission) (*assessment.Result, error) {
	cat := s.app.Catalog
	for id := range sub.Answers {
		if _, err := cat.Question(id); err != nil {
			return nil, fmt.Errorf("%w: %q", assessment.ErrUnknownQuestion, id)
		}
	}

	sess := assessment.New(cat, sub.Lang)
	for {
		sec := sess.Section().ID
		var err error
		switch {
		case sec == catalog.SectionPersonal:
			err = sess.SetPersonal(sub.Personal)
		case sec == catalog.SectionMedical:
			err = sess.SetMedical(sub.Medical)
		case sec.IsScored():
			for _, id := range cat.QuestionIDs(sec) {
				if v, ok := sub.Answers[id]; ok {
					if err = sess.Answer(id, v); err != nil {
						break
					}
				}
			}
		}
		if err != nil {
			return nil, err
		}

		res, err := sess.Advance()
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
}

func (s *Server) submitAssessment(c *gin.Context) {
	var sub Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if sub.Lang != "" && !catalog.ValidLang(string(sub.Lang)) {
		fail(c, http.StatusBadRequest, fmt.Sprintf("unsupported lang %q", sub.Lang))
		return
	}

	res, err := s.walk(sub)
	var gate *assessment.GateError
	switch {
	case errors.As(err, &gate):
		s.metrics.rejected.WithLabelValues(string(gate.Section)).Inc()
		failWith(c, http.StatusUnprocessableEntity, gate.Error(), gateFailure{Section: gate.Section, Missing: gate.Missing})
		return
	case err != nil:
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	rec := report.Build(*res, s.app.Engine, timeNow())
	code, err := report.Publish(c.Request.Context(), s.app.Reports, &rec)
	if err != nil {
		s.storageError(c, err)
		return
	}
	s.metrics.submissions.WithLabelValues(string(rec.Level)).Inc()
	s.log.Info().Str("report_id", rec.ID).Str("level", string(rec.Level)).Int("total", rec.Scores.Total).Msg("assessment submitted")

	created(c, submitted{
		ID:         rec.ID,
		Code:       code,
		reportView: reportView{Record: rec, Evaluation: report.Evaluate(rec)},
	})
}

// saveReport stores a record finalized elsewhere, for example decoded from a
// transport code. Scores must match the answers under this catalog.
func (s *Server) saveReport(c *gin.Context) {
	var rec report.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	rec.ID = ""
	if rec.Timestamp == "" {
		rec.Timestamp = timeNow().UTC().Format(time.RFC3339)
	}

	if err := report.Verify(rec, s.app.Catalog, s.app.Engine); err != nil {
		fail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.app.Reports.Save(c.Request.Context(), &rec)
	if err != nil {
		s.storageError(c, err)
		return
	}
	created(c, gin.H{"id": id})
}

func (s *Server) loadReport(c *gin.Context) (*report.Record, bool) {
	id := strings.TrimSpace(c.Param("id"))
	rec, err := s.app.Reports.Get(c.Request.Context(), id)
	if err != nil {
		s.storageError(c, err)
		return nil, false
	}
	return rec, true
}

func (s *Server) getReport(c *gin.Context) {
	rec, ok := s.loadReport(c)
	if !ok {
		return
	}
	success(c, reportView{Record: *rec, Evaluation: report.Evaluate(*rec)})
}

func (s *Server) printReport(c *gin.Context) {
	rec, ok := s.loadReport(c)
	if !ok {
		return
	}
	page, err := s.app.Renderer.HTML(templates.NewReportData(*rec, s.app.Catalog))
	if err != nil {
		s.log.Error().Err(err).Str("report_id", rec.ID).Msg("rendering report")
		fail(c, http.StatusInternalServerError, "failed to render report")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (s *Server) viewCode(c *gin.Context) {
	code := c.Query("data")
	if code == "" {
		fail(c, http.StatusBadRequest, "missing data parameter")
		return
	}
	rec, err := report.DecodeVerified(code, s.app.Catalog, s.app.Engine)
	if err != nil {
		s.log.Debug().Err(err).Msg("undecodable transport code")
		fail(c, http.StatusUnprocessableEntity, "result unavailable")
		return
	}
	success(c, reportView{Record: rec, Evaluation: report.Evaluate(rec)})
}

func (s *Server) exportCSV(c *gin.Context) {
	records, err := s.app.Reports.List(c.Request.Context())
	if err != nil {
		s.storageError(c, err)
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(timeNow())))
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, records); err != nil {
		s.log.Error().Err(err).Msg("writing csv export")
	}
}

// storageError maps repository failures to status codes.
func (s *Server) storageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, report.ErrNotFound):
		fail(c, http.StatusNotFound, "report not found")
	default:
		s.log.Error().Err(err).Msg("report storage")
		fail(c, http.StatusServiceUnavailable, "report storage unavailable")
	}
}
