package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/lifetest/internal/assessment"
	"github.com/HendryAvila/lifetest/internal/catalog"
	"github.com/HendryAvila/lifetest/internal/report"
	"github.com/HendryAvila/lifetest/internal/scoring"
)

func records() []report.Record {
	return []report.Record{
		{
			Personal: assessment.PersonalInfo{
				Name: "Ali, Jr.", MobileNumber: "0501", Age: "50", Gender: assessment.GenderMale,
				Height: "175", Weight: "90", MaritalStatus: assessment.MaritalMarried,
			},
			Medical: assessment.MedicalHistory{
				Conditions: []string{"diabetes", "hypertension"}, FamilyHistory: assessment.Yes,
				Medications: assessment.Yes, MedicationsDetails: `insulin "rapid"`,
			},
			Scores:    scoring.Scores{Diet: 5, Activity: 3, Health: 10, Total: 18},
			Level:     scoring.LevelModerate,
			Category:  "Moderate Lifestyle",
			Lang:      catalog.LangEN,
			Timestamp: "2026-06-01T14:05:09Z",
		},
		{
			Personal:  assessment.PersonalInfo{Age: "20", Gender: assessment.GenderFemale},
			Medical:   assessment.MedicalHistory{FamilyHistory: assessment.No, Medications: assessment.No},
			Level:     scoring.LevelUnhealthy,
			Category:  "نمط حياة غير صحي",
			Lang:      catalog.LangAR,
			Timestamp: "2026-06-02T08:00:00Z",
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records()))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeff"), "missing BOM")

	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])

	first := rows[1]
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "2026-06-01", first[1])
	assert.Equal(t, "14:05:09", first[2])
	assert.Equal(t, "Ali, Jr.", first[3])
	assert.Equal(t, "29.4", first[10])
	assert.Equal(t, "diabetes, hypertension", first[11])
	assert.Equal(t, `insulin "rapid"`, first[14])
	assert.Equal(t, "18", first[18])
	assert.Equal(t, "Moderate Lifestyle", first[19])

	second := rows[2]
	assert.Equal(t, "N/A", second[3])
	assert.Equal(t, "N/A", second[4])
	assert.Equal(t, "", second[10])
	assert.Equal(t, "None", second[11])
	assert.Equal(t, "N/A", second[14])
	assert.Equal(t, "ar", second[20])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\ufeff"))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRow_BMIMatchesSession(t *testing.T) {
	r := records()[0]
	assert.Equal(t, r.Personal.BMI(), Row(1, r)[10])
}

func TestToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	now := time.Date(2026, 6, 3, 12, 0, 0, 0, time.UTC)

	path, err := ToFile(dir, records(), now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lifestyle-assessments-2026-06-03.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\ufeff#,Date,Time")))

	// Rewriting the same day replaces the file.
	path2, err := ToFile(dir, records()[:1], now)
	require.NoError(t, err)
	assert.Equal(t, path, path2)
	data, err = os.ReadFile(path2)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))

	matches, _ := filepath.Glob(filepath.Join(dir, ".lifestyle-assessments-*"))
	assert.Empty(t, matches)
}

func TestAtomicWrite_FailureLeavesNoStagingFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.csv")
	// A non-empty directory at the target makes the final rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(target, "keep"), 0o755))

	err := atomicWrite(target, []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moving export into place")

	matches, _ := filepath.Glob(filepath.Join(dir, ".out.csv.*"))
	assert.Empty(t, matches)
}
