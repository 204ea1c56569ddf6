// Package export flattens stored reports into a spreadsheet-friendly CSV file.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/HendryAvila/lifetest/internal/assessment"
	"github.com/HendryAvila/lifetest/internal/report"
)

// bom makes spreadsheet applications read the file as UTF-8.
const bom = "\ufeff"

// Header is the column order of the export.
var Header = []string{
	"#", "Date", "Time", "Name", "Mobile Number", "Age", "Gender", "Marital Status",
	"Height (cm)", "Weight (kg)", "BMI", "Medical Conditions", "Family History",
	"Takes Medications", "Medication Details", "Diet Score", "Activity Score",
	"Health Score", "Total Score", "Category", "Language",
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// Row flattens one record. n is the 1-based row number.
func Row(n int, r report.Record) []string {
	date, clock := r.Timestamp, ""
	if t, err := r.Time(); err == nil {
		date, clock = t.Format("2006-01-02"), t.Format("15:04:05")
	}
	p := r.Personal
	m := r.Medical
	return []string{
		strconv.Itoa(n),
		date,
		clock,
		orDefault(p.Name, "N/A"),
		orDefault(p.MobileNumber, "N/A"),
		p.Age,
		string(p.Gender),
		string(p.MaritalStatus),
		p.Height,
		p.Weight,
		assessment.BMI(p.Height, p.Weight),
		orDefault(strings.Join(m.Conditions, ", "), "None"),
		string(m.FamilyHistory),
		string(m.Medications),
		orDefault(m.MedicationsDetails, "N/A"),
		strconv.Itoa(r.Scores.Diet),
		strconv.Itoa(r.Scores.Activity),
		strconv.Itoa(r.Scores.Health),
		strconv.Itoa(r.Scores.Total),
		r.Category,
		string(r.Lang),
	}
}

// WriteCSV writes the BOM, the header and one row per record.
func WriteCSV(w io.Writer, records []report.Record) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(Row(i+1, r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName is the dated export name.
func FileName(now time.Time) string {
	return fmt.Sprintf("lifestyle-assessments-%s.csv", now.Format("2006-01-02"))
}

// ToFile writes the export into dir under an exclusive lock and returns the
// file path. Readers never see a partial file.
func ToFile(dir string, records []report.Record, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName(now))

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("locking %s: %w", path, err)
	}
	defer lock.Unlock()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return "", err
	}
	if err := atomicWrite(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// atomicWrite stages data next to path and renames it into place. The
// staging file is removed on any failure.
func atomicWrite(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("staging %s: %w", path, err)
	}
	staged := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(staged)
		}
	}()

	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", staged, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", staged, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", staged, err)
	}
	if err = os.Chmod(staged, 0o644); err != nil {
		return fmt.Errorf("setting mode on %s: %w", staged, err)
	}
	if err = os.Rename(staged, path); err != nil {
		return fmt.Errorf("moving export into place: %w", err)
	}
	return nil
}
