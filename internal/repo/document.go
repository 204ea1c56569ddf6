package repo

import (
	"time"

	"github.com/HendryAvila/lifetest/internal/assessment"
	"github.com/HendryAvila/lifetest/internal/catalog"
	"github.com/HendryAvila/lifetest/internal/report"
	"github.com/HendryAvila/lifetest/internal/scoring"
)

// The document shape follows the web client's field names so reports saved
// from either side read the same.

type personalDoc struct {
	Name          string `firestore:"name"`
	MobileNumber  string `firestore:"mobileNumber"`
	Age           string `firestore:"age"`
	Gender        string `firestore:"gender"`
	Height        string `firestore:"height"`
	Weight        string `firestore:"weight"`
	MaritalStatus string `firestore:"maritalStatus"`
}

type medicalDoc struct {
	Conditions         []string `firestore:"conditions"`
	FamilyHistory      string   `firestore:"familyHistory"`
	Medications        string   `firestore:"medications"`
	MedicationsDetails string   `firestore:"medicationsDetails"`
}

type scoresDoc struct {
	Diet     int `firestore:"diet"`
	Activity int `firestore:"activity"`
	Health   int `firestore:"health"`
	Total    int `firestore:"total"`
}

type reportDoc struct {
	PersonalInfo   personalDoc    `firestore:"personalInfo"`
	Answers        map[string]int `firestore:"answers"`
	MedicalHistory medicalDoc     `firestore:"medicalHistory"`
	Scores         scoresDoc      `firestore:"scores"`
	Level          string         `firestore:"level"`
	Category       string         `firestore:"category"`
	Lang           string         `firestore:"lang"`
	Timestamp      string         `firestore:"timestamp"`
	CreatedAt      string         `firestore:"createdAt"`
}

func toDoc(r report.Record, now time.Time) reportDoc {
	p := r.Personal
	m := r.Medical
	conds := m.Conditions
	if conds == nil {
		conds = []string{}
	}
	return reportDoc{
		PersonalInfo: personalDoc{
			Name:          p.Name,
			MobileNumber:  p.MobileNumber,
			Age:           p.Age,
			Gender:        string(p.Gender),
			Height:        p.Height,
			Weight:        p.Weight,
			MaritalStatus: string(p.MaritalStatus),
		},
		Answers: r.Answers,
		MedicalHistory: medicalDoc{
			Conditions:         conds,
			FamilyHistory:      string(m.FamilyHistory),
			Medications:        string(m.Medications),
			MedicationsDetails: m.MedicationsDetails,
		},
		Scores: scoresDoc{
			Diet:     r.Scores.Diet,
			Activity: r.Scores.Activity,
			Health:   r.Scores.Health,
			Total:    r.Scores.Total,
		},
		Level:     string(r.Level),
		Category:  r.Category,
		Lang:      string(r.Lang),
		Timestamp: r.Timestamp,
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
}

func fromDoc(id string, d reportDoc) report.Record {
	p := d.PersonalInfo
	m := d.MedicalHistory
	return report.Record{
		ID: id,
		Personal: assessment.PersonalInfo{
			Name:          p.Name,
			MobileNumber:  p.MobileNumber,
			Age:           p.Age,
			Gender:        assessment.Gender(p.Gender),
			Height:        p.Height,
			Weight:        p.Weight,
			MaritalStatus: assessment.MaritalStatus(p.MaritalStatus),
		},
		Answers: d.Answers,
		Medical: assessment.MedicalHistory{
			Conditions:         m.Conditions,
			FamilyHistory:      assessment.YesNo(m.FamilyHistory),
			Medications:        assessment.YesNo(m.Medications),
			MedicationsDetails: m.MedicationsDetails,
		},
		Scores: scoring.Scores{
			Diet:     d.Scores.Diet,
			Activity: d.Scores.Activity,
			Health:   d.Scores.Health,
			Total:    d.Scores.Total,
		},
		Level:     scoring.Level(d.Level),
		Category:  d.Category,
		Lang:      catalog.Lang(d.Lang),
		Timestamp: d.Timestamp,
	}
}
