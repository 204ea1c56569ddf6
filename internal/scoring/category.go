package scoring

import (
	"fmt"

	"github.com/HendryAvila/lifetest/internal/catalog"
)

// Level is the risk tier.
type Level string

const (
	LevelUnhealthy Level = "unhealthy"
	LevelModerate  Level = "moderate"
	LevelHealthy   Level = "healthy"
)

// Tier cutoffs on the total score, inclusive lower bounds.
const (
	HealthyMin  = 28
	ModerateMin = 17
)

var validLevels = map[Level]bool{
	LevelUnhealthy: true,
	LevelModerate:  true,
	LevelHealthy:   true,
}

// ValidateLevel rejects anything outside the three tiers.
func ValidateLevel(l Level) error {
	if !validLevels[l] {
		return fmt.Errorf("invalid level %q: must be one of: unhealthy, moderate, healthy", l)
	}
	return nil
}

// Category is a tier with its display text.
type Category struct {
	Level       Level        `json:"level"`
	Name        catalog.Text `json:"name"`
	Description catalog.Text `json:"description"`
}

var categories = map[Level]Category{
	LevelHealthy: {
		Level: LevelHealthy,
		Name:  catalog.Text{EN: "Healthy Lifestyle", AR: "نمط حياة صحي"},
		Description: catalog.Text{
			EN: "Very good lifestyle. Maintain current habits with slight improvements.",
			AR: "نمط حياة جيد جدًا. حافظ على عاداتك الحالية مع تحسينات طفيفة.",
		},
	},
	LevelModerate: {
		Level: LevelModerate,
		Name:  catalog.Text{EN: "Moderate Lifestyle", AR: "نمط حياة متوسط"},
		Description: catalog.Text{
			EN: "Moderate risk. Some areas need improvement.",
			AR: "خطر متوسط. بعض المجالات تحتاج إلى تحسين.",
		},
	},
	LevelUnhealthy: {
		Level: LevelUnhealthy,
		Name:  catalog.Text{EN: "Unhealthy Lifestyle", AR: "نمط حياة غير صحي"},
		Description: catalog.Text{
			EN: "High risk of chronic diseases. Major lifestyle changes needed.",
			AR: "خطر عالٍ من الأمراض المزمنة. تحتاج إلى تغييرات كبيرة في نمط الحياة.",
		},
	},
}

// Classify maps a total score to its tier, checking the cutoffs high to low.
func Classify(total int) Category {
	switch {
	case total >= HealthyMin:
		return categories[LevelHealthy]
	case total >= ModerateMin:
		return categories[LevelModerate]
	default:
		return categories[LevelUnhealthy]
	}
}

// CategoryFor returns the static category for a level.
func CategoryFor(l Level) (Category, bool) {
	c, ok := categories[l]
	return c, ok
}
