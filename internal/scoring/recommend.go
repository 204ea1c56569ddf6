package scoring

import (
	"github.com/HendryAvila/lifetest/internal/assessment"
	"github.com/HendryAvila/lifetest/internal/catalog"
)

// Recommendations are the localized tips for one result.
type Recommendations struct {
	Diet     []string `json:"diet"`
	Activity []string `json:"activity"`
	Health   []string `json:"health"`
	Medical  []string `json:"medical"`
}

// band is one row of a rule table: scores up to and including Max get Tips.
// The last row of a table has no upper bound.
type band struct {
	Max  int
	Tips []catalog.Text
}

const unbounded = int(^uint(0) >> 1)

var dietBands = []band{
	{Max: 7, Tips: []catalog.Text{
		{EN: "Increase fruit and vegetable intake gradually to 3–5 servings per day", AR: "زد تناول الفواكه والخضروات تدريجيًا إلى 3-5 حصص يوميًا"},
		{EN: "Reduce sweetened drinks and fast food", AR: "قلل من المشروبات المحلاة والوجبات السريعة"},
		{EN: "Increase water intake progressively to 8 cups daily", AR: "زد تناول الماء تدريجيًا إلى 8 أكواب يوميًا"},
	}},
	{Max: 14, Tips: []catalog.Text{
		{EN: "Add whole grains and plant-based protein to your diet", AR: "أضف الحبوب الكاملة والبروتين النباتي إلى نظامك الغذائي"},
		{EN: "Reduce added sugars", AR: "قلل من السكريات المضافة"},
	}},
	{Max: unbounded, Tips: []catalog.Text{
		{EN: "Maintain your good eating habits and focus on food quality", AR: "حافظ على عاداتك الغذائية الجيدة وركز على جودة الطعام"},
	}},
}

var activityBands = []band{
	{Max: 6, Tips: []catalog.Text{
		{EN: "Start walking 15 minutes daily and increase gradually", AR: "ابدأ بالمشي 15 دقيقة يوميًا وزد تدريجيًا"},
		{EN: "Reduce daily sitting hours", AR: "قلل ساعات الجلوس اليومية"},
	}},
	{Max: 12, Tips: []catalog.Text{
		{EN: "Extend exercise sessions to 45 minutes, 4 times per week", AR: "مدد جلسات التمرين إلى 45 دقيقة، 4 مرات في الأسبوع"},
	}},
	{Max: unbounded, Tips: []catalog.Text{
		{EN: "Maintain your physical activity and diversify your exercises", AR: "حافظ على نشاطك البدني ونوع تمارينك"},
	}},
}

var healthBands = []band{
	{Max: 17, Tips: []catalog.Text{
		{EN: "If you smoke, start a quitting plan", AR: "إذا كنت تدخن، ابدأ خطة للإقلاع عن التدخين"},
		{EN: "Sleep 7–8 hours daily", AR: "نم 7-8 ساعات يوميًا"},
		{EN: "Practice relaxation techniques", AR: "مارس تقنيات الاسترخاء"},
	}},
	{Max: 34, Tips: []catalog.Text{
		{EN: "Continue improving your sleep and stress control", AR: "استمر في تحسين نومك والتحكم في التوتر"},
		{EN: "Get regular medical check-ups", AR: "احصل على فحوصات طبية منتظمة"},
	}},
	{Max: unbounded, Tips: []catalog.Text{
		{EN: "Maintain your healthy lifestyle and monitor your wellness", AR: "حافظ على نمط حياتك الصحي وراقب صحتك"},
	}},
}

// conditionTip is one entry of the medical table. The slice order is the
// order tips are emitted in, whatever order the conditions were selected.
type conditionTip struct {
	Condition string
	Tip       catalog.Text
}

// Respiratory and "other" are selectable but have no tip.
var medicalTips = []conditionTip{
	{"diabetes", catalog.Text{
		EN: "For Diabetes: Eat 5–6 small, frequent meals daily, focus on complex carbohydrates, monitor blood glucose regularly",
		AR: "للسكري: تناول 5-6 وجبات صغيرة متكررة يوميًا، ركز على الكربوهيدرات المعقدة، راقب مستوى السكر في الدم بانتظام",
	}},
	{"hypertension", catalog.Text{
		EN: "For High Blood Pressure: Limit salt intake to less than 5 grams per day, eat potassium-rich foods, avoid processed and canned foods",
		AR: "لارتفاع ضغط الدم: قلل تناول الملح إلى أقل من 5 جرام يوميًا، تناول الأطعمة الغنية بالبوتاسيوم، تجنب الأطعمة المصنعة والمعلبة",
	}},
	{"heart", catalog.Text{
		EN: "For Heart Disease: Focus on omega-3–rich foods, reduce saturated and trans fats, quit smoking completely",
		AR: "لأمراض القلب: ركز على الأطعمة الغنية بأوميغا-3، قلل الدهون المشبعة والمتحولة، أقلع عن التدخين تمامًا",
	}},
	{"obesity", catalog.Text{
		EN: "For Obesity: Follow a balanced diet with caloric deficit, increase physical activity gradually, consult a nutritionist",
		AR: "للسمنة: اتبع نظامًا غذائيًا متوازنًا مع عجز في السعرات الحرارية، زد النشاط البدني تدريجيًا، استشر أخصائي تغذية",
	}},
}

func pick(bands []band, score int, lang catalog.Lang) []string {
	for _, b := range bands {
		if score <= b.Max {
			return localize(b.Tips, lang)
		}
	}
	return []string{}
}

func localize(tips []catalog.Text, lang catalog.Lang) []string {
	out := make([]string, len(tips))
	for i, t := range tips {
		out[i] = t.In(lang)
	}
	return out
}

// Recommend selects the tips for each category band and one tip per known
// medical condition. Medical tips follow the fixed order diabetes,
// hypertension, heart, obesity. Every call returns fresh slices.
func Recommend(scores Scores, medical assessment.MedicalHistory, lang catalog.Lang) Recommendations {
	rec := Recommendations{
		Diet:     pick(dietBands, scores.Diet, lang),
		Activity: pick(activityBands, scores.Activity, lang),
		Health:   pick(healthBands, scores.Health, lang),
		Medical:  []string{},
	}
	for _, ct := range medicalTips {
		if medical.Has(ct.Condition) {
			rec.Medical = append(rec.Medical, ct.Tip.In(lang))
		}
	}
	return rec
}
