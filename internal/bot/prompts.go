package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/HendryAvila/lifetest/internal/assessment"
	"github.com/HendryAvila/lifetest/internal/catalog"
)

// Prompt keys of the medical section. Personal prompts use the field names
// and scored prompts the question ids.
const (
	keyConditions        = "conditions"
	keyFamilyHistory     = "family_history"
	keyMedications       = "medications"
	keyMedicationDetails = "medications_details"

	doneValue = "done"
)

// textPrompt marks the prompts answered by typing.
var textPrompt = map[string]bool{
	assessment.FieldName:         true,
	assessment.FieldMobileNumber: true,
	assessment.FieldAge:          true,
	assessment.FieldHeight:       true,
	assessment.FieldWeight:       true,
	keyMedicationDetails:         true,
}

// prompts lists what the current section asks, in order. Medication details
// are only asked after a yes.
func prompts(s *assessment.Session) []string {
	sec := s.Section().ID
	switch {
	case sec == catalog.SectionPersonal:
		return assessment.PersonalFields
	case sec == catalog.SectionMedical:
		keys := []string{keyConditions, keyFamilyHistory, keyMedications}
		if s.Medical().Medications == assessment.Yes {
			keys = append(keys, keyMedicationDetails)
		}
		return keys
	default:
		return s.Catalog().QuestionIDs(sec)
	}
}

var ui = struct {
	welcome      catalog.Text
	help         catalog.Text
	notStarted   catalog.Text
	cancelled    catalog.Text
	firstSection catalog.Text
	cannotSkip   catalog.Text
	useButtons   catalog.Text
	stale        catalog.Text
	missing      catalog.Text
	saveFailed   catalog.Text
	saved        catalog.Text
	current      catalog.Text
	skipHint     catalog.Text
	done         catalog.Text
	prompts      map[string]catalog.Text
	choices      map[string]catalog.Text
}{
	welcome: catalog.Text{
		EN: "Welcome to the lifestyle assessment. Use /back to return to the previous section and /cancel to stop.",
		AR: "مرحبًا بك في تقييم نمط الحياة. استخدم /back للعودة إلى القسم السابق و /cancel للإيقاف.",
	},
	help: catalog.Text{
		EN: "/start [en|ar] starts an assessment\n/back returns to the previous section\n/skip skips an optional question\n/cancel discards the assessment",
		AR: "/start [en|ar] لبدء التقييم\n/back للعودة إلى القسم السابق\n/skip لتخطي سؤال اختياري\n/cancel لإلغاء التقييم",
	},
	notStarted: catalog.Text{
		EN: "No assessment in progress. Send /start to begin.",
		AR: "لا يوجد تقييم جارٍ. أرسل /start للبدء.",
	},
	cancelled: catalog.Text{
		EN: "Assessment cancelled.",
		AR: "تم إلغاء التقييم.",
	},
	firstSection: catalog.Text{
		EN: "You are on the first section. Send /cancel to leave the assessment.",
		AR: "أنت في القسم الأول. أرسل /cancel لمغادرة التقييم.",
	},
	cannotSkip: catalog.Text{
		EN: "This question is required.",
		AR: "هذا السؤال مطلوب.",
	},
	useButtons: catalog.Text{
		EN: "Please choose one of the buttons.",
		AR: "يرجى اختيار أحد الأزرار.",
	},
	stale: catalog.Text{
		EN: "That question is no longer active.",
		AR: "هذا السؤال لم يعد نشطًا.",
	},
	missing: catalog.Text{
		EN: "This section is incomplete. Still needed: %s",
		AR: "هذا القسم غير مكتمل. المطلوب: %s",
	},
	saveFailed: catalog.Text{
		EN: "Your answers are complete but the report could not be saved. Send /submit to try again.",
		AR: "اكتملت إجاباتك لكن تعذر حفظ التقرير. أرسل /submit للمحاولة مرة أخرى.",
	},
	saved: catalog.Text{
		EN: "Report ID: %s\nShare code: %s",
		AR: "رقم التقرير: %s\nرمز المشاركة: %s",
	},
	current: catalog.Text{EN: "Current: %s", AR: "الحالي: %s"},
	skipHint: catalog.Text{
		EN: "Send /skip to leave it empty.",
		AR: "أرسل /skip لتركه فارغًا.",
	},
	done: catalog.Text{EN: "Done", AR: "تم"},
	prompts: map[string]catalog.Text{
		assessment.FieldName:          {EN: "What is your name?", AR: "ما اسمك؟"},
		assessment.FieldMobileNumber:  {EN: "What is your mobile number?", AR: "ما رقم جوالك؟"},
		assessment.FieldAge:           {EN: "How old are you?", AR: "كم عمرك؟"},
		assessment.FieldGender:        {EN: "Gender?", AR: "الجنس؟"},
		assessment.FieldHeight:        {EN: "Your height in centimetres?", AR: "طولك بالسنتيمتر؟"},
		assessment.FieldWeight:        {EN: "Your weight in kilograms?", AR: "وزنك بالكيلوغرام؟"},
		assessment.FieldMaritalStatus: {EN: "Marital status?", AR: "الحالة الاجتماعية؟"},
		keyConditions:                 {EN: "Select any conditions you have, then press Done.", AR: "اختر أي حالات لديك ثم اضغط تم."},
		keyFamilyHistory:              {EN: "Is there a family history of chronic disease?", AR: "هل يوجد تاريخ عائلي لأمراض مزمنة؟"},
		keyMedications:                {EN: "Do you take any medication?", AR: "هل تتناول أي أدوية؟"},
		keyMedicationDetails:          {EN: "Which medications do you take?", AR: "ما الأدوية التي تتناولها؟"},
	},
	choices: map[string]catalog.Text{
		"male":    {EN: "Male", AR: "ذكر"},
		"female":  {EN: "Female", AR: "أنثى"},
		"single":  {EN: "Single", AR: "أعزب"},
		"married": {EN: "Married", AR: "متزوج"},
		"yes":     {EN: "Yes", AR: "نعم"},
		"no":      {EN: "No", AR: "لا"},
	},
}

// fieldPrompt asks for a typed or enum field, showing the value already
// entered when the user came back to the section.
func fieldPrompt(s *assessment.Session, key string, lang catalog.Lang) string {
	text := ui.prompts[key].In(lang)
	var cur string
	if key == keyMedicationDetails {
		cur = s.Medical().MedicationsDetails
	} else {
		cur, _ = s.Personal().Get(key)
	}
	if cur != "" {
		if label, ok := ui.choices[cur]; ok {
			cur = label.In(lang)
		}
		text += "\n" + fmt.Sprintf(ui.current.In(lang), cur)
	}
	if key == assessment.FieldMaritalStatus || key == keyMedicationDetails {
		text += "\n" + ui.skipHint.In(lang)
	}
	return text
}

func button(text, key, value string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: key + "=" + value}
}

// choiceKeyboard lays the values out on one row.
func choiceKeyboard(key string, lang catalog.Lang, values ...string) *models.InlineKeyboardMarkup {
	row := make([]models.InlineKeyboardButton, 0, len(values))
	for _, v := range values {
		row = append(row, button(ui.choices[v].In(lang), key, v))
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}
}

// optionKeyboard puts each option of q on its own row.
func optionKeyboard(q catalog.Question, lang catalog.Lang) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(q.Options))
	for _, o := range q.Options {
		rows = append(rows, []models.InlineKeyboardButton{button(o.Text.In(lang), q.ID, strconv.Itoa(o.Value))})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// conditionsKeyboard marks selected conditions and ends with Done.
func conditionsKeyboard(cat *catalog.Catalog, m assessment.MedicalHistory, lang catalog.Lang) *models.InlineKeyboardMarkup {
	conds := cat.Conditions()
	rows := make([][]models.InlineKeyboardButton, 0, len(conds)+1)
	for _, c := range conds {
		label := c.Name.In(lang)
		if m.Has(c.ID) {
			label = "✅ " + label
		}
		rows = append(rows, []models.InlineKeyboardButton{button(label, keyConditions, c.ID)})
	}
	rows = append(rows, []models.InlineKeyboardButton{button(ui.done.In(lang), keyConditions, doneValue)})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func conditionsText(cat *catalog.Catalog, m assessment.MedicalHistory, lang catalog.Lang) string {
	text := ui.prompts[keyConditions].In(lang)
	if len(m.Conditions) == 0 {
		return text
	}
	names := make([]string, 0, len(m.Conditions))
	for _, tag := range m.Conditions {
		if c, err := cat.Condition(tag); err == nil {
			names = append(names, c.Name.In(lang))
		}
	}
	return text + "\n" + fmt.Sprintf(ui.current.In(lang), strings.Join(names, ", "))
}
