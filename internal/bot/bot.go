// Package bot is the Telegram front end. Each user walks one assessment
// session held in memory; personal fields are typed in, everything with a
// fixed set of answers is offered as an inline keyboard.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/HendryAvila/lifetest/internal/app"
	"github.com/HendryAvila/lifetest/internal/assessment"
	"github.com/HendryAvila/lifetest/internal/catalog"
	"github.com/HendryAvila/lifetest/internal/report"
	"github.com/HendryAvila/lifetest/internal/scoring"
	"github.com/HendryAvila/lifetest/internal/templates"
)

// timeNow is replaced in tests.
var timeNow = time.Now

// sender is the part of *bot.Bot the handler talks to.
type sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// chat is one user's conversation. step indexes prompts(session).
type chat struct {
	mu      sync.Mutex
	session *assessment.Session
	step    int
}

// Handler routes updates to per-user sessions.
type Handler struct {
	cat         *catalog.Catalog
	engine      *scoring.Engine
	repo        report.Repository
	log         zerolog.Logger
	defaultLang catalog.Lang

	mu    sync.Mutex
	chats map[int64]*chat
}

// New creates a Handler over the shared dependencies.
func New(a *app.App) *Handler {
	return &Handler{
		cat:         a.Catalog,
		engine:      a.Engine,
		repo:        a.Reports,
		log:         a.Log.With().Str("component", "bot").Logger(),
		defaultLang: catalog.ParseLang(a.Config.DefaultLang),
		chats:       make(map[int64]*chat),
	}
}

// Run polls Telegram until ctx is cancelled.
func (h *Handler) Run(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("telegram token is not set")
	}
	b, err := bot.New(token, bot.WithDefaultHandler(h.Handle))
	if err != nil {
		return fmt.Errorf("creating bot: %w", err)
	}
	h.log.Info().Msg("bot started")
	b.Start(ctx)
	h.log.Info().Msg("bot stopped")
	return nil
}

// Handle is the bot.HandlerFunc for every update.
func (h *Handler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.dispatch(ctx, b, update)
}

func (h *Handler) dispatch(ctx context.Context, out sender, update *models.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.onCallback(ctx, out, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		h.onMessage(ctx, out, update.Message)
	}
}

// lookup returns the chat for userID, creating it when create is set.
func (h *Handler) lookup(userID int64, create bool) *chat {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.chats[userID]
	if !ok && create {
		c = &chat{}
		h.chats[userID] = c
	}
	return c
}

func (h *Handler) drop(userID int64) {
	h.mu.Lock()
	delete(h.chats, userID)
	h.mu.Unlock()
}

func (h *Handler) onMessage(ctx context.Context, out sender, msg *models.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	h.log.Debug().Int64("user", userID).Str("text", text).Msg("message")

	cmd, arg, _ := strings.Cut(text, " ")
	switch cmd {
	case "/start":
		lang := h.defaultLang
		if a := strings.TrimSpace(arg); a != "" {
			lang = catalog.ParseLang(a)
		}
		c := h.lookup(userID, true)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.session = assessment.New(h.cat, lang)
		c.step = 0
		h.send(ctx, out, chatID, ui.welcome.In(lang), nil)
		h.prompt(ctx, out, chatID, c)
		return
	case "/help":
		h.send(ctx, out, chatID, ui.help.In(h.defaultLang), nil)
		return
	}

	c := h.lookup(userID, false)
	if c == nil {
		h.send(ctx, out, chatID, ui.notStarted.In(h.defaultLang), nil)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		h.send(ctx, out, chatID, ui.notStarted.In(h.defaultLang), nil)
		return
	}
	lang := c.session.Lang()

	switch cmd {
	case "/cancel":
		h.drop(userID)
		h.send(ctx, out, chatID, ui.cancelled.In(lang), nil)
	case "/back":
		exit, err := c.session.Retreat()
		if err != nil {
			h.send(ctx, out, chatID, err.Error(), nil)
			return
		}
		if exit {
			h.send(ctx, out, chatID, ui.firstSection.In(lang), nil)
			return
		}
		c.step = 0
		h.prompt(ctx, out, chatID, c)
	case "/skip":
		key := c.current()
		if key != assessment.FieldMaritalStatus && key != keyMedicationDetails {
			h.send(ctx, out, chatID, ui.cannotSkip.In(lang), nil)
			return
		}
		h.next(ctx, out, chatID, userID, c)
	case "/submit":
		if c.step < len(prompts(c.session)) {
			h.prompt(ctx, out, chatID, c)
			return
		}
		h.next(ctx, out, chatID, userID, c)
	default:
		key := c.current()
		if !textPrompt[key] {
			h.send(ctx, out, chatID, ui.useButtons.In(lang), nil)
			return
		}
		if text == "" {
			h.prompt(ctx, out, chatID, c)
			return
		}
		var err error
		if key == keyMedicationDetails {
			err = c.session.SetMedicationsDetails(text)
		} else {
			err = c.session.SetField(key, text)
		}
		if err != nil {
			h.send(ctx, out, chatID, err.Error(), nil)
			return
		}
		h.next(ctx, out, chatID, userID, c)
	}
}

func (h *Handler) onCallback(ctx context.Context, out sender, cq *models.CallbackQuery) {
	userID := cq.From.ID
	answer := func(text string) {
		if _, err := out.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: cq.ID,
			Text:            text,
		}); err != nil {
			h.log.Warn().Err(err).Msg("answering callback")
		}
	}

	c := h.lookup(userID, false)
	if c == nil {
		answer(ui.notStarted.In(h.defaultLang))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		answer(ui.notStarted.In(h.defaultLang))
		return
	}
	lang := c.session.Lang()

	key, value, ok := strings.Cut(cq.Data, "=")
	if !ok || key != c.current() {
		answer(ui.stale.In(lang))
		return
	}

	var err error
	advance := true
	switch {
	case key == assessment.FieldGender || key == assessment.FieldMaritalStatus:
		err = c.session.SetField(key, value)
	case key == keyConditions:
		if value != doneValue {
			err = c.session.ToggleCondition(value)
			advance = false
		}
	case key == keyFamilyHistory:
		err = c.session.SetFamilyHistory(assessment.YesNo(value))
	case key == keyMedications:
		err = c.session.SetMedications(assessment.YesNo(value))
	default:
		v, convErr := strconv.Atoi(value)
		if convErr != nil {
			err = fmt.Errorf("%w: %q", assessment.ErrInvalidOption, value)
			break
		}
		err = c.session.Answer(key, v)
	}
	if err != nil {
		answer(err.Error())
		return
	}
	answer("")

	if !advance {
		selected := c.session.Medical()
		h.send(ctx, out, userID, conditionsText(c.session.Catalog(), selected, lang), conditionsKeyboard(c.session.Catalog(), selected, lang))
		return
	}
	h.next(ctx, out, userID, userID, c)
}

// next moves past the current prompt. After the last prompt of a section the
// session advances; a closed gate sends the user back to the first missing
// item.
func (h *Handler) next(ctx context.Context, out sender, chatID, userID int64, c *chat) {
	c.step++
	keys := prompts(c.session)
	if c.step < len(keys) {
		h.prompt(ctx, out, chatID, c)
		return
	}

	lang := c.session.Lang()
	before := c.session.Snapshot()

	res, err := c.session.Advance()
	var gate *assessment.GateError
	if errors.As(err, &gate) {
		c.step = indexOf(keys, gate.Missing[0])
		h.send(ctx, out, chatID, fmt.Sprintf(ui.missing.In(lang), strings.Join(gate.Missing, ", ")), nil)
		h.prompt(ctx, out, chatID, c)
		return
	}
	if err != nil {
		h.send(ctx, out, chatID, err.Error(), nil)
		return
	}
	if res == nil {
		c.step = 0
		h.prompt(ctx, out, chatID, c)
		return
	}

	rec := report.Build(*res, h.engine, timeNow())
	code, err := report.Publish(ctx, h.repo, &rec)
	if err != nil {
		h.log.Error().Err(err).Int64("user", userID).Msg("saving report failed")
		if restored, rerr := assessment.Restore(h.cat, before); rerr == nil {
			c.session = restored
			c.step = len(keys)
		}
		h.send(ctx, out, chatID, ui.saveFailed.In(lang), nil)
		return
	}
	h.log.Info().
		Int64("user", userID).
		Str("report_id", rec.ID).
		Str("level", string(rec.Level)).
		Int("total", rec.Scores.Total).
		Msg("assessment submitted")

	h.drop(userID)
	h.send(ctx, out, chatID, templates.Summary(templates.NewReportData(rec, h.cat)), nil)
	h.send(ctx, out, chatID, fmt.Sprintf(ui.saved.In(lang), rec.ID, code), nil)
}

// prompt asks for the current item.
func (h *Handler) prompt(ctx context.Context, out sender, chatID int64, c *chat) {
	s := c.session
	lang := s.Lang()
	keys := prompts(s)
	if c.step >= len(keys) {
		c.step = 0
	}
	key := keys[c.step]

	if c.step == 0 {
		sec := s.Section()
		h.send(ctx, out, chatID, fmt.Sprintf("%d/%d %s", s.Index()+1, s.Total(), sec.Title.In(lang)), nil)
	}

	switch {
	case textPrompt[key]:
		h.send(ctx, out, chatID, fieldPrompt(s, key, lang), nil)
	case key == assessment.FieldGender:
		h.send(ctx, out, chatID, fieldPrompt(s, key, lang), choiceKeyboard(key, lang, "male", "female"))
	case key == assessment.FieldMaritalStatus:
		h.send(ctx, out, chatID, fieldPrompt(s, key, lang), choiceKeyboard(key, lang, "single", "married"))
	case key == keyConditions:
		m := s.Medical()
		h.send(ctx, out, chatID, conditionsText(s.Catalog(), m, lang), conditionsKeyboard(s.Catalog(), m, lang))
	case key == keyFamilyHistory, key == keyMedications:
		h.send(ctx, out, chatID, ui.prompts[key].In(lang), choiceKeyboard(key, lang, "yes", "no"))
	default:
		q, err := s.Catalog().Question(key)
		if err != nil {
			h.send(ctx, out, chatID, err.Error(), nil)
			return
		}
		h.send(ctx, out, chatID, q.Text.In(lang), optionKeyboard(q, lang))
	}
}

func (h *Handler) send(ctx context.Context, out sender, chatID int64, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{ChatID: chatID, Text: text}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := out.SendMessage(ctx, params); err != nil {
		h.log.Warn().Err(err).Int64("chat", chatID).Msg("sending message")
	}
}

// current is the prompt key waiting for input.
func (c *chat) current() string {
	keys := prompts(c.session)
	if c.step < 0 || c.step >= len(keys) {
		return ""
	}
	return keys[c.step]
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return 0
}
