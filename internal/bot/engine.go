package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/metrics"
	"backoffice/internal/models"
	"backoffice/internal/service"
	"backoffice/internal/session"

	"github.com/rs/zerolog"
)

// EventKind is the shape of an inbound chat event.
type EventKind int

const (
	EventStart EventKind = iota
	EventChoice
	EventText
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventChoice:
		return "choice"
	case EventText:
		return "text"
	}
	return "unknown"
}

// Event is one inbound update reduced to what the flows need.
type Event struct {
	Kind      EventKind
	Token     string // raw button token of a choice
	Body      string // free text
	MessageID int
}

// errStaleChoice marks a button press that does not fit the chat's current
// step, typically from an old message. It is logged and otherwise ignored.
var errStaleChoice = errors.New("choice does not match the current step")

// Settings are the engine's tunables.
type Settings struct {
	CleanupDelay       time.Duration
	ReportCleanupDelay time.Duration
	ExportDir          string
	Location           *time.Location
}

// Engine interprets chat events against per-chat sessions. Events of one chat
// must be delivered sequentially; different chats may be handled concurrently.
type Engine struct {
	gateway  domain.ChatGateway
	sessions *session.Store
	store    domain.Store
	bookings *service.BookingService
	reports  *service.ReportService
	catalog  *models.Catalog
	settings Settings
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewEngine(
	gateway domain.ChatGateway,
	sessions *session.Store,
	store domain.Store,
	bookings *service.BookingService,
	reports *service.ReportService,
	catalog *models.Catalog,
	settings Settings,
	logger *zerolog.Logger,
) *Engine {
	if catalog == nil {
		catalog = models.DefaultCatalog()
	}
	if settings.Location == nil {
		settings.Location = time.Local
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Engine{
		gateway:  gateway,
		sessions: sessions,
		store:    store,
		bookings: bookings,
		reports:  reports,
		catalog:  catalog,
		settings: settings,
		now:      time.Now,
		logger:   logger,
	}
}

// HandleEvent runs one event through the dispatch rules. User-facing
// failures are answered in chat; the returned error is for logging only.
func (e *Engine) HandleEvent(ctx context.Context, chatID int64, ev Event) error {
	if ev.Kind != EventChoice {
		e.sessions.Track(chatID, ev.MessageID)
	}

	err := e.dispatch(ctx, chatID, ev)
	if err == nil {
		return nil
	}
	if errors.Is(err, errStaleChoice) {
		e.log(ctx).Debug().Int64("chat_id", chatID).Str("token", ev.Token).Msg("Ignoring stale choice")
		return nil
	}
	return e.fail(ctx, chatID, err)
}

func (e *Engine) dispatch(ctx context.Context, chatID int64, ev Event) error {
	switch ev.Kind {
	case EventStart:
		return e.showMainMenu(ctx, chatID)
	case EventChoice:
		return e.handleChoice(ctx, chatID, DecodeToken(ev.Token))
	case EventText:
		return e.handleText(ctx, chatID, strings.TrimSpace(ev.Body))
	}
	return nil
}

func (e *Engine) handleChoice(ctx context.Context, chatID int64, tok Token) error {
	if tok.Global() {
		return e.handleGlobal(ctx, chatID, tok)
	}

	sess, ok := e.sessions.Get(chatID)
	if !ok {
		return e.say(ctx, chatID, msgNoActiveProcess)
	}

	switch sess.Flow {
	case session.FlowBooking:
		return e.bookingChoice(ctx, sess, tok)
	case session.FlowBookingCancel:
		return e.cancelChoice(ctx, sess, tok)
	case session.FlowBookingEdit:
		return e.editChoice(ctx, sess, tok)
	case session.FlowClientDelete:
		return e.clientDeleteChoice(ctx, sess, tok)
	case session.FlowClientUpdate:
		return e.clientUpdateChoice(ctx, sess, tok)
	case session.FlowExpenseAdd:
		return e.expenseAddChoice(ctx, sess, tok)
	case session.FlowExpenseDelete:
		return e.expenseDeleteChoice(ctx, sess, tok)
	case session.FlowExpenseUpdate:
		return e.expenseUpdateChoice(ctx, sess, tok)
	case session.FlowStaffDelete:
		return e.staffDeleteChoice(ctx, sess, tok)
	case session.FlowStaffUpdate:
		return e.staffUpdateChoice(ctx, sess, tok)
	case session.FlowStaffPerformance:
		return e.staffPerformanceChoice(ctx, sess, tok)
	}
	return errStaleChoice
}

// handleText routes free text to the prompt the session has armed. Text with
// no session or no armed prompt is only tracked for cleanup.
func (e *Engine) handleText(ctx context.Context, chatID int64, text string) error {
	sess, ok := e.sessions.Get(chatID)
	if !ok || sess.Pending == session.PendingNone {
		return nil
	}

	switch sess.Flow {
	case session.FlowBooking:
		return e.bookingText(ctx, sess, text)
	case session.FlowBookingEdit:
		return e.editText(ctx, sess, text)
	case session.FlowClientAdd:
		return e.clientAddText(ctx, sess, text)
	case session.FlowClientUpdate:
		return e.clientUpdateText(ctx, sess, text)
	case session.FlowExpenseAdd:
		return e.expenseAddText(ctx, sess, text)
	case session.FlowExpenseUpdate:
		return e.expenseUpdateText(ctx, sess, text)
	case session.FlowStaffAdd:
		return e.staffAddText(ctx, sess, text)
	case session.FlowStaffUpdate:
		return e.staffUpdateText(ctx, sess, text)
	}
	return nil
}

func (e *Engine) handleGlobal(ctx context.Context, chatID int64, tok Token) error {
	switch tok.Kind {
	case TokClearChat:
		return e.finish(ctx, chatID, "Clearing chat...")
	case TokMainBookings:
		return e.showBookingMenu(ctx, chatID)
	case TokMainClients:
		return e.showClientMenu(ctx, chatID)
	case TokMainExpenses:
		return e.showExpenseMenu(ctx, chatID)
	case TokMainStaff:
		return e.showStaffMenu(ctx, chatID)

	case TokBookingNew:
		return e.startBooking(ctx, chatID)
	case TokBookingUpdate:
		return e.startEdit(ctx, chatID)
	case TokBookingCancel:
		return e.startCancel(ctx, chatID)
	case TokBookingEarnings:
		return e.askEarningsRange(ctx, chatID)
	case TokBookingExport:
		return e.exportBookings(ctx, chatID)
	case TokEarningsCurrentMonth:
		return e.showEarnings(ctx, chatID, service.RangeCurrentMonth)
	case TokEarningsPrev15:
		return e.showEarnings(ctx, chatID, service.RangePrevious15th)

	case TokClientViewAll:
		return e.viewClients(ctx, chatID)
	case TokClientAdd:
		return e.startClientAdd(ctx, chatID)
	case TokClientDelete:
		return e.startClientDelete(ctx, chatID)
	case TokClientUpdate:
		return e.startClientUpdate(ctx, chatID)

	case TokExpenseView:
		return e.viewExpenses(ctx, chatID)
	case TokExpenseAdd:
		return e.startExpenseAdd(ctx, chatID)
	case TokExpenseDelete:
		return e.startExpenseDelete(ctx, chatID)
	case TokExpenseUpdate:
		return e.startExpenseUpdate(ctx, chatID)
	case TokExpenseExport:
		return e.exportExpenses(ctx, chatID)

	case TokStaffView:
		return e.viewStaff(ctx, chatID)
	case TokStaffAdd:
		return e.startStaffAdd(ctx, chatID)
	case TokStaffDelete:
		return e.startStaffDelete(ctx, chatID)
	case TokStaffUpdate:
		return e.startStaffUpdate(ctx, chatID)
	case TokStaffPerformance:
		return e.startStaffPerformance(ctx, chatID)
	}
	return fmt.Errorf("unhandled global token %q", tok.Raw)
}

// fail answers a step error in chat. Terminal outcomes end the flow with a
// cleanup; anything else keeps the session so the user can restart.
func (e *Engine) fail(ctx context.Context, chatID int64, err error) error {
	text, terminal := userMessage(err)
	flow := e.flowOf(chatID)

	if terminal {
		e.log(ctx).Info().Err(err).Int64("chat_id", chatID).Str("flow", flow.String()).Msg("Flow ended")
		metrics.IncFlow(flow.String(), "aborted")
		return e.finish(ctx, chatID, text)
	}

	e.log(ctx).Error().Err(err).Int64("chat_id", chatID).Str("flow", flow.String()).Msg("Flow step failed")
	metrics.IncFlow(flow.String(), "failed")
	metrics.IncError("flow")
	if sendErr := e.say(ctx, chatID, text); sendErr != nil {
		e.log(ctx).Warn().Err(sendErr).Int64("chat_id", chatID).Msg("Failed to report error to chat")
	}
	return err
}

func (e *Engine) flowOf(chatID int64) session.FlowKind {
	if sess, ok := e.sessions.Get(chatID); ok {
		return sess.Flow
	}
	return session.FlowNone
}

func (e *Engine) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return e.logger
}

// update mutates the live session; a session torn down in the meantime is left alone.
func (e *Engine) update(chatID int64, fn func(*session.Session)) {
	e.sessions.Update(chatID, fn)
}

func (e *Engine) say(ctx context.Context, chatID int64, text string) error {
	return e.send(ctx, chatID, text, "")
}

func (e *Engine) send(ctx context.Context, chatID int64, text, parseMode string) error {
	id, err := e.gateway.SendText(ctx, chatID, text, parseMode)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	e.sessions.Track(chatID, id)
	return nil
}

func (e *Engine) ask(ctx context.Context, chatID int64, text string, rows [][]domain.Choice) error {
	id, err := e.gateway.SendChoices(ctx, chatID, text, rows)
	if err != nil {
		return fmt.Errorf("send choices: %w", err)
	}
	e.sessions.Track(chatID, id)
	return nil
}

// finish sends the closing message and schedules the chat cleanup.
func (e *Engine) finish(ctx context.Context, chatID int64, text string) error {
	return e.finishWith(ctx, chatID, text, "", e.settings.CleanupDelay)
}

// finishWith closes the flow before answering, so a repeated tap on the
// confirming button finds no flow to act on.
func (e *Engine) finishWith(ctx context.Context, chatID int64, text, parseMode string, delay time.Duration) error {
	e.sessions.Finish(chatID)
	err := e.send(ctx, chatID, text, parseMode)
	e.sessions.ScheduleDestroy(chatID, delay)
	return err
}

// done closes a flow with an outcome for the flow metrics.
func (e *Engine) done(ctx context.Context, sess session.Session, outcome, text string) error {
	metrics.IncFlow(sess.Flow.String(), outcome)
	return e.finish(ctx, sess.ChatID, text)
}

func column(choices ...domain.Choice) [][]domain.Choice {
	rows := make([][]domain.Choice, 0, len(choices))
	for _, c := range choices {
		rows = append(rows, []domain.Choice{c})
	}
	return rows
}

func choice(label, token string) domain.Choice {
	return domain.Choice{Label: label, Token: token}
}

func (e *Engine) today() time.Time {
	return e.now().In(e.settings.Location)
}
