package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/observability/metrics"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/store"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/wizard"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/pkg/logging"
)

const (
	msgMainMenu      = "Главное меню:"
	msgCancelled     = "❌ Действие отменено.\n\nГлавное меню:"
	msgAccessDenied  = "⛔ Доступ запрещен"
	msgNotFound      = "❌ Запись не найдена."
	msgNoAppointment = "📭 У вас пока нет записей.\n\nЧтобы создать новую запись, нажмите «Записаться»."
	msgUseMenu       = "🤖 Используйте кнопки меню или команду /menu."
	msgGoodbye       = "👋 До свидания! Чтобы возобновить работу, нажмите /start"
	msgStartupOK     = "✅ Бот клиники успешно запущен!"

	helpText = "📋 Доступные команды:\n\n" +
		"/start - Начать работу с ботом\n" +
		"/help - Показать это сообщение\n" +
		"/menu - Главное меню\n" +
		"/stop - Завершить работу\n\n" +
		"Также вы можете использовать инлайн-кнопки для навигации."

	aboutText = "🏥 Клиника «Здоровье»\n\n" +
		"📍 Адрес: г. Москва, ул. Медицинская, д. 10\n" +
		"📞 Телефон: +7 (495) 123-45-67\n" +
		"🕒 Режим работы: Пн-Пт 8:00-20:00, Сб 9:00-18:00\n\n" +
		"Мы заботимся о вашем здоровье!"
)

// Dispatcher consumes the event queue and routes each event to the
// store, the wizards, or a menu render. A single Run goroutine owns the
// queue, which serializes all state transitions and durable writes.
type Dispatcher struct {
	store     *store.Store
	sessions  wizard.SessionStore
	booking   *wizard.Booking
	edit      *wizard.Edit
	presenter wizard.Presenter
	isAdmin   func(int64) bool
	metrics   *metrics.BotMetrics
	logger    *logging.Logger
	queue     chan Event
}

// NewDispatcher wires the dispatcher. metrics may be nil.
func NewDispatcher(
	st *store.Store,
	sessions wizard.SessionStore,
	booking *wizard.Booking,
	edit *wizard.Edit,
	presenter wizard.Presenter,
	isAdmin func(int64) bool,
	m *metrics.BotMetrics,
	logger *logging.Logger,
	queueSize int,
) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 128
	}
	if isAdmin == nil {
		isAdmin = func(int64) bool { return false }
	}
	return &Dispatcher{
		store:     st,
		sessions:  sessions,
		booking:   booking,
		edit:      edit,
		presenter: presenter,
		isAdmin:   isAdmin,
		metrics:   m,
		logger:    logger.Component("dispatcher"),
		queue:     make(chan Event, queueSize),
	}
}

// Enqueue queues an inbound event or blocks until ctx is done.
func (d *Dispatcher) Enqueue(ctx context.Context, ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	select {
	case d.queue <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes the queue until ctx is cancelled. Exactly one Run
// goroutine may be active per dispatcher.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.queue:
			d.Process(ctx, ev)
		}
	}
}

// Process handles a single event synchronously.
func (d *Dispatcher) Process(ctx context.Context, ev Event) {
	start := time.Now()
	err := d.handle(ctx, ev)
	status := "ok"
	if err != nil {
		status = "error"
		d.logger.Error("event failed",
			"event_id", ev.ID, "kind", ev.Kind, "user_id", ev.UserID, "error", err)
	}
	d.metrics.ObserveChatEvent(string(ev.Kind), status)
	d.metrics.ObserveEventDuration(string(ev.Kind), time.Since(start).Seconds())
}

func (d *Dispatcher) handle(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventCommand:
		return d.handleCommand(ctx, ev)
	case EventText:
		return d.handleText(ctx, ev)
	case EventChoice:
		return d.handleChoice(ctx, ev)
	default:
		return fmt.Errorf("chat: unknown event kind %q", ev.Kind)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, ev Event) error {
	switch ev.Command {
	case "/start":
		if err := d.store.AddUser(ctx, ev.UserID, ev.Username, ev.FirstName); err != nil {
			return err
		}
		welcome := fmt.Sprintf(
			"👋 Здравствуйте, %s!\n\n"+
				"Добро пожаловать в бот клиники «Здоровье».\n"+
				"Здесь вы можете записаться на прием к врачу, "+
				"просмотреть свои записи и управлять ими.",
			ev.FirstName)
		return d.presenter.Prompt(ctx, ev.UserID, welcome, MainMenuChoices(d.isAdmin(ev.UserID)))
	case "/help":
		return d.presenter.Say(ctx, ev.UserID, helpText)
	case "/menu":
		return d.mainMenu(ctx, ev.UserID, msgMainMenu)
	case "/stop":
		if err := d.sessions.Clear(ctx, ev.UserID); err != nil {
			return err
		}
		return d.presenter.Say(ctx, ev.UserID, msgGoodbye)
	default:
		return d.presenter.Say(ctx, ev.UserID, msgUseMenu)
	}
}

func (d *Dispatcher) handleText(ctx context.Context, ev Event) error {
	if handled, err := d.booking.HandleText(ctx, ev.UserID, ev.Text); handled || err != nil {
		return err
	}
	if handled, err := d.edit.HandleText(ctx, ev.UserID, ev.Text); handled || err != nil {
		return err
	}
	return d.presenter.Say(ctx, ev.UserID, msgUseMenu)
}

func (d *Dispatcher) handleChoice(ctx context.Context, ev Event) error {
	action, arg, _ := strings.Cut(ev.ChoiceID, ":")

	switch action {
	// Booking wizard steps.
	case wizard.ActionSelectDoctor:
		return d.booking.SelectDoctor(ctx, ev.UserID, arg)
	case wizard.ActionSelectProcedure:
		return d.booking.SelectProcedure(ctx, ev.UserID, arg)
	case wizard.ActionSelectDate:
		return d.booking.SelectDate(ctx, ev.UserID, arg)
	case wizard.ActionSelectTime:
		return d.booking.SelectTime(ctx, ev.UserID, arg)
	case wizard.ActionConfirm:
		committed, err := d.booking.Confirm(ctx, ev.UserID)
		if err != nil {
			d.metrics.ObserveBooking("failed")
			return err
		}
		if committed {
			d.metrics.ObserveBooking("confirmed")
			return d.mainMenu(ctx, ev.UserID, msgMainMenu)
		}
		return nil
	case wizard.ActionCancel:
		if err := d.sessions.Clear(ctx, ev.UserID); err != nil {
			return err
		}
		return d.mainMenu(ctx, ev.UserID, msgCancelled)

	// Edit wizard steps.
	case wizard.ActionEditSelectDoctor:
		return d.edit.SelectDoctor(ctx, ev.UserID, arg)
	case wizard.ActionEditSelectProcedure:
		return d.edit.SelectProcedure(ctx, ev.UserID, arg)
	case wizard.ActionEditSelectDate:
		return d.edit.SelectDate(ctx, ev.UserID, arg)
	case wizard.ActionEditSelectTime:
		return d.edit.SelectTime(ctx, ev.UserID, arg)

	// Menus.
	case ActionMainMenu:
		return d.mainMenu(ctx, ev.UserID, msgMainMenu)
	case ActionMakeAppointment:
		return d.booking.Start(ctx, ev.UserID)
	case ActionMyAppointments:
		return d.myAppointments(ctx, ev.UserID)
	case ActionDoctorsList:
		return d.presenter.Prompt(ctx, ev.UserID, FormatDoctorsList(), MainMenuChoices(d.isAdmin(ev.UserID)))
	case ActionAbout:
		return d.presenter.Prompt(ctx, ev.UserID, aboutText, MainMenuChoices(d.isAdmin(ev.UserID)))

	// Per-appointment actions.
	case ActionViewAppointment:
		return d.viewAppointment(ctx, ev.UserID, arg)
	case ActionCancelAppointment:
		return d.cancelAppointment(ctx, ev.UserID, arg)
	case ActionAddToCalendar:
		return d.addToCalendar(ctx, ev.UserID, arg)

	// Admin surface.
	case ActionAllAppointments:
		return d.allAppointments(ctx, ev.UserID)
	case ActionUsersList:
		return d.usersList(ctx, ev.UserID)
	case ActionAdminView:
		return d.adminView(ctx, ev.UserID, arg)
	case ActionDeleteAppointment:
		return d.deleteAppointment(ctx, ev.UserID, arg)
	case ActionEditAppointment:
		return d.editAppointment(ctx, ev.UserID, arg)
	case ActionEditPatientName:
		return d.startEdit(ctx, ev.UserID, wizard.FieldPatientName, arg)
	case ActionEditDoctor:
		return d.startEdit(ctx, ev.UserID, wizard.FieldDoctor, arg)
	case ActionEditProcedure:
		return d.startEdit(ctx, ev.UserID, wizard.FieldProcedure, arg)
	case ActionEditDate:
		return d.startEdit(ctx, ev.UserID, wizard.FieldDate, arg)
	case ActionEditTime:
		return d.startEdit(ctx, ev.UserID, wizard.FieldTime, arg)

	default:
		d.logger.Warn("unknown choice", "choice_id", ev.ChoiceID, "user_id", ev.UserID)
		return nil
	}
}

func (d *Dispatcher) mainMenu(ctx context.Context, userID int64, text string) error {
	return d.presenter.Prompt(ctx, userID, text, MainMenuChoices(d.isAdmin(userID)))
}

func (d *Dispatcher) myAppointments(ctx context.Context, userID int64) error {
	appointments := d.store.ListOwner(userID)
	if len(appointments) == 0 {
		return d.presenter.Prompt(ctx, userID, msgNoAppointment, MainMenuChoices(d.isAdmin(userID)))
	}
	return d.presenter.Prompt(ctx, userID, "📋 Ваши записи:", AppointmentListChoices(appointments, false))
}

func (d *Dispatcher) viewAppointment(ctx context.Context, userID int64, arg string) error {
	apt, ok := d.lookupOwned(userID, arg)
	if !ok {
		return d.mainMenu(ctx, userID, msgNotFound)
	}
	return d.presenter.Prompt(ctx, userID, FormatAppointment(apt, false),
		AppointmentActionChoices(apt.ID, d.isAdmin(userID)))
}

func (d *Dispatcher) cancelAppointment(ctx context.Context, userID int64, arg string) error {
	apt, ok := d.lookupOwned(userID, arg)
	if !ok {
		return d.mainMenu(ctx, userID, msgNotFound)
	}
	if err := d.store.SoftDelete(ctx, apt.ID); err != nil {
		return d.mainMenu(ctx, userID, "❌ Не удалось отменить запись.")
	}
	return d.mainMenu(ctx, userID, "✅ Запись успешно отменена.")
}

func (d *Dispatcher) addToCalendar(ctx context.Context, userID int64, arg string) error {
	apt, ok := d.lookupOwned(userID, arg)
	if !ok {
		return d.presenter.Say(ctx, userID, msgNotFound)
	}
	text := fmt.Sprintf("📅 Файл для добавления в календарь:\n/calendar/%d.ics", apt.ID)
	return d.presenter.Say(ctx, userID, text)
}

func (d *Dispatcher) allAppointments(ctx context.Context, userID int64) error {
	if !d.isAdmin(userID) {
		return d.presenter.Say(ctx, userID, msgAccessDenied)
	}
	appointments := d.store.List()
	if len(appointments) == 0 {
		return d.mainMenu(ctx, userID, "📭 Нет записей.")
	}
	return d.presenter.Prompt(ctx, userID, "📋 Все записи:", AppointmentListChoices(appointments, true))
}

func (d *Dispatcher) usersList(ctx context.Context, userID int64) error {
	if !d.isAdmin(userID) {
		return d.presenter.Say(ctx, userID, msgAccessDenied)
	}
	users := d.store.Users()
	if len(users) == 0 {
		return d.mainMenu(ctx, userID, "👥 Нет зарегистрированных пользователей.")
	}
	return d.presenter.Say(ctx, userID, FormatUsersList(users))
}

func (d *Dispatcher) adminView(ctx context.Context, userID int64, arg string) error {
	if !d.isAdmin(userID) {
		return d.presenter.Say(ctx, userID, msgAccessDenied)
	}
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	apt, ok := d.store.Get(id)
	if !ok {
		return d.mainMenu(ctx, userID, msgNotFound)
	}
	return d.presenter.Prompt(ctx, userID, FormatAppointment(apt, true),
		AppointmentActionChoices(apt.ID, true))
}

func (d *Dispatcher) deleteAppointment(ctx context.Context, userID int64, arg string) error {
	if !d.isAdmin(userID) {
		return d.presenter.Say(ctx, userID, msgAccessDenied)
	}
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	if err := d.store.SoftDelete(ctx, id); err != nil {
		return d.mainMenu(ctx, userID, "❌ Не удалось удалить запись.")
	}
	return d.mainMenu(ctx, userID, "✅ Запись успешно удалена.")
}

func (d *Dispatcher) editAppointment(ctx context.Context, userID int64, arg string) error {
	if !d.isAdmin(userID) {
		return d.presenter.Say(ctx, userID, msgAccessDenied)
	}
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	return d.presenter.Prompt(ctx, userID, "✏️ Что вы хотите отредактировать?", EditFieldChoices(id))
}

func (d *Dispatcher) startEdit(ctx context.Context, userID int64, field wizard.Field, arg string) error {
	if !d.isAdmin(userID) {
		return d.presenter.Say(ctx, userID, msgAccessDenied)
	}
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	return d.edit.Start(ctx, userID, field, id)
}

// lookupOwned fetches an appointment visible to userID. Regular users
// only see their own records; admins see everything.
func (d *Dispatcher) lookupOwned(userID int64, arg string) (store.Appointment, bool) {
	id, err := parseID(arg)
	if err != nil {
		return store.Appointment{}, false
	}
	apt, ok := d.store.Get(id)
	if !ok {
		return store.Appointment{}, false
	}
	if apt.OwnerID != userID && !d.isAdmin(userID) {
		return store.Appointment{}, false
	}
	return apt, true
}

// NotifyStartup tells every admin the bot is up. Failures are logged
// and do not abort startup.
func (d *Dispatcher) NotifyStartup(ctx context.Context, adminIDs []int64) {
	for _, id := range adminIDs {
		if err := d.presenter.Say(ctx, id, msgStartupOK); err != nil {
			d.logger.Error("startup notify failed", "admin_id", id, "error", err)
		}
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("chat: bad appointment id %q: %w", arg, err)
	}
	return id, nil
}
