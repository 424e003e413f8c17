package bot

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/openingcoach/internal/coach"
	"github.com/example/openingcoach/internal/database"
	"github.com/example/openingcoach/internal/engine"
	"github.com/example/openingcoach/internal/quiz"
	"github.com/example/openingcoach/internal/repertoire"
	"github.com/example/openingcoach/internal/scheduler"
	"github.com/example/openingcoach/internal/trainer"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// UserState represents the current state of a user in conversation with the bot
type UserState struct {
	State     string
	Timestamp time.Time
	Data      map[string]interface{}
}

// reviewSession is one user's ongoing quiz over due review cards
type reviewSession struct {
	Questions  []quiz.Question
	CurrentIdx int
	Correct    int
	Attempts   int
}

// Bot represents the Telegram bot application
type Bot struct {
	api              *tgbotapi.BotAPI
	token            string
	rep              *repertoire.Repertoire
	engine           *engine.UCI
	scorer           *coach.Scorer
	judge            coach.TextGenerator
	caps             coach.Capabilities
	quizzes          *quiz.QuizModule
	schedulerEnabled bool
	scheduler        *scheduler.Scheduler
	userStates       map[int64]UserState
	trainingSessions map[int64]*trainer.Session
	reviewSessions   map[int64]*reviewSession
	adminUserIDs     map[int64]bool
	config           *BotConfig

	userRepo     *database.UserRepository
	progressRepo *database.LineProgressRepository
	itemRepo     *database.ReviewItemRepository
	resultRepo   *database.GameResultRepository
	statsRepo    *database.StatisticsRepository
}

// New creates a new bot instance around the shared repertoire and the
// optional engine and judge capabilities
func New(rep *repertoire.Repertoire, eng *engine.UCI, judge coach.TextGenerator) (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	if rep == nil || len(rep.Openings()) == 0 {
		return nil, fmt.Errorf("repertoire is empty")
	}

	schedulerEnabled := os.Getenv("ENABLE_SCHEDULER") != "false"

	caps := coach.Capabilities{
		Engine: eng != nil && eng.Available(),
		Judge:  judge != nil,
	}

	var evaluator coach.Evaluator
	if eng != nil {
		evaluator = eng
	}

	bot := &Bot{
		token:            token,
		rep:              rep,
		engine:           eng,
		scorer:           coach.NewScorer(evaluator, judge),
		judge:            judge,
		caps:             caps,
		quizzes:          quiz.New(),
		schedulerEnabled: schedulerEnabled,
		userStates:       make(map[int64]UserState),
		trainingSessions: make(map[int64]*trainer.Session),
		reviewSessions:   make(map[int64]*reviewSession),
		adminUserIDs:     make(map[int64]bool),
		config:           DefaultConfig(),

		userRepo:     database.NewUserRepository(),
		progressRepo: database.NewLineProgressRepository(),
		itemRepo:     database.NewReviewItemRepository(),
		resultRepo:   database.NewGameResultRepository(),
		statsRepo:    database.NewStatisticsRepository(),
	}

	adminIDs := os.Getenv("ADMIN_USER_IDS")
	if adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				log.Printf("Warning: Invalid admin user ID: %s", idStr)
				continue
			}
			bot.adminUserIDs[id] = true
		}
	}

	return bot, nil
}

// Start initializes and starts the bot
func (b *Bot) Start() error {
	// Initialize the bot with the given token
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %v", err)
	}

	b.api = botAPI
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	// Set up the update configuration
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	// Get updates channel
	updates := b.api.GetUpdatesChan(updateConfig)

	// Start goroutine to handle scheduled reminders
	if b.schedulerEnabled {
		go b.scheduleReminders()
	}

	// Handle incoming updates
	for update := range updates {
		go b.handleUpdate(update)
	}

	return nil
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	if b.schedulerEnabled && b.scheduler != nil {
		b.scheduler.Stop()
	}
	if b.engine != nil {
		b.engine.Close()
	}
	log.Println("Bot stopped")
}

// scheduleReminders sets up scheduled reminder jobs
func (b *Bot) scheduleReminders() {
	log.Println("Starting reminder scheduler...")

	b.scheduler = scheduler.New(b)
	b.scheduler.Start()

	log.Println("Reminder scheduler started successfully")
}

// SendReviewReminder implements the scheduler.Notifier interface
func (b *Bot) SendReviewReminder(userID int64, dueCount int) error {
	user, err := b.userRepo.GetByID(userID)
	if err != nil {
		log.Printf("Error getting user %d: %v", userID, err)
		return err
	}
	if user == nil {
		return fmt.Errorf("user %d not found", userID)
	}

	// In Telegram personal chats the user ID doubles as the chat ID
	chatID := userID

	cardForm := "positions"
	if dueCount == 1 {
		cardForm = "position"
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("♟ You have %d %s due for review! Use /review to keep them sharp.", dueCount, cardForm))
	_, err = b.api.Send(msg)

	if err != nil {
		log.Printf("Error sending reminder to user %d: %v", userID, err)
	} else {
		log.Printf("Successfully sent reminder to user %d for %d cards", userID, dueCount)
	}

	return err
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}

// MainMenuButtons returns the main menu keyboard layout
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎯 Train an Opening", CallbackData: "menu_train"},
			{Text: "🃏 Review Positions", CallbackData: "menu_review"},
		},
		{
			{Text: "📈 Progress", CallbackData: "menu_progress"},
			{Text: "📊 Statistics", CallbackData: "menu_stats"},
		},
		{
			{Text: "⚙️ Settings", CallbackData: "menu_settings"},
		},
	}
}

// showMainMenu sends the main menu to the chat
func (b *Bot) showMainMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "What would you like to do?")
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.api.Send(msg)
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		// Handle messages
		if update.Message.IsCommand() {
			switch update.Message.Command() {
			case "start":
				b.handleStartCommand(update.Message)
			case "help":
				b.handleHelpCommand(update.Message)
			case "menu":
				b.showMainMenu(update.Message.Chat.ID)
			case "openings":
				b.handleOpeningsCommand(update.Message)
			case "train":
				b.handleTrainCommand(update.Message)
			case "finish":
				b.handleFinishCommand(update.Message)
			case "review":
				b.handleReviewCommand(update.Message)
			case "progress":
				b.handleProgressCommand(update.Message)
			case "stats":
				b.handleStatsCommand(update.Message)
			case "settings":
				b.handleSettingsCommand(update.Message)
			case "reset":
				b.handleResetCommand(update.Message)
			case "import":
				// Admin-only command
				if b.isAdmin(update.Message.From.ID) {
					b.handleImportCommand(update.Message)
				} else {
					msg := tgbotapi.NewMessage(update.Message.Chat.ID, "This command is only available for administrators.")
					msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
					b.api.Send(msg)
				}
			case "admin_stats":
				// Admin-only command
				if b.isAdmin(update.Message.From.ID) {
					b.handleAdminStatsCommand(update.Message)
				} else {
					msg := tgbotapi.NewMessage(update.Message.Chat.ID, "This command is only available for administrators.")
					msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
					b.api.Send(msg)
				}
			default:
				msg := tgbotapi.NewMessage(update.Message.Chat.ID, "Unknown command. Use /menu to show the main menu.")
				msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
				b.api.Send(msg)
			}
		} else {
			b.handleTextInput(update.Message)
		}
	} else if update.CallbackQuery != nil {
		// Handle callback queries from buttons
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

// handleTextInput routes free text: a pending settings prompt first, then an
// active training session where text is interpreted as a move
func (b *Bot) handleTextInput(message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	if state, exists := b.userStates[userID]; exists {
		switch state.State {
		case "waiting_for_elo":
			elo, err := strconv.Atoi(text)
			if err != nil || elo < 100 || elo > 3500 {
				msg := tgbotapi.NewMessage(chatID, "Please enter a rating between 100 and 3500.")
				b.api.Send(msg)
				return
			}
			b.handleELOSelection(userID, chatID, elo)
			delete(b.userStates, userID)
			return
		case "waiting_for_reviews_per_day":
			count, err := strconv.Atoi(text)
			if err != nil || count < 1 || count > 50 {
				msg := tgbotapi.NewMessage(chatID, "Please enter a number between 1 and 50.")
				b.api.Send(msg)
				return
			}
			b.handleReviewsPerDaySelection(userID, chatID, count)
			delete(b.userStates, userID)
			return
		case "waiting_for_quiz_answer":
			b.handleQuizTextAnswer(userID, chatID, text)
			return
		}
	}

	if _, active := b.trainingSessions[userID]; active {
		b.handleTrainingMove(userID, chatID, text)
		return
	}

	msg := tgbotapi.NewMessage(chatID, "I don't understand. Use /menu to show the main menu.")
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.api.Send(msg)
}
