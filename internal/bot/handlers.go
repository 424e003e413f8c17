package bot

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/openingcoach/internal/coach"
	"github.com/example/openingcoach/internal/excel"
	"github.com/example/openingcoach/internal/progression"
	"github.com/example/openingcoach/internal/quiz"
	"github.com/example/openingcoach/internal/trainer"
	"github.com/example/openingcoach/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ensureUser fetches the user record, creating it on first contact
func (b *Bot) ensureUser(from *tgbotapi.User) (*models.User, error) {
	user, err := b.userRepo.GetByID(from.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	if user == nil {
		user = &models.User{
			ID:                  from.ID,
			Username:            from.UserName,
			FirstName:           from.FirstName,
			LastName:            from.LastName,
			NotificationEnabled: true,
			NotificationHour:    9,
		}
		if err := b.userRepo.Create(user); err != nil {
			return nil, fmt.Errorf("failed to create user: %v", err)
		}
	}
	return user, nil
}

// handleStartCommand handles the /start command
func (b *Bot) handleStartCommand(message *tgbotapi.Message) {
	if _, err := b.ensureUser(message.From); err != nil {
		log.Printf("Error registering user %d: %v", message.From.ID, err)
	}

	welcomeText := `Welcome to Opening Coach! ♟

I help you learn chess openings the way a coach would: play the moves,
get feedback on every decision, and review your mistakes until they stick.

Available commands:
/menu - Show main menu
/openings - Browse the repertoire
/train - Start a training game
/review - Review positions you got wrong
/progress - Your phase per opening line
/stats - Show your statistics
/settings - Configure your preferences`

	msg := tgbotapi.NewMessage(message.Chat.ID, welcomeText)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.api.Send(msg)
}

// handleHelpCommand handles the /help command
func (b *Bot) handleHelpCommand(message *tgbotapi.Message) {
	helpText := `📖 How training works

1. Pick an opening with /train and play your moves in algebraic
   notation (e4, Nf3, O-O). I play the opponent's side from the book.
2. Every move gets a score from 0 to 100. Book moves score high;
   mistakes get coaching and become review cards.
3. Use /finish when the opening phase is over and tell me how the
   game went. Wins and accurate play move you through the phases:
   Main Line → Natural Deviations → Wider Variations → Free Play.
4. /review quizzes you on your past mistakes on a spaced schedule.
   Answer correctly and the position comes back later; miss it and
   it comes back tomorrow.

Type a move any time during a game. /reset wipes your progress in one
opening if you want a fresh start. Everything else is on /menu.`

	msg := tgbotapi.NewMessage(message.Chat.ID, helpText)
	b.api.Send(msg)
}

// handleOpeningsCommand lists the loaded repertoire with the user's phase
func (b *Bot) handleOpeningsCommand(message *tgbotapi.Message) {
	progress, err := b.progressRepo.GetByUser(message.From.ID)
	if err != nil {
		log.Printf("Error loading progress for user %d: %v", message.From.ID, err)
	}
	byOpening := make(map[string][]models.LineProgress)
	for _, lp := range progress {
		byOpening[lp.OpeningID] = append(byOpening[lp.OpeningID], lp)
	}

	var sb strings.Builder
	sb.WriteString("📚 Repertoire\n\n")
	for _, op := range b.rep.Openings() {
		stars := strings.Repeat("⭐", op.Difficulty)
		sb.WriteString(fmt.Sprintf("%s (%s) %s\n%s\n", op.Name, op.Color, stars, op.Description))
		if op.Plan.Summary != "" {
			sb.WriteString(fmt.Sprintf("Plan: %s\n", op.Plan.Summary))
		}
		if group, played := byOpening[op.ID]; played {
			sb.WriteString(fmt.Sprintf("Your phase: %s\n", progression.OverallPhase(group).Title()))
		} else {
			sb.WriteString("Not started yet\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Use /train to start a game.")

	msg := tgbotapi.NewMessage(message.Chat.ID, sb.String())
	b.api.Send(msg)
}

// handleTrainCommand handles the /train command
func (b *Bot) handleTrainCommand(message *tgbotapi.Message) {
	b.showOpeningChoice(message.Chat.ID)
}

// showOpeningChoice offers the openings as buttons
func (b *Bot) showOpeningChoice(chatID int64) {
	var rows [][]MenuButton
	for _, op := range b.rep.Openings() {
		rows = append(rows, []MenuButton{{Text: op.Name, CallbackData: "train_" + op.ID}})
	}
	msg := tgbotapi.NewMessage(chatID, "Which opening do you want to train?")
	msg.ReplyMarkup = createKeyboard(rows)
	b.api.Send(msg)
}

// startTraining begins a training session for the chosen opening
func (b *Bot) startTraining(userID int64, chatID int64, openingID string, from *tgbotapi.User) {
	opening := b.rep.ByID(openingID)
	if opening == nil {
		msg := tgbotapi.NewMessage(chatID, "I don't know that opening. Use /openings to see the repertoire.")
		b.api.Send(msg)
		return
	}

	user, err := b.ensureUser(from)
	if err != nil {
		log.Printf("Error getting user %d: %v", userID, err)
		msg := tgbotapi.NewMessage(chatID, "Something went wrong, please try again.")
		b.api.Send(msg)
		return
	}

	session := trainer.NewSession(b.rep, b.scorer, b.judge, b.caps, user, opening)
	b.trainingSessions[userID] = session

	side := "White"
	if !opening.LearnerIsWhite() {
		side = "Black"
	}
	text := fmt.Sprintf("🎯 Training: %s\nYou play %s.\n\nPlan: %s\n\nType your moves in algebraic notation. /finish ends the game.",
		opening.Name, side, opening.Plan.Summary)
	msg := tgbotapi.NewMessage(chatID, text)
	b.api.Send(msg)

	// When the learner is Black the book moves first
	ctx, cancel := context.WithTimeout(context.Background(), b.config.MoveTimeout)
	defer cancel()
	b.autoPlayOpponent(ctx, session, chatID)
}

// handleTrainingMove feeds one typed move into the active session
func (b *Bot) handleTrainingMove(userID int64, chatID int64, text string) {
	session := b.trainingSessions[userID]
	if session == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.config.MoveTimeout)
	defer cancel()

	report, err := session.PlayMove(ctx, text)
	if err != nil {
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🚫 %q is not a legal move here. Try again, or /finish to end the game.", text))
		b.api.Send(msg)
		return
	}

	msg := tgbotapi.NewMessage(chatID, b.formatMoveReport(session, report))
	b.api.Send(msg)

	b.autoPlayOpponent(ctx, session, chatID)

	if session.MoveCount() >= b.config.MaxSessionPlies {
		b.promptFinish(chatID, "That is deep enough for opening practice.")
	}
}

// autoPlayOpponent plays the book's reply whenever it is the opponent's turn.
// When the book runs out the learner is asked to wrap up the game.
func (b *Bot) autoPlayOpponent(ctx context.Context, session *trainer.Session, chatID int64) {
	for !session.Opening().LearnerMovesAt(session.MoveCount()) {
		reply, ok := b.opponentReply(session)
		if !ok {
			b.promptFinish(chatID, "Your opponent is out of book here. Play on over the board!")
			return
		}
		report, err := session.PlayMove(ctx, reply.SAN)
		if err != nil {
			log.Printf("Book reply %s rejected: %v", reply.SAN, err)
			return
		}
		text := fmt.Sprintf("♟ Opponent plays %s", numberedSAN(report.Ply, report.PlayedSAN))
		if reply.Explanation != "" {
			text += "\n" + reply.Explanation
		}
		b.api.Send(tgbotapi.NewMessage(chatID, text))
	}
}

// opponentReply picks the opponent's next move from the opening tree,
// weighted by how often each continuation is actually played
func (b *Bot) opponentReply(session *trainer.Session) (models.MoveRef, bool) {
	node := session.Opening().Tree
	if node == nil {
		return models.MoveRef{}, false
	}
	for _, uci := range session.HistoryUCI() {
		if node = node.ChildByUCI(uci); node == nil {
			return models.MoveRef{}, false
		}
	}
	if len(node.Children) == 0 {
		return models.MoveRef{}, false
	}

	total := node.TotalChildWeight()
	if total <= 0 {
		return *node.Children[0].Move, true
	}
	pick := rand.Intn(total)
	for _, child := range node.Children {
		pick -= child.Weight
		if pick < 0 {
			return *child.Move, true
		}
	}
	return *node.Children[len(node.Children)-1].Move, true
}

// formatMoveReport renders one learner move report as a chat message
func (b *Bot) formatMoveReport(session *trainer.Session, report *trainer.MoveReport) string {
	var sb strings.Builder

	switch report.Category {
	case coach.GoodMove:
		sb.WriteString(fmt.Sprintf("✅ %s — book move", numberedSAN(report.Ply, report.PlayedSAN)))
	case coach.OkayMove:
		sb.WriteString(fmt.Sprintf("👍 %s — playable", numberedSAN(report.Ply, report.PlayedSAN)))
	case coach.Mistake:
		sb.WriteString(fmt.Sprintf("⚠️ %s — mistake", numberedSAN(report.Ply, report.PlayedSAN)))
	default:
		sb.WriteString(numberedSAN(report.Ply, report.PlayedSAN))
	}

	if report.OnMainLine {
		sb.WriteString(" (main line)")
	} else if report.VariationName != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", report.VariationName))
	}

	sb.WriteString(fmt.Sprintf("\nScore: %d (%s)", report.PES.Total, report.PES.Category))

	if report.Category == coach.Mistake {
		if len(report.BookMoves) > 0 {
			sb.WriteString("\nBook here: " + joinSAN(report.BookMoves))
		}
		if report.Coaching != "" {
			sb.WriteString("\n💡 " + report.Coaching)
		} else if report.PES.Reasoning != "" {
			sb.WriteString("\n💡 " + report.PES.Reasoning)
		}
	} else if report.Category == coach.OkayMove && report.PES.Reasoning != "" {
		sb.WriteString("\n" + report.PES.Reasoning)
	}

	return sb.String()
}

// handleFinishCommand handles the /finish command
func (b *Bot) handleFinishCommand(message *tgbotapi.Message) {
	if _, active := b.trainingSessions[message.From.ID]; !active {
		msg := tgbotapi.NewMessage(message.Chat.ID, "No game in progress. Use /train to start one.")
		b.api.Send(msg)
		return
	}
	b.promptFinish(message.Chat.ID, "")
}

// promptFinish asks the learner how the game ended
func (b *Bot) promptFinish(chatID int64, reason string) {
	text := "How did the game end?"
	if reason != "" {
		text = reason + " " + text
	}
	buttons := [][]MenuButton{{
		{Text: "🏆 I won", CallbackData: "finish_won"},
		{Text: "🤝 Draw", CallbackData: "finish_draw"},
		{Text: "💔 I lost", CallbackData: "finish_lost"},
	}}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(buttons)
	b.api.Send(msg)
}

// finishTraining closes the session and persists everything it produced
func (b *Bot) finishTraining(userID int64, chatID int64, won bool) {
	session, exists := b.trainingSessions[userID]
	if !exists {
		msg := tgbotapi.NewMessage(chatID, "No game in progress. Use /train to start one.")
		b.api.Send(msg)
		return
	}
	delete(b.trainingSessions, userID)

	opening := session.Opening()
	lineID := b.sessionLineID(session)

	progress, err := b.progressRepo.Get(userID, opening.ID, lineID)
	if err != nil {
		log.Printf("Error loading progress for user %d: %v", userID, err)
	}
	if progress == nil {
		progress = &models.LineProgress{
			UserID:    userID,
			OpeningID: opening.ID,
			LineID:    lineID,
			Unlocked:  true,
		}
	}

	summary := session.Finish(won, progress)

	if err := b.progressRepo.Upsert(progress); err != nil {
		log.Printf("Error saving progress for user %d: %v", userID, err)
	}
	if err := b.resultRepo.Create(&summary.Result); err != nil {
		log.Printf("Error saving game result for user %d: %v", userID, err)
	}
	for i := range summary.ReviewCards {
		if err := b.itemRepo.Add(&summary.ReviewCards[i]); err != nil {
			log.Printf("Error saving review card for user %d: %v", userID, err)
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏁 Game recorded: %s\n", opening.Name))
	sb.WriteString(fmt.Sprintf("Accuracy: %.0f%%   Mistakes: %d\n", summary.Result.Accuracy, summary.Result.Mistakes))
	if len(summary.ReviewCards) > 0 {
		sb.WriteString(fmt.Sprintf("🃏 %d new review card(s) added. They will show up in /review.\n", len(summary.ReviewCards)))
	}
	if summary.Promoted {
		sb.WriteString(fmt.Sprintf("⏫ Promoted: %s → %s!\n", summary.PreviousPhase.Title(), summary.NewPhase.Title()))
	} else {
		sb.WriteString(fmt.Sprintf("Phase: %s\n", summary.NewPhase.Title()))
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.api.Send(msg)
}

// sessionLineID resolves which repertoire line the session's game followed
func (b *Bot) sessionLineID(session *trainer.Session) string {
	matches := b.rep.Match(session.HistoryUCI())
	for i := range matches {
		if matches[i].Opening.ID != session.Opening().ID {
			continue
		}
		if line := matches[i].Line(); line != nil {
			return line.ID
		}
	}
	return ""
}

// handleReviewCommand handles the /review command
func (b *Bot) handleReviewCommand(message *tgbotapi.Message) {
	b.startReview(message.From, message.Chat.ID)
}

// startReview assembles a quiz from the user's due cards
func (b *Bot) startReview(from *tgbotapi.User, chatID int64) {
	user, err := b.ensureUser(from)
	if err != nil {
		log.Printf("Error getting user %d: %v", from.ID, err)
		return
	}

	limit := user.ReviewsPerDay
	if limit <= 0 {
		limit = b.config.DefaultReviewLimit
	}

	questions, err := b.quizzes.BuildQuiz(user.ID, limit, quiz.MultipleChoice)
	if err != nil {
		log.Printf("Error building quiz for user %d: %v", user.ID, err)
		msg := tgbotapi.NewMessage(chatID, "Something went wrong building your review session.")
		b.api.Send(msg)
		return
	}
	if len(questions) == 0 {
		msg := tgbotapi.NewMessage(chatID, "🎉 Nothing due for review. Play some training games with /train!")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		b.api.Send(msg)
		return
	}

	b.reviewSessions[user.ID] = &reviewSession{Questions: questions}
	b.sendQuizQuestion(user.ID, chatID)
}

// sendQuizQuestion shows the current question of the review session
func (b *Bot) sendQuizQuestion(userID int64, chatID int64) {
	rs := b.reviewSessions[userID]
	if rs == nil {
		return
	}
	q := rs.Questions[rs.CurrentIdx]

	openingName := q.Item.OpeningID
	if op := b.rep.ByID(q.Item.OpeningID); op != nil {
		openingName = op.Name
	}

	text := fmt.Sprintf("🃏 Position %d of %d — %s\n\nFEN: %s\n\nWhat do you play here?",
		rs.CurrentIdx+1, len(rs.Questions), openingName, q.Item.FEN)

	msg := tgbotapi.NewMessage(chatID, text)
	if q.Type == quiz.MultipleChoice && len(q.Options) > 0 {
		var rows [][]MenuButton
		for i := 0; i < len(q.Options); i += 2 {
			row := []MenuButton{{Text: q.Options[i], CallbackData: fmt.Sprintf("quiz_opt_%d", i)}}
			if i+1 < len(q.Options) {
				row = append(row, MenuButton{Text: q.Options[i+1], CallbackData: fmt.Sprintf("quiz_opt_%d", i+1)})
			}
			rows = append(rows, row)
		}
		msg.ReplyMarkup = createKeyboard(rows)
	} else {
		b.userStates[userID] = UserState{
			State:     "waiting_for_quiz_answer",
			Timestamp: time.Now(),
			Data:      make(map[string]interface{}),
		}
	}
	b.api.Send(msg)
}

// handleQuizOptionAnswer grades a multiple-choice answer
func (b *Bot) handleQuizOptionAnswer(userID int64, chatID int64, optionIdx int) {
	rs := b.reviewSessions[userID]
	if rs == nil || rs.CurrentIdx >= len(rs.Questions) {
		return
	}
	q := &rs.Questions[rs.CurrentIdx]
	if optionIdx < 0 || optionIdx >= len(q.Options) {
		return
	}

	rs.Attempts++
	answer := q.Options[optionIdx]

	if optionIdx == q.CorrectIndex {
		if _, err := b.quizzes.Grade(&q.Item, answer, rs.Attempts); err != nil {
			log.Printf("Error grading review item %d: %v", q.Item.ID, err)
		}
		rs.Correct++
		b.api.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Correct: %s", q.Item.ExpectedSAN)))
		b.advanceQuiz(userID, chatID)
		return
	}

	if rs.Attempts < b.config.MaxQuizAttempts {
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Not that one. Try again!"))
		return
	}

	if _, err := b.quizzes.Grade(&q.Item, answer, rs.Attempts); err != nil {
		log.Printf("Error grading review item %d: %v", q.Item.ID, err)
	}
	b.api.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("❌ The move was %s. This card comes back tomorrow.", q.Item.ExpectedSAN)))
	b.advanceQuiz(userID, chatID)
}

// handleQuizTextAnswer grades a typed answer for text-input questions
func (b *Bot) handleQuizTextAnswer(userID int64, chatID int64, answer string) {
	rs := b.reviewSessions[userID]
	if rs == nil || rs.CurrentIdx >= len(rs.Questions) {
		delete(b.userStates, userID)
		return
	}
	q := &rs.Questions[rs.CurrentIdx]
	rs.Attempts++

	if quiz.AnswerMatches(q.Item.ExpectedSAN, answer) {
		if _, err := b.quizzes.Grade(&q.Item, answer, rs.Attempts); err != nil {
			log.Printf("Error grading review item %d: %v", q.Item.ID, err)
		}
		rs.Correct++
		delete(b.userStates, userID)
		b.api.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Correct: %s", q.Item.ExpectedSAN)))
		b.advanceQuiz(userID, chatID)
		return
	}

	if rs.Attempts < b.config.MaxQuizAttempts {
		b.api.Send(tgbotapi.NewMessage(chatID, "❌ Not that one. Try again!"))
		return
	}

	if _, err := b.quizzes.Grade(&q.Item, answer, rs.Attempts); err != nil {
		log.Printf("Error grading review item %d: %v", q.Item.ID, err)
	}
	delete(b.userStates, userID)
	b.api.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("❌ The move was %s. This card comes back tomorrow.", q.Item.ExpectedSAN)))
	b.advanceQuiz(userID, chatID)
}

// advanceQuiz moves to the next question or wraps up the session
func (b *Bot) advanceQuiz(userID int64, chatID int64) {
	rs := b.reviewSessions[userID]
	if rs == nil {
		return
	}
	rs.CurrentIdx++
	rs.Attempts = 0

	if rs.CurrentIdx < len(rs.Questions) {
		b.sendQuizQuestion(userID, chatID)
		return
	}

	delete(b.reviewSessions, userID)
	text := fmt.Sprintf("🏁 Review complete: %d of %d correct.", rs.Correct, len(rs.Questions))
	if rs.Correct == len(rs.Questions) {
		text += " Perfect session! 🎉"
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.api.Send(msg)
}

// handleProgressCommand handles the /progress command
func (b *Bot) handleProgressCommand(message *tgbotapi.Message) {
	b.showProgress(message.From.ID, message.Chat.ID)
}

// showProgress renders the per-line phase picture for each opening
func (b *Bot) showProgress(userID int64, chatID int64) {
	lines, err := b.progressRepo.GetByUser(userID)
	if err != nil {
		log.Printf("Error loading progress for user %d: %v", userID, err)
		return
	}
	if len(lines) == 0 {
		msg := tgbotapi.NewMessage(chatID, "No training games yet. Use /train to get started!")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		b.api.Send(msg)
		return
	}

	byOpening := make(map[string][]models.LineProgress)
	for _, lp := range lines {
		byOpening[lp.OpeningID] = append(byOpening[lp.OpeningID], lp)
	}
	openingIDs := make([]string, 0, len(byOpening))
	for id := range byOpening {
		openingIDs = append(openingIDs, id)
	}
	sort.Strings(openingIDs)

	var sb strings.Builder
	sb.WriteString("📈 Your progress\n\n")
	for _, id := range openingIDs {
		group := byOpening[id]
		name := id
		if op := b.rep.ByID(id); op != nil {
			name = op.Name
		}
		overall := progression.OverallPhase(group)
		sb.WriteString(fmt.Sprintf("%s — %s\n", name, overall.Title()))
		for _, lp := range group {
			lineName := lp.LineID
			if lineName == "" {
				lineName = "main"
			}
			sb.WriteString(fmt.Sprintf("  • %s: %s, %d games, %.0f%% avg\n",
				lineName, lp.Phase.Title(), lp.GamesPlayed, lp.MeanAccuracy()))
		}
		sb.WriteString("\n")
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	b.api.Send(msg)
}

// handleStatsCommand handles the /stats command
func (b *Bot) handleStatsCommand(message *tgbotapi.Message) {
	b.showStats(message.From.ID, message.Chat.ID)
}

// showStats renders the aggregate statistics for one user
func (b *Bot) showStats(userID int64, chatID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := b.statsRepo.GetUserStats(ctx, userID)
	if err != nil {
		log.Printf("Error loading stats for user %d: %v", userID, err)
		return
	}
	if stats.TotalGames == 0 {
		msg := tgbotapi.NewMessage(chatID, "No games recorded yet. Use /train to play your first one!")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		b.api.Send(msg)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Your statistics\n\n")
	sb.WriteString(fmt.Sprintf("Games: %d   Wins: %d\n", stats.TotalGames, stats.TotalWins))
	sb.WriteString(fmt.Sprintf("Average accuracy: %.0f%%\n", stats.AvgAccuracy))
	sb.WriteString(fmt.Sprintf("Openings played: %d   Cards tracked: %d\n", stats.OpeningsPlayed, stats.ReviewsTracked))

	perOpening, err := b.statsRepo.GetOpeningStats(ctx, userID)
	if err == nil && len(perOpening) > 0 {
		sb.WriteString("\nBy opening:\n")
		for _, st := range perOpening {
			name := st.OpeningID
			if op := b.rep.ByID(st.OpeningID); op != nil {
				name = op.Name
			}
			sb.WriteString(fmt.Sprintf("  • %s: %d games, %.0f%% win rate, %.0f%% accuracy\n",
				name, st.Games, st.WinRate()*100, st.AvgAccuracy))
		}
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	b.api.Send(msg)
}

// handleSettingsCommand handles the /settings command
func (b *Bot) handleSettingsCommand(message *tgbotapi.Message) {
	b.showSettings(message.From, message.Chat.ID)
}

// showSettings displays the current settings with change buttons
func (b *Bot) showSettings(from *tgbotapi.User, chatID int64) {
	user, err := b.ensureUser(from)
	if err != nil {
		log.Printf("Error getting user %d: %v", from.ID, err)
		return
	}

	reminders := "off"
	if user.NotificationEnabled {
		reminders = "on"
	}
	text := fmt.Sprintf("⚙️ Settings\n\nRating: %d\nReviews per day: %d\nReminders: %s",
		user.ELO, user.ReviewsPerDay, reminders)

	buttons := [][]MenuButton{
		{{Text: "♟ Set my rating", CallbackData: "settings_elo"}},
		{{Text: "🃏 Reviews per day", CallbackData: "settings_reviews"}},
		{{Text: "🔔 Toggle reminders", CallbackData: "settings_notify"}},
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(buttons)
	b.api.Send(msg)
}

// handleELOSelection stores the user's self-reported rating. The rating
// drives how forgiving move scoring is.
func (b *Bot) handleELOSelection(userID int64, chatID int64, elo int) {
	if err := b.userRepo.UpdateELO(userID, elo); err != nil {
		log.Printf("Error updating ELO for user %d: %v", userID, err)
		return
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ Rating set to %d. Scoring is calibrated to your level.", elo))
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.api.Send(msg)
}

// handleReviewsPerDaySelection stores the daily review cap
func (b *Bot) handleReviewsPerDaySelection(userID int64, chatID int64, count int) {
	user, err := b.userRepo.GetByID(userID)
	if err != nil || user == nil {
		log.Printf("Error getting user %d: %v", userID, err)
		return
	}
	user.ReviewsPerDay = count
	if err := b.userRepo.Update(user); err != nil {
		log.Printf("Error updating user %d: %v", userID, err)
		return
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("✅ You will get at most %d review positions per day.", count))
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.api.Send(msg)
}

// toggleNotifications flips the reminder flag
func (b *Bot) toggleNotifications(userID int64, chatID int64) {
	user, err := b.userRepo.GetByID(userID)
	if err != nil || user == nil {
		log.Printf("Error getting user %d: %v", userID, err)
		return
	}
	user.NotificationEnabled = !user.NotificationEnabled
	if err := b.userRepo.Update(user); err != nil {
		log.Printf("Error updating user %d: %v", userID, err)
		return
	}
	state := "disabled"
	if user.NotificationEnabled {
		state = "enabled"
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🔔 Review reminders %s.", state))
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.api.Send(msg)
}

// handleResetCommand offers to wipe the user's progress in one opening
func (b *Bot) handleResetCommand(message *tgbotapi.Message) {
	var rows [][]MenuButton
	for _, op := range b.rep.Openings() {
		rows = append(rows, []MenuButton{{Text: op.Name, CallbackData: "reset_" + op.ID}})
	}
	msg := tgbotapi.NewMessage(message.Chat.ID, "Which opening do you want to reset? Phases and review cards for it will be wiped.")
	msg.ReplyMarkup = createKeyboard(rows)
	b.api.Send(msg)
}

// resetOpening wipes progress and review cards for one opening
func (b *Bot) resetOpening(userID int64, chatID int64, openingID string) {
	opening := b.rep.ByID(openingID)
	if opening == nil {
		return
	}

	if err := b.progressRepo.Delete(userID, openingID); err != nil {
		log.Printf("Error resetting progress for user %d: %v", userID, err)
	}
	items, err := b.itemRepo.GetByUser(userID, openingID)
	if err != nil {
		log.Printf("Error loading review items for user %d: %v", userID, err)
	}
	for _, item := range items {
		if err := b.itemRepo.Delete(item.ID); err != nil {
			log.Printf("Error deleting review item %d: %v", item.ID, err)
		}
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🔄 %s reset. You are back at %s.", opening.Name, models.PhaseLearningMainLine.Title()))
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	b.api.Send(msg)
}

// handleImportCommand imports repertoire lines from a spreadsheet on disk.
// Admin only; the argument is a server-local path.
func (b *Bot) handleImportCommand(message *tgbotapi.Message) {
	path := strings.TrimSpace(message.CommandArguments())
	if path == "" {
		msg := tgbotapi.NewMessage(message.Chat.ID, "Usage: /import <path to .xlsx or .csv>\nColumns: opening, line id, parent line, name, moves, weight.")
		b.api.Send(msg)
		return
	}

	config := excel.DefaultImportConfig()
	config.FilePath = path

	lines, result, err := excel.ImportLines(config)
	if err != nil {
		msg := tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf("Import failed: %v", err))
		b.api.Send(msg)
		return
	}

	merged := 0
	unknown := 0
	for openingID, lineData := range lines {
		op := b.rep.ByID(openingID)
		if op == nil {
			unknown += len(lineData)
			continue
		}
		for _, ld := range lineData {
			op.Lines = append(op.Lines, models.OpeningLine{
				ID:           ld.LineID,
				ParentLineID: ld.ParentLineID,
				Name:         ld.Name,
				Moves:        ld.Moves,
			})
			merged++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📥 Import finished: %d rows processed, %d lines imported, %d skipped.\n", result.TotalProcessed, result.LinesImported, result.Skipped))
	sb.WriteString(fmt.Sprintf("%d line(s) merged into the repertoire, %d referenced unknown openings.\n", merged, unknown))
	for i, e := range result.Errors {
		if i >= 5 {
			sb.WriteString(fmt.Sprintf("...and %d more errors\n", len(result.Errors)-i))
			break
		}
		sb.WriteString("• " + e + "\n")
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, sb.String())
	b.api.Send(msg)
}

// handleAdminStatsCommand reports operational numbers for administrators
func (b *Bot) handleAdminStatsCommand(message *tgbotapi.Message) {
	users, err := b.userRepo.GetAll()
	if err != nil {
		log.Printf("Error loading users: %v", err)
		return
	}

	engineState := "unavailable"
	if b.caps.Engine {
		engineState = "running"
	}
	judgeState := "unavailable"
	if b.caps.Judge {
		judgeState = "configured"
	}

	text := fmt.Sprintf("👥 Users: %d\n🎯 Active training sessions: %d\n🃏 Active review sessions: %d\n⚙️ Engine: %s\n🧠 Judge: %s\n📚 Openings loaded: %d",
		len(users), len(b.trainingSessions), len(b.reviewSessions), engineState, judgeState, len(b.rep.Openings()))
	b.api.Send(tgbotapi.NewMessage(message.Chat.ID, text))
}

// handleCallbackQuery handles callback queries from inline buttons
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Acknowledge the callback to clear the loading state
	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := b.api.Request(callback); err != nil {
		log.Printf("Error acknowledging callback: %v", err)
	}

	if query.Message == nil {
		return
	}
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	data := query.Data

	switch {
	case data == "menu_train":
		b.showOpeningChoice(chatID)
	case data == "menu_review":
		b.startReview(query.From, chatID)
	case data == "menu_progress":
		b.showProgress(userID, chatID)
	case data == "menu_stats":
		b.showStats(userID, chatID)
	case data == "menu_settings":
		b.showSettings(query.From, chatID)
	case strings.HasPrefix(data, "train_"):
		b.startTraining(userID, chatID, strings.TrimPrefix(data, "train_"), query.From)
	case strings.HasPrefix(data, "reset_"):
		b.resetOpening(userID, chatID, strings.TrimPrefix(data, "reset_"))
	case data == "finish_won":
		b.finishTraining(userID, chatID, true)
	case data == "finish_draw":
		b.finishTraining(userID, chatID, false)
	case data == "finish_lost":
		b.finishTraining(userID, chatID, false)
	case strings.HasPrefix(data, "quiz_opt_"):
		idx, err := strconv.Atoi(strings.TrimPrefix(data, "quiz_opt_"))
		if err != nil {
			return
		}
		b.handleQuizOptionAnswer(userID, chatID, idx)
	case data == "settings_elo":
		b.userStates[userID] = UserState{State: "waiting_for_elo", Timestamp: time.Now(), Data: make(map[string]interface{})}
		b.api.Send(tgbotapi.NewMessage(chatID, "What is your current rating? (100-3500)"))
	case data == "settings_reviews":
		b.userStates[userID] = UserState{State: "waiting_for_reviews_per_day", Timestamp: time.Now(), Data: make(map[string]interface{})}
		b.api.Send(tgbotapi.NewMessage(chatID, "How many review positions per day? (1-50)"))
	case data == "settings_notify":
		b.toggleNotifications(userID, chatID)
	}
}

// numberedSAN renders a move with its move number, e.g. "2...Nc6"
func numberedSAN(ply int, san string) string {
	moveNo := ply/2 + 1
	if ply%2 == 0 {
		return fmt.Sprintf("%d.%s", moveNo, san)
	}
	return fmt.Sprintf("%d...%s", moveNo, san)
}

// joinSAN renders a move list as comma-separated SAN
func joinSAN(moves []models.MoveRef) string {
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = m.SAN
	}
	return strings.Join(parts, ", ")
}
