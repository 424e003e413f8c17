package scheduler

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/openingcoach/internal/database"
	"github.com/example/openingcoach/internal/review"
	"github.com/go-co-op/gocron"
)

// Default window during which review reminders may be sent
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	sm        *review.SM2
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReviewReminder(userID int64, dueCount int) error
}

// New creates a new scheduler instance
func New(notifier Notifier) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		notifier:  notifier,
		sm:        review.NewSM2(),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	// Schedule hourly check for users with due review cards
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminders finds users whose notification hour matches and who
// have due cards, and pings them
func (s *Scheduler) checkAndSendReminders() {
	currentHour := time.Now().Hour()

	startHour := DefaultNotificationStartHour
	endHour := DefaultNotificationEndHour

	if startHourStr := os.Getenv("NOTIFICATION_START_HOUR"); startHourStr != "" {
		if h, err := strconv.Atoi(startHourStr); err == nil && h >= 0 && h <= 23 {
			startHour = h
		}
	}
	if endHourStr := os.Getenv("NOTIFICATION_END_HOUR"); endHourStr != "" {
		if h, err := strconv.Atoi(endHourStr); err == nil && h >= 0 && h <= 23 {
			endHour = h
		}
	}

	if currentHour < startHour || currentHour > endHour {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, startHour, endHour)
		return
	}

	userRepo := database.NewUserRepository()
	itemRepo := database.NewReviewItemRepository()

	users, err := userRepo.GetUsersForNotification(currentHour)
	if err != nil {
		log.Printf("Error getting users for notification: %v", err)
		return
	}

	now := time.Now()
	for _, user := range users {
		items, err := itemRepo.GetByUser(user.ID, "")
		if err != nil {
			log.Printf("Error getting review items for user %d: %v", user.ID, err)
			continue
		}

		due := s.sm.DueItems(items, now, user.ReviewsPerDay)
		if len(due) == 0 {
			continue
		}

		if err := s.notifier.SendReviewReminder(user.ID, len(due)); err != nil {
			log.Printf("Error sending reminder to user %d: %v", user.ID, err)
		}
	}
}

// RunManualCheck forces a due-card check for a specific user
func (s *Scheduler) RunManualCheck(userID int64) error {
	itemRepo := database.NewReviewItemRepository()

	items, err := itemRepo.GetByUser(userID, "")
	if err != nil {
		return err
	}

	due := s.sm.DueItems(items, time.Now(), 0)
	if len(due) > 0 {
		return s.notifier.SendReviewReminder(userID, len(due))
	}
	return nil
}
