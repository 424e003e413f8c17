package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Default number of review cards per quiz session
	DefaultReviewLimit int
	// Maximum attempts before a quiz question reveals its answer
	MaxQuizAttempts int
	// Safety cap on training game length in plies
	MaxSessionPlies int
	// Budget for the combined score-and-coach pipeline per move
	MoveTimeout time.Duration
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		DefaultReviewLimit: 10,
		MaxQuizAttempts:    2,
		MaxSessionPlies:    40,
		MoveTimeout:        45 * time.Second,
	}
}
