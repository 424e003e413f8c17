package quiz

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/example/openingcoach/internal/database"
	"github.com/example/openingcoach/internal/review"
	"github.com/example/openingcoach/pkg/models"
	"github.com/notnil/chess"
)

// QuizModule builds and grades review quizzes from due flashcards
type QuizModule struct {
	itemRepo *database.ReviewItemRepository
	sm       *review.SM2
}

// New creates a new quiz module
func New() *QuizModule {
	return &QuizModule{
		itemRepo: database.NewReviewItemRepository(),
		sm:       review.NewSM2(),
	}
}

// QuestionType represents different types of quiz questions
type QuestionType string

const (
	// MultipleChoice shows the position and several candidate moves
	MultipleChoice QuestionType = "multiple_choice"
	// TextInput asks the learner to type the move
	TextInput QuestionType = "text_input"
)

// Question represents a single quiz question
type Question struct {
	Item         models.ReviewItem // The card being tested
	Type         QuestionType
	Options      []string // Candidate moves in SAN (for multiple choice)
	CorrectIndex int      // Index of the correct answer in Options
}

// BuildQuiz assembles a quiz from the user's due cards, hardest first
func (q *QuizModule) BuildQuiz(userID int64, limit int, questionType QuestionType) ([]Question, error) {
	items, err := q.itemRepo.GetByUser(userID, "")
	if err != nil {
		return nil, err
	}

	due := q.sm.DueItems(items, time.Now(), limit)

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	questions := make([]Question, 0, len(due))
	for _, item := range due {
		question := Question{Item: item, Type: questionType}

		if questionType == MultipleChoice {
			options, correct, err := buildOptions(item, rnd)
			if err != nil {
				// Card with a broken position; skip rather than fail the quiz
				continue
			}
			question.Options = options
			question.CorrectIndex = correct
		}

		questions = append(questions, question)
	}

	return questions, nil
}

// Grade checks one answer, applies the review outcome to the card's schedule,
// and persists it. attempts counts tries on this question including this one.
func (q *QuizModule) Grade(item *models.ReviewItem, answer string, attempts int) (bool, error) {
	correct := AnswerMatches(item.ExpectedSAN, answer)

	quality := review.QualityFromAttempts(correct, attempts)
	q.sm.Process(item, quality, time.Now())

	if err := q.itemRepo.Update(item); err != nil {
		return correct, fmt.Errorf("failed to save review outcome: %v", err)
	}
	return correct, nil
}

// AnswerMatches compares a typed move against the expected SAN, tolerating
// check/mate suffixes and capture notation differences
func AnswerMatches(expected, answer string) bool {
	return normalizeSAN(expected) == normalizeSAN(answer)
}

func normalizeSAN(san string) string {
	san = strings.TrimSpace(san)
	san = strings.TrimRight(san, "+#!?")
	san = strings.Replace(san, "x", "", 1)
	san = strings.Replace(san, "0-0-0", "O-O-O", 1)
	if san == "0-0" {
		san = "O-O"
	}
	return san
}

// buildOptions picks three legal distractor moves from the card's position
// and shuffles the expected move among them
func buildOptions(item models.ReviewItem, rnd *rand.Rand) ([]string, int, error) {
	fenOption, err := chess.FEN(item.FEN)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid FEN on card %d: %v", item.ID, err)
	}
	game := chess.NewGame(fenOption)
	pos := game.Position()

	notation := chess.AlgebraicNotation{}
	var candidates []string
	for _, move := range game.ValidMoves() {
		san := notation.Encode(pos, move)
		if AnswerMatches(item.ExpectedSAN, san) {
			continue
		}
		candidates = append(candidates, san)
	}

	rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}

	options := append(candidates, item.ExpectedSAN)
	correctIndex := len(options) - 1
	rnd.Shuffle(len(options), func(i, j int) {
		if i == correctIndex {
			correctIndex = j
		} else if j == correctIndex {
			correctIndex = i
		}
		options[i], options[j] = options[j], options[i]
	})

	return options, correctIndex, nil
}
