package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. DATABASE_URL selects
// PostgreSQL; otherwise a local SQLite file is used.
func Connect() error {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		db, err := sqlx.Connect("postgres", url)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %v", err)
		}
		DB = db
		return initializeSchema()
	}

	// Create data directory if it doesn't exist
	dataDir := "data"
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "openingcoach.db")
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return fmt.Errorf("failed to enable foreign keys: %v", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
	db.SetMaxIdleConns(1)

	DB = db

	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// serialPK is the auto-increment primary key column for the active driver
func serialPK() string {
	if DB.DriverName() == "postgres" {
		return "id SERIAL PRIMARY KEY"
	}
	return "id INTEGER PRIMARY KEY AUTOINCREMENT"
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	// Create users table
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			telegram_id INTEGER PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			is_admin BOOLEAN DEFAULT false,
			elo INTEGER DEFAULT 800,
			notification_enabled BOOLEAN DEFAULT true,
			notification_hour INTEGER DEFAULT 9,
			reviews_per_day INTEGER DEFAULT 10,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %v", err)
	}

	// Create line_progress table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS line_progress (
			` + serialPK() + `,
			user_id INTEGER NOT NULL,
			opening_id TEXT NOT NULL,
			line_id TEXT NOT NULL,
			phase INTEGER DEFAULT 0,
			games_played INTEGER DEFAULT 0,
			games_won INTEGER DEFAULT 0,
			best_accuracy REAL DEFAULT 0,
			unlocked BOOLEAN DEFAULT false,
			accuracy_history TEXT DEFAULT '[]',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(telegram_id),
			UNIQUE(user_id, opening_id, line_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create line_progress table: %v", err)
	}

	// Create review_items table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS review_items (
			` + serialPK() + `,
			user_id INTEGER NOT NULL,
			opening_id TEXT NOT NULL,
			line_id TEXT DEFAULT '',
			fen TEXT NOT NULL,
			target_ply INTEGER NOT NULL,
			expected_san TEXT NOT NULL,
			interval INTEGER DEFAULT 1,
			ease_factor REAL DEFAULT 2.5,
			repetitions INTEGER DEFAULT 0,
			last_quality INTEGER DEFAULT 0,
			last_review_date TEXT DEFAULT '',
			next_review_date TEXT DEFAULT '',
			created_at TEXT DEFAULT '',
			updated_at TEXT DEFAULT '',
			FOREIGN KEY (user_id) REFERENCES users(telegram_id),
			UNIQUE(user_id, opening_id, line_id, target_ply)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create review_items table: %v", err)
	}

	// Create game_results table
	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS game_results (
			` + serialPK() + `,
			user_id INTEGER NOT NULL,
			opening_id TEXT NOT NULL,
			line_id TEXT DEFAULT '',
			accuracy REAL DEFAULT 0,
			won BOOLEAN DEFAULT false,
			moves_played INTEGER DEFAULT 0,
			mistakes INTEGER DEFAULT 0,
			played_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(telegram_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create game_results table: %v", err)
	}

	return nil
}
