package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/openingcoach/internal/ai"
	"github.com/example/openingcoach/internal/bot"
	"github.com/example/openingcoach/internal/coach"
	"github.com/example/openingcoach/internal/database"
	"github.com/example/openingcoach/internal/engine"
	"github.com/example/openingcoach/internal/repertoire"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine, real deployments use the environment
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	openingsDir := os.Getenv("OPENINGS_DIR")
	if openingsDir == "" {
		openingsDir = "data/openings"
	}
	rep, err := repertoire.Load(openingsDir)
	if err != nil {
		log.Fatalf("Failed to load repertoire from %s: %v", openingsDir, err)
	}
	log.Printf("Loaded %d opening(s)", len(rep.Openings()))

	eng := engine.New("")
	if eng.Available() {
		log.Println("Engine running, move verification enabled")
	} else {
		log.Println("No engine available, scoring degrades to plan alignment only")
	}

	var judge coach.TextGenerator
	if client, err := ai.New(); err != nil {
		log.Printf("Judge unavailable: %v", err)
	} else {
		judge = client
	}

	b, err := bot.New(rep, eng, judge)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		b.Stop()
		database.Close()
		os.Exit(0)
	}()

	log.Println("Bot started. Press Ctrl+C to stop.")
	if err := b.Start(); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
}
