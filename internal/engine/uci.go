package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// mateScore is the centipawn stand-in for a forced mate line
const mateScore = 10000

// UCI runs a chess engine as a subprocess and speaks the UCI protocol over
// its pipes. All calls are serialized: one position is analyzed at a time.
type UCI struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	reader *bufio.Reader
	ready  bool
}

// New starts the engine binary at STOCKFISH_PATH (or the provided override)
// and completes the UCI handshake. A missing or failing binary is not an
// error for the caller: the returned engine simply reports unavailability.
func New(path string) *UCI {
	if path == "" {
		path = os.Getenv("STOCKFISH_PATH")
	}
	if path == "" {
		path = "stockfish"
	}

	e := &UCI{}
	if err := e.start(path); err != nil {
		log.Printf("engine unavailable: %v", err)
		return e
	}
	return e
}

func (e *UCI) start(path string) error {
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open engine stdin: %v", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open engine stdout: %v", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start engine: %v", err)
	}

	e.cmd = cmd
	e.stdin = stdin
	e.reader = bufio.NewReader(stdout)

	if err := e.handshake(); err != nil {
		e.Close()
		return err
	}
	e.ready = true
	return nil
}

func (e *UCI) handshake() error {
	if _, err := fmt.Fprintln(e.stdin, "uci"); err != nil {
		return fmt.Errorf("failed to send uci: %v", err)
	}
	if err := e.waitFor("uciok"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(e.stdin, "isready"); err != nil {
		return fmt.Errorf("failed to send isready: %v", err)
	}
	return e.waitFor("readyok")
}

func (e *UCI) waitFor(token string) error {
	for {
		line, err := e.reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("engine closed pipe waiting for %s: %v", token, err)
		}
		if strings.HasPrefix(strings.TrimSpace(line), token) {
			return nil
		}
	}
}

// Available reports whether the engine subprocess is running and handshaked
func (e *UCI) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// Evaluate scores a position at the given depth. The score is signed
// centipawns from the side-to-move's perspective; ok is false whenever the
// engine is down, the context expires, or the output cannot be parsed.
func (e *UCI) Evaluate(ctx context.Context, fen string, depth int) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return 0, false
	}
	if depth <= 0 {
		depth = 10
	}

	type result struct {
		score int
		ok    bool
	}
	done := make(chan result, 1)

	go func() {
		score, ok := e.analyze(fen, depth)
		done <- result{score: score, ok: ok}
	}()

	select {
	case r := <-done:
		return r.score, r.ok
	case <-ctx.Done():
		// The subprocess keeps thinking; mark down and restart lazily rather
		// than desynchronize the pipe protocol
		e.shutdownLocked()
		return 0, false
	}
}

func (e *UCI) analyze(fen string, depth int) (int, bool) {
	if _, err := fmt.Fprintf(e.stdin, "position fen %s\n", fen); err != nil {
		return 0, false
	}
	if _, err := fmt.Fprintf(e.stdin, "go depth %d\n", depth); err != nil {
		return 0, false
	}

	score := 0
	haveScore := false
	for {
		line, err := e.reader.ReadString('\n')
		if err != nil {
			return 0, false
		}
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "info ") {
			if s, ok := parseScore(line); ok {
				score = s
				haveScore = true
			}
			continue
		}
		if strings.HasPrefix(line, "bestmove") {
			return score, haveScore
		}
	}
}

// parseScore extracts "score cp N" or "score mate N" from one info line
func parseScore(line string) (int, bool) {
	fields := strings.Fields(line)
	for i := 0; i < len(fields)-2; i++ {
		if fields[i] != "score" {
			continue
		}
		value, err := strconv.Atoi(fields[i+2])
		if err != nil {
			return 0, false
		}
		switch fields[i+1] {
		case "cp":
			return value, true
		case "mate":
			if value < 0 {
				return -mateScore, true
			}
			return mateScore, true
		}
	}
	return 0, false
}

// Close shuts the engine subprocess down
func (e *UCI) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdownLocked()
}

func (e *UCI) shutdownLocked() {
	e.ready = false
	if e.stdin != nil {
		fmt.Fprintln(e.stdin, "quit")
		e.stdin.Close()
		e.stdin = nil
	}
	if e.cmd != nil {
		e.cmd.Wait()
		e.cmd = nil
	}
}
