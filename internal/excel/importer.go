package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/openingcoach/pkg/models"
	"github.com/notnil/chess"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration for repertoire line sheets
type ImportConfig struct {
	FilePath      string // Path to the Excel or CSV file
	OpeningColumn string // Column with the opening ID
	LineIDColumn  string // Column with the line ID
	ParentColumn  string // Column with the parent line ID
	NameColumn    string // Column with the variation name
	MovesColumn   string // Column with space-separated SAN moves
	WeightColumn  string // Column with the line's play-frequency weight
	SheetName     string // Name of the sheet to import
	StartRow      int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		OpeningColumn: "A",
		LineIDColumn:  "B",
		ParentColumn:  "C",
		NameColumn:    "D",
		MovesColumn:   "E",
		WeightColumn:  "F",
		SheetName:     "Sheet1",
		StartRow:      2, // By default, start from the second row (skip header)
	}
}

// LineData is one imported variation line, validated and keyed by opening
type LineData struct {
	OpeningID    string
	LineID       string
	ParentLineID string
	Name         string
	Moves        []models.MoveRef
	Weight       int
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	LinesImported  int
	Skipped        int
	Errors         []string
}

// ImportLines imports repertoire lines from an Excel or CSV file, grouped by
// opening ID. Every line's SAN sequence is replayed for legality; illegal
// rows are reported and skipped, never silently dropped.
func ImportLines(config ImportConfig) (map[string][]LineData, *ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(config)
	}
	return importFromExcel(config)
}

// importFromExcel imports lines from an Excel file
func importFromExcel(config ImportConfig) (map[string][]LineData, *ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows: %v", err)
	}

	lines := make(map[string][]LineData)
	result := &ImportResult{Errors: make([]string, 0)}

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++
		if err := processRow(row, config, lines, result); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return lines, result, nil
}

// importFromCSV imports lines from a CSV file using the same column mapping
func importFromCSV(config ImportConfig) (map[string][]LineData, *ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	lines := make(map[string][]LineData)
	result := &ImportResult{Errors: make([]string, 0)}

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("error reading CSV: %v", err)
		}

		rowNum++
		if rowNum < config.StartRow {
			continue
		}

		result.TotalProcessed++
		if err := processRow(row, config, lines, result); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	return lines, result, nil
}

// processRow validates and collects a single imported line
func processRow(row []string, config ImportConfig, lines map[string][]LineData, result *ImportResult) error {
	cell := func(column string) string {
		if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	data := LineData{
		OpeningID:    cell(config.OpeningColumn),
		LineID:       cell(config.LineIDColumn),
		ParentLineID: cell(config.ParentColumn),
		Name:         cell(config.NameColumn),
		Weight:       parseIntOrDefault(cell(config.WeightColumn), 1, 100, 1),
	}

	if data.OpeningID == "" {
		return fmt.Errorf("opening ID cannot be empty")
	}
	if data.LineID == "" {
		return fmt.Errorf("line ID cannot be empty")
	}

	movesText := cell(config.MovesColumn)
	if movesText == "" {
		return fmt.Errorf("moves cannot be empty")
	}

	moves, err := parseSANSequence(movesText)
	if err != nil {
		return err
	}
	data.Moves = moves

	lines[data.OpeningID] = append(lines[data.OpeningID], data)
	result.LinesImported++
	return nil
}

// parseSANSequence replays a space-separated SAN sequence from the start
// position, rejecting move numbers and illegal moves
func parseSANSequence(text string) ([]models.MoveRef, error) {
	game := chess.NewGame()
	var moves []models.MoveRef

	for _, token := range strings.Fields(text) {
		// Tolerate "1." and "1..." move-number prefixes from pasted PGN
		token = strings.TrimLeft(token, "0123456789.")
		if token == "" {
			continue
		}

		if err := game.MoveStr(token); err != nil {
			return nil, fmt.Errorf("illegal move %q: %v", token, err)
		}
		history := game.Moves()
		last := history[len(history)-1]
		moves = append(moves, models.MoveRef{UCI: last.String(), SAN: token})
	}

	if len(moves) == 0 {
		return nil, fmt.Errorf("moves cannot be empty")
	}
	return moves, nil
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}

// Helper function to parse integer within a range
func parseIntInRange(s string, min, max int) (int, error) {
	var val int
	if _, err := fmt.Sscanf(s, "%d", &val); err != nil {
		return min, err
	}
	if val < min {
		return min, nil
	}
	if val > max {
		return max, nil
	}
	return val, nil
}

// Helper function to parse integer with default value
func parseIntOrDefault(s string, min, max, defaultVal int) int {
	if val, err := parseIntInRange(s, min, max); err == nil {
		return val
	}
	return defaultVal
}
