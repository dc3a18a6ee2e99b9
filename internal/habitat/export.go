package habitat

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

// HistoryRow is one organism's state in one cycle, flattened for CSV output.
type HistoryRow struct {
	Cycle           int    `csv:"cycle"`
	OrganismID      string `csv:"organism_id"`
	Row             int    `csv:"row"`
	Col             int    `csv:"col"`
	Population      int    `csv:"population"`
	CaughtPreyCount int    `csv:"caught_prey_count"`
	TimesCaught     int    `csv:"times_caught"`
	AverageGenome   string `csv:"average_genome"`
}

// HistoryWriter streams cycle history rows to CSV, writing the header once.
type HistoryWriter struct {
	out           io.Writer
	headerWritten bool
}

// NewHistoryWriter wraps an output stream for CSV history export.
func NewHistoryWriter(out io.Writer) *HistoryWriter {
	return &HistoryWriter{out: out}
}

// WriteEntry appends one cycle's organism rows.
func (w *HistoryWriter) WriteEntry(entry HistoryEntry) error {
	rows := historyRows(entry)
	if len(rows) == 0 {
		return nil
	}

	if !w.headerWritten {
		if err := gocsv.Marshal(rows, w.out); err != nil {
			return fmt.Errorf("writing history: %w", err)
		}
		w.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, w.out); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	return nil
}

// ExportHistoryCSV writes the full contents of a history store to a CSV file.
func ExportHistoryCSV(store HistoryStore, path string) error {
	entries, err := store.Entries()
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}
	if len(entries) == 0 {
		return ErrNoHistory
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating history csv: %w", err)
	}
	defer f.Close()

	w := NewHistoryWriter(f)
	for _, entry := range entries {
		if err := w.WriteEntry(entry); err != nil {
			return err
		}
	}
	return nil
}

func historyRows(entry HistoryEntry) []HistoryRow {
	rows := make([]HistoryRow, 0, len(entry.Organisms))
	for _, org := range entry.Organisms {
		rows = append(rows, HistoryRow{
			Cycle:           entry.Cycle,
			OrganismID:      string(org.ID),
			Row:             org.Row,
			Col:             org.Col,
			Population:      org.Population,
			CaughtPreyCount: org.CaughtPreyCount,
			TimesCaught:     org.TimesCaught,
			AverageGenome:   formatGenome(org.AverageGenome),
		})
	}
	return rows
}

// formatGenome renders the mean genome as a pipe-separated list so the CSV
// stays one row per organism.
func formatGenome(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 4, 64)
	}
	return strings.Join(parts, "|")
}
