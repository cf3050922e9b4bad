package experiments

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Writer struct {
	baseDir string
}

// NewWriter creates a timestamped subfolder for this benchmark run.
func NewWriter(root string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(root, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{baseDir: baseDir}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteRecords(records []Record) error {
	path := filepath.Join(w.baseDir, "search_records.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"trial", "run", "iterations", "best_action", "expected_reward", "confidence", "explored_nodes", "converged", "duration"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write records header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.Trial,
			strconv.Itoa(record.Run),
			strconv.Itoa(record.Iterations),
			record.BestAction,
			strconv.FormatFloat(record.ExpectedReward, 'f', 4, 64),
			strconv.FormatFloat(record.Confidence, 'f', 4, 64),
			strconv.Itoa(record.ExploredNodes),
			strconv.FormatBool(record.Converged),
			record.Duration.String(),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write record row: %w", err)
		}
	}

	return nil
}
