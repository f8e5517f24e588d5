package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// ConsoleOutput prints one line per ranked dish prefixed with the topic.
type ConsoleOutput struct {
	w io.Writer
}

func NewConsoleOutput(w io.Writer) *ConsoleOutput {
	return &ConsoleOutput{w: w}
}

func (c *ConsoleOutput) WriteRanking(r Ranking) error {
	for _, row := range r.Rows {
		msg, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.w, "[%s] %s\n", r.Topic, msg); err != nil {
			return fmt.Errorf("failed to write to console: %w", err)
		}
	}
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }
