package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
)

var csvHeader = []string{
	"run_id", "generated_at", "zone", "currency", "price_unit", "optimized",
	"rank", "dish_id", "dish_name", "score",
	"taste", "health", "cheapness", "speed", "low_calorie", "ethics", "satiety",
	"total_cost", "unit_cost", "preparable", "has_override",
}

type csvFile struct {
	file io.WriteCloser
	w    *csv.Writer
}

// CSVOutput writes one headed CSV file per partition.
type CSVOutput struct {
	store store
	mu    sync.Mutex
	files map[string]*csvFile
}

func NewCSVOutput(st store) *CSVOutput {
	return &CSVOutput{store: st, files: make(map[string]*csvFile)}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func csvRecord(row RankingRow) []string {
	unitCost := ""
	if row.UnitCost != nil {
		unitCost = formatFloat(*row.UnitCost)
	}
	return []string{
		row.RunID,
		strconv.FormatInt(row.GeneratedAt, 10),
		row.Zone,
		row.Currency,
		row.PriceUnit,
		strconv.FormatBool(row.Optimized),
		strconv.Itoa(int(row.Rank)),
		row.DishID,
		row.DishName,
		formatFloat(row.Score),
		formatFloat(row.Taste),
		formatFloat(row.Health),
		formatFloat(row.Cheapness),
		formatFloat(row.Speed),
		formatFloat(row.LowCalorie),
		formatFloat(row.Ethics),
		formatFloat(row.Satiety),
		formatFloat(row.TotalCost),
		unitCost,
		strconv.FormatBool(row.Preparable),
		strconv.FormatBool(row.HasOverride),
	}
}

func (c *CSVOutput) WriteRanking(r Ranking) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := r.Topic + "/" + r.PartitionPath() + "/data.csv"
	f, ok := c.files[key]
	if !ok {
		file, err := c.store.Create(key)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", key, err)
		}
		f = &csvFile{file: file, w: csv.NewWriter(file)}
		if err := f.w.Write(csvHeader); err != nil {
			return err
		}
		c.files[key] = f
	}

	for _, row := range r.Rows {
		if err := f.w.Write(csvRecord(row)); err != nil {
			return fmt.Errorf("failed to write row to %s: %w", key, err)
		}
	}
	f.w.Flush()
	return f.w.Error()
}

func (c *CSVOutput) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var lastErr error
	for _, f := range c.files {
		f.w.Flush()
		if err := f.w.Error(); err != nil {
			lastErr = err
		}
		if err := f.file.Close(); err != nil {
			lastErr = err
		}
	}
	c.files = make(map[string]*csvFile)
	return lastErr
}
