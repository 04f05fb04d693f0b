package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"meshmon/internal/model"
)

// ReadDir loads every metrics_*.csv partition under dir, oldest file first.
func ReadDir(dir string) ([]model.FeatureRow, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "metrics_*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var rows []model.FeatureRow
	for _, path := range paths {
		part, err := ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rows = append(rows, part...)
	}
	return rows, nil
}

// ReadFile loads feature rows from a single CSV partition.
func ReadFile(path string) ([]model.FeatureRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readCSV(file)
}

func readCSV(r io.Reader) ([]model.FeatureRow, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	start := 0
	if len(records[0]) > 0 && records[0][0] == "timestamp" {
		start = 1
	}

	rows := make([]model.FeatureRow, 0, len(records)-start)
	for i := start; i < len(records); i++ {
		rec := records[i]
		if len(rec) < 7 {
			return nil, fmt.Errorf("invalid record at line %d", i+1)
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp at line %d: %w", i+1, err)
		}
		signal, _ := strconv.ParseFloat(rec[2], 64)
		loss, _ := strconv.ParseFloat(rec[3], 64)
		hops, _ := strconv.Atoi(rec[4])
		battery, _ := strconv.ParseFloat(rec[5], 64)
		willFail, _ := strconv.Atoi(rec[6])
		rows = append(rows, model.FeatureRow{
			Timestamp:      ts,
			Neighbor:       rec[1],
			SignalStrength: signal,
			PacketLoss:     loss,
			HopCount:       hops,
			BatteryPct:     battery,
			WillFail:       willFail,
		})
	}

	return rows, nil
}
