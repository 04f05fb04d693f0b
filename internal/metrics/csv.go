package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"meshmon/internal/features"
	"meshmon/internal/model"
)

// Header is the fixed column order of the feature log. will_fail defaults to
// 0 and is relabeled by hand before offline training.
var Header = []string{
	"timestamp",
	"neighbor",
	"signal_strength",
	"packet_loss",
	"hop_count",
	"battery_pct",
	"will_fail",
}

// Writer appends feature rows to date-partitioned CSV files under Dir, one
// file per UTC calendar date.
type Writer struct {
	Dir string
	// BatteryOverride is passed through to the feature extractor.
	BatteryOverride float64
}

// Append derives features for each record and appends one row per record to
// the log file for ts's UTC date, creating the directory and writing the
// header when the file is new. Existing rows are never touched; the file is
// opened append-only.
func (w Writer) Append(ts time.Time, records []model.NeighborRecord) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	path := w.pathFor(ts)
	writeHeader := true
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		writeHeader = false
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if writeHeader {
		if err := cw.Write(Header); err != nil {
			return err
		}
	}

	stamp := ts.UTC().Format(time.RFC3339)
	for _, rec := range records {
		fv := features.Vector(rec, w.BatteryOverride)
		row := []string{
			stamp,
			rec.Neighbor,
			strconv.FormatFloat(fv.SignalStrength, 'f', -1, 64),
			strconv.FormatFloat(fv.PacketLoss, 'f', -1, 64),
			strconv.Itoa(fv.HopCount),
			strconv.FormatFloat(fv.BatteryPct, 'f', -1, 64),
			"0",
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func (w Writer) pathFor(ts time.Time) string {
	return filepath.Join(w.Dir, fmt.Sprintf("metrics_%s.csv", ts.UTC().Format("2006-01-02")))
}
