package metrics

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// Export merges every partition under dir into a single CSV stream with one
// header row, for consumption by the offline trainer.
func Export(dir string, w io.Writer) (int, error) {
	rows, err := ReadDir(dir)
	if err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return 0, err
	}
	for _, r := range rows {
		record := []string{
			r.Timestamp.UTC().Format(time.RFC3339),
			r.Neighbor,
			strconv.FormatFloat(r.SignalStrength, 'f', -1, 64),
			strconv.FormatFloat(r.PacketLoss, 'f', -1, 64),
			strconv.Itoa(r.HopCount),
			strconv.FormatFloat(r.BatteryPct, 'f', -1, 64),
			strconv.Itoa(r.WillFail),
		}
		if err := writer.Write(record); err != nil {
			return 0, err
		}
	}
	writer.Flush()
	return len(rows), writer.Error()
}
