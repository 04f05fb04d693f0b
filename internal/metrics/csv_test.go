package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"meshmon/internal/model"
)

func TestAppend_WritesHeaderOnce(t *testing.T) {
	t.Parallel()

	w := Writer{Dir: t.TempDir(), BatteryOverride: 80}
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rec := model.NeighborRecord{Neighbor: "aa:bb:cc:dd:ee:ff", TQ: 200, LastSeenMs: 340, HopCount: 1}

	if err := w.Append(ts, []model.NeighborRecord{rec}); err != nil {
		t.Fatalf("Append #1: %v", err)
	}
	if err := w.Append(ts.Add(time.Minute), []model.NeighborRecord{rec}); err != nil {
		t.Fatalf("Append #2: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(w.Dir, "metrics_2026-08-30.csv"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines=%d\n%s", len(lines), string(data))
	}
	if !strings.HasPrefix(lines[0], "timestamp,") {
		t.Fatalf("missing header: %q", lines[0])
	}
	if strings.Count(string(data), "timestamp,") != 1 {
		t.Fatalf("header written more than once:\n%s", string(data))
	}
	if !strings.HasSuffix(lines[1], ",0") {
		t.Fatalf("will_fail not defaulted to 0: %q", lines[1])
	}
}

func TestAppend_RotatesByUTCDate(t *testing.T) {
	t.Parallel()

	w := Writer{Dir: t.TempDir(), BatteryOverride: 80}
	rec := model.NeighborRecord{Neighbor: "aa:bb:cc:dd:ee:ff", TQ: 100, LastSeenMs: 10, HopCount: 1}

	day1 := time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 31, 0, 1, 0, 0, time.UTC)
	if err := w.Append(day1, []model.NeighborRecord{rec}); err != nil {
		t.Fatalf("Append day1: %v", err)
	}
	if err := w.Append(day2, []model.NeighborRecord{rec}); err != nil {
		t.Fatalf("Append day2: %v", err)
	}

	for _, name := range []string{"metrics_2026-08-30.csv", "metrics_2026-08-31.csv"} {
		data, err := os.ReadFile(filepath.Join(w.Dir, name))
		if err != nil {
			t.Fatalf("ReadFile %s: %v", name, err)
		}
		if strings.Count(string(data), "timestamp,") != 1 {
			t.Fatalf("%s: header count != 1:\n%s", name, string(data))
		}
		if len(strings.Split(strings.TrimSpace(string(data)), "\n")) != 2 {
			t.Fatalf("%s: unexpected rows:\n%s", name, string(data))
		}
	}
}

func TestAppend_DoesNotTruncateExistingRows(t *testing.T) {
	t.Parallel()

	w := Writer{Dir: t.TempDir(), BatteryOverride: 80}
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rec := model.NeighborRecord{Neighbor: "aa:bb:cc:dd:ee:ff", TQ: 200, LastSeenMs: 340, HopCount: 1}

	if err := w.Append(ts, []model.NeighborRecord{rec}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	before, err := os.ReadFile(w.pathFor(ts))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if err := w.Append(ts.Add(time.Second), []model.NeighborRecord{rec}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	after, err := os.ReadFile(w.pathFor(ts))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(after), string(before)) {
		t.Fatalf("prior rows changed:\nbefore:\n%s\nafter:\n%s", before, after)
	}
}

func TestReadDir_RoundTrip(t *testing.T) {
	t.Parallel()

	w := Writer{Dir: t.TempDir(), BatteryOverride: 66}
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	recs := []model.NeighborRecord{
		{Neighbor: "aa:bb:cc:dd:ee:ff", TQ: 255, LastSeenMs: 340, HopCount: 1},
		{Neighbor: "11:22:33:44:55:66", TQ: 0, LastSeenMs: 90, HopCount: 1},
	}
	if err := w.Append(ts, recs); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rows, err := ReadDir(w.Dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d", len(rows))
	}
	if rows[0].Neighbor != "aa:bb:cc:dd:ee:ff" || rows[0].SignalStrength != 1 || rows[0].PacketLoss != 0 {
		t.Fatalf("row0=%+v", rows[0])
	}
	if rows[1].SignalStrength != 0 || rows[1].PacketLoss != 0.5 || rows[1].BatteryPct != 66 {
		t.Fatalf("row1=%+v", rows[1])
	}
	if !rows[0].Timestamp.Equal(ts) {
		t.Fatalf("timestamp=%v", rows[0].Timestamp)
	}
}

func TestExport_MergesPartitionsWithSingleHeader(t *testing.T) {
	t.Parallel()

	w := Writer{Dir: t.TempDir(), BatteryOverride: 80}
	rec := model.NeighborRecord{Neighbor: "aa:bb:cc:dd:ee:ff", TQ: 128, LastSeenMs: 10, HopCount: 1}
	if err := w.Append(time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC), []model.NeighborRecord{rec}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Append(time.Date(2026, 8, 31, 1, 0, 0, 0, time.UTC), []model.NeighborRecord{rec}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var buf strings.Builder
	n, err := Export(w.Dir, &buf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != 2 {
		t.Fatalf("n=%d", n)
	}
	out := buf.String()
	if strings.Count(out, "timestamp,") != 1 {
		t.Fatalf("header count != 1:\n%s", out)
	}
	if len(strings.Split(strings.TrimSpace(out), "\n")) != 3 {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
