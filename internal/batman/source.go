package batman

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"meshmon/internal/model"
)

// ErrUnavailable indicates the originators table cannot be read, typically
// because the batman-adv kernel module is not loaded on this node.
var ErrUnavailable = errors.New("originators table unavailable")

// Source yields the current neighbor set. Read returns the records that
// parsed plus the number of lines that were discarded as malformed.
type Source interface {
	Read() ([]model.NeighborRecord, int, error)
}

// FileSource reads the batman-adv originators table from debugfs.
type FileSource struct {
	Path string
}

// Read parses the originators table at the configured path.
func (s FileSource) Read() ([]model.NeighborRecord, int, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrUnavailable, s.Path, err)
	}
	records, skipped := ParseOriginators(string(data))
	return records, skipped, nil
}

// ParseOriginators parses originators table text. Lines that fail to parse
// are skipped, not fatal; batman-adv output varies slightly across versions
// and a single odd line must not cost the whole tick.
func ParseOriginators(text string) ([]model.NeighborRecord, int) {
	var records []model.NeighborRecord
	skipped := 0

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Originator") {
			continue
		}

		rec, ok := parseLine(line)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return records, skipped
}

// parseLine extracts one neighbor from a data line. The line must carry the
// neighbor MAC as its first field, a TQ:<0-255> field, and a (<ms> last-seen
// field; all other fields are ignored.
func parseLine(line string) (model.NeighborRecord, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return model.NeighborRecord{}, false
	}

	neighbor := fields[0]

	tq, ok := intToken(fields[1:], "TQ:")
	if !ok {
		return model.NeighborRecord{}, false
	}
	lastSeen, ok := intToken(fields[1:], "(")
	if !ok {
		return model.NeighborRecord{}, false
	}

	return model.NeighborRecord{
		Neighbor:   neighbor,
		LastSeenMs: lastSeen,
		TQ:         tq,
		// Single-hop visibility only; the full routing table is not parsed.
		HopCount: 1,
	}, true
}

// intToken finds the first field with the given prefix and parses the rest
// as an integer. A matching field that does not parse fails the line.
func intToken(fields []string, prefix string) (int, bool) {
	for _, f := range fields {
		rest, found := strings.CutPrefix(f, prefix)
		if !found {
			continue
		}
		v, err := strconv.Atoi(rest)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}
