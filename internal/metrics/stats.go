package metrics

import (
	"sort"
	"time"

	"meshmon/internal/model"
)

// Summary is a basic statistics snapshot over a window of feature rows.
type Summary struct {
	Count             int
	Labeled           int
	From              time.Time
	To                time.Time
	AvgSignalStrength float64
	MinSignalStrength float64
	AvgPacketLoss     float64
	MaxPacketLoss     float64
	Neighbors         []NeighborSummary
}

// NeighborSummary aggregates rows for one neighbor.
type NeighborSummary struct {
	Neighbor          string
	Count             int
	Labeled           int
	AvgSignalStrength float64
	AvgPacketLoss     float64
}

// Summarize computes aggregate link statistics for rows at or after since.
func Summarize(rows []model.FeatureRow, since time.Time) Summary {
	filtered := make([]model.FeatureRow, 0, len(rows))
	for _, r := range rows {
		if r.Timestamp.After(since) || r.Timestamp.Equal(since) {
			filtered = append(filtered, r)
		}
	}

	if len(filtered) == 0 {
		return Summary{Count: 0}
	}

	var sumSignal, sumLoss float64
	minSignal := filtered[0].SignalStrength
	maxLoss := filtered[0].PacketLoss
	from := filtered[0].Timestamp
	to := filtered[0].Timestamp
	labeled := 0
	perNeighbor := map[string]*NeighborSummary{}

	for _, r := range filtered {
		sumSignal += r.SignalStrength
		sumLoss += r.PacketLoss
		if r.SignalStrength < minSignal {
			minSignal = r.SignalStrength
		}
		if r.PacketLoss > maxLoss {
			maxLoss = r.PacketLoss
		}
		if r.Timestamp.Before(from) {
			from = r.Timestamp
		}
		if r.Timestamp.After(to) {
			to = r.Timestamp
		}
		if r.WillFail != 0 {
			labeled++
		}

		ns, ok := perNeighbor[r.Neighbor]
		if !ok {
			ns = &NeighborSummary{Neighbor: r.Neighbor}
			perNeighbor[r.Neighbor] = ns
		}
		ns.Count++
		ns.AvgSignalStrength += r.SignalStrength
		ns.AvgPacketLoss += r.PacketLoss
		if r.WillFail != 0 {
			ns.Labeled++
		}
	}

	neighbors := make([]NeighborSummary, 0, len(perNeighbor))
	for _, ns := range perNeighbor {
		ns.AvgSignalStrength /= float64(ns.Count)
		ns.AvgPacketLoss /= float64(ns.Count)
		neighbors = append(neighbors, *ns)
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].Neighbor < neighbors[j].Neighbor })

	count := float64(len(filtered))
	return Summary{
		Count:             len(filtered),
		Labeled:           labeled,
		From:              from,
		To:                to,
		AvgSignalStrength: sumSignal / count,
		MinSignalStrength: minSignal,
		AvgPacketLoss:     sumLoss / count,
		MaxPacketLoss:     maxLoss,
		Neighbors:         neighbors,
	}
}
