package model

import "time"

// NeighborRecord is one neighbor as read from the originators table.
type NeighborRecord struct {
	Neighbor   string `json:"neighbor"`
	LastSeenMs int    `json:"last_seen_ms"`
	TQ         int    `json:"tq"`
	HopCount   int    `json:"hop_count"`
}

// FeatureVector holds the derived per-neighbor features fed to the classifier
// and written to the metric log.
type FeatureVector struct {
	SignalStrength float64
	PacketLoss     float64
	HopCount       int
	BatteryPct     float64
}

// Prediction is a classifier result for one neighbor. It lives only in the
// in-memory snapshot.
type Prediction struct {
	Neighbor    string  `json:"neighbor"`
	FailureProb float64 `json:"failure_prob"`
	TQ          int     `json:"tq"`
	HopCount    int     `json:"hop_count"`
}

// FeatureRow is one persisted metric-log row: a FeatureVector plus the
// training label. Rows are appended once and never rewritten; will_fail is
// relabeled by hand before offline training.
type FeatureRow struct {
	Timestamp      time.Time
	Neighbor       string
	SignalStrength float64
	PacketLoss     float64
	HopCount       int
	BatteryPct     float64
	WillFail       int
}
