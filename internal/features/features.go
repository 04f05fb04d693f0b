package features

import (
	"os"
	"strconv"

	"meshmon/internal/model"
)

const (
	// BatteryEnv overrides the battery feature when set to a parsable number.
	BatteryEnv = "MESHMON_BATTERY_PCT"

	// DefaultBatteryPct is used when no override is configured.
	DefaultBatteryPct = 80.0
)

// SignalStrength maps TQ in [0, 255] to [0, 1]. Out-of-range values are
// clamped first.
func SignalStrength(tq int) float64 {
	return float64(clampTQ(tq)) / 255.0
}

// PacketLoss is a rough heuristic mapping TQ to an estimated loss in
// [0, 0.5]. Higher TQ means lower loss; by construction
// SignalStrength(tq) + 2*PacketLoss(tq) == 1.
func PacketLoss(tq int) float64 {
	return 0.5 * (1 - SignalStrength(tq))
}

// BatteryPct resolves the process-wide battery feature: the config override
// when positive, then the environment, then the default. A malformed
// environment value is treated as absent.
func BatteryPct(override float64) float64 {
	if override > 0 {
		return override
	}
	if env := os.Getenv(BatteryEnv); env != "" {
		if v, err := strconv.ParseFloat(env, 64); err == nil {
			return v
		}
	}
	return DefaultBatteryPct
}

// Vector derives the feature vector for one neighbor record.
func Vector(rec model.NeighborRecord, batteryOverride float64) model.FeatureVector {
	return model.FeatureVector{
		SignalStrength: SignalStrength(rec.TQ),
		PacketLoss:     PacketLoss(rec.TQ),
		HopCount:       rec.HopCount,
		BatteryPct:     BatteryPct(batteryOverride),
	}
}

func clampTQ(tq int) int {
	if tq < 0 {
		return 0
	}
	if tq > 255 {
		return 255
	}
	return tq
}
