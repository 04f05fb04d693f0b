package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"meshmon/internal/batman"
	"meshmon/internal/classifier"
	"meshmon/internal/features"
	"meshmon/internal/metrics"
	"meshmon/internal/model"
	"meshmon/internal/snapshot"
)

// Actuator receives action intents for neighbors whose failure probability
// reached the configured threshold. Implementations must not mutate mesh
// routing state; deprioritizing a route is logged intent only.
type Actuator interface {
	ConsiderDrop(neighbor string, failureProb float64)
}

// NopActuator records nothing beyond the loop's own action log.
type NopActuator struct{}

func (NopActuator) ConsiderDrop(string, float64) {}

// Options configures a Loop.
type Options struct {
	Source          batman.Source
	Log             metrics.Writer
	Model           classifier.Model // nil in monitoring-only mode
	Snapshots       *snapshot.Store
	Actuator        Actuator // nil means NopActuator
	PollInterval    time.Duration
	PredictInterval time.Duration
	ActionThreshold float64
	BatteryOverride float64
	Logger          zerolog.Logger
	Now             func() time.Time // nil means time.Now
}

// Loop drives the monitoring pipeline: poll the originators table every
// PollInterval, log features, refresh the topology snapshot, and score
// neighbors at most once per PredictInterval.
type Loop struct {
	opts        Options
	now         func() time.Time
	lastPredict time.Time
}

func New(opts Options) *Loop {
	if opts.Actuator == nil {
		opts.Actuator = NopActuator{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Loop{opts: opts, now: now}
}

// Run executes ticks until ctx is canceled. A failed tick never stops the
// loop; only cancellation returns.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.opts.PollInterval)
	defer ticker.Stop()

	l.Tick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick()
		}
	}
}

// Tick performs one poll tick. On a source failure the metric log, the
// snapshots and the predict check are all skipped, so the previous snapshot
// stays committed as-is.
func (l *Loop) Tick() {
	log := l.opts.Logger

	records, skipped, err := l.opts.Source.Read()
	if err != nil {
		pollsTotal.WithLabelValues("source_error").Inc()
		log.Error().Err(err).Msg("poll failed")
		return
	}
	pollsTotal.WithLabelValues("ok").Inc()
	if skipped > 0 {
		parseSkipsTotal.Add(float64(skipped))
	}
	neighborsGauge.Set(float64(len(records)))
	log.Debug().Int("neighbors", len(records)).Int("skipped", skipped).Msg("poll ok")

	ts := l.now()
	if err := l.opts.Log.Append(ts, records); err != nil {
		logErrorsTotal.Inc()
		log.Warn().Err(err).Msg("metric log append failed")
	}

	l.opts.Snapshots.ReplaceNeighbors(ts, records)
	l.maybePredict(ts, records)
}

// maybePredict scores the current neighbors when a model is loaded and the
// predict interval has elapsed since the last scoring pass.
func (l *Loop) maybePredict(ts time.Time, records []model.NeighborRecord) {
	if l.opts.Model == nil {
		return
	}
	if !l.lastPredict.IsZero() && ts.Sub(l.lastPredict) < l.opts.PredictInterval {
		return
	}
	l.lastPredict = ts

	log := l.opts.Logger
	preds := make([]model.Prediction, 0, len(records))
	for _, rec := range records {
		fv := features.Vector(rec, l.opts.BatteryOverride)
		prob := l.opts.Model.Score(fv)
		preds = append(preds, model.Prediction{
			Neighbor:    rec.Neighbor,
			FailureProb: prob,
			TQ:          rec.TQ,
			HopCount:    rec.HopCount,
		})
		predictionsTotal.Inc()
		log.Debug().
			Str("neighbor", rec.Neighbor).
			Int("tq", rec.TQ).
			Float64("failure_prob", prob).
			Msg("scored neighbor")

		if prob >= l.opts.ActionThreshold {
			actionsTotal.Inc()
			log.Warn().
				Str("neighbor", rec.Neighbor).
				Float64("failure_prob", prob).
				Msg("high failure probability, consider dropping route")
			l.opts.Actuator.ConsiderDrop(rec.Neighbor, prob)
		}
	}

	l.opts.Snapshots.ReplacePredictions(ts, preds)
}
