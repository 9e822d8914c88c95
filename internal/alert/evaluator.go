package alert

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/airsight/airsight/internal/airquality"
	"github.com/airsight/airsight/internal/aqi"
)

// DefaultCooldown is the minimum time between two alerts for the same key
// and pollutant.
const DefaultCooldown = 5 * time.Minute

// DefaultHistorySize is the number of recent alerts kept for Recent.
const DefaultHistorySize = 50

// EvaluatorConfig holds configuration for the evaluator.
type EvaluatorConfig struct {
	// Notifier receives every raised alert. Optional.
	Notifier Notifier

	Logger zerolog.Logger

	// Cooldown defaults to DefaultCooldown.
	Cooldown time.Duration

	// HistorySize defaults to DefaultHistorySize.
	HistorySize int

	// Now defaults to time.Now.
	Now func() time.Time
}

// Evaluator checks readings and enforces the per-key cooldown. It is safe
// for concurrent use.
type Evaluator struct {
	notifier    Notifier
	logger      zerolog.Logger
	cooldown    time.Duration
	historySize int
	now         func() time.Time

	mu      sync.Mutex
	last    map[cooldownKey]time.Time
	history []Alert
}

type cooldownKey struct {
	key       string
	pollutant aqi.Pollutant
}

// NewEvaluator creates a new evaluator.
func NewEvaluator(cfg EvaluatorConfig) *Evaluator {
	cooldown := cfg.Cooldown
	if cooldown == 0 {
		cooldown = DefaultCooldown
	}

	historySize := cfg.HistorySize
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Evaluator{
		notifier:    cfg.Notifier,
		logger:      cfg.Logger,
		cooldown:    cooldown,
		historySize: historySize,
		now:         now,
		last:        make(map[cooldownKey]time.Time),
	}
}

// Evaluate raises an alert for every pollutant of reading at unhealthy or
// worse, unless the same key and pollutant alerted within the cooldown.
// Raised alerts are passed to the notifier; the cooldown only starts once
// delivery succeeded, so a failed delivery is retried on the next call.
func (e *Evaluator) Evaluate(ctx context.Context, key string, reading *airquality.Reading) ([]Alert, error) {
	input := reading.EngineInput()
	levels := aqi.MetricLevels(input)
	now := e.now()

	e.mu.Lock()
	var alerts []Alert
	// Slots are claimed before delivery so a concurrent Evaluate for the
	// same key sees the cooldown; prev lets a failed delivery release them.
	prev := make(map[cooldownKey]time.Time)
	for _, p := range aqi.Pollutants {
		// Levels come from the engine input; the alert reports the value
		// as the source measured it.
		level := levels[p]
		value := reading.Concentrations.Get(p)
		unit := reading.Unit(p)

		if !ShouldAlert(level) {
			continue
		}
		if requiresReading[p] && value == 0 {
			continue
		}
		ck := cooldownKey{key, p}
		last, ok := e.last[ck]
		if ok && now.Sub(last) <= e.cooldown {
			continue
		}
		if ok {
			prev[ck] = last
		}
		e.last[ck] = now

		alerts = append(alerts, Alert{
			ID:        uuid.NewString(),
			Key:       key,
			Source:    reading.Source,
			Pollutant: p,
			Level:     level,
			Value:     value,
			Unit:      unit,
			Message:   Message(p, level, value, unit),
			RaisedAt:  now,
		})
	}
	e.mu.Unlock()

	if len(alerts) == 0 {
		return nil, nil
	}

	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, alerts); err != nil {
			e.release(key, alerts, now, prev)
			e.logger.Error().Err(err).
				Str("key", key).
				Int("alerts", len(alerts)).
				Msg("failed to deliver air quality alerts")
			return alerts, err
		}
	}

	e.mu.Lock()
	e.history = append(e.history, alerts...)
	if over := len(e.history) - e.historySize; over > 0 {
		e.history = append([]Alert(nil), e.history[over:]...)
	}
	e.mu.Unlock()

	for _, a := range alerts {
		e.logger.Info().
			Str("key", key).
			Str("pollutant", string(a.Pollutant)).
			Str("level", a.Level.String()).
			Float64("value", a.Value).
			Msg(a.Message)
	}

	return alerts, nil
}

// release undoes the cooldown claims made at now, unless a later
// evaluation has claimed the slot since.
func (e *Evaluator) release(key string, alerts []Alert, now time.Time, prev map[cooldownKey]time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, a := range alerts {
		ck := cooldownKey{key, a.Pollutant}
		if !e.last[ck].Equal(now) {
			continue
		}
		if last, ok := prev[ck]; ok {
			e.last[ck] = last
		} else {
			delete(e.last, ck)
		}
	}
}

// Recent returns up to limit of the latest delivered alerts, newest first.
// A limit <= 0 returns all retained alerts.
func (e *Evaluator) Recent(limit int) []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.history)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Alert, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, e.history[i])
	}
	return out
}

// Reset forgets cooldowns and history.
func (e *Evaluator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.last = make(map[cooldownKey]time.Time)
	e.history = nil
}
