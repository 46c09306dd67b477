package timer

import (
	"github.com/syedzayyan/pomonotes/internal/config"
	"github.com/syedzayyan/pomonotes/internal/model"
)

// Config holds nominal phase lengths in seconds.
type Config struct {
	WorkSeconds         int
	ShortBreakSeconds   int
	LongBreakSeconds    int
	LongBreakEvery      int
	IntervalsPerSession int
}

func ConfigFrom(t config.Timer) Config {
	return Config{
		WorkSeconds:         t.WorkSeconds,
		ShortBreakSeconds:   t.ShortBreakSeconds,
		LongBreakSeconds:    t.LongBreakSeconds,
		LongBreakEvery:      t.LongBreakEvery,
		IntervalsPerSession: t.IntervalsPerSession,
	}
}

func DefaultConfig() Config {
	return Config{
		WorkSeconds:         model.DefaultWorkSeconds,
		ShortBreakSeconds:   model.DefaultShortBreakSeconds,
		LongBreakSeconds:    model.DefaultLongBreakSeconds,
		LongBreakEvery:      model.DefaultLongBreakEvery,
		IntervalsPerSession: model.DefaultIntervalsPerSession,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WorkSeconds <= 0 {
		c.WorkSeconds = d.WorkSeconds
	}
	if c.ShortBreakSeconds <= 0 {
		c.ShortBreakSeconds = d.ShortBreakSeconds
	}
	if c.LongBreakSeconds <= 0 {
		c.LongBreakSeconds = d.LongBreakSeconds
	}
	if c.LongBreakEvery <= 0 {
		c.LongBreakEvery = d.LongBreakEvery
	}
	if c.IntervalsPerSession <= 0 {
		c.IntervalsPerSession = d.IntervalsPerSession
	}
	return c
}

func (c Config) breakAfter(ordinal int) (string, int) {
	kind := model.BreakTypeAfter(ordinal, c.LongBreakEvery)
	if kind == model.BreakLong {
		return kind, c.LongBreakSeconds
	}
	return kind, c.ShortBreakSeconds
}
