// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package engagement tracks how engaged a visitor is with the current page:
// dwell time and scroll depth.
package engagement

import (
	"time"

	"github.com/AccelByte/extend-exit-intent/pkg/signal"
)

// TickPeriod is the dwell-time granularity. Dwell time advances by one period
// per tick, so it approximates wall-clock time on the page.
const TickPeriod = time.Second

// Mode selects how scroll depth is derived from successive observations.
type Mode int

const (
	// ModeInstantaneous reports the depth of the latest observation, so
	// scrolling back up lowers it.
	ModeInstantaneous Mode = iota
	// ModeMaximum keeps the highest depth reached on the page.
	ModeMaximum
)

// String returns the mode name used in configuration.
func (m Mode) String() string {
	switch m {
	case ModeMaximum:
		return "maximum"
	default:
		return "instantaneous"
	}
}

// ParseMode parses a mode name. Unknown names select ModeInstantaneous.
func ParseMode(s string) Mode {
	if s == "maximum" {
		return ModeMaximum
	}
	return ModeInstantaneous
}

// Snapshot is a point-in-time copy of the engagement signals.
type Snapshot struct {
	TimeOnPage  time.Duration
	ScrollDepth float64
}

// Tracker accumulates engagement over one page lifetime.
// It is not safe for concurrent use; the owner serializes access.
type Tracker struct {
	mode        Mode
	timeOnPage  time.Duration
	scrollDepth float64
}

// NewTracker creates a tracker with zero dwell time and zero depth.
func NewTracker(mode Mode) *Tracker {
	return &Tracker{mode: mode}
}

// Advance adds d to the dwell time. Negative durations are ignored so dwell
// time never decreases.
func (t *Tracker) Advance(d time.Duration) {
	if d > 0 {
		t.timeOnPage += d
	}
}

// Observe recomputes scroll depth from vp and returns the tracked value.
// Pages without scrollable content leave the depth unchanged.
func (t *Tracker) Observe(vp signal.Viewport) float64 {
	depth, ok := Depth(vp)
	if !ok {
		return t.scrollDepth
	}
	if t.mode == ModeInstantaneous || depth > t.scrollDepth {
		t.scrollDepth = depth
	}
	return t.scrollDepth
}

// TimeOnPage returns the accumulated dwell time.
func (t *Tracker) TimeOnPage() time.Duration { return t.timeOnPage }

// ScrollDepth returns the tracked scroll depth ratio.
func (t *Tracker) ScrollDepth() float64 { return t.scrollDepth }

// Snapshot returns the current engagement values.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{TimeOnPage: t.timeOnPage, ScrollDepth: t.scrollDepth}
}

// Depth returns scrollTop / (documentHeight - viewportHeight) clamped to
// [0, 1]. ok is false when the page cannot scroll.
func Depth(vp signal.Viewport) (float64, bool) {
	scrollable := vp.ScrollableHeight()
	if scrollable <= 0 {
		return 0, false
	}

	depth := vp.ScrollTop / scrollable
	switch {
	case depth < 0:
		depth = 0
	case depth > 1:
		depth = 1
	}
	return depth, true
}
