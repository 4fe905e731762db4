// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package detector holds the exit-intent heuristics. Each Detector serves
// exactly one device class and decides, per signal, whether the visitor is
// about to leave.
package detector

import (
	"time"

	"github.com/AccelByte/extend-exit-intent/pkg/device"
	"github.com/AccelByte/extend-exit-intent/pkg/engagement"
	"github.com/AccelByte/extend-exit-intent/pkg/signal"
)

// Default threshold values.
const (
	DefaultMinTimeOnPage  = 10 * time.Second
	DefaultMinScrollDepth = 0.3
	DefaultTopThreshold   = 10
)

// Thresholds gate every detector. Values are used as given, without range
// checks.
type Thresholds struct {
	MinTimeOnPage  time.Duration
	MinScrollDepth float64
	TopThreshold   float64 // distance from the top edge, in logical pixels
}

// DefaultThresholds returns the default engagement gate.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinTimeOnPage:  DefaultMinTimeOnPage,
		MinScrollDepth: DefaultMinScrollDepth,
		TopThreshold:   DefaultTopThreshold,
	}
}

// Met reports whether the engagement snapshot satisfies both thresholds.
func (t Thresholds) Met(s engagement.Snapshot) bool {
	return s.TimeOnPage >= t.MinTimeOnPage && s.ScrollDepth >= t.MinScrollDepth
}

// Context is the state a detector evaluates a signal against.
type Context struct {
	Engagement engagement.Snapshot
	HasShown   bool
}

// Detector evaluates signals for one device class.
type Detector interface {
	// Name returns the trigger source name (e.g., "desktop", "mobile").
	Name() string

	// Class returns the device class this detector serves.
	Class() device.Class

	// SignalTypes returns which signal types this detector handles.
	SignalTypes() []string

	// Arm prepares the detector to evaluate signals, starting from the
	// current geometry.
	Arm(vp signal.Viewport)

	// Evaluate returns true when sig indicates exit intent under ctx.
	Evaluate(sig signal.Signal, ctx Context) bool
}

// Handles reports whether d handles the given signal type.
func Handles(d Detector, signalType string) bool {
	for _, t := range d.SignalTypes() {
		if t == signalType {
			return true
		}
	}
	return false
}

// Set holds one detector per device class.
type Set struct {
	byClass map[device.Class]Detector
}

// NewSet creates the desktop and mobile detectors for the given thresholds.
func NewSet(th Thresholds) *Set {
	return &Set{
		byClass: map[device.Class]Detector{
			device.Desktop: NewDesktopDetector(th),
			device.Mobile:  NewMobileDetector(th),
		},
	}
}

// For returns the detector serving class.
func (s *Set) For(class device.Class) Detector {
	return s.byClass[class]
}
