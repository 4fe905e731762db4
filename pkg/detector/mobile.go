// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package detector

import (
	"github.com/AccelByte/extend-exit-intent/pkg/device"
	"github.com/AccelByte/extend-exit-intent/pkg/signal"
)

const (
	// MobileDetectorName is the trigger source of the mobile heuristic.
	MobileDetectorName = "mobile"

	// MinUpwardDelta is the upward distance a single scroll notification must
	// cover to count as a rapid scroll.
	MinUpwardDelta = 50
	// TopProximity is how close to the top the new offset must be.
	TopProximity = 300
)

// MobileDetector fires on a rapid upward scroll that lands near the top of
// the page, a common gesture before leaving on touch devices.
//
// The delta is measured between consecutive notifications, not per unit of
// time, so sensitivity depends on how often the host reports scrolling.
type MobileDetector struct {
	thresholds Thresholds
	lastOffset float64
}

// NewMobileDetector creates a rapid-scroll-to-top detector.
func NewMobileDetector(th Thresholds) *MobileDetector {
	return &MobileDetector{thresholds: th}
}

// Name implements Detector.
func (d *MobileDetector) Name() string { return MobileDetectorName }

// Class implements Detector.
func (d *MobileDetector) Class() device.Class { return device.Mobile }

// SignalTypes implements Detector.
func (d *MobileDetector) SignalTypes() []string {
	return []string{signal.TypeScroll}
}

// Arm implements Detector. The previous offset restarts from vp.
func (d *MobileDetector) Arm(vp signal.Viewport) {
	d.lastOffset = vp.ScrollTop
}

// Evaluate implements Detector. Every scroll notification advances the
// previous offset, including ones that do not fire.
func (d *MobileDetector) Evaluate(sig signal.Signal, ctx Context) bool {
	scroll, ok := sig.(signal.ScrollSignal)
	if !ok {
		return false
	}

	current := scroll.Viewport.ScrollTop
	delta := d.lastOffset - current // positive when scrolling up
	d.lastOffset = current

	if ctx.HasShown {
		return false
	}
	return delta > MinUpwardDelta &&
		current < TopProximity &&
		d.thresholds.Met(ctx.Engagement)
}

// LastOffset returns the offset the next delta is measured from.
func (d *MobileDetector) LastOffset() float64 { return d.lastOffset }
