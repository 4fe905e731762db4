// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package detector

import (
	"github.com/AccelByte/extend-exit-intent/pkg/device"
	"github.com/AccelByte/extend-exit-intent/pkg/signal"
)

// DesktopDetectorName is the trigger source of the desktop heuristic.
const DesktopDetectorName = "desktop"

// DesktopDetector fires when the pointer leaves the viewport through the top
// edge, where the browser chrome (tabs, back button, address bar) lives.
type DesktopDetector struct {
	thresholds Thresholds
}

// NewDesktopDetector creates a pointer-leave detector.
func NewDesktopDetector(th Thresholds) *DesktopDetector {
	return &DesktopDetector{thresholds: th}
}

// Name implements Detector.
func (d *DesktopDetector) Name() string { return DesktopDetectorName }

// Class implements Detector.
func (d *DesktopDetector) Class() device.Class { return device.Desktop }

// SignalTypes implements Detector.
func (d *DesktopDetector) SignalTypes() []string {
	return []string{signal.TypePointerLeave}
}

// Arm implements Detector. The desktop heuristic is stateless.
func (d *DesktopDetector) Arm(signal.Viewport) {}

// Evaluate implements Detector.
func (d *DesktopDetector) Evaluate(sig signal.Signal, ctx Context) bool {
	leave, ok := sig.(signal.PointerLeaveSignal)
	if !ok || ctx.HasShown {
		return false
	}
	return leave.ClientY <= d.thresholds.TopThreshold && d.thresholds.Met(ctx.Engagement)
}
