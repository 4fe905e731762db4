// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package signal

// Signal type identifiers.
const (
	TypeResize       = "resize"
	TypeScroll       = "scroll"
	TypePointerLeave = "pointer_leave"
)

// Signal represents a normalized browser notification.
// Signals are produced by a Source and consumed by the engagement tracker,
// the device classifier and the exit detectors.
type Signal interface {
	// Type returns the signal type identifier (e.g., "scroll", "resize").
	Type() string
}

// Viewport is a snapshot of the page geometry at the time a signal was emitted.
type Viewport struct {
	Width          float64 // logical pixels
	Height         float64 // logical pixels
	DocumentHeight float64 // total scrollable document height
	ScrollTop      float64 // current vertical scroll offset
	CoarsePointer  bool    // primary input is touch-like
}

// ScrollableHeight returns the distance the viewport can travel.
// Non-positive means the page has no scrollable content.
func (v Viewport) ScrollableHeight() float64 {
	return v.DocumentHeight - v.Height
}

// ResizeSignal is emitted when the viewport dimensions change.
type ResizeSignal struct {
	Viewport Viewport
}

// Type implements Signal.
func (ResizeSignal) Type() string { return TypeResize }

// ScrollSignal is emitted when the scroll position changes.
type ScrollSignal struct {
	Viewport Viewport
}

// Type implements Signal.
func (ScrollSignal) Type() string { return TypeScroll }

// PointerLeaveSignal is emitted when the pointer leaves the document.
type PointerLeaveSignal struct {
	// ClientY is the vertical pointer coordinate relative to the viewport.
	ClientY float64
}

// Type implements Signal.
func (PointerLeaveSignal) Type() string { return TypePointerLeave }
