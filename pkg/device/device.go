// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package device

import "github.com/AccelByte/extend-exit-intent/pkg/signal"

// Breakpoint is the viewport width, in logical pixels, below which a device
// is treated as mobile.
const Breakpoint = 768

// Class is the input/viewport model of the current device.
type Class int

const (
	Desktop Class = iota
	Mobile
)

func (c Class) String() string {
	if c == Mobile {
		return "mobile"
	}
	return "desktop"
}

// Classify returns Mobile for a coarse pointer or a viewport narrower than
// breakpoint, Desktop otherwise.
func Classify(vp signal.Viewport, breakpoint float64) Class {
	if vp.CoarsePointer || vp.Width < breakpoint {
		return Mobile
	}
	return Desktop
}

// Classifier holds the current device class. Not safe for concurrent use.
type Classifier struct {
	breakpoint float64
	class      Class
}

// NewClassifier creates a classifier. A non-positive breakpoint selects
// Breakpoint.
func NewClassifier(breakpoint float64) *Classifier {
	if breakpoint <= 0 {
		breakpoint = Breakpoint
	}
	return &Classifier{breakpoint: breakpoint}
}

// Observe re-evaluates the class from vp and reports whether it changed.
func (c *Classifier) Observe(vp signal.Viewport) (Class, bool) {
	next := Classify(vp, c.breakpoint)
	changed := next != c.class
	c.class = next
	return next, changed
}

// Class returns the last evaluated class.
func (c *Classifier) Class() Class { return c.class }
