// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package exitintent

import (
	"time"

	"github.com/AccelByte/extend-exit-intent/pkg/detector"
	"github.com/AccelByte/extend-exit-intent/pkg/engagement"
	"github.com/AccelByte/extend-exit-intent/pkg/signal"
	"github.com/sirupsen/logrus"
)

// DefaultCommitTimeout bounds a single session store write.
const DefaultCommitTimeout = 3 * time.Second

// Option configures a Controller during creation.
type Option func(*Controller)

// WithThresholds replaces the whole threshold configuration.
func WithThresholds(th detector.Thresholds) Option {
	return func(c *Controller) {
		c.thresholds = th
	}
}

// WithMinTimeOnPage sets the dwell time required before any detector fires.
func WithMinTimeOnPage(d time.Duration) Option {
	return func(c *Controller) {
		c.thresholds.MinTimeOnPage = d
	}
}

// WithMinScrollDepth sets the scroll depth ratio required before any
// detector fires.
func WithMinScrollDepth(depth float64) Option {
	return func(c *Controller) {
		c.thresholds.MinScrollDepth = depth
	}
}

// WithTopThreshold sets how close to the top edge the pointer must leave.
func WithTopThreshold(distance float64) Option {
	return func(c *Controller) {
		c.thresholds.TopThreshold = distance
	}
}

// WithScheduler sets the dwell-time clock. Defaults to a real ticker.
func WithScheduler(s signal.Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.scheduler = s
		}
	}
}

// WithObserver sets the event observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFlagKey sets the session store key of the one-shot flag.
func WithFlagKey(key string) Option {
	return func(c *Controller) {
		c.flagKey = key
	}
}

// WithScrollDepthMode selects how scroll depth is accumulated.
func WithScrollDepthMode(m engagement.Mode) Option {
	return func(c *Controller) {
		c.depthMode = m
	}
}

// WithBreakpoint sets the viewport width below which devices are mobile.
func WithBreakpoint(width float64) Option {
	return func(c *Controller) {
		c.breakpoint = width
	}
}

// WithCommitTimeout bounds session store writes. The write runs after the
// controller lock is released, so a slow store delays only the call that
// showed the offer.
func WithCommitTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.commitTimeout = d
		}
	}
}
