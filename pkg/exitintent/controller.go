// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package exitintent is the composition root of the exit-intent engine and
// its only public surface for presentation code.
package exitintent

import (
	"context"
	"sync"
	"time"

	"github.com/AccelByte/extend-exit-intent/pkg/detector"
	"github.com/AccelByte/extend-exit-intent/pkg/device"
	"github.com/AccelByte/extend-exit-intent/pkg/engagement"
	"github.com/AccelByte/extend-exit-intent/pkg/session"
	"github.com/AccelByte/extend-exit-intent/pkg/signal"
	"github.com/sirupsen/logrus"
)

// Snapshot is the state exposed to the presentation layer.
type Snapshot struct {
	Visible     bool
	Eligible    bool
	HasShown    bool
	Device      device.Class
	TimeOnPage  time.Duration
	ScrollDepth float64
	State       State
}

// IsMobile reports whether the snapshot was taken on a mobile-class device.
func (s Snapshot) IsMobile() bool { return s.Device == device.Mobile }

// Controller decides when to show the exit-intent offer. It fuses dwell
// time, scroll depth and device class with the detector for the current
// class, and shows the offer at most once per session.
//
// Every signal handler runs under a single lock, so the one-shot guard is
// checked and set atomically with respect to all other signals. The session
// store write happens after that lock is released.
type Controller struct {
	source        signal.Source
	scheduler     signal.Scheduler
	observer      Observer
	logger        logrus.FieldLogger
	thresholds    detector.Thresholds
	flagKey       string
	depthMode     engagement.Mode
	breakpoint    float64
	commitTimeout time.Duration

	mu         sync.Mutex
	ctx        context.Context
	flag       *session.Flag
	tracker    *engagement.Tracker
	classifier *device.Classifier
	detectors  *detector.Set
	visible    bool
	state      State
	started    bool
	stopped    bool
	stops      []func()

	// pendingCommit is set by fire and consumed by unlock.
	pendingCommit bool
}

// New creates a controller reading browser signals from source and
// persisting the one-shot flag in store. A nil store behaves as an
// unavailable one. The controller does nothing until Start is called.
func New(source signal.Source, store session.Store, opts ...Option) *Controller {
	c := &Controller{
		source:        source,
		scheduler:     signal.TickerScheduler{},
		observer:      NopObserver{},
		logger:        logrus.StandardLogger(),
		thresholds:    detector.DefaultThresholds(),
		flagKey:       session.DefaultFlagKey,
		breakpoint:    device.Breakpoint,
		commitTimeout: DefaultCommitTimeout,
		ctx:           context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.WithField("component", "exit_intent")
	c.flag = session.NewFlag(store, c.flagKey, c.logger)
	c.tracker = engagement.NewTracker(c.depthMode)
	c.classifier = device.NewClassifier(c.breakpoint)
	c.detectors = detector.NewSet(c.thresholds)
	return c
}

// Start loads the session flag, then begins tracking. Loading may block on
// the session store; ctx bounds it and later flag writes. Start is a no-op
// after the first call.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.ctx = ctx
	c.mu.Unlock()

	_, loadErr := c.flag.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if loadErr != nil {
		c.observer.OnStoreError(OpLoad, loadErr)
	}
	if c.stopped {
		return
	}

	vp := c.source.Viewport()
	class, _ := c.classifier.Observe(vp)
	c.tracker.Observe(vp)
	c.detectors.For(class).Arm(vp)

	c.stops = append(c.stops,
		c.source.Subscribe(signal.TypeResize, c.handleResize),
		c.source.Subscribe(signal.TypeScroll, c.handleScroll),
		c.source.Subscribe(signal.TypePointerLeave, c.handlePointerLeave),
		c.scheduler.Every(engagement.TickPeriod, c.handleTick),
	)

	c.logger.WithFields(logrus.Fields{
		"device":           class.String(),
		"has_shown":        c.flag.Value(),
		"min_time_on_page": c.thresholds.MinTimeOnPage,
		"min_scroll_depth": c.thresholds.MinScrollDepth,
		"top_threshold":    c.thresholds.TopThreshold,
	}).Debug("exit intent tracking started")

	c.updateState()
}

// Stop removes every subscription. Signals delivered afterwards are ignored.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	stops := c.stops
	c.stops = nil
	c.mu.Unlock()

	// Outside the lock: a ticker callback may be waiting for it.
	for _, stop := range stops {
		stop()
	}
	c.logger.Debug("exit intent tracking stopped")
}

// Open shows the offer regardless of engagement. It is a no-op once the
// offer has been shown this session.
func (c *Controller) Open() {
	c.mu.Lock()
	defer c.unlock()

	if c.flag.Value() {
		return
	}
	c.fire(SourceManual)
}

// Close hides the offer. The session flag is left untouched.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.visible = false
	c.updateState()
}

// Visible reports whether the offer should currently render.
func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Eligible reports whether thresholds are met and the offer has not been
// shown this session.
func (c *Controller) Eligible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eligible()
}

// HasShown reports whether the offer has been shown this session.
func (c *Controller) HasShown() bool {
	return c.flag.Value()
}

// IsMobile reports whether the current device class is Mobile.
func (c *Controller) IsMobile() bool {
	return c.DeviceClass() == device.Mobile
}

// DeviceClass returns the current device class.
func (c *Controller) DeviceClass() device.Class {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classifier.Class()
}

// TimeOnPage returns the tracked dwell time.
func (c *Controller) TimeOnPage() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.TimeOnPage()
}

// ScrollDepth returns the tracked scroll depth ratio.
func (c *Controller) ScrollDepth() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.ScrollDepth()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ArmedDetector returns the name of the detector currently listening for
// exit intent. ok is false when tracking is not running or the offer has
// already been shown.
func (c *Controller) ArmedDetector() (name string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running() || c.flag.Value() {
		return "", false
	}
	return c.detectors.For(c.classifier.Class()).Name(), true
}

// Snapshot returns every exposed value at once.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	eng := c.tracker.Snapshot()
	return Snapshot{
		Visible:     c.visible,
		Eligible:    c.eligible(),
		HasShown:    c.flag.Value(),
		Device:      c.classifier.Class(),
		TimeOnPage:  eng.TimeOnPage,
		ScrollDepth: eng.ScrollDepth,
		State:       c.state,
	}
}

func (c *Controller) handleResize(sig signal.Signal) {
	resize, ok := sig.(signal.ResizeSignal)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running() {
		return
	}

	prev := c.classifier.Class()
	class, changed := c.classifier.Observe(resize.Viewport)
	if changed {
		c.detectors.For(class).Arm(resize.Viewport)
		c.logger.WithFields(logrus.Fields{
			"from": prev.String(),
			"to":   class.String(),
		}).Debug("device class changed")
	}
}

// handleScroll updates scroll depth before the mobile detector sees the
// event, so a scroll can satisfy MinScrollDepth and fire in the same step.
func (c *Controller) handleScroll(sig signal.Signal) {
	scroll, ok := sig.(signal.ScrollSignal)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.unlock()
	if !c.running() {
		return
	}

	c.tracker.Observe(scroll.Viewport)
	c.dispatch(sig)
	c.updateState()
}

func (c *Controller) handlePointerLeave(sig signal.Signal) {
	c.mu.Lock()
	defer c.unlock()
	if !c.running() {
		return
	}

	c.dispatch(sig)
}

func (c *Controller) handleTick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running() {
		return
	}

	c.tracker.Advance(engagement.TickPeriod)
	c.updateState()
}

// dispatch hands sig to the detector of the current device class.
// Caller must hold c.mu.
func (c *Controller) dispatch(sig signal.Signal) {
	d := c.detectors.For(c.classifier.Class())
	if !detector.Handles(d, sig.Type()) {
		return
	}

	ctx := detector.Context{
		Engagement: c.tracker.Snapshot(),
		HasShown:   c.flag.Value(),
	}
	if d.Evaluate(sig, ctx) {
		c.fire(d.Name())
	}
}

// fire shows the offer and marks the session flag. The store write is left
// to unlock. Caller must hold c.mu and have checked the flag.
func (c *Controller) fire(source string) {
	c.visible = true
	c.flag.Mark()
	c.pendingCommit = true

	eng := c.tracker.Snapshot()
	c.logger.WithFields(logrus.Fields{
		"source":       source,
		"time_on_page": eng.TimeOnPage,
		"scroll_depth": eng.ScrollDepth,
	}).Info("exit intent triggered")

	c.observer.OnTrigger(source)
	c.updateState()
}

// unlock releases c.mu, then persists the flag if fire marked it while the
// lock was held. The write runs on the caller's goroutine, bounded by the
// commit timeout, and never holds up other signal handlers.
func (c *Controller) unlock() {
	pending := c.pendingCommit
	c.pendingCommit = false
	ctx := c.ctx
	c.mu.Unlock()

	if !pending {
		return
	}
	commitCtx, cancel := context.WithTimeout(ctx, c.commitTimeout)
	defer cancel()
	if err := c.flag.Commit(commitCtx); err != nil {
		c.observer.OnStoreError(OpCommit, err)
	}
}

func (c *Controller) eligible() bool {
	return c.thresholds.Met(c.tracker.Snapshot()) && !c.flag.Value()
}

func (c *Controller) running() bool {
	return c.started && !c.stopped
}

// updateState recomputes the lifecycle state. Caller must hold c.mu.
func (c *Controller) updateState() {
	next := deriveState(
		c.flag.Loaded(),
		c.flag.Value(),
		c.visible,
		c.thresholds.Met(c.tracker.Snapshot()),
	)
	if next == c.state {
		return
	}

	prev := c.state
	c.state = next
	c.logger.WithFields(logrus.Fields{
		"from": prev.String(),
		"to":   next.String(),
	}).Debug("exit intent state changed")
	c.observer.OnStateChange(prev, next)
}
