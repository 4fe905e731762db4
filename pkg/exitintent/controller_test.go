// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package exitintent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AccelByte/extend-exit-intent/pkg/detector"
	"github.com/AccelByte/extend-exit-intent/pkg/device"
	"github.com/AccelByte/extend-exit-intent/pkg/engagement"
	"github.com/AccelByte/extend-exit-intent/pkg/session"
	"github.com/AccelByte/extend-exit-intent/pkg/signal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.uber.org/goleak"
)

var (
	desktopViewport = signal.Viewport{Width: 1280, Height: 800, DocumentHeight: 1800}
	// 625px of scrollable height: offset 250 is still at depth 0.4.
	shortViewport   = signal.Viewport{Width: 1280, Height: 800, DocumentHeight: 1425}
	mobileViewport  = signal.Viewport{Width: 390, Height: 800, DocumentHeight: 1425, CoarsePointer: true}
)

type recordingObserver struct {
	mu          sync.Mutex
	triggers    []string
	storeErrors []string
	transitions [][2]State
}

func (r *recordingObserver) OnTrigger(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, source)
}

func (r *recordingObserver) OnStoreError(op string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storeErrors = append(r.storeErrors, op)
}

func (r *recordingObserver) OnStateChange(from, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, [2]State{from, to})
}

func (r *recordingObserver) triggerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.triggers)
}

type harness struct {
	bus      *signal.Bus
	sched    *signal.ManualScheduler
	store    session.Store
	observer *recordingObserver
	ctrl     *Controller
}

func newHarness(t *testing.T, vp signal.Viewport, store session.Store, opts ...Option) *harness {
	t.Helper()

	logger, _ := test.NewNullLogger()
	h := &harness{
		bus:      signal.NewBus(vp),
		sched:    signal.NewManualScheduler(),
		store:    store,
		observer: &recordingObserver{},
	}
	opts = append([]Option{
		WithScheduler(h.sched),
		WithObserver(h.observer),
		WithLogger(logger),
	}, opts...)
	h.ctrl = New(h.bus, store, opts...)
	h.ctrl.Start(context.Background())
	t.Cleanup(h.ctrl.Stop)
	return h
}

func (h *harness) storedFlag(t *testing.T) string {
	t.Helper()
	raw, _, _ := h.store.Get(context.Background(), session.DefaultFlagKey)
	return raw
}

func TestController_DesktopTimeThresholdNotMet(t *testing.T) {
	h := newHarness(t, desktopViewport, session.NewMemoryStore())

	h.bus.Scroll(500) // depth 0.5
	h.sched.Advance(9*time.Second + 999*time.Millisecond)
	h.bus.PointerLeave(2)

	if h.ctrl.Visible() {
		t.Error("Expected offer to stay hidden before the dwell threshold")
	}
	if h.ctrl.HasShown() {
		t.Error("Expected flag to stay false")
	}
	if h.ctrl.TimeOnPage() != 9*time.Second {
		t.Errorf("Expected 9s dwell time at 1s granularity, got %v", h.ctrl.TimeOnPage())
	}
}

func TestController_DesktopFiresOnce(t *testing.T) {
	h := newHarness(t, desktopViewport, session.NewMemoryStore())

	h.bus.Scroll(300) // depth 0.3
	h.sched.Advance(10 * time.Second)

	if h.ctrl.State() != StateArmed {
		t.Fatalf("Expected armed state, got %v", h.ctrl.State())
	}

	h.bus.PointerLeave(5)

	if !h.ctrl.Visible() || !h.ctrl.HasShown() {
		t.Fatalf("Expected visible and shown, got visible=%v shown=%v", h.ctrl.Visible(), h.ctrl.HasShown())
	}
	if h.storedFlag(t) != "true" {
		t.Errorf("Expected persisted flag \"true\", got %q", h.storedFlag(t))
	}

	before := h.ctrl.Snapshot()
	h.bus.PointerLeave(1)
	after := h.ctrl.Snapshot()

	if before != after {
		t.Errorf("Expected second pointer-leave to change nothing, got %+v -> %+v", before, after)
	}
	if h.observer.triggerCount() != 1 {
		t.Errorf("Expected exactly 1 trigger, got %d", h.observer.triggerCount())
	}
	if h.observer.triggers[0] != SourceDesktop {
		t.Errorf("Expected desktop trigger, got %s", h.observer.triggers[0])
	}
}

func TestController_DesktopIgnoresLeaveBelowTopThreshold(t *testing.T) {
	h := newHarness(t, desktopViewport, session.NewMemoryStore(), WithTopThreshold(10))

	h.bus.Scroll(600)
	h.sched.Advance(time.Minute)
	h.bus.PointerLeave(400)

	if h.ctrl.Visible() {
		t.Error("Expected side exit not to fire")
	}
	if !h.ctrl.Eligible() {
		t.Error("Expected controller to remain eligible")
	}
}

func TestController_MobileRapidScrollToTop(t *testing.T) {
	h := newHarness(t, mobileViewport, session.NewMemoryStore())

	if !h.ctrl.IsMobile() {
		t.Fatal("Expected mobile classification")
	}

	h.bus.Scroll(1000)
	h.bus.Scroll(400)
	h.sched.Advance(12 * time.Second)

	if h.ctrl.ScrollDepth() < 0.4 {
		t.Fatalf("Expected depth >= 0.4, got %v", h.ctrl.ScrollDepth())
	}

	h.bus.Scroll(340) // delta 60, still outside the top band
	if h.ctrl.Visible() {
		t.Fatal("Expected 400->340 not to fire")
	}

	h.bus.Scroll(250) // delta 90, near the top
	if !h.ctrl.Visible() || !h.ctrl.HasShown() {
		t.Fatal("Expected 340->250 to fire")
	}
	if h.observer.triggers[0] != SourceMobile {
		t.Errorf("Expected mobile trigger, got %s", h.observer.triggers[0])
	}

	h.bus.Scroll(900)
	h.bus.Scroll(0)
	if h.observer.triggerCount() != 1 {
		t.Errorf("Expected exactly 1 trigger, got %d", h.observer.triggerCount())
	}
}

func TestController_ScrollDepthFollowsLatestOffset(t *testing.T) {
	h := newHarness(t, signal.Viewport{Width: 1280, Height: 800, DocumentHeight: 3000}, session.NewMemoryStore())

	h.bus.Scroll(1100) // depth 0.5
	h.bus.Scroll(110)  // back up to depth 0.05
	h.sched.Advance(11 * time.Second)

	if got := h.ctrl.ScrollDepth(); got != 0.05 {
		t.Fatalf("Expected depth 0.05 after scrolling up, got %v", got)
	}
	if h.ctrl.Eligible() {
		t.Fatal("Expected no eligibility once the visitor scrolled back up")
	}

	h.bus.PointerLeave(2)
	if h.ctrl.Visible() || h.ctrl.HasShown() {
		t.Error("Expected no trigger with depth below threshold")
	}
	if h.observer.triggerCount() != 0 {
		t.Errorf("Expected no triggers, got %d", h.observer.triggerCount())
	}
}

func TestController_MaximumDepthMode(t *testing.T) {
	h := newHarness(t, signal.Viewport{Width: 1280, Height: 800, DocumentHeight: 3000}, session.NewMemoryStore(),
		WithScrollDepthMode(engagement.ModeMaximum))

	h.bus.Scroll(1100)
	h.bus.Scroll(110)
	h.sched.Advance(11 * time.Second)

	if got := h.ctrl.ScrollDepth(); got != 0.5 {
		t.Fatalf("Expected deepest depth 0.5 to be kept, got %v", got)
	}
	h.bus.PointerLeave(2)
	if !h.ctrl.Visible() {
		t.Error("Expected trigger with the deepest depth counted")
	}
}

func TestController_ManualOpen(t *testing.T) {
	h := newHarness(t, desktopViewport, session.NewMemoryStore())

	if h.ctrl.Eligible() {
		t.Fatal("Expected no eligibility without engagement")
	}

	h.ctrl.Open()
	if !h.ctrl.Visible() || !h.ctrl.HasShown() {
		t.Fatal("Expected manual open to show and commit")
	}

	before := h.ctrl.Snapshot()
	h.ctrl.Open()
	if h.ctrl.Snapshot() != before {
		t.Error("Expected second open to be a no-op")
	}
	if h.observer.triggerCount() != 1 || h.observer.triggers[0] != SourceManual {
		t.Errorf("Expected a single manual trigger, got %v", h.observer.triggers)
	}
}

func TestController_CloseAfterFireIsTerminal(t *testing.T) {
	h := newHarness(t, desktopViewport, session.NewMemoryStore())

	h.bus.Scroll(800)
	h.sched.Advance(15 * time.Second)
	h.bus.PointerLeave(0)
	h.ctrl.Close()

	if h.ctrl.Visible() {
		t.Error("Expected close to hide the offer")
	}
	if !h.ctrl.HasShown() {
		t.Error("Expected close to keep the session flag")
	}
	if h.ctrl.State() != StateDismissed {
		t.Errorf("Expected dismissed state, got %v", h.ctrl.State())
	}

	h.bus.PointerLeave(0)
	h.ctrl.Open()
	h.sched.Advance(time.Minute)

	if h.ctrl.Visible() {
		t.Error("Expected no further fire after dismissal")
	}
	if h.ctrl.State() != StateDismissed {
		t.Errorf("Expected dismissed state to be terminal, got %v", h.ctrl.State())
	}
	if h.observer.triggerCount() != 1 {
		t.Errorf("Expected exactly 1 trigger, got %d", h.observer.triggerCount())
	}
}

func TestController_CloseBeforeFireAllowsOpen(t *testing.T) {
	h := newHarness(t, desktopViewport, session.NewMemoryStore())

	h.ctrl.Close()
	if h.ctrl.HasShown() {
		t.Fatal("Expected close not to set the flag")
	}

	h.ctrl.Open()
	if !h.ctrl.Visible() {
		t.Error("Expected open after an early close to show the offer")
	}
}

func TestController_StateTransitions(t *testing.T) {
	h := newHarness(t, desktopViewport, session.NewMemoryStore())

	if h.ctrl.State() != StateIdle {
		t.Fatalf("Expected idle, got %v", h.ctrl.State())
	}
	h.bus.Scroll(500)
	h.sched.Advance(10 * time.Second)
	h.bus.PointerLeave(3)
	h.ctrl.Close()

	expected := [][2]State{
		{StateIdle, StateArmed},
		{StateArmed, StateShown},
		{StateShown, StateDismissed},
	}
	if len(h.observer.transitions) != len(expected) {
		t.Fatalf("Expected transitions %v, got %v", expected, h.observer.transitions)
	}
	for i := range expected {
		if h.observer.transitions[i] != expected[i] {
			t.Errorf("Transition %d: expected %v, got %v", i, expected[i], h.observer.transitions[i])
		}
	}
}

func TestController_EligibleFormula(t *testing.T) {
	tests := []struct {
		name       string
		thresholds detector.Thresholds
		scrollTo   float64
		wait       time.Duration
		open       bool
		expect     bool
	}{
		{name: "defaults met", thresholds: detector.DefaultThresholds(), scrollTo: 300, wait: 10 * time.Second, expect: true},
		{name: "time short", thresholds: detector.DefaultThresholds(), scrollTo: 300, wait: 9 * time.Second, expect: false},
		{name: "depth short", thresholds: detector.DefaultThresholds(), scrollTo: 290, wait: time.Minute, expect: false},
		{name: "already shown", thresholds: detector.DefaultThresholds(), scrollTo: 1000, wait: time.Minute, open: true, expect: false},
		{name: "zero thresholds", thresholds: detector.Thresholds{}, expect: true},
		{name: "unreachable depth", thresholds: detector.Thresholds{MinScrollDepth: 1.5}, scrollTo: 1000, wait: time.Minute, expect: false},
		{name: "negative time", thresholds: detector.Thresholds{MinTimeOnPage: -time.Second}, expect: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, desktopViewport, session.NewMemoryStore(), WithThresholds(tt.thresholds))
			if tt.scrollTo > 0 {
				h.bus.Scroll(tt.scrollTo)
			}
			h.sched.Advance(tt.wait)
			if tt.open {
				h.ctrl.Open()
			}

			if got := h.ctrl.Eligible(); got != tt.expect {
				t.Errorf("Expected eligible=%v, got %v", tt.expect, got)
			}
			snap := h.ctrl.Snapshot()
			formula := tt.thresholds.Met(snapEngagement(snap)) && !snap.HasShown
			if snap.Eligible != formula {
				t.Errorf("Expected eligible to equal the threshold formula (%v), got %v", formula, snap.Eligible)
			}
		})
	}
}

func TestController_ExactlyOneDetectorArmed(t *testing.T) {
	h := newHarness(t, shortViewport, session.NewMemoryStore())

	if name, ok := h.ctrl.ArmedDetector(); !ok || name != detector.DesktopDetectorName {
		t.Fatalf("Expected desktop detector armed, got (%s, %v)", name, ok)
	}

	h.bus.Scroll(1000)
	h.sched.Advance(time.Minute)

	// A rapid scroll to top on desktop is not an exit signal.
	h.bus.Scroll(100)
	if h.ctrl.Visible() {
		t.Fatal("Expected mobile gesture to be ignored on desktop")
	}

	// Window narrowed across the breakpoint.
	h.bus.Resize(600, 800)
	if name, ok := h.ctrl.ArmedDetector(); !ok || name != detector.MobileDetectorName {
		t.Fatalf("Expected mobile detector armed, got (%s, %v)", name, ok)
	}
	h.bus.PointerLeave(0)
	if h.ctrl.Visible() {
		t.Fatal("Expected pointer-leave to be ignored on mobile")
	}

	h.bus.Scroll(600)
	h.bus.Scroll(250)
	if !h.ctrl.Visible() {
		t.Fatal("Expected mobile detector to fire after the switch")
	}
	if _, ok := h.ctrl.ArmedDetector(); ok {
		t.Error("Expected no armed detector once shown")
	}
}

func TestController_DeviceSwitchRestartsMobileOffset(t *testing.T) {
	h := newHarness(t, shortViewport, session.NewMemoryStore())

	h.bus.Scroll(1000)
	h.sched.Advance(time.Minute)
	h.bus.Scroll(280)

	// Switching at 280 means the next delta is measured from 280, not 1000.
	h.bus.Resize(500, 800)
	h.bus.Scroll(250)

	if h.ctrl.Visible() {
		t.Error("Expected small delta after the switch not to fire")
	}
	if h.ctrl.DeviceClass() != device.Mobile {
		t.Errorf("Expected mobile class, got %v", h.ctrl.DeviceClass())
	}
}

func TestController_FlagFromEarlierPageLoad(t *testing.T) {
	store := session.NewMemoryStore()
	_ = store.Set(context.Background(), session.DefaultFlagKey, "true")
	h := newHarness(t, desktopViewport, store)

	h.bus.Scroll(900)
	h.sched.Advance(time.Minute)
	h.bus.PointerLeave(0)
	h.ctrl.Open()

	if h.ctrl.Visible() {
		t.Error("Expected offer not to show again in the same session")
	}
	if h.ctrl.Eligible() {
		t.Error("Expected controller not to be eligible")
	}
	if h.observer.triggerCount() != 0 {
		t.Errorf("Expected no triggers, got %d", h.observer.triggerCount())
	}
}

func TestController_StoreUnavailable(t *testing.T) {
	h := newHarness(t, desktopViewport, session.UnavailableStore{})

	h.bus.Scroll(500)
	h.sched.Advance(10 * time.Second)
	h.bus.PointerLeave(0)
	h.bus.PointerLeave(0)

	if !h.ctrl.Visible() {
		t.Fatal("Expected offer to show without a store")
	}
	if h.observer.triggerCount() != 1 {
		t.Errorf("Expected exactly 1 trigger, got %d", h.observer.triggerCount())
	}
	expected := []string{OpLoad, OpCommit}
	if len(h.observer.storeErrors) != 2 || h.observer.storeErrors[0] != expected[0] || h.observer.storeErrors[1] != expected[1] {
		t.Errorf("Expected store errors %v, got %v", expected, h.observer.storeErrors)
	}
}

// blockingStore holds every Set until release is closed.
type blockingStore struct {
	*session.MemoryStore
	setStarted chan struct{}
	release    chan struct{}
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		MemoryStore: session.NewMemoryStore(),
		setStarted:  make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
}

func (b *blockingStore) Set(ctx context.Context, key, value string) error {
	b.setStarted <- struct{}{}
	<-b.release
	return b.MemoryStore.Set(ctx, key, value)
}

func TestController_SlowCommitDoesNotBlockSignals(t *testing.T) {
	store := newBlockingStore()
	h := newHarness(t, desktopViewport, store, WithCommitTimeout(time.Minute))

	opened := make(chan struct{})
	go func() {
		defer close(opened)
		h.ctrl.Open()
	}()
	<-store.setStarted

	// The write is still in flight; other signals must be handled meanwhile.
	h.bus.Scroll(400)
	h.sched.Advance(2 * time.Second)
	if h.ctrl.TimeOnPage() != 2*time.Second || h.ctrl.ScrollDepth() != 0.4 {
		t.Errorf("Expected tracking during commit, got time=%v depth=%v", h.ctrl.TimeOnPage(), h.ctrl.ScrollDepth())
	}
	if !h.ctrl.Visible() || !h.ctrl.HasShown() {
		t.Error("Expected offer shown before the store write completes")
	}
	h.ctrl.Open()
	h.bus.PointerLeave(0)

	close(store.release)
	<-opened

	if h.observer.triggerCount() != 1 {
		t.Errorf("Expected exactly 1 trigger, got %d", h.observer.triggerCount())
	}
	if raw := h.storedFlag(t); raw != "true" {
		t.Errorf("Expected stored flag %q, got %q", "true", raw)
	}
}

func TestController_NoTrackingBeforeStart(t *testing.T) {
	bus := signal.NewBus(desktopViewport)
	sched := signal.NewManualScheduler()
	logger, _ := test.NewNullLogger()
	ctrl := New(bus, session.NewMemoryStore(), WithScheduler(sched), WithLogger(logger))

	bus.Scroll(900)
	sched.Advance(time.Minute)

	if ctrl.ScrollDepth() != 0 || ctrl.TimeOnPage() != 0 {
		t.Errorf("Expected no tracking before start, got depth=%v time=%v", ctrl.ScrollDepth(), ctrl.TimeOnPage())
	}
	if _, ok := ctrl.ArmedDetector(); ok {
		t.Error("Expected no armed detector before start")
	}
	if bus.Count() != 0 || sched.Pending() != 0 {
		t.Errorf("Expected no subscriptions before start, got %d/%d", bus.Count(), sched.Pending())
	}
}

func TestController_EagerDepthAtStart(t *testing.T) {
	vp := desktopViewport
	vp.ScrollTop = 700 // loaded via an anchor link
	h := newHarness(t, vp, session.NewMemoryStore())

	if h.ctrl.ScrollDepth() != 0.7 {
		t.Errorf("Expected initial depth 0.7, got %v", h.ctrl.ScrollDepth())
	}
}

func TestController_OpenBeforeStartSurvivesLoad(t *testing.T) {
	store := session.NewMemoryStore()
	logger, _ := test.NewNullLogger()
	ctrl := New(signal.NewBus(desktopViewport), store, WithScheduler(signal.NewManualScheduler()), WithLogger(logger))

	ctrl.Open()
	ctrl.Start(context.Background())
	defer ctrl.Stop()

	if !ctrl.HasShown() || !ctrl.Visible() {
		t.Error("Expected early open to survive the flag load")
	}
	if ctrl.State() != StateShown {
		t.Errorf("Expected shown state, got %v", ctrl.State())
	}
}

func TestController_StopTearsDown(t *testing.T) {
	h := newHarness(t, desktopViewport, session.NewMemoryStore())

	h.ctrl.Stop()
	h.ctrl.Stop()

	if h.bus.Count() != 0 {
		t.Errorf("Expected no bus subscriptions, got %d", h.bus.Count())
	}
	if h.sched.Pending() != 0 {
		t.Errorf("Expected no schedules, got %d", h.sched.Pending())
	}

	h.bus.Scroll(900)
	h.sched.Advance(time.Minute)
	if h.ctrl.TimeOnPage() != 0 || h.ctrl.ScrollDepth() != 0 {
		t.Error("Expected signals after stop to be ignored")
	}
}

func TestController_AtMostOnceUnderConcurrentSignals(t *testing.T) {
	h := newHarness(t, desktopViewport, session.NewMemoryStore())
	h.bus.Scroll(500)
	h.sched.Advance(10 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.bus.PointerLeave(0)
				h.ctrl.Open()
			}
		}()
	}
	wg.Wait()

	if h.observer.triggerCount() != 1 {
		t.Errorf("Expected exactly 1 trigger, got %d", h.observer.triggerCount())
	}
}

func TestController_RealTickerTeardown(t *testing.T) {
	defer goleak.VerifyNone(t)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	ctrl := New(signal.NewBus(desktopViewport), session.NewMemoryStore(), WithLogger(logger))
	ctrl.Start(context.Background())
	ctrl.Stop()
}

func snapEngagement(s Snapshot) engagement.Snapshot {
	return engagement.Snapshot{TimeOnPage: s.TimeOnPage, ScrollDepth: s.ScrollDepth}
}
