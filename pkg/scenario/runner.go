// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package scenario

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-exit-intent/pkg/engagement"
	"github.com/AccelByte/extend-exit-intent/pkg/exitintent"
	"github.com/AccelByte/extend-exit-intent/pkg/session"
	"github.com/AccelByte/extend-exit-intent/pkg/signal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "exit-intent/scenario"

// Failure is an expectation that did not hold.
type Failure struct {
	Step     int // 1-based step index
	Field    string
	Expected string
	Got      string
}

func (f Failure) String() string {
	return fmt.Sprintf("step %d: expected %s=%s, got %s", f.Step, f.Field, f.Expected, f.Got)
}

// Result is the outcome of one replay.
type Result struct {
	Name     string
	Final    exitintent.Snapshot
	Failures []Failure
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// Runner replays scenarios.
type Runner struct {
	observer exitintent.Observer
	logger   logrus.FieldLogger
	tracer   trace.Tracer
	base     []exitintent.Option
}

// NewRunner creates a runner. observer may be nil. base options apply to
// every replay before the scenario's own options.
func NewRunner(observer exitintent.Observer, logger logrus.FieldLogger, base ...exitintent.Option) *Runner {
	if observer == nil {
		observer = exitintent.NopObserver{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{
		observer: observer,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		base:     base,
	}
}

// WithTracerProvider makes the runner create replay spans from tp instead of
// the global provider.
func (r *Runner) WithTracerProvider(tp trace.TracerProvider) *Runner {
	r.tracer = tp.Tracer(tracerName)
	return r
}

// Run replays sc against a fresh controller whose flag lives in store.
func (r *Runner) Run(ctx context.Context, sc *Scenario, store session.Store) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	ctx, span := r.tracer.Start(ctx, "scenario.replay", trace.WithAttributes(
		attribute.String("scenario.name", sc.Name),
		attribute.Int("scenario.steps", len(sc.Steps)),
	))
	defer span.End()

	logger := r.logger.WithField("scenario", sc.Name)
	bus := signal.NewBus(signal.Viewport{
		Width:          sc.Device.Width,
		Height:         sc.Device.Height,
		DocumentHeight: sc.Document.Height,
		ScrollTop:      sc.Device.ScrollTop,
		CoarsePointer:  sc.Device.CoarsePointer,
	})
	clock := signal.NewManualScheduler()

	opts := append([]exitintent.Option{}, r.base...)
	opts = append(opts, sc.Options.controllerOptions()...)
	opts = append(opts,
		exitintent.WithScheduler(clock),
		exitintent.WithObserver(r.observer),
		exitintent.WithLogger(logger),
	)

	ctrl := exitintent.New(bus, store, opts...)
	ctrl.Start(ctx)
	defer ctrl.Stop()

	result := &Result{Name: sc.Name}
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "interrupted")
			return nil, fmt.Errorf("scenario %s interrupted at step %d: %w", sc.Name, i+1, err)
		}

		switch step.Kind {
		case StepWait:
			clock.Advance(step.Wait)
		case StepScroll:
			bus.Scroll(step.Offset)
		case StepResize:
			bus.Resize(step.Size.Width, step.Size.Height)
		case StepPointerLeave:
			bus.PointerLeave(step.ClientY)
		case StepOpen:
			span.AddEvent("open")
			ctrl.Open()
		case StepClose:
			ctrl.Close()
		case StepExpect:
			result.Failures = append(result.Failures, check(i+1, step.Expect, ctrl.Snapshot())...)
		default:
			return nil, fmt.Errorf("%w: %q at step %d", ErrUnknownEvent, step.Kind, i+1)
		}
	}

	result.Final = ctrl.Snapshot()
	span.SetAttributes(
		attribute.Bool("exit_intent.has_shown", result.Final.HasShown),
		attribute.String("exit_intent.state", result.Final.State.String()),
		attribute.Int("scenario.failures", len(result.Failures)),
	)
	if !result.Passed() {
		span.SetStatus(codes.Error, fmt.Sprintf("%d expectation(s) failed", len(result.Failures)))
	}
	logger.WithFields(logrus.Fields{
		"visible":      result.Final.Visible,
		"has_shown":    result.Final.HasShown,
		"state":        result.Final.State.String(),
		"time_on_page": result.Final.TimeOnPage,
		"scroll_depth": result.Final.ScrollDepth,
		"failures":     len(result.Failures),
	}).Info("scenario replayed")

	return result, nil
}

func (o Options) controllerOptions() []exitintent.Option {
	var opts []exitintent.Option
	if o.MinTimeOnPage != nil {
		opts = append(opts, exitintent.WithMinTimeOnPage(*o.MinTimeOnPage))
	}
	if o.MinScrollDepth != nil {
		opts = append(opts, exitintent.WithMinScrollDepth(*o.MinScrollDepth))
	}
	if o.TopThreshold != nil {
		opts = append(opts, exitintent.WithTopThreshold(*o.TopThreshold))
	}
	if o.ScrollDepthMode != "" {
		opts = append(opts, exitintent.WithScrollDepthMode(engagement.ParseMode(o.ScrollDepthMode)))
	}
	return opts
}

func check(step int, e Expectation, snap exitintent.Snapshot) []Failure {
	var failures []Failure
	checkBool := func(field string, want *bool, got bool) {
		if want != nil && *want != got {
			failures = append(failures, Failure{
				Step:     step,
				Field:    field,
				Expected: fmt.Sprint(*want),
				Got:      fmt.Sprint(got),
			})
		}
	}

	checkBool("visible", e.Visible, snap.Visible)
	checkBool("eligible", e.Eligible, snap.Eligible)
	checkBool("has_shown", e.HasShown, snap.HasShown)
	checkBool("mobile", e.Mobile, snap.IsMobile())

	if e.State != "" && e.State != snap.State.String() {
		failures = append(failures, Failure{
			Step:     step,
			Field:    "state",
			Expected: e.State,
			Got:      snap.State.String(),
		})
	}
	return failures
}
