package device

import (
	"testing"

	"github.com/AccelByte/extend-exit-intent/pkg/signal"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		viewport signal.Viewport
		expect   Class
	}{
		{name: "wide fine pointer", viewport: signal.Viewport{Width: 1280}, expect: Desktop},
		{name: "exactly at breakpoint", viewport: signal.Viewport{Width: 768}, expect: Desktop},
		{name: "narrow viewport", viewport: signal.Viewport{Width: 767}, expect: Mobile},
		{name: "wide coarse pointer", viewport: signal.Viewport{Width: 1280, CoarsePointer: true}, expect: Mobile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.viewport, Breakpoint); got != tt.expect {
				t.Errorf("Expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestClassifier_Observe(t *testing.T) {
	c := NewClassifier(0)

	if class, changed := c.Observe(signal.Viewport{Width: 1024}); class != Desktop || changed {
		t.Errorf("Expected (desktop, unchanged), got (%v, %v)", class, changed)
	}

	// Tablet rotated to portrait across the breakpoint.
	if class, changed := c.Observe(signal.Viewport{Width: 600}); class != Mobile || !changed {
		t.Errorf("Expected (mobile, changed), got (%v, %v)", class, changed)
	}
	if c.Class() != Mobile {
		t.Errorf("Expected current class mobile, got %v", c.Class())
	}
}
