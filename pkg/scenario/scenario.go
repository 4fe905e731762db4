// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package scenario replays scripted browser sessions against an exit-intent
// controller, driving a synthetic signal bus and a virtual clock.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AccelByte/extend-exit-intent/pkg/exitintent"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidScenario indicates a scenario that cannot be replayed.
	ErrInvalidScenario = errors.New("invalid scenario")

	// ErrUnknownEvent indicates a step of an unsupported kind.
	ErrUnknownEvent = errors.New("unknown scenario step")
)

// StepKind identifies what a step does.
type StepKind string

const (
	StepWait         StepKind = "wait"
	StepScroll       StepKind = "scroll"
	StepResize       StepKind = "resize"
	StepPointerLeave StepKind = "pointer_leave"
	StepOpen         StepKind = "open"
	StepClose        StepKind = "close"
	StepExpect       StepKind = "expect"
)

// Scenario is one scripted page session.
type Scenario struct {
	Name     string   `yaml:"name"`
	Device   Device   `yaml:"device"`
	Document Document `yaml:"document"`
	Options  Options  `yaml:"options"`
	Steps    []Step   `yaml:"steps"`
}

// Device describes the initial viewport and input model.
type Device struct {
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	CoarsePointer bool    `yaml:"coarse_pointer"`
	ScrollTop     float64 `yaml:"scroll_top"`
}

// Document describes the page content.
type Document struct {
	// Height is the total document height. Zero means the page fits the
	// viewport and cannot scroll.
	Height float64 `yaml:"height"`
}

// Options overrides controller thresholds. Unset fields keep the defaults.
type Options struct {
	MinTimeOnPage   *time.Duration `yaml:"min_time_on_page"`
	MinScrollDepth  *float64       `yaml:"min_scroll_depth"`
	TopThreshold    *float64       `yaml:"top_threshold"`
	ScrollDepthMode string         `yaml:"scroll_depth_mode"`
}

// Size is a viewport size.
type Size struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Expectation asserts controller state. Unset fields are not checked.
type Expectation struct {
	Visible  *bool  `yaml:"visible"`
	Eligible *bool  `yaml:"eligible"`
	HasShown *bool  `yaml:"has_shown"`
	Mobile   *bool  `yaml:"mobile"`
	State    string `yaml:"state"`
}

// Step is one scripted action. In YAML a step is either a bare word
// ("open", "close") or a single-key mapping such as "scroll: 300".
type Step struct {
	Kind    StepKind
	Wait    time.Duration
	Offset  float64
	Size    Size
	ClientY float64
	Expect  Expectation
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch StepKind(node.Value) {
		case StepOpen, StepClose:
			s.Kind = StepKind(node.Value)
			return nil
		}
		return fmt.Errorf("%w: %q at line %d", ErrUnknownEvent, node.Value, node.Line)

	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("%w: step at line %d must have exactly one key", ErrInvalidScenario, node.Line)
		}
		key, value := node.Content[0], node.Content[1]
		s.Kind = StepKind(key.Value)

		var err error
		switch s.Kind {
		case StepWait:
			err = value.Decode(&s.Wait)
		case StepScroll:
			err = value.Decode(&s.Offset)
		case StepResize:
			err = value.Decode(&s.Size)
		case StepPointerLeave:
			err = value.Decode(&s.ClientY)
		case StepExpect:
			err = value.Decode(&s.Expect)
		case StepOpen, StepClose:
		default:
			return fmt.Errorf("%w: %q at line %d", ErrUnknownEvent, key.Value, key.Line)
		}
		if err != nil {
			return fmt.Errorf("failed to decode %s step at line %d: %w", s.Kind, key.Line, err)
		}
		return nil
	}

	return fmt.Errorf("%w: unexpected step at line %d", ErrInvalidScenario, node.Line)
}

// Load reads a scenario from a YAML file.
// Supports environment variable expansion in the form ${VAR_NAME} or ${VAR_NAME:default}.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}

	sc, err := Parse([]byte(expandEnvVars(string(data))))
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario %s: %w", path, err)
	}
	return sc, nil
}

// LoadDir reads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		sc, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// Parse decodes and validates a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario for errors that would make a replay
// meaningless. Thresholds are deliberately left unchecked.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if s.Device.Width <= 0 || s.Device.Height <= 0 {
		return fmt.Errorf("%w: device width and height must be positive", ErrInvalidScenario)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: scenario %s has no steps", ErrInvalidScenario, s.Name)
	}
	for i, step := range s.Steps {
		if step.Kind == StepWait && step.Wait < 0 {
			return fmt.Errorf("%w: step %d waits a negative duration", ErrInvalidScenario, i+1)
		}
		if step.Kind == StepResize && (step.Size.Width <= 0 || step.Size.Height <= 0) {
			return fmt.Errorf("%w: step %d resizes to a non-positive size", ErrInvalidScenario, i+1)
		}
		if step.Kind == StepExpect && step.Expect.State != "" {
			if _, ok := exitintent.ParseState(step.Expect.State); !ok {
				return fmt.Errorf("%w: step %d expects unknown state %q", ErrInvalidScenario, i+1, step.Expect.State)
			}
		}
	}
	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		value := os.Getenv(parts[0])
		if value == "" && len(parts) == 2 {
			return parts[1]
		}
		return value
	})
}
