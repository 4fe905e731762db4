// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package exitintent

// Trigger sources reported to an Observer.
const (
	SourceDesktop = "desktop"
	SourceMobile  = "mobile"
	SourceManual  = "manual"
)

// Store operations reported to an Observer.
const (
	OpLoad   = "load"
	OpCommit = "commit"
)

// Observer receives controller events. OnTrigger and OnStateChange are called
// while the controller is locked, so implementations must not call back into
// the controller. OnStoreError for a commit may arrive after the lock is
// released, concurrently with other events.
type Observer interface {
	// OnTrigger is called once, when the offer is first shown.
	OnTrigger(source string)

	// OnStoreError is called when the session store fails. The controller
	// has already recovered.
	OnStoreError(op string, err error)

	// OnStateChange is called on every state transition.
	OnStateChange(from, to State)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnTrigger(string)           {}
func (NopObserver) OnStoreError(string, error) {}
func (NopObserver) OnStateChange(State, State) {}
