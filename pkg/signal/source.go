// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package signal

import "sync"

// Handler receives a signal. Handlers must not block.
type Handler func(sig Signal)

// Source abstracts the browser as an event source so the engine can run
// without a real window. Subscribe returns a function that removes the
// subscription; calling it more than once is a no-op.
type Source interface {
	Subscribe(signalType string, h Handler) (unsubscribe func())

	// Viewport returns the current page geometry.
	Viewport() Viewport
}

type subscription struct {
	id int
	h  Handler
}

// Bus is an in-process Source. Emit dispatches synchronously to every
// handler subscribed to the signal's type, in subscription order, and
// updates the current viewport for geometry-carrying signals.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string][]subscription
	viewport Viewport
}

// NewBus creates a bus with the given initial geometry.
func NewBus(initial Viewport) *Bus {
	return &Bus{
		handlers: make(map[string][]subscription),
		viewport: initial,
	}
}

// Subscribe implements Source.
func (b *Bus) Subscribe(signalType string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[signalType] = append(b.handlers[signalType], subscription{id: id, h: h})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(signalType, id) })
	}
}

func (b *Bus) remove(signalType string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[signalType]
	for i, s := range subs {
		if s.id == id {
			b.handlers[signalType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[signalType]) == 0 {
		delete(b.handlers, signalType)
	}
}

// Viewport implements Source.
func (b *Bus) Viewport() Viewport {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewport
}

// Emit delivers sig to its subscribers. Handlers run outside the bus lock so
// they may query Viewport or unsubscribe.
func (b *Bus) Emit(sig Signal) {
	b.mu.Lock()
	switch s := sig.(type) {
	case ResizeSignal:
		b.viewport = s.Viewport
	case ScrollSignal:
		b.viewport = s.Viewport
	}
	subs := make([]subscription, len(b.handlers[sig.Type()]))
	copy(subs, b.handlers[sig.Type()])
	b.mu.Unlock()

	for _, s := range subs {
		s.h(sig)
	}
}

// Count returns the number of live subscriptions across all signal types.
func (b *Bus) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, subs := range b.handlers {
		n += len(subs)
	}
	return n
}

// Scroll emits a scroll signal at the given offset, keeping the rest of the
// current geometry.
func (b *Bus) Scroll(offset float64) {
	vp := b.Viewport()
	vp.ScrollTop = offset
	b.Emit(ScrollSignal{Viewport: vp})
}

// Resize emits a resize signal with new viewport dimensions.
func (b *Bus) Resize(width, height float64) {
	vp := b.Viewport()
	vp.Width = width
	vp.Height = height
	b.Emit(ResizeSignal{Viewport: vp})
}

// PointerLeave emits a pointer-leave signal at the given vertical coordinate.
func (b *Bus) PointerLeave(clientY float64) {
	b.Emit(PointerLeaveSignal{ClientY: clientY})
}
