// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package signal

import (
	"sort"
	"sync"
	"time"
)

// Scheduler runs a callback periodically. The returned function stops the
// schedule; after it returns no further callbacks are started.
type Scheduler interface {
	Every(period time.Duration, fn func()) (stop func())
}

// TickerScheduler is a Scheduler backed by time.Ticker.
type TickerScheduler struct{}

// Every implements Scheduler. Callbacks run on a dedicated goroutine.
func (TickerScheduler) Every(period time.Duration, fn func()) func() {
	ticker := time.NewTicker(period)
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		for {
			select {
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
			<-exited
		})
	}
}

type timer struct {
	id     int
	period time.Duration
	next   time.Duration
	fn     func()
}

// ManualScheduler is a virtual-time Scheduler. Time only moves when Advance
// is called, and due callbacks run synchronously on the caller's goroutine.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	nextID int
	timers map[int]*timer
}

// NewManualScheduler creates a scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{timers: make(map[int]*timer)}
}

// Every implements Scheduler.
func (m *ManualScheduler) Every(period time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.timers[id] = &timer{id: id, period: period, next: m.now + period, fn: fn}

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.timers, id)
	}
}

// Now returns the elapsed virtual time.
func (m *ManualScheduler) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of active schedules.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Advance moves virtual time forward by d, firing every callback that comes
// due in chronological order. Schedules with a non-positive period never fire.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		due := m.nextDue(target)
		if due == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = due.next
		due.next += due.period
		fn := due.fn
		m.mu.Unlock()

		fn()
	}
}

func (m *ManualScheduler) nextDue(target time.Duration) *timer {
	candidates := make([]*timer, 0, len(m.timers))
	for _, t := range m.timers {
		if t.period > 0 && t.next <= target {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].next == candidates[j].next {
			return candidates[i].id < candidates[j].id
		}
		return candidates[i].next < candidates[j].next
	})
	return candidates[0]
}
