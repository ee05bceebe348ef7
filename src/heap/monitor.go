/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package heap

import "sync"

// Monitor is the mutex + condition variable + (thread-id, recursion
// count) triple of spec.md §3/§4.7. Same-thread monitorenter increments
// the recursion counter; monitorexit decrements it; the lock is released
// to other threads only when the counter reaches zero. notify/notify-all
// wake waiters independently of whether the lock is currently held by
// the waking thread (Go's sync.Cond already has this property, since
// Signal/Broadcast don't require the caller to hold the lock, though in
// practice callers do per the JVM's own IllegalMonitorStateException
// rule, enforced one layer up by the interpreter, not here).
type Monitor struct {
	mu   sync.Mutex
	cond *sync.Cond

	owner     uint64 // thread id; valid only while recursion > 0
	recursion int
}

func newMonitor() *Monitor {
	m := &Monitor{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Enter acquires the monitor for threadID, blocking if another thread
// holds it; re-entrant for the same thread.
func (m *Monitor) Enter(threadID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.recursion > 0 && m.owner != threadID {
		m.cond.Wait()
	}
	m.owner = threadID
	m.recursion++
}

// TryEnter attempts a non-blocking acquire, returning false if another
// thread currently holds the monitor.
func (m *Monitor) TryEnter(threadID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recursion > 0 && m.owner != threadID {
		return false
	}
	m.owner = threadID
	m.recursion++
	return true
}

// Exit releases one level of recursive ownership. Calling Exit when
// threadID does not hold the monitor is the caller's bug (surfaced by
// the interpreter as IllegalMonitorStateException before Exit is ever
// called); Exit itself just panics defensively.
func (m *Monitor) Exit(threadID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recursion == 0 || m.owner != threadID {
		panic("heap: monitorexit by a thread that does not hold the monitor")
	}
	m.recursion--
	if m.recursion == 0 {
		m.cond.Broadcast()
	}
}

// HeldBy reports whether threadID currently holds the monitor at least
// once.
func (m *Monitor) HeldBy(threadID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recursion > 0 && m.owner == threadID
}

// Wait releases the monitor fully (remembering the recursion depth),
// blocks until Notify/NotifyAll wakes this goroutine, then reacquires it
// at the same recursion depth -- Object.wait()'s contract.
func (m *Monitor) Wait(threadID uint64) {
	m.mu.Lock()
	if m.recursion == 0 || m.owner != threadID {
		m.mu.Unlock()
		panic("heap: wait by a thread that does not hold the monitor")
	}
	saved := m.recursion
	m.recursion = 0
	m.cond.Broadcast() // release: let a waiting acquirer proceed
	m.cond.Wait()
	for m.recursion > 0 {
		m.cond.Wait()
	}
	m.owner = threadID
	m.recursion = saved
	m.mu.Unlock()
}

// Notify wakes one waiter.
func (m *Monitor) Notify() {
	m.mu.Lock()
	m.cond.Signal()
	m.mu.Unlock()
}

// NotifyAll wakes every waiter.
func (m *Monitor) NotifyAll() {
	m.mu.Lock()
	m.cond.Broadcast()
	m.mu.Unlock()
}
