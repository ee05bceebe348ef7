/*
 * jcvm - a JVM class-file interpreter
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package thread implements spec.md §4.11's ThreadRegistry: the
// thread-id -> ThreadInfo map, the per-thread call stack and sticky
// exception slot, and cooperative state requests (park/interrupt/throw)
// delivered at the interpreter's next dispatcher check-in.
package thread

import (
	"sync"

	"github.com/google/uuid"

	"jcvm/src/types"
)

// State is a thread's coarse run state, per spec.md §3.
type State int

const (
	Running State = iota
	Suspended
	Stopped
	Interrupted
)

// RequestKind tags a pending cooperative state request.
type RequestKind int

const (
	None RequestKind = iota
	Park
	Interrupt
	Throw
)

// Request is a pending state request; ThrowTarget is meaningful only
// when Kind == Throw.
type Request struct {
	Kind        RequestKind
	ThrowTarget types.ObjectHandle
}

// CallStackEntry records one active frame's owning class and method
// reference, for diagnostics and for the native bridge's re-entrancy
// bookkeeping.
type CallStackEntry struct {
	OwningClass string
	MethodName  string
	MethodDesc  string
}

// NormPriority is java.lang.Thread.NORM_PRIORITY, the default priority
// every newly registered thread starts at.
const NormPriority = 5

// Info is the per-thread record of spec.md §3's ThreadInfo, extended per
// jmeggitt/rust_jvm's thread internals (name, daemon flag, priority)
// beyond the bare state machine -- these round-trip through
// java.lang.Thread's native methods (getName/setPriority/setDaemon)
// rather than living only inside a loaded Thread instance's own slots,
// since bootstrap needs them before any class is necessarily loaded.
type Info struct {
	ID           uint64
	NativeID     string // opaque host thread identifier (uuid), exposed to native code
	ThreadObject types.ObjectHandle

	mu        sync.Mutex
	state     State
	request   Request
	callStack []CallStackEntry
	sticky    *StickyException
	name      string
	priority  int
	daemon    bool

	parkCond *sync.Cond
}

// StickyException is the exception stored when a native callback cannot
// unwind because its host C frames are still alive (spec §4.10.3/§7).
type StickyException struct {
	Handle types.ObjectHandle
}

// Registry is the process-wide thread-id -> Info map, guarded by a
// single writer lock per spec §5.
type Registry struct {
	mu      sync.RWMutex
	threads map[uint64]*Info
	nextID  uint64
}

func New() *Registry {
	return &Registry{threads: make(map[uint64]*Info), nextID: 1}
}

// Register implements spec's register(thread-object, native-id):
// first-time setup for a thread about to start executing bytecode.
func (r *Registry) Register(threadObject types.ObjectHandle) *Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	info := &Info{ID: id, NativeID: uuid.NewString(), ThreadObject: threadObject, state: Running, priority: NormPriority}
	info.parkCond = sync.NewCond(&info.mu)
	r.threads[id] = info
	return info
}

func (r *Registry) Lookup(id uint64) (*Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.threads[id]
	return i, ok
}

func (r *Registry) Unregister(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, id)
}

// PushFrame implements push_frame(method, owning-class).
func (t *Info) PushFrame(owningClass, methodName, methodDesc string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callStack = append(t.callStack, CallStackEntry{owningClass, methodName, methodDesc})
}

// PopFrame implements pop_frame(result): the result itself flows back
// through the invoker's own return path, not through the registry; this
// only maintains the call-stack bookkeeping.
func (t *Info) PopFrame() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.callStack); n > 0 {
		t.callStack = t.callStack[:n-1]
	}
}

// CallStack returns a snapshot of the current call stack, newest last --
// used for the unwind-time diagnostic of spec §7 when an exception
// escapes a thread's outermost frame.
func (t *Info) CallStack() []CallStackEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]CallStackEntry, len(t.callStack))
	copy(out, t.callStack)
	return out
}

// SetSticky implements set_sticky(exception).
func (t *Info) SetSticky(handle types.ObjectHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sticky = &StickyException{Handle: handle}
}

// TakeSticky implements take_sticky(): clear-and-return, so the bridge's
// "checks and re-raises upon return to bytecode" reads naturally as
// `if h, ok := info.TakeSticky(); ok { ... }`.
func (t *Info) TakeSticky() (types.ObjectHandle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sticky == nil {
		return types.NilHandle, false
	}
	h := t.sticky.Handle
	t.sticky = nil
	return h, true
}

// RequestState implements request_state(thread-id, Park|Interrupt|Throw),
// delivered on the next dispatcher check-in; a parked thread is woken
// immediately so it can observe the request.
func (t *Info) RequestState(req Request) {
	t.mu.Lock()
	t.request = req
	switch req.Kind {
	case Park:
		t.state = Suspended
	case Interrupt, Throw:
		t.state = Interrupted
	}
	t.parkCond.Broadcast()
	t.mu.Unlock()
}

// PollState is the dispatcher's per-check-in call: it returns the
// pending request (if any) and clears it, except for Park, which blocks
// the calling goroutine until resumed (another RequestState clears it or
// wakes it) before returning None.
func (t *Info) PollState() Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.request.Kind == Park {
		t.parkCond.Wait()
		if t.request.Kind != Park {
			break
		}
	}
	req := t.request
	t.request = Request{}
	if req.Kind != None {
		t.state = Running
	}
	return req
}

func (t *Info) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// BindThreadObject attaches the live java/lang/Thread instance once
// bootstrap (or Thread.start0) has allocated it; Register itself can't
// do this up front since the Thread class isn't necessarily loaded yet
// the first time a host goroutine needs an Info.
func (t *Info) BindThreadObject(h types.ObjectHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ThreadObject = h
}

func (t *Info) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

func (t *Info) SetName(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.name = name
}

func (t *Info) Priority() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.priority
}

func (t *Info) SetPriority(p int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.priority = p
}

func (t *Info) Daemon() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.daemon
}

func (t *Info) SetDaemon(d bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.daemon = d
}
