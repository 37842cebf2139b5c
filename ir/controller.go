package ir

import "sync"

// ControllerState is the stepping controller's Idle → Running → Finished
// state machine (spec.md §4.F).
type ControllerState int

const (
	Idle ControllerState = iota
	Running
	Finished
)

// Severity tags a Message's kind, grounded on original_source/src/debugger.rs's
// MessageKind (Warn/Info/Error).
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

// Message is an advisory response from Stop, rendered "[<kind>] <text>" the
// way the Rust original's Message::fmt does.
type Message struct {
	Severity Severity
	Text     string
}

func (m Message) String() string {
	kind := "info"
	switch m.Severity {
	case SeverityWarn:
		kind = "warn"
	case SeverityError:
		kind = "error"
	}
	return "[" + kind + "] " + m.Text
}

type stopFlag int

const (
	stopNone stopFlag = iota
	stopPending
	stopConfirmed
)

// Debugger wraps an Engine with run/step/stop control, grounded on the
// teacher's RunProgram/RunProgramDebugMode split (vm/run.go, vm/exec.go) for
// the run-vs-single-step structural shape. Run is expected to be invoked
// from its own goroutine when the host wants Stop reachable while a free
// run is in progress (mirroring an interactive debugger's "stop" keypress
// interrupting a running program) — state and the stop flag are guarded by
// a mutex for exactly that reason; Engine.Step itself is only ever called
// from the goroutine currently driving Run or Step, never concurrently.
type Debugger struct {
	engine *Engine

	mu    sync.Mutex
	state ControllerState
	stop  stopFlag
}

func NewDebugger(e *Engine) *Debugger {
	return &Debugger{engine: e}
}

func (d *Debugger) State() ControllerState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// takeConfirmedStop reports and clears a confirmed stop request.
func (d *Debugger) takeConfirmedStop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop == stopConfirmed {
		d.stop = stopNone
		return true
	}
	return false
}

func (d *Debugger) enterRunning() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Idle {
		d.state = Running
	}
}

func (d *Debugger) enterFinished() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = Finished
}

// Run repeatedly executes steps until the engine terminates, raises a
// RuntimeError, or a confirmed Stop request arrives at a step boundary. A
// confirmed stop pauses execution (the controller stays Running, ready for
// a further Step or Run) rather than aborting the interpreted program —
// spec.md §4.F calls this "advisory cancellation", not termination.
func (d *Debugger) Run() (int, error) {
	d.enterRunning()
	for {
		if d.takeConfirmedStop() {
			return d.engine.InstructionCount(), nil
		}
		done, err := d.engine.Step()
		if err != nil {
			d.enterFinished()
			return 0, err
		}
		if done {
			d.enterFinished()
			return d.engine.InstructionCount(), nil
		}
	}
}

// Step executes exactly one instruction, transitioning Idle → Running on
// its first call. It returns (count, true) once the engine terminates, or
// (0, false) to signal "keep going".
func (d *Debugger) Step() (count int, finished bool, err error) {
	d.enterRunning()
	done, err := d.engine.Step()
	if err != nil {
		d.enterFinished()
		return 0, false, err
	}
	if done {
		d.enterFinished()
		return d.engine.InstructionCount(), true, nil
	}
	return 0, false, nil
}

// Stop is advisory cancellation with a debounce against a stray keystroke:
// the first call while Running only marks a pending request and informs
// the caller; a second consecutive call confirms it, which Run honors at
// its next step boundary. Calling Stop before anything has started just
// warns that there's nothing to stop.
func (d *Debugger) Stop() Message {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != Running {
		return Message{SeverityWarn, "program not started"}
	}

	if d.stop == stopNone {
		d.stop = stopPending
		return Message{SeverityInfo, "program stopped"}
	}

	d.stop = stopConfirmed
	return Message{SeverityInfo, "program stopped"}
}
