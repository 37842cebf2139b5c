package ir

// callRecord is one entry of the call stack: where to resume and where the
// callee's return value should land in the caller's frame.
type callRecord struct {
	returnIP     int
	returnTarget Variable
}

// Engine holds everything spec.md §3 calls out as engine-owned state: the
// instruction pointer, the frame stack, the call stack, the argument stack,
// memory, and the monotonic instruction counter. Dispatch is grounded on
// the teacher's execNextInstruction (vm/exec.go) — one Step call executes
// exactly one Sentence at ip, falling through by default and setting ip
// directly on a jump.
type Engine struct {
	program *Program
	mem     *Computer

	frames    []*frame
	callStack []callRecord
	argStack  []word

	ip    int
	count int

	reader LineReader
	writer LineWriter
}

// NewEngine constructs an Engine ready to execute p, with one frame pushed
// for main and ip pointing at main's first instruction (the Func line
// itself, which is a no-op the dispatcher steps past).
func NewEngine(p *Program, reader LineReader, writer LineWriter) *Engine {
	mem := NewComputer()
	mem.PushFrame()
	return &Engine{
		program: p,
		mem:     mem,
		frames:  []*frame{newFrame()},
		ip:      p.EntryIP,
		reader:  reader,
		writer:  writer,
	}
}

// IP returns the current instruction pointer.
func (e *Engine) IP() int { return e.ip }

// InstructionCount returns the number of successfully completed steps.
func (e *Engine) InstructionCount() int { return e.count }

func (e *Engine) topFrame() *frame {
	return e.frames[len(e.frames)-1]
}

// resolveValue computes the R-value of v: the value it denotes when read.
func (e *Engine) resolveValue(v Variable) (word, error) {
	switch v.Kind {
	case KindNumber:
		return v.Num, nil
	case KindID:
		_, addr, err := e.lookupOrAllocate(v.Name)
		if err != nil {
			return 0, err
		}
		return e.mem.Load(addr)
	case KindPointer:
		sym, ok := e.topFrame().lookup(v.Name)
		if !ok {
			return 0, newRuntimeError(ErrOutOfBounds, e.ip, "unbound &"+v.Name)
		}
		return sym.Addr, nil
	case KindDeref:
		sym, ok := e.topFrame().lookup(v.Name)
		if !ok {
			return 0, newRuntimeError(ErrOutOfBounds, e.ip, "unbound *"+v.Name)
		}
		inner, err := e.mem.Load(sym.Addr)
		if err != nil {
			return 0, err
		}
		return e.mem.Load(inner)
	default:
		return 0, newRuntimeError(ErrOutOfBounds, e.ip, "unknown operand")
	}
}

// resolveAddr computes the address to store into for v used as an L-value:
// an Id (allocating a fresh scalar binding if this is its first write) or a
// Deref (the address held by the symbol, i.e. store-through-pointer).
func (e *Engine) resolveAddr(v Variable) (word, error) {
	switch v.Kind {
	case KindID:
		_, addr, err := e.lookupOrAllocate(v.Name)
		return addr, err
	case KindDeref:
		sym, ok := e.topFrame().lookup(v.Name)
		if !ok {
			return 0, newRuntimeError(ErrOutOfBounds, e.ip, "unbound *"+v.Name)
		}
		return e.mem.Load(sym.Addr)
	default:
		return 0, newRuntimeError(ErrOutOfBounds, e.ip, "invalid left value")
	}
}

// lookupOrAllocate resolves an Id's Symbol, allocating a fresh 4-byte
// scalar binding in the current frame on first reference — the same
// "bind in current frame, never cross frames" rule spec.md §9 Q4 fixes.
func (e *Engine) lookupOrAllocate(name string) (Symbol, word, error) {
	f := e.topFrame()
	if sym, ok := f.lookup(name); ok {
		return sym, sym.Addr, nil
	}
	addr, err := e.mem.AllocateWords(1)
	if err != nil {
		return Symbol{}, 0, err
	}
	sym := Symbol{Addr: addr, SizeBytes: 4, IsArray: false}
	f.bind(name, sym)
	return sym, addr, nil
}

// Step executes exactly one instruction at ip. It returns done=true once
// the outermost frame returns (program termination) and reports any
// RuntimeError fault, which always aborts execution immediately.
func (e *Engine) Step() (done bool, err error) {
	// Computer's memory faults carry no ip of their own; stamp every
	// RuntimeError from this step with the ip of the faulting instruction.
	startIP := e.ip
	defer func() {
		if rerr, ok := err.(*RuntimeError); ok {
			rerr.IP = startIP
		}
	}()

	if e.ip < 0 || e.ip >= len(e.program.Sentences) {
		return false, newRuntimeError(ErrOutOfBounds, e.ip, "instruction pointer out of range")
	}
	s := e.program.Sentences[e.ip]

	jumped := false
	terminated := false

	switch s.Kind {
	case SLabel, SFunc:
		// no-op, fall through

	case SAssign:
		v, err := e.resolveValue(s.Source)
		if err != nil {
			return false, err
		}
		addr, err := e.resolveAddr(s.Target)
		if err != nil {
			return false, err
		}
		if err := e.mem.Store(addr, v); err != nil {
			return false, err
		}

	case SArith:
		l, err := e.resolveValue(s.L)
		if err != nil {
			return false, err
		}
		r, err := e.resolveValue(s.R)
		if err != nil {
			return false, err
		}
		if s.Op == Div && r == 0 {
			return false, newRuntimeError(ErrDivisionByZero, e.ip, "")
		}
		result := s.Op.Eval(l, r)
		addr, err := e.resolveAddr(s.Target)
		if err != nil {
			return false, err
		}
		if err := e.mem.Store(addr, result); err != nil {
			return false, err
		}

	case SGoto:
		e.ip = e.program.LabelTable[s.Label]
		jumped = true

	case SIfGoto:
		l, err := e.resolveValue(s.L)
		if err != nil {
			return false, err
		}
		r, err := e.resolveValue(s.R)
		if err != nil {
			return false, err
		}
		if s.Op.Eval(l, r) != 0 {
			e.ip = e.program.LabelTable[s.Label]
			jumped = true
		}

	case SDec:
		name, _ := s.Target.IDOf()
		addr, err := e.mem.AllocateWords(s.Size / 4)
		if err != nil {
			return false, err
		}
		e.topFrame().bind(name, Symbol{Addr: addr, SizeBytes: s.Size, IsArray: true})

	case SArg:
		v, err := e.resolveValue(s.Operand)
		if err != nil {
			return false, err
		}
		e.argStack = append(e.argStack, v)

	case SCall:
		target := e.program.FuncTable[s.Func]
		e.callStack = append(e.callStack, callRecord{returnIP: e.ip, returnTarget: s.Target})
		e.frames = append(e.frames, newFrame())
		e.mem.PushFrame()
		e.ip = target
		jumped = true

	case SParam:
		if len(e.argStack) == 0 {
			return false, newRuntimeError(ErrOutOfBounds, e.ip, "PARAM with empty argument stack")
		}
		v := e.argStack[len(e.argStack)-1]
		e.argStack = e.argStack[:len(e.argStack)-1]
		name, _ := s.Operand.IDOf()
		addr, err := e.mem.AllocateWords(1)
		if err != nil {
			return false, err
		}
		e.topFrame().bind(name, Symbol{Addr: addr, SizeBytes: 4})
		if err := e.mem.Store(addr, v); err != nil {
			return false, err
		}

	case SReturn:
		retval, err := e.resolveValue(s.Operand)
		if err != nil {
			return false, err
		}
		if len(e.callStack) == 0 {
			terminated = true
			break
		}
		rec := e.callStack[len(e.callStack)-1]
		e.callStack = e.callStack[:len(e.callStack)-1]
		e.frames = e.frames[:len(e.frames)-1]
		e.mem.PopFrame()
		e.ip = rec.returnIP
		jumped = true
		addr, err := e.resolveAddr(rec.returnTarget)
		if err != nil {
			return false, err
		}
		if err := e.mem.Store(addr, retval); err != nil {
			return false, err
		}

	case SRead:
		line, err := e.reader.ReadLine()
		if err != nil {
			return false, newRuntimeError(ErrInput, e.ip, err.Error())
		}
		v, perr := parseIntLine(line)
		if perr != nil {
			return false, newRuntimeError(ErrInput, e.ip, perr.Error())
		}
		name, _ := s.Operand.IDOf()
		_, addr, err := e.lookupOrAllocate(name)
		if err != nil {
			return false, err
		}
		if err := e.mem.Store(addr, v); err != nil {
			return false, err
		}

	case SWrite:
		v, err := e.resolveValue(s.Operand)
		if err != nil {
			return false, err
		}
		if err := e.writer.WriteLine(formatWord(v)); err != nil {
			return false, newRuntimeError(ErrInput, e.ip, err.Error())
		}
	}

	if terminated {
		e.count++
		return true, nil
	}

	if !jumped {
		e.ip++
	} else if s.Kind == SCall || s.Kind == SReturn {
		// Calls land on the callee's Func line and Returns land back on the
		// original Call line; both still advance past that landing line,
		// same as any other non-jump instruction would.
		e.ip++
	}
	e.count++
	return false, nil
}
