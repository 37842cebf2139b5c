package ir

// Program is the sealed result of validating a parsed instruction sequence:
// the instruction vector plus the label/function tables and entry point
// index, all read-only for the remainder of the run.
//
// Grounded on original_source/src/interpreter.rs's Interpreter::check /
// check_var / check_label (two-pass validate: per-function declared-name
// tracking plus deferred label/call resolution), translated to idiomatic Go
// error handling in the teacher's style of returning a concrete typed error
// rather than panicking.
type Program struct {
	Sentences  []Sentence
	LabelTable map[string]int
	FuncTable  map[string]int
	EntryIP    int
}

type labelRef struct {
	name string
	line int
}

// Load validates sentences per spec.md §4.D and returns a sealed Program,
// or the first LoadError encountered.
func Load(sentences []Sentence) (*Program, error) {
	p := &Program{
		Sentences:  sentences,
		LabelTable: make(map[string]int),
		FuncTable:  make(map[string]int),
		EntryIP:    -1,
	}

	var curFunc string
	declared := make(map[string]bool)
	var gotoRefs, callRefs []labelRef

	for i, s := range sentences {
		switch s.Kind {
		case SLabel:
			if _, dup := p.LabelTable[s.Name]; dup {
				return nil, newLoadError(ErrDuplicatedLabel, s.Line, s.Name)
			}
			if s.Name == "main" {
				return nil, newLoadError(ErrSyntax, s.Line, `"main" is reserved for the entry function`)
			}
			p.LabelTable[s.Name] = i
			continue

		case SFunc:
			if _, dup := p.FuncTable[s.Name]; dup {
				return nil, newLoadError(ErrDuplicatedFunc, s.Line, s.Name)
			}
			p.FuncTable[s.Name] = i
			if s.Name == "main" {
				p.EntryIP = i
			}
			curFunc = s.Name
			declared = make(map[string]bool)
			continue
		}

		if curFunc == "" {
			return nil, newLoadError(ErrCurrentFuncNone, s.Line, "")
		}

		if err := checkSentence(s, declared, &gotoRefs, &callRefs); err != nil {
			return nil, err
		}
	}

	for _, ref := range gotoRefs {
		if _, ok := p.LabelTable[ref.name]; !ok {
			return nil, newLoadError(ErrUndefinedLabel, ref.line, ref.name)
		}
	}
	for _, ref := range callRefs {
		if _, ok := p.FuncTable[ref.name]; !ok {
			return nil, newLoadError(ErrUndefinedFunc, ref.line, ref.name)
		}
	}

	if p.EntryIP < 0 {
		endLine := 0
		if n := len(sentences); n > 0 {
			endLine = sentences[n-1].Line + 1
		}
		return nil, newLoadError(ErrSyntax, endLine, `no "main" function found`)
	}

	return p, nil
}

// checkSentence enforces the L-value, declaration-uniqueness and
// undefined-reference rules (spec.md §4.D rules 4–7) for one non-Label/Func
// instruction, and appends deferred references for the second pass.
func checkSentence(s Sentence, declared map[string]bool, gotoRefs, callRefs *[]labelRef) error {
	use := func(v Variable) error {
		name, ok := v.IDOf()
		if !ok {
			return nil
		}
		if !declared[name] {
			return newLoadError(ErrUndefinedVariable, s.Line, name)
		}
		return nil
	}
	declareFresh := func(name string) error {
		if declared[name] {
			return newLoadError(ErrDuplicatedVariable, s.Line, name)
		}
		declared[name] = true
		return nil
	}
	// declareOrUpdate handles an Assign/Arith/Call target: a bare Id
	// introduces (or updates) a binding in the current frame, but a Deref
	// target dereferences an existing pointer, so its name is a use — rule 6
	// — and must already be declared rather than being implicitly created.
	declareOrUpdate := func(v Variable) error {
		name, ok := v.IDOf()
		if !ok {
			return nil
		}
		if v.Kind == KindDeref {
			return use(v)
		}
		declared[name] = true
		return nil
	}

	switch s.Kind {
	case SAssign:
		if !s.Target.IsLValueForm() {
			return newLoadError(ErrLeftValue, s.Line, s.Target.String())
		}
		if err := use(s.Source); err != nil {
			return err
		}
		return declareOrUpdate(s.Target)

	case SArith:
		if !s.Target.IsLValueForm() {
			return newLoadError(ErrLeftValue, s.Line, s.Target.String())
		}
		if err := use(s.L); err != nil {
			return err
		}
		if err := use(s.R); err != nil {
			return err
		}
		return declareOrUpdate(s.Target)

	case SGoto:
		*gotoRefs = append(*gotoRefs, labelRef{s.Label, s.Line})
		return nil

	case SIfGoto:
		if err := use(s.L); err != nil {
			return err
		}
		if err := use(s.R); err != nil {
			return err
		}
		*gotoRefs = append(*gotoRefs, labelRef{s.Label, s.Line})
		return nil

	case SReturn:
		return use(s.Operand)

	case SDec:
		if s.Target.Kind != KindID {
			return newLoadError(ErrLeftValue, s.Line, s.Target.String())
		}
		if s.Size%4 != 0 {
			return newLoadError(ErrSyntax, s.Line, "DEC size must be a multiple of 4")
		}
		name, _ := s.Target.IDOf()
		return declareFresh(name)

	case SArg:
		return use(s.Operand)

	case SCall:
		if !s.Target.IsLValueForm() {
			return newLoadError(ErrLeftValue, s.Line, s.Target.String())
		}
		*callRefs = append(*callRefs, labelRef{s.Func, s.Line})
		return declareOrUpdate(s.Target)

	case SParam:
		if s.Operand.Kind != KindID {
			return newLoadError(ErrLeftValue, s.Line, s.Operand.String())
		}
		name, _ := s.Operand.IDOf()
		return declareFresh(name)

	case SRead:
		if s.Operand.Kind != KindID {
			return newLoadError(ErrLeftValue, s.Line, s.Operand.String())
		}
		name, _ := s.Operand.IDOf()
		return declareFresh(name)

	case SWrite:
		return use(s.Operand)
	}

	return nil
}
