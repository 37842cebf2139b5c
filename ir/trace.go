package ir

import "fmt"

// Trace is a source-line debug symbol table: the original source text for
// every line a Sentence was parsed from, keyed by Sentence.Line. Grounded on
// the teacher's debugSymbols/debugSym map[int]string (vm/vm.go, vm/compile.go)
// which the VM's debug mode uses to print the original source line rather
// than a re-serialized instruction when tracing execution.
type Trace struct {
	lines []string
}

// NewTrace builds a Trace from the same raw source ParseProgram consumed,
// so its line indices line up exactly with Sentence.Line.
func NewTrace(src string) *Trace {
	t := &Trace{}
	start := 0
	for i := 0; i <= len(src); i++ {
		if i == len(src) || src[i] == '\n' {
			t.lines = append(t.lines, src[start:i])
			start = i + 1
		}
	}
	return t
}

// SourceLine returns the original, untrimmed source text at line, or "" if
// line is out of range.
func (t *Trace) SourceLine(line int) string {
	if line < 0 || line >= len(t.lines) {
		return ""
	}
	return t.lines[line]
}

// Render formats the instruction at program.Sentences[ip] the way the
// teacher's VM.disassembleSingleInstruction prints a debug symbol: the
// instruction pointer followed by the original source text, falling back to
// the canonical printer if no source line is on record (e.g. a synthetic
// Sentence built by a test rather than parsed from text).
func (t *Trace) Render(program *Program, ip int) string {
	if ip < 0 || ip >= len(program.Sentences) {
		return fmt.Sprintf("%d: <out of range>", ip)
	}
	s := program.Sentences[ip]
	if src := t.SourceLine(s.Line); src != "" {
		return fmt.Sprintf("%d: %s", ip, src)
	}
	return fmt.Sprintf("%d: %s", ip, s.String())
}
