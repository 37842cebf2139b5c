// Command irsim loads and runs a three-address IR program, either to
// completion or under an interactive run/step/stop debugger. It is the CLI
// wrapper spec.md §6 calls a collaborator, not core: file I/O, terminal
// prompting and exit-code plumbing live here; everything else is the ir
// package. Structured the way the teacher's root main.go and
// vm/run.go's RunProgramDebugMode split a free-run path from a
// single-step REPL.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"irsim/ir"
)

const (
	exitSuccess      = 0
	exitLoadFailure  = 1
	exitRuntimeFault = 2
	exitUsageError   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("irsim", flag.ContinueOnError)
	var debug bool
	fs.BoolVar(&debug, "debug", false, "enter interactive run/step/stop debugger")
	fs.BoolVar(&debug, "d", false, "shorthand for --debug")
	if err := fs.Parse(args); err != nil {
		return exitUsageError
	}

	files := fs.Args()
	// Flags may also follow the file name.
	if len(files) > 1 {
		if err := fs.Parse(files[1:]); err != nil {
			return exitUsageError
		}
		files = append([]string{files[0]}, fs.Args()...)
	}
	if len(files) != 1 {
		fmt.Fprintln(os.Stderr, "usage: irsim <file> [--debug|-d]")
		return exitUsageError
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitLoadFailure
	}

	sentences, err := ir.ParseProgram(string(data))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitLoadFailure
	}

	program, err := ir.Load(sentences)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitLoadFailure
	}

	engine := ir.NewEngine(program, ir.NewStdinReader(os.Stdin), ir.NewStdoutWriter(os.Stdout))
	debugger := ir.NewDebugger(engine)

	if debug {
		trace := ir.NewTrace(string(data))
		return runDebugREPL(debugger, engine, program, trace)
	}
	return runToCompletion(debugger)
}

func runToCompletion(debugger *ir.Debugger) int {
	count, err := debugger.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitRuntimeFault
	}
	fmt.Fprintln(os.Stderr, "Program has exited successfully!")
	fmt.Fprintf(os.Stderr, "Total instructions = %d\n", count)
	return exitSuccess
}

type runOutcome struct {
	count int
	err   error
}

// runDebugREPL implements the §6 debug command surface: run, step, stop,
// exit. "run" is dispatched onto its own goroutine so that a "stop" typed
// while it's executing can actually reach the Debugger — mirroring an
// interactive debugger where a running program can be interrupted by a
// fresh keystroke rather than only between whole commands.
func runDebugREPL(debugger *ir.Debugger, engine *ir.Engine, program *ir.Program, trace *ir.Trace) int {
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	var runResult chan runOutcome

	for {
		if runResult == nil {
			// Only safe to read the engine's ip when no Run goroutine is
			// concurrently stepping it.
			fmt.Fprintln(os.Stderr, trace.Render(program, engine.IP()))
		}
		fmt.Fprint(os.Stderr, "> ")
		select {
		case line, ok := <-lines:
			if !ok {
				return exitSuccess
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "run":
				if runResult != nil {
					continue
				}
				runResult = make(chan runOutcome, 1)
				go func() {
					count, err := debugger.Run()
					runResult <- runOutcome{count, err}
				}()
			case "step":
				if runResult != nil {
					continue
				}
				count, finished, err := debugger.Step()
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					return exitRuntimeFault
				}
				if finished {
					fmt.Fprintln(os.Stderr, "Program has exited successfully!")
					fmt.Fprintf(os.Stderr, "Total instructions = %d\n", count)
					return exitSuccess
				}
			case "stop":
				fmt.Fprintln(os.Stderr, debugger.Stop())
			case "exit":
				return exitSuccess
			default:
				fmt.Fprintln(os.Stderr, "Input Error: Command not found!")
			}

		case outcome, ok := <-runResult:
			if !ok {
				continue
			}
			runResult = nil
			if outcome.err != nil {
				fmt.Fprintln(os.Stderr, outcome.err)
				return exitRuntimeFault
			}
			if debugger.State() == ir.Finished {
				fmt.Fprintln(os.Stderr, "Program has exited successfully!")
				fmt.Fprintf(os.Stderr, "Total instructions = %d\n", outcome.count)
				return exitSuccess
			}
			// A confirmed Stop paused the run rather than ending the
			// program; fall back to the prompt for the next command.
		}
	}
}
