package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/wippyai/ellie-vm/program"
	"github.com/wippyai/ellie-vm/vm"
)

const usage = `Usage: ellievm <command> [flags] <program.bin>

Commands:
  run     execute the program's main function
  disasm  print the instruction listing
  debug   step through the program interactively
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		var code int
		code, err = runCommand(os.Args[2:])
		if err == nil {
			os.Exit(code)
		}
	case "disasm":
		err = disasmCommand(os.Args[2:])
	case "debug":
		err = debugCommand(os.Args[2:])
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// mainFlag parses -main as a function hash.
type mainFlag struct {
	hash uint64
	set  bool
}

func (m *mainFlag) String() string {
	if !m.set {
		return ""
	}
	return strconv.FormatUint(m.hash, 10)
}

func (m *mainFlag) Set(s string) error {
	h, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return fmt.Errorf("invalid function hash %q", s)
	}
	m.hash, m.set = h, true
	return nil
}

func programArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		fs.Usage()
		return "", fmt.Errorf("%s: expected one program file", fs.Name())
	}
	return fs.Arg(0), nil
}

// runCommand executes main and returns the process exit code: 0 on a
// graceful exit, 3 on a thread panic.
func runCommand(args []string) (int, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var (
		cfgPath   = fs.String("config", "", "Path to ellievm.toml")
		debugInfo = fs.String("debug-info", "", "Path to the debug info sidecar")
		asJSON    = fs.Bool("json", false, "Print the thread exit as JSON")
		snapshot  = fs.String("snapshot", "", "Write the thread exit as CBOR to this file")
		mainHash  mainFlag
	)
	fs.Var(&mainHash, "main", "Run the function with this hash instead of the program's main")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	path, err := programArg(fs)
	if err != nil {
		return 0, err
	}

	ctx := context.Background()
	s, err := openSession(ctx, sessionOptions{
		configPath:    *cfgPath,
		debugInfoPath: *debugInfo,
		programPath:   path,
		mainHash:      mainHash.hash,
		hasMain:       mainHash.set,
	})
	if err != nil {
		return 0, err
	}
	defer s.Close(ctx)

	th := s.vm.NewThread(1)
	if err := th.CallMain(); err != nil {
		return 0, err
	}
	exit := th.Run()

	if *snapshot != "" {
		data, err := vm.MarshalExit(&exit)
		if err != nil {
			return 0, fmt.Errorf("encode snapshot: %w", err)
		}
		if err := os.WriteFile(*snapshot, data, 0o644); err != nil {
			return 0, fmt.Errorf("write snapshot: %w", err)
		}
	}

	if *asJSON {
		if err := writeJSON(os.Stdout, newExitReport(&exit, s.info)); err != nil {
			return 0, err
		}
	} else {
		fmt.Println(renderExit(&exit, s.info, stdoutIsTerminal()))
	}
	if exit.Panic != nil {
		return 3, nil
	}
	return 0, nil
}

func disasmCommand(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ContinueOnError)
	debugInfo := fs.String("debug-info", "", "Path to the debug info sidecar")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := programArg(fs)
	if err != nil {
		return err
	}
	info, err := loadDebugInfo(*debugInfo)
	if err != nil {
		return err
	}
	prog, err := loadProgram(path, false)
	if err != nil {
		return err
	}
	if err := prog.Disassemble(os.Stdout, info); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

func debugCommand(args []string) error {
	fs := flag.NewFlagSet("debug", flag.ContinueOnError)
	var (
		cfgPath   = fs.String("config", "", "Path to ellievm.toml")
		debugInfo = fs.String("debug-info", "", "Path to the debug info sidecar")
		mainHash  mainFlag
	)
	fs.Var(&mainHash, "main", "Debug the function with this hash instead of the program's main")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := programArg(fs)
	if err != nil {
		return err
	}
	if !stdoutIsTerminal() {
		return fmt.Errorf("debug needs an interactive terminal")
	}

	ctx := context.Background()
	s, err := openSession(ctx, sessionOptions{
		configPath:    *cfgPath,
		debugInfoPath: *debugInfo,
		programPath:   path,
		mainHash:      mainHash.hash,
		hasMain:       mainHash.set,
	})
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	if s.prog.Main == nil {
		return fmt.Errorf("%s has no main function; pass -main", path)
	}
	return runInteractive(path, s)
}

// listing returns one disassembly line per instruction.
func listing(prog *program.Program) []string {
	out := make([]string, prog.Len())
	for i, ins := range prog.Instructions {
		out[i] = ins.String()
	}
	return out
}
