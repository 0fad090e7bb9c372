// This is the main-driver for the AnimationLed compiler.
//
// It mirrors the teacher's math-compiler main.go in shape — parse flags,
// build a Compiler, compile, optionally hand the assembly to a system
// assembler/linker and run the result — generalized to two target
// architectures and to reading source from a file.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"

	"github.com/skx/animationled-compiler/arch"
	"github.com/skx/animationled-compiler/compiler"
	"github.com/skx/animationled-compiler/config"
	"github.com/skx/animationled-compiler/diagnostics"
	"github.com/skx/animationled-compiler/source"
)

func main() {
	os.Exit(run())
}

func run() int {
	targetFlag := flag.String("target", "", "Target architecture: native or esp8266.")
	output := flag.String("o", "a.out", "The binary to write, when --compile is given.")
	debug := flag.Bool("debug", false, "Insert debug logging of each compiler stage.")
	verbose := flag.Bool("verbose", false, "Raise the log level to show [DEBUG] output.")
	configPath := flag.String("config", ".animationledrc.toml", "Optional build-configuration file.")
	doCompile := flag.Bool("compile", false, "Assemble/link the generated output via the platform toolchain.")
	doRun := flag.Bool("run", false, "Run the linked binary, implies --compile.")
	flag.Parse()

	if *doRun {
		*doCompile = true
	}
	if *verbose {
		log.SetOutput(os.Stderr)
	}

	if len(flag.Args()) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: animationled-compiler [--target native|esp8266] [-o out] [--compile] [--run] <source.led>\n")
		return 1
	}
	path := flag.Args()[0]

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config %s: %s\n", *configPath, err)
		return 1
	}

	targetName := resolveTarget(*targetFlag, cfg.Target)
	target, ok := targetFor(targetName)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown target %q: expected \"native\" or \"esp8266\"\n", targetName)
		return 1
	}

	outPath := *output
	if !flagWasSet("o") && cfg.Output != "" {
		outPath = cfg.Output
	}

	text, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %s\n", path, err)
		return 1
	}

	comp := compiler.New(string(text), path, target)
	comp.SetDebug(*debug || cfg.Debug)

	asm, err := comp.Compile()
	if err != nil {
		return reportError(path, string(text), err)
	}

	if !*doCompile {
		fmt.Print(asm)
		return 0
	}

	if err := assembleAndLink(asm, target, outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error invoking the assembler/linker: %s\n", err)
		return 1
	}

	if *doRun {
		exe := exec.Command(outPath)
		exe.Stdout = os.Stdout
		exe.Stderr = os.Stderr
		if err := exe.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error launching %s: %s\n", outPath, err)
			return 1
		}
	}
	return 0
}

// resolveTarget applies flag-overrides-config precedence: an explicit
// --target always wins, otherwise the config file's default, otherwise
// "native".
func resolveTarget(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if configValue != "" {
		return configValue
	}
	return "native"
}

func targetFor(name string) (arch.Target, bool) {
	switch name {
	case "native":
		return arch.X86_64{}, true
	case "esp8266":
		return arch.Xtensa{}, true
	default:
		return nil, false
	}
}

// flagWasSet reports whether a flag was explicitly passed on the command
// line, so an unset -o can fall back to the config file's Output instead
// of always winning via its declared default.
func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// assembleAndLink pipes asm into the platform front-end named in
// spec.md §6, invoked with the flags that section specifies.
func assembleAndLink(asm string, target arch.Target, outPath string) error {
	var cmd *exec.Cmd
	switch target.Name() {
	case "esp8266":
		cmd = exec.Command("xtensa-lx106-elf-gcc",
			"-nostartfiles", "-Wl,-Tlink.x", "-L", "lib/esp8266",
			"-Wl,--gc-sections", "-xassembler", "-", "-lruntime", "-o", outPath)
	default:
		cmd = exec.Command("gcc",
			"-pthread", "-ldl", "-L", "lib/native",
			"-Wl,--gc-sections", "-xassembler", "-", "-lruntime", "-o", outPath)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	var in bytes.Buffer
	in.WriteString(asm)
	cmd.Stdin = &in

	return cmd.Run()
}

// reportError prints a StageError's diagnostics (or a bare error for
// I/O-level failures) and returns the process exit status.
func reportError(path, text string, err error) int {
	se, ok := err.(*compiler.StageError)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error compiling: %s\n", err.Error())
		return 1
	}

	file := source.New(path, text)
	printer := diagnostics.New(file, os.Stderr)
	printer.Report(se.Stage, se.Errs)
	return 1
}
