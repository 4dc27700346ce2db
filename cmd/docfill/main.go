package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

const version = "0.1.0"

func usage(w io.Writer) {
	fmt.Fprintln(w, "docfill - fill DOCX/XLSX templates from a field catalogue")
	fmt.Fprintln(w, "\nUsage: docfill <command> [flags] [arguments]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  generate -template ID [-values file] [-pdf] [-o out]   Generate one document")
	fmt.Fprintln(w, "  archive [-values file] [-o out.zip] ID[:orig][:pdf]...  Generate a zip of documents")
	fmt.Fprintln(w, "  calc [-values file]                                     Print values with formulas resolved")
	fmt.Fprintln(w, "  templates [-values file]                                List templates and their availability")
	fmt.Fprintln(w, "  fill -template ID [-pdf] [-o out]                       Prompt for values, then generate")
	fmt.Fprintln(w, "  version                                                 Show version information")
	fmt.Fprintln(w, "\nRun 'docfill <command> -h' for the flags of a command.")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(1)
	}

	err := run(os.Args[1], os.Args[2:], os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "docfill: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string, stdout io.Writer) error {
	switch command {
	case "version":
		fmt.Fprintf(stdout, "docfill version %s\n", version)
		return nil
	case "generate":
		return runGenerate(args, stdout)
	case "archive":
		return runArchive(args, stdout)
	case "calc":
		return runCalc(args, stdout)
	case "templates":
		return runTemplates(args, stdout)
	case "fill":
		return runFill(args, stdout, surveyPrompter{})
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		usage(os.Stderr)
		return fmt.Errorf("unknown command: %s", command)
	}
}
