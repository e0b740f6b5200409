package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"certdesign/internal/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		// Bad values are reported but the remaining settings still apply.
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands := map[string]func(context.Context, *config.Config, []string) error{
		"design":  runDesign,
		"new":     runNew,
		"render":  runRender,
		"export":  runExport,
		"import":  runImport,
		"org":     runOrganization,
		"issue":   runIssue,
		"serve":   runServe,
		"version": func(context.Context, *config.Config, []string) error { printVersion(); return nil },
	}

	command := args[0]
	run, ok := commands[command]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err := run(ctx, cfg, args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: certdesign [-version] <command> [flags]

Commands:
  design   Open the terminal designer on a template
  new      Create a template from a preset
  render   Render a template preview to PNG
  export   Export a template or an issued certificate to PDF or PNG
  import   Store a design JSON file as a template
  org      Register an issuing organization
  issue    Issue a certificate from a template
  serve    Run the public verification server

Settings are read from ~/.certdesignrc, .env and CERTDESIGN_* variables.
Run "certdesign <command> -h" for the flags of a command.
`)
}

func printVersion() {
	fmt.Printf("certdesign\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
