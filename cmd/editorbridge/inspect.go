package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/Strob0t/editorbridge/internal/config"
	"github.com/Strob0t/editorbridge/internal/domain/catalog"
	"github.com/Strob0t/editorbridge/internal/logger"
)

// runInspect dispatches inspect subcommands (config, tools, ping).
func runInspect(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printInspectHelp()
		return nil
	}

	switch args[0] {
	case "config":
		return runInspectConfig(args[1:], os.Stdout)
	case "tools":
		return runInspectTools(args[1:], os.Stdout)
	case "ping":
		return runInspectPing(args[1:], os.Stdout)
	default:
		printInspectHelp()
		return fmt.Errorf("unknown inspect command: %s", args[0])
	}
}

func printInspectHelp() {
	fmt.Fprintf(os.Stderr, `Usage: editorbridge inspect <command> [options]

Commands:
  config   Show the effective backend configuration and its warnings
  tools    List bridged tools with their safety classification
  ping     Check that the configured backend answers
  help     Show this help message

Examples:
  editorbridge inspect config
  EDITORBRIDGE_BACKEND_URL=http://editor.lan:7400 editorbridge inspect config
  editorbridge inspect tools --destructive
  editorbridge inspect ping
`)
}

func runInspectConfig(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	snap := config.NewStore(config.Load).Current()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SETTING\tVALUE")
	_, _ = fmt.Fprintf(w, "backend url\t%s\n", snap.BackendURL)
	if snap.ConfiguredURL != snap.BackendURL {
		_, _ = fmt.Fprintf(w, "configured url\t%s\n", snap.ConfiguredURL)
	}
	_, _ = fmt.Fprintf(w, "allow remote\t%t\n", snap.AllowRemote)
	_, _ = fmt.Fprintf(w, "strict local only\t%t\n", snap.StrictLocalOnly)
	_, _ = fmt.Fprintf(w, "unsafe invoke\t%t\n", snap.UnsafeInvokeEnabled)
	_, _ = fmt.Fprintf(w, "default timeout\t%dms\n", snap.DefaultTimeoutMs)
	_, _ = fmt.Fprintf(w, "max timeout\t%dms\n", snap.MaxTimeoutMs)
	if err := w.Flush(); err != nil {
		return err
	}

	if len(snap.Warnings) == 0 {
		return nil
	}
	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WARNING\tMESSAGE")
	for _, warn := range snap.Warnings {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", warn.Code, warn.Message)
	}
	return w.Flush()
}

func runInspectTools(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("tools", flag.ContinueOnError)
	destructiveOnly := fs.Bool("destructive", false, "only list destructive tools")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TOOL\tMETHOD\tDESTRUCTIVE\tREAD_ONLY\tTARGET")
	for _, e := range catalog.Default().Entries() {
		c := e.Classification
		if *destructiveOnly && !c.Destructive {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n",
			e.Tool.Name, e.Tool.BackendMethod(), c.Destructive, c.ReadOnly, c.Target)
	}
	return w.Flush()
}

func runInspectPing(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ping", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, _ := config.Load()
	log, closer := logger.New(cfg.Logging, os.Stderr)
	defer closer.Close()
	slog.SetDefault(log)

	a, err := wire(cfg, nil)
	if err != nil {
		return err
	}
	defer a.cleanup()

	report := a.utility.Ping(context.Background())
	if !report.Reachable {
		return fmt.Errorf("backend %s unreachable: %s", report.BackendURL, report.Error)
	}
	_, _ = fmt.Fprintf(out, "backend %s reachable in %dms\n", report.BackendURL, report.LatencyMs)
	return nil
}
