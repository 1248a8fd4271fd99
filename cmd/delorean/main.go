package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coursetable/DeLorean/internal/config"
)

const usage = `Usage: delorean <command> [flags]

Commands:
  extract   walk a snapshot repository and write per-file change records
  check     validate change-record files for timeline consistency

Run "delorean <command> -h" for command flags.`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "delorean: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "extract":
		runExtract(cfg, os.Args[2:])
	case "check":
		runCheck(cfg, os.Args[2:])
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		fmt.Fprintf(os.Stderr, "delorean: unknown command %q\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "\nreceived %v, shutting down...\n", sig)
		cancel()
	}()
	return ctx, cancel
}

// stringList collects repeatable string flags.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
