package main

import (
	"context"
	"flag"
	"os"

	"github.com/coursetable/DeLorean/internal/config"
	"github.com/coursetable/DeLorean/internal/logging"
	"github.com/coursetable/DeLorean/internal/pipeline"
	"github.com/coursetable/DeLorean/internal/report"
)

func runCheck(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	keepGoing := fs.Bool("keep-going", cfg.Check.KeepGoing, "collect every violation instead of halting on the first")
	verbose := fs.Bool("v", false, "print a line per consistent file")
	plain := fs.Bool("plain", false, "disable styled output")
	fs.Parse(args)

	dir := cfg.Check.Dir
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}

	logging.Init(false, cfg.LogLevel)

	rep := report.New(os.Stdout, *plain || report.Plain(os.Stdout))
	p := pipeline.New(rep, pipeline.Config{KeepGoing: *keepGoing, Verbose: *verbose})
	if err := p.Run(context.Background(), dir); err != nil {
		os.Exit(1)
	}
}
