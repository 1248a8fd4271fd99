package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/coursetable/DeLorean/internal/config"
	"github.com/coursetable/DeLorean/internal/extract"
	"github.com/coursetable/DeLorean/internal/logging"
	"github.com/coursetable/DeLorean/internal/output"
)

func runExtract(cfg config.Config, args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	primaryKey := fs.String("primary-key", cfg.Extract.PrimaryKey, "field identifying a course row within a snapshot")
	include := fs.String("include", cfg.Extract.Include, "doublestar glob of snapshot paths to track")
	until := fs.String("until", "", "stop the walk at this revision (exclusive)")
	toStdout := fs.Bool("stdout", false, "stream records to stdout instead of writing files")
	pretty := fs.Bool("pretty", false, "indent stdout records")
	noProgress := fs.Bool("no-progress", false, "disable the progress bar")
	var authors, ignoreRevs stringList
	fs.Var(&authors, "author", "only include commits by this author name or email (repeatable)")
	fs.Var(&ignoreRevs, "ignore-rev", "skip this commit hash (repeatable)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: delorean extract [flags] <repo> [output-dir]")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(2)
	}
	repoPath := fs.Arg(0)
	outDir := fs.Arg(1)
	if outDir == "" && !*toStdout {
		fmt.Fprintln(os.Stderr, "delorean: extract needs an output directory or -stdout")
		os.Exit(2)
	}
	if len(authors) == 0 {
		authors = cfg.Extract.Authors
	}
	if len(ignoreRevs) == 0 {
		ignoreRevs = cfg.Extract.IgnoreRevs
	}

	logging.Init(*toStdout, cfg.LogLevel)

	ext, err := extract.Open(repoPath, extract.Options{
		PrimaryKey: *primaryKey,
		Include:    *include,
		Authors:    authors,
		IgnoreRevs: ignoreRevs,
		Until:      *until,
		Progress:   !*noProgress && !*toStdout,
	})
	if err != nil {
		slog.Error("extract setup failed", "error", err)
		os.Exit(1)
	}

	var w output.Writer
	if *toStdout {
		w = output.NewStdoutWriter(*pretty)
	} else {
		w = output.NewFileWriter(outDir)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := ext.Run(ctx, w); err != nil {
		slog.Error("extraction failed", "error", err)
		os.Exit(1)
	}
	if err := w.Close(); err != nil {
		slog.Error("closing output failed", "error", err)
		os.Exit(1)
	}
}
