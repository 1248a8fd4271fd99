// Package extract reconstructs per-course change histories from a git
// repository of JSON course snapshots. It walks commits from HEAD backwards,
// diffs each commit against its first parent, and records one instant per
// course per commit under added, removed, or modified.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	"github.com/schollz/progressbar/v3"

	"github.com/coursetable/DeLorean/internal/model"
	"github.com/coursetable/DeLorean/internal/output"
)

// Options controls an extraction run.
type Options struct {
	// PrimaryKey is the field identifying a course row within a snapshot.
	PrimaryKey string
	// Include is a doublestar glob; only matching paths are tracked.
	Include string
	// Authors restricts the walk to commits whose author name or email is
	// listed. Empty means all commits.
	Authors []string
	// IgnoreRevs lists commit hashes to skip entirely.
	IgnoreRevs []string
	// Until stops the walk when this revision is reached (exclusive).
	Until string
	// Progress draws a progress bar on stderr during the walk.
	Progress bool
}

// Extractor walks one repository.
type Extractor struct {
	repo *git.Repository
	opts Options
}

// Open opens the snapshot repository at path.
func Open(path string, opts Options) (*Extractor, error) {
	if opts.PrimaryKey == "" {
		return nil, errors.New("extract: primary key is required")
	}
	if opts.Include == "" {
		opts.Include = "**/*"
	}
	if !doublestar.ValidatePattern(opts.Include) {
		return nil, fmt.Errorf("extract: invalid include pattern %q", opts.Include)
	}
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("extract: open repository %s: %w", path, err)
	}
	return &Extractor{repo: repo, opts: opts}, nil
}

// Run walks the history and writes one record set per tracked source path.
func (e *Extractor) Run(ctx context.Context, w output.Writer) error {
	head, err := e.repo.Head()
	if err != nil {
		return fmt.Errorf("extract: resolve HEAD: %w", err)
	}

	var until plumbing.Hash
	if e.opts.Until != "" {
		h, err := e.repo.ResolveRevision(plumbing.Revision(e.opts.Until))
		if err != nil {
			return fmt.Errorf("extract: resolve until revision %q: %w", e.opts.Until, err)
		}
		until = *h
	}

	total, err := e.countCommits(head.Hash())
	if err != nil {
		return err
	}
	slog.Info("starting history walk", "commits", total, "include", e.opts.Include)

	var bar *progressbar.ProgressBar
	if e.opts.Progress {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("commits"),
			progressbar.OptionSetWriter(os.Stderr),
		)
	}

	records := make(map[string]output.RecordSet)

	// cache holds parent-side snapshots parsed while processing a commit.
	// It is valid only while the walk moves along first-parent links, so it
	// is dropped whenever the next commit is not the expected parent.
	cache := make(map[string]snapshot)
	var expectParent plumbing.Hash

	iter, err := e.repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return fmt.Errorf("extract: log: %w", err)
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.Hash != expectParent {
			clear(cache)
		}
		if bar != nil {
			defer bar.Add(1)
		}
		if slices.Contains(e.opts.IgnoreRevs, c.Hash.String()) {
			return nil
		}
		if c.Hash == until {
			slog.Info("reached until revision", "commit", c.Hash.String())
			return storer.ErrStop
		}
		if !e.authorIncluded(c) {
			return nil
		}

		parent, err := c.Parent(0)
		if err != nil {
			if errors.Is(err, object.ErrParentNotFound) {
				slog.Info("reached root commit", "commit", c.Hash.String())
				return storer.ErrStop
			}
			return fmt.Errorf("extract: parent of %s: %w", c.Hash, err)
		}

		nextCache, err := e.diffCommit(parent, c, records, cache)
		if err != nil {
			return err
		}
		cache = nextCache
		expectParent = parent.Hash
		return nil
	})
	if err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
	}

	return writeRecords(ctx, w, records)
}

// diffCommit records every course-level change between parent and commit.
// It returns the parent-side snapshots parsed along the way, to be reused
// when the walk processes the parent next.
func (e *Extractor) diffCommit(parent, c *object.Commit, records map[string]output.RecordSet, cache map[string]snapshot) (map[string]snapshot, error) {
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("extract: tree of %s: %w", parent.Hash, err)
	}
	commitTree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("extract: tree of %s: %w", c.Hash, err)
	}
	changes, err := object.DiffTree(parentTree, commitTree)
	if err != nil {
		return nil, fmt.Errorf("extract: diff %s..%s: %w", parent.Hash, c.Hash, err)
	}
	slog.Debug("diffing commit", "commit", c.Hash.String(), "parent", parent.Hash.String(), "changed", len(changes))

	instant := model.Instant{
		Commit:    c.Hash.String(),
		Timestamp: c.Committer.When.UTC().Format(time.RFC3339),
	}
	nextCache := make(map[string]snapshot)

	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			return nil, fmt.Errorf("extract: change action: %w", err)
		}
		oldPath, newPath := ch.From.Name, ch.To.Name
		if oldPath != "" && newPath != "" && oldPath != newPath {
			return nil, fmt.Errorf("extract: path %s renamed to %s; renames are not supported", oldPath, newPath)
		}
		path := newPath
		if path == "" {
			path = oldPath
		}
		if ok, _ := doublestar.Match(e.opts.Include, path); !ok {
			continue
		}

		set := records[path]
		if set == nil {
			set = make(output.RecordSet)
			records[path] = set
		}

		switch action {
		case merkletrie.Insert:
			newSnap, err := e.snapshotAt(commitTree, path, cache)
			if err != nil {
				return nil, err
			}
			for pk := range newSnap {
				appendInstant(set, pk, model.KindAdded, instant)
			}
		case merkletrie.Delete:
			oldSnap, err := e.parseTreeFile(parentTree, path)
			if err != nil {
				return nil, err
			}
			for pk := range oldSnap {
				appendInstant(set, pk, model.KindRemoved, instant)
			}
			nextCache[path] = oldSnap
		case merkletrie.Modify:
			newSnap, err := e.snapshotAt(commitTree, path, cache)
			if err != nil {
				return nil, err
			}
			oldSnap, err := e.parseTreeFile(parentTree, path)
			if err != nil {
				return nil, err
			}
			added, removed, modified := diffSnapshots(oldSnap, newSnap)
			for _, pk := range added {
				appendInstant(set, pk, model.KindAdded, instant)
			}
			for _, pk := range removed {
				appendInstant(set, pk, model.KindRemoved, instant)
			}
			for _, pk := range modified {
				appendInstant(set, pk, model.KindModified, instant)
			}
			nextCache[path] = oldSnap
		default:
			return nil, fmt.Errorf("extract: unexpected change action %v for %s", action, path)
		}
	}
	return nextCache, nil
}

// snapshotAt returns the commit-side snapshot for path, preferring the one
// cached while processing the child commit.
func (e *Extractor) snapshotAt(tree *object.Tree, path string, cache map[string]snapshot) (snapshot, error) {
	if snap, ok := cache[path]; ok {
		delete(cache, path)
		return snap, nil
	}
	return e.parseTreeFile(tree, path)
}

func (e *Extractor) parseTreeFile(tree *object.Tree, path string) (snapshot, error) {
	f, err := tree.File(path)
	if err != nil {
		return nil, fmt.Errorf("extract: open %s in tree: %w", path, err)
	}
	contents, err := f.Contents()
	if err != nil {
		return nil, fmt.Errorf("extract: read %s: %w", path, err)
	}
	snap, err := parseSnapshot([]byte(contents), e.opts.PrimaryKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

func (e *Extractor) authorIncluded(c *object.Commit) bool {
	if len(e.opts.Authors) == 0 {
		return true
	}
	return slices.Contains(e.opts.Authors, c.Author.Name) ||
		slices.Contains(e.opts.Authors, c.Author.Email)
}

func (e *Extractor) countCommits(from plumbing.Hash) (int, error) {
	iter, err := e.repo.Log(&git.LogOptions{From: from})
	if err != nil {
		return 0, fmt.Errorf("extract: log: %w", err)
	}
	defer iter.Close()
	n := 0
	err = iter.ForEach(func(*object.Commit) error {
		n++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("extract: count commits: %w", err)
	}
	return n, nil
}

func appendInstant(set output.RecordSet, pk string, kind model.Kind, in model.Instant) {
	rec := set[pk]
	if rec == nil {
		rec = &model.ChangeRecord{}
		set[pk] = rec
	}
	switch kind {
	case model.KindAdded:
		rec.Added = append(rec.Added, in)
	case model.KindRemoved:
		rec.Removed = append(rec.Removed, in)
	case model.KindModified:
		rec.Modified = append(rec.Modified, in)
	}
}

// writeRecords reverses each bucket into chronological order (the walk
// appends newest-first) and hands every record set to the writer in sorted
// path order.
func writeRecords(ctx context.Context, w output.Writer, records map[string]output.RecordSet) error {
	paths := make([]string, 0, len(records))
	for path := range records {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	for _, path := range paths {
		set := records[path]
		for _, rec := range set {
			slices.Reverse(rec.Added)
			slices.Reverse(rec.Removed)
			slices.Reverse(rec.Modified)
		}
		if err := w.Write(ctx, path, set); err != nil {
			return err
		}
	}
	slog.Info("extraction complete", "files", len(paths))
	return nil
}
