package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/coursetable/DeLorean/internal/model"
	"github.com/coursetable/DeLorean/internal/output"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// collectWriter captures record sets instead of writing them anywhere.
type collectWriter struct {
	sets map[string]output.RecordSet
}

func newCollectWriter() *collectWriter {
	return &collectWriter{sets: make(map[string]output.RecordSet)}
}

func (c *collectWriter) Write(_ context.Context, path string, records output.RecordSet) error {
	c.sets[path] = records
	return nil
}

func (c *collectWriter) Close() error { return nil }

// testRepo builds a snapshot repository where each commit rewrites the given
// files. Commit times advance one hour per commit.
type testRepo struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	wt   *git.Worktree
	n    int
}

func initRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	return &testRepo{t: t, dir: dir, repo: repo, wt: wt}
}

func (r *testRepo) commit(author string, files map[string]string) plumbing.Hash {
	r.t.Helper()
	for name, content := range files {
		path := filepath.Join(r.dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			r.t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			r.t.Fatal(err)
		}
		if _, err := r.wt.Add(name); err != nil {
			r.t.Fatalf("add %s: %v", name, err)
		}
	}
	r.n++
	sig := &object.Signature{
		Name:  author,
		Email: author + "@example.com",
		When:  epoch.Add(time.Duration(r.n) * time.Hour),
	}
	hash, err := r.wt.Commit(fmt.Sprintf("snapshot %d", r.n), &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		r.t.Fatalf("commit: %v", err)
	}
	return hash
}

func runExtract(t *testing.T, dir string, opts Options) map[string]output.RecordSet {
	t.Helper()
	ext, err := Open(dir, opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	w := newCollectWriter()
	if err := ext.Run(context.Background(), w); err != nil {
		t.Fatalf("run: %v", err)
	}
	return w.sets
}

func at(hour int) string {
	return epoch.Add(time.Duration(hour) * time.Hour).Format(time.RFC3339)
}

func TestRunRecordsLifecycle(t *testing.T) {
	r := initRepo(t)
	r.commit("bot", map[string]string{
		"courses.json": `[{"crn": "A", "title": "a1"}]`,
	})
	r.commit("bot", map[string]string{
		"courses.json": `[{"crn": "A", "title": "a1"}, {"crn": "B", "title": "b1"}]`,
	})
	r.commit("bot", map[string]string{
		"courses.json": `[{"crn": "A", "title": "a2"}]`,
	})
	r.commit("bot", map[string]string{
		"courses.json": `[{"crn": "A", "title": "a3"}]`,
	})

	sets := runExtract(t, r.dir, Options{PrimaryKey: "crn"})
	set, ok := sets["courses.json"]
	if !ok {
		t.Fatalf("courses.json not extracted: %v", sets)
	}

	a := set["A"]
	if a == nil {
		t.Fatal("course A missing")
	}
	// A changed in commits 3 and 4; instants must be chronological.
	if len(a.Modified) != 2 {
		t.Fatalf("A modified = %+v", a.Modified)
	}
	if a.Modified[0].Timestamp != at(3) || a.Modified[1].Timestamp != at(4) {
		t.Fatalf("A modified not chronological: %+v", a.Modified)
	}
	if len(a.Added) != 0 {
		// The root commit has no parent, so A's first appearance is outside
		// the observed window.
		t.Fatalf("A added = %+v", a.Added)
	}

	b := set["B"]
	if b == nil {
		t.Fatal("course B missing")
	}
	if len(b.Added) != 1 || b.Added[0].Timestamp != at(2) {
		t.Fatalf("B added = %+v", b.Added)
	}
	if len(b.Removed) != 1 || b.Removed[0].Timestamp != at(3) {
		t.Fatalf("B removed = %+v", b.Removed)
	}
	if len(b.Modified) != 0 {
		t.Fatalf("B modified = %+v", b.Modified)
	}
}

func TestRunRecordsFileDeletion(t *testing.T) {
	r := initRepo(t)
	r.commit("bot", map[string]string{
		"f23.json": `[{"crn": "X"}]`,
		"s24.json": `[{"crn": "Y"}]`,
	})
	r.commit("bot", map[string]string{
		"s24.json": `[{"crn": "Y"}, {"crn": "Z"}]`,
	})
	if _, err := r.wt.Remove("f23.json"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	r.n++
	sig := &object.Signature{Name: "bot", Email: "bot@example.com", When: epoch.Add(time.Duration(r.n) * time.Hour)}
	if _, err := r.wt.Commit("drop f23", &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatalf("commit: %v", err)
	}

	sets := runExtract(t, r.dir, Options{PrimaryKey: "crn"})
	x := sets["f23.json"]["X"]
	if x == nil || len(x.Removed) != 1 || x.Removed[0].Timestamp != at(3) {
		t.Fatalf("X removal not recorded: %+v", sets["f23.json"])
	}
	z := sets["s24.json"]["Z"]
	if z == nil || len(z.Added) != 1 {
		t.Fatalf("Z addition not recorded: %+v", sets["s24.json"])
	}
}

func TestRunIncludeGlob(t *testing.T) {
	r := initRepo(t)
	r.commit("bot", map[string]string{
		"parsed/f23.json": `[{"crn": "X"}]`,
		"notes.txt":       "not json",
	})
	r.commit("bot", map[string]string{
		"parsed/f23.json": `[{"crn": "X"}, {"crn": "Y"}]`,
		"notes.txt":       "still not json",
	})

	// Without the glob the txt file would fail snapshot parsing.
	sets := runExtract(t, r.dir, Options{PrimaryKey: "crn", Include: "parsed/**/*.json"})
	if _, ok := sets["notes.txt"]; ok {
		t.Fatal("notes.txt should be excluded")
	}
	y := sets["parsed/f23.json"]["Y"]
	if y == nil || len(y.Added) != 1 {
		t.Fatalf("Y addition not recorded: %+v", sets)
	}
}

func TestRunIgnoreRev(t *testing.T) {
	r := initRepo(t)
	r.commit("bot", map[string]string{"courses.json": `[{"crn": "A"}]`})
	skip := r.commit("bot", map[string]string{"courses.json": `[{"crn": "A"}, {"crn": "B"}]`})
	r.commit("bot", map[string]string{"courses.json": `[{"crn": "A"}]`})

	sets := runExtract(t, r.dir, Options{PrimaryKey: "crn", IgnoreRevs: []string{skip.String()}})
	b := sets["courses.json"]["B"]
	if b == nil {
		t.Fatalf("B missing entirely: %+v", sets)
	}
	if len(b.Added) != 0 {
		t.Fatalf("ignored commit still recorded additions: %+v", b)
	}
	if len(b.Removed) != 1 {
		t.Fatalf("B removal missing: %+v", b)
	}
}

func TestRunUntilStopsWalk(t *testing.T) {
	r := initRepo(t)
	r.commit("bot", map[string]string{"courses.json": `[{"crn": "A", "v": "1"}]`})
	stop := r.commit("bot", map[string]string{"courses.json": `[{"crn": "A", "v": "2"}]`})
	r.commit("bot", map[string]string{"courses.json": `[{"crn": "A", "v": "3"}]`})

	sets := runExtract(t, r.dir, Options{PrimaryKey: "crn", Until: stop.String()})
	a := sets["courses.json"]["A"]
	if a == nil || len(a.Modified) != 1 || a.Modified[0].Timestamp != at(3) {
		t.Fatalf("until did not stop the walk: %+v", sets)
	}
}

func TestRunAuthorFilter(t *testing.T) {
	r := initRepo(t)
	r.commit("bot", map[string]string{"courses.json": `[{"crn": "A", "v": "1"}]`})
	r.commit("human", map[string]string{"courses.json": `[{"crn": "A", "v": "2"}]`})
	r.commit("bot", map[string]string{"courses.json": `[{"crn": "A", "v": "3"}]`})

	sets := runExtract(t, r.dir, Options{PrimaryKey: "crn", Authors: []string{"bot@example.com"}})
	a := sets["courses.json"]["A"]
	if a == nil || len(a.Modified) != 1 {
		t.Fatalf("author filter not applied: %+v", sets)
	}
	if a.Modified[0].Timestamp != at(3) {
		t.Fatalf("wrong commit kept: %+v", a.Modified)
	}
}

func TestRunExtractedHistoryIsConsistent(t *testing.T) {
	// Records reconstructed from a real linear history must replay cleanly
	// through the presence state machine.
	// Root the history at a commit with no snapshots so every add falls
	// inside the observed window.
	r := initRepo(t)
	r.commit("bot", map[string]string{"README.md": "snapshots"})
	r.commit("bot", map[string]string{"courses.json": `[{"crn": "A"}]`})
	r.commit("bot", map[string]string{"courses.json": `[{"crn": "A"}, {"crn": "B"}]`})
	r.commit("bot", map[string]string{"courses.json": `[{"crn": "B", "late": true}]`})
	r.commit("bot", map[string]string{"courses.json": `[]`})

	sets := runExtract(t, r.dir, Options{PrimaryKey: "crn", Include: "*.json"})
	for course, rec := range sets["courses.json"] {
		events, err := model.Timeline(*rec)
		if err != nil {
			t.Fatalf("course %s: %v", course, err)
		}
		model.SortTimeline(events)
		present := false
		for _, ev := range events {
			switch ev.Kind {
			case model.KindAdded:
				if present {
					t.Fatalf("course %s: double add", course)
				}
				present = true
			case model.KindRemoved:
				if !present {
					t.Fatalf("course %s: removed while absent", course)
				}
				present = false
			case model.KindModified:
				if !present {
					t.Fatalf("course %s: modified while absent", course)
				}
			}
		}
	}
}

func TestOpenRejectsMissingPrimaryKey(t *testing.T) {
	if _, err := Open(t.TempDir(), Options{}); err == nil {
		t.Fatal("expected error without primary key")
	}
}

func TestOpenRejectsBadPattern(t *testing.T) {
	if _, err := Open(t.TempDir(), Options{PrimaryKey: "crn", Include: "[broken"}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}
