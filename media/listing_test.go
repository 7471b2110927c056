package media

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ausocean/utils/logging"
)

func testLister() *Lister {
	return NewLister(logging.New(logging.Debug, &bytes.Buffer{}, true))
}

func TestListFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp4", "a.mov", "notes.txt", "c.MKV"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("WriteFile %s: %v", name, err)
		}
	}

	l := testLister()
	defer l.Close()

	got, err := l.List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"a.mov", "b.mp4", "c.MKV"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestListSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	l := testLister()
	defer l.Close()

	got, err := l.List(path)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0] != "clip.mp4" {
		t.Fatalf("got %v, want [clip.mp4]", got)
	}
}

func TestListMissingDirectory(t *testing.T) {
	l := testLister()
	defer l.Close()

	if _, err := l.List("/nonexistent/directory/path"); err == nil {
		t.Fatal("expected error listing a nonexistent directory")
	}
}

func TestListCachesResult(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.mp4"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	l := testLister()
	defer l.Close()

	got1, err := l.List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	// Writing a new file after the first List should not be reflected
	// until the cache is invalidated by a filesystem notification, since
	// the second List is served from cache.
	if err := os.WriteFile(filepath.Join(dir, "b.mp4"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	got2, err := l.List(dir)
	if err != nil {
		t.Fatalf("List (cached): %v", err)
	}
	if len(got1) != len(got2) {
		t.Fatalf("expected cached result of length %d, got %d", len(got1), len(got2))
	}
}
