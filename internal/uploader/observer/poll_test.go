package observer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
}

func pollOnce(t *testing.T, o *PollObserver) []string {
	t.Helper()
	got, err := o.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}
	return got
}

func TestPollObserver_RequiresTwoStablePolls(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dune.m4b")
	writeFile(t, path, 1024)

	o, err := NewPollObserver(dir, []string{".m4b"})
	if err != nil {
		t.Fatal(err)
	}

	if got := pollOnce(t, o); len(got) != 0 {
		t.Errorf("first poll returned %v, want none", got)
	}
	got := pollOnce(t, o)
	if len(got) != 1 || got[0] != path {
		t.Errorf("second poll returned %v, want [%s]", got, path)
	}
}

func TestPollObserver_GrowingFileDeferred(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dune.m4b")
	writeFile(t, path, 1024)

	o, err := NewPollObserver(dir, []string{".m4b"})
	if err != nil {
		t.Fatal(err)
	}

	pollOnce(t, o)
	writeFile(t, path, 2048)

	if got := pollOnce(t, o); len(got) != 0 {
		t.Errorf("grown file reported as candidate: %v", got)
	}
	// Size held since the previous poll; now it is ready.
	got := pollOnce(t, o)
	if len(got) != 1 || got[0] != path {
		t.Errorf("stable file not reported: %v", got)
	}
}

func TestPollObserver_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cover.jpg"), 64)
	writeFile(t, filepath.Join(dir, "notes.txt"), 64)
	writeFile(t, filepath.Join(dir, "book.m4b"), 64)

	o, err := NewPollObserver(dir, []string{".m4b"})
	if err != nil {
		t.Fatal(err)
	}

	pollOnce(t, o)
	got := pollOnce(t, o)
	if len(got) != 1 || filepath.Base(got[0]) != "book.m4b" {
		t.Errorf("got %v, want only book.m4b", got)
	}
}

func TestPollObserver_IgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	processed := filepath.Join(dir, "processed")
	if err := os.Mkdir(processed, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(processed, "done.m4b"), 64)

	o, err := NewPollObserver(dir, []string{".m4b"})
	if err != nil {
		t.Fatal(err)
	}

	pollOnce(t, o)
	if got := pollOnce(t, o); len(got) != 0 {
		t.Errorf("files in subdirectories reported: %v", got)
	}
}

func TestPollObserver_VanishedFileForgotten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.m4b")
	writeFile(t, path, 64)

	o, err := NewPollObserver(dir, []string{".m4b"})
	if err != nil {
		t.Fatal(err)
	}

	pollOnce(t, o)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	if got := pollOnce(t, o); len(got) != 0 {
		t.Errorf("removed file reported: %v", got)
	}
	if _, tracked := o.lastSizes[path]; tracked {
		t.Error("removed file still tracked")
	}
}

func TestPollObserver_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	o, err := NewPollObserver(dir, []string{".m4b"})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := o.PollOnce(ctx); err == nil {
		t.Error("PollOnce with cancelled context should fail")
	}
}

func TestNewPollObserver_RejectsBadPaths(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewPollObserver(filepath.Join(dir, "missing"), []string{".m4b"}); err == nil {
		t.Error("missing directory accepted")
	}

	file := filepath.Join(dir, "file.m4b")
	writeFile(t, file, 1)
	if _, err := NewPollObserver(file, []string{".m4b"}); err == nil {
		t.Error("regular file accepted as watch directory")
	}
}
