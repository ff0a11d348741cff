package history

import (
	"testing"
	"time"

	"github.com/rowdy-raedon/V2T/internal/types"
)

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	store, err := Open(dir, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return store
}

func phraseAt(id, text string, ts int64) types.Phrase {
	return types.Phrase{
		ID:        id,
		Text:      text,
		Language:  "en-US",
		Duration:  1200,
		Timestamp: ts,
	}
}

func TestAppendAndRecent(t *testing.T) {
	store := openTestStore(t, t.TempDir())
	defer store.Close()

	phrases := []types.Phrase{
		phraseAt("a", "first", 1000),
		phraseAt("b", "second", 2000),
		phraseAt("c", "third", 3000),
	}
	for _, p := range phrases {
		if err := store.Append(p); err != nil {
			t.Fatalf("Append(%q) error = %v", p.Text, err)
		}
	}

	got, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	wantTexts := []string{"third", "second", "first"}
	if len(got) != len(wantTexts) {
		t.Fatalf("Recent() returned %d phrases, want %d", len(got), len(wantTexts))
	}
	for i, want := range wantTexts {
		if got[i].Text != want {
			t.Errorf("Recent()[%d].Text = %q, want %q", i, got[i].Text, want)
		}
	}
	if got[0] != phrases[2] {
		t.Errorf("Recent()[0] = %+v, want %+v", got[0], phrases[2])
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	store := openTestStore(t, t.TempDir())
	defer store.Close()

	for i := int64(0); i < 5; i++ {
		if err := store.Append(phraseAt(string(rune('a'+i)), "text", 1000+i)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Recent(2) returned %d phrases, want 2", len(got))
	}
}

func TestRecentEmptyStore(t *testing.T) {
	store := openTestStore(t, t.TempDir())
	defer store.Close()

	got, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Recent() on empty store returned %d phrases", len(got))
	}
}

func TestClear(t *testing.T) {
	store := openTestStore(t, t.TempDir())
	defer store.Close()

	if err := store.Append(phraseAt("a", "gone soon", 1000)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	got, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Recent() after Clear returned %d phrases", len(got))
	}
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()

	store := openTestStore(t, dir)
	if err := store.Append(phraseAt("a", "survives restart", 1000)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	store = openTestStore(t, dir)
	defer store.Close()

	got, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 || got[0].Text != "survives restart" {
		t.Errorf("Recent() after reopen = %+v, want the stored phrase", got)
	}
}
