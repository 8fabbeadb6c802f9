package catalog

import (
	"path/filepath"
	"testing"

	"github.com/desertthunder/tabx/internal/models"
)

func songs() []models.Song {
	return []models.Song{
		{ID: 1, Title: "Wonderwall", Artist: "Oasis", KeySignature: models.Ptr("F#m"), TabContent: "Em7 G Dsus4 A7sus4\nToday is gonna be the day"},
		{ID: 2, Title: "Hurt", Artist: "Johnny Cash", KeySignature: models.Ptr("Am"), TabContent: "Am C D\nI hurt myself today"},
		{ID: 3, Title: "Zombie", Artist: "The Cranberries", TabContent: "Em C G D\nAnother head hangs lowly"},
	}
}

func openMem(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open("")
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCatalog(t *testing.T) {
	t.Run("IndexAndSearch", func(t *testing.T) {
		c := openMem(t)
		for _, s := range songs() {
			if err := c.Index(s); err != nil {
				t.Fatalf("failed to index: %v", err)
			}
		}

		tests := []struct {
			query string
			want  int64
		}{
			{"wonderwall", 1},
			{"cash", 2},
			{"cranberries", 3},
			{"lowly", 3},
			{"artist:oasis", 1},
		}
		for _, tt := range tests {
			ids, err := c.Search(tt.query, 10)
			if err != nil {
				t.Fatalf("search %q failed: %v", tt.query, err)
			}
			if len(ids) == 0 || ids[0] != tt.want {
				t.Errorf("search %q = %v, want first %d", tt.query, ids, tt.want)
			}
		}
	})

	t.Run("TitleOutranksTab", func(t *testing.T) {
		c := openMem(t)
		c.Index(models.Song{ID: 1, Title: "Something", Artist: "A", TabContent: "hurt hurt hurt"})
		c.Index(models.Song{ID: 2, Title: "Hurt", Artist: "B", TabContent: "nothing here"})

		ids, err := c.Search("hurt", 10)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(ids) != 2 || ids[0] != 2 {
			t.Errorf("expected title match first, got %v", ids)
		}
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		c := openMem(t)
		ids, err := c.Search("   ", 10)
		if err != nil || len(ids) != 0 {
			t.Errorf("expected no results, got %v %v", ids, err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		c := openMem(t)
		for _, s := range songs() {
			c.Index(s)
		}
		if err := c.Remove(2); err != nil {
			t.Fatalf("failed to remove: %v", err)
		}

		ids, _ := c.Search("cash", 10)
		if len(ids) != 0 {
			t.Errorf("expected removed song to be gone, got %v", ids)
		}
		if n, _ := c.Count(); n != 2 {
			t.Errorf("expected 2 docs, got %d", n)
		}
	})

	t.Run("ReindexReplaces", func(t *testing.T) {
		c := openMem(t)
		c.Index(models.Song{ID: 5, Title: "Old Name", Artist: "X", TabContent: "C"})
		c.Index(models.Song{ID: 5, Title: "New Name", Artist: "X", TabContent: "C"})

		if ids, _ := c.Search("old", 10); len(ids) != 0 {
			t.Errorf("expected old title to be replaced, got %v", ids)
		}
		if n, _ := c.Count(); n != 1 {
			t.Errorf("expected 1 doc, got %d", n)
		}
	})

	t.Run("Rebuild", func(t *testing.T) {
		c := openMem(t)
		c.Index(models.Song{ID: 99, Title: "Stale", Artist: "Gone", TabContent: "C"})

		if err := c.Rebuild(songs()); err != nil {
			t.Fatalf("failed to rebuild: %v", err)
		}
		if n, _ := c.Count(); n != 3 {
			t.Errorf("expected 3 docs, got %d", n)
		}
		if ids, _ := c.Search("stale", 10); len(ids) != 0 {
			t.Errorf("expected stale doc to be dropped, got %v", ids)
		}
	})

	t.Run("OnDisk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "songs.bleve")

		c, err := Open(path)
		if err != nil {
			t.Fatalf("failed to create index: %v", err)
		}
		c.Index(songs()[0])
		c.Close()

		reopened, err := Open(path)
		if err != nil {
			t.Fatalf("failed to reopen index: %v", err)
		}
		defer reopened.Close()

		if n, _ := reopened.Count(); n != 1 {
			t.Errorf("expected persisted doc, got %d", n)
		}
	})
}
