// Package catalog maintains a full-text index of songs.
//
// The index stores only what is needed to find a song (title, artist, key and tab text) under the song's
// numeric ID. Callers resolve the returned IDs through the song repository, which stays the source of truth.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/desertthunder/tabx/internal/models"
)

const DefaultLimit = 50

// scanBatch bounds the number of hits fetched per page while walking the whole index.
const scanBatch = 1000

// songDoc is the indexed form of a song.
type songDoc struct {
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	KeySignature string `json:"key_signature"`
	TabContent   string `json:"tab_content"`
}

// Catalog wraps a bleve index. It is safe for concurrent use.
type Catalog struct {
	index bleve.Index
}

// Open opens the index at path, creating it when missing. An empty path keeps the index in memory.
func Open(path string) (*Catalog, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory index: %w", err)
		}
		return &Catalog{index: index}, nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		index, err := bleve.New(path, newMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create index at %s: %w", path, err)
		}
		return &Catalog{index: index}, nil
	}

	index, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index at %s: %w", path, err)
	}
	return &Catalog{index: index}, nil
}

func newMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Store = false

	key := bleve.NewKeywordFieldMapping()
	key.Store = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("artist", text)
	doc.AddFieldMappingsAt("tab_content", text)
	doc.AddFieldMappingsAt("key_signature", key)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func toDoc(s models.Song) songDoc {
	doc := songDoc{Title: s.Title, Artist: s.Artist, TabContent: s.TabContent}
	if s.KeySignature != nil {
		doc.KeySignature = *s.KeySignature
	}
	return doc
}

// Index adds or replaces a song.
func (c *Catalog) Index(s models.Song) error {
	if err := c.index.Index(docID(s.ID), toDoc(s)); err != nil {
		return fmt.Errorf("failed to index song %d: %w", s.ID, err)
	}
	return nil
}

// Remove deletes a song from the index. Removing an unknown ID is not an error.
func (c *Catalog) Remove(id int64) error {
	if err := c.index.Delete(docID(id)); err != nil {
		return fmt.Errorf("failed to remove song %d: %w", id, err)
	}
	return nil
}

// Rebuild replaces the whole index content with songs.
func (c *Catalog) Rebuild(songs []models.Song) error {
	ids, err := c.allIDs()
	if err != nil {
		return err
	}

	batch := c.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	for _, s := range songs {
		if err := batch.Index(docID(s.ID), toDoc(s)); err != nil {
			return fmt.Errorf("failed to batch song %d: %w", s.ID, err)
		}
	}

	if err := c.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}
	return nil
}

// Search returns matching song IDs, best match first. Input containing a field prefix such as "artist:dylan"
// is parsed with the bleve query string syntax; anything else is matched loosely against every field.
func (c *Catalog) Search(input string, limit int) ([]int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return []int64{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(input), limit, 0, false)
	res, err := c.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	ids := make([]int64, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func buildQuery(input string) query.Query {
	if strings.Contains(input, ":") {
		return bleve.NewQueryStringQuery(input)
	}

	title := bleve.NewMatchQuery(input)
	title.SetField("title")
	title.SetBoost(3)
	title.SetFuzziness(1)

	artist := bleve.NewMatchQuery(input)
	artist.SetField("artist")
	artist.SetBoost(2)
	artist.SetFuzziness(1)

	tab := bleve.NewMatchQuery(input)
	tab.SetField("tab_content")

	key := bleve.NewTermQuery(input)
	key.SetField("key_signature")

	return bleve.NewDisjunctionQuery(title, artist, tab, key)
}

// Count returns the number of indexed songs.
func (c *Catalog) Count() (uint64, error) {
	return c.index.DocCount()
}

// Close releases the index.
func (c *Catalog) Close() error {
	return c.index.Close()
}

func (c *Catalog) allIDs() ([]string, error) {
	var ids []string
	for from := 0; ; from += scanBatch {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), scanBatch, from, false)
		res, err := c.index.Search(req)
		if err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}
		if len(res.Hits) < scanBatch {
			return ids, nil
		}
	}
}
