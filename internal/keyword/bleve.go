package keyword

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// bleveIndexDir is the index directory name inside the store root.
const bleveIndexDir = ".keyword"

// BleveIndex implements Index on a persistent bleve index living inside
// the store. Chunk paths are document ids, so results drop straight into
// fusion next to vector hits.
type BleveIndex struct {
	index bleve.Index
}

// bleveChunk is the document shape handed to bleve.
type bleveChunk struct {
	Content string `json:"content"`
	Domain  string `json:"domain"`
}

// NewBleveIndex opens or creates the index at storeDir/.keyword.
// Use the standard analyzer (lowercase + tokenize, no stemming) so query
// terms match exact words.
func NewBleveIndex(storeDir string) (*BleveIndex, error) {
	path := filepath.Join(storeDir, bleveIndexDir)

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("keyword: open bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	contentMapping := bleve.NewTextFieldMapping()
	contentMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", contentMapping)
	docMapping.AddFieldMappingsAt("domain", bleve.NewKeywordFieldMapping())
	im.AddDocumentMapping("chunk", docMapping)
	im.DefaultType = "chunk"
	im.DefaultMapping = docMapping

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("keyword: create bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Add indexes chunks in one batch.
func (b *BleveIndex) Add(ctx context.Context, chunks []Chunk) error {
	batch := b.index.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(c.Path, bleveChunk{Content: c.Content, Domain: c.Domain}); err != nil {
			return fmt.Errorf("keyword: batch index %s: %w", c.Path, err)
		}
	}
	return b.index.Batch(batch)
}

// Remove deletes chunks by path.
func (b *BleveIndex) Remove(ctx context.Context, paths []string) error {
	batch := b.index.NewBatch()
	for _, p := range paths {
		batch.Delete(p)
	}
	return b.index.Batch(batch)
}

// Search runs a match query over chunk content, optionally restricted to
// one domain.
func (b *BleveIndex) Search(ctx context.Context, query, domain string, limit int) ([]Result, error) {
	match := bleve.NewMatchQuery(query)
	match.SetField("content")

	var q blevequery.Query = match
	if domain != "" {
		dq := bleve.NewTermQuery(domain)
		dq.SetField("domain")
		q = bleve.NewConjunctionQuery(match, dq)
	}

	req := bleve.NewSearchRequest(q)
	if limit <= 0 {
		limit = 10
	}
	req.Size = limit
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword: bleve search: %w", err)
	}
	out := make([]Result, len(res.Hits))
	for i, hit := range res.Hits {
		out[i] = Result{Path: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Close releases the index.
func (b *BleveIndex) Close() error { return b.index.Close() }
