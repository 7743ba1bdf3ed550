package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/ragdag/internal/config"
	"github.com/hyperjump/ragdag/internal/embedding"
	"github.com/hyperjump/ragdag/internal/embeddings"
	"github.com/hyperjump/ragdag/internal/extract"
	"github.com/hyperjump/ragdag/internal/graph"
	"github.com/hyperjump/ragdag/internal/keyword"
	"github.com/hyperjump/ragdag/internal/models"
	"github.com/hyperjump/ragdag/internal/storage"
)

// DomainRulesFilename is the pattern-to-domain routing file at the store root.
const DomainRulesFilename = ".domain-rules"

// DefaultDomain receives documents added without an explicit domain.
const DefaultDomain = "default"

// unsortedDomain receives auto-routed documents no rule matched.
const unsortedDomain = "unsorted"

var sanitizeRe = regexp.MustCompile(`[^a-z0-9._-]`)

// Indexer runs the ingest pipeline.
type Indexer struct {
	cfg          *config.Config
	extractor    *extract.Extractor
	ledger       *storage.Ledger
	graph        *graph.Graph
	embedder     embedding.Embedder
	keywordIndex keyword.Index
	logger       *zap.Logger
}

// NewIndexer wires an Indexer over the store described by cfg.
func NewIndexer(
	cfg *config.Config,
	ledger *storage.Ledger,
	g *graph.Graph,
	embedder embedding.Embedder,
	keywordIndex keyword.Index,
	logger *zap.Logger,
) *Indexer {
	return &Indexer{
		cfg:          cfg,
		extractor:    extract.NewExtractor(),
		ledger:       ledger,
		graph:        g,
		embedder:     embedder,
		keywordIndex: keywordIndex,
		logger:       logger,
	}
}

// AddPath ingests a file or directory tree. Dotfiles and .git/.ragdag
// subtrees are skipped; files already in the ledger with an unchanged
// hash are counted as skipped. Domain "auto" routes each file through
// the .domain-rules file.
func (ix *Indexer) AddPath(ctx context.Context, path, domain string) (*models.IngestReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("path not found: %w", err)
	}

	var files []string
	if info.IsDir() {
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if p != path && (strings.HasPrefix(name, ".") || name == ".git" || name == ".ragdag") {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(name, ".") {
				return nil
			}
			files = append(files, p)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", path, err)
		}
	} else {
		files = []string{path}
	}

	batchID := uuid.NewString()
	report := &models.IngestReport{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := ix.ingestFile(ctx, file, domain, batchID, report); err != nil {
			return report, fmt.Errorf("ingest %s: %w", file, err)
		}
	}
	return report, nil
}

// AddText ingests inline content under a synthetic source id, as the
// HTTP add endpoint does. An empty title gets a generated document name.
func (ix *Indexer) AddText(ctx context.Context, title, content, domain string) (*models.IngestReport, error) {
	doc := sanitizeName(title)
	if doc == "" {
		doc = "doc-" + uuid.NewString()[:8]
	}
	report := &models.IngestReport{}
	source := "inline:" + doc
	hash := hashBytes([]byte(content))

	seen, err := ix.ledger.Seen(ctx, source, hash)
	if err != nil {
		return nil, err
	}
	if seen {
		report.Skipped++
		return report, nil
	}

	dom := ix.resolveDomain(domain, source)
	chunks := ix.chunk(content, ix.cfg.General.ChunkStrategy)
	if err := ix.store(ctx, source, hash, dom, doc, chunks, uuid.NewString(), report); err != nil {
		return nil, err
	}
	return report, nil
}

func (ix *Indexer) ingestFile(ctx context.Context, file, domain, batchID string, report *models.IngestReport) error {
	absPath, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}
	hash := hashBytes(content)

	seen, err := ix.ledger.Seen(ctx, absPath, hash)
	if err != nil {
		return err
	}
	if seen {
		report.Skipped++
		return nil
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	text, err := ix.extractor.ExtractBytes(content, ext)
	if err != nil {
		// A file that fails structured extraction is still worth indexing
		// as raw text.
		ix.logger.Warn("extraction failed, indexing raw bytes",
			zap.String("file", absPath),
			zap.Error(err))
		text = strings.ToValidUTF8(string(content), "�")
	}

	doc := sanitizeName(strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath)))
	if doc == "" {
		doc = "document"
	}
	dom := ix.resolveDomain(domain, absPath)
	chunks := ix.chunk(text, StrategyForFile(ext, ix.cfg.General.ChunkStrategy))

	return ix.store(ctx, absPath, hash, dom, doc, chunks, batchID, report)
}

// store writes chunks and updates every index that tracks them.
func (ix *Indexer) store(ctx context.Context, source, hash, dom, doc string, chunks []string, batchID string, report *models.IngestReport) error {
	paths, err := storage.WriteChunks(ix.cfg.StoreDir, dom, doc, chunks)
	if err != nil {
		return err
	}
	if err := ix.graph.ReplaceChunkedFrom(source, paths); err != nil {
		return err
	}
	if err := ix.ledger.Record(ctx, storage.ProcessedFile{
		Path:    source,
		SHA256:  hash,
		Domain:  dom,
		BatchID: batchID,
	}); err != nil {
		return err
	}

	kwChunks := make([]keyword.Chunk, len(chunks))
	for i := range chunks {
		kwChunks[i] = keyword.Chunk{Path: paths[i], Domain: dom, Content: chunks[i]}
	}
	if err := ix.keywordIndex.Add(ctx, kwChunks); err != nil {
		return err
	}

	ix.embedChunks(ctx, dom, paths, chunks)

	report.Files++
	report.Chunks += len(chunks)
	return nil
}

// embedChunks appends chunk vectors to the domain collection. Embedding
// failures are logged and do not block ingest; the chunks stay
// keyword-searchable and a later re-add picks them up.
func (ix *Indexer) embedChunks(ctx context.Context, dom string, paths, chunks []string) {
	if !embedding.Enabled(ix.embedder) {
		return
	}
	var texts []string
	var embedPaths []string
	for i, c := range chunks {
		if strings.TrimSpace(c) == "" {
			continue
		}
		texts = append(texts, c)
		embedPaths = append(embedPaths, paths[i])
	}
	if len(texts) == 0 {
		return
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		ix.logger.Warn("embedding failed, chunks stored without vectors",
			zap.String("domain", dom),
			zap.Error(err))
		return
	}
	stats, err := embeddings.Merge(
		filepath.Join(ix.cfg.StoreDir, dom),
		vectors, embedPaths,
		ix.embedder.Dimensions(),
		ix.cfg.Embedding.Model,
		true,
	)
	if err != nil {
		ix.logger.Warn("embedding merge failed",
			zap.String("domain", dom),
			zap.Error(err))
		return
	}
	if stats.LoadErr != nil {
		ix.logger.Warn("existing embeddings unreadable, collection rebuilt from this batch",
			zap.String("domain", dom),
			zap.Error(stats.LoadErr))
	}
	if stats.ModelChanged {
		ix.logger.Warn("embedding model changed, collection hash updated",
			zap.String("domain", dom),
			zap.String("model", ix.cfg.Embedding.Model))
	}
}

func (ix *Indexer) chunk(text, strategy string) []string {
	chunks := ChunkText(text, strategy, ix.cfg.General.ChunkSize, ix.cfg.General.ChunkOverlap)
	if len(chunks) == 0 {
		chunks = []string{text}
	}
	return chunks
}

// resolveDomain maps the caller's domain argument to a store directory:
// explicit names pass through, "auto" consults .domain-rules, and empty
// falls back to the default domain.
func (ix *Indexer) resolveDomain(domain, sourcePath string) string {
	switch domain {
	case "":
		return DefaultDomain
	case "auto":
		if d := ix.domainFromRules(sourcePath); d != "" {
			return d
		}
		return unsortedDomain
	default:
		return domain
	}
}

// domainFromRules matches sourcePath against the .domain-rules file.
// Each rule line is "pattern [pattern...] → domain"; the first pattern
// found as a substring of the lowercased path wins.
func (ix *Indexer) domainFromRules(sourcePath string) string {
	raw, err := os.ReadFile(filepath.Join(ix.cfg.StoreDir, DomainRulesFilename))
	if err != nil {
		return ""
	}
	sourceLower := strings.ToLower(sourcePath)
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns, domain, found := strings.Cut(line, "→")
		if !found {
			continue
		}
		domain = strings.TrimSpace(domain)
		if domain == "" {
			continue
		}
		for _, pattern := range strings.Fields(patterns) {
			if strings.Contains(sourceLower, strings.ToLower(pattern)) {
				return domain
			}
		}
	}
	return ""
}

func sanitizeName(name string) string {
	return sanitizeRe.ReplaceAllString(strings.ToLower(name), "")
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
