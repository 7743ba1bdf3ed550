// Package graph maintains the edge graph layered over the flat-file
// store: a single .edges TSV at the store root recording typed links
// between chunk paths (provenance, citation, similarity).
package graph

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/ragdag/internal/models"
)

// EdgesFilename is the edge file name at the store root.
const EdgesFilename = ".edges"

// Provenance edge types followed by Trace.
const (
	EdgeChunkedFrom = "chunked_from"
	EdgeDerivedVia  = "derived_via"
	EdgeRelatedTo   = "related_to"
	EdgeReferences  = "references"
)

// Edge is one typed, directed link between two store paths. Metadata is
// a free-form annotation such as "similarity=0.8731".
type Edge struct {
	Source   string
	Target   string
	Type     string
	Metadata string
}

// Graph reads and appends the edge file of one store.
type Graph struct {
	storeDir string
}

// New returns a Graph over the store at storeDir.
func New(storeDir string) *Graph {
	return &Graph{storeDir: storeDir}
}

func (g *Graph) edgesPath() string {
	return filepath.Join(g.storeDir, EdgesFilename)
}

// Load reads every edge in file order. A store without an edge file has
// an empty graph, not an error.
func (g *Graph) Load() ([]Edge, error) {
	f, err := os.Open(g.edgesPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("graph: open edges: %w", err)
	}
	defer f.Close()

	var edges []Edge
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue // malformed line, skip rather than fail the whole graph
		}
		e := Edge{Source: fields[0], Target: fields[1], Type: fields[2]}
		if len(fields) > 3 {
			e.Metadata = fields[3]
		}
		edges = append(edges, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("graph: read edges: %w", err)
	}
	return edges, nil
}

// Append adds edges to the file, creating it if needed.
func (g *Graph) Append(edges ...Edge) error {
	if len(edges) == 0 {
		return nil
	}
	for _, e := range edges {
		if err := validateField(e.Source); err != nil {
			return err
		}
		if err := validateField(e.Target); err != nil {
			return err
		}
		if err := validateField(e.Type); err != nil {
			return err
		}
		if err := validateField(e.Metadata); err != nil {
			return err
		}
		if e.Source == "" || e.Target == "" || e.Type == "" {
			return fmt.Errorf("graph: edge needs source, target and type: %+v", e)
		}
	}
	if err := os.MkdirAll(g.storeDir, 0755); err != nil {
		return fmt.Errorf("graph: create store dir: %w", err)
	}
	f, err := os.OpenFile(g.edgesPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("graph: open edges for append: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range edges {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Source, e.Target, e.Type, e.Metadata); err != nil {
			return fmt.Errorf("graph: write edge: %w", err)
		}
	}
	return w.Flush()
}

// Link records one edge from source to target.
func (g *Graph) Link(source, target, edgeType, metadata string) error {
	return g.Append(Edge{Source: source, Target: target, Type: edgeType, Metadata: metadata})
}

// ReplaceChunkedFrom rewrites the provenance edges of one source: every
// existing chunked_from edge pointing at source is dropped, then one is
// recorded per chunk path. Re-ingesting a file therefore never leaves
// edges for chunks that no longer exist.
func (g *Graph) ReplaceChunkedFrom(source string, chunkPaths []string) error {
	edges, err := g.Load()
	if err != nil {
		return err
	}
	kept := edges[:0]
	for _, e := range edges {
		if e.Type == EdgeChunkedFrom && e.Target == source {
			continue
		}
		kept = append(kept, e)
	}
	for _, p := range chunkPaths {
		kept = append(kept, Edge{Source: p, Target: source, Type: EdgeChunkedFrom})
	}

	if err := os.MkdirAll(g.storeDir, 0755); err != nil {
		return fmt.Errorf("graph: create store dir: %w", err)
	}
	var b strings.Builder
	for _, e := range kept {
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\n", e.Source, e.Target, e.Type, e.Metadata)
	}
	if err := os.WriteFile(g.edgesPath(), []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("graph: rewrite edges: %w", err)
	}
	return nil
}

// Neighbors returns every edge incident to node, outgoing first, in file
// order within each direction.
func (g *Graph) Neighbors(node string) ([]models.Neighbor, error) {
	edges, err := g.Load()
	if err != nil {
		return nil, err
	}
	var neighbors []models.Neighbor
	for _, e := range edges {
		if e.Source == node {
			neighbors = append(neighbors, models.Neighbor{
				Direction: "outgoing",
				Node:      e.Target,
				EdgeType:  e.Type,
				Metadata:  e.Metadata,
			})
		}
	}
	for _, e := range edges {
		if e.Target == node {
			neighbors = append(neighbors, models.Neighbor{
				Direction: "incoming",
				Node:      e.Source,
				EdgeType:  e.Type,
				Metadata:  e.Metadata,
			})
		}
	}
	return neighbors, nil
}

// Trace walks provenance edges (chunked_from, derived_via) from node to
// its origins, depth-first, and returns the visited chain. Cycles are
// broken by a visited set. The first step is the node itself.
func (g *Graph) Trace(node string) ([]models.TraceStep, error) {
	edges, err := g.Load()
	if err != nil {
		return nil, err
	}
	outgoing := make(map[string][]Edge)
	for _, e := range edges {
		if e.Type == EdgeChunkedFrom || e.Type == EdgeDerivedVia {
			outgoing[e.Source] = append(outgoing[e.Source], e)
		}
	}

	steps := []models.TraceStep{{Node: node}}
	visited := map[string]bool{node: true}
	stack := []string{node}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range outgoing[current] {
			if visited[e.Target] {
				continue
			}
			visited[e.Target] = true
			steps = append(steps, models.TraceStep{
				Node:     e.Target,
				Parent:   current,
				EdgeType: e.Type,
			})
			stack = append(stack, e.Target)
		}
	}
	return steps, nil
}

// Stats counts domains, documents, chunk files, and edges by type. A
// non-empty domain restricts the corpus counts to that domain and the
// edge counts to edges whose source lives under it.
func (g *Graph) Stats(domainFilter string) (*models.GraphStats, error) {
	stats := &models.GraphStats{EdgeTypes: make(map[string]int)}

	entries, err := os.ReadDir(g.storeDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("graph: read store dir: %w", err)
	}
	for _, domain := range entries {
		if !domain.IsDir() || strings.HasPrefix(domain.Name(), ".") {
			continue
		}
		if domainFilter != "" && domain.Name() != domainFilter {
			continue
		}
		stats.Domains++
		docs, err := os.ReadDir(filepath.Join(g.storeDir, domain.Name()))
		if err != nil {
			continue
		}
		for _, doc := range docs {
			if !doc.IsDir() {
				continue
			}
			stats.Documents++
			chunks, err := os.ReadDir(filepath.Join(g.storeDir, domain.Name(), doc.Name()))
			if err != nil {
				continue
			}
			for _, c := range chunks {
				name := c.Name()
				if !c.IsDir() && strings.HasSuffix(name, ".txt") && !strings.HasPrefix(name, "_") {
					stats.Chunks++
				}
			}
		}
	}

	edges, err := g.Load()
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if domainFilter != "" && !strings.HasPrefix(e.Source, domainFilter+"/") {
			continue
		}
		stats.Edges++
		stats.EdgeTypes[e.Type]++
	}
	return stats, nil
}

func validateField(s string) error {
	if strings.ContainsAny(s, "\t\n\r") {
		return fmt.Errorf("graph: edge field contains tab or newline: %q", s)
	}
	return nil
}
