package search

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/ragdag/internal/embedding"
	"github.com/hyperjump/ragdag/internal/graph"
	"github.com/hyperjump/ragdag/internal/keyword"
	"github.com/hyperjump/ragdag/internal/llm"
)

// recordingProvider captures the context it was asked over.
type recordingProvider struct {
	gotQuestion string
	gotContext  string
}

func (p *recordingProvider) Answer(ctx context.Context, question, contextText string) (string, error) {
	p.gotQuestion = question
	p.gotContext = contextText
	return "generated answer", nil
}

func (p *recordingProvider) Close() error { return nil }

func newTestAsker(t *testing.T, store string, provider llm.Provider, maxContext int) *Asker {
	t.Helper()
	noEmbed, err := embedding.New("none", embedding.Options{Dimensions: 3})
	if err != nil {
		t.Fatal(err)
	}
	engine := NewEngine(store, noEmbed, keyword.NewScanIndex(store), testConfig(), zap.NewNop())
	return NewAsker(engine, graph.New(store), provider, maxContext, zap.NewNop())
}

func TestAskWithoutProvider(t *testing.T) {
	store := t.TempDir()
	writeChunk(t, store, "docs/bayes/00.txt", "bayes theorem relates conditional probabilities")

	none, err := llm.New("none", llm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	a := newTestAsker(t, store, none, 0)
	result, err := a.Ask(context.Background(), "bayes", "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Answer != nil {
		t.Errorf("answer should be nil without a provider, got %q", *result.Answer)
	}
	if !strings.Contains(result.Context, "--- Source: docs/bayes/00.txt") {
		t.Errorf("context = %q", result.Context)
	}
	if len(result.Sources) != 1 || result.Sources[0] != "docs/bayes/00.txt" {
		t.Errorf("sources = %v", result.Sources)
	}
}

func TestAskWithProvider(t *testing.T) {
	store := t.TempDir()
	writeChunk(t, store, "docs/bayes/00.txt", "bayes theorem relates conditional probabilities")

	p := &recordingProvider{}
	a := newTestAsker(t, store, p, 0)
	result, err := a.Ask(context.Background(), "bayes", "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Answer == nil || *result.Answer != "generated answer" {
		t.Errorf("answer = %v", result.Answer)
	}
	if p.gotQuestion != "bayes" || !strings.Contains(p.gotContext, "conditional probabilities") {
		t.Errorf("provider saw question=%q context=%q", p.gotQuestion, p.gotContext)
	}
}

func TestAskExpandsGraphNeighbors(t *testing.T) {
	store := t.TempDir()
	writeChunk(t, store, "docs/hit/00.txt", "keyword match here")
	writeChunk(t, store, "docs/neighbor/00.txt", "pulled in through an edge")

	g := graph.New(store)
	if err := g.Link("docs/hit/00.txt", "docs/neighbor/00.txt", graph.EdgeRelatedTo, "similarity=0.9000"); err != nil {
		t.Fatal(err)
	}

	none, _ := llm.New("none", llm.Options{})
	a := newTestAsker(t, store, none, 0)
	result, err := a.Ask(context.Background(), "keyword", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Sources) != 2 {
		t.Fatalf("sources = %v, want retrieved chunk plus neighbor", result.Sources)
	}
	// Direct hit outranks its decayed neighbor.
	if result.Sources[0] != "docs/hit/00.txt" || result.Sources[1] != "docs/neighbor/00.txt" {
		t.Errorf("sources = %v", result.Sources)
	}
	if !strings.Contains(result.Context, "pulled in through an edge") {
		t.Errorf("neighbor content missing from context: %q", result.Context)
	}
}

func TestAskRespectsContextBudget(t *testing.T) {
	store := t.TempDir()
	writeChunk(t, store, "docs/big/00.txt", strings.Repeat("budget filler words ", 200))
	writeChunk(t, store, "docs/big/01.txt", strings.Repeat("budget filler words ", 200))

	none, _ := llm.New("none", llm.Options{})
	a := newTestAsker(t, store, none, 900) // fits one ~600-word block, not two
	result, err := a.Ask(context.Background(), "budget", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Sources) != 1 {
		t.Errorf("sources = %v, want exactly one block under the budget", result.Sources)
	}
}

func TestAskNoMatches(t *testing.T) {
	none, _ := llm.New("none", llm.Options{})
	a := newTestAsker(t, t.TempDir(), none, 0)
	result, err := a.Ask(context.Background(), "nothing indexed", "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Context != "" || len(result.Sources) != 0 || result.Answer != nil {
		t.Errorf("result = %+v", result)
	}
}
