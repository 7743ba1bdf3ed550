package llm

import (
	"context"
	"errors"
	"testing"
)

func TestNoneProvider(t *testing.T) {
	p, err := New("none", Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if Enabled(p) {
		t.Error("none provider should not be enabled")
	}
	if _, err := p.Answer(context.Background(), "q", "ctx"); !errors.Is(err, ErrNoProvider) {
		t.Errorf("err = %v, want ErrNoProvider", err)
	}
}

func TestUnknownProvider(t *testing.T) {
	if _, err := New("gpt-unknown", Options{}); err == nil {
		t.Error("unknown provider should fail")
	}
}

type echoProvider struct{}

func (echoProvider) Answer(ctx context.Context, question, contextText string) (string, error) {
	return "echo: " + question, nil
}

func (echoProvider) Close() error { return nil }

func TestRegisterCustomProvider(t *testing.T) {
	Register("echo", func(opts Options) (Provider, error) { return echoProvider{}, nil })

	p, err := New("echo", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !Enabled(p) {
		t.Error("custom provider should be enabled")
	}
	answer, err := p.Answer(context.Background(), "hello", "")
	if err != nil || answer != "echo: hello" {
		t.Errorf("answer = %q, err = %v", answer, err)
	}
}
