package models

import "testing"

func TestSearchQueryValidate(t *testing.T) {
	q := &SearchQuery{Query: "hello"}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.Mode != ModeHybrid {
		t.Errorf("mode = %s, want hybrid default", q.Mode)
	}
	if q.TopK != 10 {
		t.Errorf("top_k = %d, want 10 default", q.TopK)
	}
}

func TestSearchQueryValidateRejects(t *testing.T) {
	if err := (&SearchQuery{}).Validate(); err == nil {
		t.Error("empty query should fail validation")
	}
	if err := (&SearchQuery{Query: "x", Mode: "fuzzy"}).Validate(); err == nil {
		t.Error("unknown mode should fail validation")
	}
}

func TestSearchQueryValidateClampsTopK(t *testing.T) {
	q := &SearchQuery{Query: "x", TopK: 5000}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	if q.TopK != 100 {
		t.Errorf("top_k = %d, want clamped to 100", q.TopK)
	}
}
