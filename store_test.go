package main

import (
	"errors"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveAndGet(t *testing.T) {
	s := openTestStore(t)
	result := AssembleResult("https://blog.example.com/post", ResourceAggregate{RequestCount: 1, HTML: 4096})

	rec, err := s.SaveResult(*result)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.ID == "" || rec.Site != "example.com" {
		t.Fatalf("unexpected record %+v", rec)
	}

	got, err := s.GetResult(rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Result.URL != result.URL || got.Result.Resources.HTML != 4 {
		t.Errorf("result did not round trip: %+v", got.Result)
	}
	if len(got.Result.Suggestions) != len(result.Suggestions) {
		t.Errorf("expected %d suggestions, got %d", len(result.Suggestions), len(got.Result.Suggestions))
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetResult("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_List(t *testing.T) {
	s := openTestStore(t)
	for _, u := range []string{"https://a.com/1", "https://b.org/", "https://www.a.com/2"} {
		if _, err := s.SaveResult(*AssembleResult(u, ResourceAggregate{})); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ListResults("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if all[0].Result.URL != "https://www.a.com/2" {
		t.Errorf("expected newest first, got %q", all[0].Result.URL)
	}

	onlyA, err := s.ListResults("A.com", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(onlyA) != 2 {
		t.Errorf("expected 2 records for a.com, got %d", len(onlyA))
	}

	limited, err := s.ListResults("", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}

	none, err := s.ListResults("missing.net", 0)
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected an empty, non-nil list, got %#v", none)
	}
}

func TestSiteOf(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.bbc.co.uk/news", "bbc.co.uk"},
		{"https://Example.COM/", "example.com"},
		{"https://a.b.example.com", "example.com"},
		{"http://localhost:8080", "localhost"},
		{"http://127.0.0.1/", "127.0.0.1"},
	}
	for _, tt := range tests {
		if got := siteOf(tt.url); got != tt.want {
			t.Errorf("siteOf(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
