package knowledge

import (
	"sync"
	"testing"
)

func TestInMemoryStore_StoreSearchDelete(t *testing.T) {
	s := NewInMemoryStore()

	for _, title := range []string{"Bali beaches", "Bali food", "Jakarta museums"} {
		if _, err := s.Store(Articles, Entry{Title: title, Content: title + " guide"}); err != nil {
			t.Fatalf("store failed: %v", err)
		}
	}

	all, err := s.Search(Articles, "", 10)
	if err != nil {
		t.Fatalf("search all failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 results, got %d", len(all))
	}

	res, _ := s.Search(Articles, "bali food", 5)
	if len(res) != 2 {
		t.Fatalf("expected 2 matches, got %#v", res)
	}
	if res[0].Title != "Bali food" || res[0].Score != 1.0 {
		t.Fatalf("expected full match first, got %#v", res[0])
	}

	limited, _ := s.Search(Articles, "", 1)
	if len(limited) != 1 {
		t.Fatalf("expected limit 1, got %d", len(limited))
	}

	if err := s.Delete(Articles, res[0].ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := s.Delete(Articles, res[0].ID); err == nil {
		t.Fatalf("expected error deleting twice")
	}
	if s.Len(Articles) != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len(Articles))
	}
}

func TestInMemoryStore_UnknownCollection(t *testing.T) {
	s := NewInMemoryStore()

	res, err := s.Search("nope", "x", 3)
	if err != nil || len(res) != 0 {
		t.Fatalf("expected empty result, got %#v %v", res, err)
	}

	if _, err := s.Store("", Entry{}); err == nil {
		t.Fatalf("expected error for empty collection")
	}
}

func TestInMemoryStore_MetadataIsolation(t *testing.T) {
	s := NewInMemoryStore()
	md := map[string]any{"k": "v"}

	id, _ := s.Store(General, Entry{Title: "t", Metadata: md})
	md["k"] = "changed"

	res, _ := s.Search(General, "", 1)
	if res[0].ID != id || res[0].Metadata["k"] != "v" {
		t.Fatalf("expected isolated metadata, got %#v", res[0].Metadata)
	}
}

func TestSeed(t *testing.T) {
	s := NewInMemoryStore()
	if err := Seed(s); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	res, _ := s.Search(Currency, "USD to IDR", 1)
	if len(res) != 1 || res[0].Title != "USD to IDR" {
		t.Fatalf("expected USD entry, got %#v", res)
	}
}

func TestInMemoryStore_Concurrency(t *testing.T) {
	s := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Store(General, Entry{ID: "", Title: "x"})
			_, _ = s.Search(General, "x", 5)
		}()
	}
	wg.Wait()
}
