package storage

import (
	"testing"

	"snowboardAnalyze/core"
)

func seedStore() *MemoryTipStore {
	s := &MemoryTipStore{}
	s.Upsert([]core.CoachingTip{
		{Phase: "takeoff", Title: "Pop off both feet", Text: "Extend both legs together at takeoff so the board leaves the snow flat."},
		{Phase: "landing", Title: "Absorb with the knees", Text: "Bend knees and ankles on landing to absorb impact and keep the board running."},
		{Phase: "setup_carve", Title: "Commit to the edge", Text: "Set the setup carve edge early and hold it, a late edge change kills pop."},
	})
	return s
}

func TestMemoryTipStoreUpsertAndSearch(t *testing.T) {
	s := seedStore()

	hits := s.Search("how do I absorb the landing impact", 2)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Phase != "landing" {
		t.Errorf("top hit phase = %s, want landing", hits[0].Phase)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("hits not sorted by score: %v then %v", hits[0].Score, hits[1].Score)
	}
}

func TestMemoryTipStoreTopKClamping(t *testing.T) {
	s := seedStore()

	if hits := s.Search("edge", 100); len(hits) != 3 {
		t.Errorf("topK beyond corpus: got %d hits, want 3", len(hits))
	}
	// non-positive topK falls back to the default cap
	if hits := s.Search("edge", 0); len(hits) != 3 {
		t.Errorf("topK 0: got %d hits, want 3", len(hits))
	}
}

func TestMemoryTipStoreEmpty(t *testing.T) {
	s := &MemoryTipStore{}
	if hits := s.Search("anything", 5); len(hits) != 0 {
		t.Errorf("got %d hits from empty store, want 0", len(hits))
	}
}

func TestEmbedTextCosine(t *testing.T) {
	a := embedText("bend the knees on landing")
	if cosine(a, a) < 0.999 {
		t.Errorf("self-similarity = %v, want ~1", cosine(a, a))
	}

	b := embedText("bend knees when landing")
	c := embedText("grab the board in the air")
	if cosine(a, b) <= cosine(a, c) {
		t.Errorf("related text scored %v, unrelated %v; want related higher", cosine(a, b), cosine(a, c))
	}
}

func TestSynthesizeAdviceFallback(t *testing.T) {
	hits := []core.TipHit{
		{Score: 0.9, Phase: "landing", Title: "Absorb with the knees", Text: "Bend knees on impact."},
	}
	got := synthesizeAdviceSimple(hits)
	if got == "" {
		t.Fatal("synthesizeAdviceSimple returned empty advice")
	}

	if got := synthesizeAdviceSimple(nil); got == "" {
		t.Error("advice for zero hits should still say something")
	}
}
