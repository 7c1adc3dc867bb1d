package articles

import "testing"

func TestRankPrefersQueryHits(t *testing.T) {
	list := []Article{
		{Title: "Airport lounge guide", Excerpt: "where to rest between flights"},
		{Title: "Three days in Bali", Excerpt: "beaches and temples in Bali"},
		{Title: "Bali street food", Excerpt: "what to eat in Bali"},
	}
	got := Rank(list, "Bali", 2)
	if len(got) != 2 {
		t.Fatalf("got %d articles, want 2", len(got))
	}
	for _, a := range got {
		if a.Title == "Airport lounge guide" {
			t.Fatalf("non-matching article ranked into the top: %v", got)
		}
	}
}

func TestRankNoQueryKeepsOrder(t *testing.T) {
	list := []Article{{Title: "first"}, {Title: "second"}}
	got := Rank(list, "", 2)
	if got[0].Title != "first" || got[1].Title != "second" {
		t.Fatalf("got %v", got)
	}
}

func TestRankLimit(t *testing.T) {
	list := []Article{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	if got := Rank(list, "a", 0); len(got) != 3 {
		t.Fatalf("zero limit should keep all, got %d", len(got))
	}
	if got := Rank(list, "a", 5); len(got) != 3 {
		t.Fatalf("oversized limit should keep all, got %d", len(got))
	}
}
