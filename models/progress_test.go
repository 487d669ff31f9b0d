package models

import "testing"

func TestUpdateScoreRewritesTriple(t *testing.T) {
	p := Progress{Score: "math,3,5,"}

	p.UpdateScore("math", 2, 3)
	if p.Score != "math,5,8," {
		t.Fatalf("score = %q, want %q", p.Score, "math,5,8,")
	}
}

func TestUpdateScoreAppendsNewCategory(t *testing.T) {
	p := Progress{Score: "math,3,5,"}

	p.UpdateScore("science", 1, 1)
	if p.Score != "math,3,5,science,1,1," {
		t.Fatalf("score = %q, want %q", p.Score, "math,3,5,science,1,1,")
	}

	var empty Progress
	empty.UpdateScore("math", 0, 1)
	if empty.Score != "math,0,1," {
		t.Fatalf("score = %q, want %q", empty.Score, "math,0,1,")
	}
}

func TestUpdateScoreOrderIndependent(t *testing.T) {
	a := Progress{Score: "math,3,5,science,2,4,"}
	b := Progress{Score: "math,3,5,science,2,4,"}

	a.UpdateScore("math", 1, 1)
	a.UpdateScore("math", 0, 2)

	b.UpdateScore("math", 0, 2)
	b.UpdateScore("math", 1, 1)

	if a.Score != b.Score {
		t.Fatalf("order dependent: %q vs %q", a.Score, b.Score)
	}
	if a.Score != "math,4,8,science,2,4," {
		t.Fatalf("score = %q, want %q", a.Score, "math,4,8,science,2,4,")
	}
}

func TestCategoryScores(t *testing.T) {
	p := Progress{Score: "math,3,5,science,0,0,"}

	scores := p.CategoryScores()
	if len(scores) != 2 {
		t.Fatalf("category count = %d, want 2", len(scores))
	}
	if got := scores["math"]; got != (CategoryScore{Score: 3, Possible: 5, Percent: 60}) {
		t.Fatalf("math = %+v, want {3 5 60}", got)
	}
	if got := scores["science"]; got != (CategoryScore{}) {
		t.Fatalf("science = %+v, want zero triple with percent 0", got)
	}
}

func TestEnsureCategoriesBackfills(t *testing.T) {
	p := Progress{Score: "math,3,5,"}

	extended := p.EnsureCategories([]string{"math", "science"})
	if !extended {
		t.Fatal("expected extension for the missing category")
	}
	if p.Score != "math,3,5,science,0,0," {
		t.Fatalf("score = %q, want %q", p.Score, "math,3,5,science,0,0,")
	}

	if p.EnsureCategories([]string{"math", "science"}) {
		t.Fatal("second pass must not extend again")
	}
}

func TestScorePercentRounding(t *testing.T) {
	cases := []struct {
		score, possible, want int
	}{
		{2, 3, 67},
		{1, 3, 33},
		{3, 5, 60},
		{0, 0, 0},
		{5, 0, 0},
		{3, 3, 100},
	}
	for _, tc := range cases {
		if got := ScorePercent(tc.score, tc.possible); got != tc.want {
			t.Fatalf("ScorePercent(%d, %d) = %d, want %d", tc.score, tc.possible, got, tc.want)
		}
	}
}
