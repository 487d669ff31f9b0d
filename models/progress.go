package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Progress is the per-user lifetime score record. Score holds repeating
// "category,correct,possible," triples with a trailing comma, exactly as
// stored ("math,3,5,science,0,0,").
type Progress struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	Score     string    `json:"score" gorm:"size:1024"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User User `json:"user,omitempty"`
}

type CategoryScore struct {
	Score    int `json:"score"`
	Possible int `json:"possible"`
	Percent  int `json:"percent"`
}

// UpdateScore adds the deltas to the stored triple for category,
// rewriting the whole string; a category without a triple gets one
// appended. Applying two updates for the same category in either order
// yields the same result.
func (p *Progress) UpdateScore(category string, score, possible int) {
	parts := strings.Split(p.Score, ",")
	var b strings.Builder
	updated := false

	for i := 0; i+2 < len(parts); i += 3 {
		name := parts[i]
		current, _ := strconv.Atoi(parts[i+1])
		max, _ := strconv.Atoi(parts[i+2])
		if name == category {
			current += score
			max += possible
			updated = true
		}
		fmt.Fprintf(&b, "%s,%d,%d,", name, current, max)
	}

	if !updated {
		fmt.Fprintf(&b, "%s,%d,%d,", category, score, possible)
	}
	p.Score = b.String()
}

// CategoryScores parses the stored triples into a category→score map.
func (p *Progress) CategoryScores() map[string]CategoryScore {
	parts := strings.Split(p.Score, ",")
	scores := make(map[string]CategoryScore)
	for i := 0; i+2 < len(parts); i += 3 {
		name := parts[i]
		if name == "" {
			continue
		}
		score, _ := strconv.Atoi(parts[i+1])
		possible, _ := strconv.Atoi(parts[i+2])
		scores[name] = CategoryScore{
			Score:    score,
			Possible: possible,
			Percent:  ScorePercent(score, possible),
		}
	}
	return scores
}

// EnsureCategories backfills a zero triple for every named category not
// yet present and reports whether the stored string grew.
func (p *Progress) EnsureCategories(names []string) bool {
	existing := p.CategoryScores()
	extended := false
	for _, name := range names {
		if _, ok := existing[name]; ok {
			continue
		}
		p.Score += fmt.Sprintf("%s,0,0,", name)
		extended = true
	}
	return extended
}
