package models

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

type Category struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Quizzes   []Quiz     `json:"quizzes,omitempty" gorm:"foreignKey:CategoryID"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:CategoryID"`
}

// NormalizeCategoryName collapses whitespace runs to dashes and lowercases,
// so "Machine Learning" and "machine  learning" resolve to the same category.
func NormalizeCategoryName(name string) string {
	return strings.ToLower(whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "-"))
}

func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.Name = NormalizeCategoryName(c.Name)
	return nil
}
