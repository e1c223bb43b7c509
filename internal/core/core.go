package core

import (
	"fmt"
	"strings"
)

// Unknown is the answer used when a 5W1H element cannot be determined from the text.
const Unknown = "알 수 없음"

// Article represents a reading passage the student analyzes.
type Article struct {
	ID       string   `json:"id"`                 // Unique identifier within the article list
	Category string   `json:"category"`           // Subject area (e.g., 과학, 역사)
	Title    string   `json:"title"`              // Title of the article
	Content  string   `json:"content"`            // Body text, paragraphs separated by newlines
	Source   string   `json:"source"`             // Source label shown next to the title
	ReadTime string   `json:"readTime,omitempty"` // Optional read-time or difficulty label
	Keywords []string `json:"keywords"`           // Topic keywords
}

// Field identifies one of the six 5W1H questions.
type Field string

const (
	FieldWho   Field = "who"
	FieldWhen  Field = "when"
	FieldWhere Field = "where"
	FieldWhat  Field = "what"
	FieldHow   Field = "how"
	FieldWhy   Field = "why"
)

var allFields = []Field{FieldWho, FieldWhen, FieldWhere, FieldWhat, FieldHow, FieldWhy}

// AllFields returns the six fields in worksheet order.
func AllFields() []Field {
	fields := make([]Field, len(allFields))
	copy(fields, allFields)
	return fields
}

// ParseField converts a string such as "who" or "WHO" into a Field.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range allFields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown 5W1H field %q", s)
}

// Label returns the Korean question word for the field.
func (f Field) Label() string {
	switch f {
	case FieldWho:
		return "누가"
	case FieldWhen:
		return "언제"
	case FieldWhere:
		return "어디서"
	case FieldWhat:
		return "무엇을"
	case FieldHow:
		return "어떻게"
	case FieldWhy:
		return "왜"
	}
	return string(f)
}

// Hint returns the guiding question printed under an empty answer box.
func (f Field) Hint() string {
	switch f {
	case FieldWho:
		return "이 이야기의 주인공은 누구인가요?"
	case FieldWhen:
		return "사건이 일어난 시간이나 때는 언제인가요?"
	case FieldWhere:
		return "사건이 발생한 장소는 어디인가요?"
	case FieldWhat:
		return "어떤 사건이나 행동이 있었나요?"
	case FieldHow:
		return "어떤 방법이나 과정으로 일어났나요?"
	case FieldWhy:
		return "이 일이 일어난 이유나 원인은 무엇인가요?"
	}
	return ""
}

// W1HAnswers holds the six answers of a worksheet.
type W1HAnswers struct {
	Who   string `json:"who"`
	When  string `json:"when"`
	Where string `json:"where"`
	What  string `json:"what"`
	How   string `json:"how"`
	Why   string `json:"why"`
}

// Get returns the answer for a field.
func (a W1HAnswers) Get(f Field) string {
	switch f {
	case FieldWho:
		return a.Who
	case FieldWhen:
		return a.When
	case FieldWhere:
		return a.Where
	case FieldWhat:
		return a.What
	case FieldHow:
		return a.How
	case FieldWhy:
		return a.Why
	}
	return ""
}

// Set replaces the answer for a field.
func (a *W1HAnswers) Set(f Field, value string) {
	switch f {
	case FieldWho:
		a.Who = value
	case FieldWhen:
		a.When = value
	case FieldWhere:
		a.Where = value
	case FieldWhat:
		a.What = value
	case FieldHow:
		a.How = value
	case FieldWhy:
		a.Why = value
	}
}

// IsEmpty reports whether every answer is blank.
func (a W1HAnswers) IsEmpty() bool {
	for _, f := range allFields {
		if strings.TrimSpace(a.Get(f)) != "" {
			return false
		}
	}
	return true
}

// W1HQuotes holds, per field, verbatim excerpts of the article that support the answer.
type W1HQuotes struct {
	Who   []string `json:"who"`
	When  []string `json:"when"`
	Where []string `json:"where"`
	What  []string `json:"what"`
	How   []string `json:"how"`
	Why   []string `json:"why"`
}

// Get returns the quotes for a field.
func (q W1HQuotes) Get(f Field) []string {
	switch f {
	case FieldWho:
		return q.Who
	case FieldWhen:
		return q.When
	case FieldWhere:
		return q.Where
	case FieldWhat:
		return q.What
	case FieldHow:
		return q.How
	case FieldWhy:
		return q.Why
	}
	return nil
}

// Set replaces the quotes for a field.
func (q *W1HQuotes) Set(f Field, quotes []string) {
	switch f {
	case FieldWho:
		q.Who = quotes
	case FieldWhen:
		q.When = quotes
	case FieldWhere:
		q.Where = quotes
	case FieldWhat:
		q.What = quotes
	case FieldHow:
		q.How = quotes
	case FieldWhy:
		q.Why = quotes
	}
}

// All returns every quote in field order.
func (q W1HQuotes) All() []string {
	var all []string
	for _, f := range allFields {
		all = append(all, q.Get(f)...)
	}
	return all
}

// Clone returns a deep copy. Nil lists become empty lists.
func (q W1HQuotes) Clone() W1HQuotes {
	var c W1HQuotes
	for _, f := range allFields {
		src := q.Get(f)
		dst := make([]string, len(src))
		copy(dst, src)
		c.Set(f, dst)
	}
	return c
}

// AnalysisResult is the outcome of an AI 5W1H analysis.
type AnalysisResult struct {
	Answers W1HAnswers `json:"answers"`
	Quotes  W1HQuotes  `json:"quotes"`
}

// SavedDocument is a completed worksheet kept in the user's archive.
type SavedDocument struct {
	ID           int64      `json:"id"`           // Timestamp-derived identifier, strictly increasing
	Date         string     `json:"date"`         // Creation date as displayed to the user
	ArticleTitle string     `json:"articleTitle"` // Title of the article at save time
	Answers      W1HAnswers `json:"answers"`      // Copy of the worksheet answers at save time
}

// Difficulty controls reading level and length of generated or analyzed content.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties returns all levels from easiest to hardest.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// ParseDifficulty converts user input to a Difficulty. Empty input means medium.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DifficultyMedium, nil
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q (want easy, medium or hard)", s)
}

// Valid reports whether d is one of the known levels.
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Label returns the read-time label attached to generated articles.
func (d Difficulty) Label() string {
	switch d {
	case DifficultyEasy:
		return "쉬움"
	case DifficultyHard:
		return "어려움"
	}
	return "보통"
}

// Next cycles to the following difficulty, wrapping from hard to easy.
func (d Difficulty) Next() Difficulty {
	switch d {
	case DifficultyEasy:
		return DifficultyMedium
	case DifficultyMedium:
		return DifficultyHard
	}
	return DifficultyEasy
}
