package models

import "time"

const (
	SideAll     = "All"
	SideRussia  = "Russia"
	SideUkraine = "Ukraine"
	SideUSA     = "USA"
)

const (
	SentimentPositive = "Positive"
	SentimentNeutral  = "Neutral"
	SentimentNegative = "Negative"
)

// Column names every dataset must carry.
const (
	ColPostCreatedTime = "post_created_time"
	ColSide            = "side"
	ColSentiment       = "sentiment"
	ColCleanText       = "clean_text"
)

// Comment is one labeled Reddit comment.
type Comment struct {
	PostCreatedTime time.Time         `json:"post_created_time"`
	Side            string            `json:"side"`
	Sentiment       string            `json:"sentiment"`
	CleanText       *string           `json:"clean_text"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// Text returns the comment text and whether it was present in the source.
func (c *Comment) Text() (string, bool) {
	if c.CleanText == nil {
		return "", false
	}
	return *c.CleanText, true
}

// CommentRow is the sqlite table layout used by the database source.
type CommentRow struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	PostCreatedTime time.Time `json:"post_created_time" gorm:"index"`
	Side            string    `json:"side" gorm:"index"`
	Sentiment       string    `json:"sentiment" gorm:"index"`
	CleanText       *string   `json:"clean_text"`
	ExtraJSON       string    `json:"extra_json"`
}

func (CommentRow) TableName() string { return "comments" }

// ColumnRow records the source CSV header order for the database source.
type ColumnRow struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Position int    `json:"position" gorm:"uniqueIndex"`
	Name     string `json:"name"`
}

func (ColumnRow) TableName() string { return "dataset_columns" }

// SelectableSides lists the side selector options, sentinel first.
func SelectableSides() []string {
	return []string{SideAll, SideRussia, SideUkraine, SideUSA}
}

// Sentiments lists the sentiment labels in selector order.
func Sentiments() []string {
	return []string{SentimentPositive, SentimentNeutral, SentimentNegative}
}

// RequiredColumns lists the columns a dataset cannot be loaded without.
func RequiredColumns() []string {
	return []string{ColPostCreatedTime, ColSide, ColSentiment, ColCleanText}
}
