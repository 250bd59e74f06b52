package api

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"
)

// ID is an opaque identifier that may arrive as a JSON string or number.
type ID string

// UnmarshalJSON accepts both "12" and 12.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier as used in URLs and data attributes.
func (id ID) String() string { return string(id) }

type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// RateResult is the server's answer to a rating.
type RateResult struct {
	AverageRating *float64 `json:"average_rating"`
	RatingCount   *int     `json:"rating_count"`
}

// DownloadResult is the server's answer to a download count.
type DownloadResult struct {
	Downloads *int `json:"downloads"`
}

// Comment is a newly created comment.
type Comment struct {
	ID        ID     `json:"id"`
	User      string `json:"user"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// VoteResult holds the refreshed vote counts of a comment.
type VoteResult struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// Suggestion is one search-as-you-type entry.
type Suggestion struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// BulkResult is the server's answer to a bulk admin action.
type BulkResult struct {
	Processed int    `json:"processed"`
	Message   string `json:"message"`
}

// VoteType is the kind of vote cast on a comment.
type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

// Valid reports whether v is a known vote type.
func (v VoteType) Valid() bool {
	return v == Upvote || v == Downvote
}

func itoa(n int) string { return strconv.Itoa(n) }
