package store

import (
	"errors"
	"time"
)

// Item types understood by the moderation actions.
const (
	TypeMaterial = "material"
	TypeComment  = "comment"
	TypePost     = "post"
	TypeSubject  = "subject"
)

// Moderation states.
const (
	StatusApproved = "approved"
	StatusPending  = "pending"
	StatusRejected = "rejected"
)

// PageSize is the number of materials on one listing page.
const PageSize = 6

// MaxSuggestions caps the autocomplete answer.
const MaxSuggestions = 10

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrInvalidVote   = errors.New("invalid vote type")
	ErrEmptyComment  = errors.New("comment content is required")
	ErrInvalidAction = errors.New("invalid action")
	ErrInvalidType   = errors.New("invalid item type")
	ErrNoItems       = errors.New("no items selected")
	ErrUserRequired  = errors.New("user is required")
)

// Subject is a course that materials and posts belong to.
type Subject struct {
	Code        string `yaml:"code" json:"code"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// Material is an uploaded study resource.
type Material struct {
	ID          int       `yaml:"id" json:"id"`
	Title       string    `yaml:"title" json:"title"`
	Description string    `yaml:"description" json:"description"`
	Type        string    `yaml:"type" json:"type"`
	Subject     string    `yaml:"subject" json:"subject"`
	FileName    string    `yaml:"file_name" json:"fileName"`
	FileSize    int64     `yaml:"file_size" json:"fileSize"`
	Tags        []string  `yaml:"tags" json:"tags,omitempty"`
	UploadedBy  string    `yaml:"uploaded_by" json:"uploadedBy"`
	Status      string    `yaml:"status" json:"status"`
	Featured    bool      `yaml:"featured" json:"featured,omitempty"`
	Downloads   int       `yaml:"downloads" json:"downloads"`
	Views       int       `yaml:"views" json:"views"`
	UploadedAt  time.Time `yaml:"uploaded_at" json:"uploadedAt"`
}

// Comment is a remark left on a material.
type Comment struct {
	ID         int       `yaml:"id" json:"id"`
	MaterialID int       `yaml:"material" json:"materialId"`
	User       string    `yaml:"user" json:"user"`
	Content    string    `yaml:"content" json:"content"`
	Status     string    `yaml:"status" json:"status"`
	Reported   bool      `yaml:"reported" json:"reported,omitempty"`
	CreatedAt  time.Time `yaml:"created_at" json:"createdAt"`
}

// Post is a forum entry.
type Post struct {
	ID        int       `yaml:"id" json:"id"`
	Title     string    `yaml:"title" json:"title"`
	Content   string    `yaml:"content" json:"content"`
	Type      string    `yaml:"type" json:"type"`
	Subject   string    `yaml:"subject" json:"subject,omitempty"`
	Tags      []string  `yaml:"tags" json:"tags,omitempty"`
	User      string    `yaml:"user" json:"user"`
	Status    string    `yaml:"status" json:"status"`
	Reported  bool      `yaml:"reported" json:"reported,omitempty"`
	Pinned    bool      `yaml:"pinned" json:"pinned,omitempty"`
	CreatedAt time.Time `yaml:"created_at" json:"createdAt"`
}

// MaterialView is a material with the per-user and aggregate fields a page needs.
type MaterialView struct {
	Material
	SubjectName   string
	AverageRating *float64
	RatingCount   int
	Saved         bool
	UserRating    int
}

// CommentView is a comment with its vote tallies.
type CommentView struct {
	Comment
	Upvotes   int
	Downvotes int
	UserVote  string
}

// Page is one slice of a listing.
type Page struct {
	Number     int
	TotalPages int
	Items      []MaterialView
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// ListFilter narrows the material listing.
type ListFilter struct {
	Type    string
	Subject string
	Query   string
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// Moderation lists the items waiting on an administrator.
type Moderation struct {
	PendingMaterials []Material
	ReportedComments []Comment
	ReportedPosts    []Post
}
