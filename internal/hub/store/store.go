// Package store keeps the hub catalogue, per-user state and moderation
// flags behind a single mutex, optionally snapshotting to disk.
package store

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Catalogue is the seed document: the content a fresh store starts with.
type Catalogue struct {
	Subjects  []Subject  `yaml:"subjects" json:"subjects"`
	Materials []Material `yaml:"materials" json:"materials"`
	Comments  []Comment  `yaml:"comments" json:"comments"`
	Posts     []Post     `yaml:"posts" json:"posts"`
}

// snapshot is the on-disk format.
type snapshot struct {
	Catalogue
	Ratings map[int]map[string]int    `json:"ratings"`
	Saved   map[string]map[int]bool   `json:"saved"`
	Votes   map[int]map[string]string `json:"votes"`
	Reports map[int]map[string]bool   `json:"reports"`
}

// Store is safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
	data snapshot
}

// DefaultCatalogue decodes the embedded seed.
func DefaultCatalogue() (Catalogue, error) {
	return DecodeCatalogue(bytes.NewReader(defaultSeed))
}

// DecodeCatalogue reads a YAML catalogue and fills missing statuses.
func DecodeCatalogue(r io.Reader) (Catalogue, error) {
	var cat Catalogue
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil && !errors.Is(err, io.EOF) {
		return Catalogue{}, fmt.Errorf("decode catalogue: %w", err)
	}
	for i := range cat.Materials {
		if cat.Materials[i].Status == "" {
			cat.Materials[i].Status = StatusApproved
		}
	}
	for i := range cat.Comments {
		if cat.Comments[i].Status == "" {
			cat.Comments[i].Status = StatusApproved
		}
	}
	for i := range cat.Posts {
		if cat.Posts[i].Status == "" {
			cat.Posts[i].Status = StatusApproved
		}
	}
	return cat, nil
}

// LoadCatalogue reads the catalogue at path, or the embedded seed when path is empty.
func LoadCatalogue(path string) (Catalogue, error) {
	if path == "" {
		return DefaultCatalogue()
	}
	f, err := os.Open(path)
	if err != nil {
		return Catalogue{}, fmt.Errorf("open catalogue: %w", err)
	}
	defer f.Close()
	return DecodeCatalogue(f)
}

// New returns an in-memory store holding cat.
func New(cat Catalogue) *Store {
	return &Store{
		now:  time.Now,
		data: newSnapshot(cat),
	}
}

// Open restores the snapshot at path when one exists and falls back to cat
// otherwise. Every mutation is written back to path.
func Open(path string, cat Catalogue) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is required")
	}
	s := New(cat)
	s.path = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		if err := s.writeLocked(); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read store: %w", err)
	}

	var snap snapshot
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("decode store: %w", err)
		}
		s.data = newSnapshot(snap.Catalogue)
		mergeMaps(&s.data, snap)
	}
	return s, nil
}

func newSnapshot(cat Catalogue) snapshot {
	return snapshot{
		Catalogue: cat,
		Ratings:   map[int]map[string]int{},
		Saved:     map[string]map[int]bool{},
		Votes:     map[int]map[string]string{},
		Reports:   map[int]map[string]bool{},
	}
}

func mergeMaps(dst *snapshot, src snapshot) {
	for k, v := range src.Ratings {
		dst.Ratings[k] = v
	}
	for k, v := range src.Saved {
		dst.Saved[k] = v
	}
	for k, v := range src.Votes {
		dst.Votes[k] = v
	}
	for k, v := range src.Reports {
		dst.Reports[k] = v
	}
}

// update applies fn under the lock and persists the result when fn succeeds.
func (s *Store) update(fn func(*snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(&s.data); err != nil {
		return err
	}
	return s.writeLocked()
}

func (s *Store) read(fn func(*snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
}

func (s *Store) writeLocked() error {
	if s.path == "" {
		return nil
	}
	encoded, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

func (d *snapshot) material(id int) (*Material, error) {
	for i := range d.Materials {
		if d.Materials[i].ID == id {
			return &d.Materials[i], nil
		}
	}
	return nil, fmt.Errorf("%w: material %d", ErrNotFound, id)
}

func (d *snapshot) comment(id int) (*Comment, error) {
	for i := range d.Comments {
		if d.Comments[i].ID == id {
			return &d.Comments[i], nil
		}
	}
	return nil, fmt.Errorf("%w: comment %d", ErrNotFound, id)
}

func (d *snapshot) post(id int) (*Post, error) {
	for i := range d.Posts {
		if d.Posts[i].ID == id {
			return &d.Posts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: post %d", ErrNotFound, id)
}

func (d *snapshot) subjectName(code string) string {
	for _, s := range d.Subjects {
		if s.Code == code {
			return s.Name
		}
	}
	return ""
}

func (d *snapshot) nextCommentID() int {
	next := 1
	for _, c := range d.Comments {
		if c.ID >= next {
			next = c.ID + 1
		}
	}
	return next
}

// Subjects returns a copy of the subject list.
func (s *Store) Subjects() []Subject {
	var out []Subject
	s.read(func(d *snapshot) {
		out = append(out, d.Subjects...)
	})
	return out
}
