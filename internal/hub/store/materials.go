package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Materials returns page n (1-based) of the approved materials matching f,
// newest first. A page past the end is returned empty.
func (s *Store) Materials(f ListFilter, page int, user string) Page {
	if page < 1 {
		page = 1
	}
	var out Page
	s.read(func(d *snapshot) {
		var matched []Material
		for _, m := range d.Materials {
			if m.Status != StatusApproved {
				continue
			}
			if f.Type != "" && m.Type != f.Type {
				continue
			}
			if f.Subject != "" && !strings.EqualFold(m.Subject, f.Subject) {
				continue
			}
			if f.Query != "" && !materialMatches(m, f.Query) {
				continue
			}
			matched = append(matched, m)
		}
		sort.SliceStable(matched, func(i, j int) bool {
			if matched[i].Featured != matched[j].Featured {
				return matched[i].Featured
			}
			return matched[i].UploadedAt.After(matched[j].UploadedAt)
		})

		out.Number = page
		out.TotalPages = (len(matched) + PageSize - 1) / PageSize
		start := (page - 1) * PageSize
		if start >= len(matched) {
			return
		}
		end := min(start+PageSize, len(matched))
		for _, m := range matched[start:end] {
			out.Items = append(out.Items, d.view(m, user))
		}
	})
	return out
}

// Material returns a material and counts the view.
func (s *Store) Material(id int, user string) (MaterialView, error) {
	var out MaterialView
	err := s.update(func(d *snapshot) error {
		m, err := d.material(id)
		if err != nil {
			return err
		}
		m.Views++
		out = d.view(*m, user)
		return nil
	})
	return out, err
}

func (d *snapshot) view(m Material, user string) MaterialView {
	v := MaterialView{Material: m, SubjectName: d.subjectName(m.Subject)}
	v.AverageRating, v.RatingCount = average(d.Ratings[m.ID])
	if user != "" {
		v.Saved = d.Saved[user][m.ID]
		v.UserRating = d.Ratings[m.ID][user]
	}
	return v
}

func average(scores map[string]int) (*float64, int) {
	if len(scores) == 0 {
		return nil, 0
	}
	total := 0
	for _, s := range scores {
		total += s
	}
	avg := float64(total) / float64(len(scores))
	return &avg, len(scores)
}

// SetSaved saves or unsaves a material for user. Repeating either is a no-op.
func (s *Store) SetSaved(user string, id int, saved bool) error {
	if user == "" {
		return ErrUserRequired
	}
	return s.update(func(d *snapshot) error {
		if _, err := d.material(id); err != nil {
			return err
		}
		if !saved {
			delete(d.Saved[user], id)
			return nil
		}
		if d.Saved[user] == nil {
			d.Saved[user] = map[int]bool{}
		}
		d.Saved[user][id] = true
		return nil
	})
}

// SavedMaterials lists the materials user has saved.
func (s *Store) SavedMaterials(user string) []MaterialView {
	var out []MaterialView
	s.read(func(d *snapshot) {
		for _, m := range d.Materials {
			if d.Saved[user][m.ID] {
				out = append(out, d.view(m, user))
			}
		}
	})
	return out
}

// Rate records user's score for a material, replacing an earlier one, and
// returns the new average and count.
func (s *Store) Rate(user string, id, score int) (float64, int, error) {
	if user == "" {
		return 0, 0, ErrUserRequired
	}
	if score < 1 || score > 5 {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidRating, score)
	}
	var (
		avg   float64
		count int
	)
	err := s.update(func(d *snapshot) error {
		if _, err := d.material(id); err != nil {
			return err
		}
		if d.Ratings[id] == nil {
			d.Ratings[id] = map[string]int{}
		}
		d.Ratings[id][user] = score
		a, n := average(d.Ratings[id])
		avg, count = *a, n
		return nil
	})
	return avg, count, err
}

// CountDownload increments and returns the download counter.
func (s *Store) CountDownload(id int) (int, error) {
	var downloads int
	err := s.update(func(d *snapshot) error {
		m, err := d.material(id)
		if err != nil {
			return err
		}
		m.Downloads++
		downloads = m.Downloads
		return nil
	})
	return downloads, err
}

func materialMatches(m Material, q string) bool {
	return containsFold(m.Title, q) || containsFold(m.Description, q) || tagsMatch(m.Tags, q)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func tagsMatch(tags []string, q string) bool {
	for _, t := range tags {
		if containsFold(t, q) {
			return true
		}
	}
	return false
}

// NewMaterial describes an upload.
type NewMaterial struct {
	Title       string
	Description string
	Type        string
	Subject     string
	Tags        []string
	FileName    string
	FileSize    int64
}

// ErrInvalidUpload rejects an upload missing its title, subject or file.
var ErrInvalidUpload = errors.New("title, subject and file are required")

// AddMaterial stores an upload by user. It waits in the moderation queue
// until approved.
func (s *Store) AddMaterial(user string, in NewMaterial) (Material, error) {
	if user == "" {
		return Material{}, ErrUserRequired
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.Subject == "" || in.FileName == "" {
		return Material{}, ErrInvalidUpload
	}
	if in.Type == "" {
		in.Type = "note"
	}
	var out Material
	err := s.update(func(d *snapshot) error {
		known := false
		for _, sub := range d.Subjects {
			known = known || sub.Code == in.Subject
		}
		if !known {
			return fmt.Errorf("%w: subject %s", ErrNotFound, in.Subject)
		}
		next := 1
		for _, m := range d.Materials {
			if m.ID >= next {
				next = m.ID + 1
			}
		}
		out = Material{
			ID:          next,
			Title:       in.Title,
			Description: strings.TrimSpace(in.Description),
			Type:        in.Type,
			Subject:     in.Subject,
			FileName:    in.FileName,
			FileSize:    in.FileSize,
			Tags:        in.Tags,
			UploadedBy:  user,
			Status:      StatusPending,
			UploadedAt:  s.now().UTC(),
		}
		d.Materials = append(d.Materials, out)
		return nil
	})
	return out, err
}

// Recent returns up to n approved materials, newest first.
func (s *Store) Recent(n int) []MaterialView {
	page := s.Materials(ListFilter{}, 1, "")
	items := page.Items
	if len(items) > n {
		items = items[:n]
	}
	return items
}
