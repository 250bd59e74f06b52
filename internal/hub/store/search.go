package store

import (
	"strconv"
	"strings"
)

// SearchResults groups full search hits by kind.
type SearchResults struct {
	Materials []MaterialView
	Posts     []Post
	Subjects  []Subject
}

// Search matches q against titles, descriptions and tags of approved
// materials, unreported posts and subjects, up to MaxSuggestions of each.
func (s *Store) Search(q, user string) SearchResults {
	var out SearchResults
	q = strings.TrimSpace(q)
	if q == "" {
		return out
	}
	s.read(func(d *snapshot) {
		for _, m := range d.Materials {
			if len(out.Materials) == MaxSuggestions {
				break
			}
			if m.Status == StatusApproved && materialMatches(m, q) {
				out.Materials = append(out.Materials, d.view(m, user))
			}
		}
		for _, p := range d.Posts {
			if len(out.Posts) == MaxSuggestions {
				break
			}
			if postVisible(p) && postMatches(p, q) {
				out.Posts = append(out.Posts, p)
			}
		}
		for _, sub := range d.Subjects {
			if len(out.Subjects) == MaxSuggestions {
				break
			}
			if subjectMatches(sub, q) {
				out.Subjects = append(out.Subjects, sub)
			}
		}
	})
	return out
}

// Suggest returns at most MaxSuggestions autocomplete entries for q,
// materials first, then posts, then subjects.
func (s *Store) Suggest(q string) []Suggestion {
	res := s.Search(q, "")
	out := make([]Suggestion, 0, MaxSuggestions)
	for _, m := range res.Materials {
		out = append(out, Suggestion{
			URL:      "/materials/" + strconv.Itoa(m.ID) + "/",
			Type:     TypeMaterial,
			Title:    m.Title,
			Subtitle: subjectLabel(m.Subject, m.SubjectName),
		})
	}
	for _, p := range res.Posts {
		out = append(out, Suggestion{
			URL:      "/posts/" + strconv.Itoa(p.ID) + "/",
			Type:     TypePost,
			Title:    p.Title,
			Subtitle: p.User,
		})
	}
	for _, sub := range res.Subjects {
		out = append(out, Suggestion{
			URL:      "/materials/?subject=" + sub.Code,
			Type:     TypeSubject,
			Title:    sub.Name,
			Subtitle: sub.Code,
		})
	}
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

func subjectLabel(code, name string) string {
	if name == "" {
		return code
	}
	return code + " - " + name
}

func postVisible(p Post) bool {
	return !p.Reported && p.Status != StatusRejected
}

func postMatches(p Post, q string) bool {
	return containsFold(p.Title, q) || containsFold(p.Content, q) || tagsMatch(p.Tags, q)
}

func subjectMatches(sub Subject, q string) bool {
	return containsFold(sub.Name, q) || containsFold(sub.Code, q) || containsFold(sub.Description, q)
}

// Posts lists the visible posts, pinned first.
func (s *Store) Posts() []Post {
	var pinned, rest []Post
	s.read(func(d *snapshot) {
		for _, p := range d.Posts {
			if !postVisible(p) {
				continue
			}
			if p.Pinned {
				pinned = append(pinned, p)
			} else {
				rest = append(rest, p)
			}
		}
	})
	return append(pinned, rest...)
}

// Post returns one post.
func (s *Store) Post(id int) (Post, error) {
	var (
		out Post
		err error
	)
	s.read(func(d *snapshot) {
		var p *Post
		p, err = d.post(id)
		if err == nil {
			out = *p
		}
	})
	return out, err
}
