package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Admin actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionDelete  = "delete"
	ActionFeature = "feature"
)

// ValidAction reports whether action is a known admin action.
func ValidAction(action string) bool {
	switch action {
	case ActionApprove, ActionReject, ActionDelete, ActionFeature:
		return true
	}
	return false
}

// ItemRef names one moderatable item.
type ItemRef struct {
	Type string
	ID   int
}

// ParseItemRef accepts "material:3" or a bare "3", which means a material.
func ParseItemRef(s string) (ItemRef, error) {
	typ, raw, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		typ, raw = TypeMaterial, typ
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return ItemRef{}, fmt.Errorf("%w: item id %q", ErrNotFound, s)
	}
	switch typ {
	case TypeMaterial, TypeComment, TypePost:
	default:
		return ItemRef{}, fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
	return ItemRef{Type: typ, ID: id}, nil
}

// String formats the reference the way ParseItemRef reads it.
func (r ItemRef) String() string {
	return r.Type + ":" + strconv.Itoa(r.ID)
}

// Moderation returns the queues shown on the admin dashboard.
func (s *Store) Moderation() Moderation {
	var out Moderation
	s.read(func(d *snapshot) {
		for _, m := range d.Materials {
			if m.Status == StatusPending {
				out.PendingMaterials = append(out.PendingMaterials, m)
			}
		}
		for _, c := range d.Comments {
			if c.Reported && c.Status != StatusRejected {
				out.ReportedComments = append(out.ReportedComments, c)
			}
		}
		for _, p := range d.Posts {
			if p.Reported && p.Status != StatusRejected {
				out.ReportedPosts = append(out.ReportedPosts, p)
			}
		}
	})
	return out
}

// Apply runs action on a single item.
func (s *Store) Apply(ref ItemRef, action string) error {
	if !ValidAction(action) {
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	return s.update(func(d *snapshot) error {
		return d.apply(ref, action)
	})
}

// ApplyAll runs action on every ref and returns how many were processed.
// Unknown items are skipped.
func (s *Store) ApplyAll(refs []ItemRef, action string) (int, error) {
	if !ValidAction(action) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if len(refs) == 0 {
		return 0, ErrNoItems
	}
	processed := 0
	err := s.update(func(d *snapshot) error {
		for _, ref := range refs {
			if err := d.apply(ref, action); err == nil {
				processed++
			}
		}
		return nil
	})
	return processed, err
}

func (d *snapshot) apply(ref ItemRef, action string) error {
	switch ref.Type {
	case TypeMaterial:
		return d.applyMaterial(ref.ID, action)
	case TypeComment:
		return d.applyComment(ref.ID, action)
	case TypePost:
		return d.applyPost(ref.ID, action)
	}
	return fmt.Errorf("%w: %q", ErrInvalidType, ref.Type)
}

func (d *snapshot) applyMaterial(id int, action string) error {
	m, err := d.material(id)
	if err != nil {
		return err
	}
	switch action {
	case ActionApprove:
		m.Status = StatusApproved
	case ActionReject:
		m.Status = StatusRejected
		m.Featured = false
	case ActionFeature:
		m.Featured = true
	case ActionDelete:
		for i := range d.Materials {
			if d.Materials[i].ID == id {
				d.Materials = append(d.Materials[:i], d.Materials[i+1:]...)
				break
			}
		}
		delete(d.Ratings, id)
		for _, saved := range d.Saved {
			delete(saved, id)
		}
		kept := d.Comments[:0]
		for _, c := range d.Comments {
			if c.MaterialID != id {
				kept = append(kept, c)
			}
		}
		d.Comments = kept
	}
	return nil
}

func (d *snapshot) applyComment(id int, action string) error {
	c, err := d.comment(id)
	if err != nil {
		return err
	}
	switch action {
	case ActionApprove:
		c.Status = StatusApproved
		c.Reported = false
		delete(d.Reports, id)
	case ActionReject:
		c.Status = StatusRejected
	case ActionFeature:
		c.Status = StatusApproved
	case ActionDelete:
		for i := range d.Comments {
			if d.Comments[i].ID == id {
				d.Comments = append(d.Comments[:i], d.Comments[i+1:]...)
				break
			}
		}
		delete(d.Votes, id)
		delete(d.Reports, id)
	}
	return nil
}

func (d *snapshot) applyPost(id int, action string) error {
	p, err := d.post(id)
	if err != nil {
		return err
	}
	switch action {
	case ActionApprove:
		p.Status = StatusApproved
		p.Reported = false
	case ActionReject:
		p.Status = StatusRejected
		p.Pinned = false
	case ActionFeature:
		p.Pinned = true
	case ActionDelete:
		for i := range d.Posts {
			if d.Posts[i].ID == id {
				d.Posts = append(d.Posts[:i], d.Posts[i+1:]...)
				break
			}
		}
	}
	return nil
}
