package store

import (
	"fmt"
	"strings"
)

// Vote types.
const (
	VoteUp   = "upvote"
	VoteDown = "downvote"
)

// Comments lists the visible comments on a material, oldest first.
func (s *Store) Comments(materialID int, user string) []CommentView {
	var out []CommentView
	s.read(func(d *snapshot) {
		for _, c := range d.Comments {
			if c.MaterialID != materialID || c.Status == StatusRejected {
				continue
			}
			out = append(out, d.commentView(c, user))
		}
	})
	return out
}

func (d *snapshot) commentView(c Comment, user string) CommentView {
	v := CommentView{Comment: c}
	v.Upvotes, v.Downvotes = tally(d.Votes[c.ID])
	if user != "" {
		v.UserVote = d.Votes[c.ID][user]
	}
	return v
}

func tally(votes map[string]string) (up, down int) {
	for _, v := range votes {
		switch v {
		case VoteUp:
			up++
		case VoteDown:
			down++
		}
	}
	return up, down
}

// AddComment appends a comment by user to a material.
func (s *Store) AddComment(user string, materialID int, content string) (Comment, error) {
	if user == "" {
		return Comment{}, ErrUserRequired
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Comment{}, ErrEmptyComment
	}
	var out Comment
	err := s.update(func(d *snapshot) error {
		if _, err := d.material(materialID); err != nil {
			return err
		}
		out = Comment{
			ID:         d.nextCommentID(),
			MaterialID: materialID,
			User:       user,
			Content:    content,
			Status:     StatusApproved,
			CreatedAt:  s.now().UTC(),
		}
		d.Comments = append(d.Comments, out)
		return nil
	})
	return out, err
}

// Vote records user's vote on a comment. A different vote replaces the
// previous one; repeating the same vote keeps it. Votes cannot be withdrawn.
func (s *Store) Vote(user string, commentID int, vote string) (up, down int, err error) {
	if user == "" {
		return 0, 0, ErrUserRequired
	}
	if vote != VoteUp && vote != VoteDown {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidVote, vote)
	}
	err = s.update(func(d *snapshot) error {
		if _, err := d.comment(commentID); err != nil {
			return err
		}
		if d.Votes[commentID] == nil {
			d.Votes[commentID] = map[string]string{}
		}
		d.Votes[commentID][user] = vote
		up, down = tally(d.Votes[commentID])
		return nil
	})
	return up, down, err
}

// Report flags a comment for moderation. Reporting twice is a no-op.
func (s *Store) Report(user string, commentID int) error {
	if user == "" {
		return ErrUserRequired
	}
	return s.update(func(d *snapshot) error {
		c, err := d.comment(commentID)
		if err != nil {
			return err
		}
		if d.Reports[commentID] == nil {
			d.Reports[commentID] = map[string]bool{}
		}
		d.Reports[commentID][user] = true
		c.Reported = true
		return nil
	})
}
