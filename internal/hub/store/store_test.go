package store

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newSeeded(t *testing.T) *Store {
	t.Helper()
	cat, err := DefaultCatalogue()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return New(cat)
}

func TestDefaultCatalogueDecodes(t *testing.T) {
	cat, err := DefaultCatalogue()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(cat.Subjects) == 0 || len(cat.Materials) < 2*PageSize || len(cat.Posts) == 0 {
		t.Fatalf("seed looks incomplete: %d subjects, %d materials, %d posts", len(cat.Subjects), len(cat.Materials), len(cat.Posts))
	}
	for _, m := range cat.Materials {
		if m.Status == "" {
			t.Fatalf("material %d has no status", m.ID)
		}
	}
}

func TestDecodeCatalogueRejectsUnknownFields(t *testing.T) {
	if _, err := DecodeCatalogue(strings.NewReader("materials:\n  - id: 1\n    colour: red\n")); err == nil {
		t.Fatalf("expected unknown field to fail")
	}
}

func TestMaterialsPaginates(t *testing.T) {
	s := newSeeded(t)
	first := s.Materials(ListFilter{}, 1, "")
	if len(first.Items) != PageSize || !first.HasNext() {
		t.Fatalf("unexpected first page %d items, next=%v", len(first.Items), first.HasNext())
	}
	if !first.Items[0].Featured {
		t.Fatalf("featured material should lead the listing")
	}
	last := s.Materials(ListFilter{}, first.TotalPages, "")
	if last.HasNext() || len(last.Items) == 0 {
		t.Fatalf("unexpected last page %+v", last)
	}
	beyond := s.Materials(ListFilter{}, first.TotalPages+1, "")
	if len(beyond.Items) != 0 {
		t.Fatalf("page past the end should be empty, got %d", len(beyond.Items))
	}
	for _, p := range []Page{first, last} {
		for _, m := range p.Items {
			if m.Status != StatusApproved {
				t.Fatalf("listing leaked %s material %d", m.Status, m.ID)
			}
		}
	}
}

func TestMaterialsFilters(t *testing.T) {
	s := newSeeded(t)
	page := s.Materials(ListFilter{Type: "slide"}, 1, "")
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(page.Items))
	}
	page = s.Materials(ListFilter{Subject: "mat110", Query: "DERIVATIVE"}, 1, "")
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 derivative materials, got %d", len(page.Items))
	}
}

func TestSaveAndRate(t *testing.T) {
	s := newSeeded(t)
	if err := s.SetSaved("ana", 3, true); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SetSaved("ana", 3, true); err != nil {
		t.Fatalf("repeat save: %v", err)
	}
	if got := s.SavedMaterials("ana"); len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("unexpected saved list %+v", got)
	}
	if err := s.SetSaved("ana", 3, false); err != nil {
		t.Fatalf("unsave: %v", err)
	}
	if len(s.SavedMaterials("ana")) != 0 {
		t.Fatalf("expected empty saved list")
	}
	if err := s.SetSaved("ana", 999, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, _, err := s.Rate("ana", 3, 6); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected invalid rating, got %v", err)
	}
	if _, _, err := s.Rate("ana", 3, 5); err != nil {
		t.Fatalf("rate: %v", err)
	}
	avg, count, err := s.Rate("mei", 3, 4)
	if err != nil || avg != 4.5 || count != 2 {
		t.Fatalf("unexpected average %v/%d %v", avg, count, err)
	}
	avg, count, _ = s.Rate("ana", 3, 2)
	if avg != 3 || count != 2 {
		t.Fatalf("re-rating should replace the earlier score, got %v/%d", avg, count)
	}
	view, err := s.Material(3, "ana")
	if err != nil || view.UserRating != 2 || view.AverageRating == nil || *view.AverageRating != 3 {
		t.Fatalf("unexpected view %+v %v", view, err)
	}
}

func TestCountDownloadConcurrent(t *testing.T) {
	s := newSeeded(t)
	before, _ := s.Material(2, "")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.CountDownload(2); err != nil {
				t.Errorf("count: %v", err)
			}
		}()
	}
	wg.Wait()
	got, _ := s.CountDownload(2)
	if got != before.Downloads+21 {
		t.Fatalf("expected %d downloads, got %d", before.Downloads+21, got)
	}
}

func TestCommentsVotesAndReports(t *testing.T) {
	s := newSeeded(t)
	if _, err := s.AddComment("ana", 2, "   "); !errors.Is(err, ErrEmptyComment) {
		t.Fatalf("expected empty comment error, got %v", err)
	}
	c, err := s.AddComment("ana", 2, " Helpful slides ")
	if err != nil || c.Content != "Helpful slides" || c.ID == 0 {
		t.Fatalf("unexpected comment %+v %v", c, err)
	}

	up, down, _ := s.Vote("mei", c.ID, VoteUp)
	if up != 1 || down != 0 {
		t.Fatalf("unexpected tally %d/%d", up, down)
	}
	up, down, _ = s.Vote("mei", c.ID, VoteDown)
	if up != 0 || down != 1 {
		t.Fatalf("switching vote should move it, got %d/%d", up, down)
	}
	up, down, _ = s.Vote("mei", c.ID, VoteDown)
	if up != 0 || down != 1 {
		t.Fatalf("repeating a vote should keep it, got %d/%d", up, down)
	}
	if _, _, err := s.Vote("mei", c.ID, "sideways"); !errors.Is(err, ErrInvalidVote) {
		t.Fatalf("expected invalid vote, got %v", err)
	}

	if err := s.Report("mei", c.ID); err != nil {
		t.Fatalf("report: %v", err)
	}
	found := false
	for _, rc := range s.Moderation().ReportedComments {
		found = found || rc.ID == c.ID
	}
	if !found {
		t.Fatalf("reported comment missing from moderation queue")
	}
}

func TestSuggestCapsAndTypes(t *testing.T) {
	s := newSeeded(t)
	got := s.Suggest("e")
	if len(got) != MaxSuggestions {
		t.Fatalf("expected %d suggestions, got %d", MaxSuggestions, len(got))
	}
	types := map[string]bool{}
	for _, sug := range s.Suggest("recursion") {
		types[sug.Type] = true
	}
	if !types[TypeMaterial] || !types[TypePost] {
		t.Fatalf("expected material and post suggestions, got %v", types)
	}
	for _, sug := range s.Suggest("calculus") {
		if sug.Type == TypeSubject && sug.URL != "/materials/?subject=MAT110" {
			t.Fatalf("unexpected subject url %q", sug.URL)
		}
	}
	for _, sug := range s.Suggest("free answers") {
		if sug.Type == TypePost {
			t.Fatalf("reported posts must not be suggested")
		}
	}
	if len(s.Suggest("  ")) != 0 {
		t.Fatalf("blank query should yield nothing")
	}
}

func TestParseItemRef(t *testing.T) {
	ref, err := ParseItemRef("comment:4")
	if err != nil || ref != (ItemRef{Type: TypeComment, ID: 4}) {
		t.Fatalf("unexpected ref %+v %v", ref, err)
	}
	ref, err = ParseItemRef("7")
	if err != nil || ref.Type != TypeMaterial || ref.String() != "material:7" {
		t.Fatalf("bare ids should be materials, got %+v %v", ref, err)
	}
	if _, err := ParseItemRef("group:1"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected invalid type, got %v", err)
	}
	if _, err := ParseItemRef("material:x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestModerationActions(t *testing.T) {
	s := newSeeded(t)
	queue := s.Moderation()
	if len(queue.PendingMaterials) != 1 || len(queue.ReportedComments) != 1 || len(queue.ReportedPosts) != 1 {
		t.Fatalf("unexpected seeded queue %+v", queue)
	}
	pending := queue.PendingMaterials[0].ID

	n, err := s.ApplyAll([]ItemRef{{TypeMaterial, pending}, {TypeMaterial, 999}}, ActionApprove)
	if err != nil || n != 1 {
		t.Fatalf("expected one processed item, got %d %v", n, err)
	}
	if _, err := s.ApplyAll(nil, ActionApprove); !errors.Is(err, ErrNoItems) {
		t.Fatalf("expected no items error, got %v", err)
	}
	if err := s.Apply(ItemRef{TypeMaterial, 1}, "explode"); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected invalid action, got %v", err)
	}

	reported := queue.ReportedComments[0]
	if err := s.Apply(ItemRef{TypeComment, reported.ID}, ActionDelete); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	for _, c := range s.Comments(reported.MaterialID, "") {
		if c.ID == reported.ID {
			t.Fatalf("deleted comment still listed")
		}
	}
	if err := s.Apply(ItemRef{TypePost, queue.ReportedPosts[0].ID}, ActionReject); err != nil {
		t.Fatalf("reject post: %v", err)
	}
	if err := s.Apply(ItemRef{TypeMaterial, 1}, ActionDelete); err != nil {
		t.Fatalf("delete material: %v", err)
	}
	if _, err := s.Material(1, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted material still present: %v", err)
	}
	if len(s.Comments(1, "")) != 0 {
		t.Fatalf("comments of a deleted material should go with it")
	}
	after := s.Moderation()
	if len(after.PendingMaterials)+len(after.ReportedComments)+len(after.ReportedPosts) != 0 {
		t.Fatalf("queue should be empty, got %+v", after)
	}
}

func TestOpenPersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "hub.json")
	cat, _ := DefaultCatalogue()
	s, err := Open(path, cat)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetSaved("ana", 2, true); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, _, err := s.Rate("ana", 2, 4); err != nil {
		t.Fatalf("rate: %v", err)
	}

	reopened, err := Open(path, Catalogue{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	view, err := reopened.Material(2, "ana")
	if err != nil {
		t.Fatalf("material: %v", err)
	}
	if !view.Saved || view.UserRating != 4 {
		t.Fatalf("state lost across restart: %+v", view)
	}
}

func TestAddMaterialQueuesForModeration(t *testing.T) {
	s := newSeeded(t)
	if _, err := s.AddMaterial("ana", NewMaterial{Title: "x", Subject: "CSE101"}); !errors.Is(err, ErrInvalidUpload) {
		t.Fatalf("expected invalid upload, got %v", err)
	}
	if _, err := s.AddMaterial("ana", NewMaterial{Title: "x", Subject: "BIO999", FileName: "a.pdf"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected unknown subject, got %v", err)
	}
	m, err := s.AddMaterial("ana", NewMaterial{Title: " Lab notes ", Subject: "PHY111", FileName: "lab.pdf", FileSize: 2048})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if m.Status != StatusPending || m.Title != "Lab notes" || m.Type != "note" {
		t.Fatalf("unexpected material %+v", m)
	}
	if got := s.Moderation().PendingMaterials; len(got) != 2 {
		t.Fatalf("expected the upload in the queue, got %d pending", len(got))
	}
}
