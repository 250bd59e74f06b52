// Package comments posts new comments and handles voting and reporting.
package comments

import (
	"context"
	"html"
	"net/url"
	"strconv"
	"strings"

	"learning-hub/internal/client/api"
	"learning-hub/internal/client/dom"
	"learning-hub/internal/client/inflight"
	"learning-hub/internal/client/page"
	"learning-hub/internal/client/toast"
)

const (
	FormAction   = "comment-form"
	VoteAction   = "vote"
	ReportAction = "report-comment"

	defaultList = "#comments-list"
	reportedTag = "reported"
)

// Controller handles comment forms and comment cards.
type Controller struct {
	env     page.Env
	pending inflight.Coalescer
}

// New returns a Controller for env.
func New(env page.Env) *Controller {
	return &Controller{env: env}
}

// Routes returns the delegated routes for comment forms and cards.
func (c *Controller) Routes() []dom.Route {
	return []dom.Route{
		{Event: "submit", Action: FormAction, PreventDefault: true, Handle: c.Submit},
		{Event: "click", Action: VoteAction, PreventDefault: true, Handle: c.Vote},
		{Event: "click", Action: ReportAction, PreventDefault: true, Handle: c.Report},
	}
}

// Submit posts form to its action URL and appends the created comment.
func (c *Controller) Submit(ctx context.Context, _ *dom.Event, form dom.Element) {
	fields := formValues(form)
	if strings.TrimSpace(fields.Get("content")) == "" {
		c.env.Notify("Please write a comment first.", toast.Warning)
		return
	}
	action, _ := form.Attr("action")
	if action == "" && c.env.Win != nil {
		action = c.env.Win.Location().Path
	}

	key := "comment:" + action
	comment, leader, err := inflight.Do(&c.pending, key, func() (api.Comment, error) {
		return c.env.API.PostComment(ctx, action, fields)
	})
	if !leader {
		return
	}
	if err != nil {
		c.env.Fail("post comment", err, "Failed to post comment.")
		return
	}

	list := c.listFor(form)
	if !dom.Present(list) {
		c.env.Logf("post comment: no comment list for %s", action)
		return
	}
	if empty := list.QuerySelector(".no-comments"); dom.Present(empty) {
		empty.Remove()
	}
	card := list.AppendHTML(CardMarkup(comment))
	resetForm(form)
	if dom.Present(card) {
		card.ScrollIntoView()
	}
	c.env.Notify("Comment posted.", toast.Success)
}

func (c *Controller) listFor(form dom.Element) dom.Element {
	sel := form.Data("comments-target")
	if sel == "" {
		sel = defaultList
	}
	return c.env.Doc.QuerySelector(sel)
}

// CardMarkup renders a freshly posted comment with zeroed vote buttons.
func CardMarkup(comment api.Comment) string {
	id := html.EscapeString(comment.ID.String())
	created := comment.CreatedAt
	if created == "" {
		created = "Just now"
	}
	return `<div class="card mb-3 comment-card" data-comment-id="` + id + `"><div class="card-body">` +
		`<div class="d-flex justify-content-between align-items-center">` +
		`<strong class="comment-author">` + html.EscapeString(comment.User) + `</strong>` +
		`<small class="text-muted comment-date">` + html.EscapeString(created) + `</small></div>` +
		`<p class="comment-content mt-2 mb-2">` + html.EscapeString(comment.Content) + `</p>` +
		`<div class="comment-actions d-flex gap-2">` +
		voteButton(id, api.Upvote, "btn-outline-success", "fa-thumbs-up") +
		voteButton(id, api.Downvote, "btn-outline-danger", "fa-thumbs-down") +
		`<button type="button" class="btn btn-sm btn-outline-secondary" data-action="` + ReportAction +
		`" data-comment-id="` + id + `"><i class="fas fa-flag"></i> Report</button>` +
		`</div></div></div>`
}

func voteButton(id string, vote api.VoteType, style, icon string) string {
	return `<button type="button" class="btn btn-sm ` + style + ` vote-btn" data-action="` + VoteAction +
		`" data-comment-id="` + id + `" data-vote-type="` + string(vote) + `">` +
		`<i class="fas ` + icon + `"></i> <span class="vote-count">0</span></button>`
}

// Vote casts the vote carried by btn and refreshes both counters.
func (c *Controller) Vote(ctx context.Context, _ *dom.Event, btn dom.Element) {
	id := btn.Data("comment-id")
	vote := api.VoteType(btn.Data("vote-type"))
	if id == "" || !vote.Valid() {
		return
	}
	res, leader, err := inflight.Do(&c.pending, "vote:"+id+":"+string(vote), func() (api.VoteResult, error) {
		return c.env.API.Vote(ctx, id, vote)
	})
	if !leader {
		return
	}
	if err != nil {
		c.env.Fail("vote on comment "+id, err, "Failed to record vote.")
		return
	}

	sel := page.AttrSelector(dom.ActionAttr, VoteAction) + page.AttrSelector("data-comment-id", id)
	for _, b := range c.env.Doc.QuerySelectorAll(sel) {
		kind := api.VoteType(b.Data("vote-type"))
		count := res.Upvotes
		if kind == api.Downvote {
			count = res.Downvotes
		}
		if span := b.QuerySelector(".vote-count"); dom.Present(span) {
			span.SetText(strconv.Itoa(count))
		}
		if kind == vote {
			b.AddClass("active")
		} else {
			b.RemoveClass("active")
		}
	}
}

// Report flags a comment after the user confirms. A reported card cannot be
// reported again.
func (c *Controller) Report(ctx context.Context, _ *dom.Event, btn dom.Element) {
	id := btn.Data("comment-id")
	if id == "" || btn.Disabled() {
		return
	}
	card := btn.Closest(".comment-card")
	if dom.Present(card) && card.HasClass(reportedTag) {
		return
	}
	if c.env.Win == nil || !c.env.Win.Confirm("Are you sure you want to report this comment?") {
		return
	}
	_, leader, err := inflight.Do(&c.pending, "report:"+id, func() (struct{}, error) {
		return struct{}{}, c.env.API.Report(ctx, id)
	})
	if !leader {
		return
	}
	if err != nil {
		c.env.Fail("report comment "+id, err, "Failed to report comment.")
		return
	}

	btn.SetDisabled(true)
	if dom.Present(card) {
		card.AddClass(reportedTag)
		target := card.QuerySelector(".comment-actions")
		if !dom.Present(target) {
			target = card
		}
		target.AppendHTML(`<span class="badge bg-warning text-dark ms-2">Reported</span>`)
	}
	c.env.Notify("Comment reported. Thank you.", toast.Info)
}

// formValues collects the successful controls of form.
func formValues(form dom.Element) url.Values {
	values := url.Values{}
	for _, el := range form.QuerySelectorAll("input[name], textarea[name], select[name]") {
		name, _ := el.Attr("name")
		if el.Disabled() {
			continue
		}
		typ, _ := el.Attr("type")
		switch strings.ToLower(typ) {
		case "file", "submit", "button", "reset", "image":
			continue
		case "checkbox", "radio":
			if !el.Checked() {
				continue
			}
		}
		values.Add(name, el.Value())
	}
	return values
}

func resetForm(form dom.Element) {
	for _, el := range form.QuerySelectorAll("textarea, input") {
		typ, _ := el.Attr("type")
		switch strings.ToLower(typ) {
		case "hidden", "submit", "button", "checkbox", "radio":
			continue
		}
		el.SetValue("")
	}
}
