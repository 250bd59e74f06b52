// Package materials handles the save, rate and download actions on material
// cards and detail pages.
package materials

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"learning-hub/internal/client/api"
	"learning-hub/internal/client/dom"
	"learning-hub/internal/client/inflight"
	"learning-hub/internal/client/page"
	"learning-hub/internal/client/toast"
)

const (
	SaveAction     = "save-material"
	RateAction     = "rate-material"
	DownloadAction = "download-material"

	savedClass  = "saved"
	activeClass = "active"
)

// Controller owns the in-flight state of material actions.
type Controller struct {
	env      page.Env
	pending  inflight.Coalescer
	requests *inflight.Tracker
}

// New returns a Controller for env.
func New(env page.Env) *Controller {
	return &Controller{env: env, requests: inflight.NewTracker()}
}

// Routes returns the delegated click routes for material actions.
func (c *Controller) Routes() []dom.Route {
	return []dom.Route{
		{Event: "click", Action: SaveAction, PreventDefault: true, Handle: c.ToggleSave},
		{Event: "click", Action: RateAction, PreventDefault: true, Handle: c.Rate},
		// Downloads keep the default so the link still opens the file.
		{Event: "click", Action: DownloadAction, Handle: c.CountDownload},
	}
}

// ToggleSave saves an unsaved material or unsaves a saved one. The button only
// changes once the server confirms. Clicks while a request for the same
// material is pending share that request.
func (c *Controller) ToggleSave(ctx context.Context, _ *dom.Event, btn dom.Element) {
	id := btn.Data("material-id")
	if id == "" {
		return
	}
	save := !btn.HasClass(savedClass)
	_, leader, err := inflight.Do(&c.pending, "save:"+id, func() (struct{}, error) {
		return struct{}{}, c.env.API.SaveMaterial(ctx, id, save)
	})
	if !leader {
		return
	}
	if err != nil {
		c.env.Fail("save material "+id, err, "Failed to update saved materials.")
		return
	}
	renderSaved(btn, save)
	if save {
		c.env.Notify("Material saved.", toast.Success)
	} else {
		c.env.Notify("Material removed from saved.", toast.Info)
	}
}

func renderSaved(btn dom.Element, saved bool) {
	if saved {
		btn.AddClass(savedClass)
		btn.SetAttr("aria-pressed", "true")
		btn.SetInnerHTML(`<i class="fas fa-bookmark"></i> Saved`)
		return
	}
	btn.RemoveClass(savedClass)
	btn.SetAttr("aria-pressed", "false")
	btn.SetInnerHTML(`<i class="far fa-bookmark"></i> Save`)
}

type rateOutcome struct {
	result api.RateResult
	stale  bool
}

// Rate submits the rating carried by btn. Only the latest rating per material
// updates the page; repeated clicks on the same star share one request.
func (c *Controller) Rate(ctx context.Context, _ *dom.Event, btn dom.Element) {
	id := btn.Data("material-id")
	rating, err := strconv.Atoi(btn.Data("rating"))
	if id == "" || err != nil || rating < 1 || rating > 5 {
		return
	}
	key := "rate:" + id
	out, leader, err := inflight.Do(&c.pending, key+":"+strconv.Itoa(rating), func() (rateOutcome, error) {
		reqCtx, tok := c.requests.Begin(ctx, key)
		defer c.requests.Done(tok)
		res, err := c.env.API.RateMaterial(reqCtx, id, rating)
		return rateOutcome{result: res, stale: !c.requests.Current(tok)}, err
	})
	if !leader || out.stale {
		return
	}
	if err != nil {
		c.env.Fail("rate material "+id, err, "Failed to submit rating.")
		return
	}

	for _, b := range c.env.Doc.QuerySelectorAll(actionSelector(RateAction, id)) {
		b.RemoveClass(activeClass)
	}
	btn.AddClass(activeClass)
	if avg := out.result.AverageRating; avg != nil {
		for _, el := range c.env.Doc.QuerySelectorAll(".average-rating" + page.AttrSelector("data-material-id", id)) {
			el.SetText(fmt.Sprintf("%.1f", *avg))
		}
	}
	if n := out.result.RatingCount; n != nil {
		for _, el := range c.env.Doc.QuerySelectorAll(".rating-count" + page.AttrSelector("data-material-id", id)) {
			el.SetText(strconv.Itoa(*n))
		}
	}
	c.env.Notify("Rating submitted.", toast.Success)
}

// CountDownload records a download and refreshes the counter on success.
func (c *Controller) CountDownload(ctx context.Context, _ *dom.Event, link dom.Element) {
	id := link.Data("material-id")
	if id == "" {
		return
	}
	res, err := c.env.API.CountDownload(ctx, id)
	if err != nil {
		c.env.Fail("count download "+id, err, "Failed to record download.")
		return
	}
	for _, el := range c.env.Doc.QuerySelectorAll(".download-count" + page.AttrSelector("data-material-id", id)) {
		if res.Downloads != nil {
			el.SetText(strconv.Itoa(*res.Downloads))
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(el.Text()))
		if err != nil {
			continue
		}
		el.SetText(strconv.Itoa(n + 1))
	}
}

func actionSelector(action, id string) string {
	return page.AttrSelector(dom.ActionAttr, action) + page.AttrSelector("data-material-id", id)
}
