// Package admin drives the moderation dashboard: bulk selection, bulk actions
// and single-item quick actions.
package admin

import (
	"context"
	"fmt"
	"strings"

	"learning-hub/internal/client/api"
	"learning-hub/internal/client/dom"
	"learning-hub/internal/client/inflight"
	"learning-hub/internal/client/page"
	"learning-hub/internal/client/toast"
)

const (
	SelectAllAction  = "select-all"
	SelectItemAction = "select-item"
	BulkAction       = "bulk-apply"
	QuickAction      = "quick-action"

	selectAllSelector  = `[data-action="` + SelectAllAction + `"]`
	itemSelector       = `[data-action="` + SelectItemAction + `"]`
	bulkButtonSelector = `[data-action="` + BulkAction + `"]`
	bulkSelectSelector = "#bulk-action-select"
)

// Controller handles the admin list interactions.
type Controller struct {
	env     page.Env
	pending inflight.Coalescer
}

// New returns a Controller for env.
func New(env page.Env) *Controller {
	return &Controller{env: env}
}

// Routes returns the delegated routes for the admin list.
func (c *Controller) Routes() []dom.Route {
	return []dom.Route{
		{Event: "change", Action: SelectAllAction, Handle: c.SelectAll},
		{Event: "change", Action: SelectItemAction, Handle: func(context.Context, *dom.Event, dom.Element) { c.Refresh() }},
		{Event: "click", Action: BulkAction, PreventDefault: true, Handle: c.Bulk},
		{Event: "click", Action: QuickAction, PreventDefault: true, Handle: c.Quick},
	}
}

// Init syncs the select-all checkbox and bulk button with the current
// selection, which may have been restored by the browser.
func (c *Controller) Init() {
	c.Refresh()
}

// SelectAll checks or unchecks every item to match the select-all checkbox.
func (c *Controller) SelectAll(_ context.Context, _ *dom.Event, box dom.Element) {
	checked := box.Checked()
	for _, item := range c.env.Doc.QuerySelectorAll(itemSelector) {
		item.SetChecked(checked)
	}
	c.Refresh()
}

// Selected returns the ids of the checked items in page order.
func (c *Controller) Selected() []string {
	var ids []string
	for _, item := range c.env.Doc.QuerySelectorAll(itemSelector) {
		if !item.Checked() {
			continue
		}
		id := item.Data("item-id")
		if id == "" {
			id = item.Value()
		}
		ids = append(ids, id)
	}
	return ids
}

// Refresh recomputes the select-all tri-state and the bulk button.
func (c *Controller) Refresh() {
	items := c.env.Doc.QuerySelectorAll(itemSelector)
	n := 0
	for _, item := range items {
		if item.Checked() {
			n++
		}
	}
	if all := c.env.Doc.QuerySelector(selectAllSelector); dom.Present(all) {
		all.SetChecked(len(items) > 0 && n == len(items))
		all.SetIndeterminate(n > 0 && n < len(items))
	}
	if btn := c.env.Doc.QuerySelector(bulkButtonSelector); dom.Present(btn) {
		btn.SetText(BulkLabel(n))
		btn.SetDisabled(n == 0)
	}
}

// BulkLabel is the bulk button caption for n selected items.
func BulkLabel(n int) string {
	if n == 0 {
		return "Apply"
	}
	return fmt.Sprintf("Apply to %d selected", n)
}

// Bulk confirms and applies the chosen action to every selected item, then
// reloads the page after a short delay.
func (c *Controller) Bulk(ctx context.Context, _ *dom.Event, btn dom.Element) {
	action := btn.Data("bulk-action")
	if sel := c.env.Doc.QuerySelector(bulkSelectSelector); dom.Present(sel) && sel.Value() != "" {
		action = sel.Value()
	}
	if action == "" {
		c.env.Notify("Please choose an action.", toast.Warning)
		return
	}
	ids := c.Selected()
	if len(ids) == 0 {
		c.env.Notify("Please select at least one item.", toast.Warning)
		return
	}
	if !c.env.Win.Confirm(fmt.Sprintf("Are you sure you want to %s %d selected item(s)?", action, len(ids))) {
		return
	}

	res, leader, err := inflight.Do(&c.pending, "bulk", func() (api.BulkResult, error) {
		return c.env.API.BulkAction(ctx, action, ids)
	})
	if !leader {
		return
	}
	if err != nil {
		c.env.Fail("bulk "+action, err, "Bulk action failed.")
		return
	}
	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("%s applied to %d item(s).", capitalize(action), len(ids))
	}
	c.env.Notify(msg, toast.Success)
	btn.SetDisabled(true)
	c.env.Scheduler().AfterFunc(c.env.Settings.ReloadDelay(), c.env.Win.Reload)
}

// Quick applies a single action to one item and fades its card out.
func (c *Controller) Quick(ctx context.Context, _ *dom.Event, btn dom.Element) {
	itemType, itemID, action := btn.Data("item-type"), btn.Data("item-id"), btn.Data("quick-action")
	if itemType == "" || itemID == "" || action == "" {
		return
	}
	if action == "delete" && !c.env.Win.Confirm("Are you sure you want to delete this item?") {
		return
	}
	key := strings.Join([]string{"quick", itemType, itemID, action}, ":")
	_, leader, err := inflight.Do(&c.pending, key, func() (struct{}, error) {
		return struct{}{}, c.env.API.QuickAction(ctx, itemType, itemID, action)
	})
	if !leader {
		return
	}
	if err != nil {
		c.env.Fail(key, err, "Action failed.")
		return
	}
	c.env.Notify(fmt.Sprintf("%s done.", capitalize(action)), toast.Success)

	card := btn.Closest(".admin-item")
	if !dom.Present(card) {
		card = btn.Closest(".card")
	}
	if !dom.Present(card) {
		return
	}
	card.AddClass("fade-out")
	c.env.Scheduler().AfterFunc(c.env.Settings.FadeOut(), func() {
		card.Remove()
		c.Refresh()
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
