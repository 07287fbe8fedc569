package views

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/mentions-console/adminapi"
	"github.com/jrsteele09/mentions-console/adminmodel"
	"github.com/jrsteele09/mentions-console/internal/errors"
	"github.com/jrsteele09/mentions-console/internal/utils"
	"github.com/jrsteele09/mentions-console/querycache"
)

// MentionsAPI is the subset of the API client used by the mentions view
type MentionsAPI interface {
	ListRepliedMentions(ctx context.Context, params adminapi.RepliedMentionsParams) (*adminmodel.RepliedMentionsResponse, error)
	MarkManualReply(ctx context.Context, mentionID string, payload adminmodel.ManualReplyPayload) (json.RawMessage, error)
}

// MentionsState is the URL-carried state of the mentions page
type MentionsState struct {
	Status     adminmodel.ReplyStatus
	Query      string
	SearchType adminmodel.SearchType
	Offset     int
	EditKey    string // row key of the item whose manual dialog is open
}

func DefaultMentionsState() MentionsState {
	return MentionsState{
		Status:     adminmodel.StatusPosted,
		SearchType: adminmodel.SearchAll,
	}
}

// SetStatus changes the status filter, returning to the first page on change
func (s *MentionsState) SetStatus(status adminmodel.ReplyStatus) {
	if !statusFilterValid(status) || status == s.Status {
		return
	}
	s.Status = status
	s.Offset = 0
}

func (s *MentionsState) SetQuery(q string) {
	if q == s.Query {
		return
	}
	s.Query = q
	s.Offset = 0
}

func (s *MentionsState) SetSearchType(t adminmodel.SearchType) {
	if !t.Valid() || t == s.SearchType {
		return
	}
	s.SearchType = t
	s.Offset = 0
}

// ParseMentionsState reads the state from query values. Unknown filter
// values fall back to the defaults.
func ParseMentionsState(v url.Values) MentionsState {
	s := DefaultMentionsState()
	if st := adminmodel.ReplyStatus(v.Get("status")); statusFilterValid(st) {
		s.Status = st
	}
	if t := adminmodel.SearchType(v.Get("search_type")); t.Valid() {
		s.SearchType = t
	}
	s.Query = v.Get("q")
	s.Offset = ParseOffset(v.Get("offset"))
	s.EditKey = strings.TrimSpace(v.Get("edit"))
	return s
}

// ApplyMentionsFilter applies a submitted filter form. The form carries the
// state it was rendered from in "from"; any changed filter resets the offset.
func ApplyMentionsFilter(v url.Values) MentionsState {
	from, err := url.ParseQuery(v.Get("from"))
	if err != nil {
		from = url.Values{}
	}
	s := ParseMentionsState(from)
	s.EditKey = ""
	if _, ok := v["status"]; ok {
		s.SetStatus(adminmodel.ReplyStatus(v.Get("status")))
	}
	if _, ok := v["search_type"]; ok {
		s.SetSearchType(adminmodel.SearchType(v.Get("search_type")))
	}
	if _, ok := v["q"]; ok {
		s.SetQuery(v.Get("q"))
	}
	return s
}

func (s MentionsState) Values() url.Values {
	v := url.Values{}
	v.Set("status", string(s.Status))
	v.Set("search_type", string(s.SearchType))
	if s.Query != "" {
		v.Set("q", s.Query)
	}
	if s.Offset > 0 {
		v.Set("offset", strconv.Itoa(s.Offset))
	}
	if s.EditKey != "" {
		v.Set("edit", s.EditKey)
	}
	return v
}

// WithOffset returns a copy of the state at another offset with no dialog open
func (s MentionsState) WithOffset(offset int) MentionsState {
	s.Offset = offset
	s.EditKey = ""
	return s
}

// WithEdit returns a copy of the state with the manual dialog open on key
func (s MentionsState) WithEdit(key string) MentionsState {
	s.EditKey = key
	return s
}

// Params builds the list request; the query is trimmed and omitted when blank
func (s MentionsState) Params(limit int) adminapi.RepliedMentionsParams {
	return adminapi.RepliedMentionsParams{
		Status:     s.Status,
		Query:      strings.TrimSpace(s.Query),
		SearchType: s.SearchType,
		Limit:      limit,
		Offset:     s.Offset,
	}
}

// ManualForm holds the manual reply dialog fields
type ManualForm struct {
	ReplyText     string
	ReplyURL      string
	ReplyTweetID  string
	ReplyUsername string
	Status        adminmodel.ReplyStatus
}

// ManualFormFor pre-fills the dialog from the item's reply. A skipped
// mention pre-selects the skipped status.
func ManualFormFor(item adminmodel.RepliedMentionItem) ManualForm {
	form := ManualForm{
		ReplyText:     utils.Value(item.Reply.ReplyText),
		ReplyURL:      utils.Value(item.Reply.ReplyURL),
		ReplyTweetID:  utils.Value(item.Reply.ReplyTweetID),
		ReplyUsername: utils.Value(item.Reply.ReplyUsername),
		Status:        utils.Value(item.Reply.Status),
	}
	if item.IsSkipped() {
		form.Status = adminmodel.StatusSkipped
	}
	return form
}

func ManualFormFromValues(v url.Values) ManualForm {
	return ManualForm{
		ReplyText:     v.Get("reply_text"),
		ReplyURL:      v.Get("reply_url"),
		ReplyTweetID:  v.Get("reply_tweet_id"),
		ReplyUsername: v.Get("reply_username"),
		Status:        adminmodel.ReplyStatus(strings.TrimSpace(v.Get("status"))),
	}
}

// Payload trims every field; blank fields are omitted from the request
func (f ManualForm) Payload() adminmodel.ManualReplyPayload {
	return adminmodel.ManualReplyPayload{
		ReplyText:     utils.TrimmedPtr(f.ReplyText),
		ReplyURL:      utils.TrimmedPtr(f.ReplyURL),
		ReplyTweetID:  utils.TrimmedPtr(f.ReplyTweetID),
		ReplyUsername: utils.TrimmedPtr(f.ReplyUsername),
		Status:        f.Status,
	}
}

// MentionsController runs the mentions page actions for one login session
type MentionsController struct {
	api   MentionsAPI
	cache querycache.Scoped
	limit int
}

func NewMentionsController(api MentionsAPI, cache querycache.Scoped, pageSize int) *MentionsController {
	if pageSize <= 0 {
		pageSize = 25
	}
	return &MentionsController{api: api, cache: cache, limit: pageSize}
}

func (c *MentionsController) fetch(ctx context.Context, params adminapi.RepliedMentionsParams) (*adminmodel.RepliedMentionsResponse, error) {
	key := c.cache.Key(querycache.KindMentions, params.Values())
	return querycache.Fetch(c.cache.Cache(), key, func() (*adminmodel.RepliedMentionsResponse, error) {
		return c.api.ListRepliedMentions(ctx, params)
	})
}

// List returns the page described by state, clamping the offset onto the
// last page when the total has shrunk.
func (c *MentionsController) List(ctx context.Context, state MentionsState) (*adminmodel.RepliedMentionsResponse, Page, error) {
	page := NewPage(c.limit, state.Offset, 0)
	state.Offset = page.Offset
	resp, err := c.fetch(ctx, state.Params(c.limit))
	if err != nil {
		return nil, page, err
	}
	page.Total = resp.Total

	if clamped := page.Clamp(); clamped.Offset != page.Offset {
		page = clamped
		resp, err = c.fetch(ctx, state.WithOffset(page.Offset).Params(c.limit))
		if err != nil {
			return nil, page, err
		}
		page.Total = resp.Total
	}
	return resp, page, nil
}

// Refresh discards cached mention lists so the next List hits the API
func (c *MentionsController) Refresh() {
	c.cache.Invalidate(querycache.KindMentions)
}

// CountPosted returns the number of mentions with a posted reply
func (c *MentionsController) CountPosted(ctx context.Context) (int, error) {
	resp, err := c.fetch(ctx, adminapi.RepliedMentionsParams{Status: adminmodel.StatusPosted, Limit: 1})
	if err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// MarkStatus is the one-click posted/skipped update. It sends only the status.
func (c *MentionsController) MarkStatus(ctx context.Context, mentionID string, status adminmodel.ReplyStatus) error {
	if status != adminmodel.StatusPosted && status != adminmodel.StatusSkipped {
		return errors.ErrInvalidStatus
	}
	return c.submit(ctx, mentionID, adminmodel.ManualReplyPayload{Status: status})
}

// SubmitManual sends the manual reply dialog
func (c *MentionsController) SubmitManual(ctx context.Context, mentionID string, form ManualForm) error {
	return c.submit(ctx, mentionID, form.Payload())
}

func (c *MentionsController) submit(ctx context.Context, mentionID string, payload adminmodel.ManualReplyPayload) error {
	mentionID = strings.TrimSpace(mentionID)
	if mentionID == "" {
		return errors.ErrMissingMentionID
	}
	if _, err := c.api.MarkManualReply(ctx, mentionID, payload); err != nil {
		return err
	}
	c.cache.Invalidate(querycache.KindMentions)
	return nil
}

// FindMention looks an item up by row key within a fetched page
func FindMention(resp *adminmodel.RepliedMentionsResponse, rowKey string) (adminmodel.RepliedMentionItem, bool) {
	if resp == nil || rowKey == "" {
		return adminmodel.RepliedMentionItem{}, false
	}
	for i, item := range resp.Items {
		if item.RowKey(i) == rowKey {
			return item, true
		}
	}
	return adminmodel.RepliedMentionItem{}, false
}
