package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/mentions-console/adminmodel"
	"github.com/jrsteele09/mentions-console/internal/utils"
	"github.com/jrsteele09/mentions-console/views"
)

type mentionRow struct {
	Key          string
	MentionID    string
	Author       string
	AuthorHandle string
	TweetText    string
	TweetURL     string
	TweetedAt    string
	ReplyText    string
	ReplyURL     string
	UpdatedAt    string
	StatusLabel  string
	Emphasis     views.Emphasis
	CanPost      bool
	CanSkip      bool
	EditURL      string
}

func newMentionRow(key string, item adminmodel.RepliedMentionItem, state views.MentionsState) mentionRow {
	row := mentionRow{
		Key:         key,
		MentionID:   item.MentionID(),
		ReplyText:   orDash(utils.Value(item.Reply.ReplyText)),
		ReplyURL:    utils.Value(item.Reply.ReplyURL),
		UpdatedAt:   formatTime(item.Reply.UpdatedAt),
		StatusLabel: views.StatusLabel(item),
		Emphasis:    views.StatusEmphasis(item),
		EditURL:     withQuery(RouteMentions, state.WithEdit(key).Values()),
		Author:      "—",
		TweetText:   "—",
		TweetedAt:   "—",
	}
	status := utils.Value(item.Reply.Status)
	row.CanPost = status != adminmodel.StatusPosted
	row.CanSkip = status != adminmodel.StatusSkipped && !item.IsSkipped()

	if m := item.Mention; m != nil {
		row.Author = orDash(utils.Value(m.AuthorName))
		if handle := utils.Value(m.AuthorUsername); handle != "" {
			row.AuthorHandle = "@" + handle
		}
		row.TweetText = orDash(utils.Value(m.TweetText))
		row.TweetURL = utils.Value(m.TweetURL)
		row.TweetedAt = formatTime(m.TweetCreatedAt)
	}
	return row
}

// manualDialog offers only the statuses an operator may set. Any other
// current status (failed, queued...) preselects "Unchanged", which sends no
// status, so the reply keeps it.
type manualDialog struct {
	Row        mentionRow
	Form       views.ManualForm
	Statuses   []selectOption
	KeepStatus bool
}

func newManualDialog(row mentionRow, form views.ManualForm) *manualDialog {
	d := &manualDialog{Row: row, Form: form, KeepStatus: true}
	for _, o := range views.ManualStatusOptions {
		selected := o.Value == string(form.Status)
		d.KeepStatus = d.KeepStatus && !selected
		d.Statuses = append(d.Statuses, selectOption{Value: o.Value, Label: o.Label, Selected: selected})
	}
	return d
}

type mentionsView struct {
	Rows          []mentionRow
	Page          views.Page
	State         string // encoded state the forms were rendered from
	Query         string
	StatusFilters []selectOption
	SearchFilters []selectOption
	PrevURL       string
	NextURL       string
	RefreshURL    string
	CloseURL      string
	Manual        *manualDialog
}

type mentionsRender struct {
	state      views.MentionsState
	manualForm *views.ManualForm
	status     int
	flash      flash
}

func (s *Server) renderMentions(w http.ResponseWriter, r *http.Request, in mentionsRender) {
	session, _ := sessionFromContext(r.Context())
	ctrl := s.mentionsController(session)

	resp, page, err := ctrl.List(r.Context(), in.state)
	if s.unauthorized(w, r, err) {
		return
	}
	if err != nil && in.flash.Error == "" {
		in.flash.Error = displayMessage(err, "Failed to load mentions")
	}
	state := in.state
	state.Offset = page.Offset

	view := mentionsView{
		Page:       page,
		State:      state.Values().Encode(),
		Query:      state.Query,
		CloseURL:   withQuery(RouteMentions, state.WithEdit("").Values()),
		RefreshURL: withQuery(RouteMentions, url.Values{"refresh": {"1"}, "from": {state.WithEdit("").Values().Encode()}}),
	}
	for _, o := range views.StatusOptions {
		view.StatusFilters = append(view.StatusFilters, selectOption{Value: o.Value, Label: o.Label, Selected: o.Value == string(state.Status)})
	}
	for _, o := range views.SearchOptions {
		view.SearchFilters = append(view.SearchFilters, selectOption{Value: o.Value, Label: o.Label, Selected: o.Value == string(state.SearchType)})
	}
	if resp != nil {
		for i, item := range resp.Items {
			view.Rows = append(view.Rows, newMentionRow(item.RowKey(i), item, state))
		}
	}
	if page.HasPrevious() {
		view.PrevURL = withQuery(RouteMentions, state.WithOffset(page.PreviousOffset()).Values())
	}
	if page.HasNext() {
		view.NextURL = withQuery(RouteMentions, state.WithOffset(page.NextOffset()).Values())
	}

	if item, ok := views.FindMention(resp, state.EditKey); ok {
		form := views.ManualFormFor(item)
		if in.manualForm != nil {
			form = *in.manualForm
		}
		view.Manual = newManualDialog(newMentionRow(state.EditKey, item, state), form)
	}

	s.renderAdminPage(w, r, in.status, "mentions", "Mentions", s.templates.mentions, view, in.flash)
}

// MentionsPageHandler lists replied mentions (GET /mentions). A submitted
// filter form or a refresh request is redirected to the canonical URL.
func (s *Server) MentionsPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Has("from") {
			state := views.ApplyMentionsFilter(q)
			if q.Has("refresh") {
				session, _ := sessionFromContext(r.Context())
				s.mentionsController(session).Refresh()
			}
			redirectSuccess(w, r, withQuery(RouteMentions, state.Values()))
			return
		}

		s.renderMentions(w, r, mentionsRender{
			state:  views.ParseMentionsState(q),
			status: http.StatusOK,
			flash:  flashFromQuery(r),
		})
	}
}

// returnState is the page state a mentions form was posted from
func returnState(r *http.Request) views.MentionsState {
	from, err := url.ParseQuery(r.PostFormValue("from"))
	if err != nil {
		from = url.Values{}
	}
	state := views.ParseMentionsState(from)
	state.EditKey = ""
	return state
}

// MentionStatusHandler applies a one-click posted or skipped status
// (POST /mentions/status)
func (s *Server) MentionStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessionFromContext(r.Context())
		state := returnState(r)
		mentionID := r.PostFormValue("mention_id")
		status := adminmodel.ReplyStatus(r.PostFormValue("status"))

		err := s.mentionsController(session).MarkStatus(r.Context(), mentionID, status)
		if s.unauthorized(w, r, err) {
			return
		}
		target := withQuery(RouteMentions, state.Values())
		if err != nil {
			redirectWithError(w, r, target, displayMessage(err, "Failed to update mention"))
			return
		}

		requestLogger(r).Info().Str("mention", mentionID).Str("status", string(status)).Msg("mention status updated")
		label := "posted"
		if status == adminmodel.StatusSkipped {
			label = "skipped"
		}
		redirectWithNotice(w, r, target, "Mention marked as "+label)
	}
}

// MentionManualHandler submits the manual reply dialog (POST /mentions/manual).
// Failure re-opens the dialog with the operator's input.
func (s *Server) MentionManualHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := sessionFromContext(r.Context())
		state := returnState(r)
		mentionID := r.PostFormValue("mention_id")
		form := views.ManualFormFromValues(r.PostForm)

		err := s.mentionsController(session).SubmitManual(r.Context(), mentionID, form)
		if s.unauthorized(w, r, err) {
			return
		}
		if err != nil {
			s.renderMentions(w, r, mentionsRender{
				state:      state.WithEdit(r.PostFormValue("row_key")),
				manualForm: &form,
				status:     http.StatusUnprocessableEntity,
				flash:      flash{Error: displayMessage(err, "Failed to save manual reply")},
			})
			return
		}

		requestLogger(r).Info().Str("mention", mentionID).Msg("manual reply saved")
		redirectWithNotice(w, r, withQuery(RouteMentions, state.Values()), "Manual reply saved")
	}
}
