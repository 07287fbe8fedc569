package views_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/mentions-console/adminmodel"
	"github.com/jrsteele09/mentions-console/internal/errors"
	"github.com/jrsteele09/mentions-console/internal/utils"
	"github.com/jrsteele09/mentions-console/querycache"
	"github.com/jrsteele09/mentions-console/views"
	"github.com/stretchr/testify/require"
)

func replyItem(mentionID string, status adminmodel.ReplyStatus, skipped bool) adminmodel.RepliedMentionItem {
	item := adminmodel.RepliedMentionItem{
		Mention: &adminmodel.MentionSummary{
			TweetID:        utils.Ptr("tweet-" + mentionID),
			AuthorUsername: utils.Ptr("alice"),
			IsSkipped:      utils.Ptr(skipped),
		},
		Reply: adminmodel.ReplySummary{
			MentionID:     utils.Ptr(mentionID),
			Status:        utils.Ptr(status),
			ReplyText:     utils.Ptr("Thanks for the mention!"),
			ReplyURL:      utils.Ptr("https://x.com/optimai/status/99"),
			ReplyTweetID:  utils.Ptr("99"),
			ReplyUsername: utils.Ptr("optimai"),
		},
	}
	return item
}

func TestMentionsStateDefaults(t *testing.T) {
	s := views.ParseMentionsState(url.Values{})
	require.Equal(t, views.DefaultMentionsState(), s)
	require.Equal(t, adminmodel.StatusPosted, s.Status)
	require.Equal(t, adminmodel.SearchAll, s.SearchType)

	s = views.ParseMentionsState(url.Values{"status": {"bogus"}, "search_type": {"bogus"}, "offset": {"-1"}})
	require.Equal(t, views.DefaultMentionsState(), s)
}

func TestStatusFilterChangeResetsOffset(t *testing.T) {
	s := views.DefaultMentionsState()
	s.Offset = 50
	s.SetStatus(adminmodel.StatusFailed)
	require.Equal(t, adminmodel.StatusFailed, s.Status)
	require.Zero(t, s.Offset)

	s.Offset = 50
	s.SetStatus(adminmodel.StatusFailed)
	require.Equal(t, 50, s.Offset, "unchanged filter keeps the page")

	s.SetQuery("alice")
	require.Zero(t, s.Offset)

	s.Offset = 25
	s.SetSearchType(adminmodel.SearchAuthor)
	require.Zero(t, s.Offset)
}

func TestApplyMentionsFilter(t *testing.T) {
	from := views.DefaultMentionsState().WithOffset(50)

	s := views.ApplyMentionsFilter(url.Values{
		"from":        {from.Values().Encode()},
		"status":      {"failed"},
		"search_type": {"all"},
		"q":           {""},
	})
	require.Equal(t, adminmodel.StatusFailed, s.Status)
	require.Zero(t, s.Offset)

	s = views.ApplyMentionsFilter(url.Values{
		"from":   {from.Values().Encode()},
		"status": {"posted"},
	})
	require.Equal(t, 50, s.Offset)
}

func TestMentionsStateValuesRoundTrip(t *testing.T) {
	s := views.MentionsState{
		Status:     adminmodel.StatusAll,
		Query:      "hello world",
		SearchType: adminmodel.SearchReply,
		Offset:     25,
		EditKey:    "m1",
	}
	require.Equal(t, s, views.ParseMentionsState(s.Values()))

	params := views.MentionsState{Status: adminmodel.StatusPosted, Query: "  ", SearchType: adminmodel.SearchAll}.Params(25)
	require.Empty(t, params.Values().Get("q"))
	require.Equal(t, "posted", params.Values().Get("status"))
}

func TestManualEditRoundTrip(t *testing.T) {
	for _, status := range []adminmodel.ReplyStatus{adminmodel.StatusPosted, adminmodel.StatusSkipped, adminmodel.StatusFailed} {
		item := replyItem("m1", status, false)
		payload := views.ManualFormFor(item).Payload()

		require.Equal(t, item.Reply.ReplyText, payload.ReplyText)
		require.Equal(t, item.Reply.ReplyURL, payload.ReplyURL)
		require.Equal(t, item.Reply.ReplyTweetID, payload.ReplyTweetID)
		require.Equal(t, item.Reply.ReplyUsername, payload.ReplyUsername)
		require.Equal(t, status, payload.Status)
	}
}

func TestManualFormSkippedOverride(t *testing.T) {
	form := views.ManualFormFor(replyItem("m1", adminmodel.StatusPosted, true))
	require.Equal(t, adminmodel.StatusSkipped, form.Status)
}

func TestManualFormTrimsAndOmitsBlanks(t *testing.T) {
	form := views.ManualFormFromValues(url.Values{
		"reply_text":     {"  hi  "},
		"reply_url":      {"   "},
		"reply_tweet_id": {""},
		"reply_username": {" optimai "},
		"status":         {"posted"},
	})
	payload := form.Payload()
	require.Equal(t, "hi", *payload.ReplyText)
	require.Nil(t, payload.ReplyURL)
	require.Nil(t, payload.ReplyTweetID)
	require.Equal(t, "optimai", *payload.ReplyUsername)
	require.Equal(t, adminmodel.StatusPosted, payload.Status)
}

func newMentionsController(api *fakeAPI) *views.MentionsController {
	return views.NewMentionsController(api, querycache.New(time.Minute).Scope("session-1"), 25)
}

func TestMarkStatusSendsStatusOnly(t *testing.T) {
	api := newFakeAPI()
	c := newMentionsController(api)
	ctx := context.Background()

	require.NoError(t, c.MarkStatus(ctx, "m1", adminmodel.StatusPosted))
	require.Equal(t, adminmodel.ManualReplyPayload{Status: adminmodel.StatusPosted}, api.manual["m1"])

	require.NoError(t, c.MarkStatus(ctx, "m2", adminmodel.StatusSkipped))
	require.Equal(t, adminmodel.ManualReplyPayload{Status: adminmodel.StatusSkipped}, api.manual["m2"])

	require.ErrorIs(t, c.MarkStatus(ctx, "m3", adminmodel.StatusFailed), errors.ErrInvalidStatus)
	require.Equal(t, 2, api.manualCalls)
}

func TestMissingMentionIDSendsNothing(t *testing.T) {
	api := newFakeAPI()
	c := newMentionsController(api)
	ctx := context.Background()

	item := adminmodel.RepliedMentionItem{Reply: adminmodel.ReplySummary{ReplyTweetID: utils.Ptr("99")}}
	require.Empty(t, item.MentionID())

	require.ErrorIs(t, c.MarkStatus(ctx, item.MentionID(), adminmodel.StatusSkipped), errors.ErrMissingMentionID)
	require.ErrorIs(t, c.SubmitManual(ctx, "  ", views.ManualFormFor(item)), errors.ErrMissingMentionID)
	require.Zero(t, api.manualCalls)
}

func TestManualUpdateInvalidatesMentions(t *testing.T) {
	api := newFakeAPI()
	api.mentionTotal = 1
	api.mentionItems = []adminmodel.RepliedMentionItem{replyItem("m1", adminmodel.StatusFailed, false)}
	c := newMentionsController(api)
	ctx := context.Background()
	state := views.DefaultMentionsState()

	_, _, err := c.List(ctx, state)
	require.NoError(t, err)
	_, _, err = c.List(ctx, state)
	require.NoError(t, err)
	require.Len(t, api.listMentions, 1)

	require.NoError(t, c.SubmitManual(ctx, "m1", views.ManualFormFor(api.mentionItems[0])))
	_, _, err = c.List(ctx, state)
	require.NoError(t, err)
	require.Len(t, api.listMentions, 2)

	c.Refresh()
	_, _, err = c.List(ctx, state)
	require.NoError(t, err)
	require.Len(t, api.listMentions, 3)
}

func TestMentionsListClampsShrunkTotal(t *testing.T) {
	api := newFakeAPI()
	api.mentionTotal = 10
	c := newMentionsController(api)

	state := views.DefaultMentionsState().WithOffset(50)
	_, page, err := c.List(context.Background(), state)
	require.NoError(t, err)
	require.Zero(t, page.Offset)
	require.Len(t, api.listMentions, 2)
	require.Equal(t, 0, api.listMentions[1].Offset)
}

func TestFindMention(t *testing.T) {
	resp := &adminmodel.RepliedMentionsResponse{Items: []adminmodel.RepliedMentionItem{
		replyItem("m1", adminmodel.StatusPosted, false),
		{Reply: adminmodel.ReplySummary{}},
	}}
	item, ok := views.FindMention(resp, "m1")
	require.True(t, ok)
	require.Equal(t, "m1", item.MentionID())

	_, ok = views.FindMention(resp, "row-1")
	require.True(t, ok)

	_, ok = views.FindMention(resp, "missing")
	require.False(t, ok)
}

func TestLoadDashboard(t *testing.T) {
	api := newFakeAPI()
	api.accountTotal = 4
	api.mentionTotal = 17
	cache := querycache.New(time.Minute).Scope("s")
	accounts := views.NewAccountsController(api, cache, 25)
	mentions := views.NewMentionsController(api, cache, 25)

	stats, err := views.LoadDashboard(context.Background(), accounts, mentions)
	require.NoError(t, err)
	require.Equal(t, 4, *stats.Accounts)
	require.Equal(t, 17, *stats.PostedMentions)
	require.Equal(t, 1, api.listAccounts[0].Limit)
	require.Equal(t, adminmodel.StatusPosted, api.listMentions[0].Status)

	api.err = errors.ErrTransport
	cache.Invalidate(querycache.KindAccounts)
	stats, err = views.LoadDashboard(context.Background(), accounts, nil)
	require.NoError(t, err)
	require.Nil(t, stats.Accounts)
	require.Nil(t, stats.PostedMentions)

	api.err = errors.ErrUnauthorized
	cache.Invalidate(querycache.KindAccounts)
	_, err = views.LoadDashboard(context.Background(), accounts, mentions)
	require.ErrorIs(t, err, errors.ErrUnauthorized)
}
