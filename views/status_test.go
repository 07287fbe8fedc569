package views_test

import (
	"testing"

	"github.com/jrsteele09/mentions-console/adminmodel"
	"github.com/jrsteele09/mentions-console/views"
	"github.com/stretchr/testify/require"
)

func TestSkippedOverridesStatusLabel(t *testing.T) {
	for _, opt := range views.StatusOptions {
		item := replyItem("m1", adminmodel.ReplyStatus(opt.Value), true)
		require.Equal(t, "Skipped", views.StatusLabel(item))
		require.Equal(t, views.EmphasisNeutral, views.StatusEmphasis(item))
	}
}

func TestStatusLabelAndEmphasis(t *testing.T) {
	tests := []struct {
		status   adminmodel.ReplyStatus
		label    string
		emphasis views.Emphasis
	}{
		{adminmodel.StatusQueued, "Queued", views.EmphasisInProgress},
		{adminmodel.StatusGenerating, "Generating", views.EmphasisInProgress},
		{adminmodel.StatusGenerated, "Generated", views.EmphasisInProgress},
		{adminmodel.StatusPosting, "Posting", views.EmphasisInProgress},
		{adminmodel.StatusFailed, "Failed", views.EmphasisError},
		{adminmodel.StatusPostFailed, "Post failed", views.EmphasisError},
		{adminmodel.StatusPosted, "Posted", views.EmphasisSuccess},
		{"archived", "archived", views.EmphasisNeutral},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			item := replyItem("m1", tt.status, false)
			require.Equal(t, tt.label, views.StatusLabel(item))
			require.Equal(t, tt.emphasis, views.StatusEmphasis(item))
		})
	}

	require.Equal(t, "No reply", views.StatusLabel(adminmodel.RepliedMentionItem{}))
}
