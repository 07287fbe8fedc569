package adminmodel

import (
	"fmt"
	"time"
)

// ReplyStatus is the lifecycle status of a reply
type ReplyStatus string

const (
	StatusQueued     ReplyStatus = "queued"
	StatusGenerating ReplyStatus = "generating"
	StatusGenerated  ReplyStatus = "generated"
	StatusPosting    ReplyStatus = "posting"
	StatusPosted     ReplyStatus = "posted"
	StatusPostFailed ReplyStatus = "post_failed"
	StatusFailed     ReplyStatus = "failed"
	StatusSkipped    ReplyStatus = "skipped"

	// StatusAll is only meaningful as a list filter
	StatusAll ReplyStatus = "all"
)

// SearchType scopes the free-text query of the mentions list
type SearchType string

const (
	SearchAll    SearchType = "all"
	SearchAuthor SearchType = "author"
	SearchTweet  SearchType = "tweet"
	SearchReply  SearchType = "reply"
)

func (s SearchType) Valid() bool {
	switch s {
	case SearchAll, SearchAuthor, SearchTweet, SearchReply:
		return true
	}
	return false
}

// MentionSummary is the immutable ingestion record of a mention
type MentionSummary struct {
	MentionID      *string    `json:"mention_id,omitempty"`
	TweetID        *string    `json:"tweet_id,omitempty"`
	TweetText      *string    `json:"tweet_text,omitempty"`
	TweetURL       *string    `json:"tweet_url,omitempty"`
	TweetCreatedAt *time.Time `json:"tweet_created_at,omitempty"`
	AuthorID       *string    `json:"author_id,omitempty"`
	AuthorName     *string    `json:"author_name,omitempty"`
	AuthorUsername *string    `json:"author_username,omitempty"`
	IngestedAt     *time.Time `json:"ingested_at,omitempty"`
	IsSkipped      *bool      `json:"is_skipped,omitempty"`
}

// ReplySummary is the mutable reply record keyed by mention id
type ReplySummary struct {
	MentionID     *string      `json:"mention_id,omitempty"`
	Status        *ReplyStatus `json:"status,omitempty"`
	ReplyText     *string      `json:"reply_text,omitempty"`
	ReplyURL      *string      `json:"reply_url,omitempty"`
	ReplyTweetID  *string      `json:"reply_tweet_id,omitempty"`
	ReplyUsername *string      `json:"reply_username,omitempty"`
	CreatedAt     *time.Time   `json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `json:"updated_at,omitempty"`
}

// RepliedMentionItem pairs an optional mention with its reply
type RepliedMentionItem struct {
	Mention *MentionSummary `json:"mention,omitempty"`
	Reply   ReplySummary    `json:"reply"`
}

// MentionID resolves the id used for manual updates: the reply's mention
// id, falling back to the mention's tweet id. Empty when neither is set.
func (i RepliedMentionItem) MentionID() string {
	if i.Reply.MentionID != nil && *i.Reply.MentionID != "" {
		return *i.Reply.MentionID
	}
	if i.Mention != nil && i.Mention.TweetID != nil {
		return *i.Mention.TweetID
	}
	return ""
}

// RowKey identifies the item within a page
func (i RepliedMentionItem) RowKey(index int) string {
	if id := i.MentionID(); id != "" {
		return id
	}
	if i.Reply.ReplyTweetID != nil && *i.Reply.ReplyTweetID != "" {
		return *i.Reply.ReplyTweetID
	}
	return fmt.Sprintf("row-%d", index)
}

// IsSkipped reports the mention's skip flag
func (i RepliedMentionItem) IsSkipped() bool {
	return i.Mention != nil && i.Mention.IsSkipped != nil && *i.Mention.IsSkipped
}

type RepliedMentionsResponse struct {
	Items []RepliedMentionItem `json:"items"`
	Total int                  `json:"total"`
}

// ManualReplyPayload is the body of POST /api/mentions/replied/{mentionId}/manual.
// Nil fields are omitted.
type ManualReplyPayload struct {
	ReplyText     *string     `json:"reply_text,omitempty"`
	ReplyURL      *string     `json:"reply_url,omitempty"`
	ReplyTweetID  *string     `json:"reply_tweet_id,omitempty"`
	ReplyUsername *string     `json:"reply_username,omitempty"`
	Status        ReplyStatus `json:"status,omitempty"`
}
