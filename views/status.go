package views

import "github.com/jrsteele09/mentions-console/adminmodel"

// Option is a value/label pair for select inputs
type Option struct {
	Value string
	Label string
}

// StatusOptions are the mentions status filter choices in display order
var StatusOptions = []Option{
	{string(adminmodel.StatusAll), "All"},
	{string(adminmodel.StatusSkipped), "Skipped"},
	{string(adminmodel.StatusPosted), "Posted"},
	{string(adminmodel.StatusPostFailed), "Post failed"},
	{string(adminmodel.StatusFailed), "Failed"},
	{string(adminmodel.StatusQueued), "Queued"},
	{string(adminmodel.StatusGenerating), "Generating"},
	{string(adminmodel.StatusGenerated), "Generated"},
	{string(adminmodel.StatusPosting), "Posting"},
}

var SearchOptions = []Option{
	{string(adminmodel.SearchAll), "All fields"},
	{string(adminmodel.SearchAuthor), "Author"},
	{string(adminmodel.SearchTweet), "Tweet text"},
	{string(adminmodel.SearchReply), "Reply text"},
}

// ManualStatusOptions are the statuses an operator may set by hand
var ManualStatusOptions = []Option{
	{string(adminmodel.StatusPosted), "Posted"},
	{string(adminmodel.StatusSkipped), "Skipped"},
}

func statusFilterValid(s adminmodel.ReplyStatus) bool {
	for _, o := range StatusOptions {
		if o.Value == string(s) {
			return true
		}
	}
	return false
}

// Emphasis is the visual weight of a status badge
type Emphasis string

const (
	EmphasisNeutral    Emphasis = "neutral"
	EmphasisInProgress Emphasis = "in-progress"
	EmphasisError      Emphasis = "error"
	EmphasisSuccess    Emphasis = "success"
)

// StatusLabel is the badge text for an item. The skip flag overrides the
// reply status.
func StatusLabel(item adminmodel.RepliedMentionItem) string {
	if item.IsSkipped() {
		return "Skipped"
	}
	if item.Reply.Status == nil || *item.Reply.Status == "" {
		return "No reply"
	}
	status := *item.Reply.Status
	for _, o := range StatusOptions {
		if o.Value == string(status) {
			return o.Label
		}
	}
	return string(status)
}

func StatusEmphasis(item adminmodel.RepliedMentionItem) Emphasis {
	if item.IsSkipped() || item.Reply.Status == nil {
		return EmphasisNeutral
	}
	switch *item.Reply.Status {
	case adminmodel.StatusQueued, adminmodel.StatusGenerating, adminmodel.StatusGenerated, adminmodel.StatusPosting:
		return EmphasisInProgress
	case adminmodel.StatusFailed, adminmodel.StatusPostFailed:
		return EmphasisError
	case adminmodel.StatusPosted:
		return EmphasisSuccess
	}
	return EmphasisNeutral
}
