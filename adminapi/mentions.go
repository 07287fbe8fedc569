package adminapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/mentions-console/adminmodel"
)

const pathRepliedMentions = "/api/mentions/replied"

type RepliedMentionsParams struct {
	Status     adminmodel.ReplyStatus
	Query      string
	SearchType adminmodel.SearchType
	Limit      int
	Offset     int
}

// Values encodes the params; blank status, query and search type are omitted
func (p RepliedMentionsParams) Values() url.Values {
	v := url.Values{}
	if p.Status != "" {
		v.Set("status", string(p.Status))
	}
	if q := strings.TrimSpace(p.Query); q != "" {
		v.Set("q", q)
	}
	if p.SearchType != "" {
		v.Set("search_type", string(p.SearchType))
	}
	v.Set("limit", strconv.Itoa(p.Limit))
	v.Set("offset", strconv.Itoa(p.Offset))
	return v
}

func (c *Client) ListRepliedMentions(ctx context.Context, params RepliedMentionsParams) (*adminmodel.RepliedMentionsResponse, error) {
	var resp adminmodel.RepliedMentionsResponse
	if err := c.do(ctx, http.MethodGet, pathRepliedMentions, params.Values(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MarkManualReply records an operator override for a mention and returns the raw response body
func (c *Client) MarkManualReply(ctx context.Context, mentionID string, payload adminmodel.ManualReplyPayload) (json.RawMessage, error) {
	var raw json.RawMessage
	path := pathRepliedMentions + "/" + url.PathEscape(mentionID) + "/manual"
	if err := c.do(ctx, http.MethodPost, path, nil, payload, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
