package views_test

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jrsteele09/mentions-console/adminapi"
	"github.com/jrsteele09/mentions-console/adminmodel"
)

// fakeAPI records calls and serves canned responses
type fakeAPI struct {
	mu sync.Mutex

	accountTotal int
	mentionTotal int
	mentionItems []adminmodel.RepliedMentionItem
	err          error
	listAccounts []adminapi.AccountListParams
	listMentions []adminapi.RepliedMentionsParams
	created      []adminmodel.AccountCreatePayload
	updated      map[string]adminmodel.AccountUpdatePayload
	deleted      []string
	manual       map[string]adminmodel.ManualReplyPayload
	manualCalls  int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		updated: map[string]adminmodel.AccountUpdatePayload{},
		manual:  map[string]adminmodel.ManualReplyPayload{},
	}
}

func (f *fakeAPI) ListAccounts(_ context.Context, params adminapi.AccountListParams) (*adminmodel.AccountList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listAccounts = append(f.listAccounts, params)
	if f.err != nil {
		return nil, f.err
	}
	return &adminmodel.AccountList{Total: f.accountTotal}, nil
}

func (f *fakeAPI) CreateAccount(_ context.Context, payload adminmodel.AccountCreatePayload) (*adminmodel.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, payload)
	return &adminmodel.Account{ID: "new", Username: payload.Username, Role: payload.Role}, nil
}

func (f *fakeAPI) UpdateAccount(_ context.Context, accountID string, payload adminmodel.AccountUpdatePayload) (*adminmodel.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.updated[accountID] = payload
	return &adminmodel.Account{ID: accountID}, nil
}

func (f *fakeAPI) DeleteAccount(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, accountID)
	return nil
}

func (f *fakeAPI) ListRepliedMentions(_ context.Context, params adminapi.RepliedMentionsParams) (*adminmodel.RepliedMentionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listMentions = append(f.listMentions, params)
	if f.err != nil {
		return nil, f.err
	}
	return &adminmodel.RepliedMentionsResponse{Items: f.mentionItems, Total: f.mentionTotal}, nil
}

func (f *fakeAPI) MarkManualReply(_ context.Context, mentionID string, payload adminmodel.ManualReplyPayload) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manualCalls++
	if f.err != nil {
		return nil, f.err
	}
	f.manual[mentionID] = payload
	return json.RawMessage(`{"ok":true}`), nil
}
