package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/mentions-console/adminapi"
	"github.com/jrsteele09/mentions-console/adminmodel"
	"github.com/jrsteele09/mentions-console/auth"
	"github.com/jrsteele09/mentions-console/internal/config"
	"github.com/jrsteele09/mentions-console/querycache"
	"github.com/jrsteele09/mentions-console/server"
	"github.com/jrsteele09/mentions-console/server/loginsession"
	"github.com/stretchr/testify/require"
)

const testToken = "tok-admin"

// fakeAPI stands in for the mentions API
type fakeAPI struct {
	mu          sync.Mutex
	requests    []string
	bodies      map[string]string
	authHeaders map[string]string
	reject      bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{bodies: map[string]string{}, authHeaders: map[string]string{}}
}

func (f *fakeAPI) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.requests = append(f.requests, key)
	f.bodies[key] = string(body)
	f.authHeaders[r.URL.Path] = r.Header.Get("Authorization")
	reject := f.reject
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if reject && r.URL.Path != "/api/auth/login" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Could not validate credentials"}`)
		return
	}

	switch {
	case key == "POST /api/auth/login":
		var req adminmodel.LoginRequest
		_ = json.Unmarshal(body, &req)
		if req.Username != "admin" || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Invalid username or password"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"`+testToken+`","token_type":"bearer","expires_in":3600}`)
	case key == "GET /api/auth/me":
		_, _ = io.WriteString(w, `{"id":"1","username":"admin","display_name":"Ada Admin","role":"admin","permissions":["mentions","accounts"],"is_active":true}`)
	case key == "GET /api/accounts":
		_, _ = io.WriteString(w, `{"items":[
			{"id":"1","username":"admin","role":"admin","permissions":["mentions","accounts"],"is_active":true},
			{"id":"7","username":"mod","role":"moderator","permissions":["mentions"],"is_active":true},
			{"id":"8","username":"old","role":"moderator","permissions":["mentions"],"is_active":false}
		],"total":3}`)
	case key == "POST /api/accounts":
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"9","username":"new","role":"moderator","permissions":["mentions"],"is_active":true}`)
	case strings.HasPrefix(key, "DELETE /api/accounts/"):
		w.WriteHeader(http.StatusNoContent)
	case key == "GET /api/mentions/replied":
		_, _ = io.WriteString(w, `{"items":[
			{"mention":{"tweet_id":"t1","tweet_text":"hello","author_username":"jo"},"reply":{"mention_id":"m1","status":"generated","reply_text":"hi"}}
		],"total":2}`)
	case strings.HasPrefix(key, "POST /api/mentions/replied/"):
		_, _ = io.WriteString(w, `{"ok":true}`)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.requests {
		if k == key {
			n++
		}
	}
	return n
}

func (f *fakeAPI) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

type consoleFixture struct {
	api     *fakeAPI
	server  *server.Server
	console *httptest.Server
	client  *http.Client
}

func setupConsole(t *testing.T) *consoleFixture {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("APP_NAME", "Test Console")

	f := &consoleFixture{api: newFakeAPI()}
	apiServer := httptest.NewServer(http.HandlerFunc(f.api.handler))
	t.Cleanup(apiServer.Close)

	client, err := adminapi.New(apiServer.URL)
	require.NoError(t, err)
	sessions, err := auth.NewSessionStore(loginsession.NewInMemoryLoginSessionRepo(), client)
	require.NoError(t, err)
	csrf := auth.NewCSRFStore()
	t.Cleanup(csrf.Close)

	f.server, err = server.New(config.New(), sessions, csrf, querycache.New(time.Minute))
	require.NoError(t, err)
	f.console = httptest.NewServer(f.server)
	t.Cleanup(f.console.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	f.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return f
}

func (f *consoleFixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := f.client.Get(f.console.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (f *consoleFixture) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := f.client.PostForm(f.console.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (f *consoleFixture) login(t *testing.T) {
	t.Helper()
	resp, _ := f.post(t, "/login", url.Values{"username": {"admin"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

var csrfPattern = regexp.MustCompile(`name="_csrf" value="([0-9a-f]+)"`)

func (f *consoleFixture) csrfToken(t *testing.T) string {
	t.Helper()
	_, body := f.get(t, "/dashboard")
	m := csrfPattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "no CSRF token on the dashboard")
	return m[1]
}

func location(t *testing.T, resp *http.Response) *url.URL {
	t.Helper()
	u, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	return u
}

func TestUnauthenticatedRequestsGoToLogin(t *testing.T) {
	f := setupConsole(t)

	resp, _ := f.get(t, "/dashboard")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = f.get(t, "/mentions?status=failed")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc := location(t, resp)
	require.Equal(t, "/login", loc.Path)
	require.Equal(t, "/mentions?status=failed", loc.Query().Get("next"))

	resp, body := f.get(t, "/login")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Test Console")
	require.Zero(t, f.api.count("GET /api/accounts"))
}

func TestUnknownGetRedirectsToDashboard(t *testing.T) {
	f := setupConsole(t)

	resp, _ := f.get(t, "/no/such/page")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestLoginAttachesBearerToken(t *testing.T) {
	f := setupConsole(t)
	f.login(t)

	resp, body := f.get(t, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Ada Admin")
	require.Contains(t, body, `data-stat="accounts">3<`)
	require.Contains(t, body, `data-stat="posted">2<`)

	f.api.mu.Lock()
	defer f.api.mu.Unlock()
	require.Equal(t, "Bearer "+testToken, f.api.authHeaders["/api/accounts"])
	require.Empty(t, f.api.authHeaders["/api/auth/login"])
}

func TestLoginFailureRendersInline(t *testing.T) {
	f := setupConsole(t)

	resp, body := f.post(t, "/login", url.Values{"username": {"admin"}, "password": {"nope"}})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, body, "Invalid username or password")
	require.Contains(t, body, `value="admin"`)

	resp, body = f.post(t, "/login", url.Values{"username": {"  "}, "password": {"secret"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body, "Username and password are required")
	require.Equal(t, 1, f.api.count("POST /api/auth/login"))
}

func TestLoginPageRedirectsLiveSession(t *testing.T) {
	f := setupConsole(t)
	f.login(t)

	resp, _ := f.get(t, "/login")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestLoginHonoursNext(t *testing.T) {
	f := setupConsole(t)

	resp, _ := f.post(t, "/login", url.Values{
		"username": {"admin"},
		"password": {"secret"},
		"next":     {"/accounts?offset=25"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/accounts?offset=25", resp.Header.Get("Location"))

	resp, _ = f.post(t, "/login", url.Values{
		"username": {"admin"},
		"password": {"secret"},
		"next":     {"https://evil.example/"},
	})
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestRejectedTokenRedirectsToLoginOnce(t *testing.T) {
	f := setupConsole(t)
	f.login(t)

	f.api.mu.Lock()
	f.api.reject = true
	f.api.mu.Unlock()

	resp, _ := f.get(t, "/mentions")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc := location(t, resp)
	require.Equal(t, "/login", loc.Path)
	require.Equal(t, "Session expired. Please login again.", loc.Query().Get("error"))
	require.Equal(t, 1, f.api.count("GET /api/mentions/replied"))

	// The login page renders rather than bouncing again
	resp, body := f.get(t, loc.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Session expired. Please login again.")

	// The session is gone for good
	resp, _ = f.get(t, "/dashboard")
	require.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLogoutEndsSession(t *testing.T) {
	f := setupConsole(t)
	f.login(t)
	token := f.csrfToken(t)

	resp, _ := f.post(t, "/logout", url.Values{"_csrf": {token}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "You have been logged out.", location(t, resp).Query().Get("notice"))

	resp, _ = f.get(t, "/dashboard")
	require.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLogoutGetOnlyConfirms(t *testing.T) {
	f := setupConsole(t)
	f.login(t)

	resp, body := f.get(t, "/logout")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Sign out of the console?")
	require.Contains(t, body, `action="/logout"`)

	resp, _ = f.post(t, "/logout", url.Values{})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.get(t, "/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode, "the session survives both")
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	f := setupConsole(t)
	f.login(t)

	resp, _ := f.post(t, "/accounts/7/delete", url.Values{"confirm": {"yes"}})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.post(t, "/accounts/7/delete", url.Values{"confirm": {"yes"}, "_csrf": {"bogus"}})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Zero(t, f.api.count("DELETE /api/accounts/7"))
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	f := setupConsole(t)
	f.login(t)
	token := f.csrfToken(t)

	resp, _ := f.post(t, "/accounts/7/delete", url.Values{"_csrf": {token}, "offset": {"0"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc := location(t, resp)
	require.Equal(t, "/accounts", loc.Path)
	require.Equal(t, "7", loc.Query().Get("delete"))
	require.Zero(t, f.api.count("DELETE /api/accounts/7"))

	_, body := f.get(t, loc.String())
	require.Contains(t, body, "Delete mod?")
	require.Contains(t, body, `name="confirm" value="yes"`)
	require.Zero(t, f.api.count("DELETE /api/accounts/7"))

	resp, _ = f.post(t, "/accounts/7/delete", url.Values{"_csrf": {token}, "confirm": {"yes"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "Account deleted", location(t, resp).Query().Get("notice"))
	require.Equal(t, 1, f.api.count("DELETE /api/accounts/7"))
}

func TestCreateAccountValidationKeepsInput(t *testing.T) {
	f := setupConsole(t)
	f.login(t)
	token := f.csrfToken(t)

	resp, body := f.post(t, "/accounts", url.Values{
		"_csrf":        {token},
		"username":     {"newbie"},
		"password":     {"pw"},
		"display_name": {"New Bie"},
		"role":         {"moderator"},
		"is_active":    {"on"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, body, "Select at least one permission for a moderator")
	require.Contains(t, body, `value="newbie"`)
	require.Zero(t, f.api.count("POST /api/accounts"))

	resp, _ = f.post(t, "/accounts", url.Values{
		"_csrf":       {token},
		"username":    {"newbie"},
		"password":    {"pw"},
		"role":        {"moderator"},
		"permissions": {"mentions"},
		"is_active":   {"on"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, 1, f.api.count("POST /api/accounts"))
	require.JSONEq(t,
		`{"username":"newbie","password":"pw","display_name":null,"role":"moderator","permissions":["mentions"],"is_active":true}`,
		f.api.body("POST /api/accounts"))
}

func TestMentionsFilterChangeResetsOffset(t *testing.T) {
	f := setupConsole(t)
	f.login(t)

	from := url.Values{"status": {"posted"}, "search_type": {"all"}, "offset": {"50"}}.Encode()

	resp, _ := f.get(t, "/mentions?"+url.Values{
		"from":        {from},
		"status":      {"failed"},
		"search_type": {"all"},
		"q":           {""},
	}.Encode())
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	q := location(t, resp).Query()
	require.Equal(t, "failed", q.Get("status"))
	require.Empty(t, q.Get("offset"))

	// Unchanged filters keep the page
	resp, _ = f.get(t, "/mentions?"+url.Values{
		"from":        {from},
		"status":      {"posted"},
		"search_type": {"all"},
		"q":           {""},
	}.Encode())
	require.Equal(t, "50", location(t, resp).Query().Get("offset"))
}

func TestMarkStatusSendsStatusOnly(t *testing.T) {
	f := setupConsole(t)
	f.login(t)
	token := f.csrfToken(t)

	resp, body := f.get(t, "/mentions?status=all")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Mark as posted")

	resp, _ = f.post(t, "/mentions/status", url.Values{
		"_csrf":      {token},
		"from":       {"status=all&search_type=all"},
		"mention_id": {"m1"},
		"status":     {"posted"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	loc := location(t, resp)
	require.Equal(t, "all", loc.Query().Get("status"))
	require.Equal(t, "Mention marked as posted", loc.Query().Get("notice"))
	require.JSONEq(t, `{"status":"posted"}`, f.api.body("POST /api/mentions/replied/m1/manual"))
}

func TestMarkStatusWithoutMentionIDSendsNothing(t *testing.T) {
	f := setupConsole(t)
	f.login(t)
	token := f.csrfToken(t)

	resp, _ := f.post(t, "/mentions/status", url.Values{
		"_csrf":  {token},
		"status": {"skipped"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "Missing mention id", location(t, resp).Query().Get("error"))

	f.api.mu.Lock()
	defer f.api.mu.Unlock()
	for _, req := range f.api.requests {
		require.False(t, strings.HasPrefix(req, "POST /api/mentions/replied/"), req)
	}
}

func TestManualReplyDialog(t *testing.T) {
	f := setupConsole(t)
	f.login(t)
	token := f.csrfToken(t)

	_, body := f.get(t, "/mentions?status=all&edit=m1")
	require.Contains(t, body, "Edit manual reply")
	require.Contains(t, body, `name="row_key" value="m1"`)
	// "generated" cannot be set by hand, so the dialog keeps it
	require.Contains(t, body, `<option value="" selected>Unchanged</option>`)
	require.NotContains(t, body, `value="posted" selected`)

	resp, _ := f.post(t, "/mentions/manual", url.Values{
		"_csrf":          {token},
		"from":           {"status=all&search_type=all&edit=m1"},
		"mention_id":     {"m1"},
		"row_key":        {"m1"},
		"reply_text":     {"  thanks!  "},
		"reply_url":      {" "},
		"reply_tweet_id": {""},
		"reply_username": {""},
		"status":         {"posted"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Empty(t, location(t, resp).Query().Get("edit"))
	require.JSONEq(t, `{"reply_text":"thanks!","status":"posted"}`, f.api.body("POST /api/mentions/replied/m1/manual"))
}

func TestRecoverMiddleware(t *testing.T) {
	f := setupConsole(t)

	h := server.ChainMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}, f.server.RecoverMiddleware)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStaticCSS(t *testing.T) {
	f := setupConsole(t)

	resp, body := f.get(t, "/css/console.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	require.Contains(t, body, ".sidebar")

	lastModified := resp.Header.Get("Last-Modified")
	require.NotEmpty(t, lastModified)

	req, err := http.NewRequest(http.MethodGet, f.console.URL+"/css/console.css", nil)
	require.NoError(t, err)
	req.Header.Set("If-Modified-Since", lastModified)
	resp, err = f.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotModified, resp.StatusCode)
}
