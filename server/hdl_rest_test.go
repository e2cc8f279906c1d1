package main

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/auth"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/auth/token"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	"github.com/google/go-cmp/cmp"
)

func newTestAuthn(t *testing.T) auth.AuthHandler {
	t.Helper()
	conf, _ := json.Marshal(map[string]any{
		"key":        []byte("wfaY2RgF2S1OQI/ZlK+LSrp1KB2jwAdGAIHQ7JZn+Kc="),
		"expire_in":  3600,
		"serial_num": 1,
	})
	authn := token.New()
	if err := authn.Init(conf, "token"); err != nil {
		t.Fatal(err)
	}
	return authn
}

func tokenFor(t *testing.T, authn auth.AuthHandler, uid types.Uid) string {
	t.Helper()
	secret, _, err := authn.GenSecret(&auth.Rec{Uid: uid})
	if err != nil {
		t.Fatal(err)
	}
	return base64.StdEncoding.EncodeToString(secret)
}

type restClient struct {
	t     *testing.T
	srv   *httptest.Server
	authn auth.AuthHandler
}

func newRestClient(t *testing.T, w *testWorld, limiter *rateLimiter) *restClient {
	authn := newTestAuthn(t)
	srv := httptest.NewServer(newRestRouter("/v1", &restApi{
		pipeline: w.pipeline,
		authn:    authn,
		limiter:  limiter,
	}))
	t.Cleanup(srv.Close)
	return &restClient{t: t, srv: srv, authn: authn}
}

// do sends the request on behalf of the actor, or anonymously if the actor is zero, and
// decodes the response into out if out is not nil.
func (c *restClient) do(method, path string, actor types.Uid, body string, out any) int {
	c.t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, rdr)
	if err != nil {
		c.t.Fatal(err)
	}
	if !actor.IsZero() {
		req.Header.Set("Authorization", "Token "+tokenFor(c.t, c.authn, actor))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatal(err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("%s %s: failed to decode response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestRestAuthRequired(t *testing.T) {
	w := newTestWorld(t, nil)
	c := newRestClient(t, w, nil)

	var resp ServerComMessage
	if code := c.do(http.MethodGet, "/v1/channels/"+w.general.String()+"/messages", types.ZeroUid, "", &resp); code != http.StatusUnauthorized {
		t.Error("expected 401, got", code)
	}
	if resp.Ctrl == nil || resp.Ctrl.Text != "authentication required" {
		t.Errorf("unexpected response %s", resp.describe())
	}

	req, _ := http.NewRequest(http.MethodGet, c.srv.URL+"/v1/channels/"+w.general.String(), nil)
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("alice:secret")))
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Error("unknown scheme must be rejected, got", res.StatusCode)
	}

	// Token in the query string.
	res, err = http.Get(c.srv.URL + "/v1/channels/" + w.general.String() + "?token=" +
		strings.NewReplacer("+", "-", "/", "_").Replace(tokenFor(t, c.authn, w.bob)))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Error("token in query must be accepted, got", res.StatusCode)
	}
}

func TestRestMessageLifecycle(t *testing.T) {
	w := newTestWorld(t, nil)
	c := newRestClient(t, w, nil)
	messages := "/v1/channels/" + w.general.String() + "/messages"

	var page []MsgMessage
	if code := c.do(http.MethodGet, messages, w.bob, "", &page); code != http.StatusOK || len(page) != 0 {
		t.Fatalf("expected empty page, got %d %v", code, page)
	}

	var created MsgMessage
	if code := c.do(http.MethodPost, messages, w.bob, `{"content":"hi"}`, &created); code != http.StatusCreated {
		t.Fatal("expected 201, got", code)
	}
	if created.Content != "hi" || created.From != w.bob.String() || created.Channel != w.general.String() {
		t.Errorf("unexpected message %+v", created)
	}

	var denied ServerComMessage
	if code := c.do(http.MethodPost, messages, w.carol, `{"content":"hello"}`, &denied); code != http.StatusForbidden {
		t.Error("carol must not post in general, got", code)
	}

	var edited MsgMessage
	if code := c.do(http.MethodPatch, "/v1/messages/"+created.Id, w.bob, `{"content":"hello"}`, &edited); code != http.StatusOK {
		t.Fatal("expected 200, got", code)
	}
	if edited.Content != "hello" {
		t.Error("expected edited content, got", edited.Content)
	}

	var reacted struct {
		Ctrl struct {
			Code   int `json:"code"`
			Params struct {
				Added     bool             `json:"added"`
				Reactions []types.Reaction `json:"reactions"`
			} `json:"params"`
		} `json:"ctrl"`
	}
	if code := c.do(http.MethodPost, "/v1/messages/"+created.Id+"/reactions", w.carol, `{"symbol":"👍"}`, &reacted); code != http.StatusOK {
		t.Fatal("expected 200, got", code)
	}
	if !reacted.Ctrl.Params.Added {
		t.Error("first toggle must add the reaction")
	}
	want := []types.Reaction{{Symbol: "👍", Users: []string{w.carol.String()}}}
	if diff := cmp.Diff(want, reacted.Ctrl.Params.Reactions); diff != "" {
		t.Error("reactions mismatch (-want +got):", diff)
	}

	if code := c.do(http.MethodGet, messages, w.alice, "", &page); code != http.StatusOK || len(page) != 1 {
		t.Fatalf("expected one message, got %d %v", code, page)
	}
	if page[0].Content != "hello" || page[0].Sender == nil || page[0].Sender.Username != "bob" {
		t.Errorf("unexpected listed message %+v", page[0])
	}

	var ch MsgChannel
	if code := c.do(http.MethodGet, "/v1/channels/"+w.general.String(), w.alice, "", &ch); code != http.StatusOK {
		t.Fatal("expected 200, got", code)
	}
	if diff := cmp.Diff([]string{created.Id}, ch.Messages); diff != "" {
		t.Error("channel index mismatch (-want +got):", diff)
	}

	if code := c.do(http.MethodDelete, "/v1/messages/"+created.Id, w.carol, "", nil); code != http.StatusForbidden {
		t.Error("only the author may delete, got", code)
	}
	if code := c.do(http.MethodDelete, "/v1/messages/"+created.Id, w.bob, "", nil); code != http.StatusOK {
		t.Error("expected 200, got", code)
	}
	if code := c.do(http.MethodDelete, "/v1/messages/"+created.Id, w.bob, "", nil); code != http.StatusNotFound {
		t.Error("second delete must fail with 404, got", code)
	}

	if diff := cmp.Diff([]EventKind{EventMessageCreated, EventMessageUpdated, EventReactionUpdated,
		EventMessageDeleted}, w.fanout.kinds()); diff != "" {
		t.Error("events mismatch (-want +got):", diff)
	}
}

func TestRestMalformed(t *testing.T) {
	w := newTestWorld(t, nil)
	c := newRestClient(t, w, nil)
	messages := "/v1/channels/" + w.general.String() + "/messages"

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"page size not a number", http.MethodGet, messages + "?pageSize=abc", "", http.StatusBadRequest},
		{"negative page", http.MethodGet, messages + "?page=-1", "", http.StatusBadRequest},
		{"bad channel id", http.MethodGet, "/v1/channels/nope/messages", "", http.StatusBadRequest},
		{"unknown channel", http.MethodGet, "/v1/channels/" + types.Uid(77).String(), "", http.StatusNotFound},
		{"body not json", http.MethodPost, messages, "hi", http.StatusBadRequest},
		{"blank content", http.MethodPost, messages, `{"content":"  "}`, http.StatusBadRequest},
		{"unknown message", http.MethodPatch, "/v1/messages/" + types.Uid(78).String(), `{"content":"x"}`, http.StatusNotFound},
		{"empty symbol", http.MethodPost, "/v1/messages/" + types.Uid(78).String() + "/reactions", `{"symbol":""}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code := c.do(tc.method, tc.path, w.bob, tc.body, nil); code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, code)
			}
		})
	}
}

func TestRestRouting(t *testing.T) {
	w := newTestWorld(t, nil)
	c := newRestClient(t, w, nil)

	var resp ServerComMessage
	if code := c.do(http.MethodGet, "/v1/nothing/here", w.bob, "", &resp); code != http.StatusNotFound {
		t.Error("expected 404, got", code)
	}
	if code := c.do(http.MethodGet, "/v2/channels/"+w.general.String(), w.bob, "", nil); code != http.StatusNotFound {
		t.Error("expected 404, got", code)
	}
	if code := c.do(http.MethodPut, "/v1/messages/"+types.Uid(5).String(), w.bob, `{}`, &resp); code != http.StatusMethodNotAllowed {
		t.Error("expected 405, got", code)
	}
	if resp.Ctrl == nil || resp.Ctrl.Code != http.StatusMethodNotAllowed {
		t.Errorf("unexpected response %s", resp.describe())
	}
	if code := c.do(http.MethodDelete, "/v1/channels/"+w.general.String()+"/messages", w.bob, "", nil); code != http.StatusMethodNotAllowed {
		t.Error("expected 405, got", code)
	}
	// Method is checked before credentials.
	if code := c.do(http.MethodPut, "/v1/messages/"+types.Uid(5).String(), types.ZeroUid, `{}`, nil); code != http.StatusMethodNotAllowed {
		t.Error("expected 405 without credentials, got", code)
	}
}

func TestRestRateLimited(t *testing.T) {
	w := newTestWorld(t, nil)
	c := newRestClient(t, w, newRateLimiter(&rateLimitConfig{PerSecond: 0.001, Burst: 1}))
	path := "/v1/channels/" + w.general.String() + "/messages"

	if code := c.do(http.MethodGet, path, w.bob, "", nil); code != http.StatusOK {
		t.Fatal("expected 200, got", code)
	}
	if code := c.do(http.MethodGet, path, w.bob, "", nil); code != http.StatusTooManyRequests {
		t.Error("expected 429, got", code)
	}
	// Limits are per actor.
	if code := c.do(http.MethodGet, path, w.alice, "", nil); code != http.StatusOK {
		t.Error("expected 200 for another actor, got", code)
	}
}
