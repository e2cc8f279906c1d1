package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	"github.com/google/go-cmp/cmp"
)

type capabilityCall struct {
	Endpoint string        `json:"endpoint"`
	Name     string        `json:"name"`
	Req      capabilityReq `json:"req"`
}

func newOracle(t *testing.T, srvUrl string) *oracle {
	t.Helper()
	o := &oracle{}
	conf, _ := json.Marshal(map[string]any{"server_url": srvUrl})
	if err := o.Init(conf, "rest"); err != nil {
		t.Fatal(err)
	}
	return o
}

func TestHasCapability(t *testing.T) {
	var got capabilityCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Error("unexpected method", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		json.NewEncoder(w).Encode(map[string]any{"granted": got.Req.User == types.Uid(7)})
	}))
	defer srv.Close()

	o := newOracle(t, srv.URL)

	ok, err := o.HasCapability(types.Uid(7), types.Uid(9), types.CapSendMessages)
	if err != nil || !ok {
		t.Fatal("expected a grant", ok, err)
	}
	want := capabilityCall{
		Endpoint: "capability",
		Name:     "rest",
		Req:      capabilityReq{User: types.Uid(7), Scope: types.Uid(9), Cap: types.CapSendMessages},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Error("request mismatch (-want +got):", diff)
	}

	ok, err = o.HasCapability(types.Uid(8), types.Uid(9), types.CapSendMessages)
	if err != nil || ok {
		t.Fatal("expected a denial", ok, err)
	}
}

func TestSeparateEndpoints(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"granted":true}`))
	}))
	defer srv.Close()

	o := &oracle{}
	conf, _ := json.Marshal(map[string]any{"server_url": srv.URL + "/authz", "use_separate_endpoints": true})
	if err := o.Init(conf, "rest"); err != nil {
		t.Fatal(err)
	}
	if _, err := o.HasCapability(types.Uid(1), types.Uid(2), types.CapSendMessages); err != nil {
		t.Fatal(err)
	}
	if path != "/authz/capability" {
		t.Error("unexpected path", path)
	}
}

func TestErrors(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "remote error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"err":"not found"}`))
			},
			want: types.ErrNotFound,
		},
		{
			name: "server failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			want: types.ErrUnavailable,
		},
		{
			name: "client failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			want: types.ErrInternal,
		},
		{
			name: "garbage",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>`))
			},
			want: types.ErrInternal,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
				w.Write([]byte(`{"granted":true}`))
			},
			want: types.ErrUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			o := newOracle(t, srv.URL)
			o.client.Timeout = 50 * time.Millisecond

			if _, err := o.HasCapability(types.Uid(1), types.Uid(2), types.CapSendMessages); err != tc.want {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestInit(t *testing.T) {
	if err := (&oracle{}).Init(json.RawMessage(`{"server_url":"relative/path"}`), "rest"); err == nil {
		t.Error("relative url must be rejected")
	}
	if err := (&oracle{}).Init(json.RawMessage(`{`), "rest"); err == nil {
		t.Error("bad json must be rejected")
	}
}
