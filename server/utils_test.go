package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
)

func TestIsRoutableIP(t *testing.T) {
	cases := map[string]bool{
		"8.8.8.8":                true,
		"8.8.8.8, 10.0.0.1":      true,
		" 2001:4860:4860::8888 ": true,
		"127.0.0.1":              false,
		"10.1.2.3":               false,
		"192.168.0.10":           false,
		"169.254.1.1":            false,
		"::1":                    false,
		"0.0.0.0":                false,
		"":                       false,
		"localhost":              false,
	}
	for ip, want := range cases {
		if got := isRoutableIP(ip); got != want {
			t.Errorf("isRoutableIP(%q) = %v, want %v", ip, got, want)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	var disabled *rateLimiter
	if !disabled.Allow(types.Uid(1)) {
		t.Error("nil limiter must allow everything")
	}
	if newRateLimiter(nil) != nil || newRateLimiter(&rateLimitConfig{}) != nil {
		t.Error("zero rate must disable limiting")
	}

	rl := newRateLimiter(&rateLimitConfig{PerSecond: 0.001, Burst: 3})
	for i := 0; i < 3; i++ {
		if !rl.Allow(types.Uid(1)) {
			t.Fatal("request within the burst rejected", i)
		}
	}
	if rl.Allow(types.Uid(1)) {
		t.Error("request over the burst allowed")
	}
	if !rl.Allow(types.Uid(2)) {
		t.Error("limits must be per actor")
	}

	rl.actors[types.Uid(1)].lastSeen = time.Now().Add(-2 * limiterIdleTimeout)
	rl.sweep(time.Now())
	if _, ok := rl.actors[types.Uid(1)]; ok {
		t.Error("idle actor not swept")
	}
	if _, ok := rl.actors[types.Uid(2)]; !ok {
		t.Error("active actor swept")
	}
}

func TestAuthenticate(t *testing.T) {
	authn := newTestAuthn(t)
	uid := types.Uid(4242)
	tok := tokenFor(t, authn, uid)

	cases := []struct {
		name   string
		header string
		query  string
		want   types.Uid
		err    error
	}{
		{name: "header", header: "Token " + tok, want: uid},
		{name: "scheme is case insensitive", header: "token " + tok, want: uid},
		{name: "query", query: "?token=" + tok, want: uid},
		{name: "missing", err: errAuthMissing},
		{name: "other scheme", header: "Bearer " + tok, err: errAuthScheme},
		{name: "garbled header", header: "Token", err: types.ErrMalformed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/channels"+encodeQuery(tc.query), nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			got, err := authenticate(req, authn)
			if err != tc.err {
				t.Fatalf("expected error %v, got %v", tc.err, err)
			}
			if got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}

	if code := authError(errAuthMissing, time.Now()).Ctrl.Code; code != 401 {
		t.Error("expected 401, got", code)
	}
}

// Standard base64 uses '+' which means space in a query string.
func encodeQuery(q string) string {
	out := []byte(q)
	for i, c := range out {
		switch c {
		case '+':
			out[i] = '-'
		case '/':
			out[i] = '_'
		}
	}
	return string(out)
}

func TestActorContext(t *testing.T) {
	if !actorOf(context.Background()).IsZero() {
		t.Error("anonymous context must have no actor")
	}
	if actorOf(withActor(context.Background(), types.Uid(9))) != types.Uid(9) {
		t.Error("actor lost")
	}
}
