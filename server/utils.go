// Generic request handling utilities.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/auth"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/logs"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	"golang.org/x/time/rate"
)

const (
	// Keep per-actor limiters for this long after the last request.
	limiterIdleTimeout = 10 * time.Minute
	// Sweep idle limiters when this many are tracked.
	limiterSweepThreshold = 4096
)

var (
	errAuthMissing = errors.New("no credentials")
	errAuthScheme  = errors.New("unsupported authentication scheme")
)

// authenticate extracts the token from the Authorization header or the 'token' query
// parameter and returns the verified identity of the actor.
func authenticate(req *http.Request, authn auth.AuthHandler) (types.Uid, error) {
	var secret []byte
	var err error
	if header := req.Header.Get("Authorization"); header != "" {
		var scheme string
		if scheme, secret, err = auth.ParseHeader(header); err != nil {
			return types.ZeroUid, err
		}
		if scheme != "token" {
			return types.ZeroUid, errAuthScheme
		}
	} else if token := req.URL.Query().Get("token"); token != "" {
		if secret, err = auth.DecodeSecret(token); err != nil {
			return types.ZeroUid, err
		}
	} else {
		return types.ZeroUid, errAuthMissing
	}

	rec, err := authn.Authenticate(secret)
	if err != nil {
		return types.ZeroUid, err
	}
	return rec.Uid, nil
}

func authError(err error, ts time.Time) *ServerComMessage {
	switch err {
	case errAuthMissing:
		return ErrAuthRequired("", "", ts)
	case errAuthScheme:
		return ErrAuthUnknownScheme("", "", ts)
	default:
		return ErrAuthFailed("", "", ts)
	}
}

type actorKey struct{}

func withActor(ctx context.Context, uid types.Uid) context.Context {
	return context.WithValue(ctx, actorKey{}, uid)
}

// actorOf returns the authenticated actor of the request.
func actorOf(ctx context.Context) types.Uid {
	uid, _ := ctx.Value(actorKey{}).(types.Uid)
	return uid
}

// writeCtrl writes {ctrl} message using its code as the HTTP status.
func writeCtrl(wrt http.ResponseWriter, msg *ServerComMessage) {
	writeJSON(wrt, msg.Ctrl.Code, msg)
}

func writeJSON(wrt http.ResponseWriter, status int, body any) {
	wrt.Header().Set("Content-Type", "application/json; charset=utf-8")
	wrt.WriteHeader(status)
	if err := json.NewEncoder(wrt).Encode(body); err != nil {
		logs.Warn.Println("http: failed to write response", err)
	}
}

// Checks if the IP address is a public address of a client, not a loopback or
// a private address of a proxy.
func isRoutableIP(ipStr string) bool {
	// X-Forwarded-For may contain a list of addresses, the first one is the client.
	if idx := strings.IndexByte(ipStr, ','); idx >= 0 {
		ipStr = ipStr[:idx]
	}
	ip := net.ParseIP(strings.TrimSpace(ipStr))
	if ip == nil {
		return false
	}
	return !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() &&
		!ip.IsLinkLocalUnicast() && !ip.IsLinkLocalMulticast()
}

type rateLimitConfig struct {
	// Sustained number of requests per second per actor.
	PerSecond float64 `json:"per_second"`
	// Number of requests allowed in a burst.
	Burst int `json:"burst"`
}

type actorLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps a token bucket for every actor.
type rateLimiter struct {
	lock   sync.Mutex
	limit  rate.Limit
	burst  int
	actors map[types.Uid]*actorLimiter
}

// newRateLimiter returns nil if rate limiting is disabled.
func newRateLimiter(conf *rateLimitConfig) *rateLimiter {
	if conf == nil || conf.PerSecond <= 0 {
		return nil
	}
	burst := conf.Burst
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		limit:  rate.Limit(conf.PerSecond),
		burst:  burst,
		actors: make(map[types.Uid]*actorLimiter),
	}
}

// Allow reports whether the actor may make a request now. A nil limiter allows everything.
func (rl *rateLimiter) Allow(uid types.Uid) bool {
	if rl == nil {
		return true
	}

	now := time.Now()

	rl.lock.Lock()
	defer rl.lock.Unlock()

	al := rl.actors[uid]
	if al == nil {
		if len(rl.actors) >= limiterSweepThreshold {
			rl.sweep(now)
		}
		al = &actorLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.actors[uid] = al
	}
	al.lastSeen = now
	return al.limiter.AllowN(now, 1)
}

// Forget actors which have been idle for a while. Must be called with the lock held.
func (rl *rateLimiter) sweep(now time.Time) {
	for uid, al := range rl.actors {
		if now.Sub(al.lastSeen) > limiterIdleTimeout {
			delete(rl.actors, uid)
		}
	}
}
