// Package auth provides interfaces and types required for implementing an authenticator.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
)

// Rec is an authentication record: the verified identity of the actor.
type Rec struct {
	// User ID
	Uid types.Uid `json:"uid,omitempty"`
	// Lifetime of the secret: when issuing it's the requested lifetime, when
	// authenticating it's the remaining time.
	Lifetime time.Duration `json:"lifetime,omitempty"`
}

// AuthHandler is the interface which auth providers must implement.
type AuthHandler interface {
	// Init initializes the handler taking config string and logical name as parameters.
	Init(jsonconf json.RawMessage, name string) error

	// Authenticate: given a user-provided authentication secret (such as a token)
	// return the identity of the actor or an error: ErrMalformed if the secret cannot be
	// parsed, ErrFailed if it's not valid, ErrExpired if it's no longer valid.
	Authenticate(secret []byte) (*Rec, error)

	// GenSecret generates a new secret for the given identity.
	// Returns: secret, time when the secret expires.
	GenSecret(rec *Rec) ([]byte, time.Time, error)
}

var handlers = make(map[string]AuthHandler)

// Register makes an auth handler available by the provided name.
// If Register is called twice with the same name or if handler is nil, it panics.
func Register(name string, handler AuthHandler) {
	name = strings.ToLower(name)
	if handler == nil {
		panic("auth: Register handler is nil")
	}
	if _, dup := handlers[name]; dup {
		panic("auth: Register called twice for handler " + name)
	}
	handlers[name] = handler
}

// GetHandler returns the registered handler by name or nil.
func GetHandler(name string) AuthHandler {
	return handlers[strings.ToLower(name)]
}

// Handlers returns names of registered handlers.
func Handlers() []string {
	var names []string
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseHeader extracts the scheme and the secret from the value of an Authorization header:
// "Token <base64 secret>".
func ParseHeader(value string) (scheme string, secret []byte, err error) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", nil, types.ErrMalformed
	}
	scheme = strings.ToLower(parts[0])
	if secret, err = decodeSecret(parts[1]); err != nil {
		return "", nil, types.ErrMalformed
	}
	return scheme, secret, nil
}

// DecodeSecret converts a secret passed as a query parameter or a header to bytes.
// Both standard and URL-safe base64 alphabets are accepted, with or without padding.
func DecodeSecret(value string) ([]byte, error) {
	secret, err := decodeSecret(value)
	if err != nil {
		return nil, types.ErrMalformed
	}
	return secret, nil
}

func decodeSecret(value string) ([]byte, error) {
	value = strings.TrimRight(value, "=")
	if value == "" {
		return nil, errors.New("empty secret")
	}
	if strings.ContainsAny(value, "-_") {
		return base64.RawURLEncoding.DecodeString(value)
	}
	return base64.RawStdEncoding.DecodeString(value)
}
