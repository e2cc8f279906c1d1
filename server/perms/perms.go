// Package perms provides the interface and the registry of permission oracles: services which
// answer whether an actor holds a capability in a server or channel scope.
package perms

//go:generate mockgen -destination mock_perms/mock_perms.go -package mock_perms github.com/Divyanshu-Mishra9620/DiscordClone/server/perms Oracle

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
)

// Oracle is the interface which permission providers must implement.
type Oracle interface {
	// Init initializes the oracle taking config string and logical name as parameters.
	Init(jsonconf json.RawMessage, name string) error

	// HasCapability checks if the actor holds the capability in the given scope which is
	// either a server or a channel. A missing grant is not an error: the result is false.
	// Returns ErrUnavailable if the backing service cannot be reached in time.
	HasCapability(actor, scope types.Uid, capability types.Capability) (bool, error)
}

var oracles = make(map[string]Oracle)

// Register makes an oracle available by the provided name.
// If Register is called twice with the same name or if oracle is nil, it panics.
func Register(name string, oracle Oracle) {
	name = strings.ToLower(name)
	if oracle == nil {
		panic("perms: Register oracle is nil")
	}
	if _, dup := oracles[name]; dup {
		panic("perms: Register called twice for oracle " + name)
	}
	oracles[name] = oracle
}

// GetOracle returns a registered oracle by name or nil.
func GetOracle(name string) Oracle {
	return oracles[strings.ToLower(name)]
}

// Oracles returns names of registered oracles, sorted.
func Oracles() []string {
	names := make([]string, 0, len(oracles))
	for name := range oracles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
