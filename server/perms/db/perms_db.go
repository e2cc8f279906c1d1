// Package db is a permission oracle backed by the grants kept in the chat database.
package db

import (
	"encoding/json"
	"errors"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/perms"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
)

type oracle struct {
	name string
}

// Init initializes the oracle. The oracle has no configuration.
func (o *oracle) Init(jsonconf json.RawMessage, name string) error {
	if o.name != "" {
		return errors.New("perms_db: already initialized as " + o.name + "; " + name)
	}
	o.name = name
	return nil
}

// HasCapability checks grants of the actor. When the scope is a channel, the grant in the
// channel is consulted first, then the grant in the channel's server. The owner of the server
// holds every capability.
func (o *oracle) HasCapability(actor, scope types.Uid, capability types.Capability) (bool, error) {
	if actor.IsZero() || scope.IsZero() {
		return false, types.ErrMalformed
	}

	scopes := []types.Uid{scope}
	srv, err := store.Servers.Get(scope)
	if err == types.ErrNotFound {
		srv, err = parentServer(scope)
		if err != nil {
			return false, err
		}
		if srv != nil {
			scopes = append(scopes, srv.Uid())
		}
	} else if err != nil {
		return false, err
	}

	if srv != nil && srv.Owner == actor.String() {
		return true, nil
	}

	for _, s := range scopes {
		m, err := store.Servers.GetMembership(actor, s)
		if err == types.ErrNotFound {
			continue
		}
		if err != nil {
			return false, err
		}
		if m.Grants(capability) {
			return true, nil
		}
	}
	return false, nil
}

// parentServer returns the server of the channel or nil if the channel is not attached to
// any server. ErrNotFound if the channel does not exist.
func parentServer(channel types.Uid) (*types.Server, error) {
	ch, err := store.Channels.Get(channel)
	if err != nil {
		return nil, err
	}
	id := types.ParseUid(ch.Server)
	if id.IsZero() {
		return nil, nil
	}
	srv, err := store.Servers.Get(id)
	if err == types.ErrNotFound {
		return nil, nil
	}
	return srv, err
}

// New returns an uninitialized oracle.
func New() perms.Oracle {
	return &oracle{}
}

func init() {
	perms.Register("db", &oracle{})
}
