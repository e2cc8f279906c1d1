// Package adapter contains the interfaces to be implemented by the database adapter
package adapter

import (
	"encoding/json"
	"time"

	t "github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
)

// Adapter is the interface that must be implemented by a database
// adapter. The current schema supports a single connection by database type.
type Adapter interface {
	// General

	// Open and configure the adapter
	Open(config json.RawMessage) error
	// Close the adapter
	Close() error
	// IsOpen checks if the adapter is ready for use
	IsOpen() bool
	// GetDbVersion returns current database version.
	GetDbVersion() (int, error)
	// CheckDbVersion checks if the actual database version matches adapter version.
	CheckDbVersion() error
	// GetName returns the name of the adapter
	GetName() string
	// SetMaxResults configures how many results can be returned in a single DB call.
	SetMaxResults(val int) error
	// MaxResults returns the configured upper bound on the number of results in a single DB call.
	MaxResults() int
	// CreateDb creates the database optionally dropping an existing database first.
	CreateDb(reset bool) error
	// UpgradeDb upgrades database to the current adapter version.
	UpgradeDb() error
	// Version returns adapter version
	Version() int
	// DB connection stats object.
	Stats() any

	// User management

	// UserCreate creates user record
	UserCreate(user *t.User) error
	// UserGetAll returns user records for a given list of user IDs
	UserGetAll(ids ...t.Uid) ([]t.User, error)

	// Servers and permission grants. Maintained by administrative tooling.

	// ServerCreate creates a server record
	ServerCreate(srv *t.Server) error
	// ServerGet returns the server record or ErrNotFound
	ServerGet(id t.Uid) (*t.Server, error)
	// MembershipUpsert creates or replaces the capabilities of the user in the scope
	MembershipUpsert(m *t.Membership) error
	// MembershipGet returns capabilities of the user in the scope or ErrNotFound
	MembershipGet(user, scope t.Uid) (*t.Membership, error)

	// Channel summaries

	// ChannelCreate creates an empty channel summary
	ChannelCreate(ch *t.Channel) error
	// ChannelGet returns the channel summary or ErrNotFound
	ChannelGet(id t.Uid) (*t.Channel, error)
	// ChannelAddMessage atomically appends the message id to the channel and adds the
	// sender to the set of senders.
	ChannelAddMessage(channel, msg, sender t.Uid) error
	// ChannelRemoveMessage removes the message id from whichever channel references it.
	// Removing an id which is not referenced is not an error.
	ChannelRemoveMessage(msg t.Uid) error

	// Messages

	// MessageSave saves message to DB
	MessageSave(msg *t.Message) error
	// MessageGet returns a single message or ErrNotFound
	MessageGet(id t.Uid) (*t.Message, error)
	// MessageGetAll returns messages of the channel newest first, skipping the first
	// 'offset' messages and returning at most 'limit'.
	MessageGetAll(channel t.Uid, offset, limit int) ([]t.Message, error)
	// MessageUpdate replaces content of the message and returns the updated message or ErrNotFound
	MessageUpdate(id t.Uid, content string, updatedAt time.Time) (*t.Message, error)
	// MessageReplaceReactions writes the reactions if the stored version of the message equals
	// 'version'. The stored version is incremented. Returns ErrConflict if the version does not
	// match, ErrNotFound if the message does not exist.
	MessageReplaceReactions(id t.Uid, version int, reactions t.ReactionLedger) (*t.Message, error)
	// MessageDelete deletes the message and returns the deleted record or ErrNotFound
	MessageDelete(id t.Uid) (*t.Message, error)
}
