// Package memory is a non-persistent database adapter keeping all records in process memory.
// It's meant for development and tests; all data is lost on restart.
package memory

import (
	"encoding/json"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/db/common"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store"
	t "github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
)

// adapter holds the in-memory tables.
type adapter struct {
	// One lock for all tables: every operation touches at most a few records.
	lock sync.RWMutex

	open       bool
	version    int
	maxResults int

	users    map[string]t.User
	servers  map[string]t.Server
	members  map[string]t.Membership
	channels map[string]t.Channel
	messages map[string]t.Message
}

const (
	adpVersion  = 1
	adapterName = "memory"
)

// Open initializes the tables. The adapter has no configuration.
func (a *adapter) Open(json.RawMessage) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.open {
		return errors.New("adapter memory is already connected")
	}

	if a.maxResults <= 0 {
		a.maxResults = common.DefaultMaxResults
	}
	a.reset()
	a.version = adpVersion
	a.open = true
	return nil
}

func (a *adapter) reset() {
	a.users = make(map[string]t.User)
	a.servers = make(map[string]t.Server)
	a.members = make(map[string]t.Membership)
	a.channels = make(map[string]t.Channel)
	a.messages = make(map[string]t.Message)
}

// Close drops all data.
func (a *adapter) Close() error {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.reset()
	a.open = false
	a.version = -1
	return nil
}

// IsOpen returns true if the adapter is ready for use.
func (a *adapter) IsOpen() bool {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return a.open
}

// GetDbVersion returns current database version.
func (a *adapter) GetDbVersion() (int, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return a.version, nil
}

// CheckDbVersion checks whether the actual DB version matches the expected version of this adapter.
func (a *adapter) CheckDbVersion() error {
	if vers, _ := a.GetDbVersion(); vers != adpVersion {
		return errors.New("Invalid database version")
	}
	return nil
}

// Version returns adapter version
func (a *adapter) Version() int {
	return adpVersion
}

// GetName returns the name of the adapter
func (a *adapter) GetName() string {
	return adapterName
}

// SetMaxResults configures how many results can be returned in a single DB call.
func (a *adapter) SetMaxResults(val int) error {
	if val <= 0 {
		a.maxResults = common.DefaultMaxResults
	} else {
		a.maxResults = val
	}
	return nil
}

// MaxResults returns the configured upper bound on the number of results.
func (a *adapter) MaxResults() int {
	return a.maxResults
}

// CreateDb drops all records when reset is true.
func (a *adapter) CreateDb(reset bool) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if reset || a.users == nil {
		a.reset()
	}
	a.version = adpVersion
	return nil
}

// UpgradeDb is a no-op.
func (a *adapter) UpgradeDb() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.version = adpVersion
	return nil
}

// Stats returns record counts.
func (a *adapter) Stats() any {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return map[string]int{
		"users":    len(a.users),
		"channels": len(a.channels),
		"messages": len(a.messages),
	}
}

// UserCreate creates a new user.
func (a *adapter) UserCreate(user *t.User) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if _, ok := a.users[user.Id]; ok {
		return t.ErrDuplicate
	}
	a.users[user.Id] = *user
	return nil
}

// UserGetAll returns the users which exist among the requested ones.
func (a *adapter) UserGetAll(ids ...t.Uid) ([]t.User, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	var users []t.User
	for _, id := range ids {
		if u, ok := a.users[id.String()]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// ServerCreate creates a server record.
func (a *adapter) ServerCreate(srv *t.Server) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if _, ok := a.servers[srv.Id]; ok {
		return t.ErrDuplicate
	}
	a.servers[srv.Id] = *srv
	return nil
}

// ServerGet returns the server record.
func (a *adapter) ServerGet(id t.Uid) (*t.Server, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	srv, ok := a.servers[id.String()]
	if !ok {
		return nil, t.ErrNotFound
	}
	return &srv, nil
}

func memberKey(user, scope string) string {
	return user + ":" + scope
}

// MembershipUpsert creates or replaces a grant.
func (a *adapter) MembershipUpsert(m *t.Membership) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	key := memberKey(m.User, m.Scope)
	rec := *m
	rec.Caps = slices.Clone(m.Caps)
	if old, ok := a.members[key]; ok {
		rec.ObjHeader = old.ObjHeader
		rec.UpdatedAt = t.TimeNow()
	}
	a.members[key] = rec
	return nil
}

// MembershipGet returns the grant of the user in the scope.
func (a *adapter) MembershipGet(user, scope t.Uid) (*t.Membership, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	m, ok := a.members[memberKey(user.String(), scope.String())]
	if !ok {
		return nil, t.ErrNotFound
	}
	m.Caps = slices.Clone(m.Caps)
	return &m, nil
}

// ChannelCreate creates a channel summary.
func (a *adapter) ChannelCreate(ch *t.Channel) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if _, ok := a.channels[ch.Id]; ok {
		return t.ErrDuplicate
	}
	rec := *ch
	rec.Messages = nil
	rec.Senders = nil
	a.channels[ch.Id] = rec
	return nil
}

// ChannelGet returns a copy of the channel summary.
func (a *adapter) ChannelGet(id t.Uid) (*t.Channel, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	ch, ok := a.channels[id.String()]
	if !ok {
		return nil, t.ErrNotFound
	}
	ch.Messages = slices.Clone(ch.Messages)
	ch.Senders = slices.Clone(ch.Senders)
	return &ch, nil
}

// ChannelAddMessage appends message id and adds the sender to the set.
func (a *adapter) ChannelAddMessage(channel, msg, sender t.Uid) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	ch, ok := a.channels[channel.String()]
	if !ok {
		return t.ErrNotFound
	}
	if id := msg.String(); !slices.Contains(ch.Messages, id) {
		ch.Messages = append(slices.Clone(ch.Messages), id)
	}
	if from := sender.String(); !slices.Contains(ch.Senders, from) {
		ch.Senders = append(slices.Clone(ch.Senders), from)
	}
	a.channels[channel.String()] = ch
	return nil
}

// ChannelRemoveMessage removes message id from the channel which references it.
func (a *adapter) ChannelRemoveMessage(msg t.Uid) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	id := msg.String()
	for key, ch := range a.channels {
		if idx := slices.Index(ch.Messages, id); idx >= 0 {
			ch.Messages = slices.Delete(slices.Clone(ch.Messages), idx, idx+1)
			a.channels[key] = ch
			return nil
		}
	}
	return nil
}

// MessageSave saves message to the table.
func (a *adapter) MessageSave(msg *t.Message) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if _, ok := a.messages[msg.Id]; ok {
		return t.ErrDuplicate
	}
	rec := *msg.Clone()
	rec.Sender = nil
	a.messages[msg.Id] = rec
	return nil
}

// MessageGet returns a copy of the message.
func (a *adapter) MessageGet(id t.Uid) (*t.Message, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	msg, ok := a.messages[id.String()]
	if !ok {
		return nil, t.ErrNotFound
	}
	return msg.Clone(), nil
}

// MessageGetAll returns a page of channel messages, newest first.
func (a *adapter) MessageGetAll(channel t.Uid, offset, limit int) ([]t.Message, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	chId := channel.String()
	var all []t.Message
	for _, msg := range a.messages {
		if msg.Channel == chId {
			all = append(all, *msg.Clone())
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Id > all[j].Id
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// MessageUpdate replaces message content.
func (a *adapter) MessageUpdate(id t.Uid, content string, updatedAt time.Time) (*t.Message, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	msg, ok := a.messages[id.String()]
	if !ok {
		return nil, t.ErrNotFound
	}
	msg.Content = content
	// Every edit moves the modification time forward, even within one millisecond.
	if !updatedAt.After(msg.UpdatedAt) {
		updatedAt = msg.UpdatedAt.Add(time.Millisecond)
	}
	msg.UpdatedAt = updatedAt
	a.messages[id.String()] = msg
	return msg.Clone(), nil
}

// MessageReplaceReactions writes reactions if the version matches.
func (a *adapter) MessageReplaceReactions(id t.Uid, version int, reactions t.ReactionLedger) (*t.Message, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	msg, ok := a.messages[id.String()]
	if !ok {
		return nil, t.ErrNotFound
	}
	if msg.Version != version {
		return nil, t.ErrConflict
	}
	msg.Reactions = reactions.Clone()
	if len(msg.Reactions) == 0 {
		msg.Reactions = nil
	}
	msg.Version++
	a.messages[id.String()] = msg
	return msg.Clone(), nil
}

// MessageDelete removes the message and returns it.
func (a *adapter) MessageDelete(id t.Uid) (*t.Message, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	msg, ok := a.messages[id.String()]
	if !ok {
		return nil, t.ErrNotFound
	}
	delete(a.messages, id.String())
	return &msg, nil
}

// GetTestAdapter returns an adapter object. It's required for running tests.
func GetTestAdapter() *adapter {
	return &adapter{}
}

func init() {
	store.RegisterAdapter(&adapter{})
}
