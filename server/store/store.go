// Package store provides methods for registering and accessing database adapters.
package store

//go:generate mockgen -destination mock_store/mock_store.go -package mock_store github.com/Divyanshu-Mishra9620/DiscordClone/server/store UsersPersistenceInterface,ServersPersistenceInterface,ChannelsPersistenceInterface,MessagesPersistenceInterface

import (
	"encoding/json"
	"errors"
	"sort"

	adapter "github.com/Divyanshu-Mishra9620/DiscordClone/server/db"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/db/common"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/logs"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
)

var adp adapter.Adapter
var availableAdapters = make(map[string]adapter.Adapter)

// Unique ID generator
var uGen types.UidGenerator

type configType struct {
	// 16-byte key for XTEA. Used to initialize types.UidGenerator.
	UidKey []byte `json:"uid_key"`
	// Maximum number of results to return from adapter.
	MaxResults int `json:"max_results"`
	// DB adapter name to use. Should be one of those specified in `Adapters`.
	UseAdapter string `json:"use_adapter"`
	// Configurations for individual adapters.
	Adapters map[string]json.RawMessage `json:"adapters"`
}

func openAdapter(workerId int, jsonconf json.RawMessage) error {
	var config configType
	if err := json.Unmarshal(jsonconf, &config); err != nil {
		return errors.New("store: failed to parse config: " + err.Error() + "(" + string(jsonconf) + ")")
	}

	if adp == nil {
		if len(config.UseAdapter) > 0 {
			// Adapter name specified explicitly.
			if ad, ok := availableAdapters[config.UseAdapter]; ok {
				adp = ad
			} else {
				return errors.New("store: " + config.UseAdapter + " adapter is not available in this binary")
			}
		} else if len(availableAdapters) == 1 {
			// Default to the only entry in availableAdapters.
			for _, v := range availableAdapters {
				adp = v
			}
		} else {
			return errors.New("store: db adapter is not specified. Please set `store_config.use_adapter` in `chat.conf`")
		}
	}

	if adp.IsOpen() {
		return errors.New("store: connection is already opened")
	}

	// Initialize snowflake.
	if workerId < 0 || workerId > 1023 {
		return errors.New("store: invalid worker ID")
	}

	if err := uGen.Init(uint(workerId), config.UidKey); err != nil {
		return errors.New("store: failed to init snowflake: " + err.Error())
	}

	if err := adp.SetMaxResults(config.MaxResults); err != nil {
		return err
	}

	var adapterConfig json.RawMessage
	if config.Adapters != nil {
		adapterConfig = config.Adapters[adp.GetName()]
	}

	return adp.Open(adapterConfig)
}

// PersistentStorageInterface defines methods used for interation with persistent storage.
type PersistentStorageInterface interface {
	Open(workerId int, jsonconf json.RawMessage) error
	Close() error
	IsOpen() bool
	GetAdapter() adapter.Adapter
	GetAdapterName() string
	GetAdapterVersion() int
	GetDbVersion() int
	InitDb(jsonconf json.RawMessage, reset bool) error
	UpgradeDb(jsonconf json.RawMessage) error
	GetUid() types.Uid
	GetUidString() string
	DbStats() func() any
}

// Store is the main object for interacting with persistent storage.
var Store PersistentStorageInterface

type storeObj struct{}

// Open initializes the persistence system. Adapter holds a connection pool for a database instance.
//
//	workerId - snowflake worker id, unique per server process
//	jsonconf - configuration string
func (storeObj) Open(workerId int, jsonconf json.RawMessage) error {
	if err := openAdapter(workerId, jsonconf); err != nil {
		return err
	}

	return adp.CheckDbVersion()
}

// Close terminates connection to persistent storage.
func (storeObj) Close() error {
	if adp != nil && adp.IsOpen() {
		return adp.Close()
	}

	return nil
}

// IsOpen checks if persistent storage connection has been initialized.
func (storeObj) IsOpen() bool {
	if adp != nil {
		return adp.IsOpen()
	}

	return false
}

// GetAdapter returns the currently configured adapter.
func (storeObj) GetAdapter() adapter.Adapter {
	return adp
}

// GetAdapterName returns the name of the current adater.
func (storeObj) GetAdapterName() string {
	if adp != nil {
		return adp.GetName()
	}

	return ""
}

// GetAdapterVersion returns version of the current adater.
func (storeObj) GetAdapterVersion() int {
	if adp != nil {
		return adp.Version()
	}

	return -1
}

// GetDbVersion returns version of the underlying database.
func (storeObj) GetDbVersion() int {
	if adp != nil {
		vers, _ := adp.GetDbVersion()
		return vers
	}

	return -1
}

// InitDb creates and configures a new database instance. If 'reset' is true it will first
// attempt to drop an existing database. If jsconf is nil it will assume that the adapter is
// already open. If it's non-nil and the adapter is not open, it will use the config string
// to open the adapter first.
func (s storeObj) InitDb(jsonconf json.RawMessage, reset bool) error {
	if !s.IsOpen() {
		if err := openAdapter(1, jsonconf); err != nil {
			return err
		}
	}
	return adp.CreateDb(reset)
}

// UpgradeDb performes an upgrade of the database to the current adapter version.
// If jsconf is nil it will assume that the adapter is already open. If it's non-nil and the
// adapter is not open, it will use the config string to open the adapter first.
func (s storeObj) UpgradeDb(jsonconf json.RawMessage) error {
	if !s.IsOpen() {
		if err := openAdapter(1, jsonconf); err != nil {
			return err
		}
	}
	return adp.UpgradeDb()
}

// RegisterAdapter makes a persistence adapter available.
// If Register is called twice or if the adapter is nil, it panics.
func RegisterAdapter(a adapter.Adapter) {
	if a == nil {
		panic("store: Register adapter is nil")
	}

	adapterName := a.GetName()
	if _, ok := availableAdapters[adapterName]; ok {
		panic("store: adapter '" + adapterName + "' is already registered")
	}
	availableAdapters[adapterName] = a
}

// AvailableAdapters returns names of registered adapters, sorted.
func AvailableAdapters() []string {
	names := make([]string, 0, len(availableAdapters))
	for name := range availableAdapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetUid generates a unique ID suitable for use as a primary key.
func (storeObj) GetUid() types.Uid {
	return uGen.Get()
}

// GetUidString generate unique ID as string
func (storeObj) GetUidString() string {
	return uGen.GetStr()
}

// SetTestUidGenerator sets the Uid generator for adapter tests which open the adapter directly.
func SetTestUidGenerator(ug types.UidGenerator) {
	uGen = ug
}

// DecodeUid takes an XTEA encrypted Uid and decrypts it into an int64.
// This is needed for sql compatibility. The original int64 values
// are generated by snowflake which ensures that the top bit is unset.
func DecodeUid(uid types.Uid) int64 {
	if uid.IsZero() {
		return 0
	}
	return uGen.DecodeUid(uid)
}

// EncodeUid applies XTEA encryption to an int64 value. It's the inverse of DecodeUid.
func EncodeUid(id int64) types.Uid {
	if id == 0 {
		return types.ZeroUid
	}
	return uGen.EncodeInt64(id)
}

// DbStats returns a callback returning db connection stats object.
func (s storeObj) DbStats() func() any {
	if !s.IsOpen() {
		return nil
	}
	return adp.Stats
}

// UsersPersistenceInterface is an interface which defines methods for persistent storage of user records.
type UsersPersistenceInterface interface {
	Create(user *types.User) (*types.User, error)
	GetAll(uid ...types.Uid) ([]types.User, error)
}

// usersMapper is a concrete type which implements UsersPersistenceInterface.
type usersMapper struct{}

// Users is a singleton ancor object exporting UsersPersistenceInterface methods.
var Users UsersPersistenceInterface

// Create inserts User object into a database.
func (usersMapper) Create(user *types.User) (*types.User, error) {
	if user.Id == "" {
		user.SetUid(Store.GetUid())
	}
	user.InitTimes()

	if err := adp.UserCreate(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetAll returns a slice of User objects for the given user ids.
func (usersMapper) GetAll(uid ...types.Uid) ([]types.User, error) {
	return adp.UserGetAll(uid...)
}

// ServersPersistenceInterface is an interface which defines methods for persistent storage of servers
// and permission grants within them.
type ServersPersistenceInterface interface {
	Create(srv *types.Server) (*types.Server, error)
	Get(id types.Uid) (*types.Server, error)
	Grant(user, scope types.Uid, caps []types.Capability) error
	GetMembership(user, scope types.Uid) (*types.Membership, error)
}

// serversMapper is a concrete type implementing ServersPersistenceInterface.
type serversMapper struct{}

// Servers is a singleton ancor object exporting ServersPersistenceInterface methods.
var Servers ServersPersistenceInterface

// Create inserts a server record.
func (serversMapper) Create(srv *types.Server) (*types.Server, error) {
	if srv.Id == "" {
		srv.SetUid(Store.GetUid())
	}
	srv.InitTimes()

	if err := adp.ServerCreate(srv); err != nil {
		return nil, err
	}
	return srv, nil
}

// Get returns the server record or ErrNotFound.
func (serversMapper) Get(id types.Uid) (*types.Server, error) {
	return adp.ServerGet(id)
}

// Grant sets the capabilities of the user in a server or channel scope.
func (serversMapper) Grant(user, scope types.Uid, caps []types.Capability) error {
	m := &types.Membership{User: user.String(), Scope: scope.String(), Caps: caps}
	m.SetUid(Store.GetUid())
	m.InitTimes()
	return adp.MembershipUpsert(m)
}

// GetMembership returns the permission grant of the user in the scope.
func (serversMapper) GetMembership(user, scope types.Uid) (*types.Membership, error) {
	return adp.MembershipGet(user, scope)
}

// ChannelsPersistenceInterface is an interface which defines methods for persistent storage
// of channel summaries.
type ChannelsPersistenceInterface interface {
	Create(ch *types.Channel) (*types.Channel, error)
	Get(id types.Uid) (*types.Channel, error)
	OnMessageCreated(channel, msg, sender types.Uid) error
	OnMessageDeleted(msg types.Uid) error
}

// channelsMapper is a concrete type implementing ChannelsPersistenceInterface.
type channelsMapper struct{}

// Channels is a singleton ancor object exporting ChannelsPersistenceInterface methods.
var Channels ChannelsPersistenceInterface

// Create creates an empty channel summary.
func (channelsMapper) Create(ch *types.Channel) (*types.Channel, error) {
	if ch.Id == "" {
		ch.SetUid(Store.GetUid())
	}
	ch.InitTimes()
	ch.Messages = nil
	ch.Senders = nil

	if err := adp.ChannelCreate(ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// Get returns the channel summary or ErrNotFound.
func (channelsMapper) Get(id types.Uid) (*types.Channel, error) {
	return adp.ChannelGet(id)
}

// OnMessageCreated records a new message in the channel summary.
func (channelsMapper) OnMessageCreated(channel, msg, sender types.Uid) error {
	return adp.ChannelAddMessage(channel, msg, sender)
}

// OnMessageDeleted removes the message from the channel which references it.
func (channelsMapper) OnMessageDeleted(msg types.Uid) error {
	return adp.ChannelRemoveMessage(msg)
}

// MessagesPersistenceInterface is an interface which defines methods for persistent storage of messages.
type MessagesPersistenceInterface interface {
	Save(msg *types.Message) error
	Get(id types.Uid) (*types.Message, error)
	GetAll(channel types.Uid, page, pageSize int) ([]types.Message, error)
	Update(id types.Uid, content string) (*types.Message, error)
	ReplaceReactions(id types.Uid, version int, reactions types.ReactionLedger) (*types.Message, error)
	Delete(id types.Uid) (*types.Message, error)
}

// messagesMapper is a concrete type implementing MessagesPersistenceInterface.
type messagesMapper struct{}

// Messages is a singleton ancor object exporting MessagesPersistenceInterface methods.
var Messages MessagesPersistenceInterface

// Save assigns id and timestamps to the message and persists it with an empty reaction list.
func (messagesMapper) Save(msg *types.Message) error {
	msg.InitTimes()
	msg.SetUid(Store.GetUid())
	msg.Reactions = nil
	msg.Version = 0

	return adp.MessageSave(msg)
}

// Get returns the message with sender's profile attached.
func (messagesMapper) Get(id types.Uid) (*types.Message, error) {
	msg, err := adp.MessageGet(id)
	if err != nil {
		return nil, err
	}
	return attachSender(msg)
}

// GetAll returns a page of channel messages, most recent first. Page numbering starts at 1.
// An empty page is not an error.
func (messagesMapper) GetAll(channel types.Uid, page, pageSize int) ([]types.Message, error) {
	offset, limit, err := common.PageBounds(page, pageSize, adp.MaxResults())
	if err != nil {
		return nil, err
	}

	msgs, err := adp.MessageGetAll(channel, offset, limit)
	if err != nil {
		return nil, err
	}
	if err = attachSenders(msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Update replaces content of the message and refreshes its modification time.
func (messagesMapper) Update(id types.Uid, content string) (*types.Message, error) {
	msg, err := adp.MessageUpdate(id, content, types.TimeNow())
	if err != nil {
		return nil, err
	}
	return attachSenderAfterWrite(msg), nil
}

// ReplaceReactions writes the reactions if nobody else changed them since 'version' was read.
func (messagesMapper) ReplaceReactions(id types.Uid, version int, reactions types.ReactionLedger) (*types.Message, error) {
	msg, err := adp.MessageReplaceReactions(id, version, reactions.Normalize())
	if err != nil {
		return nil, err
	}
	return attachSenderAfterWrite(msg), nil
}

// Delete removes the message and returns the removed record.
func (messagesMapper) Delete(id types.Uid) (*types.Message, error) {
	return adp.MessageDelete(id)
}

func attachSender(msg *types.Message) (*types.Message, error) {
	msgs := []types.Message{*msg}
	if err := attachSenders(msgs); err != nil {
		return nil, err
	}
	return &msgs[0], nil
}

// attachSenderAfterWrite attaches the profile to a message which is already committed.
// The write must not be reported as failed, so a failed lookup leaves Sender empty.
func attachSenderAfterWrite(msg *types.Message) *types.Message {
	withSender, err := attachSender(msg)
	if err != nil {
		logs.Warn.Println("store: failed to load sender profile", msg.Id, msg.From, err)
		msg.Reactions = msg.Reactions.Normalize()
		return msg
	}
	return withSender
}

// attachSenders loads public profiles of message senders in one call and attaches them to messages.
// Messages from users who no longer exist are returned without a profile.
func attachSenders(msgs []types.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var ids []types.Uid
	for i := range msgs {
		msgs[i].Reactions = msgs[i].Reactions.Normalize()
		if from := msgs[i].From; !seen[from] {
			seen[from] = true
			if uid := types.ParseUid(from); !uid.IsZero() {
				ids = append(ids, uid)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	users, err := adp.UserGetAll(ids...)
	if err != nil {
		return err
	}
	profiles := make(map[string]*types.Profile, len(users))
	for i := range users {
		profiles[users[i].Id] = users[i].Profile()
	}
	for i := range msgs {
		msgs[i].Sender = profiles[msgs[i].From]
	}
	return nil
}

func init() {
	Store = storeObj{}
	Users = usersMapper{}
	Servers = serversMapper{}
	Channels = channelsMapper{}
	Messages = messagesMapper{}
}
