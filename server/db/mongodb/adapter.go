// Package mongodb is a database adapter for MongoDB.
package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/db/common"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/logs"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store"
	t "github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	b "go.mongodb.org/mongo-driver/bson"
	mdb "go.mongodb.org/mongo-driver/mongo"
	mdbopts "go.mongodb.org/mongo-driver/mongo/options"
)

// adapter holds MongoDB connection data.
type adapter struct {
	conn       *mdb.Client
	db         *mdb.Database
	dbName     string
	maxResults int
	version    int
	ctx        context.Context
	// Upper bound on the duration of a single operation.
	opTimeout time.Duration
}

const (
	defaultHost     = "localhost:27017"
	defaultDatabase = "discord"

	adpVersion  = 1
	adapterName = "mongodb"

	defaultOpTimeout = 5 * time.Second
)

// See https://godoc.org/go.mongodb.org/mongo-driver/mongo/options#ClientOptions for explanations.
type configType struct {
	Addresses      any `json:"addresses,omitempty"`
	ConnectTimeout int `json:"timeout,omitempty"`
	// Per-operation timeout in seconds.
	OpTimeout int `json:"op_timeout,omitempty"`

	// Options separately from ClientOptions (custom options):
	Database   string `json:"database,omitempty"`
	ReplicaSet string `json:"replica_set,omitempty"`

	AuthSource string `json:"auth_source,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
}

// Open initializes mongodb session
func (a *adapter) Open(jsonconfig json.RawMessage) error {
	if a.conn != nil {
		return errors.New("adapter mongodb is already connected")
	}

	var err error
	var config configType
	if len(jsonconfig) > 0 {
		if err = json.Unmarshal(jsonconfig, &config); err != nil {
			return errors.New("adapter mongodb failed to parse config: " + err.Error())
		}
	}

	var opts mdbopts.ClientOptions

	switch addr := config.Addresses.(type) {
	case nil:
		opts.SetHosts([]string{defaultHost})
	case string:
		opts.SetHosts([]string{addr})
	case []any:
		var hosts []string
		for _, h := range addr {
			host, ok := h.(string)
			if !ok {
				return errors.New("adapter mongodb failed to parse config.Addresses")
			}
			hosts = append(hosts, host)
		}
		opts.SetHosts(hosts)
	default:
		return errors.New("adapter mongodb failed to parse config.Addresses")
	}

	if config.Database == "" {
		a.dbName = defaultDatabase
	} else {
		a.dbName = config.Database
	}

	if config.ReplicaSet != "" {
		opts.SetReplicaSet(config.ReplicaSet)
	}

	if config.ConnectTimeout > 0 {
		opts.SetConnectTimeout(time.Duration(config.ConnectTimeout) * time.Second)
	}

	if config.Username != "" {
		if config.AuthSource == "" {
			config.AuthSource = "admin"
		}
		opts.SetAuth(
			mdbopts.Credential{
				AuthMechanism: "SCRAM-SHA-256",
				AuthSource:    config.AuthSource,
				Username:      config.Username,
				Password:      config.Password,
				PasswordSet:   config.Password != "",
			})
	}

	if a.maxResults <= 0 {
		a.maxResults = common.DefaultMaxResults
	}

	a.opTimeout = defaultOpTimeout
	if config.OpTimeout > 0 {
		a.opTimeout = time.Duration(config.OpTimeout) * time.Second
	}

	a.ctx = context.Background()
	a.conn, err = mdb.Connect(a.ctx, &opts)
	if err != nil {
		a.conn = nil
		return err
	}
	a.db = a.conn.Database(a.dbName)
	a.version = -1

	return nil
}

// Close the adapter
func (a *adapter) Close() error {
	var err error
	if a.conn != nil {
		err = a.conn.Disconnect(a.ctx)
		a.conn = nil
		a.version = -1
	}
	return err
}

// IsOpen checks if the adapter is ready for use
func (a *adapter) IsOpen() bool {
	return a.conn != nil
}

// GetDbVersion returns current database version.
func (a *adapter) GetDbVersion() (int, error) {
	if a.version > 0 {
		return a.version, nil
	}

	ctx, cancel := a.opContext()
	defer cancel()

	var result struct {
		Key   string `bson:"_id"`
		Value int
	}
	if err := a.db.Collection("kvmeta").FindOne(ctx, b.M{"_id": "version"}).Decode(&result); err != nil {
		if err == mdb.ErrNoDocuments {
			err = errors.New("Database not initialized")
		}
		return -1, err
	}

	a.version = result.Value
	return result.Value, nil
}

// CheckDbVersion checks if the actual database version matches adapter version.
func (a *adapter) CheckDbVersion() error {
	version, err := a.GetDbVersion()
	if err != nil {
		return err
	}

	if version != adpVersion {
		return errors.New("Invalid database version " + strconv.Itoa(version) +
			". Expected " + strconv.Itoa(adpVersion))
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

// CreateDb creates the database optionally dropping an existing database first.
func (a *adapter) CreateDb(reset bool) error {
	if reset {
		logs.Info.Print("Dropping database...")
		if err := a.db.Drop(a.ctx); err != nil {
			return err
		}
	} else if a.isDbInitialized() {
		return errors.New("Database already initialized")
	}
	// Collections (tables) do not need to be explicitly created since MongoDB creates them with first write operation

	indexes := []struct {
		Collection string
		Field      string
		IndexOpts  mdb.IndexModel
	}{
		// Unique lookup of grants by user and scope.
		{
			Collection: "memberships",
			IndexOpts: mdb.IndexModel{
				Keys:    b.D{{Key: "user", Value: 1}, {Key: "scope", Value: 1}},
				Options: mdbopts.Index().SetUnique(true),
			},
		},
		// Channels of a server.
		{
			Collection: "channels",
			Field:      "server",
		},
		// Multikey index for finding the channel which references a message.
		{
			Collection: "channels",
			Field:      "messages",
		},
		// Compound index of 'channel - createdat' for paginating messages newest first.
		{
			Collection: "messages",
			IndexOpts: mdb.IndexModel{
				Keys: b.D{{Key: "channel", Value: 1}, {Key: "createdat", Value: -1}, {Key: "_id", Value: -1}},
			},
		},
	}

	var err error
	for _, idx := range indexes {
		if idx.Field != "" {
			_, err = a.db.Collection(idx.Collection).Indexes().CreateOne(a.ctx, mdb.IndexModel{Keys: b.M{idx.Field: 1}})
		} else {
			_, err = a.db.Collection(idx.Collection).Indexes().CreateOne(a.ctx, idx.IndexOpts)
		}
		if err != nil {
			return err
		}
	}

	// Collection "kvmeta" with metadata key-value pairs.
	// Key in "_id" field.
	// Record current DB version.
	if _, err := a.db.Collection("kvmeta").InsertOne(a.ctx, map[string]any{"_id": "version", "value": adpVersion}); err != nil {
		return err
	}
	a.version = adpVersion

	return nil
}

// UpgradeDb upgrades database to the current adapter version.
func (a *adapter) UpgradeDb() error {
	if _, err := a.GetDbVersion(); err != nil {
		return err
	}

	if a.version != adpVersion {
		return errors.New("Failed to perform database upgrade to version " + strconv.Itoa(adpVersion) +
			". DB is still at " + strconv.Itoa(a.version))
	}
	return nil
}

// Stats returns DB connection stats object.
func (a *adapter) Stats() any {
	if a.db == nil {
		return nil
	}

	ctx, cancel := a.opContext()
	defer cancel()

	var result b.M
	if err := a.db.RunCommand(ctx, b.D{{Key: "serverStatus", Value: 1}}).Decode(&result); err != nil {
		return nil
	}

	return result["connections"]
}

// opContext returns the context limiting the duration of a single DB call.
func (a *adapter) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(a.ctx, a.opTimeout)
}

// UserCreate creates user record
func (a *adapter) UserCreate(user *t.User) error {
	ctx, cancel := a.opContext()
	defer cancel()

	_, err := a.db.Collection("users").InsertOne(ctx, user)
	return dbError(err)
}

// UserGetAll returns user records for a given list of user IDs
func (a *adapter) UserGetAll(ids ...t.Uid) ([]t.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	uids := make([]any, len(ids))
	for i, id := range ids {
		uids[i] = id.String()
	}

	ctx, cancel := a.opContext()
	defer cancel()

	cur, err := a.db.Collection("users").Find(ctx, b.M{"_id": b.M{"$in": uids}})
	if err != nil {
		return nil, dbError(err)
	}
	defer cur.Close(ctx)

	var users []t.User
	for cur.Next(ctx) {
		var user t.User
		if err := cur.Decode(&user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, dbError(cur.Err())
}

// ServerCreate creates a server record
func (a *adapter) ServerCreate(srv *t.Server) error {
	ctx, cancel := a.opContext()
	defer cancel()

	_, err := a.db.Collection("servers").InsertOne(ctx, srv)
	return dbError(err)
}

// ServerGet returns the server record or ErrNotFound
func (a *adapter) ServerGet(id t.Uid) (*t.Server, error) {
	ctx, cancel := a.opContext()
	defer cancel()

	var srv t.Server
	if err := a.db.Collection("servers").FindOne(ctx, b.M{"_id": id.String()}).Decode(&srv); err != nil {
		return nil, dbError(err)
	}
	return &srv, nil
}

// MembershipUpsert creates or replaces the capabilities of the user in the scope
func (a *adapter) MembershipUpsert(m *t.Membership) error {
	ctx, cancel := a.opContext()
	defer cancel()

	caps := m.Caps
	if caps == nil {
		caps = []t.Capability{}
	}
	_, err := a.db.Collection("memberships").UpdateOne(ctx,
		b.M{"user": m.User, "scope": m.Scope},
		b.M{
			"$set": b.M{"caps": caps, "updatedat": t.TimeNow()},
			"$setOnInsert": b.M{
				"_id":       m.Id,
				"createdat": m.CreatedAt,
			},
		},
		mdbopts.Update().SetUpsert(true))
	return dbError(err)
}

// MembershipGet returns capabilities of the user in the scope or ErrNotFound
func (a *adapter) MembershipGet(user, scope t.Uid) (*t.Membership, error) {
	ctx, cancel := a.opContext()
	defer cancel()

	var m t.Membership
	if err := a.db.Collection("memberships").FindOne(ctx,
		b.M{"user": user.String(), "scope": scope.String()}).Decode(&m); err != nil {
		return nil, dbError(err)
	}
	return &m, nil
}

// ChannelCreate creates a channel summary
func (a *adapter) ChannelCreate(ch *t.Channel) error {
	ctx, cancel := a.opContext()
	defer cancel()

	// Arrays must exist for $push and $addToSet to work.
	_, err := a.db.Collection("channels").InsertOne(ctx, b.M{
		"_id":       ch.Id,
		"createdat": ch.CreatedAt,
		"updatedat": ch.UpdatedAt,
		"server":    ch.Server,
		"name":      ch.Name,
		"messages":  []string{},
		"senders":   []string{},
	})
	return dbError(err)
}

// ChannelGet returns the channel summary or ErrNotFound
func (a *adapter) ChannelGet(id t.Uid) (*t.Channel, error) {
	ctx, cancel := a.opContext()
	defer cancel()

	var ch t.Channel
	if err := a.db.Collection("channels").FindOne(ctx, b.M{"_id": id.String()}).Decode(&ch); err != nil {
		return nil, dbError(err)
	}
	if len(ch.Messages) == 0 {
		ch.Messages = nil
	}
	if len(ch.Senders) == 0 {
		ch.Senders = nil
	}
	return &ch, nil
}

// ChannelAddMessage atomically appends the message id and adds sender to the set of senders.
// $addToSet appends at the end, so a repeated update is a no-op and the order is kept.
func (a *adapter) ChannelAddMessage(channel, msg, sender t.Uid) error {
	ctx, cancel := a.opContext()
	defer cancel()

	res, err := a.db.Collection("channels").UpdateOne(ctx,
		b.M{"_id": channel.String()},
		b.M{
			"$addToSet": b.M{"messages": msg.String(), "senders": sender.String()},
		})
	if err != nil {
		return dbError(err)
	}
	if res.MatchedCount == 0 {
		return t.ErrNotFound
	}
	return nil
}

// ChannelRemoveMessage pulls the message id from the channel which references it.
func (a *adapter) ChannelRemoveMessage(msg t.Uid) error {
	ctx, cancel := a.opContext()
	defer cancel()

	id := msg.String()
	_, err := a.db.Collection("channels").UpdateOne(ctx,
		b.M{"messages": id},
		b.M{"$pull": b.M{"messages": id}})
	return dbError(err)
}

// MessageSave saves message to DB
func (a *adapter) MessageSave(msg *t.Message) error {
	ctx, cancel := a.opContext()
	defer cancel()

	_, err := a.db.Collection("messages").InsertOne(ctx, msg)
	return dbError(err)
}

// MessageGet returns a single message or ErrNotFound
func (a *adapter) MessageGet(id t.Uid) (*t.Message, error) {
	ctx, cancel := a.opContext()
	defer cancel()

	var msg t.Message
	if err := a.db.Collection("messages").FindOne(ctx, b.M{"_id": id.String()}).Decode(&msg); err != nil {
		return nil, dbError(err)
	}
	return &msg, nil
}

// MessageGetAll returns a page of channel messages, newest first.
func (a *adapter) MessageGetAll(channel t.Uid, offset, limit int) ([]t.Message, error) {
	if limit <= 0 || limit > a.maxResults {
		limit = a.maxResults
	}

	findOpts := mdbopts.Find().
		SetSort(b.D{{Key: "createdat", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	ctx, cancel := a.opContext()
	defer cancel()

	cur, err := a.db.Collection("messages").Find(ctx, b.M{"channel": channel.String()}, findOpts)
	if err != nil {
		return nil, dbError(err)
	}
	defer cur.Close(ctx)

	var msgs []t.Message
	for cur.Next(ctx) {
		var msg t.Message
		if err = cur.Decode(&msg); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}

	return msgs, dbError(cur.Err())
}

// MessageUpdate replaces content of the message.
func (a *adapter) MessageUpdate(id t.Uid, content string, updatedAt time.Time) (*t.Message, error) {
	ctx, cancel := a.opContext()
	defer cancel()

	var msg t.Message
	err := a.db.Collection("messages").FindOneAndUpdate(ctx,
		b.M{"_id": id.String()},
		// Aggregation pipeline update: modification time always moves forward.
		b.A{b.M{"$set": b.M{
			"content":   b.M{"$literal": content},
			"updatedat": b.M{"$max": b.A{updatedAt, b.M{"$add": b.A{"$updatedat", 1}}}},
		}}},
		mdbopts.FindOneAndUpdate().SetReturnDocument(mdbopts.After)).Decode(&msg)
	if err != nil {
		return nil, dbError(err)
	}
	return &msg, nil
}

// MessageReplaceReactions writes reactions if the stored version matches.
func (a *adapter) MessageReplaceReactions(id t.Uid, version int, reactions t.ReactionLedger) (*t.Message, error) {
	ctx, cancel := a.opContext()
	defer cancel()

	var update b.M
	if len(reactions) == 0 {
		update = b.M{"$unset": b.M{"reactions": ""}, "$inc": b.M{"version": 1}}
	} else {
		update = b.M{"$set": b.M{"reactions": reactions}, "$inc": b.M{"version": 1}}
	}

	var msg t.Message
	err := a.db.Collection("messages").FindOneAndUpdate(ctx,
		b.M{"_id": id.String(), "version": version},
		update,
		mdbopts.FindOneAndUpdate().SetReturnDocument(mdbopts.After)).Decode(&msg)
	if err == nil {
		return &msg, nil
	}
	if err != mdb.ErrNoDocuments {
		return nil, dbError(err)
	}

	// Either the message is gone or the version has moved.
	count, err := a.db.Collection("messages").CountDocuments(ctx, b.M{"_id": id.String()})
	if err != nil {
		return nil, dbError(err)
	}
	if count == 0 {
		return nil, t.ErrNotFound
	}
	return nil, t.ErrConflict
}

// MessageDelete deletes the message and returns the deleted record.
func (a *adapter) MessageDelete(id t.Uid) (*t.Message, error) {
	ctx, cancel := a.opContext()
	defer cancel()

	var msg t.Message
	if err := a.db.Collection("messages").FindOneAndDelete(ctx, b.M{"_id": id.String()}).Decode(&msg); err != nil {
		return nil, dbError(err)
	}
	return &msg, nil
}

func (a *adapter) isDbInitialized() bool {
	var result map[string]int

	findOpts := mdbopts.FindOneOptions{Projection: b.M{"value": 1, "_id": 0}}
	if err := a.db.Collection("kvmeta").FindOne(a.ctx, b.M{"_id": "version"}, &findOpts).Decode(&result); err != nil {
		return false
	}
	return true
}

// GetTestAdapter returns an adapter object. It's required for running tests.
func GetTestAdapter() *adapter {
	return &adapter{}
}

func init() {
	store.RegisterAdapter(&adapter{})
}

// dbError converts driver errors into store errors.
func dbError(err error) error {
	switch {
	case err == nil:
		return nil
	case err == mdb.ErrNoDocuments:
		return t.ErrNotFound
	case isDuplicateErr(err):
		return t.ErrDuplicate
	case mdb.IsTimeout(err) || mdb.IsNetworkError(err):
		return t.ErrUnavailable
	}
	return common.Unavailable(err)
}

func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	if mdb.IsDuplicateKeyError(err) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key error")
}
