// Package mysql is a database adapter for MySQL.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/db/common"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store"
	t "github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	ms "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// adapter holds MySQL connection data.
type adapter struct {
	db     *sqlx.DB
	dsn    string
	dbName string
	// Maximum number of records to return
	maxResults int
	version    int

	// Single query timeout.
	sqlTimeout time.Duration
}

const (
	defaultDSN      = "root:@tcp(localhost:3306)/discord?parseTime=true"
	defaultDatabase = "discord"

	adpVersion  = 1
	adapterName = "mysql"
)

type configType struct {
	DSN    string `json:"dsn,omitempty"`
	DBName string `json:"database,omitempty"`

	// Maximum number of open connections to the database.
	MaxOpenConns int `json:"max_open_conns,omitempty"`
	// Maximum number of connections in the idle connection pool.
	MaxIdleConns int `json:"max_idle_conns,omitempty"`
	// Maximum amount of time a connection may be reused (in seconds).
	ConnMaxLifetime int `json:"conn_max_lifetime,omitempty"`

	// DB request timeout (in seconds).
	// If 0 (or negative), no timeout is applied.
	SqlTimeout int `json:"sql_timeout,omitempty"`
}

func (a *adapter) getContext() (context.Context, context.CancelFunc) {
	if a.sqlTimeout > 0 {
		return context.WithTimeout(context.Background(), a.sqlTimeout)
	}
	return context.Background(), func() {}
}

// Open initializes mysql session
func (a *adapter) Open(jsonconfig json.RawMessage) error {
	if a.db != nil {
		return errors.New("mysql adapter is already connected")
	}

	if len(jsonconfig) < 2 {
		return errors.New("adapter mysql missing config")
	}

	var err error
	var config configType
	if err = json.Unmarshal(jsonconfig, &config); err != nil {
		return errors.New("mysql adapter failed to parse config: " + err.Error())
	}

	a.dsn = config.DSN
	if a.dsn == "" {
		a.dsn = defaultDSN
	}

	a.dbName = config.DBName
	if a.dbName == "" {
		a.dbName = defaultDatabase
	}

	if a.maxResults <= 0 {
		a.maxResults = common.DefaultMaxResults
	}

	if config.SqlTimeout > 0 {
		a.sqlTimeout = time.Duration(config.SqlTimeout) * time.Second
	}

	// Timestamps must come back as time.Time in UTC.
	cfg, err := ms.ParseDSN(a.dsn)
	if err != nil {
		return errors.New("mysql adapter failed to parse dsn: " + err.Error())
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.DBName = a.dbName
	a.dsn = cfg.FormatDSN()

	a.db, err = sqlx.Open("mysql", a.dsn)
	if err != nil {
		return err
	}

	// sql.Open does not open the network connection.
	// Force network connection here.
	err = a.db.Ping()
	if isMissingDb(err) {
		// Missing DB is OK if we are initializing the database.
		// Since the DB does not exist, connect without specifying the DB name.
		a.db.Close()
		cfg.DBName = ""
		a.db, err = sqlx.Open("mysql", cfg.FormatDSN())
		if err == nil {
			err = a.db.Ping()
		}
	}
	if err != nil {
		if a.db != nil {
			a.db.Close()
		}
		a.db = nil
		return err
	}

	if config.MaxOpenConns > 0 {
		a.db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		a.db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		a.db.SetConnMaxLifetime(time.Duration(config.ConnMaxLifetime) * time.Second)
	}

	a.version = -1

	return nil
}

// Close closes the underlying database connection
func (a *adapter) Close() error {
	var err error
	if a.db != nil {
		err = a.db.Close()
		a.db = nil
		a.version = -1
	}
	return err
}

// IsOpen returns true if connection to database has been established. It does not check if
// connection is actually live.
func (a *adapter) IsOpen() bool {
	return a.db != nil
}

// GetDbVersion returns current database version.
func (a *adapter) GetDbVersion() (int, error) {
	if a.version > 0 {
		return a.version, nil
	}

	ctx, cancel := a.getContext()
	defer cancel()

	var vers string
	err := a.db.GetContext(ctx, &vers, "SELECT `value` FROM kvmeta WHERE `key`='version'")
	if err != nil {
		if isMissingDb(err) || isMissingTable(err) || err == sql.ErrNoRows {
			err = errors.New("Database not initialized")
		}
		return -1, err
	}

	a.version, _ = strconv.Atoi(vers)

	return a.version, nil
}

// CheckDbVersion checks whether the actual DB version matches the expected version of this adapter.
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

// Version returns adapter version.
func (adapter) Version() int {
	return adpVersion
}

// GetName returns string that adapter uses to register itself with store.
func (a *adapter) GetName() string {
	return adapterName
}

// Stats returns DB connection stats object.
func (a *adapter) Stats() any {
	if a.db == nil {
		return nil
	}
	return a.db.Stats()
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

// CreateDb initializes the storage.
func (a *adapter) CreateDb(reset bool) error {
	var err error
	var tx *sql.Tx

	// Can't use an existing connection because it's configured with a database name which may not exist.
	// Don't care if it does not close cleanly.
	a.db.Close()

	cfg, err := ms.ParseDSN(a.dsn)
	if err != nil {
		return err
	}
	cfg.DBName = ""
	if a.db, err = sqlx.Open("mysql", cfg.FormatDSN()); err != nil {
		return err
	}

	if tx, err = a.db.Begin(); err != nil {
		return err
	}

	defer func() {
		if err != nil {
			// MySQL auto-commits on every CREATE TABLE, the rollback only drops the last statement.
			tx.Rollback()
		}
	}()

	if reset {
		if _, err = tx.Exec("DROP DATABASE IF EXISTS " + a.dbName); err != nil {
			return err
		}
	}

	if _, err = tx.Exec("CREATE DATABASE " + a.dbName + " CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci"); err != nil {
		return err
	}

	if _, err = tx.Exec("USE " + a.dbName); err != nil {
		return err
	}

	if _, err = tx.Exec(
		`CREATE TABLE kvmeta(` +
			"`key`       VARCHAR(64) NOT NULL," +
			"createdat   DATETIME(3)," +
			"`value`     TEXT," +
			"PRIMARY KEY(`key`)" +
			`)`); err != nil {
		return err
	}

	if _, err = tx.Exec(
		`CREATE TABLE users(
			id        BIGINT NOT NULL,
			createdat DATETIME(3) NOT NULL,
			updatedat DATETIME(3) NOT NULL,
			username  VARCHAR(255) NOT NULL,
			avatar    TEXT,
			PRIMARY KEY(id)
		)`); err != nil {
		return err
	}

	if _, err = tx.Exec(
		`CREATE TABLE servers(
			id        BIGINT NOT NULL,
			createdat DATETIME(3) NOT NULL,
			updatedat DATETIME(3) NOT NULL,
			name      VARCHAR(255) NOT NULL,
			owner     BIGINT NOT NULL,
			PRIMARY KEY(id)
		)`); err != nil {
		return err
	}

	// Capability grants in server or channel scope.
	if _, err = tx.Exec(
		`CREATE TABLE memberships(
			id        BIGINT NOT NULL,
			createdat DATETIME(3) NOT NULL,
			updatedat DATETIME(3) NOT NULL,
			userid    BIGINT NOT NULL,
			scope     BIGINT NOT NULL,
			caps      JSON,
			PRIMARY KEY(id),
			UNIQUE INDEX memberships_userid_scope(userid, scope)
		)`); err != nil {
		return err
	}

	if _, err = tx.Exec(
		`CREATE TABLE channels(
			id        BIGINT NOT NULL,
			createdat DATETIME(3) NOT NULL,
			updatedat DATETIME(3) NOT NULL,
			server    BIGINT NOT NULL,
			name      VARCHAR(255) NOT NULL,
			PRIMARY KEY(id),
			INDEX channels_server(server)
		)`); err != nil {
		return err
	}

	// Channel summary: message ids in the order of creation. A message belongs to one channel.
	if _, err = tx.Exec(
		`CREATE TABLE channelmessages(
			id      BIGINT NOT NULL AUTO_INCREMENT,
			channel BIGINT NOT NULL,
			msgid   BIGINT NOT NULL,
			PRIMARY KEY(id),
			FOREIGN KEY(channel) REFERENCES channels(id),
			UNIQUE INDEX channelmessages_msgid(msgid),
			INDEX channelmessages_channel(channel, id)
		)`); err != nil {
		return err
	}

	// Channel summary: distinct senders.
	if _, err = tx.Exec(
		`CREATE TABLE channelsenders(
			id      BIGINT NOT NULL AUTO_INCREMENT,
			channel BIGINT NOT NULL,
			userid  BIGINT NOT NULL,
			PRIMARY KEY(id),
			FOREIGN KEY(channel) REFERENCES channels(id),
			UNIQUE INDEX channelsenders_channel_userid(channel, userid)
		)`); err != nil {
		return err
	}

	if _, err = tx.Exec(
		"CREATE TABLE messages(" +
			"id        BIGINT NOT NULL," +
			"createdat DATETIME(3) NOT NULL," +
			"updatedat DATETIME(3) NOT NULL," +
			"channel   BIGINT NOT NULL," +
			"`from`    BIGINT NOT NULL," +
			"content   TEXT NOT NULL," +
			"reactions JSON," +
			"version   INT NOT NULL DEFAULT 0," +
			"PRIMARY KEY(id)," +
			"INDEX messages_channel_createdat(channel, createdat, id)" +
			")"); err != nil {
		return err
	}

	if _, err = tx.Exec("INSERT INTO kvmeta(`key`, createdat, `value`) VALUES('version', ?, ?)",
		t.TimeNow(), strconv.Itoa(adpVersion)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	// Reconnect to the created database.
	a.db.Close()
	cfg.DBName = a.dbName
	if a.db, err = sqlx.Open("mysql", cfg.FormatDSN()); err != nil {
		return err
	}
	a.version = adpVersion
	return nil
}

// UpgradeDb upgrades the database, if necessary.
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

// UserCreate creates a new user record.
func (a *adapter) UserCreate(user *t.User) error {
	ctx, cancel := a.getContext()
	defer cancel()

	_, err := a.db.ExecContext(ctx,
		"INSERT INTO users(id,createdat,updatedat,username,avatar) VALUES(?,?,?,?,?)",
		store.DecodeUid(user.Uid()), user.CreatedAt, user.UpdatedAt, user.Username, user.Avatar)
	return dbError(err)
}

type userRow struct {
	Id        int64
	CreatedAt time.Time `db:"createdat"`
	UpdatedAt time.Time `db:"updatedat"`
	Username  string
	Avatar    sql.NullString
}

// UserGetAll returns user records for a given list of user IDs.
func (a *adapter) UserGetAll(ids ...t.Uid) ([]t.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	uids := make([]any, len(ids))
	for i, id := range ids {
		uids[i] = store.DecodeUid(id)
	}

	q, args, err := sqlx.In("SELECT id,createdat,updatedat,username,avatar FROM users WHERE id IN (?)", uids)
	if err != nil {
		return nil, err
	}

	ctx, cancel := a.getContext()
	defer cancel()

	var rows []userRow
	if err = a.db.SelectContext(ctx, &rows, a.db.Rebind(q), args...); err != nil {
		return nil, dbError(err)
	}

	var users []t.User
	for _, row := range rows {
		user := t.User{Username: row.Username, Avatar: row.Avatar.String}
		user.SetUid(store.EncodeUid(row.Id))
		user.CreatedAt = row.CreatedAt
		user.UpdatedAt = row.UpdatedAt
		users = append(users, user)
	}
	return users, nil
}

// ServerCreate creates a server record.
func (a *adapter) ServerCreate(srv *t.Server) error {
	ctx, cancel := a.getContext()
	defer cancel()

	_, err := a.db.ExecContext(ctx,
		"INSERT INTO servers(id,createdat,updatedat,name,owner) VALUES(?,?,?,?,?)",
		store.DecodeUid(srv.Uid()), srv.CreatedAt, srv.UpdatedAt, srv.Name, decodeUidString(srv.Owner))
	return dbError(err)
}

// ServerGet returns the server record or ErrNotFound.
func (a *adapter) ServerGet(id t.Uid) (*t.Server, error) {
	ctx, cancel := a.getContext()
	defer cancel()

	var row struct {
		CreatedAt time.Time `db:"createdat"`
		UpdatedAt time.Time `db:"updatedat"`
		Name      string
		Owner     int64
	}
	if err := a.db.GetContext(ctx, &row, "SELECT createdat,updatedat,name,owner FROM servers WHERE id=?",
		store.DecodeUid(id)); err != nil {
		return nil, dbError(err)
	}

	srv := &t.Server{Name: row.Name, Owner: store.EncodeUid(row.Owner).String()}
	srv.SetUid(id)
	srv.CreatedAt = row.CreatedAt
	srv.UpdatedAt = row.UpdatedAt
	return srv, nil
}

// MembershipUpsert creates or replaces the capabilities of the user in the scope.
func (a *adapter) MembershipUpsert(m *t.Membership) error {
	caps := m.Caps
	if caps == nil {
		caps = []t.Capability{}
	}
	jcaps, _ := json.Marshal(caps)

	ctx, cancel := a.getContext()
	defer cancel()

	_, err := a.db.ExecContext(ctx,
		"INSERT INTO memberships(id,createdat,updatedat,userid,scope,caps) VALUES(?,?,?,?,?,?) "+
			"ON DUPLICATE KEY UPDATE caps=VALUES(caps), updatedat=?",
		store.DecodeUid(m.Uid()), m.CreatedAt, m.UpdatedAt,
		decodeUidString(m.User), decodeUidString(m.Scope), jcaps, t.TimeNow())
	return dbError(err)
}

// MembershipGet returns capabilities of the user in the scope or ErrNotFound.
func (a *adapter) MembershipGet(user, scope t.Uid) (*t.Membership, error) {
	ctx, cancel := a.getContext()
	defer cancel()

	var row struct {
		Id        int64
		CreatedAt time.Time `db:"createdat"`
		UpdatedAt time.Time `db:"updatedat"`
		Caps      []byte
	}
	if err := a.db.GetContext(ctx, &row,
		"SELECT id,createdat,updatedat,caps FROM memberships WHERE userid=? AND scope=?",
		store.DecodeUid(user), store.DecodeUid(scope)); err != nil {
		return nil, dbError(err)
	}

	m := &t.Membership{User: user.String(), Scope: scope.String()}
	m.SetUid(store.EncodeUid(row.Id))
	m.CreatedAt = row.CreatedAt
	m.UpdatedAt = row.UpdatedAt
	if len(row.Caps) > 0 {
		if err := json.Unmarshal(row.Caps, &m.Caps); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ChannelCreate creates an empty channel summary.
func (a *adapter) ChannelCreate(ch *t.Channel) error {
	ctx, cancel := a.getContext()
	defer cancel()

	_, err := a.db.ExecContext(ctx,
		"INSERT INTO channels(id,createdat,updatedat,server,name) VALUES(?,?,?,?,?)",
		store.DecodeUid(ch.Uid()), ch.CreatedAt, ch.UpdatedAt, decodeUidString(ch.Server), ch.Name)
	return dbError(err)
}

// ChannelGet returns the channel summary or ErrNotFound.
func (a *adapter) ChannelGet(id t.Uid) (*t.Channel, error) {
	ctx, cancel := a.getContext()
	defer cancel()

	chId := store.DecodeUid(id)

	var row struct {
		CreatedAt time.Time `db:"createdat"`
		UpdatedAt time.Time `db:"updatedat"`
		Server    int64
		Name      string
	}
	if err := a.db.GetContext(ctx, &row, "SELECT createdat,updatedat,server,name FROM channels WHERE id=?", chId); err != nil {
		return nil, dbError(err)
	}

	ch := &t.Channel{Server: store.EncodeUid(row.Server).String(), Name: row.Name}
	ch.SetUid(id)
	ch.CreatedAt = row.CreatedAt
	ch.UpdatedAt = row.UpdatedAt

	var msgs, senders []int64
	if err := a.db.SelectContext(ctx, &msgs, "SELECT msgid FROM channelmessages WHERE channel=? ORDER BY id", chId); err != nil {
		return nil, dbError(err)
	}
	if err := a.db.SelectContext(ctx, &senders, "SELECT userid FROM channelsenders WHERE channel=? ORDER BY id", chId); err != nil {
		return nil, dbError(err)
	}
	ch.Messages = encodeUidList(msgs)
	ch.Senders = encodeUidList(senders)
	return ch, nil
}

// ChannelAddMessage appends the message id and adds the sender to the set of senders in one transaction.
// Repeating the call for the same message is a no-op.
func (a *adapter) ChannelAddMessage(channel, msg, sender t.Uid) (err error) {
	ctx, cancel := a.getContext()
	defer cancel()

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return dbError(err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	chId := store.DecodeUid(channel)
	var found int
	if err = tx.GetContext(ctx, &found, "SELECT 1 FROM channels WHERE id=? FOR UPDATE", chId); err != nil {
		return dbError(err)
	}
	if _, err = tx.ExecContext(ctx, "INSERT IGNORE INTO channelmessages(channel,msgid) VALUES(?,?)",
		chId, store.DecodeUid(msg)); err != nil {
		return dbError(err)
	}
	if _, err = tx.ExecContext(ctx, "INSERT IGNORE INTO channelsenders(channel,userid) VALUES(?,?)",
		chId, store.DecodeUid(sender)); err != nil {
		return dbError(err)
	}

	return dbError(tx.Commit())
}

// ChannelRemoveMessage removes the message id from the channel which references it.
func (a *adapter) ChannelRemoveMessage(msg t.Uid) error {
	ctx, cancel := a.getContext()
	defer cancel()

	_, err := a.db.ExecContext(ctx, "DELETE FROM channelmessages WHERE msgid=?", store.DecodeUid(msg))
	return dbError(err)
}

// MessageSave saves message to DB.
func (a *adapter) MessageSave(msg *t.Message) error {
	ctx, cancel := a.getContext()
	defer cancel()

	_, err := a.db.ExecContext(ctx,
		"INSERT INTO messages(id,createdat,updatedat,channel,`from`,content,reactions,version) VALUES(?,?,?,?,?,?,?,?)",
		store.DecodeUid(msg.Uid()), msg.CreatedAt, msg.UpdatedAt, decodeUidString(msg.Channel),
		decodeUidString(msg.From), msg.Content, common.ToJSON(msg.Reactions), msg.Version)
	return dbError(err)
}

const messageColumns = "id,createdat,updatedat,channel,`from`,content,reactions,version"

type messageRow struct {
	Id        int64
	CreatedAt time.Time `db:"createdat"`
	UpdatedAt time.Time `db:"updatedat"`
	Channel   int64
	From      int64
	Content   string
	Reactions []byte
	Version   int
}

func (row *messageRow) message() *t.Message {
	msg := &t.Message{
		Channel:   store.EncodeUid(row.Channel).String(),
		From:      store.EncodeUid(row.From).String(),
		Content:   row.Content,
		Reactions: common.FromJSON(row.Reactions),
		Version:   row.Version,
	}
	msg.SetUid(store.EncodeUid(row.Id))
	msg.CreatedAt = row.CreatedAt
	msg.UpdatedAt = row.UpdatedAt
	return msg
}

func (a *adapter) messageGet(ctx context.Context, q sqlx.QueryerContext, id int64, lock bool) (*t.Message, error) {
	query := "SELECT " + messageColumns + " FROM messages WHERE id=?"
	if lock {
		query += " FOR UPDATE"
	}
	var row messageRow
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		return nil, dbError(err)
	}
	return row.message(), nil
}

// MessageGet returns a single message or ErrNotFound.
func (a *adapter) MessageGet(id t.Uid) (*t.Message, error) {
	ctx, cancel := a.getContext()
	defer cancel()

	return a.messageGet(ctx, a.db, store.DecodeUid(id), false)
}

// MessageGetAll returns a page of channel messages, newest first.
func (a *adapter) MessageGetAll(channel t.Uid, offset, limit int) ([]t.Message, error) {
	if limit <= 0 || limit > a.maxResults {
		limit = a.maxResults
	}

	ctx, cancel := a.getContext()
	defer cancel()

	var rows []messageRow
	if err := a.db.SelectContext(ctx, &rows,
		"SELECT "+messageColumns+" FROM messages WHERE channel=? ORDER BY createdat DESC, id DESC LIMIT ? OFFSET ?",
		store.DecodeUid(channel), limit, offset); err != nil {
		return nil, dbError(err)
	}

	var msgs []t.Message
	for i := range rows {
		msgs = append(msgs, *rows[i].message())
	}
	return msgs, nil
}

// MessageUpdate replaces content of the message.
func (a *adapter) MessageUpdate(id t.Uid, content string, updatedAt time.Time) (msg *t.Message, err error) {
	ctx, cancel := a.getContext()
	defer cancel()

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, dbError(err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	msgId := store.DecodeUid(id)
	if _, err = tx.ExecContext(ctx,
		"UPDATE messages SET content=?, updatedat=GREATEST(?, updatedat + INTERVAL 1000 MICROSECOND) WHERE id=?",
		content, updatedAt, msgId); err != nil {
		return nil, dbError(err)
	}
	// Zero rows are affected when nothing changed, so the existence is checked by reading.
	// The read is part of the transaction: the edit is not committed unless it can be returned.
	if msg, err = a.messageGet(ctx, tx, msgId, false); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, dbError(err)
	}
	return msg, nil
}

// MessageReplaceReactions writes reactions if the version matches.
func (a *adapter) MessageReplaceReactions(id t.Uid, version int, reactions t.ReactionLedger) (msg *t.Message, err error) {
	ctx, cancel := a.getContext()
	defer cancel()

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, dbError(err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	msgId := store.DecodeUid(id)
	res, err := tx.ExecContext(ctx, "UPDATE messages SET reactions=?, version=version+1 WHERE id=? AND version=?",
		common.ToJSON(reactions), msgId, version)
	if err != nil {
		return nil, dbError(err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return nil, dbError(err)
	}

	if count == 0 {
		// Either the message is gone or the version has moved.
		if _, err = a.messageGet(ctx, tx, msgId, false); err != nil {
			return nil, err
		}
		err = t.ErrConflict
		return nil, err
	}
	// Read back inside the transaction so a failed read leaves the reactions unchanged.
	if msg, err = a.messageGet(ctx, tx, msgId, false); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, dbError(err)
	}
	return msg, nil
}

// MessageDelete deletes the message and returns the deleted record.
func (a *adapter) MessageDelete(id t.Uid) (msg *t.Message, err error) {
	ctx, cancel := a.getContext()
	defer cancel()

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, dbError(err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	msgId := store.DecodeUid(id)
	if msg, err = a.messageGet(ctx, tx, msgId, true); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM messages WHERE id=?", msgId); err != nil {
		return nil, dbError(err)
	}
	if err = tx.Commit(); err != nil {
		return nil, dbError(err)
	}
	return msg, nil
}

// Helper functions

// dbError converts driver errors into store errors.
func dbError(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return t.ErrNotFound
	}
	if isDupe(err) {
		return t.ErrDuplicate
	}
	if err == ms.ErrInvalidConn || errors.Is(err, sql.ErrConnDone) {
		return t.ErrUnavailable
	}
	return common.Unavailable(err)
}

func mysqlErrNumber(err error) uint16 {
	var myerr *ms.MySQLError
	if errors.As(err, &myerr) {
		return myerr.Number
	}
	return 0
}

// Check if MySQL error is a Error Code: 1062. Duplicate entry ... for key ...
func isDupe(err error) bool {
	return mysqlErrNumber(err) == 1062
}

// Error 1146: Table does not exist.
func isMissingTable(err error) bool {
	return mysqlErrNumber(err) == 1146
}

// Error 1049: Unknown database. Error 1046: No database selected.
func isMissingDb(err error) bool {
	n := mysqlErrNumber(err)
	return n == 1049 || n == 1046
}

// UIDs are stored as decoded int64 values.
func decodeUidString(str string) int64 {
	return store.DecodeUid(t.ParseUid(str))
}

func encodeUidList(ids []int64) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = store.EncodeUid(id).String()
	}
	return out
}

// GetTestAdapter returns an adapter object. It's required for running tests.
func GetTestAdapter() *adapter {
	return &adapter{}
}

func init() {
	store.RegisterAdapter(&adapter{})
}
