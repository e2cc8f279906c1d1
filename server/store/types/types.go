// Package types provides data types for persisting objects in the databases.
package types

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"slices"
	"time"
)

// StoreError satisfies Error interface but allows constant values for
// direct comparison.
type StoreError string

// Error is required by error interface.
func (s StoreError) Error() string {
	return string(s)
}

const (
	// ErrInternal means DB or other internal failure.
	ErrInternal = StoreError("internal")
	// ErrMalformed means the identifier or the content is malformed.
	ErrMalformed = StoreError("malformed")
	// ErrPermissionDenied means the operation is not permitted.
	ErrPermissionDenied = StoreError("denied")
	// ErrNotFound means the object was not found.
	ErrNotFound = StoreError("not found")
	// ErrUnavailable means the database or the permission service timed out or is
	// temporarily unreachable. The operation is safe to retry.
	ErrUnavailable = StoreError("unavailable")
	// ErrConflict means the object was modified concurrently and the conditional write was rejected.
	ErrConflict = StoreError("conflict")
	// ErrDuplicate means duplicate value, such as a primary key.
	ErrDuplicate = StoreError("duplicate value")
	// ErrUnsupported means an operation is not supported.
	ErrUnsupported = StoreError("unsupported")
	// ErrFailed means authentication failed: bad signature or revoked credentials.
	ErrFailed = StoreError("failed")
	// ErrExpired means the secret has expired.
	ErrExpired = StoreError("expired")
)

// Uid is a database-specific record id, suitable to be used as a primary key.
type Uid uint64

// ZeroUid is a constant representing uninitialized Uid.
const ZeroUid Uid = 0

// Lengths of various Uid representations.
const (
	uidBase64Unpadded = 11
	uidBase64Padded   = 12
)

// IsZero checks if Uid is uninitialized.
func (uid Uid) IsZero() bool {
	return uid == ZeroUid
}

// Compare returns 0 if uid is equal to u2, 1 if u2 is greater than uid, -1 if u2 is smaller.
func (uid Uid) Compare(u2 Uid) int {
	if uid < u2 {
		return -1
	} else if uid > u2 {
		return 1
	}
	return 0
}

// MarshalBinary converts Uid to byte slice.
func (uid Uid) MarshalBinary() ([]byte, error) {
	dst := make([]byte, 8)
	binary.LittleEndian.PutUint64(dst, uint64(uid))
	return dst, nil
}

// UnmarshalBinary reads Uid from byte slice.
func (uid *Uid) UnmarshalBinary(b []byte) error {
	if len(b) < 8 {
		return errors.New("Uid.UnmarshalBinary: invalid length")
	}
	*uid = Uid(binary.LittleEndian.Uint64(b))
	return nil
}

// UnmarshalText reads Uid from string represented as byte slice.
func (uid *Uid) UnmarshalText(src []byte) error {
	if len(src) != uidBase64Unpadded {
		return errors.New("Uid.UnmarshalText: invalid length")
	}
	dec := make([]byte, base64.URLEncoding.DecodedLen(uidBase64Padded))
	for len(src) < uidBase64Padded {
		src = append(src, '=')
	}
	count, err := base64.URLEncoding.Decode(dec, src)
	if count < 8 {
		if err != nil {
			return errors.New("Uid.UnmarshalText: failed to decode " + err.Error())
		}
		return errors.New("Uid.UnmarshalText: failed to decode")
	}
	*uid = Uid(binary.LittleEndian.Uint64(dec))
	return nil
}

// MarshalText converts Uid to string represented as byte slice.
func (uid Uid) MarshalText() ([]byte, error) {
	if uid.IsZero() {
		return []byte{}, nil
	}
	src := make([]byte, 8)
	dst := make([]byte, base64.URLEncoding.EncodedLen(8))
	binary.LittleEndian.PutUint64(src, uint64(uid))
	base64.URLEncoding.Encode(dst, src)
	return dst[0:uidBase64Unpadded], nil
}

// MarshalJSON converts Uid to double quoted ("ajjj") string.
func (uid Uid) MarshalJSON() ([]byte, error) {
	dst, _ := uid.MarshalText()
	return append(append([]byte{'"'}, dst...), '"'), nil
}

// UnmarshalJSON reads Uid from a double quoted string.
func (uid *Uid) UnmarshalJSON(b []byte) error {
	size := len(b)
	if size != (uidBase64Unpadded + 2) {
		return errors.New("Uid.UnmarshalJSON: invalid length")
	} else if b[0] != '"' || b[size-1] != '"' {
		return errors.New("Uid.UnmarshalJSON: unrecognized")
	}
	return uid.UnmarshalText(b[1 : size-1])
}

// String converts Uid to base64 string.
func (uid Uid) String() string {
	buf, _ := uid.MarshalText()
	return string(buf)
}

// ParseUid parses string NOT prefixed with anything. Returns ZeroUid if the
// string is not a valid Uid.
func ParseUid(s string) Uid {
	var uid Uid
	if err := uid.UnmarshalText([]byte(s)); err != nil {
		return ZeroUid
	}
	return uid
}

// ObjHeader is the header shared by all stored objects.
type ObjHeader struct {
	// Uid encoded as a string; `bson:"_id"` makes it the primary key in mongodb.
	Id        string `bson:"_id"`
	id        Uid
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Uid assigns Uid header field.
func (h *ObjHeader) Uid() Uid {
	if h.id.IsZero() && h.Id != "" {
		h.id.UnmarshalText([]byte(h.Id))
	}
	return h.id
}

// SetUid assigns given Uid to appropriate header fields.
func (h *ObjHeader) SetUid(uid Uid) {
	h.id = uid
	h.Id = uid.String()
}

// TimeNow returns current wall time in UTC rounded to milliseconds.
func TimeNow() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}

// InitTimes initializes time.Time variables in the header to current time.
func (h *ObjHeader) InitTimes() {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = TimeNow()
	}
	h.UpdatedAt = h.CreatedAt
}

// Capability is a named permission an actor may hold in a server or channel scope.
type Capability string

const (
	// CapSendMessages allows posting new messages to channels of the scope.
	CapSendMessages Capability = "send_messages"
	// CapManageMessages allows moderating messages of other users.
	// Not consulted by the message pipeline which gates edits by authorship only.
	CapManageMessages Capability = "manage_messages"
)

// User is a representation of a DB-stored user record. Only the public part of the
// profile is kept here: it is what gets attached to messages.
type User struct {
	ObjHeader `bson:",inline"`
	Username  string
	Avatar    string `json:",omitempty" bson:",omitempty"`
}

// Profile is the public part of the user record attached to messages on read.
type Profile struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Profile returns the public profile of the user.
func (u *User) Profile() *Profile {
	return &Profile{Id: u.Id, Username: u.Username, Avatar: u.Avatar}
}

// Server is a collection of channels. The owner holds every capability in the
// server and its channels.
type Server struct {
	ObjHeader `bson:",inline"`
	Name      string
	Owner     string
}

// Channel is a channel summary as stored in the database: the denormalized list of
// messages currently in the channel and the grow-only set of users who ever posted to it.
type Channel struct {
	ObjHeader `bson:",inline"`
	// Parent server, the scope of permission checks.
	Server string
	Name   string

	// Ids of messages in the order of creation.
	Messages []string
	// Distinct ids of users who posted to the channel.
	Senders []string
}

// HasMessage checks if the channel summary references the given message.
func (c *Channel) HasMessage(id string) bool {
	return slices.Contains(c.Messages, id)
}

// Membership is a grant of capabilities to a user in a server or channel scope.
type Membership struct {
	ObjHeader `bson:",inline"`
	User      string
	Scope     string
	Caps      []Capability
}

// Grants checks if the membership includes the given capability.
func (m *Membership) Grants(c Capability) bool {
	return slices.Contains(m.Caps, c)
}

// Message is a stored channel message.
type Message struct {
	ObjHeader `bson:",inline"`
	// Channel the message belongs to. Immutable.
	Channel string
	// UID as string of the user who sent the message. Immutable.
	From    string
	Content string
	// Reactions to the message in the order the symbols were first used.
	Reactions ReactionLedger `json:",omitempty"`
	// Incremented on every write of Reactions. Used for compare-and-swap.
	Version int `json:"-"`

	// Sender's public profile, populated on read, never persisted.
	Sender *Profile `json:",omitempty" bson:"-"`
}

// Clone returns a copy of the message which shares no mutable state with the original.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	clone := *m
	clone.Reactions = m.Reactions.Clone()
	if m.Sender != nil {
		sender := *m.Sender
		clone.Sender = &sender
	}
	return &clone
}
