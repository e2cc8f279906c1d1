package main

/******************************************************************************
 *
 *  Description :
 *
 *    Wire protocol structures
 *
 *****************************************************************************/

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/logs"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
)

// EventKind is the kind of a change announced to feed subscribers.
type EventKind string

const (
	// EventMessageCreated carries the new message.
	EventMessageCreated EventKind = "message-created"
	// EventMessageUpdated carries the message with the new content.
	EventMessageUpdated EventKind = "message-updated"
	// EventMessageDeleted carries only the id of the message and its channel.
	EventMessageDeleted EventKind = "message-deleted"
	// EventReactionUpdated carries the message with the new reactions.
	EventReactionUpdated EventKind = "reaction-updated"
)

/////////////////////////////////////////////////////////////
// Client to server messages

// MsgClientSub is a request to receive events of a feed.
type MsgClientSub struct {
	Feed string `json:"feed"`
}

// MsgClientLeave is a request to stop receiving events of a feed.
type MsgClientLeave struct {
	Feed string `json:"feed"`
}

// ClientComMessage is a wrapper for client messages received over websocket.
type ClientComMessage struct {
	// Message ID, echoed back in {ctrl}.
	Id    string          `json:"id,omitempty"`
	Sub   *MsgClientSub   `json:"sub"`
	Leave *MsgClientLeave `json:"leave"`

	// Timestamp when this message was received by the server.
	Timestamp time.Time `json:"-"`
}

// MsgClientContent is the body of a request to create or edit a message.
type MsgClientContent struct {
	Content string `json:"content"`
}

// MsgClientReaction is the body of a request to toggle a reaction.
type MsgClientReaction struct {
	Symbol string `json:"symbol"`
	// Feed to announce the change to. The channel of the message if empty.
	Feed string `json:"feed,omitempty"`
}

/////////////////////////////////////////////////////////////
// Server to client messages

// MsgMessage is a message as presented to clients.
type MsgMessage struct {
	Id        string           `json:"id"`
	Channel   string           `json:"channel"`
	From      string           `json:"from"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"ts"`
	UpdatedAt time.Time        `json:"updated"`
	Reactions []types.Reaction `json:"reactions,omitempty"`
	Sender    *types.Profile   `json:"sender,omitempty"`
}

func messageToWire(msg *types.Message) *MsgMessage {
	if msg == nil {
		return nil
	}
	return &MsgMessage{
		Id:        msg.Id,
		Channel:   msg.Channel,
		From:      msg.From,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: msg.UpdatedAt,
		Reactions: msg.Reactions,
		Sender:    msg.Sender,
	}
}

func messagesToWire(msgs []types.Message) []*MsgMessage {
	// Empty page is serialized as [], not null.
	out := make([]*MsgMessage, 0, len(msgs))
	for i := range msgs {
		out = append(out, messageToWire(&msgs[i]))
	}
	return out
}

// MsgChannel is a channel summary as presented to clients.
type MsgChannel struct {
	Id        string    `json:"id"`
	Server    string    `json:"server,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"ts"`
	Messages  []string  `json:"messages"`
	Senders   []string  `json:"senders"`
}

func channelToWire(ch *types.Channel) *MsgChannel {
	out := &MsgChannel{
		Id:        ch.Id,
		Server:    ch.Server,
		Name:      ch.Name,
		CreatedAt: ch.CreatedAt,
		Messages:  ch.Messages,
		Senders:   ch.Senders,
	}
	if out.Messages == nil {
		out.Messages = []string{}
	}
	if out.Senders == nil {
		out.Senders = []string{}
	}
	return out
}

// MsgServerCtrl is a server control message {ctrl}.
type MsgServerCtrl struct {
	Id     string `json:"id,omitempty"`
	Feed   string `json:"feed,omitempty"`
	Params any    `json:"params,omitempty"`

	Code      int       `json:"code"`
	Text      string    `json:"text,omitempty"`
	Timestamp time.Time `json:"ts"`
}

func (src *MsgServerCtrl) describe() string {
	return src.Feed + " id=" + src.Id + " code=" + strconv.Itoa(src.Code) + " txt=" + src.Text
}

// MsgServerEvent announces a change of a message to feed subscribers {event}.
type MsgServerEvent struct {
	Feed      string    `json:"feed"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"ts"`
	// Set for all kinds but EventMessageDeleted.
	Message *MsgMessage `json:"message,omitempty"`
	// Set for EventMessageDeleted.
	Id      string `json:"id,omitempty"`
	Channel string `json:"channel,omitempty"`
}

// ServerComMessage is a wrapper for server-side messages.
type ServerComMessage struct {
	Ctrl  *MsgServerCtrl  `json:"ctrl,omitempty"`
	Event *MsgServerEvent `json:"event,omitempty"`
}

func (src *ServerComMessage) describe() string {
	if src == nil {
		return "-"
	}

	switch {
	case src.Ctrl != nil:
		return "{ctrl " + src.Ctrl.describe() + "}"
	case src.Event != nil:
		return "{event " + src.Event.Feed + " " + string(src.Event.Kind) + "}"
	default:
		return "{nil}"
	}
}

// Generators of server-side error messages {ctrl}.

func ctrl(id, feed string, code int, text string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id:        id,
		Feed:      feed,
		Code:      code,
		Text:      text,
		Timestamp: ts}}
}

// NoErr indicates successful completion (200)
func NoErr(id, feed string, ts time.Time) *ServerComMessage {
	return NoErrParams(id, feed, ts, nil)
}

// NoErrParams indicates successful completion with additional parameters (200)
func NoErrParams(id, feed string, ts time.Time, params any) *ServerComMessage {
	msg := ctrl(id, feed, http.StatusOK, "ok", ts)
	msg.Ctrl.Params = params
	return msg
}

// NoErrShutdown means user was disconnected from feeds because system shutdown is in progress (205).
func NoErrShutdown(ts time.Time) *ServerComMessage {
	return ctrl("", "", http.StatusResetContent, "server shutdown", ts)
}

// 4xx Errors

// ErrMalformed request malformed (400).
func ErrMalformed(id, feed string, ts time.Time) *ServerComMessage {
	return ctrl(id, feed, http.StatusBadRequest, "malformed", ts)
}

// ErrAuthRequired authentication required  - user must authenticate first (401).
func ErrAuthRequired(id, feed string, ts time.Time) *ServerComMessage {
	return ctrl(id, feed, http.StatusUnauthorized, "authentication required", ts)
}

// ErrAuthFailed authentication failed (401).
func ErrAuthFailed(id, feed string, ts time.Time) *ServerComMessage {
	return ctrl(id, feed, http.StatusUnauthorized, "authentication failed", ts)
}

// ErrAuthUnknownScheme authentication scheme is unrecognized or invalid (401).
func ErrAuthUnknownScheme(id, feed string, ts time.Time) *ServerComMessage {
	return ctrl(id, feed, http.StatusUnauthorized, "unknown authentication scheme", ts)
}

// ErrPermissionDenied user is authenticated but operation is not permitted (403).
func ErrPermissionDenied(id, feed string, ts time.Time) *ServerComMessage {
	return ctrl(id, feed, http.StatusForbidden, "permission denied", ts)
}

// ErrNotFound the message or the channel does not exist (404).
func ErrNotFound(id, feed string, ts time.Time) *ServerComMessage {
	return ctrl(id, feed, http.StatusNotFound, "not found", ts)
}

// ErrOperationNotAllowed a valid operation is not permitted in this context (405).
func ErrOperationNotAllowed(id, feed string, ts time.Time) *ServerComMessage {
	return ctrl(id, feed, http.StatusMethodNotAllowed, "operation or method not allowed", ts)
}

// ErrAlreadyExists the object already exists (409).
func ErrAlreadyExists(id, feed string, ts time.Time) *ServerComMessage {
	return ctrl(id, feed, http.StatusConflict, "already exists", ts)
}

// ErrTooLarge packet or request size exceeded the limit (413).
func ErrTooLarge(id, feed string, ts time.Time) *ServerComMessage {
	return ctrl(id, feed, http.StatusRequestEntityTooLarge, "too large", ts)
}

// ErrPolicy request violates a policy (e.g. too many subscriptions) (422).
func ErrPolicy(id, feed string, ts time.Time) *ServerComMessage {
	return ctrl(id, feed, http.StatusUnprocessableEntity, "policy violation", ts)
}

// ErrTooManyRequests the actor exceeded the request rate (429).
func ErrTooManyRequests(id, feed string, ts time.Time) *ServerComMessage {
	return ctrl(id, feed, http.StatusTooManyRequests, "too many requests", ts)
}

// 5xx Errors

// ErrUnknown database or other server error (500).
func ErrUnknown(id, feed string, ts time.Time) *ServerComMessage {
	return ctrl(id, feed, http.StatusInternalServerError, "internal error", ts)
}

// ErrNotImplemented feature not implemented (501).
func ErrNotImplemented(id, feed string, ts time.Time) *ServerComMessage {
	return ctrl(id, feed, http.StatusNotImplemented, "not implemented", ts)
}

// ErrServiceUnavailable the database or the permission service is temporarily unavailable,
// the request is safe to retry (503).
func ErrServiceUnavailable(id, feed string, ts time.Time) *ServerComMessage {
	return ctrl(id, feed, http.StatusServiceUnavailable, "service unavailable", ts)
}

// decodeStoreError converts an error returned by the pipeline or the store into a {ctrl}.
// Unrecognized errors become a generic 500.
func decodeStoreError(err error, id, feed string, ts time.Time) *ServerComMessage {
	if err == nil {
		return NoErr(id, feed, ts)
	}

	var storeErr types.StoreError
	if !errors.As(err, &storeErr) {
		logs.Err.Println("internal error:", id, feed, err)
		return ErrUnknown(id, feed, ts)
	}

	switch storeErr {
	case types.ErrMalformed:
		return ErrMalformed(id, feed, ts)
	case types.ErrFailed, types.ErrExpired:
		return ErrAuthFailed(id, feed, ts)
	case types.ErrPermissionDenied:
		return ErrPermissionDenied(id, feed, ts)
	case types.ErrNotFound:
		return ErrNotFound(id, feed, ts)
	case types.ErrDuplicate:
		return ErrAlreadyExists(id, feed, ts)
	case types.ErrUnavailable, types.ErrConflict:
		// A conflict which survived all retries is a contention problem, the client may retry.
		return ErrServiceUnavailable(id, feed, ts)
	case types.ErrUnsupported:
		return ErrNotImplemented(id, feed, ts)
	default:
		logs.Err.Println("internal error:", id, feed, err)
		return ErrUnknown(id, feed, ts)
	}
}
