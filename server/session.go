/******************************************************************************
 *
 *  Description :
 *
 *  Handling of user sessions/connections. One user may have multiple sesions.
 *  Each session may be subscribed to multiple feeds.
 *
 *****************************************************************************/

package main

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/logs"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	"github.com/gorilla/websocket"
)

const (
	// Maximum number of messages waiting to be written to the client.
	sendQueueLimit = 128
	// Maximum number of feeds a session may subscribe to.
	maxSessionFeeds = 256
)

// Session represents a single websocket connection of an authenticated user.
type Session struct {
	// Websocket. Nil for sessions which are not backed by a network connection.
	ws *websocket.Conn

	// IP address of the client
	remoteAddr string

	// ID of the user
	uid types.Uid

	// Outbound mesages, buffered, serialized.
	send chan []byte

	// Channel for shutting down the session, buffer 1.
	stop chan []byte

	// Closed when the session is cleaned up.
	done      chan struct{}
	closeOnce sync.Once

	// Feeds the session is subscribed to. Accessed only by the read loop.
	feeds map[string]bool

	hub   *Hub
	store *SessionStore

	// Session ID
	sid string
}

// queueOut serializes the message and queues it for sending. Returns false if the
// queue is full.
func (s *Session) queueOut(msg *ServerComMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		logs.Err.Println("s.queueOut: serialization failed", s.sid, msg.describe(), err)
		return false
	}
	return s.queueOutBytes(data)
}

// queueOutBytes queues a serialized message without blocking.
func (s *Session) queueOutBytes(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// Message received, convert bytes to ClientComMessage and dispatch.
func (s *Session) dispatchRaw(raw []byte) {
	now := types.TimeNow()

	var msg ClientComMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logs.Warn.Println("s.dispatch: failed to parse", s.sid, err)
		s.queueOut(ErrMalformed("", "", now))
		return
	}
	msg.Timestamp = now

	s.dispatch(&msg)
}

func (s *Session) dispatch(msg *ClientComMessage) {
	switch {
	case msg.Sub != nil:
		s.subscribe(msg.Id, msg.Sub.Feed, msg.Timestamp)
	case msg.Leave != nil:
		s.leave(msg.Id, msg.Leave.Feed, msg.Timestamp)
	default:
		logs.Warn.Println("s.dispatch: unknown message", s.sid)
		s.queueOut(ErrMalformed(msg.Id, "", msg.Timestamp))
	}
}

func (s *Session) subscribe(id, feed string, ts time.Time) {
	if types.ParseUid(feed).IsZero() {
		s.queueOut(ErrMalformed(id, feed, ts))
		return
	}
	if s.feeds[feed] {
		// Already subscribed.
		s.queueOut(NoErr(id, feed, ts))
		return
	}
	if len(s.feeds) >= maxSessionFeeds {
		s.queueOut(ErrPolicy(id, feed, ts))
		return
	}

	s.feeds[feed] = true
	s.hub.subscribe(s, feed, id, ts)
}

func (s *Session) leave(id, feed string, ts time.Time) {
	if !s.feeds[feed] {
		s.queueOut(ErrNotFound(id, feed, ts))
		return
	}

	delete(s.feeds, feed)
	s.hub.unsubscribe(s, feed, id, ts, false)
}

// cleanUp is called when the session is terminated to perform resource cleanup.
func (s *Session) cleanUp() {
	s.closeOnce.Do(func() {
		now := types.TimeNow()
		for feed := range s.feeds {
			s.hub.unsubscribe(s, feed, "", now, true)
		}
		s.feeds = nil
		if s.store != nil {
			s.store.Delete(s)
		}
		close(s.done)
	})
}
