/******************************************************************************
 *
 *  Description :
 *
 *  Management of live websocket sessions
 *
 *****************************************************************************/

package main

import (
	"encoding/json"
	"sync"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/logs"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	"github.com/gorilla/websocket"
)

// SessionStore holds live sessions indexed by session ID.
type SessionStore struct {
	lock sync.Mutex

	sessCache map[string]*Session
}

// NewSession creates a new session for the authenticated user and saves it to the session store.
func (ss *SessionStore) NewSession(conn *websocket.Conn, uid types.Uid, hub *Hub) (*Session, int) {
	s := &Session{
		ws:    conn,
		uid:   uid,
		send:  make(chan []byte, sendQueueLimit),
		stop:  make(chan []byte, 1), // Buffered by 1 just to make it non-blocking
		done:  make(chan struct{}),
		feeds: make(map[string]bool),
		hub:   hub,
		store: ss,
		sid:   store.Store.GetUidString(),
	}

	ss.lock.Lock()
	ss.sessCache[s.sid] = s
	count := len(ss.sessCache)
	ss.lock.Unlock()

	statLiveSessions.Set(float64(count))
	return s, count
}

// Get fetches a session from store by session ID.
func (ss *SessionStore) Get(sid string) *Session {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	return ss.sessCache[sid]
}

// Delete removes session from store.
func (ss *SessionStore) Delete(s *Session) int {
	ss.lock.Lock()
	delete(ss.sessCache, s.sid)
	count := len(ss.sessCache)
	ss.lock.Unlock()

	statLiveSessions.Set(float64(count))
	return count
}

// Shutdown tells all sessions to disconnect.
func (ss *SessionStore) Shutdown() {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	data, _ := json.Marshal(NoErrShutdown(types.TimeNow()))
	for _, s := range ss.sessCache {
		select {
		case s.stop <- data:
		default:
		}
	}

	logs.Info.Printf("SessionStore shut down, sessions terminated: %d", len(ss.sessCache))
}

// NewSessionStore initializes a session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessCache: make(map[string]*Session),
	}
}
