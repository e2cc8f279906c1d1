/******************************************************************************
 *
 *  Description :
 *
 *    Handler of websocket connections: feed subscriptions and delivery of events.
 *
 *****************************************************************************/

package main

import (
	"net/http"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/auth"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/logs"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 55 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum size of a client frame. Clients only send subscription requests.
	maxClientFrameSize = 1 << 12
)

func (sess *Session) closeWS() {
	if sess.ws != nil {
		sess.ws.Close()
	}
}

func (sess *Session) readLoop() {
	defer func() {
		sess.closeWS()
		sess.cleanUp()
	}()

	sess.ws.SetReadLimit(maxClientFrameSize)
	sess.ws.SetReadDeadline(time.Now().Add(pongWait))
	sess.ws.SetPongHandler(func(string) error {
		sess.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := sess.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				logs.Err.Println("ws: readLoop", sess.sid, err)
			}
			return
		}
		sess.dispatchRaw(raw)
	}
}

func (sess *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		// Break readLoop.
		sess.closeWS()
	}()

	for {
		select {
		case msg := <-sess.send:
			if err := wsWrite(sess.ws, websocket.TextMessage, msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
					websocket.CloseNormalClosure) {
					logs.Err.Println("ws: writeLoop", sess.sid, err)
				}
				return
			}

		case msg := <-sess.stop:
			// Shutdown requested, don't care if the message is delivered
			if msg != nil {
				wsWrite(sess.ws, websocket.TextMessage, msg)
			}
			return

		case <-sess.done:
			return

		case <-ticker.C:
			if err := wsWrite(sess.ws, websocket.PingMessage, nil); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
					websocket.CloseNormalClosure) {
					logs.Err.Println("ws: writeLoop ping", sess.sid, err)
				}
				return
			}
		}
	}
}

// Writes a message with the given message type (mt) and payload.
func wsWrite(ws *websocket.Conn, mt int, bits []byte) error {
	if bits == nil {
		bits = []byte{}
	}
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteMessage(mt, bits)
}

// Handles websocket requests from peers.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow connections from any Origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveWebSocket returns the handler of websocket connections. Clients authenticate with
// the same token as REST requests, passed either in the Authorization header or in the
// 'token' query parameter.
func serveWebSocket(hub *Hub, sessions *SessionStore, authn auth.AuthHandler, useXForwardedFor bool) http.HandlerFunc {
	return func(wrt http.ResponseWriter, req *http.Request) {
		now := types.TimeNow()

		if req.Method != http.MethodGet {
			writeCtrl(wrt, ErrOperationNotAllowed("", "", now))
			logs.Err.Println("ws: Invalid HTTP method", req.Method)
			return
		}

		uid, err := authenticate(req, authn)
		if err != nil {
			writeCtrl(wrt, authError(err, now))
			logs.Warn.Println("ws: authentication failed", err)
			return
		}

		ws, err := upgrader.Upgrade(wrt, req, nil)
		if _, ok := err.(websocket.HandshakeError); ok {
			logs.Err.Println("ws: Not a websocket handshake")
			return
		} else if err != nil {
			logs.Err.Println("ws: failed to Upgrade ", err)
			return
		}

		sess, count := sessions.NewSession(ws, uid, hub)
		if useXForwardedFor {
			sess.remoteAddr = req.Header.Get("X-Forwarded-For")
			if !isRoutableIP(sess.remoteAddr) {
				sess.remoteAddr = ""
			}
		}
		if sess.remoteAddr == "" {
			sess.remoteAddr = req.RemoteAddr
		}

		logs.Info.Println("ws: session started", sess.sid, sess.uid, sess.remoteAddr, count)

		// Do work in goroutines to return from serveWebSocket() to release file pointers.
		// Otherwise "too many open files" will happen.
		go sess.writeLoop()
		go sess.readLoop()
	}
}
