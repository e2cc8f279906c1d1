/******************************************************************************
 *
 *  Description :
 *
 *    REST API for reading and mutating channel messages.
 *
 *****************************************************************************/

package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/auth"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/logs"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	"github.com/gorilla/mux"
)

// Maximum size of a request body.
const maxRequestBodySize = 1 << 16

type restApi struct {
	pipeline *Pipeline
	authn    auth.AuthHandler
	limiter  *rateLimiter
}

// newRestRouter creates the router of the API under the apiPath prefix, e.g. "/v1".
// Routes are registered on the root router: a subrouter would answer a wrong method with 404.
func newRestRouter(apiPath string, api *restApi) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(serve404)
	router.MethodNotAllowedHandler = http.HandlerFunc(serve405)
	// Applied to matched routes only: unknown paths and wrong methods are rejected first.
	router.Use(api.authMiddleware)

	apiPath = strings.TrimSuffix(apiPath, "/")
	router.HandleFunc(apiPath+"/channels/{channel}", api.getChannel).Methods(http.MethodGet)
	router.HandleFunc(apiPath+"/channels/{channel}/messages", api.listMessages).Methods(http.MethodGet)
	router.HandleFunc(apiPath+"/channels/{channel}/messages", api.createMessage).Methods(http.MethodPost)
	router.HandleFunc(apiPath+"/messages/{msg}", api.updateMessage).Methods(http.MethodPatch)
	router.HandleFunc(apiPath+"/messages/{msg}", api.deleteMessage).Methods(http.MethodDelete)
	router.HandleFunc(apiPath+"/messages/{msg}/reactions", api.toggleReaction).Methods(http.MethodPost)

	return router
}

// Authenticates the request and applies the rate limit of the actor.
func (a *restApi) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(wrt http.ResponseWriter, req *http.Request) {
		now := types.TimeNow()

		uid, err := authenticate(req, a.authn)
		if err != nil {
			logs.Warn.Println("rest: authentication failed", req.RemoteAddr, err)
			writeCtrl(wrt, authError(err, now))
			return
		}
		if !a.limiter.Allow(uid) {
			writeCtrl(wrt, ErrTooManyRequests("", "", now))
			return
		}

		next.ServeHTTP(wrt, req.WithContext(withActor(req.Context(), uid)))
	})
}

func (a *restApi) getChannel(wrt http.ResponseWriter, req *http.Request) {
	now := types.TimeNow()
	channel := mux.Vars(req)["channel"]

	ch, err := a.pipeline.GetChannel(channel)
	if err != nil {
		writeCtrl(wrt, decodeStoreError(err, "", channel, now))
		return
	}
	writeJSON(wrt, http.StatusOK, channelToWire(ch))
}

func (a *restApi) listMessages(wrt http.ResponseWriter, req *http.Request) {
	now := types.TimeNow()
	channel := mux.Vars(req)["channel"]

	query := req.URL.Query()
	page, err1 := queryInt(query.Get("page"))
	pageSize, err2 := queryInt(query.Get("pageSize"))
	if err1 != nil || err2 != nil {
		writeCtrl(wrt, ErrMalformed("", channel, now))
		return
	}

	msgs, err := a.pipeline.List(req.Context(), channel, page, pageSize)
	if err != nil {
		writeCtrl(wrt, decodeStoreError(err, "", channel, now))
		return
	}
	writeJSON(wrt, http.StatusOK, messagesToWire(msgs))
}

func (a *restApi) createMessage(wrt http.ResponseWriter, req *http.Request) {
	now := types.TimeNow()
	channel := mux.Vars(req)["channel"]

	var body MsgClientContent
	if err := decodeBody(wrt, req, &body); err != nil {
		writeCtrl(wrt, ErrMalformed("", channel, now))
		return
	}

	msg, err := a.pipeline.Create(req.Context(), channel, actorOf(req.Context()).String(), body.Content)
	if err != nil {
		writeCtrl(wrt, decodeStoreError(err, "", channel, now))
		return
	}
	writeJSON(wrt, http.StatusCreated, messageToWire(msg))
}

func (a *restApi) updateMessage(wrt http.ResponseWriter, req *http.Request) {
	now := types.TimeNow()
	id := mux.Vars(req)["msg"]

	var body MsgClientContent
	if err := decodeBody(wrt, req, &body); err != nil {
		writeCtrl(wrt, ErrMalformed(id, "", now))
		return
	}

	msg, err := a.pipeline.Update(req.Context(), id, actorOf(req.Context()).String(), body.Content)
	if err != nil {
		writeCtrl(wrt, decodeStoreError(err, id, "", now))
		return
	}
	writeJSON(wrt, http.StatusOK, messageToWire(msg))
}

func (a *restApi) deleteMessage(wrt http.ResponseWriter, req *http.Request) {
	now := types.TimeNow()
	id := mux.Vars(req)["msg"]

	err := a.pipeline.Delete(req.Context(), id, actorOf(req.Context()).String())
	writeCtrl(wrt, decodeStoreError(err, id, "", now))
}

func (a *restApi) toggleReaction(wrt http.ResponseWriter, req *http.Request) {
	now := types.TimeNow()
	id := mux.Vars(req)["msg"]

	var body MsgClientReaction
	if err := decodeBody(wrt, req, &body); err != nil {
		writeCtrl(wrt, ErrMalformed(id, "", now))
		return
	}

	msg, added, err := a.pipeline.ToggleReaction(req.Context(), id, actorOf(req.Context()).String(),
		body.Symbol, body.Feed)
	if err != nil {
		writeCtrl(wrt, decodeStoreError(err, id, body.Feed, now))
		return
	}
	writeCtrl(wrt, NoErrParams(id, body.Feed, now, map[string]any{
		"added":     added,
		"reactions": msg.Reactions,
	}))
}

// Empty value is zero.
func queryInt(val string) (int, error) {
	if val == "" {
		return 0, nil
	}
	return strconv.Atoi(val)
}

func decodeBody(wrt http.ResponseWriter, req *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(wrt, req.Body, maxRequestBodySize)).Decode(dst)
}
