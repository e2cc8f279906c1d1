/******************************************************************************
 *
 *  Description :
 *
 *    Hub: delivery of message events to the sessions subscribed to feeds.
 *    Feeds are spread over a fixed number of run loops. All events of one
 *    feed pass through the same loop.
 *
 *****************************************************************************/

package main

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/logs"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/ringhash"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
)

const (
	defaultHubShards     = 8
	defaultFeedQueueSize = 1024
	// Number of replicas of each run loop on the ring.
	hubRingReplicas = 64
)

// An event waiting to be delivered.
type feedEvent struct {
	feed    string
	kind    EventKind
	payload any
	ts      time.Time
}

// Request to subscribe the session to the feed or to remove it from the feed.
// Both kinds share one queue so requests of a session are applied in the order made.
type feedCtl struct {
	sess *Session
	feed string
	// Id of the client request being confirmed.
	id string
	ts time.Time
	// Remove the session instead of adding it.
	leave bool
	// Session is going away, don't confirm.
	silent bool
}

// One run loop of the hub and the feeds it owns.
type hubShard struct {
	events chan *feedEvent
	ctl    chan *feedCtl

	// Subscribers of each feed. Accessed only by the run loop.
	feeds map[string]map[*Session]bool
}

// Hub is the Fanout which delivers events to websocket sessions.
type Hub struct {
	ring   *ringhash.Ring
	shards []*hubShard

	// Closed on shutdown.
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func newHub(numShards, queueSize int) *Hub {
	if numShards <= 0 {
		numShards = defaultHubShards
	}
	if queueSize <= 0 {
		queueSize = defaultFeedQueueSize
	}

	h := &Hub{
		ring: ringhash.New(hubRingReplicas, nil),
		stop: make(chan struct{}),
	}
	for i := 0; i < numShards; i++ {
		h.ring.Add("shard-" + strconv.Itoa(i))
		h.shards = append(h.shards, &hubShard{
			events: make(chan *feedEvent, queueSize),
			ctl:    make(chan *feedCtl, 128),
			feeds:  make(map[string]map[*Session]bool),
		})
	}

	for _, s := range h.shards {
		h.wg.Add(1)
		go h.run(s)
	}

	return h
}

func (h *Hub) shardOf(feed string) *hubShard {
	return h.shards[h.ring.Slot(feed)]
}

// Emit queues the event for delivery to the subscribers of the feed. Never blocks: if the
// queue of the feed's run loop is full, the event is dropped.
func (h *Hub) Emit(feed string, kind EventKind, payload any) {
	ev := &feedEvent{feed: feed, kind: kind, payload: payload, ts: types.TimeNow()}
	select {
	case h.shardOf(feed).events <- ev:
		statEventsEmitted.WithLabelValues(string(kind)).Inc()
	default:
		logs.Warn.Println("hub: event queue full, event dropped", feed, kind)
		statEventsDropped.WithLabelValues("hub").Inc()
	}
}

// Subscribe the session to the feed. The run loop confirms the subscription to the session.
func (h *Hub) subscribe(sess *Session, feed, id string, ts time.Time) {
	select {
	case h.shardOf(feed).ctl <- &feedCtl{sess: sess, feed: feed, id: id, ts: ts}:
	case <-h.stop:
		sess.queueOut(ErrServiceUnavailable(id, feed, ts))
	}
}

// Unsubscribe the session from the feed. If silent is false, the run loop confirms it.
func (h *Hub) unsubscribe(sess *Session, feed, id string, ts time.Time, silent bool) {
	select {
	case h.shardOf(feed).ctl <- &feedCtl{sess: sess, feed: feed, id: id, ts: ts, leave: true, silent: silent}:
	case <-h.stop:
	}
}

// Stop all run loops. Events still in queues are discarded.
func (h *Hub) shutdown() {
	h.once.Do(func() { close(h.stop) })
	h.wg.Wait()
	logs.Info.Println("hub: shut down")
}

func (h *Hub) run(s *hubShard) {
	defer h.wg.Done()

	for {
		select {
		case ev := <-s.events:
			s.deliver(ev)

		case req := <-s.ctl:
			if req.leave {
				s.remove(req)
			} else {
				s.add(req)
			}

		case <-h.stop:
			return
		}
	}
}

func (s *hubShard) add(req *feedCtl) {
	subs := s.feeds[req.feed]
	if subs == nil {
		subs = make(map[*Session]bool)
		s.feeds[req.feed] = subs
	}
	subs[req.sess] = true
	req.sess.queueOut(NoErr(req.id, req.feed, req.ts))
}

func (s *hubShard) remove(req *feedCtl) {
	if subs := s.feeds[req.feed]; subs != nil {
		delete(subs, req.sess)
		if len(subs) == 0 {
			delete(s.feeds, req.feed)
		}
	}
	if !req.silent {
		req.sess.queueOut(NoErr(req.id, req.feed, req.ts))
	}
}

func (s *hubShard) deliver(ev *feedEvent) {
	subs := s.feeds[ev.feed]
	if len(subs) == 0 {
		return
	}

	// Serialize once for all subscribers.
	data, err := json.Marshal(&ServerComMessage{Event: eventToWire(ev)})
	if err != nil {
		logs.Err.Println("hub: failed to serialize event", ev.feed, ev.kind, err)
		return
	}

	for sess := range subs {
		if !sess.queueOutBytes(data) {
			logs.Warn.Println("hub: session queue full, event dropped", sess.sid, ev.feed, ev.kind)
			statEventsDropped.WithLabelValues("session").Inc()
		}
	}
}

func eventToWire(ev *feedEvent) *MsgServerEvent {
	out := &MsgServerEvent{Feed: ev.feed, Kind: ev.kind, Timestamp: ev.ts}
	switch p := ev.payload.(type) {
	case *types.Message:
		out.Message = messageToWire(p)
	case *MessageRef:
		out.Id = p.Id
		out.Channel = p.Channel
	}
	return out
}
