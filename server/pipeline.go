/******************************************************************************
 *
 *  Description :
 *
 *    Message mutation pipeline: validation, permission checks, persistence,
 *    channel index maintenance and announcement of changes to feeds.
 *
 *****************************************************************************/

package main

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/concurrency"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/logs"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/perms"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultMaxMessageLength = 4000
	defaultReactionRetries  = 8
	defaultIndexRetries     = 3
	defaultIndexBackoff     = 50 * time.Millisecond
	defaultRepairWorkers    = 4
	defaultRepairBacklog    = 1024

	// A reaction symbol is a single emoji or a short :shortcode:.
	maxSymbolGraphemes = 32
	// Background repairs back off up to this interval between attempts.
	maxRepairBackoff = time.Minute
)

// Fanout delivers announcements of changes to the subscribers of a feed. Emit must not block
// and must deliver events of one feed in the order of calls.
type Fanout interface {
	Emit(feed string, kind EventKind, payload any)
}

// MessageRef identifies a deleted message in EventMessageDeleted.
type MessageRef struct {
	Id      string
	Channel string
}

// PipelineConfig is the tuning of the pipeline. Zero values select defaults.
type PipelineConfig struct {
	// Maximum length of message content in grapheme clusters.
	MaxMessageLength int `json:"max_message_length"`
	// Number of attempts to write reactions when concurrent writers keep winning.
	ReactionRetries int `json:"reaction_retries"`
	// Number of synchronous attempts to update the channel index before handing
	// the update to the background repair.
	IndexRetries int `json:"index_retries"`
	// Number of goroutines running background repairs and the number of repairs
	// allowed to wait for a goroutine.
	RepairWorkers int `json:"repair_workers"`
	RepairBacklog int `json:"repair_backlog"`

	// Pause before the first retry of an index update, doubled on every retry.
	indexBackoff time.Duration
}

// Pipeline performs all mutations of messages.
type Pipeline struct {
	messages store.MessagesPersistenceInterface
	channels store.ChannelsPersistenceInterface
	oracle   perms.Oracle
	fanout   Fanout

	conf PipelineConfig

	// Background completion of failed channel index updates.
	repairs *concurrency.GoRoutinePool
	// Closed when the pipeline shuts down.
	done chan struct{}
}

// NewPipeline creates a pipeline which persists messages through the given store interfaces,
// checks permissions with the oracle and announces changes through the fanout.
func NewPipeline(messages store.MessagesPersistenceInterface, channels store.ChannelsPersistenceInterface,
	oracle perms.Oracle, fanout Fanout, conf *PipelineConfig) *Pipeline {

	p := &Pipeline{
		messages: messages,
		channels: channels,
		oracle:   oracle,
		fanout:   fanout,
		done:     make(chan struct{}),
	}
	if conf != nil {
		p.conf = *conf
	}
	if p.conf.MaxMessageLength <= 0 {
		p.conf.MaxMessageLength = defaultMaxMessageLength
	}
	if p.conf.ReactionRetries <= 0 {
		p.conf.ReactionRetries = defaultReactionRetries
	}
	if p.conf.IndexRetries <= 0 {
		p.conf.IndexRetries = defaultIndexRetries
	}
	if p.conf.RepairWorkers <= 0 {
		p.conf.RepairWorkers = defaultRepairWorkers
	}
	if p.conf.RepairBacklog <= 0 {
		p.conf.RepairBacklog = defaultRepairBacklog
	}
	if p.conf.indexBackoff <= 0 {
		p.conf.indexBackoff = defaultIndexBackoff
	}
	p.repairs = concurrency.NewGoRoutinePool(p.conf.RepairWorkers, p.conf.RepairBacklog)

	return p
}

// Shutdown stops background repairs. Repairs which have not completed are logged.
func (p *Pipeline) Shutdown() {
	close(p.done)
	if dropped := p.repairs.Stop(); dropped > 0 {
		logs.Err.Println("pipeline: ALERT channel index repairs abandoned at shutdown:", dropped)
		statIndexRepairs.WithLabelValues("abandoned").Add(float64(dropped))
	}
}

// RepairBacklog returns the number of channel index repairs waiting for a worker.
func (p *Pipeline) RepairBacklog() int {
	return p.repairs.Pending()
}

// Create posts a new message to the channel on behalf of the sender.
func (p *Pipeline) Create(ctx context.Context, channelId, senderId, content string) (*types.Message, error) {
	defer observe("create", time.Now())

	msg, err := p.create(ctx, channelId, senderId, content)
	statMutations.WithLabelValues("create", statOutcome(err)).Inc()
	return msg, err
}

func (p *Pipeline) create(ctx context.Context, channelId, senderId, content string) (*types.Message, error) {
	channel, sender := types.ParseUid(channelId), types.ParseUid(senderId)
	if channel.IsZero() || sender.IsZero() {
		return nil, types.ErrMalformed
	}
	content, err := p.normalizeContent(content)
	if err != nil {
		return nil, err
	}

	ch, err := p.channels.Get(channel)
	if err != nil {
		return nil, err
	}

	// Permission to post is granted in the scope of the parent server, the channel itself
	// if the channel is not attached to a server.
	scope := channel
	if srv := types.ParseUid(ch.Server); !srv.IsZero() {
		scope = srv
	}
	allowed, err := p.oracle.HasCapability(sender, scope, types.CapSendMessages)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, types.ErrPermissionDenied
	}

	// Nothing is written for a caller which is already gone.
	if ctx.Err() != nil {
		return nil, types.ErrUnavailable
	}

	msg := &types.Message{
		Channel: channel.String(),
		From:    sender.String(),
		Content: content,
	}
	if err = p.messages.Save(msg); err != nil {
		return nil, err
	}

	// The message is durable from here on: the caller's cancellation no longer matters.
	msgId := msg.Uid()
	p.updateIndex("created "+msg.Id, func() error {
		return p.channels.OnMessageCreated(channel, msgId, sender)
	})
	p.emit(msg.Channel, EventMessageCreated, msg.Clone())

	return msg, nil
}

// Update replaces content of the message. Only the author may edit the message.
func (p *Pipeline) Update(ctx context.Context, messageId, actorId, content string) (*types.Message, error) {
	defer observe("update", time.Now())

	msg, err := p.update(ctx, messageId, actorId, content)
	statMutations.WithLabelValues("update", statOutcome(err)).Inc()
	return msg, err
}

func (p *Pipeline) update(ctx context.Context, messageId, actorId, content string) (*types.Message, error) {
	id, actor := types.ParseUid(messageId), types.ParseUid(actorId)
	if id.IsZero() || actor.IsZero() {
		return nil, types.ErrMalformed
	}
	content, err := p.normalizeContent(content)
	if err != nil {
		return nil, err
	}

	if err = p.checkAuthor(id, actor); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, types.ErrUnavailable
	}

	msg, err := p.messages.Update(id, content)
	if err != nil {
		return nil, err
	}

	p.emit(msg.Channel, EventMessageUpdated, msg.Clone())
	return msg, nil
}

// Delete removes the message. Only the author may delete the message.
func (p *Pipeline) Delete(ctx context.Context, messageId, actorId string) error {
	defer observe("delete", time.Now())

	err := p.delete(ctx, messageId, actorId)
	statMutations.WithLabelValues("delete", statOutcome(err)).Inc()
	return err
}

func (p *Pipeline) delete(ctx context.Context, messageId, actorId string) error {
	id, actor := types.ParseUid(messageId), types.ParseUid(actorId)
	if id.IsZero() || actor.IsZero() {
		return types.ErrMalformed
	}

	if err := p.checkAuthor(id, actor); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return types.ErrUnavailable
	}

	removed, err := p.messages.Delete(id)
	if err != nil {
		return err
	}

	p.updateIndex("deleted "+removed.Id, func() error {
		return p.channels.OnMessageDeleted(id)
	})
	p.emit(removed.Channel, EventMessageDeleted, &MessageRef{Id: removed.Id, Channel: removed.Channel})

	return nil
}

// ToggleReaction adds the actor to the users who reacted to the message with the symbol or
// removes the actor if the actor has already reacted with it. Returns the updated message and
// true if the reaction was added. The change is announced to the feed, or to the channel
// of the message if the feed is empty.
func (p *Pipeline) ToggleReaction(ctx context.Context, messageId, actorId, symbol, feed string) (*types.Message, bool, error) {
	defer observe("react", time.Now())

	msg, added, err := p.toggleReaction(ctx, messageId, actorId, symbol, feed)
	statMutations.WithLabelValues("react", statOutcome(err)).Inc()
	return msg, added, err
}

func (p *Pipeline) toggleReaction(ctx context.Context, messageId, actorId, symbol, feed string) (*types.Message, bool, error) {
	id, actor := types.ParseUid(messageId), types.ParseUid(actorId)
	if id.IsZero() || actor.IsZero() {
		return nil, false, types.ErrMalformed
	}
	if feed != "" && types.ParseUid(feed).IsZero() {
		return nil, false, types.ErrMalformed
	}
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, false, err
	}

	for attempt := 0; attempt < p.conf.ReactionRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, false, types.ErrUnavailable
		}

		current, err := p.messages.Get(id)
		if err != nil {
			return nil, false, err
		}

		ledger, added := current.Reactions.Toggle(symbol, actor.String())
		msg, err := p.messages.ReplaceReactions(id, current.Version, ledger)
		if err == types.ErrConflict {
			// Someone else changed reactions since the read.
			statReactionConflicts.Inc()
			continue
		}
		if err != nil {
			return nil, false, err
		}

		target := feed
		if target == "" {
			target = msg.Channel
		}
		p.emit(target, EventReactionUpdated, msg.Clone())
		return msg, added, nil
	}

	logs.Warn.Println("pipeline: reaction contention, giving up", messageId, symbol)
	return nil, false, types.ErrUnavailable
}

// List returns a page of messages of the channel, newest first. Page numbering starts at 1,
// zero page and page size select defaults.
func (p *Pipeline) List(ctx context.Context, channelId string, page, pageSize int) ([]types.Message, error) {
	defer observe("list", time.Now())

	channel := types.ParseUid(channelId)
	if channel.IsZero() || page < 0 || pageSize < 0 {
		return nil, types.ErrMalformed
	}
	if ctx.Err() != nil {
		return nil, types.ErrUnavailable
	}

	msgs, err := p.messages.GetAll(channel, page, pageSize)
	statMutations.WithLabelValues("list", statOutcome(err)).Inc()
	return msgs, err
}

// GetChannel returns the channel summary.
func (p *Pipeline) GetChannel(channelId string) (*types.Channel, error) {
	channel := types.ParseUid(channelId)
	if channel.IsZero() {
		return nil, types.ErrMalformed
	}
	return p.channels.Get(channel)
}

func (p *Pipeline) checkAuthor(id, actor types.Uid) error {
	msg, err := p.messages.Get(id)
	if err != nil {
		return err
	}
	if msg.From != actor.String() {
		return types.ErrPermissionDenied
	}
	return nil
}

func (p *Pipeline) emit(feed string, kind EventKind, payload any) {
	defer func() {
		// Announcement failures never fail the mutation.
		if r := recover(); r != nil {
			logs.Err.Println("pipeline: fanout panic", feed, kind, r)
		}
	}()
	p.fanout.Emit(feed, kind, payload)
}

// updateIndex applies the channel index update. The update is retried a few times, then
// handed to a background worker which keeps retrying until it succeeds.
func (p *Pipeline) updateIndex(what string, update func() error) {
	backoff := p.conf.indexBackoff
	var err error
	for attempt := 0; attempt < p.conf.IndexRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		if err = update(); err == nil || !indexRetryable(err) {
			break
		}
	}
	if err == nil {
		return
	}
	if !indexRetryable(err) {
		logs.Err.Println("pipeline: ALERT channel index update failed permanently", what, err)
		statIndexRepairs.WithLabelValues("failed").Inc()
		return
	}

	logs.Warn.Println("pipeline: channel index update failed, scheduling repair", what, err)
	if !p.repairs.TrySchedule(func() { p.repair(what, update, backoff) }) {
		logs.Err.Println("pipeline: ALERT channel index repair queue full, update lost", what)
		statIndexRepairs.WithLabelValues("rejected").Inc()
		return
	}
	statIndexRepairs.WithLabelValues("scheduled").Inc()
}

func (p *Pipeline) repair(what string, update func() error, backoff time.Duration) {
	for attempt := 1; ; attempt++ {
		err := update()
		if err == nil {
			logs.Info.Println("pipeline: channel index repaired", what, "attempts:", attempt)
			statIndexRepairs.WithLabelValues("completed").Inc()
			return
		}
		if !indexRetryable(err) {
			logs.Err.Println("pipeline: ALERT channel index repair failed permanently", what, err)
			statIndexRepairs.WithLabelValues("failed").Inc()
			return
		}
		if attempt%10 == 0 {
			logs.Err.Println("pipeline: ALERT channel index repair still failing", what, "attempts:", attempt, err)
		}

		backoff = min(backoff*2, maxRepairBackoff)
		select {
		case <-time.After(backoff):
		case <-p.done:
			logs.Err.Println("pipeline: ALERT channel index repair abandoned at shutdown", what)
			statIndexRepairs.WithLabelValues("abandoned").Inc()
			return
		}
	}
}

// Missing channel or malformed ids will not get better with time.
func indexRetryable(err error) bool {
	return err != types.ErrNotFound && err != types.ErrMalformed
}

// normalizeContent validates message content and converts it to the NFC form.
func (p *Pipeline) normalizeContent(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", types.ErrMalformed
	}
	content = norm.NFC.String(content)
	if uniseg.GraphemeClusterCount(content) > p.conf.MaxMessageLength {
		return "", types.ErrMalformed
	}
	return content, nil
}

// normalizeSymbol validates a reaction symbol and converts it to the NFC form so that
// visually identical symbols toggle the same reaction.
func normalizeSymbol(symbol string) (string, error) {
	symbol = norm.NFC.String(strings.TrimSpace(symbol))
	if symbol == "" || strings.ContainsFunc(symbol, unicode.IsSpace) {
		return "", types.ErrMalformed
	}
	if uniseg.GraphemeClusterCount(symbol) > maxSymbolGraphemes {
		return "", types.ErrMalformed
	}
	return symbol, nil
}

func observe(op string, start time.Time) {
	statLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
