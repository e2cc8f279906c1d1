package main

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/perms/mock_perms"
	permsdb "github.com/Divyanshu-Mishra9620/DiscordClone/server/perms/db"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/mock_store"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
)

const testStoreConfig = `{"use_adapter": "memory", "uid_key": "la6YsO+bNX/+XIkOqc5Svw=="}`

func TestMain(m *testing.M) {
	if err := store.Store.Open(1, []byte(testStoreConfig)); err != nil {
		panic(err)
	}
	code := m.Run()
	store.Store.Close()
	os.Exit(code)
}

type recordedEvent struct {
	feed    string
	kind    EventKind
	payload any
}

// Fanout which remembers everything it was asked to emit.
type recordingFanout struct {
	lock   sync.Mutex
	events []recordedEvent
}

func (f *recordingFanout) Emit(feed string, kind EventKind, payload any) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.events = append(f.events, recordedEvent{feed: feed, kind: kind, payload: payload})
}

func (f *recordingFanout) kinds() []EventKind {
	f.lock.Lock()
	defer f.lock.Unlock()
	var out []EventKind
	for _, ev := range f.events {
		out = append(out, ev.kind)
	}
	return out
}

func (f *recordingFanout) last() recordedEvent {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.events[len(f.events)-1]
}

type panickingFanout struct{}

func (panickingFanout) Emit(string, EventKind, any) {
	panic("fanout is broken")
}

// A small guild in the memory database: alice owns the server with channel 'general',
// bob may post in the server, carol may post only in the 'lounge' channel which has no server.
type testWorld struct {
	alice, bob, carol types.Uid
	server            types.Uid
	general, lounge   types.Uid

	fanout   *recordingFanout
	pipeline *Pipeline
}

func newTestWorld(t *testing.T, conf *PipelineConfig) *testWorld {
	t.Helper()

	if err := store.Store.InitDb(nil, true); err != nil {
		t.Fatal(err)
	}

	w := &testWorld{fanout: &recordingFanout{}}
	for _, u := range []struct {
		name string
		uid  *types.Uid
	}{{"alice", &w.alice}, {"bob", &w.bob}, {"carol", &w.carol}} {
		user, err := store.Users.Create(&types.User{Username: u.name})
		if err != nil {
			t.Fatal(err)
		}
		*u.uid = user.Uid()
	}

	srv, err := store.Servers.Create(&types.Server{Name: "guild", Owner: w.alice.String()})
	if err != nil {
		t.Fatal(err)
	}
	w.server = srv.Uid()

	general, err := store.Channels.Create(&types.Channel{Name: "general", Server: w.server.String()})
	if err != nil {
		t.Fatal(err)
	}
	w.general = general.Uid()

	lounge, err := store.Channels.Create(&types.Channel{Name: "lounge"})
	if err != nil {
		t.Fatal(err)
	}
	w.lounge = lounge.Uid()

	if err = store.Servers.Grant(w.bob, w.server, []types.Capability{types.CapSendMessages}); err != nil {
		t.Fatal(err)
	}
	if err = store.Servers.Grant(w.carol, w.lounge, []types.Capability{types.CapSendMessages}); err != nil {
		t.Fatal(err)
	}

	if conf == nil {
		conf = &PipelineConfig{}
	}
	conf.indexBackoff = time.Millisecond
	w.pipeline = NewPipeline(store.Messages, store.Channels, permsdb.New(), w.fanout, conf)
	t.Cleanup(w.pipeline.Shutdown)

	return w
}

func TestPaginationNewestFirst(t *testing.T) {
	w := newTestWorld(t, nil)
	ctx := context.Background()

	for _, content := range []string{"m1", "m2", "m3", "m4", "m5"} {
		if _, err := w.pipeline.Create(ctx, w.general.String(), w.bob.String(), content); err != nil {
			t.Fatal(err)
		}
		// Distinct creation times.
		time.Sleep(2 * time.Millisecond)
	}

	pages := [][]string{{"m5", "m4"}, {"m3", "m2"}, {"m1"}, nil}
	for i, want := range pages {
		msgs, err := w.pipeline.List(ctx, w.general.String(), i+1, 2)
		if err != nil {
			t.Fatal(err)
		}
		var got []string
		for _, m := range msgs {
			got = append(got, m.Content)
			if m.Sender == nil || m.Sender.Username != "bob" {
				t.Errorf("page %d: sender profile missing: %+v", i+1, m.Sender)
			}
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("page %d mismatch (-want +got):\n%s", i+1, diff)
		}
	}

	// Default page size is large enough for everything.
	msgs, err := w.pipeline.List(ctx, w.general.String(), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 5 {
		t.Error("expected all 5 messages on the default page, got", len(msgs))
	}

	ch, err := w.pipeline.GetChannel(w.general.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(ch.Messages) != 5 || !cmp.Equal(ch.Senders, []string{w.bob.String()}) {
		t.Errorf("channel index not updated: %+v", ch)
	}
}

func TestListEmptyChannel(t *testing.T) {
	w := newTestWorld(t, nil)

	// Unknown channel reads as an empty one.
	for _, ch := range []types.Uid{w.lounge, types.Uid(987654321)} {
		msgs, err := w.pipeline.List(context.Background(), ch.String(), 1, 10)
		if err != nil {
			t.Error("empty page must not be an error:", err)
		}
		if len(msgs) != 0 {
			t.Error("expected no messages, got", len(msgs))
		}
	}

	for _, tc := range []struct {
		channel        string
		page, pageSize int
	}{
		{"not-an-id", 1, 10},
		{w.lounge.String(), -1, 10},
		{w.lounge.String(), 1, -10},
	} {
		if _, err := w.pipeline.List(context.Background(), tc.channel, tc.page, tc.pageSize); err != types.ErrMalformed {
			t.Errorf("List(%q, %d, %d): expected ErrMalformed, got %v", tc.channel, tc.page, tc.pageSize, err)
		}
	}
}

func TestToggleReactionInvolution(t *testing.T) {
	w := newTestWorld(t, nil)
	ctx := context.Background()

	msg, err := w.pipeline.Create(ctx, w.general.String(), w.bob.String(), "hi")
	if err != nil {
		t.Fatal(err)
	}

	reacted, added, err := w.pipeline.ToggleReaction(ctx, msg.Id, w.alice.String(), "👍", "")
	if err != nil {
		t.Fatal(err)
	}
	if !added || !reacted.Reactions.Has("👍", w.alice.String()) {
		t.Fatalf("reaction was not added: %+v", reacted.Reactions)
	}

	reverted, added, err := w.pipeline.ToggleReaction(ctx, msg.Id, w.alice.String(), "👍", "")
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Error("second toggle must remove the reaction")
	}
	if len(reverted.Reactions) != 0 {
		t.Errorf("empty entry must not be kept: %+v", reverted.Reactions)
	}

	stored, err := store.Messages.Get(msg.Uid())
	if err != nil {
		t.Fatal(err)
	}
	if stored.Reactions.Find("👍") >= 0 {
		t.Errorf("empty entry persisted: %+v", stored.Reactions)
	}

	if diff := cmp.Diff([]EventKind{EventMessageCreated, EventReactionUpdated, EventReactionUpdated},
		w.fanout.kinds()); diff != "" {
		t.Error("events mismatch (-want +got):", diff)
	}
}

func TestToggleReactionUsers(t *testing.T) {
	w := newTestWorld(t, nil)
	ctx := context.Background()

	msg, err := w.pipeline.Create(ctx, w.general.String(), w.bob.String(), "hi")
	if err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		actor  types.Uid
		symbol string
	}{
		{w.alice, "🎉"},
		{w.bob, "🎉"},
		// Decomposed and composed forms of the same symbol.
		{w.carol, "e\u0301"},
		{w.alice, "\u00e9"},
		{w.alice, "🎉"},
	}
	var last *types.Message
	for _, s := range steps {
		if last, _, err = w.pipeline.ToggleReaction(ctx, msg.Id, s.actor.String(), s.symbol, ""); err != nil {
			t.Fatal(err)
		}
	}

	want := types.ReactionLedger{
		{Symbol: "🎉", Users: []string{w.bob.String()}},
		{Symbol: "\u00e9", Users: []string{w.carol.String(), w.alice.String()}},
	}
	if diff := cmp.Diff(want, last.Reactions); diff != "" {
		t.Error("reactions mismatch (-want +got):", diff)
	}
}

func TestToggleReactionFeed(t *testing.T) {
	w := newTestWorld(t, nil)
	ctx := context.Background()

	msg, err := w.pipeline.Create(ctx, w.general.String(), w.bob.String(), "hi")
	if err != nil {
		t.Fatal(err)
	}

	thread := types.Uid(424242).String()
	if _, _, err = w.pipeline.ToggleReaction(ctx, msg.Id, w.alice.String(), "👍", thread); err != nil {
		t.Fatal(err)
	}
	if ev := w.fanout.last(); ev.feed != thread || ev.kind != EventReactionUpdated {
		t.Errorf("expected reaction event in %s, got %+v", thread, ev)
	}

	if _, _, err = w.pipeline.ToggleReaction(ctx, msg.Id, w.alice.String(), "👍", ""); err != nil {
		t.Fatal(err)
	}
	if ev := w.fanout.last(); ev.feed != w.general.String() {
		t.Errorf("expected reaction event in the channel, got %s", ev.feed)
	}

	for _, tc := range []struct {
		name, id, symbol, feed string
		want                   error
	}{
		{"bad feed", msg.Id, "👍", "not a feed", types.ErrMalformed},
		{"empty symbol", msg.Id, "  ", "", types.ErrMalformed},
		{"symbol with space", msg.Id, "a b", "", types.ErrMalformed},
		{"symbol too long", msg.Id, strings.Repeat("x", maxSymbolGraphemes+1), "", types.ErrMalformed},
		{"bad message id", "nope", "👍", "", types.ErrMalformed},
		{"missing message", types.Uid(77).String(), "👍", "", types.ErrNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := w.pipeline.ToggleReaction(ctx, tc.id, w.alice.String(), tc.symbol, tc.feed); err != tc.want {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateForbidden(t *testing.T) {
	w := newTestWorld(t, nil)
	ctx := context.Background()

	if _, err := w.pipeline.Create(ctx, w.general.String(), w.carol.String(), "let me in"); err != types.ErrPermissionDenied {
		t.Fatal("expected ErrPermissionDenied, got", err)
	}

	msgs, err := w.pipeline.List(ctx, w.general.String(), 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Error("forbidden message persisted")
	}
	if kinds := w.fanout.kinds(); len(kinds) != 0 {
		t.Error("forbidden message announced:", kinds)
	}
	ch, _ := w.pipeline.GetChannel(w.general.String())
	if len(ch.Messages) != 0 || len(ch.Senders) != 0 {
		t.Errorf("channel index changed: %+v", ch)
	}
}

func TestCreateScopes(t *testing.T) {
	w := newTestWorld(t, nil)
	ctx := context.Background()

	cases := []struct {
		name    string
		channel types.Uid
		sender  types.Uid
		want    error
	}{
		{"owner", w.general, w.alice, nil},
		{"server member", w.general, w.bob, nil},
		{"not a member", w.general, w.carol, types.ErrPermissionDenied},
		{"channel member", w.lounge, w.carol, nil},
		{"server grant does not reach other channels", w.lounge, w.bob, types.ErrPermissionDenied},
		{"missing channel", types.Uid(31337), w.alice, types.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := w.pipeline.Create(ctx, tc.channel.String(), tc.sender.String(), "hello"); err != tc.want {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestContentValidation(t *testing.T) {
	w := newTestWorld(t, &PipelineConfig{MaxMessageLength: 4})
	ctx := context.Background()

	cases := []struct {
		name    string
		content string
		want    error
	}{
		{"empty", "", types.ErrMalformed},
		{"whitespace", " \n\t ", types.ErrMalformed},
		{"too long", "hello", types.ErrMalformed},
		{"at limit", "hell", nil},
		// Four grapheme clusters, much longer in bytes.
		{"graphemes", "👍🏽👍🏽🇺🇸e\u0301", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := w.pipeline.Create(ctx, w.general.String(), w.bob.String(), tc.content); err != tc.want {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := w.pipeline.Create(ctx, "bad", w.bob.String(), "hi"); err != types.ErrMalformed {
		t.Error("malformed channel id accepted:", err)
	}
	if _, err := w.pipeline.Create(ctx, w.general.String(), "", "hi"); err != types.ErrMalformed {
		t.Error("missing sender accepted:", err)
	}
}

func TestContentNormalized(t *testing.T) {
	w := newTestWorld(t, nil)

	msg, err := w.pipeline.Create(context.Background(), w.general.String(), w.bob.String(), "cafe\u0301")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Content != "caf\u00e9" {
		t.Errorf("expected NFC content, got %q", msg.Content)
	}
}

// Edit, forbidden delete, delete, gone.
func TestMessageLifecycle(t *testing.T) {
	w := newTestWorld(t, nil)
	ctx := context.Background()

	msg, err := w.pipeline.Create(ctx, w.general.String(), w.bob.String(), "hi")
	if err != nil {
		t.Fatal(err)
	}

	if _, err = w.pipeline.Update(ctx, msg.Id, w.alice.String(), "hijacked"); err != types.ErrPermissionDenied {
		t.Error("only the author may edit, got", err)
	}

	edited, err := w.pipeline.Update(ctx, msg.Id, w.bob.String(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if edited.Content != "hello" || edited.Sender == nil || edited.Sender.Username != "bob" {
		t.Errorf("unexpected edited message %+v", edited)
	}
	if !edited.UpdatedAt.After(msg.UpdatedAt) || !edited.CreatedAt.Equal(msg.CreatedAt) {
		t.Errorf("edit must move only the modification time forward: created %v, updated %v -> %v",
			edited.CreatedAt, msg.UpdatedAt, edited.UpdatedAt)
	}
	again, err := w.pipeline.Update(ctx, msg.Id, w.bob.String(), "hello!")
	if err != nil {
		t.Fatal(err)
	}
	if !again.UpdatedAt.After(edited.UpdatedAt) {
		t.Errorf("second edit not newer: %v then %v", edited.UpdatedAt, again.UpdatedAt)
	}

	if err = w.pipeline.Delete(ctx, msg.Id, w.carol.String()); err != types.ErrPermissionDenied {
		t.Error("expected ErrPermissionDenied, got", err)
	}
	if stored, err := store.Messages.Get(msg.Uid()); err != nil || stored.Content != "hello!" {
		t.Error("forbidden delete changed the message", stored, err)
	}

	if err = w.pipeline.Delete(ctx, msg.Id, w.bob.String()); err != nil {
		t.Fatal(err)
	}

	if _, err = w.pipeline.Update(ctx, msg.Id, w.bob.String(), "again"); err != types.ErrNotFound {
		t.Error("expected ErrNotFound after delete, got", err)
	}
	if err = w.pipeline.Delete(ctx, msg.Id, w.bob.String()); err != types.ErrNotFound {
		t.Error("expected ErrNotFound on second delete, got", err)
	}

	if diff := cmp.Diff([]EventKind{EventMessageCreated, EventMessageUpdated, EventMessageUpdated,
		EventMessageDeleted}, w.fanout.kinds()); diff != "" {
		t.Error("events mismatch (-want +got):", diff)
	}
	ev := w.fanout.last()
	if ref, ok := ev.payload.(*MessageRef); !ok || ref.Id != msg.Id || ref.Channel != w.general.String() {
		t.Errorf("unexpected delete payload %+v", ev.payload)
	}

	ch, _ := w.pipeline.GetChannel(w.general.String())
	if ch.HasMessage(msg.Id) {
		t.Error("deleted message is still in the channel index")
	}
	if !cmp.Equal(ch.Senders, []string{w.bob.String()}) {
		t.Error("senders must not shrink on delete:", ch.Senders)
	}
}

// Events carry copies: changing what the caller got back does not change what subscribers see.
func TestEventPayloadIsolated(t *testing.T) {
	w := newTestWorld(t, nil)

	msg, err := w.pipeline.Create(context.Background(), w.general.String(), w.bob.String(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	msg.Content = "changed"

	emitted := w.fanout.last().payload.(*types.Message)
	if emitted.Content != "hi" {
		t.Error("event payload shares state with the result")
	}
}

func TestFanoutFailureIgnored(t *testing.T) {
	w := newTestWorld(t, nil)
	p := NewPipeline(store.Messages, store.Channels, permsdb.New(), panickingFanout{}, nil)
	defer p.Shutdown()

	if _, err := p.Create(context.Background(), w.general.String(), w.bob.String(), "hi"); err != nil {
		t.Error("fanout failure must not fail the mutation:", err)
	}
}

/////////////////////////////////////////////////////////////
// Failure paths on mocked storage.

type mockedPipeline struct {
	messages *mock_store.MockMessagesPersistenceInterface
	channels *mock_store.MockChannelsPersistenceInterface
	oracle   *mock_perms.MockOracle
	fanout   *recordingFanout
	pipeline *Pipeline
}

func newMockedPipeline(t *testing.T, conf *PipelineConfig) *mockedPipeline {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := &mockedPipeline{
		messages: mock_store.NewMockMessagesPersistenceInterface(ctrl),
		channels: mock_store.NewMockChannelsPersistenceInterface(ctrl),
		oracle:   mock_perms.NewMockOracle(ctrl),
		fanout:   &recordingFanout{},
	}
	if conf == nil {
		conf = &PipelineConfig{}
	}
	conf.indexBackoff = time.Millisecond
	m.pipeline = NewPipeline(m.messages, m.channels, m.oracle, m.fanout, conf)
	// Registered after the controller so repairs stop before expectations are checked.
	t.Cleanup(m.pipeline.Shutdown)
	return m
}

const (
	mockChannel = types.Uid(1001)
	mockServer  = types.Uid(1002)
	mockSender  = types.Uid(1003)
	mockMessage = types.Uid(1004)
)

func (m *mockedPipeline) expectCreateUpToIndex() {
	m.channels.EXPECT().Get(mockChannel).Return(&types.Channel{Server: mockServer.String()}, nil)
	m.oracle.EXPECT().HasCapability(mockSender, mockServer, types.CapSendMessages).Return(true, nil)
	m.messages.EXPECT().Save(gomock.Any()).DoAndReturn(func(msg *types.Message) error {
		msg.SetUid(mockMessage)
		return nil
	})
}

func TestIndexRepairedInBackground(t *testing.T) {
	m := newMockedPipeline(t, &PipelineConfig{IndexRetries: 2})
	m.expectCreateUpToIndex()

	repaired := make(chan struct{})
	gomock.InOrder(
		m.channels.EXPECT().OnMessageCreated(mockChannel, mockMessage, mockSender).
			Return(types.ErrUnavailable).Times(3),
		m.channels.EXPECT().OnMessageCreated(mockChannel, mockMessage, mockSender).
			DoAndReturn(func(_, _, _ types.Uid) error {
				close(repaired)
				return nil
			}),
	)

	msg, err := m.pipeline.Create(context.Background(), mockChannel.String(), mockSender.String(), "hi")
	if err != nil {
		t.Fatal("index failure must not fail the mutation:", err)
	}
	if msg.Id != mockMessage.String() {
		t.Error("unexpected message id", msg.Id)
	}
	if kinds := m.fanout.kinds(); len(kinds) != 1 || kinds[0] != EventMessageCreated {
		t.Error("message not announced:", kinds)
	}

	select {
	case <-repaired:
	case <-time.After(5 * time.Second):
		t.Fatal("index was not repaired")
	}
}

func TestIndexPermanentFailure(t *testing.T) {
	m := newMockedPipeline(t, nil)
	m.expectCreateUpToIndex()
	// Not retried.
	m.channels.EXPECT().OnMessageCreated(mockChannel, mockMessage, mockSender).Return(types.ErrNotFound)

	if _, err := m.pipeline.Create(context.Background(), mockChannel.String(), mockSender.String(), "hi"); err != nil {
		t.Error("index failure must not fail the mutation:", err)
	}
	if m.pipeline.RepairBacklog() != 0 {
		t.Error("permanent failure must not be queued for repair")
	}
}

func TestCreateOracleUnavailable(t *testing.T) {
	m := newMockedPipeline(t, nil)
	m.channels.EXPECT().Get(mockChannel).Return(&types.Channel{}, nil)
	// Channel without a server is its own scope.
	m.oracle.EXPECT().HasCapability(mockSender, mockChannel, types.CapSendMessages).Return(false, types.ErrUnavailable)

	if _, err := m.pipeline.Create(context.Background(), mockChannel.String(), mockSender.String(), "hi"); err != types.ErrUnavailable {
		t.Error("expected ErrUnavailable, got", err)
	}
	if len(m.fanout.kinds()) != 0 {
		t.Error("failed mutation announced")
	}
}

func TestCreateCanceled(t *testing.T) {
	m := newMockedPipeline(t, nil)
	m.channels.EXPECT().Get(mockChannel).Return(&types.Channel{Server: mockServer.String()}, nil)
	m.oracle.EXPECT().HasCapability(mockSender, mockServer, types.CapSendMessages).Return(true, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Save must not be called.
	if _, err := m.pipeline.Create(ctx, mockChannel.String(), mockSender.String(), "hi"); err != types.ErrUnavailable {
		t.Error("expected ErrUnavailable, got", err)
	}
}

func TestReactionConflictRetried(t *testing.T) {
	m := newMockedPipeline(t, nil)

	stale := &types.Message{Channel: mockChannel.String(), Version: 3}
	fresh := &types.Message{Channel: mockChannel.String(), Version: 4,
		Reactions: types.ReactionLedger{{Symbol: "👍", Users: []string{"other"}}}}
	stale.SetUid(mockMessage)
	fresh.SetUid(mockMessage)

	gomock.InOrder(
		m.messages.EXPECT().Get(mockMessage).Return(stale, nil),
		m.messages.EXPECT().ReplaceReactions(mockMessage, 3, gomock.Any()).Return(nil, types.ErrConflict),
		m.messages.EXPECT().Get(mockMessage).Return(fresh, nil),
		m.messages.EXPECT().ReplaceReactions(mockMessage, 4, gomock.Any()).
			DoAndReturn(func(_ types.Uid, version int, ledger types.ReactionLedger) (*types.Message, error) {
				out := fresh.Clone()
				out.Reactions = ledger
				out.Version = version + 1
				return out, nil
			}),
	)

	msg, added, err := m.pipeline.ToggleReaction(context.Background(), mockMessage.String(), mockSender.String(), "👍", "")
	if err != nil {
		t.Fatal(err)
	}
	want := types.ReactionLedger{{Symbol: "👍", Users: []string{"other", mockSender.String()}}}
	if !added || !cmp.Equal(want, msg.Reactions) {
		t.Errorf("reaction must be applied on top of the fresh state: %+v", msg.Reactions)
	}
	if kinds := m.fanout.kinds(); len(kinds) != 1 {
		t.Error("expected exactly one event, got", kinds)
	}
}

func TestReactionContention(t *testing.T) {
	m := newMockedPipeline(t, &PipelineConfig{ReactionRetries: 2})

	current := &types.Message{Channel: mockChannel.String(), Version: 1}
	m.messages.EXPECT().Get(mockMessage).Return(current, nil).Times(2)
	m.messages.EXPECT().ReplaceReactions(mockMessage, 1, gomock.Any()).Return(nil, types.ErrConflict).Times(2)

	if _, _, err := m.pipeline.ToggleReaction(context.Background(), mockMessage.String(), mockSender.String(), "👍", ""); err != types.ErrUnavailable {
		t.Error("expected ErrUnavailable, got", err)
	}
	if len(m.fanout.kinds()) != 0 {
		t.Error("failed toggle announced")
	}
}

func TestDeleteIndexRetried(t *testing.T) {
	m := newMockedPipeline(t, nil)

	msg := &types.Message{Channel: mockChannel.String(), From: mockSender.String()}
	msg.SetUid(mockMessage)
	m.messages.EXPECT().Get(mockMessage).Return(msg, nil)
	m.messages.EXPECT().Delete(mockMessage).Return(msg, nil)
	gomock.InOrder(
		m.channels.EXPECT().OnMessageDeleted(mockMessage).Return(types.ErrUnavailable),
		m.channels.EXPECT().OnMessageDeleted(mockMessage).Return(nil),
	)

	if err := m.pipeline.Delete(context.Background(), mockMessage.String(), mockSender.String()); err != nil {
		t.Fatal(err)
	}
	if kinds := m.fanout.kinds(); len(kinds) != 1 || kinds[0] != EventMessageDeleted {
		t.Error("expected a delete event, got", kinds)
	}
}
