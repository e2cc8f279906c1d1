// Package testsuite contains adapter tests shared by all database adapters.
// Functions must be called in the order they are declared: later tests depend on
// the records created by earlier ones.
package testsuite

import (
	"testing"
	"time"

	adapter "github.com/Divyanshu-Mishra9620/DiscordClone/server/db"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/db/common/test_data"
	types "github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func contents(msgs []types.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}

// RunCreate loads the fixture into the database.
func RunCreate(t *testing.T, adp adapter.Adapter, td *test_data.TestData) {
	t.Helper()

	for _, user := range td.Users {
		if err := adp.UserCreate(user); err != nil {
			t.Fatal(err)
		}
	}
	if err := adp.UserCreate(td.Users[0]); err != types.ErrDuplicate {
		t.Error("duplicate user: expected ErrDuplicate, got", err)
	}
	for _, srv := range td.Servers {
		if err := adp.ServerCreate(srv); err != nil {
			t.Fatal(err)
		}
	}
	for _, ch := range td.Channels {
		if err := adp.ChannelCreate(ch); err != nil {
			t.Fatal(err)
		}
	}
	for _, m := range td.Memberships {
		if err := adp.MembershipUpsert(m); err != nil {
			t.Fatal(err)
		}
	}
	for _, msg := range td.Msgs {
		if err := adp.MessageSave(msg); err != nil {
			t.Fatal(err)
		}
		if err := adp.ChannelAddMessage(types.ParseUid(msg.Channel), msg.Uid(), types.ParseUid(msg.From)); err != nil {
			t.Fatal(err)
		}
	}
}

// RunUserGetAll checks retrieval of user profiles.
func RunUserGetAll(t *testing.T, adp adapter.Adapter, td *test_data.TestData) {
	t.Helper()

	got, err := adp.UserGetAll(td.Users[0].Uid(), td.Users[2].Uid(), types.Uid(12345))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 users, got %d", len(got))
	}
	names := []string{got[0].Username, got[1].Username}
	if diff := cmp.Diff([]string{"alice", "carol"}, names, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Errorf("UserGetAll mismatch (-want +got):\n%s", diff)
	}

	got, err = adp.UserGetAll()
	if err != nil || len(got) != 0 {
		t.Errorf("empty request: got %v, %v", got, err)
	}
}

// RunServerGet checks server records and permission grants.
func RunServerGet(t *testing.T, adp adapter.Adapter, td *test_data.TestData) {
	t.Helper()

	srv, err := adp.ServerGet(td.Servers[0].Uid())
	if err != nil {
		t.Fatal(err)
	}
	if srv.Owner != td.Users[0].Id || srv.Name != td.Servers[0].Name {
		t.Errorf("ServerGet: got %+v", srv)
	}
	if _, err := adp.ServerGet(types.Uid(12345)); err != types.ErrNotFound {
		t.Error("missing server: expected ErrNotFound, got", err)
	}

	m, err := adp.MembershipGet(td.Users[1].Uid(), td.Servers[0].Uid())
	if err != nil {
		t.Fatal(err)
	}
	if !m.Grants(types.CapSendMessages) {
		t.Error("bob must be able to send messages")
	}
	if _, err := adp.MembershipGet(td.Users[0].Uid(), td.Channels[1].Uid()); err != types.ErrNotFound {
		t.Error("missing membership: expected ErrNotFound, got", err)
	}

	// Upsert replaces existing capabilities.
	upd := *td.Memberships[1]
	upd.Caps = []types.Capability{types.CapManageMessages}
	if err := adp.MembershipUpsert(&upd); err != nil {
		t.Fatal(err)
	}
	m, err = adp.MembershipGet(td.Users[2].Uid(), td.Servers[0].Uid())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(upd.Caps, m.Caps); diff != "" {
		t.Errorf("MembershipUpsert did not replace caps (-want +got):\n%s", diff)
	}
}

// RunChannelGet checks the channel summary built by RunCreate.
func RunChannelGet(t *testing.T, adp adapter.Adapter, td *test_data.TestData) {
	t.Helper()

	ch, err := adp.ChannelGet(td.Channels[0].Uid())
	if err != nil {
		t.Fatal(err)
	}
	if ch.Server != td.Servers[0].Id || ch.Name != "general" {
		t.Errorf("ChannelGet: got %+v", ch)
	}
	var want []string
	for _, msg := range td.Msgs[:5] {
		want = append(want, msg.Id)
	}
	if diff := cmp.Diff(want, ch.Messages); diff != "" {
		t.Errorf("Messages mismatch (-want +got):\n%s", diff)
	}
	senders := []string{td.Users[0].Id, td.Users[1].Id}
	if diff := cmp.Diff(senders, ch.Senders, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Errorf("Senders mismatch (-want +got):\n%s", diff)
	}

	empty, err := adp.ChannelGet(td.Channels[2].Uid())
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Messages) != 0 || len(empty.Senders) != 0 {
		t.Errorf("empty channel is not empty: %+v", empty)
	}

	if _, err := adp.ChannelGet(types.Uid(12345)); err != types.ErrNotFound {
		t.Error("missing channel: expected ErrNotFound, got", err)
	}
}

// RunChannelIndexIdempotent checks add-to-set of senders and removal of absent ids.
func RunChannelIndexIdempotent(t *testing.T, adp adapter.Adapter, td *test_data.TestData) {
	t.Helper()

	if err := adp.ChannelRemoveMessage(types.Uid(12345)); err != nil {
		t.Error("removal of absent id must be a no-op, got", err)
	}

	// Sender already in the set.
	extra := td.UGen.Get()
	chUid := td.Channels[2].Uid()
	for i := 0; i < 2; i++ {
		if err := adp.ChannelAddMessage(chUid, td.UGen.Get(), td.Users[1].Uid()); err != nil {
			t.Fatal(err)
		}
	}
	// Repeated update of the same message, as done by a retry.
	for i := 0; i < 2; i++ {
		if err := adp.ChannelAddMessage(chUid, extra, td.Users[2].Uid()); err != nil {
			t.Fatal(err)
		}
	}
	ch, err := adp.ChannelGet(chUid)
	if err != nil {
		t.Fatal(err)
	}
	if len(ch.Messages) != 3 {
		t.Errorf("expected 3 messages, got %v", ch.Messages)
	}
	if len(ch.Senders) != 2 {
		t.Errorf("expected 2 distinct senders, got %v", ch.Senders)
	}

	if err := adp.ChannelRemoveMessage(extra); err != nil {
		t.Fatal(err)
	}
	ch, _ = adp.ChannelGet(chUid)
	if ch.HasMessage(extra.String()) || len(ch.Messages) != 2 {
		t.Errorf("message was not removed: %v", ch.Messages)
	}
	// Senders are grow-only.
	if len(ch.Senders) != 2 {
		t.Errorf("senders must not shrink on delete, got %v", ch.Senders)
	}
}

// RunMessageGet checks point reads.
func RunMessageGet(t *testing.T, adp adapter.Adapter, td *test_data.TestData) {
	t.Helper()

	src := td.Msgs[2]
	got, err := adp.MessageGet(src.Uid())
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != src.Content || got.Channel != src.Channel || got.From != src.From {
		t.Errorf("MessageGet: got %+v, want %+v", got, src)
	}
	if !got.CreatedAt.Equal(src.CreatedAt) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, src.CreatedAt)
	}
	if len(got.Reactions) != 0 || got.Version != 0 {
		t.Errorf("new message must have no reactions, got %+v v%d", got.Reactions, got.Version)
	}

	if _, err := adp.MessageGet(types.Uid(12345)); err != types.ErrNotFound {
		t.Error("missing message: expected ErrNotFound, got", err)
	}
}

// RunMessageGetAll checks reverse chronological offset pagination.
func RunMessageGetAll(t *testing.T, adp adapter.Adapter, td *test_data.TestData) {
	t.Helper()

	ch := td.Channels[0].Uid()
	pages := [][]string{{"m5", "m4"}, {"m3", "m2"}, {"m1"}, {}}
	for i, want := range pages {
		got, err := adp.MessageGetAll(ch, i*2, 2)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, contents(got), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("page %d mismatch (-want +got):\n%s", i+1, diff)
		}
	}

	got, err := adp.MessageGetAll(td.Channels[2].Uid(), 0, 50)
	if err != nil {
		t.Fatal("empty channel must not be an error, got", err)
	}
	if len(got) != 0 {
		t.Errorf("empty channel: got %d messages", len(got))
	}

	got, err = adp.MessageGetAll(types.Uid(12345), 0, 50)
	if err != nil || len(got) != 0 {
		t.Errorf("unknown channel: got %v, %v", got, err)
	}
}

// RunMessageUpdate checks content edits.
func RunMessageUpdate(t *testing.T, adp adapter.Adapter, td *test_data.TestData) {
	t.Helper()

	src := td.Msgs[0]
	when := types.TimeNow().Add(time.Second)
	got, err := adp.MessageUpdate(src.Uid(), "m1 edited", when)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "m1 edited" {
		t.Errorf("content: got '%s'", got.Content)
	}
	if !got.UpdatedAt.Equal(when) || !got.CreatedAt.Equal(src.CreatedAt) {
		t.Errorf("timestamps: created %v updated %v", got.CreatedAt, got.UpdatedAt)
	}
	if got.From != src.From || got.Channel != src.Channel {
		t.Errorf("immutable fields changed: %+v", got)
	}

	// An edit stamped no later than the previous one still moves the time forward.
	again, err := adp.MessageUpdate(src.Uid(), "$m1 edited again", when)
	if err != nil {
		t.Fatal(err)
	}
	if !again.UpdatedAt.After(got.UpdatedAt) {
		t.Errorf("modification time not advanced: %v then %v", got.UpdatedAt, again.UpdatedAt)
	}
	if again.Content != "$m1 edited again" {
		t.Errorf("content: got '%s'", again.Content)
	}

	if _, err := adp.MessageUpdate(types.Uid(12345), "x", when); err != types.ErrNotFound {
		t.Error("missing message: expected ErrNotFound, got", err)
	}
}

// RunMessageReplaceReactions checks the compare-and-swap write of reactions.
func RunMessageReplaceReactions(t *testing.T, adp adapter.Adapter, td *test_data.TestData) {
	t.Helper()

	id := td.Msgs[1].Uid()
	first := types.ReactionLedger{{Symbol: ":+1:", Users: []string{td.Users[1].Id}}}
	got, err := adp.MessageReplaceReactions(id, 0, first)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 1 {
		t.Errorf("version: got %d, want 1", got.Version)
	}
	if diff := cmp.Diff(first, got.Reactions); diff != "" {
		t.Errorf("reactions mismatch (-want +got):\n%s", diff)
	}

	// Stale version is rejected and nothing is written.
	stale := types.ReactionLedger{{Symbol: ":tada:", Users: []string{td.Users[2].Id}}}
	if _, err := adp.MessageReplaceReactions(id, 0, stale); err != types.ErrConflict {
		t.Fatal("stale version: expected ErrConflict, got", err)
	}
	stored, err := adp.MessageGet(id)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, stored.Reactions); diff != "" {
		t.Errorf("conflicting write leaked (-want +got):\n%s", diff)
	}

	// Removing the last reaction leaves no entries.
	got, err = adp.MessageReplaceReactions(id, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Reactions) != 0 || got.Version != 2 {
		t.Errorf("cleared reactions: got %+v v%d", got.Reactions, got.Version)
	}

	if _, err := adp.MessageReplaceReactions(types.Uid(12345), 0, first); err != types.ErrNotFound {
		t.Error("missing message: expected ErrNotFound, got", err)
	}
}

// RunMessageDelete checks deletion and the channel index cleanup.
func RunMessageDelete(t *testing.T, adp adapter.Adapter, td *test_data.TestData) {
	t.Helper()

	src := td.Msgs[5]
	removed, err := adp.MessageDelete(src.Uid())
	if err != nil {
		t.Fatal(err)
	}
	if removed.Id != src.Id || removed.Channel != src.Channel {
		t.Errorf("removed message mismatch: got %+v", removed)
	}
	if _, err := adp.MessageGet(src.Uid()); err != types.ErrNotFound {
		t.Error("deleted message: expected ErrNotFound, got", err)
	}
	if _, err := adp.MessageDelete(src.Uid()); err != types.ErrNotFound {
		t.Error("second delete: expected ErrNotFound, got", err)
	}

	if err := adp.ChannelRemoveMessage(src.Uid()); err != nil {
		t.Fatal(err)
	}
	ch, err := adp.ChannelGet(types.ParseUid(src.Channel))
	if err != nil {
		t.Fatal(err)
	}
	if ch.HasMessage(src.Id) {
		t.Error("deleted message is still referenced by the channel")
	}
	if len(ch.Senders) != 1 {
		t.Errorf("senders must be kept, got %v", ch.Senders)
	}
}
