package types

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUidTextRoundtrip(t *testing.T) {
	uid := Uid(0x1234567890abcdef)
	s := uid.String()
	if len(s) != uidBase64Unpadded {
		t.Fatalf("String() = '%s', want %d chars", s, uidBase64Unpadded)
	}
	if got := ParseUid(s); got != uid {
		t.Errorf("ParseUid(%s) = %d, want %d", s, got, uid)
	}
}

func TestParseUidMalformed(t *testing.T) {
	for _, s := range []string{"", "abc", "this-is-way-too-long", "!!!!!!!!!!!"} {
		if uid := ParseUid(s); !uid.IsZero() {
			t.Errorf("ParseUid(%q) = %v, want zero", s, uid)
		}
	}
}

func TestUidJSON(t *testing.T) {
	type wrapper struct {
		Id Uid `json:"id"`
	}
	in := wrapper{Id: Uid(987654321)}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out wrapper
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("got %v, want %v", out, in)
	}

	if err := json.Unmarshal([]byte(`{"id":"short"}`), &out); err == nil {
		t.Error("expected error on malformed uid")
	}
}

func TestObjHeader(t *testing.T) {
	var h ObjHeader
	h.SetUid(Uid(42))
	if h.Id != Uid(42).String() {
		t.Errorf("Id = %s, want %s", h.Id, Uid(42).String())
	}

	var h2 ObjHeader
	h2.Id = h.Id
	if h2.Uid() != Uid(42) {
		t.Errorf("Uid() = %d, want 42", h2.Uid())
	}

	h2.InitTimes()
	if h2.CreatedAt.IsZero() || !h2.CreatedAt.Equal(h2.UpdatedAt) {
		t.Errorf("InitTimes: created=%v updated=%v", h2.CreatedAt, h2.UpdatedAt)
	}
}

func TestMessageClone(t *testing.T) {
	msg := &Message{
		Channel:   "chan",
		From:      "alice",
		Content:   "hi",
		Reactions: ReactionLedger{{Symbol: ":+1:", Users: []string{"bob"}}},
		Sender:    &Profile{Id: "alice", Username: "Alice"},
	}
	clone := msg.Clone()
	if diff := cmp.Diff(msg, clone, cmp.AllowUnexported(ObjHeader{})); diff != "" {
		t.Fatalf("Clone() mismatch (-orig +clone):\n%s", diff)
	}

	clone.Reactions[0].Users[0] = "carol"
	clone.Sender.Username = "Mallory"
	if msg.Reactions[0].Users[0] != "bob" || msg.Sender.Username != "Alice" {
		t.Error("Clone() shares state with the original")
	}

	var nilMsg *Message
	if nilMsg.Clone() != nil {
		t.Error("Clone() of nil must be nil")
	}
}

func TestMembershipGrants(t *testing.T) {
	m := Membership{Caps: []Capability{CapSendMessages}}
	if !m.Grants(CapSendMessages) {
		t.Error("expected send_messages to be granted")
	}
	if m.Grants(CapManageMessages) {
		t.Error("manage_messages must not be granted")
	}
}
