// Package test_data holds the records shared by adapter tests.
package test_data

import (
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
)

// TestData is the fixture loaded by every adapter's test package.
type TestData struct {
	UGen        *types.UidGenerator
	Users       []*types.User
	Servers     []*types.Server
	Channels    []*types.Channel
	Memberships []*types.Membership
	// Msgs[0..4] are m1..m5 in Channels[0], in creation order. Msgs[5] is in Channels[1].
	Msgs []*types.Message
	Now  time.Time
}

func initUsers(ug *types.UidGenerator, now time.Time) []*types.User {
	users := []*types.User{
		{Username: "alice", Avatar: "https://example.com/alice.png"},
		{Username: "bob"},
		{Username: "carol"},
	}
	for i, user := range users {
		user.SetUid(ug.Get())
		user.CreatedAt = now.Add(-time.Duration(10-i) * time.Hour)
		user.UpdatedAt = user.CreatedAt
	}
	return users
}

func initServers(ug *types.UidGenerator, now time.Time, users []*types.User) []*types.Server {
	srv := &types.Server{Name: "Flowers", Owner: users[0].Id}
	srv.SetUid(ug.Get())
	srv.CreatedAt = now.Add(-9 * time.Hour)
	srv.UpdatedAt = srv.CreatedAt
	return []*types.Server{srv}
}

func initChannels(ug *types.UidGenerator, now time.Time, servers []*types.Server) []*types.Channel {
	channels := []*types.Channel{
		{Server: servers[0].Id, Name: "general"},
		{Server: servers[0].Id, Name: "random"},
		{Server: servers[0].Id, Name: "empty"},
	}
	for _, ch := range channels {
		ch.SetUid(ug.Get())
		ch.CreatedAt = now.Add(-8 * time.Hour)
		ch.UpdatedAt = ch.CreatedAt
	}
	return channels
}

func initMemberships(ug *types.UidGenerator, now time.Time, users []*types.User,
	servers []*types.Server, channels []*types.Channel) []*types.Membership {
	mms := []*types.Membership{
		// Bob may post in the whole server.
		{User: users[1].Id, Scope: servers[0].Id, Caps: []types.Capability{types.CapSendMessages}},
		// Carol may only read.
		{User: users[2].Id, Scope: servers[0].Id, Caps: []types.Capability{}},
		// Carol may post in 'random'.
		{User: users[2].Id, Scope: channels[1].Id, Caps: []types.Capability{types.CapSendMessages}},
	}
	for _, m := range mms {
		m.SetUid(ug.Get())
		m.CreatedAt = now.Add(-7 * time.Hour)
		m.UpdatedAt = m.CreatedAt
	}
	return mms
}

func initMessages(ug *types.UidGenerator, now time.Time, users []*types.User, channels []*types.Channel) []*types.Message {
	msgs := make([]*types.Message, 0, 6)
	contents := []string{"m1", "m2", "m3", "m4", "m5"}
	for i, content := range contents {
		msgs = append(msgs, &types.Message{
			ObjHeader: types.ObjHeader{
				CreatedAt: now.Add(-time.Duration(len(contents)-i) * time.Minute),
			},
			Channel: channels[0].Id,
			From:    users[i%2].Id,
			Content: content,
		})
	}
	msgs = append(msgs, &types.Message{
		ObjHeader: types.ObjHeader{CreatedAt: now.Add(-time.Minute)},
		Channel:   channels[1].Id,
		From:      users[2].Id,
		Content:   "elsewhere",
	})
	for _, msg := range msgs {
		msg.SetUid(ug.Get())
		msg.UpdatedAt = msg.CreatedAt
	}
	return msgs
}

// InitTestData creates a fresh fixture. Ids are generated by a private generator
// which must be installed with store.SetTestUidGenerator by SQL adapter tests.
func InitTestData() *TestData {
	ug := &types.UidGenerator{}
	if err := ug.Init(11, []byte("la6YsO+bNX/+XIkOqc5Svw==")[:16]); err != nil {
		return nil
	}

	now := types.TimeNow()
	users := initUsers(ug, now)
	servers := initServers(ug, now, users)
	channels := initChannels(ug, now, servers)
	return &TestData{
		UGen:        ug,
		Users:       users,
		Servers:     servers,
		Channels:    channels,
		Memberships: initMemberships(ug, now, users, servers, channels),
		Msgs:        initMessages(ug, now, users, channels),
		Now:         now,
	}
}
