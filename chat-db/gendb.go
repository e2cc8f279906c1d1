package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
)

/*
User object in data.json

	"username": "alice",
	"avatar": "https://example.com/alice-64.jpg"
*/
type User struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

/*
Server object in data.json

	"name": "Gardening",
	"owner": "alice"
*/
type Server struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

/*
Channel object in data.json

	"name": "flowers",
	"server": "Gardening"
*/
type Channel struct {
	Name   string `json:"name"`
	Server string `json:"server"`
}

/*
Membership object in data.json. Either a server or a channel scope.

	"user": "bob",
	"server": "Gardening",
	"caps": ["send_messages"]
*/
type Membership struct {
	User    string   `json:"user"`
	Server  string   `json:"server"`
	Channel string   `json:"channel"`
	Caps    []string `json:"caps"`
}

/*
Message object in data.json

	"createdAt": "-2h",
	"channel": "flowers",
	"from": "alice",
	"content": "hi"
*/
type Message struct {
	CreatedAt string `json:"createdAt"`
	Channel   string `json:"channel"`
	From      string `json:"from"`
	Content   string `json:"content"`
}

// Data is the content of data.json.
type Data struct {
	Users       []User       `json:"users"`
	Servers     []Server     `json:"servers"`
	Channels    []Channel    `json:"channels"`
	Memberships []Membership `json:"memberships"`
	Messages    []Message    `json:"messages"`
}

// Ids assigned to the seed records, by name.
type seedIds struct {
	users    map[string]types.Uid
	servers  map[string]types.Uid
	channels map[string]types.Uid
}

func loadData(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data Data
	if err = json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Parse time offset relative to now, e.g. "-140h". Empty string is now.
func getCreatedTime(delta string) (time.Time, error) {
	now := types.TimeNow()
	if delta == "" {
		return now, nil
	}
	dd, err := time.ParseDuration(delta)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(dd), nil
}

func genDb(data *Data) (*seedIds, error) {
	ids := &seedIds{
		users:    make(map[string]types.Uid),
		servers:  make(map[string]types.Uid),
		channels: make(map[string]types.Uid),
	}

	for _, uu := range data.Users {
		if uu.Username == "" {
			return nil, errors.New("user without username")
		}
		user, err := store.Users.Create(&types.User{Username: uu.Username, Avatar: uu.Avatar})
		if err != nil {
			return nil, fmt.Errorf("user '%s': %w", uu.Username, err)
		}
		ids.users[uu.Username] = user.Uid()
	}

	for _, ss := range data.Servers {
		owner, ok := ids.users[ss.Owner]
		if !ok {
			return nil, fmt.Errorf("server '%s': unknown owner '%s'", ss.Name, ss.Owner)
		}
		srv, err := store.Servers.Create(&types.Server{Name: ss.Name, Owner: owner.String()})
		if err != nil {
			return nil, fmt.Errorf("server '%s': %w", ss.Name, err)
		}
		ids.servers[ss.Name] = srv.Uid()
	}

	for _, cc := range data.Channels {
		ch := &types.Channel{Name: cc.Name}
		if cc.Server != "" {
			srv, ok := ids.servers[cc.Server]
			if !ok {
				return nil, fmt.Errorf("channel '%s': unknown server '%s'", cc.Name, cc.Server)
			}
			ch.Server = srv.String()
		}
		ch, err := store.Channels.Create(ch)
		if err != nil {
			return nil, fmt.Errorf("channel '%s': %w", cc.Name, err)
		}
		ids.channels[cc.Name] = ch.Uid()
	}

	for _, mm := range data.Memberships {
		user, ok := ids.users[mm.User]
		if !ok {
			return nil, fmt.Errorf("membership: unknown user '%s'", mm.User)
		}
		var scope types.Uid
		if mm.Channel != "" {
			scope, ok = ids.channels[mm.Channel]
		} else {
			scope, ok = ids.servers[mm.Server]
		}
		if !ok {
			return nil, fmt.Errorf("membership of '%s': unknown scope", mm.User)
		}
		caps := make([]types.Capability, 0, len(mm.Caps))
		for _, c := range mm.Caps {
			caps = append(caps, types.Capability(c))
		}
		if err := store.Servers.Grant(user, scope, caps); err != nil {
			return nil, fmt.Errorf("membership of '%s': %w", mm.User, err)
		}
	}

	for _, mm := range data.Messages {
		channel, ok := ids.channels[mm.Channel]
		if !ok {
			return nil, fmt.Errorf("message: unknown channel '%s'", mm.Channel)
		}
		from, ok := ids.users[mm.From]
		if !ok {
			return nil, fmt.Errorf("message: unknown sender '%s'", mm.From)
		}
		createdAt, err := getCreatedTime(mm.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("message: invalid createdAt: %w", err)
		}

		msg := &types.Message{
			ObjHeader: types.ObjHeader{CreatedAt: createdAt},
			Channel:   channel.String(),
			From:      from.String(),
			Content:   mm.Content,
		}
		if err = store.Messages.Save(msg); err != nil {
			return nil, fmt.Errorf("message in '%s': %w", mm.Channel, err)
		}
		if err = store.Channels.OnMessageCreated(channel, msg.Uid(), from); err != nil {
			return nil, fmt.Errorf("message in '%s': %w", mm.Channel, err)
		}
	}

	return ids, nil
}
