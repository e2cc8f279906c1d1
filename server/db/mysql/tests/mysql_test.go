// Tests require a running database server configured in ./test.conf, for example:
//
//	{
//		"reset_db_data": true,
//		"adapters": {
//			"mysql": {"dsn": "root:@tcp(localhost:3306)/", "database": "discord_test"}
//		}
//	}
//
// Tests are skipped if the config file is missing.
package tests

import (
	"encoding/json"
	"flag"
	"os"
	"testing"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/db/common/test_data"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/db/common/testsuite"
	backend "github.com/Divyanshu-Mishra9620/DiscordClone/server/db/mysql"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/logs"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
	jcr "github.com/tinode/jsonco"
)

type configType struct {
	// If Reset=true test will recreate database every time it runs
	Reset bool `json:"reset_db_data"`
	// Configurations for individual adapters.
	Adapters map[string]json.RawMessage `json:"adapters"`
}

var conffile = flag.String("config", "./test.conf", "config of the database connection")

func TestAdapter(t *testing.T) {
	file, err := os.Open(*conffile)
	if err != nil {
		t.Skip("No database config:", err)
	}
	defer file.Close()

	var config configType
	if err = json.NewDecoder(jcr.New(file)).Decode(&config); err != nil {
		t.Fatal("Failed to parse config file:", err)
	}

	td := test_data.InitTestData()
	if td == nil {
		t.Fatal("Failed to initialize test data")
	}
	// Ids are stored as BIGINT: the adapter must decode them with the same generator.
	store.SetTestUidGenerator(*td.UGen)

	adp := backend.GetTestAdapter()
	if err = adp.Open(config.Adapters[adp.GetName()]); err != nil {
		t.Fatal(err)
	}
	defer adp.Close()

	if err = adp.CreateDb(config.Reset); err != nil {
		t.Fatal(err)
	}
	if err = adp.CheckDbVersion(); err != nil {
		t.Fatal(err)
	}

	testsuite.RunCreate(t, adp, td)
	testsuite.RunUserGetAll(t, adp, td)
	testsuite.RunServerGet(t, adp, td)
	testsuite.RunChannelGet(t, adp, td)
	testsuite.RunChannelIndexIdempotent(t, adp, td)
	testsuite.RunMessageGet(t, adp, td)
	testsuite.RunMessageGetAll(t, adp, td)
	testsuite.RunMessageUpdate(t, adp, td)
	testsuite.RunMessageReplaceReactions(t, adp, td)
	testsuite.RunMessageDelete(t, adp, td)

	// Repeated index append of the same message is a no-op.
	ch := td.Channels[0]
	if err = adp.ChannelAddMessage(ch.Uid(), td.Msgs[0].Uid(), td.Users[0].Uid()); err != nil {
		t.Fatal(err)
	}
	got, err := adp.ChannelGet(ch.Uid())
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != 5 {
		t.Errorf("repeated append: expected 5 message ids, got %v", got.Messages)
	}
	if err = adp.ChannelAddMessage(types.Uid(12345), td.Msgs[0].Uid(), td.Users[0].Uid()); err != types.ErrNotFound {
		t.Error("append to missing channel: expected ErrNotFound, got", err)
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	logs.Init(os.Stderr, "stdFlags")
	os.Exit(m.Run())
}
