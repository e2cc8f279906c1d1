package memory

import (
	"sync"
	"testing"

	"github.com/Divyanshu-Mishra9620/DiscordClone/server/db/common/test_data"
	"github.com/Divyanshu-Mishra9620/DiscordClone/server/db/common/testsuite"
	t "github.com/Divyanshu-Mishra9620/DiscordClone/server/store/types"
)

func openTestAdapter(tt *testing.T) *adapter {
	tt.Helper()
	adp := GetTestAdapter()
	if err := adp.Open(nil); err != nil {
		tt.Fatal(err)
	}
	if err := adp.CreateDb(true); err != nil {
		tt.Fatal(err)
	}
	return adp
}

func TestSharedSuite(tt *testing.T) {
	adp := openTestAdapter(tt)
	defer adp.Close()

	td := test_data.InitTestData()
	if td == nil {
		tt.Fatal("Failed to initialize test data")
	}

	testsuite.RunCreate(tt, adp, td)
	testsuite.RunUserGetAll(tt, adp, td)
	testsuite.RunServerGet(tt, adp, td)
	testsuite.RunChannelGet(tt, adp, td)
	testsuite.RunChannelIndexIdempotent(tt, adp, td)
	testsuite.RunMessageGet(tt, adp, td)
	testsuite.RunMessageGetAll(tt, adp, td)
	testsuite.RunMessageUpdate(tt, adp, td)
	testsuite.RunMessageReplaceReactions(tt, adp, td)
	testsuite.RunMessageDelete(tt, adp, td)
}

func TestOpenTwice(tt *testing.T) {
	adp := openTestAdapter(tt)
	defer adp.Close()

	if err := adp.Open(nil); err == nil {
		tt.Error("second Open must fail")
	}
	if err := adp.CheckDbVersion(); err != nil {
		tt.Error(err)
	}
	if adp.GetName() != "memory" || adp.Version() != adpVersion {
		tt.Errorf("unexpected adapter %s v%d", adp.GetName(), adp.Version())
	}
}

// Edits stamped within one millisecond still advance the modification time.
func TestMessageUpdateMonotonic(tt *testing.T) {
	adp := openTestAdapter(tt)
	defer adp.Close()

	msg := &t.Message{Channel: "chan", From: "alice", Content: "hi"}
	msg.SetUid(t.Uid(1002))
	msg.InitTimes()
	if err := adp.MessageSave(msg); err != nil {
		tt.Fatal(err)
	}

	prev := msg.UpdatedAt
	for i := 0; i < 50; i++ {
		got, err := adp.MessageUpdate(msg.Uid(), "edit", msg.CreatedAt)
		if err != nil {
			tt.Fatal(err)
		}
		if !got.UpdatedAt.After(prev) {
			tt.Fatalf("edit %d: modification time %v not after %v", i, got.UpdatedAt, prev)
		}
		prev = got.UpdatedAt
	}
}

// Concurrent compare-and-swap writers: exactly one wins for each version.
func TestReplaceReactionsConcurrent(tt *testing.T) {
	adp := openTestAdapter(tt)
	defer adp.Close()

	msg := &t.Message{Channel: "chan", From: "alice", Content: "hi"}
	msg.SetUid(t.Uid(1001))
	msg.InitTimes()
	if err := adp.MessageSave(msg); err != nil {
		tt.Fatal(err)
	}

	const writers = 16
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := adp.MessageReplaceReactions(msg.Uid(), 0,
				t.ReactionLedger{{Symbol: ":+1:", Users: []string{string(rune('a' + i))}}})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		switch err {
		case nil:
			ok++
		case t.ErrConflict:
			conflicts++
		default:
			tt.Error("unexpected error", err)
		}
	}
	if ok != 1 || conflicts != writers-1 {
		tt.Errorf("expected 1 winner and %d conflicts, got %d and %d", writers-1, ok, conflicts)
	}
}
