package events_test

import (
	"testing"

	"github.com/powledger/blockchain/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Events(t *testing.T) {
	t.Log("Given the need to fan events out to registered receivers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen two receivers are registered.", testID)
		{
			evts := events.New()

			ch1 := evts.Acquire("one")
			ch2 := evts.Acquire("two")

			if again := evts.Acquire("one"); again != ch1 {
				t.Fatalf("\t%s\tTest %d:\tShould return the same channel for the same id.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould return the same channel for the same id.", success, testID)

			evts.Send("ledger: tx: {}")

			for i, ch := range []chan string{ch1, ch2} {
				if msg := <-ch; msg != "ledger: tx: {}" {
					t.Fatalf("\t%s\tTest %d:\tShould deliver to receiver %d, got %q.", failed, testID, i, msg)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould deliver to every receiver.", success, testID)

			if err := evts.Release("one"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to release a receiver: %v", failed, testID, err)
			}
			if _, open := <-ch1; open {
				t.Fatalf("\t%s\tTest %d:\tShould close a released channel.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould close a released channel.", success, testID)

			if err := evts.Release("one"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not release an unknown id.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not release an unknown id.", success, testID)

			evts.Shutdown()

			if _, open := <-ch2; open {
				t.Fatalf("\t%s\tTest %d:\tShould close every channel on shutdown.", failed, testID)
			}
			if n := evts.Count(); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have no receivers after shutdown, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould close every channel on shutdown.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen a receiver is not reading.", testID)
		{
			evts := events.New()
			ch := evts.Acquire("slow")

			for range 500 {
				evts.Send("ledger: block: {}")
			}

			if n := len(ch); n != cap(ch) {
				t.Fatalf("\t%s\tTest %d:\tShould fill the buffer and drop the rest, got %d of %d.", failed, testID, n, cap(ch))
			}
			t.Logf("\t%s\tTest %d:\tShould drop messages without blocking.", success, testID)
		}
	}
}
