package product

import "testing"

func TestEnsureMatched(t *testing.T) {
	if err := ensureMatched(1, "p-1"); err != nil {
		t.Errorf("matched update reported an error: %v", err)
	}
	// An unmatched update must surface as a failure, otherwise the backfill
	// counts the product as processed and refetches it on the next round.
	if err := ensureMatched(0, "p-ghost"); err == nil {
		t.Error("unmatched update reported as success")
	}
}
