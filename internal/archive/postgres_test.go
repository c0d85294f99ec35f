package archive

import (
	"strings"
	"testing"
)

func TestRecentQueryLimitSemantics(t *testing.T) {
	query, args := recentQuery("m-1", 5)
	if !strings.Contains(query, "LIMIT $2") {
		t.Fatalf("positive limit should cap the query: %q", query)
	}
	if len(args) != 2 || args[1] != 5 {
		t.Fatalf("args = %v, want meeting id and limit", args)
	}

	// limit <= 0 means every record, same as the in-memory store.
	query, args = recentQuery("m-1", 0)
	if strings.Contains(query, "LIMIT") {
		t.Fatalf("zero limit must not cap the query: %q", query)
	}
	if len(args) != 1 || args[0] != "m-1" {
		t.Fatalf("args = %v, want only the meeting id", args)
	}
}
