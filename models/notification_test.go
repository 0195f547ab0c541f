package models

import (
	"errors"
	"testing"
)

func TestPublishAfterCommitPublishesWhenRereadFails(t *testing.T) {
	var published []any
	publish := func(payload any) { published = append(published, payload) }

	rereadErr := errors.New("connection reset")
	_, err := publishAfterCommit(func() (*Party, error) { return nil, rereadErr }, "fallback", publish)
	if !errors.Is(err, rereadErr) {
		t.Fatalf("expected re-read error, got %v", err)
	}
	if len(published) != 1 || published[0] != "fallback" {
		t.Fatalf("expected one event with the fallback payload, got %v", published)
	}

	party := &Party{ID: "p1"}
	got, err := publishAfterCommit(func() (*Party, error) { return party, nil }, "fallback", publish)
	if err != nil || got != party {
		t.Fatalf("unexpected result %v, %v", got, err)
	}
	if len(published) != 2 || published[1] != party {
		t.Fatalf("expected the re-read row as payload, got %v", published)
	}
}
