package comment

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInMemoryRepository(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	// Created out of order; listing must sort by creation time.
	comments := []*Comment{
		{ID: "c-2", EventID: "evt-1", Text: "second", CreatedAt: base.Add(time.Minute)},
		{ID: "c-1", EventID: "evt-1", Text: "first", CreatedAt: base},
		{ID: "c-3", EventID: "evt-2", Text: "elsewhere", CreatedAt: base},
	}
	for _, c := range comments {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("Create(%s): %v", c.ID, err)
		}
	}
	if err := repo.Create(ctx, comments[0]); !errors.Is(err, ErrCommentExists) {
		t.Errorf("duplicate Create() error = %v, want ErrCommentExists", err)
	}

	got, err := repo.ListByEvent(ctx, "evt-1")
	if err != nil {
		t.Fatalf("ListByEvent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Text != "first" || got[1].Text != "second" {
		t.Errorf("comments not ordered by creation time: %q, %q", got[0].Text, got[1].Text)
	}

	empty, err := repo.ListByEvent(ctx, "evt-none")
	if err != nil {
		t.Fatalf("ListByEvent() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("unknown event should list empty, got %d", len(empty))
	}
}
