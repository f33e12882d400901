package core

import (
	"errors"
	"testing"
)

func TestCheckpoint_CloneIsolation(t *testing.T) {
	cp := NewCheckpoint("tenant-a", "thread-1")
	cp.AppendMessages(NewUserMessage("hello"))

	clone := cp.Clone()
	if clone == cp {
		t.Fatal("Clone should be a different pointer")
	}

	clone.AppendMessages(NewAssistantMessage("hi"))
	if len(cp.Messages) != 1 {
		t.Errorf("original should not see clone's message, got %d messages", len(cp.Messages))
	}

	clone.Messages[0].Content = "changed"
	if cp.Messages[0].Content != "hello" {
		t.Error("message slice should be deep copied")
	}
}

func TestCheckpoint_NextBumpsVersion(t *testing.T) {
	cp := NewCheckpoint("tenant-a", "thread-1")
	if cp.Version != 0 {
		t.Fatalf("genesis version should be 0, got %d", cp.Version)
	}

	next := cp.Next()
	if next.Version != 1 {
		t.Errorf("expected version 1, got %d", next.Version)
	}
	if next.TenantID != "tenant-a" || next.ThreadID != "thread-1" {
		t.Errorf("successor lost identity: %+v", next)
	}
	if cp.Version != 0 {
		t.Error("Next should not mutate the receiver")
	}
}

func TestCheckpoint_SetPendingEnforcesSingleApproval(t *testing.T) {
	cp := NewCheckpoint("tenant-a", "thread-1")

	first := NewPendingApproval("booking", ActionRequest{Action: "create_event"}, "create an event")
	if err := cp.SetPending(&first); err != nil {
		t.Fatalf("first SetPending failed: %v", err)
	}
	if cp.State != StateSuspended {
		t.Errorf("expected suspended state, got %s", cp.State)
	}

	second := NewPendingApproval("booking", ActionRequest{Action: "create_event"}, "another event")
	err := cp.SetPending(&second)
	if !errors.Is(err, ErrApprovalOutstanding) {
		t.Fatalf("expected ErrApprovalOutstanding, got %v", err)
	}
	if cp.Pending.ID != first.ID {
		t.Error("outstanding approval must not be overwritten")
	}
}

func TestCheckpoint_ConsumePending(t *testing.T) {
	cp := NewCheckpoint("tenant-a", "thread-1")
	ap := NewPendingApproval("booking", ActionRequest{Action: "create_event"}, "")
	if err := cp.SetPending(&ap); err != nil {
		t.Fatal(err)
	}

	consumed := cp.ConsumePending()
	if consumed == nil || consumed.ID != ap.ID {
		t.Fatalf("expected consumed approval %s, got %+v", ap.ID, consumed)
	}
	if cp.Pending != nil {
		t.Error("pending should be cleared after consume")
	}
	if cp.ConsumePending() != nil {
		t.Error("second consume should return nil")
	}
}
