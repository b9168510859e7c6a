package memory

import (
	"context"
	"errors"
	"testing"

	ports "giftbook/internal/sheets"
)

func TestMemoryStoreAppendChange(t *testing.T) {
	s := New()
	for i, name := range []string{"张三", "李四"} {
		ref, err := s.AppendChange(context.Background(), ports.ChangeRow{RecordID: int64(i + 1), GuestName: name})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if want := "mem:" + string(rune('1'+i)); ref != want {
			t.Fatalf("ref = %q, want %q", ref, want)
		}
	}
	changes := s.Changes()
	if len(changes) != 2 || changes[1].GuestName != "李四" {
		t.Fatalf("unexpected changes: %+v", changes)
	}
}

func TestMemoryStoreReplaceLedgerCopies(t *testing.T) {
	s := New()
	rows := [][]string{{"1", "张三"}}
	if err := s.ReplaceLedger(context.Background(), []string{"序号", "姓名"}, rows); err != nil {
		t.Fatal(err)
	}
	rows[0][1] = "changed"

	header, got := s.Ledger()
	if len(header) != 2 || header[1] != "姓名" {
		t.Fatalf("unexpected header %v", header)
	}
	if len(got) != 1 || got[0][1] != "张三" {
		t.Fatalf("ledger not copied: %v", got)
	}

	if err := s.ReplaceLedger(context.Background(), []string{"序号"}, nil); err != nil {
		t.Fatal(err)
	}
	if _, got = s.Ledger(); len(got) != 0 {
		t.Fatalf("expected ledger to be replaced, got %v", got)
	}
}

func TestMemoryStoreFailWith(t *testing.T) {
	s := New()
	boom := errors.New("quota exceeded")
	s.FailWith(boom)

	if _, err := s.AppendChange(context.Background(), ports.ChangeRow{RecordID: 1}); !errors.Is(err, boom) {
		t.Fatalf("AppendChange err = %v", err)
	}
	if err := s.ReplaceLedger(context.Background(), nil, nil); !errors.Is(err, boom) {
		t.Fatalf("ReplaceLedger err = %v", err)
	}

	s.FailWith(nil)
	if _, err := s.AppendChange(context.Background(), ports.ChangeRow{RecordID: 1}); err != nil {
		t.Fatalf("unexpected err after clearing failure: %v", err)
	}
	if len(s.Changes()) != 1 {
		t.Fatal("expected one change after recovery")
	}
}
