package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

// RunContractTests runs the Store contract suite against an implementation.
// factory must return an initialized, empty store.
func RunContractTests(t *testing.T, factory func() Store) {
	t.Run("EmptyRead", func(t *testing.T) { testEmptyRead(t, factory()) })
	t.Run("WriteRead", func(t *testing.T) { testWriteRead(t, factory()) })
	t.Run("WriteReplaces", func(t *testing.T) { testWriteReplaces(t, factory()) })
	t.Run("Modify", func(t *testing.T) { testModify(t, factory()) })
	t.Run("ModifyError", func(t *testing.T) { testModifyError(t, factory()) })
	t.Run("ReadIsCopy", func(t *testing.T) { testReadIsCopy(t, factory()) })
}

func mustRecords(t *testing.T, raw ...string) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, len(raw))
	for i, r := range raw {
		if !json.Valid([]byte(r)) {
			t.Fatalf("invalid fixture %q", r)
		}
		out[i] = json.RawMessage(r)
	}
	return out
}

func ids(t *testing.T, records []json.RawMessage) []string {
	t.Helper()
	var out []string
	for _, r := range records {
		var v struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(r, &v); err != nil {
			t.Fatalf("decoding record %s: %v", r, err)
		}
		out = append(out, v.ID)
	}
	return out
}

func testEmptyRead(t *testing.T, s Store) {
	records, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Read on empty store returned %d records", len(records))
	}
}

func testWriteRead(t *testing.T, s Store) {
	ctx := context.Background()
	if err := s.Write(ctx, mustRecords(t, `{"id":"a"}`, `{"id":"b"}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	records, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got := ids(t, records)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Read ids = %v, want [a b]", got)
	}
}

func testWriteReplaces(t *testing.T, s Store) {
	ctx := context.Background()
	if err := s.Write(ctx, mustRecords(t, `{"id":"a"}`, `{"id":"b"}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write(ctx, mustRecords(t, `{"id":"c"}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	records, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := ids(t, records); len(got) != 1 || got[0] != "c" {
		t.Errorf("Read ids = %v, want [c]", got)
	}
}

func testModify(t *testing.T, s Store) {
	ctx := context.Background()
	if err := s.Write(ctx, mustRecords(t, `{"id":"a"}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	err := s.Modify(ctx, func(records []json.RawMessage) ([]json.RawMessage, error) {
		return append(records, json.RawMessage(`{"id":"b"}`)), nil
	})
	if err != nil {
		t.Fatalf("Modify: %v", err)
	}
	records, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := ids(t, records); len(got) != 2 || got[1] != "b" {
		t.Errorf("Read ids = %v, want [a b]", got)
	}
}

func testModifyError(t *testing.T, s Store) {
	ctx := context.Background()
	if err := s.Write(ctx, mustRecords(t, `{"id":"a"}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	boom := errors.New("boom")
	err := s.Modify(ctx, func(records []json.RawMessage) ([]json.RawMessage, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Modify error = %v, want boom", err)
	}
	records, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := ids(t, records); len(got) != 1 || got[0] != "a" {
		t.Errorf("store changed after failed Modify: %v", got)
	}
}

func testReadIsCopy(t *testing.T, s Store) {
	ctx := context.Background()
	if err := s.Write(ctx, mustRecords(t, `{"id":"a"}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	records, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	records[0] = json.RawMessage(`{"id":"z"}`)

	again, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := ids(t, again); got[0] != "a" {
		t.Errorf("mutating a Read result leaked into the store: %v", got)
	}
}
