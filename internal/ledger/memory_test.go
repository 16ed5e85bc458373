package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMemory_Lifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("svc")

	tx, err := m.Add(ctx, 1, "digest-a")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !strings.HasPrefix(tx, "0x") {
		t.Fatalf("tx ref %q should start with 0x", tx)
	}

	if _, err := m.Add(ctx, 1, "digest-a"); !errors.Is(err, ErrExists) {
		t.Fatalf("second Add: want ErrExists, got %v", err)
	}

	if _, err := m.Update(ctx, 1, "digest-b"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	e, err := m.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Digest != "digest-b" || e.Deleted {
		t.Fatalf("entry = %+v", e)
	}
	if e.Owner != "svc" {
		t.Fatalf("owner = %q", e.Owner)
	}

	if _, err := m.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	e, err = m.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if !e.Deleted {
		t.Fatal("entry should be tombstoned, not gone")
	}
	// La historia queda: update y delete sobre tombstone fallan explícito.
	if _, err := m.Update(ctx, 1, "x"); !errors.Is(err, ErrDeleted) {
		t.Fatalf("Update tombstone: want ErrDeleted, got %v", err)
	}
	if _, err := m.Delete(ctx, 1); !errors.Is(err, ErrDeleted) {
		t.Fatalf("Delete tombstone: want ErrDeleted, got %v", err)
	}

	if _, err := m.Update(ctx, 99, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update missing: want ErrNotFound, got %v", err)
	}
	if _, err := m.Get(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing: want ErrNotFound, got %v", err)
	}
}

func TestMemory_ListByOwner(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("svc")
	for id := int64(1); id <= 3; id++ {
		if _, err := m.Add(ctx, id, "d"); err != nil {
			t.Fatal(err)
		}
	}
	// re-add tras delete no duplica el id en el índice
	if _, err := m.Delete(ctx, 2); err != nil {
		t.Fatal(err)
	}

	ids, err := m.ListByOwner(ctx, "svc")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 {
		t.Fatalf("ids = %v, want 3 entries", ids)
	}
	other, err := m.ListByOwner(ctx, "nadie")
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Fatalf("unknown owner should have no ids, got %v", other)
	}
}

func TestMemory_VerifyChain(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("svc")
	if got := m.VerifyChain(); got != -1 {
		t.Fatalf("empty chain: got %d", got)
	}
	_, _ = m.Add(ctx, 1, "a")
	_, _ = m.Update(ctx, 1, "b")
	_, _ = m.Add(ctx, 2, "c")
	_, _ = m.Delete(ctx, 1)
	if got := m.VerifyChain(); got != -1 {
		t.Fatalf("intact chain: got %d, want -1", got)
	}

	// Alterar un bloque intermedio rompe la verificación en ese índice.
	m.chain[1].Digest = "tampered"
	if got := m.VerifyChain(); got != 1 {
		t.Fatalf("tampered chain: got %d, want 1", got)
	}
}

func TestMemory_ApplyIsDeterministic(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := NewMemory("svc")
	b := NewMemory("svc")
	ops := []struct {
		op     Op
		id     int64
		digest string
	}{
		{OpAdd, 1, "d1"},
		{OpAdd, 2, "d2"},
		{OpUpdate, 1, "d1b"},
		{OpDelete, 2, ""},
	}
	for i, o := range ops {
		t1 := ts.Add(time.Duration(i) * time.Second)
		txA, errA := a.Apply(o.op, o.id, o.digest, t1)
		txB, errB := b.Apply(o.op, o.id, o.digest, t1)
		if errA != nil || errB != nil {
			t.Fatalf("apply %d: %v / %v", i, errA, errB)
		}
		if txA != txB {
			t.Fatalf("op %d: tx refs diverge: %s vs %s", i, txA, txB)
		}
	}
}

func TestMemory_StateRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("svc")
	_, _ = m.Add(ctx, 1, "a")
	_, _ = m.Update(ctx, 1, "b")
	_, _ = m.Add(ctx, 2, "c")
	_, _ = m.Delete(ctx, 2)

	raw, err := m.MarshalState()
	if err != nil {
		t.Fatalf("MarshalState: %v", err)
	}

	restored := NewMemory("otro")
	if err := restored.RestoreState(raw); err != nil {
		t.Fatalf("RestoreState: %v", err)
	}
	if got := restored.VerifyChain(); got != -1 {
		t.Fatalf("restored chain broken at %d", got)
	}

	e1, err := restored.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if e1.Digest != "b" || e1.Deleted {
		t.Fatalf("record 1 = %+v", e1)
	}
	e2, err := restored.Get(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !e2.Deleted {
		t.Fatal("record 2 should be tombstoned after restore")
	}
	// El owner viaja con el snapshot, no con la instancia destino.
	ids, _ := restored.ListByOwner(ctx, "svc")
	if len(ids) != 2 {
		t.Fatalf("owner index not rebuilt: %v", ids)
	}

	if err := restored.RestoreState([]byte("{garbage")); err == nil {
		t.Fatal("want error for bad snapshot payload")
	}
}
