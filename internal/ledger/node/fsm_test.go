package node

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/hashicorp/raft"

	"github.com/dropDatabas3/vetclinic/internal/ledger"
)

func applyCmd(t *testing.T, f *FSM, cmd Command) applyResult {
	t.Helper()
	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatal(err)
	}
	res, ok := f.Apply(&raft.Log{Data: data}).(applyResult)
	if !ok {
		t.Fatal("Apply did not return applyResult")
	}
	return res
}

func TestFSM_ApplyCommands(t *testing.T) {
	f := NewFSM("svc")
	ts := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

	res := applyCmd(t, f, Command{Op: ledger.OpAdd, ID: 1, Digest: "d1", TS: ts})
	if res.Err != nil {
		t.Fatalf("add: %v", res.Err)
	}
	if res.Tx == "" {
		t.Fatal("add: empty tx ref")
	}

	res = applyCmd(t, f, Command{Op: ledger.OpAdd, ID: 1, Digest: "d1", TS: ts})
	if !errors.Is(res.Err, ledger.ErrExists) {
		t.Fatalf("duplicate add: want ErrExists, got %v", res.Err)
	}

	res = applyCmd(t, f, Command{Op: ledger.OpUpdate, ID: 1, Digest: "d2", TS: ts.Add(time.Second)})
	if res.Err != nil {
		t.Fatalf("update: %v", res.Err)
	}

	res = applyCmd(t, f, Command{Op: ledger.OpDelete, ID: 1, TS: ts.Add(2 * time.Second)})
	if res.Err != nil {
		t.Fatalf("delete: %v", res.Err)
	}
}

func TestFSM_ApplyBadPayload(t *testing.T) {
	f := NewFSM("svc")
	res, ok := f.Apply(&raft.Log{Data: []byte("{nope")}).(applyResult)
	if !ok || res.Err == nil {
		t.Fatal("want decode error for bad payload")
	}
	// Entradas vacías (barrier, etc.) no mutan estado ni fallan.
	res, ok = f.Apply(&raft.Log{}).(applyResult)
	if !ok || res.Err != nil {
		t.Fatalf("empty log entry: %v", res.Err)
	}
}

type memSink struct {
	bytes.Buffer
	cancelled bool
}

func (s *memSink) ID() string    { return "test" }
func (s *memSink) Cancel() error { s.cancelled = true; return nil }
func (s *memSink) Close() error  { return nil }

func TestFSM_SnapshotRestore(t *testing.T) {
	f := NewFSM("svc")
	ts := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	applyCmd(t, f, Command{Op: ledger.OpAdd, ID: 1, Digest: "d1", TS: ts})
	applyCmd(t, f, Command{Op: ledger.OpAdd, ID: 2, Digest: "d2", TS: ts.Add(time.Second)})
	applyCmd(t, f, Command{Op: ledger.OpDelete, ID: 2, TS: ts.Add(2 * time.Second)})

	snap, err := f.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	var sink memSink
	if err := snap.Persist(&sink); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	snap.Release()

	// Restaurar en una FSM nueva reproduce el mismo estado.
	g := NewFSM("otro")
	if err := g.Restore(io.NopCloser(bytes.NewReader(sink.Bytes()))); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	// Tras el restore la réplica sigue aplicando sobre la misma cadena.
	res := applyCmd(t, g, Command{Op: ledger.OpUpdate, ID: 1, Digest: "d1b", TS: ts.Add(3 * time.Second)})
	if res.Err != nil {
		t.Fatalf("apply after restore: %v", res.Err)
	}
	res = applyCmd(t, g, Command{Op: ledger.OpUpdate, ID: 2, Digest: "x", TS: ts.Add(4 * time.Second)})
	if !errors.Is(res.Err, ledger.ErrDeleted) {
		t.Fatalf("tombstone must survive restore, got %v", res.Err)
	}
}
