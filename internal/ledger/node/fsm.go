// Package node implementa el nodo de ledger replicado: una FSM raft cuyo
// estado es la misma hash chain que el ledger in-process, con log y
// snapshots en disco. Con un solo nodo funciona como append log local
// durable; con peers, como cluster replicado.
package node

import (
	"encoding/json"
	"io"
	"time"

	"github.com/dropDatabas3/vetclinic/internal/ledger"
	"github.com/hashicorp/raft"
)

// Command es la mutación que viaja por el log raft. El timestamp se fija
// en el leader antes del Apply para que todas las réplicas construyan
// bloques idénticos.
type Command struct {
	Op     ledger.Op `json:"op"`
	ID     int64     `json:"id"`
	Digest string    `json:"digest,omitempty"`
	TS     time.Time `json:"ts"`
}

// applyResult es la respuesta local del Apply (solo la lee el leader).
type applyResult struct {
	Tx  string
	Err error
}

// FSM aplica Commands sobre una hash chain en memoria. raft garantiza
// que Apply se invoca en orden y de a uno, así el encadenado de bloques
// es determinístico en todas las réplicas.
type FSM struct {
	state *ledger.Memory
}

func NewFSM(owner string) *FSM {
	return &FSM{state: ledger.NewMemory(owner)}
}

// Apply implementa raft.FSM.
func (f *FSM) Apply(l *raft.Log) interface{} {
	if l == nil || len(l.Data) == 0 {
		return applyResult{}
	}
	var cmd Command
	if err := json.Unmarshal(l.Data, &cmd); err != nil {
		return applyResult{Err: err}
	}
	tx, err := f.state.Apply(cmd.Op, cmd.ID, cmd.Digest, cmd.TS)
	return applyResult{Tx: tx, Err: err}
}

// Snapshot implementa raft.FSM: serializa la cadena completa.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	raw, err := f.state.MarshalState()
	if err != nil {
		return nil, err
	}
	return &chainSnapshot{raw: raw}, nil
}

// Restore implementa raft.FSM: reemplaza el estado por el del snapshot.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return f.state.RestoreState(raw)
}

type chainSnapshot struct {
	raw []byte
}

func (s *chainSnapshot) Persist(sink raft.SnapshotSink) error {
	if _, err := sink.Write(s.raw); err != nil {
		_ = sink.Cancel()
		return err
	}
	return sink.Close()
}

func (s *chainSnapshot) Release() {}
