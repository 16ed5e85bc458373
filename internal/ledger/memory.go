package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// block es un eslabón de la cadena local: cada transacción encadena el hash
// de la anterior, así cualquier alteración retroactiva rompe la cadena.
type block struct {
	Index    uint64    `json:"index"`
	PrevHash string    `json:"prev_hash"`
	Op       Op        `json:"op"`
	RecordID int64     `json:"record_id"`
	Digest   string    `json:"digest"`
	Owner    string    `json:"owner"`
	TS       time.Time `json:"ts"`
	Hash     string    `json:"hash"`
}

func (b *block) seal() {
	payload := fmt.Sprintf("%d|%s|%s|%d|%s|%s|%d",
		b.Index, b.PrevHash, b.Op, b.RecordID, b.Digest, b.Owner, b.TS.UnixNano())
	sum := sha256.Sum256([]byte(payload))
	b.Hash = hex.EncodeToString(sum[:])
}

// Memory es un ledger in-process: una hash chain append-only con un índice
// por record id. Sirve para dev y tests, y como estado de la FSM del nodo
// raft (ahí el estado sí sobrevive vía log + snapshots).
//
// Todas las escrituras pasan por un único mutex: un solo writer, sin
// colisiones de número de secuencia entre requests concurrentes.
type Memory struct {
	owner string

	mu      sync.Mutex
	chain   []block
	entries map[int64]*Entry
	byOwner map[string][]int64
}

// NewMemory crea el ledger vacío. owner es la cuenta de servicio bajo la
// cual se registran las transacciones de este proceso.
func NewMemory(owner string) *Memory {
	return &Memory{
		owner:   owner,
		entries: make(map[int64]*Entry),
		byOwner: make(map[string][]int64),
	}
}

// applyOp valida y aplica una transacción con timestamp explícito.
// Caller sostiene m.mu. El timestamp viene del caller para que el replay
// desde un log replicado produzca exactamente la misma cadena.
func (m *Memory) applyOp(op Op, id int64, digest string, ts time.Time) (string, error) {
	e, ok := m.entries[id]
	switch op {
	case OpAdd:
		if ok && !e.Deleted {
			return "", ErrExists
		}
	case OpUpdate, OpDelete:
		if !ok {
			return "", ErrNotFound
		}
		if e.Deleted {
			return "", ErrDeleted
		}
	default:
		return "", fmt.Errorf("ledger: unknown op %q", op)
	}

	b := block{
		Index:    uint64(len(m.chain)),
		Op:       op,
		RecordID: id,
		Digest:   digest,
		Owner:    m.owner,
		TS:       ts,
	}
	if n := len(m.chain); n > 0 {
		b.PrevHash = m.chain[n-1].Hash
	}
	b.seal()
	m.chain = append(m.chain, b)

	switch op {
	case OpAdd:
		m.entries[id] = &Entry{ID: id, Digest: digest, Timestamp: ts, Owner: m.owner}
		m.byOwner[m.owner] = appendUnique(m.byOwner[m.owner], id)
	case OpUpdate:
		e.Digest = digest
		e.Timestamp = ts
		e.Deleted = false
	case OpDelete:
		e.Deleted = true
		e.Timestamp = ts
	}
	return "0x" + b.Hash, nil
}

// Apply aplica una transacción con timestamp explícito. Es el punto de
// entrada del replay replicado; el uso directo normal va por Add/Update/
// Delete, que estampan time.Now.
func (m *Memory) Apply(op Op, id int64, digest string, ts time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyOp(op, id, digest, ts)
}

// Add implementa Client.
func (m *Memory) Add(ctx context.Context, id int64, digest string) (string, error) {
	return m.Apply(OpAdd, id, digest, time.Now().UTC())
}

// Update implementa Client.
func (m *Memory) Update(ctx context.Context, id int64, digest string) (string, error) {
	return m.Apply(OpUpdate, id, digest, time.Now().UTC())
}

// Delete implementa Client.
func (m *Memory) Delete(ctx context.Context, id int64) (string, error) {
	return m.Apply(OpDelete, id, "", time.Now().UTC())
}

// Get implementa Client.
func (m *Memory) Get(ctx context.Context, id int64) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// ListByOwner implementa Client.
func (m *Memory) ListByOwner(ctx context.Context, owner string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.byOwner[owner]
	out := make([]int64, len(ids))
	copy(out, ids)
	return out, nil
}

// VerifyChain recorre la cadena completa y verifica el encadenado de hashes.
// Retorna el índice del primer bloque inválido, o -1 si la cadena es íntegra.
func (m *Memory) VerifyChain() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := ""
	for i := range m.chain {
		b := m.chain[i]
		if b.PrevHash != prev {
			return i
		}
		want := b.Hash
		b.seal()
		if b.Hash != want {
			return i
		}
		prev = want
	}
	return -1
}

// memoryState es la forma serializada para snapshots del nodo raft.
type memoryState struct {
	Owner string  `json:"owner"`
	Chain []block `json:"chain"`
}

// MarshalState serializa la cadena completa (para snapshots).
func (m *Memory) MarshalState() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return json.Marshal(memoryState{Owner: m.owner, Chain: m.chain})
}

// RestoreState reemplaza el estado por el de un snapshot previo y
// reconstruye el índice de entries desde la cadena.
func (m *Memory) RestoreState(raw []byte) error {
	var st memoryState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("ledger: restore: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.owner = st.Owner
	m.chain = st.Chain
	m.entries = make(map[int64]*Entry, len(st.Chain))
	m.byOwner = make(map[string][]int64)
	for i := range st.Chain {
		b := &st.Chain[i]
		switch b.Op {
		case OpAdd:
			m.entries[b.RecordID] = &Entry{ID: b.RecordID, Digest: b.Digest, Timestamp: b.TS, Owner: b.Owner}
			m.byOwner[b.Owner] = appendUnique(m.byOwner[b.Owner], b.RecordID)
		case OpUpdate:
			if e, ok := m.entries[b.RecordID]; ok {
				e.Digest = b.Digest
				e.Timestamp = b.TS
				e.Deleted = false
			}
		case OpDelete:
			if e, ok := m.entries[b.RecordID]; ok {
				e.Deleted = true
				e.Timestamp = b.TS
			}
		}
	}
	return nil
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
