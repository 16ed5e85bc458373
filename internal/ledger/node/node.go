package node

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dropDatabas3/vetclinic/internal/metrics"
	"github.com/dropDatabas3/vetclinic/internal/observability/logger"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
)

// Node es un wrapper liviano alrededor de *raft.Raft que inicializa
// stores (BoltDB), snapshots y transporte TCP, y expone helpers de
// Apply/Leader/Shutdown.
type Node struct {
	r            *raft.Raft
	applyTimeout time.Duration
	id           raft.ServerID
	addr         raft.ServerAddress
	peers        map[string]string // nodeID -> raftAddr
}

type Options struct {
	NodeID string            // identidad de este nodo
	Addr   string            // host:port del transporte raft
	Dir    string            // directorio de datos (bolt + snapshots)
	FSM    raft.FSM          // máquina de estados del ledger
	Peers  map[string]string // conjunto estático de peers (nodeID->addr)
	// Bootstrap fuerza que este nodo haga el bootstrap inicial cuando no
	// hay estado previo. Con false y múltiples peers, lo hace el de menor
	// NodeID.
	Bootstrap bool
}

func New(opts Options) (*Node, error) {
	if opts.NodeID == "" || opts.Addr == "" || opts.Dir == "" || opts.FSM == nil {
		return nil, errors.New("node: invalid Options")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("node: mkdir dir: %w", err)
	}
	lg := logger.Named("ledger.node")

	// Log + stable en la misma Bolt DB.
	boltPath := filepath.Join(opts.Dir, "raft.db")
	boltStore, err := raftboltdb.NewBoltStore(boltPath)
	if err != nil {
		return nil, fmt.Errorf("node: bolt store: %w", err)
	}

	// Snapshots en disco (retenemos 2).
	snapStore, err := raft.NewFileSnapshotStore(opts.Dir, 2, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("node: snapshot store: %w", err)
	}

	trans, err := raft.NewTCPTransport(opts.Addr, nil, 3, 10*time.Second, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("node: tcp transport: %w", err)
	}

	cfg := raft.DefaultConfig()
	cfg.LocalID = raft.ServerID(opts.NodeID)

	r, err := raft.NewRaft(cfg, opts.FSM, boltStore, boltStore, snapStore, trans)
	if err != nil {
		return nil, fmt.Errorf("node: new raft: %w", err)
	}

	go func(ch <-chan bool) {
		for v := range ch {
			if v {
				metrics.RaftLeadershipChanges.Inc()
			}
		}
	}(r.LeaderCh())

	// Bootstrap solo si no hay estado previo.
	hasState, err := raft.HasExistingState(boltStore, boltStore, snapStore)
	if err != nil {
		return nil, fmt.Errorf("node: check state: %w", err)
	}
	if !hasState {
		if len(opts.Peers) <= 1 {
			conf := raft.Configuration{Servers: []raft.Server{{ID: cfg.LocalID, Address: trans.LocalAddr()}}}
			if err := r.BootstrapCluster(conf).Error(); err != nil {
				return nil, fmt.Errorf("node: bootstrap: %w", err)
			}
			lg.Info("bootstrapped single-node ledger",
				logger.String("node_id", opts.NodeID), logger.String("addr", opts.Addr))
		} else {
			smallest := opts.NodeID
			for k := range opts.Peers {
				if k < smallest {
					smallest = k
				}
			}
			if opts.Bootstrap || opts.NodeID == smallest {
				var servers []raft.Server
				for id, addr := range opts.Peers {
					servers = append(servers, raft.Server{ID: raft.ServerID(id), Address: raft.ServerAddress(addr)})
				}
				conf := raft.Configuration{Servers: servers}
				if err := r.BootstrapCluster(conf).Error(); err != nil {
					return nil, fmt.Errorf("node: bootstrap(static): %w", err)
				}
				lg.Info("bootstrapped static ledger cluster",
					logger.Int("peers", len(servers)), logger.String("node_id", opts.NodeID))
			} else {
				lg.Info("waiting to join ledger cluster",
					logger.String("node_id", opts.NodeID), logger.String("bootstrap_node", smallest))
			}
		}
	}

	// Tamaño del log en disco, muestreado.
	go func() {
		t := time.NewTicker(10 * time.Second)
		defer t.Stop()
		for range t.C {
			if st, err := os.Stat(boltPath); err == nil {
				metrics.RaftLogSizeBytes.Set(float64(st.Size()))
			}
		}
	}()

	return &Node{r: r, applyTimeout: 5 * time.Second, id: cfg.LocalID, addr: trans.LocalAddr(), peers: opts.Peers}, nil
}

// ApplyBytes envía bytes raw al log raft y espera commit o timeout,
// respetando la cancelación del ctx. Retorna la respuesta de la FSM.
func (n *Node) ApplyBytes(ctx context.Context, data []byte) (interface{}, error) {
	if n == nil || n.r == nil {
		return nil, errors.New("node: raft not initialized")
	}
	start := time.Now()
	fut := n.r.Apply(data, n.applyTimeout)

	done := make(chan struct{})
	var applyErr error
	var resp interface{}
	go func() {
		applyErr = fut.Error()
		if applyErr == nil {
			resp = fut.Response()
		}
		close(done)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
		metrics.RaftApplyLatency.Observe(float64(time.Since(start).Milliseconds()))
		return resp, applyErr
	}
}

func (n *Node) IsLeader() bool {
	if n == nil || n.r == nil {
		return false
	}
	return n.r.State() == raft.Leader
}

func (n *Node) LeaderID() string {
	if n == nil || n.r == nil {
		return ""
	}
	addr, id := n.r.LeaderWithID()
	if id != "" {
		return string(id)
	}
	return string(addr)
}

func (n *Node) NodeID() string {
	if n == nil {
		return ""
	}
	return string(n.id)
}

// Shutdown apaga el raft y espera a que termine.
func (n *Node) Shutdown() error {
	if n == nil || n.r == nil {
		return nil
	}
	return n.r.Shutdown().Error()
}
