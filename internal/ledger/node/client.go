package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/vetclinic/internal/ledger"
	"github.com/hashicorp/raft"
)

// Client adapta el nodo raft al contrato ledger.Client. Las escrituras
// pasan por el log replicado (raft serializa los Apply, así el orden de
// bloques es único); las lecturas se sirven del estado local de la FSM.
type Client struct {
	node *Node
	fsm  *FSM
}

var _ ledger.Client = (*Client)(nil)

func NewClient(n *Node, f *FSM) *Client {
	return &Client{node: n, fsm: f}
}

func (c *Client) submit(ctx context.Context, op ledger.Op, id int64, digest string) (string, error) {
	raw, err := json.Marshal(Command{Op: op, ID: id, Digest: digest, TS: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	resp, err := c.node.ApplyBytes(ctx, raw)
	if err != nil {
		// Sin leader o sin quorum: el ledger está indisponible, no roto.
		if errors.Is(err, raft.ErrNotLeader) || errors.Is(err, raft.ErrLeadershipLost) ||
			errors.Is(err, raft.ErrEnqueueTimeout) || errors.Is(err, raft.ErrRaftShutdown) {
			return "", fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
		}
		return "", err
	}
	res, ok := resp.(applyResult)
	if !ok {
		return "", fmt.Errorf("ledger: unexpected apply response %T", resp)
	}
	if res.Err != nil {
		return "", res.Err
	}
	return res.Tx, nil
}

// Add implementa Client.
func (c *Client) Add(ctx context.Context, id int64, digest string) (string, error) {
	return c.submit(ctx, ledger.OpAdd, id, digest)
}

// Update implementa Client.
func (c *Client) Update(ctx context.Context, id int64, digest string) (string, error) {
	return c.submit(ctx, ledger.OpUpdate, id, digest)
}

// Delete implementa Client.
func (c *Client) Delete(ctx context.Context, id int64) (string, error) {
	return c.submit(ctx, ledger.OpDelete, id, "")
}

// Get implementa Client. Lee del estado local (puede ir apenas detrás del
// leader; para la historia tamper-evident alcanza).
func (c *Client) Get(ctx context.Context, id int64) (*ledger.Entry, error) {
	return c.fsm.state.Get(ctx, id)
}

// ListByOwner implementa Client.
func (c *Client) ListByOwner(ctx context.Context, owner string) ([]int64, error) {
	return c.fsm.state.ListByOwner(ctx, owner)
}
