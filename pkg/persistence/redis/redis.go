// Package redis provides Redis persistence for workflow and node records.
//
// Records are JSON strings keyed by type and id. Open input nodes are indexed
// in a sorted set scored by deadline so SLA scans never walk every node.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/persistence"
)

const defaultPrefix = "workdesk"

// Persistence implements the persistence layer for Redis.
type Persistence struct {
	client *redis.Client
	logger *slog.Logger
	prefix string
}

// NewPersistence connects to the server named by a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, url string) (*Persistence, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return NewWithClient(client, logger, defaultPrefix), nil
}

// NewWithClient wraps an existing client. Keys are namespaced under prefix.
func NewWithClient(client *redis.Client, logger *slog.Logger, prefix string) *Persistence {
	return &Persistence{client: client, logger: logger, prefix: prefix}
}

// Client exposes the connection for components sharing it, such as the lock and role directory.
func (p *Persistence) Client() *redis.Client {
	return p.client
}

func (p *Persistence) workflowKey(t models.WorkflowType, id string) string {
	return p.prefix + ":workflow:" + string(t) + ":" + id
}

func (p *Persistence) nodeKey(t models.NodeType, id string) string {
	return p.prefix + ":node:" + string(t) + ":" + id
}

func (p *Persistence) deadlineIndexKey() string {
	return p.prefix + ":index:input_deadlines"
}

// deadline index members are "<type>\x00<id>"; node types never contain NUL.
func deadlineMember(n *models.NodeInstance) string {
	return string(n.NodeType) + "\x00" + n.NodeInstanceID
}

func (p *Persistence) FetchWorkflow(ctx context.Context, workflowType models.WorkflowType, id string) (*models.WorkflowInstance, error) {
	data, err := p.client.Get(ctx, p.workflowKey(workflowType, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewWorkflowError("Fetch", string(workflowType), id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("Fetch", string(workflowType), id, err)
	}

	return persistence.DecodeWorkflow(data)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.WorkflowInstance) error {
	return p.SaveBatch(ctx, []*models.WorkflowInstance{workflow}, nil)
}

func (p *Persistence) FetchNode(ctx context.Context, nodeType models.NodeType, id string) (*models.NodeInstance, error) {
	data, err := p.client.Get(ctx, p.nodeKey(nodeType, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewNodeError("Fetch", string(nodeType), id, persistence.ErrNodeNotFound)
		}

		return nil, persistence.NewNodeError("Fetch", string(nodeType), id, err)
	}

	return persistence.DecodeNode(data)
}

func (p *Persistence) SaveNode(ctx context.Context, node *models.NodeInstance) error {
	return p.SaveBatch(ctx, nil, []*models.NodeInstance{node})
}

// SaveBatch writes all records and index updates in one MULTI/EXEC.
func (p *Persistence) SaveBatch(ctx context.Context, workflows []*models.WorkflowInstance, nodes []*models.NodeInstance) error {
	type entry struct {
		key  string
		body []byte
	}

	entries := make([]entry, 0, len(workflows)+len(nodes))

	for _, w := range workflows {
		if err := persistence.CheckWorkflow(w); err != nil {
			return err
		}

		body, err := persistence.EncodeWorkflow(w)
		if err != nil {
			return err
		}

		entries = append(entries, entry{key: p.workflowKey(w.WorkflowType, w.WorkflowInstanceID), body: body})
	}

	for _, n := range nodes {
		if err := persistence.CheckNode(n); err != nil {
			return err
		}

		body, err := persistence.EncodeNode(n)
		if err != nil {
			return err
		}

		entries = append(entries, entry{key: p.nodeKey(n.NodeType, n.NodeInstanceID), body: body})
	}

	if len(entries) == 0 {
		return nil
	}

	pipe := p.client.TxPipeline()

	for _, e := range entries {
		pipe.Set(ctx, e.key, e.body, 0)
	}

	for _, n := range nodes {
		if n.Input == nil {
			continue
		}

		if n.IsClosed() || n.Input.Status == models.InputStatusEnded {
			pipe.ZRem(ctx, p.deadlineIndexKey(), deadlineMember(n))

			continue
		}

		pipe.ZAdd(ctx, p.deadlineIndexKey(), redis.Z{
			Score:  float64(n.Input.Deadline.UnixMilli()),
			Member: deadlineMember(n),
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

// OverdueInputNodes reads the deadline index up to asOf.
func (p *Persistence) OverdueInputNodes(ctx context.Context, asOf time.Time) ([]*models.NodeInstance, error) {
	members, err := p.client.ZRangeByScore(ctx, p.deadlineIndexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(asOf.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read deadline index: %w", err)
	}

	if len(members) == 0 {
		return nil, nil
	}

	pipe := p.client.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(members))

	for _, member := range members {
		nodeType, id, ok := strings.Cut(member, "\x00")
		if !ok {
			p.logger.Warn("Skipping malformed deadline index member", "member", member)

			continue
		}

		cmds = append(cmds, pipe.Get(ctx, p.nodeKey(models.NodeType(nodeType), id)))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load overdue nodes: %w", err)
	}

	out := make([]*models.NodeInstance, 0, len(cmds))

	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}

			return nil, err
		}

		n, err := persistence.DecodeNode(data)
		if err != nil {
			return nil, err
		}

		if persistence.IsOverdue(n, asOf) {
			out = append(out, n)
		}
	}

	return out, nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// Close closes the underlying Redis client.
func (p *Persistence) Close(_ context.Context) error {
	if p.client == nil {
		return nil
	}

	return p.client.Close()
}

var _ persistence.Persistence = (*Persistence)(nil)
