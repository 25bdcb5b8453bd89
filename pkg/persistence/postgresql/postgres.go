// Package postgresql provides PostgreSQL persistence for workflow and node records.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/persistence"
	"github.com/workdesk/workdesk/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:     database,
		logger: logger,
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) FetchWorkflow(ctx context.Context, workflowType models.WorkflowType, id string) (*models.WorkflowInstance, error) {
	var document []byte

	err := p.db.QueryRowContext(ctx,
		`SELECT document FROM workflow_instances WHERE workflow_type = $1 AND id = $2`,
		string(workflowType), id,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("Fetch", string(workflowType), id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("Fetch", string(workflowType), id, err)
	}

	return persistence.DecodeWorkflow(document)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.WorkflowInstance) error {
	return p.SaveBatch(ctx, []*models.WorkflowInstance{workflow}, nil)
}

func (p *Persistence) FetchNode(ctx context.Context, nodeType models.NodeType, id string) (*models.NodeInstance, error) {
	var document []byte

	err := p.db.QueryRowContext(ctx,
		`SELECT document FROM node_instances WHERE node_type = $1 AND id = $2`,
		string(nodeType), id,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewNodeError("Fetch", string(nodeType), id, persistence.ErrNodeNotFound)
		}

		return nil, persistence.NewNodeError("Fetch", string(nodeType), id, err)
	}

	return persistence.DecodeNode(document)
}

func (p *Persistence) SaveNode(ctx context.Context, node *models.NodeInstance) error {
	return p.SaveBatch(ctx, nil, []*models.NodeInstance{node})
}

// SaveBatch upserts every record in one transaction.
func (p *Persistence) SaveBatch(ctx context.Context, workflows []*models.WorkflowInstance, nodes []*models.NodeInstance) error {
	for _, w := range workflows {
		if err := persistence.CheckWorkflow(w); err != nil {
			return err
		}
	}

	for _, n := range nodes {
		if err := persistence.CheckNode(n); err != nil {
			return err
		}
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	for _, w := range workflows {
		if err := saveWorkflow(ctx, tx, w); err != nil {
			return persistence.NewWorkflowError("Save", string(w.WorkflowType), w.WorkflowInstanceID, err)
		}
	}

	for _, n := range nodes {
		if err := saveNode(ctx, tx, n); err != nil {
			return persistence.NewNodeError("Save", string(n.NodeType), n.NodeInstanceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

func saveWorkflow(ctx context.Context, tx *sql.Tx, w *models.WorkflowInstance) error {
	document, err := persistence.EncodeWorkflow(w)
	if err != nil {
		return err
	}

	var parentType, parentID sql.NullString
	if w.Parent != nil {
		parentType = sql.NullString{String: string(w.Parent.WorkflowType), Valid: true}
		parentID = sql.NullString{String: w.Parent.WorkflowInstanceID, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO workflow_instances
			(workflow_type, id, created_at, closed_at, parent_type, parent_id, document, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (workflow_type, id) DO UPDATE SET
			closed_at = EXCLUDED.closed_at,
			document = EXCLUDED.document,
			updated_at = NOW()`,
		string(w.WorkflowType), w.WorkflowInstanceID, w.CreatedAt, nullTime(w.ClosedAt),
		parentType, parentID, document,
	)

	return err
}

func saveNode(ctx context.Context, tx *sql.Tx, n *models.NodeInstance) error {
	document, err := persistence.EncodeNode(n)
	if err != nil {
		return err
	}

	var staffRole, status sql.NullString

	var deadline sql.NullTime

	if n.Input != nil {
		staffRole = sql.NullString{String: n.Input.StaffRole, Valid: true}
		status = sql.NullString{String: string(n.Input.Status), Valid: true}
		deadline = sql.NullTime{Time: n.Input.Deadline, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO node_instances
			(node_type, id, workflow_type, workflow_id, created_at, closed_at,
			 staff_role, input_status, deadline, document, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (node_type, id) DO UPDATE SET
			closed_at = EXCLUDED.closed_at,
			input_status = EXCLUDED.input_status,
			document = EXCLUDED.document,
			updated_at = NOW()`,
		string(n.NodeType), n.NodeInstanceID, string(n.WorkflowType), n.WorkflowInstanceID,
		n.CreatedAt, nullTime(n.ClosedAt), staffRole, status, deadline, document,
	)

	return err
}

// OverdueInputNodes uses the partial deadline index.
func (p *Persistence) OverdueInputNodes(ctx context.Context, asOf time.Time) ([]*models.NodeInstance, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT document FROM node_instances
		WHERE closed_at IS NULL
			AND input_status IN ('ready', 'started')
			AND deadline < $1
		ORDER BY deadline`,
		asOf,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue nodes: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			p.logger.Error("Failed to close rows", "error", err)
		}
	}()

	var out []*models.NodeInstance

	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}

		n, err := persistence.DecodeNode(document)
		if err != nil {
			return nil, err
		}

		out = append(out, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate nodes: %w", err)
	}

	return out, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: *t, Valid: true}
}

var _ persistence.Persistence = (*Persistence)(nil)
