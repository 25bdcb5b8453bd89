// Package file provides file-based persistence for workflow and node records.
//
// Records live under <root>/workflows/<type>/<id>.json and
// <root>/nodes/<type>/<id>.json. A batch is first written to a journal file;
// the journal is replayed on open, so a crash between renames never leaves a
// half-applied batch behind.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/workdesk/workdesk/pkg/models"
	"github.com/workdesk/workdesk/pkg/persistence"
)

const journalName = "journal.json"

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

type journal struct {
	Entries []journalEntry `json:"entries"`
}

type journalEntry struct {
	Path string          `json:"path"`
	Body json.RawMessage `json:"body"`
}

// NewPersistence opens the store rooted at root and replays any pending journal.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	fp := &Persistence{root: cleanRoot}

	if err := os.MkdirAll(cleanRoot, 0750); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}

	if err := fp.replay(); err != nil {
		return nil, err
	}

	return fp, nil
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) FetchWorkflow(_ context.Context, workflowType models.WorkflowType, id string) (*models.WorkflowInstance, error) {
	filePath, err := fp.recordPath("workflows", string(workflowType), id)
	if err != nil {
		return nil, persistence.NewWorkflowError("Fetch", string(workflowType), id, err)
	}

	fp.mu.RLock()
	body, err := os.ReadFile(filePath)
	fp.mu.RUnlock()

	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewWorkflowError("Fetch", string(workflowType), id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("Fetch", string(workflowType), id, err)
	}

	return persistence.DecodeWorkflow(body)
}

func (fp *Persistence) SaveWorkflow(ctx context.Context, workflow *models.WorkflowInstance) error {
	return fp.SaveBatch(ctx, []*models.WorkflowInstance{workflow}, nil)
}

func (fp *Persistence) FetchNode(_ context.Context, nodeType models.NodeType, id string) (*models.NodeInstance, error) {
	filePath, err := fp.recordPath("nodes", string(nodeType), id)
	if err != nil {
		return nil, persistence.NewNodeError("Fetch", string(nodeType), id, err)
	}

	fp.mu.RLock()
	body, err := os.ReadFile(filePath)
	fp.mu.RUnlock()

	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewNodeError("Fetch", string(nodeType), id, persistence.ErrNodeNotFound)
		}

		return nil, persistence.NewNodeError("Fetch", string(nodeType), id, err)
	}

	return persistence.DecodeNode(body)
}

func (fp *Persistence) SaveNode(ctx context.Context, node *models.NodeInstance) error {
	return fp.SaveBatch(ctx, nil, []*models.NodeInstance{node})
}

// SaveBatch journals the whole batch, applies it and removes the journal.
func (fp *Persistence) SaveBatch(_ context.Context, workflows []*models.WorkflowInstance, nodes []*models.NodeInstance) error {
	var j journal

	for _, w := range workflows {
		if err := persistence.CheckWorkflow(w); err != nil {
			return err
		}

		filePath, err := fp.recordPath("workflows", string(w.WorkflowType), w.WorkflowInstanceID)
		if err != nil {
			return persistence.NewWorkflowError("Save", string(w.WorkflowType), w.WorkflowInstanceID, err)
		}

		body, err := persistence.EncodeWorkflow(w)
		if err != nil {
			return err
		}

		j.Entries = append(j.Entries, journalEntry{Path: filePath, Body: body})
	}

	for _, n := range nodes {
		if err := persistence.CheckNode(n); err != nil {
			return err
		}

		filePath, err := fp.recordPath("nodes", string(n.NodeType), n.NodeInstanceID)
		if err != nil {
			return persistence.NewNodeError("Save", string(n.NodeType), n.NodeInstanceID, err)
		}

		body, err := persistence.EncodeNode(n)
		if err != nil {
			return err
		}

		j.Entries = append(j.Entries, journalEntry{Path: filePath, Body: body})
	}

	if len(j.Entries) == 0 {
		return nil
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()

	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(fp.root, journalName), data); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}

	return fp.apply(j)
}

// OverdueInputNodes scans every node file. Suitable for small deployments only.
func (fp *Persistence) OverdueInputNodes(_ context.Context, asOf time.Time) ([]*models.NodeInstance, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	root := os.DirFS(filepath.Join(fp.root, "nodes"))

	jsonFiles, err := fs.Glob(root, "*/*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list node files: %w", err)
	}

	var out []*models.NodeInstance

	for _, name := range jsonFiles {
		body, err := fs.ReadFile(root, name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, fmt.Errorf("failed to read node %s: %w", name, err)
		}

		n, err := persistence.DecodeNode(body)
		if err != nil {
			return nil, err
		}

		if persistence.IsOverdue(n, asOf) {
			out = append(out, n)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Input.Deadline.Before(out[j].Input.Deadline)
	})

	return out, nil
}

func (fp *Persistence) recordPath(kind, typ, id string) (string, error) {
	for _, part := range []string{typ, id} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("%w: unsafe path segment %q", persistence.ErrInvalidRecord, part)
		}
	}

	return filepath.Join(fp.root, kind, typ, id+".json"), nil
}

func (fp *Persistence) apply(j journal) error {
	for _, e := range j.Entries {
		if err := os.MkdirAll(filepath.Dir(e.Path), 0750); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", e.Path, err)
		}

		if err := writeFileAtomic(e.Path, e.Body); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.Path, err)
		}
	}

	return os.Remove(filepath.Join(fp.root, journalName))
}

func (fp *Persistence) replay() error {
	body, err := os.ReadFile(filepath.Join(fp.root, journalName))
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	var j journal
	if err := json.Unmarshal(body, &j); err != nil {
		return fmt.Errorf("failed to unmarshal journal: %w", err)
	}

	return fp.apply(j)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return err
	}

	return os.Rename(tmp.Name(), path)
}

var _ persistence.Persistence = (*Persistence)(nil)
