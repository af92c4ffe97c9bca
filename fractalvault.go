// Package fractalvault implements the fractal sharded secure storage
// engine: an in-memory, session-lifetime store that encrypts linked-account
// records, places each one deterministically in a bounded 2-D address space
// via a bounded escape-time computation, organizes the encrypted payloads
// into a single-rooted ownership tree, and derives an incentive score from
// the computed placement.
package fractalvault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/mem"
	"github.com/ulikunitz/xz/lzma"
	"golang.org/x/sync/errgroup"

	"github.com/fractalvault/fractalvault/internal/complexity"
	"github.com/fractalvault/fractalvault/pkg/encryption"
	"github.com/fractalvault/fractalvault/pkg/keyderive"
	"github.com/fractalvault/fractalvault/pkg/record"
	"github.com/fractalvault/fractalvault/pkg/reward"
	"github.com/fractalvault/fractalvault/pkg/tree"
)

var (
	// ErrNotInitialized is returned by operations invoked before Initialize.
	ErrNotInitialized = errors.New("fractalvault: engine not initialized")
	// ErrInvalidArgument is returned for bad caller input.
	ErrInvalidArgument = errors.New("fractalvault: invalid argument")
	// ErrDecrypt is returned when a stored payload cannot be decrypted under
	// the current session key.
	ErrDecrypt = encryption.ErrDecrypt
)

// Engine is the storage engine handle. It owns the session key and the
// ownership tree exclusively; nothing is shared across instances and
// nothing leaves memory. Mutations are serialized through a write lock so
// node insertion, child linking and point accounting appear atomic to
// readers.
type Engine struct {
	log    *slog.Logger
	config Config

	mu          sync.RWMutex
	key         []byte
	tree        *tree.Tree
	estimator   *complexity.Estimator
	initialized bool
}

// Stats is a point-in-time summary of the tree contents.
type Stats struct {
	TotalNodes             int
	CountsByCategory       map[record.Category]int
	StoragePoints          int
	ComplexityScorePercent float64
	LastUpdate             time.Time
	// HostMemory is a best-effort snapshot of host memory, relevant because
	// the whole tree lives in memory. Nil when the platform query fails.
	HostMemory *MemoryStats
}

// MemoryStats mirrors the host memory fields the stats report carries.
type MemoryStats struct {
	TotalBytes  uint64
	UsedBytes   uint64
	UsedPercent float64
}

// New constructs an engine handle. New performs no key derivation; call
// Initialize before storing anything.
func New(conf Config) *Engine {
	if conf.Logger == nil {
		conf.Logger = defaultLogger()
	}
	if conf.ExportParallelism <= 0 {
		conf.ExportParallelism = runtime.NumCPU()
	}
	return &Engine{
		log:       conf.Logger,
		config:    conf,
		tree:      tree.New(),
		estimator: complexity.New(conf.ComplexityRand),
	}
}

// Initialize derives the session key from the passphrase and creates the
// root node if it does not exist yet. Re-initializing is allowed and
// re-derives the key while keeping the existing root and its children; the
// old nodes simply stop decrypting if the passphrase differs.
func (e *Engine) Initialize(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("%w: master key is required", ErrInvalidArgument)
	}

	key, err := keyderive.DeriveKey(passphrase, e.config.KDFIterations)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.key = key
	rootID := e.tree.InitRoot()
	e.initialized = true

	e.log.Info("engine initialized", "root", rootID)
	return nil
}

// Store encrypts the record, computes its placement from the content digest
// and inserts it as a child of the root. It returns the new node's id.
func (e *Engine) Store(ctx context.Context, rec record.LinkedAccountRecord) (tree.NodeID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	plaintext, err := rec.Encode()
	if err != nil {
		return "", err
	}
	digest, err := rec.Digest()
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return "", ErrNotInitialized
	}

	weight := e.estimator.Estimate(len(plaintext), rec.Category)

	sealed, err := encryption.Seal(e.key, plaintext)
	if err != nil {
		return "", fmt.Errorf("seal record: %w", err)
	}

	node := tree.NewNode(e.tree.RootID(), sealed, rec.Category, weight, digest)
	if err := e.tree.Insert(node); err != nil {
		return "", err
	}

	e.log.Debug("record stored",
		"node", node.ID,
		"category", rec.Category,
		"complexity", weight,
		"iteration", node.Iteration,
	)
	return node.ID, nil
}

// Retrieve decrypts and decodes the record stored under id. A miss is a
// normal empty result, reported through the bool, not an error. A
// decryption failure is surfaced: single-item retrieval does not tolerate
// corruption.
func (e *Engine) Retrieve(ctx context.Context, id tree.NodeID) (record.LinkedAccountRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return record.LinkedAccountRecord{}, false, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.initialized {
		return record.LinkedAccountRecord{}, false, ErrNotInitialized
	}

	node, ok := e.tree.Get(id)
	if !ok || node.IsRoot() {
		return record.LinkedAccountRecord{}, false, nil
	}

	plaintext, err := encryption.Open(e.key, node.Ciphertext)
	if err != nil {
		return record.LinkedAccountRecord{}, false, err
	}
	rec, err := record.Decode(plaintext)
	if err != nil {
		return record.LinkedAccountRecord{}, false, err
	}
	return rec, true, nil
}

type exportItem struct {
	rec record.LinkedAccountRecord
	err error
}

// ExportAll decrypts every stored record on a best-effort basis: nodes that
// fail to decrypt or decode are logged and skipped rather than failing the
// whole export. The result is recomputed fresh on every call.
func (e *Engine) ExportAll(ctx context.Context) ([]record.LinkedAccountRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	if !e.initialized {
		e.mu.RUnlock()
		return nil, ErrNotInitialized
	}
	nodes := e.tree.Nodes()
	key := make([]byte, len(e.key))
	copy(key, e.key)
	e.mu.RUnlock()

	// Unseal in parallel; decryption is the CPU-bound part of export.
	items := make([]exportItem, len(nodes))
	var g errgroup.Group
	g.SetLimit(e.config.ExportParallelism)
	for i := range nodes {
		i := i
		g.Go(func() error {
			plaintext, err := encryption.Open(key, nodes[i].Ciphertext)
			if err != nil {
				items[i].err = err
				return nil
			}
			items[i].rec, items[i].err = record.Decode(plaintext)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]record.LinkedAccountRecord, 0, len(items))
	for i, item := range items {
		if item.err != nil {
			e.log.Warn("skipping unreadable node during export", "node", nodes[i].ID, "error", item.err)
			continue
		}
		out = append(out, item.rec)
	}
	return out, nil
}

// ExportArchive writes the decrypted export set as an LZMA-compressed JSON
// document to w. The engine owns no sink; where the stream ends up is the
// caller's decision.
func (e *Engine) ExportArchive(ctx context.Context, w io.Writer) error {
	records, err := e.ExportAll(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}

	var buf bytes.Buffer
	lw, err := lzma.NewWriter(&buf)
	if err != nil {
		return fmt.Errorf("compress archive: %w", err)
	}
	if _, err := lw.Write(payload); err != nil {
		return fmt.Errorf("compress archive: %w", err)
	}
	if err := lw.Close(); err != nil {
		return fmt.Errorf("compress archive: %w", err)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}

// Stats summarizes the current tree contents. It mutates nothing; the
// last-update timestamp is the time of the call.
func (e *Engine) Stats() (Stats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.initialized {
		return Stats{}, ErrNotInitialized
	}

	nodes := e.tree.Nodes()
	counts := make(map[record.Category]int, len(record.Categories()))
	for _, cat := range record.Categories() {
		counts[cat] = 0
	}
	for _, n := range nodes {
		counts[n.Category]++
	}

	stats := Stats{
		TotalNodes:             len(nodes),
		CountsByCategory:       counts,
		StoragePoints:          e.tree.StoragePoints(),
		ComplexityScorePercent: reward.ComplexityScore(nodes),
		LastUpdate:             time.Now().UTC(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		stats.HostMemory = &MemoryStats{
			TotalBytes:  vm.Total,
			UsedBytes:   vm.Used,
			UsedPercent: vm.UsedPercent,
		}
	}
	return stats, nil
}

// RewardBalance recomputes the incentive balance from the current tree:
// 0.01 per node, 0.05 per storage point and 0.1 per complexity-score
// percent, rounded to two decimals.
func (e *Engine) RewardBalance() (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.initialized {
		return 0, ErrNotInitialized
	}

	nodes := e.tree.Nodes()
	score := reward.ComplexityScore(nodes)
	return reward.Balance(len(nodes), e.tree.StoragePoints(), score), nil
}

// Node returns the placement metadata of a stored node without decrypting
// its payload.
func (e *Engine) Node(id tree.NodeID) (tree.Node, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.Get(id)
}

// Children lists the nodes directly owned by id.
func (e *Engine) Children(id tree.NodeID) ([]tree.NodeID, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.Children(id)
}

// Verify checks the tree's structural invariants.
func (e *Engine) Verify() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.Verify()
}
