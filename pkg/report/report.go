// Package report archives NthPrime results as JSON objects.
//
// Layout under the bucket:
//
//	reports/<index>.json  one Report per published index
//	reports/ledger.json   ascending list of published indices
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bigneek/primeflare/pkg/sieve"
	"github.com/bigneek/primeflare/pkg/storage"
	"github.com/bigneek/primeflare/pkg/transaction"
	"github.com/bigneek/primeflare/pkg/utils"
)

const (
	prefix    = "reports/"
	ledgerKey = "ledger.json"
)

// Report is the archived form of one computation.
type Report struct {
	ID          uuid.UUID `json:"id"`
	Index       int64     `json:"index"`
	Prime       int64     `json:"prime"`
	Limit       int64     `json:"limit"`
	Segments    int       `json:"segments"`
	SegmentSize int64     `json:"segment_size"`
	ElapsedMS   int64     `json:"elapsed_ms"`
	Verified    bool      `json:"verified"` // independent trial-division check
	CreatedAt   time.Time `json:"created_at"`
}

// Ledger lists every published index.
type Ledger struct {
	Indices []int64   `json:"indices"`
	Updated time.Time `json:"updated"`
}

// FromResult builds a report for a sieve result and verifies the prime.
func FromResult(res sieve.Result) (Report, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Report{}, fmt.Errorf("report id: %w", err)
	}
	return Report{
		ID:          id,
		Index:       res.Index,
		Prime:       res.Prime,
		Limit:       res.Limit,
		Segments:    res.Segments,
		SegmentSize: res.SegmentSize,
		ElapsedMS:   res.Elapsed.Milliseconds(),
		Verified:    utils.IsPrime(res.Prime),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Publisher writes reports to an object store.
//
// mu serializes the ledger read-modify-write within one process. Two
// processes publishing to the same bucket can still race on the ledger;
// Reconcile repairs it from the stored reports.
type Publisher struct {
	store  storage.ObjectStore
	bucket string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewPublisher creates a publisher. A nil logger disables logging.
func NewPublisher(store storage.ObjectStore, bucket string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{store: store, bucket: bucket, logger: logger}
}

func reportKey(index int64) string {
	return fmt.Sprintf("%d.json", index)
}

// Publish stores the report and adds its index to the ledger. Both writes
// land or neither does.
func (p *Publisher) Publish(ctx context.Context, rep Report) error {
	if !rep.Verified {
		return fmt.Errorf("publish index %d: %d failed primality verification", rep.Index, rep.Prime)
	}

	body, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ledger, err := p.Ledger(ctx)
	if err != nil {
		return err
	}
	if pos, found := slices.BinarySearch(ledger.Indices, rep.Index); !found {
		ledger.Indices = slices.Insert(ledger.Indices, pos, rep.Index)
	}
	ledger.Updated = time.Now().UTC()
	ledgerBody, err := json.Marshal(ledger)
	if err != nil {
		return err
	}

	txn := transaction.New(p.store, p.bucket, prefix)
	if err := txn.Put(ctx, reportKey(rep.Index), body); err != nil {
		return p.abort(ctx, txn, fmt.Errorf("write report %d: %w", rep.Index, err))
	}
	if err := txn.Put(ctx, ledgerKey, ledgerBody); err != nil {
		return p.abort(ctx, txn, fmt.Errorf("write ledger: %w", err))
	}
	txn.Commit()

	p.logger.Info("report published",
		zap.Stringer("id", rep.ID),
		zap.Int64("index", rep.Index),
		zap.Int64("prime", rep.Prime),
	)
	return nil
}

func (p *Publisher) abort(ctx context.Context, txn *transaction.Txn, cause error) error {
	if err := txn.Rollback(ctx); err != nil {
		p.logger.Error("rollback failed", zap.Error(err))
		return errors.Join(cause, err)
	}
	return cause
}

// Load reads a published report. A missing report wraps storage.ErrNotFound.
func (p *Publisher) Load(ctx context.Context, index int64) (*Report, error) {
	data, err := p.store.DownloadObject(ctx, p.bucket, prefix+reportKey(index))
	if err != nil {
		return nil, err
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decode report %d: %w", index, err)
	}
	return &rep, nil
}

// Ledger returns the published indices. An empty store yields an empty ledger.
func (p *Publisher) Ledger(ctx context.Context) (*Ledger, error) {
	data, err := p.store.DownloadObject(ctx, p.bucket, prefix+ledgerKey)
	if errors.Is(err, storage.ErrNotFound) {
		return &Ledger{}, nil
	}
	if err != nil {
		return nil, err
	}
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	return &l, nil
}

// maxListed bounds how many report keys List and Reconcile read.
const maxListed = 100_000

// List returns the indices that have a stored report, ascending. Unlike
// Ledger it reads the report objects themselves.
func (p *Publisher) List(ctx context.Context) ([]int64, error) {
	keys, err := p.store.ListObjects(ctx, p.bucket, prefix, maxListed)
	if err != nil {
		return nil, err
	}
	indices := make([]int64, 0, len(keys))
	for _, k := range keys {
		name := strings.TrimSuffix(strings.TrimPrefix(k, prefix), ".json")
		idx, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			// ledger.json and foreign objects
			continue
		}
		indices = append(indices, idx)
	}
	slices.Sort(indices)
	return indices, nil
}

// Reconcile rewrites the ledger from the stored reports and returns the
// indices that were missing from it.
func (p *Publisher) Reconcile(ctx context.Context) ([]int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := p.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	var missing []int64
	for _, idx := range stored {
		if _, found := slices.BinarySearch(ledger.Indices, idx); !found {
			missing = append(missing, idx)
		}
	}
	if len(missing) == 0 && slices.Equal(stored, ledger.Indices) {
		return nil, nil
	}

	body, err := json.Marshal(Ledger{Indices: stored, Updated: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	if err := p.store.UploadObject(ctx, p.bucket, prefix+ledgerKey, body); err != nil {
		return nil, fmt.Errorf("write ledger: %w", err)
	}
	p.logger.Info("ledger reconciled", zap.Int("reports", len(stored)), zap.Int("added", len(missing)))
	return missing, nil
}
