package sheetsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/db"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/utils/ids"
)

const DefaultMaxAttempts = 5

type EntryStatus string

const (
	StatusPending EntryStatus = "pending"
	StatusSent    EntryStatus = "sent"
	StatusFailed  EntryStatus = "failed"
)

var (
	// ErrEntryNotFound is returned by Retry for unknown ids
	ErrEntryNotFound = errors.New("outbox entry not found")
	// ErrNotFailed is returned by Retry for entries that are not failed
	ErrNotFailed = errors.New("outbox entry has not failed")
)

// Entry is one queued outbound change
type Entry struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Payload   json.RawMessage `json:"payload"`
	Status    EntryStatus     `json:"status"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"lastError,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Sender delivers one entry to wherever the sync target lives
type Sender interface {
	Send(ctx context.Context, action string, payload json.RawMessage) error
}

// permanentError marks a failure that retrying will not fix
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the outbox fails the entry without further attempts
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// FlushResult counts what a flush did
type FlushResult struct {
	Sent   int
	Failed int
	Retry  int
}

// Outbox is a persistent queue of changes waiting to be mirrored
type Outbox struct {
	mu          sync.Mutex
	flushMu     sync.Mutex
	backend     db.Backend
	sender      Sender
	logger      *zap.Logger
	maxAttempts int
	now         func() time.Time
	kick        chan struct{}

	entries []Entry
}

// OutboxOption customizes an Outbox at OpenOutbox
type OutboxOption func(*Outbox)

// WithMaxAttempts sets how many failed sends an entry gets before it is marked failed
func WithMaxAttempts(n int) OutboxOption {
	return func(o *Outbox) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithOutboxClock overrides the clock used for entry timestamps
func WithOutboxClock(now func() time.Time) OutboxOption {
	return func(o *Outbox) { o.now = now }
}

// OpenOutbox loads queued entries from the backend
func OpenOutbox(ctx context.Context, backend db.Backend, sender Sender, logger *zap.Logger, opts ...OutboxOption) (*Outbox, error) {
	o := &Outbox{
		backend:     backend,
		sender:      sender,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
		kick:        make(chan struct{}, 1),
		entries:     []Entry{},
	}
	for _, opt := range opts {
		opt(o)
	}

	data, err := backend.Get(ctx, db.KeyOutbox)
	if errors.Is(err, db.ErrNotFound) {
		return o, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load outbox: %w", err)
	}
	if err := json.Unmarshal(data, &o.entries); err != nil {
		logger.Warn("Stored outbox is corrupt, starting empty", zap.Error(err))
		o.entries = []Entry{}
	}
	return o, nil
}

// Enqueue adds a pending entry and wakes the worker
func (o *Outbox) Enqueue(ctx context.Context, action string, payload any) (Entry, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode %s payload: %w", action, err)
	}

	now := o.now().UTC()
	entry := Entry{
		ID:        ids.New(),
		Action:    action,
		Payload:   encoded,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	o.mu.Lock()
	o.entries = append(o.entries, entry)
	err = o.persist(ctx)
	if err != nil {
		o.entries = o.entries[:len(o.entries)-1]
	}
	o.mu.Unlock()
	if err != nil {
		return Entry{}, err
	}

	o.logger.Debug("Queued sync entry", zap.String("id", entry.ID), zap.String("action", action))
	o.Kick()
	return entry, nil
}

// Entries returns a copy of the queue, oldest first
func (o *Outbox) Entries() []Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.entries)
}

// Pending returns how many entries are waiting to be sent
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := 0
	for _, e := range o.entries {
		if e.Status == StatusPending {
			n++
		}
	}
	return n
}

// Flush sends every pending entry, oldest first. Sends happen without
// holding the queue lock so new entries can be queued meanwhile.
func (o *Outbox) Flush(ctx context.Context) (FlushResult, error) {
	o.flushMu.Lock()
	defer o.flushMu.Unlock()

	var result FlushResult
	for _, entry := range o.pendingEntries() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		sendErr := o.sender.Send(ctx, entry.Action, entry.Payload)

		status, err := o.record(ctx, entry.ID, sendErr)
		if err != nil {
			return result, err
		}

		switch status {
		case StatusSent:
			result.Sent++
		case StatusFailed:
			result.Failed++
			o.logger.Warn("Sync entry failed",
				zap.String("id", entry.ID),
				zap.String("action", entry.Action),
				zap.Error(sendErr))
		default:
			result.Retry++
			o.logger.Warn("Sync attempt failed, will retry",
				zap.String("id", entry.ID),
				zap.String("action", entry.Action),
				zap.Error(sendErr))
		}
	}
	return result, nil
}

func (o *Outbox) pendingEntries() []Entry {
	o.mu.Lock()
	defer o.mu.Unlock()

	var pending []Entry
	for _, e := range o.entries {
		if e.Status == StatusPending {
			pending = append(pending, e)
		}
	}
	return pending
}

// record stores the outcome of one send attempt
func (o *Outbox) record(ctx context.Context, id string, sendErr error) (EntryStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	idx := o.index(id)
	if idx < 0 {
		// Pruned while the send was in flight
		return StatusSent, nil
	}

	e := &o.entries[idx]
	e.Attempts++
	e.UpdatedAt = o.now().UTC()
	if sendErr == nil {
		e.Status = StatusSent
		e.LastError = ""
	} else {
		e.LastError = sendErr.Error()
		if isPermanent(sendErr) || e.Attempts >= o.maxAttempts {
			e.Status = StatusFailed
		}
	}

	if err := o.persist(ctx); err != nil {
		return e.Status, err
	}
	return e.Status, nil
}

// Retry moves a failed entry back to pending with a fresh attempt budget
func (o *Outbox) Retry(ctx context.Context, id string) (Entry, error) {
	o.mu.Lock()
	idx := o.index(id)
	if idx < 0 {
		o.mu.Unlock()
		return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if o.entries[idx].Status != StatusFailed {
		o.mu.Unlock()
		return Entry{}, fmt.Errorf("%w: %s is %s", ErrNotFailed, id, o.entries[idx].Status)
	}

	previous := o.entries[idx]
	o.entries[idx].Status = StatusPending
	o.entries[idx].Attempts = 0
	o.entries[idx].UpdatedAt = o.now().UTC()
	entry := o.entries[idx]

	err := o.persist(ctx)
	if err != nil {
		o.entries[idx] = previous
	}
	o.mu.Unlock()
	if err != nil {
		return Entry{}, err
	}

	o.Kick()
	return entry, nil
}

// Prune drops sent entries last updated before cutoff and returns how many were removed
func (o *Outbox) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	previous := o.entries
	kept := make([]Entry, 0, len(o.entries))
	for _, e := range o.entries {
		if e.Status == StatusSent && e.UpdatedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, e)
	}

	removed := len(o.entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	o.entries = kept
	if err := o.persist(ctx); err != nil {
		o.entries = previous
		return 0, err
	}
	return removed, nil
}

// Kick wakes the worker without blocking
func (o *Outbox) Kick() {
	select {
	case o.kick <- struct{}{}:
	default:
	}
}

// Run flushes on every tick and whenever Kick is called, until ctx is done
func (o *Outbox) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	o.logger.Info("Sync worker started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			o.logger.Info("Sync worker stopped")
			return
		case <-ticker.C:
		case <-o.kick:
		}

		result, err := o.Flush(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			o.logger.Error("Sync flush failed", zap.Error(err))
		}
		if result.Sent+result.Failed+result.Retry > 0 {
			o.logger.Info("Sync flush complete",
				zap.Int("sent", result.Sent),
				zap.Int("failed", result.Failed),
				zap.Int("retry", result.Retry))
		}
	}
}

// index finds an entry by id; callers hold o.mu
func (o *Outbox) index(id string) int {
	return slices.IndexFunc(o.entries, func(e Entry) bool { return e.ID == id })
}

// persist writes the whole queue; callers hold o.mu
func (o *Outbox) persist(ctx context.Context) error {
	data, err := json.Marshal(o.entries)
	if err != nil {
		return fmt.Errorf("failed to encode outbox: %w", err)
	}
	if err := o.backend.Put(ctx, db.KeyOutbox, data); err != nil {
		return fmt.Errorf("failed to save outbox: %w", err)
	}
	return nil
}
