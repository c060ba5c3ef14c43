// Package export renders team snapshots and their evaluations into immutable
// artifacts stored in a blob backend. Exports run asynchronously on a single
// worker goroutine; callers poll the record by id.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pokeroster/internal/blob"
	"pokeroster/internal/core"
	"pokeroster/pkg/domain"
)

// Format identifies an artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Status describes the lifecycle stage of an export request.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Artifact captures one stored export object.
type Artifact struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record tracks an export request and its resulting artifacts.
type Record struct {
	ID          string     `json:"id"`
	TeamID      int64      `json:"team_id"`
	Formats     []Format   `json:"formats"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	RequestedBy string     `json:"requested_by,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (r Record) copy() Record {
	out := r
	out.Formats = append([]Format(nil), r.Formats...)
	out.Artifacts = append([]Artifact(nil), r.Artifacts...)
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// Input represents an enqueue request.
type Input struct {
	TeamID      int64
	Formats     []Format
	RequestedBy string
	Reason      string
}

// AuditEntry is one line of the export audit trail.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor,omitempty"`
	TeamID     int64     `json:"team_id"`
	Status     Status    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AuditLogger receives an entry for every export state change.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MemoryAuditLog is an in-process AuditLogger for tests and dev.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// NewMemoryAuditLog returns an empty audit log.
func NewMemoryAuditLog() *MemoryAuditLog { return &MemoryAuditLog{} }

// Record appends the entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the recorded entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]AuditEntry(nil), l.entries...)
}

type task struct {
	id    string
	input Input
}

// Worker executes team exports asynchronously.
type Worker struct {
	svc   *core.Service
	store blob.Store
	audit AuditLogger

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker constructs an export worker over the given service and blob store.
func NewWorker(svc *core.Service, store blob.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		svc:    svc,
		store:  store,
		audit:  audit,
		queue:  make(chan task, 32),
		jobs:   make(map[string]*Record),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the background processing loop.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop asks the loop to finish and blocks until it has.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue schedules an export job and returns the queued record. The team
// must exist at enqueue time.
func (w *Worker) Enqueue(ctx context.Context, input Input) (Record, error) {
	if _, ok := w.svc.Store().GetTeam(input.TeamID); !ok {
		return Record{}, domain.ErrNotFound{Entity: domain.EntityTeam, ID: strconv.FormatInt(input.TeamID, 10)}
	}
	formats := input.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatCSV}
	}
	uniq := make([]Format, 0, len(formats))
	seen := make(map[Format]struct{})
	for _, f := range formats {
		if f != FormatJSON && f != FormatCSV {
			return Record{}, fmt.Errorf("unsupported export format %s", f)
		}
		if _, dup := seen[f]; dup {
			continue
		}
		uniq = append(uniq, f)
		seen[f] = struct{}{}
	}

	now := time.Now().UTC()
	record := Record{
		ID:          uuid.NewString(),
		TeamID:      input.TeamID,
		Formats:     uniq,
		Status:      StatusQueued,
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[record.ID] = &record
	queued := record.copy()
	w.mu.Unlock()

	if w.audit != nil {
		w.audit.Record(ctx, AuditEntry{
			ID:         uuid.NewString(),
			Action:     "team_export",
			Actor:      input.RequestedBy,
			TeamID:     input.TeamID,
			Status:     StatusQueued,
			Reason:     input.Reason,
			OccurredAt: now,
		})
	}

	select {
	case w.queue <- task{id: record.ID, input: input}:
	default:
		// The record must not linger as queued when no task carries it.
		w.mu.Lock()
		delete(w.jobs, record.ID)
		w.mu.Unlock()
		return Record{}, fmt.Errorf("export queue full")
	}
	return queued, nil
}

// Get returns a snapshot of the export record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

// payload is the JSON artifact body: the assembled roster plus its evaluation.
type payload struct {
	Team       core.Team             `json:"team"`
	Members    []core.CreatureRecord `json:"members"`
	Evaluation core.TeamEvaluation   `json:"evaluation"`
	ExportedAt time.Time             `json:"exported_at"`
}

func (w *Worker) process(t task) {
	w.updateStatus(t.id, StatusRunning, "")

	snap, err := w.svc.Snapshot(w.ctx, t.input.TeamID)
	if err != nil {
		w.fail(t.id, t.input, fmt.Sprintf("assemble team: %v", err))
		return
	}
	eval, err := w.svc.Evaluate(w.ctx, t.input.TeamID)
	if err != nil {
		w.fail(t.id, t.input, fmt.Sprintf("evaluate team: %v", err))
		return
	}

	record, ok := w.Get(t.id)
	if !ok {
		return
	}
	var artifacts []Artifact
	for _, format := range record.Formats {
		var body []byte
		var contentType string
		switch format {
		case FormatJSON:
			body, err = json.MarshalIndent(payload{
				Team:       snap.Team,
				Members:    snap.Members,
				Evaluation: eval,
				ExportedAt: time.Now().UTC(),
			}, "", "  ")
			contentType = "application/json"
		case FormatCSV:
			body, err = renderCSV(snap.Members)
			contentType = "text/csv"
		}
		if err != nil {
			w.fail(t.id, t.input, fmt.Sprintf("render %s: %v", format, err))
			return
		}
		artifactID := uuid.NewString()
		key := fmt.Sprintf("exports/team-%d/%s.%s", t.input.TeamID, artifactID, format)
		info, err := w.store.Put(w.ctx, key, bytes.NewReader(body), blob.PutOptions{
			ContentType: contentType,
			Metadata:    map[string]string{"team_id": strconv.FormatInt(t.input.TeamID, 10), "export_id": t.id},
		})
		if err != nil {
			w.fail(t.id, t.input, fmt.Sprintf("store %s artifact: %v", format, err))
			return
		}
		artifacts = append(artifacts, Artifact{
			ID:          artifactID,
			Key:         info.Key,
			Format:      format,
			ContentType: contentType,
			SizeBytes:   info.Size,
			URL:         info.URL,
			CreatedAt:   info.LastModified,
		})
	}

	now := time.Now().UTC()
	w.mu.Lock()
	if rec, ok := w.jobs[t.id]; ok {
		rec.Status = StatusSucceeded
		rec.Artifacts = artifacts
		rec.UpdatedAt = now
		rec.CompletedAt = &now
	}
	w.mu.Unlock()
	if w.audit != nil {
		w.audit.Record(w.ctx, AuditEntry{
			ID:         uuid.NewString(),
			Action:     "team_export",
			Actor:      t.input.RequestedBy,
			TeamID:     t.input.TeamID,
			Status:     StatusSucceeded,
			OccurredAt: now,
		})
	}
}

func (w *Worker) updateStatus(id string, status Status, msg string) {
	now := time.Now().UTC()
	w.mu.Lock()
	defer w.mu.Unlock()
	rec, ok := w.jobs[id]
	if !ok {
		return
	}
	rec.Status = status
	rec.Error = msg
	rec.UpdatedAt = now
}

func (w *Worker) fail(id string, input Input, msg string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if rec, ok := w.jobs[id]; ok {
		rec.Status = StatusFailed
		rec.Error = msg
		rec.UpdatedAt = now
		rec.CompletedAt = &now
	}
	w.mu.Unlock()
	if w.audit != nil {
		w.audit.Record(w.ctx, AuditEntry{
			ID:         uuid.NewString(),
			Action:     "team_export",
			Actor:      input.RequestedBy,
			TeamID:     input.TeamID,
			Status:     StatusFailed,
			Reason:     msg,
			OccurredAt: now,
		})
	}
}

func renderCSV(members []core.CreatureRecord) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	header := []string{"id", "name", "types", "hp", "attack", "defense", "speed", "total", "tier"}
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	for _, m := range members {
		row := []string{
			strconv.FormatInt(m.ID, 10),
			m.Name,
			strings.Join(m.Types, "|"),
			strconv.Itoa(m.Stats.HP),
			strconv.Itoa(m.Stats.Attack),
			strconv.Itoa(m.Stats.Defense),
			strconv.Itoa(m.Stats.Speed),
			strconv.Itoa(core.TotalStats(m)),
			string(core.TierOf(m)),
		}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
