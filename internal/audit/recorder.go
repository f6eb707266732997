// Package audit turns equipment mutations into append-only log entries.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/datatypes"

	"asset-tracker-backend/internal/model"
	"asset-tracker-backend/internal/status"
)

// DateLayout is the purchase date format used in payloads.
const DateLayout = "2006-01-02"

// ErrMissingDate is returned when the audited equipment carries no purchase date.
var ErrMissingDate = errors.New("audited equipment has no purchase date")

// Operation is the kind of equipment mutation being recorded.
type Operation int

const (
	Created Operation = iota
	Updated
	Deleted
)

var operationLabels = [...]string{
	Created: "创建",
	Updated: "更新",
	Deleted: "删除",
}

func (o Operation) String() string {
	if o < 0 || int(o) >= len(operationLabels) {
		return fmt.Sprintf("Operation(%d)", int(o))
	}
	return operationLabels[o]
}

// Payload is the serialized content of an entry. Field order and labels are
// consumed by downstream tools and must not change.
type Payload struct {
	Operation  string `json:"操作"`
	ID         int64  `json:"设备ID"`
	Name       string `json:"设备名称"`
	Code       string `json:"设备编码"`
	Model      string `json:"设备型号"`
	Date       string `json:"购买日期"`
	Status     string `json:"状态"`
	Department string `json:"部门名称"`
	Remark     string `json:"备注"`
}

// Appender persists audit entries.
type Appender interface {
	AppendAuditLog(ctx context.Context, entry *model.AuditLogEntry) error
}

// Recorder builds audit entries and appends the ones that are persisted.
// Timestamps it assigns are strictly increasing.
type Recorder struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewRecorder creates a recorder stamping entries with the wall clock.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// encodePayload writes p as compact JSON with <, > and & kept literal, so
// substring searches over the stored content match what the user typed.
func encodePayload(p Payload) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// BuildPayload renders the labeled snapshot of eq for op. eq.Department must be loaded.
func BuildPayload(op Operation, eq *model.Equipment) (Payload, error) {
	if eq.Date == nil {
		return Payload{}, fmt.Errorf("equipment %d: %w", eq.ID, ErrMissingDate)
	}
	label, err := status.Translate(eq.Status)
	if err != nil {
		return Payload{}, fmt.Errorf("equipment %d: %w", eq.ID, err)
	}
	remark := ""
	if eq.Remark != nil {
		remark = *eq.Remark
	}
	return Payload{
		Operation:  op.String(),
		ID:         eq.ID,
		Name:       eq.Name,
		Code:       eq.Code,
		Model:      eq.Model,
		Date:       eq.Date.Format(DateLayout),
		Status:     label,
		Department: eq.Department.Name,
		Remark:     remark,
	}, nil
}

// Record builds the entry for op on eq. Updated and Deleted entries are appended
// through app before returning; Created entries are returned without being persisted.
func (r *Recorder) Record(ctx context.Context, app Appender, op Operation, eq *model.Equipment) (*model.AuditLogEntry, error) {
	payload, err := BuildPayload(op, eq)
	if err != nil {
		return nil, err
	}
	content, err := encodePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit payload: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := &model.AuditLogEntry{
		Content:   datatypes.JSON(content),
		Timestamp: r.nextTimestamp(),
	}
	if op == Created {
		return entry, nil
	}
	if err := app.AppendAuditLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record %s of equipment %d: %w", op, eq.ID, err)
	}
	return entry, nil
}

// nextTimestamp must be called with mu held.
func (r *Recorder) nextTimestamp() time.Time {
	ts := r.now().UTC()
	if !ts.After(r.last) {
		ts = r.last.Add(time.Microsecond)
	}
	r.last = ts
	return ts
}

// Decode parses stored entry content back into a Payload.
func Decode(entry *model.AuditLogEntry) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(entry.Content, &p); err != nil {
		return Payload{}, fmt.Errorf("failed to decode audit entry %d: %w", entry.ID, err)
	}
	return p, nil
}
