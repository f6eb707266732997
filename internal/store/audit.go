package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"asset-tracker-backend/internal/model"
)

// AppendAuditLog inserts a new audit entry. Entries are never updated or deleted.
func (s *gormStore) AppendAuditLog(ctx context.Context, entry *model.AuditLogEntry) error {
	if entry.ID != 0 {
		return fmt.Errorf("audit entry %d already persisted: %w", entry.ID, model.ErrAuditImmutable)
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append audit log entry: %w", err)
	}
	return nil
}

// ListAuditLogs returns one page of entries in timestamp order, and the total match count.
func (s *gormStore) ListAuditLogs(ctx context.Context, filter AuditFilter) ([]model.AuditLogEntry, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.AuditLogEntry{})
	if !filter.Since.IsZero() {
		query = query.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where("timestamp < ?", filter.Until)
	}
	if filter.Contains != "" {
		query = query.Where("content LIKE ?", "%"+filter.Contains+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit log entries: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	entries := make([]model.AuditLogEntry, 0)
	if err := query.Order("timestamp ASC").Order("id ASC").Limit(limit).Offset(filter.Offset).Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit log entries: %w", err)
	}
	return entries, total, nil
}
