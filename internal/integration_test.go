package internal

import (
	"bytes"
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asset-tracker-backend/config"
	"asset-tracker-backend/internal/audit"
	"asset-tracker-backend/internal/db"
	"asset-tracker-backend/internal/importer"
	"asset-tracker-backend/internal/inventory"
	"asset-tracker-backend/internal/model"
	"asset-tracker-backend/internal/seed"
	"asset-tracker-backend/internal/sheet"
	"asset-tracker-backend/internal/status"
	"asset-tracker-backend/internal/store"
	"asset-tracker-backend/internal/testutil"
)

// TestEquipmentLifecycle drives equipment from an inbox workbook through
// update and delete, and checks the audit trail and entity state at each step.
func TestEquipmentLifecycle(t *testing.T) {
	// --- Test Setup ---

	// 1. A file-backed SQLite database, opened the way the service opens it.
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.DSN = "file:" + filepath.Join(dir, "assets.sqlite") + "?_foreign_keys=on"
	cfg.Database.LogLevel = "silent"
	cfg.Importer.InboxDir = filepath.Join(dir, "inbox")
	cfg.Importer.InboxEnabled = true
	require.NoError(t, os.MkdirAll(cfg.Importer.InboxDir, 0o755))

	logger := zap.NewNop()
	gormDB, err := db.Init(&cfg.Database, logger)
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	s := store.NewGormStore(gormDB)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Import queue and inbox watcher.
	queue := importer.NewQueue(cfg.Importer.Workers, importer.NewPipeline(s, logger), logger)
	queue.Start(ctx)
	watcher := importer.NewWatcher(&cfg.Importer, queue, logger)

	// 3. Drop a workbook into the inbox.
	wb := testutil.Workbook(t,
		[]any{"序号", "部门名称", "设备名称", "设备型号", "设备编码", "状态", "购买日期"},
		[]any{1, "计划 财务部", "保险柜", "DN3", "SN303", "报废", time.Date(2018, 1, 5, 0, 0, 0, 0, time.UTC)},
		[]any{2, "计划财务部", "点钞机", "DN4", "SN404", "新增", time.Date(2019, 3, 2, 0, 0, 0, 0, time.UTC)},
		[]any{3, "监察室", "打印机", "DN1", "SN101", "维修中", "unknown"},
	)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Importer.InboxDir, "batch.xlsx"), wb.Bytes(), 0o644))

	// --- Import ---
	imported, err := watcher.ScanOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)

	depts, err := s.ListDepartments(ctx)
	require.NoError(t, err)
	counts := map[string]int64{}
	for _, d := range depts {
		counts[d.Name] = d.EquipmentCount
	}
	assert.Equal(t, map[string]int64{"计划财务部": 2, "监察室": 1}, counts)

	items, _, err := s.ListEquipment(ctx, store.EquipmentFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, eq := range items {
		assert.Equal(t, status.InUse, eq.Status)
	}
	assert.Nil(t, items[2].Date, "unparsable date cell is stored as absent")

	entries, _, err := s.ListAuditLogs(ctx, store.AuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries, "imports are not audited")

	// --- Update and delete through the service ---
	svc := inventory.NewService(s, audit.NewRecorder(), logger)

	safe := items[0]
	remark := "移交档案室"
	_, err = svc.Update(ctx, safe.ID, inventory.EquipmentInput{
		Name: safe.Name, Model: safe.Model, Code: safe.Code,
		Status: status.Retired, Date: safe.Date, Remark: &remark, DepartmentID: safe.DepartmentID,
	})
	require.NoError(t, err)

	undated := items[2]
	err = svc.Delete(ctx, undated.ID)
	assert.ErrorIs(t, err, audit.ErrMissingDate, "an undated record cannot be audited, so it is not deleted")

	require.NoError(t, svc.Delete(ctx, items[1].ID))

	entries, total, err := s.ListAuditLogs(ctx, store.AuditFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	first, err := audit.Decode(&entries[0])
	require.NoError(t, err)
	assert.Equal(t, audit.Payload{
		Operation: "更新", ID: safe.ID, Name: "保险柜", Code: "SN303", Model: "DN3",
		Date: "2018-01-05", Status: "报废", Department: "计划财务部", Remark: "移交档案室",
	}, first)

	second, err := audit.Decode(&entries[1])
	require.NoError(t, err)
	assert.Equal(t, "删除", second.Operation)
	assert.Equal(t, "点钞机", second.Name)
	assert.True(t, entries[1].Timestamp.After(entries[0].Timestamp))

	// Audit rows cannot be rewritten.
	assert.ErrorIs(t, gormDB.Delete(&entries[0]).Error, model.ErrAuditImmutable)
}

// TestExportReimport checks that an export can be imported again unchanged.
func TestExportReimport(t *testing.T) {
	source := store.NewGormStore(testutil.OpenDB(t))
	target := store.NewGormStore(testutil.OpenDB(t))
	ctx := context.Background()

	seeded, err := seed.NewSeeder(source, rand.New(rand.NewPCG(7, 7)), zap.NewNop()).Run(ctx)
	require.NoError(t, err)
	require.True(t, seeded)

	items, total, err := source.ListEquipment(ctx, store.EquipmentFilter{Limit: 100})
	require.NoError(t, err)

	buf, err := sheet.WriteEquipment(items)
	require.NoError(t, err)

	rows, err := sheet.ReadRows(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	count, err := importer.NewPipeline(target, zap.NewNop()).ImportAll(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, int(total), count)

	copied, _, err := target.ListEquipment(ctx, store.EquipmentFilter{Limit: 100})
	require.NoError(t, err)
	require.Len(t, copied, len(items))
	for i := range items {
		assert.Equal(t, items[i].Name, copied[i].Name)
		assert.Equal(t, items[i].Code, copied[i].Code)
		assert.Equal(t, items[i].Department.Name, copied[i].Department.Name)
		require.NotNil(t, copied[i].Date)
		assert.True(t, items[i].Date.Equal(*copied[i].Date))
	}
}
