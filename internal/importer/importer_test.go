package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"asset-tracker-backend/config"
	"asset-tracker-backend/internal/model"
	"asset-tracker-backend/internal/parse"
	"asset-tracker-backend/internal/status"
	"asset-tracker-backend/internal/store"
	"asset-tracker-backend/internal/testutil"
)

var header = parse.Row{"序号", "部门名称", "设备名称", "设备型号", "设备编码", "状态", "购买日期"}

func countRows(t *testing.T, db *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func TestPipeline_ImportAll(t *testing.T) {
	testCases := []struct {
		name          string
		existing      []string
		rows          []parse.Row
		expectedCount int
		expectedDepts []string
	}{
		{
			name: "Whitespace variants resolve to one new department",
			rows: []parse.Row{
				header,
				{"1", "信息 中心", "打印机", "DN1", "SN101", "3", "43105"},
				{"2", " 信息中心\t", "扫描仪", "DN2", "SN102", "0", "43106"},
			},
			expectedCount: 2,
			expectedDepts: []string{"信息中心"},
		},
		{
			name:     "Existing department is reused",
			existing: []string{"财务部"},
			rows: []parse.Row{
				header,
				{"1", "财务 部", "保险柜", "DN3", "SN303", "1", "43105"},
				{"2", "后勤部", "空调", "DN4", "SN404", "1", "43105"},
			},
			expectedCount: 2,
			expectedDepts: []string{"后勤部", "财务部"},
		},
		{
			name:          "Header only imports nothing",
			rows:          []parse.Row{header},
			expectedCount: 0,
			expectedDepts: []string{},
		},
		{
			name: "Short rows and bad dates are tolerated",
			rows: []parse.Row{
				header,
				{"1", "行政部", "投影仪"},
				{"2", "行政部", "白板", "DN5", "SN505", "2", "不是日期"},
			},
			expectedCount: 2,
			expectedDepts: []string{"行政部"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := testutil.OpenDB(t)
			s := store.NewGormStore(db)
			ctx := context.Background()
			for _, name := range tc.existing {
				require.NoError(t, s.InsertDepartment(ctx, &model.Department{Name: name}))
			}

			count, err := NewPipeline(s, zap.NewNop()).ImportAll(ctx, tc.rows)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedCount, count)

			var names []string
			require.NoError(t, db.Model(&model.Department{}).Order("name").Pluck("name", &names).Error)
			assert.ElementsMatch(t, tc.expectedDepts, names)

			items, total, err := s.ListEquipment(ctx, store.EquipmentFilter{})
			require.NoError(t, err)
			assert.Equal(t, int64(tc.expectedCount), total)
			for _, eq := range items {
				assert.Equal(t, status.InUse, eq.Status, "imported status is always in use")
			}
		})
	}
}

func TestPipeline_ImportAll_Dates(t *testing.T) {
	db := testutil.OpenDB(t)
	s := store.NewGormStore(db)
	ctx := context.Background()

	rows := []parse.Row{
		header,
		{"1", "信息中心", "打印机", "DN1", "SN101", "1", "43105"},
		{"2", "信息中心", "扫描仪", "DN2", "SN102", "1", "garbage"},
	}
	_, err := NewPipeline(s, zap.NewNop()).ImportAll(ctx, rows)
	require.NoError(t, err)

	first, err := s.GetEquipment(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, first.Date)
	assert.Equal(t, "2018-01-05", first.Date.UTC().Format("2006-01-02"))

	second, err := s.GetEquipment(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, second.Date)
}

func TestPipeline_ImportAll_IsAtomic(t *testing.T) {
	db := testutil.OpenDB(t)
	s := store.NewGormStore(db)

	var inserts int32
	injected := errors.New("injected insert failure")
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_sixth_equipment", func(tx *gorm.DB) {
		if tx.Statement.Table == "equipment" && atomic.AddInt32(&inserts, 1) == 6 {
			tx.AddError(injected)
		}
	}))

	rows := []parse.Row{header}
	depts := []string{"信息中心", "财务部", "后勤部"}
	for i := 0; i < 10; i++ {
		rows = append(rows, parse.Row{"", depts[i%len(depts)], "打印机", "DN1", "SN100", "1", "43105"})
	}

	count, err := NewPipeline(s, zap.NewNop()).ImportAll(context.Background(), rows)
	assert.ErrorIs(t, err, injected)
	assert.Zero(t, count)

	assert.Zero(t, countRows(t, db, &model.Department{}))
	assert.Zero(t, countRows(t, db, &model.Equipment{}))
}

func TestResolver_ConcurrentResolution(t *testing.T) {
	s := store.NewGormStore(testutil.OpenDB(t))
	r := NewResolver(s)
	ctx := context.Background()

	const workers = 16
	results := make([]*model.Department, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "信息中心"
			if i%2 == 0 {
				name = " 信息 中心 "
			}
			dept, err := r.Resolve(ctx, name)
			assert.NoError(t, err)
			results[i] = dept
		}(i)
	}
	wg.Wait()

	for _, d := range results {
		assert.Same(t, results[0], d)
	}
	assert.Equal(t, 1, r.Created())

	n, err := s.CountDepartments(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

type stubStore struct {
	findErr error
}

func (s *stubStore) FindDepartmentByName(context.Context, string) (*model.Department, error) {
	return nil, s.findErr
}

func (s *stubStore) InsertDepartment(context.Context, *model.Department) error {
	return store.ErrDuplicateDepartmentName
}

func TestResolver_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		findErr     error
		expectedErr error
	}{
		{name: "Unique violation on insert is fatal", findErr: store.ErrNotFound, expectedErr: store.ErrDuplicateDepartmentName},
		{name: "Lookup failure is surfaced", findErr: gorm.ErrInvalidDB, expectedErr: gorm.ErrInvalidDB},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolver(&stubStore{findErr: tc.findErr})
			_, err := r.Resolve(context.Background(), "财务部")
			assert.ErrorIs(t, err, tc.expectedErr)
			assert.Zero(t, r.Created())
		})
	}
}

type countingImporter struct {
	active  int32
	maxSeen int32
	calls   int32
}

func (c *countingImporter) ImportAll(_ context.Context, rows []parse.Row) (int, error) {
	n := atomic.AddInt32(&c.active, 1)
	for {
		seen := atomic.LoadInt32(&c.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&c.maxSeen, seen, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&c.active, -1)
	atomic.AddInt32(&c.calls, 1)
	return len(rows) - 1, nil
}

func TestQueue_SerializesRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	imp := &countingImporter{}
	q := NewQueue(1, imp, zap.NewNop())
	q.Start(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, err := q.Submit(context.Background(), []parse.Row{header, {}, {}})
			assert.NoError(t, err)
			assert.Equal(t, 2, count)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), atomic.LoadInt32(&imp.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&imp.maxSeen))
}

func TestQueue_SubmitRespectsCallerContext(t *testing.T) {
	q := NewQueue(1, &countingImporter{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Submit(ctx, []parse.Row{header})
	assert.ErrorIs(t, err, context.Canceled)
}

// slowImporter delays each run so tests can act while it is in flight.
type slowImporter struct {
	next     Importer
	delay    time.Duration
	started  chan struct{}
	once     sync.Once
	finished int32
}

func newSlowImporter(next Importer, delay time.Duration) *slowImporter {
	return &slowImporter{next: next, delay: delay, started: make(chan struct{})}
}

func (s *slowImporter) ImportAll(ctx context.Context, rows []parse.Row) (int, error) {
	s.once.Do(func() { close(s.started) })
	time.Sleep(s.delay)
	n, err := s.next.ImportAll(ctx, rows)
	atomic.AddInt32(&s.finished, 1)
	return n, err
}

func TestQueue_StopWaitsForRunningImport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	imp := newSlowImporter(&countingImporter{}, 50*time.Millisecond)
	q := NewQueue(1, imp, zap.NewNop())
	q.Start(ctx)

	type outcome struct {
		count int
		err   error
	}
	running := make(chan outcome, 1)
	go func() {
		n, err := q.Submit(context.Background(), []parse.Row{header, {}})
		running <- outcome{n, err}
	}()
	<-imp.started

	waiting := make(chan outcome, 1)
	go func() {
		n, err := q.Submit(context.Background(), []parse.Row{header, {}})
		waiting <- outcome{n, err}
	}()
	require.Eventually(t, func() bool { return len(q.jobs) == 1 }, time.Second, time.Millisecond)

	q.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&imp.finished), "Stop returns only after the running import finished")

	got := <-running
	require.NoError(t, got.err)
	assert.Equal(t, 1, got.count)

	got = <-waiting
	assert.ErrorIs(t, got.err, ErrQueueStopped, "a job that never started is reported as not run")
	assert.Equal(t, int32(1), atomic.LoadInt32(&imp.finished))

	_, err := q.Submit(context.Background(), []parse.Row{header})
	assert.ErrorIs(t, err, ErrQueueStopped)
}

func TestWatcher_ScanOnce(t *testing.T) {
	dir := t.TempDir()
	s := store.NewGormStore(testutil.OpenDB(t))

	good := testutil.Workbook(t,
		[]any{"序号", "部门名称", "设备名称", "设备型号", "设备编码", "状态", "购买日期"},
		[]any{1, "信息中心", "打印机", "DN1", "SN101", "使用中", time.Date(2018, 1, 5, 0, 0, 0, 0, time.UTC)},
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.xlsx"), good.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xlsx"), []byte("not a workbook"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := NewQueue(1, NewPipeline(s, zap.NewNop()), zap.NewNop())
	q.Start(ctx)

	cfg := &config.ImporterConfig{InboxEnabled: true, InboxDir: dir, Interval: time.Minute}
	imported, err := NewWatcher(cfg, q, zap.NewNop()).ScanOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, imported)

	processed, err := os.ReadDir(filepath.Join(dir, processedDir))
	require.NoError(t, err)
	assert.Len(t, processed, 1)

	failed, err := os.ReadDir(filepath.Join(dir, failedDir))
	require.NoError(t, err)
	assert.Len(t, failed, 1)

	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err, "non-workbook files stay in the inbox")

	eq, err := s.GetEquipment(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, eq.Date)
	assert.Equal(t, "2018-01-05", eq.Date.UTC().Format("2006-01-02"))
}

func TestWatcher_ScanOnce_Shutdown(t *testing.T) {
	wb := testutil.Workbook(t,
		[]any{"序号", "部门名称", "设备名称", "设备型号", "设备编码", "状态", "购买日期"},
		[]any{1, "信息中心", "打印机", "DN1", "SN101", "使用中", time.Date(2018, 1, 5, 0, 0, 0, 0, time.UTC)},
	)

	testCases := []struct {
		name             string
		stopQueue        bool
		expectedImported int
		expectedErr      error
		expectedRows     int64
		expectedInbox    []string
		expectedMovedTo  string
	}{
		{
			name:             "Scan cancelled mid-run waits for the run and files the result",
			expectedImported: 1,
			expectedRows:     1,
			expectedMovedTo:  processedDir,
		},
		{
			name:          "Stopped queue leaves the file in the inbox",
			stopQueue:     true,
			expectedErr:   ErrQueueStopped,
			expectedInbox: []string{"batch.xlsx"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			gormDB := testutil.OpenDB(t)
			s := store.NewGormStore(gormDB)
			require.NoError(t, os.WriteFile(filepath.Join(dir, "batch.xlsx"), wb.Bytes(), 0o644))

			queueCtx, queueCancel := context.WithCancel(context.Background())
			defer queueCancel()
			imp := newSlowImporter(NewPipeline(s, zap.NewNop()), 100*time.Millisecond)
			q := NewQueue(1, imp, zap.NewNop())
			q.Start(queueCtx)
			if tc.stopQueue {
				q.Stop()
			}

			scanCtx, scanCancel := context.WithCancel(context.Background())
			defer scanCancel()
			go func() {
				select {
				case <-imp.started:
					time.Sleep(20 * time.Millisecond)
					scanCancel()
				case <-scanCtx.Done():
				}
			}()

			cfg := &config.ImporterConfig{InboxEnabled: true, InboxDir: dir, Interval: time.Minute}
			imported, err := NewWatcher(cfg, q, zap.NewNop()).ScanOnce(scanCtx)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.expectedImported, imported)
			assert.Equal(t, tc.expectedRows, countRows(t, gormDB, &model.Equipment{}))

			var inbox []string
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			for _, e := range entries {
				if !e.IsDir() {
					inbox = append(inbox, e.Name())
				}
			}
			assert.Equal(t, tc.expectedInbox, inbox)

			_, err = os.Stat(filepath.Join(dir, failedDir))
			assert.True(t, os.IsNotExist(err), "nothing is filed as failed")
			if tc.expectedMovedTo != "" {
				moved, err := os.ReadDir(filepath.Join(dir, tc.expectedMovedTo))
				require.NoError(t, err)
				assert.Len(t, moved, 1)
			}
		})
	}
}
