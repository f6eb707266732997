// Package seed fills an empty database with demo departments and equipment.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"asset-tracker-backend/internal/model"
	"asset-tracker-backend/internal/status"
	"asset-tracker-backend/internal/store"
)

var DepartmentNames = []string{
	"人力资源部", "党委办", "客户经理部", "计划财务部", "监察室",
}

var EquipmentNames = []string{
	"打印机", "饮水机", "打火机", "灯泡", "水杯", "手机", "充电器", "电池", "电话", "电脑", "显示器", "键盘",
	"鼠标", "水壶", "桌子", "椅子", "风扇", "插座", "插头", "手表", "现金", "银行卡", "饮料", "白酒", "菜叶",
	"胸卡", "一卡通", "门禁卡", "耳机",
}

// Seeder writes the demo data set.
type Seeder struct {
	store  store.Store
	rng    *rand.Rand
	now    func() time.Time
	logger *zap.Logger
}

// NewSeeder creates a seeder drawing models, codes and departments from rng.
func NewSeeder(s store.Store, rng *rand.Rand, logger *zap.Logger) *Seeder {
	return &Seeder{store: s, rng: rng, now: time.Now, logger: logger}
}

// Run seeds the database unless it already has departments. It reports whether anything was written.
func (sd *Seeder) Run(ctx context.Context) (bool, error) {
	n, err := sd.store.CountDepartments(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count departments: %w", err)
	}
	if n > 0 {
		sd.logger.Info("Database already has departments, skipping seed", zap.Int64("departments", n))
		return false, nil
	}

	today := sd.now().UTC().Truncate(24 * time.Hour)
	err = sd.store.WithTx(ctx, func(tx store.Store) error {
		depts := make([]*model.Department, 0, len(DepartmentNames))
		for _, name := range DepartmentNames {
			dept := &model.Department{Name: name}
			if err := tx.InsertDepartment(ctx, dept); err != nil {
				return err
			}
			depts = append(depts, dept)
		}

		for _, name := range EquipmentNames {
			date := today
			eq := &model.Equipment{
				Name:         name,
				Model:        fmt.Sprintf("DN%d", sd.rng.IntN(10)),
				Code:         fmt.Sprintf("SN%d", 100+sd.rng.IntN(900)),
				Status:       status.New,
				Date:         &date,
				DepartmentID: depts[sd.rng.IntN(len(depts))].ID,
			}
			if err := tx.InsertEquipment(ctx, eq); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	sd.logger.Info("Seeded database",
		zap.Int("departments", len(DepartmentNames)),
		zap.Int("equipment", len(EquipmentNames)),
	)
	return true, nil
}
