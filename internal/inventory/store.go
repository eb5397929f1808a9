package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sshcollectorpro/sysvers/internal/database"
	"github.com/sshcollectorpro/sysvers/internal/detect"
	"github.com/sshcollectorpro/sysvers/internal/model"
)

// Store 本地 SQLite 清单与检查历史
type Store struct {
	db *gorm.DB
}

// NewStore 基于已迁移的数据库创建
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// List 列出本地清单（按名称排序）
func (s *Store) List(ctx context.Context) ([]Descriptor, error) {
	var rows []model.Device
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	out := make([]Descriptor, 0, len(rows))
	for _, r := range rows {
		out = append(out, Descriptor{
			ID:              fmt.Sprint(r.ID),
			Name:            r.Name,
			Port:            r.Port,
			Family:          model.Family(r.Family),
			RecordedVersion: r.RecordedVersion,
		})
	}
	return out, nil
}

// Upsert 按名称新增或更新设备
func (s *Store) Upsert(ctx context.Context, d Descriptor) error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return fmt.Errorf("device name is empty")
	}
	if d.Family != "" && !d.Family.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownFamily, d.Family)
	}
	port := d.Port
	if port <= 0 {
		port = model.DefaultSSHPort
	}
	row := model.Device{
		Name:            name,
		Port:            port,
		Family:          string(d.Family),
		RecordedVersion: d.RecordedVersion,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"port", "family", "recorded_version", "updated_at"}),
	}).Create(&row).Error
}

// Delete 按名称删除设备
func (s *Store) Delete(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("name = ?", name).Delete(&model.Device{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("device %q not found", name)
	}
	return nil
}

// RecordResults 写入一次批量检查的结果。
// recorded 为检查前各主机已记录的版本，用于计算漂移；
// 成功的主机同时更新清单中的设备族与记录版本（只记版本号，不记整段回显）。
func (s *Store) RecordResults(ctx context.Context, runID string, results map[string]model.Result, recorded map[string]string) error {
	if len(results) == 0 {
		return nil
	}
	hosts := make([]string, 0, len(results))
	for h := range results {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	now := time.Now()
	records := make([]model.CheckRecord, 0, len(hosts))
	for _, h := range hosts {
		r := results[h]
		records = append(records, model.CheckRecord{
			RunID:     runID,
			Host:      h,
			Family:    string(r.Family),
			Command:   r.Command,
			Class:     string(r.Class),
			Output:    r.Output,
			Detail:    r.Detail,
			Drift:     detect.Drift(r, recorded[h]),
			CheckedAt: now,
		})
	}

	return database.TransactionWithRetry(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Create(&records).Error; err != nil {
			return err
		}
		for _, h := range hosts {
			r := results[h]
			if !r.OK() {
				continue
			}
			row := model.Device{Name: h, Port: model.DefaultSSHPort, RecordedVersion: detect.ExtractVersion(r.Family, r.Output)}
			cols := []string{"recorded_version", "updated_at"}
			if r.Family.Valid() {
				row.Family = string(r.Family)
				cols = append(cols, "family")
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns(cols),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}
		return nil
	}, 3, 0)
}

// History 某台主机最近的检查记录（新的在前）
func (s *Store) History(ctx context.Context, host string, limit int) ([]model.CheckRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []model.CheckRecord
	err := s.db.WithContext(ctx).
		Where("host = ?", host).
		Order("checked_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
