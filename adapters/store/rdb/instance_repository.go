package rdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kompox/modelops/domain"
	"github.com/kompox/modelops/domain/model"
	"github.com/kompox/modelops/internal/naming"
	"gorm.io/gorm"
)

// InstanceRepository is a GORM-backed implementation of domain.InstanceRepository.
type InstanceRepository struct{ db *gorm.DB }

func NewInstanceRepository(db *gorm.DB) *InstanceRepository { return &InstanceRepository{db: db} }

func instanceToRecord(s *model.ServiceInstance) *InstanceRecord {
	return &InstanceRecord{
		ID: s.ID, WorkloadID: s.WorkloadID, Level: s.Level, Version: s.Version, ModelID: s.ModelID,
		Image: s.Image, Host: s.Host, Port: s.Port, LiveAt: s.LiveAt.UTC(), CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}
func instanceToModel(r *InstanceRecord) *model.ServiceInstance {
	return &model.ServiceInstance{
		ID: r.ID, WorkloadID: r.WorkloadID, Level: r.Level, Version: r.Version, ModelID: r.ModelID,
		Image: r.Image, Host: r.Host, Port: r.Port, LiveAt: r.LiveAt, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// Create stores s. Instance IDs end up in cluster object names, so an empty
// ID is filled with a compact DNS-safe ID.
func (r *InstanceRepository) Create(ctx context.Context, s *model.ServiceInstance) error {
	if s.ID == "" {
		id, err := naming.NewCompactID()
		if err != nil {
			return fmt.Errorf("generate instance id: %w", err)
		}
		s.ID = id
	}
	return r.db.WithContext(ctx).Create(instanceToRecord(s)).Error
}

func (r *InstanceRepository) Get(ctx context.Context, id string) (*model.ServiceInstance, error) {
	var rec InstanceRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrInstanceNotFound
		}
		return nil, err
	}
	return instanceToModel(&rec), nil
}

func (r *InstanceRepository) List(ctx context.Context, workloadID, level string) ([]*model.ServiceInstance, error) {
	q := r.db.WithContext(ctx).Where("workload_id = ?", workloadID)
	if level != "" {
		q = q.Where("level = ?", level)
	}
	var recs []InstanceRecord
	if err := q.Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.ServiceInstance, 0, len(recs))
	for i := range recs {
		out = append(out, instanceToModel(&recs[i]))
	}
	return out, nil
}

func (r *InstanceRepository) Update(ctx context.Context, s *model.ServiceInstance) error {
	rec := instanceToRecord(s)
	res := r.db.WithContext(ctx).Model(&InstanceRecord{}).Where("id = ?", rec.ID).Select("*").Omit("id", "created_at").Updates(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrInstanceNotFound
	}
	return nil
}

func (r *InstanceRepository) Touch(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&InstanceRecord{}).Where("id = ?", id).Update("live_at", at.UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrInstanceNotFound
	}
	return nil
}

func (r *InstanceRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&InstanceRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrInstanceNotFound
	}
	return nil
}

func (r *InstanceRepository) DeleteStale(ctx context.Context, workloadID string, before time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&InstanceRecord{}).Where("workload_id = ? AND live_at < ?", workloadID, before.UTC()).Order("created_at ASC").Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Delete(&InstanceRecord{}, "id IN ?", ids).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

var _ domain.InstanceRepository = (*InstanceRepository)(nil)
