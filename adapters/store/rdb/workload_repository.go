package rdb

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kompox/modelops/domain"
	"github.com/kompox/modelops/domain/model"
	"gorm.io/gorm"
)

// WorkloadRepository is a GORM-backed implementation of domain.WorkloadRepository.
type WorkloadRepository struct{ db *gorm.DB }

func NewWorkloadRepository(db *gorm.DB) *WorkloadRepository { return &WorkloadRepository{db: db} }

func workloadToRecord(w *model.Workload) *WorkloadRecord {
	return &WorkloadRecord{ID: w.ID, ProjectID: w.ProjectID, Name: w.Name, Description: w.Description, LiveAt: w.LiveAt.UTC(), CreatedAt: w.CreatedAt, UpdatedAt: w.UpdatedAt}
}
func workloadToModel(r *WorkloadRecord) *model.Workload {
	return &model.Workload{ID: r.ID, ProjectID: r.ProjectID, Name: r.Name, Description: r.Description, LiveAt: r.LiveAt, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func (r *WorkloadRepository) Create(ctx context.Context, w *model.Workload) error {
	rec := workloadToRecord(w)
	if rec.ID == "" {
		rec.ID = "wl-" + uuid.NewString()
		w.ID = rec.ID
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isDuplicate(err) {
			return model.ErrWorkloadExists
		}
		return err
	}
	return nil
}

func (r *WorkloadRepository) Get(ctx context.Context, id string) (*model.Workload, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *WorkloadRepository) GetByName(ctx context.Context, projectID, name string) (*model.Workload, error) {
	return r.first(ctx, "project_id = ? AND name = ?", projectID, name)
}

func (r *WorkloadRepository) first(ctx context.Context, query string, args ...any) (*model.Workload, error) {
	var rec WorkloadRecord
	if err := r.db.WithContext(ctx).Where(query, args...).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrWorkloadNotFound
		}
		return nil, err
	}
	return workloadToModel(&rec), nil
}

func (r *WorkloadRepository) List(ctx context.Context, projectID string) ([]*model.Workload, error) {
	var recs []WorkloadRecord
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.Workload, 0, len(recs))
	for i := range recs {
		out = append(out, workloadToModel(&recs[i]))
	}
	return out, nil
}

func (r *WorkloadRepository) Touch(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&WorkloadRecord{}).Where("id = ?", id).Update("live_at", at.UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrWorkloadNotFound
	}
	return nil
}

func (r *WorkloadRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&InstanceRecord{}).Where("workload_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return model.ErrWorkloadInUse
		}
		res := tx.Delete(&WorkloadRecord{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrWorkloadNotFound
		}
		return tx.Delete(&ArtifactRecord{}, "workload_id = ?", id).Error
	})
}

func (r *WorkloadRepository) DeleteStale(ctx context.Context, projectID string, before time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&WorkloadRecord{}).Where("project_id = ? AND live_at < ?", projectID, before.UTC()).Order("created_at ASC").Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Delete(&InstanceRecord{}, "workload_id IN ?", ids).Error; err != nil {
			return err
		}
		if err := tx.Delete(&ArtifactRecord{}, "workload_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Delete(&WorkloadRecord{}, "id IN ?", ids).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

var _ domain.WorkloadRepository = (*WorkloadRepository)(nil)
