package rdb

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kompox/modelops/domain"
	"github.com/kompox/modelops/domain/model"
	"gorm.io/gorm"
)

// ArtifactRepository is a GORM-backed implementation of domain.ArtifactRepository.
type ArtifactRepository struct{ db *gorm.DB }

func NewArtifactRepository(db *gorm.DB) *ArtifactRepository { return &ArtifactRepository{db: db} }

func artifactToRecord(a *model.ModelArtifact) *ArtifactRecord {
	return &ArtifactRecord{ID: a.ID, WorkloadID: a.WorkloadID, Path: a.Path, Version: a.Version, Description: a.Description, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}
}
func artifactToModel(r *ArtifactRecord) *model.ModelArtifact {
	return &model.ModelArtifact{ID: r.ID, WorkloadID: r.WorkloadID, Path: r.Path, Version: r.Version, Description: r.Description, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func (r *ArtifactRepository) Create(ctx context.Context, a *model.ModelArtifact) error {
	rec := artifactToRecord(a)
	if rec.ID == "" {
		rec.ID = "art-" + uuid.NewString()
		a.ID = rec.ID
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isDuplicate(err) {
			return model.ErrArtifactExists
		}
		return err
	}
	return nil
}

func (r *ArtifactRepository) Get(ctx context.Context, id string) (*model.ModelArtifact, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ArtifactRepository) GetByPath(ctx context.Context, workloadID, path string) (*model.ModelArtifact, error) {
	return r.first(ctx, "workload_id = ? AND path = ?", workloadID, path)
}

func (r *ArtifactRepository) first(ctx context.Context, query string, args ...any) (*model.ModelArtifact, error) {
	var rec ArtifactRecord
	if err := r.db.WithContext(ctx).Where(query, args...).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrArtifactNotFound
		}
		return nil, err
	}
	return artifactToModel(&rec), nil
}

func (r *ArtifactRepository) List(ctx context.Context, workloadID string) ([]*model.ModelArtifact, error) {
	var recs []ArtifactRecord
	if err := r.db.WithContext(ctx).Where("workload_id = ?", workloadID).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.ModelArtifact, 0, len(recs))
	for i := range recs {
		out = append(out, artifactToModel(&recs[i]))
	}
	return out, nil
}

// Delete refuses to remove an artifact still assigned to an instance. The
// check and the delete run in one transaction.
func (r *ArtifactRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&InstanceRecord{}).Where("model_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return model.ErrArtifactInUse
		}
		res := tx.Delete(&ArtifactRecord{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrArtifactNotFound
		}
		return nil
	})
}

var _ domain.ArtifactRepository = (*ArtifactRepository)(nil)
