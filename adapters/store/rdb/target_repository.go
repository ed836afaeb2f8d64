package rdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kompox/modelops/domain"
	"github.com/kompox/modelops/domain/model"
	"gorm.io/gorm"
)

// TargetRepository is a GORM-backed implementation of domain.TargetRepository.
type TargetRepository struct{ db *gorm.DB }

func NewTargetRepository(db *gorm.DB) *TargetRepository { return &TargetRepository{db: db} }

func targetToRecord(t *model.ClusterTarget) (*TargetRecord, error) {
	settings := ""
	if len(t.Settings) > 0 {
		b, err := json.Marshal(t.Settings)
		if err != nil {
			return nil, fmt.Errorf("encode target settings: %w", err)
		}
		settings = string(b)
	}
	return &TargetRecord{ID: t.ID, Name: t.Name, ProjectID: t.ProjectID, Driver: t.Driver, Settings: settings, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}, nil
}

func targetToModel(r *TargetRecord) (*model.ClusterTarget, error) {
	t := &model.ClusterTarget{ID: r.ID, Name: r.Name, ProjectID: r.ProjectID, Driver: r.Driver, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
	if r.Settings != "" {
		if err := json.Unmarshal([]byte(r.Settings), &t.Settings); err != nil {
			return nil, fmt.Errorf("decode settings of target %s: %w", r.ID, err)
		}
	}
	return t, nil
}

func (r *TargetRepository) Create(ctx context.Context, t *model.ClusterTarget) error {
	rec, err := targetToRecord(t)
	if err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = "tgt-" + uuid.NewString()
		t.ID = rec.ID
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: name %q already registered", model.ErrTargetInvalid, t.Name)
		}
		return err
	}
	return nil
}

func (r *TargetRepository) Get(ctx context.Context, id string) (*model.ClusterTarget, error) {
	var rec TargetRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrTargetNotFound
		}
		return nil, err
	}
	return targetToModel(&rec)
}

func (r *TargetRepository) List(ctx context.Context, projectID string) ([]*model.ClusterTarget, error) {
	var recs []TargetRecord
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*model.ClusterTarget, 0, len(recs))
	for i := range recs {
		t, err := targetToModel(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TargetRepository) Update(ctx context.Context, t *model.ClusterTarget) error {
	rec, err := targetToRecord(t)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&TargetRecord{}).Where("id = ?", rec.ID).Select("*").Omit("id", "created_at").Updates(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrTargetNotFound
	}
	return nil
}

func (r *TargetRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&TargetRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrTargetNotFound
	}
	return nil
}

var _ domain.TargetRepository = (*TargetRepository)(nil)
