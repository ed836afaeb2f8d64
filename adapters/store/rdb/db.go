package rdb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kompox/modelops/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultDSN = "./modelops.db"

// OpenFromURL opens the registry database named by dbURL, which is
// "sqlite:<dsn>" (alias "sqlite3:<dsn>"). An empty dsn means ./modelops.db.
func OpenFromURL(dbURL string) (*gorm.DB, error) {
	scheme, dsn, ok := strings.Cut(dbURL, ":")
	if !ok || (scheme != "sqlite" && scheme != "sqlite3") {
		return nil, fmt.Errorf("unsupported db url %q: want sqlite:<path>", dbURL)
	}
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	return db, nil
}

// AutoMigrate applies schema migrations for all RDB models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&TargetRecord{}, &WorkloadRecord{}, &InstanceRecord{}, &ArtifactRecord{})
}

// isDuplicate reports a unique constraint violation. Older sqlite drivers do
// not translate the error, so the message is checked as well.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// NewRepositories returns every repository backed by db.
func NewRepositories(db *gorm.DB) *domain.Repositories {
	return &domain.Repositories{
		Target:   NewTargetRepository(db),
		Workload: NewWorkloadRepository(db),
		Instance: NewInstanceRepository(db),
		Artifact: NewArtifactRepository(db),
	}
}
