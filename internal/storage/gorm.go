package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type mapRow struct {
	Name      string `gorm:"primaryKey;size:128"`
	Order     int    `gorm:"column:map_order"`
	Tiles     []byte `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

func (mapRow) TableName() string {
	return "hex_maps"
}

// GormRepository stores one row per map with the tiles as a JSON document.
type GormRepository struct {
	db *gorm.DB
}

// OpenGormRepository connects to postgres and migrates the maps table.
func OpenGormRepository(dsn string) (*GormRepository, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewGormRepository(db)
}

func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&mapRow{}); err != nil {
		return nil, fmt.Errorf("migrate maps table: %w", err)
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) Save(ctx context.Context, snap MapSnapshot) error {
	if err := ValidateName(snap.Name); err != nil {
		return err
	}
	tiles, err := json.Marshal(snap.Tiles)
	if err != nil {
		return fmt.Errorf("encode tiles: %w", err)
	}
	updated := snap.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	row := mapRow{
		Name:      snap.Name,
		Order:     snap.Order,
		Tiles:     tiles,
		UpdatedAt: updated,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"map_order", "tiles", "updated_at"}),
	}).Create(&row).Error
}

func (r *GormRepository) Load(ctx context.Context, name string) (MapSnapshot, error) {
	var row mapRow
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MapSnapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return MapSnapshot{}, fmt.Errorf("load map %s: %w", name, err)
	}
	tiles := []TileRecord{}
	if len(row.Tiles) > 0 {
		if err := json.Unmarshal(row.Tiles, &tiles); err != nil {
			return MapSnapshot{}, fmt.Errorf("decode tiles of %s: %w", name, err)
		}
	}
	return MapSnapshot{
		Name:      row.Name,
		Order:     row.Order,
		Tiles:     tiles,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (r *GormRepository) Delete(ctx context.Context, name string) error {
	res := r.db.WithContext(ctx).Where("name = ?", name).Delete(&mapRow{})
	if res.Error != nil {
		return fmt.Errorf("delete map %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

func (r *GormRepository) List(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&mapRow{}).Order("name").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	return names, nil
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
