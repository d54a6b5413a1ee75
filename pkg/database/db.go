package database

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Coordinator represents the coordinators table
type Coordinator struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	StaffID      int       `json:"staff_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// UsageRecord counts calendar requests per viewer per day
type UsageRecord struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	StaffID     int    `gorm:"uniqueIndex:idx_staff_date_role;not null" json:"staff_id"`
	Date        string `gorm:"uniqueIndex:idx_staff_date_role;not null" json:"date"`
	Role        string `gorm:"uniqueIndex:idx_staff_date_role;not null" json:"role"`
	RenderCount int    `gorm:"default:0" json:"render_count"`
	DetailCount int    `gorm:"default:0" json:"detail_count"`
}

// InitDB opens postgres when url is set and sqlite at path otherwise, then
// migrates the schema. Planner data is never stored here.
func InitDB(url, path string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if url != "" {
		cfg.PrepareStmt = false
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  url,
			PreferSimpleProtocol: true,
		}), cfg)
	} else {
		if path == "" {
			path = "file::memory:?cache=shared"
		}
		db, err = gorm.Open(sqlite.Open(path), cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Coordinator{}, &UsageRecord{}); err != nil {
		return nil, err
	}
	return db, nil
}

// RecordUsage bumps the render and detail counters using a single-query upsert
// (supported by both Postgres and SQLite)
func RecordUsage(db *gorm.DB, staffID int, role, date string, renders, details int) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "staff_id"}, {Name: "date"}, {Name: "role"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"render_count": gorm.Expr("render_count + ?", renders),
			"detail_count": gorm.Expr("detail_count + ?", details),
		}),
	}).Create(&UsageRecord{
		StaffID:     staffID,
		Date:        date,
		Role:        role,
		RenderCount: renders,
		DetailCount: details,
	}).Error
}

// UsageFor returns the last 30 days of usage for a viewer, newest first
func UsageFor(db *gorm.DB, staffID int) ([]UsageRecord, error) {
	var usage []UsageRecord
	err := db.Where("staff_id = ?", staffID).Order("date desc").Limit(30).Find(&usage).Error
	return usage, err
}
