// Package settings persists per-user preferences and bot-wide key/value
// state in SQLite through GORM.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/lumenmedia/encodebot/internal/job"
)

// UserSettings holds a user's delivery preferences.
type UserSettings struct {
	UserID           int64 `gorm:"primaryKey"`
	UploadAsDocument bool
	SpoilerEnabled   bool
	UpdatedAt        time.Time
}

// Watermark is a user's configured watermark. Text and ImagePath are
// mutually exclusive in practice; setting one clears the other.
type Watermark struct {
	UserID    int64 `gorm:"primaryKey"`
	Text      string
	ImagePath string
	UpdatedAt time.Time
}

// Thumbnail is a user's custom thumbnail for uploads.
type Thumbnail struct {
	UserID    int64 `gorm:"primaryKey"`
	Path      string
	UpdatedAt time.Time
}

// BotSetting is one bot-wide key/value entry.
type BotSetting struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

// Store wraps the settings database.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

// Open opens (creating if needed) the SQLite settings database at path and
// runs migrations. Use ":memory:" for tests.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 logger.Discard,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("settings: open %s: %w", path, err)
	}

	if err := db.AutoMigrate(&UserSettings{}, &Watermark{}, &Thumbnail{}, &BotSetting{}); err != nil {
		return nil, fmt.Errorf("settings: migrate: %w", err)
	}

	log.Debug("settings database ready", "path", path)
	return &Store{db: db, log: log}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UploadPrefs returns the user's delivery preferences, defaults if the user
// has never configured any. Implements the coordinator's preference source.
func (s *Store) UploadPrefs(ctx context.Context, userID int64) (job.UploadPrefs, error) {
	var us UserSettings
	err := s.db.WithContext(ctx).First(&us, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return job.UploadPrefs{}, nil
	}
	if err != nil {
		return job.UploadPrefs{}, err
	}
	return job.UploadPrefs{
		AsDocument: us.UploadAsDocument,
		Spoiler:    us.SpoilerEnabled,
	}, nil
}

// SetUploadAsDocument toggles document delivery for the user.
func (s *Store) SetUploadAsDocument(ctx context.Context, userID int64, v bool) error {
	return s.upsertUser(ctx, userID, map[string]any{"upload_as_document": v})
}

// SetSpoiler toggles spoiler delivery for the user.
func (s *Store) SetSpoiler(ctx context.Context, userID int64, v bool) error {
	return s.upsertUser(ctx, userID, map[string]any{"spoiler_enabled": v})
}

func (s *Store) upsertUser(ctx context.Context, userID int64, values map[string]any) error {
	us := UserSettings{UserID: userID}
	tx := s.db.WithContext(ctx)
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&us).Error; err != nil {
		return err
	}
	return tx.Model(&UserSettings{}).Where("user_id = ?", userID).Updates(values).Error
}

// SetTextWatermark stores a drawtext watermark, replacing any image one.
func (s *Store) SetTextWatermark(ctx context.Context, userID int64, text string) error {
	wm := Watermark{UserID: userID, Text: text}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&wm).Error
}

// SetImageWatermark stores an image watermark, replacing any text one.
func (s *Store) SetImageWatermark(ctx context.Context, userID int64, path string) error {
	wm := Watermark{UserID: userID, ImagePath: path}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&wm).Error
}

// GetWatermark returns the user's watermark, or nil if none is configured.
func (s *Store) GetWatermark(ctx context.Context, userID int64) (*Watermark, error) {
	var wm Watermark
	err := s.db.WithContext(ctx).First(&wm, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wm, nil
}

// ClearWatermark removes the user's watermark.
func (s *Store) ClearWatermark(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).Delete(&Watermark{}, "user_id = ?", userID).Error
}

// SetThumbnail stores the user's custom thumbnail path.
func (s *Store) SetThumbnail(ctx context.Context, userID int64, path string) error {
	th := Thumbnail{UserID: userID, Path: path}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&th).Error
}

// GetThumbnail returns the user's thumbnail path, or "" if none is set.
func (s *Store) GetThumbnail(ctx context.Context, userID int64) (string, error) {
	var th Thumbnail
	err := s.db.WithContext(ctx).First(&th, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return th.Path, nil
}

// ClearThumbnail removes the user's thumbnail.
func (s *Store) ClearThumbnail(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).Delete(&Thumbnail{}, "user_id = ?", userID).Error
}

// GetBotSetting returns a bot-wide value, or def when unset.
func (s *Store) GetBotSetting(ctx context.Context, key, def string) (string, error) {
	var bs BotSetting
	err := s.db.WithContext(ctx).First(&bs, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return bs.Value, nil
}

// SetBotSetting stores a bot-wide value.
func (s *Store) SetBotSetting(ctx context.Context, key, value string) error {
	bs := BotSetting{Key: key, Value: value}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&bs).Error
}
