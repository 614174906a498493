package config

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// Workspace Configuration
	WorkDir      string `mapstructure:"WORK_DIR" validate:"required"`
	DatabasePath string `mapstructure:"DATABASE_PATH" validate:"required"`

	// Process Supervision
	FFmpegGracePeriod time.Duration `mapstructure:"FFMPEG_GRACE_PERIOD"`
	MaxJobDuration    time.Duration `mapstructure:"MAX_JOB_DURATION"`
	FFmpegThreads     int           `mapstructure:"FFMPEG_THREADS" validate:"gte=0"`

	// Encoding Defaults
	DefaultCodec        string `mapstructure:"DEFAULT_CODEC"`
	DefaultPreset       string `mapstructure:"DEFAULT_PRESET"`
	DefaultCRF          int    `mapstructure:"DEFAULT_CRF" validate:"gte=0,lte=51"`
	DefaultAudioBitrate string `mapstructure:"DEFAULT_AUDIO_BITRATE"`

	// Notifications
	ProgressInterval time.Duration `mapstructure:"PROGRESS_INTERVAL"`

	// Cleanup
	CleanupSchedule string        `mapstructure:"CLEANUP_SCHEDULE"`
	CleanupMaxAge   time.Duration `mapstructure:"CLEANUP_MAX_AGE"`
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag != "" {
			viper.BindEnv(tag)
		}

		// Handle nested structs
		if field.Type.Kind() == reflect.Struct && tag == "" {
			nestedTyp := fieldVal.Type()
			for j := 0; j < fieldVal.NumField(); j++ {
				nestedField := nestedTyp.Field(j)
				nestedTag := nestedField.Tag.Get("mapstructure")
				if nestedTag != "" {
					viper.BindEnv(nestedTag)
				}
			}
		}
	}
	slog.Debug("Environment variables bound")
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("FFMPEG_GRACE_PERIOD", "5s")
	viper.SetDefault("MAX_JOB_DURATION", "0")
	viper.SetDefault("FFMPEG_THREADS", 0)
	viper.SetDefault("DEFAULT_CODEC", "libx264")
	viper.SetDefault("DEFAULT_PRESET", "medium")
	viper.SetDefault("DEFAULT_CRF", 28)
	viper.SetDefault("DEFAULT_AUDIO_BITRATE", "128k")
	viper.SetDefault("PROGRESS_INTERVAL", "3s")
	viper.SetDefault("CLEANUP_SCHEDULE", "@hourly")
	viper.SetDefault("CLEANUP_MAX_AGE", "6h")

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	slog.Info("Loaded configuration", "work_dir", cfg.WorkDir, "database_path", cfg.DatabasePath)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
