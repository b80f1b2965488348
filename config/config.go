package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/SayaAndy/photobox/internal/photobox"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel  slog.Level      `json:"LogLevel" yaml:"logLevel"`
	Listen    string          `json:"Listen" yaml:"listen" validate:"required"`
	Storage   B2Config        `json:"Storage" yaml:"storage" validate:"required"`
	Db        DbConfig        `json:"Db" yaml:"db" validate:"required"`
	Photobox  PhotoboxConfig  `json:"Photobox" yaml:"photobox" validate:"required"`
	PageCache PageCacheConfig `json:"PageCache" yaml:"pageCache"`
	Trigger   TriggerConfig   `json:"Trigger" yaml:"trigger"`
}

type B2Config struct {
	BucketName     string `json:"BucketName" yaml:"bucketName" validate:"required,min=1"`
	Prefix         string `json:"Prefix" yaml:"prefix"`
	KeyID          string `json:"KeyID" yaml:"keyID"`
	ApplicationKey string `json:"ApplicationKey" yaml:"applicationKey"`
}

type DbConfig struct {
	Type string        `json:"Type" yaml:"type" validate:"required,oneof=sqlite3"`
	Cfg  Sqlite3Config `json:"Config" yaml:"config"`
}

type Sqlite3Config struct {
	DSN string `json:"DSN" yaml:"dsn" validate:"required"`
}

type PhotoboxConfig struct {
	// Settings are used until the settings form stores its own values.
	Settings    photobox.GallerySettings   `json:"Settings" yaml:"settings"`
	ImageStyles []photobox.ImageStyle      `json:"ImageStyles" yaml:"imageStyles" validate:"dive"`
	Default     FormatterConfig            `json:"Default" yaml:"default"`
	Formatters  map[string]FormatterConfig `json:"Formatters" yaml:"formatters" validate:"dive,keys,galleryid,endkeys"`
}

type FormatterConfig struct {
	LargeImageStyle string `json:"LargeImageStyle" yaml:"largeImageStyle"`
	ImageStyle      string `json:"ImageStyle" yaml:"imageStyle"`
	Gallery         string `json:"Gallery" yaml:"gallery" validate:"omitempty,oneof=all entity field entity_field"`
	Caption         string `json:"Caption" yaml:"caption" validate:"omitempty,oneof=title alt"`
	UnsavedEntityID string `json:"UnsavedEntityID" yaml:"unsavedEntityId" validate:"omitempty,galleryid"`
}

func (c FormatterConfig) Settings() photobox.FormatterSettings {
	return photobox.FormatterSettings{
		LargeImageStyle: c.LargeImageStyle,
		ImageStyle:      c.ImageStyle,
		Gallery:         photobox.GroupingMode(c.Gallery),
		Caption:         photobox.Caption(c.Caption),
		UnsavedEntityID: c.UnsavedEntityID,
	}
}

type PageCacheConfig struct {
	MaxCost int64         `json:"MaxCost" yaml:"maxCost" validate:"omitempty,min=1"`
	TTL     time.Duration `json:"TTL" yaml:"ttl"`
}

type TriggerConfig struct {
	Rescan string `json:"Rescan" yaml:"rescan"`
}

func defaultConfig() *Config {
	return &Config{
		LogLevel: slog.LevelInfo,
		Listen:   ":3000",
		Db:       DbConfig{Type: "sqlite3"},
		Photobox: PhotoboxConfig{Settings: photobox.DefaultSettings()},
		PageCache: PageCacheConfig{
			MaxCost: 1 << 28, // 256 MB
			TTL:     15 * time.Minute,
		},
		Trigger: TriggerConfig{Rescan: "*/5 * * * *"},
	}
}

func LoadConfig(path string, config *Config) error {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	expandedFileBytes := []byte(os.ExpandEnv(string(fileBytes)))

	if err = yaml.Unmarshal(expandedFileBytes, config); err != nil {
		return err
	}

	return nil
}

// NewValidator returns a validator that also knows the "galleryid" tag for
// identifiers that end up inside gallery ids.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("galleryid", func(fl validator.FieldLevel) bool {
		return photobox.ValidIdentifier(fl.Field().String())
	})
	return validate
}

func InitConfig(path string) (*Config, error) {
	config := defaultConfig()
	if err := LoadConfig(path, config); err != nil {
		return nil, err
	}

	if err := NewValidator().Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}
