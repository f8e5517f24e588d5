package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// PenaltyBand deducts Penalty speed points from dishes whose passive time is
// below MaxHours. Bands are checked in order; MaxHours <= 0 matches everything.
type PenaltyBand struct {
	MaxHours float64 `mapstructure:"max_hours" json:"max_hours"`
	Penalty  float64 `mapstructure:"penalty" json:"penalty"`
}

// DefaultPenaltyBands returns the passive-time bands used when none are configured.
func DefaultPenaltyBands() []PenaltyBand {
	return []PenaltyBand{
		{MaxHours: 0.25, Penalty: 0},
		{MaxHours: 1, Penalty: 0.5},
		{MaxHours: 4, Penalty: 1.5},
		{MaxHours: 12, Penalty: 2.5},
		{MaxHours: 0, Penalty: 3.5},
	}
}

type DatasetConfig struct {
	Source           string `mapstructure:"source"` // file, s3 or postgres
	DishesPath       string `mapstructure:"dishes_path"`
	IngredientsPath  string `mapstructure:"ingredients_path"`
	CoefficientsPath string `mapstructure:"coefficients_path"`
	ZonesPath        string `mapstructure:"zones_path"`
}

type S3Config struct {
	Region string `mapstructure:"region"`
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type EngineConfig struct {
	CacheSize          int           `mapstructure:"cache_size"`
	MultiplierEpsilon  float64       `mapstructure:"multiplier_epsilon"`
	MaxMultiplier      float64       `mapstructure:"max_multiplier"` // 0 means unbounded
	PassivePenalty     []PenaltyBand `mapstructure:"passive_penalty_bands"`
	DefaultTasteMethod string        `mapstructure:"default_taste_method"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	AllowOrigins []string      `mapstructure:"allow_origins"`
}

type OutputConfig struct {
	Format      string `mapstructure:"format"`      // console, json, csv, parquet, postgres
	Path        string `mapstructure:"path"`        // local base path
	Folder      string `mapstructure:"folder"`      // folder under path or bucket
	Destination string `mapstructure:"destination"` // local or s3
}

type KafkaConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BrokerList string `mapstructure:"broker_list"`
	Topic      string `mapstructure:"topic"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	S3       S3Config       `mapstructure:"s3"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Server   ServerConfig   `mapstructure:"server"`
	Output   OutputConfig   `mapstructure:"output"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dataset.source", "file")
	v.SetDefault("dataset.dishes_path", "data/dishes.json")
	v.SetDefault("dataset.ingredients_path", "data/ingredients.json")
	v.SetDefault("dataset.coefficients_path", "data/coefficients.json")
	v.SetDefault("dataset.zones_path", "data/zones.json")
	v.SetDefault("engine.cache_size", 16)
	v.SetDefault("engine.multiplier_epsilon", 1e-6)
	v.SetDefault("engine.max_multiplier", 0)
	v.SetDefault("engine.default_taste_method", DefaultTasteMethod)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("output.format", "console")
	v.SetDefault("output.path", "out")
	v.SetDefault("output.folder", "rankings")
	v.SetDefault("output.destination", "local")
	v.SetDefault("kafka.broker_list", "localhost:9092")
	v.SetDefault("kafka.topic", "dish_rankings")
	v.SetDefault("log.level", "info")
}

// LoadConfig reads the configuration from the given viper instance. When
// cfgFile is empty the default dishrank.yaml in the working directory is
// used if it exists.
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("dishrank")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DISHRANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if len(config.Engine.PassivePenalty) == 0 {
		config.Engine.PassivePenalty = DefaultPenaltyBands()
	}

	return &config, nil
}
