package xmlcodec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/hengadev/errsx"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of an Engine and of the tools built around it.
//
// This struct contains only data. It can be filled from code, from the
// environment (LoadConfigFromEnvironment) or from a YAML file
// (LoadConfigFile), then passed to NewFromConfig.
//
// Example usage:
//
//	cfg := xmlcodec.Config{DefaultTag: "document", LogLevel: "debug"}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	engine, err := xmlcodec.NewFromConfig(cfg)
type Config struct {
	// DefaultTag names root elements of types without a registered tag.
	// When empty, serializing such a type fails with ErrUnregisteredType.
	DefaultTag string `yaml:"default_tag" validate:"omitempty,max=128,excludesall=<>&"`

	// Indent is the number of spaces used to indent written documents.
	// Zero writes compact documents.
	Indent int `yaml:"indent" validate:"gte=0,lte=16"`

	LogLevel  string `yaml:"log_level" validate:"oneof=trace debug info warn error disabled"`
	LogFormat string `yaml:"log_format" validate:"oneof=json console"`
	// LogFile enables rotating file output.
	LogFile string `yaml:"log_file"`

	// DBPath and DBFilename locate the SQLite document store.
	DBPath     string `yaml:"db_path"`
	DBFilename string `yaml:"db_filename"`

	// QuizVersion is the document version the application accepts.
	QuizVersion int `yaml:"quiz_version" validate:"gte=1"`

	// S3 archive settings. The archive is disabled when S3Bucket is empty.
	S3Bucket  string `yaml:"s3_bucket" validate:"omitempty,min=3,max=63"`
	S3Prefix  string `yaml:"s3_prefix"`
	AWSRegion string `yaml:"aws_region"`

	// Vault settings. The Vault store is disabled when VaultAddr is empty.
	VaultAddr  string `yaml:"vault_addr" validate:"omitempty,url"`
	VaultMount string `yaml:"vault_mount"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() Config {
	var c Config
	c.applyDefaults()
	c.Indent = DefaultIndent
	return c
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath
	}
	if c.DBFilename == "" {
		c.DBFilename = DefaultDBFilename
	}
	if c.QuizVersion == 0 {
		c.QuizVersion = DefaultQuizVersion
	}
	if c.S3Prefix == "" {
		c.S3Prefix = DefaultS3Prefix
	}
	if c.VaultMount == "" {
		c.VaultMount = DefaultVaultMount
	}
}

// Validate applies defaults to optional fields and checks the result.
// Every invalid field is reported, keyed by field name.
func (c *Config) Validate() error {
	c.applyDefaults()

	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	var errs errsx.Map
	for _, fe := range verrs {
		if fe.Param() != "" {
			errs.Set(fe.Field(), fmt.Errorf("%v fails '%s=%s'", fe.Value(), fe.Tag(), fe.Param()))
		} else {
			errs.Set(fe.Field(), fmt.Errorf("%v fails '%s'", fe.Value(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfiguration, errs.AsError())
}

// DBFile returns the full path of the SQLite document store.
func (c Config) DBFile() string {
	return filepath.Join(c.DBPath, c.DBFilename)
}

// LoadConfigFile reads a YAML configuration file. Fields missing from the
// file keep their defaults.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: failed to parse config file: %v", ErrInvalidConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SaveConfigFile writes cfg as YAML.
func SaveConfigFile(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
