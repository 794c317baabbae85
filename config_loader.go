package xmlcodec

import (
	"fmt"
	"os"
	"strconv"
)

// LoadConfigFromEnvironment loads configuration from environment variables.
//
// Every variable is optional; defaults are applied for those not set:
//   - XMLQ_DEFAULT_TAG: root tag for unregistered types (default: none)
//   - XMLQ_INDENT: indentation of written documents (default: 2)
//   - XMLQ_LOG_LEVEL, XMLQ_LOG_FORMAT, XMLQ_LOG_FILE: logging
//   - XMLQ_DB_PATH, XMLQ_DB_FILENAME: document store (default: .xmlq/documents.db)
//   - XMLQ_QUIZ_VERSION: accepted document version (default: 4)
//   - XMLQ_S3_BUCKET, XMLQ_S3_PREFIX, XMLQ_AWS_REGION: archive
//   - XMLQ_VAULT_ADDR, XMLQ_VAULT_MOUNT: Vault store
//
// Returns an error if a numeric variable does not parse or validation fails.
func LoadConfigFromEnvironment() (Config, error) {
	indent, err := getEnvInt(EnvIndent, DefaultIndent)
	if err != nil {
		return Config{}, err
	}
	version, err := getEnvInt(EnvQuizVersion, DefaultQuizVersion)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DefaultTag:  os.Getenv(EnvDefaultTag),
		Indent:      indent,
		LogLevel:    getEnvOrDefault(EnvLogLevel, DefaultLogLevel),
		LogFormat:   getEnvOrDefault(EnvLogFormat, DefaultLogFormat),
		LogFile:     os.Getenv(EnvLogFile),
		DBPath:      getEnvOrDefault(EnvDBPath, DefaultDBPath),
		DBFilename:  getEnvOrDefault(EnvDBFilename, DefaultDBFilename),
		QuizVersion: version,
		S3Bucket:    os.Getenv(EnvS3Bucket),
		S3Prefix:    getEnvOrDefault(EnvS3Prefix, DefaultS3Prefix),
		AWSRegion:   os.Getenv(EnvAWSRegion),
		VaultAddr:   os.Getenv(EnvVaultAddr),
		VaultMount:  getEnvOrDefault(EnvVaultMount, DefaultVaultMount),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// getEnvOrDefault returns the value of an environment variable, or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidConfiguration, key, value)
	}
	return n, nil
}
