package xmlcodec

import (
	"github.com/hengadev/xmlcodec/internal/codec"
	"github.com/hengadev/xmlcodec/internal/metadata"
)

// Wire names
const (
	// StructTag is the struct tag key read on serializable fields, as in
	// `xmlc:"prompt,required"`.
	StructTag = metadata.StructTag

	// ItemTag names the child element written for each array item.
	ItemTag = codec.ItemTag

	// IndexAttr holds the comma-separated zero-based index of an array item
	// when it does not follow the previous one in row-major order.
	IndexAttr = codec.IndexAttr

	// ValueAttr holds the text of a scalar array item.
	ValueAttr = codec.ValueAttr

	// LengthsAttr holds the comma-separated lengths of a multi-dimensional
	// array.
	LengthsAttr = codec.LengthsAttr
)

// Environment variable names
const (
	EnvDefaultTag  = "XMLQ_DEFAULT_TAG"
	EnvIndent      = "XMLQ_INDENT"
	EnvLogLevel    = "XMLQ_LOG_LEVEL"
	EnvLogFormat   = "XMLQ_LOG_FORMAT"
	EnvLogFile     = "XMLQ_LOG_FILE"
	EnvDBPath      = "XMLQ_DB_PATH"
	EnvDBFilename  = "XMLQ_DB_FILENAME"
	EnvQuizVersion = "XMLQ_QUIZ_VERSION"
	EnvS3Bucket    = "XMLQ_S3_BUCKET"
	EnvS3Prefix    = "XMLQ_S3_PREFIX"
	EnvAWSRegion   = "XMLQ_AWS_REGION"
	EnvVaultAddr   = "XMLQ_VAULT_ADDR"
	EnvVaultMount  = "XMLQ_VAULT_MOUNT"
)

// Default values
const (
	DefaultIndent      = 2
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultDBPath      = ".xmlq"
	DefaultDBFilename  = "documents.db"
	DefaultQuizVersion = 4
	DefaultS3Prefix    = "documents"
	DefaultVaultMount  = "secret"
)

// Metric names reported to the MetricsCollector.
const (
	MetricOperations       = "xmlcodec.operations"
	MetricOperationTime    = "xmlcodec.operation.duration"
	MetricSerializerBuilds = "xmlcodec.serializer.builds"
)
