package history

import "codeberg.org/mutker/thermosense/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidSize   = errors.ErrorCode("history_invalid_size")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("history_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("history_schema_validation_failed")
	ErrTransactionFailed      = errors.ErrorCode("history_transaction_failed")

	// Storage Errors
	ErrStorageInit  = errors.ErrInitFailed
	ErrStorageQuery = errors.ErrorCode("history_storage_query_failed")
	ErrStorageClose = errors.ErrShutdownFailed

	// Operation Errors
	ErrRecordFailed     = errors.ErrorCode("history_record_failed")
	ErrOperationTimeout = errors.ErrTimeout
)
