package report

import "codeberg.org/mutker/powertrace/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("report_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("report_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("report_schema_migration_failed")
	ErrTransactionFailed      = errors.ErrorCode("report_transaction_failed")

	// Storage Errors
	ErrStorageInit  = errors.ErrInitReport
	ErrStorageWrite = errors.ErrWriteReport
	ErrStorageClose = errors.ErrCloseReport

	// Operation Errors
	ErrOperationCanceled = errors.ErrorCode("report_operation_canceled")
)
