package errors

// Common error codes
const (
	// Usage errors
	ErrInvalidArgument ErrorCode = "invalid_argument"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrInvalidWindow   ErrorCode = "invalid_window"
	ErrInvalidCPUList  ErrorCode = "invalid_cpu_list"
	ErrInvalidFormat   ErrorCode = "invalid_output_format"
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Trace input errors
	ErrReadTrace  ErrorCode = "read_trace_failed"
	ErrParseTrace ErrorCode = "parse_trace_failed"
	ErrEmptyTrace ErrorCode = "empty_trace"

	// Analysis errors
	ErrMissingTraceEvents       ErrorCode = "missing_trace_events"
	ErrIncoherentGroupFrequency ErrorCode = "incoherent_group_frequency"
	ErrUnknownAccessor          ErrorCode = "unknown_accessor"
	ErrUnknownModule            ErrorCode = "unknown_module"

	// Report store errors
	ErrInitReport  ErrorCode = "init_report_failed"
	ErrWriteReport ErrorCode = "write_report_failed"
	ErrCloseReport ErrorCode = "close_report_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInvalidArgument:          "Invalid argument provided",
	ErrInvalidConfig:            "Invalid configuration",
	ErrReadConfig:               "Failed to read config file",
	ErrBindFlags:                "Failed to bind flags",
	ErrInvalidWindow:            "Invalid analysis window",
	ErrInvalidCPUList:           "Invalid CPU list",
	ErrInvalidFormat:            "Invalid output format",
	ErrInvalidLogLevel:          "Invalid log level",
	ErrReadTrace:                "Failed to read trace",
	ErrParseTrace:               "Failed to parse trace",
	ErrEmptyTrace:               "No events found in trace",
	ErrMissingTraceEvents:       "Missing trace events",
	ErrIncoherentGroupFrequency: "Frequency is not coherent across the group, cannot compute residency",
	ErrUnknownAccessor:          "Unknown accessor",
	ErrUnknownModule:            "Unknown analyzer module",
	ErrInitReport:               "Failed to initialize report store",
	ErrWriteReport:              "Failed to write report",
	ErrCloseReport:              "Failed to close report store",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
