package errors

var (
	ErrUnknown           = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument   = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrConfiguration     = New(ERR_CONFIGURATION, "configuration error")
	ErrProcessing        = New(ERR_PROCESSING, "processing error")
	ErrContextCanceled   = New(ERR_CONTEXT_CANCELED, "context canceled")
	ErrSourceUnavailable = New(ERR_SOURCE_UNAVAILABLE, "transaction source unavailable")
	ErrRecordDecode      = New(ERR_RECORD_DECODE, "record decode error")
	ErrEncoding          = New(ERR_ENCODING, "encoding error")
	ErrSearchExhausted   = New(ERR_SEARCH_EXHAUSTED, "search exhausted")
	ErrStorage           = New(ERR_STORAGE, "storage error")
	ErrNotFound          = New(ERR_NOT_FOUND, "not found")
)

func NewUnknownError(message string, params ...interface{}) error {
	return New(ERR_UNKNOWN, message, params...)
}

func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}

func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}

func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}

func NewContextCanceledError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT_CANCELED, message, params...)
}

// NewSourceUnavailableError is fatal: the transaction source could not be enumerated at all.
func NewSourceUnavailableError(message string, params ...interface{}) error {
	return New(ERR_SOURCE_UNAVAILABLE, message, params...)
}

// NewRecordDecodeError is recoverable: the record is skipped and the batch continues.
func NewRecordDecodeError(message string, params ...interface{}) error {
	return New(ERR_RECORD_DECODE, message, params...)
}

// NewEncodingError signals an invariant violation while serializing an already validated structure.
func NewEncodingError(message string, params ...interface{}) error {
	return New(ERR_ENCODING, message, params...)
}

func NewSearchExhaustedError(message string, params ...interface{}) error {
	return New(ERR_SEARCH_EXHAUSTED, message, params...)
}

func NewStorageError(message string, params ...interface{}) error {
	return New(ERR_STORAGE, message, params...)
}

func NewNotFoundError(message string, params ...interface{}) error {
	return New(ERR_NOT_FOUND, message, params...)
}
