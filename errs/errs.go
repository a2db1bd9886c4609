// Package errs collects the sentinel errors shared across the oml packages.
//
// Callers wrap these with fmt.Errorf("...: %w", err) to attach context; callers
// that need to distinguish a failure class test with errors.Is against the
// values declared here.
package errs

import "errors"

// Value/codec errors (value, wire/binary, wire/text).
var (
	ErrUnknownTag        = errors.New("oml: unknown value tag")
	ErrStringTooLong     = errors.New("oml: string value exceeds 254 bytes")
	ErrTruncatedValue    = errors.New("oml: truncated value payload")
	ErrInvalidExponent   = errors.New("oml: double exponent does not fit in a signed byte")
	ErrUnknownKind       = errors.New("oml: unknown field kind")
	ErrKindMismatch      = errors.New("oml: value kind does not match field kind")
	ErrNotInitialized    = errors.New("oml: value used before initialization")
)

// Frame errors (wire/binary).
var (
	ErrBadSync       = errors.New("oml: frame does not start with sync bytes")
	ErrUnknownFrame  = errors.New("oml: unknown frame kind")
	ErrFrameNoSync   = errors.New("oml: no sync sequence found in buffer")
	ErrFrameTooShort = errors.New("oml: buffer shorter than advertised frame length")
)

// Text codec errors (wire/text).
var (
	ErrMalformedLine   = errors.New("oml: malformed text line")
	ErrMalformedHeader = errors.New("oml: malformed header line")
	ErrMalformedSchema = errors.New("oml: malformed schema declaration")
	ErrUnknownTypeName = errors.New("oml: unknown field type name")
	ErrBadEscape       = errors.New("oml: invalid backslash escape in string field")
)

// Schema errors (schema).
var (
	ErrUnknownStreamIndex = errors.New("oml: unknown stream index")
	ErrSchemaIndexReserved = errors.New("oml: stream index 0 is reserved for session metadata")
	ErrFieldCountMismatch = errors.New("oml: row has a different number of fields than its schema")
)

// Measurement point / filter errors (mp, filter).
var (
	ErrUnknownFilter     = errors.New("oml: unknown filter name")
	ErrFilterNotNumeric  = errors.New("oml: filter requires a numeric field")
	ErrMPNotActive       = errors.New("oml: measurement point is not active")
	ErrMPAlreadyStarted  = errors.New("oml: measurement point already registered")
	ErrNoSamples         = errors.New("oml: filter window has no samples")
)

// Sink/URI errors (sink).
var (
	ErrUnknownScheme  = errors.New("oml: unrecognized sink URI scheme")
	ErrEmptyURI       = errors.New("oml: empty sink URI")
	ErrSinkClosed     = errors.New("oml: sink is closed")
	ErrHeaderNotSent  = errors.New("oml: header_data write attempted before headers sent")
)

// Ingress filter errors (ingress).
var (
	ErrUnknownEncapsulation = errors.New("oml: unknown encapsulation filter")
)

// Client/session errors (client).
var (
	ErrMissingDomain   = errors.New("oml: domain is required")
	ErrMissingSenderID = errors.New("oml: sender id is required")
	ErrNoCollectors    = errors.New("oml: no collector URI configured")
	ErrAlreadyStarted  = errors.New("oml: session already started")
	ErrNotStarted      = errors.New("oml: session not started")
)

// Server errors (server).
var (
	ErrMissingHeader     = errors.New("oml: required header missing")
	ErrUnknownProtocol   = errors.New("oml: unsupported protocol version")
	ErrProtocolErrorState = errors.New("oml: connection is in protocol-error state")
)

// Storage adapter errors (storage).
var (
	ErrUnknownDomain = errors.New("oml: unknown domain")
	ErrTableExists   = errors.New("oml: table already exists with a different schema")
)
