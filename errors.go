package fcgi

import (
	"errors"
	"fmt"
)

// Sentinel error kinds returned by the FastCGI protocol engine. Use
// errors.Is against these to classify a failure; use errors.As to recover
// the originating I/O error where one is wrapped underneath.
var (
	ErrUnexpectedSocketClose   = errors.New("fcgi: connection closed unexpectedly")
	ErrUnsupportedVersion      = errors.New("fcgi: unsupported protocol version")
	ErrMultiplexingUnsupported = errors.New("fcgi: connection multiplexing is not supported")
	ErrUnknownRecordType       = errors.New("fcgi: unknown record type")
	ErrMalformedRecordPayload  = errors.New("fcgi: malformed record payload")
	ErrUnsupportedRole         = errors.New("fcgi: unsupported role")
	ErrUnsupportedProtoStatus  = errors.New("fcgi: unsupported protocol status")
	ErrInvalidUTF8KeyValue     = errors.New("fcgi: invalid utf-8 in name-value pair")
	ErrMalformedRecordStream   = errors.New("fcgi: malformed record stream")
	ErrMissingMetaVariable     = errors.New("fcgi: required CGI meta-variable missing")
	ErrConfig                  = errors.New("fcgi: invalid configuration")
)

// wrap enhances an underlying error with a sentinel kind and a short
// message, the same convention used throughout this package's predecessor
// client: callers can still errors.Is(err, ErrX) after wrapping.
func wrap(kind error, err error, msg string) error {
	if err == nil {
		return fmt.Errorf("%w: %s", kind, msg)
	}
	return fmt.Errorf("%w: %s: %w", kind, msg, err)
}

// malformedPayload builds ErrMalformedRecordPayload for the named variant,
// mirroring the original implementation's "MalformedRecordPayload(variant)"
// error constructor.
func malformedPayload(variant string) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecordPayload, variant)
}

// unknownRecordTypeError carries the offending wire type code alongside
// ErrUnknownRecordType, so the session layer can echo it back in an
// UnknownType reply without re-parsing an error string.
type unknownRecordTypeError struct {
	typeID uint8
}

func (e unknownRecordTypeError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnknownRecordType, e.typeID)
}

func (e unknownRecordTypeError) Unwrap() error { return ErrUnknownRecordType }
