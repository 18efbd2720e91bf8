package apngenc

import "github.com/pkg/errors"

// ConfigError reports a problem with encoder configuration: an unsupported
// pixel format, or mutually exclusive options set together (dpi and dpm).
type ConfigError struct{ Msg string }

func (e *ConfigError) Error() string { return "apngenc: config: " + e.Msg }

// ResourceError reports an allocation failure for a packet, scratch, or frame
// buffer, or a packet buffer too small for the chunk being written.
type ResourceError struct{ Msg string }

func (e *ResourceError) Error() string { return "apngenc: resource: " + e.Msg }

// StateError reports an encoder in an invalid state for the requested
// operation, such as an APNG palette that changed after the first frame.
type StateError struct{ Msg string }

func (e *StateError) Error() string { return "apngenc: state: " + e.Msg }

// CodecError reports an unrecoverable failure inside the DEFLATE pipeline, or
// a worst-case packet size estimate above the 32-bit limit.
type CodecError struct{ Msg string }

func (e *CodecError) Error() string { return "apngenc: codec: " + e.Msg }

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(err)
}

func configErrorf(msg string) error {
	return wrap(&ConfigError{Msg: msg})
}

func resourceErrorf(msg string) error {
	return wrap(&ResourceError{Msg: msg})
}

func stateErrorf(msg string) error {
	return wrap(&StateError{Msg: msg})
}

func codecErrorf(msg string) error {
	return wrap(&CodecError{Msg: msg})
}
