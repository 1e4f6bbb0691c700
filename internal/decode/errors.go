// SPDX-License-Identifier: MIT
package decode

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// Code classifies a decoding failure.
type Code int

const (
	CodeOpen Code = iota + 1
	CodeNotWAV
	CodeMalformed
	CodeTruncated
	CodeUnsupportedEncoding
)

func (c Code) String() string {
	switch c {
	case CodeOpen:
		return "open"
	case CodeNotWAV:
		return "not a WAV file"
	case CodeMalformed:
		return "malformed"
	case CodeTruncated:
		return "truncated"
	case CodeUnsupportedEncoding:
		return "unsupported encoding"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is against an *Error of the matching code.
var (
	ErrOpen                = &Error{Code: CodeOpen}
	ErrNotWAV              = &Error{Code: CodeNotWAV}
	ErrMalformed           = &Error{Code: CodeMalformed}
	ErrTruncated           = &Error{Code: CodeTruncated}
	ErrUnsupportedEncoding = &Error{Code: CodeUnsupportedEncoding}
)

// Error describes a failure to decode an audio file.
type Error struct {
	Op   string
	Path string
	Code Code
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("decode %s %s: %s", e.Op, e.Path, e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Translate maps an error from the decoder or the file system to an
// *Error. Missing or unreadable files are CodeOpen, premature end of data
// is CodeTruncated and anything else is CodeMalformed. An *Error is
// returned unchanged.
func Translate(op, path string, err error) error {
	if err == nil {
		return nil
	}

	var de *Error
	if errors.As(err, &de) {
		return err
	}

	code := CodeMalformed
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		code = CodeOpen
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		code = CodeTruncated
	}
	return &Error{Op: op, Path: path, Code: code, Err: err}
}
