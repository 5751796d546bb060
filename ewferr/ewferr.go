// Package ewferr collects the error taxonomy shared by every ewfcore
// component (checksum, compression, chunk, offsettable, valuetable).
//
// 每个组件通过 fmt.Errorf("...: %w", ewferr.X) 包装这些哨兵错误，
// 调用方使用 errors.Is 判断错误类别。
package ewferr

import "errors"

var (
	// ErrInvalidArgument is returned for nil/out-of-range inputs — a caller bug.
	ErrInvalidArgument = errors.New("ewfcore: invalid argument")

	// ErrValueAlreadySet is returned when a single-assignment field is
	// reassigned (e.g. media values after the first chunk has been staged).
	ErrValueAlreadySet = errors.New("ewfcore: value already set")

	// ErrOutOfBounds is returned when a size or offset escapes its type's range.
	ErrOutOfBounds = errors.New("ewfcore: value out of bounds")

	// ErrCorruptData marks a decompression data-error: treated as corruption,
	// never fatal. Callers surface it via a flag, not necessarily this error.
	ErrCorruptData = errors.New("ewfcore: corrupt data")

	// ErrBufferTooSmall is a recoverable hint: the caller should grow its
	// buffer to the accompanying required size and retry.
	ErrBufferTooSmall = errors.New("ewfcore: buffer too small")

	// ErrUnsupportedFormat is returned for unknown format codes, header type
	// codes with unexpected content, or date strings with the wrong token count.
	ErrUnsupportedFormat = errors.New("ewfcore: unsupported format")

	// ErrChecksumMismatch is made available for callers that want a hard
	// error; the default propagation policy is the is_corrupt flag instead.
	ErrChecksumMismatch = errors.New("ewfcore: checksum mismatch")
)
