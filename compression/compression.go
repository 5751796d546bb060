// Package compression 包装 compress/zlib，提供 §4.B 要求的
// compress/decompress 语义：输出写入自动增长的缓冲区，全零块快速路径由调用方
// （chunk 包）负责，这里只做朴素的 zlib 读写。
//
// Go's zlib package streams through io.Writer/io.Reader rather than zlib's
// fixed-destination-buffer compress2/uncompress, so there is no literal
// "buffer too small" return code to retry on. Compress pre-sizes its
// output buffer with compressBound and lets bytes.Buffer grow as needed;
// there is no second attempt.
package compression

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/dfirlabs/ewfcore/config"
	"github.com/dfirlabs/ewfcore/ewferr"
)

// Compress produces a zlib-wrapped DEFLATE stream of src at the given level
// into dst, in a single pass whose output buffer grows as needed.
// Aliasing dst and src is rejected, mirroring libewf_compress's check that
// compressed_data != uncompressed_data.
func Compress(dst *[]byte, src []byte, level config.CompressionLevel) error {
	if dst == nil {
		return fmt.Errorf("compression.Compress: %w: nil dst", ewferr.ErrInvalidArgument)
	}
	if len(*dst) > 0 && len(src) > 0 && &(*dst)[0] == &src[0] {
		return fmt.Errorf("compression.Compress: %w: dst and src alias", ewferr.ErrInvalidArgument)
	}
	zlibLevel, ok := level.ZlibLevel()
	if !ok {
		return fmt.Errorf("compression.Compress: %w: compression level %d", ewferr.ErrUnsupportedFormat, level)
	}

	var buf bytes.Buffer
	buf.Grow(compressBound(len(src)))

	w, err := zlib.NewWriterLevel(&buf, zlibLevel)
	if err != nil {
		return fmt.Errorf("compression.Compress: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return fmt.Errorf("compression.Compress: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("compression.Compress: close: %w", err)
	}

	*dst = buf.Bytes()
	return nil
}

// compressBound estimates an upper bound on the compressed size of an
// uncompressed buffer of the given length (0.1% plus 64 bytes of headroom,
// a looser bound than zlib's compressBound()), so a single allocation
// almost always suffices.
func compressBound(srcLen int) int {
	return srcLen + srcLen/1000 + 64
}

// Decompress inflates a zlib stream produced by Compress (or any conformant
// zlib writer) into dst. It distinguishes three outcomes per §4.B:
//
//   - nil: success, *dst replaced with the decompressed bytes.
//   - ewferr.ErrCorruptData: the stream is invalid or truncated zlib/DEFLATE
//     data (every error from opening or reading the stream is reported
//     this way); *dst is set to an empty, non-nil slice.
//   - ewferr.ErrInvalidArgument: dst is nil.
func Decompress(dst *[]byte, src []byte) error {
	if dst == nil {
		return fmt.Errorf("compression.Decompress: %w: nil dst", ewferr.ErrInvalidArgument)
	}

	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		*dst = []byte{}
		return fmt.Errorf("compression.Decompress: %w: %v", ewferr.ErrCorruptData, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		*dst = []byte{}
		return fmt.Errorf("compression.Decompress: %w: %v", ewferr.ErrCorruptData, err)
	}

	*dst = out
	return nil
}
