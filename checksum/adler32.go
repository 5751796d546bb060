// Package checksum 实现 EWF 方言的 Adler-32：zlib 的标准 Adler-32，种子为 1，
// 作为未压缩块的 4 字节小端尾部校验和。
//
// The source's libewf_checksum_calculate_little_endian_adler32 carries a
// dead, alignment-optimized path that XORs aligned words together (see
// original_source/libewf/libewf_checksum.c) — it is reachable only from a
// refactor nobody finished, and ewf_checksum_calculate unconditionally
// calls zlib's adler32 instead. We implement the zlib algorithm only.
package checksum

// Seed is the initial value callers use when forming a self-contained
// chunk checksum (ChunkData.pack, §4.C step 4).
const Seed uint32 = 1

const base = 65521

// Calculate computes the little-endian Adler-32 of buf starting from seed.
// It is total: there is no error case.
func Calculate(seed uint32, buf []byte) uint32 {
	a := seed & 0xFFFF
	b := (seed >> 16) & 0xFFFF

	for _, x := range buf {
		a = (a + uint32(x)) % base
		b = (b + a) % base
	}
	return (b << 16) | a
}

// Combine returns the Adler-32 of (a-bytes ++ b-bytes) given only
// checksumA = Calculate(seed, aBytes), checksumB = Calculate(0, bBytes) and
// the length of bBytes — the streaming concatenation law of §4.A. It lets a
// caller fold per-segment checksums without re-reading already-hashed bytes.
// It follows zlib's adler32_combine, without the seed-1 corrections zlib
// applies, since checksumB here starts from seed 0.
func Combine(checksumA, checksumB uint32, lenB int64) uint32 {
	rem := uint32(lenB % base)

	sum1 := checksumA & 0xFFFF
	sum2 := (rem * sum1) % base
	sum1 += checksumB & 0xFFFF
	sum2 += ((checksumA >> 16) & 0xFFFF) + ((checksumB >> 16) & 0xFFFF)

	if sum1 >= base {
		sum1 -= base
	}
	if sum1 >= base {
		sum1 -= base
	}
	if sum2 >= base<<1 {
		sum2 -= base << 1
	}
	if sum2 >= base {
		sum2 -= base
	}
	return sum1 | (sum2 << 16)
}
