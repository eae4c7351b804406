package cmn

const (
	KiB = 1024
	MiB = 1024 * KiB

	SizeofI64 = 8
	SizeofI32 = 4
	SizeofI16 = 2
)

// ZeroBytes overwrites b with zeroes in place. Used on the sensitive-memory
// paths called out in pooled buffers before they return to the
// pool, reduced keys after use, and partially decrypted plaintext on an
// authentication failure.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// CopyChunked copies src into dst in fixed-size chunks rather than a single
// copy(), mirroring the "pinned" allocation tier's contract
// that heap-pinned buffers are populated 64 bytes at a time.
func CopyChunked(dst, src []byte, chunk int) int {
	n := 0
	for n < len(src) {
		end := n + chunk
		if end > len(src) {
			end = len(src)
		}
		copy(dst[n:end], src[n:end])
		n = end
	}
	return n
}
