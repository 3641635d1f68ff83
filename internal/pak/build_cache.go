package pak

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the hex SHA-256 digest of an archive's encoded
// bytes. A driver can compare this against the digest recorded the
// last time it wrote the archive (see internal/config's
// BuildHistoryStore) and skip the
// write entirely when nothing changed, the same way the teacher
// tracked a patched binary's OrigSHA256 to avoid redundant work.
func ContentHash(encoded []byte) string {
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
