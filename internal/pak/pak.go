// Package pak implements the PvZ PAK archive codec: an XOR-obfuscated,
// length-prefixed, flag-terminated record format.
package pak

const (
	// cypherByte is XORed with every byte on the wire.
	cypherByte byte = 0xF7

	// entryFlag precedes each record header; endFlag terminates the list.
	entryFlag byte = 0x00
	endFlag   byte = 0x80

	// maxNameLen is the largest name a single length byte can frame.
	maxNameLen = 255

	// maxDataLen is the largest payload a 4-byte little-endian length can frame.
	maxDataLen = 1<<32 - 1

	// headerBytes is len(magic) + the terminating flag byte.
	headerBytes = len(magic) + 1

	// recordFixedBytes is entryFlag + name_len + data_len(4) + filetime(8),
	// i.e. everything in a record header except the name itself.
	recordFixedBytes = 1 + 1 + 4 + 8
)

// magic is the 8-byte plain-text header every archive starts with.
var magic = [8]byte{0xC0, 0x4A, 0xC0, 0xBA, 0x00, 0x00, 0x00, 0x00}

// Filetime is an opaque 8-byte timestamp blob. The codec never
// interprets it; it is round-tripped verbatim. See spec §9: this is
// deliberately not a parsed Windows FILETIME, per the recommended
// "opaque blob" contract.
type Filetime [8]byte

// Record is a single file inside an archive.
type Record struct {
	Name     string
	Filetime Filetime
	Data     []byte
}

// Archive is an ordered, non-deduplicated sequence of Records. Record
// order is preserved across Encode/Decode; the codec does not treat
// Name as a key. Callers that want map-like "last write wins" semantics
// build that on top (see internal/archivebuild).
type Archive struct {
	Records []Record
}

// EncodedSize returns the exact size in bytes that Encode would produce
// for this archive, per spec §4.1's size law:
// 9 + sum(14 + len(name) + len(data)).
func (a Archive) EncodedSize() int {
	size := headerBytes
	for _, r := range a.Records {
		size += recordFixedBytes + len(r.Name) + len(r.Data)
	}
	return size
}
