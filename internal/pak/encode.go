package pak

import "encoding/binary"

// Encode serializes an Archive to its obfuscated on-disk form. Every
// byte of the returned slice is the plain-layout byte XORed with
// cypherByte (spec §4.1). Encode rejects records whose name or data
// exceed the format's framing limits rather than silently truncating
// them.
func Encode(a Archive) ([]byte, error) {
	for _, r := range a.Records {
		if len(r.Name) == 0 {
			return nil, ErrNameEmpty
		}
		if len(r.Name) > maxNameLen {
			return nil, ErrNameTooLong
		}
		if uint64(len(r.Data)) > maxDataLen {
			return nil, ErrPayloadTooLarge
		}
	}

	out := make([]byte, 0, a.EncodedSize())

	out = appendXored(out, magic[:])

	for _, r := range a.Records {
		out = appendXored(out, []byte{entryFlag})
		out = appendXored(out, []byte{byte(len(r.Name))})
		out = appendXored(out, []byte(r.Name))

		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(r.Data)))
		out = appendXored(out, lenBuf[:])

		out = appendXored(out, r.Filetime[:])
	}
	out = appendXored(out, []byte{endFlag})

	for _, r := range a.Records {
		out = appendXored(out, r.Data)
	}

	return out, nil
}

// appendXored XORs each byte of plain with cypherByte and appends it to dst.
func appendXored(dst, plain []byte) []byte {
	start := len(dst)
	dst = append(dst, plain...)
	for i := start; i < len(dst); i++ {
		dst[i] ^= cypherByte
	}
	return dst
}
