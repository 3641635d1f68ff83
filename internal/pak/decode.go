package pak

import "encoding/binary"

// cursor walks an obfuscated byte slice, deobfuscating lazily as bytes
// are consumed (spec §4.1's decode contract).
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) take(n int) ([]byte, bool) {
	if c.pos+n > len(c.data) {
		return nil, false
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = c.data[c.pos+i] ^ cypherByte
	}
	c.pos += n
	return out, true
}

// pending is a decoded record header whose payload hasn't been read yet.
type pending struct {
	name     string
	dataLen  uint32
	filetime Filetime
}

// Decode deserializes an obfuscated archive. It reads the header,
// then alternates between entryFlag-prefixed record headers and a
// single endFlag, then reads each pending record's payload in order
// from the trailing data region. Any premature end of input is
// ErrTruncated; a header mismatch is ErrMalformedHeader; a flag byte
// that is neither entryFlag nor endFlag is ErrMalformedFlag.
func Decode(data []byte) (Archive, error) {
	c := &cursor{data: data}

	header, ok := c.take(len(magic))
	if !ok {
		return Archive{}, ErrTruncated
	}
	if !bytesEqual(header, magic[:]) {
		return Archive{}, ErrMalformedHeader
	}

	var pendings []pending
	for {
		flagBytes, ok := c.take(1)
		if !ok {
			return Archive{}, ErrTruncated
		}
		flag := flagBytes[0]
		if flag == endFlag {
			break
		}
		if flag != entryFlag {
			return Archive{}, ErrMalformedFlag
		}

		nameLenBytes, ok := c.take(1)
		if !ok {
			return Archive{}, ErrTruncated
		}
		nameLen := int(nameLenBytes[0])

		nameBytes, ok := c.take(nameLen)
		if !ok {
			return Archive{}, ErrTruncated
		}

		dataLenBytes, ok := c.take(4)
		if !ok {
			return Archive{}, ErrTruncated
		}
		dataLen := binary.LittleEndian.Uint32(dataLenBytes)

		filetimeBytes, ok := c.take(8)
		if !ok {
			return Archive{}, ErrTruncated
		}
		var filetime Filetime
		copy(filetime[:], filetimeBytes)

		pendings = append(pendings, pending{
			name:     string(nameBytes),
			dataLen:  dataLen,
			filetime: filetime,
		})
	}

	records := make([]Record, 0, len(pendings))
	for _, p := range pendings {
		payload, ok := c.take(int(p.dataLen))
		if !ok {
			return Archive{}, ErrTruncated
		}
		records = append(records, Record{
			Name:     p.name,
			Filetime: p.filetime,
			Data:     payload,
		})
	}

	return Archive{Records: records}, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
