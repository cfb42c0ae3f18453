package fcgi

import (
	"io"
	"unicode/utf8"
)

// NameValuePair is one entry of a FastCGI name-value stream (Params,
// GetValues, GetValuesResult).
type NameValuePair struct {
	Name  string
	Value string
}

// NameValueList preserves insertion order, unlike a map, which matters for
// GetValuesResult (spec.md requires FCGI_MPXS_CONNS to appear when asked,
// in a deterministic place) and for Params ingestion order.
type NameValueList []NameValuePair

// Get returns the value for name and whether it was present.
func (l NameValueList) Get(name string) (string, bool) {
	for _, p := range l {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// decodePairs parses the wire name-value encoding: for each pair,
// name_len then value_len then name then value, where each length is a
// single byte when <=127, else a 4-byte big-endian value with the top bit
// of the first byte set (and cleared before interpreting the length).
func decodePairs(payload []byte) (NameValueList, error) {
	var pairs NameValueList
	pos := 0
	for pos < len(payload) {
		nameLen, n, err := readPairLength(payload[pos:])
		if err != nil {
			return nil, err
		}
		pos += n

		valueLen, n, err := readPairLength(payload[pos:])
		if err != nil {
			return nil, err
		}
		pos += n

		if pos+nameLen+valueLen > len(payload) {
			return nil, malformedPayload("Params")
		}

		name := payload[pos : pos+nameLen]
		pos += nameLen
		value := payload[pos : pos+valueLen]
		pos += valueLen

		if !utf8.Valid(name) || !utf8.Valid(value) {
			return nil, ErrInvalidUTF8KeyValue
		}

		pairs = append(pairs, NameValuePair{Name: string(name), Value: string(value)})
	}
	return pairs, nil
}

// readPairLength reads one length field (1 or 4 bytes) and returns the
// decoded length plus how many bytes were consumed.
func readPairLength(b []byte) (length int, consumed int, err error) {
	if len(b) < 1 {
		return 0, 0, malformedPayload("Params")
	}
	if b[0] <= 127 {
		return int(b[0]), 1, nil
	}
	if len(b) < 4 {
		return 0, 0, malformedPayload("Params")
	}
	length = int(b[0]&0x7f)<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
	return length, 4, nil
}

// encodePairs writes the wire name-value encoding in list order.
func encodePairs(pairs NameValueList, w io.Writer) error {
	for _, p := range pairs {
		if err := writePairLength(len(p.Name), w); err != nil {
			return err
		}
		if err := writePairLength(len(p.Value), w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, p.Name); err != nil {
			return err
		}
		if _, err := io.WriteString(w, p.Value); err != nil {
			return err
		}
	}
	return nil
}

func writePairLength(length int, w io.Writer) error {
	if length <= 127 {
		_, err := w.Write([]byte{byte(length)})
		return err
	}
	buf := [4]byte{
		byte(length>>24) | 0x80,
		byte(length >> 16),
		byte(length >> 8),
		byte(length),
	}
	_, err := w.Write(buf[:])
	return err
}
