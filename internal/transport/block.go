package transport

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/hockijo/techconnect/schema"
)

// maxBlockLen caps a declared block length so a corrupt header cannot
// trigger a huge allocation.
const maxBlockLen = 2 * schema.MaxPoints

// ReadBlock reads one IEEE 488.2 definite-length block (#<n><len><data>) followed
// by its newline terminator. The indefinite form (#0) ends only at EOI, which a byte
// stream cannot see, so it is rejected.
func ReadBlock(r *bufio.Reader) ([]byte, error) {
	lead, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if lead != '#' {
		return nil, fmt.Errorf("%w: block starts with %q, want '#'", schema.ErrTransport, lead)
	}

	digits, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if digits < '0' || digits > '9' {
		return nil, fmt.Errorf("%w: invalid block header digit %q", schema.ErrTransport, digits)
	}

	if digits == '0' {
		return nil, fmt.Errorf("%w: indefinite-length blocks are not supported", schema.ErrTransport)
	}

	header := make([]byte, digits-'0')
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(string(header))
	if err != nil || n < 0 || n > maxBlockLen {
		return nil, fmt.Errorf("%w: invalid block length %q", schema.ErrTransport, header)
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	if err := readTerminator(r); err != nil {
		return nil, err
	}
	return data, nil
}

// readTerminator consumes the LF or CRLF that ends a response.
func readTerminator(r *bufio.Reader) error {
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	if b == '\r' {
		if b, err = r.ReadByte(); err != nil {
			return err
		}
	}
	if b != '\n' {
		return fmt.Errorf("%w: expected newline after block, got %q", schema.ErrTransport, b)
	}
	return nil
}

// EncodeBlock frames data as a definite-length block with a trailing newline.
func EncodeBlock(data []byte) []byte {
	length := strconv.Itoa(len(data))
	out := make([]byte, 0, len(data)+len(length)+3)
	out = append(out, '#', byte('0'+len(length)))
	out = append(out, length...)
	out = append(out, data...)
	return append(out, '\n')
}

// DecodeWords converts little-endian 16-bit words to signed samples.
func DecodeWords(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: odd block length %d for 16-bit samples", schema.ErrTransport, len(data))
	}
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return out, nil
}

// EncodeWords converts signed samples to little-endian 16-bit words.
func EncodeWords(samples []int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}
