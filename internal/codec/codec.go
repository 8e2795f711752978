// Package codec implements the SLIM wire format: a length-prefixed,
// recursively nested list of strings.
//
// Grammar (N is a six-digit zero-padded decimal byte count):
//
//	list    = '[' N ':' item* ']'
//	item    = N ':' payload ':'
//	payload = raw-bytes | list
//
// The leading N after '[' counts the number of items in the list, not
// bytes. Each item's own N counts the UTF-8 byte length of its payload.
// A payload is recognized as a nested list exactly when it both begins
// with '[' and ends with ']'; everything else is a raw string.
package codec

import (
	"fmt"
	"io"
	"strconv"

	slimerrors "github.com/fitnesse-go/slimd/internal/errors"
)

// HeaderWidth is the fixed width of every length header in the
// protocol: six digits, treated as a constant rather than a
// negotiable parameter.
const HeaderWidth = 6

// MaxCount bounds the item-count and length headers so a corrupt or
// hostile header cannot make the parser allocate or loop unreasonably.
const MaxCount = 999999

// List is a decoded SLIM list: each element is either a string or a
// nested List.
type List []interface{}

// Pack serializes a List into its wire representation, recursing into
// nested lists. A nil element is packed as the string "null". An
// element that is neither a string, a List, nor nil is a programming
// error in the caller, not a wire-format condition.
func Pack(list List) (string, error) {
	buf := make([]byte, 0, 64)
	buf = append(buf, '[')
	buf = appendHeader(buf, len(list))
	buf = append(buf, ':')

	for i, elem := range list {
		payload, err := packElement(elem)
		if err != nil {
			return "", fmt.Errorf("codec: pack item %d: %w", i, err)
		}
		buf = appendHeader(buf, len(payload))
		buf = append(buf, ':')
		buf = append(buf, payload...)
		buf = append(buf, ':')
	}

	buf = append(buf, ']')
	return string(buf), nil
}

func packElement(elem interface{}) (string, error) {
	switch v := elem.(type) {
	case string:
		return v, nil
	case List:
		return Pack(v)
	case nil:
		return "null", nil
	default:
		return "", fmt.Errorf("unsupported list element type %T", elem)
	}
}

func appendHeader(buf []byte, n int) []byte {
	return append(buf, fmt.Sprintf("%0*d", HeaderWidth, n)...)
}

// Unpack parses a complete packed list back into a List. It is the
// inverse of Pack: Unpack(Pack(xs)) == xs for every finite nested list
// of strings.
func Unpack(data string) (List, error) {
	list, rest, err := decodeList([]byte(data), 0)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, &slimerrors.WireFormatError{
			Operation: "unpack",
			Offset:    len(data) - len(rest),
			Message:   "trailing bytes after closing ']'",
		}
	}
	return list, nil
}

// decodeList parses one '[' N ':' item* ']' list starting at the front
// of b, returning the parsed list and whatever bytes follow it.
func decodeList(b []byte, baseOffset int) (List, []byte, error) {
	if len(b) == 0 || b[0] != '[' {
		return nil, nil, &slimerrors.WireFormatError{
			Operation: "read list",
			Offset:    baseOffset,
			Message:   "list does not start with '['",
		}
	}
	b = b[1:]
	offset := baseOffset + 1

	count, b, err := readHeader(b, offset)
	if err != nil {
		return nil, nil, err
	}
	offset += HeaderWidth + 1 // digits + ':'

	list := make(List, 0, count)
	for i := 0; i < count; i++ {
		length, rest, err := readHeader(b, offset)
		if err != nil {
			return nil, nil, err
		}
		offset += HeaderWidth + 1
		b = rest

		if length > len(b) {
			return nil, nil, &slimerrors.WireFormatError{
				Operation: "read item",
				Offset:    offset,
				Message:   fmt.Sprintf("declared length %d exceeds remaining %d bytes", length, len(b)),
			}
		}

		payload := b[:length]
		b = b[length:]
		offset += length

		if len(b) == 0 || b[0] != ':' {
			return nil, nil, &slimerrors.WireFormatError{
				Operation: "read item",
				Offset:    offset,
				Message:   "item payload not followed by ':'",
			}
		}
		b = b[1:]
		offset++

		if isNestedList(payload) {
			nested, remainder, err := decodeList(payload, offset-length-1)
			if err != nil {
				return nil, nil, err
			}
			if len(remainder) != 0 {
				return nil, nil, &slimerrors.WireFormatError{
					Operation: "read item",
					Offset:    offset,
					Message:   "nested list has trailing bytes",
				}
			}
			list = append(list, nested)
		} else {
			list = append(list, string(payload))
		}
	}

	if len(b) == 0 || b[0] != ']' {
		return nil, nil, &slimerrors.WireFormatError{
			Operation: "read list",
			Offset:    offset,
			Message:   "list does not end with ']'",
		}
	}
	return list, b[1:], nil
}

// isNestedList reports whether payload is itself a framed list: a
// payload is a nested list when it both begins with '[' and ends with
// ']'.
func isNestedList(payload []byte) bool {
	return len(payload) >= 2 && payload[0] == '[' && payload[len(payload)-1] == ']'
}

// readHeader reads exactly HeaderWidth ASCII digits followed by ':' and
// returns the parsed integer plus the bytes following the separator.
func readHeader(b []byte, offset int) (int, []byte, error) {
	if len(b) < HeaderWidth+1 {
		return 0, nil, &slimerrors.WireFormatError{
			Operation: "read header",
			Offset:    offset,
			Message:   "not enough bytes for length header",
		}
	}
	digits := b[:HeaderWidth]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, nil, &slimerrors.WireFormatError{
				Operation: "read header",
				Offset:    offset,
				Header:    string(digits),
				Message:   "length header is not all digits",
			}
		}
	}
	if b[HeaderWidth] != ':' {
		return 0, nil, &slimerrors.WireFormatError{
			Operation: "read header",
			Offset:    offset + HeaderWidth,
			Header:    string(digits),
			Message:   "length header not followed by ':'",
		}
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil || n > MaxCount {
		return 0, nil, &slimerrors.WireFormatError{
			Operation: "read header",
			Offset:    offset,
			Header:    string(digits),
			Message:   "length header out of range",
		}
	}
	return n, b[HeaderWidth+1:], nil
}

// ReadFrame reads one top-level wire envelope: a HeaderWidth-digit
// decimal byte length, a ':' separator, then exactly that many bytes.
// This is the framing used both for the client's request payloads and
// the server's response payloads; it has no trailing ':'
// after the payload, unlike a packed item.
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderWidth+1)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, &slimerrors.NetworkError{Operation: "read frame header", Err: err}
	}
	if header[HeaderWidth] != ':' {
		return nil, &slimerrors.WireFormatError{
			Operation: "read frame header",
			Offset:    HeaderWidth,
			Header:    string(header[:HeaderWidth]),
			Message:   "frame header not followed by ':'",
		}
	}
	length, err := strconv.Atoi(string(header[:HeaderWidth]))
	if err != nil || length < 0 || length > MaxCount {
		return nil, &slimerrors.WireFormatError{
			Operation: "read frame header",
			Offset:    0,
			Header:    string(header[:HeaderWidth]),
			Message:   "frame length out of range",
		}
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, &slimerrors.NetworkError{Operation: "read frame body", Err: err}
	}
	return payload, nil
}

// WriteFrame writes one top-level wire envelope for payload.
func WriteFrame(w io.Writer, payload []byte) error {
	header := fmt.Sprintf("%0*d:", HeaderWidth, len(payload))
	if _, err := io.WriteString(w, header); err != nil {
		return &slimerrors.NetworkError{Operation: "write frame header", Err: err}
	}
	if _, err := w.Write(payload); err != nil {
		return &slimerrors.NetworkError{Operation: "write frame body", Err: err}
	}
	return nil
}
