package dataprocessing

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// Encoding names accepted by NewDecoder
const (
	EncodingUTF8    = "utf-8"
	EncodingLatin1  = "latin-1"
	EncodingGB18030 = "gb18030"
)

// DefaultEncodings is the decode order used when none is configured
var DefaultEncodings = []string{EncodingUTF8, EncodingLatin1, EncodingGB18030}

// ErrDecodeFailure is returned when no candidate encoding accepts the content
var ErrDecodeFailure = errors.New("no candidate encoding could decode the content")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeFunc turns raw bytes into text or fails
type decodeFunc func([]byte) (string, error)

type candidate struct {
	name   string
	decode decodeFunc
}

// Decoder tries a fixed list of encodings in order; the first success wins
type Decoder struct {
	candidates []candidate
}

// NewDecoder builds a decoder for the named encodings, in order
func NewDecoder(names []string) (*Decoder, error) {
	if len(names) == 0 {
		names = DefaultEncodings
	}

	d := &Decoder{candidates: make([]candidate, 0, len(names))}
	for _, name := range names {
		c, err := candidateFor(name)
		if err != nil {
			return nil, err
		}
		d.candidates = append(d.candidates, c)
	}
	return d, nil
}

// DefaultDecoder returns the UTF-8, Latin-1, GB18030 chain
func DefaultDecoder() *Decoder {
	d, _ := NewDecoder(DefaultEncodings)
	return d
}

// Encodings lists the configured encodings in decode order
func (d *Decoder) Encodings() []string {
	names := make([]string, len(d.candidates))
	for i, c := range d.candidates {
		names[i] = c.name
	}
	return names
}

// Decode returns the decoded text and the name of the encoding that succeeded
func (d *Decoder) Decode(data []byte) (string, string, error) {
	for _, c := range d.candidates {
		text, err := c.decode(data)
		if err == nil {
			return text, c.name, nil
		}
	}
	return "", "", ErrDecodeFailure
}

func candidateFor(name string) (candidate, error) {
	switch normalized := strings.ToLower(strings.TrimSpace(name)); normalized {
	case "utf-8", "utf8":
		return candidate{name: EncodingUTF8, decode: decodeUTF8}, nil
	case "latin-1", "latin1", "iso-8859-1":
		return candidate{name: EncodingLatin1, decode: strictDecode(charmap.ISO8859_1)}, nil
	case "gb18030":
		return candidate{name: EncodingGB18030, decode: strictDecode(simplifiedchinese.GB18030)}, nil
	case "gbk":
		return candidate{name: "gbk", decode: strictDecode(simplifiedchinese.GBK)}, nil
	default:
		return candidate{}, fmt.Errorf("unsupported encoding %q", name)
	}
}

func decodeUTF8(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", errors.New("invalid utf-8")
	}
	return string(data), nil
}

// strictDecode treats replacement characters introduced by the transformer as failure
func strictDecode(enc encoding.Encoding) decodeFunc {
	return func(data []byte) (string, error) {
		out, _, err := transform.Bytes(enc.NewDecoder(), data)
		if err != nil {
			return "", err
		}
		if bytes.ContainsRune(out, utf8.RuneError) && !bytes.Contains(data, []byte(string(utf8.RuneError))) {
			return "", errors.New("invalid byte sequence")
		}
		return string(out), nil
	}
}
