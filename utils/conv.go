package utils

import (
	"bytes"

	"github.com/mogaika/scenegraph/config"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// BytesToString decodes a NUL-terminated string in the configured encoding.
func BytesToString(bs []byte) string {
	n := bytes.IndexByte(bs, 0)
	if n < 0 {
		n = len(bs)
	}

	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs[0:n])
	if err != nil {
		panic(err)
	}

	return string(s)
}

// StringToBytes encodes s with the configured encoding. Runes the
// charmap can't represent are replaced rather than failing.
func StringToBytes(s string, nilTerminate bool) []byte {
	enc := encoding.ReplaceUnsupported(config.GetEncoding().NewEncoder())
	bs, _, err := transform.Bytes(enc, []byte(s))
	if err != nil {
		panic(err)
	}

	if nilTerminate {
		bs = append(bs, 0)
	}
	return bs
}
