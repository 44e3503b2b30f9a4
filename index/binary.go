package index

import "bytes"

// binarySniffLen is how much of a file is inspected for NUL bytes.
const binarySniffLen = 8000

// LooksBinary reports whether content should be kept out of the word index.
// Text files practically never contain NUL bytes; most binary formats do early on.
func LooksBinary(content []byte) bool {
	sniff := content
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	return bytes.IndexByte(sniff, 0) >= 0
}
