// File: protocol/id.go
// Package protocol: stream and session identifier generation.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import "crypto/rand"

// idAlphabet is the 60-symbol alphabet River ids are drawn from:
// alphanumeric minus 'w'/'W', which render ambiguously in some narrow
// terminal fonts. No ecosystem nanoid port targets this exact alphabet,
// so ids are generated directly against crypto/rand below.
const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVXYZabcdefghijklmnopqrstuvxyz"

const idLength = 12

// NewID returns a random 12-character identifier, used for session and
// stream ids. The alphabet is not uniform-friendly to a naive modulo over
// crypto/rand bytes (256 isn't a multiple of 60), so each byte is
// rejection-sampled against the largest multiple of len(idAlphabet) below
// 256 to avoid skewing the output toward low-alphabet-index characters.
func NewID() (string, error) {
	const maxMultiple = 256 - (256 % len(idAlphabet))
	out := make([]byte, idLength)
	buf := make([]byte, 1)
	for i := 0; i < idLength; {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		if int(buf[0]) >= maxMultiple {
			continue
		}
		out[i] = idAlphabet[int(buf[0])%len(idAlphabet)]
		i++
	}
	return string(out), nil
}
