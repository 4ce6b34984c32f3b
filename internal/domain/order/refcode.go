package order

import (
	"crypto/rand"
	"math/big"
)

// refCodeAlphabet is the character set reference codes draw from.
const refCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RefCodeLength is the fixed length of order reference codes.
const RefCodeLength = 20

// NewRefCode generates an opaque reference code: RefCodeLength characters
// drawn uniformly at random from lowercase letters and digits. Uniqueness
// is enforced at the store; finalization retries on collision.
func NewRefCode() string {
	buf := make([]byte, RefCodeLength)
	max := big.NewInt(int64(len(refCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing means the platform's entropy source is
			// broken; nothing sensible to do but stop.
			panic(err)
		}
		buf[i] = refCodeAlphabet[n.Int64()]
	}
	return string(buf)
}
