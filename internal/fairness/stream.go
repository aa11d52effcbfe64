package fairness

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"strconv"
)

const (
	chunkBytes  = 4
	chunkMaxInv = 1.0 / 4294967296.0 // 2^32
)

// Stream turns (server seed, client seed, nonce) into a reproducible
// sequence of uniforms in [0, 1). Each HMAC-SHA256 digest over
// "client_seed:nonce:cursor" yields eight 4 byte chunks; the cursor advances
// once a digest is used up.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	serverSeed []byte
	prefix     string
	cursor     int64
	buf        [sha256.Size]byte
	off        int
	draws      int
}

func NewStream(serverSeed, clientSeed string, nonce int64) *Stream {
	s := &Stream{
		serverSeed: []byte(serverSeed),
		prefix:     clientSeed + ":" + strconv.FormatInt(nonce, 10) + ":",
	}
	s.fill()
	return s
}

func (s *Stream) fill() {
	mac := hmac.New(sha256.New, s.serverSeed)
	mac.Write([]byte(s.prefix + strconv.FormatInt(s.cursor, 10)))
	copy(s.buf[:], mac.Sum(nil))
	s.off = 0
}

// Float returns the next uniform in [0, 1).
func (s *Stream) Float() float64 {
	if s.off+chunkBytes > len(s.buf) {
		s.cursor++
		s.fill()
	}
	v := binary.BigEndian.Uint32(s.buf[s.off : s.off+chunkBytes])
	s.off += chunkBytes
	s.draws++
	return float64(v) * chunkMaxInv
}

// Intn returns the next value in [0, n). n must be positive.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		panic("fairness: Intn with non-positive n")
	}
	v := int(s.Float() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// Draws is the number of uniforms consumed so far.
func (s *Stream) Draws() int {
	return s.draws
}
