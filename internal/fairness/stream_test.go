package fairness

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"testing"
)

func TestStreamDeterministic(t *testing.T) {
	a := NewStream("server-seed", "client-seed", 7)
	b := NewStream("server-seed", "client-seed", 7)
	for i := 0; i < 100; i++ {
		x, y := a.Float(), b.Float()
		if x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
		if x < 0 || x >= 1 {
			t.Fatalf("draw %d out of range: %v", i, x)
		}
	}
	if a.Draws() != 100 {
		t.Fatalf("Draws() = %d, want 100", a.Draws())
	}
}

func TestStreamFirstChunkMatchesHMAC(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("s"))
	mac.Write([]byte("c:3:0"))
	sum := mac.Sum(nil)
	want := float64(binary.BigEndian.Uint32(sum[:4])) / 4294967296.0

	got := NewStream("s", "c", 3).Float()
	if got != want {
		t.Fatalf("first uniform = %v, want %v", got, want)
	}
}

func TestStreamCursorAdvancesAfterEightDraws(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("s"))
	mac.Write([]byte("c:3:1"))
	sum := mac.Sum(nil)
	want := float64(binary.BigEndian.Uint32(sum[:4])) / 4294967296.0

	s := NewStream("s", "c", 3)
	for i := 0; i < 8; i++ {
		s.Float()
	}
	if got := s.Float(); got != want {
		t.Fatalf("ninth uniform = %v, want first chunk of cursor 1 (%v)", got, want)
	}
}

func TestStreamNonceChangesOutput(t *testing.T) {
	a := NewStream("s", "c", 1).Float()
	b := NewStream("s", "c", 2).Float()
	if a == b {
		t.Fatal("different nonces produced the same first uniform")
	}
}

func TestIntnRange(t *testing.T) {
	s := NewStream("s", "c", 0)
	for i := 0; i < 500; i++ {
		v := s.Intn(25)
		if v < 0 || v >= 25 {
			t.Fatalf("Intn(25) = %d", v)
		}
	}
}

func TestReplayChecksCommitment(t *testing.T) {
	seed := "abc"
	if _, err := Replay(seed, HashServerSeed(seed), "c", 0); err != nil {
		t.Fatalf("replay with valid commitment: %v", err)
	}
	if _, err := Replay(seed, HashServerSeed("other"), "c", 0); err != ErrCommitmentMismatch {
		t.Fatalf("expected ErrCommitmentMismatch, got %v", err)
	}
}
