package main

import (
	"bufio"
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
)

const (
	prefix    = "pref_"
	suffixLen = 16
	hmacKey   = "d259c7f656caf7f1"
)

var (
	nPairs = flag.Int("n", 1000000, "number of key:value pairs to generate")
	seed   = flag.Uint64("seed", 0, "random seed (0 picks one at random)")
)

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		var seedBytes [8]byte
		if _, err := crand.Read(seedBytes[:]); err != nil {
			panic(err)
		}
		seed = binary.LittleEndian.Uint64(seedBytes[:])
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func main() {
	flag.Parse()

	rng := newRand(*seed)
	h := hmac.New(sha256.New, []byte(hmacKey))
	w := bufio.NewWriter(os.Stdout)

	var buf [suffixLen / 2]byte
	for i := 0; i < *nPairs; i++ {
		binary.LittleEndian.PutUint64(buf[:], rng.Uint64())
		value := fmt.Sprintf("%s%x", prefix, buf)
		h.Reset()
		h.Write([]byte(value))
		key := hex.EncodeToString(h.Sum(nil))

		fmt.Fprintf(w, "%s:%s\n", key, value)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "gen-testdata: %s\n", err)
		os.Exit(1)
	}
}
