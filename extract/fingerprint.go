package extract

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// Fingerprint computes a 64-bit SimHash of filtered text. Callers use it to
// spot near-duplicate pages (mirrors, tracking-parameter variants) without
// storing full content. FNV-64a over word tokens with bit-vector voting.
func Fingerprint(text string) uint64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	var vector [64]int
	for _, word := range words {
		h := fnv.New64a()
		h.Write([]byte(word))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}

// HammingDistance returns the number of differing bits between two
// fingerprints; small distances mean near-identical content.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
