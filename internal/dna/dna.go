// Package dna holds the base-level sequence helpers: reverse complement,
// IUPAC ambiguity resolution, and the case checks the placement engine
// relies on (uppercase background, lowercase inserts).
package dna

import "math/rand"

var complement [256]byte

func init() {
	pairs := []struct{ a, b byte }{
		{'A', 'T'}, {'C', 'G'},
		{'a', 't'}, {'c', 'g'},
	}
	for _, p := range pairs {
		complement[p.a] = p.b
		complement[p.b] = p.a
	}
}

// RevComp reverse-complements seq into a new slice. Case is preserved;
// anything outside {A,C,G,T,a,c,g,t} becomes 'N'.
func RevComp(seq []byte) []byte {
	n := len(seq)
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		c := complement[seq[n-1-i]]
		if c == 0 {
			c = 'N'
		}
		out[i] = c
	}
	return out
}

// iupac maps each ambiguity code to its allowed concrete bases.
var iupac = map[byte]string{
	'A': "A", 'C': "C", 'G': "G", 'T': "T",
	'U': "T",
	'R': "AG", 'Y': "CT", 'S': "CG", 'W': "AT",
	'K': "GT", 'M': "AC",
	'B': "CGT", 'D': "AGT", 'H': "ACT", 'V': "ACG",
	'N': "ACGT",
}

// CheckBases resolves every IUPAC ambiguity code in seq to one of its
// allowed bases, drawn uniformly. Unknown characters resolve like 'N'.
// The output contains only uppercase {A,C,G,T}.
func CheckBases(r *rand.Rand, seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		c := seq[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		allowed, ok := iupac[c]
		if !ok {
			allowed = iupac['N']
		}
		out[i] = allowed[r.Intn(len(allowed))]
	}
	return string(out)
}

// HasLower reports whether buf[from:to) contains a lowercase base. Bounds
// are clamped to the buffer.
func HasLower(buf []byte, from, to int) bool {
	if from < 0 {
		from = 0
	}
	if to > len(buf) {
		to = len(buf)
	}
	for i := from; i < to; i++ {
		if buf[i] >= 'a' && buf[i] <= 'z' {
			return true
		}
	}
	return false
}

// ToLower lowercases a base slice in place.
func ToLower(seq []byte) {
	for i, c := range seq {
		if c >= 'A' && c <= 'Z' {
			seq[i] = c + ('a' - 'A')
		}
	}
}
