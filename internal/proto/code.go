package proto

import (
	"errors"
	"math/rand"
	"strings"
)

// Game codes are displayed to players as 4 or 6 letters but travel on the
// wire as an int32. Four letter codes are simply the ASCII bytes packed
// little-endian. Six letter codes use a scrambled alphabet and a packed
// representation with the sign bit set to distinguish them from V1 codes.
const codeV2Alphabet = "QWXRTYLPESDFGHUJKZOCVBINMA"

// Reverse lookup from A-Z to position in the V2 alphabet.
var codeV2Index [26]int32

func init() {
	for i, c := range codeV2Alphabet {
		codeV2Index[c-'A'] = int32(i)
	}
}

var ErrInvalidGameCode = errors.New("invalid game code")

// GameCodeToInt converts a 4 or 6 letter game code to its wire form.
func GameCodeToInt(code string) (int32, error) {
	code = strings.ToUpper(code)
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return 0, ErrInvalidGameCode
		}
	}

	switch len(code) {
	case 4:
		return int32(code[0]) | int32(code[1])<<8 | int32(code[2])<<16 | int32(code[3])<<24, nil
	case 6:
		a := codeV2Index[code[0]-'A']
		b := codeV2Index[code[1]-'A']
		c := codeV2Index[code[2]-'A']
		d := codeV2Index[code[3]-'A']
		e := codeV2Index[code[4]-'A']
		f := codeV2Index[code[5]-'A']

		one := (a + 26*b) & 0x3ff
		two := c + 26*(d+26*(e+26*f))

		return one | ((two << 10) & 0x3ffffc00) | int32(-0x80000000), nil
	}
	return 0, ErrInvalidGameCode
}

// IntToGameCode renders a wire-form game code as its display string.
func IntToGameCode(value int32) string {
	// V1 codes are non-negative: four raw ASCII bytes.
	if value >= 0 {
		return string([]byte{
			byte(value),
			byte(value >> 8),
			byte(value >> 16),
			byte(value >> 24),
		})
	}

	a := value & 0x3ff
	b := (value >> 10) & 0xfffff

	return string([]byte{
		codeV2Alphabet[a%26],
		codeV2Alphabet[a/26],
		codeV2Alphabet[b%26],
		codeV2Alphabet[b/26%26],
		codeV2Alphabet[b/676%26],
		codeV2Alphabet[b/17576%26],
	})
}

// GenerateGameCode returns a random 6 letter code in wire form.
func GenerateGameCode() int32 {
	code, _ := GameCodeToInt(randomLetters(6))
	return code
}

// GenerateGameCodeV1 returns a random 4 letter code in wire form.
func GenerateGameCodeV1() int32 {
	code, _ := GameCodeToInt(randomLetters(4))
	return code
}

func randomLetters(n int) string {
	letters := make([]byte, n)
	for i := range letters {
		letters[i] = byte('A' + rand.Intn(26))
	}
	return string(letters)
}
