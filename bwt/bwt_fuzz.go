// +build gofuzz

// This file exists to export internal implementation details for fuzz testing.

package bwt

func Fuzz(data []byte) int {
	sa := make([]int, len(data))
	out, origin := Encode(data, sa)

	table := make([]int, len(data))
	got, err := Decode(out, origin, table)
	if err != nil {
		panic(err)
	}
	if string(got) != string(data) {
		panic("bwt: round trip mismatch")
	}
	return 1
}
