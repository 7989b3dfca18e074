// +build gofuzz

// This file exists to export internal implementation details for fuzz testing.

package lz4

func Fuzz(data []byte) int {
	enc := EncodeBlock(nil, data)

	got, err := DecodeBlock(nil, enc)
	if err != nil {
		panic(err)
	}
	if string(got) != string(data) {
		panic("lz4: round trip mismatch")
	}
	return 1
}
