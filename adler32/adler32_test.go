package adler32

import "testing"

func TestReferenceVectors(t *testing.T) {
	vectors := []struct {
		input string
		want  uint32
	}{
		{"", 1},
		{"a", 0x00620062},
		{"abc", 0x024d0127},
	}
	for _, v := range vectors {
		if got := Checksum([]byte(v.input)); got != v.want {
			t.Errorf("Checksum(%q) = 0x%08x, want 0x%08x", v.input, got, v.want)
		}
	}
}

func TestIncrementalMatchesOneShot(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	want := Checksum(data)

	d := New()
	for i := 0; i < len(data); i += 7 {
		end := i + 7
		if end > len(data) {
			end = len(data)
		}
		d.Write(data[i:end])
	}
	if got := d.Sum32(); got != want {
		t.Errorf("incremental Sum32() = 0x%08x, want 0x%08x", got, want)
	}
}

func TestReset(t *testing.T) {
	d := New()
	d.Write([]byte("abc"))
	d.Reset()
	if got := d.Sum32(); got != 1 {
		t.Errorf("Sum32() after Reset = 0x%08x, want 1", got)
	}
}
