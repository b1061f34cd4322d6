package checksum

import "testing"

func TestSum_KnownVector(t *testing.T) {
	got := Sum([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("Sum(abc) = %q, want %q", got, want)
	}
}

func TestFingerprint_SeparatesTitleAndBody(t *testing.T) {
	if Fingerprint("ab", "c") == Fingerprint("a", "bc") {
		t.Error("fingerprint should depend on the title/body split")
	}
	if Fingerprint("t", "b") != Sum([]byte("t||b")) {
		t.Error("fingerprint should hash title||body")
	}
}
