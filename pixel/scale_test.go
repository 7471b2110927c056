package pixel

import "testing"

func TestScaleIdentity(t *testing.T) {
	rgb := solid(8, 8, 1, 2, 3)
	out, err := Scale(rgb, 8, 8, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(rgb) {
		t.Fatalf("got %d bytes, want %d", len(out), len(rgb))
	}
	for i := range rgb {
		if out[i] != rgb[i] {
			t.Fatalf("byte %d changed under identity scale: got %d want %d", i, out[i], rgb[i])
		}
	}
}

func TestScaleDimensions(t *testing.T) {
	rgb := solid(16, 16, 100, 150, 200)
	out, err := Scale(rgb, 16, 16, 720, 486)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 720*486*3 {
		t.Fatalf("got %d bytes, want %d", len(out), 720*486*3)
	}
}

func TestScaleFlatRegionPreservesColor(t *testing.T) {
	rgb := solid(32, 32, 50, 60, 70)
	out, err := Scale(rgb, 32, 32, 16, 16)
	if err != nil {
		t.Fatal(err)
	}
	// The interior of a flat region should scale to (approximately) the
	// same color; edges may differ slightly due to kernel clamping.
	mid := (8*16 + 8) * 3
	if abs8(out[mid], 50) > 3 || abs8(out[mid+1], 60) > 3 || abs8(out[mid+2], 70) > 3 {
		t.Fatalf("got (%d,%d,%d), want ~(50,60,70)", out[mid], out[mid+1], out[mid+2])
	}
}
