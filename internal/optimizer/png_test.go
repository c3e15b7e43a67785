package optimizer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"optipix/internal/config"
)

// buildPNG encodes a small gradient at default compression, optionally
// with a tEXt metadata chunk spliced in before IDAT.
func buildPNG(t *testing.T, w, h int, withText bool) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8(x + y), A: 0xff})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if !withText {
		return buf.Bytes()
	}

	chunks, err := parsePNGChunks(buf.Bytes())
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	var out bytes.Buffer
	out.Write(pngSignature)
	for _, c := range chunks {
		if c.typ == "IDAT" {
			writePNGChunk(&out, "tEXt", []byte("Comment\x00made by a test"))
		}
		writePNGChunk(&out, c.typ, c.data)
	}
	return out.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return img
}

func samePixels(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	for y := a.Bounds().Min.Y; y < a.Bounds().Max.Y; y++ {
		for x := a.Bounds().Min.X; x < a.Bounds().Max.X; x++ {
			ar, ag, ab, aa := a.At(x, y).RGBA()
			br, bg, bb, ba := b.At(x, y).RGBA()
			if ar != br || ag != bg || ab != bb || aa != ba {
				return false
			}
		}
	}
	return true
}

func TestRecompressPNGStripsMetadata(t *testing.T) {
	original := buildPNG(t, 24, 24, true)

	out, err := recompressPNG(original)
	if err != nil {
		t.Fatalf("recompress: %v", err)
	}
	if bytes.Contains(out, []byte("made by a test")) {
		t.Fatal("tEXt chunk survived recompression")
	}
	if !samePixels(decodePNG(t, original), decodePNG(t, out)) {
		t.Fatal("pixel data changed")
	}
}

func TestRecompressPNGRejectsGarbage(t *testing.T) {
	if _, err := recompressPNG([]byte("definitely not a png")); err == nil {
		t.Fatal("expected error for invalid signature")
	}
	if _, err := recompressPNG(pngSignature); err == nil {
		t.Fatal("expected error for signature with no chunks worth keeping")
	}
}

func TestPNGOptimizeIsLossless(t *testing.T) {
	original := buildPNG(t, 32, 32, true)

	for _, effort := range []string{config.PNGEffortFast, config.PNGEffortMax} {
		out, err := pngOptimizer{}.Optimize(original, config.Run{PNGEffort: effort})
		if err != nil {
			t.Fatalf("optimize (%s): %v", effort, err)
		}
		if !samePixels(decodePNG(t, original), decodePNG(t, out)) {
			t.Fatalf("effort %s changed pixels", effort)
		}
	}
}

func TestPNGMaxEffortNoLargerThanFast(t *testing.T) {
	original := buildPNG(t, 48, 48, true)

	fast, err := pngOptimizer{}.Optimize(original, config.Run{PNGEffort: config.PNGEffortFast})
	if err != nil {
		t.Fatalf("fast: %v", err)
	}
	max, err := pngOptimizer{}.Optimize(original, config.Run{PNGEffort: config.PNGEffortMax})
	if err != nil {
		t.Fatalf("max: %v", err)
	}
	if len(max) > len(fast) {
		t.Fatalf("max effort produced a larger file: %d > %d", len(max), len(fast))
	}
}

func TestPNGOptimizeResizes(t *testing.T) {
	// Both effort levels must honor the constraint; at max effort the
	// chunk pass over the original bytes must not win with the unresized
	// dimensions.
	for _, withText := range []bool{false, true} {
		original := buildPNG(t, 40, 20, withText)
		for _, effort := range []string{config.PNGEffortFast, config.PNGEffortMax} {
			out, err := pngOptimizer{}.Optimize(original, config.Run{MaxEdge: 10, PNGEffort: effort})
			if err != nil {
				t.Fatalf("optimize (%s): %v", effort, err)
			}
			b := decodePNG(t, out).Bounds()
			if b.Dx() != 10 || b.Dy() != 5 {
				t.Fatalf("effort %s: bounds = %v, want 10x5", effort, b)
			}
		}
	}
}

func TestRedeflateRoundTrip(t *testing.T) {
	chunks, err := parsePNGChunks(buildPNG(t, 16, 16, false))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var idat []byte
	for _, c := range chunks {
		if c.typ == "IDAT" {
			idat = append(idat, c.data...)
		}
	}
	if len(idat) == 0 {
		t.Fatal("fixture has no IDAT")
	}

	out, err := redeflate(idat)
	if err != nil {
		t.Fatalf("redeflate: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("redeflate produced empty stream")
	}
}
