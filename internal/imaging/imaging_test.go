package imaging_test

import (
	"bytes"
	"context"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/LBrownI/VeryFastImageGenerator/internal/imaging"
	"github.com/LBrownI/VeryFastImageGenerator/pipeline"
)

func noiseFrame(t *testing.T, seed int64, width, height int) *pipeline.Frame {
	t.Helper()
	pixels, err := imaging.NoiseSource(seed)(width, height)
	if err != nil {
		t.Fatalf("unexpected source error: %v", err)
	}
	return &pipeline.Frame{Pixels: pixels, Width: width, Height: height, Seq: 0}
}

// TestParseFormat verifies the extension table, case folding included.
func TestParseFormat(t *testing.T) {
	cases := []struct {
		ext     string
		want    imaging.Format
		wantErr bool
	}{
		{"png", imaging.FormatPNG, false},
		{"PNG", imaging.FormatPNG, false},
		{"jpg", imaging.FormatJPEG, false},
		{"jpeg", imaging.FormatJPEG, false},
		{"raw", imaging.FormatRaw, false},
		{"rgba", imaging.FormatRaw, false},
		{"bmp", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := imaging.ParseFormat(tc.ext)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected an error", tc.ext)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): unexpected error: %v", tc.ext, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q): expected %d, got %d", tc.ext, tc.want, got)
		}
	}
}

// TestNoiseSourceIsDeterministicPerSeed verifies the same seed replays the
// same frame stream and a different seed diverges.
func TestNoiseSourceIsDeterministicPerSeed(t *testing.T) {
	a := imaging.NoiseSource(42)
	b := imaging.NoiseSource(42)
	c := imaging.NoiseSource(43)

	first, err := a(8, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	replay, err := b(8, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other, err := c(8, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(first, replay) {
		t.Error("expected identical frames from the same seed")
	}
	if bytes.Equal(first, other) {
		t.Error("expected different frames from different seeds")
	}

	second, err := a(8, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Equal(first, second) {
		t.Error("expected the stream to advance between frames")
	}
}

// TestNoiseSourcePayloadShape verifies the packed RGBA layout and the
// opaque alpha channel.
func TestNoiseSourcePayloadShape(t *testing.T) {
	pixels, err := imaging.NoiseSource(1)(5, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 5 * 3 * 4; len(pixels) != want {
		t.Fatalf("expected %d bytes, got %d", want, len(pixels))
	}
	for i := 3; i < len(pixels); i += 4 {
		if pixels[i] != 0xFF {
			t.Fatalf("expected opaque alpha at byte %d, got %#x", i, pixels[i])
		}
	}
}

// TestNoiseSourceRejectsBadDimensions verifies non-positive dimensions are
// an error, not a panic or an empty buffer.
func TestNoiseSourceRejectsBadDimensions(t *testing.T) {
	src := imaging.NoiseSource(1)
	for _, dims := range [][2]int{{0, 8}, {8, 0}, {-1, 8}, {8, -1}} {
		if _, err := src(dims[0], dims[1]); err == nil {
			t.Errorf("expected an error for %dx%d", dims[0], dims[1])
		}
	}
}

// TestFileSinkWritesDecodablePNG round-trips a frame through the PNG sink
// and verifies the byte count, the decoded bounds, and the pixels.
func TestFileSinkWritesDecodablePNG(t *testing.T) {
	frame := noiseFrame(t, 7, 3, 2)
	path := filepath.Join(t.TempDir(), "frame.png")

	n, err := imaging.FileSink(imaging.FormatPNG)(context.Background(), frame, path)
	if err != nil {
		t.Fatalf("unexpected sink error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected the artifact on disk: %v", err)
	}
	if n != info.Size() {
		t.Errorf("reported %d bytes but the file has %d", n, info.Size())
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("artifact does not decode: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 3 || bounds.Dy() != 2 {
		t.Fatalf("expected 3x2 bounds, got %v", bounds)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			i := (y*3 + x) * 4
			want := color.NRGBA{frame.Pixels[i], frame.Pixels[i+1], frame.Pixels[i+2], frame.Pixels[i+3]}
			got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if got != want {
				t.Fatalf("pixel (%d,%d): expected %v, got %v", x, y, want, got)
			}
		}
	}
}

// TestFileSinkRawRoundTrip verifies the raw sink dumps the payload
// verbatim and reports its exact length.
func TestFileSinkRawRoundTrip(t *testing.T) {
	frame := noiseFrame(t, 9, 4, 4)
	path := filepath.Join(t.TempDir(), "frame.raw")

	n, err := imaging.FileSink(imaging.FormatRaw)(context.Background(), frame, path)
	if err != nil {
		t.Fatalf("unexpected sink error: %v", err)
	}
	if n != int64(len(frame.Pixels)) {
		t.Errorf("expected %d bytes reported, got %d", len(frame.Pixels), n)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(data, frame.Pixels) {
		t.Error("raw artifact differs from the payload")
	}
}

// TestFileSinkWritesDecodableJPEG verifies the JPEG sink produces a
// decodable file with matching bounds. Pixels are lossy, so only the
// geometry is checked.
func TestFileSinkWritesDecodableJPEG(t *testing.T) {
	frame := noiseFrame(t, 11, 6, 4)
	path := filepath.Join(t.TempDir(), "frame.jpg")

	n, err := imaging.FileSink(imaging.FormatJPEG)(context.Background(), frame, path)
	if err != nil {
		t.Fatalf("unexpected sink error: %v", err)
	}
	if n <= 0 {
		t.Errorf("expected a positive byte count, got %d", n)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("artifact does not decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 6 || b.Dy() != 4 {
		t.Fatalf("expected 6x4 bounds, got %v", b)
	}
}

// TestFileSinkRejectsShortPayload verifies a payload that disagrees with
// the frame geometry fails without leaving a file behind.
func TestFileSinkRejectsShortPayload(t *testing.T) {
	frame := &pipeline.Frame{
		Pixels: make([]byte, 10),
		Width:  4,
		Height: 4,
		Seq:    2,
	}
	path := filepath.Join(t.TempDir(), "frame.png")

	if _, err := imaging.FileSink(imaging.FormatPNG)(context.Background(), frame, path); err == nil {
		t.Fatal("expected an error for a short payload")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no artifact, stat returned %v", err)
	}
}

// TestFileSinkFailsFastWhenCanceled verifies a canceled run context stops
// the save before any file is created.
func TestFileSinkFailsFastWhenCanceled(t *testing.T) {
	frame := noiseFrame(t, 13, 2, 2)
	path := filepath.Join(t.TempDir(), "frame.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := imaging.FileSink(imaging.FormatPNG)(ctx, frame, path); err == nil {
		t.Fatal("expected an error after cancellation")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no artifact, stat returned %v", err)
	}
}
