package imaging

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"github.com/LBrownI/VeryFastImageGenerator/pipeline"
)

// DefaultJPEGQuality is used by the JPEG sink.
const DefaultJPEGQuality = 90

// Format selects the on-disk encoding of a frame.
type Format int

const (
	// FormatPNG encodes lossless PNG.
	FormatPNG Format = iota
	// FormatJPEG encodes JPEG at DefaultJPEGQuality.
	FormatJPEG
	// FormatRaw dumps the packed RGBA payload as-is.
	FormatRaw
)

// ParseFormat maps a file extension (without the dot) to a Format.
// Unknown extensions are a configuration error.
func ParseFormat(ext string) (Format, error) {
	switch strings.ToLower(ext) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "raw", "rgba":
		return FormatRaw, nil
	default:
		return 0, fmt.Errorf("unsupported image extension %q (want png, jpg, jpeg, raw or rgba)", ext)
	}
}

// FileSink returns a persist function writing one file per frame in the
// given format. It reports the exact number of bytes written; on any
// failure it removes the partial file and returns an error, never
// success for a corrupt artifact. Safe for concurrent use by the writer
// pool: every call touches only its own file.
//
// The sink honors ctx: once the run is canceled, remaining saves fail
// fast so shutdown never hangs on a slow disk.
func FileSink(format Format) pipeline.PersistFunc {
	return func(ctx context.Context, frame *pipeline.Frame, path string) (int64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if want := frame.Width * frame.Height * bytesPerPixel; len(frame.Pixels) != want {
			return 0, fmt.Errorf("frame %d: payload is %d bytes, want %d for %dx%d RGBA",
				frame.Seq, len(frame.Pixels), want, frame.Width, frame.Height)
		}

		f, err := os.Create(path)
		if err != nil {
			return 0, err
		}

		counter := &countingWriter{w: f}
		buffered := bufio.NewWriter(counter)

		err = encode(buffered, frame, format)
		if err == nil {
			err = buffered.Flush()
		}
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(path)
			return 0, fmt.Errorf("persist frame %d: %w", frame.Seq, err)
		}
		return counter.n, nil
	}
}

func encode(w *bufio.Writer, frame *pipeline.Frame, format Format) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, wrapImage(frame))
	case FormatJPEG:
		return jpeg.Encode(w, wrapImage(frame), &jpeg.Options{Quality: DefaultJPEGQuality})
	case FormatRaw:
		_, err := w.Write(frame.Pixels)
		return err
	default:
		return fmt.Errorf("unknown format %d", int(format))
	}
}

// wrapImage views the payload as an image without copying it.
func wrapImage(frame *pipeline.Frame) *image.NRGBA {
	return &image.NRGBA{
		Pix:    frame.Pixels,
		Stride: frame.Width * bytesPerPixel,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
