// Package imaging supplies the bundled pipeline collaborators: a
// deterministic noise frame source and file persistence sinks for the
// formats the CLI exposes. The pipeline core never imports this package;
// it sees plain GenerateFunc / PersistFunc values.
package imaging

import (
	"fmt"
	"math/rand"

	"github.com/LBrownI/VeryFastImageGenerator/pipeline"
)

// bytesPerPixel is the packed RGBA layout every bundled source and sink
// agrees on.
const bytesPerPixel = 4

// NoiseSource returns a frame source producing random RGBA noise with
// opaque alpha. The same seed reproduces the same frame sequence, which
// makes runs comparable and tests deterministic.
//
// The returned function is not safe for concurrent use; the pipeline
// calls its source from the single producer goroutine only.
func NoiseSource(seed int64) pipeline.GenerateFunc {
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- synthetic pixel noise, not security sensitive

	return func(width, height int) ([]byte, error) {
		if width <= 0 || height <= 0 {
			return nil, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
		}

		buf := make([]byte, width*height*bytesPerPixel)
		rng.Read(buf)
		for i := 3; i < len(buf); i += bytesPerPixel {
			buf[i] = 0xFF
		}
		return buf, nil
	}
}
