// Package imaging turns raw chart bytes into the normalized raster the rest
// of the digitizer works on.
//
// Decode validates and decodes an in-memory buffer into a ChartImage; it
// never touches the filesystem. Preprocess produces a Normalized image: a
// single-channel intensity raster (grayscale, light blur, contrast stretch)
// plus the untouched colour pixels, which the curve extractor uses for hue
// separation.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner:
// X increases rightward and Y increases downward. Decoded images are always
// rebased so that Bounds().Min is (0,0).
//
// # Determinism
//
// Every function in this package is a pure transform of its inputs. Calling
// Preprocess twice on the same ChartImage yields identical pixels.
//
// # Error Handling
//
// Decode wraps ErrInvalidImage for undecodable buffers and for images whose
// width or height is below MinDimension. Callers should test with errors.Is.
package imaging
