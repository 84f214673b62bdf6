// Package ocr reads printed tick labels.
//
// The calibrator depends only on the Reader interface, so it can be driven
// by Tesseract in production and by ReaderFunc fakes in tests. ParseNumber
// turns raw recognized text into a float, repairing the character
// confusions Tesseract typically makes on small numeric labels.
//
// # Tesseract Backend
//
// Tesseract is used through gosseract/v2 and therefore needs cgo and the
// tesseract/leptonica libraries:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Builds without cgo get a Tesseract whose ReadText always fails with
// ErrUnavailable; calibration then falls back to manual anchors.
//
// # Language Data
//
// The default language is English ("eng"). Set Config.TessdataPrefix when
// the traineddata files are not in the system location.
package ocr
