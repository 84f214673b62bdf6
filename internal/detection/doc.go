// Package detection provides the raster primitives shared by the axis
// calibrator and the curve extractor.
//
// The package works on binary ink masks rather than edge maps: printed
// charts are line art, so thresholding the normalized intensity image
// separates ink from paper more reliably than gradient detectors do.
//
// # Building Blocks
//
//   - Mask, Binarize and InkThreshold: Otsu-thresholded ink mask
//   - Run, RowRuns and ColumnRuns: contiguous ink runs along a row or column
//   - DetectFrame: the plot frame (axes and optional right/top frame lines)
//   - Components: 8-connected ink components with bounding boxes
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Runs and bands use inclusive start and end positions.
//
// # Frame Heuristic
//
// A band is a group of adjacent rows (or columns) each containing an ink run
// at least MinFraction of the image dimension long. The x axis is the lowest
// horizontal band and the primary y axis the leftmost vertical band; a
// vertical band ending where the x axis ends is the right frame line, which
// carries the secondary y axis when it has ticks and labels. Bands touching
// the image border are treated as page borders and ignored.
package detection
