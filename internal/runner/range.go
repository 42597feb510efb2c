package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmr-tortoise/mdrun/internal/model"
)

// ErrMarkerNotFound is the sentinel for a --from or --until marker
// that matches no block. Use errors.Is to detect it; the concrete
// error is a *MarkerError naming the marker.
var ErrMarkerNotFound = errors.New("marker not found")

// MarkerError reports a range marker that matched no block. Silently
// running the whole document when the user asked for a slice would
// defeat the point of asking, so an unmatched marker is always an
// error.
type MarkerError struct {
	// Marker is the literal line the user asked to start or stop at.
	Marker string
}

// Error satisfies the error interface.
func (e *MarkerError) Error() string {
	return fmt.Sprintf("no block contains the line %q", e.Marker)
}

// Unwrap makes errors.Is(err, ErrMarkerNotFound) work.
func (e *MarkerError) Unwrap() error {
	return ErrMarkerNotFound
}

// Range narrows a block sequence to a contiguous sub-range selected
// by literal line markers, the way a reader resumes documentation
// partway through.
//
// from selects the first block containing a line equal to it; that
// block runs, everything before it does not. until stops the run
// after the first matching block at or after the range start,
// inclusive. An empty marker means "from the beginning" and "to the
// end" respectively.
//
// Narrowing never renumbers: surviving blocks keep the Index and Line
// they were extracted with, so diagnostics still point at the
// document.
func Range(blocks []model.Block, from, until string) ([]model.Block, error) {
	start := 0
	if from != "" {
		i := findMarker(blocks, 0, from)
		if i < 0 {
			return nil, &MarkerError{Marker: from}
		}
		start = i
	}

	end := len(blocks)
	if until != "" {
		i := findMarker(blocks, start, until)
		if i < 0 {
			return nil, &MarkerError{Marker: until}
		}
		end = i + 1
	}

	return blocks[start:end], nil
}

// findMarker returns the index of the first block at or after start
// that contains a line exactly equal to marker, or -1.
func findMarker(blocks []model.Block, start int, marker string) int {
	for i := start; i < len(blocks); i++ {
		for _, line := range strings.Split(blocks[i].Text, "\n") {
			if line == marker {
				return i
			}
		}
	}
	return -1
}
