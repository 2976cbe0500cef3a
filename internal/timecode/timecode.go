// Package timecode converts fractional-second offsets to frame-accurate
// HH:MM:SS:FF timecodes consumed by the downstream transcoding service.
package timecode

import (
	"fmt"
	"math"
)

// FrameRate is the fixed frame rate of the source recordings.
const FrameRate = 25

// Timecode is a frame-accurate position in the source video.
type Timecode struct {
	Hours   int
	Minutes int
	Seconds int
	Frames  int
}

// String formats the timecode as zero-padded HH:MM:SS:FF.
func (tc Timecode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d:%02d", tc.Hours, tc.Minutes, tc.Seconds, tc.Frames)
}

// frameEpsilon compensates for the binary representation of decimal second
// values: 3661.04 stores as 3661.039999..., and truncating its fractional
// part times 25 would drop a frame the transcoder expects to see.
const frameEpsilon = 1e-9

// FromSeconds converts a fractional-second offset to a Timecode. The frame
// count is the truncated fractional part times the frame rate; beyond the
// representation epsilon there is no rounding, so 0.04s is exactly one frame
// and anything short of a full frame is dropped. Negative or non-finite
// inputs are errors.
func FromSeconds(seconds float64) (Timecode, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return Timecode{}, fmt.Errorf("timecode: non-finite input %v", seconds)
	}
	if seconds < 0 {
		return Timecode{}, fmt.Errorf("timecode: negative input %v", seconds)
	}

	whole := math.Floor(seconds)
	frames := int(math.Floor((seconds-whole)*FrameRate + frameEpsilon))
	if frames >= FrameRate {
		frames = FrameRate - 1
	}
	return Timecode{
		Hours:   int(whole) / 3600,
		Minutes: (int(whole) % 3600) / 60,
		Seconds: int(whole) % 60,
		Frames:  frames,
	}, nil
}
