package formats

import (
	"errors"
	"fmt"
	"math"
	"os"
)

// BT3 animation errors.
var (
	ErrTruncatedInput           = errors.New("truncated animation data")
	ErrInvalidKeyframeType      = errors.New("invalid keyframe type")
	ErrInvalidPointer           = errors.New("invalid division pointer")
	ErrNoAnimatedBones          = errors.New("animation has no animated bones")
	ErrUnconcatenableAnimations = errors.New("animations cannot be concatenated")
	ErrFrameCountMismatch       = errors.New("frame count mismatch")
	ErrFrameCountOverflow       = errors.New("frame count overflow")
	ErrZeroFrameCount           = errors.New("cannot rescale an animation of zero frames")
	ErrInvalidBoneID            = errors.New("invalid bone id")
	ErrInternalInvariant        = errors.New("internal invariant violated")
)

// Animation layout.
const (
	BoneCount          = 56  // fixed rig size
	MinAnimationSize   = 110 // smallest accepted input
	pointerTableOffset = 4
	HeaderSize         = pointerTableOffset + BoneCount*2 // header up to the end of the pointer table
	pointerUnit        = 4                                // division pointers count 4-byte words
	fileAlignment      = 16
)

// InvalidBoneIDError reports a bone id outside [0, BoneCount).
type InvalidBoneIDError struct {
	ID int
}

func (e *InvalidBoneIDError) Error() string {
	return fmt.Sprintf("%s: %d (valid range 0-%d)", ErrInvalidBoneID, e.ID, BoneCount-1)
}

// Unwrap lets errors.Is match ErrInvalidBoneID.
func (e *InvalidBoneIDError) Unwrap() error {
	return ErrInvalidBoneID
}

// Animation is a parsed BT3 skeletal animation.
type Animation struct {
	Magic      uint16
	FrameCount uint16
	Bones      [BoneCount]*BoneAnimation // nil = bone not animated

	// HeaderExtra is whatever sits between the pointer table and the first
	// bone body. Its meaning is unknown; it is written back verbatim.
	HeaderExtra []byte
}

// ParseAnimation parses a BT3 animation from raw bytes.
func ParseAnimation(data []byte) (*Animation, error) {
	if len(data) < MinAnimationSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrTruncatedInput, len(data), MinAnimationSize)
	}

	c := &cursor{data: data}
	anim := &Animation{
		Magic:      c.u16(0),
		FrameCount: c.u16(2),
	}

	firstBody := -1
	for i := 0; i < BoneCount; i++ {
		ptr := c.u16(pointerTableOffset + i*2)
		if c.err != nil {
			return nil, fmt.Errorf("reading pointer table: %w", c.err)
		}
		if ptr == 0 {
			continue
		}

		off := int(ptr) * pointerUnit
		if off < HeaderSize || off >= len(data) {
			return nil, fmt.Errorf("%w: bone %d points at 0x%X (file is 0x%X bytes)",
				ErrInvalidPointer, i, off, len(data))
		}

		bone, err := ParseBoneAnimation(data[off:])
		if err != nil {
			return nil, fmt.Errorf("parsing bone %d: %w", i, err)
		}
		anim.Bones[i] = bone

		if firstBody < 0 {
			firstBody = off
		}
	}

	if firstBody < 0 {
		return nil, ErrNoAnimatedBones
	}

	anim.HeaderExtra = append([]byte(nil), data[HeaderSize:firstBody]...)
	return anim, nil
}

// ParseAnimationFile parses a BT3 animation from disk.
func ParseAnimationFile(path string) (*Animation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading animation file: %w", err)
	}
	return ParseAnimation(data)
}

// AnimatedBoneCount returns the number of non-nil bone slots.
func (a *Animation) AnimatedBoneCount() int {
	n := 0
	for _, b := range a.Bones {
		if b != nil {
			n++
		}
	}
	return n
}

// AnimatedBoneIDs returns the ids of the non-nil bone slots in order.
func (a *Animation) AnimatedBoneIDs() []int {
	var ids []int
	for i, b := range a.Bones {
		if b != nil {
			ids = append(ids, i)
		}
	}
	return ids
}

// ScaleFrameCount changes the animation speed by mapping every keyframe onto
// newCount frames. Scaling loses precision; repeated scaling compounds it.
func (a *Animation) ScaleFrameCount(newCount uint16) error {
	if a.FrameCount == newCount {
		return nil
	}
	if a.FrameCount == 0 {
		return ErrZeroFrameCount
	}

	for _, bone := range a.Bones {
		if bone == nil {
			continue
		}
		// Cannot fail: the zero case is rejected above.
		_ = bone.ScaleTimestamps(a.FrameCount, newCount)
	}
	a.FrameCount = newCount
	return nil
}

// ImportBoneAnimations replaces the listed bone tracks with copies of the
// ones in src. Both animations must have the same frame count, otherwise
// nothing is changed. Out of range ids are skipped and reported in skipped;
// the rest of the batch still applies. A nil track in src clears the slot.
func (a *Animation) ImportBoneAnimations(src *Animation, boneIDs []int) (skipped []error, err error) {
	if a.FrameCount != src.FrameCount {
		return nil, fmt.Errorf("%w: source has %d frames, target has %d",
			ErrFrameCountMismatch, src.FrameCount, a.FrameCount)
	}

	for _, id := range boneIDs {
		if id < 0 || id >= BoneCount {
			skipped = append(skipped, &InvalidBoneIDError{ID: id})
			continue
		}
		a.Bones[id] = src.Bones[id].Clone()
	}
	return skipped, nil
}

// Concat appends other after a, with one transition frame in between.
//
// All shared bones are checked first; if any pair has different keyframe
// types the call fails and a is left untouched. Bones animated on only one
// side are cleared and their ids returned.
func (a *Animation) Concat(other *Animation) (dropped []int, err error) {
	for i := range a.Bones {
		mine, theirs := a.Bones[i], other.Bones[i]
		if mine != nil && theirs != nil && mine.Type != theirs.Type {
			return nil, fmt.Errorf("%w: bone %d is %s here and %s in the other animation",
				ErrUnconcatenableAnimations, i, mine.Type, theirs.Type)
		}
	}

	total := int(a.FrameCount) + 1 + int(other.FrameCount)
	if total > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d + 1 + %d frames", ErrFrameCountOverflow, a.FrameCount, other.FrameCount)
	}

	for i := range a.Bones {
		mine, theirs := a.Bones[i], other.Bones[i]
		switch {
		case mine == nil && theirs == nil:
		case mine == nil || theirs == nil:
			a.Bones[i] = nil
			dropped = append(dropped, i)
		default:
			if err := mine.Concat(a.FrameCount, theirs); err != nil {
				return nil, fmt.Errorf("%w: bone %d", ErrInternalInvariant, i)
			}
		}
	}

	a.FrameCount = uint16(total)
	return dropped, nil
}

// Clone returns a deep copy of the animation.
func (a *Animation) Clone() *Animation {
	c := &Animation{
		Magic:       a.Magic,
		FrameCount:  a.FrameCount,
		HeaderExtra: append([]byte(nil), a.HeaderExtra...),
	}
	for i, b := range a.Bones {
		c.Bones[i] = b.Clone()
	}
	return c
}

// MarshalBinary encodes the animation in its on-disk layout: header, pointer
// table, header extra, bone bodies in slot order, zero padding to 16 bytes.
func (a *Animation) MarshalBinary() ([]byte, error) {
	if a.AnimatedBoneCount() == 0 {
		return nil, ErrNoAnimatedBones
	}

	headerSize := HeaderSize + len(a.HeaderExtra)
	if headerSize%pointerUnit != 0 {
		return nil, fmt.Errorf("%w: header extra of %d bytes breaks 4-byte alignment",
			ErrInternalInvariant, len(a.HeaderExtra))
	}

	w := &writer{buf: make([]byte, 0, headerSize)}
	w.u16(uint64(a.Magic))
	w.u16(uint64(a.FrameCount))

	var body []byte
	for i, bone := range a.Bones {
		if bone == nil {
			w.u16(0)
			continue
		}
		w.u16(uint64((headerSize + len(body)) / pointerUnit))
		if w.err != nil {
			return nil, fmt.Errorf("bone %d pointer: %w", i, w.err)
		}

		data, err := bone.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("bone %d: %w", i, err)
		}
		body = append(body, data...)
	}
	w.bytes(a.HeaderExtra)

	if w.err != nil {
		return nil, w.err
	}
	if len(w.buf) != headerSize {
		return nil, fmt.Errorf("%w: header is %d bytes, expected %d",
			ErrInternalInvariant, len(w.buf), headerSize)
	}

	out := append(w.buf, body...)
	if rem := len(out) % fileAlignment; rem != 0 {
		out = append(out, make([]byte, fileAlignment-rem)...)
	}
	return out, nil
}

// Size returns the encoded size of the animation including padding.
func (a *Animation) Size() int {
	n := HeaderSize + len(a.HeaderExtra)
	for _, b := range a.Bones {
		if b != nil {
			n += b.Size()
		}
	}
	if rem := n % fileAlignment; rem != 0 {
		n += fileAlignment - rem
	}
	return n
}
