package formats

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// KeyframeType identifies the keyframe encoding used by a bone track.
type KeyframeType uint16

// Keyframe encodings.
const (
	KeyframeTranslated KeyframeType = 0 // translation + rotation, 32-bit timestamp
	KeyframeRotation   KeyframeType = 1 // rotation only, 16-bit timestamp
)

// String returns a short human readable name.
func (t KeyframeType) String() string {
	switch t {
	case KeyframeTranslated:
		return "translated"
	case KeyframeRotation:
		return "rotation"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(t))
	}
}

// Valid reports whether t is one of the known encodings.
func (t KeyframeType) Valid() bool {
	return t == KeyframeTranslated || t == KeyframeRotation
}

// RotationBlob is an encoded rotation. The game's encoding is not decoded here;
// the bytes are carried through unchanged.
type RotationBlob [8]byte

// Keyframe is one timestamped pose sample of a bone track.
type Keyframe interface {
	Type() KeyframeType
	Rotation() RotationBlob
	Timestamp() uint32
	SetTimestamp(ts uint32)
	// Translation returns false for encodings without a translation.
	Translation() (mgl32.Vec3, bool)
	Clone() Keyframe
}

// TranslationKeyframe is a type 0 keyframe.
type TranslationKeyframe struct {
	Position mgl32.Vec3
	Rot      RotationBlob
	Time     uint32
}

// Type returns KeyframeTranslated.
func (k *TranslationKeyframe) Type() KeyframeType { return KeyframeTranslated }

// Rotation returns the raw rotation blob.
func (k *TranslationKeyframe) Rotation() RotationBlob { return k.Rot }

// Timestamp returns the keyframe time in ticks.
func (k *TranslationKeyframe) Timestamp() uint32 { return k.Time }

// SetTimestamp replaces the keyframe time.
func (k *TranslationKeyframe) SetTimestamp(ts uint32) { k.Time = ts }

// Translation returns the bone position.
func (k *TranslationKeyframe) Translation() (mgl32.Vec3, bool) { return k.Position, true }

// Clone returns an independent copy.
func (k *TranslationKeyframe) Clone() Keyframe {
	c := *k
	return &c
}

// RotationKeyframe is a type 1 keyframe. Time is held widened to 32 bits so
// that offsetting never wraps silently; it must fit 16 bits when written.
type RotationKeyframe struct {
	Rot  RotationBlob
	Time uint32
}

// Type returns KeyframeRotation.
func (k *RotationKeyframe) Type() KeyframeType { return KeyframeRotation }

// Rotation returns the raw rotation blob.
func (k *RotationKeyframe) Rotation() RotationBlob { return k.Rot }

// Timestamp returns the keyframe time in ticks.
func (k *RotationKeyframe) Timestamp() uint32 { return k.Time }

// SetTimestamp replaces the keyframe time.
func (k *RotationKeyframe) SetTimestamp(ts uint32) { k.Time = ts }

// Translation always reports false: rotation keyframes carry no position.
func (k *RotationKeyframe) Translation() (mgl32.Vec3, bool) { return mgl32.Vec3{}, false }

// Clone returns an independent copy.
func (k *RotationKeyframe) Clone() Keyframe {
	c := *k
	return &c
}
