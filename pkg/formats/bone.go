package formats

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Bone track layout.
const (
	boneHeaderSize       = 4  // u16 type + u16 keyframe count
	rotationRecordSize   = 8  // type 1: one rotation blob
	rotationTimeSize     = 2  // type 1: one u16 timestamp
	translatedRecordSize = 24 // type 0: 3*f32 + u32 timestamp + rotation blob
)

// BoneAnimation is the keyframe track of one bone. Every keyframe has the
// encoding named by Type, and the slice order is the playback order.
type BoneAnimation struct {
	Type      KeyframeType
	Keyframes []Keyframe
}

// ParseBoneAnimation parses a bone track starting at the beginning of data.
// Trailing bytes are ignored.
func ParseBoneAnimation(data []byte) (*BoneAnimation, error) {
	c := &cursor{data: data}
	kfType := KeyframeType(c.u16(0))
	count := int(c.u16(2))
	if c.err != nil {
		return nil, fmt.Errorf("reading bone header: %w", c.err)
	}
	if !kfType.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKeyframeType, uint16(kfType))
	}

	bone := &BoneAnimation{
		Type:      kfType,
		Keyframes: make([]Keyframe, 0, count),
	}

	switch kfType {
	case KeyframeRotation:
		// All rotation blobs first, then all timestamps.
		timesStart := boneHeaderSize + count*rotationRecordSize
		for i := 0; i < count; i++ {
			bone.Keyframes = append(bone.Keyframes, &RotationKeyframe{
				Rot:  c.blob(boneHeaderSize + i*rotationRecordSize),
				Time: uint32(c.u16(timesStart + i*rotationTimeSize)),
			})
		}
	case KeyframeTranslated:
		for i := 0; i < count; i++ {
			off := boneHeaderSize + i*translatedRecordSize
			bone.Keyframes = append(bone.Keyframes, &TranslationKeyframe{
				Position: mgl32.Vec3{c.f32(off), c.f32(off + 4), c.f32(off + 8)},
				Time:     c.u32(off + 12),
				Rot:      c.blob(off + 16),
			})
		}
	}

	if c.err != nil {
		return nil, fmt.Errorf("reading %d %s keyframes: %w", count, kfType, c.err)
	}
	return bone, nil
}

// Size returns the encoded size of the track in bytes. It is always a
// multiple of 4.
func (b *BoneAnimation) Size() int {
	n := len(b.Keyframes)
	if b.Type == KeyframeRotation {
		times := n * rotationTimeSize
		if n%2 != 0 {
			times += rotationTimeSize
		}
		return boneHeaderSize + n*rotationRecordSize + times
	}
	return boneHeaderSize + n*translatedRecordSize
}

// ScaleTimestamps maps every timestamp from a clip of oldCount frames onto
// one of newCount frames, rounding half away from zero.
func (b *BoneAnimation) ScaleTimestamps(oldCount, newCount uint16) error {
	if oldCount == newCount {
		return nil
	}
	if oldCount == 0 {
		return ErrZeroFrameCount
	}
	for _, kf := range b.Keyframes {
		kf.SetTimestamp(scaleTimestamp(kf.Timestamp(), oldCount, newCount))
	}
	return nil
}

func scaleTimestamp(ts uint32, oldCount, newCount uint16) uint32 {
	scaled := math.Round(float64(ts) / float64(oldCount) * float64(newCount))
	if scaled > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(scaled)
}

// Concat appends copies of other's keyframes, shifted by oldFrameCount+1
// ticks. The extra tick is the transition frame between the two clips.
// other is never modified.
func (b *BoneAnimation) Concat(oldFrameCount uint16, other *BoneAnimation) error {
	if b.Type != other.Type {
		return fmt.Errorf("%w: %s track cannot take %s keyframes",
			ErrUnconcatenableAnimations, b.Type, other.Type)
	}

	offset := uint32(oldFrameCount) + 1
	merged := make([]Keyframe, 0, len(b.Keyframes)+len(other.Keyframes))
	merged = append(merged, b.Keyframes...)
	for _, kf := range other.Keyframes {
		c := kf.Clone()
		c.SetTimestamp(c.Timestamp() + offset)
		merged = append(merged, c)
	}
	b.Keyframes = merged
	return nil
}

// Clone returns a deep copy. Cloning a nil track returns nil.
func (b *BoneAnimation) Clone() *BoneAnimation {
	if b == nil {
		return nil
	}
	c := &BoneAnimation{
		Type:      b.Type,
		Keyframes: make([]Keyframe, len(b.Keyframes)),
	}
	for i, kf := range b.Keyframes {
		c.Keyframes[i] = kf.Clone()
	}
	return c
}

// MarshalBinary encodes the track in its on-disk layout.
func (b *BoneAnimation) MarshalBinary() ([]byte, error) {
	if !b.Type.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKeyframeType, uint16(b.Type))
	}

	w := &writer{buf: make([]byte, 0, b.Size())}
	w.u16(uint64(b.Type))
	w.u16(uint64(len(b.Keyframes)))

	for i, kf := range b.Keyframes {
		if kf.Type() != b.Type {
			return nil, fmt.Errorf("%w: keyframe %d is %s in a %s track",
				ErrInternalInvariant, i, kf.Type(), b.Type)
		}
	}

	switch b.Type {
	case KeyframeRotation:
		for _, kf := range b.Keyframes {
			rot := kf.Rotation()
			w.bytes(rot[:])
		}
		for _, kf := range b.Keyframes {
			w.u16(uint64(kf.Timestamp()))
		}
		if len(b.Keyframes)%2 != 0 {
			w.u16(0)
		}
	case KeyframeTranslated:
		for _, kf := range b.Keyframes {
			pos, _ := kf.Translation()
			w.f32(pos[0])
			w.f32(pos[1])
			w.f32(pos[2])
			w.u32(uint64(kf.Timestamp()))
			rot := kf.Rotation()
			w.bytes(rot[:])
		}
	}

	if w.err != nil {
		return nil, fmt.Errorf("encoding %s track: %w", b.Type, w.err)
	}
	return w.buf, nil
}
