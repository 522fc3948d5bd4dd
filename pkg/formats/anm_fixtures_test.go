package formats

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// testBlob returns a recognisable rotation blob.
func testBlob(seed byte) RotationBlob {
	var r RotationBlob
	for i := range r {
		r[i] = seed + byte(i)
	}
	return r
}

func rotationTrack(times ...uint32) *BoneAnimation {
	b := &BoneAnimation{Type: KeyframeRotation}
	for i, ts := range times {
		b.Keyframes = append(b.Keyframes, &RotationKeyframe{Rot: testBlob(byte(i * 8)), Time: ts})
	}
	return b
}

func translatedTrack(times ...uint32) *BoneAnimation {
	b := &BoneAnimation{Type: KeyframeTranslated}
	for i, ts := range times {
		f := float32(i)
		b.Keyframes = append(b.Keyframes, &TranslationKeyframe{
			Position: mgl32.Vec3{f, f + 0.5, -f},
			Rot:      testBlob(byte(0x80 + i*8)),
			Time:     ts,
		})
	}
	return b
}

func newTestAnimation(frameCount uint16, bones map[int]*BoneAnimation) *Animation {
	a := &Animation{Magic: 0x0003, FrameCount: frameCount}
	for id, b := range bones {
		a.Bones[id] = b
	}
	return a
}

func timestamps(b *BoneAnimation) []uint32 {
	out := make([]uint32, len(b.Keyframes))
	for i, kf := range b.Keyframes {
		out[i] = kf.Timestamp()
	}
	return out
}

// rawBone is a bone body written independently of MarshalBinary.
type rawBone struct {
	kfType uint16
	blobs  []RotationBlob
	times  []uint32
	pos    [][3]float32
}

func (rb rawBone) encode() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, rb.kfType)
	binary.Write(&buf, binary.LittleEndian, uint16(len(rb.times)))
	if rb.kfType == 1 {
		for _, b := range rb.blobs {
			buf.Write(b[:])
		}
		for _, ts := range rb.times {
			binary.Write(&buf, binary.LittleEndian, uint16(ts))
		}
		if len(rb.times)%2 != 0 {
			buf.Write([]byte{0, 0})
		}
		return buf.Bytes()
	}
	for i, ts := range rb.times {
		binary.Write(&buf, binary.LittleEndian, rb.pos[i])
		binary.Write(&buf, binary.LittleEndian, ts)
		buf.Write(rb.blobs[i][:])
	}
	return buf.Bytes()
}

// buildRawAnimation lays out a file by hand: header, pointer table, extra,
// bodies in slot order, zero padding to 16 bytes.
func buildRawAnimation(t *testing.T, magic, frameCount uint16, extra []byte, bones map[int]rawBone) []byte {
	t.Helper()

	var pointers [BoneCount]uint16
	var body bytes.Buffer
	offset := HeaderSize + len(extra)
	for id := 0; id < BoneCount; id++ {
		rb, ok := bones[id]
		if !ok {
			continue
		}
		pointers[id] = uint16((offset + body.Len()) / 4)
		body.Write(rb.encode())
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, magic)
	binary.Write(&buf, binary.LittleEndian, frameCount)
	binary.Write(&buf, binary.LittleEndian, pointers)
	buf.Write(extra)
	buf.Write(body.Bytes())
	for buf.Len()%16 != 0 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// sampleAnimationBytes is a small well-formed file with both track types.
func sampleAnimationBytes(t *testing.T) []byte {
	return buildRawAnimation(t, 0x0003, 30, []byte{0xAA, 0xBB, 0xCC, 0xDD, 1, 2, 3, 4}, map[int]rawBone{
		0: {
			kfType: 1,
			blobs:  []RotationBlob{testBlob(0x10), testBlob(0x20), testBlob(0x30)},
			times:  []uint32{0, 15, 30},
		},
		5: {
			kfType: 0,
			blobs:  []RotationBlob{testBlob(0x40), testBlob(0x50)},
			times:  []uint32{0, 30},
			pos:    [][3]float32{{1, 2, 3}, {-1.5, 0, 4.25}},
		},
		55: {
			kfType: 1,
			blobs:  []RotationBlob{testBlob(0x60), testBlob(0x70)},
			times:  []uint32{3, 27},
		},
	})
}
