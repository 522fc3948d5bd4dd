package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseAnimation_TruncatedData(t *testing.T) {
	for _, size := range []int{0, 4, 109} {
		_, err := ParseAnimation(make([]byte, size))
		if !errors.Is(err, ErrTruncatedInput) {
			t.Errorf("%d bytes: expected ErrTruncatedInput, got %v", size, err)
		}
	}
}

func TestParseAnimation_ShortPointerTable(t *testing.T) {
	// 110 bytes passes the size check but cuts the pointer table short.
	data := make([]byte, 112)
	_, err := ParseAnimation(data)
	if !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("expected ErrTruncatedInput, got %v", err)
	}
}

func TestParseAnimation_NoAnimatedBones(t *testing.T) {
	data := make([]byte, 128)
	binary.LittleEndian.PutUint16(data[2:], 30)

	_, err := ParseAnimation(data)
	if err != ErrNoAnimatedBones {
		t.Errorf("expected ErrNoAnimatedBones, got %v", err)
	}
}

func TestParseAnimation_PointerOutsideFile(t *testing.T) {
	data := make([]byte, 128)
	binary.LittleEndian.PutUint16(data[4:], 0x100) // 0x400, past the end

	_, err := ParseAnimation(data)
	if !errors.Is(err, ErrInvalidPointer) {
		t.Errorf("expected ErrInvalidPointer, got %v", err)
	}
}

func TestParseAnimation_PointerIntoHeader(t *testing.T) {
	data := make([]byte, 128)
	binary.LittleEndian.PutUint16(data[4:], 1) // offset 4

	_, err := ParseAnimation(data)
	if !errors.Is(err, ErrInvalidPointer) {
		t.Errorf("expected ErrInvalidPointer, got %v", err)
	}
}

func TestParseAnimation_InvalidBoneType(t *testing.T) {
	data := buildRawAnimation(t, 3, 10, nil, map[int]rawBone{
		2: {kfType: 1, blobs: []RotationBlob{testBlob(0)}, times: []uint32{0}},
	})
	// Corrupt the type tag of the only body (directly after the header).
	binary.LittleEndian.PutUint16(data[HeaderSize:], 5)

	_, err := ParseAnimation(data)
	if !errors.Is(err, ErrInvalidKeyframeType) {
		t.Errorf("expected ErrInvalidKeyframeType, got %v", err)
	}
}

func TestParseAnimation_Sample(t *testing.T) {
	anim, err := ParseAnimation(sampleAnimationBytes(t))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	if anim.Magic != 0x0003 {
		t.Errorf("expected magic 3, got %d", anim.Magic)
	}
	if anim.FrameCount != 30 {
		t.Errorf("expected 30 frames, got %d", anim.FrameCount)
	}
	if anim.AnimatedBoneCount() != 3 {
		t.Errorf("expected 3 animated bones, got %d", anim.AnimatedBoneCount())
	}

	ids := anim.AnimatedBoneIDs()
	if len(ids) != 3 || ids[0] != 0 || ids[1] != 5 || ids[2] != 55 {
		t.Errorf("expected bones [0 5 55], got %v", ids)
	}

	if !bytes.Equal(anim.HeaderExtra, []byte{0xAA, 0xBB, 0xCC, 0xDD, 1, 2, 3, 4}) {
		t.Errorf("unexpected header extra % x", anim.HeaderExtra)
	}
	if anim.Bones[5].Type != KeyframeTranslated {
		t.Errorf("expected bone 5 translated, got %s", anim.Bones[5].Type)
	}
	if got := timestamps(anim.Bones[55]); got[0] != 3 || got[1] != 27 {
		t.Errorf("bone 55: expected timestamps [3 27], got %v", got)
	}
}

func TestAnimation_RoundTripByteIdentical(t *testing.T) {
	raw := sampleAnimationBytes(t)

	anim, err := ParseAnimation(raw)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	out, err := anim.MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	if !bytes.Equal(raw, out) {
		t.Errorf("round trip mismatch (%d vs %d bytes)", len(raw), len(out))
	}
	if anim.Size() != len(out) {
		t.Errorf("Size() = %d, marshalled %d", anim.Size(), len(out))
	}
}

func TestAnimation_RoundTripUnpadded(t *testing.T) {
	raw := sampleAnimationBytes(t)
	// The sample body ends at 236 bytes; the last 4 are padding.
	trimmed := raw[:len(raw)-4]

	anim, err := ParseAnimation(trimmed)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	out, err := anim.MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if len(out)%16 != 0 {
		t.Errorf("output of %d bytes is not 16-byte padded", len(out))
	}
	if !bytes.Equal(out, raw) {
		t.Error("re-padded output differs from the original padded file")
	}
}

func TestAnimation_MarshalLayout(t *testing.T) {
	anim := newTestAnimation(12, map[int]*BoneAnimation{
		1: rotationTrack(0, 6, 12),
		3: translatedTrack(0, 12),
	})

	out, err := anim.MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	ptr := func(id int) uint16 {
		return binary.LittleEndian.Uint16(out[pointerTableOffset+id*2:])
	}
	if ptr(0) != 0 || ptr(2) != 0 {
		t.Error("unanimated bones should have zero pointers")
	}
	if ptr(1) != HeaderSize/4 {
		t.Errorf("bone 1: expected pointer %d, got %d", HeaderSize/4, ptr(1))
	}
	if expected := uint16((HeaderSize + 36) / 4); ptr(3) != expected {
		t.Errorf("bone 3: expected pointer %d, got %d", expected, ptr(3))
	}
	if len(out)%16 != 0 {
		t.Errorf("output of %d bytes is not 16-byte padded", len(out))
	}
}

func TestAnimation_MarshalMisalignedHeaderExtra(t *testing.T) {
	anim := newTestAnimation(10, map[int]*BoneAnimation{0: rotationTrack(0)})
	anim.HeaderExtra = []byte{1, 2}

	_, err := anim.MarshalBinary()
	if !errors.Is(err, ErrInternalInvariant) {
		t.Errorf("expected ErrInternalInvariant, got %v", err)
	}
}

func TestAnimation_MarshalEmpty(t *testing.T) {
	anim := newTestAnimation(10, nil)
	if _, err := anim.MarshalBinary(); err != ErrNoAnimatedBones {
		t.Errorf("expected ErrNoAnimatedBones, got %v", err)
	}
}

func TestAnimation_ScaleFrameCount(t *testing.T) {
	anim, err := ParseAnimation(sampleAnimationBytes(t))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	if err := anim.ScaleFrameCount(60); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if anim.FrameCount != 60 {
		t.Errorf("expected 60 frames, got %d", anim.FrameCount)
	}
	if got := timestamps(anim.Bones[0]); got[1] != 30 || got[2] != 60 {
		t.Errorf("bone 0: expected [0 30 60], got %v", got)
	}
	if got := timestamps(anim.Bones[55]); got[0] != 6 || got[1] != 54 {
		t.Errorf("bone 55: expected [6 54], got %v", got)
	}
}

func TestAnimation_ScaleFrameCountNoop(t *testing.T) {
	raw := sampleAnimationBytes(t)
	anim, err := ParseAnimation(raw)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	if err := anim.ScaleFrameCount(anim.FrameCount); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := anim.MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if !bytes.Equal(raw, out) {
		t.Error("scaling to the current frame count changed the animation")
	}
}

func TestAnimation_ScaleFrameCountZero(t *testing.T) {
	anim := newTestAnimation(0, map[int]*BoneAnimation{0: rotationTrack(0)})
	if err := anim.ScaleFrameCount(10); !errors.Is(err, ErrZeroFrameCount) {
		t.Errorf("expected ErrZeroFrameCount, got %v", err)
	}
	if anim.FrameCount != 0 {
		t.Errorf("frame count changed to %d", anim.FrameCount)
	}
}

func TestAnimation_SuccessiveScalesStayWithinOneTick(t *testing.T) {
	in := []uint32{0, 1, 2, 7, 11, 13, 17, 23, 29, 30}

	twice := newTestAnimation(30, map[int]*BoneAnimation{0: rotationTrack(in...)})
	twice.ScaleFrameCount(45)
	twice.ScaleFrameCount(20)

	direct := newTestAnimation(30, map[int]*BoneAnimation{0: rotationTrack(in...)})
	direct.ScaleFrameCount(20)

	a, b := timestamps(twice.Bones[0]), timestamps(direct.Bones[0])
	for i := range a {
		diff := int(a[i]) - int(b[i])
		if diff < -1 || diff > 1 {
			t.Errorf("keyframe %d: two-step %d vs direct %d", i, a[i], b[i])
		}
	}
}

func TestAnimation_Concat(t *testing.T) {
	a := newTestAnimation(20, map[int]*BoneAnimation{
		0: rotationTrack(0, 10, 20),
		1: translatedTrack(0, 20),
		4: rotationTrack(0, 20),
	})
	b := newTestAnimation(10, map[int]*BoneAnimation{
		0: rotationTrack(0, 10),
		1: translatedTrack(5),
		7: rotationTrack(0, 10),
	})

	dropped, err := a.Concat(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.FrameCount != 31 {
		t.Errorf("expected 20+1+10 = 31 frames, got %d", a.FrameCount)
	}
	if len(dropped) != 2 || dropped[0] != 4 || dropped[1] != 7 {
		t.Errorf("expected dropped [4 7], got %v", dropped)
	}
	if a.Bones[4] != nil || a.Bones[7] != nil {
		t.Error("bones present on one side only should be cleared")
	}

	if got := timestamps(a.Bones[0]); len(got) != 5 || got[3] != 21 || got[4] != 31 {
		t.Errorf("bone 0: expected [0 10 20 21 31], got %v", got)
	}
	if got := timestamps(a.Bones[1]); len(got) != 3 || got[2] != 26 {
		t.Errorf("bone 1: expected [0 20 26], got %v", got)
	}

	// The other animation is never modified.
	if b.FrameCount != 10 || timestamps(b.Bones[0])[1] != 10 || b.Bones[7] == nil {
		t.Error("source animation was modified by concat")
	}
}

func TestAnimation_ConcatTypeMismatchLeavesTargetUntouched(t *testing.T) {
	a := newTestAnimation(20, map[int]*BoneAnimation{
		0: rotationTrack(0, 20),
		3: translatedTrack(0, 20),
		9: rotationTrack(5),
	})
	b := newTestAnimation(10, map[int]*BoneAnimation{
		0: rotationTrack(0, 10),
		3: rotationTrack(0, 10),
	})

	before, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	dropped, err := a.Concat(b)
	if !errors.Is(err, ErrUnconcatenableAnimations) {
		t.Fatalf("expected ErrUnconcatenableAnimations, got %v", err)
	}
	if dropped != nil {
		t.Errorf("expected no dropped ids on failure, got %v", dropped)
	}

	after, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("failed concat modified the target animation")
	}
}

func TestAnimation_ConcatFrameCountOverflow(t *testing.T) {
	a := newTestAnimation(40000, map[int]*BoneAnimation{0: translatedTrack(0)})
	b := newTestAnimation(30000, map[int]*BoneAnimation{0: translatedTrack(0)})

	if _, err := a.Concat(b); !errors.Is(err, ErrFrameCountOverflow) {
		t.Errorf("expected ErrFrameCountOverflow, got %v", err)
	}
	if a.FrameCount != 40000 || len(a.Bones[0].Keyframes) != 1 {
		t.Error("failed concat modified the target animation")
	}
}

func TestAnimation_ImportBoneAnimations(t *testing.T) {
	target := newTestAnimation(30, map[int]*BoneAnimation{
		0: rotationTrack(0, 30),
		3: rotationTrack(1),
		9: translatedTrack(2),
	})
	source := newTestAnimation(30, map[int]*BoneAnimation{
		3: translatedTrack(0, 15, 30),
		7: rotationTrack(4, 8),
	})

	skipped, err := target.ImportBoneAnimations(source, []int{3, 7, 999})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(skipped) != 1 {
		t.Fatalf("expected 1 skipped id, got %d", len(skipped))
	}
	var idErr *InvalidBoneIDError
	if !errors.As(skipped[0], &idErr) || idErr.ID != 999 {
		t.Errorf("expected InvalidBoneIDError for 999, got %v", skipped[0])
	}
	if !errors.Is(skipped[0], ErrInvalidBoneID) {
		t.Error("skip should match ErrInvalidBoneID")
	}

	if target.Bones[3].Type != KeyframeTranslated || len(target.Bones[3].Keyframes) != 3 {
		t.Error("bone 3 was not imported")
	}
	if got := timestamps(target.Bones[7]); len(got) != 2 || got[1] != 8 {
		t.Errorf("bone 7: expected [4 8], got %v", got)
	}
	if target.Bones[3] == source.Bones[3] {
		t.Error("imported track aliases the source track")
	}

	// Untouched bones.
	if got := timestamps(target.Bones[0]); got[1] != 30 {
		t.Error("bone 0 changed")
	}
	if target.Bones[9] == nil {
		t.Error("bone 9 changed")
	}
}

func TestAnimation_ImportClearsSlot(t *testing.T) {
	target := newTestAnimation(30, map[int]*BoneAnimation{0: rotationTrack(0), 2: rotationTrack(0)})
	source := newTestAnimation(30, map[int]*BoneAnimation{0: rotationTrack(1)})

	if _, err := target.ImportBoneAnimations(source, []int{2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Bones[2] != nil {
		t.Error("importing an unanimated bone should clear the slot")
	}
}

func TestAnimation_ImportFrameCountMismatch(t *testing.T) {
	target := newTestAnimation(30, map[int]*BoneAnimation{0: rotationTrack(0)})
	source := newTestAnimation(31, map[int]*BoneAnimation{0: translatedTrack(1)})

	_, err := target.ImportBoneAnimations(source, []int{0, -1})
	if !errors.Is(err, ErrFrameCountMismatch) {
		t.Fatalf("expected ErrFrameCountMismatch, got %v", err)
	}
	if target.Bones[0].Type != KeyframeRotation {
		t.Error("target changed after a rejected import")
	}
}

func TestAnimation_Clone(t *testing.T) {
	anim, err := ParseAnimation(sampleAnimationBytes(t))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	c := anim.Clone()
	c.HeaderExtra[0] = 0
	c.Bones[0].Keyframes[0].SetTimestamp(99)
	c.Bones[5] = nil

	if anim.HeaderExtra[0] != 0xAA || anim.Bones[0].Keyframes[0].Timestamp() != 0 || anim.Bones[5] == nil {
		t.Error("clone shares state with the original")
	}
}

func TestParseAnimationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.unk")
	if err := os.WriteFile(path, sampleAnimationBytes(t), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	anim, err := ParseAnimationFile(path)
	if err != nil {
		t.Fatalf("failed to parse file: %v", err)
	}
	if anim.AnimatedBoneCount() != 3 {
		t.Errorf("expected 3 animated bones, got %d", anim.AnimatedBoneCount())
	}

	if _, err := ParseAnimationFile(filepath.Join(t.TempDir(), "missing.unk")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseAnimation_GeneratedFile(t *testing.T) {
	testFile := filepath.Join("testdata", "test.unk")
	if _, err := os.Stat(testFile); os.IsNotExist(err) {
		t.Skip("testdata/test.unk not found, run: go run testdata/generate_anm.go")
	}

	anim, err := ParseAnimationFile(testFile)
	if err != nil {
		t.Fatalf("failed to parse test animation: %v", err)
	}

	if anim.FrameCount != 30 {
		t.Errorf("expected 30 frames, got %d", anim.FrameCount)
	}
	if ids := anim.AnimatedBoneIDs(); len(ids) != 2 || ids[0] != 2 || ids[1] != 10 {
		t.Fatalf("expected bones [2 10], got %v", ids)
	}
	if anim.Bones[2].Type != KeyframeRotation || len(anim.Bones[2].Keyframes) != 3 {
		t.Errorf("bone 2: got type %v with %d keyframes", anim.Bones[2].Type, len(anim.Bones[2].Keyframes))
	}
	pos, ok := anim.Bones[10].Keyframes[1].Translation()
	if !ok || pos.X() != 1 || pos.Y() != 1.5 || pos.Z() != -2 {
		t.Errorf("bone 10 keyframe 1 translation = %v, %v", pos, ok)
	}

	raw, err := os.ReadFile(testFile)
	if err != nil {
		t.Fatal(err)
	}
	out, err := anim.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	if !bytes.Equal(out, raw) {
		t.Error("re-serialized file differs from generated file")
	}
}
