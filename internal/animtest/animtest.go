// Package animtest builds small BT3 animations for tests.
package animtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kkteam/bt3-animation-worker/pkg/formats"
)

// Track returns a bone track of the given type with one keyframe per timestamp.
func Track(kfType formats.KeyframeType, times ...uint32) *formats.BoneAnimation {
	b := &formats.BoneAnimation{Type: kfType}
	for i, ts := range times {
		var rot formats.RotationBlob
		for j := range rot {
			rot[j] = byte(i*len(rot) + j)
		}
		switch kfType {
		case formats.KeyframeTranslated:
			b.Keyframes = append(b.Keyframes, &formats.TranslationKeyframe{
				Position: mgl32.Vec3{float32(i), 0, 1},
				Rot:      rot,
				Time:     ts,
			})
		default:
			b.Keyframes = append(b.Keyframes, &formats.RotationKeyframe{Rot: rot, Time: ts})
		}
	}
	return b
}

// New returns an animation with the given tracks.
func New(frameCount uint16, bones map[int]*formats.BoneAnimation) *formats.Animation {
	a := &formats.Animation{Magic: 3, FrameCount: frameCount}
	for id, b := range bones {
		a.Bones[id] = b
	}
	return a
}

// WriteFile serializes anim into dir/name and returns the path.
func WriteFile(t testing.TB, dir, name string, anim *formats.Animation) string {
	t.Helper()

	data, err := anim.MarshalBinary()
	if err != nil {
		t.Fatalf("failed to marshal fixture: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}
