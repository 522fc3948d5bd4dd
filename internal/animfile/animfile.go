// Package animfile loads and saves BT3 animation files.
package animfile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/kkteam/bt3-animation-worker/pkg/formats"
)

// CleanPath trims whitespace and the quotes file managers add when a path is
// pasted or dropped into a terminal.
func CleanPath(path string) string {
	return strings.ReplaceAll(strings.TrimSpace(path), `"`, "")
}

// Load reads and parses an animation file.
func Load(path string) (*formats.Animation, error) {
	path = CleanPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %q", path)
	}
	if len(data) == 0 {
		return nil, errors.Errorf("%q is empty", path)
	}

	anim, err := formats.ParseAnimation(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %q", path)
	}
	return anim, nil
}

// SavePath derives the output name for an edited animation. A name ending in
// ext gets suffix inserted before it; any other name gets suffix+ext appended.
func SavePath(path, suffix, ext string) string {
	path = CleanPath(path)
	if ext != "" && strings.HasSuffix(path, ext) {
		return strings.TrimSuffix(path, ext) + suffix + ext
	}
	return path + suffix + ext
}

// Save serializes anim and writes it to path, returning the bytes written.
func Save(path string, anim *formats.Animation) (int, error) {
	data, err := anim.MarshalBinary()
	if err != nil {
		return 0, errors.Wrap(err, "failed to serialize animation")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, errors.Wrapf(err, "failed to create %q", dir)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, errors.Wrapf(err, "failed to write %q", path)
	}
	return len(data), nil
}

// Summary describes a loaded animation.
type Summary struct {
	File          string        `yaml:"file"`
	Magic         uint16        `yaml:"magic"`
	FrameCount    uint16        `yaml:"frame_count"`
	AnimatedBones int           `yaml:"animated_bones"`
	Size          int           `yaml:"size"`
	Bones         []BoneSummary `yaml:"bones"`
}

// BoneSummary describes one animated bone.
type BoneSummary struct {
	ID        int    `yaml:"id"`
	Type      string `yaml:"type"`
	Keyframes int    `yaml:"keyframes"`
}

// Summarize collects the information the info commands print.
func Summarize(path string, anim *formats.Animation) Summary {
	s := Summary{
		File:          path,
		Magic:         anim.Magic,
		FrameCount:    anim.FrameCount,
		AnimatedBones: anim.AnimatedBoneCount(),
		Size:          anim.Size(),
	}
	for _, id := range anim.AnimatedBoneIDs() {
		bone := anim.Bones[id]
		s.Bones = append(s.Bones, BoneSummary{
			ID:        id,
			Type:      bone.Type.String(),
			Keyframes: len(bone.Keyframes),
		})
	}
	return s
}
