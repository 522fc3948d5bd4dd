// Package shell implements the interactive animation editing menu.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kkteam/bt3-animation-worker/internal/animfile"
	"github.com/kkteam/bt3-animation-worker/internal/boneids"
	"github.com/kkteam/bt3-animation-worker/internal/config"
	"github.com/kkteam/bt3-animation-worker/internal/library"
	"github.com/kkteam/bt3-animation-worker/internal/logger"
	"github.com/kkteam/bt3-animation-worker/pkg/formats"
)

// ErrNoAnimation is returned by commands that need a loaded animation.
var ErrNoAnimation = errors.New("no animation loaded")

const banner = `
=============================
= BT3 Animation Worker      =
=============================
`

type command struct {
	key  string
	info string
	run  func(*Shell) error
}

var commands = []command{
	{"L", "Load an animation", (*Shell).cmdLoad},
	{"I", "Print information about the current loaded animation", (*Shell).cmdInfo},
	{"1", "Change animation speed", (*Shell).cmdSpeed},
	{"2", "Join current animation with another (one after the other)", (*Shell).cmdConcat},
	{"3", "Mix current animation with another (import single bone animations)", (*Shell).cmdMix},
	{"S", "Save current animation", (*Shell).cmdSave},
	{"Q", "Quit", nil},
}

// Shell holds the currently loaded animation and drives the menu.
type Shell struct {
	cfg   *config.Config
	lib   *library.Library
	in    *bufio.Scanner
	out   io.Writer
	upper cases.Caser

	anim *formats.Animation
	path string
}

// New creates a shell reading commands from in and writing to out.
// lib may be nil when the originals library is disabled.
func New(cfg *config.Config, lib *library.Library, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		cfg:   cfg,
		lib:   lib,
		in:    bufio.NewScanner(in),
		out:   out,
		upper: cases.Upper(language.Und),
	}
}

// Animation returns the currently loaded animation, or nil.
func (s *Shell) Animation() *formats.Animation {
	return s.anim
}

// Run shows the menu until the user quits or input ends.
func (s *Shell) Run() error {
	fmt.Fprint(s.out, banner)

	for {
		cmd, err := s.askCommand()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if cmd.run == nil {
			fmt.Fprintln(s.out, "Goodbye")
			return nil
		}

		if err := cmd.run(s); err != nil {
			if err == io.EOF {
				return nil
			}
			logger.Error("command failed", zap.String("command", cmd.info), zap.Error(err))
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}
}

func (s *Shell) askCommand() (command, error) {
	for _, cmd := range commands {
		fmt.Fprintf(s.out, "[%s] %s\n", cmd.key, cmd.info)
	}

	for {
		line, err := s.prompt("> ")
		if err != nil {
			return command{}, err
		}
		key := s.upper.String(line)
		for _, cmd := range commands {
			if cmd.key == key {
				return cmd, nil
			}
		}
		fmt.Fprintln(s.out, "Unrecognized command")
	}
}

// prompt prints p and reads one trimmed line.
func (s *Shell) prompt(p string) (string, error) {
	fmt.Fprint(s.out, p)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

// Load makes the file at path the current animation.
func (s *Shell) Load(path string) error {
	path = animfile.CleanPath(path)
	anim, err := animfile.Load(path)
	if err != nil {
		return err
	}
	s.anim = anim
	s.path = path
	logger.Info("animation loaded",
		zap.String("path", path),
		zap.Uint16("frames", anim.FrameCount),
		zap.Int("bones", anim.AnimatedBoneCount()))

	s.stashOriginal(path)
	return nil
}

// stashOriginal keeps the untouched file in the library the first time it
// is loaded. Failures only cost the ability to rescale from the original.
func (s *Shell) stashOriginal(path string) {
	if s.lib == nil {
		return
	}
	name := filepath.Base(path)
	if has, err := s.lib.Has(name); err != nil || has {
		return
	}
	data, err := os.ReadFile(path)
	if err == nil {
		err = s.lib.Put(name, data)
	}
	if err != nil {
		logger.Warn("could not store original", zap.String("name", name), zap.Error(err))
		return
	}
	logger.Debug("original stored in library", zap.String("name", name))
}

// PrintInfo writes a description of the current animation.
func (s *Shell) PrintInfo() {
	if s.anim == nil {
		fmt.Fprintln(s.out, "No animation loaded")
		return
	}
	sum := animfile.Summarize(s.path, s.anim)
	fmt.Fprintln(s.out, "Current loaded animation:")
	fmt.Fprintf(s.out, "  File path: %s\n", sum.File)
	fmt.Fprintf(s.out, "  Magic number: %d\n", sum.Magic)
	fmt.Fprintf(s.out, "  Frame count: %d\n", sum.FrameCount)
	fmt.Fprintf(s.out, "  Animated bones: %d\n", sum.AnimatedBones)
	fmt.Fprintf(s.out, "  Size: %d\n", sum.Size)
}

func (s *Shell) cmdLoad() error {
	path, err := s.prompt("File path: ")
	if err != nil {
		return err
	}
	if err := s.Load(path); err != nil {
		return err
	}
	s.PrintInfo()
	return nil
}

func (s *Shell) cmdInfo() error {
	s.PrintInfo()
	return nil
}

func (s *Shell) cmdSpeed() error {
	if s.anim == nil {
		return ErrNoAnimation
	}

	fmt.Fprintln(s.out, "Fewer frames means a faster animation. Every rescale loses some precision,")
	fmt.Fprintln(s.out, "so rescale from the original file rather than from an already rescaled one.")
	fmt.Fprintf(s.out, "Current frame count is %d\n", s.anim.FrameCount)

	line, err := s.prompt("New frame count: ")
	if err != nil {
		return err
	}
	n, err := strconv.ParseUint(line, 10, 16)
	if err != nil {
		return fmt.Errorf("reading the new frame count: %w", err)
	}
	frames := uint16(n)

	if frames == s.anim.FrameCount {
		fmt.Fprintf(s.out, "The animation already has a frame count of %d\n", frames)
		return nil
	}
	if err := s.anim.ScaleFrameCount(frames); err != nil {
		return err
	}
	logger.Info("animation rescaled", zap.Uint16("frames", frames))
	fmt.Fprintf(s.out, "Animation scaled to %d frames\n", frames)
	return nil
}

func (s *Shell) loadSecond(p string) (*formats.Animation, error) {
	path, err := s.prompt(p)
	if err != nil {
		return nil, err
	}
	return animfile.Load(path)
}

func (s *Shell) cmdConcat() error {
	if s.anim == nil {
		return ErrNoAnimation
	}
	other, err := s.loadSecond("File path of the animation to join: ")
	if err != nil {
		return err
	}

	dropped, err := s.anim.Concat(other)
	if err != nil {
		return err
	}
	for _, id := range dropped {
		logger.Warn("bone animation dropped", zap.Int("bone", id))
	}

	fmt.Fprintln(s.out, "Done!")
	fmt.Fprintf(s.out, "%d bone animations have been dropped due to incompatibilities\n", len(dropped))
	if len(dropped) > 0 {
		fmt.Fprintln(s.out, dropped)
	}
	return nil
}

func (s *Shell) cmdMix() error {
	if s.anim == nil {
		return ErrNoAnimation
	}
	source, err := s.loadSecond("File path of the animation from which extract bone animations: ")
	if err != nil {
		return err
	}

	if err := s.matchFrameCount(source); err != nil {
		return err
	}

	fmt.Fprintln(s.out, "Which bone animations should be imported? List bone ids in decimal or hex,")
	fmt.Fprintln(s.out, "for example 3,4,21,10 or 0x03,0x04,0x15,0x0a")
	line, err := s.prompt("> ")
	if err != nil {
		return err
	}
	ids, err := boneids.Parse(line)
	if err != nil {
		return err
	}

	skipped, err := s.anim.ImportBoneAnimations(source, ids)
	if err != nil {
		return err
	}
	for _, skip := range skipped {
		logger.Warn("skipping bone", zap.Error(skip))
		fmt.Fprintf(s.out, "Skipped: %v\n", skip)
	}
	fmt.Fprintln(s.out, "Done!")
	s.PrintInfo()
	return nil
}

// matchFrameCount rescales source to the current frame count when allowed.
func (s *Shell) matchFrameCount(source *formats.Animation) error {
	if source.FrameCount == s.anim.FrameCount {
		return nil
	}
	if !s.cfg.Mix.AutoScale {
		return fmt.Errorf("%w: source has %d frames, current has %d",
			formats.ErrFrameCountMismatch, source.FrameCount, s.anim.FrameCount)
	}
	fmt.Fprintf(s.out, "The second animation has %d frames instead of %d; it will be scaled to match\n",
		source.FrameCount, s.anim.FrameCount)
	return source.ScaleFrameCount(s.anim.FrameCount)
}

func (s *Shell) cmdSave() error {
	if s.anim == nil || s.path == "" {
		return ErrNoAnimation
	}
	out := animfile.SavePath(s.path, s.cfg.Output.Suffix, s.cfg.Output.Extension)
	fmt.Fprintf(s.out, "Saving on %s ...\n", out)

	n, err := animfile.Save(out, s.anim)
	if err != nil {
		return err
	}
	logger.Info("animation saved", zap.String("path", out), zap.Int("bytes", n))
	fmt.Fprintln(s.out, "Done!")
	return nil
}
