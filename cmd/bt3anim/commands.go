package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kkteam/bt3-animation-worker/internal/animfile"
	"github.com/kkteam/bt3-animation-worker/internal/boneids"
	"github.com/kkteam/bt3-animation-worker/internal/config"
	"github.com/kkteam/bt3-animation-worker/internal/library"
	"github.com/kkteam/bt3-animation-worker/internal/logger"
	"github.com/kkteam/bt3-animation-worker/internal/shell"
	"github.com/kkteam/bt3-animation-worker/pkg/formats"
)

var spewConfig = &spew.ConfigState{
	Indent:                  "  ",
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	SortKeys:                true,
}

// run dispatches one subcommand. stdin is only used by the shell.
func run(cfg *config.Config, args []string, stdin io.Reader, stdout io.Writer) error {
	command, rest := args[0], args[1:]

	switch command {
	case "info", "i":
		return cmdInfo(rest, stdout)
	case "scale", "speed":
		return cmdScale(cfg, rest, stdout)
	case "concat", "join":
		return cmdConcat(cfg, rest, stdout)
	case "mix", "import":
		return cmdMix(cfg, rest, stdout)
	case "dump":
		return cmdDump(rest, stdout)
	case "stash":
		return cmdStash(cfg, rest, stdout)
	case "shell":
		return cmdShell(cfg, rest, stdin, stdout)
	case "config":
		return cmdConfig(cfg, rest, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stdout)
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `bt3anim - Budokai Tenkaichi 3 animation editor

Usage:
  bt3anim [global flags] <command> [options]

Commands:
  info [-yaml] <file>...                       Show animation information
  scale [-o out] [-original] <file> <frames>   Change speed by rescaling to a frame count
  concat [-o out] <file> <other>               Append another animation (one after the other)
  mix [-o out] <file> <source> <ids>           Import bone animations from another file
  dump <file>                                  Dump the full keyframe graph
  stash <file>...                              Store pristine originals in the library
  shell [file]                                 Interactive menu
  config [-o path]                             Print or write the effective config

Global flags:
  -config <path>   -debug   -log-file <path>   -library <path>
  -suffix <s>      -no-autoscale

Examples:
  bt3anim info goku_stance.unk
  bt3anim scale goku_stance.unk 40
  bt3anim -library originals.db scale -original goku_stance_save.unk 25
  bt3anim mix goku_stance.unk vegeta_stance.unk 3,4,0x15`)
}

func usageErr(format string, a ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errUsage}, a...)...)
}

// outputPath returns the -o value or the configured save name for input.
func outputPath(cfg *config.Config, explicit, input string) string {
	if explicit != "" {
		return explicit
	}
	return animfile.SavePath(input, cfg.Output.Suffix, cfg.Output.Extension)
}

func save(path string, anim *formats.Animation, stdout io.Writer) error {
	n, err := animfile.Save(path, anim)
	if err != nil {
		return err
	}
	logger.Info("animation saved", zap.String("path", path), zap.Int("bytes", n))
	fmt.Fprintf(stdout, "Saved: %s (%d bytes)\n", path, n)
	return nil
}

func cmdInfo(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	asYAML := fs.Bool("yaml", false, "Print a YAML summary including per-bone details")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	if fs.NArg() < 1 {
		return usageErr("bt3anim info [-yaml] <file>...")
	}

	var errs error
	var summaries []animfile.Summary
	for _, path := range fs.Args() {
		anim, err := animfile.Load(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		summaries = append(summaries, animfile.Summarize(path, anim))
	}

	if *asYAML {
		if len(summaries) > 0 {
			data, err := yaml.Marshal(summaries)
			if err != nil {
				return multierr.Append(errs, err)
			}
			stdout.Write(data)
		}
		return errs
	}

	for _, s := range summaries {
		fmt.Fprintf(stdout, "File:           %s\n", s.File)
		fmt.Fprintf(stdout, "Magic:          %d\n", s.Magic)
		fmt.Fprintf(stdout, "Frame count:    %d\n", s.FrameCount)
		fmt.Fprintf(stdout, "Animated bones: %d\n", s.AnimatedBones)
		fmt.Fprintf(stdout, "Size:           %d\n", s.Size)
		fmt.Fprintln(stdout)
	}
	return errs
}

func parseFrameCount(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, usageErr("invalid frame count %q", s)
	}
	return uint16(n), nil
}

func cmdScale(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("scale", flag.ContinueOnError)
	out := fs.String("o", "", "Output file (default: <file>_save.unk)")
	fromOriginal := fs.Bool("original", false, "Rescale the library copy of the file instead of the file itself")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	if fs.NArg() < 2 {
		return usageErr("bt3anim scale [-o out] [-original] <file> <frames>")
	}

	input := fs.Arg(0)
	frames, err := parseFrameCount(fs.Arg(1))
	if err != nil {
		return err
	}

	var anim *formats.Animation
	if *fromOriginal {
		anim, err = loadOriginal(cfg, input)
	} else {
		anim, err = animfile.Load(input)
	}
	if err != nil {
		return err
	}

	before := anim.FrameCount
	if err := anim.ScaleFrameCount(frames); err != nil {
		return err
	}
	logger.Info("animation rescaled", zap.Uint16("from", before), zap.Uint16("to", frames))
	fmt.Fprintf(stdout, "Scaled %d -> %d frames\n", before, frames)

	return save(outputPath(cfg, *out, input), anim, stdout)
}

// loadOriginal finds the stored original for input. Saved files are looked
// up by the name they were derived from as well as their own.
func loadOriginal(cfg *config.Config, input string) (*formats.Animation, error) {
	if cfg.Library.Path == "" {
		return nil, usageErr("-original needs a library (-library or library.path)")
	}
	lib, err := library.Open(cfg.Library.Path)
	if err != nil {
		return nil, err
	}
	defer lib.Close()

	name := filepath.Base(animfile.CleanPath(input))
	data, err := lib.Get(name)
	if errors.Is(err, library.ErrNotFound) {
		if orig, ok := originalName(name, cfg.Output.Suffix, cfg.Output.Extension); ok {
			name = orig
			data, err = lib.Get(name)
		}
	}
	if err != nil {
		return nil, err
	}
	anim, err := formats.ParseAnimation(data)
	if err != nil {
		return nil, fmt.Errorf("library copy of %s: %w", name, err)
	}
	logger.Debug("using library original", zap.String("name", name))
	return anim, nil
}

// originalName undoes animfile.SavePath on a base name.
func originalName(name, suffix, ext string) (string, bool) {
	if suffix == "" || !strings.HasSuffix(name, suffix+ext) {
		return "", false
	}
	return strings.TrimSuffix(name, suffix+ext) + ext, true
}

func cmdConcat(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("concat", flag.ContinueOnError)
	out := fs.String("o", "", "Output file (default: <file>_save.unk)")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	if fs.NArg() < 2 {
		return usageErr("bt3anim concat [-o out] <file> <other>")
	}

	anim, err := animfile.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	other, err := animfile.Load(fs.Arg(1))
	if err != nil {
		return err
	}

	dropped, err := anim.Concat(other)
	if err != nil {
		return err
	}
	for _, id := range dropped {
		logger.Warn("bone animation dropped", zap.Int("bone", id))
	}
	fmt.Fprintf(stdout, "Joined: %d frames, %d bone animations dropped %v\n", anim.FrameCount, len(dropped), dropped)

	return save(outputPath(cfg, *out, fs.Arg(0)), anim, stdout)
}

func cmdMix(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("mix", flag.ContinueOnError)
	out := fs.String("o", "", "Output file (default: <file>_save.unk)")
	noScale := fs.Bool("no-scale", !cfg.Mix.AutoScale, "Fail instead of rescaling a source with a different frame count")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	if fs.NArg() < 3 {
		return usageErr("bt3anim mix [-o out] [-no-scale] <file> <source> <ids>")
	}

	anim, err := animfile.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	source, err := animfile.Load(fs.Arg(1))
	if err != nil {
		return err
	}
	ids, err := boneids.Parse(fs.Arg(2))
	if err != nil {
		return usageErr("%v", err)
	}

	if source.FrameCount != anim.FrameCount && !*noScale {
		logger.Info("rescaling source to match",
			zap.Uint16("from", source.FrameCount), zap.Uint16("to", anim.FrameCount))
		if err := source.ScaleFrameCount(anim.FrameCount); err != nil {
			return err
		}
	}

	skipped, err := anim.ImportBoneAnimations(source, ids)
	if err != nil {
		return err
	}
	for _, skip := range skipped {
		logger.Warn("skipping bone", zap.Error(skip))
	}
	fmt.Fprintf(stdout, "Imported %d of %d bone animations\n", len(ids)-len(skipped), len(ids))

	return save(outputPath(cfg, *out, fs.Arg(0)), anim, stdout)
}

func cmdDump(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return usageErr("bt3anim dump <file>")
	}
	anim, err := animfile.Load(args[0])
	if err != nil {
		return err
	}
	spewConfig.Fdump(stdout, anim)
	return nil
}

func cmdStash(cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return usageErr("bt3anim stash <file>...")
	}
	if cfg.Library.Path == "" {
		return usageErr("stash needs a library (-library or library.path)")
	}

	lib, err := library.Open(cfg.Library.Path)
	if err != nil {
		return err
	}
	defer lib.Close()

	var errs error
	for _, path := range args {
		path = animfile.CleanPath(path)
		name := filepath.Base(path)

		data, err := os.ReadFile(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		// Only valid animations are stored.
		if _, err := formats.ParseAnimation(data); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if err := lib.Put(name, data); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		logger.Debug("original stored in library", zap.String("name", name))
		fmt.Fprintf(stdout, "Stored: %s\n", name)
	}
	return errs
}

func cmdShell(cfg *config.Config, args []string, stdin io.Reader, stdout io.Writer) error {
	var lib *library.Library
	if cfg.Library.Path != "" {
		var err error
		if lib, err = library.Open(cfg.Library.Path); err != nil {
			return err
		}
		defer lib.Close()
	}

	sh := shell.New(cfg, lib, stdin, stdout)
	if len(args) > 0 {
		if err := sh.Load(args[len(args)-1]); err != nil {
			fmt.Fprintf(stdout, "Error: %v\n", err)
		} else {
			sh.PrintInfo()
		}
	}
	return sh.Run()
}

func cmdConfig(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	out := fs.String("o", "", "Write the config to this path instead of printing it")
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}

	if *out != "" {
		if err := cfg.SaveTo(*out); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Config written to %s\n", *out)
		return nil
	}

	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}
