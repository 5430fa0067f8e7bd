package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/cespare/xxhash/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/pcmbridge/internal/audio"
	"github.com/linuxmatters/pcmbridge/internal/cli"
	"github.com/linuxmatters/pcmbridge/internal/codec"
	"github.com/linuxmatters/pcmbridge/internal/codec/registry"
	"github.com/linuxmatters/pcmbridge/internal/config"
	"github.com/linuxmatters/pcmbridge/internal/encoder"
	"github.com/linuxmatters/pcmbridge/internal/playback"
	"github.com/linuxmatters/pcmbridge/internal/renderer"
	"github.com/linuxmatters/pcmbridge/internal/ui"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

// versionFlag prints the styled version banner and exits
type versionFlag bool

func (v versionFlag) BeforeReset(app *kong.Kong, vars kong.Vars) error {
	cli.PrintVersion(vars["version"])
	app.Exit(0)
	return nil
}

var CLI struct {
	Codec   string      `help:"Decoder to use: auto, flac, mp3, vorbis or wav" default:"auto" env:"PCMBRIDGE_CODEC"`
	Verbose bool        `short:"v" help:"Enable debug logging" env:"PCMBRIDGE_VERBOSE"`
	Version versionFlag `help:"Show version information"`

	Info    infoCmd    `cmd:"" help:"Show stream format, length and tags"`
	Decode  decodeCmd  `cmd:"" help:"Decode to a WAV or raw PCM file"`
	Analyze analyzeCmd `cmd:"" help:"Measure levels and dominant frequency"`
	Play    playCmd    `cmd:"" help:"Play through the default audio device"`
}

// runContext is bound into every command's Run method
type runContext struct {
	logger *slog.Logger
	codec  codec.Library // nil selects by file header
}

func (rc *runContext) open(path string) (*audio.File, error) {
	return audio.OpenFile(path, audio.Config{Codec: rc.codec, Logger: rc.logger})
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("pcmbridge"),
		kong.Description("Decode compressed audio streams to 16-bit PCM."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	level := slog.LevelWarn
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	rc := &runContext{logger: logger}
	if CLI.Codec != "" && !strings.EqualFold(CLI.Codec, "auto") {
		lib, err := registry.Lookup(CLI.Codec)
		if err != nil {
			cli.PrintError(err.Error())
			os.Exit(1)
		}
		rc.codec = lib
	}

	if err := ctx.Run(rc); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

type infoCmd struct {
	Input string `arg:"" name:"input" help:"Input audio file" type:"existingfile"`
}

func (c *infoCmd) Run(rc *runContext) error {
	f, err := rc.open(c.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Info(audio.CurrentLink)
	if err != nil {
		return err
	}

	cli.PrintSection("Stream")
	cli.PrintInfo("Codec", info.Codec)
	cli.PrintInfo("Channels", fmt.Sprintf("%d", info.Channels))
	cli.PrintInfo("Sample rate", fmt.Sprintf("%d Hz", info.SampleRate))
	if info.BitsPerSample > 0 {
		cli.PrintInfo("Source depth", fmt.Sprintf("%d bit", info.BitsPerSample))
	}
	cli.PrintInfo("Bitrate", cli.FormatBitrate(info.BitrateNominal))
	cli.PrintInfo("Seekable", fmt.Sprintf("%t", f.Seekable()))

	if total, err := f.PCMTotal(audio.CurrentLink); err == nil {
		cli.PrintInfo("Samples", fmt.Sprintf("%d", total))
	} else {
		rc.logger.Debug("length unavailable", "err", err)
		cli.PrintInfo("Samples", "unknown")
	}
	if d, err := f.TimeTotal(audio.CurrentLink); err == nil {
		cli.PrintInfo("Duration", cli.FormatDuration(d))
	}

	comment, err := f.Comment(audio.CurrentLink)
	if err != nil {
		return err
	}
	if comment != nil {
		cli.PrintSection("Tags")
		if comment.Vendor != "" {
			fmt.Println(cli.SubtitleStyle.Render(comment.Vendor))
		}
		for _, tag := range comment.Comments {
			key, value, ok := strings.Cut(tag, "=")
			if !ok {
				cli.PrintInfo("Comment", tag)
				continue
			}
			cli.PrintInfo(key, value)
		}
	}

	return nil
}

type decodeCmd struct {
	Input      string        `arg:"" name:"input" help:"Input audio file" type:"existingfile"`
	Output     string        `arg:"" name:"output" help:"Output WAV or raw PCM file"`
	Raw        bool          `help:"Write headerless 16-bit little-endian PCM"`
	Start      time.Duration `help:"Start decoding at this offset (e.g. 1m30s)" default:"0s"`
	Channels   int           `help:"Output channels: 0 keeps the source layout, 1 (mono) or 2 (stereo)" default:"0"`
	NoProgress bool          `help:"Disable the progress display"`
}

func (c *decodeCmd) Run(rc *runContext) error {
	f, err := rc.open(c.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Info(audio.CurrentLink)
	if err != nil {
		return err
	}

	if c.Start > 0 {
		if !f.Seekable() {
			cli.PrintWarning("input is not seekable, decoding from the start")
		} else if err := f.SeekTime(c.Start); err != nil {
			return err
		}
	}

	total := int64(-1)
	if n, err := f.PCMTotal(audio.CurrentLink); err == nil {
		start, _ := f.PCMTell()
		total = n - start
	}

	enc, err := encoder.New(encoder.Config{
		OutputPath:    c.Output,
		SampleRate:    info.SampleRate,
		Channels:      info.Channels,
		AudioChannels: c.Channels,
		Raw:           c.Raw,
	})
	if err != nil {
		return err
	}
	if err := enc.Initialize(); err != nil {
		return err
	}

	startTime := time.Now()
	report := func(ui.Progress) {}

	var p *tea.Program
	if !c.NoProgress {
		p = tea.NewProgram(ui.NewModel("Decoding "+info.Codec, info.SampleRate))
		report = func(msg ui.Progress) { p.Send(msg) }
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		decodeErr error
		checksum  uint64
	)
	decode := func() {
		checksum, decodeErr = decodeStream(ctx, f.Stream, enc, total, startTime, report)
		if cerr := enc.Close(); cerr != nil && decodeErr == nil {
			decodeErr = cerr
		}
	}

	if p == nil {
		decode()
	} else {
		done := make(chan struct{})
		go func() {
			defer close(done)
			decode()
			p.Send(ui.Complete{
				Samples: enc.SamplesWritten(),
				Bytes:   enc.BytesWritten(),
				Elapsed: time.Since(startTime),
				Err:     decodeErr,
			})
		}()
		_, uerr := p.Run()
		// Quitting the UI early stops the decode; the stream stays with
		// the worker until it has returned
		stop()
		<-done
		if uerr != nil {
			return fmt.Errorf("running UI: %w", uerr)
		}
	}

	if errors.Is(decodeErr, context.Canceled) {
		return fmt.Errorf("decoding interrupted, %s is incomplete", c.Output)
	}
	if decodeErr != nil {
		return decodeErr
	}

	var size int64
	if st, err := os.Stat(c.Output); err == nil {
		size = st.Size()
	}
	cli.PrintDecodeSummary(
		c.Output,
		cli.FormatDuration(time.Duration(enc.SamplesWritten())*time.Second/time.Duration(info.SampleRate)),
		cli.FormatDuration(time.Since(startTime)),
		cli.FormatBytes(size),
		fmt.Sprintf("%016x", checksum),
	)
	return nil
}

// decodeStream copies PCM from s into enc in whole-chunk reads and returns
// the xxh64 digest of the decoded PCM. It checks ctx between chunks.
func decodeStream(ctx context.Context, s *audio.Stream, enc *encoder.Encoder, total int64, startTime time.Time, report func(ui.Progress)) (uint64, error) {
	info, err := s.Info(audio.CurrentLink)
	if err != nil {
		return 0, err
	}

	digest := xxhash.New()
	buf := make([]byte, config.ChunkBytes(config.ChunkSize, info.Channels))
	var samples, written int64
	for chunk := 1; ; chunk++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		n, err := io.ReadFull(s, buf)
		if n > 0 {
			if werr := enc.WritePCM(buf[:n]); werr != nil {
				return 0, werr
			}
			_, _ = digest.Write(buf[:n])
			samples += int64(n / info.FrameSize())
			written += int64(n)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return 0, err
		}

		// Throttle progress updates
		if chunk%config.ProgressInterval == 0 {
			report(ui.Progress{
				Samples:      samples,
				TotalSamples: total,
				Bytes:        written,
				Elapsed:      time.Since(startTime),
			})
		}
	}
	return digest.Sum64(), nil
}

type analyzeCmd struct {
	Input      string `arg:"" name:"input" help:"Input audio file" type:"existingfile"`
	PNG        string `name:"png" help:"Write the averaged spectrum to a PNG image" type:"path"`
	NoProgress bool   `help:"Disable the progress display"`
}

func (c *analyzeCmd) Run(rc *runContext) error {
	f, err := rc.open(c.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	reader, err := audio.NewReader(f.Stream)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		profile     *audio.Profile
		analysisErr error
	)

	if c.NoProgress {
		profile, analysisErr = audio.Analyze(ctx, reader, nil)
	} else {
		p := tea.NewProgram(ui.NewModel("Analysing audio", reader.SampleRate()))
		done := make(chan struct{})

		// Run analysis in a goroutine and send progress updates
		go func() {
			defer close(done)
			startTime := time.Now()
			profile, analysisErr = audio.Analyze(ctx, reader, func(samplesRead, totalSamples int64, currentRMS, currentPeak float64, elapsed time.Duration) {
				p.Send(ui.Progress{
					Samples:      samplesRead,
					TotalSamples: totalSamples,
					Peak:         currentPeak,
					RMS:          currentRMS,
					Elapsed:      elapsed,
				})
			})

			complete := ui.Complete{Elapsed: time.Since(startTime), Err: analysisErr}
			if profile != nil {
				complete.Samples = profile.NumSamples
				complete.Spectrum = profile.Spectrum
			}
			p.Send(complete)
		}()

		_, uerr := p.Run()
		// Quitting the UI early stops the analysis
		stop()
		<-done
		if uerr != nil {
			return fmt.Errorf("running UI: %w", uerr)
		}
	}

	if errors.Is(analysisErr, context.Canceled) {
		return errors.New("analysis interrupted")
	}
	if analysisErr != nil {
		return fmt.Errorf("analyzing audio: %w", analysisErr)
	}

	cli.PrintSection("Levels")
	cli.PrintInfo("Duration", cli.FormatDuration(time.Duration(profile.Duration*float64(time.Second))))
	cli.PrintInfo("Peak", ui.FormatLevel(profile.Peak))
	cli.PrintInfo("RMS", ui.FormatLevel(profile.RMS))
	cli.PrintInfo("Dynamic range", fmt.Sprintf("%.1f dB", profile.DynamicRange))
	if profile.DominantFrequency > 0 {
		cli.PrintInfo("Dominant frequency", fmt.Sprintf("%.0f Hz", profile.DominantFrequency))
	}
	cli.PrintSuccess(fmt.Sprintf("Analysed %d samples", profile.NumSamples))

	if c.PNG != "" {
		caption := fmt.Sprintf("%s  %d Hz  peak %s", filepath.Base(c.Input), profile.SampleRate, ui.FormatLevel(profile.Peak))
		if err := renderSpectrum(c.PNG, profile, caption); err != nil {
			return fmt.Errorf("rendering spectrum: %w", err)
		}
		cli.PrintInfo("Spectrum image", c.PNG)
	}

	return nil
}

func renderSpectrum(path string, profile *audio.Profile, caption string) error {
	s, err := renderer.NewSpectrum()
	if err != nil {
		return err
	}
	defer s.Close()

	s.Draw(profile.Spectrum, profile.SampleRate, caption)
	return s.SavePNG(path)
}

type playCmd struct {
	Input      string        `arg:"" name:"input" help:"Input audio file" type:"existingfile"`
	Start      time.Duration `help:"Start playing at this offset (e.g. 1m30s)" default:"0s"`
	NoProgress bool          `help:"Disable the progress display"`
}

func (c *playCmd) Run(rc *runContext) error {
	f, err := rc.open(c.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Info(audio.CurrentLink)
	if err != nil {
		return err
	}

	if c.Start > 0 {
		if !f.Seekable() {
			cli.PrintWarning("input is not seekable, playing from the start")
		} else if err := f.SeekTime(c.Start); err != nil {
			return err
		}
	}

	total := int64(-1)
	if n, err := f.PCMTotal(audio.CurrentLink); err == nil {
		start, _ := f.PCMTell()
		total = n - start
	}

	out, err := playback.Open(info.SampleRate, info.Channels)
	if err != nil {
		return err
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	meter := playback.NewMeter(f.Stream, info.SampleRate, info.Channels)
	startTime := time.Now()

	if c.NoProgress {
		err = out.Play(ctx, meter, nil)
	} else {
		p := tea.NewProgram(ui.NewModel("Playing "+info.Codec, info.SampleRate))
		done := make(chan error, 1)
		go func() {
			perr := out.Play(ctx, meter, func() {
				p.Send(ui.Progress{
					Samples:      meter.Samples(),
					TotalSamples: total,
					Bytes:        meter.Bytes(),
					Elapsed:      time.Since(startTime),
				})
			})
			p.Send(ui.Complete{
				Samples: meter.Samples(),
				Bytes:   meter.Bytes(),
				Elapsed: time.Since(startTime),
				Err:     perr,
			})
			done <- perr
		}()
		_, uerr := p.Run()
		// Quitting the UI stops playback
		stop()
		err = <-done
		if uerr != nil {
			return fmt.Errorf("running UI: %w", uerr)
		}
	}

	if errors.Is(err, context.Canceled) {
		cli.PrintWarning(fmt.Sprintf("stopped at %s", cli.FormatDuration(meter.Position())))
		return nil
	}
	return err
}
