package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	flag "github.com/spf13/pflag"

	"go-rds-decoder/internal/api"
	"go-rds-decoder/internal/config"
	"go-rds-decoder/internal/rds"
	"go-rds-decoder/internal/ringbuffer"
)

var (
	inputPath  = flag.StringP("input", "i", "-", "symbol stream file, or - for stdin")
	formatFlag = flag.StringP("format", "f", "", "input format: auto, raw, packed or wav (overrides config)")
	listenFlag = flag.StringP("listen", "l", "", "HTTP listen address (overrides config, empty string in config disables)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *formatFlag != "" {
		cfg.Input.Format = *formatFlag
	}
	if *listenFlag != "" {
		cfg.Server.Listen = *listenFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "rds",
	})
	if lvl, err := log.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	var in *os.File
	if *inputPath == "-" {
		in = os.Stdin
	} else {
		in, err = os.Open(*inputPath)
		if err != nil {
			logger.Fatal("opening input", "err", err)
		}
		defer in.Close()
	}

	rb := ringbuffer.New(cfg.Input.RingSize)
	decoder := rds.NewDecoder(cfg, logger)
	rds.RegisterMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		logger.Info("shutting down", "signal", sig)
		cancel()
		// Closing the input unblocks the reader goroutine, whose
		// deferred Close ends the symbol stream. The reader is the
		// only closer of the ring buffer, so an in-flight write can
		// never hit a closed buffer.
		in.Close()
	}()

	go readSymbols(in, rb, cfg, logger)

	go func() {
		for v := range decoder.Snapshots() {
			logger.Info("station update",
				"pi", fmt.Sprintf("%04X", v.PI),
				"ps", v.PS,
				"rt", v.RT,
				"pty", v.PTYName)
		}
	}()

	if cfg.Server.Listen != "" {
		srv := api.New(cfg, decoder)
		go func() {
			logger.Info("serving state API", "listen", cfg.Server.Listen)
			if err := srv.Run(); err != nil {
				logger.Error("http server", "err", err)
			}
		}()
	}

	decoder.Run(ctx, rb, cfg.Input.ChunkSize)

	st := decoder.Status()
	logger.Info("done",
		"bits", st.Bits,
		"groups", st.Groups,
		"stations", st.Stations,
		"block_error_rate", fmt.Sprintf("%.4f", st.BlockErrorRate))
}

// readSymbols feeds the input stream into the ring buffer as one byte
// per symbol. A file may be raw symbols, packed bits or a WAV container
// of hard-sliced symbols; "auto" sniffs for WAV and falls back to raw.
func readSymbols(in *os.File, rb *ringbuffer.RingBuffer, cfg *config.Config, logger *log.Logger) {
	defer rb.Close()

	format := cfg.Input.Format
	if format == "auto" || format == "wav" {
		// The WAV sniff consumes bytes and needs a rewind afterwards,
		// so it only runs on seekable inputs. On a pipe, auto means raw.
		if _, err := in.Seek(0, io.SeekCurrent); err != nil {
			if format == "wav" {
				logger.Error("wav input requires a seekable file, not a pipe")
				return
			}
			format = "raw"
		} else {
			decoder := wav.NewDecoder(in)
			if decoder.IsValidFile() {
				readWAVSymbols(decoder, rb, cfg, logger)
				return
			}
			if format == "wav" {
				logger.Error("input is not a valid WAV file")
				return
			}
			// Not a WAV container; rewind and treat as raw symbols.
			if _, err := in.Seek(0, io.SeekStart); err != nil {
				logger.Error("rewinding input", "err", err)
				return
			}
			format = "raw"
		}
	}

	buf := make([]byte, cfg.Input.ChunkSize)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			rb.Write(unpackSymbols(buf[:n], format == "packed"))
		}
		if err == io.EOF {
			return
		} else if err != nil {
			// A closed input file is the shutdown path, not a failure.
			if !errors.Is(err, os.ErrClosed) {
				logger.Error("reading input", "err", err)
			}
			return
		}
	}
}

// unpackSymbols normalizes input bytes to one symbol per byte. Raw
// input keeps only the low bit, which accepts both 0x00/0x01 bytes and
// ASCII '0'/'1' text; whitespace is skipped so line-wrapped text sinks
// decode cleanly. Packed input carries eight symbols per byte, MSB
// first.
func unpackSymbols(data []byte, packed bool) []byte {
	if !packed {
		out := make([]byte, 0, len(data))
		for _, b := range data {
			switch b {
			case ' ', '\t', '\n', '\r':
				continue
			}
			out = append(out, b&1)
		}
		return out
	}
	out := make([]byte, 0, len(data)*8)
	for _, b := range data {
		for shift := 7; shift >= 0; shift-- {
			out = append(out, b>>uint(shift)&1)
		}
	}
	return out
}

// readWAVSymbols hard-slices 16-bit PCM samples into symbols: one
// sample per symbol, positive is a one.
func readWAVSymbols(decoder *wav.Decoder, rb *ringbuffer.RingBuffer, cfg *config.Config, logger *log.Logger) {
	if err := decoder.FwdToPCM(); err != nil {
		logger.Error("seeking to PCM data", "err", err)
		return
	}
	logger.Info("reading symbols from WAV",
		"bit_depth", decoder.BitDepth,
		"sample_rate", decoder.SampleRate,
		"channels", decoder.NumChans)
	if decoder.BitDepth != 16 {
		logger.Error("only 16-bit PCM symbol recordings are supported", "bit_depth", decoder.BitDepth)
		return
	}

	buf := &audio.IntBuffer{
		Format: decoder.Format(),
		Data:   make([]int, cfg.Input.ChunkSize),
	}
	step := int(decoder.NumChans)
	for {
		n, err := decoder.PCMBuffer(buf)
		if n > 0 {
			symbols := make([]byte, 0, n/step)
			// Only the first channel carries the symbol stream.
			for i := 0; i < n; i += step {
				if buf.Data[i] > 0 {
					symbols = append(symbols, 1)
				} else {
					symbols = append(symbols, 0)
				}
			}
			rb.Write(symbols)
		}
		if err == io.EOF || n == 0 {
			return
		} else if err != nil {
			logger.Error("reading WAV", "err", err)
			return
		}
	}
}
