// ccd: a command-line programmer/debugger for the CC24xx/CC25xx/CC253x
// 8051-derived microcontroller family, driven over USB through a
// CC-Debugger probe.
// Copyright (C) 2026
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"ccd/internal/apiserver"
	"ccd/internal/ccerr"
	"ccd/internal/diag"
	"ccd/internal/report"
	"ccd/internal/ui"
	"ccd/pkg/ccd"
)

type options struct {
	info        bool
	erase       bool
	hexPath     string
	verify      bool
	slow        bool
	verbose     bool
	reset       bool
	serve       string
	copySummary bool
	diagnostics bool
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("ccd", flag.ContinueOnError)
	var o options
	fs.BoolVar(&o.info, "info", false, "print target chip id, version, flash/sram size")
	fs.BoolVar(&o.info, "i", false, "shorthand for --info")
	fs.BoolVar(&o.erase, "erase", false, "erase target flash before any write")
	fs.BoolVar(&o.erase, "e", false, "shorthand for --erase")
	fs.StringVar(&o.hexPath, "hex", "", "Intel-HEX file to program")
	fs.StringVar(&o.hexPath, "x", "", "shorthand for --hex")
	fs.BoolVar(&o.verify, "verify", false, "verify flash after writing (requires --hex)")
	fs.BoolVar(&o.verify, "v", false, "shorthand for --verify")
	fs.BoolVar(&o.slow, "slow", false, "use the slower, more tolerant debug-link speed")
	fs.BoolVar(&o.slow, "s", false, "shorthand for --slow")
	fs.BoolVar(&o.verbose, "verbose", false, "log each programming step (hex load, erase, write, verify)")
	fs.BoolVar(&o.verbose, "V", false, "shorthand for --verbose")
	fs.BoolVar(&o.reset, "reset", false, "pulse target reset and exit")
	fs.StringVar(&o.serve, "serve", "", "serve a JSON status API at this address (e.g. :8080) instead of exiting")
	fs.BoolVar(&o.copySummary, "copy", false, "copy a one-line target summary to the clipboard on success")
	fs.BoolVar(&o.diagnostics, "diagnostics", false, "print host diagnostics (CPU/memory) alongside target info")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.hexPath != "" {
		// CC flash must be erased before programming; -x/--hex always
		// implies -e/--erase, matching the original's case 'x' handling.
		o.erase = true
	}
	if o.verify && o.hexPath == "" {
		return o, errors.New("--verify requires --hex")
	}
	return o, nil
}

func run(o options) error {
	logger := ui.NewLogger(o.verbose)

	p, err := ccd.Open()
	if err != nil {
		return fmt.Errorf("open probe: %w", err)
	}
	defer p.Close()

	fw, err := p.FirmwareInfo()
	if err != nil {
		return fmt.Errorf("firmware info: %w", err)
	}
	logger.Printf("CC-Debugger: FW 0x%04x rev 0x%04x", fw.FwID, fw.FwRev)
	if fw.Chip == 0 {
		return fmt.Errorf("firmware info: no target attached: %w", ccerr.ErrBadState)
	}

	if o.reset {
		return p.Reset()
	}

	if err := p.EnterDebug(o.slow); err != nil {
		return fmt.Errorf("enter debug: %w", err)
	}
	defer p.LeaveDebug()

	var ti *ccd.TargetInfo
	if o.info || o.diagnostics || o.copySummary {
		info, err := p.TargetInfo()
		if err != nil {
			return fmt.Errorf("target info: %w", err)
		}
		ti = &info
		logger.Printf("target: chip=0x%02x version=0x%02x flash=%dKiB sram=%dKiB",
			info.ChipID, info.ChipVersion, info.FlashKiB, info.SRAMKiB)
	}

	if o.diagnostics {
		snap := diag.Read()
		logger.Printf("host: cpu=%.1f%% mem=%.1f%%", snap.CPUPercent, snap.MemPercent)
	}

	var result *apiserver.Result
	if o.hexPath != "" {
		res, err := programHex(p, o, logger)
		result = res
		if err != nil {
			return err
		}
	} else if o.erase {
		logger.Logf("erasing flash")
		if err := p.Erase(); err != nil {
			return fmt.Errorf("erase: %w", err)
		}
	}

	if o.copySummary && ti != nil {
		if err := report.CopyTargetSummary(*ti); err != nil {
			logger.Logf("clipboard copy failed: %v", err)
		}
	}

	if o.serve != "" {
		return apiserver.Serve(o.serve, fw, ti, result)
	}
	return nil
}

func programHex(p *ccd.Probe, o options, logger *ui.Logger) (*apiserver.Result, error) {
	start := time.Now()
	result := &apiserver.Result{}

	f, err := os.Open(o.hexPath)
	if err != nil {
		return result, fmt.Errorf("open hex file: %w", err)
	}
	defer f.Close()

	base, payload, err := ccd.LoadHex(f)
	if err != nil {
		result.Err = err
		return result, fmt.Errorf("parse hex file: %w", err)
	}
	logger.Logf("hex image: base=0x%04x len=%d audit=%s", base, len(payload), report.AuditHash(payload))

	if o.erase {
		logger.Logf("erasing flash")
		if err := p.Erase(); err != nil {
			result.Err = err
			result.Duration = time.Since(start)
			return result, fmt.Errorf("erase: %w", err)
		}
	}

	logger.Logf("writing %d bytes at 0x%04x", len(payload), base)
	if err := p.WriteFlash(base, payload); err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result, fmt.Errorf("write flash: %w", err)
	}
	result.BytesWritten = len(payload)

	if o.verify {
		logger.Logf("verifying")
		if err := p.Verify(base, payload); err != nil {
			result.Err = err
			result.Duration = time.Since(start)
			return result, fmt.Errorf("verify: %w", err)
		}
		result.Verified = true
		logger.Logf("verify ok")
	}
	result.Duration = time.Since(start)
	return result, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(o); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
		os.Exit(1)
	}
}
