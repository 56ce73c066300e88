// Package cos provides common low-level types and utilities shared by every
// package in this module.
package cos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	ratomic "sync/atomic"
	"syscall"

	"github.com/mozilla-telemetry/hangreport/cmn/nlog"
)

type (
	// ErrValue latches the first error of a kind reported to it and counts
	// how many times it (or an equivalent one) was reported again. Used to
	// summarize record-local failures (§7 "Propagation policy") without
	// spamming logs on every dropped ping.
	ErrValue struct {
		v   ratomic.Value
		cnt ratomic.Int64
	}
)

///////////////
// ErrValue //
///////////////

func (ea *ErrValue) Store(err error) {
	if ea.cnt.Add(1) == 1 {
		ea.v.Store(err)
	}
}

func (ea *ErrValue) _load() (err error) {
	if x := ea.v.Load(); x != nil {
		err = x.(error)
	}
	return
}

func (ea *ErrValue) Err() (err error) {
	err = ea._load()
	if err != nil {
		if cnt := ea.cnt.Load(); cnt > 1 {
			err = fmt.Errorf("%w (cnt=%d)", err, cnt)
		}
	}
	return
}

////////////////////////
// IS-syscall helpers //
////////////////////////

// Likely out of socket descriptors -- surfaced by the FTP/HTTPS symbol fetch.
func IsErrConnectionNotAvail(err error) bool {
	return errors.Is(err, syscall.EADDRNOTAVAIL)
}

func IsErrConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

// TCP RST.
func IsErrConnectionReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) || IsErrBrokenPipe(err)
}

func IsErrBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}

func IsErrOOS(err error) bool {
	return errors.Is(err, syscall.ENOSPC)
}

// IsUnreachable reports whether err/status indicate the symbol server
// (FTP or HTTPS) never responded, as opposed to an application-level
// failure such as a missing archive.
func IsUnreachable(err error, status int) bool {
	return IsErrConnectionRefused(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		status == http.StatusRequestTimeout ||
		status == http.StatusServiceUnavailable ||
		status == http.StatusBadGateway
}

//////////////////////////
// Abnormal Termination //
//////////////////////////

// Exitf writes a formatted message to stderr and exits with status 1. Used
// for usage errors (§6 "nonzero exit on usage or job failure").
func Exitf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f, a...)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}

// ExitLogf is Exitf plus a flushed nlog entry; use once logging is up.
func ExitLogf(f string, a ...any) {
	nlog.Errorf("FATAL ERROR: "+f, a...)
	nlog.Flush(nlog.ActOOB)
	Exitf(f, a...)
}
