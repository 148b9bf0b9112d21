// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package failure

import "syscall"

// Classify returns the error code for a failed fetch attempt.
//
// Parameter reachable reports whether the device had network
// connectivity when the failure was observed. If it is false, the result
// is always InternetUnreachable, whatever the signal says.
//
// Otherwise the rules, in order, are:
//
// • a nil signal is UnknownError;
//
// • the first Coded or Status signal found depth-first is returned
// verbatim;
//
// • a top-level Wrapped with no causes at all is Timeout (an empty cause
// list has been observed when a response body is shorter than its
// declared content length, and when the pipeline swallows the read
// error);
//
// • any timeout in the tree is Timeout;
//
// • any DNS failure in the tree is UnknownHost;
//
// • the first Errno in the tree is mapped: ECONNREFUSED is
// ConnectionRefused, ENETUNREACH is InternetUnreachable, and ENETDOWN,
// ENETRESET, ECONNABORTED, ECONNRESET and EHOSTUNREACH are
// LikelyTemporaryNetworkProblem.
//
// Everything else is UnknownError. Classify never panics.
func Classify(sig Signal, reachable bool) Code {
	if !reachable {
		return InternetUnreachable
	}
	if sig == nil {
		return UnknownError
	}

	if s := find(sig, isCoded); s != nil {
		return codeOf(s)
	}

	if w, ok := sig.(Wrapped); ok && len(w.Causes) == 0 {
		return Timeout
	}

	if find(sig, isTimeout) != nil {
		return Timeout
	}
	if find(sig, isDNS) != nil {
		return UnknownHost
	}
	if s := find(sig, isErrno); s != nil {
		return errnoCode(s.(Errno).Errno)
	}

	return UnknownError
}

// ClassifyError converts err with FromError and classifies the result.
func ClassifyError(err error, reachable bool) Code {
	return Classify(FromError(err), reachable)
}

func find(sig Signal, match func(Signal) bool) Signal {
	if sig == nil {
		return nil
	}
	if match(sig) {
		return sig
	}
	if w, ok := sig.(Wrapped); ok {
		for _, c := range w.Causes {
			if s := find(c, match); s != nil {
				return s
			}
		}
	}
	return nil
}

func isCoded(sig Signal) bool {
	switch x := sig.(type) {
	case Coded:
		return x.Code != Success
	case Status:
		return x.StatusCode > 0
	}
	return false
}

func codeOf(sig Signal) Code {
	switch x := sig.(type) {
	case Coded:
		return x.Code
	case Status:
		return Code(x.StatusCode)
	}
	return UnknownError
}

func isTimeout(sig Signal) bool {
	switch x := sig.(type) {
	case Transport:
		return x.Kind == TransportTimeout
	case Errno:
		return x.Errno.Timeout()
	}
	return false
}

func isDNS(sig Signal) bool {
	_, ok := sig.(DNS)
	return ok
}

func isErrno(sig Signal) bool {
	_, ok := sig.(Errno)
	return ok
}

func errnoCode(errno syscall.Errno) Code {
	switch errno {
	case syscall.ECONNREFUSED:
		return ConnectionRefused
	case syscall.ENETUNREACH:
		return InternetUnreachable
	case syscall.ENETDOWN,
		syscall.ENETRESET,
		syscall.ECONNABORTED,
		syscall.ECONNRESET,
		syscall.EHOSTUNREACH:
		return LikelyTemporaryNetworkProblem
	}
	return UnknownError
}
