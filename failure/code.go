// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package failure

import "strconv"

// A Code is the outcome of a fetch attempt. Zero means success. Negative
// values are members of the fixed error taxonomy. Positive values are
// HTTP status codes passed through verbatim.
type Code int

const (
	// Success indicates the fetch attempt succeeded.
	Success Code = 0
	// UnknownError is the universal fallback for failures that cannot
	// be classified any further.
	UnknownError Code = -1

	// HTMLBodyLacksRequiredData indicates an HTML page was fetched
	// but it did not contain the data the pipeline was looking for
	// (for example, a preview image reference).
	HTMLBodyLacksRequiredData Code = -2
	// UnacceptableFileSize indicates the resource was too large.
	UnacceptableFileSize Code = -3
	// UnacceptableMediaType indicates the resource had a media type the
	// pipeline does not handle.
	UnacceptableMediaType Code = -4
	// SSLRequired indicates the pipeline refused to fetch over an
	// insecure scheme.
	SSLRequired Code = -5
	// RedirectToNullTarget indicates the fetch target redirected to
	// something the pipeline could not turn into a new target.
	RedirectToNullTarget Code = -6
	// MalformedURL indicates the fetch target is not a valid URL.
	MalformedURL Code = -7

	// LikelyTemporaryNetworkProblem covers OS-level errors such as
	// ENETDOWN or ECONNRESET which usually clear by themselves.
	LikelyTemporaryNetworkProblem Code = -100
	// InternetUnreachable indicates there was no network connectivity,
	// or the OS reported ENETUNREACH.
	InternetUnreachable Code = -101
	// Timeout indicates the attempt timed out.
	Timeout Code = -110
	// ConnectionRefused corresponds to ECONNREFUSED.
	ConnectionRefused Code = -111
	// UnknownHost indicates the host name did not resolve.
	UnknownHost Code = -200
)

var codeNames = map[Code]string{
	Success:                       "Success",
	UnknownError:                  "UnknownError",
	HTMLBodyLacksRequiredData:     "HTMLBodyLacksRequiredData",
	UnacceptableFileSize:          "UnacceptableFileSize",
	UnacceptableMediaType:         "UnacceptableMediaType",
	SSLRequired:                   "SSLRequired",
	RedirectToNullTarget:          "RedirectToNullTarget",
	MalformedURL:                  "MalformedURL",
	LikelyTemporaryNetworkProblem: "LikelyTemporaryNetworkProblem",
	InternetUnreachable:           "InternetUnreachable",
	Timeout:                       "Timeout",
	ConnectionRefused:             "ConnectionRefused",
	UnknownHost:                   "UnknownHost",
}

// Codes returns every named code in the taxonomy, excluding HTTP status
// codes.
func Codes() []Code {
	return []Code{
		Success,
		UnknownError,
		HTMLBodyLacksRequiredData,
		UnacceptableFileSize,
		UnacceptableMediaType,
		SSLRequired,
		RedirectToNullTarget,
		MalformedURL,
		LikelyTemporaryNetworkProblem,
		InternetUnreachable,
		Timeout,
		ConnectionRefused,
		UnknownHost,
	}
}

// String returns the name of the code. HTTP status codes are rendered
// as "HTTP nnn" and codes outside the taxonomy as "Code(n)".
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	if c.IsHTTPStatus() {
		return "HTTP " + strconv.Itoa(int(c))
	}
	return "Code(" + strconv.Itoa(int(c)) + ")"
}

// IsHTTPStatus reports whether c is an HTTP status code passed through
// from a response.
func (c Code) IsHTTPStatus() bool {
	return c >= 100 && c <= 599
}

// Structured reports whether c is one of the codes reported explicitly
// by a fetch pipeline, as opposed to one inferred from a transport
// failure.
func (c Code) Structured() bool {
	return c <= HTMLBodyLacksRequiredData && c >= MalformedURL
}
