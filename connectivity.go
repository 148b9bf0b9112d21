// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetchgate

// Connectivity is the interface that wraps the basic Reachable method.
//
// Reachable reports whether the host currently has a working network
// connection. It is called synchronously each time a failed attempt is
// classified, so implementations should answer from cached state rather
// than probing the network. The netstate package provides one.
type Connectivity interface {
	Reachable() bool
}

// The ConnectivityFunc type is an adapter to allow the use of ordinary
// functions as a Connectivity.
type ConnectivityFunc func() bool

// Reachable calls f().
func (f ConnectivityFunc) Reachable() bool {
	return f()
}

// AlwaysReachable is the Connectivity used when none is configured. It
// always reports that the network is reachable.
var AlwaysReachable Connectivity = ConnectivityFunc(func() bool { return true })
