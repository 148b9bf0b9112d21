// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package failure classifies failed fetch attempts into a fixed
// taxonomy of integer codes. The codes drive the cooldown decisions
// made by package cooldown and are stored in the attempt ledger.
//
// A failure is described by a Signal, which is a closed set of variants
// that can nest: Transport, DNS, Errno, Status, Coded, Wrapped and
// Opaque. Fetch pipelines that return ordinary Go errors can convert
// them with FromError.
//
// Package failure depends only on the standard library, so it doesn't
// bring any significant dependencies when imported as a standalone
// package.
package failure
