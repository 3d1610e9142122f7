// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package log provides a minimal leveled, key/value logging interface with
// pluggable backends.
package log

// Logger is a logger interface.
type Logger interface {
	Log(level Level, keyvals ...interface{}) error
}

// DefaultMessageKey is the key under which helper messages are logged.
var DefaultMessageKey = "msg"
