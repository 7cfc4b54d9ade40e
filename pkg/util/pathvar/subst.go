/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package pathvar expands variables in configured paths, such as wallet
// directories, the PKCS#11 library and TLS certificate files.
package pathvar

import (
	"os"
	"path/filepath"
	"strings"
)

// Subst expands '${NAME}' and '${NAME:-default}' in path. HOME and TMPDIR
// always resolve; other names come from the environment and unresolved
// ones without a default are left as written. A leading '~/' is the home
// directory.
func Subst(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, found := lookupVar("HOME"); found {
			path = filepath.Join(home, rest)
		}
	}

	var buffer strings.Builder
	for {
		before, after, found := strings.Cut(path, "${")
		buffer.WriteString(before)
		if !found {
			return buffer.String()
		}
		name, rest, closed := strings.Cut(after, "}")
		if !closed {
			buffer.WriteString("${")
			buffer.WriteString(after)
			return buffer.String()
		}
		if value, ok := resolve(name); ok {
			buffer.WriteString(value)
		} else {
			buffer.WriteString("${" + name + "}")
		}
		path = rest
	}
}

// resolve returns the value of a variable reference, applying its default
// when the variable is unset or empty
func resolve(ref string) (string, bool) {
	name, def, hasDefault := strings.Cut(ref, ":-")
	if v, ok := lookupVar(name); ok && v != "" {
		return v, true
	}
	if hasDefault {
		return def, true
	}
	return "", false
}

func lookupVar(v string) (string, bool) {
	switch v {
	case "HOME":
		if home, err := os.UserHomeDir(); err == nil {
			return home, true
		}
	case "TMPDIR":
		return filepath.Clean(os.TempDir()), true
	}
	return os.LookupEnv(v)
}
