// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultSoftLimitBytes is the baseline script size limit (1 MiB).
const DefaultSoftLimitBytes = 1 << 20

// SoftLimitEnv overrides DefaultSoftLimitBytes.
const SoftLimitEnv = "GRAPHLOAD_SOFT_LIMIT_BYTES"

var guidRe = regexp.MustCompile(`^[0-9a-f]{32}$`)

// SoftLimitBytes returns the effective soft limit for script size.
func SoftLimitBytes() int {
	if v := os.Getenv(SoftLimitEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultSoftLimitBytes
}

// ValidationResult represents the result of a validation check.
type ValidationResult struct {
	OK      bool
	Message string
}

// ValidateScript checks that a script is non-empty UTF-8 text within the
// soft limit. It does not parse the script; syntax is the engine's job.
func ValidateScript(script string) *ValidationResult {
	switch {
	case strings.TrimSpace(script) == "":
		return &ValidationResult{Message: "script is empty"}
	case !utf8.ValidString(script):
		return &ValidationResult{Message: "script is not valid UTF-8"}
	case len(script) > SoftLimitBytes():
		return &ValidationResult{
			Message: fmt.Sprintf("script is %d bytes, exceeds soft limit of %d", len(script), SoftLimitBytes()),
		}
	}
	return &ValidationResult{OK: true}
}

// IsGuid reports whether s is a 32 character lowercase hex identifier.
func IsGuid(s string) bool {
	return guidRe.MatchString(s)
}
