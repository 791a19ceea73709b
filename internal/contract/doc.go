// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contract holds the input checks graphload applies before it
// talks to an engine.
//
// # Script Limits
//
// A script is sent once per batch, so an oversized script multiplies
// across the whole run. Scripts larger than the soft limit are rejected:
//
//	// Default limit is 1 MiB
//	limit := contract.SoftLimitBytes()
//
//	result := contract.ValidateScript(script)
//	if !result.OK {
//	    return fmt.Errorf("invalid script: %s", result.Message)
//	}
//
// The limit can be changed with GRAPHLOAD_SOFT_LIMIT_BYTES:
//
//	export GRAPHLOAD_SOFT_LIMIT_BYTES=4194304  # 4 MiB
//
// Unset or invalid values fall back to DefaultSoftLimitBytes.
//
// # Views
//
// View identifiers are 32 lowercase hex characters. IsGuid reports
// whether a string has that shape.
package contract
