// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package errors

import (
	"context"
	stderrors "errors"
	"io/fs"

	"github.com/kraklabs/graphload/pkg/engine"
	"github.com/kraklabs/graphload/pkg/engine/remote"
	"github.com/kraklabs/graphload/pkg/ingestion"
	"github.com/kraklabs/graphload/pkg/version"
)

// Classify maps an error from the engine, ingestion or file layers to a
// UserError with a matching exit code. A *UserError anywhere in the
// chain is returned as is.
func Classify(err error) *UserError {
	if err == nil {
		return nil
	}

	var (
		ue   *UserError
		bad  *version.BadVersionError
		re   *engine.RemoteError
		te   *engine.TransportError
		perr *fs.PathError
	)
	switch {
	case stderrors.As(err, &ue):
		return ue
	case stderrors.As(err, &bad):
		return NewVersionError(
			"Engine version "+bad.Reported.String()+" is not supported",
			"graphload supports engine versions "+bad.Required.String(),
			"Use a graphload release that supports this engine",
			err,
		)
	case stderrors.Is(err, ingestion.ErrInvalidScript):
		return &UserError{
			Message:  "Invalid script",
			Cause:    err.Error(),
			Fix:      "Check the script file passed as the first argument",
			ExitCode: ExitInput,
			Err:      err,
		}
	case stderrors.Is(err, remote.ErrUnknownAlias):
		return notFound("Unknown engine alias", err, "Add it to ~/.graphload/aliases.yaml or pass a full URL")
	case stderrors.As(err, &re):
		return NewEngineError("The engine rejected the request", re.Error(), "", err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return NewNetworkError("Timed out", err.Error(), "Raise --timeout or check the engine", err)
	case stderrors.Is(err, context.Canceled):
		return NewInternalError("Interrupted", err.Error(), "", err)
	case stderrors.As(err, &te):
		return NewNetworkError("Lost connection to the engine", te.Error(), "Check that the engine is running and reachable", err)
	case stderrors.Is(err, fs.ErrNotExist):
		return notFound("File not found", err, "Check the path")
	case stderrors.As(err, &perr):
		return NewIOError("Cannot access "+perr.Path, err.Error(), "", err)
	default:
		return NewInternalError("Unexpected error", err.Error(), "", err)
	}
}

func notFound(msg string, err error, fix string) *UserError {
	ue := NewNotFoundError(msg, err.Error(), fix)
	ue.Err = err
	return ue
}
