package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcus/quotes/internal/output"
	"github.com/marcus/quotes/internal/persist"
	"github.com/marcus/quotes/internal/quotes"
	"github.com/marcus/quotes/internal/session"
	qsync "github.com/marcus/quotes/internal/sync"
)

// errorCode maps a session error to its structured output code
func errorCode(err error) string {
	switch {
	case errors.Is(err, quotes.ErrMalformedImport):
		return output.ErrCodeMalformedImport
	case errors.Is(err, persist.ErrStorageWrite), errors.Is(err, persist.ErrStorageRead):
		return output.ErrCodeStorageError
	case errors.Is(err, qsync.ErrRemoteUnavailable):
		return output.ErrCodeRemoteUnavailable
	case errors.Is(err, qsync.ErrInvalidResolution):
		return output.ErrCodeInvalidResolution
	case errors.Is(err, session.ErrUnknownCategory), errors.Is(err, os.ErrNotExist):
		return output.ErrCodeNotFound
	default:
		return output.ErrCodeInvalidInput
	}
}

// errorHint is a follow-up suggestion printed under the error, if any
func errorHint(err error) string {
	switch {
	case errors.Is(err, quotes.ErrMalformedImport):
		return `Expected a JSON array of {"text": ..., "category": ...} objects.`
	case errors.Is(err, persist.ErrStorageWrite):
		return "The change is visible in this session but was not saved."
	case errors.Is(err, qsync.ErrRemoteUnavailable):
		return "Check sync.remote_url or that the mirror server is running."
	case errors.Is(err, session.ErrUnknownCategory):
		return "Run 'quotes categories' to see the available categories."
	}
	return ""
}

// reportError prints err as JSON when --json is set, styled otherwise, and
// returns it so RunE exits non-zero.
func reportError(cmd *cobra.Command, err error) error {
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		output.JSONError(errorCode(err), err.Error())
		return err
	}
	output.Error("%v", err)
	if hint := errorHint(err); hint != "" {
		output.Info("  %s", hint)
	}
	return err
}
