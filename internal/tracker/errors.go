package tracker

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/remote"
)

var (
	ErrAuthFailure  = errors.New("authentication failed")
	ErrFetchFailure = errors.New("fetch failed")
	ErrWriteFailure = errors.New("remote write failed")
	ErrLoginTaken   = errors.New("login already taken")
	ErrValidation   = errors.New("invalid input")
)

// Stage is the step of a sync cycle that failed.
type Stage string

const (
	StageToken   Stage = "token"
	StageConnect Stage = "connect"
	StageResolve Stage = "resolve"
	StageFetch   Stage = "fetch"
)

// SyncError aborts a sync cycle. It matches ErrAuthFailure when the token
// could not be acquired or the remote rejected it, and ErrFetchFailure
// otherwise.
type SyncError struct {
	Stage      Stage
	Collection models.Kind
	Err        error
}

func (e *SyncError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("sync %s %s: %v", e.Stage, e.Collection, e.Err)
	}
	return fmt.Sprintf("sync %s: %v", e.Stage, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func (e *SyncError) Is(target error) bool {
	switch target {
	case ErrAuthFailure:
		return e.auth()
	case ErrFetchFailure:
		return !e.auth()
	}
	return false
}

func (e *SyncError) auth() bool {
	return e.Stage == StageToken || remote.IsAuthError(e.Err)
}

// Write operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// WriteError reports a failed remote write. The local snapshot is left
// unchanged.
type WriteError struct {
	Op   string
	Kind models.Kind
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Is(target error) bool {
	return target == ErrWriteFailure
}
