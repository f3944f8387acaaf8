package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindDirectoryCreation Kind = iota + 1
	KindDependencyFetch
	KindDependencyExtract
	KindCatalogFetch
	KindArchiveDownload
	KindExtract
	KindRelocate
)

// Exit statuses for fatal failures. 1 and 2 are left for generic and usage errors.
const (
	ExitDirectoryCreation = 10
	ExitDependencyFetch   = 11
	ExitCatalogFetch      = 12
	ExitArchiveDownload   = 13
	ExitExtract           = 14
	ExitRelocate          = 15
	ExitDependencyExtract = 16
)

func (k Kind) String() string {
	switch k {
	case KindDirectoryCreation:
		return "DirectoryCreationError"
	case KindDependencyFetch:
		return "DependencyFetchError"
	case KindDependencyExtract:
		return "DependencyExtractError"
	case KindCatalogFetch:
		return "CatalogFetchError"
	case KindArchiveDownload:
		return "ArchiveDownloadError"
	case KindExtract:
		return "ExtractError"
	case KindRelocate:
		return "RelocateError"
	default:
		return "UnknownError"
	}
}

// Message is the one-line explanation shown to the operator.
func (k Kind) Message() string {
	switch k {
	case KindDirectoryCreation:
		return "could not create the build directory"
	case KindDependencyFetch:
		return "could not download the build tool"
	case KindDependencyExtract:
		return "could not unpack the build tool"
	case KindCatalogFetch:
		return "could not fetch the list of releases"
	case KindArchiveDownload:
		return "could not download the selected release"
	case KindExtract:
		return "could not unpack the release archive"
	case KindRelocate:
		return "could not move the release into place"
	default:
		return "installation failed"
	}
}

// ExitCode is the process status for a failure of this kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindDirectoryCreation:
		return ExitDirectoryCreation
	case KindDependencyFetch:
		return ExitDependencyFetch
	case KindDependencyExtract:
		return ExitDependencyExtract
	case KindCatalogFetch:
		return ExitCatalogFetch
	case KindArchiveDownload:
		return ExitArchiveDownload
	case KindExtract:
		return ExitExtract
	case KindRelocate:
		return ExitRelocate
	default:
		return 1
	}
}

// Fatal reports whether a failure of this kind stops the pipeline.
// Only a tool extraction failure is tolerated.
func (k Kind) Fatal() bool {
	return k != KindDependencyExtract
}

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Op   string // what was being attempted, e.g. a path or URL
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind.Message(), e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind.Message(), e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode returns the process status for this failure.
func (e *Error) ExitCode() int {
	return e.Kind.ExitCode()
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	return 0
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
