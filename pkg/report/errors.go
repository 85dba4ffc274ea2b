package report

import (
	"errors"
	"fmt"
)

// ErrCorpus matches any failure to obtain the project's files.
var ErrCorpus = errors.New("cannot enumerate project files")

// CorpusError is the only fatal AnalyzeProject failure: the file corpus
// could not be read at all.
type CorpusError struct {
	Path string
	Err  error
}

func (e *CorpusError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrCorpus, e.Path, e.Err)
}

func (e *CorpusError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrCorpus) hold for every CorpusError.
func (e *CorpusError) Is(target error) bool {
	return target == ErrCorpus
}
