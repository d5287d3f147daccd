package errcollection

import (
	"strings"

	"github.com/pkg/errors"
)

const delimiter = "; "

// ErrorCollection gives the ability to return multiple errors instead of one.
// It gathers errors and returns a single error with the messages of all the
// collected errors joined by a delimiter. Used by the teardown barrier, which
// must attempt every cleanup step even when earlier ones fail.
type ErrorCollection struct {
	errorList []error
}

// Add inserts a new error to the collection. Nil errors are ignored.
func (e *ErrorCollection) Add(err error) {
	if err == nil {
		return
	}
	e.errorList = append(e.errorList, err)
}

// AddAll inserts all given errors to the collection.
func (e *ErrorCollection) AddAll(errs []error) {
	for _, err := range errs {
		e.Add(err)
	}
}

// GetErrIfAny returns an error with a message combined from all collected
// errors. In case of no errors it returns nil.
func (e *ErrorCollection) GetErrIfAny() error {
	if len(e.errorList) == 0 {
		return nil
	}

	messages := make([]string, 0, len(e.errorList))
	for _, err := range e.errorList {
		messages = append(messages, err.Error())
	}
	return errors.New(strings.Join(messages, delimiter))
}
