package service

import "github.com/pkg/errors"

// Kind classifies a domain error so the transport layer can map it to a
// response status without inspecting messages.
type Kind int

const (
	KindStorage Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func validationErr(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func notFoundErr(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func forbiddenErr(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

func conflictErr(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// KindOf returns the kind of err. Anything that is not a domain *Error is
// treated as a storage failure and must not leak detail to clients.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindStorage
}
