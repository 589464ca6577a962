package errors

import (
	"encoding/json"
	"errors"
)

type BusinessErr struct {
	target  string
	message string
}

func (e *BusinessErr) Error() string {
	return e.message
}

func (e *BusinessErr) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Target  string `json:"target"`
		Message string `json:"message"`
	}{Target: e.target, Message: e.message})
}

func NewBusinessErr(target string, msg string) error {
	return &BusinessErr{
		target:  target,
		message: msg,
	}
}

// ConflictErr is raised when stored customer contradicts type or identity of the incoming external customer.
// It is the only failure of identity resolution, it is never retried.
type ConflictErr struct {
	externalID string
	message    string
}

func (e *ConflictErr) Error() string {
	return e.message
}

// ExternalID returns external id of the customer which caused conflict
func (e *ConflictErr) ExternalID() string {
	return e.externalID
}

func (e *ConflictErr) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		ExternalID string `json:"externalId"`
		Message    string `json:"message"`
	}{ExternalID: e.externalID, Message: e.message})
}

func NewConflictErr(externalID string, msg string) error {
	return &ConflictErr{
		externalID: externalID,
		message:    msg,
	}
}

// IsConflict reports whether any error in err's chain is ConflictErr
func IsConflict(err error) bool {
	var conflictErr *ConflictErr
	return errors.As(err, &conflictErr)
}

type EntryNotFoundErr struct {
	message string
}

func (e *EntryNotFoundErr) Error() string {
	return e.message
}

func NewEntryNotFoundErr(msg string) *EntryNotFoundErr {
	return &EntryNotFoundErr{message: msg}
}
