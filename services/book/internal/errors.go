package internal

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	ErrBadData      = errors.New("bad data")
	ErrStoreFailure = errors.New("store failure")
)

const documentValidationFailure = 121

// BadDataError is a write the caller can fix: a missing required field or
// a duplicate key. Message is the store's (or validator's) message.
type BadDataError struct {
	Message string
	Err     error
}

func (e *BadDataError) Error() string { return e.Message }

func (e *BadDataError) Unwrap() error { return e.Err }

func (e *BadDataError) Is(target error) bool { return target == ErrBadData }

// StoreError wraps any other failure reported by the document store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("books: %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreFailure }

func storeError(op string, err error) error {
	log.WithFields(log.Fields{"op": op, "err": err}).Error("Book store failure")
	return &StoreError{Op: op, Err: err}
}

func classifyWriteError(op string, err error) error {
	msg := err.Error()
	if mongo.IsDuplicateKeyError(err) || isDocumentValidationError(err) ||
		strings.Contains(msg, "validation failed") || strings.Contains(msg, "duplicate key") {
		return &BadDataError{Message: msg, Err: err}
	}
	return storeError(op, err)
}

func isDocumentValidationError(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(documentValidationFailure)
}
