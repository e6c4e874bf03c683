package docstore

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("key not found")
	ErrInvalidKey = errors.New("invalid key")
	ErrStorage    = errors.New("storage failure")
)

type InvalidKeyError struct {
	Key    string
	Reason string
}

type NotFoundError struct {
	Bucket string
	Key    string
}

// StorageError wraps an I/O or encoding failure in the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid key %s: %s", e.Key, e.Reason)
}

func (e *InvalidKeyError) Is(target error) bool {
	return target == ErrInvalidKey
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("key not found in %s: %s", e.Bucket, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %s", e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Index names a secondary ordering over documents.
type Index string

const (
	IndexCreated      Index = "created"
	IndexModified     Index = "modified"
	IndexModifiedByMe Index = "modifiedByMe"
	IndexViewed       Index = "viewed"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)
