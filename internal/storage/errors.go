package storage

import "errors"

// Common storage errors
var (
	// ErrTemplateNotFound indicates that a template record does not exist
	ErrTemplateNotFound = errors.New("template not found")

	// ErrCertificateNotFound indicates that no certificate carries the
	// requested public id
	ErrCertificateNotFound = errors.New("certificate not found")

	// ErrAlreadyExists indicates a record with the same key is stored
	ErrAlreadyExists = errors.New("record already exists")
)
