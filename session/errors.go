package session

import "errors"

var (
	// ErrProjectStoreRequired is returned when a project store is not provided.
	ErrProjectStoreRequired = errors.New("project store required")

	// ErrIndexBuilderRequired is returned when an index builder is not provided.
	ErrIndexBuilderRequired = errors.New("index builder required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrGeneratorRequired is returned when an answer generator is not provided.
	ErrGeneratorRequired = errors.New("answer generator required")

	// ErrSessionRepositoryRequired is returned when a session repository is not provided.
	ErrSessionRepositoryRequired = errors.New("session repository required")
)
