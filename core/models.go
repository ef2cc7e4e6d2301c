package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentID returns the stable ID of the document stored at path within a project.
func DocumentID(projectID, path string) ID {
	return IDFromContent(projectID + "/" + path)
}

// Project is a container of documents that questions are asked against.
type Project struct {
	ID          string
	Name        string
	Tag         string
	Description string
	Status      string
	CreatedAt   time.Time
}

// Document is a file attached to a project.
// Its text is derived on demand by the document extractor and never stored here.
type Document struct {
	ID        ID
	ProjectID string
	Path      string
	Format    Format
}

// NewDocument builds a Document for path, resolving its format from the file extension.
func NewDocument(projectID, path string) (Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Document{}, err
	}
	return Document{
		ID:        DocumentID(projectID, path),
		ProjectID: projectID,
		Path:      path,
		Format:    format,
	}, nil
}

// Chunk is a bounded span of document text used as the unit of retrieval.
type Chunk struct {
	DocumentID ID
	Ordinal    int // Position within the document's chunk sequence
	Text       string
	Embedding  []float32 // Populated by the index builder
}

// Index is the searchable set of chunks for one project.
// It is rebuilt from the project's documents for every question.
type Index struct {
	ProjectID string
	Chunks    []Chunk
	BuiltAt   time.Time
}

// Empty reports whether the index holds no chunks.
func (i *Index) Empty() bool {
	return i == nil || len(i.Chunks) == 0
}

// ScoredChunk is a retrieval hit.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}

// Role identifies the author of a conversation turn.
type Role int

const (
	// RoleUser is a question asked by the user.
	RoleUser Role = iota + 1
	// RoleAssistant is a generated answer.
	RoleAssistant
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Turn is a single message in a project conversation.
type Turn struct {
	Role    Role
	Content string
	At      time.Time
}

// Session is the accumulated conversation for one project.
type Session struct {
	ProjectID string
	SessionID string
	History   []Turn
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Query is a single question for a project.
type Query struct {
	ProjectID string
	Question  string
}

// Answer is the result of answering a Query.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
