package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/decayscope/internal/domain"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
)

// MaxContentSize is the maximum document content size in bytes.
const MaxContentSize = 1 << 20 // 1MB

// Type is the document category. It selects the freshness window and the authority rank.
type Type string

// Known document types. Other values are preserved as-is and treated leniently.
const (
	TypeSOP    Type = "SOP"
	TypePolicy Type = "Policy"
	TypeSpec   Type = "Spec"
	TypeGuide  Type = "Guide"
	TypeNotes  Type = "Notes"
)

var knownTypes = []Type{TypeSOP, TypePolicy, TypeSpec, TypeGuide, TypeNotes}

// ParseType maps s onto a known type case-insensitively. Unknown values are returned unchanged.
func ParseType(s string) Type {
	s = strings.TrimSpace(s)
	for _, t := range knownTypes {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	return Type(s)
}

// Known reports whether t is one of the fixed document types.
func (t Type) Known() bool {
	for _, k := range knownTypes {
		if t == k {
			return true
		}
	}
	return false
}

// AuthorityRank orders types by how authoritative their content is: SOP 5, Policy 4,
// Spec 3, Guide 2, Notes 1. Unknown types rank 0.
func AuthorityRank(t Type) int {
	switch t {
	case TypeSOP:
		return 5
	case TypePolicy:
		return 4
	case TypeSpec:
		return 3
	case TypeGuide:
		return 2
	case TypeNotes:
		return 1
	default:
		return 0
	}
}

// Fields carries the raw snapshot attributes for New and Reconstruct.
type Fields struct {
	ID             string
	WorkspaceID    string
	Title          string
	Type           Type
	Content        string
	CurrentVersion int
	UpdatedAt      time.Time
	LastVerifiedAt *time.Time
	Embedding      vector.Vector
}

// Snapshot is a document as seen by one analysis call (immutable value object).
type Snapshot struct {
	id             string
	workspaceID    string
	title          string
	docType        Type
	content        string
	currentVersion int
	updatedAt      time.Time
	lastVerifiedAt *time.Time
	embedding      vector.Vector
}

// New validates and creates a Snapshot.
func New(f Fields) (Snapshot, error) {
	s := Reconstruct(f)
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Reconstruct creates a Snapshot without validation (request and storage hydration).
func Reconstruct(f Fields) Snapshot {
	var verified *time.Time
	if f.LastVerifiedAt != nil && !f.LastVerifiedAt.IsZero() {
		t := *f.LastVerifiedAt
		verified = &t
	}
	return Snapshot{
		id:             f.ID,
		workspaceID:    f.WorkspaceID,
		title:          f.Title,
		docType:        f.Type,
		content:        f.Content,
		currentVersion: f.CurrentVersion,
		updatedAt:      f.UpdatedAt,
		lastVerifiedAt: verified,
		embedding:      f.Embedding,
	}
}

// Validate checks the fields an analysis cannot run without.
func (s Snapshot) Validate() error {
	if strings.TrimSpace(s.id) == "" {
		return fmt.Errorf("document id is required: %w", domain.ErrInvalidDocument)
	}
	if s.content == "" {
		return fmt.Errorf("document %s: content is required: %w", s.id, domain.ErrInvalidDocument)
	}
	if len(s.content) > MaxContentSize {
		return fmt.Errorf("document %s: content too large (max %d bytes): %w",
			s.id, MaxContentSize, domain.ErrInvalidDocument)
	}
	if s.currentVersion < 1 {
		return fmt.Errorf("document %s: current version must be >= 1: %w", s.id, domain.ErrInvalidDocument)
	}
	if s.updatedAt.IsZero() {
		return fmt.Errorf("document %s: updated_at is required: %w", s.id, domain.ErrInvalidDocument)
	}
	return nil
}

// ID returns the document identifier.
func (s Snapshot) ID() string { return s.id }

// WorkspaceID returns the owning workspace.
func (s Snapshot) WorkspaceID() string { return s.workspaceID }

// Title returns the display title, which may be empty.
func (s Snapshot) Title() string { return s.title }

// Type returns the document type.
func (s Snapshot) Type() Type { return s.docType }

// Content returns the document text.
func (s Snapshot) Content() string { return s.content }

// CurrentVersion returns the live version number.
func (s Snapshot) CurrentVersion() int { return s.currentVersion }

// UpdatedAt returns the last content update time.
func (s Snapshot) UpdatedAt() time.Time { return s.updatedAt }

// LastVerifiedAt returns the last human verification time, if any.
func (s Snapshot) LastVerifiedAt() (time.Time, bool) {
	if s.lastVerifiedAt == nil {
		return time.Time{}, false
	}
	return *s.lastVerifiedAt, true
}

// Embedding returns the stored vector, or nil.
func (s Snapshot) Embedding() vector.Vector { return s.embedding }

// Fields returns the snapshot attributes.
func (s Snapshot) Fields() Fields {
	f := Fields{
		ID:             s.id,
		WorkspaceID:    s.workspaceID,
		Title:          s.title,
		Type:           s.docType,
		Content:        s.content,
		CurrentVersion: s.currentVersion,
		UpdatedAt:      s.updatedAt,
		Embedding:      s.embedding,
	}
	if s.lastVerifiedAt != nil {
		t := *s.lastVerifiedAt
		f.LastVerifiedAt = &t
	}
	return f
}

// WithEmbedding returns a copy with the given vector set.
func (s Snapshot) WithEmbedding(v vector.Vector) Snapshot {
	s.embedding = v
	return s
}

// Label names the document for humans: the title when present, the id otherwise.
func (s Snapshot) Label() string {
	if s.title != "" {
		return s.title
	}
	return s.id
}

// Version is one prior (or current) revision of a document.
type Version struct {
	DocumentID string
	Number     int
	Content    string
	Embedding  vector.Vector
	Author     string
	CreatedAt  time.Time
}

// ValidateVersions checks that version numbers are positive and unique.
func ValidateVersions(documentID string, versions []Version) error {
	seen := make(map[int]struct{}, len(versions))
	for _, v := range versions {
		if v.Number < 1 {
			return fmt.Errorf("document %s: version number must be >= 1: %w", documentID, domain.ErrInvalidDocument)
		}
		if _, dup := seen[v.Number]; dup {
			return fmt.Errorf("document %s: duplicate version %d: %w", documentID, v.Number, domain.ErrInvalidDocument)
		}
		seen[v.Number] = struct{}{}
	}
	return nil
}

// Related is a document retrieved as a neighbor of the subject, with its similarity score.
type Related struct {
	Document   Snapshot
	Similarity float64
}

// IDs returns the ids of related documents in order.
func IDs(related []Related) []string {
	ids := make([]string, 0, len(related))
	for _, r := range related {
		ids = append(ids, r.Document.ID())
	}
	return ids
}
