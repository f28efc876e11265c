package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/google/uuid"
)

// ContentID is a UUID-based identifier for ContentItem
type ContentID string

// NewContentID generates a new UUID v4 ContentID
func NewContentID() ContentID {
	return ContentID(uuid.New().String())
}

// VersionID is a UUID-based identifier for ContentVersion
type VersionID string

// NewVersionID generates a new UUID v4 VersionID
func NewVersionID() VersionID {
	return VersionID(uuid.New().String())
}

// ContentItem is the canonical record for one piece of extracted cross-platform
// content. The source URL is globally unique; the live fields always reflect the
// latest ContentVersion.
type ContentItem struct {
	ID             ContentID
	ContentType    types.ContentType
	SourceURL      string
	SourcePlatform types.Platform
	Title          string
	Body           string
	RawPayload     Payload
	ContentHash    string
	Author         string // platform-local identity string, may be empty
	CreatedAt      time.Time
	ModifiedAt     time.Time
	ExtractedAt    time.Time
	LastUpdatedAt  time.Time
	Status         types.ContentStatus
	AccessScopes   []string
	Metadata       map[string]string
	VersionCount   int
}

// ContentVersion is an immutable snapshot of a ContentItem at one version number.
// Versions are append-only and never rewritten.
type ContentVersion struct {
	ID               VersionID
	ContentID        ContentID
	VersionNumber    int
	Title            string
	Body             string
	ContentHash      string
	Author           string
	ModifiedAt       time.Time
	ChangeSummary    string
	DiffFromPrevious string
	CreatedAt        time.Time
}

// NormalizeBody canonicalizes a content body before hashing: CRLF becomes LF,
// trailing whitespace is stripped per line, and outer whitespace is trimmed.
// Character case is preserved since it is meaningful in bodies.
func NormalizeBody(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// HashBody returns the hex-encoded SHA-256 digest of the normalized body
func HashBody(body string) string {
	sum := sha256.Sum256([]byte(NormalizeBody(body)))
	return hex.EncodeToString(sum[:])
}

// NewVersionFromItem builds the next immutable version snapshot for an item.
// The caller supplies the version number; the pair (ContentID, VersionNumber)
// is unique and strictly increasing per item.
func NewVersionFromItem(item *ContentItem, versionNumber int, summary string) *ContentVersion {
	return &ContentVersion{
		ID:            NewVersionID(),
		ContentID:     item.ID,
		VersionNumber: versionNumber,
		Title:         item.Title,
		Body:          item.Body,
		ContentHash:   item.ContentHash,
		Author:        item.Author,
		ModifiedAt:    item.ModifiedAt,
		ChangeSummary: summary,
	}
}
