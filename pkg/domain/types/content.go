package types

// ContentType represents the kind of an extracted content fragment
type ContentType string

const (
	ContentTypeTicket   ContentType = "ticket"
	ContentTypeDocument ContentType = "document"
	ContentTypeMessage  ContentType = "message"
	ContentTypeComment  ContentType = "comment"
)

// AllContentTypes returns all valid content types
func AllContentTypes() []ContentType {
	return []ContentType{
		ContentTypeTicket,
		ContentTypeDocument,
		ContentTypeMessage,
		ContentTypeComment,
	}
}

// IsValid checks if the content type is valid
func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypeTicket,
		ContentTypeDocument,
		ContentTypeMessage,
		ContentTypeComment:
		return true
	default:
		return false
	}
}

// String returns the string representation of the content type
func (t ContentType) String() string {
	return string(t)
}

// ContentStatus represents the lifecycle state of a content item
type ContentStatus string

const (
	ContentStatusActive   ContentStatus = "active"
	ContentStatusArchived ContentStatus = "archived"
	ContentStatusDeleted  ContentStatus = "deleted"
)

// AllContentStatuses returns all valid content statuses
func AllContentStatuses() []ContentStatus {
	return []ContentStatus{
		ContentStatusActive,
		ContentStatusArchived,
		ContentStatusDeleted,
	}
}

// IsValid checks if the content status is valid
func (s ContentStatus) IsValid() bool {
	switch s {
	case ContentStatusActive, ContentStatusArchived, ContentStatusDeleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the content status
func (s ContentStatus) String() string {
	return string(s)
}
