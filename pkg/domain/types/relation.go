package types

// RelationType represents the type of a directed edge between two content items
type RelationType string

const (
	RelationLinksTo     RelationType = "links-to"
	RelationReferences  RelationType = "references"
	RelationDuplicates  RelationType = "duplicates"
	RelationDerivedFrom RelationType = "derived-from"
)

// AllRelationTypes returns all valid relation types
func AllRelationTypes() []RelationType {
	return []RelationType{
		RelationLinksTo,
		RelationReferences,
		RelationDuplicates,
		RelationDerivedFrom,
	}
}

// IsValid checks if the relation type is valid
func (t RelationType) IsValid() bool {
	switch t {
	case RelationLinksTo, RelationReferences, RelationDuplicates, RelationDerivedFrom:
		return true
	default:
		return false
	}
}

// String returns the string representation of the relation type
func (t RelationType) String() string {
	return string(t)
}

// EventKind represents the kind of an observed collaboration event
type EventKind string

const (
	// EventMentioned records a person being @-mentioned in a content body
	EventMentioned EventKind = "mentioned"
	// EventAuthored records a person authoring a content item
	EventAuthored EventKind = "authored"
	// EventReferenced records a person's content being linked from elsewhere
	EventReferenced EventKind = "referenced"
)

// IsValid checks if the event kind is valid
func (k EventKind) IsValid() bool {
	switch k {
	case EventMentioned, EventAuthored, EventReferenced:
		return true
	default:
		return false
	}
}

// String returns the string representation of the event kind
func (k EventKind) String() string {
	return string(k)
}
