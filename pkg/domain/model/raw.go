package model

import (
	"encoding/json"
	"time"

	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ErrValidation is returned when a raw extraction record is rejected before any write
var ErrValidation = goerr.New("invalid raw extraction")

// RawExtraction is the normalized record handed to the core by the external
// platform extractors. It is the sole input of the ingestion pipeline.
type RawExtraction struct {
	ContentType    types.ContentType `json:"content_type"`
	SourceURL      string            `json:"source_url"`
	SourcePlatform types.Platform    `json:"source_platform"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	RawPayload     json.RawMessage   `json:"raw_payload,omitempty"`
	Author         string            `json:"author,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	ModifiedAt     time.Time         `json:"modified_at"`
	AccessScopes   []string          `json:"access_scopes,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Validate rejects records that are missing required fields. Rejection happens
// before any write reaches the store.
func (r *RawExtraction) Validate() error {
	if r.SourceURL == "" {
		return goerr.Wrap(ErrValidation, "source URL is required")
	}
	if r.ContentType == "" {
		return goerr.Wrap(ErrValidation, "content type is required")
	}
	if !r.ContentType.IsValid() {
		return goerr.Wrap(ErrValidation, "unknown content type", goerr.V("content_type", r.ContentType))
	}
	if r.SourcePlatform != "" && !r.SourcePlatform.IsValid() {
		return goerr.Wrap(ErrValidation, "unknown source platform", goerr.V("source_platform", r.SourcePlatform))
	}
	return nil
}

// ToContentItem builds a fresh ContentItem from the raw record. The ID, hash,
// status and timestamps managed by the store are filled in by the repository.
func (r *RawExtraction) ToContentItem() *ContentItem {
	platform := r.SourcePlatform
	if platform == "" {
		platform = types.PlatformWeb
	}
	return &ContentItem{
		ContentType:    r.ContentType,
		SourceURL:      r.SourceURL,
		SourcePlatform: platform,
		Title:          r.Title,
		Body:           r.Body,
		RawPayload:     DecodePayload(r.ContentType, r.RawPayload),
		ContentHash:    HashBody(r.Body),
		Author:         r.Author,
		CreatedAt:      r.CreatedAt,
		ModifiedAt:     r.ModifiedAt,
		AccessScopes:   r.AccessScopes,
		Metadata:       r.Metadata,
	}
}
