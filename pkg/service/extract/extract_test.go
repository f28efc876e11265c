package extract_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/model/config"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/Rubix982/triage/pkg/service/extract"
)

func newItem(body string) *model.ContentItem {
	return &model.ContentItem{
		ID:             model.NewContentID(),
		ContentType:    types.ContentTypeTicket,
		SourceURL:      "https://jira.example.com/browse/AUTH-1",
		SourcePlatform: types.PlatformJira,
		Body:           body,
	}
}

func TestExtractLinks(t *testing.T) {
	ctx := context.Background()
	ext := extract.New(config.Default())

	t.Run("finds bare URLs and infers platform", func(t *testing.T) {
		item := newItem("see https://docs.example.atlassian.net/wiki/spaces/ENG/pages/42 and https://github.com/acme/api/pull/7")
		links, _, err := ext.Extract(ctx, item, nil)
		if err != nil {
			t.Fatalf("failed to extract: %v", err)
		}
		if len(links) != 2 {
			t.Fatalf("expected 2 links, got %d", len(links))
		}
		if links[0].Platform != types.PlatformConfluence {
			t.Errorf("expected confluence, got %s", links[0].Platform)
		}
		if links[1].Platform != types.PlatformGitHub {
			t.Errorf("expected github, got %s", links[1].Platform)
		}
		if links[0].Offset >= links[1].Offset {
			t.Error("expected links ordered by byte offset")
		}
	})

	t.Run("unknown URL shape falls back to web", func(t *testing.T) {
		item := newItem("context at https://blog.example.org/post/1")
		links, _, err := ext.Extract(ctx, item, nil)
		if err != nil {
			t.Fatalf("failed to extract: %v", err)
		}
		if len(links) != 1 {
			t.Fatalf("expected 1 link, got %d", len(links))
		}
		if links[0].Platform != types.PlatformWeb {
			t.Errorf("expected web fallback, got %s", links[0].Platform)
		}
	})

	t.Run("markdown and bare URLs are both explicit", func(t *testing.T) {
		item := newItem("read [the doc](https://notion.so/team/doc-9) and https://notion.so/team/doc-10")
		links, _, err := ext.Extract(ctx, item, nil)
		if err != nil {
			t.Fatalf("failed to extract: %v", err)
		}
		if len(links) != 2 {
			t.Fatalf("expected 2 links, got %d", len(links))
		}
		for i, link := range links {
			if !link.Explicit {
				t.Errorf("expected link %d to be explicit", i)
			}
		}
	})

	t.Run("schemeless references resolve at lower confidence", func(t *testing.T) {
		known := model.NewContentID()
		lookup := func(ctx context.Context, url string) (model.ContentID, bool) {
			if url == "https://docs.example.com/doc42" {
				return known, true
			}
			return "", false
		}
		item := newItem("covered in docs.example.com/doc42 and somewhere.example.org/unknown")
		links, _, err := ext.Extract(ctx, item, lookup)
		if err != nil {
			t.Fatalf("failed to extract: %v", err)
		}
		if len(links) != 1 {
			t.Fatalf("expected only the resolvable reference, got %d", len(links))
		}
		if links[0].Explicit {
			t.Error("expected schemeless reference to be non-explicit")
		}
		if links[0].TargetID != known {
			t.Errorf("expected resolved target, got %q", links[0].TargetID)
		}
		if links[0].URL != "https://docs.example.com/doc42" {
			t.Errorf("expected canonicalized URL, got %s", links[0].URL)
		}
	})

	t.Run("a full URL never doubles as a schemeless reference", func(t *testing.T) {
		known := model.NewContentID()
		lookup := func(ctx context.Context, url string) (model.ContentID, bool) {
			if url == "https://docs.example.com/doc42" {
				return known, true
			}
			return "", false
		}
		item := newItem("see https://docs.example.com/doc42 for details")
		links, _, err := ext.Extract(ctx, item, lookup)
		if err != nil {
			t.Fatalf("failed to extract: %v", err)
		}
		if len(links) != 1 {
			t.Fatalf("expected a single link, got %d", len(links))
		}
		if !links[0].Explicit {
			t.Error("expected pasted URL to stay explicit")
		}
	})

	t.Run("trailing punctuation is stripped", func(t *testing.T) {
		item := newItem("is it https://github.com/acme/api/issues/3?")
		links, _, err := ext.Extract(ctx, item, nil)
		if err != nil {
			t.Fatalf("failed to extract: %v", err)
		}
		if len(links) != 1 {
			t.Fatalf("expected 1 link, got %d", len(links))
		}
		if links[0].URL != "https://github.com/acme/api/issues/3" {
			t.Errorf("expected punctuation stripped, got %s", links[0].URL)
		}
	})

	t.Run("item's own URL is skipped", func(t *testing.T) {
		item := newItem("self reference https://jira.example.com/browse/AUTH-1 here")
		links, _, err := ext.Extract(ctx, item, nil)
		if err != nil {
			t.Fatalf("failed to extract: %v", err)
		}
		if len(links) != 0 {
			t.Errorf("expected no links, got %d", len(links))
		}
	})

	t.Run("lookup resolves target IDs", func(t *testing.T) {
		known := model.NewContentID()
		lookup := func(ctx context.Context, url string) (model.ContentID, bool) {
			if url == "https://docs.example.com/doc42" {
				return known, true
			}
			return "", false
		}
		item := newItem("see https://docs.example.com/doc42 and https://docs.example.com/doc43")
		links, _, err := ext.Extract(ctx, item, lookup)
		if err != nil {
			t.Fatalf("failed to extract: %v", err)
		}
		if len(links) != 2 {
			t.Fatalf("expected 2 links, got %d", len(links))
		}
		if links[0].TargetID != known {
			t.Errorf("expected resolved target, got %q", links[0].TargetID)
		}
		if links[1].TargetID != "" {
			t.Errorf("expected unresolved target, got %q", links[1].TargetID)
		}
	})

	t.Run("custom platform rules take precedence", func(t *testing.T) {
		cfg := config.Default()
		cfg.Platforms = []config.PlatformRule{
			{ID: "notion", Name: "Internal wiki", Patterns: []string{`wiki\.internal\.example\.com/`}},
		}
		custom := extract.New(cfg)

		item := newItem("docs at https://wiki.internal.example.com/runbooks/oncall")
		links, _, err := custom.Extract(ctx, item, nil)
		if err != nil {
			t.Fatalf("failed to extract: %v", err)
		}
		if len(links) != 1 {
			t.Fatalf("expected 1 link, got %d", len(links))
		}
		if links[0].Platform != types.PlatformNotion {
			t.Errorf("expected configured platform, got %s", links[0].Platform)
		}
	})
}

func TestExtractMentions(t *testing.T) {
	ctx := context.Background()
	ext := extract.New(nil)

	t.Run("finds handles with the item's platform", func(t *testing.T) {
		item := newItem("thanks @alice and @bob.smith for the review")
		_, mentions, err := ext.Extract(ctx, item, nil)
		if err != nil {
			t.Fatalf("failed to extract: %v", err)
		}
		if len(mentions) != 2 {
			t.Fatalf("expected 2 mentions, got %d", len(mentions))
		}
		if mentions[0].LocalID != "alice" || mentions[1].LocalID != "bob.smith" {
			t.Errorf("unexpected local IDs: %s, %s", mentions[0].LocalID, mentions[1].LocalID)
		}
		for _, m := range mentions {
			if m.Platform != types.PlatformJira {
				t.Errorf("expected jira platform, got %s", m.Platform)
			}
		}
	})

	t.Run("email domains do not read as handles", func(t *testing.T) {
		item := newItem("contact sarah.smith@example.com about this")
		_, mentions, err := ext.Extract(ctx, item, nil)
		if err != nil {
			t.Fatalf("failed to extract: %v", err)
		}
		if len(mentions) != 1 {
			t.Fatalf("expected 1 mention, got %d", len(mentions))
		}
		if mentions[0].LocalID != "sarah.smith@example.com" {
			t.Errorf("expected full email as local ID, got %s", mentions[0].LocalID)
		}
		if mentions[0].Display != "sarah.smith" {
			t.Errorf("expected display from local part, got %s", mentions[0].Display)
		}
	})

	t.Run("mentions are deduplicated", func(t *testing.T) {
		item := newItem("@alice asked @Alice twice")
		_, mentions, err := ext.Extract(ctx, item, nil)
		if err != nil {
			t.Fatalf("failed to extract: %v", err)
		}
		if len(mentions) != 1 {
			t.Errorf("expected 1 mention after case-folded dedup, got %d", len(mentions))
		}
	})
}

func TestExtractDeterminism(t *testing.T) {
	ctx := context.Background()
	ext := extract.New(config.Default())
	body := "ticket about https://github.com/acme/api/issues/9, ping @alice or alice@example.com, doc at [design](https://notion.so/d/1)"

	first, firstMentions, err := ext.Extract(ctx, newItem(body), nil)
	if err != nil {
		t.Fatalf("failed to extract: %v", err)
	}
	for i := 0; i < 5; i++ {
		links, mentions, err := ext.Extract(ctx, newItem(body), nil)
		if err != nil {
			t.Fatalf("failed to extract: %v", err)
		}
		if !reflect.DeepEqual(links, first) {
			t.Fatalf("expected identical links on run %d", i)
		}
		if !reflect.DeepEqual(mentions, firstMentions) {
			t.Fatalf("expected identical mentions on run %d", i)
		}
	}
}
