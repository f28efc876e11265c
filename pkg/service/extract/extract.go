package extract

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/model/config"
	"github.com/Rubix982/triage/pkg/domain/types"
)

// CandidateLink is a URL found in a content body. TargetID is empty when the
// URL does not resolve against the current store snapshot; such links are kept
// as pending and retried on later ingestions.
type CandidateLink struct {
	URL      string
	Platform types.Platform
	TargetID model.ContentID
	Context  string
	Explicit bool // directly matched URL; false only for inferred schemeless references
	Offset   int
}

// CandidateMention is an @handle or email-shaped token found in a content body
type CandidateMention struct {
	LocalID  string
	Platform types.Platform
	Display  string
	Context  string
	Offset   int
}

// LookupFunc resolves a URL to a stored content ID. It must answer from a
// snapshot and never reach out to external systems, which keeps extraction
// deterministic for a given body.
type LookupFunc func(ctx context.Context, url string) (model.ContentID, bool)

var (
	urlRe = regexp.MustCompile(`https?://[^\s<>()\[\]"']+`)
	// schemeless host/path tokens are lower-confidence inferred references
	inferredRefRe = regexp.MustCompile(`\b(?:[A-Za-z0-9-]+\.)+[A-Za-z]{2,}/[^\s<>()\[\]"']+`)
	mentionRe     = regexp.MustCompile(`@([A-Za-z0-9][A-Za-z0-9._-]*)`)
	emailRe       = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
)

// contextWindow bounds the amount of surrounding text captured per match
const contextWindow = 60

type platformRule struct {
	platform types.Platform
	patterns []*regexp.Regexp
}

// Extractor finds link and mention candidates in content bodies
type Extractor struct {
	rules []platformRule
}

// New builds an extractor. Platform rules from cfg take precedence over the
// built-in URL shapes; cfg may be nil.
func New(cfg *config.PipelineConfig) *Extractor {
	e := &Extractor{}
	if cfg != nil {
		for _, rule := range cfg.Platforms {
			platform := types.Platform(rule.ID)
			if !platform.IsValid() {
				continue
			}
			var patterns []*regexp.Regexp
			for _, p := range rule.Patterns {
				re, err := regexp.Compile(p)
				if err != nil {
					continue
				}
				patterns = append(patterns, re)
			}
			if len(patterns) > 0 {
				e.rules = append(e.rules, platformRule{platform: platform, patterns: patterns})
			}
		}
	}
	e.rules = append(e.rules, defaultRules()...)
	return e
}

func defaultRules() []platformRule {
	compile := func(platform types.Platform, exprs ...string) platformRule {
		rule := platformRule{platform: platform}
		for _, expr := range exprs {
			rule.patterns = append(rule.patterns, regexp.MustCompile(expr))
		}
		return rule
	}
	return []platformRule{
		compile(types.PlatformJira, `atlassian\.net/browse/`, `jira\.[^/]+/browse/`),
		compile(types.PlatformConfluence, `atlassian\.net/wiki/`, `confluence\.[^/]+/`),
		compile(types.PlatformSlack, `slack\.com/archives/`, `\.slack\.com/`),
		compile(types.PlatformNotion, `notion\.so/`, `\.notion\.site/`),
		compile(types.PlatformGitHub, `github\.com/`),
	}
}

// inferPlatform matches the URL against the rule list in order. URLs that
// match nothing fall back to the generic web platform.
func (e *Extractor) inferPlatform(url string) types.Platform {
	for _, rule := range e.rules {
		for _, re := range rule.patterns {
			if re.MatchString(url) {
				return rule.platform
			}
		}
	}
	return types.PlatformWeb
}

// Extract finds all link and mention candidates in the item body. Output is
// ordered by byte offset of the match, so an identical body always yields the
// identical candidate list.
func (e *Extractor) Extract(ctx context.Context, item *model.ContentItem, lookup LookupFunc) ([]CandidateLink, []CandidateMention, error) {
	body := item.Body

	links := e.extractLinks(ctx, body, item.SourceURL, lookup)
	mentions := extractMentions(body, item.SourcePlatform)

	sort.Slice(links, func(i, j int) bool { return links[i].Offset < links[j].Offset })
	sort.Slice(mentions, func(i, j int) bool { return mentions[i].Offset < mentions[j].Offset })

	return links, mentions, nil
}

func (e *Extractor) extractLinks(ctx context.Context, body, selfURL string, lookup LookupFunc) []CandidateLink {
	seen := map[string]bool{}
	var links []CandidateLink

	// any directly matched URL, markdown-wrapped or pasted bare, is an
	// explicit link
	for _, m := range urlRe.FindAllStringIndex(body, -1) {
		url := strings.TrimRight(body[m[0]:m[1]], ".,;:!?")
		if url == selfURL || seen[url] {
			continue
		}
		seen[url] = true

		link := CandidateLink{
			URL:      url,
			Platform: e.inferPlatform(url),
			Context:  contextAround(body, m[0], m[0]+len(url)),
			Explicit: true,
			Offset:   m[0],
		}
		if lookup != nil {
			if targetID, ok := lookup(ctx, url); ok {
				link.TargetID = targetID
			}
		}
		links = append(links, link)
	}

	if lookup == nil {
		return links
	}

	// full URLs are masked out so their host/path parts never re-read as
	// schemeless references
	masked := urlRe.ReplaceAllStringFunc(body, func(s string) string {
		return strings.Repeat("\x00", len(s))
	})
	for _, m := range inferredRefRe.FindAllStringIndex(masked, -1) {
		ref := strings.TrimRight(body[m[0]:m[1]], ".,;:!?")
		url := "https://" + ref
		if url == selfURL || seen[url] {
			continue
		}
		// a schemeless token only counts as a reference when it resolves
		// against the store snapshot
		targetID, ok := lookup(ctx, url)
		if !ok {
			continue
		}
		seen[url] = true
		links = append(links, CandidateLink{
			URL:      url,
			Platform: e.inferPlatform(url),
			TargetID: targetID,
			Context:  contextAround(body, m[0], m[0]+len(ref)),
			Offset:   m[0],
		})
	}
	return links
}

func extractMentions(body string, platform types.Platform) []CandidateMention {
	// emails are masked first so their domain part never reads as an @handle
	masked := emailRe.ReplaceAllStringFunc(body, func(s string) string {
		return strings.Repeat("\x00", len(s))
	})

	seen := map[string]bool{}
	var mentions []CandidateMention

	for _, m := range emailRe.FindAllStringIndex(body, -1) {
		email := body[m[0]:m[1]]
		localID := strings.ToLower(email)
		if seen[localID] {
			continue
		}
		seen[localID] = true
		mentions = append(mentions, CandidateMention{
			LocalID:  localID,
			Platform: platform,
			Display:  email[:strings.Index(email, "@")],
			Context:  contextAround(body, m[0], m[1]),
			Offset:   m[0],
		})
	}

	for _, m := range mentionRe.FindAllStringSubmatchIndex(masked, -1) {
		handle := body[m[2]:m[3]]
		handle = strings.TrimRight(handle, "._-")
		if handle == "" {
			continue
		}
		localID := strings.ToLower(handle)
		if seen[localID] {
			continue
		}
		seen[localID] = true
		mentions = append(mentions, CandidateMention{
			LocalID:  localID,
			Platform: platform,
			Display:  handle,
			Context:  contextAround(body, m[0], m[0]+1+len(handle)),
			Offset:   m[0],
		})
	}
	return mentions
}

// contextAround returns a bounded text window surrounding [start, end)
func contextAround(body string, start, end int) string {
	from := start - contextWindow
	if from < 0 {
		from = 0
	}
	to := end + contextWindow
	if to > len(body) {
		to = len(body)
	}
	return strings.TrimSpace(body[from:to])
}
