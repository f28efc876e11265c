package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/model/config"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/Rubix982/triage/pkg/repository/firestore"
	"github.com/Rubix982/triage/pkg/repository/memory"
	"github.com/agnivade/levenshtein"
	"github.com/m-mizutani/goerr/v2"
)

// ErrMergeIntegrity is returned when a person merge cannot complete atomically
var ErrMergeIntegrity = goerr.New("person merge failed")

// Resolver maps platform-local identities onto canonical persons. It is the
// only writer of the person and identity tables.
type Resolver struct {
	repo      interfaces.Repository
	threshold float64
}

// New creates a resolver. The acceptance threshold for probabilistic matches
// comes from the pipeline config; cfg may be nil.
func New(repo interfaces.Repository, cfg *config.PipelineConfig) *Resolver {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Resolver{
		repo:      repo,
		threshold: cfg.Identity.AcceptanceThreshold,
	}
}

// Resolve returns the canonical person behind a platform-local identity,
// creating the binding if needed. Resolution is deterministic first: a known
// (platform, localID) pair always wins. Otherwise display-name similarity
// against identities on other platforms decides, and below the acceptance
// threshold a fresh person is created.
func (r *Resolver) Resolve(ctx context.Context, platform types.Platform, localID, displayHint string) (*model.Person, error) {
	if localID == "" {
		return nil, goerr.Wrap(model.ErrValidation, "local ID is required")
	}

	existing, err := r.repo.Person().GetIdentity(ctx, platform, localID)
	if err == nil {
		personID, err := r.repo.Person().ResolveAlias(ctx, existing.PersonID)
		if err != nil {
			return nil, err
		}
		if err := r.repo.Person().TouchIdentity(ctx, existing.ID); err != nil {
			return nil, err
		}
		return r.repo.Person().Get(ctx, personID)
	}
	// only a missing binding may fall through to matching; a storage failure
	// must never mint a duplicate person
	if !isNotFound(err) {
		return nil, goerr.Wrap(err, "identity lookup failed",
			goerr.V("platform", platform), goerr.V("local_id", localID))
	}

	person, confidence, err := r.bestMatch(ctx, platform, localID, displayHint)
	if err != nil {
		return nil, err
	}
	if person != nil {
		if _, err := r.repo.Person().CreateIdentity(ctx, &model.PlatformIdentity{
			PersonID:   person.ID,
			Platform:   platform,
			LocalID:    localID,
			Confidence: confidence,
		}); err != nil {
			return nil, err
		}
		return person, nil
	}

	displayName := displayHint
	if displayName == "" {
		displayName = normalizeName(localID)
	}
	person, err = r.repo.Person().Create(ctx, &model.Person{DisplayName: displayName})
	if err != nil {
		return nil, err
	}
	if _, err := r.repo.Person().CreateIdentity(ctx, &model.PlatformIdentity{
		PersonID:   person.ID,
		Platform:   platform,
		LocalID:    localID,
		Confidence: 1.0,
	}); err != nil {
		return nil, err
	}
	return person, nil
}

// bestMatch scans identities on other platforms for the closest name,
// comparing against both the platform-local ID and the bound person's display
// name. It returns nil when nothing reaches the acceptance threshold; storage
// failures propagate.
func (r *Resolver) bestMatch(ctx context.Context, platform types.Platform, localID, displayHint string) (*model.Person, float64, error) {
	identities, err := r.repo.Person().ListAllIdentities(ctx)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to list identities for matching")
	}
	persons, err := r.repo.Person().List(ctx)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to list persons for matching")
	}
	displayNames := make(map[model.PersonID]string, len(persons))
	for _, p := range persons {
		displayNames[p.ID] = p.DisplayName
	}

	candidates := candidateNames(localID, displayHint)
	if len(candidates) == 0 {
		return nil, 0, nil
	}

	var bestPerson model.PersonID
	var bestScore float64
	for _, identity := range identities {
		if identity.Platform == platform {
			continue
		}
		for _, name := range candidateNames(identity.LocalID, displayNames[identity.PersonID]) {
			for _, candidate := range candidates {
				if score := similarity(candidate, name); score > bestScore {
					bestScore = score
					bestPerson = identity.PersonID
				}
			}
		}
	}

	if bestScore < r.threshold {
		return nil, 0, nil
	}

	personID, err := r.repo.Person().ResolveAlias(ctx, bestPerson)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to resolve matched person", goerr.V("person_id", bestPerson))
	}
	person, err := r.repo.Person().Get(ctx, personID)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to load matched person", goerr.V("person_id", personID))
	}
	return person, bestScore, nil
}

// isNotFound reports whether err is a missing-row answer from either backend
func isNotFound(err error) bool {
	return errors.Is(err, memory.ErrNotFound) || errors.Is(err, firestore.ErrNotFound)
}

// Merge folds loser into survivor and returns the surviving person. All
// failure modes surface as merge integrity errors; the store guarantees the
// pre-merge state is untouched on failure.
func (r *Resolver) Merge(ctx context.Context, survivorID, loserID model.PersonID) (*model.Person, error) {
	if err := r.repo.MergePersons(ctx, survivorID, loserID); err != nil {
		return nil, goerr.Wrap(ErrMergeIntegrity, "merge aborted",
			goerr.V("survivor_id", survivorID),
			goerr.V("loser_id", loserID),
			goerr.V("cause", err.Error()))
	}

	personID, err := r.repo.Person().ResolveAlias(ctx, survivorID)
	if err != nil {
		return nil, err
	}
	return r.repo.Person().Get(ctx, personID)
}

// candidateNames derives comparable name forms from a local ID and an optional
// display hint. Email local parts count; the domain never does.
func candidateNames(localID, displayHint string) []string {
	var names []string
	if localID != "" {
		id := localID
		if at := strings.Index(id, "@"); at > 0 {
			id = id[:at]
		}
		names = append(names, normalizeName(id))
	}
	if displayHint != "" {
		names = append(names, normalizeName(displayHint))
	}
	return names
}

// normalizeName lowercases and folds separators to single spaces so that
// "Sarah Smith", "sarah.smith" and "sarah_smith" compare equal
func normalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '.', '_', '-':
			return ' '
		}
		return r
	}, name)
	return strings.Join(strings.Fields(name), " ")
}

// similarity is a normalized Levenshtein ratio in [0, 1]
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	return 1.0 - float64(distance)/float64(longest)
}
