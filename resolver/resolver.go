// Package resolver turns free text into item references.
//
// A lookup consults the persistent resolution cache keyed by
// (language, group, text). On a miss the resolver may query an external
// corpus; only a lookup with exactly one candidate is ever cached. Ambiguous
// and absent results leave the value as free text, and an in-process memo
// remembers them for a while so the corpus is not asked again.
package resolver

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/internal/metrics"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/storage"
)

// Cache is the persistent resolution cache and the free-text rows it promotes.
// storage.SQLStore implements it.
type Cache interface {
	LookupItems(ctx context.Context, language, group, text string) ([]int64, error)
	RecordItem(ctx context.Context, language, group, text string, itemID int64) error
	CurrentFreetext(ctx context.Context, scraperID int) ([]storage.FreetextRow, error)
	FrequentFreetext(ctx context.Context, scraperID, minCount int) ([]storage.FreetextCount, error)
	PromoteFreetext(ctx context.Context, row storage.FreetextRow, itemID int64) (bool, error)
}

// Config configures a Resolver.
type Config struct {
	Language string
	// Timeout bounds a single corpus call; zero means no extra bound.
	Timeout time.Duration
	// MemoTTL is how long corpus misses stay in the in-process memo; zero disables it.
	MemoTTL time.Duration
}

// Resolver resolves free text against the cache and, on a miss, the corpus.
type Resolver struct {
	cache    Cache
	corpus   Corpus
	groups   *GroupTable
	language string
	timeout  time.Duration
	memo     *gocache.Cache
	logger   *zap.SugaredLogger
}

// New creates a resolver. corpus may be nil, in which case Learn is unsupported;
// groups nil means DefaultGroups.
func New(cache Cache, corpus Corpus, groups *GroupTable, cfg Config, log *zap.SugaredLogger) *Resolver {
	if groups == nil {
		groups = DefaultGroups()
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	r := &Resolver{
		cache:    cache,
		corpus:   corpus,
		groups:   groups,
		language: cfg.Language,
		timeout:  cfg.Timeout,
		logger:   logger.OrNop(log).Named("resolver"),
	}
	if cfg.MemoTTL > 0 {
		r.memo = gocache.New(cfg.MemoTTL, 2*cfg.MemoTTL)
	}
	return r
}

// Groups returns the group table in use.
func (r *Resolver) Groups() *GroupTable {
	return r.groups
}

// NormalizeText is the key form of text: trimmed and in Unicode NFC.
func NormalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

func (r *Resolver) memoKey(group, text string) string {
	return r.language + "\x00" + group + "\x00" + text
}

// Resolve returns the cached item for text under property's group.
// ok is false when the property has no group, nothing is cached, or the
// cache holds more than one item for the key.
func (r *Resolver) Resolve(ctx context.Context, property int, text string) (*entry.ItemValue, bool, error) {
	id, err := r.resolve(ctx, property, text)
	if errors.Is(err, errors.ErrAmbiguousResolution) {
		return nil, false, nil
	}
	if err != nil || id == 0 {
		return nil, false, err
	}
	return entry.NewItemValue(id), true, nil
}

func (r *Resolver) resolve(ctx context.Context, property int, text string) (int64, error) {
	group, ok := r.groups.Group(property)
	key := NormalizeText(text)
	if !ok || key == "" {
		return 0, nil
	}

	return r.cached(ctx, group, key)
}

// recentlyMissed reports whether the corpus found nothing usable for the key
// within the memo TTL.
func (r *Resolver) recentlyMissed(group, key string) bool {
	if r.memo == nil {
		return false
	}
	_, found := r.memo.Get(r.memoKey(group, key))
	if found {
		metrics.ResolverLookups.WithLabelValues("memo", "hit").Inc()
	}
	return found
}

// cached reads the persistent cache. It returns 0 on a miss and
// ErrAmbiguousResolution when the cache disagrees with itself.
func (r *Resolver) cached(ctx context.Context, group, key string) (int64, error) {
	items, err := r.cache.LookupItems(ctx, r.language, group, key)
	if err != nil {
		metrics.ResolverLookups.WithLabelValues("cache", "error").Inc()
		return 0, err
	}
	switch len(items) {
	case 0:
		metrics.ResolverLookups.WithLabelValues("cache", "miss").Inc()
		return 0, nil
	case 1:
		metrics.ResolverLookups.WithLabelValues("cache", "hit").Inc()
		return items[0], nil
	default:
		metrics.ResolverLookups.WithLabelValues("cache", "ambiguous").Inc()
		r.logger.Warnw("Resolution cache holds several items",
			logger.FieldGroup, group,
			logger.FieldText, key,
			logger.FieldCandidates, items)
		return 0, errors.Wrapf(errors.ErrAmbiguousResolution, "%d cached items for %q", len(items), key)
	}
}

// Learn asks the corpus for items matching text among instances of hints
// (the group's hints when none are given). Exactly one candidate is cached
// and returned; none or several leave text unresolved. Corpus failures and
// timeouts are logged and count as unresolved.
func (r *Resolver) Learn(ctx context.Context, property int, text string, hints ...int64) (*entry.ItemValue, bool, error) {
	if r.corpus == nil {
		return nil, false, errors.Wrap(errors.ErrUnsupported, "resolver has no corpus")
	}
	group, ok := r.groups.Group(property)
	key := NormalizeText(text)
	if !ok || key == "" {
		return nil, false, nil
	}
	if len(hints) == 0 {
		hints = r.groups.Hints(group)
	}

	lookupCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	candidates, err := r.corpus.Candidates(lookupCtx, r.language, key, hints)
	if err != nil {
		metrics.ResolverLookups.WithLabelValues("corpus", "error").Inc()
		r.logger.Warnw("Corpus lookup failed",
			logger.FieldGroup, group,
			logger.FieldText, key,
			logger.FieldError, err)
		return nil, false, nil
	}
	if len(candidates) != 1 {
		result := "miss"
		if len(candidates) > 1 {
			result = "ambiguous"
		}
		metrics.ResolverLookups.WithLabelValues("corpus", result).Inc()
		if r.memo != nil {
			r.memo.SetDefault(r.memoKey(group, key), len(candidates))
		}
		r.logger.Debugw("Text left unresolved",
			logger.FieldGroup, group,
			logger.FieldText, key,
			logger.FieldCandidates, len(candidates))
		return nil, false, nil
	}
	metrics.ResolverLookups.WithLabelValues("corpus", "hit").Inc()

	id := candidates[0]
	if err := r.cache.RecordItem(ctx, r.language, group, key, id); err != nil {
		return nil, false, err
	}
	if r.memo != nil {
		r.memo.Delete(r.memoKey(group, key))
	}
	r.logger.Infow("Learned item",
		logger.FieldGroup, group,
		logger.FieldText, key,
		logger.FieldItem, id)
	return entry.NewItemValue(id), true, nil
}

// ResolveOrLearn resolves from the cache and falls back to the corpus when one
// is configured. A key the cache already disagrees about is not learned again,
// nor is one the corpus recently had no single answer for.
func (r *Resolver) ResolveOrLearn(ctx context.Context, property int, text string) (*entry.ItemValue, bool, error) {
	id, err := r.resolve(ctx, property, text)
	switch {
	case errors.Is(err, errors.ErrAmbiguousResolution):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	case id != 0:
		return entry.NewItemValue(id), true, nil
	case r.corpus == nil:
		return nil, false, nil
	}
	group, _ := r.groups.Group(property)
	if r.recentlyMissed(group, NormalizeText(text)) {
		return nil, false, nil
	}
	return r.Learn(ctx, property, text)
}
