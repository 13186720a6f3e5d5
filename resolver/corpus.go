package resolver

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/internal/httpclient"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/wikidata"
)

// Corpus is the external knowledge base consulted when the cache misses.
type Corpus interface {
	// Candidates returns the ids of items that are an instance of any of hints
	// and carry text as an exact label or alias in language.
	Candidates(ctx context.Context, language, text string, hints []int64) ([]int64, error)
}

// CorpusConfig configures a WikidataCorpus.
type CorpusConfig struct {
	Endpoint          string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	// AllowPrivate lets the client reach loopback endpoints; tests only.
	AllowPrivate bool
}

// WikidataCorpus queries a Wikidata SPARQL endpoint.
type WikidataCorpus struct {
	endpoint string
	client   *httpclient.Client
	limiter  *rate.Limiter
	logger   *zap.SugaredLogger
}

// candidateLimit is enough to tell "exactly one" from "more than one".
const candidateLimit = 3

var languageTag = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]+)*$`)

// NewWikidataCorpus creates a corpus client. A non-positive rate disables throttling.
func NewWikidataCorpus(cfg CorpusConfig, log *zap.SugaredLogger) *WikidataCorpus {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &WikidataCorpus{
		endpoint: cfg.Endpoint,
		client: httpclient.New(httpclient.Options{
			Timeout:      cfg.Timeout,
			UserAgent:    cfg.UserAgent,
			AllowPrivate: cfg.AllowPrivate,
		}),
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.OrNop(log).Named("corpus"),
	}
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// Candidates implements Corpus.
func (c *WikidataCorpus) Candidates(ctx context.Context, language, text string, hints []int64) ([]int64, error) {
	query, err := CandidateQuery(language, text, hints)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limit wait")
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid endpoint %q", c.endpoint)
	}
	params := u.Query()
	params.Set("format", "json")
	params.Set("query", query)
	u.RawQuery = params.Encode()

	start := time.Now()
	var resp sparqlResponse
	if err := c.client.GetJSON(ctx, u.String(), &resp); err != nil {
		return nil, errors.Wrap(err, "sparql query failed")
	}

	seen := make(map[int64]bool)
	var ids []int64
	for _, binding := range resp.Results.Bindings {
		v, ok := binding["item"]
		if !ok || v.Type != "uri" {
			continue
		}
		id, ok := itemIDFromURI(v.Value)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	c.logger.Debugw("Corpus lookup",
		logger.FieldText, text,
		logger.FieldLanguage, language,
		logger.FieldCandidates, len(ids),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return ids, nil
}

// CandidateQuery builds the SPARQL query for Candidates.
func CandidateQuery(language, text string, hints []int64) (string, error) {
	if !languageTag.MatchString(language) {
		return "", errors.NewInvalidRequestError("invalid language tag %q", language)
	}
	if len(hints) == 0 {
		return "", errors.NewInvalidRequestError("no hint items")
	}
	values := make([]string, len(hints))
	for i, h := range hints {
		values[i] = "wd:Q" + strconv.FormatInt(h, 10)
	}
	literal := fmt.Sprintf(`"%s"@%s`, sparqlEscaper.Replace(text), language)

	return fmt.Sprintf(`SELECT DISTINCT ?item WHERE {
  VALUES ?hint { %s }
  ?item wdt:P31 ?hint .
  { ?item rdfs:label %s } UNION { ?item skos:altLabel %s }
} LIMIT %d`, strings.Join(values, " "), literal, literal, candidateLimit), nil
}

var sparqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func itemIDFromURI(uri string) (int64, bool) {
	rest := strings.TrimPrefix(uri, wikidata.EntityURIPrefix)
	if rest == uri || len(rest) < 2 || rest[0] != 'Q' {
		return 0, false
	}
	id, err := strconv.ParseInt(rest[1:], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
