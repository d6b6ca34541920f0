package search

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"freshkeeper/internal/models"
)

// Mode selects which resolution tiers run.
type Mode string

const (
	// ModeFast consults the local store and the generative fallback only,
	// never the network catalog.
	ModeFast Mode = "fast"
	// ModeExternal consults the external catalog only.
	ModeExternal Mode = "external"
	// ModeAll runs the full waterfall. Default.
	ModeAll Mode = "all"
)

// Decision tags a Resolution variant.
type Decision string

const (
	DecisionFound     Decision = "found"
	DecisionList      Decision = "list"
	DecisionClarify   Decision = "clarify"
	DecisionGenerated Decision = "generated"
	DecisionNone      Decision = "none"
)

// ResolutionSource names the tier that satisfied a query.
type ResolutionSource string

const (
	ResolutionLocal      ResolutionSource = "local"
	ResolutionExternal   ResolutionSource = "external"
	ResolutionGenerative ResolutionSource = "generative"
	ResolutionNone       ResolutionSource = "none"
)

// Resolution is the engine's answer for a query. Exactly one of Product or
// Products is populated for found/generated and list decisions; Clarify
// carries disambiguation questions for clarify decisions.
type Resolution struct {
	Decision Decision         `json:"decision"`
	Source   ResolutionSource `json:"source"`
	Product  *models.Product  `json:"product,omitempty"`
	Products []models.Product `json:"products,omitempty"`
	Clarify  []string         `json:"clarify,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// ProductStore is the slice of the product repository the engine reads.
type ProductStore interface {
	FindByNameExact(ctx context.Context, name string) (*models.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	SearchFuzzy(ctx context.Context, query string, prefixOnly, includeCategory bool, limit int) ([]models.Product, error)
}

// Catalog looks products up in the external food database.
type Catalog interface {
	LookupBarcode(ctx context.Context, barcode string) (*models.Product, error)
	SearchByText(ctx context.Context, query, language string, maxResults int) ([]models.Product, error)
}

// Synthesizer fabricates a best-effort generic product record.
type Synthesizer interface {
	GenerateGenericProduct(ctx context.Context, query, language string) (*models.Product, error)
}

// ResolutionCache stores generative resolutions keyed by query and
// language. A (nil, nil) return means cache miss.
type ResolutionCache interface {
	GetResolution(ctx context.Context, key string) (*Resolution, error)
	SetResolution(ctx context.Context, key string, res *Resolution, ttl time.Duration) error
}

const (
	maxListResults = 10
	generativeTTL  = 10 * time.Minute
)

var clarifyQuestions = []string{
	"Is this a branded supermarket product or a fresh/unbranded item?",
	"What is the brand, if any?",
}

type Engine struct {
	store       ProductStore
	catalog     Catalog
	synthesizer Synthesizer
	cache       ResolutionCache
	classifier  *Classifier
}

// NewEngine wires the waterfall tiers. A nil classifier falls back to the
// built-in keyword lists.
func NewEngine(store ProductStore, catalog Catalog, synthesizer Synthesizer, cache ResolutionCache, classifier *Classifier) *Engine {
	if classifier == nil {
		classifier = NewClassifier(nil, nil)
	}
	return &Engine{store: store, catalog: catalog, synthesizer: synthesizer, cache: cache, classifier: classifier}
}

// Resolve runs the waterfall for a free-text query. Tiers execute strictly
// in order; the first satisfying tier wins. Store errors propagate, catalog
// and synthesizer failures degrade to the next tier.
func (e *Engine) Resolve(ctx context.Context, query, language string, mode Mode) (*Resolution, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return &Resolution{Decision: DecisionNone, Source: ResolutionNone, Message: "empty query"}, nil
	}
	if mode == "" {
		mode = ModeAll
	}

	if mode != ModeExternal {
		res, err := e.resolveLocal(ctx, trimmed, mode)
		if err != nil {
			return nil, err
		}
		if res != nil {
			log.Printf("search: %q resolved locally (%s)", trimmed, res.Decision)
			return res, nil
		}
	}

	generic := e.classifier.LooksGenericOrFresh(trimmed)
	if mode != ModeFast && !generic {
		if res := e.resolveExternal(ctx, trimmed, language); res != nil {
			log.Printf("search: %q resolved externally (%s)", trimmed, res.Decision)
			return res, nil
		}
	}
	if mode == ModeExternal {
		return &Resolution{Decision: DecisionNone, Source: ResolutionNone, Message: "no external results"}, nil
	}

	if len([]rune(Normalize(trimmed))) >= 2 {
		// A brand-looking query that every catalog missed is better answered
		// by asking the user than by inventing a generic stand-in.
		if e.classifier.HasBrandIndicators(trimmed) {
			return &Resolution{Decision: DecisionClarify, Source: ResolutionNone, Clarify: clarifyQuestions}, nil
		}
		if res := e.resolveGenerative(ctx, trimmed, language); res != nil {
			log.Printf("search: %q resolved generatively", trimmed)
			return res, nil
		}
		return &Resolution{Decision: DecisionClarify, Source: ResolutionNone, Clarify: clarifyQuestions}, nil
	}
	return &Resolution{Decision: DecisionNone, Source: ResolutionNone, Message: "query too short"}, nil
}

// ResolveBarcode checks the local store before asking the external catalog.
// A nil resolution product with DecisionNone means the barcode is unknown
// everywhere.
func (e *Engine) ResolveBarcode(ctx context.Context, barcode string) (*Resolution, error) {
	product, err := e.store.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if product != nil {
		return &Resolution{Decision: DecisionFound, Source: ResolutionLocal, Product: product}, nil
	}
	external, err := e.catalog.LookupBarcode(ctx, barcode)
	if err != nil {
		log.Printf("search: barcode %s external lookup failed: %v", barcode, err)
		return &Resolution{Decision: DecisionNone, Source: ResolutionNone, Message: "barcode not found"}, nil
	}
	if external == nil {
		return &Resolution{Decision: DecisionNone, Source: ResolutionNone, Message: "barcode not found"}, nil
	}
	return &Resolution{Decision: DecisionFound, Source: ResolutionExternal, Product: external}, nil
}

func (e *Engine) resolveLocal(ctx context.Context, query string, mode Mode) (*Resolution, error) {
	exact, err := e.store.FindByNameExact(ctx, query)
	if err != nil {
		return nil, err
	}
	// A generative placeholder without image or description is skipped so
	// an earlier bad synthesis does not shadow better sources.
	if exact != nil && !exact.IsGenerativePlaceholder() {
		return &Resolution{Decision: DecisionFound, Source: ResolutionLocal, Product: exact}, nil
	}

	normalized := Normalize(query)
	prefixOnly := len([]rune(normalized)) < 3
	includeCategory := !e.classifier.LooksGenericOrFresh(query)
	candidates, err := e.store.SearchFuzzy(ctx, query, prefixOnly, includeCategory, maxListResults)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if candidates[i].IsGenerativePlaceholder() {
			continue
		}
		if Normalize(candidates[i].Name) == normalized {
			return &Resolution{Decision: DecisionFound, Source: ResolutionLocal, Product: &candidates[i]}, nil
		}
	}
	if mode == ModeFast && len(candidates) > 0 {
		return &Resolution{Decision: DecisionList, Source: ResolutionLocal, Products: candidates}, nil
	}
	return nil, nil
}

func (e *Engine) resolveExternal(ctx context.Context, query, language string) *Resolution {
	raw, err := e.catalog.SearchByText(ctx, query, language, maxListResults*2)
	if err != nil {
		log.Printf("search: external catalog failed for %q: %v", query, err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}

	tokens := Tokenize(query)
	relevant := make([]models.Product, 0, len(raw))
	for _, p := range raw {
		if matchesTokens(p, tokens) {
			relevant = append(relevant, p)
		}
	}
	pool := relevant
	if len(pool) == 0 {
		// Raw hits with no token overlap are still better than nothing,
		// returned as a lower-confidence list.
		pool = raw
	}
	sortBrandedFirst(pool)
	if len(pool) > maxListResults {
		pool = pool[:maxListResults]
	}
	if len(relevant) == 1 && relevant[0].Brand != nil {
		return &Resolution{Decision: DecisionFound, Source: ResolutionExternal, Product: &pool[0]}
	}
	return &Resolution{Decision: DecisionList, Source: ResolutionExternal, Products: pool}
}

func (e *Engine) resolveGenerative(ctx context.Context, query, language string) *Resolution {
	key := Normalize(query) + "|" + language + "|llm"
	if e.cache != nil {
		cached, err := e.cache.GetResolution(ctx, key)
		if err != nil {
			log.Printf("search: resolution cache read failed: %v", err)
		} else if cached != nil {
			return cached
		}
	}
	product, err := e.synthesizer.GenerateGenericProduct(ctx, query, language)
	if err != nil {
		log.Printf("search: generative synthesis failed for %q: %v", query, err)
		return nil
	}
	if product == nil {
		return nil
	}
	res := &Resolution{Decision: DecisionGenerated, Source: ResolutionGenerative, Product: product}
	if e.cache != nil {
		if err := e.cache.SetResolution(ctx, key, res, generativeTTL); err != nil {
			log.Printf("search: resolution cache write failed: %v", err)
		}
	}
	return res
}

// matchesTokens reports whether every query token appears in the
// candidate's normalized name or brand. Short tokens can over-match; the
// filter trades precision for recall on purpose.
func matchesTokens(p models.Product, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	haystack := Normalize(p.Name)
	if p.Brand != nil {
		haystack += " " + Normalize(*p.Brand)
	}
	for _, tok := range tokens {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}

func sortBrandedFirst(products []models.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Brand != nil && products[j].Brand == nil
	})
}
