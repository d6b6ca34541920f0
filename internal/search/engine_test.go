package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"freshkeeper/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockProductStore struct {
	mock.Mock
}

func (m *MockProductStore) FindByNameExact(ctx context.Context, name string) (*models.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductStore) FindByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductStore) SearchFuzzy(ctx context.Context, query string, prefixOnly, includeCategory bool, limit int) ([]models.Product, error) {
	args := m.Called(ctx, query, prefixOnly, includeCategory, limit)
	return args.Get(0).([]models.Product), args.Error(1)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) LookupBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCatalog) SearchByText(ctx context.Context, query, language string, maxResults int) ([]models.Product, error) {
	args := m.Called(ctx, query, language, maxResults)
	return args.Get(0).([]models.Product), args.Error(1)
}

type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) GenerateGenericProduct(ctx context.Context, query, language string) (*models.Product, error) {
	args := m.Called(ctx, query, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

// memoryCache is a test stand-in for the redis-backed resolution cache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*Resolution
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*Resolution)}
}

func (c *memoryCache) GetResolution(ctx context.Context, key string) (*Resolution, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *memoryCache) SetResolution(ctx context.Context, key string, res *Resolution, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = res
	return nil
}

type EngineTestSuite struct {
	suite.Suite
	store       *MockProductStore
	catalog     *MockCatalog
	synthesizer *MockSynthesizer
	cache       *memoryCache
	engine      *Engine
}

func (suite *EngineTestSuite) SetupTest() {
	suite.store = &MockProductStore{}
	suite.catalog = &MockCatalog{}
	suite.synthesizer = &MockSynthesizer{}
	suite.cache = newMemoryCache()
	suite.engine = NewEngine(suite.store, suite.catalog, suite.synthesizer, suite.cache, NewClassifier(nil, nil))
}

func (suite *EngineTestSuite) TearDownTest() {
	suite.store.AssertExpectations(suite.T())
	suite.catalog.AssertExpectations(suite.T())
	suite.synthesizer.AssertExpectations(suite.T())
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func strPtr(s string) *string { return &s }

func product(name string, brand *string, source models.ProductSource) *models.Product {
	return &models.Product{ID: uuid.New(), Name: name, Brand: brand, Source: source}
}

func (suite *EngineTestSuite) TestResolve_LocalExactMatch() {
	leche := product("Leche Entera", strPtr("Pascual"), models.SourceExternalCatalog)
	suite.store.On("FindByNameExact", mock.Anything, "leche entera").Return(leche, nil).Once()

	res, err := suite.engine.Resolve(context.Background(), "leche entera", "es", ModeAll)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DecisionFound, res.Decision)
	assert.Equal(suite.T(), ResolutionLocal, res.Source)
	assert.Equal(suite.T(), leche.ID, res.Product.ID)
}

func (suite *EngineTestSuite) TestResolve_GenerativePlaceholderFallsThrough() {
	placeholder := product("queso azul", nil, models.SourceGenerative)
	suite.store.On("FindByNameExact", mock.Anything, "queso azul").Return(placeholder, nil).Once()
	suite.store.On("SearchFuzzy", mock.Anything, "queso azul", false, true, maxListResults).
		Return([]models.Product{}, nil).Once()
	branded := product("Queso Azul Roquefort", strPtr("President"), models.SourceExternalCatalog)
	suite.catalog.On("SearchByText", mock.Anything, "queso azul", "es", maxListResults*2).
		Return([]models.Product{*branded}, nil).Once()

	res, err := suite.engine.Resolve(context.Background(), "queso azul", "es", ModeAll)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), ResolutionExternal, res.Source)
	assert.Equal(suite.T(), DecisionFound, res.Decision)
}

func (suite *EngineTestSuite) TestResolve_FuzzyExactPromotion() {
	suite.store.On("FindByNameExact", mock.Anything, "Plátano").Return(nil, nil).Once()
	platano := product("platano", nil, models.SourceManualEntry)
	suite.store.On("SearchFuzzy", mock.Anything, "Plátano", false, false, maxListResults).
		Return([]models.Product{*platano}, nil).Once()

	res, err := suite.engine.Resolve(context.Background(), "Plátano", "es", ModeAll)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DecisionFound, res.Decision)
	assert.Equal(suite.T(), ResolutionLocal, res.Source)
	assert.Equal(suite.T(), platano.ID, res.Product.ID)
}

func (suite *EngineTestSuite) TestResolve_GenericSkipsExternal() {
	suite.store.On("FindByNameExact", mock.Anything, "lechuga").Return(nil, nil).Once()
	suite.store.On("SearchFuzzy", mock.Anything, "lechuga", false, false, maxListResults).
		Return([]models.Product{}, nil).Once()
	generated := product("Lechuga", nil, models.SourceGenerative)
	suite.synthesizer.On("GenerateGenericProduct", mock.Anything, "lechuga", "es").Return(generated, nil).Once()

	res, err := suite.engine.Resolve(context.Background(), "lechuga", "es", ModeAll)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DecisionGenerated, res.Decision)
	assert.Equal(suite.T(), ResolutionGenerative, res.Source)
	assert.Nil(suite.T(), res.Product.Brand)
	assert.False(suite.T(), res.Product.IsVerified)
	suite.catalog.AssertNumberOfCalls(suite.T(), "SearchByText", 0)
}

func (suite *EngineTestSuite) TestResolve_ShortQueryNeverGenerates() {
	suite.store.On("FindByNameExact", mock.Anything, "x").Return(nil, nil).Once()
	suite.store.On("SearchFuzzy", mock.Anything, "x", true, true, maxListResults).
		Return([]models.Product{}, nil).Once()
	suite.catalog.On("SearchByText", mock.Anything, "x", "es", maxListResults*2).
		Return([]models.Product{}, nil).Once()

	res, err := suite.engine.Resolve(context.Background(), "x", "es", ModeAll)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DecisionNone, res.Decision)
	suite.synthesizer.AssertNumberOfCalls(suite.T(), "GenerateGenericProduct", 0)
}

func (suite *EngineTestSuite) TestResolve_GenerativeResultCached() {
	suite.store.On("FindByNameExact", mock.Anything, "lechuga").Return(nil, nil).Twice()
	suite.store.On("SearchFuzzy", mock.Anything, "lechuga", false, false, maxListResults).
		Return([]models.Product{}, nil).Twice()
	generated := product("Lechuga", nil, models.SourceGenerative)
	suite.synthesizer.On("GenerateGenericProduct", mock.Anything, "lechuga", "es").Return(generated, nil).Once()

	first, err := suite.engine.Resolve(context.Background(), "lechuga", "es", ModeAll)
	assert.NoError(suite.T(), err)
	second, err := suite.engine.Resolve(context.Background(), "lechuga", "es", ModeAll)
	assert.NoError(suite.T(), err)

	assert.Equal(suite.T(), first.Product.ID, second.Product.ID)
	suite.synthesizer.AssertNumberOfCalls(suite.T(), "GenerateGenericProduct", 1)
}

func (suite *EngineTestSuite) TestResolve_BrandedQueryUsesExternal() {
	suite.store.On("FindByNameExact", mock.Anything, "Coca Cola 500ml").Return(nil, nil).Once()
	suite.store.On("SearchFuzzy", mock.Anything, "Coca Cola 500ml", false, true, maxListResults).
		Return([]models.Product{}, nil).Once()
	cola := product("Coca-Cola 500ml", strPtr("Coca-Cola"), models.SourceExternalCatalog)
	suite.catalog.On("SearchByText", mock.Anything, "Coca Cola 500ml", "es", maxListResults*2).
		Return([]models.Product{*cola}, nil).Once()

	res, err := suite.engine.Resolve(context.Background(), "Coca Cola 500ml", "es", ModeAll)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DecisionFound, res.Decision)
	assert.Equal(suite.T(), ResolutionExternal, res.Source)
}

func (suite *EngineTestSuite) TestResolve_IrrelevantExternalKeptAsRawList() {
	suite.store.On("FindByNameExact", mock.Anything, "sandía fresca").Return(nil, nil).Once()
	suite.store.On("SearchFuzzy", mock.Anything, "sandía fresca", false, true, maxListResults).
		Return([]models.Product{}, nil).Once()
	gum := product("Chicle Menta", strPtr("Trident"), models.SourceExternalCatalog)
	suite.catalog.On("SearchByText", mock.Anything, "sandía fresca", "es", maxListResults*2).
		Return([]models.Product{*gum}, nil).Once()

	res, err := suite.engine.Resolve(context.Background(), "sandía fresca", "es", ModeAll)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DecisionList, res.Decision)
	assert.Len(suite.T(), res.Products, 1)
}

func (suite *EngineTestSuite) TestResolve_ExternalFailureFallsToGenerative() {
	suite.store.On("FindByNameExact", mock.Anything, "galletas caseras").Return(nil, nil).Once()
	suite.store.On("SearchFuzzy", mock.Anything, "galletas caseras", false, true, maxListResults).
		Return([]models.Product{}, nil).Once()
	suite.catalog.On("SearchByText", mock.Anything, "galletas caseras", "es", maxListResults*2).
		Return([]models.Product{}, errors.New("upstream timeout")).Once()
	generated := product("Galletas", nil, models.SourceGenerative)
	suite.synthesizer.On("GenerateGenericProduct", mock.Anything, "galletas caseras", "es").Return(generated, nil).Once()

	res, err := suite.engine.Resolve(context.Background(), "galletas caseras", "es", ModeAll)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DecisionGenerated, res.Decision)
}

func (suite *EngineTestSuite) TestResolve_SynthesizerFailureYieldsClarify() {
	suite.store.On("FindByNameExact", mock.Anything, "cosa rara").Return(nil, nil).Once()
	suite.store.On("SearchFuzzy", mock.Anything, "cosa rara", false, true, maxListResults).
		Return([]models.Product{}, nil).Once()
	suite.catalog.On("SearchByText", mock.Anything, "cosa rara", "es", maxListResults*2).
		Return([]models.Product{}, nil).Once()
	suite.synthesizer.On("GenerateGenericProduct", mock.Anything, "cosa rara", "es").
		Return(nil, errors.New("model unavailable")).Once()

	res, err := suite.engine.Resolve(context.Background(), "cosa rara", "es", ModeAll)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DecisionClarify, res.Decision)
	assert.NotEmpty(suite.T(), res.Clarify)
}

func (suite *EngineTestSuite) TestResolve_BrandedDeadEndAsksInsteadOfGenerating() {
	suite.store.On("FindByNameExact", mock.Anything, "fanta de mandarina").Return(nil, nil).Once()
	suite.store.On("SearchFuzzy", mock.Anything, "fanta de mandarina", false, true, maxListResults).
		Return([]models.Product{}, nil).Once()
	suite.catalog.On("SearchByText", mock.Anything, "fanta de mandarina", "es", maxListResults*2).
		Return([]models.Product{}, nil).Once()

	res, err := suite.engine.Resolve(context.Background(), "fanta de mandarina", "es", ModeAll)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DecisionClarify, res.Decision)
	assert.NotEmpty(suite.T(), res.Clarify)
	suite.synthesizer.AssertNotCalled(suite.T(), "GenerateGenericProduct", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EngineTestSuite) TestResolve_FastModeReturnsFuzzyList() {
	suite.store.On("FindByNameExact", mock.Anything, "yog").Return(nil, nil).Once()
	candidates := []models.Product{
		*product("Yogur Natural", strPtr("Danone"), models.SourceExternalCatalog),
		*product("Yogur Griego", nil, models.SourceManualEntry),
	}
	suite.store.On("SearchFuzzy", mock.Anything, "yog", false, true, maxListResults).
		Return(candidates, nil).Once()

	res, err := suite.engine.Resolve(context.Background(), "yog", "es", ModeFast)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DecisionList, res.Decision)
	assert.Equal(suite.T(), ResolutionLocal, res.Source)
	assert.Len(suite.T(), res.Products, 2)
	suite.catalog.AssertNumberOfCalls(suite.T(), "SearchByText", 0)
}

func (suite *EngineTestSuite) TestResolve_EmptyQuery() {
	res, err := suite.engine.Resolve(context.Background(), "   ", "es", ModeAll)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DecisionNone, res.Decision)
}

func (suite *EngineTestSuite) TestResolve_StoreErrorPropagates() {
	suite.store.On("FindByNameExact", mock.Anything, "leche").Return(nil, errors.New("connection refused")).Once()

	res, err := suite.engine.Resolve(context.Background(), "leche", "es", ModeAll)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), res)
}

func (suite *EngineTestSuite) TestResolveBarcode_LocalHitSkipsNetwork() {
	milk := product("Leche Semidesnatada", strPtr("Puleva"), models.SourceExternalCatalog)
	suite.store.On("FindByBarcode", mock.Anything, "8410128750145").Return(milk, nil).Once()

	res, err := suite.engine.ResolveBarcode(context.Background(), "8410128750145")

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DecisionFound, res.Decision)
	assert.Equal(suite.T(), ResolutionLocal, res.Source)
	suite.catalog.AssertNumberOfCalls(suite.T(), "LookupBarcode", 0)
}

func (suite *EngineTestSuite) TestResolveBarcode_ExternalFallback() {
	suite.store.On("FindByBarcode", mock.Anything, "5449000000996").Return(nil, nil).Once()
	cola := product("Coca-Cola", strPtr("Coca-Cola"), models.SourceExternalCatalog)
	suite.catalog.On("LookupBarcode", mock.Anything, "5449000000996").Return(cola, nil).Once()

	res, err := suite.engine.ResolveBarcode(context.Background(), "5449000000996")

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DecisionFound, res.Decision)
	assert.Equal(suite.T(), ResolutionExternal, res.Source)
}

func (suite *EngineTestSuite) TestResolveBarcode_UnknownEverywhere() {
	suite.store.On("FindByBarcode", mock.Anything, "0000000000000").Return(nil, nil).Once()
	suite.catalog.On("LookupBarcode", mock.Anything, "0000000000000").Return(nil, nil).Once()

	res, err := suite.engine.ResolveBarcode(context.Background(), "0000000000000")

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DecisionNone, res.Decision)
}
