package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"freshkeeper/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockProductResolver struct {
	mock.Mock
}

func (m *MockProductResolver) ResolveForInventory(ctx context.Context, req *models.AddLocationRequest, language string) (*models.Product, error) {
	args := m.Called(ctx, req, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

type MockUserProductRepo struct {
	mock.Mock
}

func (m *MockUserProductRepo) GetOrCreate(ctx context.Context, userID, productID uuid.UUID) (*models.UserProduct, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProduct), args.Error(1)
}

func (m *MockUserProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProduct, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProduct), args.Error(1)
}

func (m *MockUserProductRepo) GetByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*models.UserProduct, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProduct), args.Error(1)
}

type MockLocationRepo struct {
	mock.Mock
}

func (m *MockLocationRepo) Create(ctx context.Context, location *models.UserProductLocation) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockLocationRepo) GetOwned(ctx context.Context, userID, id uuid.UUID) (*models.UserProductLocation, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProductLocation), args.Error(1)
}

func (m *MockLocationRepo) Update(ctx context.Context, location *models.UserProductLocation) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockLocationRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLocationRepo) List(ctx context.Context, userID uuid.UUID, filter models.LocationFilter, limit, offset int) ([]models.UserProductLocation, error) {
	args := m.Called(ctx, userID, filter, limit, offset)
	return args.Get(0).([]models.UserProductLocation), args.Error(1)
}

func (m *MockLocationRepo) ListExpiring(ctx context.Context, userID uuid.UUID, withinDays int) ([]models.UserProductLocation, error) {
	args := m.Called(ctx, userID, withinDays)
	return args.Get(0).([]models.UserProductLocation), args.Error(1)
}

func (m *MockLocationRepo) CountActiveByList(ctx context.Context, userID uuid.UUID) (map[models.ListType]int, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(map[models.ListType]int), args.Error(1)
}

type MockMovementRepo struct {
	mock.Mock
}

func (m *MockMovementRepo) Create(ctx context.Context, movement *models.ItemMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockMovementRepo) List(ctx context.Context, userID uuid.UUID, filter models.MovementFilter, limit, offset int) ([]models.ItemMovement, error) {
	args := m.Called(ctx, userID, filter, limit, offset)
	return args.Get(0).([]models.ItemMovement), args.Error(1)
}

type InventoryServiceTestSuite struct {
	suite.Suite
	resolver     *MockProductResolver
	userProducts *MockUserProductRepo
	locations    *MockLocationRepo
	movements    *MockMovementRepo
	service      InventoryService
	userID       uuid.UUID
	product      *models.Product
}

func (suite *InventoryServiceTestSuite) SetupTest() {
	suite.resolver = &MockProductResolver{}
	suite.userProducts = &MockUserProductRepo{}
	suite.locations = &MockLocationRepo{}
	suite.movements = &MockMovementRepo{}
	suite.service = NewInventoryService(suite.resolver, suite.userProducts, suite.locations, suite.movements)
	suite.userID = uuid.New()
	suite.product = &models.Product{ID: uuid.New(), Name: "Leche Entera", Source: models.SourceManualEntry}
}

func (suite *InventoryServiceTestSuite) TearDownTest() {
	suite.resolver.AssertExpectations(suite.T())
	suite.userProducts.AssertExpectations(suite.T())
	suite.locations.AssertExpectations(suite.T())
	suite.movements.AssertExpectations(suite.T())
}

func TestInventoryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InventoryServiceTestSuite))
}

func (suite *InventoryServiceTestSuite) activeLocation(listType models.ListType, quantity float64) *models.UserProductLocation {
	return &models.UserProductLocation{
		ID:            uuid.New(),
		UserProductID: uuid.New(),
		ListType:      listType,
		Quantity:      quantity,
		Unit:          "l",
		AddedAt:       time.Now().Add(-24 * time.Hour),
		Product:       suite.product,
	}
}

func (suite *InventoryServiceTestSuite) TestAddLocation_Success() {
	req := &models.AddLocationRequest{
		ProductName: stringRef("leche entera"),
		ListType:    models.ListFridge,
		Quantity:    2,
		Unit:        "l",
	}
	userProduct := &models.UserProduct{ID: uuid.New(), UserID: suite.userID, ProductID: suite.product.ID}

	suite.resolver.On("ResolveForInventory", mock.Anything, req, "es").Return(suite.product, nil).Once()
	suite.userProducts.On("GetOrCreate", mock.Anything, suite.userID, suite.product.ID).Return(userProduct, nil).Once()
	suite.locations.On("Create", mock.Anything, mock.MatchedBy(func(l *models.UserProductLocation) bool {
		return l.UserProductID == userProduct.ID && l.ListType == models.ListFridge && l.Quantity == 2
	})).Return(nil).Once()
	suite.movements.On("Create", mock.Anything, mock.MatchedBy(func(m *models.ItemMovement) bool {
		return m.MovementType == models.MovementAdd && m.FromList == nil && *m.ToList == models.ListFridge
	})).Return(nil).Once()

	location, err := suite.service.AddLocation(context.Background(), suite.userID, req, "es")

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ListFridge, location.ListType)
	assert.False(suite.T(), location.IsConsumed)
}

func (suite *InventoryServiceTestSuite) TestAddLocation_InvalidQuantity() {
	req := &models.AddLocationRequest{
		ProductName: stringRef("leche"),
		ListType:    models.ListFridge,
		Quantity:    0,
		Unit:        "l",
	}

	location, err := suite.service.AddLocation(context.Background(), suite.userID, req, "es")

	assert.ErrorIs(suite.T(), err, models.ErrInvalidQuantity)
	assert.Nil(suite.T(), location)
	suite.locations.AssertNumberOfCalls(suite.T(), "Create", 0)
	suite.movements.AssertNumberOfCalls(suite.T(), "Create", 0)
}

func (suite *InventoryServiceTestSuite) TestUpdateLocation_MoveEmitsMovement() {
	location := suite.activeLocation(models.ListShopping, 1)
	fridge := models.ListFridge

	suite.locations.On("GetOwned", mock.Anything, suite.userID, location.ID).Return(location, nil).Once()
	suite.locations.On("Update", mock.Anything, mock.MatchedBy(func(l *models.UserProductLocation) bool {
		return l.ListType == models.ListFridge
	})).Return(nil).Once()
	suite.movements.On("Create", mock.Anything, mock.MatchedBy(func(m *models.ItemMovement) bool {
		return m.MovementType == models.MovementMove &&
			*m.FromList == models.ListShopping && *m.ToList == models.ListFridge
	})).Return(nil).Once()

	updated, err := suite.service.UpdateLocation(context.Background(), suite.userID, location.ID, &models.UpdateLocationRequest{ListType: &fridge})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ListFridge, updated.ListType)
	suite.movements.AssertNumberOfCalls(suite.T(), "Create", 1)
}

func (suite *InventoryServiceTestSuite) TestUpdateLocation_NotOwned() {
	locationID := uuid.New()
	suite.locations.On("GetOwned", mock.Anything, suite.userID, locationID).Return(nil, nil).Once()

	updated, err := suite.service.UpdateLocation(context.Background(), suite.userID, locationID, &models.UpdateLocationRequest{})

	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
	assert.Nil(suite.T(), updated)
}

func (suite *InventoryServiceTestSuite) TestUpdateLocation_MarkConsumedStampsTimestamp() {
	location := suite.activeLocation(models.ListFridge, 1)
	consumed := true

	suite.locations.On("GetOwned", mock.Anything, suite.userID, location.ID).Return(location, nil).Once()
	suite.locations.On("Update", mock.Anything, mock.MatchedBy(func(l *models.UserProductLocation) bool {
		return l.IsConsumed && l.ConsumedAt != nil
	})).Return(nil).Once()
	suite.movements.On("Create", mock.Anything, mock.MatchedBy(func(m *models.ItemMovement) bool {
		return m.MovementType == models.MovementConsume
	})).Return(nil).Once()

	updated, err := suite.service.UpdateLocation(context.Background(), suite.userID, location.ID, &models.UpdateLocationRequest{IsConsumed: &consumed})

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), updated.IsConsumed)
	assert.NotNil(suite.T(), updated.ConsumedAt)
}

func (suite *InventoryServiceTestSuite) TestDeleteLocation_SoftDeletes() {
	location := suite.activeLocation(models.ListPantry, 3)

	suite.locations.On("GetOwned", mock.Anything, suite.userID, location.ID).Return(location, nil).Once()
	suite.locations.On("SoftDelete", mock.Anything, location.ID).Return(nil).Once()
	suite.movements.On("Create", mock.Anything, mock.MatchedBy(func(m *models.ItemMovement) bool {
		return m.MovementType == models.MovementRemove && *m.FromList == models.ListPantry && m.ToList == nil
	})).Return(nil).Once()

	err := suite.service.DeleteLocation(context.Background(), suite.userID, location.ID)

	assert.NoError(suite.T(), err)
}

func (suite *InventoryServiceTestSuite) TestDeleteLocation_AlreadyRemovedOrForeign() {
	locationID := uuid.New()
	suite.locations.On("GetOwned", mock.Anything, suite.userID, locationID).Return(nil, nil).Once()

	err := suite.service.DeleteLocation(context.Background(), suite.userID, locationID)

	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
	suite.locations.AssertNumberOfCalls(suite.T(), "SoftDelete", 0)
}

func (suite *InventoryServiceTestSuite) TestConsumeLocation_FullAtExactBoundary() {
	location := suite.activeLocation(models.ListFridge, 2)

	suite.locations.On("GetOwned", mock.Anything, suite.userID, location.ID).Return(location, nil).Once()
	suite.locations.On("Update", mock.Anything, mock.MatchedBy(func(l *models.UserProductLocation) bool {
		return l.IsConsumed && l.Quantity == 0 && l.ConsumedAt != nil
	})).Return(nil).Once()
	suite.movements.On("Create", mock.Anything, mock.MatchedBy(func(m *models.ItemMovement) bool {
		return m.MovementType == models.MovementConsume && m.Quantity == 2
	})).Return(nil).Once()

	updated, err := suite.service.ConsumeLocation(context.Background(), suite.userID, location.ID, 2)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), updated.IsConsumed)
	assert.Equal(suite.T(), 0.0, updated.Quantity)
}

func (suite *InventoryServiceTestSuite) TestConsumeLocation_PartialKeepsRowActive() {
	location := suite.activeLocation(models.ListFridge, 5)

	suite.locations.On("GetOwned", mock.Anything, suite.userID, location.ID).Return(location, nil).Once()
	suite.locations.On("Update", mock.Anything, mock.MatchedBy(func(l *models.UserProductLocation) bool {
		return !l.IsConsumed && l.Quantity == 3 && l.ConsumedAt == nil
	})).Return(nil).Once()
	suite.movements.On("Create", mock.Anything, mock.MatchedBy(func(m *models.ItemMovement) bool {
		return m.MovementType == models.MovementConsume && m.Quantity == 2
	})).Return(nil).Once()

	updated, err := suite.service.ConsumeLocation(context.Background(), suite.userID, location.ID, 2)

	assert.NoError(suite.T(), err)
	assert.False(suite.T(), updated.IsConsumed)
	assert.Equal(suite.T(), 3.0, updated.Quantity)
}

func (suite *InventoryServiceTestSuite) TestConsumeLocation_AlreadyConsumed() {
	location := suite.activeLocation(models.ListFridge, 0)
	now := time.Now()
	location.IsConsumed = true
	location.ConsumedAt = &now

	suite.locations.On("GetOwned", mock.Anything, suite.userID, location.ID).Return(location, nil).Once()

	updated, err := suite.service.ConsumeLocation(context.Background(), suite.userID, location.ID, 1)

	assert.ErrorIs(suite.T(), err, models.ErrAlreadyConsumed)
	assert.Nil(suite.T(), updated)
}

func (suite *InventoryServiceTestSuite) TestMovementWriteFailureDoesNotRollBack() {
	location := suite.activeLocation(models.ListPantry, 1)

	suite.locations.On("GetOwned", mock.Anything, suite.userID, location.ID).Return(location, nil).Once()
	suite.locations.On("SoftDelete", mock.Anything, location.ID).Return(nil).Once()
	suite.movements.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed")).Once()

	err := suite.service.DeleteLocation(context.Background(), suite.userID, location.ID)

	assert.NoError(suite.T(), err)
}

func (suite *InventoryServiceTestSuite) TestListLocations_AnnotatesExpiry() {
	in2days := time.Now().Add(48 * time.Hour)
	in4days := time.Now().Add(96 * time.Hour)
	rows := []models.UserProductLocation{
		{ID: uuid.New(), ListType: models.ListFridge, ExpiryDate: &in2days, Product: suite.product},
		{ID: uuid.New(), ListType: models.ListFridge, ExpiryDate: &in4days, Product: suite.product},
		{ID: uuid.New(), ListType: models.ListPantry, Product: suite.product},
	}
	suite.locations.On("List", mock.Anything, suite.userID, models.LocationFilter{}, 50, 0).Return(rows, nil).Once()

	locations, err := suite.service.ListLocations(context.Background(), suite.userID, models.LocationFilter{}, 50, 0)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, *locations[0].DaysUntilExpiry)
	assert.True(suite.T(), locations[0].IsExpiringSoon)
	assert.Equal(suite.T(), 4, *locations[1].DaysUntilExpiry)
	assert.False(suite.T(), locations[1].IsExpiringSoon)
	assert.Nil(suite.T(), locations[2].DaysUntilExpiry)
	assert.False(suite.T(), locations[2].IsExpiringSoon)
}

func (suite *InventoryServiceTestSuite) TestListExpiring_DefaultsWindow() {
	suite.locations.On("ListExpiring", mock.Anything, suite.userID, 3).Return([]models.UserProductLocation{}, nil).Once()

	locations, err := suite.service.ListExpiring(context.Background(), suite.userID, 0)

	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), locations)
}

func stringRef(s string) *string { return &s }
