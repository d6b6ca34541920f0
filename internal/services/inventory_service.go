package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"freshkeeper/internal/models"
	"freshkeeper/internal/repositories"
)

// ProductResolver is the slice of ProductService the inventory flow needs
// to turn a name or barcode into a concrete product.
type ProductResolver interface {
	ResolveForInventory(ctx context.Context, req *models.AddLocationRequest, language string) (*models.Product, error)
}

type InventoryService interface {
	AddLocation(ctx context.Context, userID uuid.UUID, req *models.AddLocationRequest, language string) (*models.UserProductLocation, error)
	UpdateLocation(ctx context.Context, userID, locationID uuid.UUID, req *models.UpdateLocationRequest) (*models.UserProductLocation, error)
	DeleteLocation(ctx context.Context, userID, locationID uuid.UUID) error
	ConsumeLocation(ctx context.Context, userID, locationID uuid.UUID, quantity float64) (*models.UserProductLocation, error)
	ListLocations(ctx context.Context, userID uuid.UUID, filter models.LocationFilter, limit, offset int) ([]models.UserProductLocation, error)
	ListExpiring(ctx context.Context, userID uuid.UUID, withinDays int) ([]models.UserProductLocation, error)
	ListMovements(ctx context.Context, userID uuid.UUID, filter models.MovementFilter, limit, offset int) ([]models.ItemMovement, error)
}

type inventoryService struct {
	resolver     ProductResolver
	userProducts repositories.UserProductRepository
	locations    repositories.LocationRepository
	movements    repositories.MovementRepository
	now          func() time.Time
}

func NewInventoryService(resolver ProductResolver, userProducts repositories.UserProductRepository, locations repositories.LocationRepository, movements repositories.MovementRepository) InventoryService {
	return &inventoryService{
		resolver:     resolver,
		userProducts: userProducts,
		locations:    locations,
		movements:    movements,
		now:          time.Now,
	}
}

func (s *inventoryService) AddLocation(ctx context.Context, userID uuid.UUID, req *models.AddLocationRequest, language string) (*models.UserProductLocation, error) {
	if req.Quantity <= 0 {
		return nil, models.ErrInvalidQuantity
	}
	if !models.ValidListType(string(req.ListType)) {
		return nil, fmt.Errorf("unknown list type %q", req.ListType)
	}

	product, err := s.resolver.ResolveForInventory(ctx, req, language)
	if err != nil {
		return nil, err
	}

	userProduct, err := s.userProducts.GetOrCreate(ctx, userID, product.ID)
	if err != nil {
		return nil, err
	}

	location := &models.UserProductLocation{
		ID:            uuid.New(),
		UserProductID: userProduct.ID,
		ListType:      req.ListType,
		Quantity:      req.Quantity,
		Unit:          req.Unit,
		PurchaseDate:  req.PurchaseDate,
		ExpiryDate:    req.ExpiryDate,
		Price:         req.Price,
		Store:         req.Store,
		Notes:         req.Notes,
		AddedAt:       s.now(),
		Product:       product,
	}
	if err := s.locations.Create(ctx, location); err != nil {
		return nil, err
	}

	s.recordMovement(ctx, userID, product.ID, models.MovementAdd, req.Quantity, nil, &req.ListType, req.Notes)
	location.AnnotateExpiry(s.now())
	return location, nil
}

func (s *inventoryService) UpdateLocation(ctx context.Context, userID, locationID uuid.UUID, req *models.UpdateLocationRequest) (*models.UserProductLocation, error) {
	location, err := s.locations.GetOwned(ctx, userID, locationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, models.ErrNotFound
	}

	var movedFrom *models.ListType
	if req.ListType != nil && *req.ListType != location.ListType {
		if !models.ValidListType(string(*req.ListType)) {
			return nil, fmt.Errorf("unknown list type %q", *req.ListType)
		}
		from := location.ListType
		movedFrom = &from
		location.ListType = *req.ListType
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, models.ErrInvalidQuantity
		}
		location.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		location.Unit = *req.Unit
	}
	if req.ExpiryDate != nil {
		location.ExpiryDate = req.ExpiryDate
	}
	if req.Price != nil {
		location.Price = req.Price
	}
	if req.Store != nil {
		location.Store = req.Store
	}
	if req.Notes != nil {
		location.Notes = req.Notes
	}
	newlyConsumed := false
	if req.IsConsumed != nil && *req.IsConsumed && !location.IsConsumed {
		now := s.now()
		location.IsConsumed = true
		location.ConsumedAt = &now
		newlyConsumed = true
	}

	if err := s.locations.Update(ctx, location); err != nil {
		return nil, err
	}

	if movedFrom != nil {
		to := location.ListType
		s.recordMovement(ctx, userID, location.Product.ID, models.MovementMove, location.Quantity, movedFrom, &to, nil)
	}
	if newlyConsumed {
		from := location.ListType
		s.recordMovement(ctx, userID, location.Product.ID, models.MovementConsume, location.Quantity, &from, nil, nil)
	}

	location.AnnotateExpiry(s.now())
	return location, nil
}

func (s *inventoryService) DeleteLocation(ctx context.Context, userID, locationID uuid.UUID) error {
	location, err := s.locations.GetOwned(ctx, userID, locationID)
	if err != nil {
		return err
	}
	if location == nil {
		return models.ErrNotFound
	}

	if err := s.locations.SoftDelete(ctx, locationID); err != nil {
		return err
	}

	from := location.ListType
	s.recordMovement(ctx, userID, location.Product.ID, models.MovementRemove, location.Quantity, &from, nil, nil)
	return nil
}

// ConsumeLocation removes quantity from a location row. Consuming the full
// on-hand quantity (or more) marks the row consumed; a partial amount just
// reduces the quantity and leaves the row active.
func (s *inventoryService) ConsumeLocation(ctx context.Context, userID, locationID uuid.UUID, quantity float64) (*models.UserProductLocation, error) {
	if quantity <= 0 {
		return nil, models.ErrInvalidQuantity
	}
	location, err := s.locations.GetOwned(ctx, userID, locationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, models.ErrNotFound
	}
	if location.IsConsumed {
		return nil, models.ErrAlreadyConsumed
	}

	consumed := quantity
	if quantity >= location.Quantity {
		consumed = location.Quantity
		now := s.now()
		location.Quantity = 0
		location.IsConsumed = true
		location.ConsumedAt = &now
	} else {
		location.Quantity -= quantity
	}

	if err := s.locations.Update(ctx, location); err != nil {
		return nil, err
	}

	from := location.ListType
	s.recordMovement(ctx, userID, location.Product.ID, models.MovementConsume, consumed, &from, nil, nil)
	location.AnnotateExpiry(s.now())
	return location, nil
}

func (s *inventoryService) ListLocations(ctx context.Context, userID uuid.UUID, filter models.LocationFilter, limit, offset int) ([]models.UserProductLocation, error) {
	locations, err := s.locations.List(ctx, userID, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range locations {
		locations[i].AnnotateExpiry(now)
	}
	return locations, nil
}

func (s *inventoryService) ListExpiring(ctx context.Context, userID uuid.UUID, withinDays int) ([]models.UserProductLocation, error) {
	if withinDays <= 0 {
		withinDays = 3
	}
	locations, err := s.locations.ListExpiring(ctx, userID, withinDays)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range locations {
		locations[i].AnnotateExpiry(now)
	}
	return locations, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, userID uuid.UUID, filter models.MovementFilter, limit, offset int) ([]models.ItemMovement, error) {
	return s.movements.List(ctx, userID, filter, limit, offset)
}

// recordMovement writes the audit record. A failure is logged and never
// rolls back the state change; movements exist for history, not
// correctness.
func (s *inventoryService) recordMovement(ctx context.Context, userID, productID uuid.UUID, movementType models.MovementType, quantity float64, from, to *models.ListType, note *string) {
	movement := &models.ItemMovement{
		ID:           uuid.New(),
		UserID:       userID,
		ProductID:    productID,
		MovementType: movementType,
		Quantity:     quantity,
		FromList:     from,
		ToList:       to,
		Note:         note,
	}
	if err := s.movements.Create(ctx, movement); err != nil {
		log.Printf("failed to record %s movement for product %s: %v", movementType, productID, err)
	}
}
