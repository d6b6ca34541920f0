package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"freshkeeper/internal/caching"
	"freshkeeper/internal/models"
	"freshkeeper/internal/repositories"
)

const (
	dashboardCacheTTL      = 5 * time.Minute
	dashboardExpiringDays  = 7
	dashboardRecentMoves   = 10
)

type DashboardService interface {
	Summary(ctx context.Context, userID uuid.UUID) (map[string]interface{}, error)
}

type dashboardService struct {
	locations repositories.LocationRepository
	movements repositories.MovementRepository
	cache     caching.CacheService
}

func NewDashboardService(locations repositories.LocationRepository, movements repositories.MovementRepository, cache caching.CacheService) DashboardService {
	return &dashboardService{locations: locations, movements: movements, cache: cache}
}

// Summary reports per-location counts, expiry urgency buckets, and recent
// movements. Cached briefly since it backs the app home screen.
func (s *dashboardService) Summary(ctx context.Context, userID uuid.UUID) (map[string]interface{}, error) {
	if s.cache != nil {
		cached, err := s.cache.GetDashboard(ctx, userID)
		if err != nil {
			log.Printf("dashboard cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	counts, err := s.locations.CountActiveByList(ctx, userID)
	if err != nil {
		return nil, err
	}
	expiring, err := s.locations.ListExpiring(ctx, userID, dashboardExpiringDays)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var today, tomorrow, thisWeek int
	for i := range expiring {
		expiring[i].AnnotateExpiry(now)
		if expiring[i].DaysUntilExpiry == nil {
			continue
		}
		switch days := *expiring[i].DaysUntilExpiry; {
		case days <= 1:
			today++
		case days <= 2:
			tomorrow++
		default:
			thisWeek++
		}
	}

	recent, err := s.movements.List(ctx, userID, models.MovementFilter{}, dashboardRecentMoves, 0)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, count := range counts {
		total += count
	}
	summary := map[string]interface{}{
		"total_items": total,
		"by_location": map[string]int{
			"fridge":   counts[models.ListFridge],
			"freezer":  counts[models.ListFreezer],
			"pantry":   counts[models.ListPantry],
			"shopping": counts[models.ListShopping],
		},
		"shopping_list_count": counts[models.ListShopping],
		"expiring": map[string]int{
			"today":     today,
			"tomorrow":  tomorrow,
			"this_week": thisWeek,
		},
		"expiring_items":   expiring,
		"recent_movements": recent,
	}

	if s.cache != nil {
		if err := s.cache.SetDashboard(ctx, userID, summary, dashboardCacheTTL); err != nil {
			log.Printf("dashboard cache write failed: %v", err)
		}
	}
	return summary, nil
}
