package service

import (
	"context"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/model"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository"
)

const (
	newUserWindow = 7 * 24 * time.Hour
	recentLimit   = 10
)

// DashboardData consolidates all metrics for the admin stats view.
type DashboardData struct {
	Stats              *model.Stats    `json:"stats"`
	RecentUsers        []model.Account `json:"recentUsers"`
	RecentTestAttempts []model.Attempt `json:"recentTestAttempts"`
}

// DashboardService handles admin stats.
type DashboardService struct {
	store repository.Store
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(store repository.Store) *DashboardService {
	return &DashboardService{store: store}
}

// GetDashboardData fetches counters plus the newest accounts and attempts.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*DashboardData, error) {
	stats, err := s.store.Stats().Summary(ctx, time.Now().Add(-newUserWindow))
	if err != nil {
		return nil, err
	}

	users, err := s.store.Stats().RecentAccounts(ctx, recentLimit)
	if err != nil {
		return nil, err
	}

	attempts, err := s.store.Stats().RecentAttempts(ctx, recentLimit)
	if err != nil {
		return nil, err
	}

	return &DashboardData{
		Stats:              stats,
		RecentUsers:        users,
		RecentTestAttempts: attempts,
	}, nil
}
