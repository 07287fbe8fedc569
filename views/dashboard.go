package views

import (
	"context"

	"github.com/jrsteele09/mentions-console/internal/errors"
	"github.com/rs/zerolog/log"
)

// DashboardStats holds the headline counts; nil means the count failed
type DashboardStats struct {
	Accounts       *int
	PostedMentions *int
}

// LoadDashboard reads both counts through the list caches. Either
// controller may be nil when the operator lacks the permission. Failed
// counts are left nil; only a rejected session is returned as an error.
func LoadDashboard(ctx context.Context, accounts *AccountsController, mentions *MentionsController) (DashboardStats, error) {
	var stats DashboardStats
	if accounts != nil {
		n, err := accounts.Count(ctx)
		if errors.Is(err, errors.ErrUnauthorized) {
			return stats, err
		}
		if err != nil {
			log.Warn().Err(err).Msg("dashboard: unable to count accounts")
		} else {
			stats.Accounts = &n
		}
	}
	if mentions != nil {
		n, err := mentions.CountPosted(ctx)
		if errors.Is(err, errors.ErrUnauthorized) {
			return stats, err
		}
		if err != nil {
			log.Warn().Err(err).Msg("dashboard: unable to count posted mentions")
		} else {
			stats.PostedMentions = &n
		}
	}
	return stats, nil
}
