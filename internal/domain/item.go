package domain

import "time"

type ItemStatus string

const (
	ItemStatusListed   ItemStatus = "LISTED"
	ItemStatusUnlisted ItemStatus = "UNLISTED"
)

type Item struct {
	ID             int64      `json:"id"`
	OwnerID        int64      `json:"owner_id"`
	Name           string     `json:"name"`
	DailyRateCents int64      `json:"daily_rate_cents"`
	DepositCents   int64      `json:"deposit_cents"`
	InstantBook    bool       `json:"instant_book"`
	Status         ItemStatus `json:"status"`
	CreatedOn      time.Time  `json:"created_on"`
	UpdatedOn      time.Time  `json:"updated_on"`
}
