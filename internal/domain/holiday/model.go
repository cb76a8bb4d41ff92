package holiday

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hoseinshahbazi68/nobat-sub002/pkg/apperrors"
	"github.com/hoseinshahbazi68/nobat-sub002/pkg/timeofday"
)

// Holiday closes the whole clinic network for one calendar day.
type Holiday struct {
	ID uuid.UUID `json:"id"`
	// Date is the calendar day as YYYY-MM-DD.
	Date        string    `json:"date"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (h *Holiday) Validate() error {
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return apperrors.Validation("holiday name is required")
	}
	d, err := timeofday.ParseDate(h.Date, time.UTC)
	if err != nil {
		return apperrors.Validation("%s", err.Error())
	}
	h.Date = timeofday.DateKey(d)
	return nil
}
