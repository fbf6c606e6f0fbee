package student

import (
	"time"

	"github.com/google/uuid"
)

// Info is the locally cached copy of a student's directory record. The campus
// directory is the source of truth; rows here are refreshed on demand when
// they age past the cache TTL.
type Info struct {
	ID         uuid.UUID  `json:"id"`
	StudentID  string     `json:"student_id"`
	FullName   string     `json:"full_name"`
	Gender     *string    `json:"gender,omitempty"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Program    *string    `json:"program,omitempty"`
	Phone      *string    `json:"phone,omitempty"`
	Email      *string    `json:"email,omitempty"`
	FetchedAt time.Time  `json:"fetched_at"`
	CreatedAt time.Time  `json:"created_at"`
}
