package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrUnknownStudent is returned when the directory has no record for the
// requested student ID.
var ErrUnknownStudent = errors.New("student not found in directory")

// Record is the wire shape the campus directory returns for one student.
type Record struct {
	StudentID string     `json:"student_id"`
	FullName  string     `json:"full_name"`
	Gender    *string    `json:"gender,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Program   *string    `json:"program,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Email     *string    `json:"email,omitempty"`
}

// Directory looks up students in the campus directory.
type Directory interface {
	Lookup(ctx context.Context, studentID string) (*Record, error)
}

// HTTPDirectory queries the campus directory REST API.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

func NewHTTPDirectory(baseURL string) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *HTTPDirectory) Lookup(ctx context.Context, studentID string) (*Record, error) {
	u := d.baseURL + "/api/students/" + url.PathEscape(studentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory lookup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUnknownStudent
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("directory lookup: unexpected status %d", resp.StatusCode)
	}

	var rec Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("directory lookup: decode: %w", err)
	}
	if rec.StudentID == "" {
		rec.StudentID = studentID
	}
	return &rec, nil
}
