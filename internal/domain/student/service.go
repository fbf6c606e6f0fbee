package student

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Service is a read-through cache over the campus student directory. Lookups
// hit the local table first; records older than the TTL are refreshed from
// the directory. If the directory is unreachable, a stale cached record is
// served rather than failing the request.
type Service struct {
	repo      Repository
	directory Directory
	ttl       time.Duration
	log       zerolog.Logger
}

func NewService(repo Repository, directory Directory, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{repo: repo, directory: directory, ttl: ttl, log: log}
}

// GetOrFetch resolves a student ID to directory info, refreshing the cache
// when needed.
func (s *Service) GetOrFetch(ctx context.Context, studentID string) (*Info, error) {
	if studentID == "" {
		return nil, fmt.Errorf("student_id is required")
	}

	cached, err := s.repo.GetByStudentID(ctx, studentID)
	if err == nil && time.Since(cached.FetchedAt) < s.ttl {
		return cached, nil
	}

	rec, lookupErr := s.directory.Lookup(ctx, studentID)
	if lookupErr != nil {
		if errors.Is(lookupErr, ErrUnknownStudent) {
			return nil, lookupErr
		}
		// Directory outage: serve the stale record if we have one.
		if cached != nil {
			s.log.Warn().Err(lookupErr).Str("student_id", studentID).
				Msg("student directory unreachable, serving stale cache")
			return cached, nil
		}
		return nil, lookupErr
	}

	info := &Info{
		StudentID: rec.StudentID,
		FullName:  rec.FullName,
		Gender:    rec.Gender,
		BirthDate: rec.BirthDate,
		Program:   rec.Program,
		Phone:     rec.Phone,
		Email:     rec.Email,
		FetchedAt: time.Now().UTC(),
	}
	if cached != nil {
		info.ID = cached.ID
	}
	if err := s.repo.Upsert(ctx, info); err != nil {
		return nil, fmt.Errorf("cache student info: %w", err)
	}
	return info, nil
}

// List returns cached student records.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Info, int, error) {
	return s.repo.List(ctx, limit, offset)
}
