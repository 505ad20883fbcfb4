package issue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-semantic-release/release-registry/internal/version"
	"github.com/go-semantic-release/release-registry/pkg/registry"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrInvalidIssue = errors.New("invalid issue")

type Page struct {
	Issues []*registry.Issue
	Page   int
	Size   int
	Total  int
}

// Service accepts issue reports for released app versions.
type Service struct {
	log      *logrus.Logger
	store    Store
	codec    *version.Codec
	location *time.Location
	now      func() time.Time
}

func New(log *logrus.Logger, store Store, codec *version.Codec, location *time.Location) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		log:      log,
		store:    store,
		codec:    codec,
		location: location,
		now:      time.Now,
	}
}

// Report stores a new issue. appVersion must be a version produced by the
// registry's version pattern, optionally with a -SNAPSHOT suffix.
func (s *Service) Report(ctx context.Context, value, appVersion string) (*registry.Issue, error) {
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("%w: empty issue value", ErrInvalidIssue)
	}
	if !s.codec.IsAppVersion(appVersion) {
		return nil, fmt.Errorf("%w: invalid application version %q", ErrInvalidIssue, appVersion)
	}
	issue := &registry.Issue{
		ID:         uuid.NewString(),
		Value:      value,
		AppVersion: appVersion,
		OccurredAt: s.now(),
	}
	if err := s.store.Save(ctx, issue); err != nil {
		return nil, fmt.Errorf("failed to save issue: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"id":         issue.ID,
		"appVersion": appVersion,
	}).Info("issue reported")
	return issue, nil
}

// List returns the zero based page of issues, newest first.
func (s *Service) List(ctx context.Context, page, size int) (*Page, error) {
	if page < 0 {
		return nil, fmt.Errorf("invalid page %d", page)
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid page size %d", size)
	}
	issues, total, err := s.store.List(ctx, page*size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	return &Page{
		Issues: issues,
		Page:   page,
		Size:   size,
		Total:  total,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*registry.Issue, error) {
	issue, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue %s: %w", id, err)
	}
	return issue, nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to remove issue %s: %w", id, err)
	}
	s.log.WithField("id", id).Info("issue removed")
	return nil
}

// ByDate counts the issues reported between start and end, both inclusive,
// per calendar date in the service's location.
func (s *Service) ByDate(ctx context.Context, start, end registry.Date) (registry.DateBucketCount, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	issues, err := s.store.Find(ctx, start.StartOfDay(s.location), end.EndOfDay(s.location))
	if err != nil {
		return nil, fmt.Errorf("failed to find issues: %w", err)
	}
	res := make(registry.DateBucketCount)
	for _, issue := range issues {
		res[registry.DateOf(issue.OccurredAt.In(s.location))]++
	}
	return res, nil
}
