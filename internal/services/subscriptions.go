package services

import (
	"context"
	"errors"
	"strings"

	"github.com/paperpaper/catalog/internal/database/subscriptions"
	"github.com/paperpaper/catalog/internal/entities"
)

type SubscribeOutcome string

const (
	SubscriptionCreated     SubscribeOutcome = "created"
	SubscriptionReactivated SubscribeOutcome = "reactivated"
	AlreadySubscribed       SubscribeOutcome = "already_subscribed"
)

// SubscribeInput is the public subscription form.
type SubscribeInput struct {
	FullName string `json:"full_name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

// SubscriptionService handles public sign-ups and admin activation.
type SubscriptionService struct {
	repo  *subscriptions.Repository
	audit AuditLogger
}

func NewSubscriptionService(repo *subscriptions.Repository, audit AuditLogger) *SubscriptionService {
	return &SubscriptionService{repo: repo, audit: audit}
}

// Subscribe registers the pair, reactivates it when it exists but is inactive,
// and otherwise leaves it alone.
func (s *SubscriptionService) Subscribe(ctx context.Context, in SubscribeInput, ipAddr string) (*entities.NotificationSubscription, SubscribeOutcome, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, "", err
	}

	sub, err := s.repo.Find(ctx, in.FullName, in.Email)
	var outcome SubscribeOutcome
	switch {
	case errors.Is(err, subscriptions.ErrNotFound):
		sub = &entities.NotificationSubscription{FullName: in.FullName, Email: in.Email, IsActive: true}
		if err := s.repo.Create(ctx, sub); err != nil {
			return nil, "", err
		}
		outcome = SubscriptionCreated
	case err != nil:
		return nil, "", err
	case !sub.IsActive:
		if err := s.repo.SetActive(ctx, sub.ID, true); err != nil {
			return nil, "", err
		}
		sub.IsActive = true
		outcome = SubscriptionReactivated
	default:
		outcome = AlreadySubscribed
	}

	if s.audit != nil {
		s.audit.LogSubscription(sub.ID, string(outcome), ipAddr)
	}
	return sub, outcome, nil
}

// SetActive flips the active flag on every listed subscription and returns how
// many were updated.
func (s *SubscriptionService) SetActive(ctx context.Context, ids []uint, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, newValidationError("ids", "is required")
	}
	return s.repo.SetActiveBulk(ctx, ids, active)
}

func (s *SubscriptionService) List(ctx context.Context, active *bool) ([]entities.NotificationSubscription, error) {
	return s.repo.List(ctx, active)
}
