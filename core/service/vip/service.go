// Package vip manages the VIP contact registry.
package vip

import (
	"context"

	"github.com/badoux/checkmail"

	"mailagent/core/domain"
	"mailagent/core/port/out"
	"mailagent/pkg/apperr"
	"mailagent/pkg/logger"
)

// Service is the configuration collaborator for VIP contacts. The
// classifier only ever reads snapshots; all writes go through here.
type Service struct {
	repo out.VIPRepository
	log  *logger.Logger
}

func NewService(repo out.VIPRepository) *Service {
	return &Service{
		repo: repo,
		log:  logger.Default().WithField("component", "vip"),
	}
}

func (s *Service) List(ctx context.Context) ([]*domain.VIPContact, error) {
	contacts, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.DatabaseError("list vip contacts", err)
	}
	return contacts, nil
}

func (s *Service) Get(ctx context.Context, email string) (*domain.VIPContact, error) {
	return s.repo.GetByEmail(ctx, domain.NormalizeVIPEmail(email))
}

// Upsert validates and stores a contact, normalizing the address key.
func (s *Service) Upsert(ctx context.Context, contact *domain.VIPContact) (*domain.VIPContact, error) {
	if contact == nil {
		return nil, apperr.BadRequest("contact is required")
	}

	email := domain.NormalizeVIPEmail(contact.Email)
	if email == "" {
		return nil, apperr.MissingField("email")
	}
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, apperr.BadRequest("email is not a valid address").WithError(err)
	}
	if !contact.PriorityLevel.Valid() {
		return nil, apperr.BadRequest("priority_level must be one of low, medium, high")
	}

	normalized := &domain.VIPContact{
		Email:         email,
		Name:          contact.Name,
		PriorityLevel: contact.PriorityLevel,
	}
	if err := s.repo.Upsert(ctx, normalized); err != nil {
		return nil, apperr.DatabaseError("upsert vip contact", err)
	}

	s.log.WithField("email", email).Info("vip contact saved")
	return normalized, nil
}

func (s *Service) Remove(ctx context.Context, email string) error {
	normalized := domain.NormalizeVIPEmail(email)
	if normalized == "" {
		return apperr.MissingField("email")
	}
	if err := s.repo.Remove(ctx, normalized); err != nil {
		return err
	}
	s.log.WithField("email", normalized).Info("vip contact removed")
	return nil
}
