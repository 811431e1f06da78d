package services

import (
	"context"
	"strings"

	"github.com/paperpaper/catalog/internal/database/catalog"
	"github.com/paperpaper/catalog/internal/entities"
)

// EventInput is the admin form for an event.
type EventInput struct {
	Name            string `json:"name" validate:"required,max=200"`
	Acronym         string `json:"acronym" validate:"required,max=20"`
	PromotingEntity string `json:"promoting_entity" validate:"max=200"`
}

func (in *EventInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Acronym = strings.TrimSpace(in.Acronym)
	in.PromotingEntity = strings.TrimSpace(in.PromotingEntity)
}

// EventService manages events from the admin surface.
type EventService struct {
	catalog *catalog.Repository
	audit   AuditLogger
}

func NewEventService(repo *catalog.Repository, audit AuditLogger) *EventService {
	return &EventService{catalog: repo, audit: audit}
}

func (s *EventService) Create(ctx context.Context, userID uint, in EventInput) (*entities.Event, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	event := &entities.Event{
		Name:            in.Name,
		Acronym:         in.Acronym,
		PromotingEntity: in.PromotingEntity,
	}
	if err := s.catalog.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	s.logCatalog(userID, "event_create", event.ID, "Created event "+event.String())
	return event, nil
}

// Update rewrites the event fields. The slug follows the acronym.
func (s *EventService) Update(ctx context.Context, userID, id uint, in EventInput) (*entities.Event, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	event, err := s.catalog.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	event.Name = in.Name
	event.Acronym = in.Acronym
	event.PromotingEntity = in.PromotingEntity
	event.Slug = ""

	if err := s.catalog.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}

	s.logCatalog(userID, "event_update", event.ID, "Updated event "+event.String())
	return event, nil
}

// Delete removes the event with its editions and articles.
func (s *EventService) Delete(ctx context.Context, userID, id uint) error {
	event, err := s.catalog.GetEventByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.catalog.DeleteEvent(ctx, id); err != nil {
		return err
	}

	s.logCatalog(userID, "event_delete", id, "Deleted event "+event.String())
	return nil
}

func (s *EventService) logCatalog(userID uint, action string, id uint, description string) {
	if s.audit != nil {
		s.audit.LogCatalog(userID, action, "event", id, description)
	}
}

// EditionInput is the admin form for adding an edition to an event.
type EditionInput struct {
	Year     int    `json:"year" validate:"required,min=1900,max=2100"`
	Location string `json:"location" validate:"max=200"`
}

// AddEdition returns the event's edition for the year, creating it when missing.
func (s *EventService) AddEdition(ctx context.Context, userID, eventID uint, in EditionInput) (*entities.Edition, error) {
	in.Location = strings.TrimSpace(in.Location)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	event, err := s.catalog.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	edition, err := s.catalog.GetOrCreateEdition(ctx, event.ID, in.Year, in.Location)
	if err != nil {
		return nil, err
	}
	edition.Event = *event

	if s.audit != nil {
		s.audit.LogCatalog(userID, "edition_create", "edition", edition.ID, "Added edition "+edition.String())
	}
	return edition, nil
}
