package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/tagrelay/tagrelay/pkg/models"
	"github.com/tagrelay/tagrelay/pkg/persistence"
)

// Trigger is the CRUD service for configured trigger instances. Every
// operation is a load-mutate-save cycle over the shared configuration
// document; a save that loses the version race is retried once against the
// fresh document.
type Trigger struct {
	store     persistence.ConfigStore
	validator *validator.Validate
	logger    *slog.Logger
}

// NewTrigger creates a new trigger service.
func NewTrigger(store persistence.ConfigStore, logger *slog.Logger) *Trigger {
	return &Trigger{
		store:     store,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// HealthCheck checks the health of the configuration store.
func (t *Trigger) HealthCheck(ctx context.Context) (string, bool) {
	if t.store == nil {
		return "Configuration store not initialized", false
	}

	if err := t.store.HealthCheck(ctx); err != nil {
		return "Configuration store is unhealthy: " + err.Error(), false
	}

	return "Configuration store is healthy", true
}

// CreateTriggerRequest carries the input for creating a trigger instance.
type CreateTriggerRequest struct {
	TriggerTypeID string `validate:"required"`
	Name          string
	EventName     string `validate:"required"`
	Mappings      []models.Mapping
}

// Create stores a new trigger instance under the integration slug and
// returns it with its generated id.
func (t *Trigger) Create(ctx context.Context, slug string, req CreateTriggerRequest) (*models.ConfiguredTrigger, error) {
	sanitized, err := t.sanitizeCreate(req)
	if err != nil {
		return nil, err
	}

	trigger := models.ConfiguredTrigger{
		TriggerTypeID: sanitized.TriggerTypeID,
		Name:          sanitized.Name,
		EventName:     sanitized.EventName,
		Mappings:      sanitized.Mappings,
	}

	err = t.withDocument(ctx, func(doc *persistence.ConfigDocument) error {
		id := persistence.NewTriggerID(trigger.TriggerTypeID)
		for {
			if _, exists := doc.Trigger(slug, id); !exists {
				break
			}

			id = persistence.NewTriggerID(trigger.TriggerTypeID)
		}

		trigger.ID = id
		doc.SetTrigger(slug, trigger)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create trigger: %w", err)
	}

	t.logger.Info("Created trigger", "integration", slug, "id", trigger.ID, "trigger", trigger.TriggerTypeID)

	return &trigger, nil
}

// UpdateTriggerRequest carries the partial fields of an update. Nil fields
// are left unchanged; the instance id and trigger type can never change.
type UpdateTriggerRequest struct {
	Name      *string
	EventName *string
	Mappings  []models.Mapping
}

// Update shallow-merges the partial fields into an existing instance.
func (t *Trigger) Update(ctx context.Context, slug, id string, req UpdateTriggerRequest) (*models.ConfiguredTrigger, error) {
	if req.EventName != nil {
		name, err := sanitizeField("event_name", *req.EventName)
		if err != nil {
			return nil, err
		}

		if name == "" {
			return nil, NewValidationError("Update", "EVENT_NAME_REQUIRED", "event name cannot be blank", ErrEventNameRequired)
		}

		req.EventName = &name
	}

	if req.Name != nil {
		name, err := sanitizeField("name", *req.Name)
		if err != nil {
			return nil, err
		}

		req.Name = &name
	}

	if req.Mappings != nil {
		mappings, err := t.sanitizeMappings("Update", req.Mappings)
		if err != nil {
			return nil, err
		}

		req.Mappings = mappings
	}

	var updated models.ConfiguredTrigger

	err := t.withDocument(ctx, func(doc *persistence.ConfigDocument) error {
		existing, ok := doc.Trigger(slug, id)
		if !ok {
			return &persistence.StoreError{Op: "Update", Slug: slug, Err: persistence.ErrTriggerNotFound}
		}

		if req.Name != nil {
			existing.Name = *req.Name
		}

		if req.EventName != nil {
			existing.EventName = *req.EventName
		}

		if req.Mappings != nil {
			existing.Mappings = req.Mappings
		}

		doc.SetTrigger(slug, existing)
		updated = existing

		return nil
	})
	if err != nil {
		return nil, err
	}

	t.logger.Info("Updated trigger", "integration", slug, "id", id)

	return &updated, nil
}

// Delete removes a trigger instance. Deletion is not reversible.
func (t *Trigger) Delete(ctx context.Context, slug, id string) error {
	err := t.withDocument(ctx, func(doc *persistence.ConfigDocument) error {
		if !doc.DeleteTrigger(slug, id) {
			return &persistence.StoreError{Op: "Delete", Slug: slug, Err: persistence.ErrTriggerNotFound}
		}

		return nil
	})
	if err != nil {
		return err
	}

	t.logger.Info("Deleted trigger", "integration", slug, "id", id)

	return nil
}

// List returns every configured trigger stored under the slug, sorted by id
// for stable output. Callers receive the full set in bulk; the engine never
// serves partial reads.
func (t *Trigger) List(ctx context.Context, slug string) ([]models.ConfiguredTrigger, error) {
	doc, err := t.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	stored := doc.Triggers(slug)
	triggers := make([]models.ConfiguredTrigger, 0, len(stored))

	for _, trigger := range stored {
		triggers = append(triggers, trigger)
	}

	sort.Slice(triggers, func(i, j int) bool {
		return triggers[i].ID < triggers[j].ID
	})

	return triggers, nil
}

// Get returns one configured trigger by id.
func (t *Trigger) Get(ctx context.Context, slug, id string) (*models.ConfiguredTrigger, error) {
	doc, err := t.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	trigger, ok := doc.Trigger(slug, id)
	if !ok {
		return nil, &persistence.StoreError{Op: "Get", Slug: slug, Err: persistence.ErrTriggerNotFound}
	}

	return &trigger, nil
}

// withDocument runs a load-mutate-save cycle, keeping the window between
// load and save as small as possible. A stale save is retried once against
// a fresh load.
func (t *Trigger) withDocument(ctx context.Context, mutate func(*persistence.ConfigDocument) error) error {
	attempt := func() error {
		doc, err := t.store.Load(ctx)
		if err != nil {
			return err
		}

		if err := mutate(doc); err != nil {
			return err
		}

		return t.store.Save(ctx, doc)
	}

	err := attempt()
	if persistence.IsConflict(err) {
		t.logger.Warn("Configuration save conflicted, retrying once")

		return attempt()
	}

	return err
}

func (t *Trigger) sanitizeCreate(req CreateTriggerRequest) (CreateTriggerRequest, error) {
	var err error

	if req.TriggerTypeID, err = sanitizeField("trigger", req.TriggerTypeID); err != nil {
		return req, err
	}

	if req.Name, err = sanitizeField("name", req.Name); err != nil {
		return req, err
	}

	if req.EventName, err = sanitizeField("event_name", req.EventName); err != nil {
		return req, err
	}

	if req.EventName == "" {
		req.EventName = req.Name
	}

	if req.Name == "" {
		req.Name = req.EventName
	}

	if err := t.validator.Struct(req); err != nil {
		return req, mapValidatorError("Create", err)
	}

	mappings, err := t.sanitizeMappings("Create", req.Mappings)
	if err != nil {
		return req, err
	}

	req.Mappings = mappings

	return req, nil
}

// sanitizeMappings trims keys and values and rejects control characters.
// Duplicate keys are permitted but discouraged: they produce a warning, not
// an error.
func (t *Trigger) sanitizeMappings(op string, mappings []models.Mapping) ([]models.Mapping, error) {
	seen := make(map[string]bool, len(mappings))
	sanitized := make([]models.Mapping, 0, len(mappings))

	for _, mapping := range mappings {
		key, err := sanitizeField("key", mapping.Key)
		if err != nil {
			return nil, err
		}

		if key == "" {
			return nil, NewValidationError(op, "MAPPING_KEY_REQUIRED", "mapping key cannot be blank", ErrMappingKeyRequired)
		}

		value, err := sanitizeField("value", mapping.Value)
		if err != nil {
			return nil, err
		}

		if seen[key] {
			t.logger.Warn("Duplicate mapping key", "key", key)
		}

		seen[key] = true
		sanitized = append(sanitized, models.Mapping{Key: key, Value: value})
	}

	return sanitized, nil
}

// sanitizeField trims surrounding whitespace and rejects control
// characters, which have no legitimate place in names, keys, or mapping
// values.
func sanitizeField(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", NewValidationError(
				"sanitize",
				"CONTROL_CHARACTERS",
				fmt.Sprintf("field '%s' contains control characters", field),
				ErrControlCharacters,
			)
		}
	}

	return trimmed, nil
}

func mapValidatorError(op string, err error) error {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fieldError := range fieldErrors {
			switch fieldError.StructField() {
			case "TriggerTypeID":
				return NewValidationError(op, "TRIGGER_TYPE_REQUIRED", "trigger type cannot be blank", ErrTriggerTypeRequired)
			case "EventName":
				return NewValidationError(op, "EVENT_NAME_REQUIRED", "event name cannot be blank", ErrEventNameRequired)
			}
		}
	}

	return err
}
