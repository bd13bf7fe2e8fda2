package stores

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
	"github.com/angelmondragon/mercadito-backend/pkg/validation"
)

// ValidateSchedule accepts exactly seven entries, one per weekday, with
// HH:mm open and close times.
func ValidateSchedule(schedule types.Schedule) error {
	if len(schedule) != 7 {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "schedule must have exactly 7 entries, got %d", len(schedule))
	}
	seen := make(map[enums.Weekday]bool, 7)
	for _, entry := range schedule {
		day, err := enums.ParseWeekday(string(entry.Day))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "schedule day is invalid")
		}
		if seen[day] {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "schedule repeats %s", day)
		}
		seen[day] = true
		if !validation.IsHHMM(entry.Open) || !validation.IsHHMM(entry.Close) {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "schedule times for %s must be HH:mm", day)
		}
	}
	return nil
}

func normalizeSchedule(schedule types.Schedule) types.Schedule {
	out := make(types.Schedule, len(schedule))
	for i, entry := range schedule {
		day, _ := enums.ParseWeekday(string(entry.Day))
		entry.Day = day
		out[i] = entry
	}
	return out
}

// NormalizeCategories validates a non-empty category set and drops repeats.
func NormalizeCategories(raw []string) (pq.StringArray, error) {
	if len(raw) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one category is required")
	}
	out := make(pq.StringArray, 0, len(raw))
	seen := make(map[enums.StoreCategory]bool, len(raw))
	for _, value := range raw {
		category, err := enums.ParseStoreCategory(strings.TrimSpace(value))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category").WithDetails(map[string]any{
				"allowed": enums.StoreCategories(),
			})
		}
		if seen[category] {
			continue
		}
		seen[category] = true
		out = append(out, string(category))
	}
	return out, nil
}

func validateLocation(loc types.StoreLocation) (types.StoreLocation, error) {
	loc.Alias = strings.TrimSpace(loc.Alias)
	loc.GoogleMapsURL = strings.TrimSpace(loc.GoogleMapsURL)
	if loc.Alias == "" {
		return loc, pkgerrors.New(pkgerrors.CodeValidation, "location alias is required")
	}
	if !validation.IsHTTPURL(loc.GoogleMapsURL) {
		return loc, pkgerrors.New(pkgerrors.CodeValidation, "location googleMapsUrl must be a valid URL")
	}
	return loc, nil
}

func validateImages(images []string) (pq.StringArray, error) {
	out := make(pq.StringArray, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if !validation.IsHTTPURL(img) {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "image %q is not a valid URL", img)
		}
		out = append(out, img)
	}
	return out, nil
}

func validatePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if !validation.IsE164Phone(phone) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone must be in international format")
	}
	return phone, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name must be between 1 and 100 characters")
	}
	return name, nil
}

func validateDescription(desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	if len(desc) > 500 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "description must be at most 500 characters")
	}
	return desc, nil
}

// NewStoreModel validates input and builds the row owned by ownerID.
func NewStoreModel(ownerID uuid.UUID, in CreateStoreInput) (*models.Store, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner is required")
	}
	name, err := validateName(in.Name)
	if err != nil {
		return nil, err
	}
	phone, err := validatePhone(in.Phone)
	if err != nil {
		return nil, err
	}
	categories, err := NormalizeCategories(in.Categories)
	if err != nil {
		return nil, err
	}
	description, err := validateDescription(in.Description)
	if err != nil {
		return nil, err
	}
	images, err := validateImages(in.Images)
	if err != nil {
		return nil, err
	}
	if err := ValidateSchedule(in.Schedule); err != nil {
		return nil, err
	}
	location, err := validateLocation(in.Location)
	if err != nil {
		return nil, err
	}
	return &models.Store{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Name:            name,
		ResponsibleName: strings.TrimSpace(in.ResponsibleName),
		Phone:           phone,
		Categories:      categories,
		Description:     description,
		Images:          images,
		Schedule:        normalizeSchedule(in.Schedule),
		Location:        location,
		Address:         strings.TrimSpace(in.Address),
		Social:          in.Social,
		Status:          enums.ListingStatusActive,
	}, nil
}

// applyUpdate mutates store in place. Category removal rules that need the
// database are enforced by the service.
func applyUpdate(store *models.Store, in UpdateStoreInput) error {
	if in.Name != nil {
		name, err := validateName(*in.Name)
		if err != nil {
			return err
		}
		store.Name = name
	}
	if in.ResponsibleName != nil {
		store.ResponsibleName = strings.TrimSpace(*in.ResponsibleName)
	}
	if in.Phone != nil {
		phone, err := validatePhone(*in.Phone)
		if err != nil {
			return err
		}
		store.Phone = phone
	}
	if in.Categories != nil {
		categories, err := NormalizeCategories(*in.Categories)
		if err != nil {
			return err
		}
		store.Categories = categories
	}
	if in.Description != nil {
		desc, err := validateDescription(*in.Description)
		if err != nil {
			return err
		}
		store.Description = desc
	}
	if in.Images != nil {
		images, err := validateImages(*in.Images)
		if err != nil {
			return err
		}
		store.Images = images
	}
	if in.Schedule != nil {
		if err := ValidateSchedule(*in.Schedule); err != nil {
			return err
		}
		store.Schedule = normalizeSchedule(*in.Schedule)
	}
	if in.Location != nil {
		loc, err := validateLocation(*in.Location)
		if err != nil {
			return err
		}
		store.Location = loc
	}
	if in.Address != nil {
		store.Address = strings.TrimSpace(*in.Address)
	}
	if in.Social != nil {
		store.Social = in.Social
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
		}
		store.Status = *in.Status
	}
	return nil
}
