package users

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
	"github.com/angelmondragon/mercadito-backend/pkg/validation"
)

// NewLocations validates the registration locations, assigns ids and returns
// them with the index of the current one. Exactly one location ends up
// flagged default: the first one requested as default, else the first.
func NewLocations(inputs []LocationInput) (types.UserLocations, int, error) {
	if len(inputs) == 0 {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "at least one location is required")
	}
	out := make(types.UserLocations, 0, len(inputs))
	current := -1
	for i, in := range inputs {
		loc, err := buildLocation(in)
		if err != nil {
			return nil, 0, err
		}
		if loc.IsDefault && current == -1 {
			current = i
		}
		loc.IsDefault = false
		out = append(out, loc)
	}
	if current == -1 {
		current = 0
	}
	out[current].IsDefault = true
	return out, current, nil
}

func buildLocation(in LocationInput) (types.UserLocation, error) {
	alias := strings.TrimSpace(in.Alias)
	if alias == "" {
		return types.UserLocation{}, pkgerrors.New(pkgerrors.CodeValidation, "location alias is required")
	}
	mapsURL := strings.TrimSpace(in.GoogleMapsURL)
	if !validation.IsHTTPURL(mapsURL) {
		return types.UserLocation{}, pkgerrors.New(pkgerrors.CodeValidation, "location googleMapsUrl must be a valid URL")
	}
	return types.UserLocation{
		ID:            uuid.New(),
		Alias:         alias,
		GoogleMapsURL: mapsURL,
		IsDefault:     in.IsDefault,
	}, nil
}

// AddLocation appends a location. A default location (or the very first one)
// becomes the current location.
func AddLocation(user *models.User, in LocationInput) (types.UserLocation, error) {
	loc, err := buildLocation(in)
	if err != nil {
		return types.UserLocation{}, err
	}
	if len(user.Locations) == 0 {
		loc.IsDefault = true
	}
	user.Locations = append(user.Locations, loc)
	if loc.IsDefault {
		makeCurrent(user, len(user.Locations)-1)
	}
	return loc, nil
}

// UpdateLocation applies patch to the location with id.
func UpdateLocation(user *models.User, id uuid.UUID, patch LocationPatch) (types.UserLocation, error) {
	idx := user.Locations.IndexOf(id)
	if idx < 0 {
		return types.UserLocation{}, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
	}
	loc := user.Locations[idx]
	if patch.Alias != nil {
		alias := strings.TrimSpace(*patch.Alias)
		if alias == "" {
			return types.UserLocation{}, pkgerrors.New(pkgerrors.CodeValidation, "location alias is required")
		}
		loc.Alias = alias
	}
	if patch.GoogleMapsURL != nil {
		mapsURL := strings.TrimSpace(*patch.GoogleMapsURL)
		if !validation.IsHTTPURL(mapsURL) {
			return types.UserLocation{}, pkgerrors.New(pkgerrors.CodeValidation, "location googleMapsUrl must be a valid URL")
		}
		loc.GoogleMapsURL = mapsURL
	}
	user.Locations[idx] = loc
	if patch.IsDefault != nil && *patch.IsDefault {
		makeCurrent(user, idx)
	}
	return user.Locations[idx], nil
}

// DeleteLocation removes the location with id. The only location cannot be
// removed. Removing the current location resets the index to 0; removing one
// below it shifts the index down.
func DeleteLocation(user *models.User, id uuid.UUID) error {
	idx := user.Locations.IndexOf(id)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
	}
	if len(user.Locations) == 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot delete the only location")
	}

	wasDefault := user.Locations[idx].IsDefault
	remaining := make(types.UserLocations, 0, len(user.Locations)-1)
	remaining = append(remaining, user.Locations[:idx]...)
	remaining = append(remaining, user.Locations[idx+1:]...)
	user.Locations = remaining

	switch {
	case idx == user.CurrentLocationIndex:
		user.CurrentLocationIndex = 0
	case idx < user.CurrentLocationIndex:
		user.CurrentLocationIndex--
	}
	if wasDefault {
		user.Locations[user.CurrentLocationIndex].IsDefault = true
	}
	return nil
}

// SetCurrentLocation selects the location with id and marks it default.
func SetCurrentLocation(user *models.User, id uuid.UUID) (types.UserLocation, error) {
	idx := user.Locations.IndexOf(id)
	if idx < 0 {
		return types.UserLocation{}, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
	}
	makeCurrent(user, idx)
	return user.Locations[idx], nil
}

func makeCurrent(user *models.User, idx int) {
	for i := range user.Locations {
		user.Locations[i].IsDefault = i == idx
	}
	user.CurrentLocationIndex = idx
}
