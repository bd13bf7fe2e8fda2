package enums

import "fmt"

// StoreCategory is the closed set of categories a store can declare.
type StoreCategory string

const (
	StoreCategoryRestaurante StoreCategory = "Restaurante"
	StoreCategoryRopa        StoreCategory = "Ropa"
	StoreCategoryTecnologia  StoreCategory = "Tecnología"
	StoreCategoryHogar       StoreCategory = "Hogar"
	StoreCategoryOtros       StoreCategory = "Otros"
)

var validStoreCategories = []StoreCategory{
	StoreCategoryRestaurante,
	StoreCategoryRopa,
	StoreCategoryTecnologia,
	StoreCategoryHogar,
	StoreCategoryOtros,
}

// String implements fmt.Stringer.
func (c StoreCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known StoreCategory.
func (c StoreCategory) IsValid() bool {
	for _, candidate := range validStoreCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseStoreCategory converts raw input into a StoreCategory.
func ParseStoreCategory(value string) (StoreCategory, error) {
	for _, candidate := range validStoreCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid store category %q", value)
}

// StoreCategories returns the allowed category values.
func StoreCategories() []StoreCategory {
	out := make([]StoreCategory, len(validStoreCategories))
	copy(out, validStoreCategories)
	return out
}

// ListingStatus is shared by stores and products.
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusInactive ListingStatus = "inactive"
)

// String implements fmt.Stringer.
func (s ListingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ListingStatus.
func (s ListingStatus) IsValid() bool {
	return s == ListingStatusActive || s == ListingStatusInactive
}

// Toggle flips active and inactive.
func (s ListingStatus) Toggle() ListingStatus {
	if s == ListingStatusActive {
		return ListingStatusInactive
	}
	return ListingStatusActive
}

// ParseListingStatus converts raw input into a ListingStatus.
func ParseListingStatus(value string) (ListingStatus, error) {
	s := ListingStatus(value)
	if s.IsValid() {
		return s, nil
	}
	return "", fmt.Errorf("invalid status %q", value)
}
