package checkout

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/mercadito-backend/pkg/errors"
)

// LineInput is one requested product quantity, before pricing.
type LineInput struct {
	ProductID uuid.UUID
	Name      string
	Quantity  int
	Note      *string
}

// StockShortage is returned to callers when a quantity cannot be served.
type StockShortage struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName,omitempty"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

// MergeLines folds duplicate products into one line by summing quantities and
// returns the lines ordered by product id, which fixes row lock order.
// Distinct notes are joined with "; " and the first non-empty name wins.
func MergeLines(lines []LineInput) ([]LineInput, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	index := make(map[uuid.UUID]int, len(lines))
	merged := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
		}
		if line.Quantity < 1 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity for product %s must be at least 1", line.ProductID)
		}
		if pos, ok := index[line.ProductID]; ok {
			merged[pos].Quantity += line.Quantity
			merged[pos].Note = joinNotes(merged[pos].Note, line.Note)
			if merged[pos].Name == "" {
				merged[pos].Name = line.Name
			}
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	sort.Slice(merged, func(i, j int) bool {
		return bytes.Compare(merged[i].ProductID[:], merged[j].ProductID[:]) < 0
	})
	return merged, nil
}

func joinNotes(have, next *string) *string {
	if next == nil || strings.TrimSpace(*next) == "" {
		return have
	}
	if have == nil || strings.TrimSpace(*have) == "" {
		return next
	}
	for _, part := range strings.Split(*have, "; ") {
		if part == *next {
			return have
		}
	}
	joined := *have + "; " + *next
	return &joined
}

// ValidateStock rejects a requested quantity above what is on hand.
func ValidateStock(shortage StockShortage) error {
	if shortage.Requested <= shortage.Available {
		return nil
	}
	return InsufficientStock(shortage)
}

// InsufficientStock builds the typed error for a shortage.
func InsufficientStock(shortage StockShortage) error {
	label := shortage.ProductName
	if label == "" {
		label = shortage.ProductID.String()
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", label)).WithDetails(shortage)
}
