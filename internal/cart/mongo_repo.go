package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
)

// CollectionName is the Mongo collection holding carts.
const CollectionName = "carts"

// cartDocument is the stored shape. Ids are kept as strings and money as
// decimal strings so documents stay readable and exact.
type cartDocument struct {
	ID         string         `bson:"_id"`
	SessionID  string         `bson:"sessionId"`
	StoreID    string         `bson:"storeId"`
	Items      []lineDocument `bson:"items"`
	TotalItems int            `bson:"totalItems"`
	Subtotal   string         `bson:"subtotal"`
	CreatedAt  time.Time      `bson:"createdAt"`
	UpdatedAt  time.Time      `bson:"updatedAt"`
}

type lineDocument struct {
	ProductID   string  `bson:"productId"`
	Name        string  `bson:"name"`
	Description string  `bson:"description"`
	Price       string  `bson:"price"`
	Image       string  `bson:"image"`
	Quantity    int     `bson:"quantity"`
	Note        *string `bson:"note,omitempty"`
}

// MongoRepository stores carts as documents.
type MongoRepository struct {
	coll *mongodriver.Collection
}

// NewMongoRepository wraps coll. Call EnsureIndexes once at startup.
func NewMongoRepository(coll *mongodriver.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

// EnsureIndexes creates the unique session/store index and the idle index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "storeId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("ux_carts_session_store"),
		},
		{
			Keys:    bson.D{{Key: "updatedAt", Value: 1}},
			Options: options.Index().SetName("ix_carts_updated_at"),
		},
	})
	return err
}

func (r *MongoRepository) Get(ctx context.Context, sessionID string, storeID uuid.UUID) (*models.Cart, error) {
	var doc cartDocument
	err := r.coll.FindOne(ctx, bson.M{"sessionId": sessionID, "storeId": storeID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return doc.toModel()
}

func (r *MongoRepository) Create(ctx context.Context, cart *models.Cart) error {
	if cart.ID == uuid.Nil {
		cart.ID = uuid.New()
	}
	now := time.Now().UTC()
	cart.CreatedAt = now
	cart.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, toDocument(cart)); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return ErrCartExists
		}
		return err
	}
	return nil
}

func (r *MongoRepository) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now().UTC()
	doc := toDocument(cart)
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": bson.M{
		"items":      doc.Items,
		"totalItems": doc.TotalItems,
		"subtotal":   doc.Subtotal,
		"updatedAt":  doc.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"storeId": storeID.String()})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"updatedAt": bson.M{"$lt": cutoff.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func toDocument(cart *models.Cart) cartDocument {
	lines := make([]lineDocument, 0, len(cart.Items))
	for _, line := range cart.Items {
		lines = append(lines, lineDocument{
			ProductID:   line.ProductID.String(),
			Name:        line.Name,
			Description: line.Description,
			Price:       line.Price.String(),
			Image:       line.Image,
			Quantity:    line.Quantity,
			Note:        line.Note,
		})
	}
	return cartDocument{
		ID:         cart.ID.String(),
		SessionID:  cart.SessionID,
		StoreID:    cart.StoreID.String(),
		Items:      lines,
		TotalItems: cart.TotalItems,
		Subtotal:   cart.Subtotal.String(),
		CreatedAt:  cart.CreatedAt,
		UpdatedAt:  cart.UpdatedAt,
	}
}

func (d cartDocument) toModel() (*models.Cart, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("cart id: %w", err)
	}
	storeID, err := uuid.Parse(d.StoreID)
	if err != nil {
		return nil, fmt.Errorf("cart store id: %w", err)
	}
	subtotal, err := decimal.NewFromString(d.Subtotal)
	if err != nil {
		return nil, fmt.Errorf("cart subtotal: %w", err)
	}
	lines := make(types.CartLines, 0, len(d.Items))
	for _, item := range d.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("cart line product id: %w", err)
		}
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return nil, fmt.Errorf("cart line price: %w", err)
		}
		lines = append(lines, types.CartLine{
			ProductID:   productID,
			Name:        item.Name,
			Description: item.Description,
			Price:       price,
			Image:       item.Image,
			Quantity:    item.Quantity,
			Note:        item.Note,
		})
	}
	return &models.Cart{
		ID:         id,
		SessionID:  d.SessionID,
		StoreID:    storeID,
		Items:      lines,
		TotalItems: d.TotalItems,
		Subtotal:   subtotal,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}
