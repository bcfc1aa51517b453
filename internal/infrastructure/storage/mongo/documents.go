package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

var _ domain.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps document halves keyed by a string _id.
type DocumentStore struct {
	db *mongo.Database
}

// NewID implements domain.DocumentStore with an ObjectID rendered as hex.
func (s *DocumentStore) NewID() string {
	return bson.NewObjectID().Hex()
}

// Insert implements domain.DocumentStore.
func (s *DocumentStore) Insert(ctx context.Context, collection string, doc domain.Document) (string, error) {
	out := toBSON(doc)
	id, _ := out[domain.DocID].(string)
	if id == "" {
		id = s.NewID()
		out[domain.DocID] = id
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, out); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("insert %s %s: duplicate key: %w", collection, id, err)
		}
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return id, nil
}

// FindOne implements domain.DocumentStore.
func (s *DocumentStore) FindOne(ctx context.Context, collection, field string, value any) (domain.Document, error) {
	var m bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{field: toValue(value)}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	return fromBSON(m), nil
}

// FindMany implements domain.DocumentStore.
func (s *DocumentStore) FindMany(ctx context.Context, collection, field string, values []any) ([]domain.Document, error) {
	if len(values) == 0 {
		return nil, nil
	}
	in := make(bson.A, len(values))
	for i, v := range values {
		in[i] = toValue(v)
	}
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{field: bson.M{"$in": in}})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	out := make([]domain.Document, len(docs))
	for i, d := range docs {
		out[i] = fromBSON(d)
	}
	return out, nil
}

// Upsert implements domain.DocumentStore. An inserted document gets a string _id.
func (s *DocumentStore) Upsert(ctx context.Context, collection, field string, value any, set domain.Document) error {
	fields := toBSON(set)
	delete(fields, domain.DocID)
	update := bson.M{}
	if len(fields) > 0 {
		update["$set"] = fields
	}
	if field == domain.DocID {
		update["$setOnInsert"] = bson.M{domain.DocID: toValue(value)}
	} else {
		update["$setOnInsert"] = bson.M{domain.DocID: s.NewID()}
	}
	_, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{field: toValue(value)}, update,
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", collection, err)
	}
	return nil
}

// toBSON converts a document to its stored shape. Decimals become Decimal128 so
// coordinates keep their precision.
func toBSON(doc domain.Document) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = toValue(v)
	}
	return out
}

func toValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		if d, err := bson.ParseDecimal128(x.String()); err == nil {
			return d
		}
		return x.String()
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		return toBSON(x)
	case domain.Document:
		return toBSON(x)
	case []any:
		out := make(bson.A, len(x))
		for i, e := range x {
			out[i] = toValue(e)
		}
		return out
	default:
		return v
	}
}

// fromBSON converts a stored document back to plain Go values.
func fromBSON(m bson.M) domain.Document {
	out := make(domain.Document, len(m))
	for k, v := range m {
		out[k] = fromValue(v)
	}
	return out
}

func fromValue(v any) any {
	switch x := v.(type) {
	case bson.Decimal128:
		if d, err := decimal.NewFromString(x.String()); err == nil {
			return d
		}
		return x.String()
	case bson.ObjectID:
		return x.Hex()
	case bson.DateTime:
		return x.Time().Local().Format(time.DateTime)
	case int32:
		return int64(x)
	case bson.M:
		return map[string]any(fromBSON(x))
	case bson.D:
		return map[string]any(fromBSON(dToM(x)))
	case bson.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromValue(e)
		}
		return out
	default:
		return v
	}
}

func dToM(d bson.D) bson.M {
	m := make(bson.M, len(d))
	for _, e := range d {
		m[e.Key] = e.Value
	}
	return m
}
