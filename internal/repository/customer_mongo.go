package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/umalmyha/customersync/internal/errors"
	"github.com/umalmyha/customersync/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	customersCollection     = "customers"
	shoppingListsCollection = "shoppingLists"
	sequencesCollection     = "sequences"
)

type customerDocument struct {
	ID             string `bson:"_id"`
	model.Customer `bson:",inline"`
	UpdatedAt      time.Time `bson:"updatedAt"`
	WriteSeq       int64     `bson:"writeSeq"`
}

type sequenceDocument struct {
	Name  string `bson:"_id"`
	Value int64  `bson:"value"`
}

type shoppingListDocument struct {
	Key       string    `bson:"_id"`
	Products  []string  `bson:"products"`
	CreatedAt time.Time `bson:"createdAt"`
}

type mongoCustomerRepository struct {
	customers     *mongo.Collection
	shoppingLists *mongo.Collection
	sequences     *mongo.Collection
}

func NewMongoCustomerRepository(client *mongo.Client, database string) CustomerRepository {
	db := client.Database(database)
	return &mongoCustomerRepository{
		customers:     db.Collection(customersCollection),
		shoppingLists: db.Collection(shoppingListsCollection),
		sequences:     db.Collection(sequencesCollection),
	}
}

// EnsureMongoIndexes creates lookup indexes for every weak customer key, latest write first
func EnsureMongoIndexes(ctx context.Context, client *mongo.Client, database string) error {
	keys := []string{"externalId", "masterExternalId", "companyNumber"}

	models := make([]mongo.IndexModel, 0, len(keys))
	for _, k := range keys {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: k, Value: 1}, {Key: "writeSeq", Value: -1}}})
	}

	if _, err := client.Database(database).Collection(customersCollection).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create customer indexes - %w", err)
	}
	return nil
}

func (r *mongoCustomerRepository) FindByExternalID(ctx context.Context, externalID string) (*model.Customer, error) {
	return r.findOneBy(ctx, "externalId", externalID)
}

func (r *mongoCustomerRepository) FindByMasterExternalID(ctx context.Context, externalID string) (*model.Customer, error) {
	return r.findOneBy(ctx, "masterExternalId", externalID)
}

func (r *mongoCustomerRepository) FindByCompanyNumber(ctx context.Context, companyNumber string) (*model.Customer, error) {
	return r.findOneBy(ctx, "companyNumber", companyNumber)
}

func (r *mongoCustomerRepository) findOneBy(ctx context.Context, field string, value string) (*model.Customer, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "writeSeq", Value: -1}})

	var doc customerDocument
	if err := r.customers.FindOne(ctx, bson.M{field: value}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	c := doc.Customer.WithInternalID(doc.ID)
	return &c, nil
}

func (r *mongoCustomerRepository) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	created := c
	if !created.IsInternal() {
		created = c.WithInternalID(uuid.NewString())
	}

	seq, err := r.nextWriteSeq(ctx)
	if err != nil {
		return model.Customer{}, err
	}

	doc := customerDocument{ID: *created.InternalID, Customer: created, UpdatedAt: time.Now().UTC(), WriteSeq: seq}
	if _, err := r.customers.InsertOne(ctx, &doc); err != nil {
		return model.Customer{}, err
	}
	return created, nil
}

func (r *mongoCustomerRepository) Update(ctx context.Context, c model.Customer) (model.Customer, error) {
	if !c.IsInternal() {
		return model.Customer{}, apperrors.NewEntryNotFoundErr("customer without internal id can't be updated")
	}

	seq, err := r.nextWriteSeq(ctx)
	if err != nil {
		return model.Customer{}, err
	}

	doc := customerDocument{ID: *c.InternalID, Customer: c, UpdatedAt: time.Now().UTC(), WriteSeq: seq}
	res, err := r.customers.ReplaceOne(ctx, bson.M{"_id": doc.ID}, &doc)
	if err != nil {
		return model.Customer{}, err
	}

	if res.MatchedCount == 0 {
		return model.Customer{}, apperrors.NewEntryNotFoundErr(fmt.Sprintf("customer with internal id %s doesn't exist", doc.ID))
	}
	return c, nil
}

// nextWriteSeq hands out strictly increasing number for every customer write,
// updatedAt has millisecond precision only and can't order writes made back to back
func (r *mongoCustomerRepository) nextWriteSeq(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{"$inc": bson.M{"value": int64(1)}}

	var seq sequenceDocument
	if err := r.sequences.FindOneAndUpdate(ctx, bson.M{"_id": customersCollection}, update, opts).Decode(&seq); err != nil {
		return 0, fmt.Errorf("failed to obtain customer write sequence - %w", err)
	}
	return seq.Value, nil
}

func (r *mongoCustomerRepository) UpdateShoppingList(ctx context.Context, l model.ShoppingList) error {
	doc := shoppingListDocument{Key: l.Key(), Products: l.Products, CreatedAt: time.Now().UTC()}
	if doc.Products == nil {
		doc.Products = []string{}
	}

	update := bson.M{"$setOnInsert": bson.M{"products": doc.Products, "createdAt": doc.CreatedAt}}
	if _, err := r.shoppingLists.UpdateOne(ctx, bson.M{"_id": doc.Key}, update, options.Update().SetUpsert(true)); err != nil {
		return err
	}
	return nil
}
