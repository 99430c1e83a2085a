package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// collectionAPI is the subset of collection operations the repository
// needs, shaped so it can be faked without a server.
type collectionAPI interface {
	FindOne(ctx context.Context, filter bson.M) (bson.Raw, error)
	Find(ctx context.Context, filter bson.M) ([]bson.Raw, error)
	InsertOne(ctx context.Context, document any) error
	UpdateOne(ctx context.Context, filter bson.M, update bson.M) (int64, error)
	DeleteOne(ctx context.Context, filter bson.M) (int64, error)
	CountDocuments(ctx context.Context, filter bson.M) (int64, error)
}

// collectionWrapper adapts *mongo.Collection to collectionAPI.
type collectionWrapper struct{ c *mongo.Collection }

func (w collectionWrapper) FindOne(ctx context.Context, filter bson.M) (bson.Raw, error) {
	return w.c.FindOne(ctx, filter).Raw()
}

func (w collectionWrapper) Find(ctx context.Context, filter bson.M) ([]bson.Raw, error) {
	cur, err := w.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []bson.Raw
	for cur.Next(ctx) {
		// Current is reused by the cursor.
		out = append(out, append(bson.Raw(nil), cur.Current...))
	}
	return out, cur.Err()
}

func (w collectionWrapper) InsertOne(ctx context.Context, document any) error {
	_, err := w.c.InsertOne(ctx, document)
	return err
}

func (w collectionWrapper) UpdateOne(ctx context.Context, filter bson.M, update bson.M) (int64, error) {
	res, err := w.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (w collectionWrapper) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	res, err := w.c.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (w collectionWrapper) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	return w.c.CountDocuments(ctx, filter)
}
