package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"goscore/internal/domain/score"
)

const resultsCollection = "results"

type ResultMongoStorage struct {
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewResultMongoStorage(log *zap.SugaredLogger, mongo *mongo.Database) *ResultMongoStorage {
	return &ResultMongoStorage{
		log:   log,
		mongo: mongo,
	}
}

func (r *ResultMongoStorage) SaveResult(ctx context.Context, result score.Result) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := r.mongo.Collection(resultsCollection)

	_, err := collection.InsertOne(ctx, result)
	if err != nil {
		r.log.Errorf("failed to insert result to database: %v", err)
		return err
	}

	r.log.Infof("result inserted successfully with key: %s", result.SessionKey)
	return nil
}

func (r *ResultMongoStorage) GetResult(ctx context.Context, key string) (score.Result, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := r.mongo.Collection(resultsCollection)
	filter := bson.M{
		"session_key": key,
	}

	var res score.Result
	err := collection.FindOne(ctx, filter).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return score.Result{}, false, nil
	}
	if err != nil {
		r.log.Errorf("failed to find result %s: %v", key, err)
		return score.Result{}, false, err
	}
	return res, true, nil
}
