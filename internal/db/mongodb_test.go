package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ShreerajShettyK/git_posts/internal/gitcollect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MockMongoClient is a mock for MongoClientInterface.
type MockMongoClient struct {
	mock.Mock
}

func (m *MockMongoClient) Ping(ctx context.Context, rp *readpref.ReadPref) error {
	args := m.Called(ctx, rp)
	return args.Error(0)
}

func (m *MockMongoClient) Database(name string, opts ...*options.DatabaseOptions) *mongo.Database {
	args := m.Called(name, opts)
	db, _ := args.Get(0).(*mongo.Database)
	return db
}

// MockCollection is a mock type for the snapshot collection.
type MockCollection struct {
	mock.Mock
}

func (m *MockCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	args := m.Called(ctx, document, opts)
	if args.Get(0) != nil {
		return args.Get(0).(*mongo.InsertOneResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestInitializeMongoDB_ConnectError(t *testing.T) {
	originalConnect := DefaultMongoConnectFunc
	defer func() { DefaultMongoConnectFunc = originalConnect }()

	DefaultMongoConnectFunc = func(ctx context.Context, uri string) (MongoClientInterface, error) {
		return nil, errors.New("connection refused")
	}

	err := InitializeMongoDB("mongodb://bad")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestInitializeMongoDB_PingError(t *testing.T) {
	originalConnect := DefaultMongoConnectFunc
	defer func() { DefaultMongoConnectFunc = originalConnect }()

	mockClient := new(MockMongoClient)
	mockClient.On("Ping", mock.Anything, mock.Anything).Return(errors.New("ping timeout"))

	DefaultMongoConnectFunc = func(ctx context.Context, uri string) (MongoClientInterface, error) {
		return mockClient, nil
	}

	err := InitializeMongoDB("mongodb://ok")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ping timeout")
}

func TestInitializeMongoDB_Success(t *testing.T) {
	originalConnect := DefaultMongoConnectFunc
	defer func() { DefaultMongoConnectFunc = originalConnect }()

	mockClient := new(MockMongoClient)
	mockClient.On("Ping", mock.Anything, mock.Anything).Return(nil)

	DefaultMongoConnectFunc = func(ctx context.Context, uri string) (MongoClientInterface, error) {
		return mockClient, nil
	}

	err := InitializeMongoDB("mongodb://ok")
	assert.NoError(t, err)
	assert.Equal(t, mockClient, MongoClient)
}

func TestSaveSnapshot(t *testing.T) {
	originalGetCollection := GetCollectionFunc
	defer func() { GetCollectionFunc = originalGetCollection }()

	mockCollection := new(MockCollection)
	GetCollectionFunc = func() CollectionInterface { return mockCollection }

	snapshot := gitcollect.Snapshot{
		Repository: "acme/demo",
		StartTime:  time.Now().Add(-time.Hour),
		EndTime:    time.Now(),
		Commits:    []gitcollect.CommitRecord{{SHA: "abc123"}},
	}

	mockCollection.On("InsertOne", mock.Anything, snapshot, mock.Anything).
		Return(&mongo.InsertOneResult{InsertedID: "id"}, nil)

	err := SaveSnapshot(context.Background(), snapshot)
	assert.NoError(t, err)
	mockCollection.AssertExpectations(t)
}

func TestSaveSnapshot_InsertError(t *testing.T) {
	originalGetCollection := GetCollectionFunc
	defer func() { GetCollectionFunc = originalGetCollection }()

	mockCollection := new(MockCollection)
	GetCollectionFunc = func() CollectionInterface { return mockCollection }

	mockCollection.On("InsertOne", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("write failed"))

	err := SaveSnapshot(context.Background(), gitcollect.Snapshot{})
	assert.Error(t, err)
}
