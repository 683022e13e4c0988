package dbhelper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/postboard/apiv1/models"
	"github.com/postboard/apiv1/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoDatabase = "postboard"

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password"`
	Name         string             `bson:"name"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (d userDoc) model() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Name:         d.Name,
		CreatedAt:    d.CreatedAt,
	}
}

type postDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Message      string             `bson:"message"`
	Name         string             `bson:"name"`
	Creator      string             `bson:"creator"`
	Tags         []string           `bson:"tags"`
	SelectedFile string             `bson:"selectedFile"`
	Likes        []string           `bson:"likes"`
	Comments     []string           `bson:"comments"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (d postDoc) model() *models.Post {
	return &models.Post{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Message:      d.Message,
		Name:         d.Name,
		Creator:      d.Creator,
		Tags:         d.Tags,
		SelectedFile: d.SelectedFile,
		Likes:        d.Likes,
		Comments:     d.Comments,
		CreatedAt:    d.CreatedAt,
	}
}

type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
	posts  *mongo.Collection
}

// OpenMongo connects, pings and makes sure the unique email index exists.
func OpenMongo(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := newMongoStore(client, client.Database(mongoDatabaseName(uri)))
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func newMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{
		client: client,
		users:  db.Collection("users"),
		posts:  db.Collection("postmessages"),
	}
}

func mongoDatabaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultMongoDatabase
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users.email index: %w", err)
	}
	return nil
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.model(), nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	doc := userDoc{
		ID:           primitive.NewObjectID(),
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		CreatedAt:    user.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, utils.ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return doc.model(), nil
}

// posts with ids that are not ObjectIDs cannot exist
func postID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, utils.ErrNotFound
	}
	return oid, nil
}

func (s *MongoStore) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	doc := postDoc{
		ID:           primitive.NewObjectID(),
		Title:        post.Title,
		Message:      post.Message,
		Name:         post.Name,
		Creator:      post.Creator,
		Tags:         post.Tags,
		SelectedFile: post.SelectedFile,
		Likes:        post.Likes,
		Comments:     post.Comments,
		CreatedAt:    post.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := s.posts.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return doc.model(), nil
}

func (s *MongoStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	oid, err := postID(id)
	if err != nil {
		return nil, err
	}
	var doc postDoc
	if err := s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.ErrNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return doc.model(), nil
}

func (s *MongoStore) UpdatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	oid, err := postID(post.ID)
	if err != nil {
		return nil, err
	}
	res, err := s.posts.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"title":        post.Title,
		"message":      post.Message,
		"tags":         post.Tags,
		"selectedFile": post.SelectedFile,
	}})
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, utils.ErrNotFound
	}
	return post, nil
}

func (s *MongoStore) DeletePost(ctx context.Context, id string) error {
	oid, err := postID(id)
	if err != nil {
		return err
	}
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
