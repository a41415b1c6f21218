package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	DueDate     time.Time          `bson:"dueDate"`
	Status      string             `bson:"status"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d taskDocument) toTask() task {
	return task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		DueDate:     newDate(d.DueDate),
		Status:      taskStatus(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	FirstName    string             `bson:"firstName"`
	LastName     string             `bson:"lastName"`
	Email        string             `bson:"email"`
	PasswordHash []byte             `bson:"password"`
	Image        string             `bson:"image"`
}

func (d userDocument) toUser() *user {
	return &user{
		ID:           d.ID.Hex(),
		CreatedAt:    d.CreatedAt,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Image:        d.Image,
	}
}

type mongoStorage struct {
	client *mongo.Client
	tasks  *mongo.Collection
	users  *mongo.Collection
}

func openMongoStorage(ctx context.Context, uri, database string) (*mongoStorage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &mongoStorage{
		client: client,
		tasks:  db.Collection("tasks"),
		users:  db.Collection("users"),
	}

	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create users email index: %w", err)
	}
	return s, nil
}

func (s *mongoStorage) close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *mongoStorage) insertTask(ctx context.Context, t *task) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate.Time,
		Status:      string(t.Status),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.tasks.InsertOne(ctx, doc); err != nil {
		return err
	}
	*t = doc.toTask()
	return nil
}

func (s *mongoStorage) listTasks(ctx context.Context) ([]task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cur, err := s.tasks.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	tasks := make([]task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.toTask())
	}
	return tasks, nil
}

func (s *mongoStorage) getTask(ctx context.Context, id string) (*task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errRecordNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc taskDocument
	err = s.tasks.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errRecordNotFound
		}
		return nil, err
	}
	t := doc.toTask()
	return &t, nil
}

func (s *mongoStorage) updateTask(ctx context.Context, t *task) error {
	oid, err := primitive.ObjectIDFromHex(t.ID)
	if err != nil {
		return errRecordNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	set := bson.M{
		"title":       t.Title,
		"description": t.Description,
		"dueDate":     t.DueDate.Time,
		"updatedAt":   time.Now().UTC().Truncate(time.Millisecond),
	}
	if t.Status != "" {
		set["status"] = string(t.Status)
	}
	update := bson.M{"$set": set}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDocument
	err = s.tasks.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errRecordNotFound
		}
		return err
	}
	*t = doc.toTask()
	return nil
}

func (s *mongoStorage) deleteTask(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errRecordNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errRecordNotFound
	}
	return nil
}

func (s *mongoStorage) insertUser(ctx context.Context, u *user) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	doc := userDocument{
		ID:           primitive.NewObjectID(),
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Image:        u.Image,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errDuplicateEmail
		}
		return err
	}
	u.ID = doc.ID.Hex()
	u.CreatedAt = doc.CreatedAt
	return nil
}

func (s *mongoStorage) getUserByEmail(ctx context.Context, email string) (*user, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *mongoStorage) getUserByID(ctx context.Context, id string) (*user, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errRecordNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *mongoStorage) findUser(ctx context.Context, filter bson.M) (*user, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc userDocument
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errRecordNotFound
		}
		return nil, err
	}
	return doc.toUser(), nil
}
