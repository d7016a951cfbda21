package auth

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig contains connection settings for the MongoDB user repository.
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. soundsteps
	Collection string // e.g. users
	Counters   string // e.g. counters (for the guest sequence)
}

// MongoUserRepo implements UserRepository on a MongoDB backend.
type MongoUserRepo struct {
	client      *mongo.Client
	collection  *mongo.Collection
	counterColl *mongo.Collection
	ctxTimeout  time.Duration
}

type mongoUserDoc struct {
	UserID       string                 `bson:"user_id"`
	Username     string                 `bson:"username"`
	Email        string                 `bson:"email"`
	PasswordHash string                 `bson:"password_hash"`
	IsGuest      bool                   `bson:"is_guest"`
	CreatedAt    time.Time              `bson:"created_at"`
	LastActive   time.Time              `bson:"last_active"`
	Progress     map[string]interface{} `bson:"progress"`
}

// NewMongoUserRepo establishes the connection and returns the repository.
func NewMongoUserRepo(cfg MongoConfig) (*MongoUserRepo, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "soundsteps"
	}
	if cfg.Collection == "" {
		cfg.Collection = "users"
	}
	if cfg.Counters == "" {
		cfg.Counters = "counters"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	db := client.Database(cfg.Database)
	repo := &MongoUserRepo{
		client:      client,
		collection:  db.Collection(cfg.Collection),
		counterColl: db.Collection(cfg.Counters),
		ctxTimeout:  5 * time.Second,
	}

	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureIndexes creates a unique index on user_id and lookup indexes on
// email/username. Username and email are NOT unique at the index level:
// guest display names may collide with registered usernames, and uniqueness
// among registered users is enforced by the identity service.
func (m *MongoUserRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	userIDIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("userid_unique"),
	}
	emailIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_lookup"),
	}
	usernameIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetName("username_lookup"),
	}
	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{userIDIdx, emailIdx, usernameIdx})
	return err
}

func (m *MongoUserRepo) findOne(filter bson.M) (*User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	var doc mongoUserDoc
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &User{
		ID:           doc.UserID,
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		IsGuest:      doc.IsGuest,
		CreatedAt:    doc.CreatedAt,
		LastActive:   doc.LastActive,
		Progress:     doc.Progress,
	}, nil
}

// FindByID implements UserRepository.
func (m *MongoUserRepo) FindByID(id string) (*User, error) {
	return m.findOne(bson.M{"user_id": id})
}

// FindByEmail implements UserRepository.
func (m *MongoUserRepo) FindByEmail(email string) (*User, error) {
	return m.findOne(bson.M{"email": email})
}

// FindByUsername implements UserRepository.
func (m *MongoUserRepo) FindByUsername(username string) (*User, error) {
	return m.findOne(bson.M{"username": username})
}

// Save upserts the account document keyed by user_id.
func (m *MongoUserRepo) Save(user *User) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	doc := mongoUserDoc{
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		IsGuest:      user.IsGuest,
		CreatedAt:    user.CreatedAt,
		LastActive:   user.LastActive,
		Progress:     user.Progress,
	}
	_, err := m.collection.ReplaceOne(ctx,
		bson.M{"user_id": user.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}

// NextGuestID atomically increments the guest counter document.
func (m *MongoUserRepo) NextGuestID() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	res := m.counterColl.FindOneAndUpdate(ctx,
		bson.M{"_id": "guest"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	if err := res.Decode(&doc); err != nil {
		return 0, err
	}
	return int(doc.Seq), nil
}

// Close terminates the connection.
func (m *MongoUserRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
