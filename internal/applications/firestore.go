package applications

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	defaultCollection  = "merchant_applications"
	defaultDialTimeout = 10 * time.Second
	envEmulatorHost    = "FIRESTORE_EMULATOR_HOST"
)

// FirestoreConfig selects the project and, for local runs, the emulator.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
	Collection   string
}

// NewFirestoreClient dials Firestore, talking plaintext to the emulator when one is set.
func NewFirestoreClient(ctx context.Context, cfg FirestoreConfig, opts ...option.ClientOption) (*firestore.Client, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, errors.New("firestore: project id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	host := strings.TrimSpace(cfg.EmulatorHost)
	if host == "" {
		host = strings.TrimSpace(os.Getenv(envEmulatorHost))
	}
	if host != "" {
		opts = append(opts,
			option.WithoutAuthentication(),
			option.WithEndpoint(host),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore: create client: %w", err)
	}
	return client, nil
}

// FirestoreStore writes applications as documents keyed by application id.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore uses collection, or merchant_applications when empty.
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	if strings.TrimSpace(collection) == "" {
		collection = defaultCollection
	}
	return &FirestoreStore{client: client, collection: collection}
}

// Insert creates the document and fails with a conflict when the id already exists.
func (s *FirestoreStore) Insert(ctx context.Context, app Application) error {
	if s == nil || s.client == nil {
		return errors.New("applications: firestore store is not configured")
	}
	_, err := s.client.Collection(s.collection).Doc(app.ID).Create(ctx, app)
	return fromGRPC("applications.firestore.insert", err)
}

// Get implements Store.
func (s *FirestoreStore) Get(ctx context.Context, id string) (Application, error) {
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		return Application{}, fromGRPC("applications.firestore.get", err)
	}
	return decodeSnapshot(snap)
}

// List implements Store, newest first.
func (s *FirestoreStore) List(ctx context.Context, limit int) ([]Application, error) {
	q := s.client.Collection(s.collection).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	iter := q.Documents(ctx)
	defer iter.Stop()

	out := make([]Application, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fromGRPC("applications.firestore.list", err)
		}
		app, err := decodeSnapshot(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, nil
}

func decodeSnapshot(snap *firestore.DocumentSnapshot) (Application, error) {
	var app Application
	if err := snap.DataTo(&app); err != nil {
		return Application{}, fmt.Errorf("applications: decode %s: %w", snap.Ref.ID, err)
	}
	app.ID = snap.Ref.ID
	return app, nil
}
