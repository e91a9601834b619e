package story

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultSessionCollection = "storyloom_sessions"

// FirestoreStore implements Store on Google Cloud Firestore, giving the
// registry a persistent backing without touching pipeline logic.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	mu         sync.RWMutex
	closed     bool
}

// FirestoreConfig holds Firestore connection configuration.
type FirestoreConfig struct {
	// ProjectID is the GCP project ID (required).
	ProjectID string
	// CredentialsFile points to a service account key; when empty,
	// Application Default Credentials are used.
	CredentialsFile string
	// Collection is the session collection name (default: "storyloom_sessions").
	Collection string
}

// NewFirestoreStore creates a Firestore-backed session store.
func NewFirestoreStore(ctx context.Context, cfg FirestoreConfig) (*FirestoreStore, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = defaultSessionCollection
	}

	return &FirestoreStore{
		client:     client,
		collection: collection,
	}, nil
}

func (f *FirestoreStore) checkClosed() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return ErrStoreClosed
	}
	return nil
}

func (f *FirestoreStore) doc(sessionID string) *firestore.DocumentRef {
	return f.client.Collection(f.collection).Doc(sessionID)
}

// Create registers a new session.
func (f *FirestoreStore) Create(ctx context.Context, sess *Session) error {
	return f.Save(ctx, sess)
}

// Get retrieves a session by ID.
func (f *FirestoreStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	if err := f.checkClosed(); err != nil {
		return nil, err
	}
	snap, err := f.doc(sessionID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestore get: %w", err)
	}
	var sess Session
	if err := snap.DataTo(&sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Save persists the session document.
func (f *FirestoreStore) Save(ctx context.Context, sess *Session) error {
	if err := f.checkClosed(); err != nil {
		return err
	}
	if _, err := f.doc(sess.ID).Set(ctx, sess); err != nil {
		return fmt.Errorf("firestore save: %w", err)
	}
	return nil
}

// Delete removes a session.
func (f *FirestoreStore) Delete(ctx context.Context, sessionID string) error {
	if err := f.checkClosed(); err != nil {
		return err
	}
	_, err := f.doc(sessionID).Delete(ctx, firestore.Exists)
	switch status.Code(err) {
	case codes.OK:
		return nil
	case codes.NotFound, codes.FailedPrecondition:
		return ErrSessionNotFound
	default:
		return fmt.Errorf("firestore delete: %w", err)
	}
}

// List returns all registered sessions.
func (f *FirestoreStore) List(ctx context.Context) ([]*Session, error) {
	if err := f.checkClosed(); err != nil {
		return nil, err
	}
	iter := f.client.Collection(f.collection).Documents(ctx)
	defer iter.Stop()

	var out []*Session
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore list: %w", err)
		}
		var sess Session
		if err := snap.DataTo(&sess); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		out = append(out, &sess)
	}
	return out, nil
}

// Close releases the Firestore client.
func (f *FirestoreStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	return f.client.Close()
}
