// Package repo stores assessment reports in Cloud Firestore.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/HendryAvila/lifetest/internal/report"
)

// Collection is where reports live.
const Collection = "reports"

// timeNow is replaced in tests.
var timeNow = time.Now

// FirestoreRepository implements report.Repository on a Firestore collection.
type FirestoreRepository struct {
	app    *firebase.App
	client *firestore.Client
}

var _ report.Repository = (*FirestoreRepository)(nil)

// NewFirestoreRepository connects with a service account key file. An empty
// credentials path falls back to application default credentials.
func NewFirestoreRepository(ctx context.Context, credentialsFile, projectID string) (*FirestoreRepository, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting firestore client: %w", err)
	}
	return &FirestoreRepository{app: app, client: client}, nil
}

// Save writes the report under its id, generating one when empty.
func (r *FirestoreRepository) Save(ctx context.Context, rec *report.Record) (string, error) {
	if rec.ID == "" {
		rec.ID = report.NewID()
	}
	doc := toDoc(*rec, timeNow())
	if _, err := r.client.Collection(Collection).Doc(rec.ID).Set(ctx, doc); err != nil {
		return "", fmt.Errorf("%w: saving report: %v", report.ErrUnavailable, err)
	}
	return rec.ID, nil
}

// Get reads one report.
func (r *FirestoreRepository) Get(ctx context.Context, id string) (*report.Record, error) {
	snap, err := r.client.Collection(Collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("report %q: %w", id, report.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading report: %v", report.ErrUnavailable, err)
	}
	var doc reportDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decoding report %q: %w", id, err)
	}
	rec := fromDoc(snap.Ref.ID, doc)
	return &rec, nil
}

// List returns all reports ordered by creation time.
func (r *FirestoreRepository) List(ctx context.Context) ([]report.Record, error) {
	iter := r.client.Collection(Collection).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []report.Record
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: listing reports: %v", report.ErrUnavailable, err)
		}
		var doc reportDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decoding report %q: %w", snap.Ref.ID, err)
		}
		out = append(out, fromDoc(snap.Ref.ID, doc))
	}
	return out, nil
}

// Close releases the Firestore client.
func (r *FirestoreRepository) Close() error {
	return r.client.Close()
}
