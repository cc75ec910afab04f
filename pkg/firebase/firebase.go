package firebase

import (
	"context"
	"fmt"
	"os"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/anonto42/vidspace/backend/pkg/logging"
)

// App holds the initialized Firebase app and its default storage bucket
type App struct {
	FirebaseApp *firebase.App
	Bucket      *gcs.BucketHandle
	BucketName  string
}

// InitFirebase initializes the Firebase application and resolves the media bucket
func InitFirebase(ctx context.Context, credentialsPath, bucketName string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}

	// Check if the credentials file exists
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: bucketName}, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	storageClient, err := firebaseApp.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase storage client: %w", err)
	}
	bucket, err := storageClient.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("error resolving bucket %q: %w", bucketName, err)
	}

	logging.Info().Str("bucket", bucketName).Msg("firebase storage initialized")
	return &App{FirebaseApp: firebaseApp, Bucket: bucket, BucketName: bucketName}, nil
}
