package firebaseapp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"triplea/internal/logger"
)

var ErrNoCredentials = errors.New("no firebase credentials configured")

// CredentialsOption prefers base64 encoded service account JSON and falls
// back to a key file on disk.
func CredentialsOption(encoded, file string) (option.ClientOption, error) {
	if encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FIREBASE_CREDENTIALS_JSON: %w", err)
		}
		logger.Info("Firebase credentials loaded from environment")
		return option.WithCredentialsJSON(decoded), nil
	}

	if file == "" {
		return nil, ErrNoCredentials
	}
	if _, err := os.Stat(file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoCredentials, file, err)
	}
	logger.Info("Firebase credentials loaded from file", "path", file)
	return option.WithCredentialsFile(file), nil
}

func New(ctx context.Context, projectID, encoded, file string) (*firebase.App, error) {
	opt, err := CredentialsOption(encoded, file)
	if err != nil {
		return nil, err
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	return app, nil
}
