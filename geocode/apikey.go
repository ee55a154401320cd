// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// KeyLookup finds a Google Maps API key through Application Default Credentials.
type KeyLookup struct {
	// DisplayName of the API key in the Cloud project.
	DisplayName string
	// ProjectID overrides the project found in the credentials.
	ProjectID string
	Logger    zerolog.Logger
}

// ResolveAPIKey returns key when set, otherwise looks it up with ADC.
func (k *KeyLookup) ResolveAPIKey(ctx context.Context, key string) (string, error) {
	if key != "" {
		return key, nil
	}

	k.Logger.Info().Msg("GOOGLE_MAPS_API_KEY is not set, attempting to retrieve it via ADC")

	key, err := k.fromADC(ctx)
	if err != nil {
		return "", fmt.Errorf("retrieving API key via ADC: %w", err)
	}

	k.Logger.Info().Msg("retrieved Google Maps API key via ADC")

	return key, nil
}

func (k *KeyLookup) fromADC(ctx context.Context) (string, error) {
	projectID := k.ProjectID
	if projectID == "" {
		creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return "", fmt.Errorf("finding default credentials: %w", err)
		}

		projectID = creds.ProjectID
	}

	if projectID == "" {
		return "", errors.New("no project ID in credentials, set one explicitly")
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != k.DisplayName {
			continue
		}

		// ListKeys redacts the secret, it has to be fetched on its own.
		k.Logger.Debug().Str("key", key.Name).Msg("found key resource, retrieving secret")

		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.Name})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("key %q has an empty key string", k.DisplayName)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("key with display name %q not found in project %s", k.DisplayName, projectID)
}
