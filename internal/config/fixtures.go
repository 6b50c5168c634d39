package config

import (
	"context"
	"fmt"

	"github.com/go-json-experiment/json/jsontext"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"

	"github.com/as42sl/airbyte/internal/catalog"
)

// Fixtures reads fixture files from a blob bucket.
type Fixtures struct {
	bucket *blob.Bucket
}

// OpenFixtures opens the bucket at url. The caller must Close it.
func OpenFixtures(ctx context.Context, url string) (*Fixtures, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open fixtures %s: %w", url, err)
	}
	return &Fixtures{bucket: bucket}, nil
}

// Close releases the bucket.
func (f *Fixtures) Close() error {
	return f.bucket.Close()
}

// ReadJSON reads key and checks that it holds one JSON value.
func (f *Fixtures) ReadJSON(ctx context.Context, key string) (jsontext.Value, error) {
	data, err := f.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", key, err)
	}
	v := jsontext.Value(data)
	if !v.IsValid() {
		return nil, fmt.Errorf("read fixture %s: not a valid JSON document", key)
	}
	return v, nil
}

// Inputs are the fixtures the incremental suite runs on.
type Inputs struct {
	// ConnectorConfig is passed to the connector as --config.
	ConnectorConfig jsontext.Value

	// Catalog is the configured catalog as written by the user.
	Catalog *catalog.Catalog

	// FutureState is nil when no future state is configured.
	FutureState jsontext.Value
}

// LoadInputs reads every fixture the configuration references.
func (c *Config) LoadInputs(ctx context.Context) (*Inputs, error) {
	fx, err := OpenFixtures(ctx, c.FixturesURL())
	if err != nil {
		return nil, err
	}
	defer fx.Close()

	connectorConfig, err := fx.ReadJSON(ctx, c.ConfigPath)
	if err != nil {
		return nil, err
	}

	rawCatalog, err := fx.ReadJSON(ctx, c.ConfiguredCatalogPath)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Decode(rawCatalog)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.ConfiguredCatalogPath, err)
	}

	inputs := &Inputs{ConnectorConfig: connectorConfig, Catalog: cat}
	if path := c.Tests.Incremental.FutureStatePath; path != "" {
		inputs.FutureState, err = fx.ReadJSON(ctx, path)
		if err != nil {
			return nil, err
		}
	}
	return inputs, nil
}
