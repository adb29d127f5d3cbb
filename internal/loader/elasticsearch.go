package loader

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog"

	"github.com/panevka/nhsmongifyer/internal/store"
	"github.com/panevka/nhsmongifyer/pkg/collections"
	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/logging"
)

// mappings per collection. The geo collection indexes its GeoJSON point.
var mappings = map[collections.Kind]string{
	collections.Agreements: `{
  "mappings": {
    "properties": {
      "id":            { "type": "keyword" },
      "code":          { "type": "keyword" },
      "origin_code":   { "type": "keyword" },
      "service_type":  { "type": "keyword" },
      "service_name":  { "type": "text" },
      "amount":        { "type": "double" },
      "provider_code": { "type": "keyword" },
      "year":          { "type": "integer" },
      "branch":        { "type": "keyword" }
    }
  }
}`,
	collections.ProvidersInfo: `{
  "mappings": {
    "properties": {
      "code":            { "type": "keyword" },
      "nip":             { "type": "keyword" },
      "regon":           { "type": "keyword" },
      "registry_number": { "type": "keyword" },
      "name":            { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
      "phone":           { "type": "keyword" },
      "agreements":      { "type": "keyword" },
      "branch":          { "type": "keyword" },
      "service_type":    { "type": "keyword" }
    }
  }
}`,
	collections.ProvidersGeo: `{
  "mappings": {
    "properties": {
      "code":            { "type": "keyword" },
      "city":            { "type": "keyword" },
      "street":          { "type": "text" },
      "building_number": { "type": "keyword" },
      "district":        { "type": "keyword" },
      "post_code":       { "type": "keyword" },
      "voivodeship":     { "type": "keyword" },
      "location":        { "type": "geo_point" },
      "branch":          { "type": "keyword" },
      "service_type":    { "type": "keyword" }
    }
  }
}`,
}

// Elasticsearch loads collections with the bulk indexer, one index per
// collection kind.
type Elasticsearch struct {
	client *elasticsearch.Client
	prefix string
	logger *zerolog.Logger
}

// NewElasticsearch creates a loader for the cluster at addresses.
func NewElasticsearch(addresses []string, prefix string, logger *zerolog.Logger) (*Elasticsearch, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, errors.NewConfigError("elasticsearch", "create client", err)
	}
	return &Elasticsearch{client: client, prefix: prefix, logger: logging.OrNop(logger)}, nil
}

// Name implements ingest.Loader.
func (e *Elasticsearch) Name() string {
	return "elasticsearch"
}

// Index returns the index name of kind.
func (e *Elasticsearch) Index(kind collections.Kind) string {
	if e.prefix == "" {
		return string(kind)
	}
	return e.prefix + "_" + string(kind)
}

// EnsureIndexes creates every missing index with its mapping.
func (e *Elasticsearch) EnsureIndexes(ctx context.Context) error {
	for _, kind := range collections.Kinds() {
		index := e.Index(kind)
		res, err := e.client.Indices.Exists([]string{index}, e.client.Indices.Exists.WithContext(ctx))
		if err != nil {
			return errors.WrapTransport("elasticsearch", index, err)
		}
		res.Body.Close()
		if res.StatusCode == http.StatusOK {
			continue
		}

		res, err = e.client.Indices.Create(index,
			e.client.Indices.Create.WithBody(strings.NewReader(mappings[kind])),
			e.client.Indices.Create.WithContext(ctx))
		if err != nil {
			return errors.WrapTransport("elasticsearch", index, err)
		}
		if res.IsError() {
			msg := res.String()
			res.Body.Close()
			return errors.NewTransportError("elasticsearch", index, res.StatusCode, msg)
		}
		res.Body.Close()
		e.logger.Info().Str("index", index).Msg("Created index")
	}
	return nil
}

// Load implements ingest.Loader.
func (e *Elasticsearch) Load(ctx context.Context, st *store.Store) error {
	docs, err := Documents(st)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	if err := e.EnsureIndexes(ctx); err != nil {
		return err
	}

	var failed atomic.Int64
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client: e.client,
		OnError: func(_ context.Context, err error) {
			e.logger.Error().Err(err).Msg("Bulk indexer error")
		},
	})
	if err != nil {
		return errors.NewConfigError("elasticsearch", "create bulk indexer", err)
	}

	for _, d := range docs {
		err := bi.Add(ctx, esutil.BulkIndexerItem{
			Index:      e.Index(d.Kind),
			Action:     "index",
			DocumentID: d.ID(),
			Body:       bytes.NewReader(d.Body),
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				if err == nil {
					err = errors.New(res.Error.Reason)
				}
				e.logger.Error().Err(err).Str("index", item.Index).Str("id", item.DocumentID).Msg("Document not indexed")
			},
		})
		if err != nil {
			return errors.WrapTransport("elasticsearch", "_bulk", err)
		}
	}
	if err := bi.Close(ctx); err != nil {
		return errors.WrapTransport("elasticsearch", "_bulk", err)
	}

	stats := bi.Stats()
	e.logger.Info().
		Uint64("indexed", stats.NumIndexed).
		Uint64("failed", stats.NumFailed).
		Msg("Loaded collections into Elasticsearch")
	if n := failed.Load(); n > 0 {
		return errors.NewTransportError("elasticsearch", "_bulk", 0, fmt.Sprintf("%d documents failed", n))
	}
	return nil
}
