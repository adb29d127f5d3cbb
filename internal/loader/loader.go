// Package loader bulk-loads the merged collections of a partition into
// Elasticsearch or PostgreSQL.
package loader

import (
	"encoding/json"

	"github.com/panevka/nhsmongifyer/internal/store"
	"github.com/panevka/nhsmongifyer/pkg/collections"
	"github.com/panevka/nhsmongifyer/pkg/errors"
)

// Document is one collection entry ready to be loaded.
type Document struct {
	Kind    collections.Kind
	Branch  string
	Service string
	Key     string
	Body    json.RawMessage
}

// ID identifies the document across partitions.
func (d Document) ID() string {
	return d.Branch + "-" + d.Service + "-" + d.Key
}

// Documents reads every collection of the partition. Entries sharing a key
// collapse into the last one, so append-mode collections load once per key.
func Documents(st *store.Store) ([]Document, error) {
	layout := st.Layout()
	var docs []Document

	add := func(kind collections.Kind, key string, item any) error {
		body, err := partitionBody(item, string(layout.Branch), string(layout.Service))
		if err != nil {
			return errors.WrapStorage("encode", layout.CollectionPath(kind), err)
		}
		docs = append(docs, Document{
			Kind:    kind,
			Branch:  string(layout.Branch),
			Service: string(layout.Service),
			Key:     key,
			Body:    body,
		})
		return nil
	}

	for _, a := range store.ReadRecords[collections.AgreementInfo](st, layout.CollectionPath(collections.Agreements)) {
		if err := add(collections.Agreements, a.ID, a); err != nil {
			return nil, err
		}
	}
	for _, p := range store.ReadRecords[collections.ProviderInfo](st, layout.CollectionPath(collections.ProvidersInfo)) {
		if err := add(collections.ProvidersInfo, p.Code, p); err != nil {
			return nil, err
		}
	}
	for _, g := range store.ReadRecords[collections.ProviderGeoData](st, layout.CollectionPath(collections.ProvidersGeo)) {
		if err := add(collections.ProvidersGeo, g.Code, g); err != nil {
			return nil, err
		}
	}
	return dedupe(docs), nil
}

// partitionBody encodes item with the partition fields added.
func partitionBody(item any, branch, service string) (json.RawMessage, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["branch"] = branch
	fields["service_type"] = service
	return json.Marshal(fields)
}

func dedupe(docs []Document) []Document {
	type key struct {
		kind collections.Kind
		id   string
	}
	index := make(map[key]int, len(docs))
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		k := key{d.Kind, d.ID()}
		if i, ok := index[k]; ok {
			out[i] = d
			continue
		}
		index[k] = len(out)
		out = append(out, d)
	}
	return out
}
