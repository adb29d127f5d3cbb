package store

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panevka/nhsmongifyer/pkg/collections"
)

func providerKey(p collections.ProviderInfo) string { return p.Code }

func TestCollectionUpsert(t *testing.T) {
	s := newTestStore(t)
	path := s.Layout().CollectionPath(collections.ProvidersInfo)

	c := OpenCollection(s, path, providerKey)
	assert.Equal(t, 0, c.Len())

	create := func() collections.ProviderInfo {
		return collections.ProviderInfo{Code: "P1", Name: "Clinic", Agreements: []string{}}
	}
	created := c.Upsert("P1", create, func(p *collections.ProviderInfo) { p.AddAgreement("A1") })
	assert.True(t, created)
	created = c.Upsert("P1", create, func(p *collections.ProviderInfo) { p.AddAgreement("A2") })
	assert.False(t, created)
	c.Upsert("P1", create, func(p *collections.ProviderInfo) { p.AddAgreement("A1") })

	require.NoError(t, c.Flush())

	reopened := OpenCollection(s, path, providerKey)
	require.Equal(t, 1, reopened.Len())
	got, ok := reopened.Get("P1")
	require.True(t, ok)
	assert.Equal(t, []string{"A1", "A2"}, got.Agreements)
}

func TestCollectionPutReplacesByKey(t *testing.T) {
	s := newTestStore(t)
	path := s.Layout().CollectionPath(collections.ProvidersGeo)

	key := func(g collections.ProviderGeoData) string { return g.Code }
	c := OpenCollection(s, path, key)
	c.Put(collections.ProviderGeoData{Code: "P1", City: "Radom"})
	c.Put(collections.ProviderGeoData{Code: "P1", City: "Płock"})
	c.Put(collections.ProviderGeoData{Code: "P2", City: "Siedlce"})
	require.NoError(t, c.Flush())

	reopened := OpenCollection(s, path, key)
	assert.Equal(t, 2, reopened.Len())
	got, _ := reopened.Get("P1")
	assert.Equal(t, "Płock", got.City)
}

func TestCollectionAppendKeepsDuplicates(t *testing.T) {
	s := newTestStore(t)
	path := s.Layout().CollectionPath(collections.Agreements)

	c := OpenCollection[collections.AgreementInfo](s, path, nil)
	c.Append(collections.AgreementInfo{ID: "A1"})
	c.Append(collections.AgreementInfo{ID: "A1"})
	require.NoError(t, c.Flush())

	assert.Equal(t, 2, OpenCollection[collections.AgreementInfo](s, path, nil).Len())
}

func TestCollectionFromCorruptFile(t *testing.T) {
	s := newTestStore(t)
	path := s.Layout().CollectionPath(collections.ProvidersInfo)
	require.NoError(t, os.WriteFile(path, []byte("[{\"code\": \"P1\"}, 42, {\"code\""), 0o644))

	c := OpenCollection(s, path, providerKey)
	assert.Equal(t, 0, c.Len())

	require.NoError(t, os.WriteFile(path, []byte(`[{"code": "P1"}, 42]`), 0o644))
	c = OpenCollection(s, path, providerKey)
	assert.Equal(t, 1, c.Len())
}

func TestCollectionFlushWithoutChanges(t *testing.T) {
	s := newTestStore(t)
	path := s.Layout().CollectionPath(collections.Agreements)

	c := OpenCollection[collections.AgreementInfo](s, path, nil)
	require.NoError(t, c.Flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}
