package merge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panevka/nhsmongifyer/internal/store"
	"github.com/panevka/nhsmongifyer/pkg/collections"
	"github.com/panevka/nhsmongifyer/pkg/errors"
	"github.com/panevka/nhsmongifyer/pkg/geo"
	"github.com/panevka/nhsmongifyer/pkg/logging"
	"github.com/panevka/nhsmongifyer/pkg/nfz"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(store.NewLayout(t.TempDir(), nfz.Mazowieckie, nfz.Hospital), logging.NewNopLogger())
	require.NoError(t, st.Initialize())
	return st
}

func agreement(id, providerCode string, amount float64) nfz.Agreement {
	year := 2025
	return nfz.Agreement{
		ID:   id,
		Type: "agreement",
		Attributes: nfz.AgreementAttributes{
			Code:         "C-" + id,
			OriginCode:   "O-" + id,
			ServiceType:  "03",
			ServiceName:  "Leczenie szpitalne",
			Amount:       &amount,
			ProviderCode: providerCode,
			Year:         &year,
		},
	}
}

func provider(code, name string) nfz.Provider {
	return nfz.Provider{
		ID: "id-" + code,
		Attributes: nfz.ProviderAttributes{
			Code:           code,
			Name:           name,
			NIP:            "5250000000",
			REGON:          "010000000",
			RegistryNumber: "000000012345",
			Branch:         nfz.Mazowieckie,
		},
	}
}

func geoEntry(code string) geo.Entry {
	return geo.Entry{
		ProviderCode:   code,
		ProviderBranch: "07",
		GeoData: geo.Result{
			DataSource:  geo.DataSource{Attribution: "OSM", License: "ODbL"},
			City:        "Warszawa",
			Street:      "Prosta",
			HouseNumber: "1",
			Postcode:    "00-001",
			District:    "Wola",
			Lon:         20.98,
			Lat:         52.23,
		},
	}
}

func seed(t *testing.T, st *store.Store, pages [][]nfz.Agreement, providers []nfz.Provider, geoEntries []geo.Entry) {
	t.Helper()
	for i, page := range pages {
		require.NoError(t, st.SavePage(page, i+1, 25))
	}
	for _, p := range providers {
		require.NoError(t, st.AppendRecord(st.Layout().ProvidersPath(), p))
	}
	for _, g := range geoEntries {
		require.NoError(t, st.AppendRecord(st.Layout().GeoPath(), g))
	}
}

func readCollection[T any](t *testing.T, st *store.Store, kind collections.Kind) []T {
	t.Helper()
	return store.ReadRecords[T](st, st.Layout().CollectionPath(kind))
}

func TestProvidersInfoGroupsAgreementsByProvider(t *testing.T) {
	st := newTestStore(t)
	seed(t, st,
		[][]nfz.Agreement{
			{agreement("A1", "P1", 10), agreement("A2", "P1", 20)},
			{agreement("A3", "P2", 30), agreement("A4", "P9", 40)},
		},
		[]nfz.Provider{provider("P1", "Szpital Bielanski"), provider("P2", "Szpital Grochowski")},
		nil)

	tl := logging.NewTestLogger(t)
	report, err := NewEngine(st, WithLogger(tl.Logger)).ProvidersInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Written)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Total)
	tl.AssertContains(t, "No provider for agreement")

	infos := readCollection[collections.ProviderInfo](t, st, collections.ProvidersInfo)
	require.Len(t, infos, 2)
	assert.Equal(t, "P1", infos[0].Code)
	assert.Equal(t, "Szpital Bielanski", infos[0].Name)
	assert.Equal(t, "000000012345", infos[0].RegistryNumber)
	assert.Equal(t, []string{"A1", "A2"}, infos[0].Agreements)
	assert.Equal(t, []string{"A3"}, infos[1].Agreements)
}

func TestProvidersInfoRerunAddsEachIDOnce(t *testing.T) {
	st := newTestStore(t)
	seed(t, st,
		[][]nfz.Agreement{{agreement("A1", "P1", 10), agreement("A2", "P1", 20)}},
		[]nfz.Provider{provider("P1", "Przychodnia")},
		nil)

	engine := NewEngine(st)
	_, err := engine.ProvidersInfo(context.Background())
	require.NoError(t, err)
	report, err := engine.ProvidersInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Written)
	assert.Equal(t, 1, report.Total)

	infos := readCollection[collections.ProviderInfo](t, st, collections.ProvidersInfo)
	require.Len(t, infos, 1)
	assert.Equal(t, []string{"A1", "A2"}, infos[0].Agreements)
}

func TestProvidersInfoSkipsInvalidEntry(t *testing.T) {
	st := newTestStore(t)
	seed(t, st,
		[][]nfz.Agreement{{agreement("A1", "P1", 10)}},
		[]nfz.Provider{provider("P1", "")},
		nil)

	report, err := NewEngine(st).ProvidersInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Written)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, readCollection[collections.ProviderInfo](t, st, collections.ProvidersInfo))
}

func TestFoldsCountEachInvalidRecord(t *testing.T) {
	st := newTestStore(t)
	seed(t, st,
		[][]nfz.Agreement{{agreement("A1", "P1", 10), agreement("A2", "P1", -1)}},
		[]nfz.Provider{provider("P1", "Przychodnia")},
		nil)
	engine := NewEngine(st)

	info, err := engine.Fold(context.Background(), collections.ProvidersInfo)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Written)
	assert.Equal(t, 1, info.Skipped)
	infos := readCollection[collections.ProviderInfo](t, st, collections.ProvidersInfo)
	require.Len(t, infos, 1)
	assert.Equal(t, []string{"A1"}, infos[0].Agreements)

	agreements, err := engine.Fold(context.Background(), collections.Agreements)
	require.NoError(t, err)
	assert.Equal(t, 1, agreements.Written)
	assert.Equal(t, 1, agreements.Skipped)
}

func TestFoldUnknownCollection(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, [][]nfz.Agreement{{agreement("A1", "P1", 10)}}, nil, nil)

	report, err := NewEngine(st).Fold(context.Background(), collections.Kind("Hospitals"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfig)
	assert.Equal(t, collections.Kind("Hospitals"), report.Collection)
	assert.Empty(t, readCollection[collections.AgreementInfo](t, st, collections.Agreements))
}

func TestProvidersGeo(t *testing.T) {
	st := newTestStore(t)
	bad := geoEntry("P2")
	bad.ProviderBranch = ""
	seed(t, st, nil, nil, []geo.Entry{geoEntry("P1"), bad})

	report, err := NewEngine(st).ProvidersGeo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Written)
	assert.Equal(t, 1, report.Skipped)

	docs := readCollection[collections.ProviderGeoData](t, st, collections.ProvidersGeo)
	require.Len(t, docs, 1)
	assert.Equal(t, "07", docs[0].Voivodeship)
	assert.Equal(t, "1", docs[0].BuildingNumber)
	assert.Equal(t, "Point", docs[0].Location.Type)
	assert.Equal(t, 20.98, docs[0].Location.Lon())
	assert.Equal(t, 52.23, docs[0].Location.Lat())
}

func TestAppendAndDedupe(t *testing.T) {
	tests := []struct {
		name    string
		dedupe  bool
		wantAgr int
		wantGeo int
	}{
		{"append", false, 4, 2},
		{"dedupe", true, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore(t)
			seed(t, st,
				[][]nfz.Agreement{{agreement("A1", "P1", 10), agreement("A2", "P1", 20)}},
				nil,
				[]geo.Entry{geoEntry("P1")})

			engine := NewEngine(st, WithDedupe(tt.dedupe))
			for i := 0; i < 2; i++ {
				_, err := engine.Agreements(context.Background())
				require.NoError(t, err)
				_, err = engine.ProvidersGeo(context.Background())
				require.NoError(t, err)
			}

			assert.Len(t, readCollection[collections.AgreementInfo](t, st, collections.Agreements), tt.wantAgr)
			assert.Len(t, readCollection[collections.ProviderGeoData](t, st, collections.ProvidersGeo), tt.wantGeo)
		})
	}
}

func TestAgreementsSkipInvalidAmount(t *testing.T) {
	st := newTestStore(t)
	noAmount := agreement("A2", "P1", 10)
	noAmount.Attributes.Amount = nil
	seed(t, st, [][]nfz.Agreement{{agreement("A1", "P1", 10), noAmount}}, nil, nil)

	report, err := NewEngine(st).Agreements(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Written)
	assert.Equal(t, 1, report.Skipped)

	infos := readCollection[collections.AgreementInfo](t, st, collections.Agreements)
	require.Len(t, infos, 1)
	assert.Equal(t, collections.AgreementInfo{
		ID:           "A1",
		Code:         "C-A1",
		OriginCode:   "O-A1",
		ServiceType:  "03",
		ServiceName:  "Leczenie szpitalne",
		Amount:       10,
		ProviderCode: "P1",
		Year:         2025,
	}, infos[0])
}

func TestAllWithEmptyPartition(t *testing.T) {
	st := newTestStore(t)
	reports, err := NewEngine(st).All(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 3)
	for _, r := range reports {
		assert.Zero(t, r.Total)
	}
}

func TestFoldCanceled(t *testing.T) {
	st := newTestStore(t)
	seed(t, st, [][]nfz.Agreement{{agreement("A1", "P1", 10)}}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(st).Fold(ctx, collections.Agreements)
	assert.ErrorIs(t, err, context.Canceled)
}
