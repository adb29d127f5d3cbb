// Package collections defines the normalized documents written to the
// Collections directory of each partition and later bulk-loaded.
package collections

import (
	"slices"

	"github.com/panevka/nhsmongifyer/pkg/geo"
	"github.com/panevka/nhsmongifyer/pkg/nfz"
)

// File names of the three output collections.
const (
	AgreementsFile    = "AgreementsCollection.json"
	ProvidersInfoFile = "ProvidersInfoCollection.json"
	ProvidersGeoFile  = "ProvidersGeoCollection.json"
)

// Kind names one output collection.
type Kind string

// Collection kinds.
const (
	Agreements    Kind = "agreements"
	ProvidersInfo Kind = "providers_info"
	ProvidersGeo  Kind = "providers_geo"
)

// Kinds returns every collection kind.
func Kinds() []Kind {
	return []Kind{Agreements, ProvidersInfo, ProvidersGeo}
}

// File returns the file name holding the collection.
func (k Kind) File() string {
	switch k {
	case Agreements:
		return AgreementsFile
	case ProvidersInfo:
		return ProvidersInfoFile
	case ProvidersGeo:
		return ProvidersGeoFile
	}
	return ""
}

// ParseKind resolves a kind from its name.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// AgreementInfo is the normalized summary of one contract.
type AgreementInfo struct {
	ID           string  `json:"id" validate:"required"`
	Code         string  `json:"code" validate:"required"`
	OriginCode   string  `json:"origin_code" validate:"required"`
	ServiceType  string  `json:"service_type" validate:"required"`
	ServiceName  string  `json:"service_name" validate:"required"`
	Amount       float64 `json:"amount" validate:"gt=0"`
	ProviderCode string  `json:"provider_code" validate:"required"`
	Year         int     `json:"year" validate:"gt=0"`
}

// NewAgreementInfo projects a raw agreement. Missing optional values stay
// zero and are rejected by validation.
func NewAgreementInfo(a nfz.Agreement) AgreementInfo {
	info := AgreementInfo{
		ID:           a.ID,
		Code:         a.Attributes.Code,
		OriginCode:   a.Attributes.OriginCode,
		ServiceType:  a.Attributes.ServiceType,
		ServiceName:  a.Attributes.ServiceName,
		ProviderCode: a.Attributes.ProviderCode,
	}
	if a.Attributes.Amount != nil {
		info.Amount = *a.Attributes.Amount
	}
	if a.Attributes.Year != nil {
		info.Year = *a.Attributes.Year
	}
	return info
}

// ProviderInfo is a counterparty with the ids of every agreement it holds.
type ProviderInfo struct {
	Code           string   `json:"code" validate:"required"`
	NIP            string   `json:"nip"`
	REGON          string   `json:"regon"`
	RegistryNumber string   `json:"registry_number"`
	Name           string   `json:"name" validate:"required"`
	Phone          string   `json:"phone,omitempty"`
	Agreements     []string `json:"agreements"`
}

// NewProviderInfo seeds an entry from a provider record.
func NewProviderInfo(p nfz.Provider) ProviderInfo {
	return ProviderInfo{
		Code:           p.Attributes.Code,
		NIP:            p.Attributes.NIP,
		REGON:          p.Attributes.REGON,
		RegistryNumber: p.Attributes.RegistryNumber,
		Name:           p.Attributes.Name,
		Phone:          p.Attributes.Phone,
		Agreements:     []string{},
	}
}

// AddAgreement records id once. It reports whether the id was new.
func (p *ProviderInfo) AddAgreement(id string) bool {
	if slices.Contains(p.Agreements, id) {
		return false
	}
	p.Agreements = append(p.Agreements, id)
	return true
}

// Location is a GeoJSON point. Coordinates are [lon, lat].
type Location struct {
	Type        string     `json:"type" validate:"eq=Point"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewPoint builds a point from longitude and latitude.
func NewPoint(lon, lat float64) Location {
	return Location{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

// Lon returns the longitude.
func (l Location) Lon() float64 { return l.Coordinates[0] }

// Lat returns the latitude.
func (l Location) Lat() float64 { return l.Coordinates[1] }

// ProviderGeoData is the geographic document of one provider.
type ProviderGeoData struct {
	Code           string   `json:"code" validate:"required"`
	City           string   `json:"city" validate:"required"`
	Street         string   `json:"street" validate:"required"`
	BuildingNumber string   `json:"building_number" validate:"required"`
	District       string   `json:"district,omitempty"`
	PostCode       string   `json:"post_code" validate:"required"`
	Voivodeship    string   `json:"voivodeship" validate:"required"`
	Location       Location `json:"location"`
}

// NewProviderGeoData projects a persisted geo entry.
func NewProviderGeoData(e geo.Entry) ProviderGeoData {
	return ProviderGeoData{
		Code:           e.ProviderCode,
		City:           e.GeoData.City,
		Street:         e.GeoData.Street,
		BuildingNumber: e.GeoData.HouseNumber,
		District:       e.GeoData.District,
		PostCode:       e.GeoData.Postcode,
		Voivodeship:    e.ProviderBranch,
		Location:       NewPoint(e.GeoData.Lon, e.GeoData.Lat),
	}
}
