// Package geo models the Geoapify geocoding responses and the geographic
// entries persisted for each provider.
package geo

// DataSource credits the upstream data provider.
type DataSource struct {
	SourceName  string `json:"sourcename,omitempty"`
	Attribution string `json:"attribution" validate:"required"`
	License     string `json:"license" validate:"required"`
	URL         string `json:"url,omitempty" validate:"omitempty,url"`
}

// Timezone of a geocoded place.
type Timezone struct {
	Name             string `json:"name,omitempty"`
	OffsetSTD        string `json:"offset_STD"`
	OffsetSTDSeconds int    `json:"offset_STD_seconds"`
	OffsetDST        string `json:"offset_DST"`
	OffsetDSTSeconds int    `json:"offset_DST_seconds"`
	AbbreviationSTD  string `json:"abbreviation_STD"`
	AbbreviationDST  string `json:"abbreviation_DST"`
}

// Rank scores how well a result matches the query.
type Rank struct {
	Importance              *float64 `json:"importance,omitempty"`
	Popularity              *float64 `json:"popularity,omitempty"`
	Confidence              float64  `json:"confidence" validate:"gte=0,lte=1"`
	ConfidenceCityLevel     float64  `json:"confidence_city_level" validate:"gte=0,lte=1"`
	ConfidenceStreetLevel   float64  `json:"confidence_street_level" validate:"gte=0,lte=1"`
	ConfidenceBuildingLevel float64  `json:"confidence_building_level" validate:"gte=0,lte=1"`
	MatchType               string   `json:"match_type"`
}

// Result is one geocoded place. Address and coordinates are required.
type Result struct {
	DataSource    DataSource `json:"datasource"`
	Name          string     `json:"name,omitempty"`
	Country       string     `json:"country,omitempty"`
	CountryCode   string     `json:"country_code,omitempty"`
	State         string     `json:"state,omitempty"`
	District      string     `json:"district,omitempty"`
	County        string     `json:"county,omitempty"`
	City          string     `json:"city" validate:"required"`
	Hamlet        string     `json:"hamlet,omitempty"`
	Municipality  string     `json:"municipality,omitempty"`
	Postcode      string     `json:"postcode" validate:"required"`
	Street        string     `json:"street" validate:"required"`
	Lon           float64    `json:"lon" validate:"required,longitude"`
	Lat           float64    `json:"lat" validate:"required,latitude"`
	HouseNumber   string     `json:"housenumber" validate:"required"`
	ResultType    string     `json:"result_type,omitempty"`
	Formatted     string     `json:"formatted,omitempty"`
	AddressLine1  string     `json:"address_line1,omitempty"`
	AddressLine2  string     `json:"address_line2,omitempty"`
	Timezone      *Timezone  `json:"timezone,omitempty"`
	PlusCode      string     `json:"plus_code,omitempty"`
	PlusCodeShort string     `json:"plus_code_short,omitempty"`
	Rank          *Rank      `json:"rank,omitempty"`
	PlaceID       string     `json:"place_id,omitempty"`
}

// QueryParsed is the geocoder's interpretation of the query.
type QueryParsed struct {
	HouseNumber  string `json:"housenumber,omitempty"`
	Street       string `json:"street,omitempty"`
	Postcode     string `json:"postcode,omitempty"`
	City         string `json:"city,omitempty"`
	Country      string `json:"country,omitempty"`
	State        string `json:"state,omitempty"`
	ExpectedType string `json:"expected_type,omitempty"`
}

// Query echoes the request.
type Query struct {
	Text        string       `json:"text,omitempty"`
	HouseNumber string       `json:"housenumber,omitempty"`
	Street      string       `json:"street,omitempty"`
	Postcode    string       `json:"postcode,omitempty"`
	City        string       `json:"city,omitempty"`
	Country     string       `json:"country,omitempty"`
	State       string       `json:"state,omitempty"`
	Parsed      *QueryParsed `json:"parsed,omitempty"`
}

// Response is the envelope of geocode/search with format=json.
// Results are kept raw so each can be validated on its own.
type Response struct {
	Results []map[string]any `json:"results" validate:"required"`
	Query   Query            `json:"query"`
}

// Entry is the persisted geographic record of one provider.
type Entry struct {
	ProviderCode   string `json:"provider-code" validate:"required"`
	ProviderBranch string `json:"provider-branch"`
	GeoData        Result `json:"geo-data"`
}
