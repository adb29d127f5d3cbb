package nfz

import "encoding/json"

// Links are the pagination links attached to pages and records.
type Links struct {
	First   string `json:"first,omitempty" validate:"omitempty,url"`
	Prev    string `json:"prev,omitempty" validate:"omitempty,url"`
	Self    string `json:"self,omitempty" validate:"omitempty,url"`
	Next    string `json:"next,omitempty" validate:"omitempty,url"`
	Last    string `json:"last,omitempty" validate:"omitempty,url"`
	Related string `json:"related,omitempty" validate:"omitempty,url"`
}

// Meta describes a page returned by the contracts API.
type Meta struct {
	Context       string `json:"@context,omitempty"`
	Count         *int   `json:"count,omitempty" validate:"omitempty,gte=0"`
	Page          *int   `json:"page,omitempty" validate:"omitempty,gt=0"`
	Limit         *int   `json:"limit,omitempty" validate:"omitempty,gt=0"`
	Title         string `json:"title,omitempty"`
	URL           string `json:"url,omitempty"`
	Provider      string `json:"provider,omitempty"`
	DatePublished string `json:"date-published,omitempty"`
	DateModified  string `json:"date-modified,omitempty"`
	Description   string `json:"description,omitempty"`
	Keywords      string `json:"keywords,omitempty"`
	Language      string `json:"language,omitempty"`
	ContentType   string `json:"content-type,omitempty"`
	IsPartOf      string `json:"is-part-of,omitempty"`
	Version       string `json:"version,omitempty"`
}

// AgreementAttributes are the contract fields of an agreement.
// Every field is optional on the wire.
type AgreementAttributes struct {
	Code                   string   `json:"code,omitempty"`
	TechnicalCode          string   `json:"technical-code,omitempty"`
	OriginCode             string   `json:"origin-code,omitempty"`
	ServiceType            string   `json:"service-type,omitempty"`
	ServiceName            string   `json:"service-name,omitempty"`
	Amount                 *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	UpdatedAt              string   `json:"updated-at,omitempty"`
	ProviderCode           string   `json:"provider-code,omitempty"`
	ProviderNIP            string   `json:"provider-nip,omitempty"`
	ProviderREGON          string   `json:"provider-regon,omitempty"`
	ProviderRegistryNumber string   `json:"provider-registry-number,omitempty"`
	ProviderName           string   `json:"provider-name,omitempty"`
	ProviderPlace          string   `json:"provider-place,omitempty"`
	Year                   *int     `json:"year,omitempty" validate:"omitempty,gt=0"`
	Branch                 Branch   `json:"branch,omitempty" validate:"omitempty,branch"`
}

// Agreement is one contract record.
type Agreement struct {
	ID         string              `json:"id" validate:"required"`
	Type       string              `json:"type,omitempty"`
	Attributes AgreementAttributes `json:"attributes"`
	Links      Links               `json:"links"`
}

// AgreementsData wraps the records of an agreements page. Records stay raw
// so that each one is validated as an Agreement on its own.
type AgreementsData struct {
	Agreements []json.RawMessage `json:"agreements" validate:"required"`
}

// AgreementsPage is the envelope returned by the agreements endpoint.
type AgreementsPage struct {
	Meta  Meta           `json:"meta"`
	Links *Links         `json:"links,omitempty"`
	Data  AgreementsData `json:"data"`
}

// HasNext reports whether another page follows.
func (p *AgreementsPage) HasNext() bool {
	return p.Links != nil && p.Links.Next != ""
}

// PageNumber returns the page number reported by the API, or fallback.
func (p *AgreementsPage) PageNumber(fallback int) int {
	if p.Meta.Page != nil {
		return *p.Meta.Page
	}
	return fallback
}

// ProviderAttributes are the counterparty fields of a provider.
type ProviderAttributes struct {
	Code           string `json:"code" validate:"required"`
	Name           string `json:"name,omitempty"`
	NIP            string `json:"nip,omitempty"`
	REGON          string `json:"regon,omitempty"`
	RegistryNumber string `json:"registry-number,omitempty"`
	Street         string `json:"street,omitempty"`
	Place          string `json:"place,omitempty"`
	PostCode       string `json:"post-code,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Commune        string `json:"commune,omitempty"`
	Branch         Branch `json:"branch,omitempty" validate:"omitempty,branch"`
}

// Provider is one counterparty record.
type Provider struct {
	ID         string             `json:"id,omitempty"`
	Type       string             `json:"type,omitempty"`
	Attributes ProviderAttributes `json:"attributes"`
	Links      *Links             `json:"links,omitempty"`
}

// ProvidersData wraps the records of a providers page.
type ProvidersData struct {
	Entries []Provider `json:"entries" validate:"required,dive"`
}

// ProvidersPage is the envelope returned by the providers endpoint.
type ProvidersPage struct {
	Meta  Meta          `json:"meta"`
	Links *Links        `json:"links,omitempty"`
	Data  ProvidersData `json:"data"`
}
