package nfz

// ServiceType is a two-digit NFZ service category code.
type ServiceType string

// Service categories accepted by the agreements endpoint.
const (
	PrimaryCare          ServiceType = "01"
	SpecialistCare       ServiceType = "02"
	Hospital             ServiceType = "03"
	Psychiatry           ServiceType = "04"
	Rehabilitation       ServiceType = "05"
	LongTermCare         ServiceType = "06"
	Dentistry            ServiceType = "07"
	SpaTreatment         ServiceType = "08"
	MedicalSupplies      ServiceType = "09"
	EmergencyMedical     ServiceType = "10"
	PalliativeCare       ServiceType = "11"
	SeparatelyContracted ServiceType = "12"
	HealthPrograms       ServiceType = "13"
	DrugPrograms         ServiceType = "14"
	UrgentCareTransport  ServiceType = "15"
	Chemotherapy         ServiceType = "16"
	PreventionPrograms   ServiceType = "17"
)

var services = newLookupTable([][2]string{
	{"01", "PodstawowaOpiekaZdrowotna"},
	{"02", "AmbulatoryjnaOpiekaSpecjalistyczna"},
	{"03", "LeczenieSzpitalne"},
	{"04", "OpiekaPsychiatryczna"},
	{"05", "RehabilitacjaLecznicza"},
	{"06", "OpiekaDlugoterminowa"},
	{"07", "LeczenieStomatologiczne"},
	{"08", "LecznictwoUzdrowiskowe"},
	{"09", "ZaopatrzenieWWyrobyMedyczne"},
	{"10", "RatownictwoMedyczne"},
	{"11", "OpiekaPaliatywnaIHospicyjna"},
	{"12", "SwiadczeniaOdrebnieKontraktowane"},
	{"13", "ProgramyZdrowotne"},
	{"14", "ProgramyLekowe"},
	{"15", "PomocDoraznaITransportSanitarny"},
	{"16", "ChemioterapiaIProgramyLekowe"},
	{"17", "ProgramyProfilaktyczne"},
})

// ServiceName returns the category name of a service code.
func ServiceName(code string) (string, bool) {
	return services.name(code)
}

// ServiceCode returns the code of a category name, ignoring case.
func ServiceCode(name string) (string, bool) {
	return services.code(name)
}

// ParseServiceType accepts a service code or category name.
func ParseServiceType(v string) (ServiceType, bool) {
	code, ok := services.resolve(v)
	return ServiceType(code), ok
}

// ServiceTypes returns every service type in code order.
func ServiceTypes() []ServiceType {
	out := make([]ServiceType, 0, len(services.codes))
	for _, c := range services.codes {
		out = append(out, ServiceType(c))
	}
	return out
}

// Valid reports whether s is a known service type.
func (s ServiceType) Valid() bool {
	_, ok := services.name(string(s))
	return ok
}

// Name returns the category name, or the raw code when unknown.
func (s ServiceType) Name() string {
	if n, ok := services.name(string(s)); ok {
		return n
	}
	return string(s)
}

// String returns the service code.
func (s ServiceType) String() string {
	return string(s)
}
