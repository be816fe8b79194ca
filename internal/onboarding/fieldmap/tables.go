package fieldmap

var businessInformation = newTable(tableSpec{
	name: TableBusinessInformation,
	entries: []Entry{
		{FrontendKey: "company_name", Backend: Key("legal_name"), Kind: KindPlain},
		{FrontendKey: "business_description", Backend: Key("description"), Kind: KindPlain},
		{FrontendKey: "website", Backend: Key("website_url"), Kind: KindPlain},
		{FrontendKey: "year_founded", Backend: Key("founded_year"), Kind: KindPlain},
		{FrontendKey: "headquarters_address", Backend: Key("address"), Kind: KindAddress},
		{FrontendKey: "headquarters_country", Backend: Key("country"), Kind: KindPlain},
		{FrontendKey: "social_media", Backend: Key("social_links"), Kind: KindMultiText},
		{FrontendKey: "primary_focus", Backend: Key("primary_focus"), Kind: KindArray},
		{FrontendKey: "typical_funding_structure", Backend: Key("funding_structure"), Kind: KindChoice},
		{FrontendKey: "typical_deal_size", Backend: Nested("investment_profile", "deal_size"), Kind: KindPlain},
		{FrontendKey: "target_markets", Backend: Nested("investment_profile", "target_markets"), Kind: KindArray},
		{FrontendKey: "track_record", Backend: Key("track_record"), Kind: KindTextAttachments},
		{FrontendKey: "past_projects", Backend: Key("projects"), Kind: KindComposite},
		{FrontendKey: "assets_under_management", Backend: Key("aum"), Kind: KindPlain},
		{FrontendKey: "regulatory_status", Backend: Nested("compliance", "regulatory_status"), Kind: KindChoice},
		{FrontendKey: "sec_registered", Backend: Nested("compliance", "sec_registered"), Kind: KindBoolean},
		{FrontendKey: "sec_registration_number", Backend: Nested("compliance", "sec_registration_number"), Kind: KindPlain},
		{FrontendKey: "has_litigation", Backend: Nested("compliance", "has_litigation"), Kind: KindBoolean},
		{FrontendKey: "litigation_details", Backend: Nested("compliance", "litigation_details"), Kind: KindPlain},
		{FrontendKey: "pitch_deck", Backend: Nested("documents", "pitch_deck"), Kind: KindFile},
		{FrontendKey: "operating_agreement", Backend: Nested("documents", "operating_agreement"), Kind: KindFile},
		{FrontendKey: "financial_statements", Backend: Nested("documents", "financial_statements"), Kind: KindFiles},
	},
	required: []Path{
		Key("legal_name"),
		Key("description"),
		Key("website_url"),
		Key("founded_year"),
		Key("aum"),
	},
	critical: []Path{
		Key("legal_name"),
		Key("description"),
	},
})

var representativeEmail = Nested("representative", "email")

var companyRepresentative = newTable(tableSpec{
	name: TableCompanyRepresentative,
	entries: []Entry{
		{FrontendKey: "first_name", Backend: Nested("representative", "first_name"), Kind: KindPlain},
		{FrontendKey: "last_name", Backend: Nested("representative", "last_name"), Kind: KindPlain},
		{FrontendKey: "job_title", Backend: Nested("representative", "title"), Kind: KindPlain},
		{FrontendKey: "email", Backend: representativeEmail, Kind: KindPlain},
		{FrontendKey: "phone", Backend: Nested("representative", "phone_number"), Kind: KindPlain},
		{FrontendKey: "date_of_birth", Backend: Nested("representative", "dob"), Kind: KindPlain},
		{FrontendKey: "nationality", Backend: Nested("representative", "nationality"), Kind: KindPlain},
		{FrontendKey: "id_document_type", Backend: Nested("identity_document", "type"), Kind: KindPlain},
		{FrontendKey: "id_document", Backend: Nested("identity_document", "file"), Kind: KindFile},
		{FrontendKey: "bank_name", Backend: Key("bank_name"), Kind: KindPlain},
		{FrontendKey: "account_holder_name", Backend: Key("account_holder"), Kind: KindPlain},
		{FrontendKey: "account_number", Backend: Key("account_number"), Kind: KindPlain},
		{FrontendKey: "routing_number", Backend: Key("routing_number"), Kind: KindPlain, Duplicates: []Path{Key("sort_code")}},
		{FrontendKey: "bank_country", Backend: Key("bank_country"), Kind: KindPlain},
		{FrontendKey: "account_type", Backend: Key("account_type"), Kind: KindPlain},
		{FrontendKey: "terms_accepted", Backend: Key("terms_accepted"), Kind: KindBoolean},
	},
	required: []Path{
		Nested("representative", "first_name"),
		Nested("representative", "last_name"),
		representativeEmail,
		Key("account_holder"),
		Key("account_number"),
		Key("routing_number"),
		Key("sort_code"),
		Key("bank_name"),
	},
	critical: []Path{
		Nested("representative", "first_name"),
		Nested("representative", "last_name"),
		Key("account_number"),
		Key("routing_number"),
	},
	identity: &representativeEmail,
})

// BusinessInformation maps the company, strategy, track record, compliance and
// document sections.
func BusinessInformation() *Table { return businessInformation }

// CompanyRepresentative maps the representative, identity and banking
// sections. Routing numbers are duplicated into sort_code.
func CompanyRepresentative() *Table { return companyRepresentative }
