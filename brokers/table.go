package brokers

import (
	"strings"

	models "bandarlab/database/models_pkg"
)

// DefaultProfiles is the built-in IDX broker reference table used when the
// database carries no broker_refs rows yet. Classification here follows the
// common bandarmology reading of each desk's dominant client base; the
// admin reload path can correct any of it at runtime.
func DefaultProfiles() []Profile {
	return []Profile{
		{Code: "YP", Name: "Mirae Asset Sekuritas", Categories: []Category{CategoryRetail}},
		{Code: "PD", Name: "Indo Premier Sekuritas", Categories: []Category{CategoryRetail}},
		{Code: "CC", Name: "Mandiri Sekuritas", Categories: []Category{CategoryRetail, CategoryInstitutional}},
		{Code: "NI", Name: "BNI Sekuritas", Categories: []Category{CategoryRetail, CategoryInstitutional}},
		{Code: "SQ", Name: "BCA Sekuritas", Categories: []Category{CategoryInstitutional}},
		{Code: "KK", Name: "Phillip Sekuritas", Categories: []Category{CategoryRetail}},
		{Code: "GR", Name: "Panin Sekuritas", Categories: []Category{CategoryRetail}},
		{Code: "CP", Name: "Valbury Sekuritas", Categories: []Category{CategoryRetail}},
		{Code: "XA", Name: "NH Korindo Sekuritas", Categories: []Category{CategoryRetail}},
		{Code: "LG", Name: "Trimegah Sekuritas", Categories: []Category{CategoryRetail, CategoryInstitutional}},
		{Code: "DR", Name: "RHB Sekuritas", Categories: []Category{CategoryRetail, CategoryForeign}},
		{Code: "YU", Name: "CGS International Sekuritas", Categories: []Category{CategoryInstitutional, CategoryForeign}},
		{Code: "ZP", Name: "Maybank Sekuritas", Categories: []Category{CategoryInstitutional, CategoryForeign}},
		{Code: "AK", Name: "UBS Sekuritas", Categories: []Category{CategoryForeign}},
		{Code: "BK", Name: "J.P. Morgan Sekuritas", Categories: []Category{CategoryForeign}},
		{Code: "KZ", Name: "CLSA Sekuritas", Categories: []Category{CategoryForeign}},
		{Code: "RX", Name: "Macquarie Sekuritas", Categories: []Category{CategoryForeign}},
		{Code: "AI", Name: "UOB Kay Hian Sekuritas", Categories: []Category{CategoryForeign}},
		{Code: "CS", Name: "Credit Suisse Sekuritas", Categories: []Category{CategoryForeign}},
		{Code: "ML", Name: "Merrill Lynch Sekuritas", Categories: []Category{CategoryForeign}},
		{Code: "DX", Name: "Bahana Sekuritas", Categories: []Category{CategoryInstitutional}},
		{Code: "OD", Name: "BRI Danareksa Sekuritas", Categories: []Category{CategoryRetail, CategoryInstitutional}},
		{Code: "MG", Name: "Semesta Indovest Sekuritas", Categories: []Category{CategoryRetail}},
		{Code: "EP", Name: "MNC Sekuritas", Categories: []Category{CategoryRetail}},
		{Code: "IF", Name: "Samuel Sekuritas", Categories: []Category{CategoryInstitutional}},
		{Code: "AZ", Name: "Sucor Sekuritas", Categories: []Category{CategoryRetail}},
	}
}

// ProfilesFromRefs converts persisted broker_refs rows into profiles.
// Rows with an empty or unrecognized category list are skipped; an admin
// typo must not silently reclassify a broker as unknown-but-present.
func ProfilesFromRefs(refs []models.BrokerRef) []Profile {
	profiles := make([]Profile, 0, len(refs))
	for _, ref := range refs {
		categories := parseCategories(ref.Categories)
		if len(categories) == 0 {
			continue
		}
		profiles = append(profiles, Profile{
			Code:       strings.ToUpper(ref.Code),
			Name:       ref.Name,
			Categories: categories,
		})
	}
	return profiles
}

// RefsFromProfiles converts profiles into persistable broker_refs rows,
// used to seed an empty reference table on first start.
func RefsFromProfiles(profiles []Profile) []models.BrokerRef {
	refs := make([]models.BrokerRef, 0, len(profiles))
	for _, p := range profiles {
		parts := make([]string, 0, len(p.Categories))
		for _, c := range p.Categories {
			parts = append(parts, string(c))
		}
		refs = append(refs, models.BrokerRef{
			Code:       strings.ToUpper(p.Code),
			Name:       p.Name,
			Categories: strings.Join(parts, ","),
		})
	}
	return refs
}

func parseCategories(s string) []Category {
	var out []Category
	for _, part := range strings.Split(s, ",") {
		switch Category(strings.ToLower(strings.TrimSpace(part))) {
		case CategoryRetail:
			out = append(out, CategoryRetail)
		case CategoryInstitutional:
			out = append(out, CategoryInstitutional)
		case CategoryForeign:
			out = append(out, CategoryForeign)
		}
	}
	return out
}
