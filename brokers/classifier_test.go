package brokers

import (
	"testing"
)

func testProfiles() []Profile {
	return []Profile{
		{Code: "YP", Name: "Mirae Asset Sekuritas", Categories: []Category{CategoryRetail}},
		{Code: "CC", Name: "Mandiri Sekuritas", Categories: []Category{CategoryRetail, CategoryInstitutional}},
		{Code: "AK", Name: "UBS Sekuritas", Categories: []Category{CategoryForeign}},
		{Code: "NI", Name: "BNI Sekuritas", Categories: []Category{CategoryInstitutional}},
	}
}

func TestPrimaryCategoryGuardChain(t *testing.T) {
	tests := []struct {
		name       string
		categories []Category
		expected   Category
	}{
		{"retail plus institutional is mixed", []Category{CategoryRetail, CategoryInstitutional}, CategoryMixed},
		{"retail plus foreign is mixed", []Category{CategoryRetail, CategoryForeign}, CategoryMixed},
		{"foreign beats institutional", []Category{CategoryForeign, CategoryInstitutional}, CategoryForeign},
		{"institutional alone", []Category{CategoryInstitutional}, CategoryInstitutional},
		{"retail alone", []Category{CategoryRetail}, CategoryRetail},
		{"empty is unknown", nil, CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Profile{Code: "XX", Categories: tt.categories}
			if got := p.PrimaryCategory(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	c := NewClassifier(testProfiles())
	overrides := &Overrides{SmartMoney: []string{"YP"}}

	first := c.Classify("YP", overrides)
	second := c.Classify("YP", overrides)
	if first != second {
		t.Errorf("classify must be deterministic: %s vs %s", first, second)
	}
}

func TestClassifyOverridePrecedence(t *testing.T) {
	c := NewClassifier(testProfiles())

	// Smart-money override promotes a retail broker
	if got := c.Classify("YP", &Overrides{SmartMoney: []string{"YP"}}); got != CategoryInstitutional {
		t.Errorf("smart-money override expected institutional, got %s", got)
	}

	// Retail override demotes a foreign broker
	if got := c.Classify("AK", &Overrides{Retail: []string{"AK"}}); got != CategoryRetail {
		t.Errorf("retail override expected retail, got %s", got)
	}

	// Double listing: smart money wins
	both := &Overrides{SmartMoney: []string{"CC"}, Retail: []string{"CC"}}
	if got := c.Classify("CC", both); got != CategoryInstitutional {
		t.Errorf("double-listed code must classify smart money, got %s", got)
	}
}

func TestClassifyUnknownCode(t *testing.T) {
	c := NewClassifier(testProfiles())

	if got := c.Classify("ZZ", nil); got != CategoryUnknown {
		t.Errorf("unknown code expected unknown, got %s", got)
	}
	if got := c.Classify("", nil); got != CategoryUnknown {
		t.Errorf("empty code expected unknown, got %s", got)
	}
	// Case-insensitive lookup
	if got := c.Classify("yp", nil); got != CategoryRetail {
		t.Errorf("lowercase code expected retail, got %s", got)
	}
}

func TestRetailSet(t *testing.T) {
	c := NewClassifier(testProfiles())

	set := c.RetailSet(nil)
	if !set["YP"] {
		t.Error("retail broker YP must be in retail set")
	}
	if !set["CC"] {
		t.Error("mixed broker CC must be in retail set")
	}
	if set["AK"] || set["NI"] {
		t.Error("foreign/institutional brokers must not be in retail set")
	}

	// Smart-money override removes a broker from the set
	set = c.RetailSet(&Overrides{SmartMoney: []string{"YP"}})
	if set["YP"] {
		t.Error("smart-money-overridden broker must leave the retail set")
	}

	// Retail override adds a broker to the set
	set = c.RetailSet(&Overrides{Retail: []string{"AK"}})
	if !set["AK"] {
		t.Error("retail-overridden broker must join the retail set")
	}
}

func TestReloadPublishesNewSnapshot(t *testing.T) {
	c := NewClassifier(testProfiles())

	if got := c.Classify("YP", nil); got != CategoryRetail {
		t.Fatalf("expected retail before reload, got %s", got)
	}

	c.Reload([]Profile{
		{Code: "YP", Name: "Mirae Asset Sekuritas", Categories: []Category{CategoryInstitutional}},
	})

	if got := c.Classify("YP", nil); got != CategoryInstitutional {
		t.Errorf("expected institutional after reload, got %s", got)
	}
	if got := c.Classify("AK", nil); got != CategoryUnknown {
		t.Errorf("replaced snapshot must drop old codes, got %s", got)
	}
}

func TestDefaultProfilesRoundTrip(t *testing.T) {
	profiles := DefaultProfiles()
	if len(profiles) == 0 {
		t.Fatal("default profiles must not be empty")
	}

	refs := RefsFromProfiles(profiles)
	back := ProfilesFromRefs(refs)
	if len(back) != len(profiles) {
		t.Fatalf("round trip changed profile count: %d vs %d", len(back), len(profiles))
	}

	c := NewClassifier(back)
	if got := c.Classify("YP", nil); got != CategoryRetail {
		t.Errorf("YP expected retail from default table, got %s", got)
	}
	if got := c.Classify("AK", nil); got != CategoryForeign {
		t.Errorf("AK expected foreign from default table, got %s", got)
	}
}
