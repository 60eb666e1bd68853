package catalog

import (
	"errors"
	"testing"
)

func TestLookupKnownAndUnknown(t *testing.T) {
	c := Default()

	def, err := c.Lookup(KindCV, ParamDewPoint)
	if err != nil {
		t.Fatalf("lookup dew point: %v", err)
	}
	if def.Name != "Dew Point" || def.Unit != "°C" || def.Decimals != 1 || !def.IsNew {
		t.Fatalf("unexpected definition: %+v", def)
	}

	for _, id := range []int{-1, 9, 15, 99} {
		if _, err := c.Lookup(KindCV, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Lookup(cv, %d) err = %v, want ErrNotFound", id, err)
		}
	}
	if _, err := c.Lookup(KindGate, ParamTemperature); !errors.Is(err, ErrNotFound) {
		t.Fatalf("gate catalog must not resolve cv-only id 0")
	}
	var nilCatalog *Catalog
	if _, err := nilCatalog.Lookup(KindCV, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("nil catalog lookup should be ErrNotFound, got %v", err)
	}
}

func TestNilCatalogIsEmpty(t *testing.T) {
	var c *Catalog
	if got := c.List(KindCV); len(got) != 0 {
		t.Fatalf("List = %v", got)
	}
	if got := c.ListByCategory(KindGate); len(got) != 0 {
		t.Fatalf("ListByCategory = %v", got)
	}
	if got := c.Fields(); len(got) != 0 {
		t.Fatalf("Fields = %v", got)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	c := Default()
	def, _ := c.Lookup(KindGate, ParamPrecipitation)
	def.Sources[0] = "mutated"

	again, _ := c.Lookup(KindGate, ParamPrecipitation)
	if again.Sources[0] != FieldRain1h {
		t.Fatalf("catalog was mutated through a returned definition")
	}
}

func TestListByCategoryOrder(t *testing.T) {
	c := Default()
	groups := c.ListByCategory(KindCV)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	want := []Category{CategoryWeather, CategoryCelestial, CategorySpace}
	for i, g := range groups {
		if g.Category != want[i] {
			t.Fatalf("group %d = %s, want %s", i, g.Category, want[i])
		}
	}
	if first := groups[0].Items[0]; first.ID != ParamTemperature {
		t.Fatalf("weather group should start with temperature, got %d", first.ID)
	}
	if got := len(groups[0].Items); got != 8 {
		t.Fatalf("weather group size = %d, want 8", got)
	}
}

func TestListByCategoryOmitsEmptyGroups(t *testing.T) {
	c, err := New([]Definition{
		{ID: 1, Kind: KindCV, Name: "B", Category: CategorySpace},
		{ID: 2, Kind: KindCV, Name: "A", Category: CategoryWeather},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	groups := c.ListByCategory(KindCV)
	if len(groups) != 2 || groups[0].Category != CategoryWeather || groups[1].Category != CategorySpace {
		t.Fatalf("unexpected groups: %+v", groups)
	}
	if len(c.ListByCategory(KindGate)) != 0 {
		t.Fatalf("expected no gate groups")
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]Definition{
		{ID: 3, Kind: KindCV, Name: "Wind"},
		{ID: 3, Kind: KindCV, Name: "Other"},
	})
	if err == nil {
		t.Fatalf("expected duplicate id error")
	}

	// The same id under different kinds is allowed.
	if _, err := New([]Definition{{ID: 3, Kind: KindCV}, {ID: 3, Kind: KindGate}}); err != nil {
		t.Fatalf("cv and gate ids may overlap: %v", err)
	}
	if _, err := New([]Definition{{ID: 1, Kind: "pwm"}}); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestFieldsCoverCatalogSources(t *testing.T) {
	fields := Default().Fields()
	want := map[string]bool{FieldRain1h: false, FieldSnow1h: false, FieldMoonPhase: false, FieldTemperature: false}
	for _, f := range fields {
		if _, ok := want[f]; ok {
			want[f] = true
		}
	}
	for f, seen := range want {
		if !seen {
			t.Fatalf("field %s missing from Fields()", f)
		}
	}
}

func TestChannelName(t *testing.T) {
	if got := KindGate.ChannelName(1); got != "gate2" {
		t.Fatalf("ChannelName = %q", got)
	}
	if _, err := ParseKind("gate"); err != nil {
		t.Fatalf("ParseKind(gate): %v", err)
	}
	if _, err := ParseKind("CV"); err == nil {
		t.Fatalf("ParseKind is case sensitive")
	}
}
