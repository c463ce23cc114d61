package model

import (
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Category
		wantErr bool
	}{
		{name: "plain", in: "food", want: CategoryFood},
		{name: "mixed case and spaces", in: "  Legal ", want: CategoryLegal},
		{name: "extended tag", in: "transport", want: CategoryTransport},
		{name: "unknown", in: "pets", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCategory(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCategory(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCategories_DeduplicatesAndOrders(t *testing.T) {
	got, err := ParseCategories([]string{"legal", "food", "FOOD"})
	if err != nil {
		t.Fatalf("ParseCategories() error = %v", err)
	}
	want := []Category{CategoryFood, CategoryLegal}
	if len(got) != len(want) {
		t.Fatalf("ParseCategories() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseCategories()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseCategories_RejectsUnknown(t *testing.T) {
	if _, err := ParseCategories([]string{"food", "astrology"}); err == nil {
		t.Fatal("ParseCategories() should reject unknown tags")
	}
}

func TestCategorySet_DropsUnknownTags(t *testing.T) {
	set := NewCategorySet(CategoryFood, Category("astrology"))

	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
	if set.Has(Category("astrology")) {
		t.Error("unknown tag must never be a member")
	}
}

func TestCategorySet_Intersect(t *testing.T) {
	a := NewCategorySet(CategoryLegal, CategoryFood, CategoryHealth)
	b := NewCategorySet(CategoryHealth, CategoryLegal, CategoryWork)

	got := a.Intersect(b)
	want := []Category{CategoryHealth, CategoryLegal}
	if len(got) != len(want) {
		t.Fatalf("Intersect() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Intersect()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCategorySet_NilIsEmpty(t *testing.T) {
	var set CategorySet
	if set.Has(CategoryFood) || set.Len() != 0 {
		t.Error("nil set should behave as empty")
	}
	if got := set.Intersect(NewCategorySet(CategoryFood)); len(got) != 0 {
		t.Errorf("Intersect() on nil set = %v, want empty", got)
	}
}

func TestHelpSet(t *testing.T) {
	volunteer := &User{Role: RoleVolunteer, HelpCategories: []Category{CategoryFood}}
	if set, ok := volunteer.HelpSet(); !ok || !set.Has(CategoryFood) {
		t.Errorf("volunteer HelpSet() = %v, %v", set, ok)
	}

	empty := &User{Role: RoleVolunteer}
	if set, ok := empty.HelpSet(); !ok || set.Len() != 0 {
		t.Errorf("empty volunteer HelpSet() = %v, %v; want empty, true", set, ok)
	}

	migrant := &User{Role: RoleMigrant, HelpCategories: []Category{CategoryFood}}
	if _, ok := migrant.HelpSet(); ok {
		t.Error("migrant must not expose a help set")
	}

	var anonymous *User
	if _, ok := anonymous.HelpSet(); ok {
		t.Error("nil user must not expose a help set")
	}
}
