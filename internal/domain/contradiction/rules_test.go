package contradiction

import (
	"reflect"
	"testing"
)

func TestNegationRules_Polarity(t *testing.T) {
	rules := map[string]NegationRule{}
	for _, r := range DefaultNegationRules() {
		rules[r.Name] = r
	}

	tests := []struct {
		rule string
		stmt string
		want Polarity
	}{
		{"obligation", "You must rotate keys", PolarityPositive},
		{"obligation", "You must not rotate keys", PolarityNegative},
		{"obligation", "You should not rotate keys", PolarityNegative},
		{"obligation", "You may rotate keys", PolarityNone},
		{"frequency", "Always page the on-call", PolarityPositive},
		{"frequency", "Never page the on-call", PolarityNegative},
		{"requirement", "MFA is required", PolarityPositive},
		{"requirement", "MFA is not required", PolarityNegative},
		{"requirement", "MFA is optional", PolarityNegative},
		{"toggle", "Enable the feature flag", PolarityPositive},
		{"toggle", "Disable the feature flag", PolarityNegative},
		{"permission", "Force pushes are forbidden", PolarityNegative},
	}
	for _, tc := range tests {
		if got := rules[tc.rule].Polarity(tc.stmt); got != tc.want {
			t.Errorf("%s.Polarity(%q) = %v, want %v", tc.rule, tc.stmt, got, tc.want)
		}
	}
}

func TestNegationRule_Opposes(t *testing.T) {
	r := DefaultNegationRules()[0]
	if !r.Opposes("You must sign", "You must not sign") {
		t.Error("must vs must not should oppose")
	}
	if r.Opposes("You must sign", "You must sign twice") {
		t.Error("same polarity should not oppose")
	}
	if r.Opposes("You must sign", "Sign if you like") {
		t.Error("missing polarity should not oppose")
	}
}

func TestQuantities(t *testing.T) {
	got := Quantities(DefaultUnitRules(), "Alert at 80% after 2 weeks, retain logs 30 days and 1 day grace, 95 percent")
	want := []Quantity{
		{Unit: "percent", Value: 80},
		{Unit: "week", Value: 2},
		{Unit: "day", Value: 30},
	}
	if len(got) != len(want) {
		t.Fatalf("Quantities = %+v", got)
	}
	for i := range want {
		if got[i].Unit != want[i].Unit || got[i].Value != want[i].Value {
			t.Errorf("Quantities[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestQuantities_NormalizesUnits(t *testing.T) {
	a := Quantities(DefaultUnitRules(), "wait 1 hour")
	b := Quantities(DefaultUnitRules(), "wait 3 hours")
	if len(a) != 1 || len(b) != 1 || a[0].Unit != "hour" || b[0].Unit != "hour" {
		t.Errorf("a = %+v, b = %+v", a, b)
	}
}

func TestConflict(t *testing.T) {
	units := DefaultUnitRules()
	unit, va, vb, ok := Conflict(
		Quantities(units, "within 5 minutes"),
		Quantities(units, "within 15 minutes"),
	)
	if !ok || unit != "minute" || va != 5 || vb != 15 {
		t.Errorf("Conflict = %s %v %v %v", unit, va, vb, ok)
	}

	if _, _, _, ok := Conflict(Quantities(units, "5 minutes"), Quantities(units, "5 minutes")); ok {
		t.Error("equal values should not conflict")
	}
	if _, _, _, ok := Conflict(Quantities(units, "5 minutes"), Quantities(units, "5 hours")); ok {
		t.Error("different units should not conflict")
	}
}

func TestStripNumbers(t *testing.T) {
	if got := StripNumbers("within 15 minutes or 2.5 hours"); got != "within  minutes or  hours" {
		t.Errorf("StripNumbers = %q", got)
	}
}

func TestKeyStatements(t *testing.T) {
	content := "Short one. This sentence has no indicator words at all here. " +
		"Deployments must complete within 5 minutes.\nVersion two removed the legacy path!" +
		" Rollback takes 3 steps"
	got := KeyStatements(content, 20)
	want := []string{
		"Deployments must complete within 5 minutes",
		"Version two removed the legacy path",
		"Rollback takes 3 steps",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("KeyStatements = %q, want %q", got, want)
	}
}

func TestKeyStatements_KeepsDecimals(t *testing.T) {
	got := KeyStatements("Availability must stay above 99.9% every month.", 20)
	if len(got) != 1 || got[0] != "Availability must stay above 99.9% every month" {
		t.Errorf("KeyStatements = %q", got)
	}
}

func TestExcerpt(t *testing.T) {
	if got := excerpt("héllo", 3); got != "hél" {
		t.Errorf("excerpt = %q", got)
	}
	if got := excerpt("ok", 60); got != "ok" {
		t.Errorf("excerpt = %q", got)
	}
}
