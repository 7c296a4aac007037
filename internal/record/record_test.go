package record

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestRecord_OrderOfFirstAppearance(t *testing.T) {
	r := New()
	r.Set("AU", Scalar("Smith, J"))
	r.Set("PY", Scalar("2014"))
	r.Set("AU", Scalar("Doe, A"))

	if got := r.Tags(); !reflect.DeepEqual(got, []string{"AU", "PY"}) {
		t.Errorf("Tags() = %v, want [AU PY]", got)
	}
	if got := r.Text("AU"); got != "Doe, A" {
		t.Errorf("Text(AU) = %q, want %q", got, "Doe, A")
	}
}

func TestRecord_Append(t *testing.T) {
	r := New()
	r.Set("TI", Scalar("Title"))

	if r.Append("TI", "more") {
		t.Error("Append() to a scalar should fail")
	}
	if !r.Append("CR", "ref one") || !r.Append("CR", "ref two") {
		t.Fatal("Append() to a new tag should succeed")
	}

	v, _ := r.Get("CR")
	if !v.IsList() || !reflect.DeepEqual(v.Strings(), []string{"ref one", "ref two"}) {
		t.Errorf("CR = %v, want [ref one ref two]", v.Strings())
	}
}

func TestValue_Accessors(t *testing.T) {
	tests := []struct {
		name        string
		v           Value
		wantString  string
		wantStrings []string
	}{
		{"scalar", Scalar("x"), "x", []string{"x"}},
		{"list", List("a", "b"), "a", []string{"a", "b"}},
		{"empty list", List(), "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
			if got := tt.v.Strings(); len(got) != len(tt.wantStrings) || (len(got) > 0 && !reflect.DeepEqual(got, tt.wantStrings)) {
				t.Errorf("Strings() = %q, want %q", got, tt.wantStrings)
			}
		})
	}
}

func TestRecord_Equal(t *testing.T) {
	a := New()
	a.Set("AU", List("x", "y"))
	b := New()
	b.Set("AU", List("x", "y"))

	if !a.Equal(b) {
		t.Error("identical records should be equal")
	}
	b.Set("PY", Scalar("2014"))
	if a.Equal(b) {
		t.Error("records with different fields should differ")
	}
	c := New()
	c.Set("AU", Scalar("x"))
	if a.Equal(c) {
		t.Error("scalar and list values should differ")
	}
}

func TestRecord_MarshalJSON(t *testing.T) {
	r := New()
	r.Set("PY", Scalar("2014"))
	r.Set("AU", List("Smith, J", "Doe, A"))

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"PY":"2014","AU":["Smith, J","Doe, A"]}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}
