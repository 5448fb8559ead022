package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTagsUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		n    int
	}{
		{name: "array", in: `{"tags":["summer","sale"]}`, want: "summer, sale", n: 2},
		{name: "string kept as is", in: `{"tags":"summer,sale"}`, want: "summer,sale", n: 1},
		{name: "empty string", in: `{"tags":""}`, want: "", n: 0},
		{name: "null", in: `{"tags":null}`, want: "", n: 0},
		{name: "missing", in: `{}`, want: "", n: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Product
			if err := json.Unmarshal([]byte(tt.in), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(p.Tags) != tt.n {
				t.Fatalf("len(tags) = %d, want %d", len(p.Tags), tt.n)
			}
			if got := p.Tags.Join(); got != tt.want {
				t.Fatalf("Join() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTagsRejectsObjects(t *testing.T) {
	var p Product
	if err := json.Unmarshal([]byte(`{"tags":{"a":1}}`), &p); err == nil {
		t.Fatalf("expected error for object tags")
	}
}

func TestVariantLabel(t *testing.T) {
	if got := (Variant{Option2: "Blue"}).Label(0); got != "Blue" {
		t.Fatalf("label = %q, want Blue", got)
	}
	if got := (Variant{}).Label(2); got != "variant-3" {
		t.Fatalf("label = %q, want variant-3", got)
	}
}

func TestProductOmitsAbsentLists(t *testing.T) {
	data, err := json.Marshal(Product{ID: "product-1", Name: "Mug"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"variants", "options", "images", "tags"} {
		if _, ok := raw[key]; ok {
			t.Fatalf("%s present in %s", key, data)
		}
	}
}

func TestNewUploadHistory(t *testing.T) {
	h := NewUploadHistory("https://source", "dest",
		[]Product{{Name: "Mug"}, {Name: "Cup"}},
		[]Collection{{Name: "Kitchen"}},
	)
	if err := h.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(h.ProductNames) != 2 || h.ProductNames[1] != "Cup" {
		t.Fatalf("product names = %v", h.ProductNames)
	}
	if len(h.CollectionNames) != 1 {
		t.Fatalf("collection names = %v", h.CollectionNames)
	}

	bad := h
	bad.ID = "nope"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected invalid id error")
	}
	bad = h
	bad.DateTime = time.Time{}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected missing timestamp error")
	}
}
