package routes

import (
	"reflect"
	"testing"
)

func TestExtractParams(t *testing.T) {
	tests := []struct {
		name string
		rule string
		want []Param
	}{
		{
			name: "no params",
			rule: "/items",
			want: nil,
		},
		{
			name: "typed param",
			rule: "/items/<int:item_id>",
			want: []Param{{Name: "item_id", Kind: "int"}},
		},
		{
			name: "untyped param defaults to string",
			rule: "/users/<username>",
			want: []Param{{Name: "username", Kind: "string"}},
		},
		{
			name: "multiple params keep order",
			rule: "/orgs/<uuid:org_id>/files/<path:file_path>",
			want: []Param{
				{Name: "org_id", Kind: "uuid"},
				{Name: "file_path", Kind: "path"},
			},
		},
		{
			name: "mixed typed and untyped",
			rule: "/a/<x>/b/<float:y>",
			want: []Param{
				{Name: "x", Kind: "string"},
				{Name: "y", Kind: "float"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractParams(tt.rule)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractParams(%q) = %v, want %v", tt.rule, got, tt.want)
			}
		})
	}
}
