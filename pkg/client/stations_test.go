package client

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStationIdentifiers(t *testing.T) {
	cases := []struct {
		name string
		body string
		want []string
	}{
		{name: "strings", body: `["1001","1002"]`, want: []string{"1001", "1002"}},
		{name: "numbers", body: `[1001, 2.5, 1e21]`, want: []string{"1001", "2.5", "1e+21"}},
		{name: "booleans", body: `[true,false]`, want: []string{"true", "false"}},
		{name: "rows", body: `[["Byrd"],["Gill","2"]]`, want: []string{"Byrd", "Gill,2"}},
		{name: "row with null", body: `[["Byrd",null]]`, want: []string{"Byrd,"}},
		{name: "empty", body: `[]`, want: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var payload any
			if err := json.Unmarshal([]byte(tc.body), &payload); err != nil {
				t.Fatalf("decode: %v", err)
			}
			got, err := StationIdentifiers(payload)
			if err != nil {
				t.Fatalf("identifiers: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("identifiers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStationIdentifiers_Rejects(t *testing.T) {
	for _, body := range []string{`null`, `"1001"`, `{"a":1}`, `[null]`, `[{"a":1}]`, `[[{"a":1}]]`} {
		var payload any
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
		if _, err := StationIdentifiers(payload); !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("%s: expected ErrMalformedResponse, got %v", body, err)
		}
	}
}
