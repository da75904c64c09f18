package app

import "testing"

func TestWithFiveStarRating(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"existing rating bumped",
			"https://search.google.com/local/writereview?placeid=XYZ&rating=3",
			"https://search.google.com/local/writereview?placeid=XYZ&rating=5",
		},
		{
			"write-review link without rating",
			"https://search.google.com/local/writereview?placeid=XYZ",
			"https://search.google.com/local/writereview?placeid=XYZ&rating=5",
		},
		{
			"write-review link without query",
			"https://search.google.com/local/writereview",
			"https://search.google.com/local/writereview?rating=5",
		},
		{
			"non-google link untouched",
			"https://g.page/r/abc123",
			"https://g.page/r/abc123",
		},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WithFiveStarRating(tc.in); got != tc.want {
				t.Errorf("WithFiveStarRating(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
