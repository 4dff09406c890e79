package model_test

import (
	"testing"

	"go-content-pipeline/internal/model"
)

func TestRecord_URL(t *testing.T) {
	cases := map[string]string{
		"posts/2025/03/hello/index.md": "/posts/2025/03/hello/",
		"guides/setup/index.md":        "/guides/setup/",
		"about.md":                     "/about/",
		"index.md":                     "/",
		"":                             "/",
	}
	for in, want := range cases {
		if got := (model.Record{Path: in}).URL(); got != want {
			t.Fatalf("URL(%q) = %q, want %q", in, got, want)
		}
	}
}
