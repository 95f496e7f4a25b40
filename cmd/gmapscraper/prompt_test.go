package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptTarget(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		invalid bool
	}{
		{"query", "1\nrestaurants in New York\n", "https://www.google.com/maps/search/restaurants%20in%20New%20York", false},
		{"url", "2\n https://www.google.com/maps/search/pizza \n", "https://www.google.com/maps/search/pizza", false},
		{"url without newline", "2\nhttps://maps.example/x", "https://maps.example/x", false},
		{"other", "3\n", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := promptTarget(bufio.NewReader(strings.NewReader(tt.input)), &out)
			if tt.invalid {
				assert.ErrorIs(t, err, errInvalidChoice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Enter '1' for manual search")
		})
	}
}

func TestPromptPath(t *testing.T) {
	var out bytes.Buffer
	got, err := promptPath(bufio.NewReader(strings.NewReader("\n")), &out, "gmaps_data.csv")
	require.NoError(t, err)
	assert.Equal(t, "gmaps_data.csv", got)
	assert.Contains(t, out.String(), "'gmaps_data.csv'")

	got, err = promptPath(bufio.NewReader(strings.NewReader("leads.csv\n")), &out, "gmaps_data.csv")
	require.NoError(t, err)
	assert.Equal(t, "leads.csv", got)
}

func TestSessionOptions(t *testing.T) {
	cfg := testConfig(t)
	opts := sessionOptions(cfg, "https://maps.example/x")
	assert.Equal(t, "https://maps.example/x", opts.StartURL)
	assert.Equal(t, cfg.Scroll.StallLimit, opts.Scroll.StallLimit)
	assert.Equal(t, cfg.Card.DetailWait, opts.Card.DetailWait)
	assert.NotEmpty(t, opts.Locators.Feed)
}
