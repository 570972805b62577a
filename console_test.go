package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamescraper/models"
	"gamescraper/search"
)

var consoleCandidates = []search.Candidate{
	{ID: "/snes/588741-super-metroid", DisplayName: "Super Metroid"},
	{ID: "/snes/1-metroid", DisplayName: "Metroid"},
}

func TestChooseCandidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"first", "0\n", 0},
		{"second", " 1 \n", 1},
		{"skip empty", "\n", -1},
		{"skip word", "S\n", -1},
		{"retry after invalid", "7\nabc\n1\n", 1},
		{"eof without newline", "1", 1},
		{"eof after invalid", "9", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := chooseCandidate(strings.NewReader(tt.input), &out, consoleCandidates)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "[0-1]")
		})
	}
}

func TestParseKinds(t *testing.T) {
	kinds, err := parseKinds([]string{"boxfront,snap", "Box Back"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []models.AssetKind{models.AssetBoxFront, models.AssetSnap, models.AssetBoxBack}, kinds)

	_, err = parseKinds([]string{"poster"}, nil)
	assert.Error(t, err)
}

func TestAssetSummary(t *testing.T) {
	result := &search.Result{
		Assets: map[models.AssetKind][]models.Asset{
			models.AssetSnap:     {{}, {}},
			models.AssetBoxFront: {{}},
		},
		Downloaded: map[models.AssetKind]string{models.AssetBoxFront: "/a/boxfront/x.png"},
	}
	assert.Equal(t, "snap:2 boxfront:1*", assetSummary(result))
}
