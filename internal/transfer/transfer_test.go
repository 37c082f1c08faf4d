package transfer_test

import (
	"encoding/json"
	"testing"
	"time"

	"storymatrix/internal/models"
	"storymatrix/internal/transfer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canonical = `{
  "moments": [
    {"id": "m1", "url": "https://example.com/1.jpg", "mimeType": "image/jpeg", "source": "url", "createdAt": 1,
     "metadata": {"caption": "beach", "tags": ["sun"], "overlayText": "hi there", "overlayWordEffects": [null, "neon"]}},
    {"id": "m2", "url": "https://example.com/2.jpg", "createdAt": 2}
  ],
  "stories": [
    {"id": "s1", "title": "Trip", "coverMomentUrl": "https://example.com/1.jpg", "momentIds": ["m1", "m2"], "createdAt": 3}
  ]
}`

const legacyKeys = `{
  "photos": [
    {"id": "m1", "url": "https://example.com/1.jpg", "mimeType": "image/jpeg", "source": "url", "createdAt": 1,
     "metadata": {"caption": "beach", "tags": ["sun"], "overlayText": "hi there", "overlayWordEffects": [null, "neon"]}},
    {"id": "m2", "url": "https://example.com/2.jpg", "createdAt": 2}
  ],
  "albums": [
    {"id": "s1", "title": "Trip", "coverPhotoUrl": "https://example.com/1.jpg", "photoIds": ["m1", "m2"], "createdAt": 3}
  ]
}`

func TestImportLegacyKeysMatchesCanonical(t *testing.T) {
	want, err := transfer.Import([]byte(canonical))
	require.NoError(t, err)
	got, err := transfer.Import([]byte(legacyKeys))
	require.NoError(t, err)

	assert.Equal(t, want, got)
	require.Len(t, got.Moments, 2)
	require.NotNil(t, got.Moments[0].Metadata)
	assert.Nil(t, got.Moments[0].Metadata.OverlayWordEffects[0])
	assert.Equal(t, []string{"m1", "m2"}, got.Stories[0].MomentIDs)
	assert.Equal(t, "https://example.com/1.jpg", got.Stories[0].CoverMomentURL)
}

func TestImportBareArray(t *testing.T) {
	got, err := transfer.Import([]byte(`[{"id": "p1", "url": "u1"}, {"id": "p2", "url": "u2", "metadata": {"caption": "x", "tags": []}}]`))
	require.NoError(t, err)
	assert.True(t, got.HasMoments)
	assert.False(t, got.HasStories)
	assert.Len(t, got.Moments, 2)

	_, err = transfer.Import([]byte(`[{"id": "p1", "url": "u1"}, {"id": "p2"}]`))
	assert.ErrorIs(t, err, models.ErrMalformedImport)

	_, err = transfer.Import([]byte(`[{"url": "u1"}]`))
	assert.ErrorIs(t, err, models.ErrMalformedImport)
}

func TestImportRejectsOtherShapes(t *testing.T) {
	cases := map[string]string{
		"Empty":            ``,
		"Scalar":           `42`,
		"String":           `"moments"`,
		"Broken JSON":      `{"moments": [`,
		"Unknown keys":     `{"items": []}`,
		"Moments not list": `{"moments": {"id": "m1"}}`,
		"Bad story":        `{"stories": [{"title": "no id"}]}`,
		"Bad moment type":  `{"moments": [{"id": 5, "url": "u"}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := transfer.Import([]byte(doc))
			assert.ErrorIs(t, err, models.ErrMalformedImport)
			assert.Nil(t, got)
		})
	}
}

func TestImportPartialCollections(t *testing.T) {
	got, err := transfer.Import([]byte(`{"stories": []}`))
	require.NoError(t, err)
	assert.False(t, got.HasMoments)
	assert.True(t, got.HasStories)
	assert.Empty(t, got.Stories)
}

func TestExportRoundTrip(t *testing.T) {
	moments := []models.Moment{{ID: "m1", URL: "u1", CreatedAt: 1}}
	data, err := transfer.Export(moments, nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"moments\"")

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.JSONEq(t, `[]`, string(doc["stories"]))

	back, err := transfer.Import(data)
	require.NoError(t, err)
	assert.Equal(t, moments, back.Moments)
}

func TestExportFilename(t *testing.T) {
	ts := time.Date(2024, 2, 9, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "gallery-backup-2024-02-09.json", transfer.ExportFilename(ts))
}

func TestDecodeStoriesPrefersCurrentFields(t *testing.T) {
	stories, err := transfer.DecodeStories([]byte(`[
		{"id": "a", "title": "A", "momentIds": [], "photoIds": ["old"], "coverMomentUrl": "new", "coverPhotoUrl": "old"},
		{"id": "b", "title": "B"}
	]`))
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, []string{}, stories[0].MomentIDs)
	assert.Equal(t, "new", stories[0].CoverMomentURL)
	assert.Equal(t, []string{}, stories[1].MomentIDs)
}
