package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthor_FullName(t *testing.T) {
	t.Run("prefers fore name", func(t *testing.T) {
		a := Author{LastName: "Smith", ForeName: "John", Initials: "J"}
		assert.Equal(t, "Smith, John", a.FullName())
	})

	t.Run("falls back to initials", func(t *testing.T) {
		a := Author{LastName: "Smith", Initials: "J"}
		assert.Equal(t, "Smith, J", a.FullName())
	})

	t.Run("last name alone", func(t *testing.T) {
		a := Author{LastName: "Smith"}
		assert.Equal(t, "Smith", a.FullName())
	})
}

func TestDateBundle_Best(t *testing.T) {
	completed := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	revised := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)
	electronic := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	print := time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("prefers print publication date", func(t *testing.T) {
		d := DateBundle{
			Completed:     &completed,
			Revised:       &revised,
			ElectronicPub: &electronic,
			PubDate:       &print,
		}
		require.NotNil(t, d.Best())
		assert.Equal(t, print, *d.Best())
	})

	t.Run("electronic beats completed", func(t *testing.T) {
		d := DateBundle{
			Completed:     &completed,
			ElectronicPub: &electronic,
		}
		require.NotNil(t, d.Best())
		assert.Equal(t, electronic, *d.Best())
	})

	t.Run("revised is last resort", func(t *testing.T) {
		d := DateBundle{Revised: &revised}
		require.NotNil(t, d.Best())
		assert.Equal(t, revised, *d.Best())
	})

	t.Run("nil when empty", func(t *testing.T) {
		assert.Nil(t, DateBundle{}.Best())
	})
}

func TestUnknownJournal(t *testing.T) {
	j := UnknownJournal()
	assert.Equal(t, "Unknown Journal", j.Title)
	assert.Empty(t, j.ISOAbbreviation)
	assert.Empty(t, j.ISSN)
	assert.Empty(t, j.Volume)
	assert.Empty(t, j.Issue)
}

func TestArticle_ApplyDefaults(t *testing.T) {
	t.Run("fills sentinels and containers", func(t *testing.T) {
		var a Article
		a.ApplyDefaults()

		assert.Equal(t, NoTitleSentinel, a.Title)
		assert.Equal(t, NoAbstractSentinel, a.Abstract)
		assert.Equal(t, NoPMIDSentinel, a.PMID)
		assert.Equal(t, a.PMID, a.SourceID)
		assert.Equal(t, SourceTypePubMed, a.SourceType)
		assert.False(t, a.PublishedDate.IsZero())
		assert.NotNil(t, a.Authors)
		assert.NotNil(t, a.Keywords)
		assert.NotNil(t, a.RelatedDOIs)
		assert.NotNil(t, a.PubTypes)
	})

	t.Run("keeps populated fields", func(t *testing.T) {
		published := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
		a := Article{
			Title:         "A title",
			Abstract:      "An abstract",
			PMID:          "12345678",
			PublishedDate: published,
			Authors:       []string{"Smith, John"},
		}
		a.ApplyDefaults()

		assert.Equal(t, "A title", a.Title)
		assert.Equal(t, "12345678", a.PMID)
		assert.Equal(t, "12345678", a.SourceID)
		assert.Equal(t, published, a.PublishedDate)
		assert.Equal(t, []string{"Smith, John"}, a.Authors)
	})
}

func TestArticle_JSONShape(t *testing.T) {
	published := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	completed := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)

	a := Article{
		Title:         "A title",
		Abstract:      "An abstract",
		PMID:          "12345678",
		PublishedDate: published,
		Dates:         &DateBundle{Completed: &completed},
	}
	a.ApplyDefaults()

	raw, err := json.Marshal(&a)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	t.Run("dates render as RFC 3339 strings", func(t *testing.T) {
		assert.Equal(t, "2023-06-01T00:00:00Z", got["published_date"])
		dates, ok := got["dates"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "2023-05-01T00:00:00Z", dates["completed"])
	})

	t.Run("missing bundle dates render as null", func(t *testing.T) {
		dates := got["dates"].(map[string]any)
		assert.Nil(t, dates["revised"])
		assert.Nil(t, dates["electronic_pub"])
		assert.Nil(t, dates["pub_date"])
	})

	t.Run("empty extended fields are omitted", func(t *testing.T) {
		_, hasGrants := got["grants"]
		assert.False(t, hasGrants)
		_, hasJournalDetails := got["journal_details"]
		assert.False(t, hasJournalDetails)
	})

	t.Run("flat journal fields are present even when empty", func(t *testing.T) {
		for _, key := range []string{"journal", "volume", "issue", "pages"} {
			v, present := got[key]
			require.True(t, present, key)
			assert.Equal(t, "", v, key)
		}
	})

	t.Run("required containers are present even when empty", func(t *testing.T) {
		assert.Equal(t, []any{}, got["authors"])
		assert.Equal(t, []any{}, got["keywords"])
		assert.Equal(t, []any{}, got["related_dois"])
		assert.Equal(t, []any{}, got["pubtype"])
	})
}
