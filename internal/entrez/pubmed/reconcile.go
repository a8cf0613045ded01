package pubmed

import (
	"strings"
	"time"

	"github.com/helixir/pubmed-harvester/internal/domain"
)

// Date layouts accepted for summary records, tried in order.
const (
	sortPubDateLayout = "2006/01/02 15:04"
	pubDateLayout     = "2006 Jan"
)

// ArticleFromCitation builds the canonical Article from a parsed citation.
// Display names follow the full-name rendering rule, the publication date is
// the best available bundle date, and every extended field is populated from
// the structured sub-records. The citation path carries no DOI.
func ArticleFromCitation(rec *CitationRecord) *domain.Article {
	names := []string{}
	for _, a := range rec.Authors {
		names = append(names, a.FullName())
	}

	var published time.Time
	if best := rec.Dates.Best(); best != nil {
		published = *best
	}

	journal := rec.Journal
	dates := rec.Dates

	article := &domain.Article{
		Title:         rec.Title,
		Abstract:      rec.Abstract,
		Authors:       names,
		PMID:          rec.PMID,
		Keywords:      rec.Keywords,
		PublishedDate: published,
		Journal:       rec.Journal.Title,
		Volume:        rec.Journal.Volume,
		Issue:         rec.Journal.Issue,
		PubTypes:      rec.PublicationTypes,

		AuthorDetails:  rec.Authors,
		JournalDetails: &journal,
		Dates:          &dates,
		MeshHeadings:   rec.MeshHeadings,
		Grants:         rec.Grants,
		References:     rec.References,
		Chemicals:      rec.Chemicals,
	}
	article.ApplyDefaults()
	return article
}

// ArticleFromSummary builds the canonical Article from a flat summary
// record. The DOI comes from the identifier list, the publication date from
// the sortable date string with the coarse "YYYY Mon" form as fallback, and
// the extended structured fields stay empty.
func ArticleFromSummary(rec *SummaryRecord) *domain.Article {
	doi := ""
	for _, id := range rec.ArticleIDs {
		if id.IDType == "doi" {
			doi = id.Value
			break
		}
	}

	var published time.Time
	if t, err := time.Parse(sortPubDateLayout, rec.SortPubDate); err == nil {
		published = t
	} else if t, err := time.Parse(pubDateLayout, rec.PubDate); err == nil {
		published = t
	}

	authors := []string{}
	for _, a := range rec.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	article := &domain.Article{
		Title:         rec.Title,
		Authors:       authors,
		DOI:           doi,
		PMID:          rec.UID,
		PublishedDate: published,
		Journal:       rec.FullJournalName,
		Volume:        rec.Volume,
		Issue:         rec.Issue,
		Pages:         rec.Pages,
		PubTypes:      rec.PubTypes,
	}
	article.ApplyDefaults()
	return article
}

// ArticleFromSearchRecord builds the canonical Article from the loose
// search-result shape. Plural fields collapse to their first element, the
// DOI field splits on whitespace with the first token as primary and the
// rest as related DOIs, and only the first PMID token is kept. This path
// never populates extended structured fields.
func ArticleFromSearchRecord(rec *SearchRecord) *domain.Article {
	title := ""
	if len(rec.Titles) > 0 {
		title = rec.Titles[0]
	}
	abstract := ""
	if len(rec.Abstracts) > 0 {
		abstract = rec.Abstracts[0]
	}

	doi := ""
	relatedDOIs := []string{}
	if fields := strings.Fields(rec.DOI); len(fields) > 0 {
		doi = fields[0]
		relatedDOIs = append(relatedDOIs, fields[1:]...)
	}

	pmid := rec.PrimaryPMID()

	var published time.Time
	if rec.PublicationDate != nil {
		published = *rec.PublicationDate
	}

	article := &domain.Article{
		Title:         title,
		Abstract:      abstract,
		Authors:       rec.Authors,
		DOI:           doi,
		RelatedDOIs:   relatedDOIs,
		PMID:          pmid,
		Keywords:      rec.Keywords,
		PublishedDate: published,
		Journal:       rec.Journal,
		Volume:        rec.Volume,
		Issue:         rec.Issue,
		Pages:         rec.Pages,
		PubTypes:      rec.PubTypes,
	}
	article.ApplyDefaults()
	return article
}
