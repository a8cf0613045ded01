package pubmed

import (
	"strings"
	"time"

	"github.com/helixir/pubmed-harvester/internal/domain"
)

// SearchRecord is the loosely-shaped per-article record produced by the raw
// search path. Fields that upstream may return in plural form stay
// list-valued, and the identifier fields may hold several
// whitespace-separated values; the reconciler applies the first-wins rules.
type SearchRecord struct {
	Titles    []string
	Abstracts []string
	Keywords  []string

	// DOI and PubmedID may each contain multiple whitespace-separated
	// identifiers collected from every matching node of the document.
	DOI      string
	PubmedID string

	Authors         []string
	PublicationDate *time.Time
	Journal         string
	Volume          string
	Issue           string
	Pages           string
	PubTypes        []string
}

// PrimaryPMID returns the first PMID token, or empty when the record
// carries none.
func (r *SearchRecord) PrimaryPMID() string {
	fields := strings.Fields(r.PubmedID)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// searchRecordFromArticle flattens one fetched citation into the loose
// search-result shape. Markup is stripped from the free-text fields here;
// the structured citation path keeps text verbatim.
func searchRecordFromArticle(article PubmedArticle) *SearchRecord {
	citation := article.MedlineCitation

	record := &SearchRecord{
		Titles:    []string{},
		Abstracts: []string{},
		Keywords:  []string{},
		Authors:   []string{},
		PubTypes:  []string{},
	}

	if title := strings.TrimSpace(citation.Article.ArticleTitle); title != "" {
		record.Titles = append(record.Titles, StripMarkup(title))
	}
	if citation.Article.Abstract != nil {
		for _, at := range citation.Article.Abstract.AbstractTexts {
			if text := strings.TrimSpace(at.Value); text != "" {
				record.Abstracts = append(record.Abstracts, StripMarkup(text))
			}
		}
	}
	if citation.KeywordList != nil {
		for _, kw := range citation.KeywordList.Keywords {
			if text := strings.TrimSpace(kw.Value); text != "" {
				record.Keywords = append(record.Keywords, text)
			}
		}
	}

	record.DOI = strings.Join(collectIdentifiers(article, "doi"), " ")
	record.PubmedID = strings.Join(collectIdentifiers(article, "pubmed"), " ")

	if citation.Article.AuthorList != nil {
		for _, a := range citation.Article.AuthorList.Authors {
			name := renderAuthorName(a)
			if name != "" {
				record.Authors = append(record.Authors, name)
			}
		}
	}

	if journal := citation.Article.Journal; journal != nil {
		record.Journal = strings.TrimSpace(journal.Title)
		record.Volume = strings.TrimSpace(journal.JournalIssue.Volume)
		record.Issue = strings.TrimSpace(journal.JournalIssue.Issue)
		pd := journal.JournalIssue.PubDate
		record.PublicationDate = ResolvePartialDate(pd.Year, pd.Month, pd.Day)
	}
	if citation.Article.Pagination != nil {
		record.Pages = strings.TrimSpace(citation.Article.Pagination.MedlinePgn)
	}
	if citation.Article.PublicationTypeList != nil {
		for _, pt := range citation.Article.PublicationTypeList.PublicationTypes {
			record.PubTypes = append(record.PubTypes, strings.TrimSpace(pt.Value))
		}
	}

	return record
}

// collectIdentifiers gathers every identifier of the given type across the
// citation PMID, the electronic location ids, and the article id list.
func collectIdentifiers(article PubmedArticle, idType string) []string {
	values := []string{}
	seen := map[string]bool{}
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v != "" && !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}

	if idType == "pubmed" {
		add(article.MedlineCitation.PMID.Value)
	}
	if idType == "doi" {
		for _, eloc := range article.MedlineCitation.Article.ELocationID {
			if eloc.EIdType == "doi" {
				add(eloc.Value)
			}
		}
	}
	for _, aid := range article.PubmedData.ArticleIdList.ArticleIds {
		if aid.IdType == idType {
			add(aid.Value)
		}
	}
	return values
}

// renderAuthorName renders a wire author as a display name. Collective
// names pass through unchanged.
func renderAuthorName(a Author) string {
	if a.CollectiveName != "" {
		return strings.TrimSpace(a.CollectiveName)
	}
	author := domain.Author{
		LastName: strings.TrimSpace(a.LastName),
		ForeName: strings.TrimSpace(a.ForeName),
		Initials: strings.TrimSpace(a.Initials),
	}
	return strings.TrimSpace(author.FullName())
}
