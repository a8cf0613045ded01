package pubmed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/helixir/pubmed-harvester/internal/domain"
)

// CitationRecord is the structured decomposition of one full citation
// document. It is the intermediate form between the XML wire types and the
// canonical Article: every sub-record is already typed, every malformed
// fragment already degraded to its documented default.
type CitationRecord struct {
	PMID             string
	Title            string
	Abstract         string
	Journal          domain.Journal
	Authors          []domain.Author
	Dates            domain.DateBundle
	PublicationTypes []string
	Keywords         []string
	MeshHeadings     []domain.MeshHeading
	Grants           []domain.Grant
	References       []domain.Reference
	Chemicals        []domain.Chemical
}

// ParseCitation decomposes a full citation document into a CitationRecord.
// The document must contain at least one PubmedArticle element; only the
// first is parsed. A missing root wrapper returns a StructureError, while
// malformed sub-blocks degrade to defaults and never abort parsing.
func ParseCitation(doc []byte) (*CitationRecord, error) {
	var set PubmedArticleSet
	if err := xml.Unmarshal(doc, &set); err != nil {
		return nil, fmt.Errorf("failed to parse citation XML: %w", err)
	}
	if len(set.Articles) == 0 {
		return nil, domain.NewStructureError("PubmedArticle")
	}

	article := set.Articles[0]
	citation := article.MedlineCitation

	return &CitationRecord{
		PMID:             strings.TrimSpace(citation.PMID.Value),
		Title:            strings.TrimSpace(citation.Article.ArticleTitle),
		Abstract:         firstAbstractText(citation.Article.Abstract),
		Journal:          parseJournal(citation.Article.Journal),
		Authors:          parseAuthors(citation.Article.AuthorList),
		Dates:            parseDates(article),
		PublicationTypes: parsePublicationTypes(citation.Article.PublicationTypeList),
		Keywords:         parseKeywords(citation.KeywordList),
		MeshHeadings:     parseMeshHeadings(citation.MeshHeadingList),
		Grants:           parseGrants(citation.Article.GrantList),
		References:       parseReferences(article.PubmedData.ReferenceList),
		Chemicals:        parseChemicals(citation.ChemicalList),
	}, nil
}

// firstAbstractText returns the first abstract section. Structured abstracts
// carry several labeled sections; the leading one is kept as the record's
// abstract.
func firstAbstractText(abstract *Abstract) string {
	if abstract == nil || len(abstract.AbstractTexts) == 0 {
		return ""
	}
	return strings.TrimSpace(abstract.AbstractTexts[0].Value)
}

// parseJournal maps the journal block to the domain descriptor. A citation
// with no journal block at all gets the sentinel journal.
func parseJournal(journal *Journal) domain.Journal {
	if journal == nil {
		return domain.UnknownJournal()
	}

	j := domain.Journal{
		Title:           strings.TrimSpace(journal.Title),
		ISOAbbreviation: strings.TrimSpace(journal.ISOAbbreviation),
		Volume:          strings.TrimSpace(journal.JournalIssue.Volume),
		Issue:           strings.TrimSpace(journal.JournalIssue.Issue),
	}
	if journal.ISSN != nil {
		j.ISSN = strings.TrimSpace(journal.ISSN.Value)
	}
	return j
}

// parseAuthors maps the author list, collecting every non-blank affiliation
// in document order.
func parseAuthors(list *AuthorList) []domain.Author {
	authors := []domain.Author{}
	if list == nil {
		return authors
	}

	for _, a := range list.Authors {
		affiliations := []string{}
		for _, aff := range a.AffiliationInfo {
			if text := strings.TrimSpace(aff.Affiliation); text != "" {
				affiliations = append(affiliations, text)
			}
		}
		authors = append(authors, domain.Author{
			LastName:     strings.TrimSpace(a.LastName),
			ForeName:     strings.TrimSpace(a.ForeName),
			Initials:     strings.TrimSpace(a.Initials),
			Affiliations: affiliations,
		})
	}
	return authors
}

// parseDates resolves the four named date blocks independently. Each block
// that is missing or malformed resolves to nil without affecting the others.
func parseDates(article PubmedArticle) domain.DateBundle {
	bundle := domain.DateBundle{
		Completed: resolveDateBlock(article.MedlineCitation.DateCompleted),
		Revised:   resolveDateBlock(article.MedlineCitation.DateRevised),
	}

	for _, ad := range article.MedlineCitation.Article.ArticleDate {
		if ad.DateType == "Electronic" {
			bundle.ElectronicPub = ResolvePartialDate(ad.Year, ad.Month, ad.Day)
			break
		}
	}

	if journal := article.MedlineCitation.Article.Journal; journal != nil {
		pd := journal.JournalIssue.PubDate
		bundle.PubDate = ResolvePartialDate(pd.Year, pd.Month, pd.Day)
	}
	return bundle
}

func resolveDateBlock(d *PubMedDate) *time.Time {
	if d == nil {
		return nil
	}
	return ResolvePartialDate(d.Year, d.Month, d.Day)
}

func parsePublicationTypes(list *PublicationTypeList) []string {
	types := []string{}
	if list == nil {
		return types
	}
	for _, pt := range list.PublicationTypes {
		types = append(types, strings.TrimSpace(pt.Value))
	}
	return types
}

func parseKeywords(list *KeywordList) []string {
	keywords := []string{}
	if list == nil {
		return keywords
	}
	for _, kw := range list.Keywords {
		keywords = append(keywords, strings.TrimSpace(kw.Value))
	}
	return keywords
}

// parseMeshHeadings maps MeSH headings, skipping entries without a
// descriptor. A heading or qualifier is a major topic only when its
// MajorTopicYN attribute is exactly "Y".
func parseMeshHeadings(list *MeshHeadingList) []domain.MeshHeading {
	headings := []domain.MeshHeading{}
	if list == nil {
		return headings
	}

	for _, mh := range list.MeshHeadings {
		if mh.DescriptorName == nil {
			continue
		}
		qualifiers := []domain.MeshQualifier{}
		for _, q := range mh.QualifierNames {
			qualifiers = append(qualifiers, domain.MeshQualifier{
				Name:       strings.TrimSpace(q.Value),
				MajorTopic: q.MajorTopic == "Y",
			})
		}
		headings = append(headings, domain.MeshHeading{
			Descriptor: strings.TrimSpace(mh.DescriptorName.Value),
			MajorTopic: mh.DescriptorName.MajorTopic == "Y",
			Qualifiers: qualifiers,
		})
	}
	return headings
}

func parseGrants(list *GrantList) []domain.Grant {
	grants := []domain.Grant{}
	if list == nil {
		return grants
	}
	for _, g := range list.Grants {
		grants = append(grants, domain.Grant{
			GrantID: strings.TrimSpace(g.GrantID),
			Acronym: strings.TrimSpace(g.Acronym),
			Agency:  strings.TrimSpace(g.Agency),
			Country: strings.TrimSpace(g.Country),
		})
	}
	return grants
}

// parseReferences maps cited references, extracting identifiers by their
// type discriminator. Unknown identifier types are ignored; a repeated type
// within one reference keeps the last occurrence.
func parseReferences(list *ReferenceList) []domain.Reference {
	references := []domain.Reference{}
	if list == nil {
		return references
	}

	for _, r := range list.References {
		ref := domain.Reference{Citation: strings.TrimSpace(r.Citation)}
		if r.ArticleIdList != nil {
			for _, id := range r.ArticleIdList.ArticleIds {
				value := strings.TrimSpace(id.Value)
				switch id.IdType {
				case "pubmed":
					ref.PMID = value
				case "doi":
					ref.DOI = value
				case "pmc":
					ref.PMCID = value
				}
			}
		}
		references = append(references, ref)
	}
	return references
}

func parseChemicals(list *ChemicalList) []domain.Chemical {
	chemicals := []domain.Chemical{}
	if list == nil {
		return chemicals
	}
	for _, c := range list.Chemicals {
		chemicals = append(chemicals, domain.Chemical{
			RegistryNumber: strings.TrimSpace(c.RegistryNumber),
			SubstanceName:  strings.TrimSpace(c.NameOfSubstance),
		})
	}
	return chemicals
}
