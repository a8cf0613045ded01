// Package domain defines the canonical article model shared by the parser,
// the reconcilers, and the processor, together with the error taxonomy for
// upstream failures.
package domain

import (
	"strings"
	"time"
)

// SourceTypePubMed identifies records retrieved from PubMed.
const SourceTypePubMed = "pubmed"

// Sentinel values used when an upstream shape lacks a field entirely.
// Upstream convention is a placeholder string rather than an absent value.
const (
	NoTitleSentinel     = "No title available"
	NoAbstractSentinel  = "No abstract available"
	NoPMIDSentinel      = "No PMID available"
	UnknownJournalTitle = "Unknown Journal"
)

// Author holds the structured name and affiliations of a single author.
type Author struct {
	LastName     string   `json:"last_name"`
	ForeName     string   `json:"fore_name,omitempty"`
	Initials     string   `json:"initials,omitempty"`
	Affiliations []string `json:"affiliations"`
}

// FullName renders the author display name. It prefers "Last, Fore",
// then "Last, Initials", and falls back to the last name alone.
func (a Author) FullName() string {
	switch {
	case a.ForeName != "":
		return a.LastName + ", " + a.ForeName
	case a.Initials != "":
		return a.LastName + ", " + a.Initials
	default:
		return a.LastName
	}
}

// Journal holds the structured journal descriptor of a citation.
type Journal struct {
	Title           string `json:"title"`
	ISOAbbreviation string `json:"iso_abbreviation,omitempty"`
	ISSN            string `json:"issn,omitempty"`
	Volume          string `json:"volume,omitempty"`
	Issue           string `json:"issue,omitempty"`
}

// UnknownJournal returns the sentinel journal used when a citation carries
// no journal block at all.
func UnknownJournal() Journal {
	return Journal{Title: UnknownJournalTitle}
}

// DateBundle holds the four calendar dates a citation may carry. Each is
// independently nil when the corresponding fragment is missing or malformed.
type DateBundle struct {
	Completed     *time.Time `json:"completed"`
	Revised       *time.Time `json:"revised"`
	ElectronicPub *time.Time `json:"electronic_pub"`
	PubDate       *time.Time `json:"pub_date"`
}

// Best returns the most relevant available date, preferring the print
// publication date, then electronic publication, completion, and revision.
// Returns nil when no date is available.
func (d DateBundle) Best() *time.Time {
	for _, t := range []*time.Time{d.PubDate, d.ElectronicPub, d.Completed, d.Revised} {
		if t != nil {
			return t
		}
	}
	return nil
}

// Grant holds funding information attached to a citation.
type Grant struct {
	GrantID string `json:"grant_id"`
	Acronym string `json:"acronym"`
	Agency  string `json:"agency"`
	Country string `json:"country"`
}

// Reference holds one cited reference with its known identifiers.
type Reference struct {
	Citation string `json:"citation"`
	PMID     string `json:"pmid,omitempty"`
	DOI      string `json:"doi,omitempty"`
	PMCID    string `json:"pmc_id,omitempty"`
}

// MeshQualifier is a qualifier attached to a MeSH descriptor.
type MeshQualifier struct {
	Name       string `json:"name"`
	MajorTopic bool   `json:"major_topic"`
}

// MeshHeading is a MeSH descriptor with optional qualifiers.
type MeshHeading struct {
	Descriptor string          `json:"descriptor"`
	MajorTopic bool            `json:"major_topic"`
	Qualifiers []MeshQualifier `json:"qualifiers"`
}

// Chemical is a chemical substance registered against a citation.
type Chemical struct {
	RegistryNumber string `json:"registry_number"`
	SubstanceName  string `json:"substance_name"`
}

// Article is the canonical record produced by reconciling any of the three
// upstream shapes. It is constructed once per retrieval attempt and never
// mutated afterwards; a re-fetch produces a new Article that overwrites the
// persisted copy at the same logical path.
//
// PMID and SourceType are always non-empty, title and abstract always carry
// at least their sentinel placeholders, and extended fields default to empty
// containers when the source shape lacks them. Dates render as RFC 3339
// strings in the JSON form.
type Article struct {
	Title         string    `json:"title"`
	Abstract      string    `json:"abstract"`
	Authors       []string  `json:"authors"`
	DOI           string    `json:"doi"`
	SourceID      string    `json:"source_id"`
	SourceType    string    `json:"source_type"`
	PublishedDate time.Time `json:"published_date"`

	Keywords    []string `json:"keywords"`
	RelatedDOIs []string `json:"related_dois"`
	PMID        string   `json:"pmid"`
	Journal     string   `json:"journal"`
	Volume      string   `json:"volume"`
	Issue       string   `json:"issue"`
	Pages       string   `json:"pages"`
	PubTypes    []string `json:"pubtype"`

	AuthorDetails  []Author      `json:"author_details,omitempty"`
	JournalDetails *Journal      `json:"journal_details,omitempty"`
	Dates          *DateBundle   `json:"dates,omitempty"`
	MeshHeadings   []MeshHeading `json:"mesh_headings,omitempty"`
	Grants         []Grant       `json:"grants,omitempty"`
	References     []Reference   `json:"references,omitempty"`
	Chemicals      []Chemical    `json:"chemicals,omitempty"`
}

// ApplyDefaults enforces the Article invariants in place: sentinel strings
// for missing scalars, the pubmed source tag, and non-nil containers.
// Reconcilers call this as their final step so that no entry point can
// produce a record violating the invariants.
func (a *Article) ApplyDefaults() {
	if strings.TrimSpace(a.Title) == "" {
		a.Title = NoTitleSentinel
	}
	if strings.TrimSpace(a.Abstract) == "" {
		a.Abstract = NoAbstractSentinel
	}
	if strings.TrimSpace(a.PMID) == "" {
		a.PMID = NoPMIDSentinel
	}
	a.SourceID = a.PMID
	if a.SourceType == "" {
		a.SourceType = SourceTypePubMed
	}
	if a.PublishedDate.IsZero() {
		a.PublishedDate = time.Now().UTC()
	}
	if a.Authors == nil {
		a.Authors = []string{}
	}
	if a.Keywords == nil {
		a.Keywords = []string{}
	}
	if a.RelatedDOIs == nil {
		a.RelatedDOIs = []string{}
	}
	if a.PubTypes == nil {
		a.PubTypes = []string{}
	}
}
