package pubmed

import (
	"encoding/json"
	"fmt"
)

// SummaryRecord is the flat per-article record inside an esummary.fcgi JSON
// response. It carries no structured authors or journal details; only the
// flat fields listed here.
type SummaryRecord struct {
	UID             string             `json:"uid"`
	Title           string             `json:"title"`
	SortPubDate     string             `json:"sortpubdate"`
	PubDate         string             `json:"pubdate"`
	EPubDate        string             `json:"epubdate"`
	FullJournalName string             `json:"fulljournalname"`
	Source          string             `json:"source"`
	Volume          string             `json:"volume"`
	Issue           string             `json:"issue"`
	Pages           string             `json:"pages"`
	PubTypes        []string           `json:"pubtype"`
	ArticleIDs      []SummaryArticleID `json:"articleids"`
	Authors         []SummaryAuthor    `json:"authors"`
}

// SummaryArticleID is one identifier entry in a summary record.
type SummaryArticleID struct {
	IDType string `json:"idtype"`
	Value  string `json:"value"`
}

// SummaryAuthor is one author entry in a summary record.
type SummaryAuthor struct {
	Name     string `json:"name"`
	AuthType string `json:"authtype"`
}

// SummaryResult bundles the parsed record with the raw payload. The raw
// payload is what gets persisted; the record is what the reconciler consumes.
type SummaryResult struct {
	Record *SummaryRecord
	Raw    map[string]any
}

type eSummaryEnvelope struct {
	Result map[string]json.RawMessage `json:"result"`
}

// parseSummary decodes an esummary JSON body. The envelope nests per-uid
// records under "result" next to a "uids" ordering list; the first listed
// uid is the record of interest.
func parseSummary(body []byte) (*SummaryResult, error) {
	var envelope eSummaryEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse summary JSON: %w", err)
	}

	rawUIDs, ok := envelope.Result["uids"]
	if !ok {
		return nil, fmt.Errorf("summary response has no uids list")
	}
	var uids []string
	if err := json.Unmarshal(rawUIDs, &uids); err != nil {
		return nil, fmt.Errorf("failed to parse summary uids: %w", err)
	}
	if len(uids) == 0 {
		return nil, fmt.Errorf("summary response lists no records")
	}

	rawRecord, ok := envelope.Result[uids[0]]
	if !ok {
		return nil, fmt.Errorf("summary response missing record for uid %s", uids[0])
	}
	var record SummaryRecord
	if err := json.Unmarshal(rawRecord, &record); err != nil {
		return nil, fmt.Errorf("failed to parse summary record: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode summary payload: %w", err)
	}

	return &SummaryResult{Record: &record, Raw: raw}, nil
}
