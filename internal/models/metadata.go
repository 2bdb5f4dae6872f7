package models

// VideoRecord is one row from the metadata service catalog.
type VideoRecord struct {
	Author     string `json:"author"`
	VideoTitle string `json:"video_title"`
	VideoViews int64  `json:"video_views"`
	Duration   string `json:"duration"`
	UploadDate string `json:"upload_date,omitempty"`
}

// CatalogResponse is the metadata service response envelope. Any status
// other than "success" means "no metadata available", not a failure.
type CatalogResponse struct {
	Status string        `json:"status"`
	Data   []VideoRecord `json:"data"`
}

// CatalogStatusSuccess is the only status that carries usable data.
const CatalogStatusSuccess = "success"

// MetadataIndex maps (author, title) to the matching record. Built once per
// author per session; staleness is acceptable because entry data always
// wins over metadata defaults.
type MetadataIndex struct {
	byKey    map[string]VideoRecord
	byAuthor map[string][]VideoRecord
}

// NewMetadataIndex returns an empty index.
func NewMetadataIndex() *MetadataIndex {
	return &MetadataIndex{
		byKey:    make(map[string]VideoRecord),
		byAuthor: make(map[string][]VideoRecord),
	}
}

func metadataKey(author, title string) string {
	return author + "/" + title
}

// Add indexes a record under its (author, title) composite key. The first
// record for a key wins; the service occasionally repeats rows.
func (idx *MetadataIndex) Add(rec VideoRecord) {
	key := metadataKey(rec.Author, rec.VideoTitle)
	if _, ok := idx.byKey[key]; ok {
		return
	}
	idx.byKey[key] = rec
	idx.byAuthor[rec.Author] = append(idx.byAuthor[rec.Author], rec)
}

// Lookup returns the record for (author, title) if present.
func (idx *MetadataIndex) Lookup(author, title string) (VideoRecord, bool) {
	rec, ok := idx.byKey[metadataKey(author, title)]
	return rec, ok
}

// ByAuthor returns the records indexed for one author, in insertion order.
func (idx *MetadataIndex) ByAuthor(author string) []VideoRecord {
	return idx.byAuthor[author]
}

// HasAuthor reports whether any record was indexed for the author. The UI
// uses this to mark directories that are known authors.
func (idx *MetadataIndex) HasAuthor(author string) bool {
	return len(idx.byAuthor[author]) > 0
}

// Authors returns the distinct authors present in the index.
func (idx *MetadataIndex) Authors() []string {
	out := make([]string, 0, len(idx.byAuthor))
	for a := range idx.byAuthor {
		out = append(out, a)
	}
	return out
}

// Records returns every indexed record. Order is unspecified.
func (idx *MetadataIndex) Records() []VideoRecord {
	out := make([]VideoRecord, 0, len(idx.byKey))
	for _, rec := range idx.byKey {
		out = append(out, rec)
	}
	return out
}

// Len reports the number of indexed records.
func (idx *MetadataIndex) Len() int {
	return len(idx.byKey)
}
