package literature

// SearchResponse ist die Antwort der Europe PMC REST-Suche.
type SearchResponse struct {
	HitCount   int `json:"hitCount"`
	ResultList struct {
		Result []Article `json:"result"`
	} `json:"resultList"`
}

// Article ist ein einzelnes Suchergebnis.
type Article struct {
	ID                   string `json:"id"`
	Source               string `json:"source"` // "MED", "PMC", ...
	PMID                 string `json:"pmid"`
	Title                string `json:"title"`
	FirstPublicationDate string `json:"firstPublicationDate"` // "2006-01-02"
}

// annotatedArticle ist ein Element der Annotations-API-Antwort
// (annotationsByArticleIds).
type annotatedArticle struct {
	ExtID       string `json:"extId"`
	Source      string `json:"source"`
	Annotations []struct {
		Exact string `json:"exact"`
		Type  string `json:"type"` // wir fragen nur "Gene_Proteins" an
	} `json:"annotations"`
}
