package pubtator

// searchResponse ist eine Ergebnisseite der PubTator3-Suche.
type searchResponse struct {
	Results    []searchResult `json:"results"`
	PageSize   int            `json:"page_size"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
}

// searchResult ist eine Publikation mit ihren text-gemine-ten
// Gen-Annotationen.
type searchResult struct {
	PMID  int64  `json:"pmid"`
	Title string `json:"title"`
	Date  string `json:"date"` // "2006-01-02"

	// Annotierte Gen-Symbole, wie vom Text-Mining geliefert (roh,
	// werden erst vom Resolver normalisiert).
	Genes []string `json:"genes"`
}
