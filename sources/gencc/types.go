package gencc

// submissionExport ist die Antwortstruktur des GenCC Submission-Exports.
type submissionExport struct {
	Rows []submission `json:"rows"`
}

// submission ist eine einzelne Gen-Krankheit-Einreichung.
type submission struct {
	GeneSymbol          string `json:"gene_symbol"`
	GeneCurie           string `json:"gene_curie"`
	DiseaseTitle        string `json:"disease_title"`
	DiseaseCurie        string `json:"disease_curie"`
	ClassificationTitle string `json:"classification_title"`
	ModeOfInheritance   string `json:"moi_title"`
	SubmitterTitle      string `json:"submitter_title"`
	SubmittedAsDate     string `json:"submitted_as_date"` // "2006-01-02 15:04:05"
}
