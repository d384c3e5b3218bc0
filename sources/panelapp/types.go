package panelapp

// panelResponse ist die Antwort von /panels/{id}/.
type panelResponse struct {
	ID      int         `json:"id"`
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Genes   []panelGene `json:"genes"`
}

// panelGene ist ein Gen-Eintrag innerhalb eines Panels.
type panelGene struct {
	GeneData struct {
		GeneSymbol string `json:"gene_symbol"`
		HGNCID     string `json:"hgnc_id"`
		GeneName   string `json:"gene_name"`
	} `json:"gene_data"`
	ConfidenceLevel   string   `json:"confidence_level"` // "3" = grün, "2" = amber, "1" = rot
	ModeOfInheritance string   `json:"mode_of_inheritance"`
	Phenotypes        []string `json:"phenotypes"`
	EvidenceList      []string `json:"evidence"`
}
