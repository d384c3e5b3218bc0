package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4343"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Quellen, die beim Update-Lauf berücksichtigt werden.
	EnabledSources string `envconfig:"ENABLED_SOURCES" default:"gencc,panelapp,hpo,clingen,pubtator,diagpanels,literature"`
	CronSchedule   string `envconfig:"CRON_SCHEDULE" default:"0 2 * * *"`

	GenCCBaseURL      string `envconfig:"GENCC_BASE_URL" default:"https://search.thegencc.org/download/action/submissions-export-json"`
	PanelAppBaseURL   string `envconfig:"PANELAPP_BASE_URL" default:"https://panelapp.genomicsengland.co.uk/api/v1"`
	PanelAppPanelIDs  string `envconfig:"PANELAPP_PANEL_IDS" default:"275,539"`
	HPOBaseURL        string `envconfig:"HPO_BASE_URL" default:"https://ontology.jax.org/api/network"`
	HPOTermIDs        string `envconfig:"HPO_TERM_IDS" default:"HP:0000077,HP:0012622"`
	ClinGenBaseURL    string `envconfig:"CLINGEN_BASE_URL" default:"https://search.clinicalgenome.org/kb/gene-validity"`
	PubTatorBaseURL   string `envconfig:"PUBTATOR_BASE_URL" default:"https://www.ncbi.nlm.nih.gov/research/pubtator3-api"`
	PubTatorQuery     string `envconfig:"PUBTATOR_QUERY" default:"kidney disease gene"`
	PubTatorMaxPages  int    `envconfig:"PUBTATOR_MAX_PAGES" default:"10"`
	DiagPanelsBaseURL string `envconfig:"DIAGPANELS_BASE_URL" default:"https://panels.kidney-genetics.org/api"`
	EuropePMCBaseURL  string `envconfig:"EUROPEPMC_BASE_URL" default:"https://www.ebi.ac.uk/europepmc/webservices/rest/search"`
	LiteratureQuery   string `envconfig:"LITERATURE_QUERY" default:"kidney disease gene panel"`

	// Cache/Retry-Verhalten für externe API-Aufrufe.
	CacheTTL         time.Duration `envconfig:"CACHE_TTL" default:"24h"`
	FetchTimeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"60s"`
	FetchMaxAttempts int           `envconfig:"FETCH_MAX_ATTEMPTS" default:"4"`

	// Tier-Schwellwerte für den Evidenz-Score (Deployment-Konfiguration).
	TierAThreshold float64 `envconfig:"TIER_A_THRESHOLD" default:"0.8"`
	TierBThreshold float64 `envconfig:"TIER_B_THRESHOLD" default:"0.5"`

	// S3-Ziel für Panel-Snapshots und Backups.
	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION" default:"eu-central-1"`
	S3Bucket string `envconfig:"S3_BUCKET" default:"kidney-genetics-exports"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// SourceNames gibt die aktivierten Quellen als bereinigte Liste zurück.
func (c *Config) SourceNames() []string {
	parts := strings.Split(c.EnabledSources, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			names = append(names, s)
		}
	}
	return names
}

// S3Enabled meldet, ob ein S3-Ziel konfiguriert ist.
func (c *Config) S3Enabled() bool {
	return c.S3Key != "" && c.S3Secret != "" && c.S3URL != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
