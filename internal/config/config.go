// Package config loads process configuration from BIOFAN_ environment
// variables, with an optional .env file in the working directory.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/henrybloomingdale/biofan/internal/rank"
	"github.com/henrybloomingdale/biofan/internal/sources"
)

// Prefix is prepended to every environment variable name.
const Prefix = "BIOFAN"

// Config holds every runtime setting. It is loaded once at startup and
// passed to the components that need it.
type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	PubChemURL        string `envconfig:"PUBCHEM_URL" default:"https://pubchem.ncbi.nlm.nih.gov/rest/pug"`
	ChEMBLURL         string `envconfig:"CHEMBL_URL" default:"https://www.ebi.ac.uk/chembl/api/data"`
	UniProtURL        string `envconfig:"UNIPROT_URL" default:"https://rest.uniprot.org/uniprotkb"`
	EntrezURL         string `envconfig:"ENTREZ_URL" default:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	EuropePMCURL      string `envconfig:"EUROPEPMC_URL" default:"https://www.ebi.ac.uk/europepmc/webservices/rest"`
	OpenAlexURL       string `envconfig:"OPENALEX_URL" default:"https://api.openalex.org"`
	ClinicalTrialsURL string `envconfig:"CLINICALTRIALS_URL" default:"https://clinicaltrials.gov/api/v2"`

	EntrezAPIKey   string `envconfig:"NCBI_API_KEY"`
	EntrezTool     string `envconfig:"NCBI_TOOL" default:"biofan"`
	EntrezEmail    string `envconfig:"NCBI_EMAIL"`
	OpenAlexMailto string `envconfig:"OPENALEX_MAILTO"`

	Rate          float64       `envconfig:"RATE" default:"5"`
	HTTPTimeout   time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	MaxBytes      int64         `envconfig:"MAX_RESPONSE_BYTES" default:"52428800"`
	SourceRetries int           `envconfig:"SOURCE_RETRIES" default:"2"`

	ResearchDelay          time.Duration `envconfig:"RESEARCH_DELAY" default:"50ms"`
	MaxAugmentationLookups int           `envconfig:"MAX_AUGMENTATION_LOOKUPS" default:"25"`
	AugmentRetries         int           `envconfig:"AUGMENT_RETRIES" default:"0"`
	AugmentBackoff         time.Duration `envconfig:"AUGMENT_BACKOFF" default:"500ms"`

	RunnerConcurrency int           `envconfig:"RUNNER_CONCURRENCY" default:"4"`
	RunnerTimeout     time.Duration `envconfig:"RUNNER_TIMEOUT" default:"30s"`

	CapPublications int `envconfig:"CAP_PUBLICATIONS" default:"15"`
	CapTrials       int `envconfig:"CAP_TRIALS" default:"12"`
	CapGenes        int `envconfig:"CAP_GENES" default:"20"`
	CapOther        int `envconfig:"CAP_OTHER" default:"12"`

	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	RedisAddr   string        `envconfig:"REDIS_ADDR"`
	RedisPrefix string        `envconfig:"REDIS_PREFIX" default:"biofan:xref:"`
	RedisTTL    time.Duration `envconfig:"REDIS_TTL" default:"168h"`

	S3Endpoint string `envconfig:"S3_ENDPOINT"`
	S3Region   string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket   string `envconfig:"S3_BUCKET"`
	S3Key      string `envconfig:"S3_KEY"`
	S3Secret   string `envconfig:"S3_SECRET"`

	ListenAddr   string `envconfig:"LISTEN_ADDR" default:":8080"`
	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var problems []string
	if c.RunnerConcurrency <= 0 {
		problems = append(problems, "RUNNER_CONCURRENCY must be positive")
	}
	if c.RunnerTimeout <= 0 {
		problems = append(problems, "RUNNER_TIMEOUT must be positive")
	}
	if c.HTTPTimeout <= 0 {
		problems = append(problems, "HTTP_TIMEOUT must be positive")
	}
	if c.Rate <= 0 {
		problems = append(problems, "RATE must be positive")
	}
	if c.MaxAugmentationLookups < 0 {
		problems = append(problems, "MAX_AUGMENTATION_LOOKUPS cannot be negative")
	}
	if c.AugmentRetries < 0 || c.SourceRetries < 0 {
		problems = append(problems, "retry counts cannot be negative")
	}
	if c.ResearchDelay < 0 {
		problems = append(problems, "RESEARCH_DELAY cannot be negative")
	}
	if c.CapPublications < 0 || c.CapTrials < 0 || c.CapGenes < 0 || c.CapOther < 0 {
		problems = append(problems, "display caps cannot be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("LOG_FORMAT %q must be json or console", c.LogFormat))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Sources returns the source client settings.
func (c *Config) Sources() sources.Config {
	return sources.Config{
		PubChemURL:        c.PubChemURL,
		ChEMBLURL:         c.ChEMBLURL,
		UniProtURL:        c.UniProtURL,
		EntrezURL:         c.EntrezURL,
		EuropePMCURL:      c.EuropePMCURL,
		OpenAlexURL:       c.OpenAlexURL,
		ClinicalTrialsURL: c.ClinicalTrialsURL,
		EntrezAPIKey:      c.EntrezAPIKey,
		EntrezTool:        c.EntrezTool,
		EntrezEmail:       c.EntrezEmail,
		OpenAlexMailto:    c.OpenAlexMailto,
		Rate:              c.Rate,
		Timeout:           c.HTTPTimeout,
		MaxBytes:          c.MaxBytes,
		Retries:           c.SourceRetries,
	}
}

// Caps returns the answer-card display caps.
func (c *Config) Caps() rank.Caps {
	return rank.Caps{
		Publications: c.CapPublications,
		Trials:       c.CapTrials,
		Genes:        c.CapGenes,
		Other:        c.CapOther,
	}
}

// S3Enabled reports whether artifact upload is configured.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}
