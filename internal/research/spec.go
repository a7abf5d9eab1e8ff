// Package research runs the fan-out, normalization and entity-resolution
// pipeline for one research specification.
package research

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Spec describes one research run.
type Spec struct {
	Question        string   `json:"question" validate:"max=2000"`
	Compounds       []string `json:"compounds,omitempty" validate:"max=50,dive,required,max=200"`
	Targets         []string `json:"targets,omitempty" validate:"max=50,dive,required,max=200"`
	LiteratureQuery string   `json:"literature_query,omitempty" validate:"max=1000"`
	LiteratureLimit int      `json:"literature_limit,omitempty" validate:"gte=0,lte=200"`
	ActivityLimit   int      `json:"activity_limit,omitempty" validate:"gte=0,lte=1000"`
	PChEMBLOnly     bool     `json:"pchembl_only,omitempty"`
	Sources         []string `json:"sources,omitempty" validate:"dive,oneof=pubchem chembl uniprot pubmed europepmc openalex"`
	Collapse        bool     `json:"collapse,omitempty"`
}

// Default limits applied when a spec leaves them unset.
const (
	DefaultLiteratureLimit = 25
	DefaultActivityLimit   = 100
	maxActivityTargets     = 10
)

// ValidationError reports a rejected specification.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid research spec: " + e.Reason
	}
	return fmt.Sprintf("invalid research spec: %s: %s", e.Field, e.Reason)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseSpec decodes and validates a JSON research specification. Unknown
// fields are rejected.
func ParseSpec(data []byte) (Spec, error) {
	var s Spec
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Spec{}, &ValidationError{Reason: err.Error()}
	}
	if err := s.Validate(); err != nil {
		return Spec{}, err
	}
	return s, nil
}

// Validate checks field constraints and returns a *ValidationError naming
// the first offending field.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Question) == "" && len(s.Compounds) == 0 && len(s.Targets) == 0 && strings.TrimSpace(s.LiteratureQuery) == "" {
		return &ValidationError{Field: "question", Reason: "question is required when no compounds, targets or literature query are given"}
	}
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: jsonName(fe.StructField()), Reason: describe(fe)}
	}
	return &ValidationError{Reason: err.Error()}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "oneof":
		return fmt.Sprintf("%q is not one of %s", fe.Value(), fe.Param())
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	}
	return "failed " + fe.Tag()
}

func jsonName(field string) string {
	field, _, _ = strings.Cut(field, "[")
	switch field {
	case "LiteratureQuery":
		return "literature_query"
	case "LiteratureLimit":
		return "literature_limit"
	case "ActivityLimit":
		return "activity_limit"
	case "PChEMBLOnly":
		return "pchembl_only"
	}
	return strings.ToLower(field)
}

func (s Spec) literatureQuery() string {
	if q := strings.TrimSpace(s.LiteratureQuery); q != "" {
		return q
	}
	return strings.TrimSpace(s.Question)
}

func (s Spec) literatureLimit() int {
	if s.LiteratureLimit > 0 {
		return s.LiteratureLimit
	}
	return DefaultLiteratureLimit
}

func (s Spec) activityLimit() int {
	if s.ActivityLimit > 0 {
		return s.ActivityLimit
	}
	return DefaultActivityLimit
}

// uses reports whether server is enabled. An empty Sources list enables
// every source.
func (s Spec) uses(server string) bool {
	if len(s.Sources) == 0 {
		return true
	}
	for _, v := range s.Sources {
		if v == server {
			return true
		}
	}
	return false
}
