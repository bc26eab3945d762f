package judge

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Dimension is a single scoring axis presented to the judge model.
type Dimension struct {
	Key         string `yaml:"key"`
	Description string `yaml:"description"`
}

// Rubric is the full set of dimensions the judge scores against.
type Rubric struct {
	Dimensions []Dimension `yaml:"dimensions"`
}

// DefaultRubric returns the built-in four-dimension rubric.
func DefaultRubric() Rubric {
	return Rubric{Dimensions: []Dimension{
		{Key: "faithfulness", Description: "Is every claim in the response supported by the provided context, with nothing invented?"},
		{Key: "relevance", Description: "Does the response directly address the user's question?"},
		{Key: "completeness", Description: "Does the response cover the aspects of the question the context can answer?"},
		{Key: "citation_accuracy", Description: "Do the cited sections actually contain the claims attributed to them?"},
	}}
}

// LoadRubric reads a rubric override from a YAML file. An empty path returns
// the default rubric.
func LoadRubric(path string) (Rubric, error) {
	if path == "" {
		return DefaultRubric(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rubric{}, eris.Wrapf(err, "judge: read rubric %s", path)
	}

	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rubric{}, eris.Wrapf(err, "judge: parse rubric %s", path)
	}
	if len(r.Dimensions) == 0 {
		return Rubric{}, eris.Errorf("judge: rubric %s has no dimensions", path)
	}
	return r, nil
}

// systemPrompt renders the fixed scoring instructions for the judge model.
func (r Rubric) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a strict quality judge for a document question-answering system. ")
	b.WriteString("Rate the assistant response against the retrieved context on each dimension, ")
	b.WriteString("as an integer from 1 (poor) to 5 (excellent):\n\n")
	for _, d := range r.Dimensions {
		fmt.Fprintf(&b, "- %s: %s\n", d.Key, d.Description)
	}
	b.WriteString("\nRespond with a single JSON object and nothing else, in exactly this format:\n")
	b.WriteString(`{"faithfulness": <1-5>, "relevance": <1-5>, "completeness": <1-5>, "citation_accuracy": <1-5>, "rationale": "<one or two sentences>"}`)
	return b.String()
}
