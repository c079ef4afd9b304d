package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/fastmlab/expci/pkg/cigen"
)

func buildSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&cigen.Parameters{})
	schema.Title = "Experiment Pipeline Parameters"
	schema.Description = "Schema for the parameters.yml file read by expci generate."

	// The branches key is a plain mapping of experiment names to
	// "branch[, url]" strings, which the reflected Go type cannot express.
	// Replacing the property orphans the reflected definition, so drop it.
	schema.Properties.Set("branches", &jsonschema.Schema{
		Type:        "object",
		Description: "Experiment names mapped to a branch, optionally followed by a comma and a repository URL.",
		AdditionalProperties: &jsonschema.Schema{
			Type: "string",
		},
	})
	delete(schema.Definitions, "BranchSpec")

	// Make all fields optional - every parameter has a usable default
	schema.Required = nil

	return schema
}

func main() {
	data, err := json.MarshalIndent(buildSchema(), "", "  ")
	if err != nil {
		log.Fatalf("Error marshaling schema: %v", err)
	}

	// Write to the package root
	if err := os.WriteFile("parameters.schema.json", data, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated parameters schema at parameters.schema.json")
}
