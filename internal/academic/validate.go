package academic

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// The records API is duck-typed on the wire; payloads are checked against a
// schema before decoding so shape problems fail loudly at the boundary
// instead of surfacing as odd answers later.

const enrollmentsSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"calificacion": {"type": ["number", "null"]},
			"carrera": {
				"type": ["object", "null"],
				"properties": {"nombre": {"type": "string"}}
			},
			"paralelo": {
				"type": ["object", "null"],
				"properties": {
					"id_Paralelo": {"type": "integer"},
					"aula": {"type": "string"},
					"numero_paralelo": {"type": ["integer", "string", "null"]},
					"materia": {
						"type": ["object", "null"],
						"properties": {"nombre": {"type": "string"}}
					}
				}
			}
		}
	}
}`

const syllabusSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"materia": {"type": ["object", "null"]},
			"id_Materia": {"type": ["object", "null"]},
			"paralelo": {"type": ["object", "null"]},
			"temas": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"properties": {
						"titulo": {"type": "string"},
						"descripcion": {"type": ["string", "null"]},
						"semana": {"type": ["integer", "null"]},
						"orden": {"type": ["integer", "null"]},
						"subtemas": {"type": ["array", "null"]}
					},
					"required": ["titulo"]
				}
			}
		}
	}
}`

var (
	enrollmentsValidator = gojsonschema.NewStringLoader(enrollmentsSchema)
	syllabusValidator    = gojsonschema.NewStringLoader(syllabusSchema)
)

func validatePayload(schema gojsonschema.JSONLoader, payload []byte, what string) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("validate %s payload: %w", what, err)
	}
	if !result.Valid() {
		return fmt.Errorf("%s payload failed schema validation: %s", what, result.Errors()[0])
	}
	return nil
}
