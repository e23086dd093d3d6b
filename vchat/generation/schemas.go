package generation

import "github.com/xeipuuv/gojsonschema"

// Reply paths are fixed: the first candidate/choice only. Tuple-form "items"
// constrains index 0 and leaves the rest unchecked.

type hostedResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type localResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

const hostedSchemaJSON = `{
  "type": "object",
  "required": ["candidates"],
  "properties": {
    "candidates": {
      "type": "array",
      "minItems": 1,
      "items": [{
        "type": "object",
        "required": ["content"],
        "properties": {
          "content": {
            "type": "object",
            "required": ["parts"],
            "properties": {
              "parts": {
                "type": "array",
                "minItems": 1,
                "items": [{
                  "type": "object",
                  "required": ["text"],
                  "properties": {"text": {"type": "string"}}
                }]
              }
            }
          }
        }
      }]
    }
  }
}`

const chatSchemaJSON = `{
  "type": "object",
  "required": ["choices"],
  "properties": {
    "choices": {
      "type": "array",
      "minItems": 1,
      "items": [{
        "type": "object",
        "required": ["message"],
        "properties": {
          "message": {
            "type": "object",
            "required": ["content"],
            "properties": {"content": {"type": "string"}}
          }
        }
      }]
    }
  }
}`

const localSchemaJSON = `{
  "type": "object",
  "required": ["choices"],
  "properties": {
    "choices": {
      "type": "array",
      "minItems": 1,
      "items": [{
        "type": "object",
        "required": ["text"],
        "properties": {"text": {"type": "string"}}
      }]
    }
  }
}`

var (
	hostedSchema = mustSchema(hostedSchemaJSON)
	chatSchema   = mustSchema(chatSchemaJSON)
	localSchema  = mustSchema(localSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("generation: invalid reply schema: " + err.Error())
	}
	return s
}
