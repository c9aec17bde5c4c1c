package graphql

import (
	"encoding/json"
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"
)

// DateTime is an RFC 3339 timestamp.
type DateTime struct {
	graphql.Time
}

func (DateTime) ImplementsGraphQLType(name string) bool { return name == "DateTime" }

func (t *DateTime) UnmarshalGraphQL(input any) error {
	return t.Time.UnmarshalGraphQL(input)
}

// JSONString is a JSON document serialized into a string.
type JSONString string

func (JSONString) ImplementsGraphQLType(name string) bool { return name == "JSONString" }

func (s *JSONString) UnmarshalGraphQL(input any) error {
	str, ok := input.(string)
	if !ok {
		return fmt.Errorf("wrong type for JSONString: %T", input)
	}
	if !json.Valid([]byte(str)) {
		return fmt.Errorf("JSONString is not valid JSON")
	}
	*s = JSONString(str)
	return nil
}

func toJSONString(v map[string]any) JSONString {
	if v == nil {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return JSONString(b)
}

// Upload refers to a file part of a multipart request. The HTTP handler
// replaces each mapped variable with the name of its file part.
type Upload struct {
	Part string
}

func (Upload) ImplementsGraphQLType(name string) bool { return name == "Upload" }

func (u *Upload) UnmarshalGraphQL(input any) error {
	part, ok := input.(string)
	if !ok {
		return fmt.Errorf("wrong type for Upload: %T", input)
	}
	u.Part = part
	return nil
}
