package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formguard/pkg/normalize"
	pkgopenapi "github.com/goliatone/go-formguard/pkg/openapi"
)

func parse(t *testing.T, raw string, opts ...pkgopenapi.ParserOption) (map[string]pkgopenapi.Operation, error) {
	t.Helper()
	doc := pkgopenapi.MustNewDocument(pkgopenapi.SourceFromFile("inline.yaml"), []byte(raw))
	return New(pkgopenapi.NewParserOptions(opts...)).Operations(context.Background(), doc)
}

func TestOperationsFromFixture(t *testing.T) {
	t.Parallel()

	raw, err := os.ReadFile(filepath.Join("..", "testdata", "users.yaml"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	ops, err := parse(t, string(raw), pkgopenapi.WithValidation(true))
	if err != nil {
		t.Fatalf("operations: %v", err)
	}

	if diff := cmp.Diff([]string{"createUser", "listUsers", "put:/users/{id}/avatar"}, pkgopenapi.OperationIDs(ops)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	create := ops["createUser"]
	if create.Method != "POST" || create.Path != "/users" || create.ContentType != "application/json" {
		t.Fatalf("createUser = %s %s %s", create.Method, create.Path, create.ContentType)
	}
	if diff := cmp.Diff([]string{"email", "username", "age"}, create.Body.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	username := create.Body.Properties["username"]
	if diff := cmp.Diff(normalize.Set{{Name: "remote", Param: []any{"/check-username"}}}, username.Extra); diff != "" {
		t.Fatalf("extension rules mismatch (-want +got):\n%s", diff)
	}

	if ops["listUsers"].HasBody() {
		t.Fatalf("listUsers should not carry a body")
	}
	avatar := ops["put:/users/{id}/avatar"]
	if avatar.ContentType != "multipart/form-data" || avatar.Method != "PUT" {
		t.Fatalf("avatar = %+v", avatar)
	}
}

func TestRecursiveReferencesStop(t *testing.T) {
	t.Parallel()

	const document = `{
  "openapi": "3.0.0",
  "info": { "title": "Cycle", "version": "1.0.0" },
  "paths": {
    "/publishers": {
      "post": {
        "operationId": "createPublisher",
        "requestBody": {
          "content": {
            "application/json": { "schema": { "$ref": "#/components/schemas/PublishingHouse" } }
          }
        },
        "responses": { "201": { "description": "created" } }
      }
    }
  },
  "components": {
    "schemas": {
      "PublishingHouse": {
        "type": "object",
        "properties": {
          "name": { "type": "string" },
          "headquarters": { "$ref": "#/components/schemas/Headquarters" }
        }
      },
      "Headquarters": {
        "type": "object",
        "properties": {
          "publisher": { "$ref": "#/components/schemas/PublishingHouse" }
        }
      }
    }
  }
}`

	ops, err := parse(t, document)
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	hq := ops["createPublisher"].Body.Properties["headquarters"]
	if hq.Ref != "#/components/schemas/Headquarters" {
		t.Fatalf("headquarters ref = %q", hq.Ref)
	}
	publisher := hq.Properties["publisher"]
	if publisher.Ref != "#/components/schemas/PublishingHouse" || len(publisher.Properties) != 0 {
		t.Fatalf("cycle not cut: %+v", publisher)
	}
}

func TestInvalidRulesExtension(t *testing.T) {
	t.Parallel()

	const document = `
openapi: 3.0.3
info: {title: Bad, version: "1"}
paths:
  /x:
    post:
      operationId: bad
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                name:
                  type: string
                  x-formguard-rules: 5
      responses:
        '200': {description: ok}
`
	_, err := parse(t, document)
	if err == nil || !strings.Contains(err.Error(), RulesExtension) {
		t.Fatalf("error = %v, want extension failure", err)
	}
}

func TestEmptyDocuments(t *testing.T) {
	t.Parallel()

	if _, err := parse(t, `{"openapi":"3.0.0","info":{"title":"x","version":"1"},"paths":{}}`); err == nil {
		t.Fatalf("expected error for document without paths")
	}
	if _, err := parse(t, `not: [valid`); err == nil {
		t.Fatalf("expected load error")
	}
}
