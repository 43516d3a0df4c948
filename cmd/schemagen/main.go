// Command schemagen emits a JSON schema for the wire protocol so server
// implementations in other languages can validate their messages against the
// client's expectations.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/crateandcrypt/netclient/protocol"
)

// wireDocument pulls every payload type into one schema. The envelope carries
// exactly one of the payloads, discriminated by the type field.
type wireDocument struct {
	Envelope     protocol.Envelope            `json:"envelope"`
	Join         protocol.JoinPayload         `json:"join"`
	Leave        protocol.LeavePayload        `json:"leave"`
	Chat         protocol.ChatPayload         `json:"chat"`
	PlayerUpdate protocol.PlayerUpdatePayload `json:"player_update"`
	WorldUpdate  protocol.WorldUpdatePayload  `json:"world_update"`
	Error        protocol.ErrorPayload        `json:"error"`
	Ping         protocol.PingPayload         `json:"ping"`
}

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	schema := buildSchema()

	if err := writeSchema(outPath, schema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(wireDocument))
	schema.Title = "Game Client Wire Protocol"
	schema.Description = "Envelope and payload shapes exchanged over the WebSocket connection"
	return schema
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
