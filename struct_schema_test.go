package finchat

import (
	"context"
	"testing"
)

type analyzeArgs struct {
	Holdings string   `json:"holdings" required:"true" desc:"Portfolio holdings"`
	Target   string   `json:"target" enum:"conservative,balanced,aggressive"`
	Symbols  []string `json:"symbols"`
	MaxRisk  float64  `json:"max_risk"`
	internal string   // unexported, must not appear in the schema
}

func TestSchemaFromStruct(t *testing.T) {
	schema, err := SchemaFromStruct(analyzeArgs{})
	if err != nil {
		t.Fatalf("SchemaFromStruct() error = %v", err)
	}

	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties missing: %v", schema)
	}
	if _, ok := props["internal"]; ok {
		t.Error("unexported field leaked into schema")
	}

	holdings, _ := props["holdings"].(map[string]any)
	if holdings["type"] != "string" || holdings["description"] != "Portfolio holdings" {
		t.Errorf("holdings schema = %v", holdings)
	}

	target, _ := props["target"].(map[string]any)
	enum, _ := target["enum"].([]string)
	if len(enum) != 3 {
		t.Errorf("target enum = %v", enum)
	}

	symbols, _ := props["symbols"].(map[string]any)
	if symbols["type"] != "array" {
		t.Errorf("symbols schema = %v", symbols)
	}

	maxRisk, _ := props["max_risk"].(map[string]any)
	if maxRisk["type"] != "number" {
		t.Errorf("max_risk schema = %v", maxRisk)
	}

	required, _ := schema["required"].([]string)
	if len(required) != 1 || required[0] != "holdings" {
		t.Errorf("required = %v, want [holdings]", required)
	}
}

func TestSchemaFromStructRejectsNonStruct(t *testing.T) {
	if _, err := SchemaFromStruct("not a struct"); err == nil {
		t.Error("SchemaFromStruct(string) error = nil")
	}
	if _, err := SchemaFromStruct(nil); err == nil {
		t.Error("SchemaFromStruct(nil) error = nil")
	}
}

func TestNewStructTool(t *testing.T) {
	builder, err := NewStructTool("analyze", func(ctx context.Context, args analyzeArgs) (any, error) {
		return "analyzed " + args.Holdings, nil
	})
	if err != nil {
		t.Fatalf("NewStructTool() error = %v", err)
	}
	tool := builder.WithDescription("Analyze a portfolio").Build()

	def := tool.ToToolDefinition()
	if _, ok := def.Parameters["properties"]; !ok {
		t.Errorf("definition missing struct-derived schema: %v", def.Parameters)
	}

	got, err := tool.Execute(context.Background(), map[string]any{
		"holdings": "AAPL and bonds",
		"max_risk": 0.5,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != "analyzed AAPL and bonds" {
		t.Errorf("Execute() = %q", got)
	}
}

func TestNewStructToolDecodeFailure(t *testing.T) {
	builder, err := NewStructTool("analyze", func(ctx context.Context, args analyzeArgs) (any, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("NewStructTool() error = %v", err)
	}
	tool := builder.Build()

	_, err = tool.Execute(context.Background(), map[string]any{"max_risk": "not a number"})
	if err == nil {
		t.Error("Execute() error = nil, want decode failure")
	}
}
