package tools

import (
	"context"
	"testing"
	"time"
)

func TestCurrentTimeTool_ReturnsRFC3339UTC(t *testing.T) {
	tool := NewCurrentTimeTool()

	res := tool.Execute(context.Background(), nil)
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res)
	}

	parsed, err := time.Parse(time.RFC3339, res.ForLLM)
	if err != nil {
		t.Fatalf("result %q is not valid RFC3339: %v", res.ForLLM, err)
	}
	if parsed.Location() != time.UTC && parsed.UTC() != parsed {
		// Parse with a "Z" offset reports UTC; this just guards against a
		// non-UTC offset ever being emitted.
		if _, offset := parsed.Zone(); offset != 0 {
			t.Errorf("result %q is not UTC", res.ForLLM)
		}
	}
}

func TestCurrentTimeTool_NameAndSchema(t *testing.T) {
	tool := NewCurrentTimeTool()
	if tool.Name() != "current_time" {
		t.Errorf("Name() = %q", tool.Name())
	}
	params := tool.Parameters()
	if params["type"] != "object" {
		t.Errorf("Parameters()[type] = %v, want object", params["type"])
	}
}
