package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestValidate_Success(t *testing.T) {
	schema := Schema{
		"target":  String(),
		"retries": Int(),
		"ratio":   Float(),
		"enabled": Bool(),
		"tags":    Slice(String()),
	}

	data := map[string]any{
		"target":  "prod",
		"retries": 3,
		"ratio":   0.5,
		"enabled": true,
		"tags":    []string{"eu", "us"},
	}

	if err := Validate(schema, data); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_AbsentFieldsAreFine(t *testing.T) {
	schema := Schema{"target": String(), "retries": Int()}

	if err := Validate(schema, map[string]any{"target": "prod"}); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	schema := Schema{"retries": Int()}
	data := map[string]any{
		"retries": "three",
		"unknown": 1,
	}

	err := Validate(schema, data)
	if err == nil {
		t.Fatal("Validate() should fail")
	}

	var aggr *AggregateError
	if !errors.As(err, &aggr) || len(aggr.Errors) != 2 {
		t.Fatalf("Validate() = %v, want 2 errors", err)
	}
	errs := aggr.Errors

	first, ok := errs[0].(*ValidationError)
	if !ok || first.Key != "retries" {
		t.Errorf("first error = %v, want retries failure", errs[0])
	}
	second, ok := errs[1].(*ValidationError)
	if !ok || second.Key != "unknown" || second.Reason != "not declared" {
		t.Errorf("second error = %v, want unknown not declared", errs[1])
	}
}

func TestParameter_Process(t *testing.T) {
	p := Parameter{Name: "replicas", Type: Int()}

	v, err := p.Process("deploy.replicas", "4", true)
	if err != nil || v != 4 {
		t.Fatalf("Process() = %v, %v; want 4", v, err)
	}

	if _, err := p.Process("deploy.replicas", "3.5", true); err == nil {
		t.Error("Process(3.5) should reject a fractional int")
	}

	_, err = p.Process("deploy.replicas", "four", true)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Process() error = %T, want *ValidationError", err)
	}
	if verr.Key != "deploy.replicas" {
		t.Errorf("Key = %q, want %q", verr.Key, "deploy.replicas")
	}
}

func TestParameters_Visible(t *testing.T) {
	params := Parameters{
		"b":      {Name: "b", Required: true},
		"a":      {Name: "a", Required: true},
		"opt":    {Name: "opt"},
		"secret": {Name: "secret", Hidden: true, Required: true},
	}

	required, optional := params.Visible()
	if len(required) != 2 || required[0].Name != "a" || required[1].Name != "b" {
		t.Errorf("required = %v, want [a b]", required)
	}
	if len(optional) != 1 || optional[0].Name != "opt" {
		t.Errorf("optional = %v, want [opt]", optional)
	}
}

func TestParameter_JSON(t *testing.T) {
	p := Parameter{Name: "tags", Type: Slice(String()), Default: []any{"x"}, Description: "labels"}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"type":"[text]"`) {
		t.Errorf("Marshal() = %s, missing type name", data)
	}

	var back Parameter
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.TypeName() != "[text]" || back.Description != "labels" {
		t.Errorf("Unmarshal() = %+v", back)
	}
}

func TestValidationError_String(t *testing.T) {
	err := &ValidationError{Key: "deploy.target", Reason: "expected text", Value: 42}
	want := `parameter "deploy.target": expected text (got int)`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err = &ValidationError{Key: "x", Reason: "not declared"}
	if err.Error() != `parameter "x": not declared` {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestAggregateError_String(t *testing.T) {
	err := &AggregateError{Errors: []error{
		&ValidationError{Key: "a", Reason: "bad"},
		&ValidationError{Key: "b", Reason: "worse"},
	}}

	msg := err.Error()
	if !strings.HasPrefix(msg, "2 validation errors:") {
		t.Errorf("Error() = %q", msg)
	}
	if !strings.Contains(msg, `1. parameter "a": bad`) || !strings.Contains(msg, `2. parameter "b": worse`) {
		t.Errorf("Error() = %q", msg)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Key != "a" {
		t.Errorf("errors.As() = %v, want the first failure", verr)
	}
}
