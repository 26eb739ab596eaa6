package filter

import (
	"strings"
	"testing"
)

func TestTag(t *testing.T) {
	c, err := Tag("source", "reddit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsTag() || c.Key() != "source" || c.TagValue() != "reddit" || c.Floor() != nil {
		t.Errorf("unexpected condition: %+v", c)
	}
}

func TestTag_Validation(t *testing.T) {
	if _, err := Tag("", "x"); err == nil || !strings.Contains(err.Error(), "key") {
		t.Errorf("expected key error, got %v", err)
	}
	if _, err := Tag("source", ""); err == nil || !strings.Contains(err.Error(), "value") {
		t.Errorf("expected value error, got %v", err)
	}
}

func TestAtLeast(t *testing.T) {
	c, err := AtLeast("created_ts", 1700000000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.IsTag() || c.Floor() == nil || *c.Floor() != 1700000000 {
		t.Errorf("unexpected condition: %+v", c)
	}
	if _, err := AtLeast("", 1); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestNewExpression(t *testing.T) {
	empty, err := NewExpression(nil, nil)
	if err != nil || !empty.IsEmpty() {
		t.Fatalf("empty expression: %v %v", empty, err)
	}

	src, _ := Tag("source", "reddit")
	cat, _ := Tag("categories", "saas")
	e, err := NewExpression([]Condition{src}, []Condition{cat})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.IsEmpty() || len(e.All()) != 1 || len(e.AnyOf()) != 1 {
		t.Errorf("unexpected expression: %+v", e)
	}
}

func TestNewExpression_TooManyAlternatives(t *testing.T) {
	conds := make([]Condition, MaxAnyOf+1)
	for i := range conds {
		conds[i], _ = Tag("categories", "c")
	}
	if _, err := NewExpression(nil, conds); err == nil {
		t.Fatal("expected error")
	}
}
