package params

import (
	"math"
	"testing"
)

func TestEvalNumericLiteral(t *testing.T) {
	env := NewEnv(nil)
	cases := map[string]float64{
		"42":     42,
		"3.5":    3.5,
		"-12.25": -12.25,
		" 7 ":    7,
		"1e3":    1000,
	}
	for expr, want := range cases {
		got, err := env.Eval(expr)
		if err != nil {
			t.Errorf("Eval(%q): %v", expr, err)
			continue
		}
		if got != want {
			t.Errorf("Eval(%q) = %f, want %f", expr, got, want)
		}
	}
}

func TestEvalEmptyExpression(t *testing.T) {
	env := NewEnv(nil)
	if _, err := env.Eval(""); err == nil {
		t.Error("empty expression should fail")
	}
	if _, err := env.Eval("   "); err == nil {
		t.Error("blank expression should fail")
	}
}

func TestEvalInfixFormula(t *testing.T) {
	env := NewEnv(map[string]float64{"width": 40, "wall": 2.5})
	got, err := env.Eval("width / 2 + wall")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if math.Abs(got-22.5) > 1e-9 {
		t.Errorf("got %f, want 22.5", got)
	}
}

func TestEvalSexpFormula(t *testing.T) {
	env := NewEnv(map[string]float64{"height": 12})
	got, err := env.Eval("(+ height 2)")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != 14 {
		t.Errorf("got %f, want 14", got)
	}
}

func TestEvalUndefinedParameter(t *testing.T) {
	env := NewEnv(map[string]float64{"width": 40})
	if _, err := env.Eval("width + ghost"); err == nil {
		t.Error("undefined parameter should fail")
	}
}

func TestResolveTableInOrder(t *testing.T) {
	env, err := Resolve([]Param{
		{Name: "width", Expr: "40"},
		{Name: "half", Expr: "width / 2"},
		{Name: "rim", Expr: "half - 15"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v, ok := env.Value("half"); !ok || v != 20 {
		t.Errorf("half = %f ok=%v, want 20", v, ok)
	}
	if v, ok := env.Value("rim"); !ok || v != 5 {
		t.Errorf("rim = %f ok=%v, want 5", v, ok)
	}
}

func TestResolveRejectsForwardReference(t *testing.T) {
	_, err := Resolve([]Param{
		{Name: "half", Expr: "width / 2"},
		{Name: "width", Expr: "40"},
	})
	if err == nil {
		t.Error("forward reference should fail")
	}
}

func TestResolveRejectsInvalidNames(t *testing.T) {
	bad := []string{"", "2tall", "with space", "semi;colon", "dash-ed"}
	for _, name := range bad {
		if _, err := Resolve([]Param{{Name: name, Expr: "1"}}); err == nil {
			t.Errorf("name %q should be rejected", name)
		}
	}
	if _, err := Resolve([]Param{{Name: "ok_name2", Expr: "1"}}); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
}

func TestValueMiss(t *testing.T) {
	env := NewEnv(nil)
	if _, ok := env.Value("nope"); ok {
		t.Error("missing parameter should not resolve")
	}
}
