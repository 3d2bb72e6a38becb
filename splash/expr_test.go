package splash

import "testing"

func TestEvalStringSubstitutesPlaceholders(t *testing.T) {
	vars := Vars{DPI: "hdpi", Version: "1.2.3", Status: "Downloading", Progress: 0.5}
	got := EvalString("${status} ${version} (${dpi})", vars)
	want := "Downloading 1.2.3 (hdpi)"
	if got != want {
		t.Errorf("EvalString = %q, want %q", got, want)
	}
}

func TestEvalNumberPlainLiteral(t *testing.T) {
	got, err := EvalNumber("42", Vars{})
	if err != nil {
		t.Fatalf("EvalNumber: %v", err)
	}
	if got != 42 {
		t.Errorf("got %v, want 42", got)
	}
}

func TestEvalNumberProgressPlaceholder(t *testing.T) {
	got, err := EvalNumber("${progress} * 100", Vars{Progress: 0.25})
	if err != nil {
		t.Fatalf("EvalNumber: %v", err)
	}
	if got != 25 {
		t.Errorf("got %v, want 25", got)
	}
}

func TestEvalNumberPrecedence(t *testing.T) {
	got, err := EvalNumber("2 + 3 * 4", Vars{})
	if err != nil {
		t.Fatalf("EvalNumber: %v", err)
	}
	if got != 14 {
		t.Errorf("got %v, want 14", got)
	}
}

func TestEvalNumberCompactExpression(t *testing.T) {
	got, err := EvalNumber("10-4/2", Vars{})
	if err != nil {
		t.Fatalf("EvalNumber: %v", err)
	}
	if got != 8 {
		t.Errorf("got %v, want 8", got)
	}
}

func TestEvalNumberDivisionByZeroErrors(t *testing.T) {
	if _, err := EvalNumber("1 / 0", Vars{}); err == nil {
		t.Fatal("expected division-by-zero error")
	}
}

func TestEvalNumberInvalidTokenErrors(t *testing.T) {
	if _, err := EvalNumber("1 + abc", Vars{}); err == nil {
		t.Fatal("expected parse error for non-numeric token")
	}
}

func TestEvalNumberEmptyExpressionErrors(t *testing.T) {
	if _, err := EvalNumber("", Vars{}); err == nil {
		t.Fatal("expected error for empty expression")
	}
}
