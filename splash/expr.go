package splash

import (
	"strconv"
	"strings"

	"github.com/nativestart-go/launcher/launcherrors"
)

// Vars are the per-frame substitution values available to a splash script:
// ${dpi}, ${version}, ${status}, ${progress}.
type Vars struct {
	DPI      string  // "mdpi" | "hdpi" | "xhdpi"
	Version  string
	Status   string  // "" | "Downloading" | "Starting"
	Progress float64 // [0,1]
}

// substitute replaces every ${name} placeholder in expr with its resolved
// value from vars. Numeric placeholders substitute as their decimal
// representation so the result can still be arithmetically evaluated;
// string placeholders ($dpi, $version, $status) are only valid standalone.
func substitute(expr string, vars Vars) string {
	replacer := strings.NewReplacer(
		"${dpi}", vars.DPI,
		"${version}", vars.Version,
		"${status}", vars.Status,
		"${progress}", strconv.FormatFloat(vars.Progress, 'f', -1, 64),
	)
	return replacer.Replace(expr)
}

// EvalString resolves placeholders in expr and returns the resulting text,
// for arguments that are pure string substitutions (textalign values,
// ${status}/${version} driven text).
func EvalString(expr string, vars Vars) string {
	return substitute(expr, vars)
}

// EvalNumber resolves placeholders, then evaluates the resulting arithmetic
// expression over +, -, *, / with standard precedence (no parentheses —
// the splash script grammar does not need them for its simple layout math).
func EvalNumber(expr string, vars Vars) (float64, error) {
	resolved := substitute(expr, vars)
	return evalArithmetic(resolved)
}

// evalArithmetic evaluates a left-to-right, whitespace-separated token
// stream of numbers and +-*/ operators with * and / binding tighter than +
// and -.
func evalArithmetic(expr string) (float64, error) {
	tokens := tokenize(expr)
	if len(tokens) == 0 {
		return 0, launcherrors.New(launcherrors.Splash, "empty numeric expression")
	}

	terms, ops, err := splitTerms(tokens)
	if err != nil {
		return 0, err
	}

	total := terms[0]
	for i, op := range ops {
		switch op {
		case "+":
			total += terms[i+1]
		case "-":
			total -= terms[i+1]
		}
	}
	return total, nil
}

// splitTerms folds every run of *//-bound factors into a single term,
// returning the resulting terms and the +/- operators joining them.
func splitTerms(tokens []string) ([]float64, []string, error) {
	var terms []float64
	var ops []string

	i := 0
	for i < len(tokens) {
		term, consumed, err := parseFactorChain(tokens[i:])
		if err != nil {
			return nil, nil, err
		}
		terms = append(terms, term)
		i += consumed
		if i < len(tokens) {
			op := tokens[i]
			if op != "+" && op != "-" {
				return nil, nil, launcherrors.New(launcherrors.Splash, "expected + or - in expression, got %q", op)
			}
			ops = append(ops, op)
			i++
		}
	}
	return terms, ops, nil
}

// parseFactorChain parses number (op number)* while op is * or /, stopping
// at the first + or -, and returns the folded value plus tokens consumed.
func parseFactorChain(tokens []string) (float64, int, error) {
	if len(tokens) == 0 {
		return 0, 0, launcherrors.New(launcherrors.Splash, "unexpected end of expression")
	}
	value, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return 0, 0, launcherrors.Wrap(launcherrors.Splash, err, "invalid number %q", tokens[0])
	}
	i := 1
	for i < len(tokens) {
		op := tokens[i]
		if op != "*" && op != "/" {
			break
		}
		if i+1 >= len(tokens) {
			return 0, 0, launcherrors.New(launcherrors.Splash, "expression ends after operator %q", op)
		}
		rhs, err := strconv.ParseFloat(tokens[i+1], 64)
		if err != nil {
			return 0, 0, launcherrors.Wrap(launcherrors.Splash, err, "invalid number %q", tokens[i+1])
		}
		switch op {
		case "*":
			value *= rhs
		case "/":
			if rhs == 0 {
				return 0, 0, launcherrors.New(launcherrors.Splash, "division by zero in expression")
			}
			value /= rhs
		}
		i += 2
	}
	return value, i, nil
}

// tokenize splits expr into number and operator tokens, inserting spaces
// around operators first so compact expressions like "10+5*2" still split
// correctly alongside spaced ones.
func tokenize(expr string) []string {
	var b strings.Builder
	for _, r := range expr {
		switch r {
		case '+', '-', '*', '/':
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Fields(b.String())
}
