// Package lint provides static analysis checks for the repeated API.
//
// This analyzer detects mistakes that would otherwise surface only when
// the test runs:
//   - Option literals outside their valid range, e.g. repeated.CI(1)
//   - Options from more than one decision rule on the same call
//   - Statistical options missing their required companion
//   - Statistical rules evaluated on a single trial
//   - Unknown or conflicting names in a repeated.RunOptions map literal
//
// Usage:
//
//	go install github.com/example/turboci-repeated/cmd/repeated-lint@latest
//	repeated-lint ./...
package lint

import (
	"go/ast"
	"go/constant"
	"go/token"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/example/turboci-repeated/repeated/domain"
)

// Analyzer is the repeated lint analyzer.
var Analyzer = &analysis.Analyzer{
	Name:     "repeatedlint",
	Doc:      "checks for repeated API mistakes",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

const pkgName = "repeated"

// optionFamilies maps functional options to the rule family they select.
var optionFamilies = map[string]domain.RuleKind{
	"Threshold":   domain.RuleThreshold,
	"Null":        domain.RuleFrequentist,
	"CI":          domain.RuleFrequentist,
	"Posterior":   domain.RuleBayesian,
	"SuccessRate": domain.RuleBayesian,
	"Prior":       domain.RuleBayesian,
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{(*ast.CallExpr)(nil)}
	inspect.Preorder(nodeFilter, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		name, ok := repeatedCall(call)
		if !ok {
			return
		}

		switch name {
		case "Times", "Threshold", "Null", "CI", "Posterior", "SuccessRate", "Prior":
			checkRange(pass, call, name)
		case "Run", "RunFunc":
			if len(call.Args) > 2 {
				checkOptions(pass, call, call.Args[2:])
			}
		case "RunOptions":
			if len(call.Args) > 1 {
				checkOptionMap(pass, call.Args[1])
			}
		}
	})

	return nil, nil
}

// repeatedCall returns the function name for calls like repeated.Run(...).
func repeatedCall(call *ast.CallExpr) (string, bool) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return "", false
	}
	pkg, ok := sel.X.(*ast.Ident)
	if !ok || pkg.Name != pkgName {
		return "", false
	}
	return sel.Sel.Name, true
}

// checkRange reports constant option arguments outside their valid range.
func checkRange(pass *analysis.Pass, call *ast.CallExpr, name string) {
	for i, arg := range call.Args {
		v, ok := constFloat(pass, arg)
		if !ok {
			continue
		}
		var msg string
		switch name {
		case "Times":
			if v < 1 {
				msg = "Times must be at least 1"
			}
		case "Threshold":
			if v < 0 {
				msg = "Threshold must be at least 0"
			}
		case "Null", "SuccessRate":
			if v < 0 || v > 1 {
				msg = name + " must be between 0 and 1"
			}
		case "CI":
			if v <= 0 || v >= 1 {
				msg = "CI must be strictly between 0 and 1"
			}
		case "Posterior":
			if v <= 0 || v > 1 {
				msg = "Posterior must be in (0, 1]"
			}
		case "Prior":
			if v <= 0 && i == 0 {
				msg = "Prior passes must be positive"
			} else if v <= 0 {
				msg = "Prior failures must be positive"
			}
		}
		if msg != "" {
			pass.Reportf(arg.Pos(), "%s, got %s", msg, strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
}

// checkOptions validates the combination of functional options on one call.
func checkOptions(pass *analysis.Pass, call *ast.CallExpr, args []ast.Expr) {
	used := map[string]ast.Expr{}
	families := map[domain.RuleKind][]string{}
	for _, arg := range args {
		inner, ok := arg.(*ast.CallExpr)
		if !ok {
			continue
		}
		name, ok := repeatedCall(inner)
		if !ok {
			continue
		}
		used[name] = inner
		if kind, ok := optionFamilies[name]; ok {
			families[kind] = append(families[kind], name)
		}
	}

	if len(families) > 1 {
		pass.Reportf(call.Pos(), "conflicting decision rules: %s", describe(families))
		return
	}
	if _, ci := used["CI"]; ci {
		if _, null := used["Null"]; !null {
			pass.Reportf(used["CI"].Pos(), "CI requires Null")
		}
	}
	_, posterior := used["Posterior"]
	_, rate := used["SuccessRate"]
	_, prior := used["Prior"]
	switch {
	case rate && !posterior:
		pass.Reportf(used["SuccessRate"].Pos(), "SuccessRate requires Posterior")
	case (posterior || prior) && !rate:
		pass.Reportf(call.Pos(), "Posterior requires SuccessRate")
	}

	statistical := len(families[domain.RuleFrequentist]) > 0 || len(families[domain.RuleBayesian]) > 0
	if statistical {
		times, ok := used["Times"]
		if !ok {
			pass.Reportf(call.Pos(), "statistical rule evaluated on a single trial; add repeated.Times")
		} else if v, ok := firstConstArg(pass, times); ok && v == 1 {
			pass.Reportf(times.Pos(), "statistical rule evaluated on a single trial")
		}
	}
}

// checkOptionMap validates the keys of a map literal passed to RunOptions.
func checkOptionMap(pass *analysis.Pass, expr ast.Expr) {
	lit, ok := expr.(*ast.CompositeLit)
	if !ok {
		return
	}
	families := map[domain.RuleKind][]string{}
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		key := extractStringLit(kv.Key)
		if key == "" {
			continue
		}
		kind, ok := domain.OptionFamily(key)
		if !ok {
			pass.Reportf(kv.Key.Pos(), "unknown option %q", key)
			continue
		}
		if kind != domain.RuleUnknown {
			families[kind] = append(families[kind], key)
		}
	}
	if len(families) > 1 {
		pass.Reportf(lit.Pos(), "conflicting decision rules: %s", describe(families))
	}
}

func describe(families map[domain.RuleKind][]string) string {
	parts := make([]string, 0, len(families))
	for kind, names := range families {
		parts = append(parts, kind.String()+" ("+strings.Join(names, ", ")+")")
	}
	sort.Strings(parts)
	return strings.Join(parts, " and ")
}

func firstConstArg(pass *analysis.Pass, expr ast.Expr) (float64, bool) {
	call, ok := expr.(*ast.CallExpr)
	if !ok || len(call.Args) == 0 {
		return 0, false
	}
	return constFloat(pass, call.Args[0])
}

// constFloat returns the value of a numeric constant expression.
func constFloat(pass *analysis.Pass, expr ast.Expr) (float64, bool) {
	tv, ok := pass.TypesInfo.Types[expr]
	if !ok || tv.Value == nil {
		return 0, false
	}
	switch tv.Value.Kind() {
	case constant.Int, constant.Float:
		v, _ := constant.Float64Val(constant.ToFloat(tv.Value))
		return v, true
	}
	return 0, false
}

// extractStringLit extracts a string literal value from an expression.
func extractStringLit(expr ast.Expr) string {
	if lit, ok := expr.(*ast.BasicLit); ok && lit.Kind == token.STRING {
		s, err := strconv.Unquote(lit.Value)
		if err == nil {
			return s
		}
	}
	return ""
}
