package security

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/panbanda/scry/pkg/config"
	"github.com/panbanda/scry/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rulesHit(t *testing.T, line string) []string {
	t.Helper()
	res, ok := New().Scan(source.File{Path: "x.js", Content: line})
	if !ok {
		return nil
	}
	ids := make([]string, len(res.Issues))
	for i, is := range res.Issues {
		ids[i] = is.Rule
	}
	return ids
}

func TestDefaultRules(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"eval", `const r = eval(userInput);`, []string{"no-eval"}},
		{"function constructor", `const f = new Function("a", body);`, []string{"no-new-function"}},
		{"string timer", `setTimeout("doThing()", 100);`, []string{"no-string-timer"}},
		{"function timer is fine", `setTimeout(() => doThing(), 100);`, nil},
		{"inner html", `el.innerHTML = html;`, []string{"no-inner-html"}},
		{"inner html append", `el.innerHTML += row;`, []string{"no-inner-html"}},
		{"inner html comparison", `if (el.innerHTML == "") {}`, nil},
		{"document write", `document.write("<p>" + name + "</p>");`, []string{"no-document-write"}},
		{"hardcoded password", `const password = "hunter22";`, []string{"hardcoded-secret"}},
		{"hardcoded api key", `apiKey: 'sk_live_abcdef'`, []string{"hardcoded-secret"}},
		{"json style token", `"token": "abc123xyz"`, []string{"hardcoded-secret"}},
		{"secret from env", `const secret = process.env.SECRET;`, nil},
		{"secret comparison", `if (secret === "abc") {}`, nil},
		{"md5", `crypto.createHash('md5')`, []string{"weak-hash"}},
		{"sha1", `hashlib.sha1(data)`, []string{"weak-hash"}},
		{"sha256 is fine", `crypto.createHash('sha256')`, nil},
		{"sql concat", `db.query("SELECT * FROM users WHERE id = " + id);`, []string{"sql-concatenation"}},
		{"sql template", "db.query(`DELETE FROM users WHERE id = ${id}`);", []string{"sql-concatenation"}},
		{"sql parameterized", `db.query("SELECT * FROM users WHERE id = ?", [id]);`, nil},
		{"path from request", `fs.readFile(req.params.file, cb);`, []string{"request-path-concatenation"}},
		{"path concat", `const p = "/uploads/" + req.query.name;`, []string{"request-path-concatenation"}},
		{"path join", `res.sendFile(path.join(root, request.body.path));`, []string{"request-path-concatenation"}},
		{"plain code", `const total = items.length + 1;`, nil},
		{"multiple rules", `el.innerHTML = eval(x);`, []string{"no-eval", "no-inner-html"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rulesHit(t, tt.line))
		})
	}
}

func TestScanLineNumbersAndOrder(t *testing.T) {
	content := "const a = 1;\nel.innerHTML = x;\n\neval(y);\nconst h = md5(z);"
	res, ok := New().Scan(source.File{Path: "app.js", Content: content})
	require.True(t, ok)

	assert.Equal(t, "app.js", res.File)
	require.Len(t, res.Issues, 3)
	assert.Equal(t, 2, res.Issues[0].Line)
	assert.Equal(t, "xss", res.Issues[0].Type)
	assert.Equal(t, 4, res.Issues[1].Line)
	assert.Equal(t, SeverityCritical, res.Issues[1].Severity)
	assert.Equal(t, 5, res.Issues[2].Line)
	assert.Equal(t, "weak-crypto", res.Issues[2].Type)
}

func TestScanCleanFileOmitted(t *testing.T) {
	_, ok := New().Scan(source.File{Path: "clean.go", Content: "package clean\n\nfunc A() int { return 1 }\n"})
	assert.False(t, ok)
}

func TestScore(t *testing.T) {
	issue := func(sev Severity) Issue { return Issue{Severity: sev} }

	assert.Equal(t, 100, Score(nil))
	assert.Equal(t, 80, Score([]Issue{issue(SeverityLow), issue(SeverityHigh)}))
	assert.Equal(t, 50, Score([]Issue{issue(SeverityCritical), issue(SeverityHigh)}))
	assert.Equal(t, 60, Score([]Issue{issue(SeverityCritical)}))

	many := make([]Issue, 20)
	for i := range many {
		many[i] = issue(SeverityCritical)
	}
	assert.Equal(t, 0, Score(many))
}

func TestScanScore(t *testing.T) {
	res, ok := New().Scan(source.File{Path: "a.js", Content: "eval(a);\nel.innerHTML = b;"})
	require.True(t, ok)
	assert.Equal(t, 50, res.Score)
}

func TestSeverity(t *testing.T) {
	assert.Less(t, SeverityLow.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityCritical.Rank())
	assert.Equal(t, 0, Severity("bogus").Rank())

	sev, err := ParseSeverity("")
	require.NoError(t, err)
	assert.Equal(t, SeverityMedium, sev)

	sev, err = ParseSeverity("critical")
	require.NoError(t, err)
	assert.Equal(t, SeverityCritical, sev)

	_, err = ParseSeverity("severe")
	assert.Error(t, err)
}

func TestCompileRules(t *testing.T) {
	rules, err := CompileRules([]config.RuleConfig{
		{ID: "no-console", Pattern: `console\.log\(`, Severity: "low", Message: "console.log left in code"},
		{ID: "no-debugger", Pattern: `\bdebugger\b`},
	})
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, "custom", rules[0].Type)
	assert.Equal(t, SeverityLow, rules[0].Severity)
	assert.Equal(t, SeverityMedium, rules[1].Severity)
	assert.Contains(t, rules[1].Message, "no-debugger")
}

func TestCompileRulesErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.RuleConfig
	}{
		{"bad regex", config.RuleConfig{ID: "bad", Pattern: "("}},
		{"bad severity", config.RuleConfig{ID: "bad", Pattern: "x", Severity: "extreme"}},
		{"missing id", config.RuleConfig{Pattern: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileRules([]config.RuleConfig{tt.cfg})
			require.Error(t, err)

			var ruleErr *RuleError
			require.True(t, errors.As(err, &ruleErr))
			assert.NotNil(t, errors.Unwrap(err))
		})
	}
}

func TestCustomRulesRunAfterDefaults(t *testing.T) {
	custom := Rule{
		ID:       "no-debugger",
		Pattern:  regexp.MustCompile(`\bdebugger\b`),
		Type:     "debug",
		Severity: SeverityLow,
		Message:  "debugger statement",
	}
	s := New(WithRules(custom))

	res, ok := s.Scan(source.File{Path: "a.js", Content: "debugger; eval(x);"})
	require.True(t, ok)
	require.Len(t, res.Issues, 2)
	assert.Equal(t, "no-eval", res.Issues[0].Rule)
	assert.Equal(t, "no-debugger", res.Issues[1].Rule)
}

func TestWithDisabled(t *testing.T) {
	s := New(WithDisabled("weak-hash", "no-eval"))
	for _, r := range s.Rules() {
		assert.NotEqual(t, "weak-hash", r.ID)
		assert.NotEqual(t, "no-eval", r.ID)
	}

	_, ok := s.Scan(source.File{Path: "a.js", Content: "eval(md5(x));"})
	assert.False(t, ok)
	assert.Len(t, New().Rules(), len(DefaultRules()))
}

func TestAnalyzeSparseAndOrdered(t *testing.T) {
	var files []source.File
	for i := range 20 {
		content := "const ok = 1;"
		if i%3 == 0 {
			content = "eval(x);"
		}
		files = append(files, source.File{Path: fmt.Sprintf("f%02d.js", i), Content: content})
	}

	results, err := New(WithWorkers(4)).Analyze(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, results, 7)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("f%02d.js", i*3), r.File)
		assert.Equal(t, 60, r.Score)
	}
}

func TestParseSeverityAcceptsConfigSeverities(t *testing.T) {
	for i, name := range config.RuleSeverities {
		sev, err := ParseSeverity(name)
		require.NoError(t, err, name)
		assert.Equal(t, i+1, sev.Rank(), name)
	}

	_, err := ParseSeverity("urgent")
	assert.Error(t, err)
}
