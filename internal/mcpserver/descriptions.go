package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// and how to read the results.

func describeProject() string {
	return `Runs every analysis (complexity, security, duplication, dependencies) over one project and returns a merged report with a summary and recommendations.

USE WHEN:
- Getting a first overview of an unfamiliar codebase
- Preparing a code review or a refactoring plan
- Checking a branch before merge (pass ref to analyze a git revision)

INTERPRETING RESULTS:
- summary.highComplexityFiles: files rated high or very-high
- summary.criticalSecurityIssues: fix these first
- summary.duplicationRate above 10 means duplicated code deserves extraction
- recommendations: ordered, actionable next steps

Only files with extensions .ts .tsx .js .jsx .py .java .go .rs .cs .php are analyzed.`
}

func describeComplexity() string {
	return `Scores the cyclomatic complexity of every function-like block in each source file.

USE WHEN:
- Identifying functions that are hard to test or maintain
- Finding refactoring candidates before code reviews

INTERPRETING RESULTS:
- Function complexity starts at 1 and grows with each branch or boolean operator
- File rating by average: low <= 5, medium <= 10, high <= 20, very-high above
- Functions lists each block with its starting line

METRICS RETURNED:
- Per-file: averageComplexity, rating, functions (name, complexity, line)`
}

func describeSecurity() string {
	return `Scans source lines for risky patterns: eval and string timers, innerHTML and document.write, hardcoded secrets, weak hashes, SQL built by concatenation, and request-derived file paths.

USE WHEN:
- Auditing code before a release
- Reviewing untrusted contributions

INTERPRETING RESULTS:
- Severity: critical > high > medium > low
- score: 100 minus 10 per issue and 30 more per critical issue, floored at 0
- Matches are line-based heuristics; confirm each finding in context

Files without issues are omitted.`
}

func describeDuplicates() string {
	return `Finds duplicated code blocks across files using a normalized sliding-window comparison.

USE WHEN:
- Looking for copy-pasted logic to extract into shared functions
- Estimating how much of a codebase is duplicated

INTERPRETING RESULTS:
- Each duplicate pairs fragment1 and fragment2 with line ranges
- similarity: share of equal normalized lines (1.0 = identical)
- duplicationPercentage: duplicated lines over total lines

Set ranked to keep the largest duplicates when there are many.`
}

func describeDependencies() string {
	return `Lists dependencies declared in package.json or Cargo.toml and, for npm projects, audits them for known vulnerabilities.

USE WHEN:
- Reviewing supply-chain risk
- Checking whether a lockfile is committed

INTERPRETING RESULTS:
- type: prod or dev
- vulnerabilities: advisory count; missing when the audit did not run or failed
- outdated: missing unless requested and supported
- hasPackageLock: whether a lockfile exists next to the manifest`
}
