package rules

import (
	"bytes"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// defaultEntropyThreshold is the minimum Shannon entropy for a candidate
// string to be flagged as a potential secret. Rules may override it with an
// "entropy_threshold" metadata key.
const defaultEntropyThreshold = 4.5

// contextBoostReduction is subtracted from the threshold when the line
// containing a candidate also names a secret-suggestive variable.
const contextBoostReduction = 0.5

// minCandidateLen filters out short tokens that would otherwise flood the
// results with false positives.
const minCandidateLen = 8

// secretHints lowers the entropy threshold when present on the same line.
var secretHints = []string{
	"password", "secret", "key", "token", "credential", "api_key", "private",
}

var (
	base64Re = regexp.MustCompile(`[A-Za-z0-9+/=]{20,}`)
	hexRe    = regexp.MustCompile(`[0-9a-fA-F]{16,}`)
)

// EntropyMatcher implements Matcher using Shannon entropy analysis. It
// extracts candidate strings line by line (quoted values, base64 blobs, hex
// strings) and flags candidates whose entropy exceeds the threshold. It
// backs high-entropy hardcoded-secret rules where a fixed regex cannot
// describe the secret format.
type EntropyMatcher struct{}

// Match scans content line by line and returns candidates whose Shannon
// entropy exceeds the rule threshold, with 1-based line and column numbers.
func (m *EntropyMatcher) Match(content []byte, rule Rule) []MatchResult {
	threshold := defaultEntropyThreshold
	if v, ok := rule.Metadata["entropy_threshold"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			threshold = parsed
		}
	}

	var results []MatchResult
	for lineIdx, lineBytes := range bytes.Split(content, []byte("\n")) {
		line := string(lineBytes)

		effective := threshold
		if hasSecretContext(strings.ToLower(line)) {
			effective -= contextBoostReduction
		}

		for _, c := range extractCandidates(line) {
			if len(c.text) < minCandidateLen || isLikelyNotSecret(c.text) {
				continue
			}
			if ShannonEntropy(c.text) >= effective {
				results = append(results, MatchResult{
					Line:      lineIdx + 1,
					Column:    c.col,
					MatchText: c.text,
				})
			}
		}
	}
	return results
}

type entropyCandidate struct {
	col  int // 1-based
	text string
}

// extractCandidates collects unique candidate strings from a line: quoted
// values plus base64 and hex sequences. Overlapping extractions are
// deduplicated by position and text.
func extractCandidates(line string) []entropyCandidate {
	seen := make(map[string]struct{})
	var out []entropyCandidate

	add := func(col int, text string) {
		key := strconv.Itoa(col) + ":" + text
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, entropyCandidate{col: col, text: text})
	}

	// Quoted strings, single and double.
	for _, quote := range []byte{'"', '\''} {
		i := 0
		for i < len(line) {
			start := strings.IndexByte(line[i:], quote)
			if start == -1 {
				break
			}
			start += i
			end := strings.IndexByte(line[start+1:], quote)
			if end == -1 {
				break
			}
			end += start + 1
			if value := line[start+1 : end]; len(value) >= minCandidateLen {
				add(start+2, value)
			}
			i = end + 1
		}
	}

	// Base64 and hex sequences.
	for _, re := range []*regexp.Regexp{base64Re, hexRe} {
		for _, loc := range re.FindAllStringIndex(line, -1) {
			add(loc[0]+1, line[loc[0]:loc[1]])
		}
	}

	return out
}

// ShannonEntropy calculates the Shannon entropy of a string in bits per
// character. Higher values indicate more randomness.
func ShannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0.0
	}
	freq := make(map[rune]float64)
	for _, c := range s {
		freq[c]++
	}
	length := float64(len([]rune(s)))
	var entropy float64
	for _, count := range freq {
		p := count / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// hasSecretContext returns true if the lowercased line contains any
// secret-suggestive variable names.
func hasSecretContext(lineLower string) bool {
	for _, hint := range secretHints {
		if strings.Contains(lineLower, hint) {
			return true
		}
	}
	return false
}

// isLikelyNotSecret filters common non-secret values: URLs and
// dictionary-like all-lowercase words.
func isLikelyNotSecret(s string) bool {
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return true
	}
	for _, r := range s {
		if !unicode.IsLower(r) || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
