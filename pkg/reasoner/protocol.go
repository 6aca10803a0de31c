package reasoner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charlenopires/codegraph/pkg/statement"
)

// Wire protocol: one statement per newline-terminated text frame, each
// prefixed "@<tag>:". Judgements are plain Narsese-like text with a {f c}
// truth suffix; the cycle request is a dedicated verb frame; the reasoner
// echoes the tag on every derivation so untagged lines can be dropped.
const cycleVerb = "CYCLES"

func encodeSession(statements []*statement.Statement, focal *statement.Statement, cycles int, tag string) []string {
	frames := make([]string, 0, len(statements)+2)
	for _, s := range statements {
		frames = append(frames, frame(tag, statement.Print(s)))
	}
	if focal != nil {
		frames = append(frames, frame(tag, statement.Print(focal)))
	}
	frames = append(frames, frame(tag, fmt.Sprintf("%s %d", cycleVerb, cycles)))
	return frames
}

func frame(tag, body string) string {
	return fmt.Sprintf("@%s:%s", tag, body)
}

// decodeSession parses every line tagged with tag, dropping the rest.
// Parsed statements without a truth suffix are treated as the reasoner's
// best answer to the focal question; statements with a truth suffix are
// derived judgements, indexed by each of their leaf terms for the
// retriever's symbolic channel.
func decodeSession(lines []string, tag string) (QueryResult, error) {
	prefix := "@" + tag + ":"

	result := QueryResult{DerivedTruths: make(map[string]derivedTruth)}
	for _, line := range lines {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		body := strings.TrimSpace(strings.TrimPrefix(line, prefix))
		if body == "" || strings.HasPrefix(body, cycleVerb) {
			continue
		}

		s, err := statement.Parse(body)
		if err != nil {
			continue
		}
		result.DerivedStatements = append(result.DerivedStatements, s)

		if s.Truth == nil {
			if result.BestAnswer == nil {
				result.BestAnswer = s
			}
			continue
		}
		for _, term := range statement.Terms(s) {
			result.DerivedTruths[term] = derivedTruth{F: s.Truth.F, C: s.Truth.C}
		}
	}
	return result, nil
}

// parseCycles extracts the cycle count from a "CYCLES n" request frame,
// used by fake transports in tests that want to honour the request.
func parseCycles(body string) (int, bool) {
	fields := strings.Fields(body)
	if len(fields) != 2 || fields[0] != cycleVerb {
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
