package supervisor

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// PreprocCommand turns the raw command tokens from the CLI into the single
// shell line the child is launched with. A single token passes through
// verbatim, so a command the user already quoted stays intact; multiple
// tokens are joined with shell quoting so constructs like
// foo 'a b' | bar survive the round trip.
func PreprocCommand(tokens []string) string {
	if len(tokens) == 1 {
		return tokens[0]
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = shellQuote(tok)
	}
	return strings.Join(quoted, " ")
}

// safeChars are the characters that never need quoting in a POSIX shell word.
const safeChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789@%+=:,./-_"

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	needsQuoting := false
	for _, r := range s {
		if !strings.ContainsRune(safeChars, r) {
			needsQuoting = true
			break
		}
	}
	if !needsQuoting {
		return s
	}
	// Single-quote the token; embedded single quotes become '"'"'.
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// jobIDLen is the length of a job id in hex characters.
const jobIDLen = 8

// NewJobID returns a fresh random lowercase-hex job id.
func NewJobID() (string, error) {
	buf := make([]byte, jobIDLen/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate job id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
