// Package validate holds input checks shared by the resource families.
package validate

import (
	"regexp"
	"strings"
)

// symbolRe matches tickers: 1-5 uppercase letters, optionally followed by a
// dot and a 1-2 letter exchange suffix (e.g. BMW.DE).
var symbolRe = regexp.MustCompile(`^[A-Z]{1,5}(\.[A-Z]{1,2})?$`)

// Symbol reports whether s is a well-formed ticker symbol.
func Symbol(s string) bool {
	return symbolRe.MatchString(s)
}

// Name reports whether s is a usable display name.
func Name(s string) bool {
	return strings.TrimSpace(s) != ""
}
