package source

import (
	"fmt"
	"strings"

	"github.com/David-Botos/gi-impact/pkg/model"
)

const utf8BOM = "\uFEFF"

// naValues are the tokens read as missing, the same set pandas uses by default
var naValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsNA reports whether a raw field denotes a missing value
func IsNA(s string) bool {
	_, ok := naValues[s]
	return ok
}

// CellValue converts a raw text field into a cell
func CellValue(s string) model.Value {
	if IsNA(s) {
		return model.Null()
	}
	return model.Text(s)
}

// MangleHeaders makes header names unique: a repeated "A" becomes "A.1",
// "A.2" and so on, and blank names become "Unnamed: <index>".
func MangleHeaders(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	next := make(map[string]int, len(header))

	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}

		name := h
		if used[name] {
			k := next[h]
			if k == 0 {
				k = 1
			}
			for used[name] {
				name = fmt.Sprintf("%s.%d", h, k)
				k++
			}
			next[h] = k
		}

		used[name] = true
		out[i] = name
	}
	return out
}
