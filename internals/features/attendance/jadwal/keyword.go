// file: internals/features/attendance/jadwal/keyword.go
package jadwal

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reMention    = regexp.MustCompile(`@\w+`)
)

// Normalize: "/Piket_Pagi@AbsenBot " → "/piketpagi".
func Normalize(cmd string) string {
	s := strings.ToLower(strings.TrimSpace(cmd))
	s = reWhitespace.ReplaceAllString(s, "")
	s = reMention.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "_", "")
}

// KindOfKeyword memetakan keyword ternormalisasi ke ShiftKind.
func KindOfKeyword(keyword string) ShiftKind {
	switch Normalize(keyword) {
	case "/pagi":
		return KindPagi
	case "/malam":
		return KindMalam
	case "/piketpagi":
		return KindPiketPagi
	case "/piketmalam":
		return KindPiketMalam
	case "/pagimalam":
		return KindPagiMalam
	case "/libur":
		return KindLibur
	case "/piket":
		return KindPiket
	default:
		return KindUnknown
	}
}

// MatchKeyword mencari keyword di awal teks (caption).
// Kandidat dicek dari yang terpanjang supaya "/pagimalam" tidak ketangkap sebagai "/pagi".
func MatchKeyword(text string, candidates []string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", false
	}
	head := Normalize(fields[0])

	norm := make([]string, 0, len(candidates))
	seen := map[string]bool{}
	for _, c := range candidates {
		n := Normalize(c)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		norm = append(norm, n)
	}
	sort.SliceStable(norm, func(i, j int) bool {
		if len(norm[i]) != len(norm[j]) {
			return len(norm[i]) > len(norm[j])
		}
		return norm[i] < norm[j]
	})

	for _, kw := range norm {
		if !strings.HasPrefix(head, kw) {
			continue
		}
		rest := head[len(kw):]
		if rest == "" || !isWordRune(firstRune(rest)) {
			return kw, true
		}
	}
	return "", false
}

// LooksLikeKeyword: teks diawali "/" + potongan keyword (typo), untuk hint ke user.
func LooksLikeKeyword(text string, candidates []string) bool {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return false
	}
	head := Normalize(fields[0])
	if len(head) < 3 {
		return false
	}
	prefix := head[:3] // "/pa", "/ma", "/pi", "/li"
	for _, c := range candidates {
		if strings.HasPrefix(Normalize(c), prefix) {
			return true
		}
	}
	return false
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
