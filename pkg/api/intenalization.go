package api

import "strings"

func normalizeLanguage(s string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "ru") {
		return "ru"
	}
	return "en"
}
