package telegram

import "strings"

const messageLimit = 4096

// SplitMessage режет текст на части в пределах лимита Telegram, предпочитая
// границы строк, чтобы не рвать абзацы посередине.
func SplitMessage(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	runes := []rune(trimmed)
	if len(runes) <= messageLimit {
		return []string{trimmed}
	}

	var parts []string
	start := 0
	for start < len(runes) {
		end := start + messageLimit
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastNewline(runes, start, end); cut > start {
			end = cut
		}

		chunk := strings.Trim(string(runes[start:end]), "\n")
		if chunk != "" {
			parts = append(parts, chunk)
		}

		start = end
		for start < len(runes) && runes[start] == '\n' {
			start++
		}
	}

	if len(parts) == 0 {
		return []string{trimmed}
	}
	return parts
}

func lastNewline(runes []rune, start, end int) int {
	for i := end; i > start; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	return -1
}
