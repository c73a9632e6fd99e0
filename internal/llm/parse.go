package llm

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/yegors/complaint-desk/internal/nlp"
)

// extractJSON finds the first balanced JSON object in model output,
// ignoring markdown fences and surrounding prose
func extractJSON(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, fence := range []string{"```json", "```"} {
		s = strings.ReplaceAll(s, fence, "")
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				candidate := strings.TrimSpace(s[start : i+1])
				if gjson.Valid(candidate) {
					return candidate
				}
				return ""
			}
		}
	}
	return ""
}

// parseRanking reads {"labels":[],"scores":[]} and orders it by score
func parseRanking(raw string) []nlp.LabelScore {
	labels := gjson.Get(raw, "labels").Array()
	scores := gjson.Get(raw, "scores").Array()

	ranked := make([]nlp.LabelScore, 0, len(labels))
	for i, label := range labels {
		entry := nlp.LabelScore{Label: label.String()}
		if i < len(scores) {
			entry.Score = scores[i].Float()
		}
		ranked = append(ranked, entry)
	}

	// Ties keep the model's own order
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// parseEntities reads {"entities":[{"text","label"}]} and locates each
// mention in text, searching forward from the previous match
func parseEntities(raw, text string) []nlp.Entity {
	var entities []nlp.Entity
	offset := 0
	gjson.Get(raw, "entities").ForEach(func(_, item gjson.Result) bool {
		mention := strings.TrimSpace(item.Get("text").String())
		label := strings.ToUpper(strings.TrimSpace(item.Get("label").String()))
		if mention == "" || label == "" {
			return true
		}

		entity := nlp.Entity{Text: mention, Label: label, Start: -1, End: -1}
		if idx := strings.Index(text[offset:], mention); idx >= 0 {
			byteStart := offset + idx
			entity.Start = utf8.RuneCountInString(text[:byteStart])
			entity.End = entity.Start + utf8.RuneCountInString(mention)
			offset = byteStart + len(mention)
		}
		entities = append(entities, entity)
		return true
	})
	return entities
}
