package llm

import "encoding/json"

const rankPrompt = `You are a zero-shot text classifier.
Score how well each candidate label describes the text, between 0 and 1.
Use every candidate label exactly as written and no other labels.
Return ONLY a JSON object of the form {"labels": [...], "scores": [...]} ordered by descending score.`

const entityPrompt = `You are a named entity recognizer using spaCy entity labels
(PERSON, NORP, FAC, ORG, GPE, LOC, PRODUCT, EVENT, DATE, TIME).
List every entity mention in the user's text in order of appearance, copying the mention text verbatim.
Return ONLY a JSON object of the form {"entities": [{"text": "...", "label": "..."}]}.`

// rankInput renders the user message for a ranking request
func rankInput(text string, labels []string) string {
	payload, _ := json.Marshal(struct {
		Text            string   `json:"text"`
		CandidateLabels []string `json:"candidate_labels"`
	}{text, labels})
	return string(payload)
}
