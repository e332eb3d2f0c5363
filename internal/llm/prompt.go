package llm

import "strings"

// MaxPromptTextLength caps the OCR text embedded in the prompt. Longer text is
// silently discarded, not summarized.
const MaxPromptTextLength = 4000

// BuildExtractionPrompt composes the single-turn instruction asking the model
// to identify voter records in raw electoral-roll OCR text and emit only a
// JSON object keyed "voters".
func BuildExtractionPrompt(ocrText string) string {
	if len(ocrText) > MaxPromptTextLength {
		ocrText = ocrText[:MaxPromptTextLength]
	}

	var b strings.Builder
	b.WriteString("You are a data extraction assistant.\n")
	b.WriteString("Below is raw text extracted from an electoral roll using OCR.\n")
	b.WriteString("Identify the voter records and output a valid JSON.\n\n")
	b.WriteString("Format:\n")
	b.WriteString(`{
  "voters": [
    {
      "epic_number": "...",
      "name": "...",
      "relation_type": "Father/Mother/Husband",
      "relation_name": "...",
      "house_number": "...",
      "age": 0,
      "gender": "Male/Female"
    }
  ]
}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Only output valid JSON.\n")
	b.WriteString("- If a field is missing, use null or empty string.\n")
	b.WriteString("- Ignore headers/footers.\n\n")
	b.WriteString("Raw Text:\n")
	b.WriteString(ocrText)
	return b.String()
}
