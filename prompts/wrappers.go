package prompts

import "fmt"

// ForTemplate wraps a rendered template with the tutoring frame sent to the
// model.
func ForTemplate(topic, subtopic, answerType, rendered string) string {
	return fmt.Sprintf(`You are an AI tutor explaining a concept.

Topic: %s
Subtopic: %s
Answer Type: %s

Explain clearly in plain text (no markdown, no bullet points).

Prompt:
%s`, topic, subtopic, answerType, rendered)
}

// ForInstruction wraps a free-form user instruction.
func ForInstruction(topic, subtopic, instruction string) string {
	return fmt.Sprintf(`You are an AI assistant.

Topic: %s
Subtopic: %s
Instruction: %s

Answer in plain English (paragraph style, no formatting).`, topic, subtopic, instruction)
}

func ForWord(word string) string {
	return fmt.Sprintf("Explain the meaning of the word '%s' in simple terms, with an example in one sentence.", word)
}
