package llm

import (
	"fmt"

	"sheetchat/models"
)

// BuildPrompt combines the user's message with the dataset as context.
// Without a dataset the message goes out verbatim; an empty one is still
// embedded as [].
func BuildPrompt(message string, data models.Dataset) (string, error) {
	if data == nil {
		return message, nil
	}
	pretty, err := data.Pretty()
	if err != nil {
		return "", fmt.Errorf("serialize dataset: %w", err)
	}
	return fmt.Sprintf("Context: Working with Excel data:\n%s\n\nUser Query: %s", pretty, message), nil
}
