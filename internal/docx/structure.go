package docx

import "fmt"

// ExtractStructure returns the serialized w:body of the document. The
// compact index is almost always the better starting point; the full
// markup exists for the cases where an agent needs to see exact XML, such
// as drafting a snippet or inspecting a complex element in place.
func ExtractStructure(fileBytes []byte) (string, error) {
	_, body, err := parseBody(fileBytes)
	if err != nil {
		return "", err
	}
	xml := serializeElement(body)
	if xml == "" {
		return "", fmt.Errorf("serialize body: empty output")
	}
	return xml, nil
}
