package api

// usage holds a minimal working request body per tool, appended to
// validation errors so the agent can self-correct without documentation.
var usage = map[string]string{
	"extract_structure": `{"file_path": "/forms/intake.docx"}`,
	"extract_structure_compact": `{"file_path": "/forms/intake.docx"}`,
	"validate_locations": `{"file_path": "/forms/intake.docx", "locations": [{"pair_id": "q1", "snippet": "T1-R2-C2"}]}`,
	"build_insertion_xml": `{"answer_text": "Jane Doe", "target_context_xml": "<w:tc>...</w:tc>", "answer_type": "plain_text"}`,
	"list_form_fields": `{"file_path": "/forms/intake.docx"}`,
	"preview_answers": `{"file_path": "/forms/intake.docx", "answers": [{"pair_id": "q1", "xpath": "./w:tbl[1]/w:tr[2]/w:tc[2]", "answer_text": "Jane Doe"}]}`,
	"write_answers": `{"file_path": "/forms/intake.docx", "output_file_path": "/forms/intake_filled.docx", "answers": [{"pair_id": "q1", "answer_text": "Jane Doe"}]}`,
	"verify_output": `{"file_path": "/forms/intake_filled.docx", "expected_answers": [{"pair_id": "q1", "xpath": "T1-R2-C2", "expected_text": "Jane Doe"}]}`,
}

// toolError prefixes a message with the tool name and appends its usage
// example.
func toolError(tool, msg string) string {
	out := tool + " error: " + msg
	if ex, ok := usage[tool]; ok {
		out += "\n  Example: " + ex
	}
	return out
}
