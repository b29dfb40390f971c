package pdfform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/dgallion1/formfill/internal/fill"
)

// acroField is one interactive text field in the shape pdfcpu's form
// export uses. The same shape, with values set, goes back in as the fill
// payload.
type acroField struct {
	Pages     []int  `json:"pages,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Value     string `json:"value"`
	Multiline bool   `json:"multiline,omitempty"`
	Locked    bool   `json:"locked"`
}

type exportedForm struct {
	TextFields []acroField `json:"textfield,omitempty"`
}

type formDocument struct {
	Forms []exportedForm `json:"forms"`
}

// acroFields lists the document's interactive text fields in export order,
// which is the order the F{n} IDs index. Documents without an AcroForm
// fail the export; callers treat any error as "no interactive form" and
// fall back to text detection.
func acroFields(fileBytes []byte) ([]acroField, error) {
	var buf bytes.Buffer
	if err := api.ExportFormJSON(bytes.NewReader(fileBytes), &buf, "", nil); err != nil {
		return nil, fmt.Errorf("export form: %w", err)
	}
	return parseFormExport(buf.Bytes())
}

func parseFormExport(data []byte) ([]acroField, error) {
	var doc formDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse form export: %w", err)
	}
	var fields []acroField
	for _, f := range doc.Forms {
		fields = append(fields, f.TextFields...)
	}
	return fields, nil
}

// fieldsFromAcro maps exported fields onto the backend's field shape. The
// field name doubles as the label; the agent sees it next to the F-ID.
func fieldsFromAcro(af []acroField) []field {
	fields := make([]field, 0, len(af))
	for i, a := range af {
		page := 1
		if len(a.Pages) > 0 {
			page = a.Pages[0]
		}
		fields = append(fields, field{
			id:    fmt.Sprintf("F%d", i+1),
			page:  page,
			label: a.Name,
			value: a.Value,
		})
	}
	return fields
}

// planFieldUpdates validates the whole batch against the document's field
// list before anything is filled. One invalid answer rejects the batch.
func planFieldUpdates(af []acroField, answers []fill.AnswerPayload) ([]acroField, error) {
	byID := make(map[string]acroField, len(af))
	for i, f := range af {
		byID[fmt.Sprintf("F%d", i+1)] = f
	}

	var problems []string
	fail := func(i int, a fill.AnswerPayload, format string, args ...any) {
		problems = append(problems,
			fmt.Sprintf("answer '%s' (index %d): %s", a.PairID, i, fmt.Sprintf(format, args...)))
	}

	updates := make([]acroField, 0, len(answers))
	for i, a := range answers {
		if strings.TrimSpace(a.InsertionXML) != "" {
			fail(i, a, "insertion_xml is not supported for PDF forms -- use answer_text")
			continue
		}
		if a.AnswerText == "" {
			fail(i, a, "missing answer_text")
			continue
		}
		f, ok := byID[strings.TrimSpace(a.XPath)]
		if !ok {
			fail(i, a, "unknown field ID %q: expected F{n} from extract_structure_compact", a.XPath)
			continue
		}
		f.Value = a.AnswerText
		f.Locked = false
		updates = append(updates, f)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("write_answers validation failed (%d invalid answer(s)):\n%s",
			len(problems), strings.Join(problems, "\n"))
	}
	return updates, nil
}

// fillPayload serializes the planned updates into the form-fill JSON the
// pdfcpu API consumes.
func fillPayload(updates []acroField) ([]byte, error) {
	data, err := json.Marshal(formDocument{Forms: []exportedForm{{TextFields: updates}}})
	if err != nil {
		return nil, fmt.Errorf("encode fill payload: %w", err)
	}
	return data, nil
}
