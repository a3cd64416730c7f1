package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoscribe/mcp-form-filler/internal/layout"
)

func TestFieldTypeQuestionType(t *testing.T) {
	tests := []struct {
		fieldType FieldType
		expected  layout.QuestionType
	}{
		{FieldTypeText, layout.QuestionTypeText},
		{FieldTypeCheckbox, layout.QuestionTypeCheckbox},
		{FieldTypeRadio, layout.QuestionTypeMultipleChoice},
		{FieldTypeSelect, layout.QuestionTypeMultipleChoice},
		{FieldTypeSignature, layout.QuestionTypeSignature},
		{FieldTypeButton, layout.QuestionTypeUnspecified},
		{FieldTypeUnknown, layout.QuestionTypeUnspecified},
	}

	for _, tt := range tests {
		t.Run(string(tt.fieldType), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.fieldType.QuestionType())
		})
	}
}

func TestIsAffirmative(t *testing.T) {
	assert.True(t, isAffirmative("Yes", nil))
	assert.True(t, isAffirmative(" yes ", nil))
	assert.True(t, isAffirmative("TRUE", nil))
	assert.True(t, isAffirmative("X", nil))
	assert.False(t, isAffirmative("No", nil))
	assert.False(t, isAffirmative("off", nil))
	assert.False(t, isAffirmative("", nil))

	// An answer matching a declared appearance state checks the box.
	assert.True(t, isAffirmative("Approved", []string{"Approved"}))
	assert.False(t, isAffirmative("Denied", []string{"Approved"}))
	assert.False(t, isAffirmative("Off", []string{"Off"}))
}

func TestFitFontSize(t *testing.T) {
	assert.Equal(t, minOverlayFontSize, fitFontSize(1))
	assert.Equal(t, maxOverlayFontSize, fitFontSize(100))
	assert.InDelta(t, 12.0, fitFontSize(20), 0.001)
}

func TestAnswerText(t *testing.T) {
	yes := "Yes"
	blank := "   "
	detail := "Stage II, treated with chemotherapy"

	res := layout.AnswerBoxResult{
		Questions: []layout.Question{
			{Key: "q1", Answer: &yes},
			{Key: "q2", Answer: nil},
			{Key: "q3", Answer: &blank},
			{Key: "q4", Answer: &detail},
		},
	}

	assert.Equal(t, "Yes; Stage II, treated with chemotherapy", answerText(res))
	assert.Equal(t, "", answerText(layout.AnswerBoxResult{}))
}

func TestFillCopiesUnchangedWhenNothingToWrite(t *testing.T) {
	filler := NewFormFiller()
	answer := "John Doe"
	empty := ""

	fields := []FormField{
		{Name: "locked", Type: FieldTypeText, ReadOnly: true},
		{Name: "unanswered", Type: FieldTypeText},
		{Name: "blank", Type: FieldTypeText},
	}
	answers := map[string]*string{
		"locked": &answer,
		"blank":  &empty,
	}

	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.pdf")
	out := filepath.Join(tmp, "out.pdf")
	source := []byte("%PDF-1.4 fixture bytes")
	require.NoError(t, os.WriteFile(in, source, 0o644))

	stats, err := filler.Fill(in, out, fields, answers)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Filled)
	assert.Equal(t, 3, stats.Skipped)

	copied, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, source, copied)
}

// buildPDF assembles a single-generation PDF from object bodies,
// computing the cross-reference offsets as it writes.
func buildPDF(objects []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets[1:] {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefPos)
	return buf.Bytes()
}

func TestFormExtractorReadsFieldDicts(t *testing.T) {
	doc := buildPDF([]string{
		"<< /Type /Catalog /Pages 2 0 R /AcroForm << /Fields [4 0 R 5 0 R 6 0 R] >> >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
		"<< /FT /Btn /T (gender) /V /Male /Ff 32768 /Opt [(Male) (Female)] >>",
		"<< /FT /Ch /T (medications) /Ff 2097152 /Opt [(aspirin) (metformin)] >>",
		"<< /FT /Tx /T (notes) /V (stable) /MaxLen 40 >>",
	})

	extractor := NewFormExtractor()
	fields, err := extractor.ExtractFromReader(bytes.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, fields, 3)

	gender := fields[0]
	assert.Equal(t, "gender", gender.Name)
	assert.Equal(t, FieldTypeRadio, gender.Type)
	// The radio group's current state is a PDF name, not a string.
	assert.Equal(t, "Male", gender.Value)
	assert.Equal(t, []string{"Male", "Female"}, gender.Options)

	meds := fields[1]
	assert.Equal(t, FieldTypeSelect, meds.Type)
	assert.True(t, meds.Multi)
	assert.Equal(t, []string{"aspirin", "metformin"}, meds.Options)

	notes := fields[2]
	assert.Equal(t, FieldTypeText, notes.Type)
	assert.Equal(t, "stable", notes.Value)
	assert.Equal(t, 40, notes.MaxLen)
	assert.False(t, notes.Multi)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "Sévérine", truncateRunes("Sévérine", 0))
	assert.Equal(t, "Sévérine", truncateRunes("Sévérine", 8))
	assert.Equal(t, "Sévé", truncateRunes("Sévérine", 4))
	assert.Equal(t, "日本語", truncateRunes("日本語テスト", 3))
}

func TestCollectEntriesRoutesByFieldType(t *testing.T) {
	name := "Sévérine Dupont-Lafont"
	checked := "Yes"
	dose := "20mg"
	state := "California"
	meds := "aspirin, metformin, "

	fields := []FormField{
		{Name: "patient_name", Type: FieldTypeText, MaxLen: 10},
		{Name: "consent", Type: FieldTypeCheckbox},
		{Name: "dosage", Type: FieldTypeRadio},
		{Name: "state", Type: FieldTypeSelect},
		{Name: "medications", Type: FieldTypeSelect, Multi: true},
		{Name: "locked", Type: FieldTypeText, ReadOnly: true},
		{Name: "unanswered", Type: FieldTypeText},
		{Name: "pushbutton", Type: FieldTypeButton},
	}
	answers := map[string]*string{
		"patient_name": &name,
		"consent":      &checked,
		"dosage":       &dose,
		"state":        &state,
		"medications":  &meds,
		"locked":       &name,
		"pushbutton":   &name,
	}

	entries, stats := collectEntries(fields, answers)

	require.Len(t, entries.TextFields, 1)
	assert.Equal(t, textFieldJSON{Name: "patient_name", Value: "Sévérine D"}, entries.TextFields[0])

	require.Len(t, entries.CheckBoxes, 1)
	assert.Equal(t, checkBoxJSON{Name: "consent", Value: true}, entries.CheckBoxes[0])

	require.Len(t, entries.RadioGroups, 1)
	assert.Equal(t, radioGroupJSON{Name: "dosage", Value: "20mg"}, entries.RadioGroups[0])

	require.Len(t, entries.ComboBoxes, 1)
	assert.Equal(t, comboBoxJSON{Name: "state", Value: "California"}, entries.ComboBoxes[0])

	require.Len(t, entries.ListBoxes, 1)
	assert.Equal(t, listBoxJSON{Name: "medications", Values: []string{"aspirin", "metformin"}}, entries.ListBoxes[0])

	assert.Equal(t, 5, stats.Filled)
	assert.Equal(t, 3, stats.Skipped)
}

func TestSplitChoiceValues(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitChoiceValues("a, b"))
	assert.Equal(t, []string{"single"}, splitChoiceValues("single"))
	assert.Equal(t, []string{" , "}, splitChoiceValues(" , "))
}

func TestTextReaderValidation(t *testing.T) {
	reader := NewTextReader(1024)

	_, err := reader.ReadPages("")
	assert.Error(t, err)

	_, err = reader.ReadPages("/nonexistent/file.pdf")
	assert.Error(t, err)

	tmp := t.TempDir()
	notPDF := filepath.Join(tmp, "document.txt")
	require.NoError(t, os.WriteFile(notPDF, []byte("plain text"), 0o644))
	_, err = reader.ReadPages(notPDF)
	assert.Error(t, err)

	big := filepath.Join(tmp, "big.pdf")
	require.NoError(t, os.WriteFile(big, make([]byte, 2048), 0o644))
	_, err = reader.ReadPages(big)
	assert.ErrorContains(t, err, "file too large")
}
