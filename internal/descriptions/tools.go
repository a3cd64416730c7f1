package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	FormProcessFileDescription = `Run the full form filling pipeline: extract the form structure, generate questions, answer them from EMR documents and produce a filled PDF.

**When to use:** You have a medical form PDF and the patient's EMR documents, and you want the form filled end to end.

**Why it's useful:** Handles both digital forms (values written into the AcroForm fields) and scanned image forms (answers drawn at estimated positions), and persists every intermediate artifact for review.

**Examples:**
• Fill an intake form: "Process intake.pdf using visit-note.txt and labs.txt"
• Fill a scanned referral: "Process referral-scan.pdf with discharge-summary.txt"

**Common workflows:**
1. Detect → Process: Run form_detect_file first if you need to know the form kind up front
2. Review artifacts: Inspect questions.json and answers.json in the run directory before trusting the filled PDF

**Best practices:** Pass plain-text EMR documents; the generated answers are only as good as the summary they come from.`

	FormAnalyzeFileDescription = `Analyze a form PDF without filling it.

**When to use:** You want to inspect what the pipeline sees before committing to a full run.

**Why it's useful:** For digital forms it returns the extracted fields with their resolved pages; for image forms it returns the grouped blocks with estimated answer box positions, in both normalized and absolute page coordinates.

**Examples:**
• Audit field extraction: "Analyze intake.pdf and list its form fields"
• Check answer placement: "Analyze referral-scan.pdf and show where answers would be drawn"

**Best practices:** Image form analysis calls OCR and the chat model, so it needs the same credentials as a full run.`

	FormLocateFieldDescription = `Locate the page a form field most likely appears on by scoring the visible page text.

**When to use:** A field's page is unknown or ambiguous and you want the locator's verdict with its evidence.

**Why it's useful:** Returns the chosen page plus the per-page scores, so you can see how confident the match is and which pages competed.

**Examples:**
• Resolve a field: "Which page is patient_date_of_birth on in intake.pdf?"
• Debug a mismatch: "Show the page scores for insurance_policy_number"

**Best practices:** Pass the field's option values when it has any; option text on a page is strong placement evidence.`

	FormDetectFileDescription = `Detect whether a PDF is a digital form (AcroForm) or an image form.

**When to use:** You need to know which filling strategy applies before processing.

**Why it's useful:** Digital forms are filled by writing field values; image forms need OCR, layout estimation and text overlay. The two paths have different credential requirements.

**Examples:**
• Route a document: "Is consent.pdf digital or scanned?"

**Best practices:** A PDF with a single stray form field counts as digital; analyze it if the result looks surprising.`
)
