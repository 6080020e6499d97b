package prompt

import (
	"fmt"
	"strings"

	"github.com/pep299/iracify/internal/model"
)

// SystemInstruction frames the model as an editor of Dutch case law.
const SystemInstruction = "Je bent een Nederlandse juridisch redacteur. " +
	"Vat arresten samen in IRAC (Issue, Rule, Application, Conclusion) " +
	"en benoem expliciet de relevante rechtsoverwegingen (r.o.'s). " +
	"Gebruik juridisch correcte Nederlandse terminologie. Wees kort, precies en feitelijk. " +
	"Antwoord uitsluitend met één JSON-object."

// QuizSystemInstruction frames the model for quiz generation.
const QuizSystemInstruction = "Je bent een Nederlandse juridisch docent en een strikte quizgenerator. " +
	"Antwoord uitsluitend met één JSON-object."

const (
	maxCaseTextRunes  = 3000
	maxQuizConsiders  = 8
	maxQuizSnipRunes  = 300
	defaultQuizLength = model.MaxQuizQuestions
)

const summarySchema = `{
  "issue": "string, de rechtsvraag",
  "rule": "string, de toegepaste rechtsregel of maatstaf",
  "application": "string, toepassing op de feiten",
  "conclusion": "string, de uitkomst",
  "essence": "string, compacte alinea van ongeveer 120 woorden met probleem, rechtsregel en uitkomst",
  "highlights": ["3 tot 5 feitelijke kernpunten"],
  "considerations": [
    {"id": "r.o.-nummer, bijv. 3.3", "role": "Rule | Application | Conclusion | Other", "text": "korte samenvatting met concrete details"}
  ]%s
}`

const quizItemSchema = `    {
      "question": "string",
      "choices": ["string", "string", "string", "string"],
      "correctIndex": 0,
      "explanation": "korte uitleg waarom dit goed is",
      "referenceConsiderationId": "id van een consideration, optioneel"
    }`

// Options tunes the summary prompt.
type Options struct {
	TopK int
	// QuizQuestions > 0 asks for a quiz in the same response.
	QuizQuestions int
}

// Prompt is a ready-to-send model request together with the context it was built from.
type Prompt struct {
	System     string
	User       string
	ECLIs      []string
	Candidates []Block
}

// CandidateNumbers lists the r.o. numbers offered to the model.
func (p Prompt) CandidateNumbers() []string {
	return Numbers(p.Candidates)
}

// SummaryPrompt builds the structured-summary request for a judgment text.
func SummaryPrompt(text string, opts Options) Prompt {
	normalized := Normalize(text)
	eclis := ExtractECLIs(normalized)
	var candidates []Block
	if blocks := Segment(normalized); len(blocks) > 0 {
		candidates = Rank(blocks, normalized, opts.TopK)
	}

	var content strings.Builder
	content.WriteString("Je krijgt de tekst van een arrest en kandidaat-fragmenten uit de rechtsoverwegingen (r.o.). ")
	content.WriteString("Selecteer uitsluitend de overwegingen die dragend zijn voor rechtsregel en uitkomst. ")
	content.WriteString("Label per gekozen r.o. de rol: Rule, Application, Conclusion of Other. ")
	content.WriteString("Zorg dat er minimaal één Rule, één Application en één Conclusion is. ")
	content.WriteString("Baseer je uitsluitend op de aangeleverde tekst; verzin geen r.o.-nummers en ")
	content.WriteString("gebruik altijd het meest specifieke nummer (bijv. 3.3 in plaats van 3).\n\n")

	content.WriteString("Lever uitsluitend JSON volgens dit schema, zonder extra tekst:\n")
	if opts.QuizQuestions > 0 {
		fmt.Fprintf(&content, summarySchema, ",\n  \"quiz\": [\n"+quizItemSchema+"\n  ]")
		fmt.Fprintf(&content, "\nMaak %d multiple-choice quizvragen met precies vier verschillende antwoorden.\n", opts.QuizQuestions)
	} else {
		fmt.Fprintf(&content, summarySchema, "")
		content.WriteString("\n")
	}

	if len(eclis) > 0 {
		fmt.Fprintf(&content, "\nContext | ECLI's: %s\n", strings.Join(eclis, ", "))
	}

	fmt.Fprintf(&content, "\nBeknopte zaaktekst:\n%s\n", Clamp(normalized, maxCaseTextRunes))

	if len(candidates) > 0 {
		content.WriteString("\nKandidaat r.o.-fragmenten:\n")
		for i, b := range candidates {
			if i > 0 {
				content.WriteString("\n")
			}
			fmt.Fprintf(&content, "[%s]\n%s\n", b.Number, b.Content)
		}
	}

	return Prompt{
		System:     SystemInstruction,
		User:       content.String(),
		ECLIs:      eclis,
		Candidates: candidates,
	}
}

// QuizPrompt builds the multiple-choice quiz request for a validated summary.
func QuizPrompt(summary model.StructuredSummary, n int) Prompt {
	if n <= 0 {
		n = defaultQuizLength
	}

	var content strings.Builder
	fmt.Fprintf(&content, "Maak een multiple-choice quiz van %d vragen op basis van het onderstaande arrest. ", n)
	content.WriteString("Formuleer heldere, toetsbare vragen met concrete details (artikelen, ECLI, uitkomst). ")
	content.WriteString("Elke vraag heeft precies vier verschillende antwoorden; correctIndex is 0 tot en met 3. ")
	content.WriteString("Verwijs met referenceConsiderationId alleen naar een id uit de lijst hieronder.\n\n")
	content.WriteString("Lever uitsluitend JSON volgens dit schema, zonder extra tekst:\n")
	content.WriteString("{\n  \"quiz\": [\n" + quizItemSchema + "\n  ]\n}\n\n")

	content.WriteString("=== IRAC ===\n")
	fmt.Fprintf(&content, "Issue: %s\nRule: %s\nApplication: %s\nConclusion: %s\n", summary.Issue, summary.Rule, summary.Application, summary.Conclusion)

	if len(summary.Considerations) > 0 {
		content.WriteString("\n=== Rechtsoverwegingen ===\n")
		for i, c := range summary.Considerations {
			if i >= maxQuizConsiders {
				break
			}
			fmt.Fprintf(&content, "[%s] (%s) %s\n", c.ID, c.Role, Clamp(c.Text, maxQuizSnipRunes))
		}
	}

	return Prompt{System: QuizSystemInstruction, User: content.String()}
}

// RepromptSuffix is appended to the original user prompt when the previous
// answer failed validation.
func RepromptSuffix(err error) string {
	return fmt.Sprintf("\n\nJe vorige antwoord was ongeldig (%v). "+
		"Lever opnieuw uitsluitend één JSON-object dat exact aan het schema voldoet.", err)
}
