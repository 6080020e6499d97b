package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"sort"

	"github.com/pep299/iracify/internal/model"
	"github.com/pep299/iracify/internal/prompt"
	"github.com/pep299/iracify/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var choiceLetters = [model.QuizChoiceCount]string{"A", "B", "C", "D"}

// Badge is how a role is shown next to a consideration.
type Badge struct {
	Class string
	Label string
	Emoji string
}

func RoleBadge(r model.Role) Badge {
	switch r {
	case model.RoleRule:
		return Badge{Class: "badge-rule", Label: "Rule", Emoji: "🟦"}
	case model.RoleApplication:
		return Badge{Class: "badge-app", Label: "Application", Emoji: "🟪"}
	case model.RoleConclusion:
		return Badge{Class: "badge-concl", Label: "Conclusion", Emoji: "🟩"}
	default:
		return Badge{Class: "badge-over", Label: "Overig", Emoji: "⚪"}
	}
}

type Consideration struct {
	ID    string
	Role  model.Role
	Badge Badge
	Text  string
}

type Choice struct {
	Index   int
	Letter  string
	Text    string
	Checked bool
}

type Question struct {
	Index    int
	Number   int
	Question string
	Choices  []Choice
	Grade    *model.QuestionGrade
}

// AnswerLetter formats a graded answer index.
func (q Question) AnswerLetter(i int) string {
	if i < 0 || i >= len(choiceLetters) {
		return "-"
	}
	return choiceLetters[i]
}

// Page is everything the index template renders.
type Page struct {
	Flash string

	Summary        *model.StructuredSummary
	Considerations []Consideration
	Warnings       []model.Warning
	Source         string
	Legend         []Badge

	Quiz         []Question
	QuizWarnings []model.Warning
	Grade        *model.QuizGrade

	DevMode  bool
	Raw      string
	Admin    bool
	Token    string
	Settings model.Settings
	Policies []model.ReferencePolicy
	Provider string
}

// Build turns session state into a page.
func Build(sess *session.Session, admin bool, token, provider string) Page {
	p := Page{
		Flash:        sess.Flash,
		Source:       sess.Source,
		QuizWarnings: sess.QuizWarnings,
		Grade:        sess.Grade,
		DevMode:      sess.Settings.DevMode,
		Admin:        admin,
		Settings:     sess.Settings,
		Policies:     []model.ReferencePolicy{model.ReferencePolicyDrop, model.ReferencePolicyStrict},
		Provider:     provider,
	}
	if admin {
		p.Token = token
	}
	if p.DevMode {
		p.Raw = sess.Raw
	}

	if sess.Result != nil {
		summary := sess.Result.Summary
		p.Summary = &summary
		p.Warnings = sess.Result.Warnings
		p.Considerations = SortedConsiderations(summary.Considerations)
		for _, r := range model.Roles {
			p.Legend = append(p.Legend, RoleBadge(r))
		}
	}

	var answers []int
	if sess.Grade != nil {
		for _, q := range sess.Grade.Questions {
			answers = append(answers, q.Answer)
		}
	}
	for i, item := range sess.Quiz {
		q := Question{Index: i, Number: i + 1, Question: item.Question}
		for j, text := range item.Choices {
			q.Choices = append(q.Choices, Choice{
				Index:   j,
				Letter:  choiceLetters[j%len(choiceLetters)],
				Text:    text,
				Checked: i < len(answers) && answers[i] == j,
			})
		}
		if sess.Grade != nil && i < len(sess.Grade.Questions) {
			g := sess.Grade.Questions[i]
			q.Grade = &g
		}
		p.Quiz = append(p.Quiz, q)
	}
	return p
}

// SortedConsiderations orders considerations by r.o. number. Ids that are not
// numbers go last in their original order.
func SortedConsiderations(cs []model.Consideration) []Consideration {
	out := make([]Consideration, len(cs))
	for i, c := range cs {
		out[i] = Consideration{ID: c.ID, Role: c.Role, Badge: RoleBadge(c.Role), Text: c.Text}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return prompt.CompareNumbers(out[i].ID, out[j].ID) < 0
	})
	return out
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"percent": func(score, total int) int {
			if total == 0 {
				return 0
			}
			return score * 100 / total
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Render(w io.Writer, p Page) error {
	return r.tmpl.ExecuteTemplate(w, "index.html", p)
}
