package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reflectionsmatch/logger"
	"reflectionsmatch/models"
	"reflectionsmatch/tools"
)

const (
	// PersonaRecordThreshold is how many new records trigger a re-analysis.
	PersonaRecordThreshold = 5
	ResumeBudget           = 5000
	ProfileTextBudget      = 5000
)

/************************************************
/**** MARK: PERSONA TRIGGERS ****/
/************************************************/
const PERSONA_TRIGGER_MANUAL = "manual"
const PERSONA_TRIGGER_RECORDS = "records"
const PERSONA_TRIGGER_EXTERNAL = "external_profile"

var ErrNoReflections = errors.New("salve algumas reflexões primeiro")

// ShouldReanalyze is the record-count auto-retrigger rule.
func ShouldReanalyze(currentCount, lastAnalysisCount int) bool {
	return currentCount-lastAnalysisCount >= PersonaRecordThreshold
}

type PersonaStore interface {
	GetUser(id int64) (models.User, error)
	ListReflections(userID int64) ([]models.Reflection, error)
	SavePersona(userID int64, persona models.Persona, at time.Time, recordCount int) error
}

type PersonaSynthesizer struct {
	log   *logger.Logger
	gen   tools.Generator
	store PersonaStore
	now   func() time.Time
}

func NewPersonaSynthesizer(log *logger.Logger, gen tools.Generator, store PersonaStore) *PersonaSynthesizer {
	return &PersonaSynthesizer{
		log:   log.With("component", "PersonaSynthesizer"),
		gen:   gen,
		store: store,
		now:   time.Now,
	}
}

// Synthesize blends every record of the user with the professional context
// into a persona. Prior persona data is kept when anything fails.
func (p *PersonaSynthesizer) Synthesize(ctx context.Context, userID int64, trigger string) (models.Persona, error) {
	persona, err := p.synthesize(ctx, userID)
	outcome := "succeeded"
	if err != nil {
		outcome = "failed"
		p.log.Warn("persona synthesis failed", "user_id", userID, "trigger", trigger, "error", err)
	}
	personaTotal.WithLabelValues(trigger, outcome).Inc()
	return persona, err
}

func (p *PersonaSynthesizer) synthesize(ctx context.Context, userID int64) (models.Persona, error) {
	user, err := p.store.GetUser(userID)
	if err != nil {
		return models.Persona{}, fmt.Errorf("load user: %w", err)
	}
	records, err := p.store.ListReflections(userID)
	if err != nil {
		return models.Persona{}, fmt.Errorf("load reflections: %w", err)
	}
	if len(records) == 0 {
		return models.Persona{}, ErrNoReflections
	}

	reply, err := generate(ctx, p.gen, "persona", tools.GenerateRequest{
		Prompt: BuildPersonaPrompt(user, records),
	})
	if err != nil {
		return models.Persona{}, err
	}
	persona, err := ExtractJSON[models.Persona](reply)
	if err != nil {
		return models.Persona{}, err
	}
	persona.Traits = cleanTags(persona.Traits)
	persona.Summary = strings.TrimSpace(persona.Summary)
	if persona.Summary == "" && len(persona.Traits) == 0 {
		return models.Persona{}, fmt.Errorf("%w: no traits or summary", ErrMalformedReply)
	}

	if err := p.store.SavePersona(userID, persona, p.now(), len(records)); err != nil {
		return models.Persona{}, fmt.Errorf("save persona: %w", err)
	}
	return persona, nil
}

// BuildPersonaPrompt concatenates records (newest first) and the bounded
// professional context into a single prompt.
func BuildPersonaPrompt(user models.User, records []models.Reflection) string {
	var refl strings.Builder
	refl.WriteString("USER REFLECTIONS:\n")
	for _, r := range records {
		if r.Summary != "" {
			refl.WriteString("Summary: " + r.Summary + "\n")
		}
		if len(r.Tags) > 0 {
			refl.WriteString("Tags: " + strings.Join(r.Tags, ", ") + "\n")
		}
		refl.WriteString("---\n")
	}

	professional := ProfessionalContext(user, ResumeBudget, ProfileTextBudget)
	if professional == "" {
		professional = "No LinkedIn or resume data found."
	}

	name := strings.TrimSpace(user.DisplayName)
	if name == "" {
		name = "User"
	}

	var sb strings.Builder
	sb.WriteString("SYSTEM CONTEXT:\nYou are analyzing the user '" + name + "'.\n\n")
	sb.WriteString("SOURCE A: PROFESSIONAL DATA (LinkedIn / Resume)\n" + professional + "\n\n")
	sb.WriteString("SOURCE B: PERSONAL REFLECTIONS\n" + refl.String() + "\n")
	sb.WriteString(`TASK:
Create a 'Reflection Analysis' that blends their professional expertise with their personal curiosities.
Return a valid JSON object with:
1. "traits": 5 to 7 distinct archetypes or skills as short 2-3 word tags, e.g. "AR/VR Strategist", "Music Historian". Do NOT write full sentences.
2. "summary": a rich, nuanced professional biography of about 150-200 words that weaves their expertise with their personal passions. Address the user as "You".
Do NOT refer to "the user" in the third person. Do NOT wrap the JSON in markdown code blocks.`)
	return sb.String()
}

// ProfessionalContext renders resume and network profile text, each cut to its budget.
func ProfessionalContext(user models.User, resumeBudget, profileBudget int) string {
	var sb strings.Builder
	if resume := strings.TrimSpace(user.ResumeText); resume != "" {
		sb.WriteString("RESUME CONTENT:\n" + tools.Truncate(resume, resumeBudget) + "\n\n")
	}
	if user.LinkedInData != nil {
		if deep := strings.TrimSpace(user.LinkedInData.DeepProfileText); deep != "" {
			sb.WriteString("LINKEDIN DATA:\n" + tools.Truncate(deep, profileBudget) + "\n")
		} else if text := user.ProfessionalText(); text != "" {
			sb.WriteString("LINKEDIN SUMMARY:\n" + tools.Truncate(text, profileBudget) + "\n")
		}
	}
	return strings.TrimSpace(sb.String())
}
