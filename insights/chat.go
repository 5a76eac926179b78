package insights

import (
	"context"
	"fmt"
	"strings"

	"reflectionsmatch/logger"
	"reflectionsmatch/models"
	"reflectionsmatch/tools"
)

const (
	chatContextRecords = 30
	chatHistoryTurns   = 20
)

var ErrEmptyMessage = fmt.Errorf("%w: message é obrigatório", ErrInvalidArgument)

type ChatStore interface {
	GetUser(id int64) (models.User, error)
	ListReflections(userID int64) ([]models.Reflection, error)
}

// Companion answers free-form questions about the user's own reflections.
type Companion struct {
	log   *logger.Logger
	gen   tools.Generator
	store ChatStore
}

func NewCompanion(log *logger.Logger, gen tools.Generator, store ChatStore) *Companion {
	return &Companion{log: log.With("component", "Companion"), gen: gen, store: store}
}

func (c *Companion) Reply(ctx context.Context, userID int64, message string, history []tools.ChatTurn) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	user, err := c.store.GetUser(userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	records, err := c.store.ListReflections(userID)
	if err != nil {
		return "", fmt.Errorf("load reflections: %w", err)
	}

	turns := make([]tools.ChatTurn, 0, len(history))
	for _, t := range history {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		if t.Role != "user" {
			t.Role = "model"
		}
		turns = append(turns, t)
	}
	if len(turns) > chatHistoryTurns {
		turns = turns[len(turns)-chatHistoryTurns:]
	}

	reply, err := generate(ctx, c.gen, "chat", tools.GenerateRequest{
		System:  chatSystemPrompt(user, records),
		Prompt:  message,
		History: turns,
	})
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", ErrMalformedReply)
	}
	return reply, nil
}

func chatSystemPrompt(user models.User, records []models.Reflection) string {
	var b strings.Builder
	b.WriteString("You are a thoughtful companion helping the user make sense of what they have been saving and thinking about. ")
	b.WriteString("Ground your answers in their reflections below. If they are not relevant, say so briefly and answer generally.\n\n")

	if user.Persona != nil && user.Persona.Summary != "" {
		b.WriteString("PERSONA:\n" + user.Persona.Summary + "\n")
		if len(user.Persona.Traits) > 0 {
			b.WriteString("Traits: " + strings.Join(user.Persona.Traits, ", ") + "\n")
		}
		b.WriteString("\n")
	}
	if prof := ProfessionalContext(user, radarResumeBudget, radarResumeBudget); prof != "" {
		b.WriteString("PROFESSIONAL CONTEXT:\n" + prof + "\n\n")
	}

	b.WriteString("REFLECTIONS (newest first):\n")
	if len(records) == 0 {
		b.WriteString("none yet\n")
	}
	for i, r := range records {
		if i == chatContextRecords {
			break
		}
		fmt.Fprintf(&b, "- [%s]", r.CreatedAt.Format("2006-01-02"))
		if r.Title != "" {
			b.WriteString(" " + r.Title + ".")
		}
		if r.UserNote != "" {
			b.WriteString(" Note: " + r.UserNote + ".")
		}
		if r.Summary != "" {
			b.WriteString(" Summary: " + r.Summary)
		}
		if len(r.Tags) > 0 {
			b.WriteString(" Tags: " + strings.Join(r.Tags, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
