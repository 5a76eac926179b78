package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reflectionsmatch/logger"
	"reflectionsmatch/models"
	"reflectionsmatch/tools"
)

/************************************************
/**** MARK: COACHING REQUEST TYPES ****/
/************************************************/
const COACHING_INITIAL_PLAN = "INITIAL_PLAN"
const COACHING_UPDATE_GOAL = "UPDATE_GOAL"

var ErrUnknownCoachingType = fmt.Errorf("%w: tipo de coaching desconhecido", ErrInvalidArgument)

const coachingSystemInstruction = `You are a Context-Aware Accountability Partner. You help people turn an interest into steady progress.
Be direct, practical and encouraging. Prefer small concrete steps over general advice.
When the person is stuck, name the likely blocker and offer one way around it.`

type CoachingRequest struct {
	Type            string          `json:"type"`
	GoalTitle       string          `json:"goalTitle"`
	GoalDescription string          `json:"goalDescription"`
	TargetDate      string          `json:"targetDate"`
	UpdateText      string          `json:"updateText"`
	IsStuck         bool            `json:"isStuck"`
	ExistingRoadmap *models.Roadmap `json:"existingRoadmap"`
}

// CoachingResult carries a roadmap for INITIAL_PLAN and feedback for UPDATE_GOAL.
type CoachingResult struct {
	*models.Roadmap
	Feedback string `json:"feedback,omitempty"`
}

type feedbackReply struct {
	Feedback string `json:"feedback"`
}

type Coach struct {
	log *logger.Logger
	gen tools.Generator
	now func() time.Time
}

func NewCoach(log *logger.Logger, gen tools.Generator) *Coach {
	return &Coach{log: log.With("component", "Coach"), gen: gen, now: time.Now}
}

// Advise answers a stateless coaching request.
func (c *Coach) Advise(ctx context.Context, req CoachingRequest) (CoachingResult, error) {
	if strings.TrimSpace(req.GoalTitle) == "" {
		return CoachingResult{}, fmt.Errorf("%w: goalTitle é obrigatório", ErrInvalidArgument)
	}
	switch req.Type {
	case COACHING_INITIAL_PLAN:
		reply, err := generate(ctx, c.gen, "coaching_plan", tools.GenerateRequest{
			System: coachingSystemInstruction,
			Prompt: initialPlanPrompt(req),
		})
		if err != nil {
			return CoachingResult{}, err
		}
		roadmap, err := ExtractJSON[models.Roadmap](reply)
		if err != nil {
			return CoachingResult{}, err
		}
		if len(roadmap.Phases) == 0 {
			return CoachingResult{}, fmt.Errorf("%w: roadmap has no phases", ErrMalformedReply)
		}
		return CoachingResult{Roadmap: &roadmap}, nil

	case COACHING_UPDATE_GOAL:
		if strings.TrimSpace(req.UpdateText) == "" && !req.IsStuck {
			return CoachingResult{}, fmt.Errorf("%w: updateText é obrigatório", ErrInvalidArgument)
		}
		reply, err := generate(ctx, c.gen, "coaching_update", tools.GenerateRequest{
			System: coachingSystemInstruction,
			Prompt: updateGoalPrompt(req),
		})
		if err != nil {
			return CoachingResult{}, err
		}
		parsed, err := ExtractJSON[feedbackReply](reply)
		if err != nil {
			return CoachingResult{}, err
		}
		if strings.TrimSpace(parsed.Feedback) == "" {
			return CoachingResult{}, fmt.Errorf("%w: empty feedback", ErrMalformedReply)
		}
		return CoachingResult{Feedback: parsed.Feedback}, nil
	}
	return CoachingResult{}, fmt.Errorf("%w: %q", ErrUnknownCoachingType, req.Type)
}

type PursuitWriter interface {
	MergeReflection(id int64, fields map[string]any) error
}

// AdvisePursuit coaches a stored pursuit and records the exchange on it.
// Goal details come from the pursuit, not the request.
func (c *Coach) AdvisePursuit(ctx context.Context, store PursuitWriter, pursuit models.Reflection, req CoachingRequest) (CoachingResult, error) {
	req.GoalTitle = pursuit.Title
	req.GoalDescription = pursuit.Description
	if req.TargetDate == "" {
		req.TargetDate = pursuit.TargetDate
	}
	req.ExistingRoadmap = pursuit.Roadmap

	result, err := c.Advise(ctx, req)
	if err != nil {
		return CoachingResult{}, err
	}

	fields := map[string]any{}
	now := c.now()
	switch req.Type {
	case COACHING_INITIAL_PLAN:
		fields["roadmap"] = result.Roadmap
		if req.TargetDate != "" {
			fields["target_date"] = req.TargetDate
		}
		if pursuit.Status == "" || pursuit.Status == models.PURSUIT_STATUS_NOT_STARTED {
			fields["status"] = models.PURSUIT_STATUS_IN_PROGRESS
		}
	case COACHING_UPDATE_GOAL:
		entries := append(models.CoachingLog{}, pursuit.CoachingLog...)
		entries = append(entries,
			models.CoachingEntry{Role: "user", Text: req.UpdateText, IsStuck: req.IsStuck, At: now},
			models.CoachingEntry{Role: "coach", Text: result.Feedback, At: now},
		)
		fields["coaching_log"] = entries
		if req.IsStuck {
			fields["status"] = models.PURSUIT_STATUS_STUCK
		} else if pursuit.Status != models.PURSUIT_STATUS_COMPLETED && pursuit.Status != models.PURSUIT_STATUS_ARCHIVED {
			fields["status"] = models.PURSUIT_STATUS_IN_PROGRESS
		}
	}
	if err := store.MergeReflection(pursuit.ID, fields); err != nil {
		return CoachingResult{}, fmt.Errorf("save coaching: %w", err)
	}
	return result, nil
}

func initialPlanPrompt(req CoachingRequest) string {
	target := req.TargetDate
	if target == "" {
		target = "not set"
	}
	return fmt.Sprintf(`The user wants to pursue this goal.
Goal: %s
Description: %s
Target date: %s

Write a short assessment of the goal and a roadmap in exactly 3 phases:
1. "Getting Started Checklist"
2. "Strategic Learning Path"
3. "First 2-Hour Sprint"

Return valid JSON only:
{"assessment": "...", "phases": [{"phase": "Getting Started Checklist", "items": ["..."]}]}`,
		req.GoalTitle, req.GoalDescription, target)
}

func updateGoalPrompt(req CoachingRequest) string {
	roadmap := "none"
	if req.ExistingRoadmap != nil {
		var parts []string
		for _, p := range req.ExistingRoadmap.Phases {
			parts = append(parts, p.Phase+": "+strings.Join(p.Items, "; "))
		}
		if len(parts) > 0 {
			roadmap = strings.Join(parts, "\n")
		}
	}
	return fmt.Sprintf(`Goal: %s
Progress update: %s
Is the user stuck: %t
Existing roadmap:
%s

Acknowledge progress, solve blockers if stuck, and provide 2-3 immediate next steps.
Return valid JSON only: {"feedback": "..."}`,
		req.GoalTitle, req.UpdateText, req.IsStuck, roadmap)
}
