package insights

import (
	"context"
	"fmt"
	"strings"

	"reflectionsmatch/logger"
	"reflectionsmatch/models"
	"reflectionsmatch/tools"
)

const enrichmentPrompt = `Analyze this image. Return a valid JSON object with a "summary" (max 2 sentences) and "tags" (array of 3 keywords). Do not include markdown code block syntax around the JSON.`

const uploadPrompt = `Analyze this image. Return a valid JSON object with a "title" (max 8 words), a "summary" (max 2 sentences) and "tags" (array of 3 to 5 keywords). Do not include markdown code block syntax around the JSON.`

// Enrichment is the structured result attached to a record.
type Enrichment struct {
	Title   string   `json:"title,omitempty"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// ImageFetcher loads the bytes behind a record's content reference.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (tools.InlineImage, error)
}

// EnrichmentStore is the write side the enricher needs.
type EnrichmentStore interface {
	SaveEnrichment(id int64, summary string, tags []string) error
}

type Enricher struct {
	log     *logger.Logger
	fetcher ImageFetcher
	gen     tools.Generator
	store   EnrichmentStore
}

func NewEnricher(log *logger.Logger, fetcher ImageFetcher, gen tools.Generator, store EnrichmentStore) *Enricher {
	return &Enricher{
		log:     log.With("component", "Enricher"),
		fetcher: fetcher,
		gen:     gen,
		store:   store,
	}
}

// Analyze fetches the image and asks for summary and tags.
func (e *Enricher) Analyze(ctx context.Context, imageURL, note string) (Enrichment, error) {
	img, err := e.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return Enrichment{}, err
	}
	return e.AnalyzeImage(ctx, img, note, enrichmentPrompt)
}

// AnalyzeUpload analyzes bytes the caller already has and also asks for a title.
func (e *Enricher) AnalyzeUpload(ctx context.Context, img tools.InlineImage, note string) (Enrichment, error) {
	return e.AnalyzeImage(ctx, img, note, uploadPrompt)
}

func (e *Enricher) AnalyzeImage(ctx context.Context, img tools.InlineImage, note, instruction string) (Enrichment, error) {
	prompt := instruction
	if n := strings.TrimSpace(note); n != "" {
		prompt += "\n\nThe user added this note: " + n
	}
	reply, err := generate(ctx, e.gen, "enrichment", tools.GenerateRequest{
		Prompt: prompt,
		Images: []tools.InlineImage{img},
	})
	if err != nil {
		return Enrichment{}, err
	}
	out, err := ExtractJSON[Enrichment](reply)
	if err != nil {
		return Enrichment{}, err
	}
	out.Summary = strings.TrimSpace(out.Summary)
	out.Title = strings.TrimSpace(out.Title)
	out.Tags = cleanTags(out.Tags)
	// a record is enriched once it has a summary; tags alone would leave it eligible forever
	if out.Summary == "" {
		return Enrichment{}, fmt.Errorf("%w: empty summary", ErrMalformedReply)
	}
	return out, nil
}

// Enrich runs analysis for one record and merges the result onto it. On any
// failure the record is left untouched and the error is returned for logging.
func (e *Enricher) Enrich(ctx context.Context, rec models.Reflection) error {
	log := e.log.With("reflection_id", rec.ID)
	if !rec.HasContent() {
		enrichmentTotal.WithLabelValues("skipped").Inc()
		return fmt.Errorf("reflection %d has no image content", rec.ID)
	}
	result, err := e.Analyze(ctx, rec.ImageURL, rec.UserNote)
	if err != nil {
		enrichmentTotal.WithLabelValues("failed").Inc()
		log.Warn("enrichment failed", "error", err)
		return err
	}
	if err := e.store.SaveEnrichment(rec.ID, result.Summary, result.Tags); err != nil {
		enrichmentTotal.WithLabelValues("failed").Inc()
		log.Warn("enrichment save failed", "error", err)
		return err
	}
	enrichmentTotal.WithLabelValues("succeeded").Inc()
	log.Debug("reflection enriched", "tags", len(result.Tags))
	return nil
}

// cleanTags trims entries and drops empty ones. Count is not enforced.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
