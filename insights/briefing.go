package insights

import (
	"bytes"
	"fmt"
	"strings"

	"reflectionsmatch/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var briefingMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var linkTextEscaper = strings.NewReplacer("[", `\[`, "]", `\]`)

// BriefingMarkdown lays the weekly briefing out as markdown: the three
// cards followed by the video discoveries.
func BriefingMarkdown(radar models.WeeklyRadar) string {
	var b strings.Builder
	b.WriteString("# Your Weekly Briefing\n\n")
	cards := []struct {
		label string
		card  models.BriefingCard
	}{
		{RADAR_TYPE_DEEP_DIVE, radar.DeepDive},
		{RADAR_TYPE_WILDCARD, radar.Wildcard},
		{RADAR_TYPE_SPARK, radar.Spark},
	}
	for _, c := range cards {
		if c.card.Title == "" && c.card.Content == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s: %s\n\n%s\n\n", c.label, strings.TrimSpace(c.card.Title), strings.TrimSpace(c.card.Content))
	}

	if len(radar.Videos) > 0 {
		b.WriteString("---\n\n## Global Pulse Discovery\n\n")
		for _, v := range radar.Videos {
			title := linkTextEscaper.Replace(v.Title)
			if v.Thumbnail != "" {
				fmt.Fprintf(&b, "[![%s](%s)](%s)\n\n", title, v.Thumbnail, v.URL)
			}
			fmt.Fprintf(&b, "**[%s](%s)**\n\n", title, v.URL)
			if v.Reason != "" {
				fmt.Fprintf(&b, "*Insight: %s*\n\n", strings.TrimSpace(v.Reason))
			}
		}
	}
	return b.String()
}

// RenderBriefingHTML renders the briefing for the email body. Raw HTML in
// generated content is not passed through.
func RenderBriefingHTML(radar models.WeeklyRadar) (string, error) {
	var body bytes.Buffer
	if err := briefingMarkdown.Convert([]byte(BriefingMarkdown(radar)), &body); err != nil {
		return "", fmt.Errorf("render briefing: %w", err)
	}
	return `<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; color: #1f2937;">` +
		body.String() +
		`<p style="color: #6b7280; font-size: 12px;">Reflections Radar</p></div>`, nil
}
