package service

import (
	"fmt"
	"strings"

	"github.com/maheshrc27/crosspost/internal/transfer"
)

type promptBuilder func(req *transfer.ContentRequest) string

var platformPrompts = map[string]promptBuilder{
	"twitter":   twitterPrompt,
	"linkedin":  linkedInPrompt,
	"instagram": instagramPrompt,
	"facebook":  facebookPrompt,
	"tiktok":    tiktokPrompt,
}

// promptFor falls back to the Twitter prompt for unknown platforms.
func promptFor(platform string, req *transfer.ContentRequest) string {
	if build, ok := platformPrompts[strings.ToLower(platform)]; ok {
		return build(req)
	}
	return twitterPrompt(req)
}

func choose(flag bool, yes, no string) string {
	if flag {
		return yes
	}
	return no
}

func header(kind string, req *transfer.ContentRequest) string {
	return fmt.Sprintf("%s about %s for %s.\nContent type: %s\nTone: %s\n\nRequirements:\n",
		kind, req.BrandTopic, req.TargetAudience, req.ContentType, req.Tone)
}

func footer(req *transfer.ContentRequest) string {
	if req.CustomInstructions == "" {
		return ""
	}
	return "\nAdditional instructions: " + req.CustomInstructions
}

func requirements(lines ...string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString("- ")
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}

func twitterPrompt(req *transfer.ContentRequest) string {
	return header("Create a viral Twitter/X post", req) + requirements(
		"Maximum 280 characters",
		"Hook that creates curiosity in first line",
		choose(req.IncludeHashtags, "Include 2-3 relevant hashtags", "No hashtags"),
		choose(req.IncludeCTA, "Include compelling call-to-action", "No call-to-action"),
		"Use strategic line breaks for readability",
		"Make it engaging and shareable",
	) + footer(req)
}

func linkedInPrompt(req *transfer.ContentRequest) string {
	return header("Write a professional LinkedIn post", req) + requirements(
		"Start with personal insight or industry observation",
		"Use bullet points for key information",
		"Professional yet engaging language",
		choose(req.IncludeHashtags, "Include 3-5 relevant professional hashtags", "No hashtags"),
		choose(req.IncludeCTA, "End with engaging question to drive comments", "No call-to-action"),
		"Establish thought leadership",
		"150-300 words optimal length",
	) + footer(req)
}

func instagramPrompt(req *transfer.ContentRequest) string {
	return header("Create an Instagram caption", req) + requirements(
		`Strong hook in first line (before "more" cutoff)`,
		"Tell a story or share experience",
		"Use emojis strategically (not overwhelming)",
		"Break text into short, readable paragraphs",
		choose(req.IncludeHashtags, "Include 15-20 relevant hashtags at the end", "No hashtags"),
		choose(req.IncludeCTA, "Include clear call-to-action", "No call-to-action"),
		"Authentic and relatable voice",
	) + footer(req)
}

func facebookPrompt(req *transfer.ContentRequest) string {
	return header("Write a Facebook post", req) + requirements(
		"Engaging opening that stops the scroll",
		"Conversational and community-focused",
		"Include storytelling elements",
		choose(req.IncludeHashtags, "Include 3-5 relevant hashtags", "No hashtags"),
		choose(req.IncludeCTA, "Include call-to-action that encourages engagement", "No call-to-action"),
		"Optimize for comments and shares",
		"100-250 words optimal",
	) + footer(req)
}

func tiktokPrompt(req *transfer.ContentRequest) string {
	return header("Create a TikTok video script/caption", req) + requirements(
		"Hook within first 3 seconds",
		"Trendy and current language",
		"Include video concept/visual ideas",
		choose(req.IncludeHashtags, "Include trending and niche hashtags (10-15)", "No hashtags"),
		choose(req.IncludeCTA, "Include engaging call-to-action", "No call-to-action"),
		"Fast-paced and entertaining",
		"Consider current TikTok trends",
	) + footer(req)
}

func batchPrompt(req *transfer.ContentRequest, size int) string {
	return fmt.Sprintf("Generate %d unique and diverse social media posts about %s for %s.\nContent type: %s\nTone: %s\nPlatforms: %s\n\nRequirements for each post:\n",
		size, req.BrandTopic, req.TargetAudience, req.ContentType, req.Tone, strings.Join(req.Platforms, ", ")) +
		requirements(
			"Unique angle or perspective",
			"Varied hooks and openings",
			"Different content formats (tips, questions, stories, facts, etc.)",
			choose(req.IncludeHashtags, "Include relevant hashtags", "No hashtags"),
			choose(req.IncludeCTA, "Include call-to-action", "No call-to-action"),
			"Optimize for engagement",
		) +
		"\nFormat: Return as numbered list (1. Post content here 2. Next post content...)\n" + footer(req)
}
