package storage

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"snowboardAnalyze/config"
	"snowboardAnalyze/core"
)

// SynthesizeAdvice turns retrieved tips into coaching feedback for a rider's
// run. Uses the chat model when API config is present, otherwise degrades to
// a plain concatenation of the retrieved tips.
func SynthesizeAdvice(question string, hits []core.TipHit) string {
	if len(hits) == 0 {
		return "No matching coaching tips found."
	}

	cfg, err := config.LoadConfig()
	if err != nil || !cfg.HasValidAPI() {
		return synthesizeAdviceSimple(hits)
	}

	contextParts := make([]string, 0, len(hits))
	for i, hit := range hits {
		label := hit.Phase
		if label == "" {
			label = "general"
		}
		contextParts = append(contextParts, fmt.Sprintf("Tip %d [%s] %s: %s", i+1, label, hit.Title, hit.Text))
	}
	contextStr := strings.Join(contextParts, "\n")

	prompt := fmt.Sprintf(`You are a snowboard coach reviewing a rider's trick analysis.

Retrieved coaching tips:
%s

Observation about the rider:
%s

Give concise, actionable feedback grounded in the tips above. Reference the
trick phase each piece of advice applies to. If the tips do not cover the
observation, say so instead of inventing advice.`, contextStr, question)

	cli := newOpenAIClient()
	ctx := context.Background()
	req := openai.ChatCompletionRequest{
		Model: cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   600,
		Temperature: 0.3,
	}

	resp, err := cli.CreateChatCompletion(ctx, req)
	if err != nil {
		fmt.Printf("Warning: LLM call failed (%v), falling back to simple synthesis\n", err)
		return synthesizeAdviceSimple(hits)
	}
	if len(resp.Choices) == 0 {
		return synthesizeAdviceSimple(hits)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

func synthesizeAdviceSimple(hits []core.TipHit) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Title+": "+h.Text)
	}
	return "Relevant tips: " + strings.Join(parts, " | ")
}

// SeedDefaultTips loads a small built-in tip library so retrieval works out
// of the box before a coach uploads their own material.
func SeedDefaultTips() int {
	tips := []core.CoachingTip{
		{Phase: string(core.PhaseSetupCarve), Title: "Commit to the setup edge", Text: "Hold one clean carve into the feature instead of flat-basing; a late edge change unsettles the board right when you need it stable."},
		{Phase: string(core.PhaseWindUp), Title: "Wind up with the upper body only", Text: "Rotate shoulders against the board while keeping hips and knees quiet, so the stored rotation releases through the snap instead of leaking early."},
		{Phase: string(core.PhaseSnap), Title: "Snap late and sharp", Text: "Release the counter-rotation in one quick movement just before the lip; a slow snap bleeds spin into the takeoff and tilts the axis."},
		{Phase: string(core.PhaseTakeoff), Title: "Stand tall through the lip", Text: "Extend legs fully at takeoff with shoulders stacked over hips; popping off a bent, broken position costs height and control."},
		{Phase: string(core.PhaseAir), Title: "Stay compact in the air", Text: "Draw knees up toward the chest to speed rotation, and spot the landing with your head before opening up."},
		{Phase: string(core.PhaseLanding), Title: "Absorb with the legs, not the back", Text: "Meet the snow with ankles and knees flexing, chest up, eyes downhill; folding at the waist sends hands to the snow."},
		{Title: "Keep shoulders stacked over hips", Text: "Stacked posture keeps pressure through the whole edge. If the stackedness score drops during carves, bring the chest back over the board before fixing anything else."},
		{Title: "Smooth edge-to-edge transfers", Text: "Roll from heelside to toeside with a progressive ankle-knee-hip movement. Abrupt transfers show up as low smoothness scores and chatter at speed."},
	}
	return globalStore.Upsert(tips)
}
