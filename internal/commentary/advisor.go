package commentary

import (
	"context"
	"strings"
)

const (
	tipsInstruction    = "Generate trading tips from these profit reasons:"
	lessonsInstruction = "Generate trading lessons from these loss reasons:"
)

// Generator produces text for a prompt and never fails
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// Commentary is the AI text shown on the dashboard
type Commentary struct {
	Tips    string `json:"tips"`
	Lessons string `json:"lessons"`
}

// Advisor turns journal reasons into tips and lessons
type Advisor struct {
	gen Generator
}

// NewAdvisor creates a new Advisor
func NewAdvisor(gen Generator) *Advisor {
	return &Advisor{gen: gen}
}

// Commentary asks for tips from profit reasons and lessons from loss reasons
func (a *Advisor) Commentary(ctx context.Context, profitReasons, lossReasons []string) Commentary {
	return Commentary{
		Tips:    a.gen.Generate(ctx, TipsPrompt(profitReasons)),
		Lessons: a.gen.Generate(ctx, LessonsPrompt(lossReasons)),
	}
}

// TipsPrompt builds the prompt sent for profitable days
func TipsPrompt(reasons []string) string {
	return tipsInstruction + "\n" + strings.Join(reasons, "\n")
}

// LessonsPrompt builds the prompt sent for losing days
func LessonsPrompt(reasons []string) string {
	return lessonsInstruction + "\n" + strings.Join(reasons, "\n")
}
