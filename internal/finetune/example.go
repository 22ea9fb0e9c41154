package finetune

import (
	"encoding/json"

	"github.com/sashabaranov/go-openai"

	"github.com/JaimeStill/arcsolve/internal/prompts"
	"github.com/JaimeStill/arcsolve/internal/workflow"
)

// Closing assistant messages. Fine-tuning transcripts must end on an
// assistant turn.
const (
	SolvedClosing   = "Glad, we were able to solve the puzzle!"
	UnsolvedClosing = "Thanks for the feedback. I'll incorporate this into my next prediction."
)

// Message is one chat turn in the fine-tuning format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Example is a complete transcript for one task.
type Example struct {
	TaskName string    `json:"-"`
	Messages []Message `json:"messages"`
}

// FromContext builds an example from a solver execution context.
func FromContext(name string, ec *workflow.ExecutionContext, set prompts.Set) (*Example, error) {
	if ec == nil {
		return nil, ErrNoAttempts
	}
	return FromAttempts(
		name,
		ec.PromptVars[workflow.VarExamples],
		ec.PromptVars[workflow.VarTestInput],
		ec.Attempts,
		set,
	)
}

// FromAttempts builds the transcript: system message, the task, then one
// assistant prediction and user critique per attempt, closed by an
// assistant acknowledgement.
func FromAttempts(name, examples, testInput string, attempts []workflow.Attempt, set prompts.Set) (*Example, error) {
	if len(attempts) == 0 {
		return nil, ErrNoAttempts
	}

	render := func(stage prompts.Stage, vars map[string]string) (string, error) {
		tmpl, err := set.Template(stage)
		if err != nil {
			return "", err
		}
		return tmpl.Render(vars)
	}

	system, err := render(prompts.StageFinetuneSystem, nil)
	if err != nil {
		return nil, err
	}
	task, err := render(prompts.StageFinetuneUserTask, map[string]string{
		"examples":   examples,
		"test_input": testInput,
	})
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, 2*len(attempts)+3)
	messages = append(messages,
		Message{Role: openai.ChatMessageRoleSystem, Content: system},
		Message{Role: openai.ChatMessageRoleUser, Content: task},
	)

	for _, a := range attempts {
		prediction, err := render(prompts.StageFinetuneAssistant, map[string]string{
			"predicted_output": a.Prediction.Prediction,
			"rationale":        a.Prediction.Rationale,
		})
		if err != nil {
			return nil, err
		}
		critique, err := render(prompts.StageFinetuneUserCritique, map[string]string{
			"critique": a.CritiqueText(),
		})
		if err != nil {
			return nil, err
		}
		messages = append(messages,
			Message{Role: openai.ChatMessageRoleAssistant, Content: prediction},
			Message{Role: openai.ChatMessageRoleUser, Content: critique},
		)
	}

	closing := UnsolvedClosing
	if attempts[len(attempts)-1].CritiqueText() == workflow.SuccessCritique {
		closing = SolvedClosing
	}
	messages = append(messages, Message{Role: openai.ChatMessageRoleAssistant, Content: closing})

	return &Example{TaskName: name, Messages: messages}, nil
}

// Line encodes the example as a single JSONL record.
func (e *Example) Line() ([]byte, error) {
	return json.Marshal(e)
}

// Pretty encodes the example with indentation for preview.
func (e *Example) Pretty() ([]byte, error) {
	return json.MarshalIndent(e, "", "    ")
}
