package prompts

import (
	"encoding/json"
	"slices"
)

// Stage names a template slot in a Set.
type Stage string

// Solver stages call the LLM; block stages format repeated sections;
// finetune stages shape exported transcripts.
const (
	StagePrediction Stage = "prediction"
	StageReflection Stage = "reflection"
	StageCorrection Stage = "correction"

	StageExample     Stage = "example"
	StagePastAttempt Stage = "past_attempt"

	StageFinetuneSystem       Stage = "finetune_system"
	StageFinetuneUserTask     Stage = "finetune_user_task"
	StageFinetuneAssistant    Stage = "finetune_assistant"
	StageFinetuneUserCritique Stage = "finetune_user_critique"
)

var stages = []Stage{
	StagePrediction,
	StageReflection,
	StageCorrection,
	StageExample,
	StagePastAttempt,
	StageFinetuneSystem,
	StageFinetuneUserTask,
	StageFinetuneAssistant,
	StageFinetuneUserCritique,
}

// Stages returns every known template stage.
func Stages() []Stage {
	return stages
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStage validates a string as a known stage.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
