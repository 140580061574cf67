package service

import (
	"career_path_backend/internal/catalog"
	"career_path_backend/internal/model"
	"fmt"
)

type TransitionKind string

const (
	TransitionFirst     TransitionKind = "first"
	TransitionReinforce TransitionKind = "reinforce"
	TransitionPivot     TransitionKind = "pivot"
	TransitionReturn    TransitionKind = "return"
	TransitionNoop      TransitionKind = "noop"
)

// CareerState 会话的累积状态，History 中每个职业的置信度只增不减
type CareerState struct {
	CurrentCareer string
	History       map[string]int
	AnswerCount   int
}

// Confidence 领先职业的置信度，超过 100 时按 100 展示
func (s CareerState) Confidence() int {
	return capConfidence(s.History[s.CurrentCareer])
}

// Transition 一次作答带来的状态变化
type Transition struct {
	Kind     TransitionKind
	Career   string // 本题指向的职业，noop 时为空
	Delta    int
	Feedback string
	State    CareerState
}

// Accumulator 根据规则表累积职业置信度，纯函数，不做任何 IO
type Accumulator struct {
	Rules             *catalog.Rules
	InitialConfidence int
	DefaultIncrement  int
}

func NewAccumulator(rules *catalog.Rules, policy PolicyReader) Accumulator {
	p := policy.Get()
	return Accumulator{Rules: rules, InitialConfidence: p.InitialConfidence, DefaultIncrement: p.DefaultIncrement}
}

// Step 计算作答后的新状态。题号或选项没有映射时只计数，不改变置信度
func (a Accumulator) Step(state CareerState, questionID int, option string) Transition {
	next := CareerState{
		CurrentCareer: state.CurrentCareer,
		History:       make(map[string]int, len(state.History)+1),
		AnswerCount:   state.AnswerCount + 1,
	}
	for career, confidence := range state.History {
		next.History[career] = confidence
	}
	if next.CurrentCareer == "" {
		next.CurrentCareer = model.UndecidedCareer
	}

	if questionID == 1 {
		career, ok := a.Rules.InitialCareer(option)
		if !ok {
			return a.noop(next)
		}
		next.CurrentCareer = career
		next.History[career] += a.InitialConfidence
		return Transition{
			Kind:     TransitionFirst,
			Career:   career,
			Delta:    a.InitialConfidence,
			Feedback: fmt.Sprintf("Starting assessment! You're at %d%% confidence for %s.", next.Confidence(), career),
			State:    next,
		}
	}

	career, ok := a.Rules.MappedCareer(questionID, option)
	if !ok {
		return a.noop(next)
	}
	delta, ok := a.Rules.Increment(career, questionID)
	if !ok {
		delta = a.DefaultIncrement
	}

	previous := next.History[career]
	next.History[career] = previous + delta
	t := Transition{Career: career, Delta: delta, State: next}

	switch {
	case career == state.CurrentCareer:
		t.Kind = TransitionReinforce
		t.Feedback = fmt.Sprintf("You're now at %d%% confidence for %s!", capConfidence(previous+delta), career)
	case previous > 0:
		t.Kind = TransitionReturn
		t.Feedback = fmt.Sprintf("Returning to %s at %d%% confidence!", career, capConfidence(previous+delta))
	default:
		t.Kind = TransitionPivot
		t.Feedback = fmt.Sprintf("You've pivoted to %s at %d%% confidence!", career, capConfidence(previous+delta))
	}
	t.State.CurrentCareer = career
	return t
}

func (a Accumulator) noop(next CareerState) Transition {
	feedback := "Answer recorded."
	if next.CurrentCareer != model.UndecidedCareer {
		feedback = fmt.Sprintf("Answer recorded. You're at %d%% confidence for %s.", next.Confidence(), next.CurrentCareer)
	}
	return Transition{Kind: TransitionNoop, Feedback: feedback, State: next}
}

func capConfidence(v int) int {
	if v > 100 {
		return 100
	}
	return v
}
