package entity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jimyag/pvegate/pkg/apierror"
)

// BulkAction 批量操作类型
type BulkAction string

const (
	BulkActionStart    BulkAction = "start"
	BulkActionPoweroff BulkAction = "poweroff"
	BulkActionReboot   BulkAction = "reboot"
)

// Command 对应的上游 status 子命令，不支持的操作返回空
func (a BulkAction) Command() string {
	switch a {
	case BulkActionStart:
		return "start"
	case BulkActionPoweroff:
		return "stop"
	case BulkActionReboot:
		return "reboot"
	}
	return ""
}

// BulkActionRequest 批量操作请求
type BulkActionRequest struct {
	Action BulkAction `json:"action" form:"action"`
	VMs    []string   `json:"vms" form:"vms"` // node|type|vmid
}

// IsValid 操作和目标都不能为空
// 操作名统一为小写并去掉首尾空白
func (r *BulkActionRequest) IsValid() error {
	r.Action = BulkAction(strings.ToLower(strings.TrimSpace(string(r.Action))))
	if r.Action == "" {
		return apierror.WrapError(apierror.ErrValidation, "action is required", nil)
	}
	if len(r.VMs) == 0 {
		return apierror.WrapError(apierror.ErrValidation, "at least one VM must be selected", nil)
	}
	return nil
}

// Selection 一个批量操作目标
type Selection struct {
	Raw  string // 原始 node|type|vmid
	Node string
	Type string
	VMID string
}

// String node/vmid
func (s Selection) String() string {
	return s.Node + "/" + s.VMID
}

// ParseSelection 解析 node|type|vmid
func ParseSelection(raw string) (Selection, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 3 {
		return Selection{Raw: raw}, fmt.Errorf("selection %q: expected node|type|vmid", raw)
	}
	sel := Selection{
		Raw:  raw,
		Node: strings.TrimSpace(parts[0]),
		Type: strings.TrimSpace(parts[1]),
		VMID: strings.TrimSpace(parts[2]),
	}
	if sel.Node == "" || sel.Type == "" {
		return sel, fmt.Errorf("selection %q: empty node or type", raw)
	}
	if id, err := strconv.Atoi(sel.VMID); err != nil || id <= 0 {
		return sel, fmt.Errorf("selection %q: invalid vmid", raw)
	}
	return sel, nil
}

// BulkOutcome 单个目标的处理结果
type BulkOutcome string

const (
	BulkOutcomeDone    BulkOutcome = "done"
	BulkOutcomeFailed  BulkOutcome = "failed"
	BulkOutcomeSkipped BulkOutcome = "skipped"
)

// BulkItem 单个目标的处理记录
type BulkItem struct {
	Target  Selection
	Action  BulkAction
	Outcome BulkOutcome
	Reason  string
}

// Detail 展示给用户的描述
func (i BulkItem) Detail() string {
	switch i.Outcome {
	case BulkOutcomeDone:
		return fmt.Sprintf("%s %s ok", i.Target, i.Action)
	case BulkOutcomeSkipped:
		return fmt.Sprintf("%s skipped (%s)", i.Target, i.Reason)
	}
	if i.Target.Node == "" {
		return fmt.Sprintf("%s %s", i.Target.Raw, i.Reason)
	}
	return fmt.Sprintf("%s %s failed (%s)", i.Target, i.Action, i.Reason)
}

// BulkActionResult 批量操作结果，只返回给调用方，不在服务端保存
type BulkActionResult struct {
	Action BulkAction
	Items  []BulkItem
}

// Count 指定结果的数量
func (r *BulkActionResult) Count(outcome BulkOutcome) int {
	n := 0
	for _, item := range r.Items {
		if item.Outcome == outcome {
			n++
		}
	}
	return n
}

// Details 指定结果的描述列表
func (r *BulkActionResult) Details(outcome BulkOutcome) []string {
	details := []string{}
	for _, item := range r.Items {
		if item.Outcome == outcome {
			details = append(details, item.Detail())
		}
	}
	return details
}

// BulkActionResponse POST /api/bulk 的响应
type BulkActionResponse struct {
	Action         BulkAction `json:"action"`
	Done           int        `json:"done"`
	Failed         int        `json:"failed"`
	Skipped        int        `json:"skipped"`
	SuccessDetails []string   `json:"success_details"`
	FailureDetails []string   `json:"failure_details"`
	SkipDetails    []string   `json:"skip_details"`
}

// Response 转换为对外的响应
func (r *BulkActionResult) Response() *BulkActionResponse {
	return &BulkActionResponse{
		Action:         r.Action,
		Done:           r.Count(BulkOutcomeDone),
		Failed:         r.Count(BulkOutcomeFailed),
		Skipped:        r.Count(BulkOutcomeSkipped),
		SuccessDetails: r.Details(BulkOutcomeDone),
		FailureDetails: r.Details(BulkOutcomeFailed),
		SkipDetails:    r.Details(BulkOutcomeSkipped),
	}
}
