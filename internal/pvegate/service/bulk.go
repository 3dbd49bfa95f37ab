package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jimyag/pvegate/internal/pvegate/entity"
	"github.com/jimyag/pvegate/pkg/apierror"
	"github.com/jimyag/pvegate/pkg/pveclient"
	"github.com/rs/zerolog"
)

// BulkService 批量电源操作
type BulkService struct {
	client    pveclient.Caller
	inventory *InventoryService
}

// NewBulkService 创建 BulkService
func NewBulkService(client pveclient.Caller, inventory *InventoryService) *BulkService {
	return &BulkService{
		client:    client,
		inventory: inventory,
	}
}

// Execute 对选中的目标依次执行操作
//
// 每个目标独立处理：已处于目标状态的跳过，失败的记录后继续。
// 任意一次上游 401 立即中止整个批次并返回 ErrUpstreamRejected，已有的结果丢弃
func (s *BulkService) Execute(ctx context.Context, sess entity.Session, req *entity.BulkActionRequest) (*entity.BulkActionResult, error) {
	logger := zerolog.Ctx(ctx)

	if err := req.IsValid(); err != nil {
		return nil, err
	}

	snapshot, err := s.inventory.StatusSnapshot(ctx, sess)
	if err != nil {
		logger.Warn().Err(err).Msg("Status pre-fetch rejected; aborting batch")
		return nil, err
	}

	result := &entity.BulkActionResult{Action: req.Action}
	for _, raw := range req.VMs {
		item, err := s.apply(ctx, sess, snapshot, req.Action, raw)
		if err != nil {
			logger.Warn().Err(err).Str("target", raw).Str("action", string(req.Action)).Msg("Bulk action aborted")
			return nil, err
		}
		result.Items = append(result.Items, item)
	}

	logger.Info().
		Str("action", string(req.Action)).
		Int("done", result.Count(entity.BulkOutcomeDone)).
		Int("failed", result.Count(entity.BulkOutcomeFailed)).
		Int("skipped", result.Count(entity.BulkOutcomeSkipped)).
		Msg("Bulk action completed")
	return result, nil
}

// apply 处理单个目标，只有上游 401 会返回 error
func (s *BulkService) apply(ctx context.Context, sess entity.Session, snapshot entity.StatusSnapshot, action entity.BulkAction, raw string) (entity.BulkItem, error) {
	logger := zerolog.Ctx(ctx)

	sel, err := entity.ParseSelection(raw)
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid bulk selection")
		return entity.BulkItem{
			Target:  entity.Selection{Raw: raw},
			Action:  action,
			Outcome: entity.BulkOutcomeFailed,
			Reason:  "invalid selection",
		}, nil
	}

	item := entity.BulkItem{Target: sel, Action: action}

	if vm, ok := snapshot.Lookup(sel.Node, sel.VMID); ok {
		running := vm.Running()
		switch {
		case (action == entity.BulkActionPoweroff || action == entity.BulkActionReboot) && !running:
			item.Outcome, item.Reason = entity.BulkOutcomeSkipped, "not running"
			return item, nil
		case action == entity.BulkActionStart && running:
			item.Outcome, item.Reason = entity.BulkOutcomeSkipped, "already running"
			return item, nil
		}
	}

	if !entity.SupportedVMType(sel.Type) {
		item.Outcome, item.Reason = entity.BulkOutcomeFailed, "unsupported type"
		return item, nil
	}
	command := action.Command()
	if command == "" {
		item.Outcome, item.Reason = entity.BulkOutcomeFailed, "unsupported action"
		return item, nil
	}

	resp, err := s.client.Call(ctx, sess.Endpoint(), &pveclient.Request{
		Method:      http.MethodPost,
		Path:        pveclient.StatusPath(sel.Node, sel.Type, sel.VMID, command),
		Credentials: sess.Credentials(),
	})
	if err != nil {
		item.Outcome, item.Reason = entity.BulkOutcomeFailed, err.Error()
		return item, nil
	}
	if resp.Unauthorized() {
		return item, apierror.WrapError(apierror.ErrUpstreamRejected,
			fmt.Sprintf("%s %s was rejected by the upstream", sel, action), nil)
	}
	if !resp.OK() {
		item.Outcome, item.Reason = entity.BulkOutcomeFailed, fmt.Sprintf("HTTP %d", resp.StatusCode)
		return item, nil
	}

	if upid, err := pveclient.DecodeData[pveclient.ActionData](resp); err == nil && upid != "" {
		logger.Debug().Str("target", sel.String()).Str("upid", string(upid)).Msg("Upstream task started")
	}
	item.Outcome = entity.BulkOutcomeDone
	return item, nil
}
